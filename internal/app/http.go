package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sudeengin/DnDbug-sub002/internal/campaign"
)

type HTTPServer struct {
	service    *Service
	corsOrigin string
	metrics    http.Handler
}

func NewHTTPServer(service *Service, corsOrigin string) *HTTPServer {
	return &HTTPServer{service: service, corsOrigin: corsOrigin, metrics: promhttp.Handler()}
}

func (s *HTTPServer) Handler() http.Handler {
	return s.withMiddleware(http.HandlerFunc(s.handle))
}

func (s *HTTPServer) handle(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		writeJSON(w, http.StatusNoContent, map[string]any{})
		return
	}

	if (r.Method == http.MethodGet || r.Method == http.MethodHead) && r.URL.Path == "/api/health" {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		return
	}

	if (r.Method == http.MethodGet || r.Method == http.MethodHead) && r.URL.Path == "/api/ready" {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		status := "ready"
		statusCode := http.StatusOK
		checks := map[string]any{
			"store": map[string]any{"status": "ok", "backend": s.service.cfg.Store},
		}

		if err := s.service.Ping(ctx); err != nil {
			status = "not_ready"
			statusCode = http.StatusServiceUnavailable
			checks["store"] = map[string]any{
				"status":  "error",
				"backend": s.service.cfg.Store,
				"error":   err.Error(),
			}
		}

		writeJSON(w, statusCode, map[string]any{
			"ok":     status == "ready",
			"status": status,
			"checks": checks,
		})
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/metrics" {
		s.metrics.ServeHTTP(w, r)
		return
	}

	parts := splitPath(r.URL.Path)
	if len(parts) >= 2 && parts[0] == "api" && parts[1] == "projects" {
		s.handleProjects(w, r, parts[2:])
		return
	}
	if len(parts) >= 3 && parts[0] == "api" && parts[1] == "sessions" {
		s.handleSession(w, r, parts[2], parts[3:])
		return
	}

	writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
}

func (s *HTTPServer) handleProjects(w http.ResponseWriter, r *http.Request, rest []string) {
	ctx := r.Context()
	switch {
	case len(rest) == 0 && r.Method == http.MethodGet:
		payload, err := s.service.ListProjects(ctx)
		s.respond(w, payload, err)
	case len(rest) == 0 && r.Method == http.MethodPost:
		var body struct {
			Title string `json:"title" validate:"required,max=200"`
		}
		if !s.decode(w, r, &body) {
			return
		}
		payload, err := s.service.CreateProject(ctx, body.Title)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, payload)
	case len(rest) == 1 && r.Method == http.MethodGet:
		payload, err := s.service.GetProject(ctx, rest[0])
		s.respond(w, payload, err)
	case len(rest) == 1 && r.Method == http.MethodDelete:
		payload, err := s.service.DeleteProject(ctx, rest[0])
		s.respond(w, payload, err)
	default:
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
	}
}

func (s *HTTPServer) handleSession(w http.ResponseWriter, r *http.Request, sessionID string, rest []string) {
	ctx := r.Context()

	if len(rest) == 0 {
		switch r.Method {
		case http.MethodGet:
			payload, err := s.service.GetSession(ctx, sessionID)
			s.respond(w, payload, err)
		case http.MethodDelete:
			if err := s.service.DeleteSession(ctx, sessionID); err != nil {
				s.writeServiceError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		default:
			writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
		}
		return
	}

	switch rest[0] {
	case "health":
		if len(rest) == 1 && r.Method == http.MethodGet {
			payload, err := s.service.SessionHealth(ctx, sessionID)
			s.respond(w, payload, err)
			return
		}
	case "clear":
		if len(rest) == 1 && r.Method == http.MethodPost {
			payload, err := s.service.ClearSession(ctx, sessionID)
			s.respond(w, payload, err)
			return
		}
	case "background":
		s.handleBackground(w, r, sessionID, rest[1:])
		return
	case "lock":
		if len(rest) == 1 && r.Method == http.MethodPost {
			var body struct {
				BlockType string `json:"blockType" validate:"required"`
				Locked    *bool  `json:"locked" validate:"required"`
			}
			if !s.decode(w, r, &body) {
				return
			}
			payload, err := s.service.SetLock(ctx, sessionID, body.BlockType, *body.Locked)
			s.respond(w, payload, err)
			return
		}
	case "characters":
		s.handleCharacters(w, r, sessionID, rest[1:])
		return
	case "chain":
		s.handleChain(w, r, sessionID, rest[1:])
		return
	case "scenes":
		s.handleScenes(w, r, sessionID, rest[1:])
		return
	case "sheets":
		s.handleSheets(w, r, sessionID, rest[1:])
		return
	case "history":
		if r.Method != http.MethodGet {
			break
		}
		if len(rest) == 1 {
			limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
			payload, err := s.service.History(ctx, sessionID, limit)
			s.respond(w, payload, err)
			return
		}
		if len(rest) == 2 {
			payload, err := s.service.HistoryAt(ctx, sessionID, rest[1])
			s.respond(w, payload, err)
			return
		}
	case "export":
		if len(rest) == 1 && r.Method == http.MethodGet {
			result, err := s.service.Export(ctx, sessionID, r.URL.Query().Get("format"))
			if err != nil {
				s.writeServiceError(w, err)
				return
			}
			w.Header().Set("Content-Disposition", "attachment; filename=\""+result.Filename+"\"")
			w.Header().Set("Content-Type", result.MimeType)
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write(result.Data)
			return
		}
	}

	writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
}

func (s *HTTPServer) handleBackground(w http.ResponseWriter, r *http.Request, sessionID string, rest []string) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
		return
	}
	switch {
	case len(rest) == 0:
		var body struct {
			Background campaign.BackgroundContent `json:"background"`
		}
		if !s.decode(w, r, &body) {
			return
		}
		payload, err := s.service.WriteBackground(r.Context(), sessionID, body.Background)
		s.respond(w, payload, err)
	case len(rest) == 1 && rest[0] == "generate":
		var body struct {
			Concept         string `json:"concept" validate:"required"`
			NumberOfPlayers int    `json:"numberOfPlayers" validate:"omitempty,min=1,max=12"`
		}
		if !s.decode(w, r, &body) {
			return
		}
		payload, err := s.service.GenerateBackground(r.Context(), sessionID, body.Concept, body.NumberOfPlayers)
		s.respond(w, payload, err)
	default:
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
	}
}

func (s *HTTPServer) handleCharacters(w http.ResponseWriter, r *http.Request, sessionID string, rest []string) {
	switch {
	case len(rest) == 0 && r.Method == http.MethodPost:
		var body struct {
			Character *campaign.Character `json:"character" validate:"required"`
		}
		if !s.decode(w, r, &body) {
			return
		}
		payload, err := s.service.UpsertCharacter(r.Context(), sessionID, *body.Character)
		s.respond(w, payload, err)
	case len(rest) == 1 && rest[0] == "generate" && r.Method == http.MethodPost:
		var body struct {
			NumberOfPlayers int `json:"numberOfPlayers" validate:"omitempty,min=1,max=12"`
		}
		if !s.decode(w, r, &body) {
			return
		}
		payload, err := s.service.GenerateCharacters(r.Context(), sessionID, body.NumberOfPlayers)
		s.respond(w, payload, err)
	case len(rest) == 1 && r.Method == http.MethodDelete:
		payload, err := s.service.DeleteCharacter(r.Context(), sessionID, rest[0])
		s.respond(w, payload, err)
	default:
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
	}
}

func (s *HTTPServer) handleChain(w http.ResponseWriter, r *http.Request, sessionID string, rest []string) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
		return
	}
	switch {
	case len(rest) == 1 && rest[0] == "generate":
		var body struct {
			IsDraftIdeaBank bool `json:"isDraftIdeaBank"`
		}
		if !s.decode(w, r, &body) {
			return
		}
		payload, err := s.service.GenerateChain(r.Context(), sessionID, body.IsDraftIdeaBank)
		s.respond(w, payload, err)
	case len(rest) == 1 && rest[0] == "lock":
		var body struct {
			Locked *bool `json:"locked" validate:"required"`
		}
		if !s.decode(w, r, &body) {
			return
		}
		payload, err := s.service.SetLock(r.Context(), sessionID, string(campaign.KindMacroChain), *body.Locked)
		s.respond(w, payload, err)
	case len(rest) == 2 && rest[0] == "scenes":
		var body struct {
			Title     string `json:"title" validate:"required"`
			Objective string `json:"objective"`
		}
		if !s.decode(w, r, &body) {
			return
		}
		payload, err := s.service.EditChainScene(r.Context(), sessionID, rest[1], body.Title, body.Objective)
		s.respond(w, payload, err)
	default:
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
	}
}

func (s *HTTPServer) handleScenes(w http.ResponseWriter, r *http.Request, sessionID string, rest []string) {
	ctx := r.Context()
	switch {
	case len(rest) == 0 && r.Method == http.MethodGet:
		payload, err := s.service.SceneAccess(ctx, sessionID)
		s.respond(w, payload, err)
	case len(rest) == 1 && r.Method == http.MethodPost:
		var body struct {
			Content campaign.SceneContent `json:"content"`
		}
		if !s.decode(w, r, &body) {
			return
		}
		payload, err := s.service.EditSceneDetail(ctx, sessionID, rest[0], body.Content)
		s.respond(w, payload, err)
	case len(rest) == 2 && rest[1] == "open" && r.Method == http.MethodGet:
		payload, err := s.service.OpenScene(ctx, sessionID, rest[0])
		s.respond(w, payload, err)
	case len(rest) == 2 && rest[1] == "generate" && r.Method == http.MethodPost:
		payload, err := s.service.GenerateSceneDetail(ctx, sessionID, rest[0])
		s.respondScene(w, rest[0], payload, err)
	case len(rest) == 2 && rest[1] == "lock" && r.Method == http.MethodPost:
		var body struct {
			Locked *bool `json:"locked" validate:"required"`
		}
		if !s.decode(w, r, &body) {
			return
		}
		payload, err := s.service.SetSceneLock(ctx, sessionID, rest[0], *body.Locked)
		s.respondScene(w, rest[0], payload, err)
	default:
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
	}
}

func (s *HTTPServer) handleSheets(w http.ResponseWriter, r *http.Request, sessionID string, rest []string) {
	ctx := r.Context()
	if len(rest) == 0 {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
			return
		}
		payload, err := s.service.ListSheets(ctx, sessionID)
		s.respond(w, payload, err)
		return
	}
	characterID := rest[0]
	switch {
	case len(rest) == 1 && r.Method == http.MethodGet:
		payload, err := s.service.Sheet(ctx, sessionID, characterID)
		s.respond(w, payload, err)
	case len(rest) == 1 && r.Method == http.MethodPut:
		var body struct {
			Name                       string   `json:"name" validate:"required,max=120"`
			Level                      int      `json:"level" validate:"required,min=1,max=20"`
			Race                       string   `json:"race" validate:"max=80"`
			Subrace                    string   `json:"subrace" validate:"max=80"`
			Background                 string   `json:"background" validate:"max=80"`
			CustomLanguages            []string `json:"customLanguages" validate:"max=16"`
			CustomProficiencies        []string `json:"customProficiencies" validate:"max=32"`
			CustomAge                  int      `json:"customAge" validate:"min=0,max=1000"`
			CustomHeight               string   `json:"customHeight" validate:"max=40"`
			CustomPhysicalDescription  string   `json:"customPhysicalDescription" validate:"max=2000"`
			CustomEquipmentPreferences []string `json:"customEquipmentPreferences" validate:"max=32"`
		}
		if !s.decode(w, r, &body) {
			return
		}
		payload, err := s.service.UpdateSheetBuild(ctx, sessionID, characterID, campaign.SheetBuild{
			Name:                 body.Name,
			Level:                body.Level,
			Race:                 body.Race,
			Subrace:              body.Subrace,
			Background:           body.Background,
			Languages:            body.CustomLanguages,
			Proficiencies:        body.CustomProficiencies,
			Age:                  body.CustomAge,
			Height:               body.CustomHeight,
			PhysicalDescription:  body.CustomPhysicalDescription,
			EquipmentPreferences: body.CustomEquipmentPreferences,
		})
		s.respond(w, payload, err)
	case len(rest) == 2 && rest[1] == "method" && r.Method == http.MethodPost:
		var body struct {
			Method string `json:"method" validate:"required"`
		}
		if !s.decode(w, r, &body) {
			return
		}
		payload, err := s.service.SetSheetMethod(ctx, sessionID, characterID, body.Method)
		s.respond(w, payload, err)
	case len(rest) == 2 && rest[1] == "scores" && r.Method == http.MethodPost:
		var body struct {
			Ability string `json:"ability" validate:"required"`
			Value   *int   `json:"value" validate:"required,min=0,max=30"`
		}
		if !s.decode(w, r, &body) {
			return
		}
		payload, err := s.service.AssignScore(ctx, sessionID, characterID, body.Ability, *body.Value)
		s.respond(w, payload, err)
	case len(rest) == 2 && rest[1] == "lock" && r.Method == http.MethodPost:
		payload, err := s.service.LockAbilityStep(ctx, sessionID, characterID)
		s.respond(w, payload, err)
	case len(rest) == 3 && rest[1] == "options" && r.Method == http.MethodGet:
		payload, err := s.service.SheetOptions(ctx, sessionID, characterID, rest[2])
		s.respond(w, payload, err)
	default:
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
	}
}

// decode reads and validates a JSON body, writing the error response itself.
func (s *HTTPServer) decode(w http.ResponseWriter, r *http.Request, target any) bool {
	if err := decodeBody(r, target); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return false
	}
	if err := validateBody(target); err != nil {
		s.writeServiceError(w, err)
		return false
	}
	return true
}

func (s *HTTPServer) respond(w http.ResponseWriter, payload map[string]any, err error) {
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, payload)
}

// respondScene treats a gate denial as a no-op answer rather than a failure.
func (s *HTTPServer) respondScene(w http.ResponseWriter, sceneID string, payload map[string]any, err error) {
	if err != nil && campaign.IsKind(err, campaign.KindAccessDenied) {
		writeJSON(w, http.StatusOK, deniedPayload(sceneID, err))
		return
	}
	s.respond(w, payload, err)
}

func (s *HTTPServer) writeServiceError(w http.ResponseWriter, err error) {
	status, code, message, details := mapError(err)
	if status >= http.StatusInternalServerError {
		s.service.logger.Error("request failed", "code", code, "error", err)
	}
	writeError(w, status, code, message, details)
}

func (s *HTTPServer) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		started := time.Now()
		writer := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		setCORSHeaders(writer.Header(), s.corsOrigin)
		writer.Header().Set("X-Request-ID", requestID)

		next.ServeHTTP(writer, r)

		elapsed := time.Since(started)
		requestDuration.WithLabelValues(r.Method, strconv.Itoa(writer.status)).Observe(elapsed.Seconds())
		s.service.logger.Info("request",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", writer.status,
			"duration_ms", elapsed.Milliseconds(),
		)
	})
}

type requestIDKey struct{}

func requestIDFrom(ctx context.Context) string {
	requestID, _ := ctx.Value(requestIDKey{}).(string)
	return requestID
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func setCORSHeaders(header http.Header, corsOrigin string) {
	header.Set("Access-Control-Allow-Origin", corsOrigin)
	header.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
	header.Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
	header.Set("Cache-Control", "no-store")
	header.Set("Content-Type", "application/json")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string, details any) {
	response := map[string]any{
		"code":  code,
		"error": message,
	}
	if details != nil {
		response["details"] = details
	}
	writeJSON(w, status, response)
}

func decodeBody(r *http.Request, target any) error {
	if r.Body == nil {
		return nil
	}
	defer r.Body.Close()
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(target); err != nil {
		if errors.Is(err, http.ErrBodyReadAfterClose) || errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("invalid JSON body")
	}
	return nil
}

func splitPath(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}
