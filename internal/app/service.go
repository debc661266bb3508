package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sudeengin/DnDbug-sub002/internal/abilities"
	"github.com/sudeengin/DnDbug-sub002/internal/campaign"
	"github.com/sudeengin/DnDbug-sub002/internal/config"
	"github.com/sudeengin/DnDbug-sub002/internal/export"
	"github.com/sudeengin/DnDbug-sub002/internal/generator"
	"github.com/sudeengin/DnDbug-sub002/internal/history"
	"github.com/sudeengin/DnDbug-sub002/internal/store"
	"github.com/sudeengin/DnDbug-sub002/internal/util"
)

// SessionStore persists whole sessions with a version check on write.
type SessionStore interface {
	LoadSession(context.Context, string) (*campaign.Session, error)
	SaveSession(context.Context, *campaign.Session, int64) error
	DeleteSession(context.Context, string) error
	Ping(ctx context.Context) error
}

// ProjectStore persists the project records sessions are grouped under.
type ProjectStore interface {
	CreateProject(context.Context, store.Project) error
	ListProjects(context.Context) ([]store.Project, error)
	GetProject(context.Context, string) (store.Project, error)
	DeleteProject(context.Context, string) (store.Project, error)
}

type historyService interface {
	Record(*campaign.Session, history.Event) (history.Entry, error)
	History(string, int) ([]history.Entry, error)
	SessionAt(string, string) (*campaign.Session, error)
	Remove(string) error
}

type exportService interface {
	Export(context.Context, *campaign.Session, export.Format) (*export.Result, error)
}

type Service struct {
	cfg       config.Config
	store     SessionStore
	projects  ProjectStore
	history   historyService
	generator generator.Generator
	exporter  exportService
	logger    *slog.Logger
	now       func() time.Time
}

func New(cfg config.Config, sessions SessionStore, projects ProjectStore, historySvc *history.Service, gen generator.Generator, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	svc := &Service{
		cfg:       cfg,
		store:     sessions,
		projects:  projects,
		generator: gen,
		exporter:  export.NewService(nil),
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
	if historySvc != nil {
		svc.history = historySvc
	}
	return svc
}

func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// GetSession returns the session, creating an empty one on first access.
func (s *Service) GetSession(ctx context.Context, sessionID string) (map[string]any, error) {
	session, err := s.loadOrNew(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Version == 0 && session.CreatedAt.IsZero() {
		session = campaign.NewSession(sessionID, s.now())
		if err := s.save(ctx, session, 0); err != nil {
			return nil, err
		}
		return sessionPayload(session, campaign.StalenessReport{}), nil
	}
	// Reconciled in memory only; the next accepted write persists it.
	return sessionPayload(session, session.Reconcile(s.now())), nil
}

// SessionHealth summarizes a stored session without creating one.
func (s *Service) SessionHealth(ctx context.Context, sessionID string) (map[string]any, error) {
	session, err := s.load(ctx, sessionID)
	health := map[string]any{
		"sessionId": sessionID,
		"exists":    err == nil,
		"timestamp": s.now(),
	}
	switch {
	case errors.Is(err, store.ErrNotFound):
		return map[string]any{"ok": true, "health": health}, nil
	case err != nil:
		return nil, err
	}
	health["version"] = session.Version
	health["hasBackground"] = session.Blocks.Background != nil
	health["hasCharacters"] = session.Blocks.Characters != nil && len(session.Blocks.Characters.List) > 0
	health["hasMacroChain"] = session.Blocks.Custom.MacroChain != nil
	health["sceneDetailCount"] = len(session.SceneDetails)
	health["locks"] = session.Locks
	health["createdAt"] = session.CreatedAt
	health["updatedAt"] = session.UpdatedAt
	return map[string]any{"ok": true, "health": health}, nil
}

func (s *Service) DeleteSession(ctx context.Context, sessionID string) error {
	if !util.ValidID(sessionID) {
		return invalidSessionID()
	}
	if err := s.store.DeleteSession(ctx, sessionID); err != nil {
		return err
	}
	if s.history != nil {
		if err := s.history.Remove(sessionID); err != nil {
			s.log(ctx).Warn("remove session history failed", "session_id", sessionID, "error", err)
		}
	}
	s.log(ctx).Info("session deleted", "session_id", sessionID)
	return nil
}

func (s *Service) ClearSession(ctx context.Context, sessionID string) (map[string]any, error) {
	return s.mutate(ctx, sessionID, func(session *campaign.Session, now time.Time) (campaign.StalenessReport, error) {
		session.Clear(now)
		return campaign.StalenessReport{}, nil
	})
}

func (s *Service) WriteBackground(ctx context.Context, sessionID string, content campaign.BackgroundContent) (map[string]any, error) {
	return s.mutate(ctx, sessionID, func(session *campaign.Session, now time.Time) (campaign.StalenessReport, error) {
		return session.WriteBackground(content, now)
	})
}

func (s *Service) GenerateBackground(ctx context.Context, sessionID, concept string, players int) (map[string]any, error) {
	return s.mutate(ctx, sessionID, func(session *campaign.Session, now time.Time) (campaign.StalenessReport, error) {
		if err := session.CanWriteBackground(); err != nil {
			return campaign.StalenessReport{}, err
		}
		var content campaign.BackgroundContent
		err := s.generate(ctx, generator.TaskBackground, func(ctx context.Context) error {
			var err error
			content, err = s.generator.Background(ctx, generator.BackgroundRequest{Concept: concept, NumberOfPlayers: players})
			return err
		})
		if err != nil {
			return campaign.StalenessReport{}, err
		}
		return session.WriteBackground(content, now)
	})
}

func (s *Service) GenerateCharacters(ctx context.Context, sessionID string, players int) (map[string]any, error) {
	return s.mutate(ctx, sessionID, func(session *campaign.Session, now time.Time) (campaign.StalenessReport, error) {
		if err := session.CanSetCharacters(); err != nil {
			return campaign.StalenessReport{}, err
		}
		background := session.Blocks.Background.Content
		if players <= 0 {
			players = background.NumberOfPlayers
		}
		var list []campaign.Character
		err := s.generate(ctx, generator.TaskCharacters, func(ctx context.Context) error {
			var err error
			list, err = s.generator.Characters(ctx, generator.CharactersRequest{Background: background, NumberOfPlayers: players})
			return err
		})
		if err != nil {
			return campaign.StalenessReport{}, err
		}
		return session.SetCharacters(list, now)
	})
}

func (s *Service) UpsertCharacter(ctx context.Context, sessionID string, character campaign.Character) (map[string]any, error) {
	return s.mutate(ctx, sessionID, func(session *campaign.Session, now time.Time) (campaign.StalenessReport, error) {
		if strings.TrimSpace(character.ID) == "" {
			character.ID = util.NewID("char")
		}
		return session.UpsertCharacter(character, now)
	})
}

func (s *Service) DeleteCharacter(ctx context.Context, sessionID, characterID string) (map[string]any, error) {
	return s.mutate(ctx, sessionID, func(session *campaign.Session, now time.Time) (campaign.StalenessReport, error) {
		_, report, err := session.DeleteCharacter(characterID, now)
		return report, err
	})
}

// SetLock locks or unlocks a top-level block and records the transition.
func (s *Service) SetLock(ctx context.Context, sessionID, blockType string, locked bool) (map[string]any, error) {
	kind, ok := campaign.ParseBlockKind(blockType)
	if !ok {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "blockType must be one of background, characters, macroChain", nil)
	}
	event := history.Event{Transition: transitionOf(locked), Target: string(kind)}
	return s.transition(ctx, sessionID, event, func(session *campaign.Session, now time.Time) (campaign.StalenessReport, error) {
		if locked {
			return campaign.StalenessReport{}, session.LockRegistry().Lock(kind, now)
		}
		return session.LockRegistry().Unlock(kind, now)
	})
}

func (s *Service) GenerateChain(ctx context.Context, sessionID string, draftIdeaBank bool) (map[string]any, error) {
	return s.mutate(ctx, sessionID, func(session *campaign.Session, now time.Time) (campaign.StalenessReport, error) {
		if err := session.CanCreateMacroChain(); err != nil {
			return campaign.StalenessReport{}, err
		}
		var scenes []campaign.Scene
		err := s.generate(ctx, generator.TaskMacroChain, func(ctx context.Context) error {
			var err error
			scenes, err = s.generator.MacroChain(ctx, generator.MacroChainRequest{
				Background:      session.Blocks.Background.Content,
				Characters:      session.Blocks.Characters.List,
				IsDraftIdeaBank: draftIdeaBank,
			})
			return err
		})
		if err != nil {
			return campaign.StalenessReport{}, err
		}
		chainID := util.NewID("chain")
		if previous := session.Blocks.Custom.MacroChain; previous != nil {
			chainID = previous.ChainID
		}
		return session.SetMacroChain(chainID, scenes, draftIdeaBank, now)
	})
}

func (s *Service) EditChainScene(ctx context.Context, sessionID, sceneID, title, objective string) (map[string]any, error) {
	return s.mutate(ctx, sessionID, func(session *campaign.Session, now time.Time) (campaign.StalenessReport, error) {
		return session.EditChainScene(sceneID, title, objective, now)
	})
}

// GenerateSceneDetail details one scene, giving the generator the content of
// every earlier detailed scene.
func (s *Service) GenerateSceneDetail(ctx context.Context, sessionID, sceneID string) (map[string]any, error) {
	return s.mutate(ctx, sessionID, func(session *campaign.Session, now time.Time) (campaign.StalenessReport, error) {
		if err := session.CanDetailScene(sceneID); err != nil {
			return campaign.StalenessReport{}, err
		}
		chain := session.Blocks.Custom.MacroChain
		ids := session.SceneIDs()
		req := generator.SceneRequest{
			Background: session.Blocks.Background.Content,
			Characters: session.Blocks.Characters.List,
			Scene:      chain.Scenes[chain.SceneIndex(sceneID)],
		}
		for i, id := range ids {
			if id == sceneID {
				req.Index = i
				break
			}
			if detail, ok := session.SceneDetails[id]; ok {
				req.Previous = append(req.Previous, detail.Content)
			}
		}
		var content campaign.SceneContent
		err := s.generate(ctx, generator.TaskSceneDetail, func(ctx context.Context) error {
			var err error
			content, err = s.generator.SceneDetail(ctx, req)
			return err
		})
		if err != nil {
			return campaign.StalenessReport{}, err
		}
		_, err = session.PutSceneDetail(sceneID, content, now)
		return campaign.StalenessReport{}, err
	})
}

func (s *Service) EditSceneDetail(ctx context.Context, sessionID, sceneID string, content campaign.SceneContent) (map[string]any, error) {
	return s.mutate(ctx, sessionID, func(session *campaign.Session, now time.Time) (campaign.StalenessReport, error) {
		_, err := session.EditSceneDetail(sceneID, content, now)
		return campaign.StalenessReport{}, err
	})
}

func (s *Service) SetSceneLock(ctx context.Context, sessionID, sceneID string, locked bool) (map[string]any, error) {
	event := history.Event{Transition: transitionOf(locked), Target: history.SceneTarget(sceneID)}
	return s.transition(ctx, sessionID, event, func(session *campaign.Session, now time.Time) (campaign.StalenessReport, error) {
		if locked {
			if _, err := session.OpenScene(sceneID); err != nil {
				return campaign.StalenessReport{}, err
			}
			return campaign.StalenessReport{}, session.LockRegistry().LockScene(sceneID, now)
		}
		return session.LockRegistry().UnlockScene(sceneID, now)
	})
}

// SceneAccess is the gate view of every scene in chain order.
func (s *Service) SceneAccess(ctx context.Context, sessionID string) (map[string]any, error) {
	session, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	scenes := session.SceneAccessList()
	if scenes == nil {
		scenes = []campaign.SceneAccess{}
	}
	highest := session.SceneGate().HighestLockedIndex(session.SceneIDs())
	return map[string]any{
		"sessionId":          session.SessionID,
		"scenes":             scenes,
		"highestLockedIndex": highest,
	}, nil
}

// OpenScene checks the gate for one scene. A denied access is not an error
// for the caller: it is logged and reported as accessible=false.
func (s *Service) OpenScene(ctx context.Context, sessionID, sceneID string) (map[string]any, error) {
	session, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	index, err := session.OpenScene(sceneID)
	if err != nil {
		if campaign.IsKind(err, campaign.KindAccessDenied) {
			s.rejected(ctx, sessionID, err)
			return deniedPayload(sceneID, err), nil
		}
		return nil, err
	}
	return map[string]any{
		"sceneId":    sceneID,
		"index":      index,
		"accessible": true,
		"status":     session.Staleness().SceneStatus(sceneID),
	}, nil
}

func (s *Service) Sheet(ctx context.Context, sessionID, characterID string) (map[string]any, error) {
	session, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	sheet, err := session.Sheet(characterID)
	if err != nil {
		return nil, err
	}
	return sheetPayload(sheet), nil
}

func (s *Service) ListSheets(ctx context.Context, sessionID string) (map[string]any, error) {
	session, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return map[string]any{"ok": true, "sessionId": sessionID, "sheets": session.Sheets()}, nil
}

func (s *Service) UpdateSheetBuild(ctx context.Context, sessionID, characterID string, build campaign.SheetBuild) (map[string]any, error) {
	return s.updateSheet(ctx, sessionID, func(session *campaign.Session, now time.Time) (campaign.CharacterSheet, error) {
		return session.UpdateSheetBuild(characterID, build, now)
	})
}

func (s *Service) SetSheetMethod(ctx context.Context, sessionID, characterID, method string) (map[string]any, error) {
	parsed, ok := abilities.ParseMethod(method)
	if !ok {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "method must be standard or pointbuy", nil)
	}
	return s.updateSheet(ctx, sessionID, func(session *campaign.Session, now time.Time) (campaign.CharacterSheet, error) {
		return session.SetSheetMethod(characterID, parsed, now)
	})
}

func (s *Service) AssignScore(ctx context.Context, sessionID, characterID, ability string, value int) (map[string]any, error) {
	parsed, ok := abilities.ParseAbility(ability)
	if !ok {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "unknown ability "+ability, nil)
	}
	return s.updateSheet(ctx, sessionID, func(session *campaign.Session, now time.Time) (campaign.CharacterSheet, error) {
		return session.AssignScore(characterID, parsed, value, now)
	})
}

func (s *Service) LockAbilityStep(ctx context.Context, sessionID, characterID string) (map[string]any, error) {
	return s.updateSheet(ctx, sessionID, func(session *campaign.Session, now time.Time) (campaign.CharacterSheet, error) {
		return session.LockAbilityStep(characterID, now)
	})
}

func (s *Service) SheetOptions(ctx context.Context, sessionID, characterID, ability string) (map[string]any, error) {
	parsed, ok := abilities.ParseAbility(ability)
	if !ok {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "unknown ability "+ability, nil)
	}
	session, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	options, err := session.SheetOptions(characterID, parsed)
	if err != nil {
		return nil, err
	}
	return map[string]any{"characterId": characterID, "ability": parsed, "options": options}, nil
}

func (s *Service) History(ctx context.Context, sessionID string, limit int) (map[string]any, error) {
	if !util.ValidID(sessionID) {
		return nil, invalidSessionID()
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if s.history == nil {
		return map[string]any{"sessionId": sessionID, "items": []history.Entry{}}, nil
	}
	items, err := s.history.History(sessionID, limit)
	if err != nil {
		return nil, err
	}
	return map[string]any{"sessionId": sessionID, "items": items}, nil
}

// HistoryAt returns the session as it was committed at revision.
func (s *Service) HistoryAt(ctx context.Context, sessionID, revision string) (map[string]any, error) {
	if !util.ValidID(sessionID) {
		return nil, invalidSessionID()
	}
	if s.history == nil {
		return nil, history.ErrRevisionNotFound
	}
	snapshot, err := s.history.SessionAt(sessionID, revision)
	if err != nil {
		return nil, err
	}
	payload := sessionPayload(snapshot, campaign.StalenessReport{})
	payload["revision"] = revision
	return payload, nil
}

func (s *Service) Export(ctx context.Context, sessionID, format string) (*export.Result, error) {
	parsed, err := export.ParseFormat(format)
	if err != nil {
		return nil, err
	}
	session, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	result, err := s.exporter.Export(ctx, session, parsed)
	if err != nil {
		s.log(ctx).Error("export failed", "session_id", sessionID, "format", parsed, "error", err)
		return nil, err
	}
	return result, nil
}

const maxProjectTitle = 200

func (s *Service) CreateProject(ctx context.Context, title string) (map[string]any, error) {
	title = strings.TrimSpace(title)
	if title == "" || len([]rune(title)) > maxProjectTitle {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "title is required and must be at most 200 characters", nil)
	}
	now := s.now()
	project := store.Project{ID: util.NewID("project"), Title: title, CreatedAt: now, UpdatedAt: now}
	if err := s.projects.CreateProject(ctx, project); err != nil {
		s.log(ctx).Error("create project failed", "project_id", project.ID, "error", err)
		return nil, err
	}
	s.log(ctx).Info("project created", "project_id", project.ID, "title", project.Title)
	return map[string]any{"ok": true, "project": project}, nil
}

func (s *Service) ListProjects(ctx context.Context) (map[string]any, error) {
	projects, err := s.projects.ListProjects(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]any{"ok": true, "projects": projects}, nil
}

func (s *Service) GetProject(ctx context.Context, projectID string) (map[string]any, error) {
	if !util.ValidID(projectID) {
		return nil, store.ErrProjectNotFound
	}
	project, err := s.projects.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return map[string]any{"ok": true, "project": project}, nil
}

func (s *Service) DeleteProject(ctx context.Context, projectID string) (map[string]any, error) {
	if !util.ValidID(projectID) {
		return nil, store.ErrProjectNotFound
	}
	project, err := s.projects.DeleteProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	s.log(ctx).Info("project deleted", "project_id", project.ID)
	return map[string]any{"ok": true, "project": project}, nil
}

type mutation func(*campaign.Session, time.Time) (campaign.StalenessReport, error)

// mutate applies fn to a freshly loaded session and saves it against the
// version it was loaded at.
func (s *Service) mutate(ctx context.Context, sessionID string, fn mutation) (map[string]any, error) {
	session, report, err := s.apply(ctx, sessionID, fn)
	if err != nil {
		return nil, err
	}
	return sessionPayload(session, report), nil
}

// transition is mutate for lock changes; the accepted state is committed to
// the session history.
func (s *Service) transition(ctx context.Context, sessionID string, event history.Event, fn mutation) (map[string]any, error) {
	session, report, err := s.apply(ctx, sessionID, fn)
	if err != nil {
		return nil, err
	}
	target := event.Target
	if strings.HasPrefix(target, "scene:") {
		target = "scene"
	}
	lockTransitions.WithLabelValues(target, string(event.Transition)).Inc()
	payload := sessionPayload(session, report)
	if s.history != nil {
		entry, err := s.history.Record(session, event)
		if err != nil {
			s.log(ctx).Warn("record lock history failed", "session_id", sessionID, "target", event.Target, "error", err)
		} else {
			payload["historyEntry"] = entry
		}
	}
	s.log(ctx).Info("lock transition", "session_id", sessionID, "target", event.Target, "transition", event.Transition, "version", session.Version)
	return payload, nil
}

func (s *Service) apply(ctx context.Context, sessionID string, fn mutation) (*campaign.Session, campaign.StalenessReport, error) {
	session, err := s.loadOrNew(ctx, sessionID)
	if err != nil {
		return nil, campaign.StalenessReport{}, err
	}
	expected := session.Version
	if session.CreatedAt.IsZero() {
		session = campaign.NewSession(sessionID, s.now())
	}
	report, err := fn(session, s.now())
	if err != nil {
		s.rejected(ctx, sessionID, err)
		return nil, campaign.StalenessReport{}, err
	}
	if err := s.save(ctx, session, expected); err != nil {
		return nil, campaign.StalenessReport{}, err
	}
	recordStaleness(report.Characters, report.MacroChain, len(report.Scenes))
	return session, report, nil
}

func (s *Service) updateSheet(ctx context.Context, sessionID string, fn func(*campaign.Session, time.Time) (campaign.CharacterSheet, error)) (map[string]any, error) {
	var sheet campaign.CharacterSheet
	_, _, err := s.apply(ctx, sessionID, func(session *campaign.Session, now time.Time) (campaign.StalenessReport, error) {
		var err error
		sheet, err = fn(session, now)
		return campaign.StalenessReport{}, err
	})
	if err != nil {
		return nil, err
	}
	return sheetPayload(sheet), nil
}

// load returns the stored session. Read-only operations use it so an unknown
// id answers store.ErrNotFound.
func (s *Service) load(ctx context.Context, sessionID string) (*campaign.Session, error) {
	if !util.ValidID(sessionID) {
		return nil, invalidSessionID()
	}
	session, err := s.store.LoadSession(ctx, sessionID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			s.log(ctx).Error("load session failed", "session_id", sessionID, "error", err)
		}
		return nil, err
	}
	return session, nil
}

// loadOrNew is load for get-or-create paths: a missing session comes back as
// an unsaved zero session.
func (s *Service) loadOrNew(ctx context.Context, sessionID string) (*campaign.Session, error) {
	session, err := s.load(ctx, sessionID)
	if errors.Is(err, store.ErrNotFound) {
		return &campaign.Session{SessionID: sessionID}, nil
	}
	return session, err
}

func (s *Service) save(ctx context.Context, session *campaign.Session, expected int64) error {
	err := s.store.SaveSession(ctx, session, expected)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrVersionConflict):
		versionConflicts.Inc()
		s.log(ctx).Warn("session version conflict", "session_id", session.SessionID, "expected_version", expected)
	default:
		s.log(ctx).Error("save session failed", "session_id", session.SessionID, "error", err)
	}
	return err
}

func (s *Service) generate(ctx context.Context, task generator.Task, fn func(context.Context) error) error {
	if s.generator == nil {
		return domainError(http.StatusServiceUnavailable, "GENERATOR_UNAVAILABLE", "Content generator is not configured", nil)
	}
	started := time.Now()
	err := fn(ctx)
	status := "ok"
	if err != nil {
		status = "error"
		s.log(ctx).Error("generation failed", "task", task, "error", err)
	}
	generationLatency.WithLabelValues(string(task), status).Observe(time.Since(started).Seconds())
	return err
}

// log tags entries with the request id set by the HTTP middleware.
func (s *Service) log(ctx context.Context) *slog.Logger {
	if requestID := requestIDFrom(ctx); requestID != "" {
		return s.logger.With("request_id", requestID)
	}
	return s.logger
}

func (s *Service) rejected(ctx context.Context, sessionID string, err error) {
	var campaignErr *campaign.Error
	if !errors.As(err, &campaignErr) {
		return
	}
	rejectedTransitions.WithLabelValues(string(campaignErr.Kind)).Inc()
	if campaignErr.Kind == campaign.KindAccessDenied {
		s.log(ctx).Warn("scene access denied", "session_id", sessionID, "code", campaignErr.Code, "reason", campaignErr.Message)
		return
	}
	s.log(ctx).Debug("transition rejected", "session_id", sessionID, "kind", campaignErr.Kind, "code", campaignErr.Code)
}

func sessionPayload(session *campaign.Session, report campaign.StalenessReport) map[string]any {
	evaluator := session.Staleness()
	scenes := session.SceneAccessList()
	if scenes == nil {
		scenes = []campaign.SceneAccess{}
	}
	return map[string]any{
		"ok":                  true,
		"session":             session,
		"chainStatus":         evaluator.ChainStatus(),
		"stale":               evaluator.Report(),
		"invalidated":         report,
		"scenes":              scenes,
		"canCreateMacroChain": session.CanCreateMacroChain() == nil,
	}
}

func sheetPayload(sheet campaign.CharacterSheet) map[string]any {
	return map[string]any{
		"ok":       true,
		"sheet":    sheet,
		"messages": sheet.AbilityStep.Messages,
	}
}

func deniedPayload(sceneID string, err error) map[string]any {
	payload := map[string]any{"ok": false, "sceneId": sceneID, "accessible": false}
	var campaignErr *campaign.Error
	if errors.As(err, &campaignErr) {
		payload["code"] = campaignErr.Code
		payload["reason"] = campaignErr.Message
	}
	return payload
}

func transitionOf(locked bool) history.Transition {
	if locked {
		return history.TransitionLock
	}
	return history.TransitionUnlock
}

func invalidSessionID() error {
	return domainError(http.StatusBadRequest, "INVALID_SESSION_ID", "session id may contain only letters, digits, '-' and '_'", nil)
}
