// Package generator turns locked campaign stages into the next stage's draft
// content through a chat-completion model.
package generator

import (
	"context"
	"fmt"
	"strings"

	"github.com/sudeengin/DnDbug-sub002/internal/campaign"
	"github.com/sudeengin/DnDbug-sub002/internal/util"
)

const (
	MinPlayers     = 3
	MaxPlayers     = 6
	DefaultPlayers = 4

	minScenes     = 3
	maxScenes     = 10
	defaultScenes = 5
)

// Generator produces draft content for each pipeline stage. Implementations
// never mutate sessions; the caller stores results through campaign.Session.
type Generator interface {
	Background(ctx context.Context, req BackgroundRequest) (campaign.BackgroundContent, error)
	Characters(ctx context.Context, req CharactersRequest) ([]campaign.Character, error)
	MacroChain(ctx context.Context, req MacroChainRequest) ([]campaign.Scene, error)
	SceneDetail(ctx context.Context, req SceneRequest) (campaign.SceneContent, error)
}

type BackgroundRequest struct {
	Concept         string
	NumberOfPlayers int
}

type CharactersRequest struct {
	Background      campaign.BackgroundContent
	NumberOfPlayers int
}

type MacroChainRequest struct {
	Background      campaign.BackgroundContent
	Characters      []campaign.Character
	IsDraftIdeaBank bool
}

// SceneRequest asks for the detail of Scene at position Index. Previous holds
// the content of earlier detailed scenes in chain order.
type SceneRequest struct {
	Background campaign.BackgroundContent
	Characters []campaign.Character
	Scene      campaign.Scene
	Index      int
	Previous   []campaign.SceneContent
}

// ClampPlayers maps a requested party size into the supported range; zero
// selects the default.
func ClampPlayers(n int) int {
	switch {
	case n <= 0:
		return DefaultPlayers
	case n < MinPlayers:
		return MinPlayers
	case n > MaxPlayers:
		return MaxPlayers
	default:
		return n
	}
}

// Service is the LLM-backed Generator.
type Service struct {
	llm   LLMClient
	newID func(prefix string) string
}

func New(llm LLMClient) *Service {
	return &Service{llm: llm, newID: util.NewID}
}

func (s *Service) Background(ctx context.Context, req BackgroundRequest) (campaign.BackgroundContent, error) {
	if strings.TrimSpace(req.Concept) == "" {
		return campaign.BackgroundContent{}, fmt.Errorf("%w: concept is required", ErrInvalidRequest)
	}
	players := ClampPlayers(req.NumberOfPlayers)
	var out campaign.BackgroundContent
	if err := s.complete(ctx, backgroundPrompt(req, players), &out); err != nil {
		return campaign.BackgroundContent{}, err
	}
	if strings.TrimSpace(out.Premise) == "" {
		return campaign.BackgroundContent{}, invalidResponse(TaskBackground, "premise is empty")
	}
	out.NumberOfPlayers = players
	return out, nil
}

func (s *Service) Characters(ctx context.Context, req CharactersRequest) ([]campaign.Character, error) {
	players := ClampPlayers(req.NumberOfPlayers)
	var out struct {
		Characters []campaign.Character `json:"characters"`
	}
	if err := s.complete(ctx, charactersPrompt(req, players), &out); err != nil {
		return nil, err
	}
	if err := checkCharacters(out.Characters, players); err != nil {
		return nil, err
	}
	for i := range out.Characters {
		out.Characters[i].ID = s.newID("char")
	}
	return out.Characters, nil
}

func (s *Service) MacroChain(ctx context.Context, req MacroChainRequest) ([]campaign.Scene, error) {
	var out struct {
		Scenes []campaign.Scene `json:"scenes"`
	}
	if err := s.complete(ctx, macroChainPrompt(req), &out); err != nil {
		return nil, err
	}
	if len(out.Scenes) < minScenes || len(out.Scenes) > maxScenes {
		return nil, invalidResponse(TaskMacroChain, fmt.Sprintf("expected %d to %d scenes, got %d", minScenes, maxScenes, len(out.Scenes)))
	}
	for i := range out.Scenes {
		if strings.TrimSpace(out.Scenes[i].Title) == "" {
			return nil, invalidResponse(TaskMacroChain, fmt.Sprintf("scene %d has no title", i+1))
		}
		out.Scenes[i].ID = s.newID("scene")
		out.Scenes[i].Order = i
	}
	return out.Scenes, nil
}

func (s *Service) SceneDetail(ctx context.Context, req SceneRequest) (campaign.SceneContent, error) {
	var out campaign.SceneContent
	if err := s.complete(ctx, sceneDetailPrompt(req), &out); err != nil {
		return campaign.SceneContent{}, err
	}
	if out.Title == "" {
		out.Title = req.Scene.Title
	}
	if out.Objective == "" {
		out.Objective = req.Scene.Objective
	}
	if strings.TrimSpace(out.GMNarrative) == "" && len(out.Beats) == 0 {
		return campaign.SceneContent{}, invalidResponse(TaskSceneDetail, "scene has neither narrative nor beats")
	}
	return out, nil
}

func (s *Service) complete(ctx context.Context, prompt Prompt, out any) error {
	raw, err := s.llm.Complete(ctx, prompt)
	if err != nil {
		return fmt.Errorf("generate %s: %w", prompt.Task, err)
	}
	return decodeResponse(prompt.Task, raw, out)
}

func checkCharacters(list []campaign.Character, players int) error {
	if len(list) < players-1 || len(list) > players+1 {
		return invalidResponse(TaskCharacters, fmt.Sprintf("expected %d characters, got %d", players, len(list)))
	}
	for i, c := range list {
		if strings.TrimSpace(c.Name) == "" {
			return invalidResponse(TaskCharacters, fmt.Sprintf("character %d has no name", i+1))
		}
		if c.Age < 0 || c.Age > 1000 {
			return invalidResponse(TaskCharacters, fmt.Sprintf("character %d age %d is out of range", i+1, c.Age))
		}
	}
	return nil
}
