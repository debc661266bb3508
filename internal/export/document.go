package export

import (
	"time"

	"github.com/sudeengin/DnDbug-sub002/internal/abilities"
	"github.com/sudeengin/DnDbug-sub002/internal/campaign"
)

// Document is the format-neutral view every renderer works from. Statuses
// are reconciled with staleness.
type Document struct {
	SessionID  string                      `json:"sessionId" yaml:"sessionId"`
	Version    int64                       `json:"version" yaml:"version"`
	UpdatedAt  time.Time                   `json:"updatedAt" yaml:"updatedAt"`
	Background *campaign.BackgroundContent `json:"background,omitempty" yaml:"background,omitempty"`
	Locked     LockSummary                 `json:"locked" yaml:"locked"`
	Characters []CharacterEntry            `json:"characters,omitempty" yaml:"characters,omitempty"`
	Chain      *ChainEntry                 `json:"chain,omitempty" yaml:"chain,omitempty"`
}

type LockSummary struct {
	Background bool `json:"background" yaml:"background"`
	Characters bool `json:"characters" yaml:"characters"`
	Chain      bool `json:"chain" yaml:"chain"`
}

type CharacterEntry struct {
	ID         string            `json:"id" yaml:"id"`
	Name       string            `json:"name" yaml:"name"`
	Race       string            `json:"race,omitempty" yaml:"race,omitempty"`
	Class      string            `json:"class,omitempty" yaml:"class,omitempty"`
	Role       string            `json:"role,omitempty" yaml:"role,omitempty"`
	Motivation string            `json:"motivation,omitempty" yaml:"motivation,omitempty"`
	Level      int               `json:"level,omitempty" yaml:"level,omitempty"`
	Background string            `json:"background,omitempty" yaml:"background,omitempty"`
	Scores     *abilities.Scores `json:"scores,omitempty" yaml:"scores,omitempty"`
}

type ChainEntry struct {
	ChainID string       `json:"chainId" yaml:"chainId"`
	Status  string       `json:"status" yaml:"status"`
	Scenes  []SceneEntry `json:"scenes" yaml:"scenes"`
}

type SceneEntry struct {
	ID          string   `json:"id" yaml:"id"`
	Title       string   `json:"title" yaml:"title"`
	Objective   string   `json:"objective,omitempty" yaml:"objective,omitempty"`
	Status      string   `json:"status" yaml:"status"`
	Accessible  bool     `json:"accessible" yaml:"accessible"`
	EpicIntro   string   `json:"epicIntro,omitempty" yaml:"epicIntro,omitempty"`
	GMNarrative string   `json:"gmNarrative,omitempty" yaml:"gmNarrative,omitempty"`
	KeyEvents   []string `json:"keyEvents,omitempty" yaml:"keyEvents,omitempty"`
}

// NewDocument builds the export view of session.
func NewDocument(session *campaign.Session) Document {
	locks := session.LockRegistry()
	doc := Document{
		SessionID: session.SessionID,
		Version:   session.Version,
		UpdatedAt: session.UpdatedAt,
		Locked: LockSummary{
			Background: locks.IsLocked(campaign.KindBackground),
			Characters: locks.IsLocked(campaign.KindCharacters),
			Chain:      locks.IsLocked(campaign.KindMacroChain),
		},
	}
	if bg := session.Blocks.Background; bg != nil {
		content := bg.Content
		doc.Background = &content
	}
	if chars := session.Blocks.Characters; chars != nil {
		for _, character := range chars.List {
			entry := CharacterEntry{
				ID:         character.ID,
				Name:       character.Name,
				Race:       character.Race,
				Class:      character.Class,
				Role:       character.Role,
				Motivation: character.Motivation,
			}
			if sheet, ok := session.CharacterSheets[character.ID]; ok {
				scores := sheet.AbilityStep.Set.Scores
				entry.Scores = &scores
				entry.Level = sheet.Level
				entry.Background = sheet.Background
				if sheet.Race != "" {
					entry.Race = joinNonEmpty(" ", sheet.Subrace, sheet.Race)
				}
			}
			doc.Characters = append(doc.Characters, entry)
		}
	}
	if chain := session.Blocks.Custom.MacroChain; chain != nil {
		evaluator := session.Staleness()
		entry := &ChainEntry{ChainID: chain.ChainID, Status: string(evaluator.ChainStatus())}
		access := make(map[string]bool)
		for _, row := range session.SceneAccessList() {
			access[row.SceneID] = row.Accessible
		}
		for _, scene := range chain.Scenes {
			item := SceneEntry{
				ID:         scene.ID,
				Title:      scene.Title,
				Objective:  scene.Objective,
				Status:     string(evaluator.SceneStatus(scene.ID)),
				Accessible: access[scene.ID],
			}
			if detail, ok := session.SceneDetails[scene.ID]; ok {
				item.EpicIntro = detail.Content.EpicIntro
				item.GMNarrative = detail.Content.GMNarrative
				item.KeyEvents = detail.Content.KeyEvents
			}
			entry.Scenes = append(entry.Scenes, item)
		}
		doc.Chain = entry
	}
	return doc
}

// Title is the document heading: the first line of the premise, or the
// session id.
func (d Document) Title() string {
	if d.Background != nil {
		if title := firstLine(d.Background.Premise, 80); title != "" {
			return title
		}
	}
	return "Campaign " + d.SessionID
}
