package campaign

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

// BlockKind names a node of the campaign dependency graph.
type BlockKind string

const (
	KindBackground  BlockKind = "background"
	KindCharacters  BlockKind = "characters"
	KindMacroChain  BlockKind = "custom.macroChain"
	KindSceneDetail BlockKind = "sceneDetail"
)

// ParseBlockKind resolves a lockable top-level block kind. Scene details are
// addressed by scene id and are not accepted here.
func ParseBlockKind(value string) (BlockKind, bool) {
	switch BlockKind(strings.TrimSpace(value)) {
	case KindBackground:
		return KindBackground, true
	case KindCharacters:
		return KindCharacters, true
	case KindMacroChain, "macroChain":
		return KindMacroChain, true
	default:
		return "", false
	}
}

// Status is the lifecycle state of a MacroChain or SceneDetail.
type Status string

const (
	StatusDraft      Status = "Draft"
	StatusGenerated  Status = "Generated"
	StatusEdited     Status = "Edited"
	StatusLocked     Status = "Locked"
	StatusNeedsRegen Status = "NeedsRegen"
)

func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusGenerated, StatusEdited, StatusLocked, StatusNeedsRegen:
		return true
	default:
		return false
	}
}

// UnmarshalJSON rejects statuses outside the lifecycle, so a persisted
// session can never carry one the evaluator does not handle.
func (s *Status) UnmarshalJSON(data []byte) error {
	var value string
	if err := json.Unmarshal(data, &value); err != nil {
		return err
	}
	status := Status(value)
	if !status.Valid() {
		return fmt.Errorf("invalid status %q", value)
	}
	*s = status
	return nil
}

// BackgroundContent is the campaign premise every later stage is built on.
type BackgroundContent struct {
	Premise               string   `json:"premise" yaml:"premise"`
	ToneRules             []string `json:"tone_rules,omitempty" yaml:"tone_rules,omitempty"`
	Stakes                []string `json:"stakes,omitempty" yaml:"stakes,omitempty"`
	Mysteries             []string `json:"mysteries,omitempty" yaml:"mysteries,omitempty"`
	Factions              []string `json:"factions,omitempty" yaml:"factions,omitempty"`
	LocationPalette       []string `json:"location_palette,omitempty" yaml:"location_palette,omitempty"`
	NPCRosterSkeleton     []string `json:"npc_roster_skeleton,omitempty" yaml:"npc_roster_skeleton,omitempty"`
	Motifs                []string `json:"motifs,omitempty" yaml:"motifs,omitempty"`
	DoNots                []string `json:"doNots,omitempty" yaml:"doNots,omitempty"`
	PlaystyleImplications []string `json:"playstyle_implications,omitempty" yaml:"playstyle_implications,omitempty"`
	NumberOfPlayers       int      `json:"numberOfPlayers,omitempty" yaml:"numberOfPlayers,omitempty"`
}

type BackgroundBlock struct {
	Content  BackgroundContent `json:"content"`
	Locked   bool              `json:"locked"`
	Version  int               `json:"version"`
	LockedAt *time.Time        `json:"lockedAt,omitempty"`
}

// Character is one generated player character.
type Character struct {
	ID                string   `json:"id"`
	Name              string   `json:"name"`
	Role              string   `json:"role,omitempty"`
	Race              string   `json:"race,omitempty"`
	Class             string   `json:"class,omitempty"`
	Personality       string   `json:"personality,omitempty"`
	Motivation        string   `json:"motivation,omitempty"`
	ConnectionToStory string   `json:"connectionToStory,omitempty"`
	GMSecret          string   `json:"gmSecret,omitempty"`
	PotentialConflict string   `json:"potentialConflict,omitempty"`
	VoiceTone         string   `json:"voiceTone,omitempty"`
	InventoryHint     string   `json:"inventoryHint,omitempty"`
	MotifAlignment    []string `json:"motifAlignment,omitempty"`
	BackgroundHistory string   `json:"backgroundHistory,omitempty"`
	KeyRelationships  []string `json:"keyRelationships,omitempty"`
	FlawOrWeakness    string   `json:"flawOrWeakness,omitempty"`
	Languages         []string `json:"languages,omitempty"`
	Alignment         string   `json:"alignment,omitempty"`
	Subrace           string   `json:"subrace,omitempty"`
	Age               int      `json:"age,omitempty"`
	Height            string   `json:"height,omitempty"`
	Proficiencies     []string `json:"proficiencies,omitempty"`
}

type CharactersBlock struct {
	List     []Character `json:"list"`
	Locked   bool        `json:"locked"`
	Version  int         `json:"version"`
	LockedAt *time.Time  `json:"lockedAt,omitempty"`
	// BackgroundV is the background counter the list was generated against.
	BackgroundV int `json:"backgroundV"`
}

// Scene is a stub in the macro chain.
type Scene struct {
	ID        string `json:"id"`
	Order     int    `json:"order"`
	Title     string `json:"title"`
	Objective string `json:"objective"`
}

type ChainMeta struct {
	IsDraftIdeaBank bool        `json:"isDraftIdeaBank"`
	Snapshot        Fingerprint `json:"snapshot"`
	// MacroSnapshotV is the packed form of Snapshot, zero when unrepresentable.
	MacroSnapshotV int `json:"macroSnapshotV"`
}

type MacroChain struct {
	ChainID       string     `json:"chainId"`
	Scenes        []Scene    `json:"scenes"`
	Status        Status     `json:"status"`
	Version       int        `json:"version"`
	Meta          ChainMeta  `json:"meta"`
	LockedAt      *time.Time `json:"lockedAt,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	LastUpdatedAt time.Time  `json:"lastUpdatedAt"`
}

// SceneIndex returns the position of sceneID in chain order, or -1.
func (c *MacroChain) SceneIndex(sceneID string) int {
	if c == nil {
		return -1
	}
	for i, scene := range c.Scenes {
		if scene.ID == sceneID {
			return i
		}
	}
	return -1
}

// SceneContent is the generated body of one scene.
type SceneContent struct {
	Title        string   `json:"title,omitempty"`
	Objective    string   `json:"objective,omitempty"`
	EpicIntro    string   `json:"epicIntro,omitempty"`
	Atmosphere   string   `json:"atmosphere,omitempty"`
	GMNarrative  string   `json:"gmNarrative,omitempty"`
	KeyEvents    []string `json:"keyEvents,omitempty"`
	RevealedInfo []string `json:"revealedInfo,omitempty"`
	Beats        []string `json:"beats,omitempty"`
	Rewards      []string `json:"rewards,omitempty"`
}

type SceneDetail struct {
	SceneID       string       `json:"sceneId"`
	Sequence      int          `json:"sequence"`
	Content       SceneContent `json:"content"`
	Status        Status       `json:"status"`
	Version       int          `json:"version"`
	Snapshot      Fingerprint  `json:"snapshot"`
	LockedAt      *time.Time   `json:"lockedAt,omitempty"`
	LastUpdatedAt time.Time    `json:"lastUpdatedAt"`
}

type CustomBlocks struct {
	MacroChain *MacroChain `json:"macroChain,omitempty"`
}

type Blocks struct {
	Background *BackgroundBlock `json:"background,omitempty"`
	Characters *CharactersBlock `json:"characters,omitempty"`
	Custom     CustomBlocks     `json:"custom"`
}

// LockFlags mirrors the locked flag of each boolean-locked block.
type LockFlags struct {
	Background bool `json:"background"`
	Characters bool `json:"characters"`
}

type Meta struct {
	BackgroundV           int       `json:"backgroundV"`
	CharactersV           int       `json:"charactersV"`
	MacroSnapshotV        int       `json:"macroSnapshotV"`
	LastEditedCharacterID string    `json:"lastEditedCharacterId,omitempty"`
	UpdatedAt             time.Time `json:"updatedAt"`
}

// Session is the root aggregate. All sub-entities are owned by it.
type Session struct {
	SessionID       string                    `json:"sessionId"`
	Version         int64                     `json:"version"`
	Blocks          Blocks                    `json:"blocks"`
	Locks           LockFlags                 `json:"locks"`
	Meta            Meta                      `json:"meta"`
	SceneDetails    map[string]SceneDetail    `json:"sceneDetails"`
	CharacterSheets map[string]CharacterSheet `json:"characterSheets"`
	CreatedAt       time.Time                 `json:"createdAt"`
	UpdatedAt       time.Time                 `json:"updatedAt"`
}

func NewSession(sessionID string, now time.Time) *Session {
	return &Session{
		SessionID:       sessionID,
		Meta:            Meta{UpdatedAt: now},
		SceneDetails:    make(map[string]SceneDetail),
		CharacterSheets: make(map[string]CharacterSheet),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// Normalize repairs maps and lock mirrors after decoding a persisted session.
func (s *Session) Normalize() {
	if s.SceneDetails == nil {
		s.SceneDetails = make(map[string]SceneDetail)
	}
	if s.CharacterSheets == nil {
		s.CharacterSheets = make(map[string]CharacterSheet)
	}
	s.Locks.Background = s.Blocks.Background != nil && s.Blocks.Background.Locked
	s.Locks.Characters = s.Blocks.Characters != nil && s.Blocks.Characters.Locked
}

// Clear drops every block and derived artifact but keeps the ledger counters,
// so fingerprints recorded before the clear can never match again.
func (s *Session) Clear(now time.Time) {
	s.Blocks = Blocks{}
	s.Locks = LockFlags{}
	s.SceneDetails = make(map[string]SceneDetail)
	s.CharacterSheets = make(map[string]CharacterSheet)
	s.Meta.MacroSnapshotV = 0
	s.Meta.LastEditedCharacterID = ""
	s.touch(now)
}

// SceneIDs returns the chain's scene ids in order.
func (s *Session) SceneIDs() []string {
	chain := s.Blocks.Custom.MacroChain
	if chain == nil {
		return nil
	}
	scenes := append([]Scene(nil), chain.Scenes...)
	sort.SliceStable(scenes, func(i, j int) bool { return scenes[i].Order < scenes[j].Order })
	ids := make([]string, 0, len(scenes))
	for _, scene := range scenes {
		ids = append(ids, scene.ID)
	}
	return ids
}

func (s *Session) touch(now time.Time) {
	s.Version++
	s.UpdatedAt = now
	s.Meta.UpdatedAt = now
}

func timePtr(t time.Time) *time.Time {
	return &t
}
