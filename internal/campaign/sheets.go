package campaign

import (
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/sudeengin/DnDbug-sub002/internal/abilities"
)

const (
	RulesetSRD2014 = "SRD2014"

	minSheetLevel = 1
	maxSheetLevel = 20
	maxSheetAge   = 1000
)

// SheetBuild is the SRD character build around the ability scores. Race and
// subrace feed ability increases, so they freeze with the ability step.
type SheetBuild struct {
	Name                 string   `json:"name"`
	Level                int      `json:"level"`
	Race                 string   `json:"race,omitempty"`
	Subrace              string   `json:"subrace,omitempty"`
	Background           string   `json:"background,omitempty"`
	Languages            []string `json:"customLanguages,omitempty"`
	Proficiencies        []string `json:"customProficiencies,omitempty"`
	Age                  int      `json:"customAge,omitempty"`
	Height               string   `json:"customHeight,omitempty"`
	PhysicalDescription  string   `json:"customPhysicalDescription,omitempty"`
	EquipmentPreferences []string `json:"customEquipmentPreferences,omitempty"`
}

// CharacterSheet holds the per-character build steps that follow generation.
// CharacterID is the story character the sheet belongs to.
type CharacterSheet struct {
	CharacterID string `json:"characterId"`
	Ruleset     string `json:"ruleset"`
	SheetBuild
	AbilityStep abilities.Step `json:"abilityStep"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

// Sheet returns the sheet for characterID, creating a level 1 standard-array
// sheet named after the character on first access. The character must exist.
func (s *Session) Sheet(characterID string) (CharacterSheet, error) {
	if s.Blocks.Characters == nil {
		return CharacterSheet{}, notFoundError(codeCharacterNotFound, "character not found")
	}
	index := s.Blocks.Characters.indexOf(characterID)
	if index < 0 {
		return CharacterSheet{}, notFoundError(codeCharacterNotFound, "character not found")
	}
	if sheet, ok := s.CharacterSheets[characterID]; ok {
		return sheet, nil
	}
	character := s.Blocks.Characters.List[index]
	return CharacterSheet{
		CharacterID: characterID,
		Ruleset:     RulesetSRD2014,
		SheetBuild: SheetBuild{
			Name:          character.Name,
			Level:         minSheetLevel,
			Race:          character.Race,
			Subrace:       character.Subrace,
			Languages:     character.Languages,
			Proficiencies: character.Proficiencies,
			Age:           character.Age,
			Height:        character.Height,
		},
		AbilityStep: abilities.NewStep(abilities.MethodStandardArray),
	}, nil
}

// Sheets lists one sheet per character in list order. Characters without a
// saved sheet get their first-access default.
func (s *Session) Sheets() []CharacterSheet {
	if s.Blocks.Characters == nil {
		return []CharacterSheet{}
	}
	sheets := make([]CharacterSheet, 0, len(s.Blocks.Characters.List))
	for _, character := range s.Blocks.Characters.List {
		sheet, err := s.Sheet(character.ID)
		if err != nil {
			continue
		}
		sheets = append(sheets, sheet)
	}
	return sheets
}

// UpdateSheetBuild replaces the build fields of a sheet.
func (s *Session) UpdateSheetBuild(characterID string, build SheetBuild, now time.Time) (CharacterSheet, error) {
	sheet, err := s.Sheet(characterID)
	if err != nil {
		return CharacterSheet{}, err
	}
	build.Name = strings.TrimSpace(build.Name)
	build.Race = strings.TrimSpace(build.Race)
	build.Subrace = strings.TrimSpace(build.Subrace)
	if messages := sheetBuildProblems(build); len(messages) > 0 {
		return sheet, validationError(codeSheetInvalid, "character sheet is invalid", messages)
	}
	if sheet.AbilityStep.Locked && (build.Race != sheet.Race || build.Subrace != sheet.Subrace) {
		return sheet, preconditionError(codeAbilityStepLocked, "race and subrace are fixed once ability scores are locked")
	}
	sheet.SheetBuild = build
	s.saveSheet(&sheet, now)
	return sheet, nil
}

func sheetBuildProblems(build SheetBuild) []string {
	var messages []string
	if build.Name == "" {
		messages = append(messages, "name is required")
	}
	if build.Level < minSheetLevel || build.Level > maxSheetLevel {
		messages = append(messages, "level must be between 1 and 20")
	}
	if build.Subrace != "" && build.Race == "" {
		messages = append(messages, "subrace requires a race")
	}
	if build.Age < 0 || build.Age > maxSheetAge {
		messages = append(messages, "customAge must be between 0 and 1000")
	}
	if slices.ContainsFunc(build.Languages, func(v string) bool { return strings.TrimSpace(v) == "" }) {
		messages = append(messages, "customLanguages must not contain empty entries")
	}
	if slices.ContainsFunc(build.Proficiencies, func(v string) bool { return strings.TrimSpace(v) == "" }) {
		messages = append(messages, "customProficiencies must not contain empty entries")
	}
	return messages
}

func (s *Session) SetSheetMethod(characterID string, method abilities.Method, now time.Time) (CharacterSheet, error) {
	return s.updateSheet(characterID, now, func(step *abilities.Step) error {
		return step.SetMethod(method)
	})
}

// AssignScore applies one ability assignment. Flagged violations are
// returned on the sheet and do not reject the edit.
func (s *Session) AssignScore(characterID string, ability abilities.Ability, value int, now time.Time) (CharacterSheet, error) {
	return s.updateSheet(characterID, now, func(step *abilities.Step) error {
		return step.Assign(ability, value)
	})
}

func (s *Session) LockAbilityStep(characterID string, now time.Time) (CharacterSheet, error) {
	return s.updateSheet(characterID, now, func(step *abilities.Step) error {
		return step.Lock(now)
	})
}

// SheetOptions is the per-ability option view for a sheet.
func (s *Session) SheetOptions(characterID string, ability abilities.Ability) ([]abilities.Option, error) {
	if _, ok := abilities.ParseAbility(string(ability)); !ok {
		return nil, validationError(codeAbilityScoreInvalid, "unknown ability", []string{string(ability)})
	}
	sheet, err := s.Sheet(characterID)
	if err != nil {
		return nil, err
	}
	return abilities.Options(sheet.AbilityStep.Set, ability), nil
}

func (s *Session) updateSheet(characterID string, now time.Time, apply func(*abilities.Step) error) (CharacterSheet, error) {
	sheet, err := s.Sheet(characterID)
	if err != nil {
		return CharacterSheet{}, err
	}
	step := sheet.AbilityStep
	if err := apply(&step); err != nil {
		return sheet, sheetError(err)
	}
	sheet.AbilityStep = step
	s.saveSheet(&sheet, now)
	return sheet, nil
}

func (s *Session) saveSheet(sheet *CharacterSheet, now time.Time) {
	sheet.UpdatedAt = now
	if s.CharacterSheets == nil {
		s.CharacterSheets = make(map[string]CharacterSheet)
	}
	s.CharacterSheets[sheet.CharacterID] = *sheet
	s.touch(now)
}

// pruneSheets drops sheets whose character left the list.
func (s *Session) pruneSheets() {
	for id := range s.CharacterSheets {
		if s.Blocks.Characters == nil || s.Blocks.Characters.indexOf(id) < 0 {
			delete(s.CharacterSheets, id)
		}
	}
}

func sheetError(err error) error {
	var validation *abilities.ValidationError
	switch {
	case errors.Is(err, abilities.ErrStepLocked):
		return preconditionError(codeAbilityStepLocked, "ability scores are locked")
	case errors.Is(err, abilities.ErrStepUntouched):
		return preconditionError(codeAbilityStepUntouched, "assign at least one ability score before locking")
	case errors.As(err, &validation):
		return validationError(codeAbilityScoreInvalid, "ability scores are invalid", validation.Messages)
	default:
		return err
	}
}
