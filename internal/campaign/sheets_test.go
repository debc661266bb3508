package campaign

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sudeengin/DnDbug-sub002/internal/abilities"
)

func TestSheetRequiresCharacter(t *testing.T) {
	s := lockedThroughCharacters(t)
	_, err := s.AssignScore("ghost", abilities.Strength, 15, at(5))
	requireKind(t, err, KindNotFound, codeCharacterNotFound)
}

func TestAssignScoreRejectionLeavesSheetUnchanged(t *testing.T) {
	s := lockedThroughCharacters(t)
	_, err := s.AssignScore("c1", abilities.Strength, 15, at(5))
	require.NoError(t, err)
	version := s.Version

	_, err = s.AssignScore("c1", abilities.Dexterity, 15, at(6))
	requireKind(t, err, KindValidationFailed, codeAbilityScoreInvalid)
	assert.Equal(t, version, s.Version)
	assert.Equal(t, 0, s.CharacterSheets["c1"].AbilityStep.Set.Scores.Dexterity)
}

func TestPointBuyBudgetIsFlaggedNotBlocked(t *testing.T) {
	s := lockedThroughCharacters(t)
	_, err := s.SetSheetMethod("c2", abilities.MethodPointBuy, at(5))
	require.NoError(t, err)

	var sheet CharacterSheet
	for _, a := range []struct {
		ability abilities.Ability
		value   int
	}{
		{abilities.Strength, 15},
		{abilities.Dexterity, 14},
		{abilities.Constitution, 14},
		{abilities.Intelligence, 13},
	} {
		sheet, err = s.AssignScore("c2", a.ability, a.value, at(6))
		require.NoError(t, err)
	}
	assert.Equal(t, 28, sheet.AbilityStep.Set.PointBuyTotal)
	assert.Len(t, sheet.AbilityStep.Messages, 1)

	_, err = s.LockAbilityStep("c2", at(7))
	requireKind(t, err, KindValidationFailed, codeAbilityScoreInvalid)
}

func TestLockAbilityStep(t *testing.T) {
	s := lockedThroughCharacters(t)

	_, err := s.LockAbilityStep("c1", at(5))
	requireKind(t, err, KindPreconditionNotMet, codeAbilityStepUntouched)

	_, err = s.AssignScore("c1", abilities.Wisdom, 14, at(6))
	require.NoError(t, err)
	sheet, err := s.LockAbilityStep("c1", at(7))
	require.NoError(t, err)
	assert.True(t, sheet.AbilityStep.Locked)

	_, err = s.AssignScore("c1", abilities.Wisdom, 0, at(8))
	requireKind(t, err, KindPreconditionNotMet, codeAbilityStepLocked)
}

func TestSheetOptions(t *testing.T) {
	s := lockedThroughCharacters(t)
	_, err := s.AssignScore("c1", abilities.Strength, 15, at(5))
	require.NoError(t, err)

	options, err := s.SheetOptions("c1", abilities.Dexterity)
	require.NoError(t, err)
	require.Len(t, options, 6)
	assert.Equal(t, abilities.Option{Value: 15, State: abilities.OptionTaken}, options[0])
	assert.Equal(t, abilities.OptionFree, options[1].State)

	_, err = s.SheetOptions("c1", "luck")
	requireKind(t, err, KindValidationFailed, codeAbilityScoreInvalid)
}

func TestSheetDefaultsFromCharacter(t *testing.T) {
	s := lockedThroughCharacters(t)
	sheet, err := s.Sheet("c2")
	require.NoError(t, err)
	assert.Equal(t, RulesetSRD2014, sheet.Ruleset)
	assert.Equal(t, "Tobin", sheet.Name)
	assert.Equal(t, 1, sheet.Level)
	assert.Empty(t, s.CharacterSheets)
}

func TestUpdateSheetBuild(t *testing.T) {
	s := lockedThroughCharacters(t)
	version := s.Version

	_, err := s.UpdateSheetBuild("c1", SheetBuild{Name: " ", Level: 21, Subrace: "Lightfoot", Age: -1}, at(5))
	requireKind(t, err, KindValidationFailed, codeSheetInvalid)
	var campaignErr *Error
	require.ErrorAs(t, err, &campaignErr)
	assert.Len(t, campaignErr.Messages, 4)
	assert.Equal(t, version, s.Version)

	sheet, err := s.UpdateSheetBuild("c1", SheetBuild{
		Name:       "Mira Quickfingers",
		Level:      3,
		Race:       "Halfling",
		Subrace:    "Lightfoot",
		Background: "Urchin",
		Languages:  []string{"Common", "Thieves' Cant"},
		Age:        24,
		Height:     "3'1\"",
	}, at(6))
	require.NoError(t, err)
	assert.Equal(t, "Mira Quickfingers", s.CharacterSheets["c1"].Name)
	assert.Equal(t, at(6), sheet.UpdatedAt)
	assert.Equal(t, version+1, s.Version)

	// Scores survive a build edit.
	_, err = s.AssignScore("c1", abilities.Dexterity, 15, at(7))
	require.NoError(t, err)
	sheet, err = s.UpdateSheetBuild("c1", SheetBuild{Name: "Mira", Level: 4, Race: "Halfling", Subrace: "Lightfoot"}, at(8))
	require.NoError(t, err)
	assert.Equal(t, 15, sheet.AbilityStep.Set.Scores.Dexterity)
}

func TestLockedAbilityStepFreezesRace(t *testing.T) {
	s := lockedThroughCharacters(t)
	_, err := s.UpdateSheetBuild("c1", SheetBuild{Name: "Mira", Level: 1, Race: "Halfling"}, at(5))
	require.NoError(t, err)
	_, err = s.AssignScore("c1", abilities.Dexterity, 15, at(6))
	require.NoError(t, err)
	_, err = s.LockAbilityStep("c1", at(7))
	require.NoError(t, err)

	_, err = s.UpdateSheetBuild("c1", SheetBuild{Name: "Mira", Level: 1, Race: "Elf"}, at(8))
	requireKind(t, err, KindPreconditionNotMet, codeAbilityStepLocked)
	assert.Equal(t, "Halfling", s.CharacterSheets["c1"].Race)

	sheet, err := s.UpdateSheetBuild("c1", SheetBuild{Name: "Mira", Level: 2, Race: "Halfling", Background: "Criminal"}, at(9))
	require.NoError(t, err)
	assert.Equal(t, 2, sheet.Level)
	assert.True(t, sheet.AbilityStep.Locked)
}

func TestSheetsListInCharacterOrder(t *testing.T) {
	s := NewSession("sess-1", t0)
	assert.Empty(t, s.Sheets())

	s = lockedThroughCharacters(t)
	_, err := s.AssignScore("c3", abilities.Intelligence, 15, at(5))
	require.NoError(t, err)

	sheets := s.Sheets()
	require.Len(t, sheets, 3)
	assert.Equal(t, []string{"c1", "c2", "c3"}, []string{sheets[0].CharacterID, sheets[1].CharacterID, sheets[2].CharacterID})
	assert.Equal(t, 15, sheets[2].AbilityStep.Set.Scores.Intelligence)
	assert.Equal(t, 0, sheets[0].AbilityStep.Set.Scores.Intelligence)
}
