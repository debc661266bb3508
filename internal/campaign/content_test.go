package campaign

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEveryContentWriteBumpsLedgerOnce(t *testing.T) {
	s := NewSession("sess-1", t0)
	_, err := s.WriteBackground(BackgroundContent{Premise: "one"}, at(1))
	require.NoError(t, err)
	_, err = s.WriteBackground(BackgroundContent{Premise: "two"}, at(2))
	require.NoError(t, err)
	assert.Equal(t, 2, s.Meta.BackgroundV)
	assert.Equal(t, 2, s.Blocks.Background.Version)

	require.NoError(t, s.LockRegistry().Lock(KindBackground, at(3)))
	_, err = s.SetCharacters(threeCharacters(), at(4))
	require.NoError(t, err)
	_, err = s.UpsertCharacter(Character{ID: "c1", Name: "Mira Vale"}, at(5))
	require.NoError(t, err)
	_, _, err = s.DeleteCharacter("c3", at(6))
	require.NoError(t, err)

	assert.Equal(t, 3, s.Meta.CharactersV)
	assert.Equal(t, 2, s.Meta.BackgroundV)
}

func TestSetCharactersRequiresLockedBackground(t *testing.T) {
	s := NewSession("sess-1", t0)
	_, err := s.SetCharacters(threeCharacters(), at(1))
	requireKind(t, err, KindPreconditionNotMet, codeBackgroundNotLocked)

	_, err = s.WriteBackground(BackgroundContent{Premise: "premise"}, at(2))
	require.NoError(t, err)
	require.NoError(t, s.LockRegistry().Lock(KindBackground, at(3)))

	_, err = s.SetCharacters(nil, at(4))
	requireKind(t, err, KindValidationFailed, codeCharactersEmpty)
	_, err = s.SetCharacters([]Character{{ID: "a"}, {ID: "a"}, {Name: "no id"}}, at(4))
	requireKind(t, err, KindValidationFailed, codeCharacterIDRequired)
	assert.Equal(t, 0, s.Meta.CharactersV)
}

func TestMacroChainRequiresLockedDependencies(t *testing.T) {
	s := NewSession("sess-1", t0)
	_, err := s.SetMacroChain("chain-1", threeScenes(), false, at(1))
	requireKind(t, err, KindPreconditionNotMet, codeBackgroundNotLocked)

	_, err = s.WriteBackground(BackgroundContent{Premise: "premise"}, at(2))
	require.NoError(t, err)
	require.NoError(t, s.LockRegistry().Lock(KindBackground, at(3)))
	_, err = s.SetCharacters(threeCharacters(), at(4))
	require.NoError(t, err)

	_, err = s.SetMacroChain("chain-1", threeScenes(), false, at(5))
	requireKind(t, err, KindPreconditionNotMet, codeCharactersNotLocked)
	assert.Nil(t, s.Blocks.Custom.MacroChain)
}

func TestLockedChainCannotBeRegenerated(t *testing.T) {
	s := withLockedChain(t)
	_, err := s.SetMacroChain("chain-2", threeScenes(), true, at(10))
	requireKind(t, err, KindPreconditionNotMet, codeChainLocked)
	assert.Equal(t, "chain-1", s.Blocks.Custom.MacroChain.ChainID)
}

func TestEditChainSceneMarksSceneAndLaterDetails(t *testing.T) {
	s := withDetailedScenes(t)
	_, err := s.LockRegistry().Unlock(KindMacroChain, at(30))
	require.NoError(t, err)
	// Regenerate after the unlock cascade so the details are live again.
	for id, detail := range s.SceneDetails {
		detail.Status = StatusGenerated
		s.SceneDetails[id] = detail
	}
	version := s.Blocks.Custom.MacroChain.Version

	report, err := s.EditChainScene("s1", "Salt Archive, Flooded", "Recover the ledger", at(31))
	require.NoError(t, err)

	chain := s.Blocks.Custom.MacroChain
	assert.Equal(t, StatusEdited, chain.Status)
	assert.Equal(t, version+1, chain.Version)
	assert.Equal(t, "Salt Archive, Flooded", chain.Scenes[1].Title)
	assert.Equal(t, []string{"s1", "s2"}, report.Scenes)
	assert.Equal(t, StatusGenerated, s.SceneDetails["s0"].Status)
}

func TestEditChainSceneRejectedWhileLocked(t *testing.T) {
	s := withLockedChain(t)
	_, err := s.EditChainScene("s0", "x", "", at(10))
	requireKind(t, err, KindPreconditionNotMet, codeChainLocked)
}

func TestSceneDetailLifecycle(t *testing.T) {
	s := withLockedChain(t)

	detail, err := s.PutSceneDetail("s0", SceneContent{Title: "Bell"}, at(10))
	require.NoError(t, err)
	assert.Equal(t, StatusGenerated, detail.Status)
	assert.Equal(t, 1, detail.Version)
	assert.Equal(t, s.Ledger().CurrentFingerprint(), detail.Snapshot)

	detail, err = s.EditSceneDetail("s0", SceneContent{Title: "Bell", GMNarrative: "It rings underwater."}, at(11))
	require.NoError(t, err)
	assert.Equal(t, StatusEdited, detail.Status)
	assert.Equal(t, 2, detail.Version)

	require.NoError(t, s.LockRegistry().LockScene("s0", at(12)))
	_, err = s.EditSceneDetail("s0", SceneContent{Title: "nope"}, at(13))
	requireKind(t, err, KindPreconditionNotMet, codeSceneLocked)
	_, err = s.PutSceneDetail("s0", SceneContent{Title: "nope"}, at(13))
	requireKind(t, err, KindPreconditionNotMet, codeSceneLocked)
	err = s.LockRegistry().LockScene("s0", at(14))
	requireKind(t, err, KindPreconditionNotMet, codeAlreadyLocked)
}

func TestSceneDetailRequiresLockedChain(t *testing.T) {
	s := lockedThroughCharacters(t)
	_, err := s.PutSceneDetail("s0", SceneContent{}, at(5))
	requireKind(t, err, KindPreconditionNotMet, codeChainMissing)

	_, err = s.SetMacroChain("chain-1", threeScenes(), false, at(6))
	require.NoError(t, err)
	_, err = s.PutSceneDetail("s0", SceneContent{}, at(7))
	requireKind(t, err, KindPreconditionNotMet, codeChainNotLocked)
}

func TestUpsertCharacterRecordsLastEdited(t *testing.T) {
	s := lockedThroughCharacters(t)
	_, err := s.LockRegistry().Unlock(KindCharacters, at(5))
	require.NoError(t, err)

	_, err = s.UpsertCharacter(Character{ID: "c2", Name: "Tobin", Class: "Paladin"}, at(6))
	require.NoError(t, err)
	assert.Equal(t, "c2", s.Meta.LastEditedCharacterID)
	assert.Equal(t, "Paladin", s.Blocks.Characters.List[1].Class)

	_, err = s.UpsertCharacter(Character{ID: "c4", Name: "Quill"}, at(7))
	require.NoError(t, err)
	assert.Len(t, s.Blocks.Characters.List, 4)

	_, err = s.UpsertCharacter(Character{Name: "anonymous"}, at(8))
	requireKind(t, err, KindValidationFailed, codeCharacterIDRequired)
}

func TestDeleteCharacterRemovesSheet(t *testing.T) {
	s := lockedThroughCharacters(t)
	_, err := s.AssignScore("c3", "strength", 15, at(5))
	require.NoError(t, err)
	_, err = s.LockRegistry().Unlock(KindCharacters, at(6))
	require.NoError(t, err)

	deleted, _, err := s.DeleteCharacter("c3", at(7))
	require.NoError(t, err)
	assert.Equal(t, "Ash", deleted.Name)
	assert.NotContains(t, s.CharacterSheets, "c3")

	_, _, err = s.DeleteCharacter("c3", at(8))
	requireKind(t, err, KindNotFound, codeCharacterNotFound)
}

func TestClearKeepsCounters(t *testing.T) {
	s := withDetailedScenes(t)
	meta := s.Meta

	s.Clear(at(40))

	assert.Nil(t, s.Blocks.Background)
	assert.Nil(t, s.Blocks.Custom.MacroChain)
	assert.Empty(t, s.SceneDetails)
	assert.Equal(t, meta.BackgroundV, s.Meta.BackgroundV)
	assert.Equal(t, meta.CharactersV, s.Meta.CharactersV)
	assert.Equal(t, 0, s.Meta.MacroSnapshotV)
}

func TestMacroChainRequiresCharactersForCurrentBackground(t *testing.T) {
	s := lockedThroughCharacters(t)
	_, err := s.LockRegistry().Unlock(KindBackground, at(5))
	require.NoError(t, err)
	_, err = s.WriteBackground(BackgroundContent{Premise: "The city floats instead."}, at(6))
	require.NoError(t, err)
	require.NoError(t, s.LockRegistry().Lock(KindBackground, at(7)))
	require.True(t, s.Staleness().CharactersStale())

	_, err = s.SetMacroChain("chain-1", threeScenes(), false, at(8))
	requireKind(t, err, KindPreconditionNotMet, codeCharactersStale)
	assert.Nil(t, s.Blocks.Custom.MacroChain)

	_, err = s.LockRegistry().Unlock(KindCharacters, at(9))
	require.NoError(t, err)
	_, err = s.SetCharacters(threeCharacters(), at(10))
	require.NoError(t, err)
	require.NoError(t, s.LockRegistry().Lock(KindCharacters, at(11)))

	_, err = s.SetMacroChain("chain-1", threeScenes(), false, at(12))
	require.NoError(t, err)
	assert.Equal(t, s.Ledger().CurrentFingerprint(), s.Blocks.Custom.MacroChain.Meta.Snapshot)
}
