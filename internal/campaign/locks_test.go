package campaign

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLockTwiceSucceedsOnce(t *testing.T) {
	s := NewSession("sess-1", t0)
	_, err := s.WriteBackground(BackgroundContent{Premise: "premise"}, at(1))
	require.NoError(t, err)
	before := s.Meta

	require.NoError(t, s.LockRegistry().Lock(KindBackground, at(2)))
	err = s.LockRegistry().Lock(KindBackground, at(3))
	requireKind(t, err, KindPreconditionNotMet, codeAlreadyLocked)

	assert.Equal(t, before.BackgroundV, s.Meta.BackgroundV)
	assert.Equal(t, before.CharactersV, s.Meta.CharactersV)
	require.NotNil(t, s.Blocks.Background.LockedAt)
	assert.Equal(t, at(2), *s.Blocks.Background.LockedAt)
	assert.True(t, s.Locks.Background)
}

func TestLockPreconditions(t *testing.T) {
	s := NewSession("sess-1", t0)
	locks := s.LockRegistry()

	requireKind(t, locks.Lock(KindBackground, at(1)), KindPreconditionNotMet, codeBlockMissing)
	requireKind(t, locks.Lock(KindCharacters, at(1)), KindPreconditionNotMet, codeCharactersEmpty)
	requireKind(t, locks.Lock(KindMacroChain, at(1)), KindPreconditionNotMet, codeChainMissing)
	requireKind(t, locks.Lock(KindSceneDetail, at(1)), KindValidationFailed, codeUnknownBlockKind)
	assert.Equal(t, int64(0), s.Version)
}

func TestUnlockClearsLockAndKeepsCounters(t *testing.T) {
	s := lockedThroughCharacters(t)
	before := s.Meta.CharactersV

	_, err := s.LockRegistry().Unlock(KindCharacters, at(5))
	require.NoError(t, err)
	assert.False(t, s.Blocks.Characters.Locked)
	assert.Nil(t, s.Blocks.Characters.LockedAt)
	assert.False(t, s.Locks.Characters)
	assert.Equal(t, before, s.Meta.CharactersV)

	_, err = s.LockRegistry().Unlock(KindCharacters, at(6))
	requireKind(t, err, KindPreconditionNotMet, codeNotLocked)
}

func TestLockedContentIsImmutable(t *testing.T) {
	s := lockedThroughCharacters(t)
	backgroundV := s.Meta.BackgroundV

	_, err := s.WriteBackground(BackgroundContent{Premise: "changed"}, at(5))
	requireKind(t, err, KindPreconditionNotMet, codeBlockLocked)
	_, err = s.UpsertCharacter(Character{ID: "c1", Name: "Renamed"}, at(5))
	requireKind(t, err, KindPreconditionNotMet, codeBlockLocked)

	assert.Equal(t, backgroundV, s.Meta.BackgroundV)
	assert.Equal(t, "A city sinks one street a night.", s.Blocks.Background.Content.Premise)
	assert.Equal(t, "Mira", s.Blocks.Characters.List[0].Name)
}

func TestUnlockChainMarksEveryDetailNeedsRegen(t *testing.T) {
	s := withDetailedScenes(t)

	report, err := s.LockRegistry().Unlock(KindMacroChain, at(30))
	require.NoError(t, err)

	assert.Equal(t, StatusEdited, s.Blocks.Custom.MacroChain.Status)
	assert.Nil(t, s.Blocks.Custom.MacroChain.LockedAt)
	assert.Equal(t, []string{"s0", "s1", "s2"}, report.Scenes)
	for _, id := range s.SceneIDs() {
		assert.Equal(t, StatusNeedsRegen, s.SceneDetails[id].Status, id)
	}
}

func TestUnlockSceneInvalidatesLaterScenes(t *testing.T) {
	s := withDetailedScenes(t)

	report, err := s.LockRegistry().UnlockScene("s0", at(30))
	require.NoError(t, err)

	assert.Equal(t, []string{"s1", "s2"}, report.Scenes)
	assert.Equal(t, StatusEdited, s.SceneDetails["s0"].Status)
	assert.Equal(t, StatusNeedsRegen, s.SceneDetails["s1"].Status)
	assert.Equal(t, StatusNeedsRegen, s.SceneDetails["s2"].Status)
	assert.Nil(t, s.SceneDetails["s1"].LockedAt)

	err = s.LockRegistry().LockScene("s1", at(31))
	requireKind(t, err, KindPreconditionNotMet, codeSceneNeedsRegen)
}

func TestLockStaleChainIsRejected(t *testing.T) {
	s := lockedThroughCharacters(t)
	_, err := s.SetMacroChain("chain-1", threeScenes(), false, at(5))
	require.NoError(t, err)

	_, err = s.LockRegistry().Unlock(KindCharacters, at(6))
	require.NoError(t, err)
	_, err = s.UpsertCharacter(Character{ID: "c4", Name: "Quill"}, at(7))
	require.NoError(t, err)

	err = s.LockRegistry().Lock(KindMacroChain, at(8))
	requireKind(t, err, KindPreconditionNotMet, codeChainNeedsRegen)
}

func TestLockDoesNotBumpLedgerButBumpsSessionVersion(t *testing.T) {
	s := NewSession("sess-1", t0)
	_, err := s.WriteBackground(BackgroundContent{Premise: "premise"}, at(1))
	require.NoError(t, err)
	version := s.Version

	require.NoError(t, s.LockRegistry().Lock(KindBackground, at(2)))
	assert.Equal(t, version+1, s.Version)
	assert.Equal(t, 1, s.Meta.BackgroundV)
}
