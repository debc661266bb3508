package campaign

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC)

func at(minutes int) time.Time {
	return t0.Add(time.Duration(minutes) * time.Minute)
}

func threeCharacters() []Character {
	return []Character{
		{ID: "c1", Name: "Mira", Class: "Rogue"},
		{ID: "c2", Name: "Tobin", Class: "Cleric"},
		{ID: "c3", Name: "Ash", Class: "Wizard"},
	}
}

func threeScenes() []Scene {
	return []Scene{
		{ID: "s0", Title: "The Drowned Bell"},
		{ID: "s1", Title: "Salt Archive"},
		{ID: "s2", Title: "Lantern Court"},
	}
}

// lockedThroughCharacters returns a session with Background and Characters
// locked, ready for chain generation.
func lockedThroughCharacters(t *testing.T) *Session {
	t.Helper()
	s := NewSession("sess-1", t0)
	_, err := s.WriteBackground(BackgroundContent{Premise: "A city sinks one street a night."}, at(1))
	require.NoError(t, err)
	require.NoError(t, s.LockRegistry().Lock(KindBackground, at(2)))
	_, err = s.SetCharacters(threeCharacters(), at(3))
	require.NoError(t, err)
	require.NoError(t, s.LockRegistry().Lock(KindCharacters, at(4)))
	return s
}

// withLockedChain adds a locked three-scene chain.
func withLockedChain(t *testing.T) *Session {
	t.Helper()
	s := lockedThroughCharacters(t)
	_, err := s.SetMacroChain("chain-1", threeScenes(), false, at(5))
	require.NoError(t, err)
	require.NoError(t, s.LockRegistry().Lock(KindMacroChain, at(6)))
	return s
}

// withDetailedScenes details every scene, locking all but the last.
func withDetailedScenes(t *testing.T) *Session {
	t.Helper()
	s := withLockedChain(t)
	for i, id := range s.SceneIDs() {
		_, err := s.PutSceneDetail(id, SceneContent{Title: id}, at(10+i*2))
		require.NoError(t, err)
		if i < 2 {
			require.NoError(t, s.LockRegistry().LockScene(id, at(11+i*2)))
		}
	}
	return s
}

func requireKind(t *testing.T, err error, kind ErrorKind, code string) {
	t.Helper()
	require.Error(t, err)
	var campaignErr *Error
	require.ErrorAs(t, err, &campaignErr)
	require.Equal(t, kind, campaignErr.Kind)
	if code != "" {
		require.Equal(t, code, campaignErr.Code)
	}
}
