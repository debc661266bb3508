package campaign

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFingerprintPackedRoundTrip(t *testing.T) {
	meta := Meta{BackgroundV: 1, CharactersV: 1}
	ledger := VersionLedger{meta: &meta}

	packed, ok := ledger.CurrentFingerprint().Packed()
	require.True(t, ok)
	assert.Equal(t, 1001, packed)
	assert.Equal(t, Fingerprint{BackgroundV: 1, CharactersV: 1}, UnpackFingerprint(packed))

	ledger.Bump(KindCharacters)
	assert.True(t, ledger.IsStalePacked(1001))
	assert.False(t, ledger.IsStalePacked(1002))
	assert.True(t, ledger.IsStale(Fingerprint{BackgroundV: 1, CharactersV: 1}))
	assert.False(t, ledger.IsStale(Fingerprint{BackgroundV: 1, CharactersV: 2}))
}

func TestUnrecordedFingerprintIsNeverStale(t *testing.T) {
	meta := Meta{BackgroundV: 4, CharactersV: 2}
	ledger := VersionLedger{meta: &meta}

	assert.False(t, ledger.IsStale(Fingerprint{}))
	assert.False(t, ledger.IsStalePacked(0))
}

func TestPackedReportsUnrepresentableCounters(t *testing.T) {
	_, ok := Fingerprint{BackgroundV: 1000, CharactersV: 1}.Packed()
	assert.False(t, ok)
	_, ok = Fingerprint{BackgroundV: 1, CharactersV: 1000}.Packed()
	assert.False(t, ok)

	// The pair still tells the two apart where packing would collide.
	meta := Meta{BackgroundV: 2, CharactersV: 0}
	ledger := VersionLedger{meta: &meta}
	assert.True(t, ledger.IsStale(Fingerprint{BackgroundV: 1, CharactersV: 1000}))
}

func TestBumpOnlyTouchesCountedKinds(t *testing.T) {
	meta := Meta{}
	ledger := VersionLedger{meta: &meta}

	assert.Equal(t, 1, ledger.Bump(KindBackground))
	assert.Equal(t, 2, ledger.Bump(KindBackground))
	assert.Equal(t, 1, ledger.Bump(KindCharacters))
	assert.Equal(t, 0, ledger.Bump(KindMacroChain))
	assert.Equal(t, Fingerprint{BackgroundV: 2, CharactersV: 1}, ledger.CurrentFingerprint())
}
