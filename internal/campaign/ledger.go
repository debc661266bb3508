package campaign

// fingerprintRadix is the packing base of the legacy integer fingerprint.
// Counters at or above it cannot be packed without colliding.
const fingerprintRadix = 1000

// Fingerprint records the ledger counters an artifact was generated against.
type Fingerprint struct {
	BackgroundV int `json:"backgroundV"`
	CharactersV int `json:"charactersV"`
}

// IsZero reports whether no fingerprint was recorded.
func (f Fingerprint) IsZero() bool {
	return f.BackgroundV == 0 && f.CharactersV == 0
}

// Packed returns backgroundV*1000+charactersV. ok is false when either
// counter is outside [0, 1000) and the packed form would be ambiguous.
func (f Fingerprint) Packed() (value int, ok bool) {
	if f.BackgroundV < 0 || f.CharactersV < 0 {
		return 0, false
	}
	if f.BackgroundV >= fingerprintRadix || f.CharactersV >= fingerprintRadix {
		return 0, false
	}
	return f.BackgroundV*fingerprintRadix + f.CharactersV, true
}

// UnpackFingerprint reverses Packed for values produced by it.
func UnpackFingerprint(value int) Fingerprint {
	if value <= 0 {
		return Fingerprint{}
	}
	return Fingerprint{
		BackgroundV: value / fingerprintRadix,
		CharactersV: value % fingerprintRadix,
	}
}

// VersionLedger exposes the per-block revision counters held in session meta.
type VersionLedger struct {
	meta *Meta
}

func (s *Session) Ledger() VersionLedger {
	return VersionLedger{meta: &s.Meta}
}

// Bump increments the counter for kind and returns its new value. Kinds
// without a counter are left untouched and report zero.
func (l VersionLedger) Bump(kind BlockKind) int {
	switch kind {
	case KindBackground:
		l.meta.BackgroundV++
		return l.meta.BackgroundV
	case KindCharacters:
		l.meta.CharactersV++
		return l.meta.CharactersV
	default:
		return 0
	}
}

// Counter returns the current counter for kind.
func (l VersionLedger) Counter(kind BlockKind) int {
	switch kind {
	case KindBackground:
		return l.meta.BackgroundV
	case KindCharacters:
		return l.meta.CharactersV
	default:
		return 0
	}
}

func (l VersionLedger) CurrentFingerprint() Fingerprint {
	return Fingerprint{BackgroundV: l.meta.BackgroundV, CharactersV: l.meta.CharactersV}
}

// IsStale reports whether an artifact recorded at fingerprint recorded no
// longer matches the ledger. Unrecorded fingerprints are never stale.
func (l VersionLedger) IsStale(recorded Fingerprint) bool {
	return !recorded.IsZero() && recorded != l.CurrentFingerprint()
}

// IsStalePacked is IsStale over the packed integer form.
func (l VersionLedger) IsStalePacked(recorded int) bool {
	if recorded <= 0 {
		return false
	}
	current, ok := l.CurrentFingerprint().Packed()
	if !ok {
		return true
	}
	return recorded != current
}
