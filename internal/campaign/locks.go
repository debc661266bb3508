package campaign

import "time"

const (
	codeChainNeedsRegen = "CHAIN_NEEDS_REGEN"
	codeSceneNeedsRegen = "SCENE_NEEDS_REGEN"
)

// LockRegistry enforces the legal lock transitions of a session. Locking is
// not a content mutation and never bumps the ledger.
type LockRegistry struct {
	session *Session
}

func (s *Session) LockRegistry() LockRegistry {
	return LockRegistry{session: s}
}

func (r LockRegistry) IsLocked(kind BlockKind) bool {
	blocks := r.session.Blocks
	switch kind {
	case KindBackground:
		return blocks.Background != nil && blocks.Background.Locked
	case KindCharacters:
		return blocks.Characters != nil && blocks.Characters.Locked
	case KindMacroChain:
		return blocks.Custom.MacroChain != nil && blocks.Custom.MacroChain.Status == StatusLocked
	default:
		return false
	}
}

func (r LockRegistry) Lock(kind BlockKind, now time.Time) error {
	s := r.session
	switch kind {
	case KindBackground:
		block := s.Blocks.Background
		if block == nil {
			return preconditionError(codeBlockMissing, "background has not been written")
		}
		if block.Locked {
			return preconditionError(codeAlreadyLocked, "background is already locked")
		}
		block.Locked = true
		block.LockedAt = timePtr(now)
		s.Locks.Background = true
	case KindCharacters:
		block := s.Blocks.Characters
		if block == nil || len(block.List) == 0 {
			return preconditionError(codeCharactersEmpty, "characters must be generated before locking")
		}
		if block.Locked {
			return preconditionError(codeAlreadyLocked, "characters are already locked")
		}
		block.Locked = true
		block.LockedAt = timePtr(now)
		s.Locks.Characters = true
	case KindMacroChain:
		chain := s.Blocks.Custom.MacroChain
		if chain == nil {
			return preconditionError(codeChainMissing, "macro chain not found, generate a chain first")
		}
		if chain.Status == StatusLocked {
			return preconditionError(codeAlreadyLocked, "macro chain is already locked")
		}
		if s.Staleness().ChainStale() {
			return preconditionError(codeChainNeedsRegen, "macro chain is stale and must be regenerated")
		}
		chain.Status = StatusLocked
		chain.Version++
		chain.LockedAt = timePtr(now)
		chain.LastUpdatedAt = now
	default:
		return validationError(codeUnknownBlockKind, "block kind cannot be locked", []string{string(kind)})
	}
	s.touch(now)
	return nil
}

// Unlock reopens a block. Unlocking the MacroChain invalidates every scene
// detail built on it; the returned report lists them.
func (r LockRegistry) Unlock(kind BlockKind, now time.Time) (StalenessReport, error) {
	s := r.session
	var report StalenessReport
	switch kind {
	case KindBackground:
		block := s.Blocks.Background
		if block == nil || !block.Locked {
			return report, preconditionError(codeNotLocked, "background is not locked")
		}
		block.Locked = false
		block.LockedAt = nil
		s.Locks.Background = false
	case KindCharacters:
		block := s.Blocks.Characters
		if block == nil || !block.Locked {
			return report, preconditionError(codeNotLocked, "characters are not locked")
		}
		block.Locked = false
		block.LockedAt = nil
		s.Locks.Characters = false
	case KindMacroChain:
		chain := s.Blocks.Custom.MacroChain
		if chain == nil || chain.Status != StatusLocked {
			return report, preconditionError(codeNotLocked, "macro chain is not locked")
		}
		chain.Status = StatusEdited
		chain.Version++
		chain.LockedAt = nil
		chain.LastUpdatedAt = now
		report = s.PropagateStaleness(KindMacroChain, now)
	default:
		return report, validationError(codeUnknownBlockKind, "block kind cannot be unlocked", []string{string(kind)})
	}
	s.touch(now)
	return report, nil
}

func (r LockRegistry) LockScene(sceneID string, now time.Time) error {
	s := r.session
	detail, ok := s.SceneDetails[sceneID]
	if !ok {
		return notFoundError(codeSceneNotFound, "scene detail not found")
	}
	if detail.Status == StatusLocked {
		return preconditionError(codeAlreadyLocked, "scene is already locked")
	}
	if s.Staleness().SceneStale(sceneID) {
		return preconditionError(codeSceneNeedsRegen, "scene is stale and must be regenerated")
	}
	detail.Status = StatusLocked
	detail.Version++
	detail.LockedAt = timePtr(now)
	detail.LastUpdatedAt = now
	s.SceneDetails[sceneID] = detail
	s.touch(now)
	return nil
}

// UnlockScene reopens a scene and invalidates every later detailed scene.
func (r LockRegistry) UnlockScene(sceneID string, now time.Time) (StalenessReport, error) {
	s := r.session
	detail, ok := s.SceneDetails[sceneID]
	if !ok {
		return StalenessReport{}, notFoundError(codeSceneNotFound, "scene detail not found")
	}
	if detail.Status != StatusLocked {
		return StalenessReport{}, preconditionError(codeNotLocked, "scene is not locked")
	}
	detail.Status = StatusEdited
	detail.Version++
	detail.LockedAt = nil
	detail.LastUpdatedAt = now
	s.SceneDetails[sceneID] = detail
	report := s.PropagateFromScene(sceneID, now)
	s.touch(now)
	return report, nil
}
