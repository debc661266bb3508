package campaign

import (
	"sort"
	"time"
)

// dependents is the campaign dependency graph: a change to a key can
// invalidate every kind listed for it.
var dependents = map[BlockKind][]BlockKind{
	KindBackground: {KindCharacters, KindMacroChain},
	KindCharacters: {KindMacroChain},
	KindMacroChain: {KindSceneDetail},
}

// StalenessReport lists what a propagation pass found or marked stale.
type StalenessReport struct {
	Characters bool     `json:"characters"`
	MacroChain bool     `json:"macroChain"`
	Scenes     []string `json:"scenes,omitempty"`
}

func (r StalenessReport) Empty() bool {
	return !r.Characters && !r.MacroChain && len(r.Scenes) == 0
}

// StalenessEvaluator is a read-only view comparing recorded fingerprints
// against the session ledger.
type StalenessEvaluator struct {
	session *Session
	ledger  VersionLedger
}

func (s *Session) Staleness() StalenessEvaluator {
	return StalenessEvaluator{session: s, ledger: s.Ledger()}
}

func (e StalenessEvaluator) IsStale(recorded Fingerprint) bool {
	return e.ledger.IsStale(recorded)
}

// CharactersStale reports whether Background changed after the character
// list was generated.
func (e StalenessEvaluator) CharactersStale() bool {
	chars := e.session.Blocks.Characters
	if chars == nil || chars.BackgroundV == 0 {
		return false
	}
	return chars.BackgroundV != e.ledger.Counter(KindBackground)
}

func (e StalenessEvaluator) ChainStale() bool {
	chain := e.session.Blocks.Custom.MacroChain
	if chain == nil {
		return false
	}
	return chain.Status == StatusNeedsRegen || e.ledger.IsStale(chain.Meta.Snapshot)
}

// SceneStale is transitive: a detail is stale when its chain is.
func (e StalenessEvaluator) SceneStale(sceneID string) bool {
	detail, ok := e.session.SceneDetails[sceneID]
	if !ok {
		return false
	}
	if detail.Status == StatusNeedsRegen || e.ChainStale() {
		return true
	}
	return e.ledger.IsStale(detail.Snapshot)
}

// ChainStatus is the chain status reconciled with staleness.
func (e StalenessEvaluator) ChainStatus() Status {
	chain := e.session.Blocks.Custom.MacroChain
	if chain == nil {
		return StatusDraft
	}
	if e.ChainStale() {
		return StatusNeedsRegen
	}
	return chain.Status
}

// SceneStatus is the detail status reconciled with staleness.
func (e StalenessEvaluator) SceneStatus(sceneID string) Status {
	detail, ok := e.session.SceneDetails[sceneID]
	if !ok {
		return StatusDraft
	}
	if e.SceneStale(sceneID) {
		return StatusNeedsRegen
	}
	return detail.Status
}

func (e StalenessEvaluator) Report() StalenessReport {
	report := StalenessReport{
		Characters: e.CharactersStale(),
		MacroChain: e.ChainStale(),
	}
	for _, id := range e.session.detailIDsInOrder() {
		if e.SceneStale(id) {
			report.Scenes = append(report.Scenes, id)
		}
	}
	return report
}

// PropagateStaleness walks the dependency graph downstream of changed and
// moves every invalidated artifact to NeedsRegen. Call it after any accepted
// write or unlock of changed.
func (s *Session) PropagateStaleness(changed BlockKind, now time.Time) StalenessReport {
	var report StalenessReport
	visited := make(map[BlockKind]bool)
	queue := []BlockKind{changed}
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		if visited[node] {
			continue
		}
		visited[node] = true
		if node != changed && !s.invalidate(node, now, &report) {
			continue
		}
		queue = append(queue, dependents[node]...)
	}
	return report
}

// Reconcile brings stored statuses in line with the ledger. It is a no-op
// for a session whose writes all went through PropagateStaleness.
func (s *Session) Reconcile(now time.Time) StalenessReport {
	return s.PropagateStaleness(KindBackground, now)
}

// PropagateFromScene marks every detailed scene after sceneID NeedsRegen.
func (s *Session) PropagateFromScene(sceneID string, now time.Time) StalenessReport {
	var report StalenessReport
	ids := s.SceneIDs()
	for i, id := range ids {
		if id != sceneID {
			continue
		}
		var later []string
		for _, next := range ids[i+1:] {
			if detail, ok := s.SceneDetails[next]; ok && detail.Status != StatusDraft && detail.Status != StatusNeedsRegen {
				later = append(later, next)
			}
		}
		report.Scenes = s.SceneGate().MarkNeedsRegen(later, now)
		break
	}
	return report
}

func (s *Session) invalidate(node BlockKind, now time.Time, report *StalenessReport) bool {
	evaluator := s.Staleness()
	switch node {
	case KindBackground:
		return false
	case KindCharacters:
		report.Characters = evaluator.CharactersStale()
		return report.Characters
	case KindMacroChain:
		chain := s.Blocks.Custom.MacroChain
		if chain == nil || !evaluator.ChainStale() {
			return false
		}
		if chain.Status != StatusNeedsRegen {
			chain.Status = StatusNeedsRegen
			chain.Version++
			chain.LockedAt = nil
			chain.LastUpdatedAt = now
		}
		report.MacroChain = true
		return true
	case KindSceneDetail:
		var ids []string
		for _, id := range s.detailIDsInOrder() {
			if s.SceneDetails[id].Status != StatusNeedsRegen {
				ids = append(ids, id)
			}
		}
		report.Scenes = append(report.Scenes, s.SceneGate().MarkNeedsRegen(ids, now)...)
		return len(ids) > 0
	default:
		return false
	}
}

// detailIDsInOrder lists detailed scenes in chain order, then any details
// whose scene left the chain, sorted by id.
func (s *Session) detailIDsInOrder() []string {
	seen := make(map[string]bool, len(s.SceneDetails))
	ids := make([]string, 0, len(s.SceneDetails))
	for _, id := range s.SceneIDs() {
		if _, ok := s.SceneDetails[id]; ok {
			ids = append(ids, id)
			seen[id] = true
		}
	}
	var orphans []string
	for id := range s.SceneDetails {
		if !seen[id] {
			orphans = append(orphans, id)
		}
	}
	sort.Strings(orphans)
	return append(ids, orphans...)
}
