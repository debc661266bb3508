package campaign

import "time"

// SceneGate decides which scenes are reachable. Progression is strictly
// sequential: a scene opens once its predecessor is Locked.
type SceneGate struct {
	details map[string]SceneDetail
}

func NewSceneGate(details map[string]SceneDetail) SceneGate {
	if details == nil {
		details = make(map[string]SceneDetail)
	}
	return SceneGate{details: details}
}

func (s *Session) SceneGate() SceneGate {
	if s.SceneDetails == nil {
		s.SceneDetails = make(map[string]SceneDetail)
	}
	return SceneGate{details: s.SceneDetails}
}

// StatusOf returns the stored status, or Draft for a scene never detailed.
func (g SceneGate) StatusOf(sceneID string) Status {
	detail, ok := g.details[sceneID]
	if !ok || detail.Status == "" {
		return StatusDraft
	}
	return detail.Status
}

// HighestLockedIndex returns the last index of the locked prefix of ids, or
// -1 when the first scene is not locked.
func (g SceneGate) HighestLockedIndex(ids []string) int {
	highest := -1
	for i, id := range ids {
		if g.StatusOf(id) != StatusLocked {
			break
		}
		highest = i
	}
	return highest
}

func (g SceneGate) CanAccess(index int, ids []string) bool {
	if index < 0 || index >= len(ids) {
		return false
	}
	if index == 0 {
		return true
	}
	return g.StatusOf(ids[index-1]) == StatusLocked
}

// MarkNeedsRegen moves the given detailed scenes to NeedsRegen and returns
// the ids it changed. Scenes without a detail are skipped.
func (g SceneGate) MarkNeedsRegen(sceneIDs []string, now time.Time) []string {
	var marked []string
	for _, id := range sceneIDs {
		detail, ok := g.details[id]
		if !ok {
			continue
		}
		detail.Status = StatusNeedsRegen
		detail.Version++
		detail.LockedAt = nil
		detail.LastUpdatedAt = now
		g.details[id] = detail
		marked = append(marked, id)
	}
	return marked
}

// SceneAccess is one row of the gate view.
type SceneAccess struct {
	SceneID    string `json:"sceneId"`
	Index      int    `json:"index"`
	Title      string `json:"title"`
	Status     Status `json:"status"`
	Accessible bool   `json:"accessible"`
	Stale      bool   `json:"stale"`
}

// SceneAccessList evaluates the gate for every scene of the chain.
func (s *Session) SceneAccessList() []SceneAccess {
	chain := s.Blocks.Custom.MacroChain
	if chain == nil {
		return nil
	}
	titles := make(map[string]string, len(chain.Scenes))
	for _, scene := range chain.Scenes {
		titles[scene.ID] = scene.Title
	}
	gate := s.SceneGate()
	evaluator := s.Staleness()
	ids := s.SceneIDs()
	rows := make([]SceneAccess, 0, len(ids))
	for i, id := range ids {
		rows = append(rows, SceneAccess{
			SceneID:    id,
			Index:      i,
			Title:      titles[id],
			Status:     gate.StatusOf(id),
			Accessible: gate.CanAccess(i, ids),
			Stale:      evaluator.SceneStale(id),
		})
	}
	return rows
}

// OpenScene checks the gate for sceneID. A denied access returns an
// AccessDenied error and leaves the session untouched.
func (s *Session) OpenScene(sceneID string) (int, error) {
	ids := s.SceneIDs()
	index := indexOf(ids, sceneID)
	if index < 0 {
		return -1, notFoundError(codeSceneNotFound, "scene is not part of the macro chain")
	}
	if !s.SceneGate().CanAccess(index, ids) {
		return index, accessDeniedError(codeSceneNotAccessible, "previous scene must be locked first")
	}
	return index, nil
}

func indexOf(ids []string, id string) int {
	for i, candidate := range ids {
		if candidate == id {
			return i
		}
	}
	return -1
}
