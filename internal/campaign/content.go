package campaign

import (
	"fmt"
	"strings"
	"time"
)

// WriteBackground replaces the background content. It is the only content
// mutation for the block and bumps the ledger once.
func (s *Session) WriteBackground(content BackgroundContent, now time.Time) (StalenessReport, error) {
	if err := s.CanWriteBackground(); err != nil {
		return StalenessReport{}, err
	}
	block := s.Blocks.Background
	if strings.TrimSpace(content.Premise) == "" {
		return StalenessReport{}, validationError(codeBlockMissing, "background is incomplete", []string{"premise is required"})
	}
	if block == nil {
		block = &BackgroundBlock{}
		s.Blocks.Background = block
	}
	block.Content = content
	block.Version++
	return s.acceptWrite(KindBackground, now), nil
}

// CanWriteBackground reports whether the background accepts new content.
func (s *Session) CanWriteBackground() error {
	if s.LockRegistry().IsLocked(KindBackground) {
		return preconditionError(codeBlockLocked, "background is locked and cannot be edited")
	}
	return nil
}

// CanSetCharacters reports whether a character list may be generated.
func (s *Session) CanSetCharacters() error {
	if !s.LockRegistry().IsLocked(KindBackground) {
		return preconditionError(codeBackgroundNotLocked, "background must be locked before generating characters")
	}
	if s.LockRegistry().IsLocked(KindCharacters) {
		return preconditionError(codeBlockLocked, "characters are locked and cannot be regenerated")
	}
	return nil
}

// SetCharacters stores a freshly generated character list.
func (s *Session) SetCharacters(list []Character, now time.Time) (StalenessReport, error) {
	if err := s.CanSetCharacters(); err != nil {
		return StalenessReport{}, err
	}
	block := s.Blocks.Characters
	if len(list) == 0 {
		return StalenessReport{}, validationError(codeCharactersEmpty, "character list is empty", []string{"at least one character is required"})
	}
	if messages := characterListProblems(list); len(messages) > 0 {
		return StalenessReport{}, validationError(codeCharacterIDRequired, "character list is invalid", messages)
	}
	if block == nil {
		block = &CharactersBlock{}
		s.Blocks.Characters = block
	}
	block.List = append([]Character(nil), list...)
	block.Version++
	block.BackgroundV = s.Meta.BackgroundV
	s.pruneSheets()
	return s.acceptWrite(KindCharacters, now), nil
}

// UpsertCharacter replaces the character with the same id, or appends it.
func (s *Session) UpsertCharacter(character Character, now time.Time) (StalenessReport, error) {
	block, err := s.editableCharacters()
	if err != nil {
		return StalenessReport{}, err
	}
	id := strings.TrimSpace(character.ID)
	if id == "" {
		return StalenessReport{}, validationError(codeCharacterIDRequired, "character id is required", nil)
	}
	character.ID = id
	if index := block.indexOf(id); index >= 0 {
		block.List[index] = character
	} else {
		block.List = append(block.List, character)
	}
	block.Version++
	s.Meta.LastEditedCharacterID = id
	return s.acceptWrite(KindCharacters, now), nil
}

// DeleteCharacter removes one character and its sheet.
func (s *Session) DeleteCharacter(characterID string, now time.Time) (Character, StalenessReport, error) {
	block, err := s.editableCharacters()
	if err != nil {
		return Character{}, StalenessReport{}, err
	}
	index := block.indexOf(characterID)
	if index < 0 {
		return Character{}, StalenessReport{}, notFoundError(codeCharacterNotFound, "character not found")
	}
	deleted := block.List[index]
	block.List = append(block.List[:index], block.List[index+1:]...)
	block.Version++
	delete(s.CharacterSheets, characterID)
	if s.Meta.LastEditedCharacterID == characterID {
		s.Meta.LastEditedCharacterID = ""
	}
	return deleted, s.acceptWrite(KindCharacters, now), nil
}

// CanCreateMacroChain reports the precondition for chain generation.
func (s *Session) CanCreateMacroChain() error {
	locks := s.LockRegistry()
	if !locks.IsLocked(KindBackground) {
		return preconditionError(codeBackgroundNotLocked, "background must be locked before generating the macro chain")
	}
	if !locks.IsLocked(KindCharacters) {
		return preconditionError(codeCharactersNotLocked, "characters must be locked before generating the macro chain")
	}
	if len(s.Blocks.Characters.List) == 0 {
		return preconditionError(codeCharactersEmpty, "characters list is empty")
	}
	if s.Staleness().CharactersStale() {
		return preconditionError(codeCharactersStale, "characters were generated against an older background, regenerate them first")
	}
	if chain := s.Blocks.Custom.MacroChain; chain != nil && chain.Status == StatusLocked {
		return preconditionError(codeChainLocked, "macro chain is locked, unlock it before regenerating")
	}
	return nil
}

// SetMacroChain stores a generated chain and records the current
// fingerprint on it. A regenerated chain starts fresh as Generated.
func (s *Session) SetMacroChain(chainID string, scenes []Scene, draftIdeaBank bool, now time.Time) (StalenessReport, error) {
	if err := s.CanCreateMacroChain(); err != nil {
		return StalenessReport{}, err
	}
	if len(scenes) == 0 {
		return StalenessReport{}, validationError(codeChainEmpty, "macro chain has no scenes", []string{"at least one scene is required"})
	}
	ordered := make([]Scene, 0, len(scenes))
	for i, scene := range scenes {
		if strings.TrimSpace(scene.ID) == "" {
			return StalenessReport{}, validationError(codeChainEmpty, "macro chain is invalid", []string{"every scene needs an id"})
		}
		scene.Order = i
		ordered = append(ordered, scene)
	}

	version := 1
	if previous := s.Blocks.Custom.MacroChain; previous != nil {
		version = previous.Version + 1
	}
	snapshot := s.Ledger().CurrentFingerprint()
	packed, _ := snapshot.Packed()
	s.Blocks.Custom.MacroChain = &MacroChain{
		ChainID: chainID,
		Scenes:  ordered,
		Status:  StatusGenerated,
		Version: version,
		Meta: ChainMeta{
			IsDraftIdeaBank: draftIdeaBank,
			Snapshot:        snapshot,
			MacroSnapshotV:  packed,
		},
		CreatedAt:     now,
		LastUpdatedAt: now,
	}
	s.Meta.MacroSnapshotV = packed
	report := s.PropagateStaleness(KindMacroChain, now)
	s.touch(now)
	return report, nil
}

// EditChainScene changes one scene stub. Details of that scene and every
// later scene are invalidated.
func (s *Session) EditChainScene(sceneID, title, objective string, now time.Time) (StalenessReport, error) {
	chain := s.Blocks.Custom.MacroChain
	if chain == nil {
		return StalenessReport{}, preconditionError(codeChainMissing, "macro chain not found, generate a chain first")
	}
	if chain.Status == StatusLocked {
		return StalenessReport{}, preconditionError(codeChainLocked, "macro chain is locked and cannot be edited")
	}
	if s.Staleness().ChainStale() {
		return StalenessReport{}, preconditionError(codeChainNeedsRegen, "macro chain is stale and must be regenerated")
	}
	index := chain.SceneIndex(sceneID)
	if index < 0 {
		return StalenessReport{}, notFoundError(codeSceneNotFound, "scene is not part of the macro chain")
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return StalenessReport{}, validationError(codeChainEmpty, "scene is invalid", []string{"title is required"})
	}
	chain.Scenes[index].Title = title
	chain.Scenes[index].Objective = strings.TrimSpace(objective)
	chain.Status = StatusEdited
	chain.Version++
	chain.LastUpdatedAt = now

	var affected []string
	ids := s.SceneIDs()
	for _, id := range ids[indexOf(ids, sceneID):] {
		if detail, ok := s.SceneDetails[id]; ok && detail.Status != StatusNeedsRegen {
			affected = append(affected, id)
		}
	}
	report := StalenessReport{Scenes: s.SceneGate().MarkNeedsRegen(affected, now)}
	s.touch(now)
	return report, nil
}

// PutSceneDetail stores generated detail for an accessible scene of a locked,
// fresh chain. Regenerating a NeedsRegen detail re-records the fingerprint.
func (s *Session) PutSceneDetail(sceneID string, content SceneContent, now time.Time) (SceneDetail, error) {
	if err := s.CanDetailScene(sceneID); err != nil {
		return SceneDetail{}, err
	}
	index := indexOf(s.SceneIDs(), sceneID)
	previous, exists := s.SceneDetails[sceneID]
	detail := SceneDetail{
		SceneID:       sceneID,
		Sequence:      index,
		Content:       content,
		Status:        StatusGenerated,
		Version:       1,
		Snapshot:      s.Ledger().CurrentFingerprint(),
		LastUpdatedAt: now,
	}
	if exists {
		detail.Version = previous.Version + 1
	}
	s.SceneDetails[sceneID] = detail
	s.touch(now)
	return detail, nil
}

// CanDetailScene reports whether generation may run for sceneID.
func (s *Session) CanDetailScene(sceneID string) error {
	chain := s.Blocks.Custom.MacroChain
	if chain == nil {
		return preconditionError(codeChainMissing, "macro chain not found, generate a chain first")
	}
	if s.Staleness().ChainStale() {
		return preconditionError(codeChainNeedsRegen, "macro chain is stale and must be regenerated")
	}
	if chain.Status != StatusLocked {
		return preconditionError(codeChainNotLocked, "macro chain must be locked before detailing scenes")
	}
	if _, err := s.OpenScene(sceneID); err != nil {
		return err
	}
	if detail, ok := s.SceneDetails[sceneID]; ok && detail.Status == StatusLocked {
		return preconditionError(codeSceneLocked, "scene is locked and cannot be regenerated")
	}
	return nil
}

// EditSceneDetail replaces the content of a generated, unlocked detail.
func (s *Session) EditSceneDetail(sceneID string, content SceneContent, now time.Time) (SceneDetail, error) {
	detail, ok := s.SceneDetails[sceneID]
	if !ok {
		return SceneDetail{}, notFoundError(codeSceneNotFound, "scene detail not found")
	}
	switch detail.Status {
	case StatusLocked:
		return SceneDetail{}, preconditionError(codeSceneLocked, "scene is locked and cannot be edited")
	case StatusNeedsRegen:
		return SceneDetail{}, preconditionError(codeSceneNeedsRegen, "scene is stale and must be regenerated")
	case StatusDraft, StatusGenerated, StatusEdited:
	}
	if s.Staleness().SceneStale(sceneID) {
		return SceneDetail{}, preconditionError(codeSceneNeedsRegen, "scene is stale and must be regenerated")
	}
	detail.Content = content
	detail.Status = StatusEdited
	detail.Version++
	detail.LastUpdatedAt = now
	s.SceneDetails[sceneID] = detail
	s.touch(now)
	return detail, nil
}

// acceptWrite records an accepted content write to kind.
func (s *Session) acceptWrite(kind BlockKind, now time.Time) StalenessReport {
	s.Ledger().Bump(kind)
	report := s.PropagateStaleness(kind, now)
	s.touch(now)
	return report
}

func (s *Session) editableCharacters() (*CharactersBlock, error) {
	block := s.Blocks.Characters
	if block == nil || len(block.List) == 0 {
		return nil, preconditionError(codeCharactersMissing, "characters must be generated before editing")
	}
	if block.Locked {
		return nil, preconditionError(codeBlockLocked, "characters are locked and cannot be edited")
	}
	return block, nil
}

func (b *CharactersBlock) indexOf(characterID string) int {
	for i, character := range b.List {
		if character.ID == characterID {
			return i
		}
	}
	return -1
}

func characterListProblems(list []Character) []string {
	var messages []string
	seen := make(map[string]bool, len(list))
	for i, character := range list {
		id := strings.TrimSpace(character.ID)
		switch {
		case id == "":
			messages = append(messages, fmt.Sprintf("character %d has no id", i))
		case seen[id]:
			messages = append(messages, "duplicate character id "+id)
		}
		seen[id] = true
	}
	return messages
}
