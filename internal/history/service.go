// Package history keeps a git log of lock transitions per campaign session.
// Each lock or unlock commits the full session document, so any past
// locked state can be read back by commit hash.
package history

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/sudeengin/DnDbug-sub002/internal/campaign"
)

const (
	snapshotFile = "session.json"
	mainBranch   = "main"
)

var (
	ErrInvalidSessionID = errors.New("invalid session id for history")
	ErrRevisionNotFound = errors.New("history revision not found")
)

type Transition string

const (
	TransitionLock   Transition = "lock"
	TransitionUnlock Transition = "unlock"
)

// Event describes one lock transition. Target is a block kind, or
// "scene:<id>" for a scene detail.
type Event struct {
	Transition Transition
	Target     string
	Actor      string
}

func SceneTarget(sceneID string) string {
	return "scene:" + sceneID
}

type Entry struct {
	Hash       string     `json:"hash"`
	Message    string     `json:"message"`
	Author     string     `json:"author"`
	Transition Transition `json:"transition,omitempty"`
	Target     string     `json:"target,omitempty"`
	Version    int64      `json:"version"`
	Changed    []string   `json:"changed,omitempty"`
	Tags       []string   `json:"tags,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
}

type Service struct {
	baseDir string
	now     func() time.Time
	lockMu  sync.Mutex
	locks   map[string]*sync.Mutex
}

func New(baseDir string) *Service {
	return &Service{
		baseDir: baseDir,
		now:     time.Now,
		locks:   make(map[string]*sync.Mutex),
	}
}

// Record commits the session as it stands after event. Block locks are
// also tagged so the locked state is addressable by name.
func (s *Service) Record(session *campaign.Session, event Event) (Entry, error) {
	path, err := s.repoPath(session.SessionID)
	if err != nil {
		return Entry{}, err
	}
	lock := s.sessionLock(session.SessionID)
	lock.Lock()
	defer lock.Unlock()

	repo, err := s.openOrInit(path)
	if err != nil {
		return Entry{}, err
	}

	payload, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return Entry{}, fmt.Errorf("marshal session: %w", err)
	}
	worktree, err := repo.Worktree()
	if err != nil {
		return Entry{}, fmt.Errorf("open worktree: %w", err)
	}
	if err := os.WriteFile(filepath.Join(path, snapshotFile), append(payload, '\n'), 0o644); err != nil {
		return Entry{}, fmt.Errorf("write %s: %w", snapshotFile, err)
	}
	if _, err := worktree.Add(snapshotFile); err != nil {
		return Entry{}, fmt.Errorf("git add snapshot: %w", err)
	}

	actor := event.Actor
	if strings.TrimSpace(actor) == "" {
		actor = "dndbug"
	}
	hash, err := worktree.Commit(commitMessage(event, session.Version), &git.CommitOptions{
		AllowEmptyCommits: true,
		Author: &object.Signature{
			Name:  actor,
			Email: fmt.Sprintf("%s@local.dndbug.dev", sanitizeEmail(actor)),
			When:  s.now(),
		},
	})
	if err != nil {
		return Entry{}, fmt.Errorf("commit snapshot: %w", err)
	}

	var tags []string
	if event.Transition == TransitionLock && !strings.HasPrefix(event.Target, "scene:") {
		name := tagName(event.Target, session.Version)
		_, err := repo.CreateTag(name, hash, &git.CreateTagOptions{
			Tagger:  &object.Signature{Name: actor, Email: "dndbug@localhost", When: s.now()},
			Message: name,
		})
		if err != nil && !errors.Is(err, git.ErrTagExists) {
			return Entry{}, fmt.Errorf("create tag: %w", err)
		}
		tags = append(tags, name)
	}

	commitObj, err := repo.CommitObject(hash)
	if err != nil {
		return Entry{}, fmt.Errorf("read commit object: %w", err)
	}
	entry := toEntry(commitObj)
	entry.Tags = tags
	return entry, nil
}

// History lists transitions newest first. A session that never locked
// anything has an empty history.
func (s *Service) History(sessionID string, limit int) ([]Entry, error) {
	path, err := s.repoPath(sessionID)
	if err != nil {
		return nil, err
	}
	lock := s.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	repo, err := git.PlainOpen(path)
	if errors.Is(err, git.ErrRepositoryNotExists) {
		return []Entry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open repo: %w", err)
	}
	ref, err := repo.Reference(plumbing.NewBranchReferenceName(mainBranch), true)
	if err != nil {
		return nil, fmt.Errorf("resolve branch %s: %w", mainBranch, err)
	}
	tagsByHash, err := tagIndex(repo)
	if err != nil {
		return nil, err
	}

	iter, err := repo.Log(&git.LogOptions{From: ref.Hash()})
	if err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}
	defer iter.Close()

	items := make([]Entry, 0)
	err = iter.ForEach(func(commitObj *object.Commit) error {
		entry := toEntry(commitObj)
		entry.Tags = tagsByHash[commitObj.Hash]
		entry.Changed = changedSinceParent(commitObj)
		items = append(items, entry)
		if limit > 0 && len(items) >= limit {
			return io.EOF
		}
		return nil
	})
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("iterate log: %w", err)
	}
	return items, nil
}

// SessionAt reads the session snapshot committed at hash, which may be a
// short hash or a tag name.
func (s *Service) SessionAt(sessionID, revision string) (*campaign.Session, error) {
	path, err := s.repoPath(sessionID)
	if err != nil {
		return nil, err
	}
	lock := s.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	repo, err := git.PlainOpen(path)
	if errors.Is(err, git.ErrRepositoryNotExists) {
		return nil, ErrRevisionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("open repo: %w", err)
	}
	resolved, err := repo.ResolveRevision(plumbing.Revision(revision))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrRevisionNotFound, revision)
	}
	commitObj, err := repo.CommitObject(*resolved)
	if err != nil {
		return nil, fmt.Errorf("read commit %s: %w", revision, err)
	}
	return readSnapshot(commitObj)
}

// Remove deletes the history of a torn-down session.
func (s *Service) Remove(sessionID string) error {
	path, err := s.repoPath(sessionID)
	if err != nil {
		return err
	}
	lock := s.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()
	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("remove history: %w", err)
	}
	return nil
}

func (s *Service) openOrInit(path string) (*git.Repository, error) {
	repo, err := git.PlainOpen(path)
	if err == nil {
		return repo, nil
	}
	if !errors.Is(err, git.ErrRepositoryNotExists) {
		return nil, fmt.Errorf("open repo: %w", err)
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("create repo dir: %w", err)
	}
	repo, err = git.PlainInitWithOptions(path, &git.PlainInitOptions{
		InitOptions: git.InitOptions{DefaultBranch: plumbing.NewBranchReferenceName(mainBranch)},
	})
	if err != nil {
		return nil, fmt.Errorf("init repo: %w", err)
	}
	return repo, nil
}

func (s *Service) repoPath(sessionID string) (string, error) {
	if sessionID == "" || sessionID == "." || sessionID == ".." || strings.ContainsAny(sessionID, `/\`) {
		return "", ErrInvalidSessionID
	}
	return filepath.Join(s.baseDir, sessionID), nil
}

func (s *Service) sessionLock(sessionID string) *sync.Mutex {
	s.lockMu.Lock()
	defer s.lockMu.Unlock()
	lock, ok := s.locks[sessionID]
	if ok {
		return lock
	}
	lock = &sync.Mutex{}
	s.locks[sessionID] = lock
	return lock
}

func commitMessage(event Event, version int64) string {
	return fmt.Sprintf("%s %s\n\ntransition: %s\ntarget: %s\nversion: %d\n",
		event.Transition, event.Target, event.Transition, event.Target, version)
}

func tagName(target string, version int64) string {
	return fmt.Sprintf("%s-locked-v%d", strings.ReplaceAll(target, ".", "-"), version)
}

func toEntry(commitObj *object.Commit) Entry {
	entry := Entry{
		Hash:      commitObj.Hash.String()[:7],
		Message:   strings.TrimSpace(strings.SplitN(commitObj.Message, "\n", 2)[0]),
		Author:    commitObj.Author.Name,
		CreatedAt: commitObj.Author.When,
	}
	for _, line := range strings.Split(commitObj.Message, "\n") {
		key, value, ok := strings.Cut(line, ": ")
		if !ok {
			continue
		}
		switch key {
		case "transition":
			entry.Transition = Transition(value)
		case "target":
			entry.Target = value
		case "version":
			_, _ = fmt.Sscanf(value, "%d", &entry.Version)
		}
	}
	return entry
}

func tagIndex(repo *git.Repository) (map[plumbing.Hash][]string, error) {
	index := make(map[plumbing.Hash][]string)
	iter, err := repo.TagObjects()
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	err = iter.ForEach(func(tag *object.Tag) error {
		index[tag.Target] = append(index[tag.Target], tag.Name)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("iterate tags: %w", err)
	}
	for hash := range index {
		sort.Strings(index[hash])
	}
	return index, nil
}

func readSnapshot(commitObj *object.Commit) (*campaign.Session, error) {
	file, err := commitObj.File(snapshotFile)
	if err != nil {
		return nil, fmt.Errorf("load %s from commit: %w", snapshotFile, err)
	}
	reader, err := file.Reader()
	if err != nil {
		return nil, fmt.Errorf("open snapshot reader: %w", err)
	}
	defer reader.Close()

	payload, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read snapshot bytes: %w", err)
	}
	var session campaign.Session
	if err := json.Unmarshal(payload, &session); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	session.Normalize()
	return &session, nil
}

func changedSinceParent(commitObj *object.Commit) []string {
	to, err := readSnapshot(commitObj)
	if err != nil {
		return nil
	}
	parent, err := commitObj.Parent(0)
	if err != nil {
		return ChangedBlocks(campaign.NewSession(to.SessionID, to.CreatedAt), to)
	}
	from, err := readSnapshot(parent)
	if err != nil {
		return nil
	}
	return ChangedBlocks(from, to)
}

// ChangedBlocks names the parts of the session that differ between two
// snapshots, sorted.
func ChangedBlocks(from, to *campaign.Session) []string {
	pairs := map[string][2]any{
		"background":        {from.Blocks.Background, to.Blocks.Background},
		"characters":        {from.Blocks.Characters, to.Blocks.Characters},
		"custom.macroChain": {from.Blocks.Custom.MacroChain, to.Blocks.Custom.MacroChain},
		"characterSheets":   {from.CharacterSheets, to.CharacterSheets},
	}
	var changed []string
	for name, pair := range pairs {
		if !sameJSON(pair[0], pair[1]) {
			changed = append(changed, name)
		}
	}
	for id := range unionKeys(from.SceneDetails, to.SceneDetails) {
		before, hadBefore := from.SceneDetails[id]
		after, hasAfter := to.SceneDetails[id]
		if hadBefore != hasAfter || !sameJSON(before, after) {
			changed = append(changed, SceneTarget(id))
		}
	}
	sort.Strings(changed)
	return changed
}

func unionKeys(a, b map[string]campaign.SceneDetail) map[string]struct{} {
	keys := make(map[string]struct{}, len(a)+len(b))
	for id := range a {
		keys[id] = struct{}{}
	}
	for id := range b {
		keys[id] = struct{}{}
	}
	return keys
}

func sameJSON(a, b any) bool {
	left, errLeft := json.Marshal(a)
	right, errRight := json.Marshal(b)
	if errLeft != nil || errRight != nil {
		return false
	}
	return bytes.Equal(left, right)
}

func sanitizeEmail(input string) string {
	out := make([]rune, 0, len(input))
	for _, r := range input {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			out = append(out, r)
			continue
		}
		if r == ' ' || r == '-' || r == '_' {
			out = append(out, '.')
		}
	}
	if len(out) == 0 {
		return "user"
	}
	return string(out)
}
