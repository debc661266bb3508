package app

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/sudeengin/DnDbug-sub002/internal/campaign"
	"github.com/sudeengin/DnDbug-sub002/internal/config"
	"github.com/sudeengin/DnDbug-sub002/internal/export"
	"github.com/sudeengin/DnDbug-sub002/internal/generator"
	"github.com/sudeengin/DnDbug-sub002/internal/history"
	"github.com/sudeengin/DnDbug-sub002/internal/store"
)

// fakeStore keeps encoded sessions in memory with the same compare-and-swap
// contract as the real stores.
type fakeStore struct {
	mu       sync.Mutex
	docs     map[string][]byte
	versions map[string]int64
	saves    int

	saveFn func(context.Context, *campaign.Session, int64) error
	pingFn func(context.Context) error
}

func newFakeStore() *fakeStore {
	return &fakeStore{docs: make(map[string][]byte), versions: make(map[string]int64)}
}

func (f *fakeStore) LoadSession(_ context.Context, sessionID string) (*campaign.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	payload, ok := f.docs[sessionID]
	if !ok {
		return nil, store.ErrNotFound
	}
	var session campaign.Session
	if err := json.Unmarshal(payload, &session); err != nil {
		return nil, err
	}
	session.Normalize()
	return &session, nil
}

func (f *fakeStore) SaveSession(ctx context.Context, session *campaign.Session, expected int64) error {
	if f.saveFn != nil {
		if err := f.saveFn(ctx, session, expected); err != nil {
			return err
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.versions[session.SessionID] != expected {
		return store.ErrVersionConflict
	}
	payload, err := json.Marshal(session)
	if err != nil {
		return err
	}
	f.docs[session.SessionID] = payload
	f.versions[session.SessionID] = session.Version
	f.saves++
	return nil
}

func (f *fakeStore) DeleteSession(_ context.Context, sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.docs[sessionID]; !ok {
		return store.ErrNotFound
	}
	delete(f.docs, sessionID)
	delete(f.versions, sessionID)
	return nil
}

func (f *fakeStore) Ping(ctx context.Context) error {
	if f.pingFn != nil {
		return f.pingFn(ctx)
	}
	return nil
}

type fakeHistory struct {
	events    []history.Event
	removed   []string
	recordFn  func(*campaign.Session, history.Event) (history.Entry, error)
	historyFn func(string, int) ([]history.Entry, error)
	atFn      func(string, string) (*campaign.Session, error)
}

func (f *fakeHistory) Record(session *campaign.Session, event history.Event) (history.Entry, error) {
	f.events = append(f.events, event)
	if f.recordFn != nil {
		return f.recordFn(session, event)
	}
	return history.Entry{Hash: "abc1234", Transition: event.Transition, Target: event.Target, Version: session.Version}, nil
}

func (f *fakeHistory) History(sessionID string, limit int) ([]history.Entry, error) {
	if f.historyFn != nil {
		return f.historyFn(sessionID, limit)
	}
	return []history.Entry{}, nil
}

func (f *fakeHistory) SessionAt(sessionID, revision string) (*campaign.Session, error) {
	if f.atFn != nil {
		return f.atFn(sessionID, revision)
	}
	return nil, history.ErrRevisionNotFound
}

func (f *fakeHistory) Remove(sessionID string) error {
	f.removed = append(f.removed, sessionID)
	return nil
}

func stubPDF(context.Context, string) ([]byte, error) {
	return []byte("%PDF-1.7 stub"), nil
}

// fakeProjects keeps projects in creation order.
type fakeProjects struct {
	mu       sync.Mutex
	projects []store.Project

	createFn func(context.Context, store.Project) error
}

func (f *fakeProjects) CreateProject(ctx context.Context, project store.Project) error {
	if f.createFn != nil {
		if err := f.createFn(ctx, project); err != nil {
			return err
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.projects = append(f.projects, project)
	return nil
}

func (f *fakeProjects) ListProjects(context.Context) ([]store.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]store.Project{}, f.projects...), nil
}

func (f *fakeProjects) GetProject(_ context.Context, projectID string) (store.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, project := range f.projects {
		if project.ID == projectID {
			return project, nil
		}
	}
	return store.Project{}, store.ErrProjectNotFound
}

func (f *fakeProjects) DeleteProject(_ context.Context, projectID string) (store.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, project := range f.projects {
		if project.ID == projectID {
			f.projects = append(f.projects[:i], f.projects[i+1:]...)
			return project, nil
		}
	}
	return store.Project{}, store.ErrProjectNotFound
}

func newTestService(fs *fakeStore, fh *fakeHistory) *Service {
	clock := time.Date(2026, 5, 1, 19, 0, 0, 0, time.UTC)
	svc := &Service{
		cfg:       config.Config{Store: config.StoreRedis},
		store:     fs,
		projects:  &fakeProjects{},
		generator: generator.New(generator.MockLLM{}),
		exporter:  export.NewService(stubPDF),
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		now: func() time.Time {
			clock = clock.Add(time.Second)
			return clock
		},
	}
	if fh != nil {
		svc.history = fh
	}
	return svc
}

// pipelineThroughChain drives a session up to a locked macro chain.
func pipelineThroughChain(t *testing.T, svc *Service, sessionID string) *campaign.Session {
	t.Helper()
	ctx := context.Background()
	steps := []func() (map[string]any, error){
		func() (map[string]any, error) { return svc.GenerateBackground(ctx, sessionID, "a drowned bell", 3) },
		func() (map[string]any, error) { return svc.SetLock(ctx, sessionID, "background", true) },
		func() (map[string]any, error) { return svc.GenerateCharacters(ctx, sessionID, 0) },
		func() (map[string]any, error) { return svc.SetLock(ctx, sessionID, "characters", true) },
		func() (map[string]any, error) { return svc.GenerateChain(ctx, sessionID, false) },
		func() (map[string]any, error) { return svc.SetLock(ctx, sessionID, "macroChain", true) },
	}
	for i, step := range steps {
		if _, err := step(); err != nil {
			t.Fatalf("pipeline step %d: %v", i, err)
		}
	}
	session, err := svc.store.LoadSession(ctx, sessionID)
	if err != nil {
		t.Fatalf("load session: %v", err)
	}
	return session
}

var fixedTime = time.Date(2026, 5, 1, 18, 0, 0, 0, time.UTC)
