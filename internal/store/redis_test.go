package store

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/sudeengin/DnDbug-sub002/internal/campaign"
)

func setupTestRedis(t *testing.T, ttl time.Duration) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	s := miniredis.RunT(t)
	store, err := NewRedisStore("redis://"+s.Addr(), ttl)
	if err != nil {
		t.Fatalf("failed to create redis store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store, s
}

func newSession(id string) *campaign.Session {
	return campaign.NewSession(id, time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC))
}

func TestNewRedisStore(t *testing.T) {
	store, _ := setupTestRedis(t, 0)
	if err := store.Ping(context.Background()); err != nil {
		t.Errorf("Ping failed: %v", err)
	}
}

func TestNewRedisStoreInvalidURL(t *testing.T) {
	if _, err := NewRedisStore("not-a-url", 0); err == nil {
		t.Fatal("expected error for invalid url")
	}
}

func TestSaveAndLoadSession(t *testing.T) {
	store, _ := setupTestRedis(t, 0)
	ctx := context.Background()

	session := newSession("sess-1")
	now := session.CreatedAt.Add(time.Minute)
	if _, err := session.WriteBackground(campaign.BackgroundContent{Premise: "A bell under the sea."}, now); err != nil {
		t.Fatalf("write background: %v", err)
	}
	if err := store.SaveSession(ctx, session, 0); err != nil {
		t.Fatalf("SaveSession failed: %v", err)
	}

	loaded, err := store.LoadSession(ctx, "sess-1")
	if err != nil {
		t.Fatalf("LoadSession failed: %v", err)
	}
	if loaded.Version != session.Version {
		t.Errorf("expected version %d, got %d", session.Version, loaded.Version)
	}
	if loaded.Blocks.Background == nil || loaded.Blocks.Background.Content.Premise != "A bell under the sea." {
		t.Errorf("background not round-tripped: %+v", loaded.Blocks.Background)
	}
	if loaded.Meta.BackgroundV != 1 {
		t.Errorf("expected backgroundV 1, got %d", loaded.Meta.BackgroundV)
	}
	if loaded.SceneDetails == nil || loaded.CharacterSheets == nil {
		t.Error("expected maps to be normalized")
	}
}

func TestLoadMissingSession(t *testing.T) {
	store, _ := setupTestRedis(t, 0)
	if _, err := store.LoadSession(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSaveSessionRejectsStaleVersion(t *testing.T) {
	store, _ := setupTestRedis(t, 0)
	ctx := context.Background()

	first := newSession("sess-1")
	if err := store.SaveSession(ctx, first, 0); err != nil {
		t.Fatalf("initial save: %v", err)
	}

	// Two writers load version 0.
	tabA, _ := store.LoadSession(ctx, "sess-1")
	tabB, _ := store.LoadSession(ctx, "sess-1")
	now := first.CreatedAt.Add(time.Minute)

	if _, err := tabA.WriteBackground(campaign.BackgroundContent{Premise: "A"}, now); err != nil {
		t.Fatalf("write A: %v", err)
	}
	if err := store.SaveSession(ctx, tabA, 0); err != nil {
		t.Fatalf("save A: %v", err)
	}

	if _, err := tabB.WriteBackground(campaign.BackgroundContent{Premise: "B"}, now); err != nil {
		t.Fatalf("write B: %v", err)
	}
	if err := store.SaveSession(ctx, tabB, 0); !errors.Is(err, ErrVersionConflict) {
		t.Fatalf("expected ErrVersionConflict, got %v", err)
	}

	stored, err := store.LoadSession(ctx, "sess-1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if stored.Blocks.Background.Content.Premise != "A" {
		t.Errorf("expected first writer to win, got %q", stored.Blocks.Background.Content.Premise)
	}
}

func TestSessionExpires(t *testing.T) {
	store, s := setupTestRedis(t, time.Hour)
	ctx := context.Background()

	if err := store.SaveSession(ctx, newSession("sess-ttl"), 0); err != nil {
		t.Fatalf("save: %v", err)
	}
	s.FastForward(2 * time.Hour)

	if _, err := store.LoadSession(ctx, "sess-ttl"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected expired session, got %v", err)
	}
}

func TestDeleteSession(t *testing.T) {
	store, s := setupTestRedis(t, 0)
	ctx := context.Background()

	if err := store.SaveSession(ctx, newSession("sess-del"), 0); err != nil {
		t.Fatalf("save: %v", err)
	}
	if !s.Exists("campaign:session:sess-del") {
		t.Fatal("expected key to exist")
	}
	if err := store.DeleteSession(ctx, "sess-del"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if s.Exists("campaign:session:sess-del") {
		t.Fatal("expected key to be removed")
	}
	if err := store.DeleteSession(ctx, "sess-del"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestRedisProjects(t *testing.T) {
	store, s := setupTestRedis(t, time.Hour)
	ctx := context.Background()
	created := time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC)

	for i, title := range []string{"Drowned Bell", "Salt Archive"} {
		project := Project{ID: fmt.Sprintf("project_%d", i), Title: title, CreatedAt: created.Add(time.Duration(i) * time.Minute)}
		project.UpdatedAt = project.CreatedAt
		if err := store.CreateProject(ctx, project); err != nil {
			t.Fatalf("create %s: %v", title, err)
		}
	}
	if err := store.CreateProject(ctx, Project{ID: "project_0", Title: "dup", CreatedAt: created}); err == nil {
		t.Fatal("expected duplicate id to fail")
	}

	// Projects are not subject to the session TTL.
	s.FastForward(2 * time.Hour)

	projects, err := store.ListProjects(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(projects) != 2 || projects[0].Title != "Drowned Bell" || projects[1].Title != "Salt Archive" {
		t.Fatalf("unexpected projects: %+v", projects)
	}

	got, err := store.GetProject(ctx, "project_1")
	if err != nil || got.Title != "Salt Archive" || !got.CreatedAt.Equal(created.Add(time.Minute)) {
		t.Fatalf("get: %+v %v", got, err)
	}

	deleted, err := store.DeleteProject(ctx, "project_0")
	if err != nil || deleted.Title != "Drowned Bell" {
		t.Fatalf("delete: %+v %v", deleted, err)
	}
	if _, err := store.GetProject(ctx, "project_0"); !errors.Is(err, ErrProjectNotFound) {
		t.Fatalf("expected ErrProjectNotFound, got %v", err)
	}
	if _, err := store.DeleteProject(ctx, "project_0"); !errors.Is(err, ErrProjectNotFound) {
		t.Fatalf("expected ErrProjectNotFound on second delete, got %v", err)
	}
	projects, err = store.ListProjects(ctx)
	if err != nil || len(projects) != 1 {
		t.Fatalf("list after delete: %+v %v", projects, err)
	}
}
