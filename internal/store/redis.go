package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sudeengin/DnDbug-sub002/internal/campaign"
)

// RedisStore keeps one JSON document per session under a prefixed key.
type RedisStore struct {
	client        *redis.Client
	prefix        string
	projectPrefix string
	projectIndex  string
	ttl           time.Duration
}

// NewRedisStore connects to redisURL. A zero ttl keeps sessions forever.
func NewRedisStore(redisURL string, ttl time.Duration) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return NewRedisStoreWithClient(client, ttl), nil
}

func NewRedisStoreWithClient(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{
		client:        client,
		prefix:        "campaign:session:",
		projectPrefix: "campaign:project:",
		projectIndex:  "campaign:projects",
		ttl:           ttl,
	}
}

func (s *RedisStore) key(sessionID string) string {
	return s.prefix + sessionID
}

func (s *RedisStore) LoadSession(ctx context.Context, sessionID string) (*campaign.Session, error) {
	payload, err := s.client.Get(ctx, s.key(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	return decodeSession(payload)
}

// SaveSession writes session if the stored copy is still at expectedVersion.
// An absent key counts as version zero.
func (s *RedisStore) SaveSession(ctx context.Context, session *campaign.Session, expectedVersion int64) error {
	payload, err := encodeSession(session)
	if err != nil {
		return err
	}
	key := s.key(session.SessionID)

	err = s.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, key).Bytes()
		var version int64
		switch {
		case errors.Is(err, redis.Nil):
		case err != nil:
			return fmt.Errorf("read session: %w", err)
		default:
			if version, err = storedVersion(current); err != nil {
				return err
			}
		}
		if version != expectedVersion {
			return ErrVersionConflict
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, s.ttl)
			return nil
		})
		return err
	}, key)
	if errors.Is(err, redis.TxFailedErr) {
		return ErrVersionConflict
	}
	if err != nil && !errors.Is(err, ErrVersionConflict) {
		return fmt.Errorf("save session: %w", err)
	}
	return err
}

func (s *RedisStore) DeleteSession(ctx context.Context, sessionID string) error {
	deleted, err := s.client.Del(ctx, s.key(sessionID)).Result()
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if deleted == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) projectKey(projectID string) string {
	return s.projectPrefix + projectID
}

// CreateProject stores the project and indexes it by creation time. Projects
// do not expire.
func (s *RedisStore) CreateProject(ctx context.Context, project Project) error {
	payload, err := json.Marshal(project)
	if err != nil {
		return fmt.Errorf("marshal project: %w", err)
	}
	created, err := s.client.SetNX(ctx, s.projectKey(project.ID), payload, 0).Result()
	if err != nil {
		return fmt.Errorf("create project: %w", err)
	}
	if !created {
		return fmt.Errorf("create project: id %q already exists", project.ID)
	}
	score := float64(project.CreatedAt.UnixMilli())
	if err := s.client.ZAdd(ctx, s.projectIndex, redis.Z{Score: score, Member: project.ID}).Err(); err != nil {
		return fmt.Errorf("index project: %w", err)
	}
	return nil
}

// ListProjects returns projects oldest first.
func (s *RedisStore) ListProjects(ctx context.Context) ([]Project, error) {
	ids, err := s.client.ZRange(ctx, s.projectIndex, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	projects := make([]Project, 0, len(ids))
	if len(ids) == 0 {
		return projects, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.projectKey(id)
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("load projects: %w", err)
	}
	for _, value := range values {
		raw, ok := value.(string)
		if !ok {
			continue
		}
		project, err := decodeProject([]byte(raw))
		if err != nil {
			return nil, err
		}
		projects = append(projects, project)
	}
	return projects, nil
}

func (s *RedisStore) GetProject(ctx context.Context, projectID string) (Project, error) {
	payload, err := s.client.Get(ctx, s.projectKey(projectID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Project{}, ErrProjectNotFound
	}
	if err != nil {
		return Project{}, fmt.Errorf("load project: %w", err)
	}
	return decodeProject(payload)
}

// DeleteProject removes the project and returns what was stored.
func (s *RedisStore) DeleteProject(ctx context.Context, projectID string) (Project, error) {
	project, err := s.GetProject(ctx, projectID)
	if err != nil {
		return Project{}, err
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.projectKey(projectID))
		pipe.ZRem(ctx, s.projectIndex, projectID)
		return nil
	})
	if err != nil {
		return Project{}, fmt.Errorf("delete project: %w", err)
	}
	return project, nil
}
