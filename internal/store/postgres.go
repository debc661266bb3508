package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sudeengin/DnDbug-sub002/internal/campaign"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

func (s *PostgresStore) LoadSession(ctx context.Context, sessionID string) (*campaign.Session, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, `SELECT document FROM campaign_sessions WHERE session_id=$1`, sessionID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	return decodeSession(payload)
}

// SaveSession inserts a new session when expectedVersion is zero and
// otherwise updates the row only while it is still at expectedVersion.
func (s *PostgresStore) SaveSession(ctx context.Context, session *campaign.Session, expectedVersion int64) error {
	payload, err := encodeSession(session)
	if err != nil {
		return err
	}

	if expectedVersion == 0 {
		result, err := s.db.ExecContext(ctx, `
			INSERT INTO campaign_sessions (session_id, version, document, created_at, updated_at)
			VALUES ($1, $2, $3::jsonb, $4, $5)
			ON CONFLICT (session_id) DO UPDATE
				SET version=EXCLUDED.version, document=EXCLUDED.document, updated_at=EXCLUDED.updated_at
				WHERE campaign_sessions.version = 0
		`, session.SessionID, session.Version, string(payload), session.CreatedAt, session.UpdatedAt)
		if err != nil {
			return fmt.Errorf("insert session: %w", err)
		}
		return requireOneRow(result)
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE campaign_sessions
		SET version=$2, document=$3::jsonb, updated_at=$4
		WHERE session_id=$1 AND version=$5
	`, session.SessionID, session.Version, string(payload), session.UpdatedAt, expectedVersion)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	return requireOneRow(result)
}

func (s *PostgresStore) DeleteSession(ctx context.Context, sessionID string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM campaign_sessions WHERE session_id=$1`, sessionID)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete session rows: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) CreateProject(ctx context.Context, project Project) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO projects (id, title, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
	`, project.ID, project.Title, project.CreatedAt, project.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert project: %w", err)
	}
	return nil
}

// ListProjects returns projects oldest first.
func (s *PostgresStore) ListProjects(ctx context.Context) ([]Project, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, title, created_at, updated_at FROM projects ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	projects := []Project{}
	for rows.Next() {
		var project Project
		if err := rows.Scan(&project.ID, &project.Title, &project.CreatedAt, &project.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, project)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return projects, nil
}

func (s *PostgresStore) GetProject(ctx context.Context, projectID string) (Project, error) {
	var project Project
	err := s.db.QueryRowContext(ctx, `SELECT id, title, created_at, updated_at FROM projects WHERE id=$1`, projectID).
		Scan(&project.ID, &project.Title, &project.CreatedAt, &project.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Project{}, ErrProjectNotFound
	}
	if err != nil {
		return Project{}, fmt.Errorf("load project: %w", err)
	}
	return project, nil
}

func (s *PostgresStore) DeleteProject(ctx context.Context, projectID string) (Project, error) {
	var project Project
	err := s.db.QueryRowContext(ctx, `DELETE FROM projects WHERE id=$1 RETURNING id, title, created_at, updated_at`, projectID).
		Scan(&project.ID, &project.Title, &project.CreatedAt, &project.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Project{}, ErrProjectNotFound
	}
	if err != nil {
		return Project{}, fmt.Errorf("delete project: %w", err)
	}
	return project, nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func requireOneRow(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("session rows affected: %w", err)
	}
	if affected == 0 {
		return ErrVersionConflict
	}
	return nil
}
