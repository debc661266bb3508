package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrProjectNotFound is returned for an unknown project id.
var ErrProjectNotFound = errors.New("project not found")

// Project groups campaign sessions under a title.
type Project struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func decodeProject(payload []byte) (Project, error) {
	var project Project
	if err := json.Unmarshal(payload, &project); err != nil {
		return Project{}, fmt.Errorf("unmarshal project: %w", err)
	}
	return project, nil
}
