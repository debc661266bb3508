// Package store persists campaign sessions as versioned JSON documents.
package store

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sudeengin/DnDbug-sub002/internal/campaign"
)

var (
	ErrNotFound = errors.New("session not found")
	// ErrVersionConflict means the stored session moved past the version the
	// caller loaded. The caller must re-fetch and reapply.
	ErrVersionConflict = errors.New("session version conflict")
)

func encodeSession(session *campaign.Session) ([]byte, error) {
	payload, err := json.Marshal(session)
	if err != nil {
		return nil, fmt.Errorf("marshal session: %w", err)
	}
	return payload, nil
}

func decodeSession(payload []byte) (*campaign.Session, error) {
	var session campaign.Session
	if err := json.Unmarshal(payload, &session); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	session.Normalize()
	return &session, nil
}

// storedVersion reads only the version of an encoded session.
func storedVersion(payload []byte) (int64, error) {
	var head struct {
		Version int64 `json:"version"`
	}
	if err := json.Unmarshal(payload, &head); err != nil {
		return 0, fmt.Errorf("unmarshal session version: %w", err)
	}
	return head.Version, nil
}
