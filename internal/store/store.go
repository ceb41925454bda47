// Package store keeps built profiles per session.
package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/spigell/skillmatch/internal/profile"
)

// DefaultSession is used by clients that do not carry a session id, such as the CLI.
const DefaultSession = "default"

var (
	// ErrNotFound is returned when a session has no snapshot.
	ErrNotFound = errors.New("snapshot not found")
	// ErrInvalidSession is returned for session ids that cannot be used as storage keys.
	ErrInvalidSession = errors.New("invalid session id")

	sessionPattern = regexp.MustCompile(`^[A-Za-z0-9_-][A-Za-z0-9._-]{0,127}$`)
)

// Snapshot is everything a recommendation needs from a build.
type Snapshot struct {
	Session   string             `json:"session"`
	Profile   *profile.Profile   `json:"profile"`
	Artifacts []profile.Artifact `json:"artifacts"`
	SavedAt   time.Time          `json:"savedAt"`
}

// Store saves and loads snapshots by session id.
type Store interface {
	Save(ctx context.Context, snapshot *Snapshot) error
	Load(ctx context.Context, session string) (*Snapshot, error)
}

// ValidSession reports whether session can be used as a storage key.
func ValidSession(session string) bool {
	return sessionPattern.MatchString(session)
}

func checkSnapshot(snapshot *Snapshot) error {
	if snapshot == nil || snapshot.Profile == nil {
		return errors.New("snapshot without profile")
	}
	return checkSession(snapshot.Session)
}

func checkSession(session string) error {
	if !ValidSession(session) {
		return fmt.Errorf("%w: %q", ErrInvalidSession, strings.TrimSpace(session))
	}
	return nil
}
