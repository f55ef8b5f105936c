package session

import "context"

// Store defines the interface for session storage operations. The core
// treats persistence as a pluggable collaborator behind this interface.
type Store interface {
	// Get retrieves a session by user id.
	// Returns nil if the session does not exist (not an error).
	Get(ctx context.Context, userID string) (*Session, error)

	// Put persists the session, stamping UpdatedAt.
	Put(ctx context.Context, sess *Session) error

	// Delete removes a session by user id.
	Delete(ctx context.Context, userID string) error

	// Close releases store resources.
	Close() error
}
