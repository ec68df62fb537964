package checkout

import "context"

// Repository keeps in-flight checkout sessions keyed by session id.
// Abandoning a session before submission has no persisted side effect
// beyond deleting it.
type Repository interface {
	Get(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, session *Session) error
	Delete(ctx context.Context, id string) error
}

// SnapshotStore keeps the short-lived "last order" record that backs the
// confirmation view after the checkout state is discarded.
type SnapshotStore interface {
	Put(ctx context.Context, sessionID string, snapshot *Snapshot) error
	Get(ctx context.Context, sessionID string) (*Snapshot, error)
}
