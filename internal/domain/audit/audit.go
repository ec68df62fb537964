package audit

import (
	"context"
	"time"
)

// Entry is one append-only audit record. Entries are written by the audit
// worker off the event bus, never by request handlers directly.
type Entry struct {
	ID        string    `json:"id"`
	Action    string    `json:"action"`
	ActorID   string    `json:"actor_id"`
	OrderID   string    `json:"order_id"`
	Detail    string    `json:"detail"`
	CreatedAt time.Time `json:"created_at"`
}

type Repository interface {
	Append(ctx context.Context, entry *Entry) error
	List(ctx context.Context, limit int) ([]*Entry, error)
}
