package memory

import (
	"context"
	"fmt"
	"sync"

	domain "github.com/shopflow-io/shopflow/internal/domain/audit"
)

type AuditRepository struct {
	mu      sync.RWMutex
	entries []*domain.Entry
}

func NewAuditRepository() *AuditRepository {
	return &AuditRepository{}
}

func (r *AuditRepository) Append(ctx context.Context, entry *domain.Entry) error {
	_ = ctx
	if entry == nil || entry.ID == "" {
		return fmt.Errorf("audit repository: id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	clone := *entry
	r.entries = append(r.entries, &clone)
	return nil
}

// List returns the newest entries first.
func (r *AuditRepository) List(ctx context.Context, limit int) ([]*domain.Entry, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.Entry, 0, limit)
	for i := len(r.entries) - 1; i >= 0 && len(out) < limit; i-- {
		clone := *r.entries[i]
		out = append(out, &clone)
	}
	return out, nil
}
