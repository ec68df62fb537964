package memory

import (
	"context"
	"fmt"
	"sync"

	domain "github.com/shopflow-io/shopflow/internal/domain/checkout"
)

type CheckoutRepository struct {
	mu       sync.RWMutex
	sessions map[string]*domain.Session
}

func NewCheckoutRepository() *CheckoutRepository {
	return &CheckoutRepository{
		sessions: make(map[string]*domain.Session),
	}
}

func (r *CheckoutRepository) Get(ctx context.Context, id string) (*domain.Session, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	sess, ok := r.sessions[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return sess.Clone(), nil
}

func (r *CheckoutRepository) Save(ctx context.Context, session *domain.Session) error {
	_ = ctx
	if session == nil || session.ID == "" {
		return fmt.Errorf("checkout repository: session id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.sessions[session.ID] = session.Clone()
	return nil
}

func (r *CheckoutRepository) Delete(ctx context.Context, id string) error {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sessions, id)
	return nil
}

// SnapshotStore keeps the last-order snapshot per session for the
// confirmation view.
type SnapshotStore struct {
	mu        sync.RWMutex
	snapshots map[string]*domain.Snapshot
}

func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{
		snapshots: make(map[string]*domain.Snapshot),
	}
}

func (s *SnapshotStore) Put(ctx context.Context, sessionID string, snapshot *domain.Snapshot) error {
	_ = ctx
	if sessionID == "" || snapshot == nil {
		return fmt.Errorf("snapshot store: session id and snapshot are required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshots[sessionID] = snapshot
	return nil
}

func (s *SnapshotStore) Get(ctx context.Context, sessionID string) (*domain.Snapshot, error) {
	_ = ctx

	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, ok := s.snapshots[sessionID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return snap, nil
}
