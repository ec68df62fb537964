package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	domain "github.com/shopflow-io/shopflow/internal/domain/payment"
)

type PaymentRepository struct {
	mu      sync.RWMutex
	records map[string]*domain.Record
	byOrder map[string]string
}

func NewPaymentRepository() *PaymentRepository {
	return &PaymentRepository{
		records: make(map[string]*domain.Record),
		byOrder: make(map[string]string),
	}
}

func (r *PaymentRepository) Insert(ctx context.Context, record *domain.Record) error {
	_ = ctx
	if record == nil || record.ID == "" {
		return fmt.Errorf("payment repository: id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.records[record.ID] = record.Clone()
	r.byOrder[record.OrderID] = record.ID
	return nil
}

func (r *PaymentRepository) GetByOrderID(ctx context.Context, orderID string) (*domain.Record, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byOrder[orderID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	record, ok := r.records[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return record.Clone(), nil
}

func (r *PaymentRepository) UpdateStatusByOrderID(ctx context.Context, orderID string, status domain.Status, gatewayRef string) error {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.byOrder[orderID]
	if !ok {
		return domain.ErrNotFound
	}
	record := r.records[id]
	if record.Status == status && (gatewayRef == "" || record.GatewayRef == gatewayRef) {
		return nil
	}

	record.Status = status
	if gatewayRef != "" {
		record.GatewayRef = gatewayRef
	}
	record.UpdatedAt = time.Now().UTC()
	return nil
}
