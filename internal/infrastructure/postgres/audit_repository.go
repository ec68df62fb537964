package postgres

import (
	"context"
	"fmt"

	domain "github.com/shopflow-io/shopflow/internal/domain/audit"
)

type AuditRepository struct {
	pool DBPool
}

func NewAuditRepository(pool DBPool) *AuditRepository {
	return &AuditRepository{pool: pool}
}

func (r *AuditRepository) Append(ctx context.Context, entry *domain.Entry) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO audit_log (id, action, actor_id, order_id, detail, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, entry.ID, entry.Action, entry.ActorID, entry.OrderID, entry.Detail, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

func (r *AuditRepository) List(ctx context.Context, limit int) ([]*domain.Entry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, action, actor_id, order_id, detail, created_at
		FROM audit_log ORDER BY created_at DESC LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit log: %w", err)
	}
	defer rows.Close()

	var entries []*domain.Entry
	for rows.Next() {
		var e domain.Entry
		if err := rows.Scan(&e.ID, &e.Action, &e.ActorID, &e.OrderID, &e.Detail, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit log: %w", err)
	}
	return entries, nil
}
