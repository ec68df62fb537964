package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	domain "github.com/shopflow-io/shopflow/internal/domain/payment"
)

type PaymentRepository struct {
	pool DBPool
}

func NewPaymentRepository(pool DBPool) *PaymentRepository {
	return &PaymentRepository{pool: pool}
}

func (r *PaymentRepository) Insert(ctx context.Context, rec *domain.Record) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO payments (id, order_id, user_id, amount, currency, status, method, gateway_ref, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, rec.ID, rec.OrderID, rec.UserID, rec.Amount, rec.Currency, rec.Status,
		rec.Method, rec.GatewayRef, rec.CreatedAt, rec.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert payment: %w", err)
	}
	return nil
}

func (r *PaymentRepository) GetByOrderID(ctx context.Context, orderID string) (*domain.Record, error) {
	var rec domain.Record
	err := r.pool.QueryRow(ctx, `
		SELECT id, order_id, user_id, amount, currency, status, method, gateway_ref, created_at, updated_at
		FROM payments WHERE order_id = $1
	`, orderID).Scan(&rec.ID, &rec.OrderID, &rec.UserID, &rec.Amount, &rec.Currency,
		&rec.Status, &rec.Method, &rec.GatewayRef, &rec.CreatedAt, &rec.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query payment: %w", err)
	}
	return &rec, nil
}

func (r *PaymentRepository) UpdateStatusByOrderID(ctx context.Context, orderID string, status domain.Status, gatewayRef string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE payments
		SET status = $2,
		    gateway_ref = CASE WHEN $3 = '' THEN gateway_ref ELSE $3 END,
		    updated_at = $4
		WHERE order_id = $1
	`, orderID, status, gatewayRef, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update payment status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
