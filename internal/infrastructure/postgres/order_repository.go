package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	domain "github.com/shopflow-io/shopflow/internal/domain/order"
)

const orderColumns = `id, user_id, status, items, shipping, payment_method, subtotal, shipping_fee, tax, total, created_at, updated_at`

type OrderRepository struct {
	pool DBPool
}

func NewOrderRepository(pool DBPool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

func (r *OrderRepository) Insert(ctx context.Context, o *domain.Order) error {
	items, shipping, err := marshalOrderBlobs(o)
	if err != nil {
		return err
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO orders (`+orderColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, o.ID, o.UserID, o.Status, items, shipping, o.Method,
		o.Totals.Subtotal, o.Totals.Shipping, o.Totals.Tax, o.Totals.Total,
		o.CreatedAt, o.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.ErrConflict
		}
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

func (r *OrderRepository) Get(ctx context.Context, id string) (*domain.Order, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	o, err := scanOrder(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query order: %w", err)
	}
	return o, nil
}

func (r *OrderRepository) Update(ctx context.Context, o *domain.Order) error {
	items, shipping, err := marshalOrderBlobs(o)
	if err != nil {
		return err
	}

	tag, err := r.pool.Exec(ctx, `
		UPDATE orders
		SET status = $2, items = $3, shipping = $4, payment_method = $5,
		    subtotal = $6, shipping_fee = $7, tax = $8, total = $9, updated_at = $10
		WHERE id = $1
	`, o.ID, o.Status, items, shipping, o.Method,
		o.Totals.Subtotal, o.Totals.Shipping, o.Totals.Tax, o.Totals.Total,
		o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *OrderRepository) List(ctx context.Context, filter domain.ListFilter) ([]*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders`
	var (
		clauses []string
		args    []any
	)
	if filter.UserID != "" {
		args = append(args, filter.UserID)
		clauses = append(clauses, fmt.Sprintf("user_id = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		clauses = append(clauses, fmt.Sprintf("status = $%d", len(args)))
	}
	for i, clause := range clauses {
		if i == 0 {
			query += " WHERE " + clause
		} else {
			query += " AND " + clause
		}
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	var orders []*domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate orders: %w", err)
	}
	return orders, nil
}

func marshalOrderBlobs(o *domain.Order) (items, shipping []byte, err error) {
	items, err = json.Marshal(o.Items)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal order items: %w", err)
	}
	shipping, err = json.Marshal(o.Shipping)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal shipping address: %w", err)
	}
	return items, shipping, nil
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var (
		o        domain.Order
		items    []byte
		shipping []byte
	)
	err := row.Scan(&o.ID, &o.UserID, &o.Status, &items, &shipping, &o.Method,
		&o.Totals.Subtotal, &o.Totals.Shipping, &o.Totals.Tax, &o.Totals.Total,
		&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(items, &o.Items); err != nil {
		return nil, fmt.Errorf("unmarshal order items: %w", err)
	}
	if err := json.Unmarshal(shipping, &o.Shipping); err != nil {
		return nil, fmt.Errorf("unmarshal shipping address: %w", err)
	}
	return &o, nil
}
