package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/maplecart/apiserver/types"
)

// OrderRepository handles persistence for orders and their items.
type OrderRepository struct {
	db *sql.DB
}

func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// Create inserts the order row and its item rows as one transaction, so an
// order with zero or partial items is never observable.
func (r *OrderRepository) Create(ctx context.Context, order types.Order, items []types.OrderItem) (types.Order, error) {
	now := time.Now()
	order.CreatedAt = now
	order.UpdatedAt = now

	addressJSON, err := json.Marshal(order.ShippingAddress)
	if err != nil {
		return types.Order{}, err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return types.Order{}, err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	const orderQuery = `
		INSERT INTO orders (
			order_number, user_id, total_amount, status, payment_status,
			customer_name, customer_email, customer_phone, shipping_address,
			created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id`
	if err := tx.QueryRowContext(
		ctx,
		orderQuery,
		order.OrderNumber,
		nullableUserID(order.UserID),
		order.TotalAmount,
		order.Status,
		order.PaymentStatus,
		order.CustomerName,
		order.CustomerEmail,
		order.CustomerPhone,
		addressJSON,
		order.CreatedAt,
		order.UpdatedAt,
	).Scan(&order.ID); err != nil {
		return types.Order{}, err
	}

	const itemQuery = `
		INSERT INTO order_items (order_id, product_id, name, image, price, quantity, subtotal)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`
	for i := range items {
		items[i].OrderID = order.ID
		if err := tx.QueryRowContext(
			ctx,
			itemQuery,
			items[i].OrderID,
			items[i].ProductID,
			items[i].Name,
			items[i].Image,
			items[i].Price,
			items[i].Quantity,
			items[i].Subtotal,
		).Scan(&items[i].ID); err != nil {
			return types.Order{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return types.Order{}, err
	}

	order.Items = items
	return order, nil
}

// ListByUser returns the user's orders with item counts, newest first.
func (r *OrderRepository) ListByUser(ctx context.Context, userID, offset, limit int) ([]types.Order, int, error) {
	if offset < 0 {
		offset = 0
	}
	if limit < 1 {
		limit = 20
	}

	const countQuery = `SELECT COUNT(1) FROM orders WHERE user_id = $1`
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, userID).Scan(&total); err != nil {
		return nil, 0, err
	}

	const listQuery = `
		SELECT o.id, o.order_number, o.user_id, o.total_amount, o.status, o.payment_status,
		       o.customer_name, o.customer_email, o.customer_phone, o.shipping_address,
		       o.created_at, o.updated_at,
		       (SELECT COUNT(1) FROM order_items oi WHERE oi.order_id = o.id) AS item_count
		FROM orders o
		WHERE o.user_id = $1
		ORDER BY o.created_at DESC, o.id DESC
		OFFSET $2 LIMIT $3`
	rows, err := r.db.QueryContext(ctx, listQuery, userID, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	orders, err := scanOrderList(rows, false)
	if err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// List returns all orders with item counts and the owning user's email,
// newest first. Admin views only.
func (r *OrderRepository) List(ctx context.Context, offset, limit int) ([]types.Order, int, error) {
	if offset < 0 {
		offset = 0
	}
	if limit < 1 {
		limit = 20
	}

	const countQuery = `SELECT COUNT(1) FROM orders`
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery).Scan(&total); err != nil {
		return nil, 0, err
	}

	const listQuery = `
		SELECT o.id, o.order_number, o.user_id, o.total_amount, o.status, o.payment_status,
		       o.customer_name, o.customer_email, o.customer_phone, o.shipping_address,
		       o.created_at, o.updated_at,
		       (SELECT COUNT(1) FROM order_items oi WHERE oi.order_id = o.id) AS item_count,
		       COALESCE(u.email, '') AS user_email
		FROM orders o
		LEFT JOIN users u ON u.id = o.user_id
		ORDER BY o.created_at DESC, o.id DESC
		OFFSET $1 LIMIT $2`
	rows, err := r.db.QueryContext(ctx, listQuery, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	orders, err := scanOrderList(rows, true)
	if err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// GetForUser fetches an order with its items only if it is owned by
// userID. A row owned by someone else is reported as ErrNotFound.
func (r *OrderRepository) GetForUser(ctx context.Context, id int64, userID int) (types.Order, error) {
	const query = `
		SELECT id, order_number, user_id, total_amount, status, payment_status,
		       customer_name, customer_email, customer_phone, shipping_address,
		       created_at, updated_at
		FROM orders
		WHERE id = $1 AND user_id = $2`
	order, err := r.scanOrderRow(r.db.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		return types.Order{}, err
	}

	items, err := r.listItems(ctx, order.ID)
	if err != nil {
		return types.Order{}, err
	}
	order.Items = items
	return order, nil
}

// Get fetches any order with its items and the owning user's email.
// Admin views only.
func (r *OrderRepository) Get(ctx context.Context, id int64) (types.Order, error) {
	const query = `
		SELECT o.id, o.order_number, o.user_id, o.total_amount, o.status, o.payment_status,
		       o.customer_name, o.customer_email, o.customer_phone, o.shipping_address,
		       o.created_at, o.updated_at
		FROM orders o
		WHERE o.id = $1`
	order, err := r.scanOrderRow(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return types.Order{}, err
	}

	if order.UserID != nil {
		const emailQuery = `SELECT email FROM users WHERE id = $1`
		if err := r.db.QueryRowContext(ctx, emailQuery, *order.UserID).Scan(&order.UserEmail); err != nil && !errors.Is(err, sql.ErrNoRows) {
			return types.Order{}, err
		}
	}

	items, err := r.listItems(ctx, order.ID)
	if err != nil {
		return types.Order{}, err
	}
	order.Items = items
	return order, nil
}

// MarkPaid sets payment_status to paid for an order owned by userID.
// The write is unconditional on the prior value, so repeating it is a
// no-op success.
func (r *OrderRepository) MarkPaid(ctx context.Context, id int64, userID int) error {
	const query = `
		UPDATE orders
		SET payment_status = $1, updated_at = $2
		WHERE id = $3 AND user_id = $4`
	result, err := r.db.ExecContext(ctx, query, types.PaymentStatusPaid, time.Now(), id, userID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateStatus sets status and/or payment_status on any order. At least
// one field must be non-nil. No cross-axis constraint is enforced so an
// admin can correct physically inconsistent states.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id int64, status, paymentStatus *string) error {
	sets := make([]string, 0, 3)
	args := make([]any, 0, 4)

	if status != nil {
		args = append(args, *status)
		sets = append(sets, fmt.Sprintf("status = $%d", len(args)))
	}
	if paymentStatus != nil {
		args = append(args, *paymentStatus)
		sets = append(sets, fmt.Sprintf("payment_status = $%d", len(args)))
	}
	if len(sets) == 0 {
		return errors.New("no fields to update")
	}

	args = append(args, time.Now())
	sets = append(sets, fmt.Sprintf("updated_at = $%d", len(args)))

	args = append(args, id)
	query := fmt.Sprintf("UPDATE orders SET %s WHERE id = $%d", strings.Join(sets, ", "), len(args))

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes any order and its items as one transaction, items first.
func (r *OrderRepository) Delete(ctx context.Context, id int64) error {
	return r.deleteWhere(ctx, "id = $1", id)
}

// DeleteForUser removes an order and its items only if owned by userID.
func (r *OrderRepository) DeleteForUser(ctx context.Context, id int64, userID int) error {
	return r.deleteWhere(ctx, "id = $1 AND user_id = $2", id, userID)
}

func (r *OrderRepository) deleteWhere(ctx context.Context, cond string, args ...any) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	deleteItems := fmt.Sprintf("DELETE FROM order_items WHERE order_id IN (SELECT id FROM orders WHERE %s)", cond)
	if _, err := tx.ExecContext(ctx, deleteItems, args...); err != nil {
		return err
	}

	deleteOrder := fmt.Sprintf("DELETE FROM orders WHERE %s", cond)
	result, err := tx.ExecContext(ctx, deleteOrder, args...)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}

	return tx.Commit()
}

func (r *OrderRepository) listItems(ctx context.Context, orderID int64) ([]types.OrderItem, error) {
	const query = `
		SELECT id, order_id, product_id, name, image, price, quantity, subtotal
		FROM order_items
		WHERE order_id = $1
		ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]types.OrderItem, 0, 4)
	for rows.Next() {
		var item types.OrderItem
		if err := rows.Scan(
			&item.ID,
			&item.OrderID,
			&item.ProductID,
			&item.Name,
			&item.Image,
			&item.Price,
			&item.Quantity,
			&item.Subtotal,
		); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *OrderRepository) scanOrderRow(row *sql.Row) (types.Order, error) {
	var order types.Order
	var userID sql.NullInt64
	var addressJSON []byte
	err := row.Scan(
		&order.ID,
		&order.OrderNumber,
		&userID,
		&order.TotalAmount,
		&order.Status,
		&order.PaymentStatus,
		&order.CustomerName,
		&order.CustomerEmail,
		&order.CustomerPhone,
		&addressJSON,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Order{}, ErrNotFound
		}
		return types.Order{}, err
	}

	order.UserID = userIDFromNull(userID)
	if err := json.Unmarshal(addressJSON, &order.ShippingAddress); err != nil {
		return types.Order{}, fmt.Errorf("decode shipping address for order %d: %w", order.ID, err)
	}
	return order, nil
}

func scanOrderList(rows *sql.Rows, withUserEmail bool) ([]types.Order, error) {
	orders := make([]types.Order, 0, 20)
	for rows.Next() {
		var order types.Order
		var userID sql.NullInt64
		var addressJSON []byte

		dest := []any{
			&order.ID,
			&order.OrderNumber,
			&userID,
			&order.TotalAmount,
			&order.Status,
			&order.PaymentStatus,
			&order.CustomerName,
			&order.CustomerEmail,
			&order.CustomerPhone,
			&addressJSON,
			&order.CreatedAt,
			&order.UpdatedAt,
			&order.ItemCount,
		}
		if withUserEmail {
			dest = append(dest, &order.UserEmail)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}

		order.UserID = userIDFromNull(userID)
		if err := json.Unmarshal(addressJSON, &order.ShippingAddress); err != nil {
			return nil, fmt.Errorf("decode shipping address for order %d: %w", order.ID, err)
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return orders, nil
}

func nullableUserID(id *int) sql.NullInt64 {
	if id == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*id), Valid: true}
}

func userIDFromNull(id sql.NullInt64) *int {
	if !id.Valid {
		return nil
	}
	value := int(id.Int64)
	return &value
}
