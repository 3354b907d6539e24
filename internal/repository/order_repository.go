package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/qes00/allahuv3/internal/model"
)

type OrderRepo struct{ DB *sql.DB }

func NewOrderRepo(db *sql.DB) *OrderRepo { return &OrderRepo{DB: db} }

// Create inserts an order and its items in a single transaction and returns
// the order with its generated id. The caller supplies the already computed
// totals so the stored decomposition matches what the buyer saw.
func (r *OrderRepo) Create(ctx context.Context, o model.Order) (model.Order, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return model.Order{}, err
	}
	defer func() { _ = tx.Rollback() }()

	o.ID = uuid.NewString()
	if o.Status == "" {
		o.Status = model.OrderStatusPending
	}
	_, err = tx.ExecContext(ctx,
		"INSERT INTO orders (id, user_id, status, total, base, tax) VALUES (?,?,?,?,?,?)",
		o.ID, o.UserID, o.Status, o.Total, o.Base, o.Tax)
	if err != nil {
		return model.Order{}, err
	}
	for i := range o.Items {
		o.Items[i].OrderID = o.ID
		res, err := tx.ExecContext(ctx,
			"INSERT INTO order_items (order_id, product_id, name, price, quantity) VALUES (?,?,?,?,?)",
			o.ID, o.Items[i].ProductID, o.Items[i].Name, o.Items[i].Price, o.Items[i].Quantity)
		if err != nil {
			return model.Order{}, err
		}
		if id, err := res.LastInsertId(); err == nil {
			o.Items[i].ID = uint64(id)
		}
	}
	if err := tx.Commit(); err != nil {
		return model.Order{}, err
	}
	return o, nil
}

// SetStatus updates the order status column.
func (r *OrderRepo) SetStatus(ctx context.Context, id, status string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE orders SET status=? WHERE id=?", status, id)
	return err
}

// ListByUser returns the caller's orders, newest first, items included.
func (r *OrderRepo) ListByUser(ctx context.Context, userID string) ([]model.Order, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id, user_id, status, total, base, tax, created_at FROM orders WHERE user_id=? ORDER BY created_at DESC",
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := []model.Order{}
	for rows.Next() {
		var o model.Order
		if err := rows.Scan(&o.ID, &o.UserID, &o.Status, &o.Total, &o.Base, &o.Tax, &o.CreatedAt); err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range orders {
		items, err := r.listItems(ctx, orders[i].ID)
		if err != nil {
			return nil, err
		}
		orders[i].Items = items
	}
	return orders, nil
}

func (r *OrderRepo) listItems(ctx context.Context, orderID string) ([]model.OrderItem, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id, order_id, product_id, name, price, quantity FROM order_items WHERE order_id=? ORDER BY id",
		orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []model.OrderItem{}
	for rows.Next() {
		var it model.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Name, &it.Price, &it.Quantity); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}
