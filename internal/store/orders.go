package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/erazemk/slascicarna/internal/model"
)

// CreateOrder inserts a new order and returns it with generated fields set.
func CreateOrder(ctx context.Context, db *sql.DB, o *model.Order) (*model.Order, error) {
	urls, err := json.Marshal(o.ImageURLs)
	if err != nil {
		return nil, fmt.Errorf("encoding image urls: %w", err)
	}

	result, err := db.ExecContext(ctx,
		`INSERT INTO orders (user_id, customer_name, customer_email, customer_phone, product_id,
		                     product_name, quantity, flavor, note, image_urls, delivery_at,
		                     status, provisional_price, final_price)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		o.UserID, o.CustomerName, o.CustomerEmail, o.CustomerPhone, o.ProductID,
		o.ProductName, o.Quantity, o.Flavor, o.Note, string(urls), o.DeliveryAt,
		o.Status, o.ProvisionalPrice, o.FinalPrice,
	)
	if err != nil {
		return nil, fmt.Errorf("creating order: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting order id: %w", err)
	}

	return GetOrder(ctx, db, id)
}

// GetOrder returns an order by ID.
func GetOrder(ctx context.Context, db *sql.DB, id int64) (*model.Order, error) {
	row := db.QueryRowContext(ctx,
		`SELECT id, user_id, customer_name, customer_email, customer_phone, product_id,
		        product_name, quantity, flavor, note, image_urls, delivery_at,
		        status, provisional_price, final_price, created_at
		 FROM orders WHERE id = ?`, id,
	)
	o, err := scanOrder(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting order: %w", err)
	}
	return o, nil
}

// ListOrders returns all orders, newest first.
func ListOrders(ctx context.Context, db *sql.DB) ([]model.Order, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, user_id, customer_name, customer_email, customer_phone, product_id,
		        product_name, quantity, flavor, note, image_urls, delivery_at,
		        status, provisional_price, final_price, created_at
		 FROM orders ORDER BY created_at DESC, id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	defer rows.Close()

	return scanOrders(rows)
}

// ListOrdersByEmail returns a customer's orders, newest first.
func ListOrdersByEmail(ctx context.Context, db *sql.DB, email string) ([]model.Order, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, user_id, customer_name, customer_email, customer_phone, product_id,
		        product_name, quantity, flavor, note, image_urls, delivery_at,
		        status, provisional_price, final_price, created_at
		 FROM orders WHERE customer_email = ? ORDER BY created_at DESC, id DESC`, email,
	)
	if err != nil {
		return nil, fmt.Errorf("listing orders by email: %w", err)
	}
	defer rows.Close()

	return scanOrders(rows)
}

// UpdateOrderStatus overwrites an order's status. Transition validation is
// the caller's responsibility; concurrent admin writes are last-write-wins.
func UpdateOrderStatus(ctx context.Context, db *sql.DB, id int64, status string) error {
	result, err := db.ExecContext(ctx,
		`UPDATE orders SET status = ? WHERE id = ?`, status, id,
	)
	if err != nil {
		return fmt.Errorf("updating order status: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// SetOrderPrice sets an order's final price. An order awaiting a quote moves
// to pending; any other status is left untouched.
func SetOrderPrice(ctx context.Context, db *sql.DB, id int64, price float64) error {
	result, err := db.ExecContext(ctx,
		`UPDATE orders
		 SET final_price = ?,
		     status = CASE WHEN status = ? THEN ? ELSE status END
		 WHERE id = ?`,
		price, model.StatusPendingQuote, model.StatusPending, id,
	)
	if err != nil {
		return fmt.Errorf("setting order price: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// CompleteDueOrders marks catalog orders whose delivery time has passed as
// completed. Custom orders are left for the admin to close out manually.
func CompleteDueOrders(ctx context.Context, db *sql.DB, now time.Time) (int64, error) {
	result, err := db.ExecContext(ctx,
		`UPDATE orders SET status = ?
		 WHERE status IN (?, ?) AND product_id IS NOT NULL AND delivery_at < ?`,
		model.StatusCompleted, model.StatusPending, model.StatusConfirmed, now,
	)
	if err != nil {
		return 0, fmt.Errorf("completing due orders: %w", err)
	}
	n, _ := result.RowsAffected()
	return n, nil
}

// rowScanner covers *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*model.Order, error) {
	o := &model.Order{}
	var phone, flavor, note sql.NullString
	var urls string
	if err := row.Scan(&o.ID, &o.UserID, &o.CustomerName, &o.CustomerEmail, &phone, &o.ProductID,
		&o.ProductName, &o.Quantity, &flavor, &note, &urls, &o.DeliveryAt,
		&o.Status, &o.ProvisionalPrice, &o.FinalPrice, &o.CreatedAt); err != nil {
		return nil, err
	}
	o.CustomerPhone = phone.String
	o.Flavor = flavor.String
	o.Note = note.String
	if err := json.Unmarshal([]byte(urls), &o.ImageURLs); err != nil {
		return nil, fmt.Errorf("decoding image urls: %w", err)
	}
	if o.ImageURLs == nil {
		o.ImageURLs = []string{}
	}
	return o, nil
}

func scanOrders(rows *sql.Rows) ([]model.Order, error) {
	var orders []model.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning order: %w", err)
		}
		orders = append(orders, *o)
	}
	return orders, rows.Err()
}
