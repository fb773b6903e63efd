package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"storefront-be/internal/coupon"
	"storefront-be/internal/pricing"
)

type Repository interface {
	// CreateOrderTx persists the order, its items, the stock decrements
	// and the coupon redemption as a single transaction. Any failure
	// rolls everything back: order creation is all-or-nothing.
	CreateOrderTx(ctx context.Context, o *Order) error

	GetByID(ctx context.Context, orderID int64) (*Order, error)
	List(ctx context.Context, status *Status, limit, offset int32) ([]*Order, error)
	CountCancelledByPhone(ctx context.Context, phone string) (int, error)

	// UpdateStatus is a compare-and-swap: the write lands only if the
	// order is still in `from`. Zero rows means a concurrent writer won.
	UpdateStatus(ctx context.Context, orderID int64, from, to Status) error

	// CancelAndRestock cancels an unshipped order and returns its
	// catalog stock in the same transaction.
	CancelAndRestock(ctx context.Context, orderID int64, from Status) error

	GetByGatewayRef(ctx context.Context, gatewayOrderID string) (*Order, error)
	MarkPaidByGatewayRef(ctx context.Context, gatewayOrderID string) error

	// MarkShipped swaps the pre-shipping status for SHIPPED and writes
	// the tracking fields atomically. The status match plus the
	// tracking_number IS NULL guard make concurrent label requests lose.
	MarkShipped(ctx context.Context, orderID int64, from Status, awb, courier, labelURL string) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

const orderColumns = `
	id, customer_name, email, phone, street, city, state, pincode,
	subtotal_paise, shipping_paise, discount_paise, cod_fee_paise, amount_paise,
	payment_method, status, gateway_order_id, tracking_number, courier_name,
	label_url, coupon_code, created_at, expires_at`

func (r *repository) CreateOrderTx(ctx context.Context, o *Order) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin order tx: %w", err)
	}
	defer tx.Rollback()

	err = tx.QueryRowContext(ctx, `
		INSERT INTO orders (
			customer_name, email, phone, street, city, state, pincode,
			subtotal_paise, shipping_paise, discount_paise, cod_fee_paise, amount_paise,
			payment_method, status, gateway_order_id, coupon_code, created_at, expires_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)
		RETURNING id`,
		o.CustomerName, o.Email, o.Phone,
		o.Address.Street, o.Address.City, o.Address.State, o.Address.Pincode,
		o.SubtotalPaise, o.ShippingPaise, o.DiscountPaise, o.CODFeePaise, o.AmountPaise,
		string(o.PaymentMethod), string(o.Status), o.GatewayOrderID, o.CouponCode,
		o.CreatedAt, o.ExpiresAt,
	).Scan(&o.ID)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}

	for i := range o.Items {
		item := &o.Items[i]
		item.OrderID = o.ID

		err = tx.QueryRowContext(ctx, `
			INSERT INTO order_items (order_id, product_id, title, price_paise, quantity, image_url)
			VALUES ($1,$2,$3,$4,$5,$6)
			RETURNING id`,
			o.ID, item.ProductID, item.Title, item.PricePaise, item.Quantity, item.ImageURL,
		).Scan(&item.ID)
		if err != nil {
			return fmt.Errorf("failed to insert order item: %w", err)
		}

		if item.ProductID == nil {
			continue
		}

		// Conditional decrement: the WHERE clause closes the
		// check-then-act stock race, so concurrent orders on the last
		// unit fail here instead of oversubscribing.
		res, err := tx.ExecContext(ctx, `
			UPDATE products SET stock = stock - $1
			WHERE id = $2 AND stock >= $1`,
			item.Quantity, *item.ProductID,
		)
		if err != nil {
			return fmt.Errorf("failed to decrement stock: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrInsufficientStock
		}
	}

	if o.CouponCode != nil {
		res, err := tx.ExecContext(ctx, `
			UPDATE coupons SET used_count = used_count + 1
			WHERE code = $1
			  AND (usage_limit IS NULL OR used_count < usage_limit)`,
			*o.CouponCode,
		)
		if err != nil {
			return fmt.Errorf("failed to redeem coupon: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return coupon.ErrExhausted
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit order tx: %w", err)
	}
	return nil
}

func (r *repository) GetByID(ctx context.Context, orderID int64) (*Order, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT`+orderColumns+` FROM orders WHERE id = $1`, orderID)

	o, err := scanOrder(row)
	if err != nil {
		return nil, err
	}

	items, err := r.fetchItems(ctx, orderID)
	if err != nil {
		return nil, err
	}
	o.Items = items
	return o, nil
}

func (r *repository) GetByGatewayRef(ctx context.Context, gatewayOrderID string) (*Order, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT`+orderColumns+` FROM orders WHERE gateway_order_id = $1`, gatewayOrderID)
	return scanOrder(row)
}

func (r *repository) List(ctx context.Context, status *Status, limit, offset int32) ([]*Order, error) {
	query := `SELECT` + orderColumns + ` FROM orders`
	args := []interface{}{}
	if status != nil {
		query += ` WHERE status = $1`
		args = append(args, string(*status))
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT %d OFFSET %d`, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	var orders []*Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func (r *repository) CountCancelledByPhone(ctx context.Context, phone string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM orders WHERE phone = $1 AND status = $2`,
		phone, string(StatusCancelled),
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count cancelled orders: %w", err)
	}
	return n, nil
}

func (r *repository) UpdateStatus(ctx context.Context, orderID int64, from, to Status) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE orders SET status = $1 WHERE id = $2 AND status = $3`,
		string(to), orderID, string(from),
	)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return nil
}

func (r *repository) CancelAndRestock(ctx context.Context, orderID int64, from Status) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin cancel tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE orders SET status = $1 WHERE id = $2 AND status = $3`,
		string(StatusCancelled), orderID, string(from),
	)
	if err != nil {
		return fmt.Errorf("failed to cancel order: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, StatusCancelled)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE products p SET stock = p.stock + oi.quantity
		FROM order_items oi
		WHERE oi.order_id = $1 AND oi.product_id = p.id`,
		orderID,
	)
	if err != nil {
		return fmt.Errorf("failed to restore stock: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit cancel tx: %w", err)
	}
	return nil
}

func (r *repository) MarkPaidByGatewayRef(ctx context.Context, gatewayOrderID string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE orders SET status = $1 WHERE gateway_order_id = $2 AND status = $3`,
		string(StatusPaid), gatewayOrderID, string(StatusPending),
	)
	if err != nil {
		return fmt.Errorf("failed to mark order paid: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// Either unknown ref or already past PENDING; caller decides.
		return ErrOrderNotFound
	}
	return nil
}

func (r *repository) MarkShipped(ctx context.Context, orderID int64, from Status, awb, courier, labelURL string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE orders
		SET status = $1, tracking_number = $2, courier_name = $3, label_url = $4
		WHERE id = $5 AND status = $6 AND tracking_number IS NULL`,
		string(StatusShipped), awb, courier, labelURL, orderID, string(from),
	)
	if err != nil {
		return fmt.Errorf("failed to mark order shipped: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrAlreadyShipped
	}
	return nil
}

func (r *repository) fetchItems(ctx context.Context, orderID int64) ([]Item, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, order_id, product_id, title, price_paise, quantity, image_url
		FROM order_items WHERE order_id = $1 ORDER BY id`,
		orderID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch order items: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var it Item
		var productID sql.NullInt64
		if err := rows.Scan(&it.ID, &it.OrderID, &productID, &it.Title,
			&it.PricePaise, &it.Quantity, &it.ImageURL); err != nil {
			return nil, err
		}
		if productID.Valid {
			it.ProductID = &productID.Int64
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanOrder(row rowScanner) (*Order, error) {
	var o Order
	var gatewayRef, tracking, courier, label, couponCode sql.NullString
	var expiresAt sql.NullTime
	var method, status string

	err := row.Scan(
		&o.ID, &o.CustomerName, &o.Email, &o.Phone,
		&o.Address.Street, &o.Address.City, &o.Address.State, &o.Address.Pincode,
		&o.SubtotalPaise, &o.ShippingPaise, &o.DiscountPaise, &o.CODFeePaise, &o.AmountPaise,
		&method, &status, &gatewayRef, &tracking, &courier,
		&label, &couponCode, &o.CreatedAt, &expiresAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan order: %w", err)
	}

	o.PaymentMethod = pricing.PaymentMethod(method)
	o.Status = Status(status)
	if gatewayRef.Valid {
		o.GatewayOrderID = &gatewayRef.String
	}
	if tracking.Valid {
		o.TrackingNumber = &tracking.String
	}
	if courier.Valid {
		o.CourierName = &courier.String
	}
	if label.Valid {
		o.LabelURL = &label.String
	}
	if couponCode.Valid {
		o.CouponCode = &couponCode.String
	}
	if expiresAt.Valid {
		o.ExpiresAt = &expiresAt.Time
	}
	return &o, nil
}
