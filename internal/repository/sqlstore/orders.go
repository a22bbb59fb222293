package sqlstore

import (
	"context"
	"strings"

	"github.com/01moynul/pharmastore-golang/internal/models"
	"github.com/01moynul/pharmastore-golang/internal/repository"
)

type Orders struct{ base }

var _ repository.Orders = (*Orders)(nil)

// NextSequence bumps the per-year counter with the LAST_INSERT_ID(expr) idiom, which makes the
// read-back connection local and safe across application instances. It runs as its own
// autocommit statement on the pool, never on the caller's transaction: the year row lock is
// released at once and a rolled-back checkout leaves a gap.
func (r *Orders) NextSequence(ctx context.Context, year int) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO order_sequences (year, next_value) VALUES (?, LAST_INSERT_ID(1))
		ON DUPLICATE KEY UPDATE next_value = LAST_INSERT_ID(next_value + 1)`, year)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

const orderColumns = `id, order_number, pharmacy_id, customer_id, status, delivery_type, subtotal, shipping_cost,
	total_amount, shipping_address, shipping_city, shipping_district, shipping_postal_code, shipping_phone, notes,
	tracking_number, cargo_company, cancellation_reason, cancelled_by, cancelled_at, confirmed_at, preparing_at,
	shipped_at, delivered_at, created_at, updated_at`

func scanOrder(s scanner, o *models.Order) error {
	return s.Scan(&o.ID, &o.OrderNumber, &o.PharmacyID, &o.CustomerID, &o.Status, &o.DeliveryType, &o.Subtotal,
		&o.ShippingCost, &o.TotalAmount, &o.ShippingAddress, &o.ShippingCity, &o.ShippingDistrict,
		&o.ShippingPostalCode, &o.ShippingPhone, &o.Notes, &o.TrackingNumber, &o.CargoCompany,
		&o.CancellationReason, &o.CancelledBy, &o.CancelledAt, &o.ConfirmedAt, &o.PreparingAt, &o.ShippedAt,
		&o.DeliveredAt, &o.CreatedAt, &o.UpdatedAt)
}

func (r *Orders) Create(ctx context.Context, o *models.Order) error {
	query := `
		INSERT INTO orders (order_number, pharmacy_id, customer_id, status, delivery_type, subtotal, shipping_cost,
			total_amount, shipping_address, shipping_city, shipping_district, shipping_postal_code, shipping_phone,
			notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.q(ctx).ExecContext(ctx, query, o.OrderNumber, o.PharmacyID, o.CustomerID, o.Status,
		o.DeliveryType, o.Subtotal, o.ShippingCost, o.TotalAmount, o.ShippingAddress, o.ShippingCity,
		o.ShippingDistrict, o.ShippingPostalCode, o.ShippingPhone, o.Notes, o.CreatedAt, o.CreatedAt)
	if err != nil {
		return mapErr(err)
	}
	o.UpdatedAt = o.CreatedAt
	o.ID, err = res.LastInsertId()
	return err
}

func (r *Orders) AddItem(ctx context.Context, item *models.OrderItem) error {
	res, err := r.q(ctx).ExecContext(ctx, `
		INSERT INTO order_items (order_id, product_id, product_name, product_sku, quantity, unit_price, total_price, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		item.OrderID, item.ProductID, item.ProductName, item.ProductSKU, item.Quantity, item.UnitPrice,
		item.TotalPrice, item.CreatedAt)
	if err != nil {
		return mapErr(err)
	}
	item.ID, err = res.LastInsertId()
	return err
}

func (r *Orders) items(ctx context.Context, orderID int64) ([]models.OrderItem, error) {
	rows, err := r.q(ctx).QueryContext(ctx, `
		SELECT id, order_id, product_id, product_name, product_sku, quantity, unit_price, total_price, created_at
		FROM order_items WHERE order_id = ? ORDER BY id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.OrderItem, 0)
	for rows.Next() {
		var it models.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.ProductName, &it.ProductSKU, &it.Quantity,
			&it.UnitPrice, &it.TotalPrice, &it.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (r *Orders) getWhere(ctx context.Context, cond string, arg any) (*models.Order, error) {
	var o models.Order
	row := r.q(ctx).QueryRowContext(ctx, "SELECT "+orderColumns+" FROM orders WHERE "+cond, arg)
	if err := scanOrder(row, &o); err != nil {
		return nil, mapErr(err)
	}
	items, err := r.items(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	o.Items = items
	return &o, nil
}

func (r *Orders) GetByNumber(ctx context.Context, orderNumber string) (*models.Order, error) {
	return r.getWhere(ctx, "order_number = ?", orderNumber)
}

func (r *Orders) LockByNumber(ctx context.Context, orderNumber string) (*models.Order, error) {
	return r.getWhere(ctx, "order_number = ? FOR UPDATE", orderNumber)
}

func (r *Orders) GetByID(ctx context.Context, id int64) (*models.Order, error) {
	return r.getWhere(ctx, "id = ?", id)
}

func (r *Orders) Update(ctx context.Context, o *models.Order) error {
	res, err := r.q(ctx).ExecContext(ctx, `
		UPDATE orders SET status = ?, tracking_number = ?, cargo_company = ?, cancellation_reason = ?,
			cancelled_by = ?, cancelled_at = ?, confirmed_at = ?, preparing_at = ?, shipped_at = ?, delivered_at = ?,
			updated_at = ?
		WHERE id = ?`,
		o.Status, o.TrackingNumber, o.CargoCompany, o.CancellationReason, o.CancelledBy, o.CancelledAt,
		o.ConfirmedAt, o.PreparingAt, o.ShippedAt, o.DeliveredAt, o.UpdatedAt, o.ID)
	if err != nil {
		return err
	}
	return expectOne(res)
}

func (r *Orders) List(ctx context.Context, f repository.OrderFilter) ([]models.Order, error) {
	where := []string{"1 = 1"}
	var args []any
	if f.CustomerID != nil {
		where = append(where, "customer_id = ?")
		args = append(args, *f.CustomerID)
	}
	if f.PharmacyID != nil {
		where = append(where, "pharmacy_id = ?")
		args = append(args, *f.PharmacyID)
	}
	if f.Status != nil {
		where = append(where, "status = ?")
		args = append(args, *f.Status)
	}
	if f.CreatedBefore != nil {
		where = append(where, "created_at < ?")
		args = append(args, *f.CreatedBefore)
	}

	query := "SELECT " + orderColumns + " FROM orders WHERE " + strings.Join(where, " AND ") +
		" ORDER BY created_at DESC, id DESC"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := r.q(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.Order, 0)
	for rows.Next() {
		var o models.Order
		if err := scanOrder(rows, &o); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

type Payments struct{ base }

var _ repository.Payments = (*Payments)(nil)

const paymentColumns = `id, order_id, status, amount, refunded_amount, conversation_id, transaction_id,
	provider_payment_id, card_last_four, card_brand, error_code, error_message, paid_at, refunded_at,
	created_at, updated_at`

func scanPayment(s scanner) (*models.Payment, error) {
	var p models.Payment
	err := s.Scan(&p.ID, &p.OrderID, &p.Status, &p.Amount, &p.RefundedAmount, &p.ConversationID, &p.TransactionID,
		&p.PaymentID, &p.CardLastFour, &p.CardBrand, &p.ErrorCode, &p.ErrorMessage, &p.PaidAt, &p.RefundedAt,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return &p, nil
}

func (r *Payments) Create(ctx context.Context, p *models.Payment) error {
	res, err := r.q(ctx).ExecContext(ctx, `
		INSERT INTO payments (order_id, status, amount, refunded_amount, conversation_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, UTC_TIMESTAMP(), UTC_TIMESTAMP())`,
		p.OrderID, p.Status, p.Amount, p.RefundedAmount, p.ConversationID)
	if err != nil {
		return mapErr(err)
	}
	if p.ID, err = res.LastInsertId(); err != nil {
		return err
	}
	return r.q(ctx).QueryRowContext(ctx, "SELECT created_at, updated_at FROM payments WHERE id = ?", p.ID).
		Scan(&p.CreatedAt, &p.UpdatedAt)
}

func (r *Payments) GetByOrderID(ctx context.Context, orderID int64) (*models.Payment, error) {
	return scanPayment(r.q(ctx).QueryRowContext(ctx, "SELECT "+paymentColumns+" FROM payments WHERE order_id = ? FOR UPDATE", orderID))
}

func (r *Payments) GetByConversationID(ctx context.Context, conversationID string) (*models.Payment, error) {
	return scanPayment(r.q(ctx).QueryRowContext(ctx,
		"SELECT "+paymentColumns+" FROM payments WHERE conversation_id = ? FOR UPDATE", conversationID))
}

func (r *Payments) Update(ctx context.Context, p *models.Payment) error {
	res, err := r.q(ctx).ExecContext(ctx, `
		UPDATE payments SET status = ?, refunded_amount = ?, transaction_id = ?, provider_payment_id = ?,
			card_last_four = ?, card_brand = ?, error_code = ?, error_message = ?, paid_at = ?, refunded_at = ?,
			updated_at = UTC_TIMESTAMP()
		WHERE id = ?`,
		p.Status, p.RefundedAmount, p.TransactionID, p.PaymentID, p.CardLastFour, p.CardBrand, p.ErrorCode,
		p.ErrorMessage, p.PaidAt, p.RefundedAt, p.ID)
	if err != nil {
		return err
	}
	return expectOne(res)
}
