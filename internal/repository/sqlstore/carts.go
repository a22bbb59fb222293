package sqlstore

import (
	"context"

	"github.com/01moynul/pharmastore-golang/internal/models"
	"github.com/01moynul/pharmastore-golang/internal/repository"
)

type Carts struct{ base }

var _ repository.Carts = (*Carts)(nil)

func (r *Carts) GetByCustomerAndPharmacy(ctx context.Context, customerID, pharmacyID int64) (*models.Cart, error) {
	var c models.Cart
	err := r.q(ctx).QueryRowContext(ctx, `
		SELECT id, customer_id, pharmacy_id, created_at, updated_at
		FROM carts WHERE customer_id = ? AND pharmacy_id = ?`, customerID, pharmacyID).
		Scan(&c.ID, &c.CustomerID, &c.PharmacyID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return &c, nil
}

func (r *Carts) Create(ctx context.Context, c *models.Cart) error {
	res, err := r.q(ctx).ExecContext(ctx, `
		INSERT INTO carts (customer_id, pharmacy_id, created_at, updated_at)
		VALUES (?, ?, UTC_TIMESTAMP(), UTC_TIMESTAMP())`, c.CustomerID, c.PharmacyID)
	if err != nil {
		return mapErr(err)
	}
	if c.ID, err = res.LastInsertId(); err != nil {
		return err
	}
	return r.q(ctx).QueryRowContext(ctx, "SELECT created_at, updated_at FROM carts WHERE id = ?", c.ID).
		Scan(&c.CreatedAt, &c.UpdatedAt)
}

// Lock takes a row lock on the cart; it only has effect inside WithTransaction.
func (r *Carts) Lock(ctx context.Context, cartID int64) error {
	var id int64
	err := r.q(ctx).QueryRowContext(ctx, "SELECT id FROM carts WHERE id = ? FOR UPDATE", cartID).Scan(&id)
	return mapErr(err)
}

const cartItemQuery = `
	SELECT ci.id, ci.cart_id, ci.product_id, ci.quantity, ci.created_at, ci.updated_at,
		p.id, p.pharmacy_id, p.category_id, p.name, p.slug, p.sku, p.description, p.price, p.discounted_price,
		p.stock_quantity, p.low_stock_threshold, p.is_active, p.is_featured, p.created_at, p.updated_at
	FROM cart_items ci
	JOIN products p ON ci.product_id = p.id`

func scanCartItem(s scanner) (models.CartItem, error) {
	var item models.CartItem
	p := &models.Product{}
	err := s.Scan(&item.ID, &item.CartID, &item.ProductID, &item.Quantity, &item.CreatedAt, &item.UpdatedAt,
		&p.ID, &p.PharmacyID, &p.CategoryID, &p.Name, &p.Slug, &p.SKU, &p.Description, &p.Price, &p.DiscountedPrice,
		&p.StockQuantity, &p.LowStockThreshold, &p.Active, &p.Featured, &p.CreatedAt, &p.UpdatedAt)
	item.Product = p
	return item, err
}

func (r *Carts) ListItems(ctx context.Context, cartID int64) ([]models.CartItem, error) {
	rows, err := r.q(ctx).QueryContext(ctx, cartItemQuery+" WHERE ci.cart_id = ? ORDER BY ci.id", cartID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.CartItem, 0)
	for rows.Next() {
		item, err := scanCartItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func (r *Carts) GetItem(ctx context.Context, cartID, productID int64) (*models.CartItem, error) {
	item, err := scanCartItem(r.q(ctx).QueryRowContext(ctx,
		cartItemQuery+" WHERE ci.cart_id = ? AND ci.product_id = ?", cartID, productID))
	if err != nil {
		return nil, mapErr(err)
	}
	return &item, nil
}

func (r *Carts) SaveItem(ctx context.Context, item *models.CartItem) error {
	_, err := r.q(ctx).ExecContext(ctx, `
		INSERT INTO cart_items (cart_id, product_id, quantity, created_at, updated_at)
		VALUES (?, ?, ?, UTC_TIMESTAMP(), UTC_TIMESTAMP())
		ON DUPLICATE KEY UPDATE quantity = VALUES(quantity), updated_at = UTC_TIMESTAMP()`,
		item.CartID, item.ProductID, item.Quantity)
	if err != nil {
		return mapErr(err)
	}
	if err := r.touch(ctx, item.CartID); err != nil {
		return err
	}
	return r.q(ctx).QueryRowContext(ctx, `
		SELECT id, created_at, updated_at FROM cart_items WHERE cart_id = ? AND product_id = ?`,
		item.CartID, item.ProductID).Scan(&item.ID, &item.CreatedAt, &item.UpdatedAt)
}

func (r *Carts) DeleteItem(ctx context.Context, cartID, productID int64) error {
	res, err := r.q(ctx).ExecContext(ctx, "DELETE FROM cart_items WHERE cart_id = ? AND product_id = ?", cartID, productID)
	if err != nil {
		return err
	}
	if err := expectOne(res); err != nil {
		return err
	}
	return r.touch(ctx, cartID)
}

func (r *Carts) Clear(ctx context.Context, cartID int64) error {
	if _, err := r.q(ctx).ExecContext(ctx, "DELETE FROM cart_items WHERE cart_id = ?", cartID); err != nil {
		return err
	}
	return r.touch(ctx, cartID)
}

func (r *Carts) touch(ctx context.Context, cartID int64) error {
	_, err := r.q(ctx).ExecContext(ctx, "UPDATE carts SET updated_at = UTC_TIMESTAMP() WHERE id = ?", cartID)
	return err
}
