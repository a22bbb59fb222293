package sqlstore

import (
	"context"
	"database/sql"
	"strings"

	"github.com/01moynul/pharmastore-golang/internal/models"
	"github.com/01moynul/pharmastore-golang/internal/repository"
)

type Products struct{ base }

var _ repository.Products = (*Products)(nil)

const productColumns = `id, pharmacy_id, category_id, name, slug, sku, description, price, discounted_price,
	stock_quantity, low_stock_threshold, is_active, is_featured, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanProduct(s scanner, p *models.Product) error {
	return s.Scan(&p.ID, &p.PharmacyID, &p.CategoryID, &p.Name, &p.Slug, &p.SKU, &p.Description,
		&p.Price, &p.DiscountedPrice, &p.StockQuantity, &p.LowStockThreshold, &p.Active, &p.Featured,
		&p.CreatedAt, &p.UpdatedAt)
}

func (r *Products) Create(ctx context.Context, p *models.Product) error {
	query := `
		INSERT INTO products (pharmacy_id, category_id, name, slug, sku, description, price, discounted_price,
			stock_quantity, low_stock_threshold, is_active, is_featured, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, UTC_TIMESTAMP(), UTC_TIMESTAMP())`
	res, err := r.q(ctx).ExecContext(ctx, query, p.PharmacyID, p.CategoryID, p.Name, p.Slug, p.SKU, p.Description,
		p.Price, p.DiscountedPrice, p.StockQuantity, p.LowStockThreshold, p.Active, p.Featured)
	if err != nil {
		return mapErr(err)
	}
	if p.ID, err = res.LastInsertId(); err != nil {
		return err
	}
	return r.q(ctx).QueryRowContext(ctx, "SELECT created_at, updated_at FROM products WHERE id = ?", p.ID).
		Scan(&p.CreatedAt, &p.UpdatedAt)
}

// Update writes the catalog fields. Stock changes go through the ledger methods, except for
// explicit restocking by staff which sets stock_quantity here.
func (r *Products) Update(ctx context.Context, p *models.Product) error {
	query := `
		UPDATE products SET category_id = ?, name = ?, slug = ?, sku = ?, description = ?, price = ?,
			discounted_price = ?, stock_quantity = ?, low_stock_threshold = ?, is_active = ?, is_featured = ?,
			updated_at = UTC_TIMESTAMP()
		WHERE id = ?`
	res, err := r.q(ctx).ExecContext(ctx, query, p.CategoryID, p.Name, p.Slug, p.SKU, p.Description, p.Price,
		p.DiscountedPrice, p.StockQuantity, p.LowStockThreshold, p.Active, p.Featured, p.ID)
	if err != nil {
		return mapErr(err)
	}
	if err := expectOne(res); err != nil {
		// MySQL reports 0 affected rows for a no-op update; confirm the row exists.
		if _, getErr := r.GetByID(ctx, p.ID); getErr != nil {
			return getErr
		}
	}
	return nil
}

func (r *Products) GetByID(ctx context.Context, id int64) (*models.Product, error) {
	var p models.Product
	row := r.q(ctx).QueryRowContext(ctx, "SELECT "+productColumns+" FROM products WHERE id = ?", id)
	if err := scanProduct(row, &p); err != nil {
		return nil, mapErr(err)
	}
	return &p, nil
}

func (r *Products) List(ctx context.Context, f repository.ProductFilter) ([]models.Product, error) {
	where := []string{"pharmacy_id = ?"}
	args := []any{f.PharmacyID}
	if f.CategoryID != nil {
		where = append(where, "category_id = ?")
		args = append(args, *f.CategoryID)
	}
	if f.ActiveOnly {
		where = append(where, "is_active = TRUE")
	}
	if f.FeaturedOnly {
		where = append(where, "is_featured = TRUE")
	}
	if f.LowStockOnly {
		where = append(where, "stock_quantity <= low_stock_threshold")
	}
	if f.Search != "" {
		where = append(where, "name LIKE ?")
		args = append(args, "%"+f.Search+"%")
	}

	query := "SELECT " + productColumns + " FROM products WHERE " + strings.Join(where, " AND ") + " ORDER BY id"
	rows, err := r.q(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.Product, 0)
	for rows.Next() {
		var p models.Product
		if err := scanProduct(rows, &p); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// DecrementStock is a single conditional UPDATE; the WHERE clause is the stock check.
func (r *Products) DecrementStock(ctx context.Context, id int64, qty int) error {
	res, err := r.q(ctx).ExecContext(ctx, `
		UPDATE products SET stock_quantity = stock_quantity - ?, updated_at = UTC_TIMESTAMP()
		WHERE id = ? AND stock_quantity >= ?`, qty, id, qty)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 1 {
		return nil
	}

	var exists int
	err = r.q(ctx).QueryRowContext(ctx, "SELECT 1 FROM products WHERE id = ?", id).Scan(&exists)
	if err == sql.ErrNoRows {
		return repository.ErrNotFound
	}
	if err != nil {
		return err
	}
	return repository.ErrInsufficientStock
}

func (r *Products) IncrementStock(ctx context.Context, id int64, qty int) error {
	res, err := r.q(ctx).ExecContext(ctx, `
		UPDATE products SET stock_quantity = stock_quantity + ?, updated_at = UTC_TIMESTAMP()
		WHERE id = ?`, qty, id)
	if err != nil {
		return err
	}
	return expectOne(res)
}
