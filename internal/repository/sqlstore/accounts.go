package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/01moynul/pharmastore-golang/internal/models"
	"github.com/01moynul/pharmastore-golang/internal/repository"
)

type Pharmacies struct{ base }

var _ repository.Pharmacies = (*Pharmacies)(nil)

func (r *Pharmacies) Create(ctx context.Context, p *models.Pharmacy) error {
	query := `
		INSERT INTO pharmacies (name, slug, email, phone, address, city, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, UTC_TIMESTAMP(), UTC_TIMESTAMP())`
	res, err := r.q(ctx).ExecContext(ctx, query, p.Name, p.Slug, p.Email, p.Phone, p.Address, p.City, p.Active)
	if err != nil {
		return mapErr(err)
	}
	if p.ID, err = res.LastInsertId(); err != nil {
		return err
	}
	return r.q(ctx).QueryRowContext(ctx, "SELECT created_at, updated_at FROM pharmacies WHERE id = ?", p.ID).
		Scan(&p.CreatedAt, &p.UpdatedAt)
}

func (r *Pharmacies) GetByID(ctx context.Context, id int64) (*models.Pharmacy, error) {
	var p models.Pharmacy
	err := r.q(ctx).QueryRowContext(ctx, `
		SELECT id, name, slug, email, phone, address, city, is_active, created_at, updated_at
		FROM pharmacies WHERE id = ?`, id).
		Scan(&p.ID, &p.Name, &p.Slug, &p.Email, &p.Phone, &p.Address, &p.City, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return &p, nil
}

type Users struct{ base }

var _ repository.Users = (*Users)(nil)

const userColumns = `id, role, email, password_hash, full_name, phone_number, is_active, pharmacy_id, created_at, updated_at`

func scanUser(s scanner) (*models.User, error) {
	var u models.User
	var pharmacyID sql.NullInt64
	err := s.Scan(&u.ID, &u.Role, &u.Email, &u.PasswordHash, &u.FullName, &u.PhoneNumber, &u.Active,
		&pharmacyID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	if pharmacyID.Valid {
		u.PharmacyID = &pharmacyID.Int64
	}
	return &u, nil
}

func (r *Users) Create(ctx context.Context, u *models.User) error {
	query := `
		INSERT INTO users (role, email, password_hash, full_name, phone_number, is_active, pharmacy_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, UTC_TIMESTAMP(), UTC_TIMESTAMP())`
	res, err := r.q(ctx).ExecContext(ctx, query, u.Role, u.Email, u.PasswordHash, u.FullName, u.PhoneNumber,
		u.Active, u.PharmacyID)
	if err != nil {
		return mapErr(err)
	}
	if u.ID, err = res.LastInsertId(); err != nil {
		return err
	}
	return r.q(ctx).QueryRowContext(ctx, "SELECT created_at, updated_at FROM users WHERE id = ?", u.ID).
		Scan(&u.CreatedAt, &u.UpdatedAt)
}

func (r *Users) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return scanUser(r.q(ctx).QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE id = ?", id))
}

// GetByEmail relies on the case-insensitive collation of users.email.
func (r *Users) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return scanUser(r.q(ctx).QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE email = ?", email))
}

type Categories struct{ base }

var _ repository.Categories = (*Categories)(nil)

func (r *Categories) Create(ctx context.Context, c *models.Category) error {
	res, err := r.q(ctx).ExecContext(ctx, `
		INSERT INTO categories (pharmacy_id, name, slug, created_at) VALUES (?, ?, ?, UTC_TIMESTAMP())`,
		c.PharmacyID, c.Name, c.Slug)
	if err != nil {
		return mapErr(err)
	}
	if c.ID, err = res.LastInsertId(); err != nil {
		return err
	}
	return r.q(ctx).QueryRowContext(ctx, "SELECT created_at FROM categories WHERE id = ?", c.ID).Scan(&c.CreatedAt)
}

func (r *Categories) GetByID(ctx context.Context, id int64) (*models.Category, error) {
	var c models.Category
	err := r.q(ctx).QueryRowContext(ctx, "SELECT id, pharmacy_id, name, slug, created_at FROM categories WHERE id = ?", id).
		Scan(&c.ID, &c.PharmacyID, &c.Name, &c.Slug, &c.CreatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return &c, nil
}

func (r *Categories) ListByPharmacy(ctx context.Context, pharmacyID int64) ([]models.Category, error) {
	rows, err := r.q(ctx).QueryContext(ctx, `
		SELECT id, pharmacy_id, name, slug, created_at FROM categories WHERE pharmacy_id = ? ORDER BY name`, pharmacyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.Category, 0)
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.PharmacyID, &c.Name, &c.Slug, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

type AuditLog struct{ base }

var _ repository.AuditLog = (*AuditLog)(nil)

func (r *AuditLog) Insert(ctx context.Context, e *models.AuditEntry) error {
	var metadata []byte
	if len(e.Metadata) > 0 {
		var err error
		if metadata, err = json.Marshal(e.Metadata); err != nil {
			return err
		}
	}
	_, err := r.q(ctx).ExecContext(ctx, `
		INSERT INTO audit_logs (id, action, entity_type, entity_id, pharmacy_id, actor_id, from_status, to_status,
			metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Action, e.EntityType, e.EntityID, e.PharmacyID, e.ActorID, e.FromStatus, e.ToStatus, metadata, e.CreatedAt)
	return mapErr(err)
}
