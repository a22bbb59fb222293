// Package sqlstore implements the repository contracts on MySQL.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"

	"github.com/01moynul/pharmastore-golang/internal/repository"
)

// Querier is implemented by both *sql.DB and *sql.Tx, so every repository
// method can run in or out of a transaction.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type txKey struct{}

// base resolves the Querier for a call: the transaction in ctx if any, else the pool.
type base struct {
	db *sql.DB
}

func (b base) q(ctx context.Context) Querier {
	if tx, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return tx
	}
	return b.db
}

// New returns a registry backed by db.
func New(db *sql.DB) *repository.Registry {
	b := base{db: db}
	return &repository.Registry{
		Products:   &Products{b},
		Categories: &Categories{b},
		Pharmacies: &Pharmacies{b},
		Users:      &Users{b},
		Carts:      &Carts{b},
		Orders:     &Orders{b},
		Payments:   &Payments{b},
		Audit:      &AuditLog{b},
		Tx:         &TxManager{db: db},
	}
}

// TxManager opens one *sql.Tx per outermost WithTransaction call.
type TxManager struct {
	db *sql.DB
}

var _ repository.TxManager = (*TxManager)(nil)

func (m *TxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return fn(ctx)
	}

	tx, err := m.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() // Safety net

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

const errDuplicateEntry = 1062

// mapErr turns driver errors into repository sentinels.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return repository.ErrNotFound
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && myErr.Number == errDuplicateEntry {
		return &repository.DuplicateError{Field: duplicateField(myErr.Message)}
	}
	return err
}

// duplicateField extracts the column part of the key name from
// "Duplicate entry 'x' for key 'products.uk_products_slug'".
func duplicateField(msg string) string {
	i := strings.LastIndex(msg, "for key '")
	if i < 0 {
		return "unknown"
	}
	key := strings.TrimSuffix(msg[i+len("for key '"):], "'")
	if dot := strings.LastIndex(key, "."); dot >= 0 {
		key = key[dot+1:]
	}
	// uk_<table>_<field>
	parts := strings.SplitN(key, "_", 3)
	if len(parts) == 3 && parts[0] == "uk" {
		return parts[2]
	}
	return key
}

// expectOne returns ErrNotFound when an UPDATE/DELETE matched no row.
func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}
