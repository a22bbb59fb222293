package sqlstore

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"strings"
	"sync"
	"testing"
)

// recorder is a database/sql driver that only remembers which statements ran inside a transaction.
type recorder struct {
	mu    sync.Mutex
	execs []recordedExec
}

type recordedExec struct {
	query string
	inTx  bool
}

func (r *recorder) Connect(context.Context) (driver.Conn, error) { return &recorderConn{r: r}, nil }
func (r *recorder) Open(string) (driver.Conn, error)             { return &recorderConn{r: r}, nil }
func (r *recorder) Driver() driver.Driver                        { return r }

func (r *recorder) find(substr string) (recordedExec, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.execs {
		if strings.Contains(e.query, substr) {
			return e, true
		}
	}
	return recordedExec{}, false
}

type recorderConn struct {
	r    *recorder
	inTx bool
}

func (c *recorderConn) Prepare(string) (driver.Stmt, error) {
	return nil, errors.New("prepare not supported")
}

func (c *recorderConn) Close() error { return nil }

func (c *recorderConn) Begin() (driver.Tx, error) {
	return c.BeginTx(context.Background(), driver.TxOptions{})
}

func (c *recorderConn) BeginTx(context.Context, driver.TxOptions) (driver.Tx, error) {
	c.inTx = true
	return recorderTx{c}, nil
}

func (c *recorderConn) ExecContext(_ context.Context, query string, _ []driver.NamedValue) (driver.Result, error) {
	c.r.mu.Lock()
	c.r.execs = append(c.r.execs, recordedExec{query: query, inTx: c.inTx})
	c.r.mu.Unlock()
	return recorderResult(7), nil
}

type recorderTx struct{ c *recorderConn }

func (t recorderTx) Commit() error   { t.c.inTx = false; return nil }
func (t recorderTx) Rollback() error { t.c.inTx = false; return nil }

type recorderResult int64

func (r recorderResult) LastInsertId() (int64, error) { return int64(r), nil }
func (r recorderResult) RowsAffected() (int64, error) { return 1, nil }

func TestNextSequence_RunsOutsideCheckoutTransaction(t *testing.T) {
	rec := &recorder{}
	db := sql.OpenDB(rec)
	defer db.Close()
	reg := New(db)

	var seq int64
	errAbort := errors.New("checkout failed")
	err := reg.Tx.WithTransaction(context.Background(), func(ctx context.Context) error {
		var err error
		if seq, err = reg.Orders.NextSequence(ctx, 2026); err != nil {
			return err
		}
		return errAbort
	})
	if !errors.Is(err, errAbort) {
		t.Fatalf("expected the checkout error, got %v", err)
	}
	if seq != 7 {
		t.Fatalf("sequence: %d", seq)
	}

	e, ok := rec.find("order_sequences")
	if !ok {
		t.Fatalf("sequence statement never ran")
	}
	if e.inTx {
		t.Fatalf("sequence bump ran on the checkout transaction")
	}
}
