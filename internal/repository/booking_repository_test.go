package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/tripio/travel-marketplace/internal/model"
	"github.com/tripio/travel-marketplace/internal/payment"
)

// recordConn is a minimal driver connection standing in for MySQL.
// It records executed statements and plays back canned results so
// the tests can pin down the WHERE guards on status transitions.
type recordConn struct {
	execs        []recordedExec
	rowsAffected int64
	statusRow    []driver.Value
}

type recordedExec struct {
	query string
	args  []driver.Value
}

func (c *recordConn) Prepare(string) (driver.Stmt, error) {
	return nil, errors.New("prepare not supported")
}
func (c *recordConn) Close() error              { return nil }
func (c *recordConn) Begin() (driver.Tx, error) { return nopTx{}, nil }

type nopTx struct{}

func (nopTx) Commit() error   { return nil }
func (nopTx) Rollback() error { return nil }

func (c *recordConn) ExecContext(_ context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	rec := recordedExec{query: query}
	for _, a := range args {
		rec.args = append(rec.args, a.Value)
	}
	c.execs = append(c.execs, rec)
	return driver.RowsAffected(c.rowsAffected), nil
}

func (c *recordConn) QueryContext(context.Context, string, []driver.NamedValue) (driver.Rows, error) {
	rows := &cannedRows{columns: []string{"status"}}
	if c.statusRow != nil {
		rows.rows = [][]driver.Value{c.statusRow}
	}
	return rows, nil
}

type cannedRows struct {
	columns []string
	rows    [][]driver.Value
	pos     int
}

func (r *cannedRows) Columns() []string { return r.columns }
func (r *cannedRows) Close() error      { return nil }
func (r *cannedRows) Next(dest []driver.Value) error {
	if r.pos >= len(r.rows) {
		return io.EOF
	}
	copy(dest, r.rows[r.pos])
	r.pos++
	return nil
}

type recordDriver struct{ conn *recordConn }

func (d recordDriver) Open(string) (driver.Conn, error) { return d.conn, nil }

func (d recordDriver) Connect(context.Context) (driver.Conn, error) { return d.conn, nil }

func (d recordDriver) Driver() driver.Driver { return d }

func newRecordedRepo(conn *recordConn) *BookingRepo {
	return NewBookingRepo(sql.OpenDB(recordDriver{conn: conn}))
}

func TestMarkPaidGuardsOnBookingStatus(t *testing.T) {
	conn := &recordConn{rowsAffected: 1}
	repo := newRecordedRepo(conn)

	if err := repo.MarkPaid(context.Background(), 7, time.Now()); err != nil {
		t.Fatalf("MarkPaid: %v", err)
	}
	if len(conn.execs) != 1 {
		t.Fatalf("executed %d statements, want 1", len(conn.execs))
	}
	q := conn.execs[0].query
	if !strings.Contains(q, "status IN (?,?)") {
		t.Fatalf("update is not status-guarded: %s", q)
	}
	args := conn.execs[0].args
	if len(args) != 5 {
		t.Fatalf("got %d args, want 5", len(args))
	}
	if args[3] != model.BookingStatusPending || args[4] != model.BookingStatusConfirmed {
		t.Fatalf("guard statuses = %v, %v; want pending, confirmed", args[3], args[4])
	}
}

func TestMarkPaidRedeliveredWebhookIsNoOp(t *testing.T) {
	conn := &recordConn{rowsAffected: 0, statusRow: []driver.Value{model.BookingStatusPaid}}
	repo := newRecordedRepo(conn)

	if err := repo.MarkPaid(context.Background(), 7, time.Now()); err != nil {
		t.Fatalf("MarkPaid on already-paid booking: %v", err)
	}
}

func TestMarkPaidDoesNotResurrectCancelledBooking(t *testing.T) {
	conn := &recordConn{rowsAffected: 0, statusRow: []driver.Value{model.BookingStatusCancelled}}
	repo := newRecordedRepo(conn)

	err := repo.MarkPaid(context.Background(), 7, time.Now())
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("got %v, want ErrConflict", err)
	}
}

func TestMarkPaidUnknownBooking(t *testing.T) {
	conn := &recordConn{rowsAffected: 0}
	repo := newRecordedRepo(conn)

	err := repo.MarkPaid(context.Background(), 99, time.Now())
	if !errors.Is(err, payment.ErrBookingNotFound) {
		t.Fatalf("got %v, want ErrBookingNotFound", err)
	}
}

func TestConfirmRequiresPendingStatus(t *testing.T) {
	conn := &recordConn{rowsAffected: 0}
	repo := newRecordedRepo(conn)

	if err := repo.Confirm(context.Background(), 3); !errors.Is(err, ErrConflict) {
		t.Fatalf("got %v, want ErrConflict", err)
	}
	if q := conn.execs[0].query; !strings.Contains(q, "status IN (?)") {
		t.Fatalf("transition is not status-guarded: %s", q)
	}
	if got := conn.execs[0].args[2]; got != model.BookingStatusPending {
		t.Fatalf("guard status = %v, want pending", got)
	}
}

func TestCancelTxGuardsLifecycle(t *testing.T) {
	conn := &recordConn{rowsAffected: 0}
	repo := newRecordedRepo(conn)

	tx, err := repo.DB().Begin()
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	defer tx.Rollback()

	if err := repo.CancelTx(context.Background(), tx, 5, "plans changed"); !errors.Is(err, ErrConflict) {
		t.Fatalf("got %v, want ErrConflict", err)
	}
	if q := conn.execs[0].query; !strings.Contains(q, "status IN (?,?)") {
		t.Fatalf("cancel is not status-guarded: %s", q)
	}
}
