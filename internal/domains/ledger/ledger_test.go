package ledger_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"library-backend/internal/domains/ledger"
)

type fakeRow struct {
	vals []any
	err  error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	for i, d := range dest {
		if i >= len(r.vals) {
			break
		}
		switch v := d.(type) {
		case *int:
			*v = r.vals[i].(int)
		default:
			return errors.New("unsupported scan dest in test")
		}
	}
	return nil
}

// fakeQuerier routes queries by SQL fragment, standing in for a pgx tx.
type fakeQuerier struct {
	stock       int
	borrowed    int
	bookMissing bool
}

func (q *fakeQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	switch {
	case strings.Contains(sql, "FOR UPDATE"):
		if q.bookMissing {
			return fakeRow{err: pgx.ErrNoRows}
		}
		return fakeRow{vals: []any{q.stock}}
	case strings.Contains(sql, "SUM(quantity)"):
		return fakeRow{vals: []any{q.borrowed}}
	case strings.Contains(sql, "b.stock - COALESCE"):
		if q.bookMissing {
			return fakeRow{err: pgx.ErrNoRows}
		}
		return fakeRow{vals: []any{q.stock - q.borrowed}}
	}
	return fakeRow{err: errors.New("unexpected query: " + sql)}
}

func newLedger() *ledger.Ledger {
	return ledger.NewLedger()
}

func TestAvailableStock(t *testing.T) {
	q := &fakeQuerier{stock: 5, borrowed: 3}

	available, err := newLedger().AvailableStock(context.Background(), q, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, 2, available)
}

func TestAvailableStock_BookNotFound(t *testing.T) {
	q := &fakeQuerier{bookMissing: true}

	_, err := newLedger().AvailableStock(context.Background(), q, uuid.New())
	assert.ErrorIs(t, err, ledger.ErrBookNotFound)
}

func TestReserve_Succeeds(t *testing.T) {
	q := &fakeQuerier{stock: 5, borrowed: 3}

	err := newLedger().Reserve(context.Background(), q, uuid.New(), 2)
	assert.NoError(t, err)
}

func TestReserve_InsufficientStock(t *testing.T) {
	q := &fakeQuerier{stock: 5, borrowed: 3}

	err := newLedger().Reserve(context.Background(), q, uuid.New(), 3)
	require.Error(t, err)
	assert.ErrorIs(t, err, ledger.ErrInsufficientStock)

	var insufficientErr *ledger.InsufficientStockError
	require.ErrorAs(t, err, &insufficientErr)
	assert.Equal(t, 3, insufficientErr.Requested)
	assert.Equal(t, 2, insufficientErr.Available)
}

func TestReserve_ExactFit(t *testing.T) {
	q := &fakeQuerier{stock: 5, borrowed: 3}

	err := newLedger().Reserve(context.Background(), q, uuid.New(), 2)
	assert.NoError(t, err, "reserving exactly the remaining stock must succeed")
}

func TestReserve_BookNotFound(t *testing.T) {
	q := &fakeQuerier{bookMissing: true}

	err := newLedger().Reserve(context.Background(), q, uuid.New(), 1)
	assert.ErrorIs(t, err, ledger.ErrBookNotFound)
}

func TestReserve_InvalidQuantity(t *testing.T) {
	q := &fakeQuerier{stock: 5}

	assert.Error(t, newLedger().Reserve(context.Background(), q, uuid.New(), 0))
	assert.Error(t, newLedger().Reserve(context.Background(), q, uuid.New(), -1))
}

func TestBorrowedUnderLock(t *testing.T) {
	q := &fakeQuerier{stock: 5, borrowed: 3}

	borrowed, err := newLedger().BorrowedUnderLock(context.Background(), q, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, 3, borrowed)
}

func TestBorrowedUnderLock_BookNotFound(t *testing.T) {
	q := &fakeQuerier{bookMissing: true}

	_, err := newLedger().BorrowedUnderLock(context.Background(), q, uuid.New())
	assert.ErrorIs(t, err, ledger.ErrBookNotFound)
}

// lockingBookStore emulates the book row lock and loan table shared
// by concurrent transactions: the row lock query blocks on the mutex,
// and the lock is held until the transaction ends.
type lockingBookStore struct {
	mu       sync.Mutex
	stock    int
	borrowed int
}

func (s *lockingBookStore) begin() *lockingTx {
	return &lockingTx{store: s}
}

type lockingTx struct {
	store  *lockingBookStore
	locked bool
}

func (t *lockingTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	switch {
	case strings.Contains(sql, "FOR UPDATE"):
		t.store.mu.Lock()
		t.locked = true
		return fakeRow{vals: []any{t.store.stock}}
	case strings.Contains(sql, "SUM(quantity)"):
		return fakeRow{vals: []any{t.store.borrowed}}
	}
	return fakeRow{err: errors.New("unexpected query: " + sql)}
}

// end commits the transaction: a granted reservation becomes loan
// quantity, then the row lock is released.
func (t *lockingTx) end(reserved int) {
	if t.locked {
		t.store.borrowed += reserved
		t.store.mu.Unlock()
	}
}

func TestReserve_ConcurrentRequestsSerialize(t *testing.T) {
	store := &lockingBookStore{stock: 1}
	bookID := uuid.New()
	led := newLedger()

	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tx := store.begin()
			errs[i] = led.Reserve(context.Background(), tx, bookID, 1)
			if errs[i] == nil {
				tx.end(1)
			} else {
				tx.end(0)
			}
		}(i)
	}
	wg.Wait()

	var granted int
	for _, err := range errs {
		if err == nil {
			granted++
		} else {
			assert.ErrorIs(t, err, ledger.ErrInsufficientStock)
		}
	}
	assert.Equal(t, 1, granted, "two requests for the last copy may grant only one")
	assert.Equal(t, 1, store.borrowed)
}

func TestReserve_NoOvercommitUnderContention(t *testing.T) {
	store := &lockingBookStore{stock: 4}
	bookID := uuid.New()
	led := newLedger()

	const contenders = 10
	results := make([]error, contenders)
	var wg sync.WaitGroup
	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tx := store.begin()
			results[i] = led.Reserve(context.Background(), tx, bookID, 1)
			if results[i] == nil {
				tx.end(1)
			} else {
				tx.end(0)
			}
		}(i)
	}
	wg.Wait()

	var granted int
	for _, err := range results {
		if err == nil {
			granted++
		}
	}
	assert.Equal(t, store.stock, granted, "grants must stop exactly at stock")
	assert.Equal(t, store.stock, store.borrowed)
}
