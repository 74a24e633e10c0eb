// Package ledger owns the stock/availability invariant:
//
//	available(book) = stock - sum(quantity of active loans on the book)
//
// Availability is never stored. It is derived from loan rows at read
// time, so releasing stock on return or deletion needs no bookkeeping
// here, and a crash can never leave a counter out of sync with the
// loan table. Active means status 'borrowed' or 'late': an overdue
// loan still has the copies out, so it keeps its reservation until
// the loan is actually returned.
package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Querier is the subset of pgx needed by the ledger. It is satisfied
// by *pgxpool.Pool and pgx.Tx, so availability can be computed inside
// whatever transaction the caller is running.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// ActiveStatusesSQL is the predicate shared by every availability
// derivation in the system. Query paths that decorate books must use
// the same predicate so there is exactly one definition of "active".
const ActiveStatusesSQL = `status IN ('borrowed', 'late')`

const availableStockQuery = `
	SELECT b.stock - COALESCE((
		SELECT SUM(l.quantity)::int
		FROM loans l
		WHERE l.book_id = b.id AND l.` + ActiveStatusesSQL + `
	), 0)
	FROM books b
	WHERE b.id = $1
`

// Ledger computes and guards book availability.
type Ledger struct{}

func NewLedger() *Ledger {
	return &Ledger{}
}

// AvailableStock returns how many copies of a book are free to borrow
// right now, derived from current loan rows. Run it on the same tx as
// any mutation that depends on the answer.
func (Ledger) AvailableStock(ctx context.Context, q Querier, bookID uuid.UUID) (int, error) {
	var available int
	err := q.QueryRow(ctx, availableStockQuery, bookID).Scan(&available)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrBookNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to compute available stock: %w", err)
	}
	return available, nil
}

// lockBookRow takes the book's row lock and returns its stored stock.
// Every mutation that depends on availability queues here.
func lockBookRow(ctx context.Context, tx Querier, bookID uuid.UUID) (int, error) {
	var stock int
	err := tx.QueryRow(ctx, `SELECT stock FROM books WHERE id = $1 FOR UPDATE`, bookID).Scan(&stock)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrBookNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to lock book row: %w", err)
	}
	return stock, nil
}

// activeBorrowed sums the quantity currently out on active loans.
// Call it only after lockBookRow on the same transaction, so committed
// concurrent loans are visible.
func activeBorrowed(ctx context.Context, tx Querier, bookID uuid.UUID) (int, error) {
	var borrowed int
	err := tx.QueryRow(ctx,
		`SELECT COALESCE(SUM(quantity)::int, 0) FROM loans WHERE book_id = $1 AND `+ActiveStatusesSQL,
		bookID,
	).Scan(&borrowed)
	if err != nil {
		return 0, fmt.Errorf("failed to sum active loans: %w", err)
	}
	return borrowed, nil
}

// Reserve validates that quantity copies of the book can be borrowed,
// locking the book row first so concurrent reservations serialize.
// It must be called inside the transaction that inserts the loan row;
// the insert is what realizes the reservation. On success the row lock
// is held until the caller commits, which closes the read-then-write
// race between the availability check and the insert.
func (Ledger) Reserve(ctx context.Context, tx Querier, bookID uuid.UUID, quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("reserve quantity must be positive, got %d", quantity)
	}

	stock, err := lockBookRow(ctx, tx, bookID)
	if err != nil {
		return err
	}

	borrowed, err := activeBorrowed(ctx, tx, bookID)
	if err != nil {
		return err
	}

	available := stock - borrowed
	if quantity > available {
		return NewInsufficientStockError(quantity, available)
	}

	return nil
}

// BorrowedUnderLock locks the book row and returns the total quantity
// out on active loans. Mutations that shrink stock call it inside
// their transaction to reject writes that would take availability
// negative; the lock is held until the transaction ends.
func (Ledger) BorrowedUnderLock(ctx context.Context, tx Querier, bookID uuid.UUID) (int, error) {
	if _, err := lockBookRow(ctx, tx, bookID); err != nil {
		return 0, err
	}
	return activeBorrowed(ctx, tx, bookID)
}
