package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"library-backend/internal/domains/loan/model"
)

type postgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) RepositoryInterface {
	return &postgresRepository{pool: pool}
}

// effectiveStatusSQL reports a borrowed loan past its due date as
// late even before the background sweep has persisted the transition.
// Both statuses hold stock, so the availability derivation is not
// affected either way.
const effectiveStatusSQL = `
	CASE WHEN l.status = 'borrowed' AND l.due_at < NOW() THEN 'late' ELSE l.status END
`

const loanDetailColumns = `
	l.id, l.user_id, l.book_id, l.quantity, l.borrowed_at, l.due_at,
	l.returned_at, ` + effectiveStatusSQL + `, l.created_at, l.updated_at,
	u.name, u.email, b.title, b.price, b.price * l.quantity AS line_total
`

const loanDetailJoins = `
	FROM loans l
	JOIN users u ON u.id = l.user_id
	JOIN books b ON b.id = l.book_id
`

func scanLoanDetail(row pgx.Row) (*model.LoanDetail, error) {
	var d model.LoanDetail
	err := row.Scan(
		&d.ID, &d.UserID, &d.BookID, &d.Quantity, &d.BorrowedAt, &d.DueAt,
		&d.ReturnedAt, &d.Status, &d.CreatedAt, &d.UpdatedAt,
		&d.UserName, &d.UserEmail, &d.BookTitle, &d.BookPrice, &d.LineTotal,
	)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// buildWhere assembles the filter predicate with positional args.
func buildWhere(filter *LoanFilter) (string, []interface{}) {
	where := "TRUE"
	args := []interface{}{}
	argIndex := 1

	if filter.Search != "" {
		where += fmt.Sprintf(" AND (b.title ILIKE $%d OR u.name ILIKE $%d)", argIndex, argIndex)
		args = append(args, "%"+filter.Search+"%")
		argIndex++
	}
	if filter.UserID != nil {
		where += fmt.Sprintf(" AND l.user_id = $%d", argIndex)
		args = append(args, *filter.UserID)
		argIndex++
	}
	if filter.Status != "" {
		where += fmt.Sprintf(" AND %s = $%d", effectiveStatusSQL, argIndex)
		args = append(args, filter.Status)
		argIndex++
	}

	return where, args
}

// ListLoans returns one page plus total count and the grand total of
// book price times quantity over the entire filtered set.
func (r *postgresRepository) ListLoans(ctx context.Context, filter *LoanFilter) (*ListResult, error) {
	where, args := buildWhere(filter)

	result := &ListResult{}
	aggQuery := fmt.Sprintf(`
		SELECT COUNT(*), COALESCE(SUM(b.price * l.quantity), 0)
		%s
		WHERE %s
	`, loanDetailJoins, where)
	if err := r.pool.QueryRow(ctx, aggQuery, args...).Scan(&result.Total, &result.GrandTotal); err != nil {
		return nil, fmt.Errorf("failed to aggregate loans: %w", err)
	}

	argIndex := len(args) + 1
	query := fmt.Sprintf(`
		SELECT %s
		%s
		WHERE %s
		ORDER BY %s
		LIMIT $%d OFFSET $%d
	`, loanDetailColumns, loanDetailJoins, where, filter.OrderBy, argIndex, argIndex+1)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list loans: %w", err)
	}
	defer rows.Close()

	result.Loans = make([]model.LoanDetail, 0, filter.Limit)
	for rows.Next() {
		d, err := scanLoanDetail(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan loan row: %w", err)
		}
		result.Loans = append(result.Loans, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return result, nil
}

func (r *postgresRepository) GetLoanByID(ctx context.Context, id uuid.UUID) (*model.LoanDetail, error) {
	query := fmt.Sprintf(`
		SELECT %s
		%s
		WHERE l.id = $1
	`, loanDetailColumns, loanDetailJoins)

	detail, err := scanLoanDetail(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, model.ErrLoanNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get loan: %w", err)
	}

	return detail, nil
}

// GetLoanForUpdate locks the loan row inside the caller's transaction
// so status transitions and quantity edits serialize per loan. Status
// is returned as stored, not effective; the caller decides how to
// treat an overdue borrowed row.
func (r *postgresRepository) GetLoanForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Loan, error) {
	query := `
		SELECT id, user_id, book_id, quantity, borrowed_at, due_at,
		       returned_at, status, created_at, updated_at
		FROM loans
		WHERE id = $1
		FOR UPDATE
	`

	var l model.Loan
	err := tx.QueryRow(ctx, query, id).Scan(
		&l.ID, &l.UserID, &l.BookID, &l.Quantity, &l.BorrowedAt, &l.DueAt,
		&l.ReturnedAt, &l.Status, &l.CreatedAt, &l.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, model.ErrLoanNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock loan: %w", err)
	}

	return &l, nil
}

func (r *postgresRepository) InsertLoan(ctx context.Context, tx pgx.Tx, loan *model.Loan) error {
	query := `
		INSERT INTO loans (id, user_id, book_id, quantity, borrowed_at, due_at, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := tx.Exec(ctx, query,
		loan.ID, loan.UserID, loan.BookID, loan.Quantity,
		loan.BorrowedAt, loan.DueAt, loan.Status, loan.CreatedAt, loan.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert loan: %w", err)
	}

	return nil
}

func (r *postgresRepository) UpdateLoan(ctx context.Context, tx pgx.Tx, loan *model.Loan) error {
	query := `
		UPDATE loans
		SET quantity = $2, due_at = $3, returned_at = $4, status = $5, updated_at = $6
		WHERE id = $1
	`

	tag, err := tx.Exec(ctx, query,
		loan.ID, loan.Quantity, loan.DueAt, loan.ReturnedAt, loan.Status, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to update loan: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrLoanNotFound
	}

	return nil
}

// DeleteLoan removes the row outright. If the loan was active its
// reservation disappears with it, so the book's derived availability
// comes back without any counter to touch.
func (r *postgresRepository) DeleteLoan(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM loans WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete loan: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrLoanNotFound
	}

	return nil
}

func (r *postgresRepository) UserExists(ctx context.Context, userID uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`, userID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check user: %w", err)
	}
	return exists, nil
}

// MarkLateLoans persists the late transition for every borrowed loan
// whose due date has passed. Reads already classify such loans as
// late, so this sweep only makes the stored state match.
func (r *postgresRepository) MarkLateLoans(ctx context.Context, asOf time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE loans SET status = 'late', updated_at = NOW() WHERE status = 'borrowed' AND due_at < $1`,
		asOf,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to mark late loans: %w", err)
	}
	return tag.RowsAffected(), nil
}
