package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"

	"library-backend/internal/domains/book/model"
	"library-backend/internal/domains/ledger"
)

// postgresRepository - raw SQL with pgxpool.
type postgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) RepositoryInterface {
	return &postgresRepository{pool: pool}
}

// bookColumns is the select list shared by every book read. The
// borrowed aggregate uses the ledger's active-loan predicate so the
// catalog and the reservation path derive availability identically.
const bookColumns = `
	b.id, b.title, b.author, b.cover_url, b.images, b.stock, b.price,
	b.created_at, b.updated_at,
	COALESCE(SUM(l.quantity) FILTER (WHERE l.` + ledger.ActiveStatusesSQL + `), 0)::int AS borrowed
`

func scanBookRow(row pgx.Row) (*model.BookWithAvailability, error) {
	var b model.BookWithAvailability
	err := row.Scan(
		&b.ID, &b.Title, &b.Author, &b.CoverURL, pq.Array(&b.Images),
		&b.Stock, &b.Price, &b.CreatedAt, &b.UpdatedAt, &b.Borrowed,
	)
	if err != nil {
		return nil, err
	}
	b.Available = b.Stock - b.Borrowed
	return &b, nil
}

// ListBooks returns one catalog page plus the total count of the
// filtered set.
func (r *postgresRepository) ListBooks(ctx context.Context, filter *BookFilter) ([]model.BookWithAvailability, int, error) {
	where := "TRUE"
	args := []interface{}{}
	argIndex := 1

	if filter.Search != "" {
		where = fmt.Sprintf("(b.title ILIKE $%d OR b.author ILIKE $%d)", argIndex, argIndex)
		args = append(args, "%"+filter.Search+"%")
		argIndex++
	}

	var total int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM books b WHERE %s`, where)
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count books: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM books b
		LEFT JOIN loans l ON l.book_id = b.id
		WHERE %s
		GROUP BY b.id
		ORDER BY %s
		LIMIT $%d OFFSET $%d
	`, bookColumns, where, filter.OrderBy, argIndex, argIndex+1)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list books: %w", err)
	}
	defer rows.Close()

	books := make([]model.BookWithAvailability, 0, filter.Limit)
	for rows.Next() {
		b, err := scanBookRow(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan book row: %w", err)
		}
		books = append(books, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("rows error: %w", err)
	}

	return books, total, nil
}

func (r *postgresRepository) GetBookByID(ctx context.Context, id uuid.UUID) (*model.BookWithAvailability, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM books b
		LEFT JOIN loans l ON l.book_id = b.id
		WHERE b.id = $1
		GROUP BY b.id
	`, bookColumns)

	book, err := scanBookRow(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, model.ErrBookNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get book: %w", err)
	}

	return book, nil
}

func (r *postgresRepository) CreateBook(ctx context.Context, book *model.Book) error {
	query := `
		INSERT INTO books (id, title, author, cover_url, images, stock, price, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.pool.Exec(ctx, query,
		book.ID, book.Title, book.Author, book.CoverURL, pq.Array(book.Images),
		book.Stock, book.Price, book.CreatedAt, book.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert book: %w", err)
	}

	return nil
}

func (r *postgresRepository) UpdateBook(ctx context.Context, tx pgx.Tx, book *model.Book) error {
	query := `
		UPDATE books
		SET title = $2, author = $3, cover_url = $4, images = $5,
		    stock = $6, price = $7, updated_at = $8
		WHERE id = $1
	`

	tag, err := tx.Exec(ctx, query,
		book.ID, book.Title, book.Author, book.CoverURL, pq.Array(book.Images),
		book.Stock, book.Price, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to update book: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrBookNotFound
	}

	return nil
}

func (r *postgresRepository) DeleteBook(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM books WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete book: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrBookNotFound
	}

	return nil
}

// HasActiveLoans reports whether any loan still holding stock
// references the book.
func (r *postgresRepository) HasActiveLoans(ctx context.Context, bookID uuid.UUID) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM loans WHERE book_id = $1 AND ` + ledger.ActiveStatusesSQL + `)`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, bookID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check active loans: %w", err)
	}
	return exists, nil
}

func (r *postgresRepository) UpdateCoverURL(ctx context.Context, id uuid.UUID, coverURL string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE books SET cover_url = $2, updated_at = $3 WHERE id = $1`,
		id, coverURL, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to update cover url: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrBookNotFound
	}

	return nil
}
