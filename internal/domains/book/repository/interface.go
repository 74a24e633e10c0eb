package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"library-backend/internal/domains/book/model"
)

// BookFilter is the repository-level filter built by the service.
type BookFilter struct {
	Search  string
	OrderBy string
	Limit   int
	Offset  int
}

type RepositoryInterface interface {
	ListBooks(ctx context.Context, filter *BookFilter) ([]model.BookWithAvailability, int, error)
	GetBookByID(ctx context.Context, id uuid.UUID) (*model.BookWithAvailability, error)
	CreateBook(ctx context.Context, book *model.Book) error
	// UpdateBook runs on the caller's transaction; the stock floor
	// check holds the book's row lock on the same tx.
	UpdateBook(ctx context.Context, tx pgx.Tx, book *model.Book) error
	DeleteBook(ctx context.Context, id uuid.UUID) error
	HasActiveLoans(ctx context.Context, bookID uuid.UUID) (bool, error)
	UpdateCoverURL(ctx context.Context, id uuid.UUID, coverURL string) error
}
