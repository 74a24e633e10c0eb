package service

import (
	"context"

	"github.com/google/uuid"

	"library-backend/internal/domains/book/model"
	"library-backend/internal/domains/ledger"
)

// StockGuard is the slice of the ledger the book service needs.
// Stock edits must see the borrowed total under the book's row lock
// so they cannot race a reservation into negative availability.
type StockGuard interface {
	BorrowedUnderLock(ctx context.Context, tx ledger.Querier, bookID uuid.UUID) (int, error)
}

type ServiceInterface interface {
	ListBooks(ctx context.Context, req model.ListBooksRequest) ([]model.BookWithAvailability, int, error)
	GetBook(ctx context.Context, id uuid.UUID) (*model.BookWithAvailability, error)
	CreateBook(ctx context.Context, req model.CreateBookRequest) (*model.BookWithAvailability, error)
	UpdateBook(ctx context.Context, id uuid.UUID, req model.UpdateBookRequest) (*model.BookWithAvailability, error)
	DeleteBook(ctx context.Context, id uuid.UUID) (*model.DeleteBookResponse, error)
	UploadCover(ctx context.Context, id uuid.UUID, data []byte) (string, error)
}
