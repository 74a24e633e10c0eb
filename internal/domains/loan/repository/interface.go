package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"library-backend/internal/domains/loan/model"
)

// LoanFilter is the repository-level filter built by the service.
type LoanFilter struct {
	Search  string
	OrderBy string
	UserID  *uuid.UUID
	Status  string
	Limit   int
	Offset  int
}

// ListResult bundles one page of loans with aggregates over the whole
// filtered set, not just the page.
type ListResult struct {
	Loans      []model.LoanDetail
	Total      int
	GrandTotal decimal.Decimal
}

// Mutations that must share a transaction with a stock reservation
// take the pgx.Tx explicitly.
type RepositoryInterface interface {
	ListLoans(ctx context.Context, filter *LoanFilter) (*ListResult, error)
	GetLoanByID(ctx context.Context, id uuid.UUID) (*model.LoanDetail, error)
	GetLoanForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Loan, error)
	InsertLoan(ctx context.Context, tx pgx.Tx, loan *model.Loan) error
	UpdateLoan(ctx context.Context, tx pgx.Tx, loan *model.Loan) error
	DeleteLoan(ctx context.Context, id uuid.UUID) error
	UserExists(ctx context.Context, userID uuid.UUID) (bool, error)
	MarkLateLoans(ctx context.Context, asOf time.Time) (int64, error)
}
