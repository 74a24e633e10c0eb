package service

import (
	"context"

	"github.com/google/uuid"

	"library-backend/internal/domains/ledger"
	"library-backend/internal/domains/loan/model"
	"library-backend/internal/domains/loan/repository"
)

// StockLedger is the slice of the ledger the loan service needs.
type StockLedger interface {
	AvailableStock(ctx context.Context, q ledger.Querier, bookID uuid.UUID) (int, error)
	Reserve(ctx context.Context, tx ledger.Querier, bookID uuid.UUID, quantity int) error
}

type ServiceInterface interface {
	ListLoans(ctx context.Context, req model.ListLoansRequest) (*repository.ListResult, error)
	GetLoan(ctx context.Context, id uuid.UUID) (*model.LoanDetail, error)
	CreateLoan(ctx context.Context, req model.CreateLoanRequest) (*model.Loan, error)
	UpdateLoan(ctx context.Context, id uuid.UUID, req model.UpdateLoanRequest) (*model.LoanDetail, error)
	ReturnLoan(ctx context.Context, id uuid.UUID) (*model.LoanDetail, error)
	DeleteLoan(ctx context.Context, id uuid.UUID) (*model.DeleteLoanResponse, error)
	ExportLoans(ctx context.Context, req model.ListLoansRequest) ([]byte, error)
	MarkLateLoans(ctx context.Context) (int64, error)
}
