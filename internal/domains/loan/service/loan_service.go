package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"library-backend/internal/domains/loan/model"
	"library-backend/internal/domains/loan/repository"
	"library-backend/pkg/cache"
	"library-backend/pkg/database"
	"library-backend/pkg/logger"
)

// bookListCachePattern mirrors the book service's cache keys. Every
// loan mutation changes some book's derived availability, so cached
// catalog pages must go.
const bookListCachePattern = "books:list:*"

// LoanService implements ServiceInterface.
type LoanService struct {
	repo   repository.RepositoryInterface
	tx     database.TxRunner
	ledger StockLedger
	cache  cache.Cache
}

func NewService(
	repo repository.RepositoryInterface,
	tx database.TxRunner,
	ledger StockLedger,
	cache cache.Cache,
) ServiceInterface {
	return &LoanService{
		repo:   repo,
		tx:     tx,
		ledger: ledger,
		cache:  cache,
	}
}

func (s *LoanService) ListLoans(ctx context.Context, req model.ListLoansRequest) (*repository.ListResult, error) {
	if req.Sort == "" {
		req.Sort = "newest"
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	orderBy, _ := req.OrderBy()
	filter := &repository.LoanFilter{
		Search:  req.Search,
		OrderBy: orderBy,
		UserID:  req.UserID,
		Status:  req.Status,
		Limit:   req.PerPage,
		Offset:  (req.Page - 1) * req.PerPage,
	}

	result, err := s.repo.ListLoans(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list loans: %w", err)
	}

	return result, nil
}

func (s *LoanService) GetLoan(ctx context.Context, id uuid.UUID) (*model.LoanDetail, error) {
	return s.repo.GetLoanByID(ctx, id)
}

// CreateLoan reserves stock and inserts the loan in one transaction.
// The reservation holds the book's row lock until commit, so two
// requests racing for the last copies serialize and the loser gets
// an insufficient stock error instead of driving availability
// negative.
func (s *LoanService) CreateLoan(ctx context.Context, req model.CreateLoanRequest) (*model.Loan, error) {
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	exists, err := s.repo.UserExists(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, model.ErrUserNotFound
	}

	now := time.Now()
	loan := &model.Loan{
		ID:         uuid.New(),
		UserID:     req.UserID,
		BookID:     req.BookID,
		Quantity:   req.Quantity,
		BorrowedAt: req.BorrowedAt,
		DueAt:      req.DueAt,
		Status:     model.StatusBorrowed,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	err = s.tx.WithTx(ctx, func(tx pgx.Tx) error {
		if err := s.ledger.Reserve(ctx, tx, req.BookID, req.Quantity); err != nil {
			return err
		}
		return s.repo.InsertLoan(ctx, tx, loan)
	})
	if err != nil {
		return nil, err
	}

	s.invalidateBookCache(ctx)

	return loan, nil
}

// UpdateLoan applies administrative edits under a row lock. Edits that
// grow the loan's hold on stock (raising the quantity of an active
// loan, or reactivating a returned one) must pass the same
// reservation check as a new loan.
func (s *LoanService) UpdateLoan(ctx context.Context, id uuid.UUID, req model.UpdateLoanRequest) (*model.LoanDetail, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	err := s.tx.WithTx(ctx, func(tx pgx.Tx) error {
		loan, err := s.repo.GetLoanForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}

		wasActive := loan.Status.IsActive()
		oldQuantity := loan.Quantity

		if req.Quantity != nil {
			loan.Quantity = *req.Quantity
		}
		if req.DueAt != nil {
			loan.DueAt = *req.DueAt
		}
		if req.Status != nil {
			if err := applyTransition(loan, model.LoanStatus(*req.Status)); err != nil {
				return err
			}
		}

		// Additional copies claimed by this edit, beyond what the
		// loan already held.
		var delta int
		switch {
		case loan.Status.IsActive() && !wasActive:
			delta = loan.Quantity
		case loan.Status.IsActive() && loan.Quantity > oldQuantity:
			delta = loan.Quantity - oldQuantity
		}
		if delta > 0 {
			if err := s.ledger.Reserve(ctx, tx, loan.BookID, delta); err != nil {
				return err
			}
		}

		return s.repo.UpdateLoan(ctx, tx, loan)
	})
	if err != nil {
		return nil, err
	}

	s.invalidateBookCache(ctx)

	return s.repo.GetLoanByID(ctx, id)
}

// applyTransition mutates loan to the target status. Returned is
// terminal except for an explicit administrative reactivation, which
// the caller re-reserves stock for.
func applyTransition(loan *model.Loan, target model.LoanStatus) error {
	if target == loan.Status {
		return nil
	}

	now := time.Now()
	switch target {
	case model.StatusReturned:
		loan.Status = model.StatusReturned
		loan.ReturnedAt = &now
	case model.StatusBorrowed, model.StatusLate:
		loan.Status = target
		loan.ReturnedAt = nil
	default:
		return model.ErrInvalidTransition
	}

	return nil
}

// ReturnLoan marks the loan returned. The status flip is the release:
// availability is derived from active loans only, so the copies are
// borrowable again the moment the transaction commits.
func (s *LoanService) ReturnLoan(ctx context.Context, id uuid.UUID) (*model.LoanDetail, error) {
	err := s.tx.WithTx(ctx, func(tx pgx.Tx) error {
		loan, err := s.repo.GetLoanForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if loan.Status == model.StatusReturned {
			return model.ErrAlreadyReturned
		}

		now := time.Now()
		loan.Status = model.StatusReturned
		loan.ReturnedAt = &now

		return s.repo.UpdateLoan(ctx, tx, loan)
	})
	if err != nil {
		return nil, err
	}

	s.invalidateBookCache(ctx)

	return s.repo.GetLoanByID(ctx, id)
}

func (s *LoanService) DeleteLoan(ctx context.Context, id uuid.UUID) (*model.DeleteLoanResponse, error) {
	if err := s.repo.DeleteLoan(ctx, id); err != nil {
		return nil, err
	}

	s.invalidateBookCache(ctx)

	return &model.DeleteLoanResponse{ID: id}, nil
}

// MarkLateLoans is the background sweep entrypoint.
func (s *LoanService) MarkLateLoans(ctx context.Context) (int64, error) {
	marked, err := s.repo.MarkLateLoans(ctx, time.Now())
	if err != nil {
		return 0, err
	}
	if marked > 0 {
		logger.Info("marked overdue loans late", map[string]interface{}{"count": marked})
	}
	return marked, nil
}

func (s *LoanService) invalidateBookCache(ctx context.Context) {
	if err := s.cache.DeletePattern(ctx, bookListCachePattern); err != nil {
		logger.Error("book list cache invalidation failed", err)
	}
}
