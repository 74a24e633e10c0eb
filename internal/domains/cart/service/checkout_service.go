package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"library-backend/internal/domains/cart/model"
	"library-backend/internal/domains/ledger"
	loanmodel "library-backend/internal/domains/loan/model"
	loanrepo "library-backend/internal/domains/loan/repository"
	loansvc "library-backend/internal/domains/loan/service"
	"library-backend/pkg/cache"
	"library-backend/pkg/database"
	"library-backend/pkg/logger"
)

const bookListCachePattern = "books:list:*"

type ServiceInterface interface {
	Checkout(ctx context.Context, req model.CheckoutRequest) (*model.CheckoutResult, error)
}

// CheckoutService turns a batch of requested lines into loans in one
// transaction. Domain rejections are independent per line: a rejected
// line reports its outcome while the rest of the batch goes through,
// and all accepted lines become visible atomically on commit.
// Infrastructure failures abort and roll back the whole batch.
type CheckoutService struct {
	loans  loanrepo.RepositoryInterface
	tx     database.TxRunner
	ledger loansvc.StockLedger
	cache  cache.Cache
}

func NewService(
	loans loanrepo.RepositoryInterface,
	tx database.TxRunner,
	ledger loansvc.StockLedger,
	cache cache.Cache,
) ServiceInterface {
	return &CheckoutService{
		loans:  loans,
		tx:     tx,
		ledger: ledger,
		cache:  cache,
	}
}

func (s *CheckoutService) Checkout(ctx context.Context, req model.CheckoutRequest) (*model.CheckoutResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	exists, err := s.loans.UserExists(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, model.ErrUserNotFound
	}

	result := &model.CheckoutResult{
		Lines: make([]model.LineResult, 0, len(req.Lines)),
	}

	err = s.tx.WithTx(ctx, func(tx pgx.Tx) error {
		for _, line := range req.Lines {
			res, err := s.processLine(ctx, tx, req, line)
			if err != nil {
				return err
			}
			result.Lines = append(result.Lines, res)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, line := range result.Lines {
		if line.Outcome == model.OutcomeCreated {
			result.Created++
		}
	}

	if result.Created > 0 {
		if err := s.cache.DeletePattern(ctx, bookListCachePattern); err != nil {
			logger.Error("book list cache invalidation failed", err)
		}
	}

	return result, nil
}

// processLine reserves and inserts one line, translating domain
// rejections into the line's outcome. A rejected reservation is a
// plain SELECT, so it leaves no trace in the transaction and later
// lines are unaffected. A real SQL failure is different: it aborts
// the Postgres transaction, so it propagates as an error and rolls
// the whole batch back.
func (s *CheckoutService) processLine(ctx context.Context, tx pgx.Tx, req model.CheckoutRequest, line model.CheckoutLine) (model.LineResult, error) {
	res := model.LineResult{
		BookID:   line.BookID,
		Quantity: line.Quantity,
	}

	if line.Quantity < 1 {
		res.Outcome = model.OutcomeInvalidInput
		res.Message = "quantity must be at least 1"
		return res, nil
	}

	if err := s.ledger.Reserve(ctx, tx, line.BookID, line.Quantity); err != nil {
		var insufficientErr *ledger.InsufficientStockError
		switch {
		case errors.As(err, &insufficientErr):
			res.Outcome = model.OutcomeInsufficientStock
			res.Available = &insufficientErr.Available
			res.Message = "not enough copies available"
		case errors.Is(err, ledger.ErrBookNotFound):
			res.Outcome = model.OutcomeNotFound
			res.Message = "book does not exist"
		default:
			return res, fmt.Errorf("checkout reservation: %w", err)
		}
		return res, nil
	}

	now := time.Now()
	loan := &loanmodel.Loan{
		ID:         uuid.New(),
		UserID:     req.UserID,
		BookID:     line.BookID,
		Quantity:   line.Quantity,
		BorrowedAt: req.BorrowedAt,
		DueAt:      req.DueAt,
		Status:     loanmodel.StatusBorrowed,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.loans.InsertLoan(ctx, tx, loan); err != nil {
		return res, fmt.Errorf("checkout insert: %w", err)
	}

	res.Outcome = model.OutcomeCreated
	res.LoanID = &loan.ID
	return res, nil
}
