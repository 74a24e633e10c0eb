package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"library-backend/internal/domains/cart/model"
	"library-backend/internal/domains/cart/service"
	"library-backend/internal/domains/ledger"
	loanmodel "library-backend/internal/domains/loan/model"
	loanrepo "library-backend/internal/domains/loan/repository"
	"library-backend/pkg/database"
)

// mockLoanRepo covers only the methods checkout exercises.
type mockLoanRepo struct {
	inserted   []*loanmodel.Loan
	insertErr  error
	userExists bool
}

func (m *mockLoanRepo) InsertLoan(ctx context.Context, tx pgx.Tx, loan *loanmodel.Loan) error {
	if m.insertErr != nil {
		return m.insertErr
	}
	m.inserted = append(m.inserted, loan)
	return nil
}

func (m *mockLoanRepo) UserExists(ctx context.Context, userID uuid.UUID) (bool, error) {
	return m.userExists, nil
}

func (m *mockLoanRepo) ListLoans(ctx context.Context, filter *loanrepo.LoanFilter) (*loanrepo.ListResult, error) {
	panic("not used in checkout")
}
func (m *mockLoanRepo) GetLoanByID(ctx context.Context, id uuid.UUID) (*loanmodel.LoanDetail, error) {
	panic("not used in checkout")
}
func (m *mockLoanRepo) GetLoanForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*loanmodel.Loan, error) {
	panic("not used in checkout")
}
func (m *mockLoanRepo) UpdateLoan(ctx context.Context, tx pgx.Tx, loan *loanmodel.Loan) error {
	panic("not used in checkout")
}
func (m *mockLoanRepo) DeleteLoan(ctx context.Context, id uuid.UUID) error {
	panic("not used in checkout")
}
func (m *mockLoanRepo) MarkLateLoans(ctx context.Context, asOf time.Time) (int64, error) {
	panic("not used in checkout")
}

type fakeTxRunner struct{}

func (fakeTxRunner) WithTx(ctx context.Context, fn database.TxFunc) error {
	return fn(nil)
}

// fakeLedger tracks per-book borrow counts in memory.
type fakeLedger struct {
	stock    map[uuid.UUID]int
	borrowed map[uuid.UUID]int
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		stock:    map[uuid.UUID]int{},
		borrowed: map[uuid.UUID]int{},
	}
}

func (f *fakeLedger) AvailableStock(ctx context.Context, q ledger.Querier, bookID uuid.UUID) (int, error) {
	stock, ok := f.stock[bookID]
	if !ok {
		return 0, ledger.ErrBookNotFound
	}
	return stock - f.borrowed[bookID], nil
}

func (f *fakeLedger) Reserve(ctx context.Context, tx ledger.Querier, bookID uuid.UUID, quantity int) error {
	stock, ok := f.stock[bookID]
	if !ok {
		return ledger.ErrBookNotFound
	}
	available := stock - f.borrowed[bookID]
	if quantity > available {
		return ledger.NewInsufficientStockError(quantity, available)
	}
	f.borrowed[bookID] += quantity
	return nil
}

type noopCache struct {
	deletedPatterns []string
}

func (c *noopCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	return false, nil
}
func (c *noopCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return nil
}
func (c *noopCache) Delete(ctx context.Context, keys ...string) error { return nil }
func (c *noopCache) DeletePattern(ctx context.Context, pattern string) error {
	c.deletedPatterns = append(c.deletedPatterns, pattern)
	return nil
}
func (c *noopCache) Ping(ctx context.Context) error { return nil }

func checkoutRequest(lines ...model.CheckoutLine) model.CheckoutRequest {
	return model.CheckoutRequest{
		UserID:     uuid.New(),
		BorrowedAt: time.Now(),
		DueAt:      time.Now().Add(14 * 24 * time.Hour),
		Lines:      lines,
	}
}

func TestCheckout_MixedOutcomes(t *testing.T) {
	led := newFakeLedger()
	inStock := uuid.New()
	scarce := uuid.New()
	missing := uuid.New()
	led.stock[inStock] = 10
	led.stock[scarce] = 1

	repo := &mockLoanRepo{userExists: true}
	c := &noopCache{}
	svc := service.NewService(repo, fakeTxRunner{}, led, c)

	req := checkoutRequest(
		model.CheckoutLine{BookID: inStock, Quantity: 2},
		model.CheckoutLine{BookID: scarce, Quantity: 3},
		model.CheckoutLine{BookID: missing, Quantity: 1},
		model.CheckoutLine{BookID: inStock, Quantity: 0},
	)

	result, err := svc.Checkout(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, result.Lines, 4)

	assert.Equal(t, model.OutcomeCreated, result.Lines[0].Outcome)
	assert.NotNil(t, result.Lines[0].LoanID)

	assert.Equal(t, model.OutcomeInsufficientStock, result.Lines[1].Outcome)
	if assert.NotNil(t, result.Lines[1].Available) {
		assert.Equal(t, 1, *result.Lines[1].Available)
	}

	assert.Equal(t, model.OutcomeNotFound, result.Lines[2].Outcome)
	assert.Equal(t, model.OutcomeInvalidInput, result.Lines[3].Outcome)

	assert.Equal(t, 1, result.Created)
	require.Len(t, repo.inserted, 1, "only the accepted line becomes a loan")
	assert.Equal(t, req.UserID, repo.inserted[0].UserID)
	assert.Equal(t, loanmodel.StatusBorrowed, repo.inserted[0].Status)
	assert.Contains(t, c.deletedPatterns, "books:list:*")
}

// Two lines competing for the same title inside one batch: the first
// takes the stock, the second is told how much was left.
func TestCheckout_LinesCompeteForSameBook(t *testing.T) {
	led := newFakeLedger()
	bookID := uuid.New()
	led.stock[bookID] = 5

	repo := &mockLoanRepo{userExists: true}
	svc := service.NewService(repo, fakeTxRunner{}, led, &noopCache{})

	result, err := svc.Checkout(context.Background(), checkoutRequest(
		model.CheckoutLine{BookID: bookID, Quantity: 3},
		model.CheckoutLine{BookID: bookID, Quantity: 3},
	))
	require.NoError(t, err)

	assert.Equal(t, model.OutcomeCreated, result.Lines[0].Outcome)
	assert.Equal(t, model.OutcomeInsufficientStock, result.Lines[1].Outcome)
	if assert.NotNil(t, result.Lines[1].Available) {
		assert.Equal(t, 2, *result.Lines[1].Available)
	}
}

func TestCheckout_AllLinesRejected(t *testing.T) {
	led := newFakeLedger()
	repo := &mockLoanRepo{userExists: true}
	c := &noopCache{}
	svc := service.NewService(repo, fakeTxRunner{}, led, c)

	result, err := svc.Checkout(context.Background(), checkoutRequest(
		model.CheckoutLine{BookID: uuid.New(), Quantity: 1},
	))
	require.NoError(t, err)

	assert.Equal(t, 0, result.Created)
	assert.Empty(t, repo.inserted)
	assert.Empty(t, c.deletedPatterns, "nothing changed, nothing to invalidate")
}

func TestCheckout_UnknownUser(t *testing.T) {
	svc := service.NewService(&mockLoanRepo{userExists: false}, fakeTxRunner{}, newFakeLedger(), &noopCache{})

	_, err := svc.Checkout(context.Background(), checkoutRequest(
		model.CheckoutLine{BookID: uuid.New(), Quantity: 1},
	))
	assert.ErrorIs(t, err, model.ErrUserNotFound)
}

func TestCheckout_EmptyBatch(t *testing.T) {
	svc := service.NewService(&mockLoanRepo{userExists: true}, fakeTxRunner{}, newFakeLedger(), &noopCache{})

	_, err := svc.Checkout(context.Background(), checkoutRequest())
	assert.Error(t, err)
}

func TestCheckout_InsertFailureAbortsBatch(t *testing.T) {
	insertErr := errors.New("connection reset by peer")
	led := newFakeLedger()
	bookA := uuid.New()
	bookB := uuid.New()
	led.stock[bookA] = 5
	led.stock[bookB] = 5

	repo := &mockLoanRepo{userExists: true, insertErr: insertErr}
	c := &noopCache{}
	svc := service.NewService(repo, fakeTxRunner{}, led, c)

	result, err := svc.Checkout(context.Background(), checkoutRequest(
		model.CheckoutLine{BookID: bookA, Quantity: 1},
		model.CheckoutLine{BookID: bookB, Quantity: 1},
	))
	require.Error(t, err, "a SQL failure aborts the transaction, so the batch must roll back")
	assert.ErrorIs(t, err, insertErr)
	assert.Nil(t, result)
	assert.Empty(t, repo.inserted)
	assert.Empty(t, c.deletedPatterns, "a rolled-back batch must not flush the cache")
}
