package service_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"library-backend/internal/domains/book/model"
	"library-backend/internal/domains/book/repository"
	"library-backend/internal/domains/book/service"
	"library-backend/internal/domains/ledger"
	"library-backend/pkg/database"
)

type mockRepo struct {
	listFn        func(ctx context.Context, filter *repository.BookFilter) ([]model.BookWithAvailability, int, error)
	getByIDFn     func(ctx context.Context, id uuid.UUID) (*model.BookWithAvailability, error)
	createFn      func(ctx context.Context, book *model.Book) error
	updateFn      func(ctx context.Context, tx pgx.Tx, book *model.Book) error
	deleteFn      func(ctx context.Context, id uuid.UUID) error
	hasActiveFn   func(ctx context.Context, bookID uuid.UUID) (bool, error)
	updateCoverFn func(ctx context.Context, id uuid.UUID, coverURL string) error
}

func (m *mockRepo) ListBooks(ctx context.Context, filter *repository.BookFilter) ([]model.BookWithAvailability, int, error) {
	return m.listFn(ctx, filter)
}
func (m *mockRepo) GetBookByID(ctx context.Context, id uuid.UUID) (*model.BookWithAvailability, error) {
	return m.getByIDFn(ctx, id)
}
func (m *mockRepo) CreateBook(ctx context.Context, book *model.Book) error { return m.createFn(ctx, book) }
func (m *mockRepo) UpdateBook(ctx context.Context, tx pgx.Tx, book *model.Book) error {
	return m.updateFn(ctx, tx, book)
}
func (m *mockRepo) DeleteBook(ctx context.Context, id uuid.UUID) error { return m.deleteFn(ctx, id) }
func (m *mockRepo) HasActiveLoans(ctx context.Context, bookID uuid.UUID) (bool, error) {
	return m.hasActiveFn(ctx, bookID)
}
func (m *mockRepo) UpdateCoverURL(ctx context.Context, id uuid.UUID, coverURL string) error {
	return m.updateCoverFn(ctx, id, coverURL)
}

// fakeTxRunner runs the function directly; rollback is modeled by the
// error short-circuiting work that would follow.
type fakeTxRunner struct{}

func (fakeTxRunner) WithTx(ctx context.Context, fn database.TxFunc) error {
	return fn(nil)
}

// fakeGuard reports a fixed borrowed total, standing in for the
// row-locked aggregate.
type fakeGuard struct {
	borrowed int
}

func (f *fakeGuard) BorrowedUnderLock(ctx context.Context, tx ledger.Querier, bookID uuid.UUID) (int, error) {
	return f.borrowed, nil
}

// memCache is an in-memory stand-in for the redis cache.
type memCache struct {
	entries         map[string][]byte
	deletedPatterns []string
}

func newMemCache() *memCache {
	return &memCache{entries: map[string][]byte{}}
}

func (c *memCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	raw, ok := c.entries[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func (c *memCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.entries[key] = raw
	return nil
}

func (c *memCache) Delete(ctx context.Context, keys ...string) error {
	for _, k := range keys {
		delete(c.entries, k)
	}
	return nil
}

func (c *memCache) DeletePattern(ctx context.Context, pattern string) error {
	c.deletedPatterns = append(c.deletedPatterns, pattern)
	// Pattern is always the list prefix in these tests.
	c.entries = map[string][]byte{}
	return nil
}

func (c *memCache) Ping(ctx context.Context) error { return nil }

func listRequest() model.ListBooksRequest {
	return model.ListBooksRequest{Page: 1, PerPage: 20, Sort: "title"}
}

func TestListBooks_CachesPages(t *testing.T) {
	queries := 0
	repo := &mockRepo{
		listFn: func(ctx context.Context, filter *repository.BookFilter) ([]model.BookWithAvailability, int, error) {
			queries++
			return []model.BookWithAvailability{
				{Book: model.Book{ID: uuid.New(), Title: "Dune", Stock: 5}, Borrowed: 3, Available: 2},
			}, 1, nil
		},
	}
	c := newMemCache()
	svc := service.NewService(repo, fakeTxRunner{}, &fakeGuard{}, c, nil, nil)

	first, total, err := svc.ListBooks(context.Background(), listRequest())
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, 2, first[0].Available)

	second, secondTotal, err := svc.ListBooks(context.Background(), listRequest())
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, first[0].Title, second[0].Title)
	assert.Equal(t, first[0].Available, second[0].Available)
	assert.Equal(t, total, secondTotal)
	assert.Equal(t, 1, queries, "second read must come from cache")
}

func TestCreateBook_InvalidatesListCache(t *testing.T) {
	repo := &mockRepo{
		listFn: func(ctx context.Context, filter *repository.BookFilter) ([]model.BookWithAvailability, int, error) {
			return nil, 0, nil
		},
		createFn: func(ctx context.Context, book *model.Book) error { return nil },
	}
	c := newMemCache()
	svc := service.NewService(repo, fakeTxRunner{}, &fakeGuard{}, c, nil, nil)

	// Warm the cache, then write.
	_, _, err := svc.ListBooks(context.Background(), listRequest())
	require.NoError(t, err)
	require.NotEmpty(t, c.entries)

	book, err := svc.CreateBook(context.Background(), model.CreateBookRequest{
		Title: "Dune", Stock: 5, Price: 9.99,
	})
	require.NoError(t, err)

	assert.Equal(t, 5, book.Available, "a new book has everything available")
	assert.Contains(t, c.deletedPatterns, "books:list:*")
	assert.Empty(t, c.entries)
}

func TestCreateBook_Invalid(t *testing.T) {
	svc := service.NewService(&mockRepo{}, fakeTxRunner{}, &fakeGuard{}, newMemCache(), nil, nil)

	_, err := svc.CreateBook(context.Background(), model.CreateBookRequest{Title: "", Stock: -1})
	assert.Error(t, err)
}

func TestUpdateBook_StockBelowBorrowed(t *testing.T) {
	updated := false
	repo := &mockRepo{
		updateFn: func(ctx context.Context, tx pgx.Tx, book *model.Book) error {
			updated = true
			return nil
		},
	}
	c := newMemCache()
	svc := service.NewService(repo, fakeTxRunner{}, &fakeGuard{borrowed: 5}, c, nil, nil)

	_, err := svc.UpdateBook(context.Background(), uuid.New(), model.UpdateBookRequest{
		Title: "Dune", Stock: 2, Price: 9.99,
	})
	require.Error(t, err, "shrinking stock below the borrowed quantity must be rejected")
	assert.ErrorIs(t, err, model.ErrStockBelowBorrowed)

	var stockErr *model.StockBelowBorrowedError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 2, stockErr.Requested)
	assert.Equal(t, 5, stockErr.Borrowed)

	assert.False(t, updated, "the write must not reach the repository")
	assert.Empty(t, c.deletedPatterns, "a refused update must not touch the cache")
}

func TestUpdateBook_StockAtBorrowedFloor(t *testing.T) {
	var persisted *model.Book
	id := uuid.New()
	repo := &mockRepo{
		updateFn: func(ctx context.Context, tx pgx.Tx, book *model.Book) error {
			persisted = book
			return nil
		},
		getByIDFn: func(ctx context.Context, bookID uuid.UUID) (*model.BookWithAvailability, error) {
			return &model.BookWithAvailability{
				Book: model.Book{ID: bookID, Title: "Dune", Stock: 5}, Borrowed: 5, Available: 0,
			}, nil
		},
	}
	c := newMemCache()
	svc := service.NewService(repo, fakeTxRunner{}, &fakeGuard{borrowed: 5}, c, nil, nil)

	book, err := svc.UpdateBook(context.Background(), id, model.UpdateBookRequest{
		Title: "Dune", Stock: 5, Price: 9.99,
	})
	require.NoError(t, err, "stock equal to the borrowed quantity leaves availability at zero")

	require.NotNil(t, persisted)
	assert.Equal(t, 5, persisted.Stock)
	assert.Equal(t, 0, book.Available)
	assert.Contains(t, c.deletedPatterns, "books:list:*")
}

func TestDeleteBook_BlockedByActiveLoans(t *testing.T) {
	repo := &mockRepo{
		hasActiveFn: func(ctx context.Context, bookID uuid.UUID) (bool, error) { return true, nil },
	}
	c := newMemCache()
	svc := service.NewService(repo, fakeTxRunner{}, &fakeGuard{}, c, nil, nil)

	_, err := svc.DeleteBook(context.Background(), uuid.New())
	assert.ErrorIs(t, err, model.ErrBookHasActiveLoans)
	assert.Empty(t, c.deletedPatterns, "a refused delete must not touch the cache")
}

func TestDeleteBook(t *testing.T) {
	deleted := uuid.Nil
	repo := &mockRepo{
		hasActiveFn: func(ctx context.Context, bookID uuid.UUID) (bool, error) { return false, nil },
		deleteFn: func(ctx context.Context, id uuid.UUID) error {
			deleted = id
			return nil
		},
	}
	c := newMemCache()
	svc := service.NewService(repo, fakeTxRunner{}, &fakeGuard{}, c, nil, nil)

	id := uuid.New()
	result, err := svc.DeleteBook(context.Background(), id)
	require.NoError(t, err)

	assert.True(t, result.Deleted)
	assert.Equal(t, id, deleted)
	assert.Contains(t, c.deletedPatterns, "books:list:*")
}
