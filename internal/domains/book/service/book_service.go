package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"library-backend/internal/domains/book/model"
	"library-backend/internal/domains/book/repository"
	"library-backend/internal/infrastructure/storage"
	"library-backend/pkg/cache"
	"library-backend/pkg/database"
	"library-backend/pkg/logger"
)

const (
	listCachePattern = "books:list:*"
	listCacheTTL     = 5 * time.Minute
	coverMaxDim      = 600
)

// BookService implements ServiceInterface.
type BookService struct {
	repo           repository.RepositoryInterface
	tx             database.TxRunner
	ledger         StockGuard
	cache          cache.Cache
	minio          *storage.MinIOStorage
	imageProcessor *storage.ImageProcessor
}

func NewService(
	repo repository.RepositoryInterface,
	tx database.TxRunner,
	ledger StockGuard,
	cache cache.Cache,
	minio *storage.MinIOStorage,
	imageProcessor *storage.ImageProcessor,
) ServiceInterface {
	return &BookService{
		repo:           repo,
		tx:             tx,
		ledger:         ledger,
		cache:          cache,
		minio:          minio,
		imageProcessor: imageProcessor,
	}
}

type listCacheEntry struct {
	Books []model.BookWithAvailability `json:"books"`
	Total int                          `json:"total"`
}

func listCacheKey(req model.ListBooksRequest) string {
	return fmt.Sprintf("books:list:%d:%d:%s:%s", req.Page, req.PerPage, req.Search, req.Sort)
}

// ListBooks returns one catalog page with computed availability. Pages
// are cached, and every book or loan write flushes the cache, so a
// cached page never reflects pre-write availability.
func (s *BookService) ListBooks(ctx context.Context, req model.ListBooksRequest) ([]model.BookWithAvailability, int, error) {
	if err := req.Validate(); err != nil {
		return nil, 0, err
	}

	cacheKey := listCacheKey(req)
	var cached listCacheEntry
	found, err := s.cache.Get(ctx, cacheKey, &cached)
	if err != nil {
		logger.Error("book list cache read failed", err)
	}
	if found {
		return cached.Books, cached.Total, nil
	}

	orderBy, _ := req.OrderBy()
	filter := &repository.BookFilter{
		Search:  req.Search,
		OrderBy: orderBy,
		Limit:   req.PerPage,
		Offset:  (req.Page - 1) * req.PerPage,
	}

	books, total, err := s.repo.ListBooks(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("list books: %w", err)
	}

	if err := s.cache.Set(ctx, cacheKey, listCacheEntry{Books: books, Total: total}, listCacheTTL); err != nil {
		logger.Error("book list cache write failed", err)
	}

	return books, total, nil
}

func (s *BookService) GetBook(ctx context.Context, id uuid.UUID) (*model.BookWithAvailability, error) {
	return s.repo.GetBookByID(ctx, id)
}

func (s *BookService) CreateBook(ctx context.Context, req model.CreateBookRequest) (*model.BookWithAvailability, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := time.Now()
	book := &model.Book{
		ID:        uuid.New(),
		Title:     req.Title,
		Author:    req.Author,
		CoverURL:  req.CoverURL,
		Images:    req.Images,
		Stock:     req.Stock,
		Price:     decimal.NewFromFloat(req.Price),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.CreateBook(ctx, book); err != nil {
		return nil, err
	}

	s.invalidateListCache(ctx)

	return &model.BookWithAvailability{Book: *book, Borrowed: 0, Available: book.Stock}, nil
}

// UpdateBook applies an edit under the book's row lock. Stock may not
// drop below the quantity out on active loans, otherwise derived
// availability would go negative.
func (s *BookService) UpdateBook(ctx context.Context, id uuid.UUID, req model.UpdateBookRequest) (*model.BookWithAvailability, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	book := &model.Book{
		ID:       id,
		Title:    req.Title,
		Author:   req.Author,
		CoverURL: req.CoverURL,
		Images:   req.Images,
		Stock:    req.Stock,
		Price:    decimal.NewFromFloat(req.Price),
	}

	err := s.tx.WithTx(ctx, func(tx pgx.Tx) error {
		borrowed, err := s.ledger.BorrowedUnderLock(ctx, tx, id)
		if err != nil {
			return err
		}
		if req.Stock < borrowed {
			return model.NewStockBelowBorrowedError(req.Stock, borrowed)
		}
		return s.repo.UpdateBook(ctx, tx, book)
	})
	if err != nil {
		return nil, err
	}

	s.invalidateListCache(ctx)

	return s.repo.GetBookByID(ctx, id)
}

// DeleteBook removes a title. Books with active loans cannot be
// deleted; the loans must be returned or removed first.
func (s *BookService) DeleteBook(ctx context.Context, id uuid.UUID) (*model.DeleteBookResponse, error) {
	hasLoans, err := s.repo.HasActiveLoans(ctx, id)
	if err != nil {
		return nil, err
	}
	if hasLoans {
		return nil, model.ErrBookHasActiveLoans
	}

	if err := s.repo.DeleteBook(ctx, id); err != nil {
		return nil, err
	}

	s.invalidateListCache(ctx)

	if s.minio != nil {
		if err := s.minio.DeleteByPrefix(ctx, "covers/"+id.String()); err != nil {
			logger.Error("failed to delete book cover objects", err)
		}
	}

	return &model.DeleteBookResponse{ID: id.String(), Deleted: true}, nil
}

// UploadCover validates, resizes and stores a cover image, then points
// the book at the new URL.
func (s *BookService) UploadCover(ctx context.Context, id uuid.UUID, data []byte) (string, error) {
	if _, err := s.repo.GetBookByID(ctx, id); err != nil {
		return "", err
	}

	if err := s.imageProcessor.ValidateImage(data); err != nil {
		return "", fmt.Errorf("%w: %v", model.ErrInvalidImage, err)
	}

	resized, err := s.imageProcessor.Resize(data, coverMaxDim)
	if err != nil {
		return "", fmt.Errorf("%w: %v", model.ErrInvalidImage, err)
	}

	key := fmt.Sprintf("covers/%s/cover.jpg", id)
	url, err := s.minio.Upload(ctx, key, resized, "image/jpeg")
	if err != nil {
		return "", err
	}

	if err := s.repo.UpdateCoverURL(ctx, id, url); err != nil {
		return "", err
	}

	s.invalidateListCache(ctx)

	return url, nil
}

func (s *BookService) invalidateListCache(ctx context.Context) {
	if err := s.cache.DeletePattern(ctx, listCachePattern); err != nil {
		logger.Error("book list cache invalidation failed", err)
	}
}
