// Package container wires the dependency graph: config, then
// infrastructure, then repositories, services and handlers. Both the
// API and the worker build from here so they share one wiring.
package container

import (
	"context"
	"fmt"
	"time"

	"library-backend/internal/config"
	bookHandler "library-backend/internal/domains/book/handler"
	bookRepo "library-backend/internal/domains/book/repository"
	bookService "library-backend/internal/domains/book/service"
	cartHandler "library-backend/internal/domains/cart/handler"
	cartService "library-backend/internal/domains/cart/service"
	"library-backend/internal/domains/ledger"
	loanHandler "library-backend/internal/domains/loan/handler"
	loanRepo "library-backend/internal/domains/loan/repository"
	loanService "library-backend/internal/domains/loan/service"
	userHandler "library-backend/internal/domains/user/handler"
	userRepo "library-backend/internal/domains/user/repository"
	userService "library-backend/internal/domains/user/service"
	infraCache "library-backend/internal/infrastructure/cache"
	"library-backend/internal/infrastructure/database"
	"library-backend/internal/infrastructure/storage"
	"library-backend/pkg/cache"
	pkgdatabase "library-backend/pkg/database"
	"library-backend/pkg/jwt"
	"library-backend/pkg/logger"
)

type Container struct {
	Config     *config.Config
	DB         *database.PostgresDB
	Cache      cache.Cache
	JWTManager *jwt.Manager
	Storage    *storage.MinIOStorage

	BookRepo bookRepo.RepositoryInterface
	LoanRepo loanRepo.RepositoryInterface
	UserRepo userRepo.RepositoryInterface

	BookService     bookService.ServiceInterface
	LoanService     loanService.ServiceInterface
	CheckoutService cartService.ServiceInterface
	UserService     userService.ServiceInterface

	BookHandler     *bookHandler.Handler
	LoanHandler     *loanHandler.Handler
	CheckoutHandler *cartHandler.Handler
	AuthHandler     *userHandler.AuthHandler
	UserHandler     *userHandler.UserHandler
	RoleHandler     *userHandler.RoleHandler
}

func NewContainer() (*Container, error) {
	c := &Container{}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	c.Config = cfg
	logger.Init(cfg.App.Environment)

	if err := c.initInfrastructure(); err != nil {
		return nil, err
	}

	c.initRepositories()
	c.initServices()
	c.initHandlers()

	logger.Info("container initialized", map[string]interface{}{
		"environment": cfg.App.Environment,
	})
	return c, nil
}

func (c *Container) initInfrastructure() error {
	dbConfig, err := config.LoadDatabaseConfig()
	if err != nil {
		return fmt.Errorf("failed to load database config: %w", err)
	}

	c.DB = database.NewPostgresDB(dbConfig)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := c.DB.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	redisCache := infraCache.NewRedisCache(
		c.Config.Redis.Host, c.Config.Redis.Password, c.Config.Redis.DB)
	if err := redisCache.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	c.Cache = redisCache

	c.JWTManager = jwt.NewManager(
		c.Config.JWT.Secret,
		c.Config.JWT.AccessTokenExpiry,
		c.Config.JWT.RefreshTokenExpiry,
	)

	c.Storage, err = storage.NewMinIOStorage(c.Config.MinIO)
	if err != nil {
		return fmt.Errorf("failed to initialize object storage: %w", err)
	}

	return nil
}

func (c *Container) initRepositories() {
	c.BookRepo = bookRepo.NewPostgresRepository(c.DB.Pool)
	c.LoanRepo = loanRepo.NewPostgresRepository(c.DB.Pool)
	c.UserRepo = userRepo.NewPostgresRepository(c.DB.Pool)
}

func (c *Container) initServices() {
	txRunner := pkgdatabase.NewPoolRunner(c.DB.Pool)
	stockLedger := ledger.NewLedger()
	imageProcessor := storage.NewImageProcessor()

	c.BookService = bookService.NewService(c.BookRepo, txRunner, stockLedger, c.Cache, c.Storage, imageProcessor)
	c.LoanService = loanService.NewService(c.LoanRepo, txRunner, stockLedger, c.Cache)
	c.CheckoutService = cartService.NewService(c.LoanRepo, txRunner, stockLedger, c.Cache)
	c.UserService = userService.NewService(c.UserRepo, c.JWTManager, c.Storage, imageProcessor)
}

func (c *Container) initHandlers() {
	c.BookHandler = bookHandler.NewHandler(c.BookService)
	c.LoanHandler = loanHandler.NewHandler(c.LoanService)
	c.CheckoutHandler = cartHandler.NewHandler(c.CheckoutService)
	c.AuthHandler = userHandler.NewAuthHandler(c.UserService)
	c.UserHandler = userHandler.NewUserHandler(c.UserService)
	c.RoleHandler = userHandler.NewRoleHandler(c.UserService)
}

// Cleanup releases infrastructure connections in reverse order of
// initialization.
func (c *Container) Cleanup() {
	if closer, ok := c.Cache.(interface{ Close() error }); ok && closer != nil {
		if err := closer.Close(); err != nil {
			logger.Error("failed to close cache", err)
		}
	}
	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			logger.Error("failed to close database", err)
		}
	}
}
