package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// TxRunner abstracts transaction execution so services that compose
// multiple repository calls into one transaction can be tested
// without a live pool.
type TxRunner interface {
	WithTx(ctx context.Context, fn TxFunc) error
}

type poolRunner struct {
	pool *pgxpool.Pool
}

func NewPoolRunner(pool *pgxpool.Pool) TxRunner {
	return &poolRunner{pool: pool}
}

func (r *poolRunner) WithTx(ctx context.Context, fn TxFunc) error {
	return WithTransaction(ctx, r.pool, fn)
}
