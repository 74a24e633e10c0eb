package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// Book represents an owned title in the catalog. Stock counts owned
// copies and is independent of loan state; how many are free to borrow
// is always derived, never stored.
type Book struct {
	ID       uuid.UUID       `json:"id" db:"id"`
	Title    string          `json:"title" db:"title"`
	Author   *string         `json:"author" db:"author"`
	CoverURL *string         `json:"cover_url" db:"cover_url"`
	Images   pq.StringArray  `json:"images" db:"images"`
	Stock    int             `json:"stock" db:"stock"`
	Price    decimal.Decimal `json:"price" db:"price"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// BookWithAvailability is a catalog row decorated with the computed
// fields sourced from the loan table at query time.
type BookWithAvailability struct {
	Book
	Borrowed  int `json:"borrowed"`
	Available int `json:"available"`
}
