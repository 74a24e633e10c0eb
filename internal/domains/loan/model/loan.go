package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type LoanStatus string

const (
	StatusBorrowed LoanStatus = "borrowed"
	StatusReturned LoanStatus = "returned"
	StatusLate     LoanStatus = "late"
)

func (s LoanStatus) IsValid() bool {
	switch s {
	case StatusBorrowed, StatusReturned, StatusLate:
		return true
	}
	return false
}

// IsActive reports whether the loan still holds stock. Both borrowed
// and late loans have the copies out of the building.
func (s LoanStatus) IsActive() bool {
	return s == StatusBorrowed || s == StatusLate
}

type Loan struct {
	ID         uuid.UUID  `json:"id"`
	UserID     uuid.UUID  `json:"user_id"`
	BookID     uuid.UUID  `json:"book_id"`
	Quantity   int        `json:"quantity"`
	BorrowedAt time.Time  `json:"borrowed_at"`
	DueAt      time.Time  `json:"due_at"`
	ReturnedAt *time.Time `json:"returned_at,omitempty"`
	Status     LoanStatus `json:"status"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// EffectiveStatus classifies the loan as of now. A borrowed loan past
// its due date reads as late even before the background sweep has
// persisted the transition, so API reads never show a stale status.
func (l *Loan) EffectiveStatus(now time.Time) LoanStatus {
	if l.Status == StatusBorrowed && now.After(l.DueAt) {
		return StatusLate
	}
	return l.Status
}

// LoanDetail is a loan joined with its borrower and book for list and
// detail reads. LineTotal is book price times quantity.
type LoanDetail struct {
	Loan
	UserName  string          `json:"user_name"`
	UserEmail string          `json:"user_email"`
	BookTitle string          `json:"book_title"`
	BookPrice decimal.Decimal `json:"book_price"`
	LineTotal decimal.Decimal `json:"line_total"`
}
