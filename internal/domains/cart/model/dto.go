package model

import (
	"errors"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
)

// maxCheckoutLines bounds one checkout batch.
const maxCheckoutLines = 20

type CheckoutLine struct {
	BookID   uuid.UUID `json:"book_id"`
	Quantity int       `json:"quantity"`
}

type CheckoutRequest struct {
	UserID     uuid.UUID      `json:"user_id"`
	BorrowedAt time.Time      `json:"borrowed_at"`
	DueAt      time.Time      `json:"due_at"`
	Lines      []CheckoutLine `json:"lines"`
}

func (r CheckoutRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.UserID, validation.Required),
		validation.Field(&r.BorrowedAt, validation.Required),
		validation.Field(&r.DueAt, validation.Required, validation.By(func(any) error {
			if !r.DueAt.After(r.BorrowedAt) {
				return errors.New("must be after borrowed_at")
			}
			return nil
		})),
		validation.Field(&r.Lines, validation.Required, validation.Length(1, maxCheckoutLines)),
	)
}

// Line outcomes. A line that fails does not abort the batch; the
// client reads the outcome per line.
const (
	OutcomeCreated           = "created"
	OutcomeInvalidInput      = "invalid_input"
	OutcomeNotFound          = "not_found"
	OutcomeInsufficientStock = "insufficient_stock"
)

type LineResult struct {
	BookID   uuid.UUID  `json:"book_id"`
	Quantity int        `json:"quantity"`
	Outcome  string     `json:"outcome"`
	LoanID   *uuid.UUID `json:"loan_id,omitempty"`
	// Available is how many copies were left when a line was rejected
	// for stock.
	Available *int   `json:"available,omitempty"`
	Message   string `json:"message,omitempty"`
}

type CheckoutResult struct {
	Created int          `json:"created"`
	Lines   []LineResult `json:"lines"`
}
