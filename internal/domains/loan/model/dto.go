package model

import (
	"errors"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
)

// allowedLoanSorts whitelists sort keys so user input never reaches
// the ORDER BY clause directly.
var allowedLoanSorts = map[string]string{
	"newest":   "l.borrowed_at DESC",
	"oldest":   "l.borrowed_at ASC",
	"due_asc":  "l.due_at ASC",
	"due_desc": "l.due_at DESC",
	"title":    "b.title ASC",
}

type ListLoansRequest struct {
	Page    int
	PerPage int
	Search  string
	Sort    string
	// UserID scopes the list to one borrower. Non-admin callers are
	// always scoped to themselves.
	UserID *uuid.UUID
	// Status filters on effective status, computed as of now.
	Status string
}

func (r *ListLoansRequest) OrderBy() (string, bool) {
	clause, ok := allowedLoanSorts[r.Sort]
	return clause, ok
}

func (r *ListLoansRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Page, validation.Min(1)),
		validation.Field(&r.PerPage, validation.Min(1), validation.Max(100)),
		validation.Field(&r.Sort, validation.By(func(any) error {
			if _, ok := allowedLoanSorts[r.Sort]; !ok {
				return ErrInvalidSort
			}
			return nil
		})),
		validation.Field(&r.Status, validation.By(func(any) error {
			if r.Status != "" && !LoanStatus(r.Status).IsValid() {
				return errors.New("must be one of borrowed, returned, late")
			}
			return nil
		})),
	)
}

type CreateLoanRequest struct {
	UserID     uuid.UUID `json:"user_id"`
	BookID     uuid.UUID `json:"book_id"`
	Quantity   int       `json:"quantity"`
	BorrowedAt time.Time `json:"borrowed_at"`
	DueAt      time.Time `json:"due_at"`
}

// Validate checks the request. A zero Quantity is allowed here; the
// service defaults it to 1 before validating, so only explicit
// negatives fail the minimum.
func (r CreateLoanRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.UserID, validation.Required),
		validation.Field(&r.BookID, validation.Required),
		validation.Field(&r.Quantity, validation.Min(1)),
		validation.Field(&r.BorrowedAt, validation.Required),
		validation.Field(&r.DueAt, validation.Required, validation.By(func(any) error {
			if !r.DueAt.After(r.BorrowedAt) {
				return errors.New("must be after borrowed_at")
			}
			return nil
		})),
	)
}

// UpdateLoanRequest carries the administratively editable fields. Nil
// means leave unchanged.
type UpdateLoanRequest struct {
	Quantity *int       `json:"quantity,omitempty"`
	DueAt    *time.Time `json:"due_at,omitempty"`
	Status   *string    `json:"status,omitempty"`
}

func (r UpdateLoanRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Quantity, validation.Min(1)),
		validation.Field(&r.Status, validation.By(func(any) error {
			if r.Status != nil && !LoanStatus(*r.Status).IsValid() {
				return errors.New("must be one of borrowed, returned, late")
			}
			return nil
		})),
	)
}

type DeleteLoanResponse struct {
	ID uuid.UUID `json:"id"`
}
