package model_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"library-backend/internal/domains/loan/model"
)

func TestEffectiveStatus(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name     string
		status   model.LoanStatus
		dueAt    time.Time
		expected model.LoanStatus
	}{
		{"borrowed before due date", model.StatusBorrowed, now.Add(24 * time.Hour), model.StatusBorrowed},
		{"borrowed past due date reads late", model.StatusBorrowed, now.Add(-time.Minute), model.StatusLate},
		{"returned stays returned even past due", model.StatusReturned, now.Add(-24 * time.Hour), model.StatusReturned},
		{"persisted late stays late", model.StatusLate, now.Add(-24 * time.Hour), model.StatusLate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loan := &model.Loan{Status: tt.status, DueAt: tt.dueAt}
			assert.Equal(t, tt.expected, loan.EffectiveStatus(now))
		})
	}
}

func TestStatusIsActive(t *testing.T) {
	assert.True(t, model.StatusBorrowed.IsActive())
	assert.True(t, model.StatusLate.IsActive())
	assert.False(t, model.StatusReturned.IsActive())
}

func TestCreateLoanRequestValidate(t *testing.T) {
	valid := func() model.CreateLoanRequest {
		return model.CreateLoanRequest{
			UserID:     uuid.New(),
			BookID:     uuid.New(),
			Quantity:   1,
			BorrowedAt: time.Now(),
			DueAt:      time.Now().Add(14 * 24 * time.Hour),
		}
	}

	assert.NoError(t, valid().Validate())

	req := valid()
	req.Quantity = 0
	assert.NoError(t, req.Validate(), "omitted quantity is defaulted, not rejected")

	req = valid()
	req.Quantity = -1
	assert.Error(t, req.Validate())

	req = valid()
	req.DueAt = req.BorrowedAt.Add(-time.Hour)
	assert.Error(t, req.Validate(), "due date must be after borrow date")

	req = valid()
	req.DueAt = req.BorrowedAt
	assert.Error(t, req.Validate(), "equal dates are rejected")
}

func TestListLoansRequestValidate(t *testing.T) {
	req := model.ListLoansRequest{Page: 1, PerPage: 20, Sort: "newest"}
	assert.NoError(t, req.Validate())

	req.Sort = "'; DROP TABLE loans; --"
	assert.Error(t, req.Validate())

	req.Sort = "newest"
	req.Status = "lost"
	assert.Error(t, req.Validate())
}
