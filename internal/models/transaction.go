package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is a single ledger entry. The id is assigned by the store,
// monotonically, and never reused after a delete. Amount is positive for
// income and negative for expenses.
type Transaction struct {
	ID        int64           `db:"id"`
	Owner     string          `db:"owner"`
	Title     string          `db:"title"`
	Amount    decimal.Decimal `db:"amount"`
	Category  string          `db:"category"`
	CreatedAt time.Time       `db:"created_at"`
}

// Summary aggregates all transactions of one owner. Expenses keep their
// negative sign, so Balance = Income + Expenses always holds; callers that
// want a positive magnitude take the absolute value at presentation time.
type Summary struct {
	Balance  decimal.Decimal
	Income   decimal.Decimal
	Expenses decimal.Decimal
}

// ValidationError reports the first missing or invalid input field. It is
// raised before any store access.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing or invalid field: %s", e.Field)
}

// Validate checks the client-settable fields of a transaction.
func (t *Transaction) Validate() error {
	if strings.TrimSpace(t.Owner) == "" {
		return &ValidationError{Field: "owner"}
	}
	if strings.TrimSpace(t.Title) == "" {
		return &ValidationError{Field: "title"}
	}
	if strings.TrimSpace(t.Category) == "" {
		return &ValidationError{Field: "category"}
	}
	return nil
}
