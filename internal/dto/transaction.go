package dto

import (
	"time"

	"ledgerd/internal/models"

	"github.com/shopspring/decimal"
)

// CreateTransactionRequest is the POST /transactions body. Amount is a
// pointer so an absent field is told apart from an explicit zero.
type CreateTransactionRequest struct {
	Owner    string           `json:"owner"`
	Title    string           `json:"title"`
	Amount   *decimal.Decimal `json:"amount"`
	Category string           `json:"category"`
}

type TransactionResponse struct {
	ID        int64           `json:"id"`
	Owner     string          `json:"owner"`
	Title     string          `json:"title"`
	Amount    decimal.Decimal `json:"amount"`
	Category  string          `json:"category"`
	CreatedAt time.Time       `json:"created_at"`
}

type SummaryResponse struct {
	Balance  decimal.Decimal `json:"balance"`
	Income   decimal.Decimal `json:"income"`
	Expenses decimal.Decimal `json:"expenses"`
}

type DeleteTransactionResponse struct {
	Deleted bool  `json:"deleted"`
	ID      int64 `json:"id"`
}

// ErrorResponse carries a human-readable message plus a machine-readable
// kind (validation, not_found, rate_limited, limiter_unavailable,
// store_unavailable, internal).
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

func NewTransactionResponse(tx *models.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:        tx.ID,
		Owner:     tx.Owner,
		Title:     tx.Title,
		Amount:    tx.Amount,
		Category:  tx.Category,
		CreatedAt: tx.CreatedAt,
	}
}

func NewTransactionListResponse(txs []*models.Transaction) []TransactionResponse {
	out := make([]TransactionResponse, 0, len(txs))
	for _, tx := range txs {
		out = append(out, NewTransactionResponse(tx))
	}
	return out
}

func NewSummaryResponse(s *models.Summary) SummaryResponse {
	return SummaryResponse{
		Balance:  s.Balance,
		Income:   s.Income,
		Expenses: s.Expenses,
	}
}
