package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is one recorded balance change on an account.
// Positive amounts are credits, negative amounts are debits.
type Transaction struct {
	ID           string          `json:"id"`
	Timestamp    time.Time       `json:"timestamp"`
	Amount       decimal.Decimal `json:"amount"`
	Description  string          `json:"description"`
	BalanceAfter decimal.Decimal `json:"balance_after"` // running balance including Amount
}

// IsCredit reports whether the transaction increased the balance.
func (t Transaction) IsCredit() bool {
	return t.Amount.IsPositive()
}
