package events

import (
	"time"

	"github.com/shopspring/decimal"
)

type Kind string

const (
	KindDeposit  Kind = "deposit"
	KindWithdraw Kind = "withdraw"
	KindTransfer Kind = "transfer"
)

// TransactionCompleted is emitted after a money movement was applied to a
// session's ledger. FromAccount is empty for deposits, ToAccount for withdrawals.
type TransactionCompleted struct {
	EventID     string          `json:"event_id"`
	Kind        Kind            `json:"kind"`
	SessionID   string          `json:"session_id"`
	FromAccount string          `json:"from_account,omitempty"`
	ToAccount   string          `json:"to_account,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description,omitempty"`
	OccurredAt  time.Time       `json:"occurred_at"`
}

// Key picks the account used for partitioning so events of one account stay ordered.
func (e TransactionCompleted) Key() string {
	if e.FromAccount != "" {
		return e.FromAccount
	}
	return e.ToAccount
}
