package models

import "github.com/shopspring/decimal"

// AccountSnapshot is the serializable state of a single account
type AccountSnapshot struct {
	AccountNumber  string          `json:"account_number"`
	OwnerName      string          `json:"owner_name"`
	InitialBalance decimal.Decimal `json:"initial_balance"`
	Balance        decimal.Decimal `json:"balance"`
	Transactions   []Transaction   `json:"transactions"`
}

// LedgerSnapshot holds every account in creation order.
type LedgerSnapshot struct {
	Accounts []AccountSnapshot `json:"accounts"`
}

// SessionState is what gets persisted per user session: the ledger plus
// the account the session is currently acting as.
type SessionState struct {
	Ledger         LedgerSnapshot `json:"ledger"`
	CurrentAccount string         `json:"current_account,omitempty"`
}
