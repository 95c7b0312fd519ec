package session

import (
	"slices"

	"github.com/shopspring/decimal"

	"github.com/sheikh-saqib/session-bank-ledger/internal/ledger"
	"github.com/sheikh-saqib/session-bank-ledger/internal/models"
)

// AccountView is a read-only copy of an account for rendering.
type AccountView struct {
	AccountNumber string               `json:"account_number"`
	OwnerName     string               `json:"owner_name"`
	Balance       decimal.Decimal      `json:"balance"`
	Transactions  []models.Transaction `json:"transactions,omitempty"` // most recent first
}

// View is everything the presentation layer needs after one operation.
// Error is set when the operation was declined; nothing changed then.
type View struct {
	SessionID string        `json:"session_id"`
	Accounts  []AccountView `json:"accounts"`
	Current   *AccountView  `json:"current,omitempty"`
	Message   string        `json:"message,omitempty"`
	Error     string        `json:"error,omitempty"`
}

func (st *state) view(sessionID string) View {
	v := View{SessionID: sessionID}

	for _, account := range st.ledger.ListAccounts() {
		v.Accounts = append(v.Accounts, AccountView{
			AccountNumber: account.AccountNumber(),
			OwnerName:     account.OwnerName(),
			Balance:       account.Balance(),
		})
	}

	if account, ok := st.currentAccount(); ok {
		cur := accountView(account)
		v.Current = &cur
	}
	return v
}

func accountView(account *ledger.Account) AccountView {
	txs := account.Transactions()
	slices.Reverse(txs)

	return AccountView{
		AccountNumber: account.AccountNumber(),
		OwnerName:     account.OwnerName(),
		Balance:       account.Balance(),
		Transactions:  txs,
	}
}
