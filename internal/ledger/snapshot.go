package ledger

import (
	"errors"
	"fmt"

	"github.com/sheikh-saqib/session-bank-ledger/internal/models"
)

// ErrCorruptSnapshot is returned by Restore when a snapshot violates a ledger invariant.
var ErrCorruptSnapshot = errors.New("corrupt ledger snapshot")

// Snapshot captures the whole ledger in creation order.
func (l *Ledger) Snapshot() models.LedgerSnapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()

	unlock := l.lockAll()
	defer unlock()

	snap := models.LedgerSnapshot{Accounts: make([]models.AccountSnapshot, 0, len(l.order))}
	for _, number := range l.order {
		snap.Accounts = append(snap.Accounts, l.accounts[number].snapshot())
	}
	return snap
}

// Restore rebuilds a ledger from a snapshot. Every account history is replayed
// from its initial balance; a snapshot whose recorded balances do not add up,
// go negative or repeat an account number is rejected with ErrCorruptSnapshot.
func Restore(snap models.LedgerSnapshot, opts ...Option) (*Ledger, error) {
	l := NewLedger(opts...)

	for _, as := range snap.Accounts {
		if err := verifyAccount(as); err != nil {
			return nil, err
		}
		if !l.CreateAccount(as.AccountNumber, as.OwnerName, as.InitialBalance) {
			return nil, fmt.Errorf("%w: account %q cannot be created", ErrCorruptSnapshot, as.AccountNumber)
		}

		account := l.accounts[as.AccountNumber]
		account.balance = as.Balance
		account.transactions = append(account.transactions, as.Transactions...)
	}
	return l, nil
}

func verifyAccount(as models.AccountSnapshot) error {
	running := as.InitialBalance
	for i, tx := range as.Transactions {
		running = running.Add(tx.Amount)
		if running.IsNegative() {
			return fmt.Errorf("%w: account %q goes negative at transaction %d", ErrCorruptSnapshot, as.AccountNumber, i)
		}
		if !running.Equal(tx.BalanceAfter) {
			return fmt.Errorf("%w: account %q transaction %d records balance %s, replay gives %s",
				ErrCorruptSnapshot, as.AccountNumber, i, tx.BalanceAfter, running)
		}
	}
	if !running.Equal(as.Balance) {
		return fmt.Errorf("%w: account %q balance %s does not match history %s",
			ErrCorruptSnapshot, as.AccountNumber, as.Balance, running)
	}
	return nil
}
