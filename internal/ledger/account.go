package ledger

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sheikh-saqib/session-bank-ledger/internal/models"
	"github.com/shopspring/decimal"
)

// Labels used when the caller leaves the description empty.
const (
	DefaultDepositDescription  = "Deposit"
	DefaultWithdrawDescription = "Withdrawal"
	DefaultTransferDescription = "Transfer"
)

// Account owns a balance and its append-only transaction history.
// Every mutator either applies fully and returns true, or changes nothing
// and returns false.
type Account struct {
	mu             sync.Mutex
	number         string
	owner          string
	initialBalance decimal.Decimal
	balance        decimal.Decimal
	transactions   []models.Transaction
	clock          func() time.Time
	ledger         *Ledger // registry that created the account
}

func newAccount(l *Ledger, number, owner string, initialBalance decimal.Decimal) *Account {
	return &Account{
		ledger:         l,
		number:         number,
		owner:          owner,
		initialBalance: initialBalance,
		balance:        initialBalance,
		transactions:   make([]models.Transaction, 0),
		clock:          l.clock,
	}
}

func (a *Account) AccountNumber() string { return a.number }

func (a *Account) OwnerName() string { return a.owner }

// InitialBalance is the balance the account was opened with.
func (a *Account) InitialBalance() decimal.Decimal { return a.initialBalance }

func (a *Account) Balance() decimal.Decimal {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.balance
}

// Transactions returns a copy of the history in chronological order.
func (a *Account) Transactions() []models.Transaction {
	a.mu.Lock()
	defer a.mu.Unlock()

	copied := make([]models.Transaction, len(a.transactions))
	copy(copied, a.transactions)
	return copied
}

// Deposit credits a positive amount.
func (a *Account) Deposit(amount decimal.Decimal, description string) bool {
	if !amount.IsPositive() {
		return false
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.credit(amount, orDefault(description, DefaultDepositDescription))
	return true
}

// Withdraw debits a positive amount that does not exceed the balance.
func (a *Account) Withdraw(amount decimal.Decimal, description string) bool {
	if !amount.IsPositive() {
		return false
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if amount.GreaterThan(a.balance) {
		return false
	}
	a.debit(amount, orDefault(description, DefaultWithdrawDescription))
	return true
}

// Transfer moves amount from a to target. Both accounts stay locked while the
// debit and the credit are recorded, so nobody sees one leg without the other.
// The debit is labelled "<description> to <target>", the credit
// "Transfer from <source>". Targets held by another ledger are declined.
func (a *Account) Transfer(amount decimal.Decimal, target *Account, description string) bool {
	if target == nil || target.ledger != a.ledger || !amount.IsPositive() {
		return false
	}

	unlock := lockPair(a, target)
	defer unlock()

	if amount.GreaterThan(a.balance) {
		return false
	}

	description = orDefault(description, DefaultTransferDescription)
	a.debit(amount, description+" to "+target.number)
	target.credit(amount, "Transfer from "+a.number)
	return true
}

// credit and debit expect a.mu to be held.
func (a *Account) credit(amount decimal.Decimal, description string) {
	a.balance = a.balance.Add(amount)
	a.record(amount, description)
}

func (a *Account) debit(amount decimal.Decimal, description string) {
	a.balance = a.balance.Sub(amount)
	a.record(amount.Neg(), description)
}

func (a *Account) record(amount decimal.Decimal, description string) {
	a.transactions = append(a.transactions, models.Transaction{
		ID:           uuid.NewString(),
		Timestamp:    a.clock(),
		Amount:       amount,
		Description:  description,
		BalanceAfter: a.balance,
	})
}

func (a *Account) snapshot() models.AccountSnapshot {
	txs := make([]models.Transaction, len(a.transactions))
	copy(txs, a.transactions)

	return models.AccountSnapshot{
		AccountNumber:  a.number,
		OwnerName:      a.owner,
		InitialBalance: a.initialBalance,
		Balance:        a.balance,
		Transactions:   txs,
	}
}

// lockPair locks both accounts ordered by account number to avoid deadlocks
// and returns the matching unlock. Both accounts belong to one ledger, so
// their numbers differ. A self-transfer takes the lock once.
func lockPair(a, b *Account) func() {
	if a == b {
		a.mu.Lock()
		return a.mu.Unlock
	}

	first, second := a, b
	if b.number < a.number {
		first, second = b, a
	}
	first.mu.Lock()
	second.mu.Lock()

	return func() {
		second.mu.Unlock()
		first.mu.Unlock()
	}
}

func orDefault(description, fallback string) string {
	if description == "" {
		return fallback
	}
	return description
}
