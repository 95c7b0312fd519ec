package ledger

import (
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// Ledger is the registry of accounts keyed by account number.
// Account numbers are unique and never reused.
type Ledger struct {
	mu       sync.RWMutex
	accounts map[string]*Account
	order    []string // creation order, drives ListAccounts
	clock    func() time.Time
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithClock overrides the time source used to stamp transactions.
func WithClock(clock func() time.Time) Option {
	return func(l *Ledger) {
		if clock != nil {
			l.clock = clock
		}
	}
}

// NewLedger creates an empty ledger.
func NewLedger(opts ...Option) *Ledger {
	l := &Ledger{
		accounts: make(map[string]*Account),
		order:    make([]string, 0),
		clock:    time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// CreateAccount opens an account with an empty history. It returns false
// when the number is empty or taken, or when initialBalance is negative.
func (l *Ledger) CreateAccount(accountNumber, ownerName string, initialBalance decimal.Decimal) bool {
	if accountNumber == "" || initialBalance.IsNegative() {
		return false
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.accounts[accountNumber]; exists {
		return false
	}

	l.accounts[accountNumber] = newAccount(l, accountNumber, ownerName, initialBalance)
	l.order = append(l.order, accountNumber)
	return true
}

// GetAccount looks up an account by number.
func (l *Ledger) GetAccount(accountNumber string) (*Account, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	account, ok := l.accounts[accountNumber]
	return account, ok
}

// ListAccounts returns all accounts in the order they were created.
func (l *Ledger) ListAccounts() []*Account {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]*Account, 0, len(l.order))
	for _, number := range l.order {
		out = append(out, l.accounts[number])
	}
	return out
}

// lockAll takes every account lock in account-number order, the same order
// Transfer uses, so a snapshot never sees half of a transfer.
func (l *Ledger) lockAll() func() {
	numbers := make([]string, len(l.order))
	copy(numbers, l.order)
	sort.Strings(numbers)

	for _, number := range numbers {
		l.accounts[number].mu.Lock()
	}

	return func() {
		for i := len(numbers) - 1; i >= 0; i-- {
			l.accounts[numbers[i]].mu.Unlock()
		}
	}
}
