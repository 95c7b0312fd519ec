// Package session runs ledger operations on behalf of a user session.
//
// Each call loads the session's ledger snapshot from the store, applies one
// operation through the ledger package, persists the snapshot if anything
// changed and returns a View for rendering. Calls for the same session are
// serialized; different sessions never share state.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/sheikh-saqib/session-bank-ledger/internal/events"
	interfaces "github.com/sheikh-saqib/session-bank-ledger/internal/interfaces"
	"github.com/sheikh-saqib/session-bank-ledger/internal/ledger"
	"github.com/sheikh-saqib/session-bank-ledger/internal/models"
	ledgerevents "github.com/sheikh-saqib/session-bank-ledger/internal/models/events"
)

// User-facing outcomes.
const (
	MsgLoggedIn          = "Logged in."
	MsgLoggedOut         = "Logged out."
	MsgDepositDone       = "Deposit completed successfully."
	MsgWithdrawDone      = "Withdrawal completed successfully."
	MsgTransferDone      = "Transfer completed successfully."
	ErrMsgUnknownAccount = "No account found with the given number."
	ErrMsgDeposit        = "Deposit could not be completed."
	ErrMsgWithdraw       = "Withdrawal could not be completed."
	ErrMsgTransfer       = "Transfer could not be completed."
)

// SeedAccount is an account opened in every new session.
type SeedAccount struct {
	Number  string
	Owner   string
	Balance decimal.Decimal
}

// DefaultSeed mirrors the demo bank every fresh session starts with.
var DefaultSeed = []SeedAccount{
	{Number: "12345678", Owner: "Jan Kowalski", Balance: decimal.NewFromInt(5000)},
	{Number: "87654321", Owner: "Anna Nowak", Balance: decimal.NewFromInt(7500)},
	{Number: "13579246", Owner: "Piotr Wiśniewski", Balance: decimal.NewFromInt(2500)},
}

type Service struct {
	store     interfaces.SessionStore
	publisher interfaces.EventPublisher
	logger    *zap.Logger
	seed      []SeedAccount
	clock     func() time.Time

	muMap map[string]*sync.Mutex // one mutex per session id
	mapMu sync.Mutex             // protects muMap
}

type Option func(*Service)

func WithPublisher(p interfaces.EventPublisher) Option {
	return func(s *Service) { s.publisher = p }
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithSeed replaces the accounts opened in new sessions.
func WithSeed(seed []SeedAccount) Option {
	return func(s *Service) { s.seed = seed }
}

func WithClock(clock func() time.Time) Option {
	return func(s *Service) { s.clock = clock }
}

func NewService(store interfaces.SessionStore, opts ...Option) *Service {
	s := &Service{
		store:     store,
		publisher: events.Discard{},
		logger:    zap.NewNop(),
		seed:      DefaultSeed,
		clock:     time.Now,
		muMap:     make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewSessionID returns a fresh random session identifier.
func NewSessionID() string {
	return uuid.NewString()
}

// Open returns the current view of a session, seeding it on first use.
func (s *Service) Open(ctx context.Context, sessionID string) (View, error) {
	return s.apply(ctx, sessionID, "open", func(*state) outcome {
		return outcome{}
	})
}

// Login makes accountNumber the acting account of the session.
func (s *Service) Login(ctx context.Context, sessionID, accountNumber string) (View, error) {
	return s.apply(ctx, sessionID, "login", func(st *state) outcome {
		if _, ok := st.ledger.GetAccount(accountNumber); !ok {
			return declined(ErrMsgUnknownAccount)
		}
		st.current = accountNumber
		return outcome{changed: true, message: MsgLoggedIn}
	})
}

func (s *Service) Logout(ctx context.Context, sessionID string) (View, error) {
	return s.apply(ctx, sessionID, "logout", func(st *state) outcome {
		if st.current == "" {
			return outcome{}
		}
		st.current = ""
		return outcome{changed: true, message: MsgLoggedOut}
	})
}

func (s *Service) Deposit(ctx context.Context, sessionID string, amount decimal.Decimal, description string) (View, error) {
	return s.apply(ctx, sessionID, "deposit", func(st *state) outcome {
		account, ok := st.currentAccount()
		if !ok || !account.Deposit(amount, description) {
			return declined(ErrMsgDeposit)
		}
		return moved(MsgDepositDone, s.event(sessionID, ledgerevents.KindDeposit, "", account.AccountNumber(), amount, account))
	})
}

func (s *Service) Withdraw(ctx context.Context, sessionID string, amount decimal.Decimal, description string) (View, error) {
	return s.apply(ctx, sessionID, "withdraw", func(st *state) outcome {
		account, ok := st.currentAccount()
		if !ok || !account.Withdraw(amount, description) {
			return declined(ErrMsgWithdraw)
		}
		return moved(MsgWithdrawDone, s.event(sessionID, ledgerevents.KindWithdraw, account.AccountNumber(), "", amount, account))
	})
}

// Transfer moves money from the session's current account to target.
func (s *Service) Transfer(ctx context.Context, sessionID, target string, amount decimal.Decimal, description string) (View, error) {
	return s.apply(ctx, sessionID, "transfer", func(st *state) outcome {
		source, ok := st.currentAccount()
		if !ok {
			return declined(ErrMsgTransfer)
		}
		dest, ok := st.ledger.GetAccount(target)
		if !ok || !source.Transfer(amount, dest, description) {
			return declined(ErrMsgTransfer)
		}
		return moved(MsgTransferDone, s.event(sessionID, ledgerevents.KindTransfer, source.AccountNumber(), dest.AccountNumber(), amount, source))
	})
}

// Reset drops the session's snapshot; the next call starts from the seed again.
func (s *Service) Reset(ctx context.Context, sessionID string) error {
	mu := s.sessionLock(sessionID)
	mu.Lock()
	defer mu.Unlock()

	if err := s.store.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("delete session %s: %w", sessionID, err)
	}
	s.logger.Info("session reset", zap.String("session_id", sessionID))
	return nil
}

type state struct {
	ledger  *ledger.Ledger
	current string
	seeded  bool
}

func (st *state) currentAccount() (*ledger.Account, bool) {
	if st.current == "" {
		return nil, false
	}
	return st.ledger.GetAccount(st.current)
}

type outcome struct {
	changed bool
	message string
	failure string
	events  []ledgerevents.TransactionCompleted
}

func declined(failure string) outcome {
	return outcome{failure: failure}
}

func moved(message string, ev ledgerevents.TransactionCompleted) outcome {
	return outcome{changed: true, message: message, events: []ledgerevents.TransactionCompleted{ev}}
}

// apply is the load, mutate, persist cycle shared by every operation.
func (s *Service) apply(ctx context.Context, sessionID, op string, fn func(*state) outcome) (View, error) {
	mu := s.sessionLock(sessionID)
	mu.Lock()
	defer mu.Unlock()

	logger := s.logger.With(zap.String("session_id", sessionID), zap.String("op", op))

	st, err := s.load(ctx, sessionID)
	if err != nil {
		logger.Error("load session failed", zap.Error(err))
		return View{}, err
	}

	out := fn(st)

	if out.changed || st.seeded {
		if err := s.store.Save(ctx, sessionID, st.persisted()); err != nil {
			logger.Error("save session failed", zap.Error(err))
			return View{}, fmt.Errorf("save session %s: %w", sessionID, err)
		}
	}

	switch {
	case out.failure != "":
		logger.Info("operation declined", zap.String("reason", out.failure))
	case out.changed:
		logger.Info("operation applied", zap.String("current_account", st.current))
	}

	for _, ev := range out.events {
		if err := s.publisher.Publish(ctx, ev.Key(), ev); err != nil {
			logger.Warn("publish event failed", zap.String("event_id", ev.EventID), zap.Error(err))
		}
	}

	view := st.view(sessionID)
	view.Message = out.message
	view.Error = out.failure
	return view, nil
}

func (s *Service) load(ctx context.Context, sessionID string) (*state, error) {
	saved, found, err := s.store.Load(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", sessionID, err)
	}

	if !found {
		l := ledger.NewLedger(ledger.WithClock(s.clock))
		for _, acc := range s.seed {
			if !l.CreateAccount(acc.Number, acc.Owner, acc.Balance) {
				return nil, fmt.Errorf("seed account %q rejected", acc.Number)
			}
		}
		return &state{ledger: l, seeded: true}, nil
	}

	l, err := ledger.Restore(saved.Ledger, ledger.WithClock(s.clock))
	if err != nil {
		return nil, fmt.Errorf("restore session %s: %w", sessionID, err)
	}

	st := &state{ledger: l, current: saved.CurrentAccount}
	if _, ok := st.currentAccount(); !ok {
		st.current = ""
	}
	return st, nil
}

func (st *state) persisted() models.SessionState {
	return models.SessionState{
		Ledger:         st.ledger.Snapshot(),
		CurrentAccount: st.current,
	}
}

// event describes a money movement; recorded is the account whose latest
// transaction supplies the description and timestamp.
func (s *Service) event(sessionID string, kind ledgerevents.Kind, from, to string, amount decimal.Decimal, recorded *ledger.Account) ledgerevents.TransactionCompleted {
	ev := ledgerevents.TransactionCompleted{
		EventID:     uuid.NewString(),
		Kind:        kind,
		SessionID:   sessionID,
		FromAccount: from,
		ToAccount:   to,
		Amount:      amount,
		OccurredAt:  s.clock(),
	}
	if txs := recorded.Transactions(); len(txs) > 0 {
		last := txs[len(txs)-1]
		ev.Description = last.Description
		ev.OccurredAt = last.Timestamp
	}
	return ev
}

func (s *Service) sessionLock(sessionID string) *sync.Mutex {
	s.mapMu.Lock()
	defer s.mapMu.Unlock()

	if _, exists := s.muMap[sessionID]; !exists {
		s.muMap[sessionID] = &sync.Mutex{}
	}
	return s.muMap[sessionID]
}
