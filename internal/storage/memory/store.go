package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	interfaces "github.com/sheikh-saqib/session-bank-ledger/internal/interfaces"
	"github.com/sheikh-saqib/session-bank-ledger/internal/models"
)

// MemorySessionStore keeps session snapshots in process memory. Entries
// expire after ttl of inactivity; every Save restarts the clock.
type MemorySessionStore struct {
	sessions *cache.Cache
	ttl      time.Duration
}

// NewMemorySessionStore creates a store whose entries live for ttl.
// Expired entries are swept every ttl/2.
func NewMemorySessionStore(ttl time.Duration) *MemorySessionStore {
	return &MemorySessionStore{
		sessions: cache.New(ttl, ttl/2),
		ttl:      ttl,
	}
}

// Save stores an encoded copy so later changes to state's slices by the
// caller can't reach the stored snapshot.
func (m *MemorySessionStore) Save(ctx context.Context, sessionID string, state models.SessionState) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", sessionID, err)
	}

	m.sessions.Set(sessionID, data, m.ttl)
	return nil
}

func (m *MemorySessionStore) Load(ctx context.Context, sessionID string) (models.SessionState, bool, error) {
	var state models.SessionState
	if err := ctx.Err(); err != nil {
		return state, false, err
	}

	raw, ok := m.sessions.Get(sessionID)
	if !ok {
		return state, false, nil
	}

	if err := json.Unmarshal(raw.([]byte), &state); err != nil {
		return models.SessionState{}, false, fmt.Errorf("decode session %s: %w", sessionID, err)
	}
	return state, true, nil
}

func (m *MemorySessionStore) Delete(ctx context.Context, sessionID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.sessions.Delete(sessionID)
	return nil
}

// Len reports how many live sessions are held. Useful in tests.
func (m *MemorySessionStore) Len() int {
	return m.sessions.ItemCount()
}

// Compile-time check: ensure MemorySessionStore implements SessionStore interface
var _ interfaces.SessionStore = (*MemorySessionStore)(nil)
