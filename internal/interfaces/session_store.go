package interfaces

import (
	"context"

	"github.com/sheikh-saqib/session-bank-ledger/internal/models"
)

// SessionStore keeps one ledger snapshot per user session.
// Load reports a missing or expired session with found == false and a nil error.
type SessionStore interface {
	Load(ctx context.Context, sessionID string) (state models.SessionState, found bool, err error)
	Save(ctx context.Context, sessionID string, state models.SessionState) error
	Delete(ctx context.Context, sessionID string) error
}
