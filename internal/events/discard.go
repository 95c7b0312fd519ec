// Package events holds publishers that don't need a broker.
package events

import (
	"context"

	interfaces "github.com/sheikh-saqib/session-bank-ledger/internal/interfaces"
)

// Discard drops every event. Used when no Kafka brokers are configured.
type Discard struct{}

func (Discard) Publish(context.Context, string, any) error { return nil }

var _ interfaces.EventPublisher = Discard{}
