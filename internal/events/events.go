// Package events publishes store lifecycle events.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Type names a store lifecycle event.
type Type string

const (
	StoreCreated     Type = "store.created"
	StoreUpdated     Type = "store.updated"
	StoreDeleted     Type = "store.deleted"
	StoreLogoAdded   Type = "store.logo.added"
	StoreLogoDeleted Type = "store.logo.deleted"
)

// Event is a single store lifecycle notification.
type Event struct {
	ID         string    `json:"id"`
	Type       Type      `json:"type"`
	StoreCode  string    `json:"storeCode"`
	Actor      string    `json:"actor,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

// New builds an Event with a fresh ID and the current time.
func New(t Type, storeCode, actor string) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       t,
		StoreCode:  storeCode,
		Actor:      actor,
		OccurredAt: time.Now().UTC(),
	}
}

// Publisher delivers events to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// NoopPublisher drops every event. Used when no brokers are configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(ctx context.Context, e Event) error { return nil }
func (NoopPublisher) Close() error                               { return nil }
