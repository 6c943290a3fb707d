// Package events publishes lifecycle changes after they commit. Delivery is
// best effort: a failed publish is logged by the caller and never undoes the
// change it describes.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	OrderCreated          Type = "order.created"
	OrderStatusChanged    Type = "order.status_changed"
	OrderPaymentRecorded  Type = "order.payment_recorded"
	ReturnRequested       Type = "return.requested"
	ReturnStatusChanged   Type = "return.status_changed"
	ReturnTicketChanged   Type = "return.ticket_status_changed"
	WarrantyRequested     Type = "warranty.requested"
	WarrantyStatusChanged Type = "warranty.status_changed"
	WarrantyTicketChanged Type = "warranty.ticket_status_changed"
	PurchaseOrderReceived Type = "purchase_order.received"
)

// Event is the envelope written to the lifecycle topic, keyed by AggregateID.
type Event struct {
	ID          string    `json:"id"`
	Type        Type      `json:"type"`
	AggregateID string    `json:"aggregate_id"`
	UserID      string    `json:"user_id,omitempty"`
	Status      string    `json:"status,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
	Payload     any       `json:"payload,omitempty"`
}

// New stamps an event with a fresh id and the current time.
func New(typ Type, aggregateID, userID, status string, payload any) Event {
	return Event{
		ID:          uuid.NewString(),
		Type:        typ,
		AggregateID: aggregateID,
		UserID:      userID,
		Status:      status,
		OccurredAt:  time.Now().UTC(),
		Payload:     payload,
	}
}

type Publisher interface {
	Publish(ctx context.Context, events ...Event) error
	Close() error
}

// NopPublisher drops every event. It is used when no brokers are configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, ...Event) error { return nil }
func (NopPublisher) Close() error                          { return nil }
