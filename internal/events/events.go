// Package events publishes order lifecycle notifications to downstream
// consumers such as reporting and export jobs.
package events

import (
	"context"
	"time"

	"order-desk/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Type names an order lifecycle event.
type Type string

const (
	OrderCreated  Type = "order.created"
	OrderApproved Type = "order.approved"
	OrderDenied   Type = "order.denied"
)

// Event is the payload published after an order transaction commits.
type Event struct {
	Type            Type              `json:"type"`
	OrderID         uuid.UUID         `json:"orderId"`
	UserID          string            `json:"userId"`
	Status          model.OrderStatus `json:"status"`
	TotalAmount     decimal.Decimal   `json:"totalAmount"`
	VoucherCode     *string           `json:"voucherCode,omitempty"`
	VoucherDiscount decimal.Decimal   `json:"voucherDiscount"`
	VoucherReversed bool              `json:"voucherReversed,omitempty"`
	Reason          *string           `json:"reason,omitempty"`
	OccurredAt      time.Time         `json:"occurredAt"`
}

// NewOrderEvent snapshots the order fields consumers care about.
func NewOrderEvent(t Type, o *model.Order, occurredAt time.Time) Event {
	return Event{
		Type:            t,
		OrderID:         o.ID,
		UserID:          o.UserID,
		Status:          o.Status,
		TotalAmount:     o.TotalAmount,
		VoucherCode:     o.VoucherCode,
		VoucherDiscount: o.VoucherDiscount,
		Reason:          o.AdminNotes,
		OccurredAt:      occurredAt.UTC(),
	}
}

// Publisher delivers events. Implementations must be safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// LogPublisher writes events to the log. It is used when no broker is
// configured.
type LogPublisher struct {
	logger zerolog.Logger
}

// NewLogPublisher creates a publisher that only logs.
func NewLogPublisher(logger zerolog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger.With().Str("component", "events").Logger()}
}

// Publish logs the event at info level.
func (p *LogPublisher) Publish(_ context.Context, e Event) error {
	p.logger.Info().
		Str("event_type", string(e.Type)).
		Str("order_id", e.OrderID.String()).
		Str("user_id", e.UserID).
		Str("status", string(e.Status)).
		Str("total_amount", e.TotalAmount.StringFixed(2)).
		Bool("voucher_reversed", e.VoucherReversed).
		Msg("order event")
	return nil
}
