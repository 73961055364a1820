package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/maplecart/apiserver/internal/mq"
	"github.com/maplecart/apiserver/types"
	"github.com/rs/zerolog"
)

// Channels for order lifecycle events.
const (
	ChannelOrderCreated = "orders.created"
	ChannelOrderPaid    = "orders.paid"
	ChannelOrderUpdated = "orders.updated"
	ChannelOrderDeleted = "orders.deleted"
)

// Event is the versioned envelope published for every order transition.
type Event[T any] struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	Version     int       `json:"version"`
	Time        time.Time `json:"time"`
	OrderNumber string    `json:"order_number"`
	Payload     T         `json:"payload"`
}

// OrderItemPayload is a line item snapshot carried in order events.
type OrderItemPayload struct {
	ProductID int     `json:"product_id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
}

// OrderCreatedPayload describes a newly created order.
type OrderCreatedPayload struct {
	OrderID     int64              `json:"order_id"`
	UserID      *int               `json:"user_id"`
	Email       string             `json:"email"`
	TotalAmount float64            `json:"total_amount"`
	Items       []OrderItemPayload `json:"items"`
}

// OrderStatusPayload describes a status or payment transition.
type OrderStatusPayload struct {
	OrderID       int64  `json:"order_id"`
	Status        string `json:"status,omitempty"`
	PaymentStatus string `json:"payment_status,omitempty"`
}

// Publisher emits order lifecycle events to the configured broker.
// Publishing is best-effort: failures are logged and never surfaced to the
// request that triggered them.
type Publisher struct {
	mq  *mq.MQ
	log zerolog.Logger
}

// NewPublisher constructs a Publisher over the given broker.
func NewPublisher(broker *mq.MQ, log zerolog.Logger) *Publisher {
	return &Publisher{mq: broker, log: log}
}

// OrderCreated publishes an orders.created event.
func (p *Publisher) OrderCreated(ctx context.Context, order types.Order) {
	items := make([]OrderItemPayload, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, OrderItemPayload{
			ProductID: item.ProductID,
			Name:      item.Name,
			Price:     item.Price,
			Quantity:  item.Quantity,
		})
	}
	p.publish(ctx, ChannelOrderCreated, newEvent(ChannelOrderCreated, order.OrderNumber, OrderCreatedPayload{
		OrderID:     order.ID,
		UserID:      order.UserID,
		Email:       order.CustomerEmail,
		TotalAmount: order.TotalAmount,
		Items:       items,
	}))
}

// OrderPaid publishes an orders.paid event.
func (p *Publisher) OrderPaid(ctx context.Context, orderNumber string, orderID int64) {
	p.publish(ctx, ChannelOrderPaid, newEvent(ChannelOrderPaid, orderNumber, OrderStatusPayload{
		OrderID:       orderID,
		PaymentStatus: types.PaymentStatusPaid,
	}))
}

// OrderUpdated publishes an orders.updated event for an admin transition.
func (p *Publisher) OrderUpdated(ctx context.Context, orderNumber string, orderID int64, status, paymentStatus string) {
	p.publish(ctx, ChannelOrderUpdated, newEvent(ChannelOrderUpdated, orderNumber, OrderStatusPayload{
		OrderID:       orderID,
		Status:        status,
		PaymentStatus: paymentStatus,
	}))
}

// OrderDeleted publishes an orders.deleted event.
func (p *Publisher) OrderDeleted(ctx context.Context, orderNumber string, orderID int64) {
	p.publish(ctx, ChannelOrderDeleted, newEvent(ChannelOrderDeleted, orderNumber, OrderStatusPayload{
		OrderID: orderID,
	}))
}

func (p *Publisher) publish(ctx context.Context, channel string, event any) {
	data, err := json.Marshal(event)
	if err != nil {
		p.log.Error().Err(err).Str("channel", channel).Msg("failed to encode order event")
		return
	}
	if _, err := p.mq.Publish(ctx, channel, data, map[string]string{"content-type": "application/json"}); err != nil {
		p.log.Error().Err(err).Str("channel", channel).Msg("failed to publish order event")
	}
}

func newEvent[T any](eventType, orderNumber string, payload T) Event[T] {
	return Event[T]{
		ID:          uuid.NewString(),
		Type:        eventType,
		Version:     1,
		Time:        time.Now(),
		OrderNumber: orderNumber,
		Payload:     payload,
	}
}
