package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/maplecart/apiserver/internal/events"
	"github.com/maplecart/apiserver/internal/storage"
	"github.com/maplecart/apiserver/types"
	"github.com/rs/zerolog"
)

// OrderRepository defines persistence operations for orders.
type OrderRepository interface {
	Create(ctx context.Context, order types.Order, items []types.OrderItem) (types.Order, error)
	ListByUser(ctx context.Context, userID, offset, limit int) ([]types.Order, int, error)
	List(ctx context.Context, offset, limit int) ([]types.Order, int, error)
	GetForUser(ctx context.Context, id int64, userID int) (types.Order, error)
	Get(ctx context.Context, id int64) (types.Order, error)
	MarkPaid(ctx context.Context, id int64, userID int) error
	UpdateStatus(ctx context.Context, id int64, status, paymentStatus *string) error
	Delete(ctx context.Context, id int64) error
	DeleteForUser(ctx context.Context, id int64, userID int) error
}

// OrderService encapsulates the order lifecycle. Event publishing and
// receipt archival are optional collaborators; when absent the lifecycle
// operates on the store alone.
type OrderService struct {
	repo     OrderRepository
	events   *events.Publisher
	receipts *storage.Storage
	log      zerolog.Logger
}

func NewOrderService(repo OrderRepository, publisher *events.Publisher, receipts *storage.Storage, log zerolog.Logger) *OrderService {
	return &OrderService{
		repo:     repo,
		events:   publisher,
		receipts: receipts,
		log:      log,
	}
}

// Create persists a new order in its initial state. The caller supplies
// validated contact, address, and line items; ownership comes from the
// session identity or is nil for guest checkout. Item subtotals are
// computed here from the snapshotted price; the total is trusted from the
// submitted payload.
func (s *OrderService) Create(ctx context.Context, order types.Order, items []types.OrderItem) (types.Order, error) {
	order.OrderNumber = newOrderNumber()
	order.Status = types.OrderStatusPending
	order.PaymentStatus = types.PaymentStatusUnpaid

	for i := range items {
		items[i].Subtotal = items[i].Price * float64(items[i].Quantity)
	}

	created, err := s.repo.Create(ctx, order, items)
	if err != nil {
		return types.Order{}, err
	}

	if s.events != nil {
		s.events.OrderCreated(ctx, created)
	}
	s.archiveReceipt(ctx, created)

	return created, nil
}

// ListForUser returns the user's own orders with item counts.
func (s *OrderService) ListForUser(ctx context.Context, userID, offset, limit int) ([]types.Order, int, error) {
	return s.repo.ListByUser(ctx, userID, offset, clampLimit(limit))
}

// List returns all orders with owner emails. Admin views only.
func (s *OrderService) List(ctx context.Context, offset, limit int) ([]types.Order, int, error) {
	return s.repo.List(ctx, offset, clampLimit(limit))
}

// GetForUser fetches a full order detail scoped to the owning user.
func (s *OrderService) GetForUser(ctx context.Context, id int64, userID int) (types.Order, error) {
	return s.repo.GetForUser(ctx, id, userID)
}

// Get fetches any order's full detail. Admin views only.
func (s *OrderService) Get(ctx context.Context, id int64) (types.Order, error) {
	return s.repo.Get(ctx, id)
}

// MarkPaid transitions payment_status to paid for an order owned by
// userID and returns the updated order. Marking an already-paid order is
// a no-op success.
func (s *OrderService) MarkPaid(ctx context.Context, id int64, userID int) (types.Order, error) {
	if err := s.repo.MarkPaid(ctx, id, userID); err != nil {
		return types.Order{}, err
	}

	order, err := s.repo.GetForUser(ctx, id, userID)
	if err != nil {
		return types.Order{}, err
	}

	if s.events != nil {
		s.events.OrderPaid(ctx, order.OrderNumber, order.ID)
	}
	return order, nil
}

// AdminUpdate sets status and/or payment_status on any order and returns
// the updated order.
func (s *OrderService) AdminUpdate(ctx context.Context, id int64, status, paymentStatus *string) (types.Order, error) {
	if err := s.repo.UpdateStatus(ctx, id, status, paymentStatus); err != nil {
		return types.Order{}, err
	}

	order, err := s.repo.Get(ctx, id)
	if err != nil {
		return types.Order{}, err
	}

	if s.events != nil {
		s.events.OrderUpdated(ctx, order.OrderNumber, order.ID, order.Status, order.PaymentStatus)
	}
	return order, nil
}

// DeleteForUser removes an order owned by userID along with its items.
func (s *OrderService) DeleteForUser(ctx context.Context, id int64, userID int) error {
	order, err := s.repo.GetForUser(ctx, id, userID)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteForUser(ctx, id, userID); err != nil {
		return err
	}
	s.afterDelete(ctx, order)
	return nil
}

// Delete removes any order along with its items. Admin only.
func (s *OrderService) Delete(ctx context.Context, id int64) error {
	order, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.afterDelete(ctx, order)
	return nil
}

func (s *OrderService) afterDelete(ctx context.Context, order types.Order) {
	if s.events != nil {
		s.events.OrderDeleted(ctx, order.OrderNumber, order.ID)
	}
	if s.receipts != nil {
		if err := s.receipts.Delete(ctx, receiptKey(order.OrderNumber)); err != nil {
			s.log.Warn().Err(err).Str("order_number", order.OrderNumber).Msg("failed to delete order receipt")
		}
	}
}

func (s *OrderService) archiveReceipt(ctx context.Context, order types.Order) {
	if s.receipts == nil {
		return
	}
	data, err := json.Marshal(order)
	if err != nil {
		s.log.Error().Err(err).Str("order_number", order.OrderNumber).Msg("failed to encode order receipt")
		return
	}
	key := receiptKey(order.OrderNumber)
	if err := s.receipts.Put(ctx, key, bytes.NewReader(data), int64(len(data)), "application/json"); err != nil {
		s.log.Warn().Err(err).Str("order_number", order.OrderNumber).Msg("failed to archive order receipt")
	}
}

func receiptKey(orderNumber string) string {
	return "receipts/" + orderNumber + ".json"
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return 20
	}
	if limit > 100 {
		return 100
	}
	return limit
}

// newOrderNumber combines a timestamp with a random suffix. Collisions are
// treated as negligible, and the unique index on order_number backstops
// them.
func newOrderNumber() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("MC-%s-%s", time.Now().UTC().Format("20060102"), suffix)
}
