package services

import (
	"context"
	"regexp"
	"testing"

	"github.com/maplecart/apiserver/internal/store"
	"github.com/maplecart/apiserver/types"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingOrderRepo captures the arguments the service hands to the
// persistence layer.
type recordingOrderRepo struct {
	createdOrder types.Order
	createdItems []types.OrderItem
	listLimit    int
	paidID       int64
	paidUserID   int
}

func (r *recordingOrderRepo) Create(_ context.Context, order types.Order, items []types.OrderItem) (types.Order, error) {
	order.ID = 1
	r.createdOrder = order
	r.createdItems = items
	return order, nil
}

func (r *recordingOrderRepo) ListByUser(_ context.Context, _, _, limit int) ([]types.Order, int, error) {
	r.listLimit = limit
	return nil, 0, nil
}

func (r *recordingOrderRepo) List(_ context.Context, _, limit int) ([]types.Order, int, error) {
	r.listLimit = limit
	return nil, 0, nil
}

func (r *recordingOrderRepo) GetForUser(_ context.Context, id int64, userID int) (types.Order, error) {
	if id != r.paidID || userID != r.paidUserID {
		return types.Order{}, store.ErrNotFound
	}
	return types.Order{ID: id, PaymentStatus: types.PaymentStatusPaid}, nil
}

func (r *recordingOrderRepo) Get(_ context.Context, id int64) (types.Order, error) {
	return types.Order{ID: id}, nil
}

func (r *recordingOrderRepo) MarkPaid(_ context.Context, id int64, userID int) error {
	r.paidID = id
	r.paidUserID = userID
	return nil
}

func (r *recordingOrderRepo) UpdateStatus(_ context.Context, _ int64, _, _ *string) error {
	return nil
}

func (r *recordingOrderRepo) Delete(_ context.Context, _ int64) error { return nil }

func (r *recordingOrderRepo) DeleteForUser(_ context.Context, _ int64, _ int) error { return nil }

func newTestOrderService(repo OrderRepository) *OrderService {
	return NewOrderService(repo, nil, nil, zerolog.Nop())
}

func TestCreateSetsInitialState(t *testing.T) {
	repo := &recordingOrderRepo{}
	svc := newTestOrderService(repo)

	created, err := svc.Create(t.Context(), types.Order{TotalAmount: 42.50}, []types.OrderItem{
		{Name: "Maple Mug", Price: 10.00, Quantity: 2},
		{Name: "Sticker", Price: 1.25, Quantity: 3},
	})
	require.NoError(t, err)

	assert.Equal(t, types.OrderStatusPending, repo.createdOrder.Status)
	assert.Equal(t, types.PaymentStatusUnpaid, repo.createdOrder.PaymentStatus)
	assert.Equal(t, 42.50, repo.createdOrder.TotalAmount)

	require.Len(t, repo.createdItems, 2)
	assert.Equal(t, 20.00, repo.createdItems[0].Subtotal)
	assert.Equal(t, 3.75, repo.createdItems[1].Subtotal)

	assert.Regexp(t, regexp.MustCompile(`^MC-\d{8}-[0-9A-F]{8}$`), created.OrderNumber)
}

func TestOrderNumbersAreUnique(t *testing.T) {
	seen := make(map[string]struct{})
	for range 100 {
		n := newOrderNumber()
		_, dup := seen[n]
		require.False(t, dup, n)
		seen[n] = struct{}{}
	}
}

func TestListClampsLimit(t *testing.T) {
	repo := &recordingOrderRepo{}
	svc := newTestOrderService(repo)

	_, _, err := svc.ListForUser(t.Context(), 1, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 20, repo.listLimit)

	_, _, err = svc.List(t.Context(), 0, 1000)
	require.NoError(t, err)
	assert.Equal(t, 100, repo.listLimit)

	_, _, err = svc.List(t.Context(), 0, 50)
	require.NoError(t, err)
	assert.Equal(t, 50, repo.listLimit)
}

func TestMarkPaidReturnsUpdatedOrder(t *testing.T) {
	repo := &recordingOrderRepo{}
	svc := newTestOrderService(repo)

	order, err := svc.MarkPaid(t.Context(), 7, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(7), repo.paidID)
	assert.Equal(t, 3, repo.paidUserID)
	assert.Equal(t, types.PaymentStatusPaid, order.PaymentStatus)
}
