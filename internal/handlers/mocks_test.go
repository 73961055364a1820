package handlers

import (
	"context"
	"sync"
	"time"

	"github.com/maplecart/apiserver/internal/store"
	"github.com/maplecart/apiserver/types"
)

// fakeUserRepo is an in-memory services.UserRepository.
type fakeUserRepo struct {
	mu     sync.Mutex
	nextID int
	users  map[int]types.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{nextID: 1, users: make(map[int]types.User)}
}

func (r *fakeUserRepo) GetByID(_ context.Context, id int) (types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Email == email {
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (r *fakeUserRepo) Create(_ context.Context, user types.User) (types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == user.Email {
			return types.User{}, store.ErrConflict
		}
	}
	user.ID = r.nextID
	r.nextID++
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	r.users[user.ID] = user
	return user, nil
}

func (r *fakeUserRepo) Update(_ context.Context, user types.User) (types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return types.User{}, store.ErrNotFound
	}
	user.UpdatedAt = time.Now()
	r.users[user.ID] = user
	return user, nil
}

func (r *fakeUserRepo) Delete(_ context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.users, id)
	return nil
}

// setAdmin flips the admin flag directly in the store, the way an
// operator would.
func (r *fakeUserRepo) setAdmin(id int, admin bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user := r.users[id]
	user.IsAdmin = admin
	r.users[id] = user
}

// fakeOrderRepo is an in-memory services.OrderRepository that mirrors the
// SQL repository's ownership and idempotency semantics.
type fakeOrderRepo struct {
	mu     sync.Mutex
	nextID int64
	orders map[int64]types.Order
	items  map[int64][]types.OrderItem
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{
		nextID: 1,
		orders: make(map[int64]types.Order),
		items:  make(map[int64][]types.OrderItem),
	}
}

func (r *fakeOrderRepo) Create(_ context.Context, order types.Order, items []types.OrderItem) (types.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	order.ID = r.nextID
	r.nextID++
	now := time.Now()
	order.CreatedAt = now
	order.UpdatedAt = now
	for i := range items {
		items[i].OrderID = order.ID
		items[i].ID = int64(i + 1)
	}
	r.orders[order.ID] = order
	r.items[order.ID] = items
	order.Items = items
	return order, nil
}

func (r *fakeOrderRepo) ListByUser(_ context.Context, userID, offset, limit int) ([]types.Order, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	orders := make([]types.Order, 0)
	for _, order := range r.orders {
		if order.UserID != nil && *order.UserID == userID {
			order.ItemCount = len(r.items[order.ID])
			orders = append(orders, order)
		}
	}
	return paginate(orders, offset, limit), len(orders), nil
}

func (r *fakeOrderRepo) List(_ context.Context, offset, limit int) ([]types.Order, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	orders := make([]types.Order, 0, len(r.orders))
	for _, order := range r.orders {
		order.ItemCount = len(r.items[order.ID])
		orders = append(orders, order)
	}
	return paginate(orders, offset, limit), len(orders), nil
}

func (r *fakeOrderRepo) GetForUser(_ context.Context, id int64, userID int) (types.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[id]
	if !ok || order.UserID == nil || *order.UserID != userID {
		return types.Order{}, store.ErrNotFound
	}
	order.Items = r.items[id]
	return order, nil
}

func (r *fakeOrderRepo) Get(_ context.Context, id int64) (types.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[id]
	if !ok {
		return types.Order{}, store.ErrNotFound
	}
	order.Items = r.items[id]
	return order, nil
}

func (r *fakeOrderRepo) MarkPaid(_ context.Context, id int64, userID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[id]
	if !ok || order.UserID == nil || *order.UserID != userID {
		return store.ErrNotFound
	}
	order.PaymentStatus = types.PaymentStatusPaid
	order.UpdatedAt = time.Now()
	r.orders[id] = order
	return nil
}

func (r *fakeOrderRepo) UpdateStatus(_ context.Context, id int64, status, paymentStatus *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[id]
	if !ok {
		return store.ErrNotFound
	}
	if status != nil {
		order.Status = *status
	}
	if paymentStatus != nil {
		order.PaymentStatus = *paymentStatus
	}
	order.UpdatedAt = time.Now()
	r.orders[id] = order
	return nil
}

func (r *fakeOrderRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orders[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.items, id)
	delete(r.orders, id)
	return nil
}

func (r *fakeOrderRepo) DeleteForUser(_ context.Context, id int64, userID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[id]
	if !ok || order.UserID == nil || *order.UserID != userID {
		return store.ErrNotFound
	}
	delete(r.items, id)
	delete(r.orders, id)
	return nil
}

func paginate(orders []types.Order, offset, limit int) []types.Order {
	if offset >= len(orders) {
		return nil
	}
	end := offset + limit
	if end > len(orders) {
		end = len(orders)
	}
	return orders[offset:end]
}
