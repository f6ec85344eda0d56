package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"kainan-backend/internal/domain"
	"kainan-backend/internal/events"
)

// In-memory fakes for the repository and infrastructure interfaces. They
// implement just enough semantics (not-found errors, the single-active-
// assignment rule) for the usecases to behave as they would against Postgres.

type fakeOrderRepo struct {
	mu      sync.Mutex
	orders  map[string]*domain.Order
	history []domain.OrderHistory

	getByIDCalls int
	failUpdate   error
}

func newFakeOrderRepo(orders ...*domain.Order) *fakeOrderRepo {
	r := &fakeOrderRepo{orders: make(map[string]*domain.Order)}
	for _, o := range orders {
		r.orders[o.ID] = o
	}
	return r
}

func (r *fakeOrderRepo) Create(ctx context.Context, order *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *order
	r.orders[order.ID] = &clone
	return nil
}

func (r *fakeOrderRepo) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.getByIDCalls++
	o, ok := r.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	clone := *o
	return &clone, nil
}

func (r *fakeOrderRepo) GetAll(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	matchesStatus := func(status string) bool {
		if len(filter.Statuses) == 0 {
			return true
		}
		for _, s := range filter.Statuses {
			if s == status {
				return true
			}
		}
		return false
	}

	var out []domain.Order
	for _, o := range r.orders {
		if filter.UserID != "" && o.UserID != filter.UserID {
			continue
		}
		if !matchesStatus(o.Status) {
			continue
		}
		out = append(out, *o)
	}
	return out, int64(len(out)), nil
}

func (r *fakeOrderRepo) CountByStatus(ctx context.Context, userID string) (map[string]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[string]int64)
	for _, o := range r.orders {
		if userID != "" && o.UserID != userID {
			continue
		}
		counts[o.Status]++
	}
	return counts, nil
}

func (r *fakeOrderRepo) UpdateStatus(ctx context.Context, id, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failUpdate != nil {
		return r.failUpdate
	}
	o, ok := r.orders[id]
	if !ok {
		return domain.ErrOrderNotFound
	}
	o.Status = status
	return nil
}

func (r *fakeOrderRepo) UpdatePaymentStatus(ctx context.Context, id, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return domain.ErrOrderNotFound
	}
	o.PaymentStatus = status
	return nil
}

func (r *fakeOrderRepo) SetProofOfDelivery(ctx context.Context, id, url string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failUpdate != nil {
		return r.failUpdate
	}
	o, ok := r.orders[id]
	if !ok {
		return domain.ErrOrderNotFound
	}
	o.ProofOfDeliveryURL = &url
	return nil
}

func (r *fakeOrderRepo) SetActualDeliveryTime(ctx context.Context, id string, t time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return domain.ErrOrderNotFound
	}
	o.ActualDeliveryTime = &t
	return nil
}

func (r *fakeOrderRepo) GetAvailable(ctx context.Context) ([]domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Order
	for _, o := range r.orders {
		if o.Status == domain.OrderStatusReadyForPickup && o.FulfillmentType == domain.FulfillmentDelivery {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (r *fakeOrderRepo) CreateHistory(ctx context.Context, h *domain.OrderHistory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.history = append(r.history, *h)
	return nil
}

func (r *fakeOrderRepo) GetHistory(ctx context.Context, orderID string) ([]domain.OrderHistory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.OrderHistory
	for _, h := range r.history {
		if h.OrderID == orderID {
			out = append(out, h)
		}
	}
	return out, nil
}

type fakeAssignmentRepo struct {
	mu     sync.Mutex
	active map[string]*domain.DeliveryAssignment // orderID -> active assignment
}

func newFakeAssignmentRepo(assignments ...*domain.DeliveryAssignment) *fakeAssignmentRepo {
	r := &fakeAssignmentRepo{active: make(map[string]*domain.DeliveryAssignment)}
	for _, a := range assignments {
		r.active[a.OrderID] = a
	}
	return r
}

func (r *fakeAssignmentRepo) Create(ctx context.Context, a *domain.DeliveryAssignment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.active[a.OrderID]; exists {
		return domain.ErrAlreadyAssigned
	}
	if a.ID == "" {
		a.ID = fmt.Sprintf("assignment-%d", len(r.active)+1)
	}
	a.Active = true
	clone := *a
	r.active[a.OrderID] = &clone
	return nil
}

func (r *fakeAssignmentRepo) GetActiveByOrderID(ctx context.Context, orderID string) (*domain.DeliveryAssignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.active[orderID]
	if !ok {
		return nil, domain.ErrAssignmentNotFound
	}
	clone := *a
	return &clone, nil
}

func (r *fakeAssignmentRepo) GetActiveByRiderID(ctx context.Context, riderID string) ([]domain.DeliveryAssignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.DeliveryAssignment
	for _, a := range r.active {
		if a.RiderID == riderID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (r *fakeAssignmentRepo) UpdateStatus(ctx context.Context, id, status string, pickedUpAt *time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.active {
		if a.ID == id {
			a.Status = status
			if pickedUpAt != nil {
				a.PickedUpAt = pickedUpAt
			}
			return nil
		}
	}
	return domain.ErrAssignmentNotFound
}

type fakeTxManager struct{}

func (fakeTxManager) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeCache struct {
	mu    sync.Mutex
	items map[string]interface{}
}

func newFakeCache() *fakeCache {
	return &fakeCache{items: make(map[string]interface{})}
}

func (c *fakeCache) Get(key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.items[key]
	return v, ok
}

func (c *fakeCache) Set(key string, value interface{}, _ time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = value
}

func (c *fakeCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
}

func (c *fakeCache) Flush() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]interface{})
}

type capturePublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *capturePublisher) Publish(e events.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func (p *capturePublisher) published() []events.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.Event, len(p.events))
	copy(out, p.events)
	return out
}

type fakeStorage struct {
	mu        sync.Mutex
	uploads   []string // prefixes
	deletes   []string // urls
	uploadErr error
	url       string
}

func (s *fakeStorage) UploadBuffer(ctx context.Context, prefix string, data []byte, contentType string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.uploadErr != nil {
		return "", s.uploadErr
	}
	s.uploads = append(s.uploads, prefix)
	if s.url != "" {
		return s.url, nil
	}
	return "https://cdn.example.com/" + prefix + "/photo.webp", nil
}

func (s *fakeStorage) DeleteFile(ctx context.Context, fileURL string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deletes = append(s.deletes, fileURL)
	return nil
}
