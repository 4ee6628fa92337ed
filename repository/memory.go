package repository

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Store operation names accepted by MemoryStore.FailOn.
const (
	OpUpdateStatus        = "update_status"
	OpMarkPaymentComplete = "mark_payment_complete"
	OpCreateRefund        = "create_refund"
)

// MemoryStore is an in-process order store. WithOrderTx serializes transactions
// and restores the previous order state when fn fails.
type MemoryStore struct {
	txMu sync.Mutex

	mu          sync.RWMutex
	orders      map[string]Order
	notes       map[string][]OrderNote
	refunds     map[string][]Refund
	completions map[string]int
	failures    map[string]error
}

// NewMemoryStore returns an empty store.
func NewMemoryStore(orders ...Order) *MemoryStore {
	s := &MemoryStore{
		orders:      make(map[string]Order),
		notes:       make(map[string][]OrderNote),
		refunds:     make(map[string][]Refund),
		completions: make(map[string]int),
		failures:    make(map[string]error),
	}
	for _, o := range orders {
		s.PutOrder(o)
	}
	return s
}

// PutOrder inserts or replaces an order.
func (s *MemoryStore) PutOrder(o Order) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if o.Status == "" {
		o.Status = OrderStatusPending
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now()
	}
	s.orders[o.ID] = o
}

// FailOn makes the named operation return err until cleared with a nil err.
func (s *MemoryStore) FailOn(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err == nil {
		delete(s.failures, op)
		return
	}
	s.failures[op] = err
}

// GetOrder returns the order.
func (s *MemoryStore) GetOrder(_ context.Context, orderID string) (Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.orders[orderID]
	if !ok {
		return Order{}, ErrOrderNotFound
	}
	o.Items = append([]OrderItem(nil), o.Items...)
	return o, nil
}

// UpdateStatus sets the order status and records the note.
func (s *MemoryStore) UpdateStatus(_ context.Context, orderID string, status OrderStatus, note string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.failures[OpUpdateStatus]; err != nil {
		return err
	}

	o, ok := s.orders[orderID]
	if !ok {
		return ErrOrderNotFound
	}

	now := time.Now()
	o.Status = status
	o.UpdatedAt = sql.NullTime{Time: now, Valid: true}
	s.orders[orderID] = o

	if note != "" {
		s.notes[orderID] = append(s.notes[orderID], OrderNote{OrderID: orderID, Note: note, CreatedAt: now})
	}

	return nil
}

// MarkPaymentComplete records the payment completion once.
func (s *MemoryStore) MarkPaymentComplete(_ context.Context, orderID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.failures[OpMarkPaymentComplete]; err != nil {
		return err
	}

	o, ok := s.orders[orderID]
	if !ok {
		return ErrOrderNotFound
	}
	if o.PaidAt.Valid {
		return ErrPaymentAlreadyComplete
	}

	now := time.Now()
	o.PaidAt = sql.NullTime{Time: now, Valid: true}
	o.UpdatedAt = sql.NullTime{Time: now, Valid: true}
	s.orders[orderID] = o
	s.completions[orderID]++

	return nil
}

// CreateRefund records a refund.
func (s *MemoryStore) CreateRefund(_ context.Context, orderID string, amount decimal.Decimal, reason string) (Refund, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.failures[OpCreateRefund]; err != nil {
		return Refund{}, err
	}
	if _, ok := s.orders[orderID]; !ok {
		return Refund{}, ErrOrderNotFound
	}

	r := Refund{
		ID:        uuid.New(),
		OrderID:   orderID,
		Amount:    amount,
		Reason:    reason,
		CreatedAt: time.Now(),
	}
	s.refunds[orderID] = append(s.refunds[orderID], r)

	return r, nil
}

// WithOrderTx runs fn with exclusive access to the store.
// When fn returns an error the order, its notes, refunds and completion count are restored.
func (s *MemoryStore) WithOrderTx(ctx context.Context, orderID string, fn TxFunc) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	order, ok := s.orders[orderID]
	notes := len(s.notes[orderID])
	refunds := len(s.refunds[orderID])
	completions := s.completions[orderID]
	s.mu.RUnlock()

	if !ok {
		return ErrOrderNotFound
	}

	if err := fn(ctx, s); err != nil {
		s.mu.Lock()
		s.orders[orderID] = order
		s.notes[orderID] = s.notes[orderID][:notes]
		s.refunds[orderID] = s.refunds[orderID][:refunds]
		s.completions[orderID] = completions
		s.mu.Unlock()
		return err
	}

	return nil
}

// Completions returns how many times the payment completion ran for the order.
func (s *MemoryStore) Completions(orderID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.completions[orderID]
}

// Refunds returns the refunds recorded for the order.
func (s *MemoryStore) Refunds(orderID string) []Refund {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Refund(nil), s.refunds[orderID]...)
}

// Notes returns the notes recorded for the order.
func (s *MemoryStore) Notes(orderID string) []OrderNote {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]OrderNote(nil), s.notes[orderID]...)
}
