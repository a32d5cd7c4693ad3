// Package billingtest provides an in-memory billing.Store for handler and
// job tests. Semantics mirror the GORM store: upserts keyed the same way,
// nil-on-missing lookups, zero-match updates as no-ops.
package billingtest

import (
	"context"
	"sync"
	"time"

	"contextlattice-console/internal/billing"
	domain "contextlattice-console/internal/domain/billing"
)

type InMemoryStore struct {
	mu sync.Mutex

	Events        []domain.BillingEvent
	Intents       []domain.PaymentIntent
	Customers     []domain.BillingCustomer
	Subscriptions []domain.BillingSubscription

	nextID uint

	// FailNext makes the next store call return this error once.
	FailNext error
}

func NewStore() *InMemoryStore {
	return &InMemoryStore{}
}

var _ billing.Store = (*InMemoryStore)(nil)

func (s *InMemoryStore) fail() error {
	if s.FailNext != nil {
		err := s.FailNext
		s.FailNext = nil
		return err
	}
	return nil
}

func (s *InMemoryStore) id() uint {
	s.nextID++
	return s.nextID
}

func (s *InMemoryStore) RecordEvent(ctx context.Context, in billing.EventInput) (*domain.BillingEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail(); err != nil {
		return nil, err
	}

	status := in.Status
	if status == "" {
		status = domain.EventReceived
	}
	var processedAt *time.Time
	if status != domain.EventReceived {
		now := time.Now()
		processedAt = &now
	}

	for i := range s.Events {
		if s.Events[i].Provider == in.Provider && s.Events[i].EventID == in.EventID {
			s.Events[i].EventType = in.EventType
			s.Events[i].Payload = in.Payload
			s.Events[i].Status = status
			s.Events[i].Error = in.Error
			s.Events[i].RequestID = in.RequestID
			s.Events[i].ProcessedAt = processedAt
			s.Events[i].UpdatedAt = time.Now()
			copied := s.Events[i]
			return &copied, nil
		}
	}

	event := domain.BillingEvent{
		ID:          s.id(),
		Provider:    in.Provider,
		EventID:     in.EventID,
		EventType:   in.EventType,
		Payload:     in.Payload,
		Status:      status,
		Error:       in.Error,
		RequestID:   in.RequestID,
		ProcessedAt: processedAt,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	s.Events = append(s.Events, event)
	return &event, nil
}

func (s *InMemoryStore) CountFailedEventsSince(ctx context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail(); err != nil {
		return 0, err
	}
	var n int64
	for _, e := range s.Events {
		if e.Status == domain.EventFailed && !e.CreatedAt.Before(cutoff) {
			n++
		}
	}
	return n, nil
}

func (s *InMemoryStore) ListFailedEvents(ctx context.Context, limit int) ([]domain.BillingEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail(); err != nil {
		return nil, err
	}
	var out []domain.BillingEvent
	for i := len(s.Events) - 1; i >= 0 && len(out) < limit; i-- {
		if s.Events[i].Status == domain.EventFailed {
			out = append(out, s.Events[i])
		}
	}
	return out, nil
}

func (s *InMemoryStore) CreateIntent(ctx context.Context, intent *domain.PaymentIntent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail(); err != nil {
		return err
	}
	intent.ID = s.id()
	if intent.CreatedAt.IsZero() {
		intent.CreatedAt = time.Now()
	}
	intent.UpdatedAt = time.Now()
	s.Intents = append(s.Intents, *intent)
	return nil
}

func (s *InMemoryStore) UpdateIntentStatus(ctx context.Context, provider, reference, status string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail(); err != nil {
		return 0, err
	}
	var n int64
	for i := range s.Intents {
		if s.Intents[i].Provider == provider && s.Intents[i].Reference != nil && *s.Intents[i].Reference == reference {
			s.Intents[i].Status = status
			s.Intents[i].UpdatedAt = time.Now()
			n++
		}
	}
	return n, nil
}

func (s *InMemoryStore) UpdateIntentStatusByID(ctx context.Context, id uint, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail(); err != nil {
		return err
	}
	for i := range s.Intents {
		if s.Intents[i].ID == id {
			s.Intents[i].Status = status
			s.Intents[i].UpdatedAt = time.Now()
		}
	}
	return nil
}

func (s *InMemoryStore) ListIntentsByProvider(ctx context.Context, provider string, limit int) ([]domain.PaymentIntent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail(); err != nil {
		return nil, err
	}
	var out []domain.PaymentIntent
	for i := len(s.Intents) - 1; i >= 0 && len(out) < limit; i-- {
		if s.Intents[i].Provider == provider {
			out = append(out, s.Intents[i])
		}
	}
	return out, nil
}

func (s *InMemoryStore) ListIntentsInStatusOlderThan(ctx context.Context, statuses []string, cutoff time.Time) ([]domain.PaymentIntent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail(); err != nil {
		return nil, err
	}
	match := map[string]bool{}
	for _, st := range statuses {
		match[st] = true
	}
	var out []domain.PaymentIntent
	for _, intent := range s.Intents {
		if match[intent.Status] && intent.CreatedAt.Before(cutoff) {
			out = append(out, intent)
		}
	}
	return out, nil
}

func (s *InMemoryStore) ListIntentsByUser(ctx context.Context, userID uint, limit int) ([]domain.PaymentIntent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail(); err != nil {
		return nil, err
	}
	var out []domain.PaymentIntent
	for i := len(s.Intents) - 1; i >= 0 && len(out) < limit; i-- {
		if s.Intents[i].UserID == userID {
			out = append(out, s.Intents[i])
		}
	}
	return out, nil
}

func (s *InMemoryStore) ListIntentsByUserSince(ctx context.Context, userID uint, cutoff time.Time) ([]domain.PaymentIntent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail(); err != nil {
		return nil, err
	}
	var out []domain.PaymentIntent
	for _, intent := range s.Intents {
		if intent.UserID == userID && !intent.CreatedAt.Before(cutoff) {
			out = append(out, intent)
		}
	}
	return out, nil
}

func (s *InMemoryStore) MarkIntentsStale(ctx context.Context, ids []uint) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail(); err != nil {
		return 0, err
	}
	match := map[uint]bool{}
	for _, id := range ids {
		match[id] = true
	}
	var n int64
	for i := range s.Intents {
		if match[s.Intents[i].ID] {
			s.Intents[i].Status = domain.StatusStale
			n++
		}
	}
	return n, nil
}

func (s *InMemoryStore) FindCustomer(ctx context.Context, provider, customerID string) (*domain.BillingCustomer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail(); err != nil {
		return nil, err
	}
	for _, c := range s.Customers {
		if c.Provider == provider && c.CustomerID == customerID {
			copied := c
			return &copied, nil
		}
	}
	return nil, nil
}

func (s *InMemoryStore) FindCustomerByUser(ctx context.Context, userID uint, provider string) (*domain.BillingCustomer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail(); err != nil {
		return nil, err
	}
	for _, c := range s.Customers {
		if c.UserID == userID && c.Provider == provider {
			copied := c
			return &copied, nil
		}
	}
	return nil, nil
}

func (s *InMemoryStore) CreateCustomer(ctx context.Context, customer *domain.BillingCustomer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail(); err != nil {
		return err
	}
	customer.ID = s.id()
	s.Customers = append(s.Customers, *customer)
	return nil
}

func (s *InMemoryStore) ListCustomersByProvider(ctx context.Context, provider string) ([]domain.BillingCustomer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail(); err != nil {
		return nil, err
	}
	var out []domain.BillingCustomer
	for _, c := range s.Customers {
		if c.Provider == provider {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *InMemoryStore) UpsertSubscription(ctx context.Context, sub *domain.BillingSubscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail(); err != nil {
		return err
	}
	for i := range s.Subscriptions {
		if s.Subscriptions[i].Provider == sub.Provider && s.Subscriptions[i].Subscription == sub.Subscription {
			s.Subscriptions[i].Status = sub.Status
			s.Subscriptions[i].PlanID = sub.PlanID
			s.Subscriptions[i].CurrentPeriodEnd = sub.CurrentPeriodEnd
			s.Subscriptions[i].UpdatedAt = time.Now()
			*sub = s.Subscriptions[i]
			return nil
		}
	}
	sub.ID = s.id()
	sub.UpdatedAt = time.Now()
	s.Subscriptions = append(s.Subscriptions, *sub)
	return nil
}

func (s *InMemoryStore) UpdateSubscription(ctx context.Context, provider, subscription, status string, currentPeriodEnd *time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail(); err != nil {
		return 0, err
	}
	var n int64
	for i := range s.Subscriptions {
		if s.Subscriptions[i].Provider == provider && s.Subscriptions[i].Subscription == subscription {
			s.Subscriptions[i].Status = status
			s.Subscriptions[i].CurrentPeriodEnd = currentPeriodEnd
			s.Subscriptions[i].UpdatedAt = time.Now()
			n++
		}
	}
	return n, nil
}

func (s *InMemoryStore) FindSubscription(ctx context.Context, provider, subscription string) (*domain.BillingSubscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail(); err != nil {
		return nil, err
	}
	for _, sub := range s.Subscriptions {
		if sub.Provider == provider && sub.Subscription == subscription {
			copied := sub
			return &copied, nil
		}
	}
	return nil, nil
}

func (s *InMemoryStore) LatestSubscriptionForUser(ctx context.Context, userID uint) (*domain.BillingSubscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail(); err != nil {
		return nil, err
	}
	var latest *domain.BillingSubscription
	for i := range s.Subscriptions {
		sub := s.Subscriptions[i]
		if sub.UserID != userID {
			continue
		}
		if latest == nil || sub.UpdatedAt.After(latest.UpdatedAt) {
			copied := sub
			latest = &copied
		}
	}
	return latest, nil
}
