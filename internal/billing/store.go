// Package billing holds the store behind the billing ledger: payment
// intents, webhook events, provider customers, and mirrored subscriptions.
// Idempotency is delegated entirely to the store's unique keys and upserts;
// there is no application-level locking.
package billing

import (
	"context"
	"errors"
	"time"

	domain "contextlattice-console/internal/domain/billing"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EventInput is the normalized input for webhook event persistence.
type EventInput struct {
	Provider  string
	EventID   string
	EventType string
	Payload   string
	Status    string // received | processed | failed
	Error     *string
	RequestID *string
}

// Store provides the DB operations used by webhook handlers, billing
// handlers, and reconciliation jobs.
type Store interface {
	// RecordEvent upserts a BillingEvent keyed by (provider, event_id).
	// Redelivery overwrites event metadata and status; identity is fixed.
	RecordEvent(ctx context.Context, in EventInput) (*domain.BillingEvent, error)
	CountFailedEventsSince(ctx context.Context, cutoff time.Time) (int64, error)
	ListFailedEvents(ctx context.Context, limit int) ([]domain.BillingEvent, error)

	CreateIntent(ctx context.Context, intent *domain.PaymentIntent) error
	// UpdateIntentStatus sets the status of intents matching
	// (provider, reference). Zero matches is a tolerated no-op.
	UpdateIntentStatus(ctx context.Context, provider, reference, status string) (int64, error)
	UpdateIntentStatusByID(ctx context.Context, id uint, status string) error
	ListIntentsByProvider(ctx context.Context, provider string, limit int) ([]domain.PaymentIntent, error)
	ListIntentsInStatusOlderThan(ctx context.Context, statuses []string, cutoff time.Time) ([]domain.PaymentIntent, error)
	ListIntentsByUser(ctx context.Context, userID uint, limit int) ([]domain.PaymentIntent, error)
	ListIntentsByUserSince(ctx context.Context, userID uint, cutoff time.Time) ([]domain.PaymentIntent, error)
	MarkIntentsStale(ctx context.Context, ids []uint) (int64, error)

	FindCustomer(ctx context.Context, provider, customerID string) (*domain.BillingCustomer, error)
	FindCustomerByUser(ctx context.Context, userID uint, provider string) (*domain.BillingCustomer, error)
	CreateCustomer(ctx context.Context, customer *domain.BillingCustomer) error
	ListCustomersByProvider(ctx context.Context, provider string) ([]domain.BillingCustomer, error)

	// UpsertSubscription creates or updates a row keyed by
	// (provider, subscription).
	UpsertSubscription(ctx context.Context, sub *domain.BillingSubscription) error
	// UpdateSubscription sets status and period end on rows matching
	// (provider, subscription); zero matches is a tolerated no-op.
	UpdateSubscription(ctx context.Context, provider, subscription, status string, currentPeriodEnd *time.Time) (int64, error)
	FindSubscription(ctx context.Context, provider, subscription string) (*domain.BillingSubscription, error)
	LatestSubscriptionForUser(ctx context.Context, userID uint) (*domain.BillingSubscription, error)
}

type gormStore struct {
	db *gorm.DB
}

// NewStore creates a billing store backed by GORM.
func NewStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) RecordEvent(ctx context.Context, in EventInput) (*domain.BillingEvent, error) {
	status := in.Status
	if status == "" {
		status = domain.EventReceived
	}

	var processedAt *time.Time
	if status != domain.EventReceived {
		now := time.Now()
		processedAt = &now
	}

	event := &domain.BillingEvent{
		Provider:    in.Provider,
		EventID:     in.EventID,
		EventType:   in.EventType,
		Payload:     in.Payload,
		Status:      status,
		Error:       in.Error,
		RequestID:   in.RequestID,
		ProcessedAt: processedAt,
	}

	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "provider"},
			{Name: "event_id"},
		},
		DoUpdates: clause.AssignmentColumns([]string{
			"event_type",
			"payload",
			"status",
			"error",
			"request_id",
			"processed_at",
			"updated_at",
		}),
	}).Create(event).Error; err != nil {
		return nil, err
	}

	// Populate the ID after a conflict-update path.
	if err := s.db.WithContext(ctx).
		Where("provider = ? AND event_id = ?", in.Provider, in.EventID).
		First(event).Error; err != nil {
		return nil, err
	}
	return event, nil
}

func (s *gormStore) CountFailedEventsSince(ctx context.Context, cutoff time.Time) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&domain.BillingEvent{}).
		Where("status = ? AND created_at >= ?", domain.EventFailed, cutoff).
		Count(&n).Error
	return n, err
}

func (s *gormStore) ListFailedEvents(ctx context.Context, limit int) ([]domain.BillingEvent, error) {
	var events []domain.BillingEvent
	err := s.db.WithContext(ctx).
		Where("status = ?", domain.EventFailed).
		Order("created_at DESC").
		Limit(limit).
		Find(&events).Error
	return events, err
}

func (s *gormStore) CreateIntent(ctx context.Context, intent *domain.PaymentIntent) error {
	return s.db.WithContext(ctx).Create(intent).Error
}

func (s *gormStore) UpdateIntentStatus(ctx context.Context, provider, reference, status string) (int64, error) {
	tx := s.db.WithContext(ctx).Model(&domain.PaymentIntent{}).
		Where("provider = ? AND reference = ?", provider, reference).
		Update("status", status)
	return tx.RowsAffected, tx.Error
}

func (s *gormStore) UpdateIntentStatusByID(ctx context.Context, id uint, status string) error {
	return s.db.WithContext(ctx).Model(&domain.PaymentIntent{}).
		Where("id = ?", id).
		Update("status", status).Error
}

func (s *gormStore) ListIntentsByProvider(ctx context.Context, provider string, limit int) ([]domain.PaymentIntent, error) {
	var intents []domain.PaymentIntent
	err := s.db.WithContext(ctx).
		Where("provider = ?", provider).
		Order("created_at DESC").
		Limit(limit).
		Find(&intents).Error
	return intents, err
}

func (s *gormStore) ListIntentsInStatusOlderThan(ctx context.Context, statuses []string, cutoff time.Time) ([]domain.PaymentIntent, error) {
	var intents []domain.PaymentIntent
	err := s.db.WithContext(ctx).
		Where("status IN ? AND created_at < ?", statuses, cutoff).
		Order("created_at ASC").
		Find(&intents).Error
	return intents, err
}

func (s *gormStore) ListIntentsByUser(ctx context.Context, userID uint, limit int) ([]domain.PaymentIntent, error) {
	var intents []domain.PaymentIntent
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&intents).Error
	return intents, err
}

func (s *gormStore) ListIntentsByUserSince(ctx context.Context, userID uint, cutoff time.Time) ([]domain.PaymentIntent, error) {
	var intents []domain.PaymentIntent
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND created_at >= ?", userID, cutoff).
		Find(&intents).Error
	return intents, err
}

func (s *gormStore) MarkIntentsStale(ctx context.Context, ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	tx := s.db.WithContext(ctx).Model(&domain.PaymentIntent{}).
		Where("id IN ?", ids).
		Update("status", domain.StatusStale)
	return tx.RowsAffected, tx.Error
}

func (s *gormStore) FindCustomer(ctx context.Context, provider, customerID string) (*domain.BillingCustomer, error) {
	var customer domain.BillingCustomer
	err := s.db.WithContext(ctx).
		Where("provider = ? AND customer_id = ?", provider, customerID).
		First(&customer).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &customer, nil
}

func (s *gormStore) FindCustomerByUser(ctx context.Context, userID uint, provider string) (*domain.BillingCustomer, error) {
	var customer domain.BillingCustomer
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND provider = ?", userID, provider).
		First(&customer).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &customer, nil
}

func (s *gormStore) CreateCustomer(ctx context.Context, customer *domain.BillingCustomer) error {
	return s.db.WithContext(ctx).Create(customer).Error
}

func (s *gormStore) ListCustomersByProvider(ctx context.Context, provider string) ([]domain.BillingCustomer, error) {
	var customers []domain.BillingCustomer
	err := s.db.WithContext(ctx).
		Where("provider = ?", provider).
		Find(&customers).Error
	return customers, err
}

func (s *gormStore) UpsertSubscription(ctx context.Context, sub *domain.BillingSubscription) error {
	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "provider"},
			{Name: "subscription"},
		},
		DoUpdates: clause.AssignmentColumns([]string{
			"status",
			"plan_id",
			"current_period_end",
			"updated_at",
		}),
	}).Create(sub).Error; err != nil {
		return err
	}

	return s.db.WithContext(ctx).
		Where("provider = ? AND subscription = ?", sub.Provider, sub.Subscription).
		First(sub).Error
}

func (s *gormStore) UpdateSubscription(ctx context.Context, provider, subscription, status string, currentPeriodEnd *time.Time) (int64, error) {
	tx := s.db.WithContext(ctx).Model(&domain.BillingSubscription{}).
		Where("provider = ? AND subscription = ?", provider, subscription).
		Updates(map[string]interface{}{
			"status":             status,
			"current_period_end": currentPeriodEnd,
		})
	return tx.RowsAffected, tx.Error
}

func (s *gormStore) FindSubscription(ctx context.Context, provider, subscription string) (*domain.BillingSubscription, error) {
	var sub domain.BillingSubscription
	err := s.db.WithContext(ctx).
		Where("provider = ? AND subscription = ?", provider, subscription).
		First(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &sub, nil
}

func (s *gormStore) LatestSubscriptionForUser(ctx context.Context, userID uint) (*domain.BillingSubscription, error) {
	var sub domain.BillingSubscription
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		First(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &sub, nil
}
