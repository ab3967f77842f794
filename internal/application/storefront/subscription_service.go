package storefront

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/paybridge/backend/internal/domain/shared"
	"github.com/paybridge/backend/internal/domain/storefront"
	"github.com/paybridge/backend/internal/infrastructure/logger"
	"github.com/paybridge/backend/internal/infrastructure/telemetry"
)

// CreateSubscriptionInput describes a new subscription billed to an account card
type CreateSubscriptionInput struct {
	PlanID        string     `json:"plan_id" validate:"required"`
	ProductID     string     `json:"product_id" validate:"required"`
	AccountID     string     `json:"account_id" validate:"required"`
	AccountCardID string     `json:"account_card_id" validate:"required"`
	Quantity      int        `json:"quantity" validate:"required,min=1"`
	TrialEnd      *time.Time `json:"date_trial_end"`
}

// SubscriptionService manages subscriptions in the remote store
type SubscriptionService struct {
	gateway  storefront.Gateway
	validate *validator.Validate
	logger   *zap.Logger
}

// NewSubscriptionService creates a new SubscriptionService
func NewSubscriptionService(gateway storefront.Gateway, logger *zap.Logger) *SubscriptionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubscriptionService{
		gateway:  gateway,
		validate: validator.New(),
		logger:   logger,
	}
}

// GetSubscription fetches one subscription
func (s *SubscriptionService) GetSubscription(ctx context.Context, id string) (*storefront.Document, error) {
	resp, err := s.gateway.Get(ctx, resourcePath(subscriptionsPath, id))
	if err != nil {
		return nil, err
	}
	if !storefront.HasData(resp) {
		return nil, storefront.NewError(storefront.KindNotFound, "get_subscription", "subscription "+id+" not found", nil)
	}
	return resp, nil
}

// CreateSubscription subscribes an account to a plan. The card becomes the
// default billing method and the remote store derives the billing schedule.
func (s *SubscriptionService) CreateSubscription(ctx context.Context, input CreateSubscriptionInput) (*storefront.Document, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, shared.NewDomainError("INVALID_INPUT", err.Error())
	}

	ctx, span := telemetry.StartServiceSpan(ctx, "subscription", "create",
		telemetry.WithAttribute(telemetry.SpanAttrAccountID, input.AccountID))
	defer span.End()

	billing := storefront.NewDocument().
		Put("account_card_id", input.AccountCardID).
		Put("default", true).
		Put("use_account", true).
		Put("billing_schedule", storefront.NewDocument())

	body := storefront.NewDocument().
		Put("plan_id", input.PlanID).
		Put("product_id", input.ProductID).
		Put("account_id", input.AccountID).
		Put("quantity", input.Quantity).
		Put("billing", billing)
	if input.TrialEnd != nil {
		body.Put("date_trial_end", input.TrialEnd.UTC().Format(time.RFC3339))
	}

	resp, err := s.gateway.Post(ctx, subscriptionsPath, body)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	logger.Enrich(ctx, s.logger).Info("Subscription created",
		zap.String("account_id", input.AccountID),
		zap.String("plan_id", input.PlanID),
	)
	return resp, nil
}

// DeleteSubscription removes a subscription
func (s *SubscriptionService) DeleteSubscription(ctx context.Context, id string) error {
	resp, err := s.gateway.Delete(ctx, resourcePath(subscriptionsPath, id), storefront.NewDocument().Put("id", id))
	if err != nil {
		return err
	}
	if !storefront.HasData(resp) {
		return storefront.NewError(storefront.KindNotFound, "delete_subscription", "subscription "+id+" not found", nil)
	}
	return nil
}

// CountSubscriptions returns the number of subscriptions
func (s *SubscriptionService) CountSubscriptions(ctx context.Context) (int64, error) {
	return s.gateway.Count(ctx, subscriptionsPath)
}

// ListAllSubscriptions returns every subscription. Order is unspecified.
func (s *SubscriptionService) ListAllSubscriptions(ctx context.Context, pageSize int) ([]*storefront.Document, error) {
	return s.gateway.FetchAll(ctx, subscriptionsPath, pageSize)
}
