package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/paymentintent"
	"go.uber.org/zap"

	"github.com/paybridge/backend/internal/infrastructure/config"
)

var (
	// ErrMissingSecretKey is returned when no Stripe secret key is configured
	ErrMissingSecretKey = errors.New("stripe: secret key is required")
	// ErrInvalidAmount is returned for zero or negative amounts
	ErrInvalidAmount = errors.New("stripe: amount must be positive")
	// ErrMissingCurrency is returned when neither the request nor the config names a currency
	ErrMissingCurrency = errors.New("stripe: currency is required")
)

// PaymentRequest describes a single card charge
type PaymentRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	Description string          `json:"description"`
}

// PaymentResult is the created PaymentIntent as returned to callers
type PaymentResult struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
	Status       string `json:"status"`
}

// StripeAdapter creates Stripe PaymentIntents
type StripeAdapter struct {
	intents         *paymentintent.Client
	defaultCurrency string
	logger          *zap.Logger
}

// StripeOption configures a StripeAdapter
type StripeOption func(*StripeAdapter)

// WithBackend routes API calls through b instead of the default HTTP backend
func WithBackend(b stripe.Backend) StripeOption {
	return func(a *StripeAdapter) {
		a.intents.B = b
	}
}

// NewStripeAdapter creates a new Stripe adapter
func NewStripeAdapter(cfg config.StripeConfig, logger *zap.Logger, opts ...StripeOption) (*StripeAdapter, error) {
	if cfg.SecretKey == "" {
		return nil, ErrMissingSecretKey
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	a := &StripeAdapter{
		intents: &paymentintent.Client{
			B:   stripe.GetBackend(stripe.APIBackend),
			Key: cfg.SecretKey,
		},
		defaultCurrency: strings.ToLower(cfg.DefaultCurrency),
		logger:          logger,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// MinorUnits converts amount to the smallest currency unit, rounding half up
// to two decimal places first.
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Round(2).Mul(decimal.NewFromInt(100)).IntPart()
}

// CreatePayment creates a PaymentIntent for req
func (a *StripeAdapter) CreatePayment(ctx context.Context, req PaymentRequest) (*PaymentResult, error) {
	if !req.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	currency := strings.ToLower(req.Currency)
	if currency == "" {
		currency = a.defaultCurrency
	}
	if currency == "" {
		return nil, ErrMissingCurrency
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(MinorUnits(req.Amount)),
		Currency: stripe.String(currency),
	}
	if req.Description != "" {
		params.Description = stripe.String(req.Description)
	}
	params.Context = ctx

	pi, err := a.intents.New(params)
	if err != nil {
		a.logger.Error("Failed to create Stripe payment intent",
			zap.String("currency", currency),
			zap.Error(err))
		return nil, fmt.Errorf("stripe: failed to create payment intent: %w", err)
	}

	a.logger.Info("Created Stripe payment intent",
		zap.String("payment_intent_id", pi.ID),
		zap.Int64("amount", pi.Amount),
		zap.String("currency", string(pi.Currency)))

	return &PaymentResult{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Amount:       pi.Amount,
		Currency:     string(pi.Currency),
		Status:       string(pi.Status),
	}, nil
}
