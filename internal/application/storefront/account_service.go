package storefront

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/paybridge/backend/internal/domain/shared"
	"github.com/paybridge/backend/internal/domain/storefront"
	"github.com/paybridge/backend/internal/infrastructure/logger"
	"github.com/paybridge/backend/internal/infrastructure/telemetry"
)

// CreateAccountInput carries the fields of a new remote store account
type CreateAccountInput struct {
	Email     string `json:"email" validate:"required,email"`
	FirstName string `json:"first_name" validate:"required,max=100"`
	LastName  string `json:"last_name" validate:"required,max=100"`
	Phone     string `json:"phone" validate:"omitempty,max=32"`
}

// PaymentMethodInput attaches a vaulted gateway card to an account
type PaymentMethodInput struct {
	Gateway         string `json:"gateway" validate:"required"`
	GatewayCustomer string `json:"gateway_customer" validate:"required"`
	Token           string `json:"token" validate:"required"`
}

// AddressInput is a postal address stored against an account
type AddressInput struct {
	Address1 string `json:"address1" validate:"required"`
	Address2 string `json:"address2"`
	City     string `json:"city" validate:"required"`
	State    string `json:"state" validate:"required"`
	Zip      string `json:"zip" validate:"required"`
	Country  string `json:"country" validate:"required"`
}

// AccountService manages customer accounts in the remote store
type AccountService struct {
	gateway  storefront.Gateway
	tokens   TokenGenerator
	validate *validator.Validate
	logger   *zap.Logger
}

// NewAccountService creates a new AccountService
func NewAccountService(gateway storefront.Gateway, tokens TokenGenerator, logger *zap.Logger) *AccountService {
	if tokens == nil {
		tokens = NewSHA256TokenGenerator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AccountService{
		gateway:  gateway,
		tokens:   tokens,
		validate: validator.New(),
		logger:   logger,
	}
}

// GetAccount fetches an account by id or email. An absent $data envelope is
// reported as a storefront not-found error.
func (s *AccountService) GetAccount(ctx context.Context, id string) (*storefront.Document, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "account", "get",
		telemetry.WithAttribute(telemetry.SpanAttrAccountID, id))
	defer span.End()

	resp, err := s.gateway.Get(ctx, resourcePath(accountsPath, id))
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if storefront.Data(resp) == nil {
		return nil, storefront.NewError(storefront.KindNotFound, "get_account", "account "+id+" not found", nil)
	}
	return resp, nil
}

// CreateAccount creates a new account
func (s *AccountService) CreateAccount(ctx context.Context, input CreateAccountInput) (*storefront.Document, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, shared.NewDomainError("INVALID_INPUT", err.Error())
	}

	ctx, span := telemetry.StartServiceSpan(ctx, "account", "create")
	defer span.End()

	body := storefront.NewDocument().
		Put("email", input.Email).
		Put("first_name", input.FirstName).
		Put("last_name", input.LastName).
		Put("phone", input.Phone)

	resp, err := s.gateway.Post(ctx, accountsPath, body)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	logger.Enrich(ctx, s.logger).Info("Account created", zap.Any("id", storefront.Data(resp).Get("id")))
	return resp, nil
}

// DeleteAccount force-deletes an account
func (s *AccountService) DeleteAccount(ctx context.Context, id string) error {
	ctx, span := telemetry.StartServiceSpan(ctx, "account", "delete",
		telemetry.WithAttribute(telemetry.SpanAttrAccountID, id))
	defer span.End()

	body := storefront.NewDocument().
		Put("id", id).
		Put("$force_delete", true)

	resp, err := s.gateway.Delete(ctx, resourcePath(accountsPath, id), body)
	if err != nil {
		telemetry.RecordError(span, err)
		return err
	}
	if !storefront.HasData(resp) {
		logger.Enrich(ctx, s.logger).Error("Failed to delete account", zap.String("account_id", id))
		return storefront.NewError(storefront.KindNotFound, "delete_account",
			"failed to delete "+id+" or account does not exist", nil)
	}
	return nil
}

// AddPaymentMethod vaults a gateway card on the account
func (s *AccountService) AddPaymentMethod(ctx context.Context, accountID string, input PaymentMethodInput) (*storefront.Document, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, shared.NewDomainError("INVALID_INPUT", err.Error())
	}

	body := storefront.NewDocument().
		Put("id", accountID).
		Put("gateway", input.Gateway).
		Put("gateway_customer", input.GatewayCustomer).
		Put("token", input.Token).
		Put("$vault", "true").
		Put("active", "true")

	return s.gateway.Post(ctx, resourcePath(accountsPath, accountID, "cards"), body)
}

// MakeDefaultPaymentMethod sets billing.account_card_id on the account
func (s *AccountService) MakeDefaultPaymentMethod(ctx context.Context, accountID, cardID string) (*storefront.Document, error) {
	body := storefront.NewDocument().
		Put("billing", storefront.NewDocument().Put("account_card_id", cardID))

	return s.gateway.Put(ctx, resourcePath(accountsPath, accountID), body)
}

// AddAddress stores a new address on the account. Validation errors reported
// by the remote store under $data.errors are returned as invalid input.
func (s *AccountService) AddAddress(ctx context.Context, accountID string, input AddressInput) (*storefront.Document, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, shared.NewDomainError("INVALID_INPUT", err.Error())
	}

	body := storefront.NewDocument().
		Put("address1", input.Address1).
		Put("address2", input.Address2).
		Put("city", input.City).
		Put("state", input.State).
		Put("zip", input.Zip).
		Put("country", input.Country)

	resp, err := s.gateway.Post(ctx, resourcePath(accountsPath, accountID, "addresses"), body)
	if err != nil {
		return nil, err
	}
	if err := s.remoteValidationError(ctx, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// MakeDefaultAddress sets shipping.account_address_id on the account
func (s *AccountService) MakeDefaultAddress(ctx context.Context, accountID, addressID string) (*storefront.Document, error) {
	body := storefront.NewDocument().
		Put("shipping", storefront.NewDocument().Put("account_address_id", addressID))

	resp, err := s.gateway.Put(ctx, resourcePath(accountsPath, accountID), body)
	if err != nil {
		return nil, err
	}
	if err := s.remoteValidationError(ctx, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// CountAccounts returns the number of registered accounts
func (s *AccountService) CountAccounts(ctx context.Context) (int64, error) {
	return s.gateway.Count(ctx, accountsPath)
}

// ListAllAccounts returns every account. Order is unspecified.
func (s *AccountService) ListAllAccounts(ctx context.Context, pageSize int) ([]*storefront.Document, error) {
	return s.gateway.FetchAll(ctx, accountsPath, pageSize)
}

// GeneratePasswordToken stores a fresh password token on the account
// identified by email and returns it.
func (s *AccountService) GeneratePasswordToken(ctx context.Context, email string) (string, error) {
	if _, err := s.GetAccount(ctx, email); err != nil {
		return "", err
	}

	token, err := s.tokens.Generate()
	if err != nil {
		return "", err
	}

	resp, err := s.gateway.Put(ctx, resourcePath(accountsPath, email),
		storefront.NewDocument().Put("password_token", token))
	if err != nil {
		return "", err
	}
	if !storefront.HasData(resp) {
		logger.Enrich(ctx, s.logger).Error("Remote store refused password token update")
		return "", shared.NewDomainError("UNAUTHORIZED", "Unauthorized to generate token")
	}
	return token, nil
}

func (s *AccountService) remoteValidationError(ctx context.Context, resp *storefront.Document) error {
	errs := storefront.Data(resp).Get(storefront.ErrorsField)
	if errs == nil {
		return nil
	}
	msg := "remote store rejected the request"
	if doc, ok := errs.(*storefront.Document); ok {
		msg = doc.String()
	}
	logger.Enrich(ctx, s.logger).Info("Remote store validation errors", zap.String("errors", msg))
	return shared.NewDomainError("INVALID_INPUT", msg)
}
