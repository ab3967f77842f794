package storefront

import (
	"context"

	"github.com/paybridge/backend/internal/domain/storefront"
)

// VerificationType is a channel over which an account holder can be verified
type VerificationType string

const (
	VerificationEmail VerificationType = "EMAIL"
	VerificationSMS   VerificationType = "SMS"
)

// VerificationService decides which verification channels an account offers
type VerificationService struct {
	accounts *AccountService
}

// NewVerificationService creates a new VerificationService
func NewVerificationService(accounts *AccountService) *VerificationService {
	return &VerificationService{accounts: accounts}
}

// AvailableVerificationTypes returns EMAIL, plus SMS when the account has a phone number
func (s *VerificationService) AvailableVerificationTypes(ctx context.Context, email string) ([]VerificationType, error) {
	account, err := s.accounts.GetAccount(ctx, email)
	if err != nil {
		return nil, err
	}

	types := []VerificationType{VerificationEmail}
	if phone, ok := storefront.Data(account).GetString("phone"); ok && phone != "" {
		types = append(types, VerificationSMS)
	}
	return types, nil
}
