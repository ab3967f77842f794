package storefront

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/paybridge/backend/internal/domain/storefront"
)

func TestVerificationService_AvailableVerificationTypes(t *testing.T) {
	tests := []struct {
		name    string
		account *storefront.Document
		want    []VerificationType
	}{
		{
			name:    "email only",
			account: storefront.NewDocument().Put("email", "a@example.com"),
			want:    []VerificationType{VerificationEmail},
		},
		{
			name:    "empty phone",
			account: storefront.NewDocument().Put("phone", ""),
			want:    []VerificationType{VerificationEmail},
		},
		{
			name:    "null phone",
			account: storefront.NewDocument().Put("phone", nil),
			want:    []VerificationType{VerificationEmail},
		},
		{
			name:    "with phone",
			account: storefront.NewDocument().Put("phone", "+15550100"),
			want:    []VerificationType{VerificationEmail, VerificationSMS},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := new(MockGateway)
			gw.On("Get", mock.Anything, "/accounts/a@example.com").Return(dataResponse(tt.account), nil)

			svc := NewVerificationService(newTestAccountService(gw))
			got, err := svc.AvailableVerificationTypes(context.Background(), "a@example.com")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestVerificationService_UnknownAccount(t *testing.T) {
	gw := new(MockGateway)
	gw.On("Get", mock.Anything, "/accounts/a@example.com").Return(emptyResponse(), nil)

	_, err := NewVerificationService(newTestAccountService(gw)).AvailableVerificationTypes(context.Background(), "a@example.com")
	assert.ErrorIs(t, err, storefront.ErrNotFound)
}
