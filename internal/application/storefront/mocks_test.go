package storefront

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/paybridge/backend/internal/domain/storefront"
)

// MockGateway is a mock implementation of storefront.Gateway
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) Execute(ctx context.Context, method storefront.Method, path string, body *storefront.Document) (*storefront.Document, error) {
	args := m.Called(ctx, method, path, body)
	return docArg(args, 0), args.Error(1)
}

func (m *MockGateway) Get(ctx context.Context, path string) (*storefront.Document, error) {
	args := m.Called(ctx, path)
	return docArg(args, 0), args.Error(1)
}

func (m *MockGateway) Post(ctx context.Context, path string, body *storefront.Document) (*storefront.Document, error) {
	args := m.Called(ctx, path, body)
	return docArg(args, 0), args.Error(1)
}

func (m *MockGateway) Put(ctx context.Context, path string, body *storefront.Document) (*storefront.Document, error) {
	args := m.Called(ctx, path, body)
	return docArg(args, 0), args.Error(1)
}

func (m *MockGateway) Delete(ctx context.Context, path string, body *storefront.Document) (*storefront.Document, error) {
	args := m.Called(ctx, path, body)
	return docArg(args, 0), args.Error(1)
}

func (m *MockGateway) Count(ctx context.Context, basePath string) (int64, error) {
	args := m.Called(ctx, basePath)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockGateway) FetchAll(ctx context.Context, basePath string, pageSize int) ([]*storefront.Document, error) {
	args := m.Called(ctx, basePath, pageSize)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*storefront.Document), args.Error(1)
}

// MockDocumentCache is a mock implementation of storefront.DocumentCache
type MockDocumentCache struct {
	mock.Mock
}

func (m *MockDocumentCache) Get(ctx context.Context, key string) (*storefront.Document, bool, error) {
	args := m.Called(ctx, key)
	return docArg(args, 0), args.Bool(1), args.Error(2)
}

func (m *MockDocumentCache) Set(ctx context.Context, key string, doc *storefront.Document, ttl time.Duration) error {
	args := m.Called(ctx, key, doc, ttl)
	return args.Error(0)
}

func (m *MockDocumentCache) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

type fixedToken string

func (t fixedToken) Generate() (string, error) {
	return string(t), nil
}

func docArg(args mock.Arguments, i int) *storefront.Document {
	if args.Get(i) == nil {
		return nil
	}
	return args.Get(i).(*storefront.Document)
}

// dataResponse wraps data in a $data envelope
func dataResponse(data *storefront.Document) *storefront.Document {
	return storefront.NewDocument().Put(storefront.DataField, data)
}

// emptyResponse is a response whose $data is null
func emptyResponse() *storefront.Document {
	return storefront.NewDocument().Put(storefront.DataField, nil)
}

// bodyWith matches a request body carrying the given key/value pairs
func bodyWith(keyValues ...any) any {
	return mock.MatchedBy(func(body *storefront.Document) bool {
		for i := 0; i+1 < len(keyValues); i += 2 {
			want := storefront.NewDocument().Put("v", keyValues[i+1])
			got := storefront.NewDocument().Put("v", body.Get(keyValues[i].(string)))
			if !want.Equal(got) {
				return false
			}
		}
		return true
	})
}
