package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/paybridge/backend/internal/domain/storefront"
)

type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) Execute(ctx context.Context, method storefront.Method, path string, body *storefront.Document) (*storefront.Document, error) {
	args := m.Called(ctx, method, path, body)
	return docArg(args), args.Error(1)
}

func (m *MockGateway) Get(ctx context.Context, path string) (*storefront.Document, error) {
	args := m.Called(ctx, path)
	return docArg(args), args.Error(1)
}

func (m *MockGateway) Post(ctx context.Context, path string, body *storefront.Document) (*storefront.Document, error) {
	args := m.Called(ctx, path, body)
	return docArg(args), args.Error(1)
}

func (m *MockGateway) Put(ctx context.Context, path string, body *storefront.Document) (*storefront.Document, error) {
	args := m.Called(ctx, path, body)
	return docArg(args), args.Error(1)
}

func (m *MockGateway) Delete(ctx context.Context, path string, body *storefront.Document) (*storefront.Document, error) {
	args := m.Called(ctx, path, body)
	return docArg(args), args.Error(1)
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

func (m *MockGateway) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func docArg(args mock.Arguments) *storefront.Document {
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*storefront.Document)
}

func run(t *testing.T, gw storefront.Gateway, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(func(bool) (storefront.Gateway, error) { return gw, nil })
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestGetCommand(t *testing.T) {
	gw := new(MockGateway)
	gw.On("Get", mock.Anything, "/accounts/acc_1").
		Return(storefront.NewDocument().Put("$data", storefront.NewDocument().Put("id", "acc_1")), nil)

	out, err := run(t, gw, "get", "/accounts/acc_1")

	require.NoError(t, err)
	assert.Equal(t, `{"$data":{"id":"acc_1"}}`+"\n", out)
	gw.AssertExpectations(t)
}

func TestExecCommand(t *testing.T) {
	gw := new(MockGateway)
	gw.On("Execute", mock.Anything, storefront.MethodPut, "/accounts/acc_1", mock.MatchedBy(func(body *storefront.Document) bool {
		v, _ := body.GetString("first_name")
		return v == "Jane"
	})).Return(storefront.NewDocument().Put("$data", nil), nil)

	out, err := run(t, gw, "exec", "put", "/accounts/acc_1", `{"first_name":"Jane"}`)

	require.NoError(t, err)
	assert.Equal(t, `{"$data":null}`+"\n", out)
	gw.AssertExpectations(t)
}

func TestExecCommand_Rejects(t *testing.T) {
	gw := new(MockGateway)

	_, err := run(t, gw, "exec", "PATCH", "/accounts")
	assert.ErrorContains(t, err, "unsupported method")

	_, err = run(t, gw, "exec", "POST", "/accounts", `[1,2]`)
	assert.ErrorIs(t, err, storefront.ErrMalformedResponse)

	gw.AssertNotCalled(t, "Execute", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCountCommand(t *testing.T) {
	gw := new(MockGateway)
	gw.On("Count", mock.Anything, "/orders").Return(int64(1234), nil)

	out, err := run(t, gw, "count", "/orders")

	require.NoError(t, err)
	assert.Equal(t, "1234\n", out)
}

func TestFetchAllCommand(t *testing.T) {
	gw := new(MockGateway)
	gw.On("FetchAll", mock.Anything, "/products", 50).Return([]*storefront.Document{
		storefront.NewDocument().Put("id", "p1"),
		storefront.NewDocument().Put("id", "p2"),
	}, nil)

	out, err := run(t, gw, "fetch-all", "/products", "--page-size", "50")

	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Equal(t, []string{`{"id":"p1"}`, `{"id":"p2"}`}, lines)
}

func TestFetchAllCommand_Failure(t *testing.T) {
	gw := new(MockGateway)
	fetchErr := storefront.NewError(storefront.KindFetch, "fetch_all", "page 2 failed", nil)
	gw.On("FetchAll", mock.Anything, "/products", 0).Return(nil, fetchErr)

	out, err := run(t, gw, "fetch-all", "/products")

	assert.ErrorIs(t, err, storefront.ErrFetch)
	assert.Empty(t, out)
}

func TestPingCommand(t *testing.T) {
	gw := new(MockGateway)
	gw.On("Ping", mock.Anything).Return(nil).Once()
	gw.On("Ping", mock.Anything).Return(errors.New("connection refused")).Once()

	out, err := run(t, gw, "ping")
	require.NoError(t, err)
	assert.Equal(t, "ok\n", out)

	_, err = run(t, gw, "ping")
	assert.ErrorContains(t, err, "connection refused")
}

func TestGatewayFactoryError(t *testing.T) {
	cmd := newRootCmd(func(bool) (storefront.Gateway, error) {
		return nil, errors.New("no config")
	})
	cmd.SetArgs([]string{"count", "/orders"})
	cmd.SetOut(&bytes.Buffer{})

	assert.ErrorContains(t, cmd.Execute(), "no config")
}
