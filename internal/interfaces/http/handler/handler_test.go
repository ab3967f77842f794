package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/paybridge/backend/internal/domain/storefront"
	"github.com/paybridge/backend/internal/interfaces/http/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// stubCall is one request seen by stubGateway
type stubCall struct {
	method storefront.Method
	path   string
	body   *storefront.Document
}

// stubAnswer is the canned response for "METHOD path"
type stubAnswer struct {
	resp  *storefront.Document
	count int64
	docs  []*storefront.Document
	err   error
}

// stubGateway answers gateway calls from a table keyed by "METHOD path"
type stubGateway struct {
	mu      sync.Mutex
	answers map[string]stubAnswer
	calls   []stubCall
}

func newStubGateway() *stubGateway {
	return &stubGateway{answers: make(map[string]stubAnswer)}
}

func (g *stubGateway) on(method storefront.Method, path string, a stubAnswer) *stubGateway {
	g.answers[method.String()+" "+path] = a
	return g
}

func (g *stubGateway) lookup(method storefront.Method, path string, body *storefront.Document) stubAnswer {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, stubCall{method: method, path: path, body: body})
	a, ok := g.answers[method.String()+" "+path]
	if !ok {
		return stubAnswer{resp: storefront.NewDocument().Put(storefront.DataField, nil)}
	}
	return a
}

func (g *stubGateway) Calls() []stubCall {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]stubCall(nil), g.calls...)
}

func (g *stubGateway) Execute(_ context.Context, method storefront.Method, path string, body *storefront.Document) (*storefront.Document, error) {
	a := g.lookup(method, path, body)
	return a.resp, a.err
}

func (g *stubGateway) Get(ctx context.Context, path string) (*storefront.Document, error) {
	return g.Execute(ctx, storefront.MethodGet, path, nil)
}

func (g *stubGateway) Post(ctx context.Context, path string, body *storefront.Document) (*storefront.Document, error) {
	return g.Execute(ctx, storefront.MethodPost, path, body)
}

func (g *stubGateway) Put(ctx context.Context, path string, body *storefront.Document) (*storefront.Document, error) {
	return g.Execute(ctx, storefront.MethodPut, path, body)
}

func (g *stubGateway) Delete(ctx context.Context, path string, body *storefront.Document) (*storefront.Document, error) {
	return g.Execute(ctx, storefront.MethodDelete, path, body)
}

func (g *stubGateway) Count(_ context.Context, basePath string) (int64, error) {
	a := g.lookup(storefront.MethodGet, basePath+"#count", nil)
	return a.count, a.err
}

func (g *stubGateway) FetchAll(_ context.Context, basePath string, _ int) ([]*storefront.Document, error) {
	a := g.lookup(storefront.MethodGet, basePath+"#all", nil)
	return a.docs, a.err
}

func dataEnvelope(doc *storefront.Document) *storefront.Document {
	return storefront.NewDocument().Put(storefront.DataField, doc)
}

// routeRegistrar is satisfied by every API handler
type routeRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

func newTestEngine(handlers ...routeRegistrar) *gin.Engine {
	engine := gin.New()
	engine.Use(middleware.RequestID())
	api := engine.Group("/api/v1")
	for _, h := range handlers {
		h.RegisterRoutes(api)
	}
	return engine
}

// apiResponse mirrors dto.Response with raw data for assertions
type apiResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code      string `json:"code"`
		Message   string `json:"message"`
		RequestID string `json:"request_id"`
		TraceID   string `json:"trace_id"`
	} `json:"error"`
	Meta *struct {
		Total int64 `json:"total"`
	} `json:"meta"`
}

func perform(t *testing.T, engine http.Handler, method, target, body string) (*httptest.ResponseRecorder, apiResponse) {
	t.Helper()

	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	var resp apiResponse
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	}
	return w, resp
}
