package storefront

import (
	"context"

	"go.uber.org/zap"

	"github.com/paybridge/backend/internal/domain/storefront"
	"github.com/paybridge/backend/internal/infrastructure/logger"
	"github.com/paybridge/backend/internal/infrastructure/telemetry"
)

// OrderService reads and removes orders in the remote store
type OrderService struct {
	gateway storefront.Gateway
	logger  *zap.Logger
}

// NewOrderService creates a new OrderService
func NewOrderService(gateway storefront.Gateway, logger *zap.Logger) *OrderService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrderService{gateway: gateway, logger: logger}
}

// GetOrder fetches one order
func (s *OrderService) GetOrder(ctx context.Context, id string) (*storefront.Document, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "order", "get",
		telemetry.WithAttribute(telemetry.SpanAttrOrderID, id))
	defer span.End()

	resp, err := s.gateway.Get(ctx, resourcePath(ordersPath, id))
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if !storefront.HasData(resp) {
		return nil, storefront.NewError(storefront.KindNotFound, "get_order", "order "+id+" not found", nil)
	}
	return resp, nil
}

// DeleteOrder removes an order
func (s *OrderService) DeleteOrder(ctx context.Context, id string) error {
	resp, err := s.gateway.Delete(ctx, resourcePath(ordersPath, id), storefront.NewDocument().Put("id", id))
	if err != nil {
		return err
	}
	if !storefront.HasData(resp) {
		logger.Enrich(ctx, s.logger).Warn("Order delete returned no data", zap.String("order_id", id))
		return storefront.NewError(storefront.KindNotFound, "delete_order", "order "+id+" not found", nil)
	}
	return nil
}

// CountOrders returns the number of orders
func (s *OrderService) CountOrders(ctx context.Context) (int64, error) {
	return s.gateway.Count(ctx, ordersPath)
}

// ListAllOrders returns every order. Order is unspecified.
func (s *OrderService) ListAllOrders(ctx context.Context, pageSize int) ([]*storefront.Document, error) {
	return s.gateway.FetchAll(ctx, ordersPath, pageSize)
}
