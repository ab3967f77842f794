package swell

import (
	"context"

	"go.uber.org/zap"

	"github.com/paybridge/backend/internal/domain/storefront"
	"github.com/paybridge/backend/internal/infrastructure/config"
)

// Gateway implements storefront.Gateway over the line protocol: single
// requests go through the Client, paginated reads through the Fetcher.
type Gateway struct {
	*Client
	*Fetcher

	dialer *Dialer
}

var _ storefront.Gateway = (*Gateway)(nil)

// NewGateway wires a Dialer, Client and Fetcher from the swell configuration
func NewGateway(cfg *config.SwellConfig, logger *zap.Logger, opts ...Option) (*Gateway, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("swell")

	dialer, err := NewDialer(cfg, logger, opts...)
	if err != nil {
		return nil, err
	}
	client := NewClient(cfg, dialer, logger, opts...)
	fetcher := NewFetcher(client, cfg, logger, opts...)

	logger.Info("Remote store client configured",
		zap.String("addr", dialer.Addr()),
		zap.String("store_id", cfg.StoreID),
		zap.Int("max_fetch_page_size", cfg.MaxFetchPageSize),
		zap.Int("max_workers", fetcher.maxWorkers),
		zap.Int("max_retries", cfg.MaxRetries),
	)

	return &Gateway{
		Client:  client,
		Fetcher: fetcher,
		dialer:  dialer,
	}, nil
}

// Dialer returns the dialer used for every exchange
func (g *Gateway) Dialer() *Dialer {
	return g.dialer
}

// Ping opens and closes one connection to check the remote store is reachable
func (g *Gateway) Ping(ctx context.Context) error {
	conn, err := g.dialer.Connect(ctx)
	if err != nil {
		return err
	}
	return conn.Close()
}
