package swell

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/paybridge/backend/internal/domain/storefront"
	"github.com/paybridge/backend/internal/infrastructure/config"
	"github.com/paybridge/backend/internal/infrastructure/telemetry"
)

// MaxListingPages bounds the number of page requests a single FetchAll may
// plan. Counts needing more pages are rejected as fetch errors.
const MaxListingPages = 100_000

// preallocLimit caps the initial capacity of the result slice
const preallocLimit = 4096

// PageGetter issues the GET requests used by the Fetcher
type PageGetter interface {
	Get(ctx context.Context, path string) (*storefront.Document, error)
}

// Fetcher assembles paginated listings by probing the record count and
// fetching every page concurrently through a bounded worker group.
type Fetcher struct {
	getter          PageGetter
	maxPageSize     int
	defaultPageSize int
	maxWorkers      int
	limiter         *rate.Limiter
	logger          *zap.Logger
	metrics         *telemetry.StoreMetrics
}

// NewFetcher creates a Fetcher issuing requests through getter
func NewFetcher(getter PageGetter, cfg *config.SwellConfig, logger *zap.Logger, opts ...Option) *Fetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	o := applyOptions(opts)

	limiter := o.limiter
	if limiter == nil && cfg.PageRequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.PageRequestsPerSecond), 1)
	}

	f := &Fetcher{
		getter:          getter,
		maxPageSize:     cfg.MaxFetchPageSize,
		defaultPageSize: cfg.DefaultPageSize,
		maxWorkers:      cfg.MaxWorkers,
		limiter:         limiter,
		logger:          logger,
		metrics:         o.metrics,
	}
	if f.maxPageSize <= 0 {
		f.maxPageSize = 1000
	}
	if f.defaultPageSize <= 0 {
		f.defaultPageSize = 25
	}
	if f.maxWorkers <= 0 {
		f.maxWorkers = 16
	}
	return f
}

// NormalizePageSize clamps n to the configured maximum and substitutes the
// default page size for n <= 0.
func (f *Fetcher) NormalizePageSize(n int) int {
	switch {
	case n <= 0:
		return f.defaultPageSize
	case n > f.maxPageSize:
		return f.maxPageSize
	default:
		return n
	}
}

// Count queries basePath with limit=1 and returns $data.count. A failed count request
// or a missing, fractional or negative count is a fetch error.
func (f *Fetcher) Count(ctx context.Context, basePath string) (int64, error) {
	resp, err := f.getter.Get(ctx, withQuery(basePath, "limit=1"))
	if err != nil {
		return 0, storefront.NewError(storefront.KindFetch, "count", "count request failed for "+basePath, err)
	}

	data := storefront.Data(resp)
	if data == nil {
		return 0, storefront.NewError(storefront.KindFetch, "count", "count request for "+basePath+" returned no $data envelope", nil)
	}
	count, ok := data.GetInt64(storefront.CountField)
	if !ok || count < 0 {
		return 0, storefront.NewError(storefront.KindFetch, "count",
			fmt.Sprintf("count request for %s returned unusable count %v", basePath, data.Get(storefront.CountField)), nil)
	}
	return count, nil
}

// FetchAll returns every record of the listing at basePath. The first failing
// page cancels the remaining ones and its error is returned; partial results
// are discarded. Result order is unspecified.
func (f *Fetcher) FetchAll(ctx context.Context, basePath string, pageSize int) ([]*storefront.Document, error) {
	pageSize = f.NormalizePageSize(pageSize)

	ctx, span := telemetry.StartSpan(ctx, "swell.fetch_all",
		telemetry.WithAttribute(telemetry.SpanAttrStorePath, basePath),
		telemetry.WithAttribute(telemetry.SpanAttrPageSize, pageSize),
	)
	defer span.End()

	total, err := f.Count(ctx, basePath)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if total == 0 {
		return []*storefront.Document{}, nil
	}

	pages64 := total / int64(pageSize)
	if total%int64(pageSize) != 0 {
		pages64++
	}
	if pages64 > MaxListingPages {
		err := storefront.NewError(storefront.KindFetch, "fetch_all",
			fmt.Sprintf("%s reports %d records, more than %d pages of %d", basePath, total, MaxListingPages, pageSize), nil)
		telemetry.RecordError(span, err)
		return nil, err
	}
	pages := int(pages64)
	workers := min(pages, f.maxWorkers)
	telemetry.SetAttributes(span,
		telemetry.SpanAttrTotal, total,
		telemetry.SpanAttrPageCount, pages,
	)
	f.logger.Debug("Fetching paginated listing",
		zap.String("path", basePath),
		zap.Int64("total", total),
		zap.Int("page_size", pageSize),
		zap.Int("pages", pages),
		zap.Int("workers", workers),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	var mu sync.Mutex
	results := make([]*storefront.Document, 0, min(total, preallocLimit))
	var dispatchErr error

	for page := 1; page <= pages; page++ {
		if gctx.Err() != nil {
			break
		}
		if f.limiter != nil {
			if err := f.limiter.Wait(gctx); err != nil {
				dispatchErr = err
				break
			}
		}
		g.Go(func() error {
			docs, err := f.fetchPage(gctx, basePath, pageSize, page)
			if err != nil {
				return err
			}
			mu.Lock()
			results = append(results, docs...)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		err = storefront.NewError(storefront.KindFetch, "fetch_all", "cancelled", err)
		telemetry.RecordError(span, err)
		return nil, err
	}
	if dispatchErr != nil {
		err := storefront.NewError(storefront.KindFetch, "fetch_all",
			fmt.Sprintf("page dispatch for %s stopped before all %d pages", basePath, pages), dispatchErr)
		telemetry.RecordError(span, err)
		return nil, err
	}
	return results, nil
}

func (f *Fetcher) fetchPage(ctx context.Context, basePath string, pageSize, page int) ([]*storefront.Document, error) {
	path := withQuery(basePath, fmt.Sprintf("limit=%d&page=%d", pageSize, page))
	resp, err := f.getter.Get(ctx, path)
	if err != nil {
		return nil, err
	}

	data := storefront.Data(resp)
	raw, ok := data.Get(storefront.ResultsField).([]any)
	if !ok {
		return nil, storefront.NewError(storefront.KindFetch, "page", path+" returned no $data.results array", nil)
	}
	docs := make([]*storefront.Document, 0, len(raw))
	for i, item := range raw {
		doc, ok := item.(*storefront.Document)
		if !ok {
			return nil, storefront.NewError(storefront.KindFetch, "page",
				fmt.Sprintf("%s result %d is not an object", path, i), nil)
		}
		docs = append(docs, doc)
	}
	f.metrics.RecordPage(ctx)
	return docs, nil
}

// withQuery appends a query fragment to path, which may already carry one
func withQuery(path, query string) string {
	if strings.Contains(path, "?") {
		return path + "&" + query
	}
	return path + "?" + query
}
