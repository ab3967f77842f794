package storefront

import (
	"context"
	"time"
)

// DocumentCache stores response documents by key. Implementations must be
// safe for concurrent use. A miss is reported with ok == false and no error.
type DocumentCache interface {
	Get(ctx context.Context, key string) (doc *Document, ok bool, err error)
	Set(ctx context.Context, key string, doc *Document, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
