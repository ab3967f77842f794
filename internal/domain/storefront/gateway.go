package storefront

import (
	"context"
	"strings"
)

// Method is a request verb understood by the remote backend
type Method string

const (
	MethodGet    Method = "GET"
	MethodPost   Method = "POST"
	MethodPut    Method = "PUT"
	MethodDelete Method = "DELETE"
)

// IsValid returns true if the method is one of the four supported verbs
func (m Method) IsValid() bool {
	switch m {
	case MethodGet, MethodPost, MethodPut, MethodDelete:
		return true
	default:
		return false
	}
}

// Wire returns the lower-case form used on the wire
func (m Method) Wire() string {
	return strings.ToLower(string(m))
}

// String returns the string representation of Method
func (m Method) String() string {
	return string(m)
}

// Gateway is the port through which application services reach the remote
// backend. Paths may carry ?limit= and &page= suffixes directly.
type Gateway interface {
	// Execute issues a single request. body may be nil.
	Execute(ctx context.Context, method Method, path string, body *Document) (*Document, error)
	Get(ctx context.Context, path string) (*Document, error)
	Post(ctx context.Context, path string, body *Document) (*Document, error)
	Put(ctx context.Context, path string, body *Document) (*Document, error)
	Delete(ctx context.Context, path string, body *Document) (*Document, error)

	// Count returns $data.count of a limit=1 request on basePath.
	Count(ctx context.Context, basePath string) (int64, error)
	// FetchAll returns every record of a paginated listing. Order is unspecified.
	FetchAll(ctx context.Context, basePath string, pageSize int) ([]*Document, error)
}

// Data returns the $data envelope of a response, or nil
func Data(resp *Document) *Document {
	return resp.GetDocument(DataField)
}

// HasData reports whether the response carries a non-null $data envelope
func HasData(resp *Document) bool {
	return resp.Get(DataField) != nil
}
