package storefront

import (
	"net/url"
	"strconv"
	"strings"
)

const (
	accountsPath      = "/accounts"
	ordersPath        = "/orders"
	subscriptionsPath = "/subscriptions"
	productsPath      = "/products"
)

// resourcePath joins base with escaped path segments
func resourcePath(base string, segments ...string) string {
	var b strings.Builder
	b.WriteString(base)
	for _, s := range segments {
		b.WriteByte('/')
		b.WriteString(url.PathEscape(s))
	}
	return b.String()
}

// productListPath builds /products, /products?page=N and /products?page=N&limit=L
func productListPath(page, limit int) string {
	var params []string
	if page > 0 {
		params = append(params, "page="+strconv.Itoa(page))
	}
	if limit > 0 {
		params = append(params, "limit="+strconv.Itoa(limit))
	}
	if len(params) == 0 {
		return productsPath
	}
	return productsPath + "?" + strings.Join(params, "&")
}
