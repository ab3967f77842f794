package swell

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/paybridge/backend/internal/domain/storefront"
)

// EncodeRequest frames a request as a single protocol line, without the
// trailing newline. body must already be serialized JSON and is inserted raw.
// Newlines in path are removed rather than escaped.
func EncodeRequest(method storefront.Method, path, body string) string {
	var b strings.Builder
	b.Grow(len(path) + len(body) + 16)
	b.WriteString(`["`)
	b.WriteString(method.Wire())
	b.WriteString(`", `)
	b.WriteString(quote(strings.ReplaceAll(path, "\n", "")))
	b.WriteString(", ")
	if body == "" {
		body = "{}"
	}
	b.WriteString(body)
	b.WriteString("]")
	return b.String()
}

// quote renders s as a JSON string without HTML escaping, so query suffixes
// such as &page= stay byte-identical.
func quote(s string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		// strings always encode
		return `""`
	}
	return strings.TrimSuffix(buf.String(), "\n")
}

// DecodeResponse parses one response line. A literal null (any case) or an
// empty line is the remote backend's negative acknowledgement and yields a
// protocol error, never an empty document.
func DecodeResponse(line string) (*storefront.Document, error) {
	line = strings.TrimRight(line, "\r\n")
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.EqualFold(trimmed, "null") {
		return nil, storefront.NewError(storefront.KindProtocol, "decode", "", storefront.ErrNullResponse)
	}
	return storefront.ParseDocument(line)
}
