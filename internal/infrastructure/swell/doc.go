// Package swell implements the line protocol client for the remote store.
//
// Every exchange opens a fresh TLS connection, writes a single request line of
// the form
//
//	["<verb>", "<path>", <json-body>]
//
// reads exactly one response line and closes the connection. Credentials are
// merged into a copy of every request body.
//
// Components:
//   - codec.go: request framing and response decoding
//   - connection.go: Dialer and Conn (TLS setup, deadlines, cancellation)
//   - client.go: Client, the request executor with transient retry
//   - fetcher.go: Fetcher, concurrent paginated reads
//   - gateway.go: Gateway, the storefront.Gateway adapter
package swell
