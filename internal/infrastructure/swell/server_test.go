package swell

import (
	"bufio"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/paybridge/backend/internal/infrastructure/config"
)

// reply tells the test server how to answer one connection
type reply struct {
	line         string // written followed by \n
	raw          string // written verbatim
	reset        bool   // abort with RST after reading the request
	closeNoReply bool   // close cleanly after reading the request
	hang         bool   // read the request and never answer
}

// request is one decoded protocol line received by the test server
type request struct {
	Verb string
	Path string
	Body map[string]any
	Line string
}

type lineServer struct {
	t        *testing.T
	ln       net.Listener
	cert     *x509.Certificate
	serverTL *tls.Config
	handler  func(n int, req request) reply

	// abortHandshake, when set, decides whether connection n is reset
	// before the TLS handshake
	abortHandshake func(n int) bool

	accepted atomic.Int64
	mu       sync.Mutex
	requests []request
	wg       sync.WaitGroup
	done     chan struct{}
}

func newLineServer(t *testing.T, handler func(n int, req request) reply, opts ...func(*lineServer)) *lineServer {
	t.Helper()

	// borrow httptest's self-signed certificate for 127.0.0.1
	hs := httptest.NewTLSServer(http.NotFoundHandler())
	cert := hs.TLS.Certificates[0]
	leaf := hs.Certificate()
	hs.Close()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	s := &lineServer{
		t:        t,
		ln:       ln,
		cert:     leaf,
		serverTL: &tls.Config{Certificates: []tls.Certificate{cert}},
		handler:  handler,
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.wg.Add(1)
	go s.serve()
	t.Cleanup(s.Close)
	return s
}

func (s *lineServer) serve() {
	defer s.wg.Done()
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}
		n := int(s.accepted.Add(1))
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handle(n, conn.(*net.TCPConn))
		}()
	}
}

func (s *lineServer) handle(n int, tcp *net.TCPConn) {
	defer tcp.Close()

	if s.abortHandshake != nil && s.abortHandshake(n) {
		_ = tcp.SetLinger(0)
		return
	}

	conn := tls.Server(tcp, s.serverTL)
	_ = conn.SetDeadline(time.Now().Add(5 * time.Second))
	if err := conn.Handshake(); err != nil {
		return
	}

	line, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil {
		return
	}
	req := decodeRequestLine(line)
	s.mu.Lock()
	s.requests = append(s.requests, req)
	s.mu.Unlock()

	r := s.handler(n, req)
	switch {
	case r.reset:
		_ = tcp.SetLinger(0)
		return
	case r.closeNoReply:
		_ = conn.Close()
		return
	case r.hang:
		select {
		case <-s.done:
		case <-time.After(5 * time.Second):
		}
		return
	case r.raw != "":
		_, _ = conn.Write([]byte(r.raw))
	default:
		_, _ = conn.Write([]byte(r.line + "\n"))
	}
	_ = conn.Close()
}

func decodeRequestLine(line string) request {
	req := request{Line: line}
	var frame []json.RawMessage
	if err := json.Unmarshal([]byte(line), &frame); err != nil || len(frame) != 3 {
		return req
	}
	_ = json.Unmarshal(frame[0], &req.Verb)
	_ = json.Unmarshal(frame[1], &req.Path)
	_ = json.Unmarshal(frame[2], &req.Body)
	return req
}

func (s *lineServer) Close() {
	select {
	case <-s.done:
		return
	default:
	}
	close(s.done)
	_ = s.ln.Close()
	s.wg.Wait()
}

func (s *lineServer) Requests() []request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]request(nil), s.requests...)
}

// RootCAs returns a pool trusting the server certificate
func (s *lineServer) RootCAs() *x509.CertPool {
	pool := x509.NewCertPool()
	pool.AddCert(s.cert)
	return pool
}

// Config returns a swell configuration pointing at the server
func (s *lineServer) Config() *config.SwellConfig {
	host, portStr, _ := net.SplitHostPort(s.ln.Addr().String())
	port, _ := strconv.Atoi(portStr)
	return &config.SwellConfig{
		Host:             host,
		Port:             port,
		StoreID:          "test-store",
		SecretKey:        "sk_test_secret",
		MaxFetchPageSize: 1000,
		DefaultPageSize:  25,
		MaxWorkers:       16,
		MaxRetries:       1,
		DialTimeout:      2 * time.Second,
		ReadTimeout:      2 * time.Second,
		WriteTimeout:     2 * time.Second,
		KeepAlive:        30 * time.Second,
		MaxResponseBytes: 1 << 20,
	}
}

// TLSOption returns an Option trusting the server certificate
func (s *lineServer) TLSOption() Option {
	return WithTLSConfig(&tls.Config{RootCAs: s.RootCAs(), MinVersion: tls.VersionTLS12})
}

func abortHandshakes(fn func(n int) bool) func(*lineServer) {
	return func(s *lineServer) { s.abortHandshake = fn }
}

func always(r reply) func(int, request) reply {
	return func(int, request) reply { return r }
}
