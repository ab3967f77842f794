package swell

import (
	"bufio"
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/paybridge/backend/internal/domain/storefront"
	"github.com/paybridge/backend/internal/infrastructure/config"
)

// State is the lifecycle state of a Conn
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateBroken
)

// String returns the string representation of State
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateBroken:
		return "broken"
	default:
		return "unknown"
	}
}

// expired is used to force blocked I/O to return when a context is done
var expired = time.Unix(1, 0)

// Dialer opens TLS connections to the remote store. It is safe for concurrent
// use: each Connect call builds its own socket and shares only immutable
// configuration and atomic counters.
type Dialer struct {
	addr         string
	tlsConfig    *tls.Config
	dialTimeout  time.Duration
	readTimeout  time.Duration
	writeTimeout time.Duration
	keepAlive    time.Duration
	maxLineBytes int
	logger       *zap.Logger

	open   atomic.Int64
	dialed atomic.Int64
}

// NewDialer creates a Dialer from the swell configuration. Certificates and
// hostnames are fully verified unless insecure_skip_verify is set.
func NewDialer(cfg *config.SwellConfig, logger *zap.Logger, opts ...Option) (*Dialer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	o := applyOptions(opts)

	tlsConfig := o.tlsConfig
	if tlsConfig == nil {
		var err error
		tlsConfig, err = buildTLSConfig(cfg)
		if err != nil {
			return nil, err
		}
	} else {
		tlsConfig = tlsConfig.Clone()
	}
	if tlsConfig.ServerName == "" {
		tlsConfig.ServerName = cfg.Host
	}
	if tlsConfig.InsecureSkipVerify {
		logger.Warn("TLS certificate verification is disabled for the remote store",
			zap.String("addr", cfg.Addr()),
		)
	}

	return &Dialer{
		addr:         cfg.Addr(),
		tlsConfig:    tlsConfig,
		dialTimeout:  cfg.DialTimeout,
		readTimeout:  cfg.ReadTimeout,
		writeTimeout: cfg.WriteTimeout,
		keepAlive:    cfg.KeepAlive,
		maxLineBytes: cfg.MaxResponseBytes,
		logger:       logger,
	}, nil
}

func buildTLSConfig(cfg *config.SwellConfig) (*tls.Config, error) {
	tlsConfig := &tls.Config{
		ServerName:         cfg.Host,
		MinVersion:         tls.VersionTLS12,
		InsecureSkipVerify: cfg.InsecureSkipVerify,
	}
	if cfg.CAFile != "" {
		pem, err := os.ReadFile(cfg.CAFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read swell CA file: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("no certificates found in swell CA file %s", cfg.CAFile)
		}
		tlsConfig.RootCAs = pool
	}
	return tlsConfig, nil
}

// Addr returns the host:port this dialer connects to
func (d *Dialer) Addr() string {
	return d.addr
}

// OpenConnections returns the number of connections currently open
func (d *Dialer) OpenConnections() int64 {
	return d.open.Load()
}

// Dialed returns the number of connections successfully established so far
func (d *Dialer) Dialed() int64 {
	return d.dialed.Load()
}

// Connect dials the remote store and completes the TLS handshake.
// DNS, dial and certificate failures are connection errors; a handshake
// aborted by the remote side is transient.
func (d *Dialer) Connect(ctx context.Context) (*Conn, error) {
	nd := &net.Dialer{
		Timeout:   d.dialTimeout,
		KeepAlive: d.keepAlive,
	}
	raw, err := nd.DialContext(ctx, "tcp", d.addr)
	if err != nil {
		if ctx.Err() != nil {
			return nil, storefront.NewError(storefront.KindConnection, "dial", d.addr, ctx.Err())
		}
		return nil, storefront.NewError(storefront.KindConnection, "dial", d.addr, err)
	}
	if tcp, ok := raw.(*net.TCPConn); ok {
		_ = tcp.SetNoDelay(true)
	}

	c := &Conn{dialer: d}
	c.state.Store(int32(StateConnecting))

	tlsConn := tls.Client(raw, d.tlsConfig)
	hsCtx := ctx
	if d.dialTimeout > 0 {
		var cancel context.CancelFunc
		hsCtx, cancel = context.WithTimeout(ctx, d.dialTimeout)
		defer cancel()
	}
	if err := tlsConn.HandshakeContext(hsCtx); err != nil {
		_ = raw.Close()
		c.state.Store(int32(StateBroken))
		return nil, classifyHandshake(ctx, err)
	}

	c.raw = tlsConn
	c.reader = bufio.NewReaderSize(tlsConn, 64<<10)
	c.state.Store(int32(StateConnected))
	d.open.Add(1)
	d.dialed.Add(1)
	return c, nil
}

// EnsureConnected returns c when it is still open, otherwise a new connection.
func (d *Dialer) EnsureConnected(ctx context.Context, c *Conn) (*Conn, error) {
	if c != nil {
		if c.State() == StateConnected {
			return c, nil
		}
		_ = c.Close()
	}
	return d.Connect(ctx)
}

func classifyHandshake(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return storefront.NewError(storefront.KindConnection, "handshake", "", ctx.Err())
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) || isReset(err) {
		return storefront.NewError(storefront.KindTransientNetwork, "handshake", "remote host terminated the handshake", err)
	}
	if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
		return storefront.NewError(storefront.KindTransientNetwork, "handshake", "handshake timed out", err)
	}
	return storefront.NewError(storefront.KindConnection, "handshake", "", err)
}

// classifyIO maps a read or write failure to a storefront error
func classifyIO(ctx context.Context, op string, err error) error {
	if ctx.Err() != nil {
		return storefront.NewError(storefront.KindConnection, op, "", ctx.Err())
	}
	if isReset(err) || isTimeout(err) {
		return storefront.NewError(storefront.KindTransientNetwork, op, "", err)
	}
	return storefront.NewError(storefront.KindConnection, op, "", err)
}

func isReset(err error) bool {
	return errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNABORTED) ||
		errors.Is(err, syscall.EPIPE)
}

func isTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// Conn is one TLS connection to the remote store, used for a single
// request/response exchange. It is not safe for concurrent use.
type Conn struct {
	dialer    *Dialer
	raw       *tls.Conn
	reader    *bufio.Reader
	state     atomic.Int32
	closeOnce sync.Once
}

// State returns the current connection state
func (c *Conn) State() State {
	return State(c.state.Load())
}

// WriteLine writes line followed by a newline. The write is bounded by the
// configured write timeout and by ctx.
func (c *Conn) WriteLine(ctx context.Context, line string) error {
	if c.State() != StateConnected {
		return storefront.NewError(storefront.KindConnection, "write", "connection is "+c.State().String(), nil)
	}
	stop := c.interruptOnDone(ctx)
	defer stop()

	_ = c.raw.SetWriteDeadline(deadline(ctx, c.dialer.writeTimeout))
	buf := make([]byte, 0, len(line)+1)
	buf = append(buf, line...)
	buf = append(buf, '\n')
	if _, err := c.raw.Write(buf); err != nil {
		c.state.Store(int32(StateBroken))
		return classifyIO(ctx, "write", err)
	}
	return nil
}

// ReadLine reads one newline-terminated response line without the terminator.
// It returns io.EOF when the remote side closes the stream before sending
// anything. Lines longer than the configured maximum are rejected.
func (c *Conn) ReadLine(ctx context.Context) (string, error) {
	if c.State() != StateConnected {
		return "", storefront.NewError(storefront.KindConnection, "read", "connection is "+c.State().String(), nil)
	}
	stop := c.interruptOnDone(ctx)
	defer stop()

	_ = c.raw.SetReadDeadline(deadline(ctx, c.dialer.readTimeout))

	var line bytes.Buffer
	for {
		chunk, err := c.reader.ReadSlice('\n')
		if c.dialer.maxLineBytes > 0 && line.Len()+len(chunk) > c.dialer.maxLineBytes+1 {
			c.state.Store(int32(StateBroken))
			return "", storefront.NewError(storefront.KindMalformedResponse, "read",
				fmt.Sprintf("response line exceeds %d bytes", c.dialer.maxLineBytes), nil)
		}
		line.Write(chunk)

		switch {
		case err == nil:
			return string(bytes.TrimRight(line.Bytes(), "\r\n")), nil
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		case errors.Is(err, io.EOF):
			c.state.Store(int32(StateBroken))
			if line.Len() == 0 {
				return "", io.EOF
			}
			// last line without a terminator
			return string(bytes.TrimRight(line.Bytes(), "\r")), nil
		default:
			c.state.Store(int32(StateBroken))
			return "", classifyIO(ctx, "read", err)
		}
	}
}

// Close releases the socket. It is safe to call more than once.
func (c *Conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		if c.raw == nil {
			return
		}
		// close_notify must not block on a peer that stopped reading
		_ = c.raw.SetWriteDeadline(time.Now().Add(time.Second))
		err = c.raw.Close()
		c.state.Store(int32(StateDisconnected))
		c.dialer.open.Add(-1)
	})
	return err
}

// interruptOnDone forces pending I/O to fail once ctx is done. The returned
// function must be called when the I/O step completes.
func (c *Conn) interruptOnDone(ctx context.Context) func() bool {
	return context.AfterFunc(ctx, func() {
		_ = c.raw.SetDeadline(expired)
	})
}

// deadline returns now+timeout clipped to the context deadline. A zero
// timeout without a context deadline means no deadline.
func deadline(ctx context.Context, timeout time.Duration) time.Time {
	var d time.Time
	if timeout > 0 {
		d = time.Now().Add(timeout)
	}
	if ctxDeadline, ok := ctx.Deadline(); ok && (d.IsZero() || ctxDeadline.Before(d)) {
		d = ctxDeadline
	}
	return d
}
