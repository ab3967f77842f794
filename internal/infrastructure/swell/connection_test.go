package swell

import (
	"context"
	"crypto/tls"
	"encoding/pem"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/paybridge/backend/internal/domain/storefront"
)

func TestDialer_ConnectAndClose(t *testing.T) {
	srv := newLineServer(t, always(reply{line: `{"ok":true}`}))
	d, err := NewDialer(srv.Config(), nil, srv.TLSOption())
	require.NoError(t, err)

	conn, err := d.Connect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateConnected, conn.State())
	assert.Equal(t, int64(1), d.OpenConnections())

	require.NoError(t, conn.WriteLine(context.Background(), `["get", "/x", {}]`))
	line, err := conn.ReadLine(context.Background())
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, line)

	require.NoError(t, conn.Close())
	assert.NoError(t, conn.Close())
	assert.Equal(t, StateDisconnected, conn.State())
	assert.Equal(t, int64(0), d.OpenConnections())
	assert.Equal(t, int64(1), d.Dialed())

	err = conn.WriteLine(context.Background(), "x")
	assert.Equal(t, storefront.KindConnection, storefront.KindOf(err))
}

func TestDialer_UntrustedCertificateIsConnectionError(t *testing.T) {
	srv := newLineServer(t, always(reply{line: `{}`}))
	// no RootCAs: the system pool does not trust the test certificate
	d, err := NewDialer(srv.Config(), nil)
	require.NoError(t, err)

	_, err = d.Connect(context.Background())
	require.Error(t, err)
	assert.Equal(t, storefront.KindConnection, storefront.KindOf(err))
	assert.False(t, storefront.IsTransient(err))
	assert.Equal(t, int64(0), d.OpenConnections())
}

func TestDialer_InsecureSkipVerifyWarns(t *testing.T) {
	srv := newLineServer(t, always(reply{line: `{}`}))
	core, recorded := observer.New(zapcore.WarnLevel)

	cfg := srv.Config()
	cfg.InsecureSkipVerify = true
	d, err := NewDialer(cfg, zap.New(core))
	require.NoError(t, err)
	assert.Equal(t, 1, recorded.FilterMessageSnippet("verification is disabled").Len())

	conn, err := d.Connect(context.Background())
	require.NoError(t, err)
	_ = conn.Close()
}

func TestDialer_CAFile(t *testing.T) {
	srv := newLineServer(t, always(reply{line: `{}`}))

	path := filepath.Join(t.TempDir(), "ca.pem")
	pemBytes := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: srv.cert.Raw})
	require.NoError(t, os.WriteFile(path, pemBytes, 0o600))

	cfg := srv.Config()
	cfg.CAFile = path
	d, err := NewDialer(cfg, nil)
	require.NoError(t, err)

	conn, err := d.Connect(context.Background())
	require.NoError(t, err)
	_ = conn.Close()

	t.Run("missing file", func(t *testing.T) {
		cfg := srv.Config()
		cfg.CAFile = filepath.Join(t.TempDir(), "missing.pem")
		_, err := NewDialer(cfg, nil)
		assert.Error(t, err)
	})

	t.Run("no certificates", func(t *testing.T) {
		empty := filepath.Join(t.TempDir(), "empty.pem")
		require.NoError(t, os.WriteFile(empty, []byte("not a cert"), 0o600))
		cfg := srv.Config()
		cfg.CAFile = empty
		_, err := NewDialer(cfg, nil)
		assert.Error(t, err)
	})
}

func TestDialer_TLSConfigDefaults(t *testing.T) {
	srv := newLineServer(t, always(reply{line: `{}`}))
	d, err := NewDialer(srv.Config(), nil)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", d.tlsConfig.ServerName)
	assert.Equal(t, uint16(tls.VersionTLS12), d.tlsConfig.MinVersion)
	assert.False(t, d.tlsConfig.InsecureSkipVerify)
}

func TestDialer_RefusedIsConnectionError(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	srvCfg := (&lineServer{ln: ln}).Config()
	require.NoError(t, ln.Close())

	d, err := NewDialer(srvCfg, nil)
	require.NoError(t, err)

	_, err = d.Connect(context.Background())
	require.Error(t, err)
	assert.Equal(t, storefront.KindConnection, storefront.KindOf(err))
}

func TestDialer_AbortedHandshakeIsTransient(t *testing.T) {
	srv := newLineServer(t, always(reply{line: `{}`}), abortHandshakes(func(int) bool { return true }))
	d, err := NewDialer(srv.Config(), nil, srv.TLSOption())
	require.NoError(t, err)

	_, err = d.Connect(context.Background())
	require.Error(t, err)
	assert.True(t, storefront.IsTransient(err), "got %v", err)
}

func TestDialer_EnsureConnected(t *testing.T) {
	srv := newLineServer(t, always(reply{line: `{}`}))
	d, err := NewDialer(srv.Config(), nil, srv.TLSOption())
	require.NoError(t, err)
	ctx := context.Background()

	first, err := d.EnsureConnected(ctx, nil)
	require.NoError(t, err)

	same, err := d.EnsureConnected(ctx, first)
	require.NoError(t, err)
	assert.Same(t, first, same)

	require.NoError(t, first.Close())
	fresh, err := d.EnsureConnected(ctx, first)
	require.NoError(t, err)
	assert.NotSame(t, first, fresh)
	_ = fresh.Close()

	assert.Equal(t, int64(2), d.Dialed())
}

func TestConn_ReadTimeoutIsTransient(t *testing.T) {
	srv := newLineServer(t, always(reply{hang: true}))
	cfg := srv.Config()
	cfg.ReadTimeout = 100 * time.Millisecond
	d, err := NewDialer(cfg, nil, srv.TLSOption())
	require.NoError(t, err)

	conn, err := d.Connect(context.Background())
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteLine(context.Background(), `["get", "/slow", {}]`))
	_, err = conn.ReadLine(context.Background())
	require.Error(t, err)
	assert.True(t, storefront.IsTransient(err), "got %v", err)
	assert.Equal(t, StateBroken, conn.State())
}

func TestConn_CancelInterruptsRead(t *testing.T) {
	srv := newLineServer(t, always(reply{hang: true}))
	d, err := NewDialer(srv.Config(), nil, srv.TLSOption())
	require.NoError(t, err)

	conn, err := d.Connect(context.Background())
	require.NoError(t, err)
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, conn.WriteLine(ctx, `["get", "/slow", {}]`))
	time.AfterFunc(50*time.Millisecond, cancel)

	start := time.Now()
	_, err = conn.ReadLine(ctx)
	require.Error(t, err)
	assert.Less(t, time.Since(start), time.Second)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, storefront.IsTransient(err))
}

func TestConn_LineTooLong(t *testing.T) {
	srv := newLineServer(t, always(reply{line: `{"blob":"` + strings.Repeat("x", 200) + `"}`}))
	cfg := srv.Config()
	cfg.MaxResponseBytes = 16
	d, err := NewDialer(cfg, nil, srv.TLSOption())
	require.NoError(t, err)

	conn, err := d.Connect(context.Background())
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteLine(context.Background(), `["get", "/big", {}]`))
	_, err = conn.ReadLine(context.Background())
	require.Error(t, err)
	assert.Equal(t, storefront.KindMalformedResponse, storefront.KindOf(err))
}

func TestConn_EOFBeforeReply(t *testing.T) {
	srv := newLineServer(t, always(reply{closeNoReply: true}))
	d, err := NewDialer(srv.Config(), nil, srv.TLSOption())
	require.NoError(t, err)

	conn, err := d.Connect(context.Background())
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteLine(context.Background(), `["get", "/x", {}]`))
	_, err = conn.ReadLine(context.Background())
	assert.ErrorIs(t, err, io.EOF)
}

func TestDeadline(t *testing.T) {
	assert.True(t, deadline(context.Background(), 0).IsZero())

	d := deadline(context.Background(), time.Minute)
	assert.WithinDuration(t, time.Now().Add(time.Minute), d, time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	ctxDeadline, _ := ctx.Deadline()
	assert.Equal(t, ctxDeadline, deadline(ctx, time.Minute))
	assert.Equal(t, ctxDeadline, deadline(ctx, 0))
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "disconnected", StateDisconnected.String())
	assert.Equal(t, "connecting", StateConnecting.String())
	assert.Equal(t, "connected", StateConnected.String())
	assert.Equal(t, "broken", StateBroken.String())
	assert.Equal(t, "unknown", State(42).String())
}
