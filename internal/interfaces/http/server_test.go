package http

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/culturemech/culturemech/internal/config"
	"github.com/culturemech/culturemech/internal/telemetry/logging"
)

func echoHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestServer_StartAndShutdown(t *testing.T) {
	cfg := config.ServerConfig{Port: 0, ReadTimeout: time.Second, WriteTimeout: time.Second, ShutdownTimeout: time.Second}
	srv := NewServer(cfg, echoHandler(), logging.NewNopLogger())

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start(ctx) }()

	require.Eventually(t, srv.IsRunning, time.Second, 10*time.Millisecond)
	assert.NotEmpty(t, srv.Addr())

	cancel()
	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not shut down in time")
	}
	assert.False(t, srv.IsRunning())
}

func TestServer_DoubleStart_Error(t *testing.T) {
	cfg := config.ServerConfig{Port: 0, ShutdownTimeout: time.Second}
	srv := NewServer(cfg, echoHandler(), logging.NewNopLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go srv.Start(ctx)
	require.Eventually(t, srv.IsRunning, time.Second, 10*time.Millisecond)

	err := srv.Start(context.Background())
	assert.Error(t, err)
}

func TestServer_ShutdownBeforeStart_NoError(t *testing.T) {
	cfg := config.ServerConfig{Port: 0, ShutdownTimeout: time.Second}
	srv := NewServer(cfg, echoHandler(), logging.NewNopLogger())
	assert.NoError(t, srv.Shutdown(context.Background()))
}

func TestServer_AddrEmptyBeforeStart(t *testing.T) {
	cfg := config.ServerConfig{Port: 0}
	srv := NewServer(cfg, echoHandler(), logging.NewNopLogger())
	assert.Empty(t, srv.Addr())
	assert.False(t, srv.IsRunning())
}
