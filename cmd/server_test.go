package cmd

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TEENet-io/mintwrap-go/reporter"
)

func TestServerRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	env := newTestEnv(t)
	s := newServer(&ServerConfig{HttpIp: "127.0.0.1", HttpPort: "0"}, env.minter, env.reg)
	router := s.MyReporter.SetupRouter()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, reporter.ROUTE_MINT, nil))
	assert.Equal(t, http.StatusPreconditionFailed, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, reporter.ROUTE_CONNECT, nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), env.sim.Chain.Accounts[1].From.Hex())

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, reporter.ROUTE_METRICS, nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "mintwrap_sequences_total")
}

func TestServerRunStopsOnCancel(t *testing.T) {
	gin.SetMode(gin.TestMode)
	env := newTestEnv(t)
	s := newServer(&ServerConfig{HttpIp: "127.0.0.1", HttpPort: "0"}, env.minter, env.reg)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(shutdownTimeout + time.Second):
		t.Fatal("server did not stop")
	}
}
