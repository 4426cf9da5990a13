package httpserver

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/quantlayer/tradecache/pkg/healthprobe"
)

func newTestServer(querier TradeQuerier) (*Server, *healthprobe.HealthChecker) {
	checker := healthprobe.New()
	srv := New(&Config{
		Port:          "0",
		Logger:        zap.NewNop(),
		HealthChecker: checker,
		Querier:       querier,
	})
	return srv, checker
}

func serve(srv *Server, method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	srv.server.Handler.ServeHTTP(rec, req)
	return rec
}

func TestServer_HealthAlwaysOK(t *testing.T) {
	srv, _ := newTestServer(nil)

	rec := serve(srv, http.MethodGet, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServer_ReadyFollowsChecker(t *testing.T) {
	srv, checker := newTestServer(nil)

	rec := serve(srv, http.MethodGet, "/ready")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	checker.SetReady(true)
	rec = serve(srv, http.MethodGet, "/ready")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServer_MetricsExposed(t *testing.T) {
	srv, _ := newTestServer(nil)

	rec := serve(srv, http.MethodGet, "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Body.String())
}

func TestServer_QueryRoutesRequireQuerier(t *testing.T) {
	srv, _ := newTestServer(nil)

	rec := serve(srv, http.MethodGet, "/api/trades?instrument=BTC-USD&start=0&end=1")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_QueryRouteWired(t *testing.T) {
	srv, _ := newTestServer(&stubQuerier{})

	rec := serve(srv, http.MethodGet, "/api/trades?instrument=BTC-USD&start=0&end=1")
	assert.Equal(t, http.StatusOK, rec.Code)
}
