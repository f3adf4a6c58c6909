package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saldo-labs/akuntansid/internal/auth"
	"github.com/saldo-labs/akuntansid/internal/config"
)

func TestRouteTable(t *testing.T) {
	cases := map[string]string{
		"/api/auth/login":                config.ServiceAuth,
		"/api/auth/refresh":              config.ServiceAuth,
		"/api/accounts":                  config.ServiceAccounts,
		"/api/accounts/abc":              config.ServiceAccounts,
		"/api/journal-entries":           config.ServiceLedger,
		"/api/journal-entries/1/status":  config.ServiceLedger,
		"/api/trial-balance":             config.ServiceLedger,
		"/api/account-activity":          config.ServiceLedger,
		"/api/vendors":                   config.ServicePayables,
		"/api/vendor-invoices/1/pay":     config.ServicePayables,
		"/api/customers":                 config.ServiceReceivables,
		"/api/customer-invoices/1/aging": config.ServiceReceivables,
		"/api/reports/balance-sheet":     config.ServiceReporting,
		"/api/tax-configurations":        config.ServiceTax,
		"/api/tax-calculations":          config.ServiceTax,
		"/api/tax-report":                config.ServiceTax,
	}
	for path, want := range cases {
		service, ok := routeFor(path)
		require.True(t, ok, "path %s", path)
		assert.Equal(t, want, service, "path %s", path)
	}

	_, ok := routeFor("/api/unknown")
	assert.False(t, ok)
}

func TestRegistryPoll(t *testing.T) {
	healthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer healthy.Close()

	degraded := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer degraded.Close()

	reg := NewRegistry(map[string]string{
		config.ServiceLedger:   healthy.URL,
		config.ServiceAccounts: degraded.URL,
	}, "/health", zerolog.Nop())

	// Optimistic until the first poll lands.
	assert.True(t, reg.Healthy(config.ServiceAccounts))

	snap := reg.Poll(context.Background())
	require.Len(t, snap.Services, 2)

	assert.True(t, reg.Healthy(config.ServiceLedger))
	assert.False(t, reg.Healthy(config.ServiceAccounts))
	assert.False(t, reg.Healthy("unknown"))

	// Snapshot entries are sorted by name.
	assert.Equal(t, config.ServiceAccounts, snap.Services[0].Name)
	assert.Equal(t, config.ServiceLedger, snap.Services[1].Name)
	assert.NotEmpty(t, snap.Services[0].Error)
}

func TestRegistrySubscribe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	reg := NewRegistry(map[string]string{config.ServiceLedger: srv.URL}, "/health", zerolog.Nop())

	updates, cancel := reg.Subscribe()
	defer cancel()

	reg.Poll(context.Background())

	select {
	case snap := <-updates:
		require.Len(t, snap.Services, 1)
		assert.True(t, snap.Services[0].Healthy)
	case <-time.After(time.Second):
		t.Fatal("no snapshot published")
	}
}

func TestProxyForwardsVerbatim(t *testing.T) {
	var gotUser, gotCompany, gotAuthz, gotQuery string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			return
		}
		gotUser = r.Header.Get(auth.HeaderUserID)
		gotCompany = r.Header.Get(auth.HeaderCompanyID)
		gotAuthz = r.Header.Get("Authorization")
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte(`{"hello":"dunia"}`))
	}))
	defer upstream.Close()

	reg := NewRegistry(map[string]string{config.ServiceLedger: upstream.URL}, "/health", zerolog.Nop())
	reg.Poll(context.Background())
	proxy := NewProxy(reg, 5*time.Second, zerolog.Nop())

	req := httptest.NewRequest(http.MethodGet, "/api/trial-balance?as_of_date=2024-06-30", nil)
	req.Header.Set("Authorization", "Bearer token")
	// A spoofed identity header must not survive the proxy.
	req.Header.Set(auth.HeaderUserID, "intruder")
	req = req.WithContext(auth.WithIdentity(req.Context(), auth.Identity{UserID: "user-1", CompanyID: "co-1"}))

	rec := httptest.NewRecorder()
	proxy.ServeHTTP(rec, req)

	// Upstream status and body pass through untouched.
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.JSONEq(t, `{"hello":"dunia"}`, rec.Body.String())

	assert.Equal(t, "user-1", gotUser)
	assert.Equal(t, "co-1", gotCompany)
	assert.Empty(t, gotAuthz, "bearer token stays at the edge")
	assert.Equal(t, "as_of_date=2024-06-30", gotQuery)
}

func TestProxyFailsFastOnUnhealthyService(t *testing.T) {
	var hits atomic.Int64
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		hits.Add(1)
	}))
	defer upstream.Close()

	reg := NewRegistry(map[string]string{config.ServiceLedger: upstream.URL}, "/health", zerolog.Nop())
	reg.Poll(context.Background())
	require.False(t, reg.Healthy(config.ServiceLedger))

	proxy := NewProxy(reg, 5*time.Second, zerolog.Nop())
	rec := httptest.NewRecorder()
	proxy.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/journal-entries", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, int64(0), hits.Load(), "unhealthy upstream must not be dialed")

	var body struct {
		Error struct {
			Kind string `json:"kind"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "DEPENDENCY", body.Error.Kind)
}

func TestProxyUnknownRoute(t *testing.T) {
	reg := NewRegistry(map[string]string{}, "/health", zerolog.Nop())
	proxy := NewProxy(reg, 5*time.Second, zerolog.Nop())

	rec := httptest.NewRecorder()
	proxy.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/unknown", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProxyUnreachableUpstream(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	base := upstream.URL
	upstream.Close()

	reg := NewRegistry(map[string]string{config.ServiceLedger: base}, "/health", zerolog.Nop())
	// No poll: the registry still assumes the service is healthy, so
	// the proxy dials and hits the refused connection.
	proxy := NewProxy(reg, time.Second, zerolog.Nop())

	rec := httptest.NewRecorder()
	proxy.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/trial-balance", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRateLimiter(t *testing.T) {
	limiter, err := NewRateLimiter(1, 2)
	require.NoError(t, err)

	assert.True(t, limiter.Allow("10.0.0.1"))
	assert.True(t, limiter.Allow("10.0.0.1"))
	assert.False(t, limiter.Allow("10.0.0.1"), "burst exhausted")

	// Another client has its own bucket.
	assert.True(t, limiter.Allow("10.0.0.2"))
}

func TestRateLimiterMiddleware(t *testing.T) {
	limiter, err := NewRateLimiter(1, 1)
	require.NoError(t, err)

	handler := limiter.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/accounts", nil)
	req.RemoteAddr = "10.0.0.1:4242"

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestGatewayAuthenticate(t *testing.T) {
	issuer := auth.NewTokenIssuer("test-secret", time.Hour, 24*time.Hour)
	verifier, err := auth.NewCachingVerifier(issuer, 128)
	require.NoError(t, err)

	g := &Gateway{verifier: verifier, log: zerolog.Nop()}

	var identity auth.Identity
	handler := g.authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, _ = auth.IdentityFrom(r.Context())
		assert.Empty(t, r.Header.Get(auth.HeaderUserID), "client identity headers are stripped")
		w.WriteHeader(http.StatusNoContent)
	}))

	// Missing token.
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/accounts", nil)
	req.Header.Set(auth.HeaderUserID, "intruder")
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Valid token.
	pair, err := issuer.IssuePair(auth.TokenUser{ID: "user-1", CompanyID: "co-1", Email: "akun@saldo.id"})
	require.NoError(t, err)

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/accounts", nil)
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	req.Header.Set(auth.HeaderUserID, "intruder")
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "user-1", identity.UserID)
	assert.Equal(t, "co-1", identity.CompanyID)
}
