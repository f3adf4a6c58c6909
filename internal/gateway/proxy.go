package gateway

import (
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/saldo-labs/akuntansid/internal/apperror"
	"github.com/saldo-labs/akuntansid/internal/auth"
	"github.com/saldo-labs/akuntansid/internal/config"
	"github.com/saldo-labs/akuntansid/internal/server"
)

// route maps a path prefix to the logical service owning it.
type route struct {
	prefix  string
	service string
}

// routeTable is checked in order; the first matching prefix wins.
var routeTable = []route{
	{"/api/auth", config.ServiceAuth},
	{"/api/accounts", config.ServiceAccounts},
	{"/api/journal-entries", config.ServiceLedger},
	{"/api/trial-balance", config.ServiceLedger},
	{"/api/account-activity", config.ServiceLedger},
	{"/api/vendors", config.ServicePayables},
	{"/api/vendor-invoices", config.ServicePayables},
	{"/api/customers", config.ServiceReceivables},
	{"/api/customer-invoices", config.ServiceReceivables},
	{"/api/reports", config.ServiceReporting},
	{"/api/tax-", config.ServiceTax},
}

// routeFor resolves a request path to its owning service.
func routeFor(path string) (string, bool) {
	for _, rt := range routeTable {
		if strings.HasPrefix(path, rt.prefix) {
			return rt.service, true
		}
	}
	return "", false
}

// Hop-by-hop and gateway-owned headers never forwarded upstream.
var droppedHeaders = []string{
	"Host",
	"Content-Length",
	"Transfer-Encoding",
	"Connection",
	"Authorization",
	auth.HeaderUserID,
	auth.HeaderCompanyID,
}

// Proxy forwards requests to the internal services. The upstream
// status and body pass through verbatim; only dial failures and
// timeouts are translated into gateway errors.
type Proxy struct {
	registry *Registry
	client   *http.Client
	log      zerolog.Logger
}

// NewProxy wires the forwarding handler.
func NewProxy(registry *Registry, upstreamTimeout time.Duration, log zerolog.Logger) *Proxy {
	if upstreamTimeout <= 0 {
		upstreamTimeout = 30 * time.Second
	}
	return &Proxy{
		registry: registry,
		client:   &http.Client{Timeout: upstreamTimeout},
		log:      log,
	}
}

func (p *Proxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "gateway.proxy"

	service, ok := routeFor(r.URL.Path)
	if !ok {
		server.WriteError(w, r, apperror.NotFound(op, "route"))
		return
	}
	base, ok := p.registry.BaseURL(service)
	if !ok {
		server.WriteError(w, r, apperror.Dependency(op, service, nil))
		return
	}

	// Fail fast on services the poller marked unhealthy: no dial, no
	// timeout burned.
	if !p.registry.Healthy(service) {
		server.WriteError(w, r, apperror.Dependency(op, service, nil))
		return
	}

	target := base + r.URL.Path
	if r.URL.RawQuery != "" {
		target += "?" + r.URL.RawQuery
	}

	req, err := http.NewRequestWithContext(r.Context(), r.Method, target, r.Body)
	if err != nil {
		server.WriteError(w, r, apperror.Internal(op, err))
		return
	}

	copyHeaders(req.Header, r.Header)
	// The auth service reads bearer tokens itself (verify, logout);
	// everyone else gets identity headers instead.
	if service == config.ServiceAuth {
		if authz := r.Header.Get("Authorization"); authz != "" {
			req.Header.Set("Authorization", authz)
		}
	}
	if identity, ok := auth.IdentityFrom(r.Context()); ok {
		req.Header.Set(auth.HeaderUserID, identity.UserID)
		req.Header.Set(auth.HeaderCompanyID, identity.CompanyID)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		p.log.Warn().Err(err).Str("service", service).Str("path", r.URL.Path).Msg("upstream call failed")
		server.WriteError(w, r, apperror.Dependency(op, service, err))
		return
	}
	defer resp.Body.Close()

	for name, values := range resp.Header {
		if name == "Connection" || name == "Transfer-Encoding" {
			continue
		}
		for _, v := range values {
			w.Header().Add(name, v)
		}
	}
	w.WriteHeader(resp.StatusCode)
	if _, err := io.Copy(w, resp.Body); err != nil {
		p.log.Warn().Err(err).Str("service", service).Msg("response copy interrupted")
	}
}

// copyHeaders forwards request headers minus the dropped set.
func copyHeaders(dst, src http.Header) {
	for name, values := range src {
		dst[name] = append([]string(nil), values...)
	}
	for _, name := range droppedHeaders {
		dst.Del(name)
	}
}
