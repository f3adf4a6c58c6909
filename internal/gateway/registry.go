// Package gateway implements the platform front door: edge
// authentication, prefix routing to the internal services, health
// polling, and per-client rate limiting.
package gateway

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// probeTimeout caps a single health probe.
const probeTimeout = 5 * time.Second

// ServiceStatus is one upstream's entry in the registry snapshot.
type ServiceStatus struct {
	Name      string    `json:"name"`
	BaseURL   string    `json:"base_url"`
	Healthy   bool      `json:"healthy"`
	CheckedAt time.Time `json:"checked_at"`
	Error     string    `json:"error,omitempty"`
}

// Snapshot is an immutable view of the registry. Readers share it
// through an atomic pointer and never block the poller.
type Snapshot struct {
	Services  []ServiceStatus `json:"services"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// service looks up one entry by logical name.
func (s *Snapshot) service(name string) (ServiceStatus, bool) {
	for _, svc := range s.Services {
		if svc.Name == name {
			return svc, true
		}
	}
	return ServiceStatus{}, false
}

// Registry tracks the upstream services and their health. A cron job
// probes every service each cycle and swaps in a fresh snapshot.
type Registry struct {
	urls       map[string]string
	healthPath string
	probe      *http.Client
	log        zerolog.Logger

	snap atomic.Pointer[Snapshot]
	cron *cron.Cron

	mu   sync.Mutex
	subs map[int]chan *Snapshot
	next int
}

// NewRegistry builds a registry over the configured service URLs. Until
// the first poll completes every service is assumed healthy, so a
// gateway restart does not drop traffic to services that were fine all
// along.
func NewRegistry(urls map[string]string, healthPath string, log zerolog.Logger) *Registry {
	if healthPath == "" {
		healthPath = "/health"
	}
	r := &Registry{
		urls:       urls,
		healthPath: healthPath,
		probe:      &http.Client{Timeout: probeTimeout},
		log:        log,
		subs:       map[int]chan *Snapshot{},
	}

	initial := &Snapshot{UpdatedAt: time.Now().UTC()}
	for name, base := range urls {
		initial.Services = append(initial.Services, ServiceStatus{
			Name: name, BaseURL: base, Healthy: true, CheckedAt: initial.UpdatedAt,
		})
	}
	sort.Slice(initial.Services, func(i, j int) bool {
		return initial.Services[i].Name < initial.Services[j].Name
	})
	r.snap.Store(initial)
	return r
}

// Snapshot returns the current registry view.
func (r *Registry) Snapshot() *Snapshot {
	return r.snap.Load()
}

// BaseURL returns the configured base URL of a service.
func (r *Registry) BaseURL(name string) (string, bool) {
	base, ok := r.urls[name]
	return base, ok
}

// Healthy reports whether a service passed its last probe. Unknown
// services are unhealthy.
func (r *Registry) Healthy(name string) bool {
	svc, ok := r.Snapshot().service(name)
	return ok && svc.Healthy
}

// Poll probes every service once and publishes the new snapshot.
func (r *Registry) Poll(ctx context.Context) *Snapshot {
	snap := &Snapshot{
		Services:  make([]ServiceStatus, 0, len(r.urls)),
		UpdatedAt: time.Now().UTC(),
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for name, base := range r.urls {
		name, base := name, base
		g.Go(func() error {
			status := r.check(gctx, name, base)
			mu.Lock()
			snap.Services = append(snap.Services, status)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	sort.Slice(snap.Services, func(i, j int) bool {
		return snap.Services[i].Name < snap.Services[j].Name
	})

	prev := r.snap.Load()
	r.snap.Store(snap)
	r.logTransitions(prev, snap)
	r.publish(snap)
	return snap
}

func (r *Registry) check(ctx context.Context, name, base string) ServiceStatus {
	status := ServiceStatus{Name: name, BaseURL: base, CheckedAt: time.Now().UTC()}

	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+r.healthPath, nil)
	if err != nil {
		status.Error = err.Error()
		return status
	}
	resp, err := r.probe.Do(req)
	if err != nil {
		status.Error = err.Error()
		return status
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		status.Error = fmt.Sprintf("health returned %d", resp.StatusCode)
		return status
	}
	status.Healthy = true
	return status
}

func (r *Registry) logTransitions(prev, next *Snapshot) {
	for _, svc := range next.Services {
		before, ok := prev.service(svc.Name)
		if ok && before.Healthy == svc.Healthy {
			continue
		}
		if svc.Healthy {
			r.log.Info().Str("service", svc.Name).Msg("upstream healthy")
		} else {
			r.log.Warn().Str("service", svc.Name).Str("error", svc.Error).Msg("upstream unhealthy")
		}
	}
}

// Start runs one immediate poll, then schedules polling at the given
// interval.
func (r *Registry) Start(ctx context.Context, interval time.Duration) error {
	r.Poll(ctx)

	c := cron.New()
	_, err := c.AddFunc(fmt.Sprintf("@every %s", interval), func() {
		ctx, cancel := context.WithTimeout(context.Background(), interval)
		defer cancel()
		r.Poll(ctx)
	})
	if err != nil {
		return fmt.Errorf("schedule health poll: %w", err)
	}
	c.Start()
	r.cron = c
	return nil
}

// Stop halts the poller.
func (r *Registry) Stop() {
	if r.cron != nil {
		r.cron.Stop()
	}
}

// Subscribe registers for snapshot updates. The returned cancel func
// must be called to release the channel. Slow consumers miss updates
// instead of blocking the poller.
func (r *Registry) Subscribe() (<-chan *Snapshot, func()) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := r.next
	r.next++
	ch := make(chan *Snapshot, 1)
	r.subs[id] = ch

	cancel := func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if _, ok := r.subs[id]; ok {
			delete(r.subs, id)
			close(ch)
		}
	}
	return ch, cancel
}

func (r *Registry) publish(snap *Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ch := range r.subs {
		select {
		case ch <- snap:
		default:
		}
	}
}
