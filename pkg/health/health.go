// Package health serves liveness and readiness checks.
//
// Every check is evaluated in the background. A check flips to unhealthy
// after a run of consecutive failures and back after a run of successes, so
// a single slow database ping does not take the server out of rotation.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
)

// Check reports whether a dependency is usable.
type Check func(ctx context.Context) error

// Option tunes a single check.
type Option func(*checker)

// WithTimeout bounds every run of the check. Default is one second.
func WithTimeout(d time.Duration) Option {
	return func(p *checker) { p.timeout = d }
}

// WithThresholds sets how many consecutive failures mark the check down and
// how many successes bring it back. Defaults are 3 and 1.
func WithThresholds(failAfter, okAfter int) Option {
	return func(p *checker) {
		if failAfter > 0 {
			p.failAfter = failAfter
		}
		if okAfter > 0 {
			p.okAfter = okAfter
		}
	}
}

type checker struct {
	name      string
	check     Check
	timeout   time.Duration
	failAfter int
	okAfter   int

	up      atomic.Bool
	lastErr atomic.Pointer[string]

	// owned by the single goroutine calling run
	fails, oks int
}

func newChecker(name string, check Check, opts []Option) *checker {
	p := &checker{name: name, check: check, timeout: time.Second, failAfter: 3, okAfter: 1}
	for _, o := range opts {
		o(p)
	}
	p.up.Store(true)
	return p
}

func (p *checker) run(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	err := p.check(ctx)
	if err == nil {
		p.fails = 0
		p.oks++
		p.lastErr.Store(nil)
		if p.oks >= p.okAfter && !p.up.Swap(true) {
			zctx.From(ctx).Info("Health check recovered", zap.String("check", p.name))
		}
		return
	}

	msg := err.Error()
	p.lastErr.Store(&msg)
	p.oks = 0
	p.fails++
	if p.fails >= p.failAfter && p.up.Swap(false) {
		zctx.From(ctx).Warn("Health check failing", zap.String("check", p.name), zap.Error(err))
	}
}

func (p *checker) failure() (string, bool) {
	if p.up.Load() {
		return "", false
	}
	if msg := p.lastErr.Load(); msg != nil {
		return *msg, true
	}
	return "unhealthy", true
}

// Registry holds the checks of a process.
type Registry struct {
	accepting atomic.Bool

	mu     sync.Mutex
	live   []*checker
	ready  []*checker
	cancel context.CancelFunc
}

// New returns a registry that is not yet accepting traffic.
func New() *Registry {
	return &Registry{}
}

// Liveness registers a check consulted by /livez.
func (r *Registry) Liveness(name string, check Check, opts ...Option) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.live = append(r.live, newChecker(name, check, opts))
}

// Readiness registers a check consulted by /readyz.
func (r *Registry) Readiness(name string, check Check, opts ...Option) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ready = append(r.ready, newChecker(name, check, opts))
}

// Start runs every check immediately and then once per interval until Stop
// or ctx is done.
func (r *Registry) Start(ctx context.Context, interval time.Duration) {
	ctx, cancel := context.WithCancel(ctx)

	r.mu.Lock()
	if r.cancel != nil {
		r.cancel()
	}
	r.cancel = cancel
	checks := append(append([]*checker(nil), r.live...), r.ready...)
	r.mu.Unlock()

	for _, p := range checks {
		go func() {
			t := time.NewTicker(interval)
			defer t.Stop()
			for {
				p.run(ctx)
				select {
				case <-ctx.Done():
					return
				case <-t.C:
				}
			}
		}()
	}
}

// Stop halts the background checks. Safe to call more than once.
func (r *Registry) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
}

// SetReady toggles whether the process wants traffic, independent of checks.
// It is cleared first on shutdown so load balancers drain the instance.
func (r *Registry) SetReady(v bool) {
	r.accepting.Store(v)
}

// IsReady reports whether /readyz would answer 200.
func (r *Registry) IsReady() bool {
	return len(r.readinessFailures()) == 0
}

func (r *Registry) readinessFailures() map[string]string {
	failures := collect(r.snapshot(&r.ready))
	if !r.accepting.Load() {
		failures["server"] = "not accepting traffic"
	}
	return failures
}

func (r *Registry) snapshot(list *[]*checker) []*checker {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*checker(nil), *list...)
}

func collect(checks []*checker) map[string]string {
	failures := make(map[string]string)
	for _, p := range checks {
		if msg, failed := p.failure(); failed {
			failures[p.name] = msg
		}
	}
	return failures
}

// LiveHandler serves /livez.
func (r *Registry) LiveHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		respond(w, collect(r.snapshot(&r.live)))
	})
}

// ReadyHandler serves /readyz.
func (r *Registry) ReadyHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		respond(w, r.readinessFailures())
	})
}

type report struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func respond(w http.ResponseWriter, failures map[string]string) {
	body := report{Status: "ok"}
	code := http.StatusOK
	if len(failures) > 0 {
		body = report{Status: "unhealthy", Checks: failures}
		code = http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}
