package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type toggle struct{ err atomic.Pointer[error] }

func (t *toggle) set(err error) { t.err.Store(&err) }

func (t *toggle) Ping(context.Context) error {
	if p := t.err.Load(); p != nil {
		return *p
	}
	return nil
}

func get(t *testing.T, h http.Handler) (int, report) {
	t.Helper()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var body report
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	return w.Code, body
}

func TestReadiness_RequiresSetReady(t *testing.T) {
	r := New()

	code, body := get(t, r.ReadyHandler())
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Contains(t, body.Checks, "server")

	r.SetReady(true)
	code, body = get(t, r.ReadyHandler())
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body.Status)
	assert.True(t, r.IsReady())
}

func TestReadiness_Thresholds(t *testing.T) {
	db := &toggle{}
	r := New()
	r.SetReady(true)
	r.Readiness("postgres", Database(db), WithThresholds(2, 2))
	p := r.ready[0]
	ctx := context.Background()

	db.set(errors.New("connection refused"))
	p.run(ctx)
	assert.True(t, r.IsReady(), "one failure is below threshold")

	p.run(ctx)
	assert.False(t, r.IsReady())
	code, body := get(t, r.ReadyHandler())
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "unhealthy", body.Status)
	assert.Contains(t, body.Checks["postgres"], "connection refused")

	db.set(nil)
	p.run(ctx)
	assert.False(t, r.IsReady(), "needs two successes to recover")
	p.run(ctx)
	assert.True(t, r.IsReady())
}

func TestLiveness(t *testing.T) {
	r := New()
	r.Liveness("goroutines", GoroutineLimit(1), WithThresholds(1, 1))

	code, _ := get(t, r.LiveHandler())
	assert.Equal(t, http.StatusOK, code, "checks start healthy")

	r.live[0].run(context.Background())
	code, body := get(t, r.LiveHandler())
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Contains(t, body.Checks["goroutines"], "exceed limit 1")

	// Liveness ignores SetReady.
	r2 := New()
	code, _ = get(t, r2.LiveHandler())
	assert.Equal(t, http.StatusOK, code)
}

func TestCheckTimeout(t *testing.T) {
	r := New()
	r.SetReady(true)
	r.Readiness("slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}, WithTimeout(10*time.Millisecond), WithThresholds(1, 1))

	r.ready[0].run(context.Background())
	assert.False(t, r.IsReady())
}

func TestStartStop(t *testing.T) {
	db := &toggle{}
	db.set(errors.New("down"))

	r := New()
	r.SetReady(true)
	r.Readiness("postgres", Database(db), WithThresholds(1, 1))
	r.Start(context.Background(), 5*time.Millisecond)
	t.Cleanup(r.Stop)

	require.Eventually(t, func() bool { return !r.IsReady() }, time.Second, 5*time.Millisecond)

	db.set(nil)
	require.Eventually(t, r.IsReady, time.Second, 5*time.Millisecond)

	r.Stop()
	r.Stop()
}
