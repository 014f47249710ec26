package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"periodicd/internal/adapter/scheduler"
	"periodicd/internal/shared"
	"periodicd/pkg/periodic"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRegistry(t *testing.T, ignore bool) *scheduler.Scheduler {
	t.Helper()

	s := scheduler.New(scheduler.Config{})
	p, err := periodic.New(func(ctx context.Context) (string, error) {
		return "pong", nil
	}, 20*time.Millisecond, periodic.WithName("ping"), periodic.WithIgnoreFailures(ignore))
	require.NoError(t, err)
	require.NoError(t, s.Add("ping", scheduler.Adapt(p)))
	t.Cleanup(s.StopAll)
	return s
}

func do(r http.Handler, method, target string, header ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestHealthz(t *testing.T) {
	r := NewRouter(newRegistry(t, false), Options{})

	w := do(r, http.MethodGet, "/healthz")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","jobs":1}`, w.Body.String())
}

func TestJobs_ListAndGet(t *testing.T) {
	r := NewRouter(newRegistry(t, false), Options{})

	w := do(r, http.MethodGet, "/jobs")
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[[]JobView](t, w)
	require.Len(t, list, 1)
	assert.Equal(t, "ping", list[0].Job)
	assert.Equal(t, "Periodic-ping", list[0].Name)
	assert.Equal(t, "20ms", list[0].Interval)
	assert.False(t, list[0].Running)

	w = do(r, http.MethodGet, "/jobs/ping")
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodGet, "/jobs/missing")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NotFound", decode[errorBody](t, w).Kind)
}

func TestJobs_ResultNotReady(t *testing.T) {
	r := NewRouter(newRegistry(t, false), Options{})

	w := do(r, http.MethodGet, "/jobs/ping/result")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "NotReady", decode[errorBody](t, w).Kind)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))
}

func TestJobs_ResultPending(t *testing.T) {
	r := NewRouter(newRegistry(t, true), Options{})

	w := do(r, http.MethodGet, "/jobs/ping/result")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"job":"ping","pending":true}`, w.Body.String())
}

func TestJobs_StartStop(t *testing.T) {
	s := newRegistry(t, false)
	r := NewRouter(s, Options{})

	w := do(r, http.MethodPost, "/jobs/ping/start")
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.True(t, decode[JobView](t, w).Running)

	w = do(r, http.MethodPost, "/jobs/ping/start")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "InvalidState", decode[errorBody](t, w).Kind)

	require.Eventually(t, func() bool {
		return do(r, http.MethodGet, "/jobs/ping/result").Code == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)
	res := decode[ResultView](t, do(r, http.MethodGet, "/jobs/ping/result"))
	assert.False(t, res.Pending)
	assert.Equal(t, "pong", res.Value)

	w = do(r, http.MethodPost, "/jobs/ping/stop?delay=10ms")
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.False(t, decode[JobView](t, w).Running)

	w = do(r, http.MethodPost, "/jobs/ping/stop")
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestJobs_StartBadDelay(t *testing.T) {
	r := NewRouter(newRegistry(t, false), Options{})

	for _, delay := range []string{"soon", "-1s"} {
		w := do(r, http.MethodPost, "/jobs/ping/start?delay="+delay)
		assert.Equal(t, http.StatusBadRequest, w.Code, delay)
	}
	w := do(r, http.MethodPost, "/jobs/missing/start")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestJobs_ControlToken(t *testing.T) {
	r := NewRouter(newRegistry(t, false), Options{ControlToken: "s3cret"})

	w := do(r, http.MethodPost, "/jobs/ping/start")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(r, http.MethodPost, "/jobs/ping/start", "Authorization", "Bearer wrong")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(r, http.MethodPost, "/jobs/ping/start", "Authorization", "Bearer s3cret")
	assert.Equal(t, http.StatusAccepted, w.Code)

	// Чтение не требует токена.
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/jobs").Code)
}

func TestJobs_ControlRate(t *testing.T) {
	r := NewRouter(newRegistry(t, false), Options{ControlRate: time.Hour})

	assert.Equal(t, http.StatusAccepted, do(r, http.MethodPost, "/jobs/ping/start").Code)
	assert.Equal(t, http.StatusTooManyRequests, do(r, http.MethodPost, "/jobs/ping/stop").Code)
}

func TestRetryAfter(t *testing.T) {
	assert.Equal(t, "1", retryAfter(20*time.Millisecond))
	assert.Equal(t, "1", retryAfter(time.Second))
	assert.Equal(t, "31", retryAfter(30*time.Second+time.Millisecond))
}

func TestRateLimiter_Allow(t *testing.T) {
	rl := NewRateLimiter(time.Hour)
	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"))
	assert.True(t, rl.Allow("b"))

	assert.True(t, NewRateLimiter(0).Allow("a"))
	assert.True(t, NewRateLimiter(0).Allow("a"))
}

func TestRateLimiter_SweepsExpiredClients(t *testing.T) {
	rl := NewRateLimiter(10 * time.Millisecond)
	assert.True(t, rl.Allow("a"))
	assert.True(t, rl.Allow("b"))
	assert.False(t, rl.Allow("a"))

	time.Sleep(20 * time.Millisecond)
	assert.True(t, rl.Allow("c"))

	rl.mu.Lock()
	defer rl.mu.Unlock()
	assert.Len(t, rl.last, 1)
	assert.Contains(t, rl.last, "c")
}

func TestStatusOf(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{periodic.ErrResultNotReady, http.StatusServiceUnavailable},
		{periodic.ErrAlreadyRunning, http.StatusConflict},
		{periodic.ErrAlreadyStopped, http.StatusConflict},
		{scheduler.ErrJobExists, http.StatusConflict},
		{scheduler.ErrJobNotFound, http.StatusNotFound},
		{periodic.ErrInvalidInterval, http.StatusBadRequest},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{shared.ErrDependencyFailure, http.StatusBadGateway},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, StatusOf(tc.err), tc.err.Error())
	}
}
