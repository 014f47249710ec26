// Package httpapi exposes the job registry over HTTP with gin.
package httpapi

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"periodicd/internal/adapter/scheduler"
	"periodicd/internal/shared"
	"periodicd/pkg/periodic"
)

// Registry is the part of scheduler.Scheduler the API needs.
type Registry interface {
	Names() []string
	Get(name string) (scheduler.Job, error)
}

// Options configures the router.
type Options struct {
	Logger       *slog.Logger
	ControlToken string
	ControlRate  time.Duration
	// ResultTimeout bounds the wait for a job's result guard.
	ResultTimeout time.Duration
}

type handler struct {
	jobs          Registry
	resultTimeout time.Duration
}

// NewRouter builds the gin engine serving the registry.
func NewRouter(jobs Registry, opts Options) *gin.Engine {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	if opts.ResultTimeout <= 0 {
		opts.ResultTimeout = 5 * time.Second
	}
	h := &handler{jobs: jobs, resultTimeout: opts.ResultTimeout}

	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(log.With("component", "httpapi")))

	r.GET("/healthz", h.health)
	r.GET("/jobs", h.list)
	r.GET("/jobs/:name", h.get)
	r.GET("/jobs/:name/result", h.result)

	control := r.Group("/jobs/:name", RequireToken(opts.ControlToken), NewRateLimiter(opts.ControlRate).Middleware())
	control.POST("/start", h.start)
	control.POST("/stop", h.stop)

	return r
}

// JobView is the JSON form of periodic.Status.
type JobView struct {
	Job          string     `json:"job"`
	Name         string     `json:"name"`
	Interval     string     `json:"interval"`
	Running      bool       `json:"running"`
	Looping      bool       `json:"looping"`
	Ready        bool       `json:"ready"`
	Cycles       uint64     `json:"cycles"`
	InFlight     int        `json:"in_flight"`
	Completed    uint64     `json:"completed"`
	Failed       uint64     `json:"failed"`
	LastError    string     `json:"last_error,omitempty"`
	LoopError    string     `json:"loop_error,omitempty"`
	LastStarted  *time.Time `json:"last_started,omitempty"`
	LastFinished *time.Time `json:"last_finished,omitempty"`
}

func newJobView(job string, st periodic.Status) JobView {
	v := JobView{
		Job:       job,
		Name:      st.Name,
		Interval:  st.Interval.String(),
		Running:   st.Running,
		Looping:   st.Looping,
		Ready:     st.Ready(),
		Cycles:    st.Cycles,
		InFlight:  st.InFlight,
		Completed: st.Completed,
		Failed:    st.Failed,
	}
	if st.LastError != nil {
		v.LastError = st.LastError.Error()
	}
	if st.LoopError != nil {
		v.LoopError = st.LoopError.Error()
	}
	if !st.LastStarted.IsZero() {
		v.LastStarted = &st.LastStarted
	}
	if !st.LastFinished.IsZero() {
		v.LastFinished = &st.LastFinished
	}
	return v
}

// ResultView is the JSON form of a job result.
type ResultView struct {
	Job     string `json:"job"`
	Pending bool   `json:"pending"`
	Value   any    `json:"value,omitempty"`
}

func (h *handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "jobs": len(h.jobs.Names())})
}

func (h *handler) list(c *gin.Context) {
	names := h.jobs.Names()
	out := make([]JobView, 0, len(names))
	for _, name := range names {
		job, err := h.jobs.Get(name)
		if err != nil {
			continue
		}
		out = append(out, newJobView(name, job.Status()))
	}
	c.JSON(http.StatusOK, out)
}

func (h *handler) get(c *gin.Context) {
	name := c.Param("name")
	job, err := h.jobs.Get(name)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, newJobView(name, job.Status()))
}

func (h *handler) result(c *gin.Context) {
	name := c.Param("name")
	job, err := h.jobs.Get(name)
	if err != nil {
		abortWithError(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.resultTimeout)
	defer cancel()
	v, ready, err := job.ResultAny(ctx)
	if err != nil {
		if shared.IsNotReady(err) {
			c.Header("Retry-After", retryAfter(job.Status().Interval))
		}
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, ResultView{Job: name, Pending: !ready, Value: v})
}

func (h *handler) start(c *gin.Context) {
	h.control(c, scheduler.Job.Start)
}

func (h *handler) stop(c *gin.Context) {
	h.control(c, scheduler.Job.Stop)
}

func (h *handler) control(c *gin.Context, op func(scheduler.Job, time.Duration) error) {
	name := c.Param("name")
	delay, err := parseDelay(c.Query("delay"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	job, err := h.jobs.Get(name)
	if err != nil {
		abortWithError(c, err)
		return
	}
	if err := op(job, delay); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, newJobView(name, job.Status()))
}

// retryAfter rounds interval up to whole seconds, at least one.
func retryAfter(interval time.Duration) string {
	secs := int64((interval + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return strconv.FormatInt(secs, 10)
}

func parseDelay(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%w: delay %q: %w", shared.ErrValidation, s, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%w: delay %s is negative", shared.ErrValidation, d)
	}
	return d, nil
}
