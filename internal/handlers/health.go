package handlers

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/lprior-repo/sitekit/internal/platform/httpx"
)

const (
	healthStatusOK       = "ok"
	healthStatusDegraded = "degraded"
	defaultCheckTimeout  = 2 * time.Second
)

// BuildInfo describes the running binary.
type BuildInfo struct {
	Version   string
	CommitSHA string
	StartedAt time.Time
}

// ReadinessCheck reports whether a dependency is usable.
type ReadinessCheck func(ctx context.Context) error

// HealthHandlers serves liveness and readiness probes.
type HealthHandlers struct {
	build   BuildInfo
	clock   func() time.Time
	timeout time.Duration
	names   []string
	checks  map[string]ReadinessCheck
}

// HealthOption customises HealthHandlers.
type HealthOption func(*HealthHandlers)

// WithHealthBuildInfo sets the build metadata reported by /healthz.
func WithHealthBuildInfo(info BuildInfo) HealthOption {
	return func(h *HealthHandlers) {
		h.build = info
	}
}

// WithHealthClock overrides the time source.
func WithHealthClock(clock func() time.Time) HealthOption {
	return func(h *HealthHandlers) {
		if clock != nil {
			h.clock = clock
		}
	}
}

// WithReadinessCheck registers a named check run by /readyz.
func WithReadinessCheck(name string, check ReadinessCheck) HealthOption {
	return func(h *HealthHandlers) {
		if name == "" || check == nil {
			return
		}
		if _, exists := h.checks[name]; !exists {
			h.names = append(h.names, name)
		}
		h.checks[name] = check
	}
}

// NewHealthHandlers constructs HealthHandlers.
func NewHealthHandlers(opts ...HealthOption) *HealthHandlers {
	h := &HealthHandlers{
		clock:   time.Now,
		timeout: defaultCheckTimeout,
		checks:  map[string]ReadinessCheck{},
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.build.StartedAt.IsZero() {
		h.build.StartedAt = h.clock()
	}
	sort.Strings(h.names)
	return h
}

// Healthz reports liveness.
func (h *HealthHandlers) Healthz(w http.ResponseWriter, r *http.Request) {
	now := h.clock().UTC()
	payload := map[string]any{
		"status":    healthStatusOK,
		"uptime":    now.Sub(h.build.StartedAt).Round(time.Second).String(),
		"timestamp": now.Format(time.RFC3339),
	}
	if h.build.Version != "" {
		payload["version"] = h.build.Version
	}
	if h.build.CommitSHA != "" {
		payload["commitSha"] = h.build.CommitSHA
	}
	httpx.WriteJSON(r.Context(), w, http.StatusOK, payload)
}

type checkResult struct {
	Status  string `json:"status"`
	Latency string `json:"latency"`
	Error   string `json:"error,omitempty"`
}

// Readyz runs every registered check and reports 503 when any fails.
func (h *HealthHandlers) Readyz(w http.ResponseWriter, r *http.Request) {
	status := healthStatusOK
	details := []string{}
	results := make(map[string]checkResult, len(h.names))

	for _, name := range h.names {
		ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
		start := h.clock()
		err := h.checks[name](ctx)
		cancel()

		res := checkResult{Status: healthStatusOK, Latency: h.clock().Sub(start).String()}
		if err != nil {
			status = healthStatusDegraded
			res.Status = healthStatusDegraded
			res.Error = err.Error()
			details = append(details, name+": "+err.Error())
		}
		results[name] = res
	}

	code := http.StatusOK
	if status != healthStatusOK {
		code = http.StatusServiceUnavailable
	}
	httpx.WriteJSON(r.Context(), w, code, map[string]any{
		"status":    status,
		"checks":    results,
		"details":   details,
		"timestamp": h.clock().UTC().Format(time.RFC3339),
	})
}
