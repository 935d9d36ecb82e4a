package health

import (
	"context"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/tiongMax/stocktracker/internal/upstream"
)

const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
	StatusUnknown   = "unknown"
	StatusDisabled  = "disabled"
)

// Checker is a dependency that can be pinged.
type Checker interface {
	Ping(ctx context.Context) error
}

// Prober fetches a quote to confirm the market data provider answers.
type Prober interface {
	Quote(ctx context.Context, symbol string) (upstream.Quote, error)
}

// Report is the health snapshot served on /health.
type Report struct {
	Status     string            `json:"status"`
	Message    string            `json:"message"`
	Components map[string]string `json:"components"`
	Timestamp  int64             `json:"timestamp"`
}

// HTTPStatus maps the overall status to a response code.
func (r Report) HTTPStatus() int {
	if r.Status == StatusUnhealthy {
		return http.StatusServiceUnavailable
	}
	return http.StatusOK
}

type check struct {
	name     string
	checker  Checker
	critical bool
}

// Monitor pings local dependencies on demand and probes the upstream provider
// on a cron schedule.
type Monitor struct {
	prober  Prober
	symbol  string
	timeout time.Duration
	cron    *cron.Cron

	checks []check

	mu       sync.RWMutex
	upstream string
}

func NewMonitor(prober Prober, symbol string, timeout time.Duration) *Monitor {
	return &Monitor{
		prober:   prober,
		symbol:   symbol,
		timeout:  timeout,
		cron:     cron.New(cron.WithSeconds()),
		upstream: StatusUnknown,
	}
}

// AddCheck registers a pinged dependency. A nil checker is reported as
// disabled. A failing critical check makes the service unhealthy; any other
// failure only degrades it.
func (m *Monitor) AddCheck(name string, c Checker, critical bool) {
	m.checks = append(m.checks, check{name: name, checker: c, critical: critical})
}

// Schedule registers the upstream probe on spec (e.g. "@every 5m").
func (m *Monitor) Schedule(spec string) error {
	_, err := m.cron.AddFunc(spec, func() { m.Probe(context.Background()) })
	return err
}

func (m *Monitor) Start() {
	m.cron.Start()
	slog.Info("Health monitor started")
}

// Stop halts the scheduler and waits for a running probe to finish.
func (m *Monitor) Stop() {
	<-m.cron.Stop().Done()
	slog.Info("Health monitor stopped")
}

// Probe requests one quote and records whether it succeeded.
func (m *Monitor) Probe(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	status := StatusHealthy
	if _, err := m.prober.Quote(ctx, m.symbol); err != nil {
		status = StatusUnhealthy
		slog.Warn("Upstream probe failed", "symbol", m.symbol, "error", err)
	}

	m.mu.Lock()
	m.upstream = status
	m.mu.Unlock()
}

// Report pings every registered check and combines the results with the
// most recent upstream probe.
func (m *Monitor) Report(ctx context.Context) Report {
	r := Report{
		Components: make(map[string]string, len(m.checks)+1),
		Timestamp:  time.Now().Unix(),
	}

	var criticalDown, down []string
	for _, c := range m.checks {
		if c.checker == nil {
			r.Components[c.name] = StatusDisabled
			continue
		}
		ctx, cancel := context.WithTimeout(ctx, m.timeout)
		err := c.checker.Ping(ctx)
		cancel()
		if err != nil {
			r.Components[c.name] = StatusUnhealthy
			if c.critical {
				criticalDown = append(criticalDown, c.name)
			} else {
				down = append(down, c.name)
			}
			continue
		}
		r.Components[c.name] = StatusHealthy
	}

	m.mu.RLock()
	r.Components["upstream"] = m.upstream
	m.mu.RUnlock()
	if r.Components["upstream"] == StatusUnhealthy {
		down = append(down, "upstream")
	}

	switch {
	case len(criticalDown) > 0:
		sort.Strings(criticalDown)
		r.Status = StatusUnhealthy
		r.Message = "Critical components down: " + strings.Join(criticalDown, ", ")
	case len(down) > 0:
		sort.Strings(down)
		r.Status = StatusDegraded
		r.Message = "Some components are not fully operational: " + strings.Join(down, ", ")
	default:
		r.Status = StatusHealthy
		r.Message = "All systems operational"
	}
	return r
}
