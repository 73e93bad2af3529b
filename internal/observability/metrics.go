package observability

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/spec-kit/freelancer-bff/internal/events"
)

// Metrics provides basic in-memory counters.
type Metrics struct {
	mu            sync.Mutex
	requestCount  map[string]int64
	requestMillis map[string]int64
	errorCount    map[string]int64
	authEvents    map[string]int64
}

// MetricsSnapshot is a point-in-time copy of the counters.
type MetricsSnapshot struct {
	Requests       map[string]int64 `json:"requests"`
	RequestMillis  map[string]int64 `json:"request_millis"`
	Errors         map[string]int64 `json:"errors"`
	AuthEvents     map[string]int64 `json:"auth_events"`
	GeneratedAtUTC time.Time        `json:"generated_at"`
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		requestCount:  make(map[string]int64),
		requestMillis: make(map[string]int64),
		errorCount:    make(map[string]int64),
		authEvents:    make(map[string]int64),
	}
}

// RecordRequest increments counters for requests. path should be the route
// pattern, not the concrete URL.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	key := pathKey(path, method, status)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount[key]++
	m.requestMillis[key] += duration.Milliseconds()
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	key := path + "|" + method + "|" + code
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorCount[key]++
}

// RecordAuthEvent counts authentication outcomes by type and reason.
func (m *Metrics) RecordAuthEvent(event events.Event) {
	if m == nil {
		return
	}
	key := string(event.Type)
	if event.Reason != "" {
		key += "|" + event.Reason
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.authEvents[key]++
}

// Subscribe counts every auth event published on dispatcher.
func (m *Metrics) Subscribe(dispatcher events.Dispatcher) {
	for _, eventType := range events.AllTypes {
		dispatcher.Subscribe(eventType, func(_ context.Context, event events.Event) error {
			m.RecordAuthEvent(event)
			return nil
		})
	}
}

// Snapshot copies the current counters.
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return MetricsSnapshot{
		Requests:       copyCounts(m.requestCount),
		RequestMillis:  copyCounts(m.requestMillis),
		Errors:         copyCounts(m.errorCount),
		AuthEvents:     copyCounts(m.authEvents),
		GeneratedAtUTC: time.Now().UTC(),
	}
}

func copyCounts(src map[string]int64) map[string]int64 {
	dst := make(map[string]int64, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func pathKey(path, method string, status int) string {
	return path + "|" + method + "|" + strconv.Itoa(status)
}
