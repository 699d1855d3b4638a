package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
)

type HealthStatus string

const (
	HealthHealthy   HealthStatus = "healthy"
	HealthDegraded  HealthStatus = "degraded"
	HealthUnhealthy HealthStatus = "unhealthy"
)

type HealthResponse struct {
	Status     HealthStatus          `json:"status"`
	CheckedAt  time.Time             `json:"checked_at"`
	Components map[string]CheckEntry `json:"components"`
}

type CheckEntry struct {
	Status     HealthStatus   `json:"status"`
	Message    string         `json:"message,omitempty"`
	Details    map[string]any `json:"details,omitempty"`
	CheckedAt  time.Time      `json:"checked_at"`
	DurationMs int64          `json:"duration_ms"`
}

// QueueStats is the view of the activity dispatcher /health needs.
type QueueStats interface {
	Pending() int
	Capacity() int
}

type HealthHandler struct {
	db    *sqlx.DB
	queue QueueStats
}

func NewHealthHandler(db *sqlx.DB, queue QueueStats) *HealthHandler {
	return &HealthHandler{db: db, queue: queue}
}

// pingHandler reports liveness only.
func (h *HealthHandler) pingHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "OK"})
}

// healthCheckHandler reports readiness. The database must answer a ping
// within two seconds; a full activity queue degrades the service but does
// not fail it, since entries are dropped rather than blocking requests.
func (h *HealthHandler) healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	components := map[string]CheckEntry{"database": h.checkDatabase(ctx)}
	if h.queue != nil {
		components["activity_queue"] = h.checkQueue()
	}

	overall := HealthHealthy
	for _, c := range components {
		switch {
		case c.Status == HealthUnhealthy:
			overall = HealthUnhealthy
		case c.Status == HealthDegraded && overall == HealthHealthy:
			overall = HealthDegraded
		}
	}

	statusCode := http.StatusOK
	if overall == HealthUnhealthy {
		statusCode = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(HealthResponse{
		Status:     overall,
		CheckedAt:  time.Now(),
		Components: components,
	})
}

func (h *HealthHandler) checkDatabase(ctx context.Context) CheckEntry {
	start := time.Now()
	err := h.db.PingContext(ctx)

	entry := CheckEntry{
		Status:     HealthHealthy,
		CheckedAt:  time.Now(),
		DurationMs: time.Since(start).Milliseconds(),
	}
	if err != nil {
		entry.Status = HealthUnhealthy
		entry.Message = err.Error()
	}
	return entry
}

func (h *HealthHandler) checkQueue() CheckEntry {
	pending, capacity := h.queue.Pending(), h.queue.Capacity()
	entry := CheckEntry{
		Status:    HealthHealthy,
		CheckedAt: time.Now(),
		Details:   map[string]any{"pending": pending, "capacity": capacity},
	}
	if capacity > 0 && pending >= capacity {
		entry.Status = HealthDegraded
		entry.Message = "activity queue is full, new entries are dropped"
	}
	return entry
}
