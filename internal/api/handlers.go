package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/mohamedkhairy/ict-dashboard/internal/config"
	"github.com/mohamedkhairy/ict-dashboard/internal/models"
	"github.com/mohamedkhairy/ict-dashboard/internal/poller"
	"github.com/mohamedkhairy/ict-dashboard/internal/wsgateway"
	"github.com/mohamedkhairy/ict-dashboard/pkg/logger"
)

// SnapshotSource returns the most recent serialized dashboard
type SnapshotSource interface {
	Latest() ([]byte, bool)
}

// HubStatsSource reports WebSocket hub statistics
type HubStatsSource interface {
	GetStats() wsgateway.HubStats
}

// PollerStatusSource reports poll loop status
type PollerStatusSource interface {
	Status() poller.Status
}

// Pinger checks a backing dependency such as Redis
type Pinger interface {
	Ping(ctx context.Context) error
}

// DashboardHandler serves the dashboard document and its static configuration
type DashboardHandler struct {
	snapshots SnapshotSource
	engine    config.EngineConfig
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(snapshots SnapshotSource, engine config.EngineConfig) *DashboardHandler {
	return &DashboardHandler{
		snapshots: snapshots,
		engine:    engine,
	}
}

// GetSnapshot handles GET /api/v1/snapshot
func (h *DashboardHandler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	payload, ok := h.snapshots.Latest()
	if !ok {
		respondWithError(w, http.StatusServiceUnavailable, poller.ErrNoSnapshot.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(payload); err != nil {
		logger.WithContext(r.Context()).Warn("Failed to write snapshot", logger.ErrorField(err))
	}
}

// ListInstruments handles GET /api/v1/instruments
func (h *DashboardHandler) ListInstruments(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"instruments": h.engine.Instruments,
		"count":       len(h.engine.Instruments),
	})
}

// GetInstrument handles GET /api/v1/instruments/{symbol}
func (h *DashboardHandler) GetInstrument(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]
	for _, inst := range h.engine.Instruments {
		if inst.Symbol == symbol || inst.Label == symbol {
			respondWithJSON(w, http.StatusOK, inst)
			return
		}
	}
	respondWithError(w, http.StatusNotFound, fmt.Sprintf("Instrument %q not configured", symbol))
}

type windowResponse struct {
	Name            string `json:"name"`
	Start           string `json:"start"`
	End             string `json:"end"`
	CrossesMidnight bool   `json:"crosses_midnight"`
}

type keyOpenResponse struct {
	Label string `json:"label"`
	Time  string `json:"time"`
}

type sessionsResponse struct {
	Timezone  string            `json:"timezone"`
	KillZones []windowResponse  `json:"kill_zones"`
	Macros    []windowResponse  `json:"macros"`
	KeyOpens  []keyOpenResponse `json:"key_opens"`
}

// GetSessions handles GET /api/v1/sessions
func (h *DashboardHandler) GetSessions(w http.ResponseWriter, r *http.Request) {
	resp := sessionsResponse{
		Timezone:  h.engine.Timezone,
		KillZones: toWindowResponses(h.engine.KillZones),
		Macros:    toWindowResponses(h.engine.Macros),
		KeyOpens:  make([]keyOpenResponse, 0, len(h.engine.KeyOpens)),
	}
	for _, ko := range h.engine.KeyOpens {
		resp.KeyOpens = append(resp.KeyOpens, keyOpenResponse{
			Label: ko.Label,
			Time:  formatClock(models.MinuteOfDay(ko.Hour, ko.Minute)),
		})
	}
	respondWithJSON(w, http.StatusOK, resp)
}

func toWindowResponses(windows []models.TimeWindow) []windowResponse {
	out := make([]windowResponse, 0, len(windows))
	for _, win := range windows {
		out = append(out, windowResponse{
			Name:            win.Name,
			Start:           formatClock(win.Start),
			End:             formatClock(win.End),
			CrossesMidnight: win.CrossesMidnight,
		})
	}
	return out
}

// formatClock renders minutes of the day as HH:MM
func formatClock(minute int) string {
	return fmt.Sprintf("%02d:%02d", minute/60, minute%60)
}

// HealthHandler serves liveness, readiness and stats endpoints
type HealthHandler struct {
	snapshots SnapshotSource
	hub       HubStatsSource
	poller    PollerStatusSource
	redis     Pinger
	startedAt time.Time
}

// NewHealthHandler creates a new health handler. hub, poller and redis may be nil.
func NewHealthHandler(snapshots SnapshotSource, hub HubStatsSource, poller PollerStatusSource, redis Pinger) *HealthHandler {
	return &HealthHandler{
		snapshots: snapshots,
		hub:       hub,
		poller:    poller,
		redis:     redis,
		startedAt: time.Now(),
	}
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"uptime": time.Since(h.startedAt).Round(time.Second).String(),
	})
}

// Live handles GET /live
func (h *HealthHandler) Live(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// Ready handles GET /ready. The service is ready once a snapshot exists and Redis, if used, answers.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.snapshots.Latest(); !ok {
		respondWithJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"reason": poller.ErrNoSnapshot.Error(),
		})
		return
	}

	if h.redis != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.redis.Ping(ctx); err != nil {
			logger.WithContext(r.Context()).Warn("Readiness check failed", logger.ErrorField(err))
			respondWithJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"reason": "redis unavailable",
			})
			return
		}
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

type statsResponse struct {
	Uptime string              `json:"uptime"`
	Hub    *wsgateway.HubStats `json:"hub,omitempty"`
	Poller *poller.Status      `json:"poller,omitempty"`
}

// Stats handles GET /stats
func (h *HealthHandler) Stats(w http.ResponseWriter, r *http.Request) {
	resp := statsResponse{Uptime: time.Since(h.startedAt).Round(time.Second).String()}
	if h.hub != nil {
		stats := h.hub.GetStats()
		resp.Hub = &stats
	}
	if h.poller != nil {
		status := h.poller.Status()
		resp.Poller = &status
	}
	respondWithJSON(w, http.StatusOK, resp)
}
