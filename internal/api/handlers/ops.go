package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/ratemytip/tipscore/internal/scheduler"
	"github.com/ratemytip/tipscore/pkg/database"
	"github.com/ratemytip/tipscore/pkg/logger"
)

// OpsHandler handles operational API endpoints
// ⭐ SSOT: 운영 API 핸들러는 이 구조체에서만
type OpsHandler struct {
	db        *database.DB
	scheduler *scheduler.Scheduler
	logger    *logger.Logger
}

// NewOpsHandler creates a new ops handler
func NewOpsHandler(db *database.DB, sched *scheduler.Scheduler, log *logger.Logger) *OpsHandler {
	return &OpsHandler{
		db:        db,
		scheduler: sched,
		logger:    log,
	}
}

// Health returns server health status
// GET /health
func (h *OpsHandler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.db.Ping(r.Context()); err != nil {
		h.logger.WithError(err).Error("Health check failed")
		respondJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":  "unhealthy",
			"service": "tipscore",
			"error":   "database unreachable",
		})
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"service": "tipscore",
	})
}

// GetJobs returns statistics for all scheduled jobs
// GET /api/v1/jobs
func (h *OpsHandler) GetJobs(w http.ResponseWriter, r *http.Request) {
	stats := h.scheduler.GetJobStats()

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data": map[string]interface{}{
			"count": len(stats),
			"jobs":  stats,
		},
	})
}

// RunJob triggers a job immediately
// POST /api/v1/jobs/{name}/run
func (h *OpsHandler) RunJob(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	if err := h.scheduler.RunJob(name); err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}

	h.logger.WithField("job", name).Info("Job triggered via API")

	respondJSON(w, http.StatusAccepted, map[string]interface{}{
		"success": true,
		"data": map[string]interface{}{
			"job":    name,
			"status": "triggered",
		},
	})
}
