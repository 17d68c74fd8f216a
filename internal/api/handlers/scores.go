package handlers

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/ratemytip/tipscore/internal/contracts"
	"github.com/ratemytip/tipscore/pkg/logger"
	"github.com/ratemytip/tipscore/pkg/redis"
)

const (
	defaultLeaderboardLimit = 50
	maxLeaderboardLimit     = 200
)

// ScoreHandler handles reputation read endpoints
// ⭐ SSOT: 점수 API 핸들러는 이 구조체에서만
type ScoreHandler struct {
	scores contracts.ScoreRepository
	cache  *redis.Cache
	logger *logger.Logger
}

// NewScoreHandler creates a new score handler
func NewScoreHandler(scores contracts.ScoreRepository, cache *redis.Cache, log *logger.Logger) *ScoreHandler {
	return &ScoreHandler{
		scores: scores,
		cache:  cache,
		logger: log,
	}
}

// GetLeaderboard returns the top creators by score
// GET /api/v1/leaderboard?limit=50
func (h *ScoreHandler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit := defaultLeaderboardLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			respondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		if n > maxLeaderboardLimit {
			n = maxLeaderboardLimit
		}
		limit = n
	}

	cacheKey := redis.LeaderboardKey(limit)

	var entries []contracts.LeaderboardEntry
	if hit, err := h.cache.Get(ctx, cacheKey, &entries); err == nil && hit {
		respondLeaderboard(w, entries, true)
		return
	}

	entries, err := h.scores.Leaderboard(ctx, limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to query leaderboard")
		respondError(w, http.StatusInternalServerError, "Failed to query leaderboard")
		return
	}

	if err := h.cache.Set(ctx, cacheKey, entries, redis.TTLLeaderboard); err != nil {
		h.logger.WithError(err).Warn("Failed to cache leaderboard")
	}

	respondLeaderboard(w, entries, false)
}

func respondLeaderboard(w http.ResponseWriter, entries []contracts.LeaderboardEntry, cached bool) {
	if entries == nil {
		entries = []contracts.LeaderboardEntry{}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data": map[string]interface{}{
			"count":   len(entries),
			"entries": entries,
			"cached":  cached,
		},
	})
}

// GetCreatorScore returns one creator's published score
// GET /api/v1/creators/{id}/score
func (h *ScoreHandler) GetCreatorScore(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	creatorID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "creator id must be an integer")
		return
	}

	score, err := h.scores.GetCreatorScore(ctx, creatorID)
	if err != nil {
		h.logger.WithError(err).WithField("creator_id", creatorID).Error("Failed to query creator score")
		respondError(w, http.StatusInternalServerError, "Failed to query creator score")
		return
	}

	if score == nil {
		respondError(w, http.StatusNotFound, "no published score for creator")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    score,
	})
}
