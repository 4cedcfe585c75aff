package api

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"
	"wallettracker/apps/tracker/internal/repository"
)

type ActivityHandler struct {
	activities *repository.ActivityRepository
	logger     *zap.Logger
}

func NewActivityHandler(activities *repository.ActivityRepository, logger *zap.Logger) *ActivityHandler {
	return &ActivityHandler{activities: activities, logger: logger}
}

// GetActivity handles GET /activity?limit=N. Without a limit the whole log is returned.
func (h *ActivityHandler) GetActivity(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			writeErrorResponse(w, h.logger, http.StatusBadRequest, "invalid_limit", "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	events := h.activities.GetRecentEvents(limit)
	writeJSONResponse(w, h.logger, http.StatusOK, ActivityResponse{
		Events: events,
		Count:  len(events),
	})
}
