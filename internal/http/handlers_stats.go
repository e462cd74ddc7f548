package http

import (
	"net/http"

	"walletbook/internal/core"
)

// handleStats serves the bucketed income/expense overview for one of the
// three periods. Responses are cached per user and period.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	uid, err := requireUID(r)
	if err != nil {
		writeFailure(w, http.StatusBadRequest, err.Error())
		return
	}
	period := r.PathValue("period")

	key := uid + ":" + period
	if overview, ok := s.statsCache.Get(key); ok {
		writeSuccess(w, http.StatusOK, overview)
		return
	}

	var overview core.StatsOverview
	switch period {
	case "weekly":
		overview, err = s.stats.Weekly(r.Context(), uid)
	case "monthly":
		overview, err = s.stats.Monthly(r.Context(), uid)
	case "yearly":
		overview, err = s.stats.Yearly(r.Context(), uid)
	default:
		writeFailure(w, http.StatusBadRequest, "unknown period: must be weekly, monthly or yearly")
		return
	}
	if err != nil {
		writeError(w, r, err)
		return
	}

	s.statsCache.Set(key, overview)
	writeSuccess(w, http.StatusOK, overview)
}
