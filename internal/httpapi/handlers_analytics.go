package httpapi

import (
	"net/http"
	"strconv"

	"kharcha/internal/core"
)

const sixMonthsCacheKey = "last-six-months"

func (s *Server) handleMonthlyAnalytics(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(r.URL.Query().Get("year"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid year")
		return
	}
	month, err := strconv.Atoi(r.URL.Query().Get("month"))
	if err != nil || month < 1 || month > 12 {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid month")
		return
	}

	key := strconv.Itoa(year) + "-" + strconv.Itoa(month)
	if cached, ok := s.monthlyCache.Get(key); ok {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	analytics, err := s.repo.MonthlyAnalytics(r.Context(), year, month)
	if err != nil {
		writeStorageError(w, err)
		return
	}

	s.monthlyCache.Set(key, analytics)
	writeJSON(w, http.StatusOK, analytics)
}

func (s *Server) handleLastSixMonths(w http.ResponseWriter, r *http.Request) {
	if cached, ok := s.sixMonthsCache.Get(sixMonthsCacheKey); ok {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	series, err := s.repo.SixMonthSeries(r.Context(), s.now().UTC())
	if err != nil {
		writeStorageError(w, err)
		return
	}
	if series == nil {
		series = []core.SixMonthPoint{}
	}

	s.sixMonthsCache.Set(sixMonthsCacheKey, series)
	writeJSON(w, http.StatusOK, series)
}
