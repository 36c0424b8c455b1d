package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"kharcha/internal/api"
	"kharcha/internal/core"
	"kharcha/internal/log"
	"kharcha/internal/storage"
)

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	query := storage.TransactionQuery{}
	var ok bool
	if query.StartDate, ok = parseDateParam(r, "start_date"); !ok {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid start_date")
		return
	}
	if query.EndDate, ok = parseDateParam(r, "end_date"); !ok {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid end_date")
		return
	}

	txns, err := s.repo.ListTransactions(r.Context(), query)
	if err != nil {
		writeStorageError(w, err)
		return
	}

	result := api.ExportResult{
		CSVContent: buildCSV(txns),
		Filename:   "expense_report_" + s.now().UTC().Format("20060102") + ".csv",
	}

	s.logger.InfoContext(r.Context(), "Exported transactions",
		log.FieldOperation, log.OpExport, "count", len(txns))

	writeJSON(w, http.StatusOK, result)
}

// buildCSV renders the fixed report shape: commas inside notes are
// flattened to spaces and quotes doubled so the quoted field stays intact.
func buildCSV(txns []core.Transaction) string {
	rows := make([]string, 0, len(txns)+1)
	rows = append(rows, "Date,Type,Category,Amount,Notes")
	for _, t := range txns {
		category := t.CategoryName
		if category == "" {
			category = "Other"
		}
		note := strings.ReplaceAll(t.Note, `"`, `""`)
		note = strings.ReplaceAll(note, ",", " ")
		rows = append(rows, strings.Join([]string{
			t.Date.UTC().Format("2006-01-02"),
			string(t.Type),
			category,
			strconv.FormatFloat(t.Amount, 'f', -1, 64),
			`"` + note + `"`,
		}, ","))
	}
	return strings.Join(rows, "\n")
}

func (s *Server) handleResetAll(w http.ResponseWriter, r *http.Request) {
	if err := s.repo.ResetAll(r.Context()); err != nil {
		writeStorageError(w, err)
		return
	}

	s.invalidateAnalytics()
	s.logger.InfoContext(r.Context(), "All data reset", log.FieldOperation, log.OpReset)

	writeJSON(w, http.StatusOK, map[string]string{"message": "All data has been reset"})
}
