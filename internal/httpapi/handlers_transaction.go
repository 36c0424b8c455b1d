package httpapi

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"kharcha/internal/amqp"
	"kharcha/internal/api"
	"kharcha/internal/core"
	"kharcha/internal/storage"
)

// parseDateParam reads an RFC3339 query value; ok is false only when the
// value is present and malformed.
func parseDateParam(r *http.Request, name string) (time.Time, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return time.Time{}, true
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	query := storage.TransactionQuery{
		Type:       core.TransactionType(r.URL.Query().Get("type")),
		CategoryID: r.URL.Query().Get("category_id"),
	}
	if query.Type != "" && !query.Type.Valid() {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid type filter")
		return
	}

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
	if txns == nil {
		txns = []core.Transaction{}
	}
	writeJSON(w, http.StatusOK, txns)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req api.TransactionCreate
	if !decodeJSON(w, r, &req) {
		return
	}

	txn := core.Transaction{
		ID:           uuid.NewString(),
		Amount:       req.Amount,
		CategoryID:   req.CategoryID,
		CategoryName: req.CategoryName,
		Type:         req.Type,
		Date:         req.Date,
		Note:         req.Note,
		IsRecurring:  req.IsRecurring,
		CreatedAt:    s.now().UTC(),
	}
	if err := txn.Validate(); err != nil {
		writeValidationError(w, err)
		return
	}
	if err := s.repo.CreateTransaction(r.Context(), txn); err != nil {
		writeStorageError(w, err)
		return
	}

	s.invalidateAnalytics()
	s.publishSync(r, txn.ID)

	writeJSON(w, http.StatusOK, txn)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	var req api.TransactionUpdate
	if !decodeJSON(w, r, &req) {
		return
	}

	txn, err := s.repo.GetTransaction(r.Context(), r.PathValue("id"))
	if err != nil {
		writeStorageError(w, err)
		return
	}

	if req.Amount != nil {
		txn.Amount = *req.Amount
	}
	if req.CategoryID != nil {
		txn.CategoryID = *req.CategoryID
	}
	if req.CategoryName != nil {
		txn.CategoryName = *req.CategoryName
	}
	if req.Type != nil {
		txn.Type = *req.Type
	}
	if req.Date != nil {
		txn.Date = *req.Date
	}
	if req.Note != nil {
		txn.Note = *req.Note
	}
	if req.IsRecurring != nil {
		txn.IsRecurring = *req.IsRecurring
	}

	if err := txn.Validate(); err != nil {
		writeValidationError(w, err)
		return
	}
	if err := s.repo.UpdateTransaction(r.Context(), txn); err != nil {
		writeStorageError(w, err)
		return
	}

	s.invalidateAnalytics()
	s.publishSync(r, txn.ID)

	writeJSON(w, http.StatusOK, txn)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	// Load before deleting so the delete message can carry the row data.
	txn, err := s.repo.GetTransaction(r.Context(), r.PathValue("id"))
	if err != nil {
		writeStorageError(w, err)
		return
	}
	if err := s.repo.DeleteTransaction(r.Context(), txn.ID); err != nil {
		writeStorageError(w, err)
		return
	}

	s.invalidateAnalytics()
	if s.publisher != nil {
		msg := &amqp.TransactionDeleteMessage{
			ID:           txn.ID,
			Date:         txn.Date,
			Type:         string(txn.Type),
			CategoryName: txn.CategoryName,
			Amount:       txn.Amount,
		}
		if err := s.publisher.PublishTransactionDelete(r.Context(), msg); err != nil {
			s.logger.ErrorContext(r.Context(), "Failed to publish delete message",
				"id", txn.ID, "error", err)
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Transaction deleted"})
}

// publishSync fires a sheet sync message; failures only get logged so the
// write path never depends on the broker.
func (s *Server) publishSync(r *http.Request, id string) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishTransactionSync(r.Context(), id); err != nil {
		s.logger.ErrorContext(r.Context(), "Failed to publish sync message",
			"id", id, "error", err)
	}
}
