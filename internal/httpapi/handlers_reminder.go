package httpapi

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"kharcha/internal/amqp"
	"kharcha/internal/api"
	"kharcha/internal/core"
)

func (s *Server) handleListReminders(w http.ResponseWriter, r *http.Request) {
	rems, err := s.repo.ListReminders(r.Context())
	if err != nil {
		writeStorageError(w, err)
		return
	}
	if rems == nil {
		rems = []core.Reminder{}
	}
	writeJSON(w, http.StatusOK, rems)
}

func (s *Server) handleCreateReminder(w http.ResponseWriter, r *http.Request) {
	var req api.ReminderCreate
	if !decodeJSON(w, r, &req) {
		return
	}

	rem := core.Reminder{
		ID:          uuid.NewString(),
		Title:       req.Title,
		Message:     req.Message,
		Date:        req.Date,
		Time:        req.Time,
		IsRecurring: req.IsRecurring,
		IsEnabled:   req.IsEnabled,
		CreatedAt:   s.now().UTC(),
	}
	if err := rem.Validate(); err != nil {
		writeValidationError(w, err)
		return
	}
	if err := rem.ValidateDate(s.now()); err != nil {
		writeValidationError(w, err)
		return
	}
	if err := s.repo.CreateReminder(r.Context(), rem); err != nil {
		writeStorageError(w, err)
		return
	}

	s.publishReminderDue(r, rem)

	writeJSON(w, http.StatusOK, rem)
}

func (s *Server) handleUpdateReminder(w http.ResponseWriter, r *http.Request) {
	var req api.ReminderUpdate
	if !decodeJSON(w, r, &req) {
		return
	}

	rem, err := s.repo.GetReminder(r.Context(), r.PathValue("id"))
	if err != nil {
		writeStorageError(w, err)
		return
	}

	if req.Title != nil {
		rem.Title = *req.Title
	}
	if req.Message != nil {
		rem.Message = *req.Message
	}
	if req.Date != nil {
		rem.Date = *req.Date
	}
	if req.Time != nil {
		rem.Time = *req.Time
	}
	if req.IsRecurring != nil {
		rem.IsRecurring = *req.IsRecurring
	}
	if req.IsEnabled != nil {
		rem.IsEnabled = *req.IsEnabled
	}

	if err := rem.Validate(); err != nil {
		writeValidationError(w, err)
		return
	}
	if err := s.repo.UpdateReminder(r.Context(), rem); err != nil {
		writeStorageError(w, err)
		return
	}

	s.publishReminderDue(r, rem)

	writeJSON(w, http.StatusOK, rem)
}

func (s *Server) handleDeleteReminder(w http.ResponseWriter, r *http.Request) {
	if err := s.repo.DeleteReminder(r.Context(), r.PathValue("id")); err != nil {
		writeStorageError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Reminder deleted"})
}

// publishReminderDue schedules the one-shot notice a day ahead of the
// reminder date. An already-past fire instant is skipped silently, and
// broker failures never fail the reminder write.
func (s *Server) publishReminderDue(r *http.Request, rem core.Reminder) {
	if s.publisher == nil {
		return
	}
	fireAt, ok := rem.FireAt(s.now())
	if !ok {
		return
	}

	msg := &amqp.ReminderDueMessage{
		ID:     rem.ID,
		Title:  "Reminder: " + rem.Title,
		Body:   fmt.Sprintf("%s is due tomorrow", rem.Title),
		FireAt: fireAt,
	}
	if err := s.publisher.PublishReminderDue(r.Context(), msg); err != nil {
		s.logger.ErrorContext(r.Context(), "Failed to publish reminder due message",
			"id", rem.ID, "error", err)
	}
}
