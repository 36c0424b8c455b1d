package api

import (
	"time"

	"kharcha/internal/core"
)

// Request payloads mirror the service contract: create payloads carry plain
// fields with server-side defaults, update payloads carry pointers so that
// only the set fields are touched.

type (
	CategoryCreate struct {
		Name  string            `json:"name"`
		Color string            `json:"color,omitempty"`
		Icon  string            `json:"icon,omitempty"`
		Kind  core.CategoryKind `json:"kind,omitempty"`
	}

	CategoryUpdate struct {
		Name  *string            `json:"name,omitempty"`
		Color *string            `json:"color,omitempty"`
		Icon  *string            `json:"icon,omitempty"`
		Kind  *core.CategoryKind `json:"kind,omitempty"`
	}

	TransactionCreate struct {
		Amount       float64              `json:"amount"`
		CategoryID   string               `json:"category_id"`
		CategoryName string               `json:"category_name,omitempty"`
		Type         core.TransactionType `json:"type"`
		Date         time.Time            `json:"date"`
		Note         string               `json:"note,omitempty"`
		IsRecurring  bool                 `json:"is_recurring,omitempty"`
	}

	TransactionUpdate struct {
		Amount       *float64              `json:"amount,omitempty"`
		CategoryID   *string               `json:"category_id,omitempty"`
		CategoryName *string               `json:"category_name,omitempty"`
		Type         *core.TransactionType `json:"type,omitempty"`
		Date         *time.Time            `json:"date,omitempty"`
		Note         *string               `json:"note,omitempty"`
		IsRecurring  *bool                 `json:"is_recurring,omitempty"`
	}

	ReminderCreate struct {
		Title       string    `json:"title"`
		Message     string    `json:"message,omitempty"`
		Date        time.Time `json:"date"`
		Time        string    `json:"time"`
		IsRecurring bool      `json:"is_recurring,omitempty"`
		IsEnabled   bool      `json:"is_enabled"`
	}

	ReminderUpdate struct {
		Title       *string    `json:"title,omitempty"`
		Message     *string    `json:"message,omitempty"`
		Date        *time.Time `json:"date,omitempty"`
		Time        *string    `json:"time,omitempty"`
		IsRecurring *bool      `json:"is_recurring,omitempty"`
		IsEnabled   *bool      `json:"is_enabled,omitempty"`
	}
)

// TransactionFilter narrows a transaction listing. Zero values mean
// "no constraint".
type TransactionFilter struct {
	Type       core.TransactionType
	CategoryID string
	StartDate  time.Time
	EndDate    time.Time
}

// ExportResult carries the CSV text produced by the export endpoint. The
// client hands the content to the caller untouched.
type ExportResult struct {
	CSVContent string `json:"csv_content"`
	Filename   string `json:"filename"`
}
