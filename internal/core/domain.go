package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Expense TransactionType = "expense"
	Income  TransactionType = "income"
)

const (
	KindExpense CategoryKind = "expense"
	KindIncome  CategoryKind = "income"
)

const (
	DefaultCategoryColor = "#6366F1"
	DefaultCategoryIcon  = "💰"
)

type (
	TransactionType string

	CategoryKind string

	// Category is a user-defined tag used to classify transactions.
	// Kind replaces the legacy name-based income detection: a category is
	// income-producing if and only if its Kind says so.
	Category struct {
		ID        string       `json:"id"`
		Name      string       `json:"name"`
		Color     string       `json:"color"`
		Icon      string       `json:"icon"`
		Kind      CategoryKind `json:"kind"`
		CreatedAt time.Time    `json:"created_at"`
	}

	// Transaction is a single dated money movement. CategoryName is a
	// snapshot taken at creation time; renaming the category later does not
	// relabel existing transactions.
	Transaction struct {
		ID           string          `json:"id"`
		Amount       float64         `json:"amount"`
		CategoryID   string          `json:"category_id"`
		CategoryName string          `json:"category_name"`
		Type         TransactionType `json:"type"`
		Date         time.Time       `json:"date"`
		Note         string          `json:"note"`
		IsRecurring  bool            `json:"is_recurring"`
		CreatedAt    time.Time       `json:"created_at"`
	}

	// Reminder is a user-scheduled future notice. Time is the wall-clock
	// "HH:MM" at which the notice should fire, one day before Date.
	Reminder struct {
		ID          string    `json:"id"`
		Title       string    `json:"title"`
		Message     string    `json:"message"`
		Date        time.Time `json:"date"`
		Time        string    `json:"time"`
		IsRecurring bool      `json:"is_recurring"`
		IsEnabled   bool      `json:"is_enabled"`
		CreatedAt   time.Time `json:"created_at"`
	}
)

var (
	ErrInvalidAmount   = errors.New("amount must be positive")
	ErrEmptyName       = errors.New("empty name")
	ErrEmptyTitle      = errors.New("empty title")
	ErrMissingCategory = errors.New("missing category")
	ErrInvalidType     = errors.New("invalid transaction type")
	ErrInvalidKind     = errors.New("invalid category kind")
	ErrInvalidTime     = errors.New("invalid time, expected HH:MM")
	ErrPastDate        = errors.New("date must be today or in the future")
)

func (t TransactionType) Valid() bool {
	return t == Expense || t == Income
}

func (k CategoryKind) Valid() bool {
	return k == KindExpense || k == KindIncome
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if c.Kind != "" && !c.Kind.Valid() {
		return ErrInvalidKind
	}
	return nil
}

// IsIncome reports whether transactions in this category default to income.
func (c Category) IsIncome() bool {
	return c.Kind == KindIncome
}

func (t Transaction) Validate() error {
	if t.Amount <= 0 {
		return ErrInvalidAmount
	}
	if strings.TrimSpace(t.CategoryID) == "" {
		return ErrMissingCategory
	}
	if !t.Type.Valid() {
		return ErrInvalidType
	}
	if t.Date.IsZero() {
		return errors.New("date cannot be zero")
	}
	return nil
}

// SignedLabel renders the display sign convention: income with a leading
// "+", expense with "-".
func (t Transaction) SignedLabel(formatted string) string {
	if t.Type == Income {
		return "+" + formatted
	}
	return "-" + formatted
}

func (r Reminder) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return ErrEmptyTitle
	}
	if _, err := time.Parse("15:04", r.Time); err != nil {
		return ErrInvalidTime
	}
	if r.Date.IsZero() {
		return errors.New("date cannot be zero")
	}
	return nil
}

// ValidateDate enforces the creation-time rule that a reminder must be dated
// today or later, comparing calendar days in the reference time's location.
func (r Reminder) ValidateDate(now time.Time) error {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if r.Date.Before(today) {
		return ErrPastDate
	}
	return nil
}

// FireAt computes the instant the reminder's notification should fire:
// one calendar day before Date, at the stored HH:MM wall-clock time.
// ok is false when Time does not parse or the instant is already past.
func (r Reminder) FireAt(now time.Time) (at time.Time, ok bool) {
	clock, err := time.Parse("15:04", r.Time)
	if err != nil {
		return time.Time{}, false
	}
	prev := r.Date.AddDate(0, 0, -1)
	at = time.Date(prev.Year(), prev.Month(), prev.Day(),
		clock.Hour(), clock.Minute(), 0, 0, r.Date.Location())
	if !at.After(now) {
		return time.Time{}, false
	}
	return at, true
}
