package store

import (
	"strings"

	"kharcha/internal/core"
	"kharcha/internal/prefs"
)

// Snapshot accessors return copies so callers can render without holding
// the store's lock.

func (s *Store) Categories() []core.Category {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Category(nil), s.categories...)
}

func (s *Store) Transactions() []core.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Transaction(nil), s.transactions...)
}

func (s *Store) Reminders() []core.Reminder {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Reminder(nil), s.reminders...)
}

func (s *Store) Analytics() (core.MonthlyAnalytics, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.analytics == nil {
		return core.MonthlyAnalytics{}, false
	}
	return *s.analytics, true
}

func (s *Store) SixMonths() []core.SixMonthPoint {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.SixMonthPoint(nil), s.sixMonths...)
}

func (s *Store) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

func (s *Store) LastError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastError
}

// FilterTransactions composes the free-text and type filters over the full
// collection. It is computed fresh on every call and never cached. The
// search matches case-insensitively against category name and note.
func (s *Store) FilterTransactions(search string, typeFilter TypeFilter) []core.Transaction {
	s.mu.Lock()
	txns := append([]core.Transaction(nil), s.transactions...)
	s.mu.Unlock()

	search = strings.ToLower(strings.TrimSpace(search))

	out := txns[:0]
	for _, t := range txns {
		switch typeFilter {
		case FilterExpense:
			if t.Type != core.Expense {
				continue
			}
		case FilterIncome:
			if t.Type != core.Income {
				continue
			}
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(t.CategoryName), search) &&
			!strings.Contains(strings.ToLower(t.Note), search) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// Theme returns the persisted display theme. Without a preference store it
// falls back to light.
func (s *Store) Theme() string {
	if s.prefs == nil {
		return prefs.ThemeLight
	}
	return s.prefs.Theme()
}

// ToggleTheme flips between light and dark and persists the result.
func (s *Store) ToggleTheme() (string, error) {
	if s.prefs == nil {
		return prefs.ThemeLight, nil
	}
	return s.prefs.Toggle()
}
