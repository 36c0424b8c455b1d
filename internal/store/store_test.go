package store

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"kharcha/internal/api"
	"kharcha/internal/config"
	"kharcha/internal/core"
	"kharcha/internal/prefs"
)

var testNow = time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

// fakeService is a minimal in-process stand-in for the remote service.
type fakeService struct {
	mux  *http.ServeMux
	fail atomic.Bool
}

func newFakeService() *fakeService {
	f := &fakeService{mux: http.NewServeMux()}
	return f
}

func (f *fakeService) handle(pattern string, payload func(r *http.Request) any) {
	f.mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		if f.fail.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":{"code":"internal","message":"remote store unavailable"}}`))
			return
		}
		_ = json.NewEncoder(w).Encode(payload(r))
	})
}

func newStoreWithService(t *testing.T, f *fakeService, opts ...Option) *Store {
	t.Helper()
	srv := httptest.NewServer(f.mux)
	t.Cleanup(srv.Close)
	opts = append([]Option{WithClock(fixedClock)}, opts...)
	return New(api.NewClient(srv.URL), opts...)
}

func TestFetchCategoriesReplacesCollection(t *testing.T) {
	f := newFakeService()
	f.handle("GET /api/categories", func(*http.Request) any {
		return []core.Category{{ID: "c1", Name: "Food"}, {ID: "c2", Name: "Rent"}}
	})
	s := newStoreWithService(t, f)

	if err := s.FetchCategories(context.Background()); err != nil {
		t.Fatalf("FetchCategories: %v", err)
	}
	if got := s.Categories(); len(got) != 2 || got[0].ID != "c1" {
		t.Errorf("categories = %+v", got)
	}
	if s.Loading() {
		t.Error("loading should be cleared")
	}
	if s.LastError() != "" {
		t.Errorf("last error = %q", s.LastError())
	}
}

func TestFailureThenSuccessClearsError(t *testing.T) {
	f := newFakeService()
	f.handle("GET /api/categories", func(*http.Request) any {
		return []core.Category{{ID: "c1", Name: "Food"}}
	})
	s := newStoreWithService(t, f)

	f.fail.Store(true)
	if err := s.FetchCategories(context.Background()); err == nil {
		t.Fatal("expected failure")
	}
	if s.Loading() {
		t.Error("loading must be cleared on failure")
	}
	if s.LastError() == "" {
		t.Error("last error must be recorded on failure")
	}

	f.fail.Store(false)
	if err := s.FetchCategories(context.Background()); err != nil {
		t.Fatalf("second fetch: %v", err)
	}
	if s.LastError() != "" {
		t.Errorf("error should be cleared on success, got %q", s.LastError())
	}
}

func TestCreateTransactionPrepends(t *testing.T) {
	f := newFakeService()
	f.handle("GET /api/transactions", func(*http.Request) any {
		return []core.Transaction{{ID: "t1"}, {ID: "t2"}}
	})
	f.handle("POST /api/transactions", func(r *http.Request) any {
		var req api.TransactionCreate
		_ = json.NewDecoder(r.Body).Decode(&req)
		return core.Transaction{ID: "t3", Amount: req.Amount, CategoryID: req.CategoryID, Type: req.Type, Date: req.Date}
	})
	s := newStoreWithService(t, f)

	if err := s.FetchTransactions(context.Background(), api.TransactionFilter{}); err != nil {
		t.Fatalf("FetchTransactions: %v", err)
	}
	_, err := s.CreateTransaction(context.Background(), api.TransactionCreate{
		Amount: 99, CategoryID: "c1", Type: core.Expense, Date: testNow,
	})
	if err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}
	got := s.Transactions()
	if len(got) != 3 || got[0].ID != "t3" {
		t.Errorf("expected new transaction first, got %+v", got)
	}
}

func TestCreateTransactionValidationNeverReachesService(t *testing.T) {
	called := false
	f := newFakeService()
	f.handle("POST /api/transactions", func(*http.Request) any {
		called = true
		return core.Transaction{}
	})
	s := newStoreWithService(t, f)

	_, err := s.CreateTransaction(context.Background(), api.TransactionCreate{
		Amount: -5, CategoryID: "c1", Type: core.Expense, Date: testNow,
	})
	if err != core.ErrInvalidAmount {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if called {
		t.Error("validation failure must not reach the service")
	}
	if s.LastError() != "" {
		t.Errorf("validation failure must not set last error, got %q", s.LastError())
	}
	if s.Loading() {
		t.Error("validation failure must not leave the store loading")
	}
}

func TestDeleteCategoryRemovesByID(t *testing.T) {
	f := newFakeService()
	f.handle("GET /api/categories", func(*http.Request) any {
		return []core.Category{{ID: "c1"}, {ID: "c2"}, {ID: "c3"}}
	})
	f.handle("DELETE /api/categories/{id}", func(*http.Request) any {
		return map[string]string{"message": "deleted"}
	})
	s := newStoreWithService(t, f)

	_ = s.FetchCategories(context.Background())
	if err := s.DeleteCategory(context.Background(), "c2"); err != nil {
		t.Fatalf("DeleteCategory: %v", err)
	}
	for _, c := range s.Categories() {
		if c.ID == "c2" {
			t.Error("c2 should be removed")
		}
	}
	if len(s.Categories()) != 2 {
		t.Errorf("categories = %+v", s.Categories())
	}
}

func TestUpdateTransactionReplacesByID(t *testing.T) {
	f := newFakeService()
	f.handle("GET /api/transactions", func(*http.Request) any {
		return []core.Transaction{{ID: "t1", Note: "old"}, {ID: "t2"}}
	})
	f.handle("PUT /api/transactions/{id}", func(r *http.Request) any {
		return core.Transaction{ID: r.PathValue("id"), Note: "new"}
	})
	s := newStoreWithService(t, f)

	_ = s.FetchTransactions(context.Background(), api.TransactionFilter{})
	if _, err := s.UpdateTransaction(context.Background(), "t1", api.TransactionUpdate{}); err != nil {
		t.Fatalf("UpdateTransaction: %v", err)
	}
	got := s.Transactions()
	if got[0].Note != "new" || got[1].ID != "t2" {
		t.Errorf("transactions = %+v", got)
	}
}

func TestFilterTransactions(t *testing.T) {
	f := newFakeService()
	f.handle("GET /api/transactions", func(*http.Request) any {
		return []core.Transaction{
			{ID: "t1", Type: core.Expense, CategoryName: "Food", Note: "coffee"},
			{ID: "t2", Type: core.Income, CategoryName: "Salary", Note: "bonus"},
		}
	})
	s := newStoreWithService(t, f)
	_ = s.FetchTransactions(context.Background(), api.TransactionFilter{})

	income := s.FilterTransactions("", FilterIncome)
	if len(income) != 1 || income[0].ID != "t2" {
		t.Errorf("income filter = %+v", income)
	}

	coffee := s.FilterTransactions("COFFEE", FilterAll)
	if len(coffee) != 1 || coffee[0].ID != "t1" {
		t.Errorf("search filter = %+v", coffee)
	}

	byCategory := s.FilterTransactions("sal", FilterAll)
	if len(byCategory) != 1 || byCategory[0].ID != "t2" {
		t.Errorf("category search = %+v", byCategory)
	}

	none := s.FilterTransactions("coffee", FilterIncome)
	if len(none) != 0 {
		t.Errorf("composed filter = %+v", none)
	}

	all := s.FilterTransactions("", FilterAll)
	if len(all) != 2 {
		t.Errorf("all = %+v", all)
	}
}

func TestCreateReminderDispatchesNotification(t *testing.T) {
	f := newFakeService()
	f.handle("POST /api/reminders", func(r *http.Request) any {
		var req api.ReminderCreate
		_ = json.NewDecoder(r.Body).Decode(&req)
		return core.Reminder{ID: "r1", Title: req.Title, Date: req.Date, Time: req.Time, IsEnabled: true}
	})

	var gotFireAt time.Time
	notifier := NotifierFunc(func(_ context.Context, rem core.Reminder, fireAt time.Time) error {
		gotFireAt = fireAt
		return nil
	})
	s := newStoreWithService(t, f, WithNotifier(notifier))

	_, err := s.CreateReminder(context.Background(), api.ReminderCreate{
		Title: "Insurance premium",
		Date:  time.Date(2024, 6, 20, 0, 0, 0, 0, time.UTC),
		Time:  "09:00",
	})
	if err != nil {
		t.Fatalf("CreateReminder: %v", err)
	}
	want := time.Date(2024, 6, 19, 9, 0, 0, 0, time.UTC)
	if !gotFireAt.Equal(want) {
		t.Errorf("fire instant = %v, want %v", gotFireAt, want)
	}
	if len(s.Reminders()) != 1 {
		t.Errorf("reminders = %+v", s.Reminders())
	}
}

func TestReminderPastDateRejected(t *testing.T) {
	s := newStoreWithService(t, newFakeService())
	_, err := s.CreateReminder(context.Background(), api.ReminderCreate{
		Title: "Too late",
		Date:  testNow.AddDate(0, 0, -2),
		Time:  "09:00",
	})
	if err != core.ErrPastDate {
		t.Fatalf("expected ErrPastDate, got %v", err)
	}
}

func TestNotifierErrorDoesNotFailOperation(t *testing.T) {
	f := newFakeService()
	f.handle("POST /api/reminders", func(*http.Request) any {
		return core.Reminder{ID: "r1", Title: "x", Date: testNow.AddDate(0, 0, 5), Time: "09:00"}
	})
	notifier := NotifierFunc(func(context.Context, core.Reminder, time.Time) error {
		return context.DeadlineExceeded
	})
	s := newStoreWithService(t, f, WithNotifier(notifier))

	_, err := s.CreateReminder(context.Background(), api.ReminderCreate{
		Title: "x", Date: testNow.AddDate(0, 0, 5), Time: "09:00",
	})
	if err != nil {
		t.Fatalf("notification failure must not fail the operation: %v", err)
	}
	if s.LastError() != "" {
		t.Errorf("last error = %q", s.LastError())
	}
}

func TestLoadDashboardPopulatesAllCollections(t *testing.T) {
	f := newFakeService()
	f.handle("GET /api/transactions", func(*http.Request) any {
		return []core.Transaction{{ID: "t1"}}
	})
	f.handle("GET /api/categories", func(*http.Request) any {
		return []core.Category{{ID: "c1", Name: "Food"}}
	})
	f.handle("GET /api/analytics/monthly", func(*http.Request) any {
		return core.MonthlyAnalytics{Year: 2024, Month: 6, TotalIncome: 100}
	})
	f.handle("GET /api/analytics/last-six-months", func(*http.Request) any {
		return []core.SixMonthPoint{{Month: "Jan", Year: 2024}, {Month: "Jun", Year: 2024}}
	})
	s := newStoreWithService(t, f)

	if err := s.LoadDashboard(context.Background(), 2024, 6); err != nil {
		t.Fatalf("LoadDashboard: %v", err)
	}
	if len(s.Transactions()) != 1 || len(s.Categories()) != 1 || len(s.SixMonths()) != 2 {
		t.Error("collections not populated")
	}
	if a, ok := s.Analytics(); !ok || a.Year != 2024 {
		t.Errorf("analytics = %+v ok=%v", a, ok)
	}
	if s.Loading() {
		t.Error("loading should be cleared")
	}
}

func TestLoadDashboardPartialFailure(t *testing.T) {
	f := newFakeService()
	f.handle("GET /api/transactions", func(*http.Request) any {
		return []core.Transaction{{ID: "t1"}}
	})
	f.handle("GET /api/categories", func(*http.Request) any {
		return []core.Category{{ID: "c1"}}
	})
	// analytics endpoints unregistered: they 404
	s := newStoreWithService(t, f)

	if err := s.LoadDashboard(context.Background(), 2024, 6); err == nil {
		t.Fatal("expected error from failing sub-fetch")
	}
	if s.Loading() {
		t.Error("loading must be cleared after partial failure")
	}
	if s.LastError() == "" {
		t.Error("error must be recorded")
	}
}

func TestExportCSVDoesNotMutateState(t *testing.T) {
	f := newFakeService()
	f.handle("GET /api/transactions", func(*http.Request) any {
		return []core.Transaction{{ID: "t1"}}
	})
	f.handle("GET /api/export/csv", func(*http.Request) any {
		return api.ExportResult{CSVContent: "Date,Type,Category,Amount,Notes", Filename: "expense_report_20240615.csv"}
	})
	s := newStoreWithService(t, f)
	_ = s.FetchTransactions(context.Background(), api.TransactionFilter{})

	res, err := s.ExportCSV(context.Background(), time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("ExportCSV: %v", err)
	}
	if res.CSVContent == "" {
		t.Error("expected csv content")
	}
	if len(s.Transactions()) != 1 {
		t.Error("export must not mutate collections")
	}
}

func TestResetAllDataClearsEverything(t *testing.T) {
	f := newFakeService()
	f.handle("GET /api/transactions", func(*http.Request) any {
		return []core.Transaction{{ID: "t1"}}
	})
	f.handle("GET /api/categories", func(*http.Request) any {
		return []core.Category{{ID: "c1"}}
	})
	f.handle("GET /api/analytics/monthly", func(*http.Request) any {
		return core.MonthlyAnalytics{Year: 2024, Month: 6}
	})
	f.handle("GET /api/analytics/last-six-months", func(*http.Request) any {
		return []core.SixMonthPoint{{Month: "Jun"}}
	})
	f.handle("DELETE /api/reset-all", func(*http.Request) any {
		return map[string]string{"message": "All data has been reset"}
	})
	s := newStoreWithService(t, f)

	_ = s.LoadDashboard(context.Background(), 2024, 6)
	if err := s.ResetAllData(context.Background()); err != nil {
		t.Fatalf("ResetAllData: %v", err)
	}
	if len(s.Transactions()) != 0 || len(s.Categories()) != 0 || len(s.SixMonths()) != 0 {
		t.Error("collections should be cleared")
	}
	if _, ok := s.Analytics(); ok {
		t.Error("analytics snapshot should be cleared")
	}
}

func TestThemePreferences(t *testing.T) {
	s := newStoreWithService(t, newFakeService())
	if got := s.Theme(); got != prefs.ThemeLight {
		t.Errorf("Theme without prefs = %q, want %q", got, prefs.ThemeLight)
	}
	if theme, err := s.ToggleTheme(); err != nil || theme != prefs.ThemeLight {
		t.Errorf("ToggleTheme without prefs = %q, %v", theme, err)
	}

	p := prefs.New(t.TempDir())
	s = newStoreWithService(t, newFakeService(), WithPreferences(p))
	if got := s.Theme(); got != prefs.ThemeLight {
		t.Errorf("default theme = %q, want %q", got, prefs.ThemeLight)
	}
	theme, err := s.ToggleTheme()
	if err != nil {
		t.Fatalf("ToggleTheme: %v", err)
	}
	if theme != prefs.ThemeDark {
		t.Errorf("toggled theme = %q, want %q", theme, prefs.ThemeDark)
	}
	if got := s.Theme(); got != prefs.ThemeDark {
		t.Errorf("theme after toggle = %q, want %q", got, prefs.ThemeDark)
	}
}

func TestFromConfig(t *testing.T) {
	cfg := &config.Config{APIBaseURL: "http://localhost:8080", PrefsDir: t.TempDir()}
	s := FromConfig(cfg, WithClock(fixedClock))
	if s.client == nil {
		t.Fatal("FromConfig must wire the API client")
	}
	if s.prefs == nil {
		t.Fatal("FromConfig must wire the preference store")
	}
	if _, err := s.ToggleTheme(); err != nil {
		t.Fatalf("ToggleTheme: %v", err)
	}
	if got := s.Theme(); got != prefs.ThemeDark {
		t.Errorf("theme = %q, want %q", got, prefs.ThemeDark)
	}
}
