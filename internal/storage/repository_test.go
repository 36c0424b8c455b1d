package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"kharcha/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func newCategory(name string, kind core.CategoryKind) core.Category {
	return core.Category{
		ID:        uuid.NewString(),
		Name:      name,
		Color:     core.DefaultCategoryColor,
		Icon:      core.DefaultCategoryIcon,
		Kind:      kind,
		CreatedAt: time.Now().UTC(),
	}
}

func newTransaction(amount float64, typ core.TransactionType, catName string, date time.Time) core.Transaction {
	return core.Transaction{
		ID:           uuid.NewString(),
		Amount:       amount,
		CategoryID:   uuid.NewString(),
		CategoryName: catName,
		Type:         typ,
		Date:         date,
		CreatedAt:    time.Now().UTC(),
	}
}

func TestCategoryCRUD(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	cat := newCategory("Food", core.KindExpense)
	if err := repo.CreateCategory(ctx, cat); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := repo.GetCategory(ctx, cat.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "Food" || got.Kind != core.KindExpense {
		t.Errorf("got %+v", got)
	}

	got.Name = "Groceries"
	if err := repo.UpdateCategory(ctx, got); err != nil {
		t.Fatalf("update: %v", err)
	}
	updated, _ := repo.GetCategory(ctx, cat.ID)
	if updated.Name != "Groceries" {
		t.Errorf("update not persisted: %+v", updated)
	}

	if err := repo.DeleteCategory(ctx, cat.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.GetCategory(ctx, cat.ID); err != ErrNotFound {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestNotFoundOnUnknownIDs(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if err := repo.UpdateCategory(ctx, newCategory("x", core.KindExpense)); err != ErrNotFound {
		t.Errorf("update category: %v", err)
	}
	if err := repo.DeleteTransaction(ctx, "missing"); err != ErrNotFound {
		t.Errorf("delete transaction: %v", err)
	}
	if err := repo.DeleteReminder(ctx, "missing"); err != ErrNotFound {
		t.Errorf("delete reminder: %v", err)
	}
}

func TestListTransactionsNewestFirstAndFiltered(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	older := newTransaction(100, core.Expense, "Food", base)
	newer := newTransaction(200, core.Income, "Salary", base.AddDate(0, 0, 10))
	for _, txn := range []core.Transaction{older, newer} {
		if err := repo.CreateTransaction(ctx, txn); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	all, err := repo.ListTransactions(ctx, TransactionQuery{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 2 || all[0].ID != newer.ID {
		t.Errorf("expected newest first, got %+v", all)
	}

	incomes, err := repo.ListTransactions(ctx, TransactionQuery{Type: core.Income})
	if err != nil {
		t.Fatalf("list income: %v", err)
	}
	if len(incomes) != 1 || incomes[0].ID != newer.ID {
		t.Errorf("income filter = %+v", incomes)
	}

	ranged, err := repo.ListTransactions(ctx, TransactionQuery{
		StartDate: base.AddDate(0, 0, 5),
		EndDate:   base.AddDate(0, 0, 15),
	})
	if err != nil {
		t.Fatalf("list range: %v", err)
	}
	if len(ranged) != 1 || ranged[0].ID != newer.ID {
		t.Errorf("range filter = %+v", ranged)
	}

	byCat, err := repo.ListTransactions(ctx, TransactionQuery{CategoryID: older.CategoryID})
	if err != nil {
		t.Fatalf("list by category: %v", err)
	}
	if len(byCat) != 1 || byCat[0].ID != older.ID {
		t.Errorf("category filter = %+v", byCat)
	}
}

func TestRemindersOrderedByDate(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	later := core.Reminder{
		ID: uuid.NewString(), Title: "Later",
		Date: time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC), Time: "10:00",
		IsEnabled: true, CreatedAt: time.Now().UTC(),
	}
	sooner := core.Reminder{
		ID: uuid.NewString(), Title: "Sooner",
		Date: time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC), Time: "09:00",
		IsEnabled: true, CreatedAt: time.Now().UTC(),
	}
	for _, rem := range []core.Reminder{later, sooner} {
		if err := repo.CreateReminder(ctx, rem); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	got, err := repo.ListReminders(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 || got[0].Title != "Sooner" {
		t.Errorf("expected soonest first, got %+v", got)
	}
}

func TestMonthlyAnalytics(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	june := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)

	txns := []core.Transaction{
		newTransaction(50000, core.Income, "Salary", june),
		newTransaction(12000, core.Expense, "Food", june.AddDate(0, 0, 1)),
		newTransaction(8000, core.Expense, "Food", june.AddDate(0, 0, 2)),
		newTransaction(10000, core.Expense, "Rent", june.AddDate(0, 0, 3)),
		// Outside the month, must not count.
		newTransaction(999, core.Expense, "Food", june.AddDate(0, 1, 0)),
	}
	for _, txn := range txns {
		if err := repo.CreateTransaction(ctx, txn); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	a, err := repo.MonthlyAnalytics(ctx, 2024, 6)
	if err != nil {
		t.Fatalf("analytics: %v", err)
	}
	if a.TotalIncome != 50000 || a.TotalExpense != 30000 {
		t.Errorf("totals: %+v", a)
	}
	if a.NetBalance != 20000 {
		t.Errorf("net = %v", a.NetBalance)
	}
	if a.SavingsPercentage != 40.0 {
		t.Errorf("savings = %v", a.SavingsPercentage)
	}
	if a.CategoryBreakdown["Food"] != 20000 || a.CategoryBreakdown["Rent"] != 10000 {
		t.Errorf("breakdown = %v", a.CategoryBreakdown)
	}
	if _, ok := a.CategoryBreakdown["Salary"]; ok {
		t.Error("income must not appear in the expense breakdown")
	}
	if a.TransactionCount != 4 {
		t.Errorf("count = %d", a.TransactionCount)
	}
}

func TestMonthlyAnalyticsNoIncome(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	june := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)

	blank := newTransaction(100, core.Expense, "", june)
	if err := repo.CreateTransaction(ctx, blank); err != nil {
		t.Fatalf("create: %v", err)
	}

	a, err := repo.MonthlyAnalytics(ctx, 2024, 6)
	if err != nil {
		t.Fatalf("analytics: %v", err)
	}
	if a.SavingsPercentage != 0 {
		t.Errorf("savings with no income = %v", a.SavingsPercentage)
	}
	if a.CategoryBreakdown["Other"] != 100 {
		t.Errorf("blank category should land in Other: %v", a.CategoryBreakdown)
	}
}

func TestSixMonthSeries(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	ref := time.Date(2025, 2, 15, 0, 0, 0, 0, time.UTC)

	// One expense inside the window, one income in August 2024, just before it.
	inside := newTransaction(500, core.Expense, "Food", time.Date(2025, 2, 3, 0, 0, 0, 0, time.UTC))
	outside := newTransaction(900, core.Income, "Salary", time.Date(2024, 8, 3, 0, 0, 0, 0, time.UTC))
	for _, txn := range []core.Transaction{inside, outside} {
		if err := repo.CreateTransaction(ctx, txn); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	series, err := repo.SixMonthSeries(ctx, ref)
	if err != nil {
		t.Fatalf("series: %v", err)
	}
	if len(series) != 6 {
		t.Fatalf("expected 6 points, got %d", len(series))
	}
	if series[0].Month != "Sep" || series[0].Year != 2024 {
		t.Errorf("first point = %+v", series[0])
	}
	if series[5].Month != "Feb" || series[5].Year != 2025 {
		t.Errorf("last point = %+v", series[5])
	}
	if series[5].Expense != 500 {
		t.Errorf("February expense = %v", series[5].Expense)
	}
	if series[0].Income != 0 {
		t.Errorf("August 2024 income must not leak into September: %+v", series[0])
	}
}

func TestResetAll(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_ = repo.CreateCategory(ctx, newCategory("Food", core.KindExpense))
	_ = repo.CreateTransaction(ctx, newTransaction(10, core.Expense, "Food", time.Now().UTC()))
	_ = repo.CreateReminder(ctx, core.Reminder{
		ID: uuid.NewString(), Title: "x", Date: time.Now().UTC(), Time: "09:00", CreatedAt: time.Now().UTC(),
	})

	if err := repo.ResetAll(ctx); err != nil {
		t.Fatalf("reset: %v", err)
	}

	cats, _ := repo.ListCategories(ctx)
	txns, _ := repo.ListTransactions(ctx, TransactionQuery{})
	rems, _ := repo.ListReminders(ctx)
	if len(cats) != 0 || len(txns) != 0 || len(rems) != 0 {
		t.Errorf("reset left data behind: %d/%d/%d", len(cats), len(txns), len(rems))
	}
}

func TestSyncState(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	first := newTransaction(10, core.Expense, "Food", time.Now().UTC())
	first.CreatedAt = time.Now().UTC().Add(-time.Minute)
	second := newTransaction(20, core.Expense, "Food", time.Now().UTC())
	if err := repo.CreateTransaction(ctx, first); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := repo.CreateTransaction(ctx, second); err != nil {
		t.Fatalf("create: %v", err)
	}

	pending, err := repo.PendingSyncTransactions(ctx, 10)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("pending = %d, want 2", len(pending))
	}
	if pending[0].ID != first.ID {
		t.Errorf("pending must be oldest first, got %s", pending[0].ID)
	}

	if err := repo.MarkSynced(ctx, first.ID); err != nil {
		t.Fatalf("mark synced: %v", err)
	}
	if err := repo.MarkSyncError(ctx, second.ID); err != nil {
		t.Fatalf("mark error: %v", err)
	}

	pending, err = repo.PendingSyncTransactions(ctx, 10)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("pending after marking = %d, want 0", len(pending))
	}

	if err := repo.MarkSynced(ctx, "missing"); err == nil {
		t.Error("expected not found for unknown id")
	}

	// Limit caps the batch.
	third := newTransaction(30, core.Expense, "Food", time.Now().UTC())
	fourth := newTransaction(40, core.Expense, "Food", time.Now().UTC())
	_ = repo.CreateTransaction(ctx, third)
	_ = repo.CreateTransaction(ctx, fourth)
	pending, _ = repo.PendingSyncTransactions(ctx, 1)
	if len(pending) != 1 {
		t.Errorf("limited pending = %d, want 1", len(pending))
	}
}
