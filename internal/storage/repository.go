// Package storage persists the finance data in SQLite and computes the
// monthly aggregates the API serves.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"kharcha/internal/core"

	_ "modernc.org/sqlite"
)

// ErrNotFound signals an unknown entity id.
var ErrNotFound = errors.New("entity not found")

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Times are stored as RFC 3339 UTC strings so that lexicographic comparison
// in SQL matches chronological order.

func encodeTime(t time.Time) string {
	return t.UTC().Truncate(time.Second).Format(time.RFC3339)
}

func decodeTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Categories

func (r *SQLiteRepository) ListCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, color, icon, kind, created_at FROM categories ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		var c core.Category
		var createdAt string
		if err := rows.Scan(&c.ID, &c.Name, &c.Color, &c.Icon, &c.Kind, &createdAt); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		c.CreatedAt = decodeTime(createdAt)
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) CreateCategory(ctx context.Context, c core.Category) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO categories (id, name, color, icon, kind, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		c.ID, c.Name, c.Color, c.Icon, c.Kind, encodeTime(c.CreatedAt))
	if err != nil {
		return fmt.Errorf("create category: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetCategory(ctx context.Context, id string) (core.Category, error) {
	var c core.Category
	var createdAt string
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, color, icon, kind, created_at FROM categories WHERE id = ?`, id).
		Scan(&c.ID, &c.Name, &c.Color, &c.Icon, &c.Kind, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, ErrNotFound
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("get category: %w", err)
	}
	c.CreatedAt = decodeTime(createdAt)
	return c, nil
}

func (r *SQLiteRepository) UpdateCategory(ctx context.Context, c core.Category) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE categories SET name = ?, color = ?, icon = ?, kind = ? WHERE id = ?`,
		c.Name, c.Color, c.Icon, c.Kind, c.ID)
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	return affectedOrNotFound(res)
}

func (r *SQLiteRepository) DeleteCategory(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return affectedOrNotFound(res)
}

// Transactions

// TransactionQuery narrows a listing; zero values mean no constraint.
type TransactionQuery struct {
	Type       core.TransactionType
	CategoryID string
	StartDate  time.Time
	EndDate    time.Time
}

func (r *SQLiteRepository) ListTransactions(ctx context.Context, q TransactionQuery) ([]core.Transaction, error) {
	query := `SELECT id, amount, category_id, category_name, type, date, note, is_recurring, created_at
		FROM transactions WHERE 1=1`
	var args []any
	if q.Type != "" {
		query += ` AND type = ?`
		args = append(args, string(q.Type))
	}
	if q.CategoryID != "" {
		query += ` AND category_id = ?`
		args = append(args, q.CategoryID)
	}
	if !q.StartDate.IsZero() {
		query += ` AND date >= ?`
		args = append(args, encodeTime(q.StartDate))
	}
	if !q.EndDate.IsZero() {
		query += ` AND date <= ?`
		args = append(args, encodeTime(q.EndDate))
	}
	query += ` ORDER BY date DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) CreateTransaction(ctx context.Context, t core.Transaction) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (id, amount, category_id, category_name, type, date, note, is_recurring, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Amount, t.CategoryID, t.CategoryName, string(t.Type),
		encodeTime(t.Date), t.Note, t.IsRecurring, encodeTime(t.CreatedAt))
	if err != nil {
		return fmt.Errorf("create transaction: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, id string) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, amount, category_id, category_name, type, date, note, is_recurring, created_at
		 FROM transactions WHERE id = ?`, id)
	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, err
	}
	return t, nil
}

func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, t core.Transaction) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET amount = ?, category_id = ?, category_name = ?, type = ?,
		 date = ?, note = ?, is_recurring = ? WHERE id = ?`,
		t.Amount, t.CategoryID, t.CategoryName, string(t.Type),
		encodeTime(t.Date), t.Note, t.IsRecurring, t.ID)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	return affectedOrNotFound(res)
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return affectedOrNotFound(res)
}

// Sync state

// PendingSyncTransactions returns up to limit transactions that have not yet
// been written to the spreadsheet, oldest first.
func (r *SQLiteRepository) PendingSyncTransactions(ctx context.Context, limit int) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, amount, category_id, category_name, type, date, note, is_recurring, created_at
		 FROM transactions WHERE sync_status = 'pending' ORDER BY created_at ASC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list pending transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) MarkSynced(ctx context.Context, id string) error {
	return r.setSyncStatus(ctx, id, "synced")
}

func (r *SQLiteRepository) MarkSyncError(ctx context.Context, id string) error {
	return r.setSyncStatus(ctx, id, "error")
}

func (r *SQLiteRepository) setSyncStatus(ctx context.Context, id, status string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET sync_status = ? WHERE id = ?`, status, id)
	if err != nil {
		return fmt.Errorf("set sync status: %w", err)
	}
	return affectedOrNotFound(res)
}

// Reminders

func (r *SQLiteRepository) ListReminders(ctx context.Context) ([]core.Reminder, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, title, message, date, time, is_recurring, is_enabled, created_at
		 FROM reminders ORDER BY date ASC`)
	if err != nil {
		return nil, fmt.Errorf("list reminders: %w", err)
	}
	defer rows.Close()

	var out []core.Reminder
	for rows.Next() {
		var rem core.Reminder
		var date, createdAt string
		if err := rows.Scan(&rem.ID, &rem.Title, &rem.Message, &date, &rem.Time,
			&rem.IsRecurring, &rem.IsEnabled, &createdAt); err != nil {
			return nil, fmt.Errorf("scan reminder: %w", err)
		}
		rem.Date = decodeTime(date)
		rem.CreatedAt = decodeTime(createdAt)
		out = append(out, rem)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) CreateReminder(ctx context.Context, rem core.Reminder) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO reminders (id, title, message, date, time, is_recurring, is_enabled, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rem.ID, rem.Title, rem.Message, encodeTime(rem.Date), rem.Time,
		rem.IsRecurring, rem.IsEnabled, encodeTime(rem.CreatedAt))
	if err != nil {
		return fmt.Errorf("create reminder: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetReminder(ctx context.Context, id string) (core.Reminder, error) {
	var rem core.Reminder
	var date, createdAt string
	err := r.db.QueryRowContext(ctx,
		`SELECT id, title, message, date, time, is_recurring, is_enabled, created_at
		 FROM reminders WHERE id = ?`, id).
		Scan(&rem.ID, &rem.Title, &rem.Message, &date, &rem.Time,
			&rem.IsRecurring, &rem.IsEnabled, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Reminder{}, ErrNotFound
	}
	if err != nil {
		return core.Reminder{}, fmt.Errorf("get reminder: %w", err)
	}
	rem.Date = decodeTime(date)
	rem.CreatedAt = decodeTime(createdAt)
	return rem, nil
}

func (r *SQLiteRepository) UpdateReminder(ctx context.Context, rem core.Reminder) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE reminders SET title = ?, message = ?, date = ?, time = ?,
		 is_recurring = ?, is_enabled = ? WHERE id = ?`,
		rem.Title, rem.Message, encodeTime(rem.Date), rem.Time,
		rem.IsRecurring, rem.IsEnabled, rem.ID)
	if err != nil {
		return fmt.Errorf("update reminder: %w", err)
	}
	return affectedOrNotFound(res)
}

func (r *SQLiteRepository) DeleteReminder(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM reminders WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete reminder: %w", err)
	}
	return affectedOrNotFound(res)
}

// Analytics

// MonthlyAnalytics aggregates one calendar month: income and expense totals,
// net balance, savings percentage rounded to one decimal, and the per
// category expense breakdown. Transactions with a blank category snapshot
// land under "Other".
func (r *SQLiteRepository) MonthlyAnalytics(ctx context.Context, year, month int) (core.MonthlyAnalytics, error) {
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)

	txns, err := r.ListTransactions(ctx, TransactionQuery{StartDate: start, EndDate: end.Add(-time.Second)})
	if err != nil {
		return core.MonthlyAnalytics{}, err
	}

	a := core.MonthlyAnalytics{
		Year:              year,
		Month:             month,
		CategoryBreakdown: map[string]float64{},
		TransactionCount:  len(txns),
	}
	for _, t := range txns {
		switch t.Type {
		case core.Income:
			a.TotalIncome += t.Amount
		case core.Expense:
			a.TotalExpense += t.Amount
			name := t.CategoryName
			if name == "" {
				name = "Other"
			}
			a.CategoryBreakdown[name] += t.Amount
		}
	}
	a.NetBalance = a.TotalIncome - a.TotalExpense
	if a.TotalIncome > 0 {
		a.SavingsPercentage = math.Round(a.NetBalance/a.TotalIncome*1000) / 10
	}
	return a, nil
}

// SixMonthSeries returns income/expense totals for the trailing six months
// ending at the reference time, oldest first.
func (r *SQLiteRepository) SixMonthSeries(ctx context.Context, ref time.Time) ([]core.SixMonthPoint, error) {
	out := make([]core.SixMonthPoint, 0, 6)
	for i := 5; i >= 0; i-- {
		year, month := ref.Year(), int(ref.Month())
		for j := 0; j < i; j++ {
			year, month = core.PreviousMonth(year, month)
		}
		a, err := r.MonthlyAnalytics(ctx, year, month)
		if err != nil {
			return nil, err
		}
		out = append(out, core.SixMonthPoint{
			Month:   core.MonthLabel(month),
			Year:    year,
			Income:  a.TotalIncome,
			Expense: a.TotalExpense,
		})
	}
	return out, nil
}

// Reset

func (r *SQLiteRepository) ResetAll(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin reset: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"transactions", "categories", "reminders"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
			return fmt.Errorf("reset %s: %w", table, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit reset: %w", err)
	}
	return nil
}

// helpers

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var t core.Transaction
	var typ, date, createdAt string
	if err := row.Scan(&t.ID, &t.Amount, &t.CategoryID, &t.CategoryName,
		&typ, &date, &t.Note, &t.IsRecurring, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Transaction{}, sql.ErrNoRows
		}
		return core.Transaction{}, fmt.Errorf("scan transaction: %w", err)
	}
	t.Type = core.TransactionType(typ)
	t.Date = decodeTime(date)
	t.CreatedAt = decodeTime(createdAt)
	return t, nil
}

func affectedOrNotFound(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
