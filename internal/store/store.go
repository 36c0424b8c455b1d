// Package store holds the client-side domain state: categories,
// transactions, reminders, and analytics snapshots, together with the
// operations that mutate them through the remote service.
//
// Every operation follows the same shape: mark loading and clear the last
// error, perform exactly one remote call, then either apply the success
// effect or capture the failure message. The loading flag is cleared exactly
// once on both paths. Nothing is retried and nothing is cached; a reload
// always re-fetches from the service.
package store

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"kharcha/internal/api"
	"kharcha/internal/config"
	"kharcha/internal/core"
	"kharcha/internal/log"
	"kharcha/internal/prefs"
)

// TypeFilter selects transactions by type in derived views.
type TypeFilter string

const (
	FilterAll     TypeFilter = "all"
	FilterExpense TypeFilter = "expense"
	FilterIncome  TypeFilter = "income"
)

// Store is the single state container for one application session. It is
// initialized empty and lives for the process lifetime; there is no
// teardown. All exported methods are safe for concurrent use, but the store
// does not serialize operations on the same entity: when two calls race,
// whichever response lands last wins.
type Store struct {
	client   *api.Client
	notifier Notifier
	prefs    *prefs.Store
	logger   *log.Logger
	now      func() time.Time

	mu           sync.Mutex
	categories   []core.Category
	transactions []core.Transaction
	reminders    []core.Reminder
	analytics    *core.MonthlyAnalytics
	sixMonths    []core.SixMonthPoint
	loading      bool
	lastError    string
}

// Option customizes a Store at construction.
type Option func(*Store)

// WithNotifier installs the reminder notification dispatcher.
func WithNotifier(n Notifier) Option {
	return func(s *Store) { s.notifier = n }
}

// WithLogger replaces the default logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithPreferences installs the on-device preference store backing the
// theme accessors.
func WithPreferences(p *prefs.Store) Option {
	return func(s *Store) { s.prefs = p }
}

// WithClock replaces the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func New(client *api.Client, opts ...Option) *Store {
	s := &Store{
		client: client,
		logger: log.New(log.DefaultConfig()).WithComponent(log.ComponentStore),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FromConfig builds a Store wired to the configured service endpoint and
// preference directory. Extra options are applied on top.
func FromConfig(cfg *config.Config, opts ...Option) *Store {
	base := []Option{WithPreferences(prefs.New(cfg.PrefsDir))}
	return New(api.NewClient(cfg.APIBaseURL), append(base, opts...)...)
}

// begin marks the store loading and clears the previous error.
func (s *Store) begin() {
	s.mu.Lock()
	s.loading = true
	s.lastError = ""
	s.mu.Unlock()
}

// finish clears the loading flag and records the outcome. It is the single
// exit point of every operation so loading can never stay stuck after a
// completed call.
func (s *Store) finish(op string, err error) {
	s.mu.Lock()
	s.loading = false
	if err != nil {
		s.lastError = err.Error()
	}
	s.mu.Unlock()
	if err != nil {
		s.logger.Error("operation failed", log.FieldOperation, op, log.FieldError, err.Error())
	}
}

// Categories

func (s *Store) FetchCategories(ctx context.Context) error {
	s.begin()
	cats, err := s.client.Categories(ctx)
	if err == nil {
		s.mu.Lock()
		s.categories = cats
		s.mu.Unlock()
	}
	s.finish(log.OpList, err)
	return err
}

func (s *Store) CreateCategory(ctx context.Context, req api.CategoryCreate) (core.Category, error) {
	// Validation failures are rejected before any remote call and never
	// recorded as the store's last error.
	probe := core.Category{Name: req.Name, Kind: req.Kind}
	if err := probe.Validate(); err != nil {
		return core.Category{}, err
	}

	s.begin()
	cat, err := s.client.CreateCategory(ctx, req)
	if err == nil {
		s.mu.Lock()
		s.categories = append(s.categories, cat)
		s.mu.Unlock()
	}
	s.finish(log.OpCreate, err)
	return cat, err
}

func (s *Store) UpdateCategory(ctx context.Context, id string, req api.CategoryUpdate) (core.Category, error) {
	s.begin()
	cat, err := s.client.UpdateCategory(ctx, id, req)
	if err == nil {
		s.mu.Lock()
		for i := range s.categories {
			if s.categories[i].ID == id {
				s.categories[i] = cat
				break
			}
		}
		s.mu.Unlock()
	}
	s.finish(log.OpUpdate, err)
	return cat, err
}

func (s *Store) DeleteCategory(ctx context.Context, id string) error {
	s.begin()
	err := s.client.DeleteCategory(ctx, id)
	if err == nil {
		s.mu.Lock()
		s.categories = removeByID(s.categories, id, func(c core.Category) string { return c.ID })
		s.mu.Unlock()
	}
	s.finish(log.OpDelete, err)
	return err
}

// Transactions

func (s *Store) FetchTransactions(ctx context.Context, filter api.TransactionFilter) error {
	s.begin()
	txns, err := s.client.Transactions(ctx, filter)
	if err == nil {
		s.mu.Lock()
		s.transactions = txns
		s.mu.Unlock()
	}
	s.finish(log.OpList, err)
	return err
}

func (s *Store) CreateTransaction(ctx context.Context, req api.TransactionCreate) (core.Transaction, error) {
	probe := core.Transaction{
		Amount:     req.Amount,
		CategoryID: req.CategoryID,
		Type:       req.Type,
		Date:       req.Date,
	}
	if err := probe.Validate(); err != nil {
		return core.Transaction{}, err
	}

	s.begin()
	txn, err := s.client.CreateTransaction(ctx, req)
	if err == nil {
		s.mu.Lock()
		// Newest first: the created entity leads the collection until the
		// next full fetch replaces it.
		s.transactions = append([]core.Transaction{txn}, s.transactions...)
		s.mu.Unlock()
	}
	s.finish(log.OpCreate, err)
	return txn, err
}

func (s *Store) UpdateTransaction(ctx context.Context, id string, req api.TransactionUpdate) (core.Transaction, error) {
	s.begin()
	txn, err := s.client.UpdateTransaction(ctx, id, req)
	if err == nil {
		s.mu.Lock()
		for i := range s.transactions {
			if s.transactions[i].ID == id {
				s.transactions[i] = txn
				break
			}
		}
		s.mu.Unlock()
	}
	s.finish(log.OpUpdate, err)
	return txn, err
}

func (s *Store) DeleteTransaction(ctx context.Context, id string) error {
	s.begin()
	err := s.client.DeleteTransaction(ctx, id)
	if err == nil {
		s.mu.Lock()
		s.transactions = removeByID(s.transactions, id, func(t core.Transaction) string { return t.ID })
		s.mu.Unlock()
	}
	s.finish(log.OpDelete, err)
	return err
}

// Reminders

func (s *Store) FetchReminders(ctx context.Context) error {
	s.begin()
	rems, err := s.client.Reminders(ctx)
	if err == nil {
		s.mu.Lock()
		s.reminders = rems
		s.mu.Unlock()
	}
	s.finish(log.OpList, err)
	return err
}

func (s *Store) CreateReminder(ctx context.Context, req api.ReminderCreate) (core.Reminder, error) {
	probe := core.Reminder{Title: req.Title, Date: req.Date, Time: req.Time}
	if err := probe.Validate(); err != nil {
		return core.Reminder{}, err
	}
	if err := probe.ValidateDate(s.now()); err != nil {
		return core.Reminder{}, err
	}

	s.begin()
	rem, err := s.client.CreateReminder(ctx, req)
	if err == nil {
		s.mu.Lock()
		s.reminders = append(s.reminders, rem)
		s.mu.Unlock()
		s.dispatchNotification(ctx, rem)
	}
	s.finish(log.OpCreate, err)
	return rem, err
}

func (s *Store) UpdateReminder(ctx context.Context, id string, req api.ReminderUpdate) (core.Reminder, error) {
	s.begin()
	rem, err := s.client.UpdateReminder(ctx, id, req)
	if err == nil {
		s.mu.Lock()
		for i := range s.reminders {
			if s.reminders[i].ID == id {
				s.reminders[i] = rem
				break
			}
		}
		s.mu.Unlock()
		s.dispatchNotification(ctx, rem)
	}
	s.finish(log.OpUpdate, err)
	return rem, err
}

func (s *Store) DeleteReminder(ctx context.Context, id string) error {
	s.begin()
	err := s.client.DeleteReminder(ctx, id)
	if err == nil {
		s.mu.Lock()
		s.reminders = removeByID(s.reminders, id, func(r core.Reminder) string { return r.ID })
		s.mu.Unlock()
	}
	s.finish(log.OpDelete, err)
	return err
}

// Analytics

func (s *Store) FetchMonthlyAnalytics(ctx context.Context, year, month int) error {
	s.begin()
	a, err := s.client.MonthlyAnalytics(ctx, year, month)
	if err == nil {
		s.mu.Lock()
		s.analytics = &a
		s.mu.Unlock()
	}
	s.finish(log.OpRead, err)
	return err
}

func (s *Store) FetchLastSixMonths(ctx context.Context) error {
	s.begin()
	points, err := s.client.LastSixMonths(ctx)
	if err == nil {
		s.mu.Lock()
		s.sixMonths = points
		s.mu.Unlock()
	}
	s.finish(log.OpRead, err)
	return err
}

// LoadDashboard issues the screen-load fetches in parallel. Each fetch
// writes only its own collection, so completion order does not matter; the
// first failure is what lands in the error field.
func (s *Store) LoadDashboard(ctx context.Context, year, month int) error {
	s.begin()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		txns, err := s.client.Transactions(gctx, api.TransactionFilter{})
		if err != nil {
			return err
		}
		s.mu.Lock()
		s.transactions = txns
		s.mu.Unlock()
		return nil
	})
	g.Go(func() error {
		cats, err := s.client.Categories(gctx)
		if err != nil {
			return err
		}
		s.mu.Lock()
		s.categories = cats
		s.mu.Unlock()
		return nil
	})
	g.Go(func() error {
		a, err := s.client.MonthlyAnalytics(gctx, year, month)
		if err != nil {
			return err
		}
		s.mu.Lock()
		s.analytics = &a
		s.mu.Unlock()
		return nil
	})
	g.Go(func() error {
		points, err := s.client.LastSixMonths(gctx)
		if err != nil {
			return err
		}
		s.mu.Lock()
		s.sixMonths = points
		s.mu.Unlock()
		return nil
	})

	err := g.Wait()
	s.finish(log.OpList, err)
	return err
}

// Export and reset

// ExportCSV fetches the CSV artifact and hands it to the caller without
// touching any collection.
func (s *Store) ExportCSV(ctx context.Context, startDate, endDate time.Time) (api.ExportResult, error) {
	s.begin()
	res, err := s.client.ExportCSV(ctx, startDate, endDate)
	s.finish(log.OpExport, err)
	return res, err
}

func (s *Store) ResetAllData(ctx context.Context) error {
	s.begin()
	err := s.client.ResetAll(ctx)
	if err == nil {
		s.mu.Lock()
		s.categories = nil
		s.transactions = nil
		s.reminders = nil
		s.analytics = nil
		s.sixMonths = nil
		s.mu.Unlock()
	}
	s.finish(log.OpReset, err)
	return err
}

// dispatchNotification schedules the one-shot reminder notification.
// Failures are logged and never surfaced: the reminder itself is already
// saved. Disabling a reminder later does not cancel a dispatched
// notification.
func (s *Store) dispatchNotification(ctx context.Context, rem core.Reminder) {
	if s.notifier == nil {
		return
	}
	fireAt, ok := rem.FireAt(s.now())
	if !ok {
		return
	}
	if err := s.notifier.ReminderDue(ctx, rem, fireAt); err != nil {
		s.logger.WarnContext(ctx, "reminder notification dispatch failed",
			log.FieldReminder, rem.Title,
			log.FieldFireAt, fireAt,
			log.FieldError, err.Error())
	}
}

func removeByID[T any](items []T, id string, idOf func(T) string) []T {
	out := items[:0]
	for _, item := range items {
		if idOf(item) != id {
			out = append(out, item)
		}
	}
	return out
}
