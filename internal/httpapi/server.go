package httpapi

import (
	"context"
	"net/http"
	"sync"
	"time"

	"kharcha/internal/amqp"
	"kharcha/internal/cache"
	"kharcha/internal/core"
	"kharcha/internal/log"
	"kharcha/internal/storage"
)

// EventPublisher is the outbound queue surface the server needs. A nil
// publisher disables the side channel; handlers must tolerate that.
type EventPublisher interface {
	PublishTransactionSync(ctx context.Context, id string) error
	PublishTransactionDelete(ctx context.Context, msg *amqp.TransactionDeleteMessage) error
	PublishReminderDue(ctx context.Context, msg *amqp.ReminderDueMessage) error
}

var _ EventPublisher = (*amqp.Client)(nil)

// Server is the reference JSON API over SQLite.
type Server struct {
	http.Server

	repo      *storage.SQLiteRepository
	publisher EventPublisher
	logger    *log.Logger
	now       func() time.Time

	// Analytics responses are cached per month and dropped wholesale on
	// any transaction mutation.
	monthlyCache   *cache.LRU[core.MonthlyAnalytics]
	sixMonthsCache *cache.LRU[[]core.SixMonthPoint]

	shutdownOnce sync.Once
}

type Option func(*Server)

// WithPublisher wires the AMQP side channel for sheet sync and reminder
// notifications.
func WithPublisher(p EventPublisher) Option {
	return func(s *Server) { s.publisher = p }
}

func WithLogger(logger *log.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// WithClock overrides the time source, used in tests.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// NewServer configures routes and caches, returning a ready-to-run server.
func NewServer(addr string, repo *storage.SQLiteRepository, opts ...Option) *Server {
	s := &Server{
		repo:           repo,
		now:            time.Now,
		logger:         log.New(log.Config{Component: log.ComponentHTTP}),
		monthlyCache:   cache.NewLRU[core.MonthlyAnalytics](100, 5*time.Minute),
		sixMonthsCache: cache.NewLRU[[]core.SixMonthPoint](10, 5*time.Minute),
	}
	for _, opt := range opts {
		opt(s)
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /api/{$}", handleRoot)

	mux.HandleFunc("GET /api/categories", s.handleListCategories)
	mux.HandleFunc("POST /api/categories", s.handleCreateCategory)
	mux.HandleFunc("PUT /api/categories/{id}", s.handleUpdateCategory)
	mux.HandleFunc("DELETE /api/categories/{id}", s.handleDeleteCategory)

	mux.HandleFunc("GET /api/transactions", s.handleListTransactions)
	mux.HandleFunc("POST /api/transactions", s.handleCreateTransaction)
	mux.HandleFunc("PUT /api/transactions/{id}", s.handleUpdateTransaction)
	mux.HandleFunc("DELETE /api/transactions/{id}", s.handleDeleteTransaction)

	mux.HandleFunc("GET /api/reminders", s.handleListReminders)
	mux.HandleFunc("POST /api/reminders", s.handleCreateReminder)
	mux.HandleFunc("PUT /api/reminders/{id}", s.handleUpdateReminder)
	mux.HandleFunc("DELETE /api/reminders/{id}", s.handleDeleteReminder)

	mux.HandleFunc("GET /api/analytics/monthly", s.handleMonthlyAnalytics)
	mux.HandleFunc("GET /api/analytics/last-six-months", s.handleLastSixMonths)

	mux.HandleFunc("GET /api/export/csv", s.handleExportCSV)
	mux.HandleFunc("DELETE /api/reset-all", s.handleResetAll)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           log.RequestLogger(s.logger)(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.monthlyCache.StartCleanup(10 * time.Minute)
	s.sixMonthsCache.StartCleanup(10 * time.Minute)

	return s
}

// HTTPHandler exposes the routed handler, mainly for tests.
func (s *Server) HTTPHandler() http.Handler {
	return s.Server.Handler
}

// Shutdown stops the cache janitors and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.monthlyCache.Stop()
		s.sixMonthsCache.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

func (s *Server) invalidateAnalytics() {
	s.monthlyCache.Purge()
	s.sixMonthsCache.Purge()
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"name":    "kharcha",
		"version": "1.0.0",
	})
}
