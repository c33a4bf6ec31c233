// Package server exposes the catalog and the report compiler over HTTP.
//
// Routes:
//
//	GET  /tables                  base tables
//	GET  /attributes/{tableName}  columns of a table
//	GET  /all-related-tables      foreign keys
//	POST /query-report            compile and execute
//	POST /query-to-view           compile only, preview text
//	POST /query-parts             compile only, clause bodies and dropped parts
//	POST /cache/invalidate        empty catalog caches
//	GET  /healthz
//	GET  /metrics
//
// Every failure answers 500 with {"error", "details"}.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/pthm/sqlreport/internal/catalog"
	"github.com/pthm/sqlreport/internal/compiler"
	"github.com/pthm/sqlreport/internal/executor"
	"github.com/pthm/sqlreport/internal/metrics"
)

// Catalog serves schema metadata. *catalog.Catalog implements it.
type Catalog interface {
	Tables(ctx context.Context) ([]catalog.Table, error)
	Attributes(ctx context.Context, table string) ([]catalog.Attribute, error)
	Relations(ctx context.Context) ([]catalog.Relation, error)
	ColumnTypes(ctx context.Context, tables []string) (map[string]string, error)
	Invalidate()
}

// Runner executes compiled plans. *executor.Executor implements it.
type Runner interface {
	Run(ctx context.Context, plan *compiler.Plan) ([]executor.Row, error)
}

// DefaultMaxBodyBytes caps request bodies.
const DefaultMaxBodyBytes = 1 << 20

// ShutdownTimeout bounds graceful shutdown.
const ShutdownTimeout = 10 * time.Second

// Server handles report HTTP requests.
type Server struct {
	compiler     *compiler.Compiler
	catalog      Catalog
	runner       Runner
	metrics      *metrics.Metrics
	logger       *slog.Logger
	corsOrigin   string
	lint         bool
	maxBodyBytes int64
}

// Option configures a Server.
type Option func(*Server)

// WithCatalog enables the catalog routes and catalog column types for
// compilation.
func WithCatalog(c Catalog) Option {
	return func(s *Server) {
		s.catalog = c
	}
}

// WithRunner enables /query-report.
func WithRunner(r Runner) Option {
	return func(s *Server) {
		s.runner = r
	}
}

// WithMetrics enables request metrics and the /metrics route.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithLogger sets the server logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// WithCORSOrigin sets Access-Control-Allow-Origin. The default is "*".
func WithCORSOrigin(origin string) Option {
	return func(s *Server) {
		s.corsOrigin = origin
	}
}

// WithLint parses every compiled statement before it is returned or run.
func WithLint(enabled bool) Option {
	return func(s *Server) {
		s.lint = enabled
	}
}

// WithMaxBodyBytes caps request body size.
func WithMaxBodyBytes(n int64) Option {
	return func(s *Server) {
		s.maxBodyBytes = n
	}
}

// New creates a Server around c.
func New(c *compiler.Compiler, opts ...Option) *Server {
	s := &Server{
		compiler:     c,
		logger:       slog.Default(),
		corsOrigin:   "*",
		maxBodyBytes: DefaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the routed handler wrapped in CORS and request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /tables", s.handleTables)
	mux.HandleFunc("GET /attributes/{tableName}", s.handleAttributes)
	mux.HandleFunc("GET /all-related-tables", s.handleRelatedTables)
	mux.HandleFunc("POST /query-report", s.handleQueryReport)
	mux.HandleFunc("POST /query-to-view", s.handleQueryToView)
	mux.HandleFunc("POST /query-parts", s.handleQueryParts)
	mux.HandleFunc("POST /cache/invalidate", s.handleInvalidate)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics.Handler())
	}
	return s.logRequests(s.cors(mux))
}

// Run serves on addr until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "addr", ln.Addr().String())
		errc <- srv.Serve(ln)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
