package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"
	"github.com/shopspring/decimal"

	"spesevoce/internal/core"
	"spesevoce/internal/log"
	"spesevoce/internal/middleware/ratelimit"
	"spesevoce/internal/middleware/security"
)

// Pipeline turns a transcript into a stored record.
type Pipeline interface {
	ProcessTranscript(ctx context.Context, text string) (core.Record, error)
}

// RecordStore is the read and delete side of the local records.
type RecordStore interface {
	Records() []core.Record
	Remove(ctx context.Context, id string) bool
	Clear(ctx context.Context)
	TotalByCategory(category string) decimal.Decimal
	TotalByCategoryAndDate(category, date string) decimal.Decimal
	Categories() []string
	GroupByCategoryThenDate() []core.CategoryGroup
}

// Syncer runs the explicit bulk transfers.
type Syncer interface {
	Upload(ctx context.Context) (int, error)
	Download(ctx context.Context) (int, error)
}

// Deps are the collaborators the handlers use.
type Deps struct {
	Pipeline Pipeline
	Records  RecordStore
	Sync     Syncer
	Taxonomy core.Taxonomy
	Logger   *log.Logger
	// RateLimit bounds POST requests per client; zero values use defaults.
	RateLimit ratelimit.Config
}

type Server struct {
	http.Server
	deps    Deps
	logger  *log.Logger
	limiter *ratelimit.Limiter
	ips     *security.ClientIP

	shutdownOnce sync.Once
}

// NewServer configures routes, returning a ready-to-run http.Server.
func NewServer(addr string, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	s := &Server{
		deps:    deps,
		logger:  logger.WithComponent(log.ComponentHTTP),
		limiter: ratelimit.NewLimiter(deps.RateLimit),
		ips:     security.NewClientIP(),
	}

	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(log.Middleware(s.logger))
	r.Use(log.RequestIDMiddleware(func(r *http.Request) string {
		return chiMiddleware.GetReqID(r.Context())
	}))
	r.Use(log.AccessMiddleware)
	r.Use(chiMiddleware.Recoverer)
	r.Use(security.NewHeadersMiddleware(security.APIHeadersConfig()).Middleware)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		NotFoundError("not found").Write(w)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		ErrorResponse(http.StatusMethodNotAllowed, "method not allowed").Write(w)
	})

	r.Get("/healthz", handleHealth)

	limited := s.limiter.Middleware(s.ips.Extract, func(w http.ResponseWriter, r *http.Request) {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
			log.FieldClientIP, s.ips.Extract(r),
			log.FieldPath, r.URL.Path)
		ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded, try again later").Write(w)
	})

	r.Route("/api", func(r chi.Router) {
		r.With(limited).Post("/transcripts", s.handleTranscript)

		r.Route("/expenses", func(r chi.Router) {
			r.Get("/", s.handleListExpenses)
			r.Delete("/", s.handleClearExpenses)
			r.Get("/grouped", s.handleGroupedExpenses)
			r.Delete("/{id}", s.handleDeleteExpense)
		})

		r.Get("/totals", s.handleTotals)
		r.Get("/categories", s.handleCategories)
		r.Get("/taxonomy", s.handleTaxonomy)

		r.Route("/sync", func(r chi.Router) {
			r.Use(limited)
			r.Post("/upload", s.handleUpload)
			r.Post("/download", s.handleDownload)
		})
	})

	s.Server = http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		// Transcripts wait for the classifier; bulk sync may take longer.
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  2 * time.Minute,
	}
	return s
}

// Shutdown gracefully shuts down the server and its background cleanup.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Body(map[string]string{"status": "ok"}).Write(w)
}
