package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/mentis-app/mentis/pkg/usecase"
	"github.com/mentis-app/mentis/pkg/utils/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Server struct {
	router   *chi.Mux
	uc       *usecase.UseCases
	validate *validator.Validate
	gatherer prometheus.Gatherer
}

type Options func(*Server)

// WithGatherer sets the registry exposed on /metrics. The default registry is used otherwise.
func WithGatherer(g prometheus.Gatherer) Options {
	return func(s *Server) {
		s.gatherer = g
	}
}

func New(uc *usecase.UseCases, opts ...Options) *Server {
	r := chi.NewRouter()

	s := &Server{
		router:   r,
		uc:       uc,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		gatherer: prometheus.DefaultGatherer,
	}
	for _, opt := range opts {
		opt(s)
	}

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(accessLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", healthHandler)
	r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	r.Route("/api/workspaces", func(r chi.Router) {
		r.Get("/", s.listWorkspaces)

		r.Route("/{workspaceID}", func(r chi.Router) {
			r.Get("/profile", s.getProfile)
			r.Post("/evaluate", s.evaluate)

			r.Route("/assessments", func(r chi.Router) {
				r.Get("/", s.listAssessments)
				r.Post("/", s.createAssessment)

				r.Route("/{assessmentID}", func(r chi.Router) {
					r.Get("/", s.getAssessment)
					r.Delete("/", s.deleteAssessment)
					r.Put("/snapshot", s.applySnapshot)
					r.Put("/ratings", s.setItemRating)
					r.Put("/expert-band", s.setExpertBand)
					r.Post("/finalize", s.finalizeAssessment)
					r.Post("/reopen", s.reopenAssessment)
				})
			})
		})
	})

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// accessLogger is a middleware that logs HTTP requests
func accessLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		logger := logging.Default().With("request_id", middleware.GetReqID(r.Context()))
		r = r.WithContext(logging.With(r.Context(), logger))

		defer func() {
			logger.Info("access",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"remote", r.RemoteAddr,
				"user_agent", r.UserAgent(),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}
