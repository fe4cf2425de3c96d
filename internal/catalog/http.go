package catalog

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"ProductCatalog/pkg/kit"
)

const generatedMessage = "Products generated"

type Server struct {
	Store Store
	Log   *zap.Logger

	// GenerateCount is the batch size of POST /products/generate.
	GenerateCount int
	// GenerateGuard wraps the generate route, e.g. rate limit and admin auth.
	GenerateGuard []func(http.Handler) http.Handler
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 1*time.Second)
		defer cancel()

		if err := s.Store.Ping(ctx); err != nil {
			s.logger().Warn("readyz failed", zap.Error(err))
			kit.WriteError(w, r, http.StatusServiceUnavailable, "not ready", nil)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	r.Route("/products", func(pr chi.Router) {
		pr.Get("/", s.list)
		pr.Get("/search", s.search)
		pr.Get("/categories", s.categories)
		pr.Get("/brands", s.brands)
		pr.Get("/filters", s.filters)
		pr.Get("/suggestions", s.suggestions)
		pr.With(s.GenerateGuard...).Post("/generate", s.generate)
		pr.Get("/{id}", s.get)
	})

	return r
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	products, err := s.Store.List(r.Context())
	if err != nil {
		s.writeStoreError(w, r, "list products failed", err)
		return
	}
	kit.WriteJSON(w, http.StatusOK, products)
}

func (s *Server) search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")

	products, err := s.Store.Search(r.Context(), q)
	if err != nil {
		s.writeStoreError(w, r, "search products failed", err, zap.String("q", q))
		return
	}
	kit.WriteJSON(w, http.StatusOK, products)
}

func (s *Server) categories(w http.ResponseWriter, r *http.Request) {
	out, err := s.Store.Categories(r.Context())
	if err != nil {
		s.writeStoreError(w, r, "list categories failed", err)
		return
	}
	kit.WriteJSON(w, http.StatusOK, out)
}

func (s *Server) brands(w http.ResponseWriter, r *http.Request) {
	out, err := s.Store.Brands(r.Context())
	if err != nil {
		s.writeStoreError(w, r, "list brands failed", err)
		return
	}
	kit.WriteJSON(w, http.StatusOK, out)
}

func (s *Server) filters(w http.ResponseWriter, r *http.Request) {
	f, err := s.Store.Filters(r.Context())
	if err != nil {
		s.writeStoreError(w, r, "aggregate filters failed", err)
		return
	}
	kit.WriteJSON(w, http.StatusOK, f)
}

func (s *Server) suggestions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")

	out, err := s.Store.Suggestions(r.Context(), q)
	if err != nil {
		s.writeStoreError(w, r, "suggestions failed", err, zap.String("q", q))
		return
	}
	kit.WriteJSON(w, http.StatusOK, out)
}

func (s *Server) generate(w http.ResponseWriter, r *http.Request) {
	count := s.GenerateCount
	if count <= 0 {
		count = DefaultGenerateCount
	}

	res, err := s.Store.Generate(r.Context(), count)
	if err != nil {
		s.writeStoreError(w, r, "generate products failed", err, zap.String("run_id", res.RunID))
		return
	}

	w.Header().Set("X-Generate-Run-Id", res.RunID)
	kit.WriteText(w, http.StatusOK, generatedMessage)
}

func (s *Server) get(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		kit.WriteError(w, r, http.StatusBadRequest, "invalid id", map[string]any{"id": raw})
		return
	}

	p, ok, err := s.Store.Get(r.Context(), id)
	if err != nil {
		s.writeStoreError(w, r, "get product failed", err, zap.Int64("id", id))
		return
	}
	if !ok {
		kit.WriteError(w, r, http.StatusNotFound, "not found", map[string]any{"id": id})
		return
	}
	kit.WriteJSON(w, http.StatusOK, p)
}

func (s *Server) writeStoreError(w http.ResponseWriter, r *http.Request, msg string, err error, fields ...zap.Field) {
	s.logger().Error(msg, append(fields, zap.Error(err))...)

	switch {
	case errors.Is(err, ErrUnavailable):
		kit.WriteError(w, r, http.StatusServiceUnavailable, "store unavailable", nil)
	case errors.Is(err, context.DeadlineExceeded):
		kit.WriteError(w, r, http.StatusGatewayTimeout, "timeout", nil)
	default:
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
	}
}

func (s *Server) logger() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}
