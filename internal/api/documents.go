package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/kalambet/amabrowser/internal/render"
	"github.com/kalambet/amabrowser/internal/storage"
)

const maxIDLength = 128

// Documents is the document collection served by the API.
type Documents interface {
	Get(id string) (storage.Record, error)
	Latest() (storage.Record, error)
	First() (storage.Record, error)
	Previous(id string) (storage.Record, error)
	Next(id string) (storage.Record, error)
	Delete(id string) error
}

type Deps struct {
	Store Documents
	// Token enables bearer authentication on /api routes when non-empty.
	Token       string
	CORSOrigins []string
	Renderer    *render.Renderer
	Logger      *slog.Logger
}

// NewHandler returns the HTTP handler serving the document API, the HTML viewer and /health.
func NewHandler(deps Deps) http.Handler {
	if deps.Renderer == nil {
		deps.Renderer = render.New()
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(deps.Logger))
	r.Use(middleware.Recoverer)

	origins := deps.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:*", "http://127.0.0.1:*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", handleHealth)

	r.Route("/api", func(r chi.Router) {
		if deps.Token != "" {
			r.Use(BearerAuth(deps.Token, deps.Logger))
		}
		r.Get("/latest", handleLatest(deps))
		r.Get("/previous/{id}", handlePrevious(deps))
		r.Get("/next/{id}", handleNext(deps))
		r.Delete("/delete/{id}", handleDelete(deps))
	})

	r.Get("/", handleIndex(deps))
	r.Get("/view/{id}", handleView(deps))

	return r
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func handleLatest(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec, err := deps.Store.Latest()
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "no documents found")
			return
		}
		if err != nil {
			deps.Logger.Error("loading latest document", "error", err)
			httpError(w, http.StatusInternalServerError, "api_error", "failed to load latest document: %v", err)
			return
		}
		writeRecord(w, rec)
	}
}

func handlePrevious(deps Deps) http.HandlerFunc {
	return handleNeighbour(deps, "previous", deps.Store.Previous)
}

func handleNext(deps Deps) http.HandlerFunc {
	return handleNeighbour(deps, "next", deps.Store.Next)
}

func handleNeighbour(deps Deps, direction string, lookup func(string) (storage.Record, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := documentID(w, r)
		if !ok {
			return
		}
		rec, err := lookup(id)
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "no %s document", direction)
			return
		}
		if err != nil {
			deps.Logger.Error("loading document", "direction", direction, "id", id, "error", err)
			httpError(w, http.StatusInternalServerError, "api_error", "failed to load %s document: %v", direction, err)
			return
		}
		writeRecord(w, rec)
	}
}

func handleDelete(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := documentID(w, r)
		if !ok {
			return
		}
		err := deps.Store.Delete(id)
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "document not found")
			return
		}
		if err != nil {
			deps.Logger.Error("deleting document", "id", id, "error", err)
			httpError(w, http.StatusInternalServerError, "api_error", "failed to delete document: %v", err)
			return
		}
		deps.Logger.Info("document deleted", "id", id)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"message": "document deleted",
		})
	}
}

// documentID validates the {id} URL parameter, writing a 400 response when it is unusable.
func documentID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "id")
	if id == "" || len(id) > maxIDLength {
		httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid document id")
		return "", false
	}
	return id, true
}

func writeRecord(w http.ResponseWriter, rec storage.Record) {
	w.Header().Set("Content-Type", "application/json")
	w.Write(rec.Body)
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	msg := fmt.Sprintf(format, args...)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    errType,
		},
	})
}
