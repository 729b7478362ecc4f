// Package api exposes the generation pipeline and job history over HTTP.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/openclaw/qrcodemaker/generate"
	"github.com/openclaw/qrcodemaker/qr"
	"github.com/openclaw/qrcodemaker/store"
)

// Defaults are applied to requests that omit format, size or header.
type Defaults struct {
	Format qr.Format
	Size   int
	Header string
}

// Server holds the dependencies for all HTTP handlers.
type Server struct {
	Generator *generate.Generator
	Store     *store.JobStore // nil when history is disabled
	OutputDir string
	Defaults  Defaults
	Language  string
	Log       *slog.Logger
	Version   string
	StartTime time.Time
}

// NewRouter returns a fully configured chi router with all API routes.
func NewRouter(s *Server) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(corsMiddleware)
	r.Use(requestLogger(s.Log))

	r.Get("/status", s.handleStatus)

	// Generation
	r.Get("/qr", s.handleQR)
	r.Post("/archive", s.handleArchive)

	// History
	r.Get("/history", s.handleGetJobs)
	r.Get("/history/{id}", s.handleGetJob)

	return r
}

// --- helpers ----------------------------------------------------------------

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func queryInt(r *http.Request, key string, defaultVal int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return defaultVal
	}
	return n
}

// httpStatus maps a pipeline outcome to a response status.
func httpStatus(code generate.Code) int {
	switch code {
	case generate.OK, generate.PartialFailure:
		return http.StatusOK
	case generate.TextTooLong:
		return http.StatusRequestEntityTooLarge
	case generate.EncodingError:
		return http.StatusUnprocessableEntity
	case generate.FileNotFound:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// parseImageParams reads format and size from form or query values, falling
// back to the server defaults.
func (s *Server) parseImageParams(formatValue, sizeValue string) (qr.Format, int, error) {
	format := s.Defaults.Format
	if formatValue != "" {
		f, err := qr.ParseFormat(formatValue)
		if err != nil {
			return "", 0, err
		}
		format = f
	}

	size := s.Defaults.Size
	if sizeValue != "" {
		n, err := strconv.Atoi(sizeValue)
		if err != nil {
			return "", 0, err
		}
		size = n
	}
	if err := qr.ValidateSize(size); err != nil {
		return "", 0, err
	}
	return format, size, nil
}

// --- middleware --------------------------------------------------------------

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func requestLogger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log.Debug("http request", "method", r.Method, "path", r.URL.Path, "remote", r.RemoteAddr)
			next.ServeHTTP(w, r)
		})
	}
}
