package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"

	"github.com/rookguy/healthbot/internal/chat"
	"github.com/rookguy/healthbot/internal/plan"
	"github.com/rookguy/healthbot/internal/storage"
)

const maxRequestBodySize = 1 << 20 // 1MB

// Deps holds everything the HTTP layer talks to.
type Deps struct {
	Engine    *plan.Engine
	Responder *chat.Responder
	Journal   *storage.Store // optional; nil disables journaling and the journal routes
	Token     string         // bearer token for management routes; empty leaves them open
	RateLimit rate.Limit     // chat requests per second per client; <= 0 disables limiting
	RateBurst int

	// AllowedOrigins enables CORS for the listed origins; empty disables it.
	AllowedOrigins []string
}

// NewRouter returns the full HTTP handler: the public chat page and
// endpoint, metrics, and the management routes.
func NewRouter(deps Deps) http.Handler {
	m := newMetrics()

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(m))
	if len(deps.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   deps.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}

	r.Get("/", handleIndex)
	r.Get("/health", handleHealth)
	r.Method("GET", "/metrics", m.handler())

	limiter := newClientLimiter(deps.RateLimit, deps.RateBurst)
	limiter.onReject = m.rateLimited.Inc
	r.With(limiter.Middleware).Post("/chat", handleChat(deps, m))

	r.Group(func(r chi.Router) {
		r.Use(BearerAuth(deps.Token))

		r.Get("/profile", handleGetProfile(deps))
		r.Post("/intake", handleIntake(deps))
		r.Post("/checkin", handleCheckIn(deps))
		r.Post("/plan", handleRegeneratePlan(deps))

		if deps.Journal != nil {
			r.Get("/interactions", handleListInteractions(deps))
			r.Get("/interactions/{id}", handleGetInteraction(deps))
			r.Get("/strategies", handleListStrategies(deps))
			r.Post("/research", handleQueueResearch(deps))
		}
	})

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func requestLogger(m *metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			elapsed := time.Since(start)

			var route string
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				route = rctx.RoutePattern()
			}
			m.observeRequest(r.Method, route, ww.Status(), elapsed.Seconds())
			slog.Debug("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration_ms", elapsed.Milliseconds(),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("writing response failed", "error", err)
	}
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	writeJSON(w, code, map[string]any{
		"error": map[string]any{
			"message": fmt.Sprintf(format, args...),
			"type":    errType,
		},
	})
}

func parseIntParam(r *http.Request, key string, defaultVal, maxVal int) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return defaultVal
	}
	if maxVal > 0 && v > maxVal {
		return maxVal
	}
	return v
}
