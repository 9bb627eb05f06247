package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/ignite/loyalty-crm/internal/pkg/logger"
)

// requestTimeout bounds each request, AI retries included.
const requestTimeout = 60 * time.Second

// SetupRoutes builds the router for the loyalty API.
func SetupRoutes(h *Handlers, hc *HealthChecker, allowedOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", hc.HandleHealth)
	r.Get("/health/ready", hc.HandleReadiness)

	r.Route("/api", func(r chi.Router) {
		r.Route("/customers", func(r chi.Router) {
			r.Get("/", h.ListCustomers)
			r.Get("/stats", h.Stats)
			r.Route("/{userID}", func(r chi.Router) {
				r.Get("/loyalty", h.GetLoyalty)
				r.Get("/rewards", h.GetRewards)
				r.Post("/churn", h.CalculateChurn)
				r.Get("/purchases", h.GetPurchases)
				r.Post("/purchases", h.RecordPurchase)
				r.Post("/feedback", h.RecordFeedback)
				r.Post("/engagement", h.TrackEngagement)
			})
		})

		r.Route("/analyze", func(r chi.Router) {
			r.Post("/loyalty", h.AnalyzeLoyalty)
			r.Post("/offer", h.AnalyzeOffer)
			r.Post("/churn", h.AnalyzeChurn)
			r.Post("/sentiment", h.AnalyzeSentiment)
		})
	})

	return r
}

// requestLogger logs one structured line per request.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start).Round(time.Microsecond).String(),
			"request_id", middleware.GetReqID(r.Context()))
	})
}
