package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/vidfriends/client/internal/metrics"
	"github.com/vidfriends/client/internal/middleware"
)

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Users  UserStore
	Tokens TokenIssuer
	Videos VideoCatalog

	Logger  *slog.Logger
	Metrics *metrics.Server
	// Gatherer backs GET /metrics; nil leaves the route unregistered.
	Gatherer     prometheus.Gatherer
	LoginLimiter middleware.RateLimiter

	DashboardLimit    int
	EmbedBaseURL      string
	AllowedOrigins    []string
	SignupIssuesToken bool
}

// NewRouter wires HTTP handlers into a chi router behind CORS.
func NewRouter(deps Dependencies) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	health := HealthHandler{}
	auth := AuthHandler{Users: deps.Users, Tokens: deps.Tokens, SignupIssuesToken: deps.SignupIssuesToken}
	videos := VideoHandler{Videos: deps.Videos, DashboardLimit: deps.DashboardLimit, EmbedBaseURL: deps.EmbedBaseURL}

	r := chi.NewRouter()
	r.Use(middleware.RequestLogger(logger, deps.Metrics))

	r.Get("/", health.Index)
	r.Get("/healthz", health.Handle)
	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Post("/auth/signup", auth.SignUp)
	r.With(middleware.Limit(deps.LoginLimiter, "login")).Post("/auth/login", auth.Login)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireBearer(deps.Tokens))
		r.Get("/auth/me", auth.Me)
		r.Post("/auth/logout", auth.Logout)
		r.Get("/dashboard", videos.Dashboard)
		r.Get("/video/{id}", videos.Video)
	})

	origins := deps.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
	}).Handler(r)
}
