package httpx

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/larderhq/larder-go/internal/service"
)

// RouterServices holds all the services needed by the HTTP router.
type RouterServices struct {
	Engine   *service.SessionEngine
	Profiles *service.ProfileService
	Shopping *service.ShoppingService

	// Metrics, when set, is mounted at MetricsPath (default /metrics).
	Metrics     http.Handler
	MetricsPath string

	// SettleTimeout bounds how long auth endpoints wait for the session
	// engine to settle before responding.
	SettleTimeout time.Duration

	CompressionEnabled bool
	CompressionLevel   int
	Logger             *slog.Logger
}

// NewRouter creates and configures the agent's HTTP router.
func NewRouter(services RouterServices) http.Handler {
	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}

	mux := http.NewServeMux()

	authHandlers := &AuthHandlers{
		Engine:        services.Engine,
		Logger:        logger,
		SettleTimeout: services.SettleTimeout,
	}
	profileHandlers := &ProfileHandlers{Svc: services.Profiles}
	shoppingHandlers := &ShoppingHandlers{Svc: services.Shopping}

	mux.Handle("GET /healthz", http.HandlerFunc(healthHandler))
	mux.Handle("HEAD /healthz", http.HandlerFunc(healthHandler))

	if services.Metrics != nil {
		path := services.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		mux.Handle("GET "+path, services.Metrics)
	}

	mux.HandleFunc("GET /api/context", authHandlers.GetContext)
	mux.HandleFunc("POST /api/auth/signin", authHandlers.SignIn)
	mux.HandleFunc("POST /api/auth/signup", authHandlers.SignUp)
	mux.HandleFunc("POST /api/auth/signout", authHandlers.SignOut)
	mux.HandleFunc("POST /api/auth/refresh", authHandlers.Refresh)

	mux.HandleFunc("GET /api/profile", profileHandlers.Get)
	mux.HandleFunc("PATCH /api/profile", profileHandlers.Update)

	mux.HandleFunc("GET /api/shopping", shoppingHandlers.List)
	mux.HandleFunc("GET /api/shopping/grouped", shoppingHandlers.Grouped)
	mux.HandleFunc("POST /api/shopping", shoppingHandlers.Create)
	mux.HandleFunc("POST /api/shopping/{id}/toggle", shoppingHandlers.Toggle)
	mux.HandleFunc("DELETE /api/shopping/{id}", shoppingHandlers.Delete)

	var handler http.Handler = mux
	if services.CompressionEnabled {
		handler = Compression(CompressionConfig{
			Level:  services.CompressionLevel,
			Logger: logger,
		})(handler)
	}
	handler = Logging(logger)(handler)
	return Recover(logger)(handler)
}
