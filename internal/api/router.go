package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/karstgames/savepoint/internal/api/handler"
	"github.com/karstgames/savepoint/internal/api/middleware"
	"github.com/karstgames/savepoint/internal/services/account"
	"github.com/karstgames/savepoint/internal/services/token"
)

// MaxBodyBytes caps request body size. Save blobs and credentials all fit
// comfortably; anything larger is abuse.
const MaxBodyBytes = 2048

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger         *slog.Logger
	AccountService *account.Service
	TokenService   *token.Service
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	authHandler := handler.NewAuthHandler(cfg.AccountService, cfg.TokenService)
	saveHandler := handler.NewSaveHandler(cfg.AccountService)
	adminHandler := handler.NewAdminHandler(cfg.AccountService)

	authMiddleware := middleware.Auth(cfg.TokenService)
	requireUpgraded := middleware.RequireUpgraded()
	requireAdmin := middleware.RequireAdmin()
	loggingMiddleware := middleware.Logging(cfg.Logger)
	recoveryMiddleware := middleware.Recovery(cfg.Logger)

	r.Use(recoveryMiddleware)
	r.Use(loggingMiddleware)
	r.Use(limitBody)

	// Public routes
	r.HandleFunc("/register", authHandler.Register).Methods(http.MethodPost)
	r.HandleFunc("/auth", authHandler.Login).Methods(http.MethodPost)
	r.HandleFunc("/health", healthHandler).Methods(http.MethodGet)

	// Authenticated account routes
	utils := r.PathPrefix("/utils").Subrouter()
	utils.Use(authMiddleware)
	utils.HandleFunc("/refresh", authHandler.Refresh).Methods(http.MethodGet)
	utils.HandleFunc("/update_password", authHandler.ChangePassword).Methods(http.MethodPost)
	utils.HandleFunc("/upgrade", saveHandler.Upgrade).Methods(http.MethodPost)

	// Save slots need an upgraded (or admin) role on top of a valid token
	saves := utils.NewRoute().Subrouter()
	saves.Use(requireUpgraded)
	saves.HandleFunc("/save", saveHandler.Save).Methods(http.MethodPost)
	saves.HandleFunc("/load", saveHandler.Load).Methods(http.MethodGet)

	// Admin routes
	admin := r.PathPrefix("/admin").Subrouter()
	admin.Use(authMiddleware)
	admin.Use(requireAdmin)
	admin.HandleFunc("/create_admin", adminHandler.CreateAdmin).Methods(http.MethodPost)
	admin.HandleFunc("/users", adminHandler.Users).Methods(http.MethodGet)
	admin.HandleFunc("/user", adminHandler.User).Methods(http.MethodGet)
	admin.HandleFunc("/delete", adminHandler.Delete).Methods(http.MethodDelete)
	admin.HandleFunc("/ban", adminHandler.Ban).Methods(http.MethodPost)
	admin.HandleFunc("/unban", adminHandler.Unban).Methods(http.MethodPost)

	return r
}

func limitBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
		}
		next.ServeHTTP(w, r)
	})
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
