package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Omillo-Charles/New-Testament-Backend/internal/auth"
	"github.com/Omillo-Charles/New-Testament-Backend/internal/domain"
	"github.com/Omillo-Charles/New-Testament-Backend/internal/oauth"
	"github.com/Omillo-Charles/New-Testament-Backend/internal/service"
	"github.com/Omillo-Charles/New-Testament-Backend/pkg/health"
	"github.com/Omillo-Charles/New-Testament-Backend/pkg/middleware"
)

// RouterConfig carries the dependencies and settings for the HTTP router.
type RouterConfig struct {
	AuthService    *service.AuthService
	SocialService  *service.SocialService
	ContactService *service.ContactService
	GoogleProvider *oauth.GoogleProvider
	JWTManager     *auth.JWTManager
	HealthHandler  *health.Handler
	Logger         *slog.Logger
	CORS           middleware.CORSConfig
	FrontendURL    string
	DevMode        bool
}

// NewRouter creates a chi router with all routes registered.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.RequestLogging(cfg.Logger))
	r.Use(middleware.RequestLogger(cfg.Logger))
	r.Use(middleware.PrometheusMetrics("ntc-backend"))

	// Health check endpoints
	r.Get("/health/live", cfg.HealthHandler.LivenessHandler())
	r.Get("/health/ready", cfg.HealthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	// Token validator that bridges to the internal JWTManager.
	tokenValidator := func(token string) (*middleware.Claims, error) {
		claims, err := cfg.JWTManager.ValidateAccessToken(token)
		if err != nil {
			if errors.Is(err, auth.ErrTokenExpired) {
				return nil, middleware.ErrTokenExpired
			}
			return nil, err
		}
		return &middleware.Claims{
			UserID: claims.UserID,
			Email:  claims.Email,
			Role:   claims.Role,
		}, nil
	}

	authHandler := NewAuthHandler(cfg.AuthService, cfg.DevMode)
	userHandler := NewUserHandler(cfg.AuthService, cfg.DevMode)
	socialHandler := NewSocialHandler(cfg.GoogleProvider, cfg.SocialService, cfg.FrontendURL, cfg.Logger)
	contactHandler := NewContactHandler(cfg.ContactService, cfg.DevMode)

	// Public auth endpoints
	r.Route("/api/auth", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
		r.Post("/refresh-token", authHandler.RefreshToken)
		r.Post("/request-password-reset", authHandler.RequestPasswordReset)
		r.Post("/reset-password", authHandler.ResetPassword)
		r.Get("/verify-email/{token}", authHandler.VerifyEmail)

		// OAuth handoff
		r.Get("/google", socialHandler.GoogleRedirect)
		r.Get("/google/callback", socialHandler.GoogleCallback)

		// Authenticated session and profile endpoints
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(tokenValidator))

			r.Post("/logout", authHandler.Logout)
			r.Post("/change-password", authHandler.ChangePassword)
			r.Get("/profile", userHandler.GetProfile)
			r.Put("/profile", userHandler.UpdateProfile)
		})
	})

	// Contact endpoints: the form itself is public, moderation is admin-only.
	r.Route("/api/contact", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Post("/", contactHandler.Create)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(tokenValidator))
			r.Use(middleware.RequireRole(string(domain.RoleAdmin), string(domain.RoleSuperAdmin)))

			r.Get("/", contactHandler.List)
			r.Get("/stats", contactHandler.Stats)
			r.Get("/{id}", contactHandler.Get)
			r.Patch("/{id}/status", contactHandler.UpdateStatus)
			r.Delete("/{id}", contactHandler.Delete)
		})
	})

	return r
}
