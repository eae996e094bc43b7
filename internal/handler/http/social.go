package http

import (
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/Omillo-Charles/New-Testament-Backend/internal/auth"
	"github.com/Omillo-Charles/New-Testament-Backend/internal/oauth"
	"github.com/Omillo-Charles/New-Testament-Backend/internal/service"
)

// stateCookieName holds the CSRF state between the redirect to the provider
// and the callback.
const stateCookieName = "oauth_state"

// SocialHandler drives the redirect-based OAuth handoff with Google.
type SocialHandler struct {
	provider    *oauth.GoogleProvider
	service     *service.SocialService
	frontendURL string
	logger      *slog.Logger
}

// NewSocialHandler creates a new social sign-in HTTP handler. frontendURL is
// the base URL the callback redirects back to.
func NewSocialHandler(provider *oauth.GoogleProvider, svc *service.SocialService, frontendURL string, logger *slog.Logger) *SocialHandler {
	return &SocialHandler{
		provider:    provider,
		service:     svc,
		frontendURL: frontendURL,
		logger:      logger,
	}
}

// GoogleRedirect handles GET /api/auth/google
func (h *SocialHandler) GoogleRedirect(w http.ResponseWriter, r *http.Request) {
	state, err := auth.GenerateOpaqueToken()
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to generate oauth state",
			slog.String("error", err.Error()),
		)
		h.redirectWithError(w, r, "social sign-in unavailable")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/api/auth/google",
		MaxAge:   int((10 * time.Minute).Seconds()),
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.provider.AuthCodeURL(state), http.StatusTemporaryRedirect)
}

// GoogleCallback handles GET /api/auth/google/callback
func (h *SocialHandler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	h.clearStateCookie(w)

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.logger.WarnContext(r.Context(), "provider returned an error",
			slog.String("error", errParam),
		)
		h.redirectWithError(w, r, "sign-in was cancelled")
		return
	}

	state := r.URL.Query().Get("state")
	cookie, err := r.Cookie(stateCookieName)
	if err != nil || state == "" || cookie.Value != state {
		h.redirectWithError(w, r, "invalid sign-in state")
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		h.redirectWithError(w, r, "missing authorization code")
		return
	}

	token, err := h.provider.Exchange(r.Context(), code)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "code exchange failed",
			slog.String("error", err.Error()),
		)
		h.redirectWithError(w, r, "sign-in failed")
		return
	}

	identity, err := h.provider.FetchIdentity(r.Context(), token)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "identity fetch failed",
			slog.String("error", err.Error()),
		)
		h.redirectWithError(w, r, "sign-in failed")
		return
	}

	_, tokens, err := h.service.HandleExternalSignIn(r.Context(), *identity)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "external sign-in failed",
			slog.String("error", err.Error()),
		)
		h.redirectWithError(w, r, "sign-in failed")
		return
	}

	query := url.Values{}
	query.Set("accessToken", tokens.AccessToken)
	query.Set("refreshToken", tokens.RefreshToken)
	query.Set("provider", "google")

	http.Redirect(w, r, h.frontendURL+"/auth/callback?"+query.Encode(), http.StatusTemporaryRedirect)
}

func (h *SocialHandler) redirectWithError(w http.ResponseWriter, r *http.Request, message string) {
	query := url.Values{}
	query.Set("error", message)
	http.Redirect(w, r, h.frontendURL+"/login?"+query.Encode(), http.StatusTemporaryRedirect)
}

func (h *SocialHandler) clearStateCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    "",
		Path:     "/api/auth/google",
		MaxAge:   -1,
		HttpOnly: true,
	})
}
