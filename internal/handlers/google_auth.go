package handlers

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	oauth2api "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"

	"TASKPILOT_BACK-END/internal/config"
	"TASKPILOT_BACK-END/internal/dto"
	"TASKPILOT_BACK-END/internal/models"
	"TASKPILOT_BACK-END/internal/repository"
	"TASKPILOT_BACK-END/internal/session"
	"TASKPILOT_BACK-END/internal/utils"
)

const oauthStateCookie = "oauth_state"

// GoogleAuthHandler implements login via Google. A successful callback ends
// the same way a password login does: a session row and an auth_session
// cookie. Google users that have never registered get an account created from
// their Google profile.
type GoogleAuthHandler struct {
	users    repository.UserRepository
	sessions *session.Manager
	cfg      *config.GoogleOAuthConfig
}

// NewGoogleAuthHandler creates a new GoogleAuthHandler
func NewGoogleAuthHandler(users repository.UserRepository, sessions *session.Manager, cfg *config.GoogleOAuthConfig) *GoogleAuthHandler {
	return &GoogleAuthHandler{users: users, sessions: sessions, cfg: cfg}
}

func (h *GoogleAuthHandler) oauthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     h.cfg.ClientID,
		ClientSecret: h.cfg.ClientSecret,
		RedirectURL:  h.cfg.RedirectURL,
		Scopes: []string{
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
		},
		Endpoint: google.Endpoint,
	}
}

// GoogleLogin initiates the Google OAuth flow
// @Summary Start Google login
// @Description Returns the Google consent URL and sets the state cookie
// @Tags authentication
// @Produce json
// @Success 200 {object} dto.GoogleLoginResponse "Auth URL and state"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /api/auth/google/login [get]
func (h *GoogleAuthHandler) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	state, err := generateOAuthState()
	if err != nil {
		utils.WriteErrorResponse(w, http.StatusInternalServerError, "Failed to generate state", err.Error())
		return
	}

	// The state round-trips through a short-lived cookie and is compared on
	// callback to stop login CSRF.
	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   600,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	authURL := h.oauthConfig().AuthCodeURL(state, oauth2.AccessTypeOnline)
	utils.WriteJSONResponse(w, http.StatusOK, dto.GoogleLoginResponse{
		AuthURL: authURL,
		State:   state,
	})
}

// GoogleCallback completes the Google OAuth flow
// @Summary Google OAuth callback
// @Description Exchanges the authorization code, creates a session, and redirects to the frontend
// @Tags authentication
// @Success 302 "Redirect to frontend"
// @Failure 400 {object} dto.ErrorResponse "State mismatch or missing code"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /api/auth/google/callback [get]
func (h *GoogleAuthHandler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	stateCookie, err := r.Cookie(oauthStateCookie)
	if err != nil || stateCookie.Value == "" || stateCookie.Value != r.URL.Query().Get("state") {
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Invalid state", "OAuth state mismatch")
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Missing code", "Authorization code is required")
		return
	}

	token, err := h.oauthConfig().Exchange(r.Context(), code)
	if err != nil {
		utils.WriteErrorResponse(w, http.StatusInternalServerError, "Token exchange failed", err.Error())
		return
	}

	info, err := fetchGoogleUserInfo(r, h.oauthConfig(), token)
	if err != nil {
		utils.WriteErrorResponse(w, http.StatusInternalServerError, "Failed to fetch user info", err.Error())
		return
	}
	if info.Email == "" {
		utils.WriteErrorResponse(w, http.StatusInternalServerError, "Failed to fetch user info", "Google did not return an email address")
		return
	}

	user, err := h.findOrCreateUser(r, info)
	if err != nil {
		utils.WriteErrorResponse(w, http.StatusInternalServerError, "Failed to resolve user", err.Error())
		return
	}

	sess, err := h.sessions.CreateSession(r.Context(), user.ID)
	if err != nil {
		utils.WriteErrorResponse(w, http.StatusInternalServerError, "Failed to create user session", err.Error())
		return
	}

	http.SetCookie(w, &http.Cookie{Name: oauthStateCookie, Value: "", Path: "/", MaxAge: -1, HttpOnly: true})
	http.SetCookie(w, h.sessions.Cookie(sess))
	http.Redirect(w, r, h.cfg.FrontendURL, http.StatusFound)
}

// fetchGoogleUserInfo asks the Google userinfo endpoint about the token owner.
func fetchGoogleUserInfo(r *http.Request, cfg *oauth2.Config, token *oauth2.Token) (*dto.GoogleUserInfo, error) {
	svc, err := oauth2api.NewService(r.Context(), option.WithTokenSource(cfg.TokenSource(r.Context(), token)))
	if err != nil {
		return nil, fmt.Errorf("failed to create oauth2 service: %w", err)
	}

	info, err := svc.Userinfo.Get().Do()
	if err != nil {
		return nil, fmt.Errorf("userinfo request failed: %w", err)
	}

	verified := info.VerifiedEmail != nil && *info.VerifiedEmail
	return &dto.GoogleUserInfo{
		ID:         info.Id,
		Email:      info.Email,
		GivenName:  info.GivenName,
		FamilyName: info.FamilyName,
		Verified:   verified,
	}, nil
}

// findOrCreateUser maps a Google identity onto a local account by email.
func (h *GoogleAuthHandler) findOrCreateUser(r *http.Request, info *dto.GoogleUserInfo) (*models.User, error) {
	user, err := h.users.GetByEmail(r.Context(), info.Email)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	firstName := info.GivenName
	if firstName == "" {
		firstName = "Google"
	}
	lastName := info.FamilyName
	if lastName == "" {
		lastName = "User"
	}

	// Google-only accounts get an unguessable placeholder password; password
	// login stays possible only after a reset.
	placeholder, err := generateOAuthState()
	if err != nil {
		return nil, err
	}
	passwordHash, err := utils.HashPassword(placeholder)
	if err != nil {
		return nil, err
	}

	user = &models.User{
		FirstName:    firstName,
		LastName:     lastName,
		Email:        info.Email,
		PasswordHash: passwordHash,
	}
	if err := h.users.Create(r.Context(), user); err != nil {
		// Lost a race with a concurrent registration; read the winner.
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return h.users.GetByEmail(r.Context(), info.Email)
		}
		return nil, err
	}

	return user, nil
}

// generateOAuthState returns a random hex token for the OAuth state parameter.
func generateOAuthState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
