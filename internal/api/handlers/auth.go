package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rcharbonnier/allscans/internal/api/response"
	"github.com/rcharbonnier/allscans/internal/auth"
)

const maxNameLength = 32

// AuthHandler handles registration, login, and session endpoints.
type AuthHandler struct {
	auth *auth.Service
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *auth.Service) *AuthHandler {
	return &AuthHandler{auth: authService}
}

func setSessionCookie(w http.ResponseWriter, token string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// Register creates an account and logs the new user in.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, errors.New("invalid request body"))
		return
	}
	if req.Name == "" || req.Email == "" || req.Password == "" {
		response.BadRequest(w, errors.New("name, email and password are required"))
		return
	}
	if len(req.Name) > maxNameLength {
		response.BadRequest(w, errors.New("name must be 32 characters or fewer"))
		return
	}

	user, token, err := h.auth.Register(r.Context(), req.Name, req.Email, req.Password)
	if errors.Is(err, auth.ErrEmailTaken) {
		response.Conflict(w, err)
		return
	}
	if err != nil {
		response.InternalError(w, err)
		return
	}

	setSessionCookie(w, token, int(auth.SessionTTL.Seconds()))
	response.Created(w, user)
}

// Login verifies credentials and sets the session cookie.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, errors.New("invalid request body"))
		return
	}
	if req.Email == "" || req.Password == "" {
		response.BadRequest(w, errors.New("email and password are required"))
		return
	}

	user, token, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		response.Unauthorized(w, err)
		return
	}
	if err != nil {
		response.InternalError(w, err)
		return
	}

	setSessionCookie(w, token, int(auth.SessionTTL.Seconds()))
	response.Success(w, user)
}

// Logout invalidates the session and clears the cookie. Always succeeds.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(auth.SessionCookie); err == nil {
		h.auth.Logout(cookie.Value)
	}
	setSessionCookie(w, "", -1)
	response.Success(w, map[string]string{"message": "logged out"})
}

// Me returns the authenticated account.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, errors.New("not logged in"))
		return
	}

	user, err := h.auth.CurrentUser(r.Context(), userID)
	if err != nil {
		mapStorageError(w, err)
		return
	}

	response.Success(w, user)
}
