package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/vidfriends/client/internal/logging"
	"github.com/vidfriends/client/internal/middleware"
	"github.com/vidfriends/client/internal/models"
	"github.com/vidfriends/client/internal/repositories"
)

// AuthHandler implements user authentication endpoints.
type AuthHandler struct {
	Users  UserStore
	Tokens TokenIssuer
	// SignupIssuesToken makes signup answer with an access token as well.
	SignupIssuesToken bool
	NowFunc           func() time.Time
}

// Login handles POST /auth/login requests.
func (h AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Users == nil || h.Tokens == nil {
		logger.Error("authentication dependencies unavailable", "hasUsers", h.Users != nil, "hasTokens", h.Tokens != nil)
		respondJSON(ctx, w, http.StatusInternalServerError, errorBody("authentication services unavailable"))
		return
	}

	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid login payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, errorBody("invalid request body"))
		return
	}

	req.Email = normalizeEmail(req.Email)
	if req.Email == "" || req.Password == "" {
		logger.Warn("login missing credentials", "email", req.Email)
		respondJSON(ctx, w, http.StatusBadRequest, errorBody("Email and password required"))
		return
	}

	user, err := h.Users.FindByEmail(ctx, req.Email)
	if err != nil {
		if !errors.Is(err, repositories.ErrNotFound) {
			logger.Error("login user lookup failed", "email", req.Email, "error", err)
			respondJSON(ctx, w, http.StatusInternalServerError, errorBody("unable to verify credentials"))
			return
		}
		logger.Warn("login unknown account", "email", req.Email)
		respondJSON(ctx, w, http.StatusUnauthorized, errorBody("Invalid credentials"))
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		logger.Warn("login password mismatch", "userId", user.ID)
		respondJSON(ctx, w, http.StatusUnauthorized, errorBody("Invalid credentials"))
		return
	}

	token, err := h.Tokens.Issue(user.ID)
	if err != nil {
		logger.Error("failed to issue token", "error", err, "userId", user.ID)
		respondJSON(ctx, w, http.StatusInternalServerError, errorBody("failed to create session"))
		return
	}

	respondJSON(ctx, w, http.StatusOK, models.TokenResponse{AccessToken: token})
}

// SignUp handles POST /auth/signup requests.
func (h AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Users == nil || h.Tokens == nil {
		logger.Error("authentication dependencies unavailable", "hasUsers", h.Users != nil, "hasTokens", h.Tokens != nil)
		respondJSON(ctx, w, http.StatusInternalServerError, errorBody("authentication services unavailable"))
		return
	}

	var req models.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid signup payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, errorBody("invalid request body"))
		return
	}

	req.Email = normalizeEmail(req.Email)
	if req.Email == "" || req.Password == "" {
		logger.Warn("signup missing credentials", "email", req.Email)
		respondJSON(ctx, w, http.StatusBadRequest, errorBody("Email and password required"))
		return
	}

	if _, err := h.Users.FindByEmail(ctx, req.Email); err == nil {
		logger.Warn("signup existing account", "email", req.Email)
		respondJSON(ctx, w, http.StatusBadRequest, errorBody("User already exists"))
		return
	} else if !errors.Is(err, repositories.ErrNotFound) {
		logger.Error("signup user lookup failed", "error", err, "email", req.Email)
		respondJSON(ctx, w, http.StatusInternalServerError, errorBody("unable to verify existing accounts"))
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		logger.Error("signup failed to hash password", "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, errorBody("failed to secure password"))
		return
	}

	now := h.now()
	user := models.User{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(req.Name),
		Email:     req.Email,
		Password:  string(hashed),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := h.Users.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			logger.Warn("signup conflict", "email", req.Email)
			respondJSON(ctx, w, http.StatusBadRequest, errorBody("User already exists"))
			return
		}
		logger.Error("signup failed to create user", "error", err, "email", req.Email)
		respondJSON(ctx, w, http.StatusInternalServerError, errorBody("failed to create account"))
		return
	}

	if !h.SignupIssuesToken {
		respondJSON(ctx, w, http.StatusCreated, models.MessageResponse{Message: "User created successfully"})
		return
	}

	token, err := h.Tokens.Issue(user.ID)
	if err != nil {
		logger.Error("signup failed to issue token", "error", err, "userId", user.ID)
		respondJSON(ctx, w, http.StatusInternalServerError, errorBody("failed to create session"))
		return
	}

	respondJSON(ctx, w, http.StatusCreated, signupResponse{
		MessageResponse: models.MessageResponse{Message: "User created successfully"},
		TokenResponse:   models.TokenResponse{AccessToken: token},
	})
}

// Me handles GET /auth/me requests.
func (h AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	user, err := h.Users.FindByID(ctx, middleware.UserIDFromContext(ctx))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondJSON(ctx, w, http.StatusNotFound, errorBody("User not found"))
			return
		}
		logger.Error("profile lookup failed", "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, errorBody("unable to load profile"))
		return
	}

	respondJSON(ctx, w, http.StatusOK, profileResponse{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		CreatedAt: user.CreatedAt.UTC().Format(http.TimeFormat),
	})
}

// Logout handles POST /auth/logout. Tokens are stateless, so there is nothing
// to revoke server side.
func (h AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	respondJSON(r.Context(), w, http.StatusOK, models.MessageResponse{Message: "Logged out successfully"})
}

type signupResponse struct {
	models.MessageResponse
	models.TokenResponse
}

type profileResponse struct {
	ID        string `json:"_id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	CreatedAt string `json:"created_at"`
}

func (h AuthHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}

func normalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}

func errorBody(msg string) map[string]string {
	return map[string]string{"error": msg}
}

func respondJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.FromContext(ctx).Error("encode response body", "status", status, "error", err)
		return
	}

	logger := logging.FromContext(ctx)
	switch {
	case status >= http.StatusInternalServerError:
		logger.Error("request failed", "status", status, "response", payload)
	case status >= http.StatusBadRequest:
		logger.Warn("request returned client error", "status", status, "response", payload)
	}
}
