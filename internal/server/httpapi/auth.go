package httpapi

import (
	"errors"
	"net/http"

	"github.com/mealbook/mealbook/internal/common"
	"github.com/mealbook/mealbook/internal/logging"
	"github.com/mealbook/mealbook/internal/server/services"
)

// AuthHandler handles registration, login, and token refresh.
type AuthHandler struct {
	users *services.UserService
	log   logging.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(users *services.UserService, log logging.Logger) *AuthHandler {
	return &AuthHandler{users: users, log: log}
}

type credentialsRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

type tokenPairResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// HandleRegister creates an account and logs it in.
// POST /api/register
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Login == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "login and password are required")
		return
	}

	if _, err := h.users.Register(r.Context(), req.Login, []byte(req.Password)); err != nil {
		if errors.Is(err, common.ErrorDuplicateLogin) {
			writeError(w, http.StatusConflict, "login already taken")
			return
		}
		h.log.Error(r.Context(), "register user", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	pair, err := h.users.Login(r.Context(), req.Login, []byte(req.Password))
	if err != nil {
		h.log.Error(r.Context(), "login after register", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, tokenPairResponse{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken})
}

// HandleLogin verifies credentials and returns a token pair.
// POST /api/login
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	pair, err := h.users.Login(r.Context(), req.Login, []byte(req.Password))
	if err != nil {
		if errors.Is(err, common.ErrorUnauthorized) {
			writeError(w, http.StatusUnauthorized, "invalid login or password")
			return
		}
		h.log.Error(r.Context(), "login user", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, tokenPairResponse{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken})
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// HandleRefresh rotates a refresh token.
// POST /api/refresh
func (h *AuthHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	pair, err := h.users.RefreshToken(r.Context(), req.RefreshToken)
	if err != nil {
		if errors.Is(err, common.ErrRefreshTokenExpired) {
			writeError(w, http.StatusUnauthorized, "refresh token expired")
			return
		}
		writeError(w, http.StatusUnauthorized, "invalid refresh token")
		return
	}

	writeJSON(w, http.StatusOK, tokenPairResponse{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken})
}
