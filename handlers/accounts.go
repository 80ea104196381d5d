package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"news-verifier/models"
	"news-verifier/services"
)

type AccountHandler struct {
	accounts *services.AccountService
}

func NewAccountHandler(accounts *services.AccountService) *AccountHandler {
	return &AccountHandler{accounts: accounts}
}

type accountResponse struct {
	Message string       `json:"message"`
	User    *models.User `json:"user"`
}

func accountStatus(err error) (int, string) {
	switch {
	case errors.Is(err, services.ErrMissingCredentials),
		errors.Is(err, services.ErrInvalidEmail),
		errors.Is(err, services.ErrPasswordTooLong):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, services.ErrEmailTaken):
		return http.StatusConflict, "Email already exists"
	case errors.Is(err, services.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Invalid credentials"
	case errors.Is(err, services.ErrNoStore):
		return http.StatusServiceUnavailable, "Accounts are unavailable"
	default:
		slog.Error("[AUTH] account operation failed", "error", err)
		return http.StatusInternalServerError, "Server error"
	}
}

func decodeCredentials(w http.ResponseWriter, r *http.Request) (models.Credentials, bool) {
	var c models.Credentials
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&c); err != nil {
		writeError(w, http.StatusBadRequest, services.ErrMissingCredentials.Error())
		return c, false
	}
	return c, true
}

// Register handles POST /login/register.
func (h *AccountHandler) Register(w http.ResponseWriter, r *http.Request) {
	c, ok := decodeCredentials(w, r)
	if !ok {
		return
	}
	u, err := h.accounts.Register(r.Context(), c)
	if err != nil {
		status, msg := accountStatus(err)
		writeError(w, status, msg)
		return
	}
	writeJSON(w, http.StatusCreated, accountResponse{Message: "User registered", User: u})
}

// SignIn handles POST /login/signin.
func (h *AccountHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	c, ok := decodeCredentials(w, r)
	if !ok {
		return
	}
	u, err := h.accounts.SignIn(r.Context(), c)
	if err != nil {
		status, msg := accountStatus(err)
		writeError(w, status, msg)
		return
	}
	writeJSON(w, http.StatusOK, accountResponse{Message: "Login successful!", User: u})
}
