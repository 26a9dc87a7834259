// internal/api/handler/user.go
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"ledger-bank/internal/domain"
	"ledger-bank/internal/service"
)

// UserHandler handles HTTP requests related to users and login.
type UserHandler struct {
	responder
	service service.UserService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(svc service.UserService, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		responder: responder{logger: logger},
		service:   svc,
	}
}

// CreateUserRequest represents the request body for registering a user.
type CreateUserRequest struct {
	Name     string  `json:"name"`
	Email    string  `json:"email"`
	Phone    *string `json:"phone"`
	Address  *string `json:"address"`
	Password string  `json:"password"`
}

// UpdateUserRequest represents the request body for updating a user.
type UpdateUserRequest struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Phone    *string `json:"phone"`
	Address  *string `json:"address"`
	Password *string `json:"password"`
}

// LoginRequest represents the request body for login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// CreateUser registers a user.
// POST /api/users
func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondWithError(w, err)
		return
	}

	user, err := h.service.CreateUser(r.Context(), domain.NewUser{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Address:  req.Address,
		Password: req.Password,
	})
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusCreated, user)
}

// ListUsers returns every user.
// GET /api/users
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	if users == nil {
		users = []domain.User{}
	}

	h.respondWithJSON(w, http.StatusOK, users)
}

// GetUser returns one user.
// GET /api/users/{user}
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	userID, err := parseID("user id", chi.URLParam(r, "user"))
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	user, err := h.service.GetUser(r.Context(), userID)
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusOK, user)
}

// UpdateUser changes the supplied user fields.
// PUT /api/users/{user}
func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	userID, err := parseID("user id", chi.URLParam(r, "user"))
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	var req UpdateUserRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondWithError(w, err)
		return
	}

	user, err := h.service.UpdateUser(r.Context(), userID, domain.UserUpdate{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Address:  req.Address,
		Password: req.Password,
	})
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusOK, user)
}

// DeleteUser removes a user that owns no accounts.
// DELETE /api/users/{user}
func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	userID, err := parseID("user id", chi.URLParam(r, "user"))
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	user, err := h.service.DeleteUser(r.Context(), userID)
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"message": "User deleted successfully",
		"user":    user,
	})
}

// Login checks an email and password pair.
// POST /api/auth/login
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondWithError(w, err)
		return
	}

	user, err := h.service.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"user":    user,
	})
}
