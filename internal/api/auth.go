package api

import (
	"net/http"

	"github.com/go-faster/errors"

	"github.com/xenking/storefront-api/internal/domain/user"
)

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
	Token string `json:"token"`
}

func (h *Handler) authResponse(u *user.User) (*authResponse, error) {
	token, err := h.tokens.Issue(u.ID)
	if err != nil {
		return nil, errors.Wrap(err, "issue token")
	}
	return &authResponse{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
		Role:  string(u.Role),
		Token: token,
	}, nil
}

// Register creates an account and returns it with a fresh token.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, r, http.StatusBadRequest, "Invalid request data", err)
		return
	}

	u, err := h.users.Register(r.Context(), user.RegisterRequest{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, user.ErrInvalidRegistration):
			h.respondError(w, r, http.StatusBadRequest, "Invalid request data", nil)
		case errors.Is(err, user.ErrEmailTaken):
			h.respondError(w, r, http.StatusBadRequest, "User already exists", nil)
		default:
			h.serverError(w, r, err)
		}
		return
	}

	resp, err := h.authResponse(u)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	h.respondJSON(w, r, http.StatusCreated, resp)
}

// Login verifies credentials and returns the account with a fresh token.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, r, http.StatusBadRequest, "Invalid request data", err)
		return
	}
	if req.Email == "" || req.Password == "" {
		h.respondError(w, r, http.StatusBadRequest, "Invalid request data", nil)
		return
	}

	u, err := h.users.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, user.ErrBadCredentials) {
			h.respondError(w, r, http.StatusUnauthorized, "Invalid email or password", nil)
			return
		}
		h.serverError(w, r, err)
		return
	}

	resp, err := h.authResponse(u)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	h.respondJSON(w, r, http.StatusOK, resp)
}
