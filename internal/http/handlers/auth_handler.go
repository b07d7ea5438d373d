package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/go-chi/chi/v5"

	"github.com/newit5s/tablebook/internal/http/response"
	"github.com/newit5s/tablebook/internal/platform/auth"
	"github.com/newit5s/tablebook/internal/repository"
)

type AuthHandler struct {
	Staff     repository.StaffRepository
	JWTSecret string
	TokenTTL  time.Duration
}

func NewAuthHandler(staff repository.StaffRepository, jwtSecret string, tokenTTL time.Duration) *AuthHandler {
	return &AuthHandler{Staff: staff, JWTSecret: jwtSecret, TokenTTL: tokenTTL}
}

func (h *AuthHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/login", h.login)
	return r
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.Email == "" || in.Password == "" {
		response.BadRequest(w, "email and password are required")
		return
	}

	email := strings.ToLower(strings.TrimSpace(in.Email))
	staff, err := h.Staff.FindByEmail(r.Context(), email)
	if err != nil {
		response.InternalError(w, "internal error")
		return
	}
	if staff == nil {
		response.Unauthorized(w, "invalid credentials")
		return
	}

	ok, _ := argon2id.ComparePasswordAndHash(in.Password, staff.PasswordHash)
	if !ok {
		response.Unauthorized(w, "invalid credentials")
		return
	}

	access, err := auth.NewAccessToken(staff.ID, staff.Email, staff.Role, h.JWTSecret, h.TokenTTL)
	if err != nil {
		response.InternalError(w, "internal error")
		return
	}

	response.WriteJSON(w, http.StatusOK, map[string]any{
		"access_token": access,
		"staff": map[string]any{
			"id": staff.ID, "email": staff.Email, "name": staff.Name, "role": staff.Role,
		},
	})
}
