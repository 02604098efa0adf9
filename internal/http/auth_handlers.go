package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Sebastiano1412/aerosachs-pilot-gallery/internal/models"
	"github.com/Sebastiano1412/aerosachs-pilot-gallery/internal/services"
)

type RegisterRequest struct {
	Email           string  `json:"email"`
	Callsign        string  `json:"callsign"`
	FirstName       string  `json:"firstName"`
	LastName        string  `json:"lastName"`
	Password        string  `json:"password"`
	ConfirmPassword *string `json:"confirmPassword"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type TokenResponse struct {
	AccessToken  string  `json:"accessToken"`
	RefreshToken string  `json:"refreshToken"`
	ExpiresAt    int64   `json:"expiresAt"`
	User         UserDTO `json:"user"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

func (s *Server) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	callsign := services.NormalizeCallsign(req.Callsign)
	firstName := strings.TrimSpace(req.FirstName)
	lastName := strings.TrimSpace(req.LastName)
	if firstName == "" || lastName == "" {
		WriteError(w, http.StatusBadRequest, "First name and last name are required")
		return
	}
	if err := services.ValidateEmail(email); err != nil {
		WriteServiceError(w, err)
		return
	}
	if err := services.ValidateCallsign(callsign); err != nil {
		WriteServiceError(w, err)
		return
	}
	if err := services.ValidatePassword(req.Password, req.ConfirmPassword); err != nil {
		WriteServiceError(w, err)
		return
	}

	var exists bool
	if err := s.DB.Get(&exists, `SELECT EXISTS(SELECT 1 FROM users WHERE lower(email) = $1)`, email); err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if exists {
		WriteError(w, http.StatusBadRequest, "A user with this email already exists")
		return
	}
	if err := s.DB.Get(&exists, `SELECT EXISTS(SELECT 1 FROM users WHERE callsign = $1)`, callsign); err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if exists {
		WriteError(w, http.StatusBadRequest, "This callsign is already taken")
		return
	}

	hash, err := s.Tokens.HashPassword(req.Password)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	userID := uuid.NewString()
	now := time.Now().UTC()
	_, err = s.DB.Exec(`
INSERT INTO users (id, email, callsign, first_name, last_name, password_hash, is_staff, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,FALSE,$7,$7)
`, userID, email, callsign, firstName, lastName, hash, now)
	if err != nil {
		// Unique indexes may still trip under concurrent registration.
		WriteError(w, http.StatusBadRequest, "Email or callsign already in use")
		return
	}
	user, err := services.FindUser(s.DB, userID)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	s.writeTokenResponse(w, user)
}

func (s *Server) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || strings.TrimSpace(req.Password) == "" {
		WriteError(w, http.StatusBadRequest, "Authentication failed")
		return
	}
	var user models.User
	if err := s.DB.Get(&user, `SELECT * FROM users WHERE lower(email) = $1`, email); err != nil {
		WriteError(w, http.StatusUnauthorized, "Authentication failed")
		return
	}
	if !s.Tokens.VerifyPassword(req.Password, user.PasswordHash) {
		WriteError(w, http.StatusUnauthorized, "Authentication failed")
		return
	}
	_ = services.SetLastLogin(s.DB, user.ID)
	s.writeTokenResponse(w, user)
}

func (s *Server) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Authentication failed")
		return
	}
	token, claims, err := s.Tokens.ParseToken(req.RefreshToken)
	if err != nil || !token.Valid || claims["typ"] != "refresh" {
		WriteError(w, http.StatusUnauthorized, "Authentication failed")
		return
	}
	userID, _ := claims["sub"].(string)
	if userID == "" {
		WriteError(w, http.StatusUnauthorized, "Authentication failed")
		return
	}
	user, err := services.FindUser(s.DB, userID)
	if err != nil {
		WriteError(w, http.StatusUnauthorized, "Authentication failed")
		return
	}
	s.writeTokenResponse(w, user)
}

func (s *Server) Logout(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) writeTokenResponse(w http.ResponseWriter, user models.User) {
	roles := services.RolesFor(user.IsStaff)
	access, exp, err := s.Tokens.CreateAccessToken(user.ID, user.Callsign, roles)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	refresh, err := s.Tokens.CreateRefreshToken(user.ID)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	WriteJSON(w, http.StatusOK, TokenResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    exp,
		User:         buildUserDTO(user),
	})
}
