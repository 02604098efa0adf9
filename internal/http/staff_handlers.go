package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Sebastiano1412/aerosachs-pilot-gallery/internal/services"
)

type StaffUserCreateRequest struct {
	Email     string `json:"email"`
	Callsign  string `json:"callsign"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Password  string `json:"password"`
	IsStaff   bool   `json:"isStaff"`
}

// StaffUserUpdateRequest is a partial update: nil fields stay untouched.
type StaffUserUpdateRequest struct {
	Email     *string `json:"email"`
	Callsign  *string `json:"callsign"`
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
	IsStaff   *bool   `json:"isStaff"`
}

type PagedUsersResponse struct {
	Items    []UserDTO `json:"items"`
	Total    int       `json:"total"`
	Page     int       `json:"page"`
	PageSize int       `json:"pageSize"`
}

func (s *Server) StaffPendingPhotos(w http.ResponseWriter, r *http.Request) {
	photos, err := services.PendingPhotos(s.DB)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	WriteJSON(w, http.StatusOK, map[string][]PhotoDTO{"items": buildPhotoDTOs(photos)})
}

func (s *Server) StaffAllPhotos(w http.ResponseWriter, r *http.Request) {
	photos, err := services.AllPhotos(s.DB)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	WriteJSON(w, http.StatusOK, map[string][]PhotoDTO{"items": buildPhotoDTOs(photos)})
}

func (s *Server) StaffApprovePhoto(w http.ResponseWriter, r *http.Request) {
	if err := services.ApprovePhoto(s.DB, chi.URLParam(r, "photoId")); err != nil {
		WriteServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// StaffRemovePhoto backs both reject (pending) and delete (approved); the
// record and its stored file are removed either way.
func (s *Server) StaffRemovePhoto(w http.ResponseWriter, r *http.Request) {
	if err := services.RemovePhoto(s.DB, s.Config.MediaStoragePath, chi.URLParam(r, "photoId")); err != nil {
		WriteServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) StaffResetPhotos(w http.ResponseWriter, r *http.Request) {
	if err := services.ResetAllPhotos(s.DB, s.Config.MediaStoragePath); err != nil {
		WriteServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) StaffListUsers(w http.ResponseWriter, r *http.Request) {
	page := parseInt(r.URL.Query().Get("page"), 1)
	pageSize := parseInt(r.URL.Query().Get("pageSize"), 20)
	if pageSize > 100 {
		pageSize = 100
	}
	search := strings.TrimSpace(r.URL.Query().Get("search"))
	args := []interface{}{}
	where := ""
	if search != "" {
		where = "WHERE lower(email) LIKE $1 OR lower(callsign) LIKE $1"
		args = append(args, "%"+strings.ToLower(search)+"%")
	}
	var total int
	if err := s.DB.Get(&total, "SELECT count(*) FROM users "+where, args...); err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	offset := (page - 1) * pageSize
	query := "SELECT * FROM users " + where + fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, pageSize, offset)
	users := []struct {
		ID           string     `db:"id"`
		Email        string     `db:"email"`
		Callsign     string     `db:"callsign"`
		FirstName    string     `db:"first_name"`
		LastName     string     `db:"last_name"`
		PasswordHash string     `db:"password_hash"`
		IsStaff      bool       `db:"is_staff"`
		CreatedAt    time.Time  `db:"created_at"`
		UpdatedAt    time.Time  `db:"updated_at"`
		LastLoginAt  *time.Time `db:"last_login_at"`
		LastSeenAt   *time.Time `db:"last_seen_at"`
	}{}
	if err := s.DB.Select(&users, query, args...); err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	items := make([]UserDTO, 0, len(users))
	for _, user := range users {
		items = append(items, UserDTO{
			ID:          user.ID,
			Email:       user.Email,
			Callsign:    user.Callsign,
			FirstName:   user.FirstName,
			LastName:    user.LastName,
			IsStaff:     user.IsStaff,
			CreatedAt:   user.CreatedAt,
			LastLoginAt: user.LastLoginAt,
		})
	}
	WriteJSON(w, http.StatusOK, PagedUsersResponse{Items: items, Total: total, Page: page, PageSize: pageSize})
}

func (s *Server) StaffCreateUser(w http.ResponseWriter, r *http.Request) {
	var req StaffUserCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	callsign := services.NormalizeCallsign(req.Callsign)
	if err := services.ValidateEmail(email); err != nil {
		WriteServiceError(w, err)
		return
	}
	if err := services.ValidateCallsign(callsign); err != nil {
		WriteServiceError(w, err)
		return
	}
	if err := services.ValidatePassword(req.Password, nil); err != nil {
		WriteServiceError(w, err)
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
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$8)
`, userID, email, callsign, strings.TrimSpace(req.FirstName), strings.TrimSpace(req.LastName), hash, req.IsStaff, now)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "Email or callsign already in use")
		return
	}
	user, err := services.FindUser(s.DB, userID)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, buildUserDTO(user))
}

func (s *Server) StaffUpdateUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	var req StaffUserUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	if _, err := services.FindUser(s.DB, userID); err != nil {
		WriteServiceError(w, err)
		return
	}
	if req.FirstName != nil && strings.TrimSpace(*req.FirstName) == "" {
		WriteError(w, http.StatusBadRequest, "First name cannot be empty")
		return
	}
	if req.LastName != nil && strings.TrimSpace(*req.LastName) == "" {
		WriteError(w, http.StatusBadRequest, "Last name cannot be empty")
		return
	}
	var email *string
	if req.Email != nil {
		value := strings.ToLower(strings.TrimSpace(*req.Email))
		if err := services.ValidateEmail(value); err != nil {
			WriteServiceError(w, err)
			return
		}
		email = &value
	}
	var callsign *string
	if req.Callsign != nil {
		value := services.NormalizeCallsign(*req.Callsign)
		if err := services.ValidateCallsign(value); err != nil {
			WriteServiceError(w, err)
			return
		}
		callsign = &value
	}
	_, err := s.DB.Exec(`
UPDATE users
SET email = COALESCE($2, email),
    callsign = COALESCE($3, callsign),
    first_name = COALESCE($4, first_name),
    last_name = COALESCE($5, last_name),
    is_staff = COALESCE($6, is_staff),
    updated_at = $7
WHERE id = $1
`, userID, email, callsign, trimmed(req.FirstName), trimmed(req.LastName), req.IsStaff, time.Now().UTC())
	if err != nil {
		WriteError(w, http.StatusBadRequest, "Email or callsign already in use")
		return
	}
	user, err := services.FindUser(s.DB, userID)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, buildUserDTO(user))
}

func (s *Server) StaffDeleteUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	if err := services.DeleteUserAccount(s.DB, s.Config.MediaStoragePath, userID); err != nil {
		WriteServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func parseInt(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	if value < 1 {
		return fallback
	}
	return value
}
