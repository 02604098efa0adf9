package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/Sebastiano1412/aerosachs-pilot-gallery/internal/services"
)

type ProfileUpdateRequest struct {
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

// QuotaResponse mirrors what the dashboard shows: consumed counts next to
// the configured limits.
type QuotaResponse struct {
	UploadCount  int `json:"uploadCount"`
	UploadLimit  int `json:"uploadLimit"`
	VotesUsed    int `json:"votesUsed"`
	VoteLimit    int `json:"voteLimit"`
	UploadsLeft  int `json:"uploadsLeft"`
	VotesLeft    int `json:"votesLeft"`
	ContestMonth int `json:"contestMonth"`
	ContestYear  int `json:"contestYear"`
}

func (s *Server) Me(w http.ResponseWriter, r *http.Request) {
	user, err := services.FindUser(s.DB, CurrentUserID(r))
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	_ = services.TouchLastSeen(s.DB, user.ID)
	WriteJSON(w, http.StatusOK, map[string]UserDTO{"user": buildUserDTO(user)})
}

// UpdateProfile applies only the fields present in the payload. Photos keep
// their snapshotted uploader name.
func (s *Server) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID := CurrentUserID(r)
	var req ProfileUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid payload")
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
	_, err := s.DB.Exec(`
UPDATE users
SET first_name = COALESCE($2, first_name),
    last_name = COALESCE($3, last_name),
    updated_at = $4
WHERE id = $1
`, userID, trimmed(req.FirstName), trimmed(req.LastName), time.Now().UTC())
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	user, err := services.FindUser(s.DB, userID)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]UserDTO{"user": buildUserDTO(user)})
}

func (s *Server) ChangePassword(w http.ResponseWriter, r *http.Request) {
	userID := CurrentUserID(r)
	var req ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	if err := services.ValidatePassword(req.NewPassword, &req.ConfirmPassword); err != nil {
		WriteServiceError(w, err)
		return
	}
	user, err := services.FindUser(s.DB, userID)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	if !s.Tokens.VerifyPassword(req.CurrentPassword, user.PasswordHash) {
		WriteError(w, http.StatusUnauthorized, "Current password is incorrect")
		return
	}
	hash, err := s.Tokens.HashPassword(req.NewPassword)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	_, err = s.DB.Exec(`UPDATE users SET password_hash = $1, updated_at = $2 WHERE id = $3`, hash, time.Now().UTC(), userID)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Quota reports the caller's remaining monthly allowance. Counts are read
// fresh on every call; nothing here is cached.
func (s *Server) Quota(w http.ResponseWriter, r *http.Request) {
	userID := CurrentUserID(r)
	period := services.CurrentPeriod()
	uploads, err := services.UploadCount(s.DB, userID, period)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	votes, err := services.VoteCount(s.DB, userID)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	limits := s.limits()
	WriteJSON(w, http.StatusOK, QuotaResponse{
		UploadCount:  uploads,
		UploadLimit:  limits.Uploads,
		VotesUsed:    votes,
		VoteLimit:    limits.Votes,
		UploadsLeft:  services.ClampRemaining(limits.Uploads - uploads),
		VotesLeft:    services.ClampRemaining(limits.Votes - votes),
		ContestMonth: period.Month,
		ContestYear:  period.Year,
	})
}

func (s *Server) MyPhotos(w http.ResponseWriter, r *http.Request) {
	userID := CurrentUserID(r)
	photos, err := services.UserPhotos(s.DB, userID, services.CurrentPeriod())
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	WriteJSON(w, http.StatusOK, map[string][]PhotoDTO{"items": buildPhotoDTOs(photos)})
}

func trimmed(value *string) *string {
	if value == nil {
		return nil
	}
	clean := strings.TrimSpace(*value)
	return &clean
}
