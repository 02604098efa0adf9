package httpapi

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"

	"github.com/Sebastiano1412/aerosachs-pilot-gallery/internal/services"
)

// ListPhotos serves the public monthly leaderboard: approved photos of the
// current period, most voted first.
func (s *Server) ListPhotos(w http.ResponseWriter, r *http.Request) {
	photos, err := services.ApprovedPhotos(s.DB, services.CurrentPeriod())
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	WriteJSON(w, http.StatusOK, map[string][]PhotoDTO{"items": buildPhotoDTOs(photos)})
}

func (s *Server) PhotoDetail(w http.ResponseWriter, r *http.Request) {
	photoID := chi.URLParam(r, "photoId")
	photo, err := services.GetPhoto(s.DB, photoID)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	if !photo.Approved {
		WriteError(w, http.StatusNotFound, "Photo not found")
		return
	}
	WriteJSON(w, http.StatusOK, buildPhotoDTO(photo))
}

func (s *Server) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	userID := CurrentUserID(r)
	if err := r.ParseMultipartForm(s.Config.MaxUploadBytes + (1 << 20)); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid upload")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "An image file is required")
		return
	}
	defer file.Close()
	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	photo, err := services.UploadPhoto(s.DB, s.Config.MediaStoragePath, s.limits(), s.Config.MaxUploadBytes, services.UploadInput{
		UserID:      userID,
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		Filename:    header.Filename,
		ContentType: contentType,
		SizeBytes:   header.Size,
		Body:        file,
	})
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, buildPhotoDTO(photo))
}

func (s *Server) VotePhoto(w http.ResponseWriter, r *http.Request) {
	userID := CurrentUserID(r)
	photoID := chi.URLParam(r, "photoId")
	if err := services.CastVote(s.DB, s.limits(), userID, photoID); err != nil {
		WriteServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// MediaContent streams stored photo bytes back to the browser.
func (s *Server) MediaContent(w http.ResponseWriter, r *http.Request) {
	assetID := chi.URLParam(r, "assetId")
	row := struct {
		Bucket      string  `db:"bucket"`
		StorageKey  string  `db:"storage_key"`
		Filename    *string `db:"filename"`
		ContentType string  `db:"content_type"`
	}{}
	if err := s.DB.Get(&row, `SELECT bucket, storage_key, filename, content_type FROM media_assets WHERE id = $1`, assetID); err != nil {
		WriteError(w, http.StatusNotFound, "Media not found")
		return
	}
	path := filepath.Join(s.Config.MediaStoragePath, row.Bucket, row.StorageKey)
	if _, err := os.Stat(path); err != nil {
		WriteError(w, http.StatusNotFound, "Media not found")
		return
	}
	if row.ContentType != "" {
		w.Header().Set("Content-Type", row.ContentType)
	}
	http.ServeFile(w, r, path)
}
