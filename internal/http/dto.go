package httpapi

import (
	"time"

	"github.com/Sebastiano1412/aerosachs-pilot-gallery/internal/models"
	"github.com/Sebastiano1412/aerosachs-pilot-gallery/internal/services"
)

type UserDTO struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	Callsign    string     `json:"callsign"`
	FirstName   string     `json:"firstName"`
	LastName    string     `json:"lastName"`
	IsStaff     bool       `json:"isStaff"`
	CreatedAt   time.Time  `json:"createdAt"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`
}

type PhotoDTO struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	ImageURL     string    `json:"imageUrl"`
	Callsign     string    `json:"callsign"`
	UploaderName string    `json:"uploaderName"`
	Approved     bool      `json:"approved"`
	VoteCount    int       `json:"voteCount"`
	UploadMonth  int       `json:"uploadMonth"`
	UploadYear   int       `json:"uploadYear"`
	CreatedAt    time.Time `json:"createdAt"`
}

func buildUserDTO(user models.User) UserDTO {
	return UserDTO{
		ID:          user.ID,
		Email:       user.Email,
		Callsign:    user.Callsign,
		FirstName:   user.FirstName,
		LastName:    user.LastName,
		IsStaff:     user.IsStaff,
		CreatedAt:   user.CreatedAt,
		LastLoginAt: user.LastLoginAt,
	}
}

func buildPhotoDTO(photo models.Photo) PhotoDTO {
	return PhotoDTO{
		ID:           photo.ID,
		UserID:       photo.UserID,
		Title:        photo.Title,
		Description:  photo.Description,
		ImageURL:     services.BuildAssetURL(photo.MediaAssetID),
		Callsign:     photo.Callsign,
		UploaderName: photo.UploaderName,
		Approved:     photo.Approved,
		VoteCount:    photo.VoteCount,
		UploadMonth:  photo.UploadMonth,
		UploadYear:   photo.UploadYear,
		CreatedAt:    photo.CreatedAt,
	}
}

func buildPhotoDTOs(photos []models.Photo) []PhotoDTO {
	items := make([]PhotoDTO, 0, len(photos))
	for _, photo := range photos {
		items = append(items, buildPhotoDTO(photo))
	}
	return items
}
