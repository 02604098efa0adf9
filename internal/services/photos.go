package services

import (
	"database/sql"
	"errors"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"

	"github.com/Sebastiano1412/aerosachs-pilot-gallery/internal/models"
)

// UploadInput carries one contest submission from the multipart boundary.
type UploadInput struct {
	UserID      string
	Title       string
	Description string
	Filename    string
	ContentType string
	SizeBytes   int64
	Body        io.Reader
}

// UploadPhoto validates, quota-gates and stores one submission. The photo
// row snapshots the uploader's callsign and display name at upload time;
// later profile edits do not rewrite it.
func UploadPhoto(db *sqlx.DB, basePath string, limits Limits, maxBytes int64, in UploadInput) (models.Photo, error) {
	if err := ValidatePhotoMeta(in.Title, in.Description); err != nil {
		return models.Photo{}, err
	}
	if err := ValidatePhotoFile(in.ContentType, in.SizeBytes, maxBytes); err != nil {
		return models.Photo{}, err
	}

	var user models.User
	if err := db.Get(&user, `SELECT * FROM users WHERE id = $1`, in.UserID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Photo{}, ErrNotFound("User not found")
		}
		return models.Photo{}, WrapError(err, "load user")
	}

	period := CurrentPeriod()
	ok, err := CanUpload(db, limits, in.UserID, period)
	if err != nil {
		return models.Photo{}, err
	}
	if !ok {
		return models.Photo{}, ErrQuotaExceeded("Monthly upload limit reached")
	}

	assetID, _, err := SaveMediaAsset(db, basePath, BucketPhotos, in.ContentType, in.Filename, in.UserID, in.Body, maxBytes)
	if err != nil {
		return models.Photo{}, err
	}

	photo := models.Photo{
		ID:           uuid.NewString(),
		UserID:       in.UserID,
		Title:        in.Title,
		Description:  in.Description,
		MediaAssetID: assetID,
		Callsign:     user.Callsign,
		UploaderName: user.FirstName + " " + user.LastName,
		Approved:     false,
		VoteCount:    0,
		UploadMonth:  period.Month,
		UploadYear:   period.Year,
		CreatedAt:    time.Now().UTC(),
	}
	_, err = db.Exec(`
INSERT INTO photos (id, user_id, title, description, media_asset_id, callsign, uploader_name, approved, vote_count, upload_month, upload_year, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
`, photo.ID, photo.UserID, photo.Title, photo.Description, photo.MediaAssetID, photo.Callsign,
		photo.UploaderName, photo.Approved, photo.VoteCount, photo.UploadMonth, photo.UploadYear, photo.CreatedAt)
	if err != nil {
		_ = DeleteAsset(db, basePath, assetID)
		return models.Photo{}, WrapError(err, "insert photo")
	}
	return photo, nil
}

// CastVote records one vote. The vote insert and the counter increment run
// in a single transaction; a duplicate vote trips the unique constraint and
// rolls back before the counter is touched, so vote_count always equals the
// number of vote rows.
func CastVote(db *sqlx.DB, limits Limits, userID, photoID string) error {
	tx, err := db.Beginx()
	if err != nil {
		return WrapError(err, "begin vote")
	}
	defer func() { _ = tx.Rollback() }()

	photo := struct {
		UserID   string `db:"user_id"`
		Approved bool   `db:"approved"`
	}{}
	if err := tx.Get(&photo, `SELECT user_id, approved FROM photos WHERE id = $1`, photoID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound("Photo not found")
		}
		return WrapError(err, "load photo")
	}
	if !photo.Approved {
		return ErrNotFound("Photo not found")
	}
	if userID == "" {
		return ErrUnauthorized("Authentication required")
	}
	if userID == photo.UserID {
		return ErrSelfVote("You cannot vote for your own photo")
	}

	var used int
	if err := tx.Get(&used, `SELECT count(*) FROM votes WHERE user_id = $1`, userID); err != nil {
		return WrapError(err, "count votes")
	}
	if limits.Votes-used <= 0 {
		return ErrQuotaExceeded("Vote limit reached")
	}

	_, err = tx.Exec(`
INSERT INTO votes (id, photo_id, user_id, created_at)
VALUES ($1,$2,$3,$4)
`, uuid.NewString(), photoID, userID, time.Now().UTC())
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict("You already voted for this photo")
		}
		return WrapError(err, "insert vote")
	}
	if _, err := tx.Exec(`UPDATE photos SET vote_count = vote_count + 1 WHERE id = $1`, photoID); err != nil {
		return WrapError(err, "increment vote count")
	}
	return tx.Commit()
}

// ApprovePhoto flips a pending photo to approved. Re-approving is a no-op.
func ApprovePhoto(db *sqlx.DB, photoID string) error {
	result, err := db.Exec(`UPDATE photos SET approved = TRUE WHERE id = $1`, photoID)
	if err != nil {
		return WrapError(err, "approve photo")
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return ErrNotFound("Photo not found")
	}
	return nil
}

// RemovePhoto deletes the record, its votes (cascade) and the stored file.
// Staff reject and delete share these semantics.
func RemovePhoto(db *sqlx.DB, basePath, photoID string) error {
	var assetID string
	if err := db.Get(&assetID, `SELECT media_asset_id FROM photos WHERE id = $1`, photoID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound("Photo not found")
		}
		return WrapError(err, "load photo")
	}
	if _, err := db.Exec(`DELETE FROM photos WHERE id = $1`, photoID); err != nil {
		return WrapError(err, "delete photo")
	}
	_ = DeleteAsset(db, basePath, assetID)
	return nil
}

// ResetAllPhotos wipes every photo, its votes and stored files for all
// periods. Irreversible; confirmation belongs to the caller.
func ResetAllPhotos(db *sqlx.DB, basePath string) error {
	assetIDs := []string{}
	if err := db.Select(&assetIDs, `SELECT media_asset_id FROM photos`); err != nil {
		return WrapError(err, "list photo assets")
	}
	if _, err := db.Exec(`DELETE FROM photos`); err != nil {
		return WrapError(err, "reset photos")
	}
	for _, assetID := range assetIDs {
		_ = DeleteAsset(db, basePath, assetID)
	}
	return nil
}

func GetPhoto(db *sqlx.DB, photoID string) (models.Photo, error) {
	var photo models.Photo
	if err := db.Get(&photo, `SELECT * FROM photos WHERE id = $1`, photoID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Photo{}, ErrNotFound("Photo not found")
		}
		return models.Photo{}, WrapError(err, "load photo")
	}
	return photo, nil
}

// ApprovedPhotos lists the period's leaderboard, most voted first.
func ApprovedPhotos(db *sqlx.DB, period Period) ([]models.Photo, error) {
	photos := []models.Photo{}
	err := db.Select(&photos, `
SELECT * FROM photos
WHERE approved = TRUE AND upload_month = $1 AND upload_year = $2
ORDER BY vote_count DESC, created_at ASC
`, period.Month, period.Year)
	if err != nil {
		return nil, WrapError(err, "list approved photos")
	}
	return photos, nil
}

func PendingPhotos(db *sqlx.DB) ([]models.Photo, error) {
	photos := []models.Photo{}
	err := db.Select(&photos, `SELECT * FROM photos WHERE approved = FALSE ORDER BY created_at ASC`)
	if err != nil {
		return nil, WrapError(err, "list pending photos")
	}
	return photos, nil
}

func AllPhotos(db *sqlx.DB) ([]models.Photo, error) {
	photos := []models.Photo{}
	err := db.Select(&photos, `SELECT * FROM photos ORDER BY created_at DESC`)
	if err != nil {
		return nil, WrapError(err, "list photos")
	}
	return photos, nil
}

func UserPhotos(db *sqlx.DB, userID string, period Period) ([]models.Photo, error) {
	photos := []models.Photo{}
	err := db.Select(&photos, `
SELECT * FROM photos
WHERE user_id = $1 AND upload_month = $2 AND upload_year = $3
ORDER BY created_at DESC
`, userID, period.Month, period.Year)
	if err != nil {
		return nil, WrapError(err, "list user photos")
	}
	return photos, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
