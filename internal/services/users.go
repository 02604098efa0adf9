package services

import (
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/Sebastiano1412/aerosachs-pilot-gallery/internal/models"
)

func FindUser(db *sqlx.DB, userID string) (models.User, error) {
	var user models.User
	if err := db.Get(&user, `SELECT * FROM users WHERE id = $1`, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, ErrNotFound("User not found")
		}
		return models.User{}, WrapError(err, "load user")
	}
	return user, nil
}

func IsStaff(db *sqlx.DB, userID string) (bool, error) {
	var isStaff bool
	err := db.Get(&isStaff, `SELECT is_staff FROM users WHERE id = $1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return isStaff, err
}

func TouchLastSeen(db *sqlx.DB, userID string) error {
	_, err := db.Exec(`UPDATE users SET last_seen_at = $1 WHERE id = $2`, time.Now().UTC(), userID)
	return err
}

func SetLastLogin(db *sqlx.DB, userID string) error {
	now := time.Now().UTC()
	_, err := db.Exec(`UPDATE users SET last_login_at = $1, last_seen_at = $1 WHERE id = $2`, now, userID)
	return err
}

// DeleteUserAccount removes the user together with their photos and stored
// files. Foreign keys cascade the rows; media files need explicit cleanup
// before the photo rows disappear. The cascade also takes the user's votes
// with it, so the denormalized counters on the voted photos are decremented
// in the same transaction to keep them equal to the remaining vote rows.
func DeleteUserAccount(db *sqlx.DB, basePath, userID string) error {
	assetIDs := []string{}
	if err := db.Select(&assetIDs, `SELECT media_asset_id FROM photos WHERE user_id = $1`, userID); err != nil {
		return WrapError(err, "list user assets")
	}
	tx, err := db.Beginx()
	if err != nil {
		return WrapError(err, "begin delete user")
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.Exec(`
UPDATE photos SET vote_count = vote_count - 1
WHERE id IN (SELECT photo_id FROM votes WHERE user_id = $1)
`, userID)
	if err != nil {
		return WrapError(err, "release user votes")
	}
	result, err := tx.Exec(`DELETE FROM users WHERE id = $1`, userID)
	if err != nil {
		return WrapError(err, "delete user")
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return ErrNotFound("User not found")
	}
	if err := tx.Commit(); err != nil {
		return WrapError(err, "commit delete user")
	}
	for _, assetID := range assetIDs {
		_ = DeleteAsset(db, basePath, assetID)
	}
	return nil
}
