package services

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const BucketPhotos = "photos"

func EnsureStoragePath(base string, bucket string) (string, error) {
	path := filepath.Join(base, bucket)
	if err := os.MkdirAll(path, 0755); err != nil {
		return "", err
	}
	return path, nil
}

// SaveMediaAsset streams body to disk under a fresh uuid key and records the
// asset row. The file is unlinked again if the row insert fails, so the
// database stays the source of truth.
func SaveMediaAsset(db *sqlx.DB, basePath, bucket, contentType, filename, ownerID string, body io.Reader, maxBytes int64) (string, string, error) {
	assetID := uuid.NewString()
	storageKey := assetID
	bucketPath, err := EnsureStoragePath(basePath, bucket)
	if err != nil {
		return "", "", err
	}
	targetPath := filepath.Join(bucketPath, storageKey)

	file, err := os.Create(targetPath)
	if err != nil {
		return "", "", err
	}
	hasher := sha256.New()
	writer := io.MultiWriter(file, hasher)
	size, err := io.Copy(writer, io.LimitReader(body, maxBytes+1))
	_ = file.Close()
	if err != nil {
		_ = os.Remove(targetPath)
		return "", "", err
	}
	if size == 0 {
		_ = os.Remove(targetPath)
		return "", "", ErrBadRequest("File is empty")
	}
	if size > maxBytes {
		_ = os.Remove(targetPath)
		return "", "", ErrBadRequest("Image must not exceed 5MB")
	}
	sha := hex.EncodeToString(hasher.Sum(nil))

	_, err = db.Exec(`
INSERT INTO media_assets (id, owner_user_id, bucket, storage_key, filename, content_type, size_bytes, sha256, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
`, assetID, ownerID, bucket, storageKey, filename, contentType, size, sha, time.Now().UTC())
	if err != nil {
		_ = os.Remove(targetPath)
		return "", "", err
	}
	return assetID, BuildAssetURL(assetID), nil
}

func BuildAssetURL(assetID string) string {
	return "/api/media/assets/" + assetID + "/content"
}

func DeleteAsset(db *sqlx.DB, basePath string, assetID string) error {
	row := struct {
		Bucket     string `db:"bucket"`
		StorageKey string `db:"storage_key"`
	}{}
	if err := db.Get(&row, `SELECT bucket, storage_key FROM media_assets WHERE id = $1`, assetID); err != nil {
		return nil
	}
	_, _ = db.Exec(`DELETE FROM media_assets WHERE id = $1`, assetID)
	_ = os.Remove(filepath.Join(basePath, row.Bucket, row.StorageKey))
	return nil
}
