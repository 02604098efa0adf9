package models

import "time"

type User struct {
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
}

type Photo struct {
	ID           string    `db:"id"`
	UserID       string    `db:"user_id"`
	Title        string    `db:"title"`
	Description  string    `db:"description"`
	MediaAssetID string    `db:"media_asset_id"`
	Callsign     string    `db:"callsign"`
	UploaderName string    `db:"uploader_name"`
	Approved     bool      `db:"approved"`
	VoteCount    int       `db:"vote_count"`
	UploadMonth  int       `db:"upload_month"`
	UploadYear   int       `db:"upload_year"`
	CreatedAt    time.Time `db:"created_at"`
}

type Vote struct {
	ID        string    `db:"id"`
	PhotoID   string    `db:"photo_id"`
	UserID    string    `db:"user_id"`
	CreatedAt time.Time `db:"created_at"`
}

type MediaAsset struct {
	ID          string    `db:"id"`
	OwnerUserID *string   `db:"owner_user_id"`
	Bucket      string    `db:"bucket"`
	StorageKey  string    `db:"storage_key"`
	Filename    *string   `db:"filename"`
	ContentType string    `db:"content_type"`
	SizeBytes   int64     `db:"size_bytes"`
	Sha256      *string   `db:"sha256"`
	CreatedAt   time.Time `db:"created_at"`
}

type ServerMetricSample struct {
	ID                string    `db:"id"`
	CapturedAt        time.Time `db:"captured_at"`
	ProcessRSSBytes   int64     `db:"process_rss_bytes"`
	SystemMemoryTotal int64     `db:"system_memory_total_bytes"`
	SystemMemoryUsed  int64     `db:"system_memory_used_bytes"`
	DiskTotalBytes    int64     `db:"disk_total_bytes"`
	DiskUsedBytes     int64     `db:"disk_used_bytes"`
	ProcessCpuLoad    float64   `db:"process_cpu_load"`
	SystemCpuLoad     float64   `db:"system_cpu_load"`
}
