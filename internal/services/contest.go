package services

import (
	"time"

	"github.com/jmoiron/sqlx"
)

// Period is the (month, year) pair that scopes upload quotas. It is derived
// from the clock at call time, never stored on its own.
type Period struct {
	Month int
	Year  int
}

func CurrentPeriod() Period {
	now := time.Now().UTC()
	return Period{Month: int(now.Month()), Year: now.Year()}
}

// Limits carries the per-period contest caps from configuration.
type Limits struct {
	Uploads int
	Votes   int
}

// UploadCount counts the user's photos submitted in the given period.
// Photos from other months never count against the current quota.
func UploadCount(db *sqlx.DB, userID string, period Period) (int, error) {
	var count int
	err := db.Get(&count, `
SELECT count(*) FROM photos
WHERE user_id = $1 AND upload_month = $2 AND upload_year = $3
`, userID, period.Month, period.Year)
	if err != nil {
		return 0, WrapError(err, "count uploads")
	}
	return count, nil
}

// VoteCount counts all votes the user has cast. There is no period filter:
// vote quota accumulates until the staff reset wipes the vote table.
func VoteCount(db *sqlx.DB, userID string) (int, error) {
	var count int
	err := db.Get(&count, `SELECT count(*) FROM votes WHERE user_id = $1`, userID)
	if err != nil {
		return 0, WrapError(err, "count votes")
	}
	return count, nil
}

func RemainingUploads(db *sqlx.DB, limits Limits, userID string, period Period) (int, error) {
	count, err := UploadCount(db, userID, period)
	if err != nil {
		return 0, err
	}
	return limits.Uploads - count, nil
}

func RemainingVotes(db *sqlx.DB, limits Limits, userID string) (int, error) {
	count, err := VoteCount(db, userID)
	if err != nil {
		return 0, err
	}
	return limits.Votes - count, nil
}

func CanUpload(db *sqlx.DB, limits Limits, userID string, period Period) (bool, error) {
	remaining, err := RemainingUploads(db, limits, userID, period)
	if err != nil {
		return false, err
	}
	return remaining > 0, nil
}

// CanVote gates a vote attempt: the caller must not own the photo and must
// have votes remaining. A failed count is an error, never an open gate.
func CanVote(db *sqlx.DB, limits Limits, userID, photoOwnerID string) (bool, error) {
	if userID == "" {
		return false, ErrUnauthorized("Authentication required")
	}
	if userID == photoOwnerID {
		return false, ErrSelfVote("You cannot vote for your own photo")
	}
	remaining, err := RemainingVotes(db, limits, userID)
	if err != nil {
		return false, err
	}
	return remaining > 0, nil
}

// ClampRemaining floors a raw remaining-quota value for display.
func ClampRemaining(remaining int) int {
	if remaining < 0 {
		return 0
	}
	return remaining
}
