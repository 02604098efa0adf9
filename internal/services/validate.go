package services

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	MaxTitleLength       = 100
	MaxDescriptionLength = 500
	MinPasswordLength    = 6
)

// Pilot callsigns are "ASX" followed by exactly three digits, e.g. ASX010.
var callsignPattern = regexp.MustCompile(`^ASX[0-9]{3}$`)

// NormalizeCallsign uppercases and trims raw input so that "asx010"
// validates the same as "ASX010".
func NormalizeCallsign(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

func ValidateCallsign(callsign string) error {
	if !callsignPattern.MatchString(callsign) {
		return ErrBadRequest("Callsign must be ASX followed by three digits (e.g. ASX010)")
	}
	return nil
}

func ValidatePhotoMeta(title, description string) error {
	title = strings.TrimSpace(title)
	description = strings.TrimSpace(description)
	if title == "" {
		return ErrBadRequest("Title is required")
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return ErrBadRequest("Title must be at most 100 characters")
	}
	if description == "" {
		return ErrBadRequest("Description is required")
	}
	if utf8.RuneCountInString(description) > MaxDescriptionLength {
		return ErrBadRequest("Description must be at most 500 characters")
	}
	return nil
}

// ValidatePhotoFile checks the declared content type and size before any
// bytes are written to storage.
func ValidatePhotoFile(contentType string, sizeBytes, maxBytes int64) error {
	if !strings.HasPrefix(contentType, "image/") {
		return ErrBadRequest("File must be an image")
	}
	if sizeBytes <= 0 {
		return ErrBadRequest("File is empty")
	}
	if sizeBytes > maxBytes {
		return ErrBadRequest("Image must not exceed 5MB")
	}
	return nil
}

func ValidatePassword(password string, confirm *string) error {
	if len(password) < MinPasswordLength {
		return ErrBadRequest("Password must contain at least 6 characters")
	}
	if confirm != nil && password != *confirm {
		return ErrBadRequest("Password confirmation does not match")
	}
	return nil
}

func ValidateEmail(email string) error {
	if email == "" || !strings.Contains(email, "@") {
		return ErrBadRequest("A valid email address is required")
	}
	return nil
}
