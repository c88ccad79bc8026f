package models

import "time"

// Channel is a connected social account. AccessToken is stored encrypted and
// never serialized in API responses.
type Channel struct {
	ID          int64     `db:"id" json:"id"`
	Platform    string    `db:"platform" json:"platform"`
	Name        string    `db:"name" json:"name"`
	AccountID   string    `db:"account_id" json:"account_id"`
	AccessToken string    `db:"access_token" json:"-"`
	IsActive    bool      `db:"is_active" json:"is_active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

const (
	PlatformInstagram = "instagram"
	PlatformLinkedin  = "linkedin"
	PlatformTwitter   = "twitter"
)
