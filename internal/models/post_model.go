package models

import "time"

type Post struct {
	ID               int64             `db:"id" json:"id"`
	Content          string            `db:"content" json:"content"`
	MediaAssets      []int64           `db:"media_assets" json:"media_assets"`
	Channels         []int64           `db:"channels" json:"channels"`
	PlatformSettings map[string]string `db:"platform_settings" json:"platform_settings"`
	Status           string            `db:"status" json:"status"`
	ScheduledTime    *time.Time        `db:"scheduled_time" json:"scheduled_time,omitempty"`
	LastError        string            `db:"last_error" json:"last_error,omitempty"`
	RemoteMediaID    string            `db:"remote_media_id" json:"remote_media_id,omitempty"`
	LastAttemptAt    *time.Time        `db:"last_attempt_at" json:"last_attempt_at,omitempty"`
	CreatedAt        time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time         `db:"updated_at" json:"updated_at"`
}

const (
	PostStatusDraft      = "draft"
	PostStatusScheduled  = "scheduled"
	PostStatusPublishing = "publishing"
	PostStatusPublished  = "published"
	PostStatusFailed     = "failed"
)

// AllPostStatuses lists every status a post can carry, in lifecycle order.
var AllPostStatuses = []string{
	PostStatusDraft,
	PostStatusScheduled,
	PostStatusPublishing,
	PostStatusPublished,
	PostStatusFailed,
}

func IsValidPostStatus(status string) bool {
	for _, s := range AllPostStatuses {
		if s == status {
			return true
		}
	}
	return false
}
