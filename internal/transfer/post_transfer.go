package transfer

type PostCreation struct {
	Content          string            `json:"content"`
	MediaAssets      []int64           `json:"media_assets"`
	Channels         []int64           `json:"channels"`
	Status           string            `json:"status"`
	ScheduledTime    string            `json:"scheduled_time"`
	PlatformSettings map[string]string `json:"platform_settings"`
}

type PostUpdate struct {
	Content          *string           `json:"content"`
	MediaAssets      []int64           `json:"media_assets"`
	Channels         []int64           `json:"channels"`
	ScheduledTime    *string           `json:"scheduled_time"`
	PlatformSettings map[string]string `json:"platform_settings"`
}

type ScheduleRequest struct {
	ScheduledTime string `json:"scheduled_time"`
}

type ChannelConnect struct {
	Platform    string `json:"platform"`
	Name        string `json:"name"`
	AccountID   string `json:"user_id"`
	AccessToken string `json:"access_token"`
}

// Credentials is a resolved user-id/token pair for a platform API.
type Credentials struct {
	AccountID   string
	AccessToken string
}
