package service

import (
	"errors"
	"fmt"
)

var (
	ErrPostNotFound      = errors.New("post not found")
	ErrAssetNotFound     = errors.New("asset not found")
	ErrNoCredentials     = errors.New("no instagram credentials found: set INSTAGRAM_USER_ID and INSTAGRAM_ACCESS_TOKEN or connect a channel")
	ErrNoChannel         = errors.New("post has no publishable instagram channel")
	ErrAlreadyPublishing = errors.New("post is already publishing or published")
	ErrNotEditable       = errors.New("only draft posts can be edited")
)

// HostingError is returned when the image hosting endpoint rejects an upload.
type HostingError struct {
	StatusCode int
	Message    string
}

func (e *HostingError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("hosting upload failed (status %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("hosting upload failed: %s", e.Message)
}

// RemoteAPIError is a failure reported by the remote publishing platform.
// TokenExpired marks the expired/invalid-session condition so callers can
// surface it distinctly from generic API failures.
type RemoteAPIError struct {
	Code         int
	Type         string
	Message      string
	TokenExpired bool
}

func (e *RemoteAPIError) Error() string {
	if e.TokenExpired {
		return fmt.Sprintf("instagram access token has expired: %s. Update INSTAGRAM_ACCESS_TOKEN or reconnect the channel", e.Message)
	}
	return fmt.Sprintf("instagram api error: %s (code: %d, type: %s)", e.Message, e.Code, e.Type)
}

func IsTokenExpired(err error) bool {
	var apiErr *RemoteAPIError
	return errors.As(err, &apiErr) && apiErr.TokenExpired
}
