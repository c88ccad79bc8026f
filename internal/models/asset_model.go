package models

import "time"

// Asset is an uploaded or generated media file. FilePath is either a local
// path under the media directory or an absolute URL when the file lives in
// object storage.
type Asset struct {
	ID        int64     `db:"id" json:"id"`
	FilePath  string    `db:"file_path" json:"file_path"`
	AssetType string    `db:"asset_type" json:"asset_type"`
	Prompt    string    `db:"prompt" json:"prompt,omitempty"`
	FileSize  int64     `db:"file_size" json:"file_size"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

const (
	AssetTypeImage = "image"
	AssetTypeVideo = "video"
)
