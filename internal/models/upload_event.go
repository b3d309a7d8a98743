package models

import "time"

// UploadEvent is published after a successful upload.
type UploadEvent struct {
	ImageID     string    `json:"image_id"`
	Type        string    `json:"type"`
	FileName    string    `json:"file_name"`
	FullURL     string    `json:"full_url"`
	ThumbURL    string    `json:"thumb_url"`
	Strategy    string    `json:"strategy"`
	Watermarked bool      `json:"watermarked"`
	Deduped     bool      `json:"deduped"`
	CreatedAt   time.Time `json:"created_at"`
}
