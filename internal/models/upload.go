package models

import "github.com/phambaophuc/image-publisher/internal/config"

// RawUpload is what the router extracted from the multipart submission,
// before any validation.
type RawUpload struct {
	Image        []byte
	HasImage     bool
	FileName     string
	DeclaredMIME string
	SniffedMIME  string
	TypeTag      string
}

// UploadRequest is a validated submission. It is not modified after validation.
type UploadRequest struct {
	Image    []byte
	MIMEType string
	TypeTag  string
	FileName string
	Entry    config.CatalogEntry
}

type UploadResult struct {
	ImageID     string
	FullURL     string
	ThumbURL    string
	FileName    string
	TypeTag     string
	Watermarked bool
	Deduped     bool
}

type UploadResponse struct {
	Message  string `json:"message"`
	FileName string `json:"fileName"`
	Type     string `json:"type"`
	FullURL  string `json:"fullUrl"`
	ThumbURL string `json:"thumbUrl"`
	ImageID  string `json:"imageId"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
