package upload

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
)

var (
	ErrFileTypeNotAllowed = errors.New("file type not allowed")
	ErrFileTooLarge       = errors.New("file size exceeds maximum allowed size")
)

// UploadResult represents the result of a file upload
type UploadResult struct {
	URL         string `json:"url"`          // Public URL to access the file
	FileName    string `json:"file_name"`    // Original filename
	Size        int64  `json:"size"`         // File size in bytes
	Format      string `json:"format"`       // File extension without the dot
	ContentType string `json:"content_type"` // MIME type sent to the store
	PublicID    string `json:"public_id"`    // Provider-specific identifier
}

// UploadOptions represents upload configuration options
type UploadOptions struct {
	Folder       string   // Folder/prefix inside the bucket
	PublicID     string   // Object name without extension
	Overwrite    bool     // Overwrite existing object
	AllowedTypes []string // Allowed MIME types
	MaxSize      int64    // Max file size in bytes
	// Image-specific options, honoured by providers that transform on upload
	Width  int
	Height int
}

// Provider defines the interface for object storage backends
type Provider interface {
	// Upload stores the content under the options' folder and public ID
	Upload(ctx context.Context, file io.Reader, filename string, options *UploadOptions) (*UploadResult, error)

	// Delete deletes a file by public ID
	Delete(ctx context.Context, publicID string) error

	// GetURL gets the public URL for a file
	GetURL(publicID string) string

	// GetProviderName returns the provider name
	GetProviderName() string
}

// DefaultUploadOptions returns default upload options
func DefaultUploadOptions() *UploadOptions {
	return &UploadOptions{
		Folder:       "uploads",
		AllowedTypes: []string{"image/jpeg", "image/jpg", "image/png", "image/gif", "image/webp"},
		MaxSize:      10 * 1024 * 1024, // 10MB
	}
}

// MergeOptions merges custom options with defaults
func MergeOptions(custom *UploadOptions) *UploadOptions {
	defaults := DefaultUploadOptions()

	if custom == nil {
		return defaults
	}

	// An explicit empty folder is meaningful for bucket-root objects, so it is kept as given.
	defaults.Folder = custom.Folder
	if custom.PublicID != "" {
		defaults.PublicID = custom.PublicID
	}
	if len(custom.AllowedTypes) > 0 {
		defaults.AllowedTypes = custom.AllowedTypes
	}
	if custom.MaxSize > 0 {
		defaults.MaxSize = custom.MaxSize
	}
	if custom.Width > 0 {
		defaults.Width = custom.Width
	}
	if custom.Height > 0 {
		defaults.Height = custom.Height
	}
	defaults.Overwrite = custom.Overwrite

	return defaults
}

// objectKey joins folder and name with forward slashes regardless of OS
func objectKey(folder, name string) string {
	if folder == "" {
		return name
	}
	return strings.Trim(filepath.ToSlash(folder), "/") + "/" + name
}

func detectContentType(ext string) string {
	switch strings.ToLower(ext) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	case ".svg":
		return "image/svg+xml"
	default:
		return "application/octet-stream"
	}
}
