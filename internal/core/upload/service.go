package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/addinfi/makemyposts-be/internal/shared/config"
)

// LogoTypes are the MIME types accepted for brand logos. SVG is left out
// because it can carry script and logos may be served from the API origin.
var LogoTypes = []string{"image/jpeg", "image/jpg", "image/png", "image/webp"}

// LogoMaxSize is the largest accepted logo file
const LogoMaxSize = 5 * 1024 * 1024

// Service validates uploads and hands them to the configured provider
type Service struct {
	provider   Provider
	logoFolder string
	now        func() time.Time
}

// NewService creates a new upload service. logoFolder is the prefix used for
// brand logos inside the provider.
func NewService(provider Provider, logoFolder string) *Service {
	return &Service{
		provider:   provider,
		logoFolder: logoFolder,
		now:        time.Now,
	}
}

// NewProviderFromConfig picks the storage backend named by STORAGE_PROVIDER.
// The second return value is the folder logos go to inside that backend.
func NewProviderFromConfig(ctx context.Context, cfg *config.Config) (Provider, string, error) {
	switch cfg.StorageProvider {
	case "supabase":
		p, err := NewSupabaseProvider(ctx, cfg.SupabaseURL, S3Config{
			AccessKeyID:     cfg.SupabaseS3AccessKey,
			SecretAccessKey: cfg.SupabaseS3SecretKey,
			Region:          cfg.SupabaseS3Region,
			Bucket:          cfg.StorageBucket,
			Endpoint:        cfg.SupabaseS3Endpoint,
			PublicBaseURL:   cfg.StoragePublicURL,
		})
		return p, "", err

	case "s3":
		p, err := NewS3Provider(ctx, S3Config{
			AccessKeyID:     cfg.SupabaseS3AccessKey,
			SecretAccessKey: cfg.SupabaseS3SecretKey,
			Region:          cfg.SupabaseS3Region,
			Bucket:          cfg.StorageBucket,
			Endpoint:        cfg.SupabaseS3Endpoint,
			PublicBaseURL:   cfg.StoragePublicURL,
		})
		return p, "", err

	case "cloudinary":
		p, err := NewCloudinaryProvider(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret)
		return p, cfg.StorageBucket, err

	case "local", "":
		baseURL := cfg.StoragePublicURL
		if baseURL == "" {
			baseURL = fmt.Sprintf("http://localhost:%s", cfg.Port)
		}
		p, err := NewLocalProvider(cfg.StorageLocalPath, baseURL)
		return p, cfg.StorageBucket, err

	default:
		return nil, "", fmt.Errorf("unknown storage provider %q", cfg.StorageProvider)
	}
}

// UploadMultipart validates a form file against options and uploads it
func (s *Service) UploadMultipart(ctx context.Context, fileHeader *multipart.FileHeader, options *UploadOptions) (*UploadResult, error) {
	if s.provider == nil {
		return nil, fmt.Errorf("upload provider not configured")
	}
	options = MergeOptions(options)

	contentType := fileHeader.Header.Get("Content-Type")
	if len(options.AllowedTypes) > 0 && !contains(options.AllowedTypes, contentType) {
		return nil, fmt.Errorf("%w: %s", ErrFileTypeNotAllowed, contentType)
	}
	if options.MaxSize > 0 && fileHeader.Size > options.MaxSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrFileTooLarge, options.MaxSize)
	}

	file, err := fileHeader.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer file.Close()

	return s.provider.Upload(ctx, file, fileHeader.Filename, options)
}

// UploadLogo stores a brand logo as <userID>-<unix ms>.<ext>
func (s *Service) UploadLogo(ctx context.Context, userID string, fileHeader *multipart.FileHeader) (*UploadResult, error) {
	if userID == "" {
		return nil, fmt.Errorf("user id is required")
	}

	// The stored extension follows the sniffed content, never the client's filename.
	sniffed, err := sniffContentType(fileHeader)
	if err != nil {
		return nil, err
	}
	if !contains(LogoTypes, sniffed) {
		return nil, fmt.Errorf("%w: content is %s", ErrFileTypeNotAllowed, sniffed)
	}
	// Provider keeps the extension from the filename it is handed.
	fileHeader.Filename = fmt.Sprintf("%s-%d%s", userID, s.now().UnixMilli(), extensionFor(sniffed))

	result, err := s.UploadMultipart(ctx, fileHeader, &UploadOptions{
		Folder:       s.logoFolder,
		AllowedTypes: LogoTypes,
		MaxSize:      LogoMaxSize,
		Width:        512,
		Height:       512,
	})
	if err != nil {
		return nil, err
	}

	log.Printf("✅ Logo uploaded for %s: %s", userID, result.URL)
	return result, nil
}

// Delete deletes a file by public ID
func (s *Service) Delete(ctx context.Context, publicID string) error {
	if s.provider == nil {
		return fmt.Errorf("upload provider not configured")
	}
	return s.provider.Delete(ctx, publicID)
}

// GetProviderName returns the current provider name
func (s *Service) GetProviderName() string {
	if s.provider == nil {
		return ""
	}
	return s.provider.GetProviderName()
}

func sniffContentType(fileHeader *multipart.FileHeader) (string, error) {
	file, err := fileHeader.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer file.Close()

	head := make([]byte, 512)
	n, err := io.ReadFull(file, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read uploaded file: %w", err)
	}
	return http.DetectContentType(head[:n]), nil
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	default:
		return ".bin"
	}
}
