package upload

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// CloudinaryProvider implements file upload to Cloudinary
type CloudinaryProvider struct {
	cld       *cloudinary.Cloudinary
	cloudName string
}

// NewCloudinaryProvider creates a new Cloudinary provider
func NewCloudinaryProvider(cloudName, apiKey, apiSecret string) (*CloudinaryProvider, error) {
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Cloudinary: %w", err)
	}

	return &CloudinaryProvider{
		cld:       cld,
		cloudName: cloudName,
	}, nil
}

func (p *CloudinaryProvider) Upload(ctx context.Context, file io.Reader, filename string, options *UploadOptions) (*UploadResult, error) {
	options = MergeOptions(options)

	ext := strings.ToLower(filepath.Ext(filename))
	publicID := options.PublicID
	if publicID == "" {
		publicID = strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	}

	params := uploader.UploadParams{
		Folder:       options.Folder,
		PublicID:     publicID,
		ResourceType: "image",
		Overwrite:    &options.Overwrite,
	}

	// Logos are shrunk to fit, never cropped.
	if options.Width > 0 || options.Height > 0 {
		var parts []string
		if options.Width > 0 {
			parts = append(parts, fmt.Sprintf("w_%d", options.Width))
		}
		if options.Height > 0 {
			parts = append(parts, fmt.Sprintf("h_%d", options.Height))
		}
		parts = append(parts, "c_limit")
		params.Transformation = strings.Join(parts, ",")
	}

	result, err := p.cld.Upload.Upload(ctx, io.LimitReader(file, options.MaxSize+1), params)
	if err != nil {
		return nil, fmt.Errorf("failed to upload to Cloudinary: %w", err)
	}
	if result.Error.Message != "" {
		return nil, fmt.Errorf("failed to upload to Cloudinary: %s", result.Error.Message)
	}
	if int64(result.Bytes) > options.MaxSize {
		_ = p.Delete(ctx, result.PublicID)
		return nil, fmt.Errorf("file size exceeds maximum allowed size: %d bytes", options.MaxSize)
	}

	return &UploadResult{
		URL:         result.SecureURL,
		FileName:    filename,
		Size:        int64(result.Bytes),
		Format:      result.Format,
		ContentType: detectContentType(ext),
		PublicID:    result.PublicID,
	}, nil
}

func (p *CloudinaryProvider) Delete(ctx context.Context, publicID string) error {
	result, err := p.cld.Upload.Destroy(ctx, uploader.DestroyParams{
		PublicID:     publicID,
		ResourceType: "image",
	})
	if err != nil {
		return fmt.Errorf("failed to delete from Cloudinary: %w", err)
	}
	if result.Result != "ok" {
		return fmt.Errorf("Cloudinary delete failed: %s", result.Result)
	}
	return nil
}

func (p *CloudinaryProvider) GetURL(publicID string) string {
	return fmt.Sprintf("https://res.cloudinary.com/%s/image/upload/%s", p.cloudName, publicID)
}

func (p *CloudinaryProvider) GetProviderName() string {
	return "Cloudinary"
}
