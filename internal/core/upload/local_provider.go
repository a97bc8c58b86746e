package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalProvider stores files on disk and serves them under /uploads/
type LocalProvider struct {
	basePath   string
	baseURL    string
	publicPath string
}

// NewLocalProvider creates a new local file storage provider
func NewLocalProvider(basePath, baseURL string) (*LocalProvider, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}

	return &LocalProvider{
		basePath:   basePath,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		publicPath: "/uploads/",
	}, nil
}

func (p *LocalProvider) Upload(ctx context.Context, file io.Reader, filename string, options *UploadOptions) (*UploadResult, error) {
	options = MergeOptions(options)

	ext := strings.ToLower(filepath.Ext(filename))
	name := options.PublicID
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	}
	key := objectKey(options.Folder, name+ext)

	filePath := filepath.Join(p.basePath, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create folder: %w", err)
	}

	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if !options.Overwrite {
		flags = os.O_WRONLY | os.O_CREATE | os.O_EXCL
	}
	out, err := os.OpenFile(filePath, flags, 0644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("file already exists: %s", key)
		}
		return nil, fmt.Errorf("failed to create file: %w", err)
	}

	size, err := io.Copy(out, io.LimitReader(file, options.MaxSize+1))
	out.Close()
	if err != nil {
		os.Remove(filePath)
		return nil, fmt.Errorf("failed to write file: %w", err)
	}
	if size > options.MaxSize {
		os.Remove(filePath)
		return nil, fmt.Errorf("file size exceeds maximum allowed size: %d bytes", options.MaxSize)
	}

	return &UploadResult{
		URL:         p.GetURL(key),
		FileName:    filename,
		Size:        size,
		Format:      strings.TrimPrefix(ext, "."),
		ContentType: detectContentType(ext),
		PublicID:    key,
	}, nil
}

func (p *LocalProvider) Delete(ctx context.Context, publicID string) error {
	filePath := filepath.Join(p.basePath, filepath.FromSlash(publicID))
	if !strings.HasPrefix(filepath.Clean(filePath), filepath.Clean(p.basePath)) {
		return fmt.Errorf("invalid public id: %s", publicID)
	}

	if err := os.Remove(filePath); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("file not found: %s", publicID)
		}
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

func (p *LocalProvider) GetURL(publicID string) string {
	return p.baseURL + p.publicPath + publicID
}

func (p *LocalProvider) GetProviderName() string {
	return "Local Storage"
}

// BasePath is the directory served under /uploads
func (p *LocalProvider) BasePath() string {
	return p.basePath
}
