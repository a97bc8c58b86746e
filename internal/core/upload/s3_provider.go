package upload

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Config describes an S3-compatible bucket. Endpoint is set for
// non-AWS stores such as Supabase storage.
type S3Config struct {
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	Bucket          string
	Endpoint        string
	PublicBaseURL   string
}

// S3Provider implements file upload to AWS S3 or an S3-compatible endpoint
type S3Provider struct {
	client     *s3.Client
	bucketName string
	baseURL    string
	custom     bool
	name       string
}

// NewS3Provider creates a new S3 provider
func NewS3Provider(ctx context.Context, c S3Config) (*S3Provider, error) {
	if c.Bucket == "" {
		return nil, fmt.Errorf("storage bucket is required")
	}

	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(c.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			c.AccessKeyID,
			c.SecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	p := &S3Provider{
		bucketName: c.Bucket,
		baseURL:    strings.TrimSuffix(c.PublicBaseURL, "/"),
		custom:     c.Endpoint != "",
		name:       "AWS S3",
	}

	p.client = s3.NewFromConfig(cfg, func(o *s3.Options) {
		if p.custom {
			o.BaseEndpoint = aws.String(c.Endpoint)
			o.UsePathStyle = true
		}
	})

	if p.custom {
		p.name = "S3 Compatible Storage"
	}
	if p.baseURL == "" {
		p.baseURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", c.Bucket, c.Region)
	}

	return p, nil
}

// NewSupabaseProvider targets the Supabase storage S3 endpoint. Objects are
// served from the bucket's public URL.
func NewSupabaseProvider(ctx context.Context, supabaseURL string, c S3Config) (*S3Provider, error) {
	if c.Endpoint == "" && supabaseURL != "" {
		c.Endpoint = strings.TrimSuffix(supabaseURL, "/") + "/storage/v1/s3"
	}
	if c.Endpoint == "" {
		return nil, fmt.Errorf("SUPABASE_URL or SUPABASE_S3_ENDPOINT is required")
	}
	if c.PublicBaseURL == "" && supabaseURL != "" {
		c.PublicBaseURL = fmt.Sprintf("%s/storage/v1/object/public/%s", strings.TrimSuffix(supabaseURL, "/"), c.Bucket)
	}

	p, err := NewS3Provider(ctx, c)
	if err != nil {
		return nil, err
	}
	p.name = "Supabase Storage"
	return p, nil
}

func (p *S3Provider) Upload(ctx context.Context, file io.Reader, filename string, options *UploadOptions) (*UploadResult, error) {
	options = MergeOptions(options)

	ext := strings.ToLower(filepath.Ext(filename))
	name := options.PublicID
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	}
	key := objectKey(options.Folder, name+ext)

	// Buffered so the SDK gets a seekable body with a known length.
	var buf bytes.Buffer
	size, err := io.Copy(&buf, io.LimitReader(file, options.MaxSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if size > options.MaxSize {
		return nil, fmt.Errorf("file size exceeds maximum allowed size: %d bytes", options.MaxSize)
	}

	contentType := detectContentType(ext)
	input := &s3.PutObjectInput{
		Bucket:        aws.String(p.bucketName),
		Key:           aws.String(key),
		Body:          bytes.NewReader(buf.Bytes()),
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
	}
	if !p.custom {
		input.ACL = "public-read"
	}
	if !options.Overwrite {
		input.IfNoneMatch = aws.String("*")
	}

	if _, err := p.client.PutObject(ctx, input); err != nil {
		return nil, fmt.Errorf("failed to upload to %s: %w", p.name, err)
	}

	return &UploadResult{
		URL:         p.GetURL(key),
		FileName:    filename,
		Size:        size,
		Format:      strings.TrimPrefix(ext, "."),
		ContentType: contentType,
		PublicID:    key,
	}, nil
}

func (p *S3Provider) Delete(ctx context.Context, publicID string) error {
	_, err := p.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(p.bucketName),
		Key:    aws.String(publicID),
	})
	if err != nil {
		return fmt.Errorf("failed to delete from %s: %w", p.name, err)
	}
	return nil
}

func (p *S3Provider) GetURL(publicID string) string {
	return fmt.Sprintf("%s/%s", p.baseURL, publicID)
}

func (p *S3Provider) GetProviderName() string {
	return p.name
}
