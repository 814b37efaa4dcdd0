package helpers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"google.golang.org/api/option"
)

// MediaUploader is the hosted-image collaborator boundary: it takes a local
// file path and returns a publicly reachable URL.
type MediaUploader interface {
	Upload(ctx context.Context, localPath string) (string, error)
}

// NewGCSClient creates a Google Cloud Storage client. If credsPath is empty, ADC is used.
func NewGCSClient(ctx context.Context, credsPath string) (*storage.Client, error) {
	if credsPath == "" {
		return storage.NewClient(ctx)
	}
	return storage.NewClient(ctx, option.WithCredentialsFile(credsPath))
}

// GCSUploader uploads local files into a bucket folder. Every upload is
// bounded by Timeout so a stalled transfer cannot hang the whole request.
type GCSUploader struct {
	Client  *storage.Client
	Bucket  string
	Folder  string
	Timeout time.Duration
}

func NewGCSUploader(client *storage.Client, bucket, folder string, timeout time.Duration) *GCSUploader {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &GCSUploader{Client: client, Bucket: bucket, Folder: folder, Timeout: timeout}
}

func (u *GCSUploader) Upload(ctx context.Context, localPath string) (string, error) {
	if u.Client == nil || u.Bucket == "" {
		return "", errors.New("gcs not configured")
	}
	f, err := os.Open(localPath)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()

	ext := strings.ToLower(filepath.Ext(localPath))
	contentType := mime.TypeByExtension(ext)
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	objectPath := filepath.ToSlash(filepath.Join(u.Folder, uuid.NewString()+ext))

	ctx, cancel := context.WithTimeout(ctx, u.Timeout)
	defer cancel()
	return UploadObject(ctx, u.Client, u.Bucket, objectPath, contentType, f)
}

// UploadObject uploads bytes from r into bucket/objectPath with the provided contentType
func UploadObject(ctx context.Context, client *storage.Client, bucket, objectPath, contentType string, r io.Reader) (string, error) {
	wc := client.Bucket(bucket).Object(objectPath).NewWriter(ctx)
	wc.ContentType = contentType
	wc.ChunkSize = 0 // disable chunking for small files
	if _, err := io.Copy(wc, r); err != nil {
		_ = wc.Close()
		return "", err
	}
	if err := wc.Close(); err != nil {
		return "", err
	}
	return PublicURL(bucket, objectPath), nil
}

// PublicURL builds a public URL for an object (assuming public read access or signed URLs)
func PublicURL(bucket, objectPath string) string {
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", bucket, objectPath)
}
