// Package storage enforces the one file contract the pipeline has:
// read <name>.png, write <name>.svg next to it. Local paths and
// s3://bucket/key locations share one interface.
package storage

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
)

// Store reads one source image and writes its converted markup.
type Store interface {
	// Name is the base name without extension, for logging.
	Name() string
	ReadImage(ctx context.Context) ([]byte, error)
	WriteMarkup(ctx context.Context, data string) error
}

// Open dispatches on the path scheme. The ".png" suffix is optional;
// it is appended when absent.
func Open(path string) (Store, error) {
	base := strings.TrimSuffix(path, ".png")
	if strings.HasPrefix(path, "s3://") {
		return openS3(base)
	}
	return &local{base: base}, nil
}

type local struct {
	base string
}

func (l *local) Name() string { return l.base }

func (l *local) ReadImage(ctx context.Context) ([]byte, error) {
	buf, err := os.ReadFile(l.base + ".png")
	if err != nil {
		return nil, fmt.Errorf("storage: %w", err)
	}
	return buf, nil
}

func (l *local) WriteMarkup(ctx context.Context, data string) error {
	if err := os.WriteFile(l.base+".svg", []byte(data), 0o644); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	return nil
}

type s3store struct {
	bucket string
	key    string // base key, no extension
	sess   *session.Session
}

func openS3(base string) (*s3store, error) {
	rest := strings.TrimPrefix(base, "s3://")
	bucket, key, ok := strings.Cut(rest, "/")
	if !ok || bucket == "" || key == "" {
		return nil, fmt.Errorf("storage: bad s3 path %q", base)
	}
	sess, err := session.NewSession()
	if err != nil {
		return nil, fmt.Errorf("storage: s3 session: %w", err)
	}
	return &s3store{bucket: bucket, key: key, sess: sess}, nil
}

func (s *s3store) Name() string { return "s3://" + s.bucket + "/" + s.key }

func (s *s3store) ReadImage(ctx context.Context) ([]byte, error) {
	buf := aws.NewWriteAtBuffer(nil)
	dl := s3manager.NewDownloader(s.sess)
	_, err := dl.DownloadWithContext(ctx, buf, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key + ".png"),
	})
	if err != nil {
		return nil, fmt.Errorf("storage: s3 download: %w", err)
	}
	return buf.Bytes(), nil
}

func (s *s3store) WriteMarkup(ctx context.Context, data string) error {
	up := s3manager.NewUploader(s.sess)
	_, err := up.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key + ".svg"),
		Body:        strings.NewReader(data),
		ContentType: aws.String("image/svg+xml"),
	})
	if err != nil {
		return fmt.Errorf("storage: s3 upload: %w", err)
	}
	return nil
}
