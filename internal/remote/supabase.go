// Package remote adapts Supabase Storage to the object store used for
// artifact synchronization.
package remote

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"
	"sync"

	storage_go "github.com/supabase-community/storage-go"
)

// ErrInvalidURL is returned when the project URL is not an http(s) URL.
var ErrInvalidURL = errors.New("invalid supabase URL")

// storageClient is the subset of the storage-go client the store relies on.
type storageClient interface {
	UploadFile(bucketID, relativePath string, data io.Reader, opts ...storage_go.FileOptions) (storage_go.FileUploadResponse, error)
	UpdateFile(bucketID, relativePath string, data io.Reader, opts ...storage_go.FileOptions) (storage_go.FileUploadResponse, error)
	GetBucket(id string) (storage_go.Bucket, error)
	CreateBucket(id string, options storage_go.BucketOptions) (storage_go.Bucket, error)
	GetPublicUrl(bucketID, filePath string, opts ...storage_go.UrlOptions) storage_go.SignedUrlResponse
}

// BucketSpec describes a bucket created by EnsureBucket.
type BucketSpec struct {
	Public           bool
	FileSizeLimit    int64 // bytes, 0 = unlimited
	AllowedMimeTypes []string
}

// DefaultBucketSpec matches what the brochure bucket needs: public PDFs up to 50MB.
var DefaultBucketSpec = BucketSpec{
	Public:           true,
	FileSizeLimit:    50 << 20,
	AllowedMimeTypes: []string{"application/pdf"},
}

// SupabaseStore puts objects into Supabase Storage.
//
// The storage-go client keeps per-request headers (content type, upsert) on
// its shared transport, so every call holds mu for its whole duration.
type SupabaseStore struct {
	mu     sync.Mutex
	client storageClient
}

// NewSupabaseStore creates a store for the project at creds.URL.
func NewSupabaseStore(creds Credentials) (*SupabaseStore, error) {
	u, err := url.Parse(creds.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidURL, creds.URL)
	}
	endpoint := strings.TrimRight(creds.URL, "/") + "/storage/v1"
	return &SupabaseStore{client: storage_go.NewClient(endpoint, creds.Key, nil)}, nil
}

// PutObject uploads data under key. With upsert, an existing object is
// replaced: the upload carries x-upsert, and a conflict answer from servers
// that ignore it is resolved by updating the object in place.
func (s *SupabaseStore) PutObject(ctx context.Context, bucket, key string, data []byte, contentType string, upsert bool) error {
	return s.do(ctx, func() error {
		opts := storage_go.FileOptions{ContentType: &contentType, Upsert: &upsert}
		_, err := s.client.UploadFile(bucket, key, bytes.NewReader(data), opts)
		if err == nil {
			return nil
		}
		if !upsert || !isConflict(err) {
			return err
		}
		_, err = s.client.UpdateFile(bucket, key, bytes.NewReader(data), opts)
		return err
	})
}

// PublicURL returns the public download URL of key. It is only reachable
// when the bucket is public.
func (s *SupabaseStore) PublicURL(bucket, key string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.client.GetPublicUrl(bucket, key).SignedURL
}

// EnsureBucket creates bucket with spec when it does not exist yet.
// It reports whether the bucket was created.
func (s *SupabaseStore) EnsureBucket(ctx context.Context, bucket string, spec BucketSpec) (bool, error) {
	created := false
	err := s.do(ctx, func() error {
		if _, err := s.client.GetBucket(bucket); err == nil {
			return nil
		}
		opts := storage_go.BucketOptions{
			Public:           spec.Public,
			AllowedMimeTypes: spec.AllowedMimeTypes,
		}
		if spec.FileSizeLimit > 0 {
			opts.FileSizeLimit = strconv.FormatInt(spec.FileSizeLimit, 10)
		}
		if _, err := s.client.CreateBucket(bucket, opts); err != nil {
			// Lost a race with another creator.
			if isConflict(err) {
				return nil
			}
			return fmt.Errorf("creating bucket %s: %w", bucket, err)
		}
		created = true
		return nil
	})
	return created, err
}

// do runs fn under the client lock. storage-go has no context support, so a
// canceled ctx returns early while the request finishes in the background.
func (s *SupabaseStore) do(ctx context.Context, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	done := make(chan error, 1)
	go func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		done <- fn()
	}()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// isConflict recognizes "object already exists" answers. Supabase reports
// the status code inside the JSON body, which storage-go does not decode.
func isConflict(err error) bool {
	var se *storage_go.StorageError
	if errors.As(err, &se) && se.Status == 409 {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "already exists") ||
		strings.Contains(msg, "duplicate") ||
		strings.Contains(msg, "409")
}
