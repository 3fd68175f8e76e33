package brochure

import (
	"context"
	"fmt"
	"sync"
)

// ContentTypePDF is the content type of every uploaded artifact.
const ContentTypePDF = "application/pdf"

// ObjectStore is a remote object store. Uploads with upsert replace any
// existing object under the same key.
type ObjectStore interface {
	PutObject(ctx context.Context, bucket, key string, data []byte, contentType string, upsert bool) error
}

// PublicURLer is implemented by stores that serve objects publicly.
type PublicURLer interface {
	PublicURL(bucket, key string) string
}

// Syncer pushes artifacts to one bucket of an ObjectStore.
// Uploads are serialized. A nil store disables syncing.
type Syncer struct {
	mu     sync.Mutex
	store  ObjectStore
	bucket string
}

// NewSyncer returns a Syncer for bucket. Pass a nil store when no
// credentials are configured.
func NewSyncer(store ObjectStore, bucket string) *Syncer {
	return &Syncer{store: store, bucket: bucket}
}

// Enabled reports whether uploads are attempted.
func (s *Syncer) Enabled() bool {
	return s != nil && s.store != nil
}

// Bucket returns the target bucket.
func (s *Syncer) Bucket() string {
	if s == nil {
		return ""
	}
	return s.bucket
}

// Sync uploads data under key with upsert semantics. It returns SyncSkipped
// when syncing is disabled and a *SyncFailure on upload errors.
func (s *Syncer) Sync(ctx context.Context, key string, data []byte, contentType string) (SyncStatus, error) {
	if !s.Enabled() {
		return SyncSkipped, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return SyncFailed, &SyncFailure{Key: key, Cause: err}
	}
	if err := s.store.PutObject(ctx, s.bucket, key, data, contentType, true); err != nil {
		return SyncFailed, &SyncFailure{Key: key, Cause: fmt.Errorf("%w: %w", ErrSyncUpload, err)}
	}
	return SyncSynced, nil
}

// PublicURL returns the public address of key, or "" when the store has none.
func (s *Syncer) PublicURL(key string) string {
	if !s.Enabled() {
		return ""
	}
	if p, ok := s.store.(PublicURLer); ok {
		return p.PublicURL(s.bucket, key)
	}
	return ""
}
