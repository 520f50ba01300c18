package sheets

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"path"
	"time"

	"doubloon-tracker/core/storage"

	"github.com/minio/minio-go/v7"
)

// BucketStore keeps each sheet as a CSV object in an S3-compatible bucket. It
// serves deployments without a Google account; the object can be published
// directly from the bucket.
type BucketStore struct {
	client storage.Client
	bucket string
	prefix string
}

// NewBucketStore creates a store writing objects under prefix in bucket.
func NewBucketStore(client storage.Client, bucket, prefix string) *BucketStore {
	return &BucketStore{client: client, bucket: bucket, prefix: prefix}
}

// Key returns the object name of sheet.
func (b *BucketStore) Key(sheet string) string {
	return path.Join(b.prefix, sheet+".csv")
}

// ClearRegion removes the sheet object. Each write replaces the whole object, so
// the range is not needed.
func (b *BucketStore) ClearRegion(ctx context.Context, sheet, rng string) error {
	err := b.client.RemoveObject(ctx, b.bucket, b.Key(sheet), minio.RemoveObjectOptions{})
	if err != nil && minio.ToErrorResponse(err).Code != "NoSuchKey" {
		return fmt.Errorf("failed to clear %s: %w", b.Key(sheet), err)
	}
	return nil
}

// WriteRegion uploads rows as CSV. The range is kept in the object metadata.
func (b *BucketStore) WriteRegion(ctx context.Context, sheet, rng string, rows [][]string) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to encode %s: %w", sheet, err)
	}

	_, err := b.client.PutObject(ctx, b.bucket, b.Key(sheet), bytes.NewReader(buf.Bytes()), int64(buf.Len()), minio.PutObjectOptions{
		ContentType:  "text/csv",
		UserMetadata: map[string]string{"range": rng},
	})
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", b.Key(sheet), err)
	}
	return nil
}

// LastModified returns the object's modification time, the zero time when absent.
func (b *BucketStore) LastModified(ctx context.Context, sheet string) (time.Time, error) {
	key := b.Key(sheet)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var ts time.Time
	for obj := range b.client.ListObjects(ctx, b.bucket, minio.ListObjectsOptions{Prefix: key}) {
		if obj.Err != nil {
			return time.Time{}, fmt.Errorf("failed to stat %s: %w", key, obj.Err)
		}
		if obj.Key == key {
			ts = obj.LastModified
		}
	}
	return ts, nil
}

// Read returns the rows of sheet, nil when the object does not exist.
func (b *BucketStore) Read(ctx context.Context, sheet string) ([][]string, error) {
	obj, err := b.client.GetObject(ctx, b.bucket, b.Key(sheet), minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", b.Key(sheet), err)
	}
	defer obj.Close()

	r := csv.NewReader(obj)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to decode %s: %w", b.Key(sheet), err)
	}
	return rows, nil
}
