package aws

import (
	"context"
	"fmt"
	"time"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3BlobStore stores product images as objects in one bucket. Uploads go
// through presigned PUT URLs so image bytes never pass through the API.
type S3BlobStore struct {
	client *s3.Client
	bucket string
}

func NewS3BlobStore(cfg sdkaws.Config, bucket string) *S3BlobStore {
	return &S3BlobStore{
		client: s3.NewFromConfig(cfg),
		bucket: bucket,
	}
}

// PresignUpload generates a presigned PUT URL for the given key.
func (s *S3BlobStore) PresignUpload(ctx context.Context, key, contentType string, expiry time.Duration) (string, map[string]string, error) {
	presigner := s3.NewPresignClient(s.client)

	input := &s3.PutObjectInput{
		Bucket: &s.bucket,
		Key:    &key,
	}
	if contentType != "" {
		input.ContentType = &contentType
	}

	presigned, err := presigner.PresignPutObject(ctx, input, func(o *s3.PresignOptions) {
		o.Expires = expiry
	})
	if err != nil {
		return "", nil, fmt.Errorf("failed to presign put object: %w", err)
	}

	headers := make(map[string]string)
	for k, v := range presigned.SignedHeader {
		if len(v) > 0 {
			headers[k] = v[0]
		}
	}

	return presigned.URL, headers, nil
}

// Delete removes an object. Missing objects are not an error.
func (s *S3BlobStore) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: &s.bucket,
		Key:    &key,
	})
	if err != nil {
		return fmt.Errorf("failed to delete object %s: %w", key, err)
	}
	return nil
}
