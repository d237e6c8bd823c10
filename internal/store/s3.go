// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/pdiddy/article-engine/pkg/types"
)

// objectPutter is the part of *s3.Client the mirror uses.
type objectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Mirror copies saved article files to an S3 bucket.
type S3Mirror struct {
	client objectPutter
	bucket string
	prefix string
}

// NewS3Mirror builds a mirror from the default AWS configuration chain.
func NewS3Mirror(ctx context.Context, cfg types.StorageConfig) (*S3Mirror, error) {
	if cfg.S3Bucket == "" {
		return nil, fmt.Errorf("s3: no bucket configured")
	}
	var loadOpts []func(*config.LoadOptions) error
	if cfg.S3Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(cfg.S3Region))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}
	return NewS3MirrorFromClient(s3.NewFromConfig(awsCfg), cfg.S3Bucket, cfg.S3Prefix), nil
}

// NewS3MirrorFromClient wraps an existing client.
func NewS3MirrorFromClient(client objectPutter, bucket, prefix string) *S3Mirror {
	return &S3Mirror{client: client, bucket: bucket, prefix: prefix}
}

// Key returns the object key for a local file.
func (m *S3Mirror) Key(localPath string) string {
	return path.Join(m.prefix, filepath.Base(localPath))
}

// Mirror uploads every file named in saved.
func (m *S3Mirror) Mirror(ctx context.Context, saved types.SaveResult) error {
	uploads := []struct {
		path        string
		contentType string
	}{
		{saved.ContentPath, "text/markdown; charset=utf-8"},
		{saved.MetadataPath, "application/yaml"},
		{saved.HTMLPath, "text/html; charset=utf-8"},
	}
	for _, u := range uploads {
		if u.path == "" {
			continue
		}
		if err := m.put(ctx, u.path, u.contentType); err != nil {
			return err
		}
	}
	return nil
}

func (m *S3Mirror) put(ctx context.Context, localPath, contentType string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("opening %s: %w", localPath, err)
	}
	defer f.Close()

	_, err = m.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(m.bucket),
		Key:         aws.String(m.Key(localPath)),
		Body:        f,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("uploading %s to s3://%s: %w", filepath.Base(localPath), m.bucket, err)
	}
	return nil
}
