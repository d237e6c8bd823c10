// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/pdiddy/article-engine/pkg/types"
)

// Store saves articles to disk and records them in the history index and
// the S3 mirror when those are configured. Only the file write can fail a
// save; index and mirror errors are logged.
type Store struct {
	files  *FileStore
	index  *Index
	mirror *S3Mirror
	logger *zap.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithIndex records every save in x.
func WithIndex(x *Index) Option { return func(s *Store) { s.index = x } }

// WithMirror uploads every save through m.
func WithMirror(m *S3Mirror) Option { return func(s *Store) { s.mirror = m } }

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option { return func(s *Store) { s.logger = l } }

// New returns a Store writing through files.
func New(files *FileStore, opts ...Option) *Store {
	s := &Store{files: files}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	return s
}

// Open builds a Store from configuration. The history index lives at
// cfg.IndexPath, defaulting to history.db under the articles directory.
func Open(ctx context.Context, cfg types.StorageConfig, logger *zap.Logger) (*Store, error) {
	files := NewFileStore(cfg)
	indexPath := cfg.IndexPath
	if indexPath == "" {
		indexPath = filepath.Join(files.Dir(), "history.db")
	}
	index, err := OpenIndex(indexPath)
	if err != nil {
		return nil, fmt.Errorf("opening history index: %w", err)
	}
	opts := []Option{WithIndex(index), WithLogger(logger)}
	if cfg.S3Bucket != "" {
		m, err := NewS3Mirror(ctx, cfg)
		if err != nil {
			index.Close()
			return nil, err
		}
		opts = append(opts, WithMirror(m))
	}
	return New(files, opts...), nil
}

// Close releases the history index.
func (s *Store) Close() error {
	if s.index == nil {
		return nil
	}
	return s.index.Close()
}

// Save writes the article and metadata, then indexes and mirrors them.
func (s *Store) Save(ctx context.Context, content string, md types.Metadata) (types.SaveResult, error) {
	res, err := s.files.Save(ctx, content, md)
	if err != nil {
		return types.SaveResult{}, err
	}
	logger := s.logger.With(zap.String("path", res.ContentPath))

	if s.index != nil {
		if _, err := s.index.Record(ctx, content, md, res); err != nil {
			logger.Warn("recording article history", zap.Error(err))
		}
	}
	if s.mirror != nil {
		if err := s.mirror.Mirror(ctx, res); err != nil {
			logger.Warn("mirroring article to s3", zap.Error(err))
		}
	}
	logger.Info("article saved", zap.String("metadata", res.MetadataPath))
	return res, nil
}

// History lists previously generated articles, newest first. Without an
// index the metadata files are scanned instead.
func (s *Store) History(ctx context.Context, f types.HistoryFilter) ([]types.HistoryEntry, error) {
	if s.index != nil {
		return s.index.List(ctx, f)
	}
	return s.files.scanMetadata(f)
}
