// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists generated articles: Markdown and metadata files on
// disk, an optional HTML rendering, a SQLite history index, and an optional
// S3 mirror.
package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/article-engine/internal/draft"
	"github.com/pdiddy/article-engine/pkg/types"
)

const (
	metadataDir     = "metadata"
	htmlDir         = "html"
	timestampLayout = "20060102_150405"
)

// FileStore writes articles under a single directory:
//
//	<dir>/article_<slug>[_<platform>]_<timestamp>.md
//	<dir>/article_<slug>[_<platform>].md              (latest copy)
//	<dir>/metadata/article_<slug>[_<platform>]_<timestamp>.yaml
//	<dir>/html/article_<slug>[_<platform>]_<timestamp>.html
type FileStore struct {
	dir        string
	renderHTML bool
	now        func() time.Time
}

// NewFileStore returns a FileStore rooted at cfg.ArticlesDir.
func NewFileStore(cfg types.StorageConfig) *FileStore {
	dir := cfg.ArticlesDir
	if dir == "" {
		dir = "articles"
	}
	return &FileStore{dir: dir, renderHTML: cfg.RenderHTML, now: time.Now}
}

// Dir returns the root directory.
func (s *FileStore) Dir() string { return s.dir }

// BaseName returns the file name stem for a topic and platform.
func BaseName(topic string, p types.Platform) string {
	name := "article_" + draft.Slug(topic)
	if p != "" && p != types.PlatformNone {
		name += "_" + draft.Slug(string(p))
	}
	return name
}

// Save writes the article, its latest copy, and its metadata. Each file is
// written to a temporary name and renamed into place.
func (s *FileStore) Save(ctx context.Context, content string, md types.Metadata) (types.SaveResult, error) {
	if err := ctx.Err(); err != nil {
		return types.SaveResult{}, err
	}
	if err := os.MkdirAll(filepath.Join(s.dir, metadataDir), 0o755); err != nil {
		return types.SaveResult{}, fmt.Errorf("creating articles directory: %w", err)
	}

	base := BaseName(md.Topic, md.Platform)
	stamp := s.now().Format(timestampLayout)
	res := types.SaveResult{
		ContentPath:  filepath.Join(s.dir, base+"_"+stamp+".md"),
		LatestPath:   filepath.Join(s.dir, base+".md"),
		MetadataPath: filepath.Join(s.dir, metadataDir, base+"_"+stamp+".yaml"),
	}

	if err := writeFileAtomic(res.ContentPath, []byte(content)); err != nil {
		return types.SaveResult{}, fmt.Errorf("writing article: %w", err)
	}
	if err := writeFileAtomic(res.LatestPath, []byte(content)); err != nil {
		return types.SaveResult{}, fmt.Errorf("writing latest copy: %w", err)
	}

	if s.renderHTML {
		page, err := RenderHTML(content)
		if err != nil {
			return types.SaveResult{}, fmt.Errorf("rendering html: %w", err)
		}
		if err := os.MkdirAll(filepath.Join(s.dir, htmlDir), 0o755); err != nil {
			return types.SaveResult{}, fmt.Errorf("creating html directory: %w", err)
		}
		res.HTMLPath = filepath.Join(s.dir, htmlDir, base+"_"+stamp+".html")
		if err := writeFileAtomic(res.HTMLPath, []byte(page)); err != nil {
			return types.SaveResult{}, fmt.Errorf("writing html: %w", err)
		}
	}

	data, err := yaml.Marshal(record{Metadata: md, Files: res})
	if err != nil {
		return types.SaveResult{}, fmt.Errorf("marshaling metadata: %w", err)
	}
	if err := writeFileAtomic(res.MetadataPath, data); err != nil {
		return types.SaveResult{}, fmt.Errorf("writing metadata: %w", err)
	}
	return res, nil
}

// record is the layout of a metadata file.
type record struct {
	types.Metadata `yaml:",inline"`
	Files          types.SaveResult `yaml:"files"`
}

// ReadMetadata loads a metadata file written by Save.
func ReadMetadata(path string) (types.Metadata, types.SaveResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.Metadata{}, types.SaveResult{}, fmt.Errorf("reading metadata: %w", err)
	}
	var r record
	if err := yaml.Unmarshal(data, &r); err != nil {
		return types.Metadata{}, types.SaveResult{}, fmt.Errorf("parsing metadata %s: %w", path, err)
	}
	return r.Metadata, r.Files, nil
}

// scanMetadata lists every metadata file under the store, newest first by
// generation time, filtered like the history index.
func (s *FileStore) scanMetadata(f types.HistoryFilter) ([]types.HistoryEntry, error) {
	dir := filepath.Join(s.dir, metadataDir)
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading metadata directory: %w", err)
	}

	var out []types.HistoryEntry
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		md, files, err := ReadMetadata(path)
		if err != nil {
			continue
		}
		if f.Topic != "" && !strings.Contains(strings.ToLower(md.Topic), strings.ToLower(f.Topic)) {
			continue
		}
		if f.Platform != "" && !strings.EqualFold(f.Platform, string(md.Platform)) {
			continue
		}
		if f.Query != "" && !strings.Contains(strings.ToLower(md.Title), strings.ToLower(f.Query)) {
			continue
		}
		out = append(out, types.HistoryEntry{
			Topic:        md.Topic,
			Title:        md.Title,
			Style:        string(md.Style),
			Platform:     string(md.Platform),
			WordCount:    md.WordCount,
			ContentPath:  files.ContentPath,
			MetadataPath: path,
			CreatedAt:    md.GeneratedAt,
		})
	}
	sortNewestFirst(out)
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

// writeFileAtomic writes data to a temporary file in the target directory
// and renames it over path.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
