// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/article-engine/pkg/types"
)

// --- test helpers ---

const sampleArticle = "# Qubits in Practice\n\n## Introduction\n\nSuperposition explained.\n\n## Conclusion\n\nDone.\n"

func testFileStore(t *testing.T, html bool) *FileStore {
	t.Helper()
	fs := NewFileStore(types.StorageConfig{ArticlesDir: filepath.Join(t.TempDir(), "articles"), RenderHTML: html})
	fs.now = func() time.Time { return time.Date(2026, 3, 14, 15, 9, 26, 0, time.Local) }
	return fs
}

func testIndex(t *testing.T) *Index {
	t.Helper()
	x, err := OpenIndex(filepath.Join(t.TempDir(), "index", "history.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { x.Close() })
	return x
}

func sampleMetadata(topic string, p types.Platform, at time.Time) types.Metadata {
	return types.Metadata{
		Topic:       topic,
		Style:       types.StyleProfessional,
		Platform:    p,
		Title:       "Qubits in Practice",
		WordCount:   9,
		GeneratedAt: at,
		Timings:     map[types.Phase]float64{types.PhaseWriting: 1.5},
		ReviewNotes: &types.ReviewNotes{Readability: "shorter sentences"},
		Gateway:     types.GatewayStats{Fallbacks: 12},
	}
}

// --- file store ---

func TestBaseName(t *testing.T) {
	tests := []struct {
		topic    string
		platform types.Platform
		want     string
	}{
		{"Quantum Computing", types.PlatformNone, "article_quantum-computing"},
		{"Quantum Computing", "", "article_quantum-computing"},
		{"Quantum Computing", types.PlatformDevTo, "article_quantum-computing_dev-to"},
		{"Go & Rust: A Comparison!", types.PlatformMedium, "article_go-rust-a-comparison_medium"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, BaseName(tt.topic, tt.platform))
	}
}

func TestFileStore_Save(t *testing.T) {
	fs := testFileStore(t, false)
	md := sampleMetadata("Quantum Computing", types.PlatformMedium, time.Now())

	res, err := fs.Save(context.Background(), sampleArticle, md)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(fs.Dir(), "article_quantum-computing_medium_20260314_150926.md"), res.ContentPath)
	assert.Equal(t, filepath.Join(fs.Dir(), "article_quantum-computing_medium.md"), res.LatestPath)
	assert.Equal(t, filepath.Join(fs.Dir(), "metadata", "article_quantum-computing_medium_20260314_150926.yaml"), res.MetadataPath)
	assert.Empty(t, res.HTMLPath)

	for _, p := range []string{res.ContentPath, res.LatestPath} {
		data, err := os.ReadFile(p)
		require.NoError(t, err)
		assert.Equal(t, sampleArticle, string(data))
	}

	got, files, err := ReadMetadata(res.MetadataPath)
	require.NoError(t, err)
	assert.Equal(t, md.Topic, got.Topic)
	assert.Equal(t, md.Platform, got.Platform)
	assert.Equal(t, 1.5, got.Timings[types.PhaseWriting])
	assert.Equal(t, "shorter sentences", got.ReviewNotes.Readability)
	assert.Equal(t, int64(12), got.Gateway.Fallbacks)
	assert.Equal(t, res, files)

	// No temporary files are left behind.
	entries, err := os.ReadDir(fs.Dir())
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasSuffix(e.Name(), ".tmp"), e.Name())
	}
}

func TestFileStore_LatestIsOverwritten(t *testing.T) {
	fs := testFileStore(t, false)
	md := sampleMetadata("Go", types.PlatformNone, time.Now())

	_, err := fs.Save(context.Background(), "# First\n", md)
	require.NoError(t, err)
	fs.now = func() time.Time { return time.Date(2026, 3, 15, 0, 0, 0, 0, time.Local) }
	res, err := fs.Save(context.Background(), "# Second\n", md)
	require.NoError(t, err)

	data, err := os.ReadFile(res.LatestPath)
	require.NoError(t, err)
	assert.Equal(t, "# Second\n", string(data))

	versions, err := filepath.Glob(filepath.Join(fs.Dir(), "article_go_*.md"))
	require.NoError(t, err)
	assert.Len(t, versions, 2)
}

func TestFileStore_RenderHTML(t *testing.T) {
	fs := testFileStore(t, true)
	res, err := fs.Save(context.Background(), sampleArticle, sampleMetadata("Go", "", time.Now()))
	require.NoError(t, err)
	require.NotEmpty(t, res.HTMLPath)

	data, err := os.ReadFile(res.HTMLPath)
	require.NoError(t, err)
	page := string(data)
	assert.Contains(t, page, "<title>Qubits in Practice</title>")
	assert.Contains(t, page, "<h2>Introduction</h2>")
	assert.Contains(t, page, "<p>Superposition explained.</p>")
}

func TestRenderHTML_EscapesTitle(t *testing.T) {
	page, err := RenderHTML("# A <b> & C\n\nBody.")
	require.NoError(t, err)
	assert.Contains(t, page, "<title>A &lt;b&gt; &amp; C</title>")

	page, err = RenderHTML("No title here.")
	require.NoError(t, err)
	assert.Contains(t, page, "<title>Article</title>")
}

func TestFileStore_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := testFileStore(t, false).Save(ctx, sampleArticle, sampleMetadata("Go", "", time.Now()))
	assert.ErrorIs(t, err, context.Canceled)
}

// --- history index ---

func TestIndex_ListFilters(t *testing.T) {
	x := testIndex(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	seed := []struct {
		topic    string
		platform types.Platform
		content  string
	}{
		{"Quantum Computing", types.PlatformMedium, "qubits and superposition"},
		{"Quantum Sensing", types.PlatformSubstack, "magnetometers"},
		{"Rust Ownership", types.PlatformDevTo, "borrow checker"},
	}
	for i, s := range seed {
		md := sampleMetadata(s.topic, s.platform, base.Add(time.Duration(i)*time.Hour))
		md.Title = s.topic + " Explained"
		_, err := x.Record(ctx, s.content, md, types.SaveResult{ContentPath: s.topic + ".md"})
		require.NoError(t, err)
	}

	tests := []struct {
		name   string
		filter types.HistoryFilter
		want   []string
	}{
		{"all newest first", types.HistoryFilter{}, []string{"Rust Ownership", "Quantum Sensing", "Quantum Computing"}},
		{"topic substring", types.HistoryFilter{Topic: "quantum"}, []string{"Quantum Sensing", "Quantum Computing"}},
		{"platform", types.HistoryFilter{Platform: "DEV.TO"}, []string{"Rust Ownership"}},
		{"content query", types.HistoryFilter{Query: "superposition"}, []string{"Quantum Computing"}},
		{"title query", types.HistoryFilter{Query: "ownership"}, []string{"Rust Ownership"}},
		{"combined", types.HistoryFilter{Topic: "quantum", Platform: "substack"}, []string{"Quantum Sensing"}},
		{"limit", types.HistoryFilter{Limit: 1}, []string{"Rust Ownership"}},
		{"no match", types.HistoryFilter{Query: "kubernetes"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, err := x.List(ctx, tt.filter)
			require.NoError(t, err)
			var topics []string
			for _, e := range entries {
				topics = append(topics, e.Topic)
			}
			assert.Equal(t, tt.want, topics)
		})
	}
}

func TestIndex_Get(t *testing.T) {
	x := testIndex(t)
	ctx := context.Background()
	at := time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)

	id, err := x.Record(ctx, "body", sampleMetadata("Go", types.PlatformMedium, at), types.SaveResult{ContentPath: "a.md", MetadataPath: "a.yaml"})
	require.NoError(t, err)

	e, err := x.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Go", e.Topic)
	assert.Equal(t, "medium", e.Platform)
	assert.Equal(t, "professional", e.Style)
	assert.Equal(t, 9, e.WordCount)
	assert.Equal(t, "a.yaml", e.MetadataPath)
	assert.True(t, at.Equal(e.CreatedAt))

	_, err = x.Get(ctx, id+100)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestIndex_QuerySyntaxIsLiteral(t *testing.T) {
	x := testIndex(t)
	_, err := x.List(context.Background(), types.HistoryFilter{Query: `AND OR "unbalanced NEAR(`})
	assert.NoError(t, err)
}

func TestFTSQuery(t *testing.T) {
	assert.Equal(t, `"quantum" "error"`, ftsQuery("quantum  error"))
	assert.Equal(t, `"say" """hi"""`, ftsQuery(`say "hi"`), "each term is matched on its own")
}

// --- s3 mirror ---

type fakePutter struct {
	mu      sync.Mutex
	objects map[string]string
	types   map[string]string
	err     error
}

func (f *fakePutter) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.objects == nil {
		f.objects = map[string]string{}
		f.types = map[string]string{}
	}
	key := aws.ToString(in.Bucket) + "/" + aws.ToString(in.Key)
	f.objects[key] = string(body)
	f.types[key] = aws.ToString(in.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func TestS3Mirror(t *testing.T) {
	fs := testFileStore(t, true)
	res, err := fs.Save(context.Background(), sampleArticle, sampleMetadata("Go", "", time.Now()))
	require.NoError(t, err)

	putter := &fakePutter{}
	m := NewS3MirrorFromClient(putter, "bucket", "articles/2026")
	require.NoError(t, m.Mirror(context.Background(), res))

	require.Len(t, putter.objects, 3)
	key := "bucket/articles/2026/" + filepath.Base(res.ContentPath)
	assert.Equal(t, sampleArticle, putter.objects[key])
	assert.Equal(t, "text/markdown; charset=utf-8", putter.types[key])
	assert.Contains(t, putter.objects, "bucket/articles/2026/"+filepath.Base(res.MetadataPath))
	assert.Contains(t, putter.objects, "bucket/articles/2026/"+filepath.Base(res.HTMLPath))
}

func TestNewS3Mirror_RequiresBucket(t *testing.T) {
	_, err := NewS3Mirror(context.Background(), types.StorageConfig{})
	assert.Error(t, err)
}

// --- store ---

func TestStore_SaveRecordsHistory(t *testing.T) {
	x := testIndex(t)
	putter := &fakePutter{err: errors.New("access denied")}
	s := New(testFileStore(t, false), WithIndex(x), WithMirror(NewS3MirrorFromClient(putter, "b", "")))

	res, err := s.Save(context.Background(), sampleArticle, sampleMetadata("Quantum Computing", types.PlatformNone, time.Now()))
	require.NoError(t, err, "mirror failures do not fail the save")

	entries, err := s.History(context.Background(), types.HistoryFilter{Query: "superposition"})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, res.ContentPath, entries[0].ContentPath)
	assert.Equal(t, res.MetadataPath, entries[0].MetadataPath)
}

func TestStore_HistoryWithoutIndex(t *testing.T) {
	fs := testFileStore(t, false)
	s := New(fs)
	ctx := context.Background()

	older := sampleMetadata("Quantum Computing", types.PlatformMedium, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	newer := sampleMetadata("Rust", types.PlatformDevTo, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC))
	_, err := s.Save(ctx, sampleArticle, older)
	require.NoError(t, err)
	fs.now = func() time.Time { return time.Date(2026, 3, 15, 0, 0, 0, 0, time.Local) }
	_, err = s.Save(ctx, sampleArticle, newer)
	require.NoError(t, err)

	all, err := s.History(ctx, types.HistoryFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Rust", all[0].Topic)

	medium, err := s.History(ctx, types.HistoryFilter{Platform: "medium"})
	require.NoError(t, err)
	require.Len(t, medium, 1)
	assert.Equal(t, "Quantum Computing", medium[0].Topic)

	empty, err := New(testFileStore(t, false)).History(ctx, types.HistoryFilter{})
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(context.Background(), types.StorageConfig{ArticlesDir: dir}, nil)
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Save(context.Background(), sampleArticle, sampleMetadata("Go", "", time.Now()))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "history.db"))
	assert.NoError(t, err)
}
