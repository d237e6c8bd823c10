// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/article-engine/pkg/types"
)

// defaultHistoryLimit bounds a listing when the filter sets no limit.
const defaultHistoryLimit = 20

// ErrNotFound is returned when a history entry does not exist.
var ErrNotFound = errors.New("article not found")

// Index is the SQLite history of generated articles. Article text is
// indexed with FTS5 when the driver supports it; otherwise queries fall
// back to LIKE matching.
type Index struct {
	db  *sql.DB
	fts bool
}

// OpenIndex opens or creates the history database at path.
func OpenIndex(path string) (*Index, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	x := &Index{db: db}
	if err := x.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return x, nil
}

// Close releases the database connection.
func (x *Index) Close() error {
	return x.db.Close()
}

// FullText reports whether queries use the FTS5 index.
func (x *Index) FullText() bool { return x.fts }

func (x *Index) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS articles (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			topic TEXT NOT NULL,
			title TEXT,
			style TEXT,
			platform TEXT,
			word_count INTEGER,
			content_path TEXT,
			metadata_path TEXT,
			content TEXT,
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_articles_created ON articles(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_articles_platform ON articles(platform)`,
	}
	for _, stmt := range statements {
		if _, err := x.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	var ftsExists int
	if err := x.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='articles_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}
	if ftsExists > 0 {
		x.fts = true
		return nil
	}

	// FTS5 is only compiled in with the sqlite_fts5 build tag.
	if _, err := x.db.Exec(
		`CREATE VIRTUAL TABLE articles_fts USING fts5(title, content, content=articles, content_rowid=id)`,
	); err != nil {
		return nil
	}
	triggers := []string{
		`CREATE TRIGGER articles_ai AFTER INSERT ON articles BEGIN
			INSERT INTO articles_fts(rowid, title, content) VALUES (new.id, new.title, new.content);
		END`,
		`CREATE TRIGGER articles_ad AFTER DELETE ON articles BEGIN
			INSERT INTO articles_fts(articles_fts, rowid, title, content) VALUES('delete', old.id, old.title, old.content);
		END`,
	}
	for _, stmt := range triggers {
		if _, err := x.db.Exec(stmt); err != nil {
			return fmt.Errorf("creating FTS infrastructure: %w", err)
		}
	}
	x.fts = true
	return nil
}

// Record adds a saved article to the history and returns its id.
func (x *Index) Record(ctx context.Context, content string, md types.Metadata, saved types.SaveResult) (int64, error) {
	created := md.GeneratedAt
	if created.IsZero() {
		created = time.Now()
	}
	res, err := x.db.ExecContext(ctx,
		`INSERT INTO articles (topic, title, style, platform, word_count, content_path, metadata_path, content, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		md.Topic, md.Title, string(md.Style), string(md.Platform), md.WordCount,
		saved.ContentPath, saved.MetadataPath, content,
		created.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("inserting article: %w", err)
	}
	return res.LastInsertId()
}

// List returns history entries matching f, newest first.
func (x *Index) List(ctx context.Context, f types.HistoryFilter) ([]types.HistoryEntry, error) {
	var (
		where []string
		args  []any
	)
	if f.Topic != "" {
		where = append(where, `topic LIKE ?`)
		args = append(args, "%"+f.Topic+"%")
	}
	if f.Platform != "" {
		where = append(where, `lower(platform) = lower(?)`)
		args = append(args, f.Platform)
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		if x.fts {
			where = append(where, `id IN (SELECT rowid FROM articles_fts WHERE articles_fts MATCH ?)`)
			args = append(args, ftsQuery(q))
		} else {
			where = append(where, `(title LIKE ? OR content LIKE ?)`)
			args = append(args, "%"+q+"%", "%"+q+"%")
		}
	}

	query := `SELECT id, topic, title, style, platform, word_count, content_path, metadata_path, created_at FROM articles`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	limit := f.Limit
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	query += " ORDER BY created_at DESC, id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := x.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	var out []types.HistoryEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Get returns the entry with the given id.
func (x *Index) Get(ctx context.Context, id int64) (types.HistoryEntry, error) {
	row := x.db.QueryRowContext(ctx,
		`SELECT id, topic, title, style, platform, word_count, content_path, metadata_path, created_at
		 FROM articles WHERE id = ?`, id)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return types.HistoryEntry{}, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	return e, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (types.HistoryEntry, error) {
	var (
		e       types.HistoryEntry
		title   sql.NullString
		style   sql.NullString
		plat    sql.NullString
		words   sql.NullInt64
		content sql.NullString
		meta    sql.NullString
		created string
	)
	if err := s.Scan(&e.ID, &e.Topic, &title, &style, &plat, &words, &content, &meta, &created); err != nil {
		return types.HistoryEntry{}, err
	}
	e.Title = title.String
	e.Style = style.String
	e.Platform = plat.String
	e.WordCount = int(words.Int64)
	e.ContentPath = content.String
	e.MetadataPath = meta.String
	if t, err := time.Parse(time.RFC3339Nano, created); err == nil {
		e.CreatedAt = t
	}
	return e, nil
}

// ftsQuery quotes each term so user input is never parsed as FTS5 syntax.
// Quoted terms are matched independently, so every term must appear.
func ftsQuery(q string) string {
	terms := strings.Fields(q)
	for i, t := range terms {
		terms[i] = `"` + strings.ReplaceAll(t, `"`, `""`) + `"`
	}
	return strings.Join(terms, " ")
}

func sortNewestFirst(entries []types.HistoryEntry) {
	slices.SortStableFunc(entries, func(a, b types.HistoryEntry) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
}
