// Package ledger is the append-only action history for threadpulse.
// Every attempted UI action writes exactly one row to the actions table;
// rows are never updated or deleted. The same sqlite file is read by the
// dashboard query service in a separate process, so the store runs in WAL
// mode with an explicit busy timeout.
package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// PlatformReddit is the only platform tag currently written.
const PlatformReddit = "Reddit"

// Action type vocabulary. The strings are stable: the dashboard and the
// duplicate filter both match on them.
const (
	ActionPostUpvoted          = "post_upvoted"
	ActionUpvoteFailed         = "upvote_failed"
	ActionCommentGenerated     = "comment_generated"
	ActionCommentPosted        = "comment_posted"
	ActionCommentFailed        = "comment_failed"
	ActionCommentError         = "comment_error"
	ActionCommentFieldNotFound = "comment_field_not_found"
	ActionNoNewPosts           = "no_new_posts_found"
	ActionSubredditError       = "subreddit_error"
)

// timestampLayout is a fixed-width UTC ISO-8601 layout so that lexicographic
// ordering on the stored text matches chronological ordering.
const timestampLayout = "2006-01-02T15:04:05.000000"

// ActionRecord is one attempted action. ID and Timestamp are assigned by
// Append; the zero Platform defaults to PlatformReddit.
type ActionRecord struct {
	Platform    string
	SubjectText string
	ActionType  string
	CommentText string
	Success     bool
	Error       string
	Community   string
}

// CommentRecord is a full row read back for the dashboard comments feed.
type CommentRecord struct {
	ID          int64  `json:"id"`
	Platform    string `json:"platform"`
	Timestamp   string `json:"timestamp"`
	PostTitle   string `json:"post_title"`
	Community   string `json:"subreddit"`
	ActionType  string `json:"action_type"`
	CommentText string `json:"comment_text"`
	Success     bool   `json:"success"`
	Error       string `json:"error"`
}

// Filter narrows the dashboard read queries. Empty fields match everything.
// From and To compare against the stored ISO-8601 timestamp text.
type Filter struct {
	Platform   string
	ActionType string
	From       string
	To         string
}

// Store wraps the sqlite actions table.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (creating if needed) the ledger database for writing.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create ledger directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open ledger database: %w", err)
	}
	// Single writer process; one connection keeps inserts strictly ordered.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	for _, pragma := range []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply %s: %w", pragma, err)
		}
	}

	s := &Store{db: db, path: path}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// OpenReadOnly opens an existing ledger database for the query service.
// Readers never block the writer under WAL.
func OpenReadOnly(path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?mode=ro&_busy_timeout=5000", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open ledger database read-only: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

// Close closes the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS actions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		platform TEXT,
		timestamp TEXT,
		post_title_or_text TEXT,
		action_type TEXT,
		comment_text TEXT,
		success INTEGER,
		error TEXT,
		subreddit_name TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_actions_dedup ON actions(subreddit_name, post_title_or_text);
	CREATE INDEX IF NOT EXISTS idx_actions_timestamp ON actions(timestamp);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("initialize actions schema: %w", err)
	}
	return nil
}

// Append inserts one action record and returns its assigned id. The insert
// commits before returning; callers treat a failure as non-fatal to the run.
func (s *Store) Append(rec ActionRecord) (int64, error) {
	if rec.Platform == "" {
		rec.Platform = PlatformReddit
	}
	res, err := s.db.Exec(`INSERT INTO actions (
		platform, timestamp, post_title_or_text, action_type,
		comment_text, success, error, subreddit_name
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.Platform,
		time.Now().UTC().Format(timestampLayout),
		rec.SubjectText,
		rec.ActionType,
		nullable(rec.CommentText),
		boolToInt(rec.Success),
		nullable(rec.Error),
		nullable(rec.Community),
	)
	if err != nil {
		return 0, fmt.Errorf("append action record: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("read inserted id: %w", err)
	}
	return id, nil
}

// WasActedOn reports whether a thread was already successfully engaged:
// at least one row matches subjectText and community exactly with a
// comment_posted or comment_generated action and success=1.
//
// The match is an exact string comparison with no normalization, so callers
// must pass the same text representation that was recorded at collection
// time. Whitespace or emoji variants of a title bypass the filter.
func (s *Store) WasActedOn(subjectText, community string) (bool, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM actions
		WHERE post_title_or_text = ?
		AND subreddit_name = ?
		AND action_type IN (?, ?)
		AND success = 1`,
		subjectText, community, ActionCommentPosted, ActionCommentGenerated,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("duplicate check: %w", err)
	}
	return count > 0, nil
}

// AggregateCounts returns row counts grouped by platform and action type,
// optionally filtered. The result maps platform -> action type -> count.
func (s *Store) AggregateCounts(ctx context.Context, f Filter) (map[string]map[string]int, error) {
	query := "SELECT platform, action_type, COUNT(*) FROM actions WHERE 1=1"
	var args []any
	if f.Platform != "" {
		query += " AND platform = ?"
		args = append(args, f.Platform)
	}
	if f.ActionType != "" {
		query += " AND action_type = ?"
		args = append(args, f.ActionType)
	}
	if f.From != "" {
		query += " AND timestamp >= ?"
		args = append(args, f.From)
	}
	if f.To != "" {
		query += " AND timestamp <= ?"
		args = append(args, f.To)
	}
	query += " GROUP BY platform, action_type"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("aggregate counts: %w", err)
	}
	defer rows.Close()

	out := make(map[string]map[string]int)
	for rows.Next() {
		var platform, actionType string
		var count int
		if err := rows.Scan(&platform, &actionType, &count); err != nil {
			return nil, fmt.Errorf("scan aggregate row: %w", err)
		}
		if out[platform] == nil {
			out[platform] = make(map[string]int)
		}
		out[platform][actionType] = count
	}
	return out, rows.Err()
}

// RecentComments returns comment-related records (comment_posted and
// comment_generated) newest-first, bounded by limit.
func (s *Store) RecentComments(ctx context.Context, f Filter, limit int) ([]CommentRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT id, platform, timestamp, post_title_or_text, action_type,
		comment_text, success, error, subreddit_name
	FROM actions
	WHERE action_type IN (?, ?)`
	args := []any{ActionCommentPosted, ActionCommentGenerated}
	if f.Platform != "" {
		query += " AND platform = ?"
		args = append(args, f.Platform)
	}
	if f.From != "" {
		query += " AND timestamp >= ?"
		args = append(args, f.From)
	}
	if f.To != "" {
		query += " AND timestamp <= ?"
		args = append(args, f.To)
	}
	// id breaks ties between rows inserted within the same microsecond.
	query += " ORDER BY timestamp DESC, id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("recent comments: %w", err)
	}
	defer rows.Close()

	var out []CommentRecord
	for rows.Next() {
		var rec CommentRecord
		var comment, errText, community sql.NullString
		var success int
		if err := rows.Scan(&rec.ID, &rec.Platform, &rec.Timestamp, &rec.PostTitle,
			&rec.ActionType, &comment, &success, &errText, &community); err != nil {
			return nil, fmt.Errorf("scan comment row: %w", err)
		}
		rec.CommentText = comment.String
		rec.Error = errText.String
		rec.Community = community.String
		rec.Success = success != 0
		out = append(out, rec)
	}
	return out, rows.Err()
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
