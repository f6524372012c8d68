// Package sqlite is a SQLite-backed record store for issues, communities and
// profiles.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/sha1n/mcp-civic-search/internal/domain"
	"github.com/sha1n/mcp-civic-search/internal/store"
	"github.com/sha1n/mcp-civic-search/internal/store/sqlite/migrations"
)

// DefaultFilename is the database file created inside the data directory.
const DefaultFilename = "civic-search.db"

// Store is a SQLite record store. It implements store.Backend.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

var _ store.Backend = (*Store)(nil)

// Open opens (or creates) the database at path and runs pending migrations.
// The special path ":memory:" opens a private in-memory database.
func Open(path string) (*Store, error) {
	dsn := path
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		dsn = path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if path == ":memory:" {
		// Each connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}

	s := &Store{db: db, now: time.Now}
	if err := s.migrate(migrations.FS); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate applies every *.up.sql file whose version is newer than the
// recorded schema version.
func (s *Store) migrate(fsys fs.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	if err := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// SaveProfile stores or updates a profile.
func (s *Store) SaveProfile(ctx context.Context, p *domain.Profile) error {
	store.EnsureID(&p.ID)
	store.EnsureTimestamps(&p.CreatedAt, &p.UpdatedAt, s.now())

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO profiles (id, display_name, bio, location, reputation, followers, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			display_name = excluded.display_name,
			bio = excluded.bio,
			location = excluded.location,
			reputation = excluded.reputation,
			followers = excluded.followers,
			updated_at = excluded.updated_at
	`, p.ID, p.DisplayName, p.Bio, p.Location, nullFloat(p.Reputation), p.Followers,
		formatTime(p.CreatedAt), formatTime(p.UpdatedAt))
	if err != nil {
		return fmt.Errorf("saving profile: %w", err)
	}
	return nil
}

// SaveIssue stores or updates an issue. The creator reputation is not stored
// on the issue; it is joined from the profile on read.
func (s *Store) SaveIssue(ctx context.Context, i *domain.Issue) error {
	store.EnsureID(&i.ID)
	store.EnsureTimestamps(&i.CreatedAt, &i.UpdatedAt, s.now())

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO issues (id, title, description, category, location, upvotes, creator_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			description = excluded.description,
			category = excluded.category,
			location = excluded.location,
			upvotes = excluded.upvotes,
			creator_id = excluded.creator_id,
			updated_at = excluded.updated_at
	`, i.ID, i.Title, i.Description, i.Category, i.Location, i.Upvotes, nullString(i.CreatorID),
		formatTime(i.CreatedAt), formatTime(i.UpdatedAt))
	if err != nil {
		return fmt.Errorf("saving issue: %w", err)
	}
	return nil
}

// SaveCommunity stores or updates a community.
func (s *Store) SaveCommunity(ctx context.Context, c *domain.Community) error {
	store.EnsureID(&c.ID)
	store.EnsureTimestamps(&c.CreatedAt, &c.UpdatedAt, s.now())

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO communities (id, name, description, category, location, member_count, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			category = excluded.category,
			location = excluded.location,
			member_count = excluded.member_count,
			updated_at = excluded.updated_at
	`, c.ID, c.Name, c.Description, c.Category, c.Location, c.MemberCount,
		formatTime(c.CreatedAt), formatTime(c.UpdatedAt))
	if err != nil {
		return fmt.Errorf("saving community: %w", err)
	}
	return nil
}

// Fetch returns every record of kind. The category allow-list is applied in
// SQL; an empty list returns all records.
func (s *Store) Fetch(ctx context.Context, kind domain.ContentKind, categories []string) ([]domain.Item, error) {
	switch kind {
	case domain.KindIssue:
		return s.fetchIssues(ctx, categories)
	case domain.KindCommunity:
		return s.fetchCommunities(ctx, categories)
	case domain.KindProfile:
		return s.fetchProfiles(ctx)
	default:
		return nil, fmt.Errorf("%w: unknown content kind %q", domain.ErrInvalidOption, kind)
	}
}

const issueSelect = `
	SELECT i.id, i.title, i.description, i.category, i.location, i.upvotes,
		i.creator_id, p.reputation, i.created_at, i.updated_at
	FROM issues i
	LEFT JOIN profiles p ON p.id = i.creator_id`

func (s *Store) fetchIssues(ctx context.Context, categories []string) ([]domain.Item, error) {
	query, args := withCategoryFilter(issueSelect, "i.category", categories)
	rows, err := s.db.QueryContext(ctx, query+" ORDER BY i.created_at DESC", args...)
	if err != nil {
		return nil, fmt.Errorf("querying issues: %w", err)
	}
	defer rows.Close()

	var items []domain.Item
	for rows.Next() {
		issue, err := scanIssue(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, issue.Item())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating issues: %w", err)
	}
	return items, nil
}

func (s *Store) fetchCommunities(ctx context.Context, categories []string) ([]domain.Item, error) {
	query, args := withCategoryFilter(`
		SELECT id, name, description, category, location, member_count, created_at, updated_at
		FROM communities`, "category", categories)
	rows, err := s.db.QueryContext(ctx, query+" ORDER BY created_at DESC", args...)
	if err != nil {
		return nil, fmt.Errorf("querying communities: %w", err)
	}
	defer rows.Close()

	var items []domain.Item
	for rows.Next() {
		var c domain.Community
		var createdAt, updatedAt sql.NullString
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.Category, &c.Location,
			&c.MemberCount, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scanning community: %w", err)
		}
		c.CreatedAt = parseTime(createdAt)
		c.UpdatedAt = parseTime(updatedAt)
		items = append(items, c.Item())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating communities: %w", err)
	}
	return items, nil
}

func (s *Store) fetchProfiles(ctx context.Context) ([]domain.Item, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, display_name, bio, location, reputation, followers, created_at, updated_at
		FROM profiles ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("querying profiles: %w", err)
	}
	defer rows.Close()

	var items []domain.Item
	for rows.Next() {
		var p domain.Profile
		var reputation sql.NullFloat64
		var createdAt, updatedAt sql.NullString
		if err := rows.Scan(&p.ID, &p.DisplayName, &p.Bio, &p.Location, &reputation,
			&p.Followers, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scanning profile: %w", err)
		}
		if reputation.Valid {
			p.Reputation = &reputation.Float64
		}
		p.CreatedAt = parseTime(createdAt)
		p.UpdatedAt = parseTime(updatedAt)
		items = append(items, p.Item())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating profiles: %w", err)
	}
	return items, nil
}

func scanIssue(rows *sql.Rows) (domain.Issue, error) {
	var i domain.Issue
	var creatorID, createdAt, updatedAt sql.NullString
	var reputation sql.NullFloat64
	if err := rows.Scan(&i.ID, &i.Title, &i.Description, &i.Category, &i.Location, &i.Upvotes,
		&creatorID, &reputation, &createdAt, &updatedAt); err != nil {
		return domain.Issue{}, fmt.Errorf("scanning issue: %w", err)
	}
	i.CreatorID = creatorID.String
	if reputation.Valid {
		i.CreatorReputation = &reputation.Float64
	}
	i.CreatedAt = parseTime(createdAt)
	i.UpdatedAt = parseTime(updatedAt)
	return i, nil
}

// withCategoryFilter appends a "column IN (...)" clause when categories is non-empty.
func withCategoryFilter(query, column string, categories []string) (string, []any) {
	if len(categories) == 0 {
		return query, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(categories)), ",")
	args := make([]any, len(categories))
	for i, c := range categories {
		args[i] = c
	}
	return fmt.Sprintf("%s WHERE %s IN (%s)", query, column, placeholders), args
}

func formatTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC().Format(time.RFC3339Nano)
}

// parseTime returns the zero time for NULL or unparseable values; ranking
// treats a zero timestamp as "now".
func parseTime(s sql.NullString) time.Time {
	if !s.Valid || s.String == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s.String)
	if err != nil {
		return time.Time{}
	}
	return t
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullFloat(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}
