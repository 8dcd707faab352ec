package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/specimen/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/specimen/internal/core/domain"
	"github.com/custodia-labs/specimen/internal/core/ports/driven"
)

// DatabaseFile is the name of the per-project database file.
const DatabaseFile = "samples.db"

// Ensure Store implements the interface.
var _ driven.SampleDatabase = (*Store)(nil)

// Store is a SQLite-backed sample database for one project.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens or creates the sample database in dataDir.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		return nil, fmt.Errorf("%w: empty data directory", domain.ErrInvalidInput)
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, DatabaseFile)

	// WAL for concurrent readers; foreign keys on every pooled connection.
	db, err := sql.Open("sqlite", dbPath+
		"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	// Run migrations
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if name := entry.Name(); strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_initial.up.sql" -> 1
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
	}

	return nil
}

// ==================== Samples ====================

const sampleColumns = `id, name, type, size, md5, sha1, sha256, sha512, crc32, ssdeep, created_at`

// Add records a sample and its tags. It reports false without changes if
// a sample with the same sha256 already exists.
func (s *Store) Add(ctx context.Context, sample *domain.Sample) (bool, error) {
	if sample == nil || sample.SHA256 == "" {
		return false, fmt.Errorf("%w: sample without sha256", domain.ErrInvalidInput)
	}

	createdAt := sample.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	res, err := tx.ExecContext(ctx, `
		INSERT OR IGNORE INTO samples (name, type, size, md5, sha1, sha256, sha512, crc32, ssdeep, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, sample.Name, sample.Type, sample.Size, sample.MD5, sample.SHA1, sample.SHA256,
		sample.SHA512, sample.CRC32, sample.SSDeep, createdAt)
	if err != nil {
		return false, fmt.Errorf("inserting sample: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil || n == 0 {
		return false, err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return false, fmt.Errorf("reading sample id: %w", err)
	}
	if err := linkTags(ctx, tx, id, sample.Tags); err != nil {
		return false, err
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("committing sample: %w", err)
	}
	return true, nil
}

// Get retrieves a sample by sha256.
func (s *Store) Get(ctx context.Context, sha256 string) (*domain.Sample, error) {
	samples, err := s.query(ctx, "SELECT "+sampleColumns+" FROM samples WHERE sha256 = ?", sha256)
	if err != nil {
		return nil, err
	}
	if len(samples) == 0 {
		return nil, fmt.Errorf("%w: sample %s", domain.ErrNotFound, sha256)
	}
	return &samples[0], nil
}

// Find returns samples matching query ordered by insertion. Latest
// searches return the most recent samples first.
func (s *Store) Find(ctx context.Context, query domain.SearchQuery) ([]domain.Sample, error) {
	value := strings.TrimSpace(query.Value)
	base := "SELECT " + sampleColumns + " FROM samples "

	switch query.Key {
	case domain.SearchMD5:
		return s.query(ctx, base+"WHERE md5 = ? ORDER BY id", strings.ToLower(value))
	case domain.SearchSHA256:
		return s.query(ctx, base+"WHERE sha256 = ? ORDER BY id", strings.ToLower(value))
	case domain.SearchSSDeep:
		return s.query(ctx, base+"WHERE ? != '' AND instr(ssdeep, ?) > 0 ORDER BY id", value, value)
	case domain.SearchTag:
		return s.query(ctx, base+`WHERE id IN (
			SELECT st.sample_id FROM sample_tags st JOIN tags t ON t.id = st.tag_id WHERE t.tag = ?
		) ORDER BY id`, strings.ToLower(value))
	case domain.SearchName:
		return s.query(ctx, base+`WHERE name LIKE ? ESCAPE '\' ORDER BY id`, likePattern(value))
	case domain.SearchAll:
		return s.query(ctx, base+"ORDER BY id")
	case domain.SearchLatest:
		return s.query(ctx, base+"ORDER BY id DESC LIMIT ?", query.LatestCount())
	default:
		return nil, fmt.Errorf("%w: unknown search key %q", domain.ErrInvalidInput, query.Key)
	}
}

// likePattern turns a name search into a LIKE pattern with the same
// semantics as domain.MatchName.
func likePattern(value string) string {
	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(value)
	return "%" + strings.ReplaceAll(escaped, "*", "%") + "%"
}

// Delete removes a sample and its tag links.
func (s *Store) Delete(ctx context.Context, sha256 string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM samples WHERE sha256 = ?", sha256)
	if err != nil {
		return fmt.Errorf("deleting sample: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting sample: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: sample %s", domain.ErrNotFound, sha256)
	}
	return nil
}

// AddTags merges tags into a sample's tag set.
func (s *Store) AddTags(ctx context.Context, sha256 string, tags []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	var id int64
	err = tx.QueryRowContext(ctx, "SELECT id FROM samples WHERE sha256 = ?", sha256).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: sample %s", domain.ErrNotFound, sha256)
	}
	if err != nil {
		return fmt.Errorf("looking up sample: %w", err)
	}

	if err := linkTags(ctx, tx, id, tags); err != nil {
		return err
	}
	return tx.Commit()
}

// ListTags returns every tag attached to at least one sample.
func (s *Store) ListTags(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT t.tag FROM tags t JOIN sample_tags st ON st.tag_id = t.id ORDER BY t.tag
	`)
	if err != nil {
		return nil, fmt.Errorf("querying tags: %w", err)
	}
	defer rows.Close()

	var tags []string //nolint:prealloc // size unknown from query
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, fmt.Errorf("scanning tag: %w", err)
		}
		tags = append(tags, tag)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tags: %w", err)
	}
	return tags, nil
}

// linkTags attaches tags to a sample, creating unknown tags. Existing
// links are left alone so tagging is a set union.
func linkTags(ctx context.Context, tx *sql.Tx, sampleID int64, tags []string) error {
	for _, tag := range domain.UnionTags(nil, tags) {
		if _, err := tx.ExecContext(ctx, "INSERT OR IGNORE INTO tags (tag) VALUES (?)", tag); err != nil {
			return fmt.Errorf("inserting tag %s: %w", tag, err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO sample_tags (sample_id, tag_id)
			SELECT ?, id FROM tags WHERE tag = ?
		`, sampleID, tag); err != nil {
			return fmt.Errorf("linking tag %s: %w", tag, err)
		}
	}
	return nil
}

// query runs a sample SELECT and loads the tags of every row.
func (s *Store) query(ctx context.Context, q string, args ...any) ([]domain.Sample, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("querying samples: %w", err)
	}

	var (
		ids     []int64
		samples []domain.Sample
	)
	for rows.Next() {
		var (
			id        int64
			sample    domain.Sample
			createdAt sql.NullTime
		)
		if err := rows.Scan(&id, &sample.Name, &sample.Type, &sample.Size, &sample.MD5, &sample.SHA1,
			&sample.SHA256, &sample.SHA512, &sample.CRC32, &sample.SSDeep, &createdAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning sample: %w", err)
		}
		if createdAt.Valid {
			sample.CreatedAt = createdAt.Time
		}
		ids = append(ids, id)
		samples = append(samples, sample)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterating samples: %w", err)
	}
	rows.Close()

	if samples == nil {
		return []domain.Sample{}, nil
	}
	for i, id := range ids {
		tags, err := s.sampleTags(ctx, id)
		if err != nil {
			return nil, err
		}
		samples[i].Tags = tags
	}
	return samples, nil
}

func (s *Store) sampleTags(ctx context.Context, sampleID int64) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.tag FROM tags t JOIN sample_tags st ON st.tag_id = t.id
		WHERE st.sample_id = ? ORDER BY t.tag
	`, sampleID)
	if err != nil {
		return nil, fmt.Errorf("querying sample tags: %w", err)
	}
	defer rows.Close()

	tags := []string{}
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, fmt.Errorf("scanning tag: %w", err)
		}
		tags = append(tags, tag)
	}
	return tags, rows.Err()
}
