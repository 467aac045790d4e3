package onboarding

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hupe1980/campaignmesh/core"

	// sqlite3 driver
	_ "github.com/mattn/go-sqlite3"
)

// Config holds SQLite store configuration options.
type Config struct {
	Path            string        // Database file path
	MaxOpenConns    int           // Maximum number of open connections
	MaxIdleConns    int           // Maximum number of idle connections
	ConnMaxLifetime time.Duration // Maximum connection lifetime
	BusyTimeout     time.Duration // SQLite busy timeout
}

// DefaultConfig returns defaults for the database at path.
func DefaultConfig(path string) Config {
	return Config{
		Path:            path,
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: time.Hour,
		BusyTimeout:     5 * time.Second,
	}
}

const schema = `
CREATE TABLE IF NOT EXISTS onboarding_info (
	id                      TEXT PRIMARY KEY,
	created_at              TIMESTAMP NOT NULL,
	brand_name              TEXT NOT NULL DEFAULT '',
	industry                TEXT NOT NULL DEFAULT '',
	product                 TEXT NOT NULL DEFAULT '',
	voice                   TEXT NOT NULL DEFAULT '',
	aesthetic               TEXT NOT NULL DEFAULT '',
	campaign_objective      TEXT NOT NULL DEFAULT '',
	campaign_type           TEXT NOT NULL DEFAULT '',
	urgency                 TEXT NOT NULL DEFAULT '',
	channels                TEXT NOT NULL DEFAULT '[]',
	age_range               TEXT NOT NULL DEFAULT '',
	location                TEXT NOT NULL DEFAULT '',
	gender                  TEXT NOT NULL DEFAULT '',
	"values"                TEXT NOT NULL DEFAULT '',
	interests               TEXT NOT NULL DEFAULT '',
	behavior                TEXT NOT NULL DEFAULT '',
	brand_doc_vector_ids    TEXT NOT NULL DEFAULT '[]',
	audience_doc_vector_ids TEXT NOT NULL DEFAULT '[]',
	form_vector_id          TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_onboarding_info_created_at ON onboarding_info(created_at);
`

const columns = `id, created_at, brand_name, industry, product, voice, aesthetic,
	campaign_objective, campaign_type, urgency, channels, age_range, location, gender,
	"values", interests, behavior, brand_doc_vector_ids, audience_doc_vector_ids, form_vector_id`

// SQLiteStore is a ProfileStore backed by an onboarding_info SQLite table.
// List columns are stored as JSON arrays.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// OpenSQLite opens (and migrates) the database at path with default settings.
func OpenSQLite(path string) (*SQLiteStore, error) {
	return OpenSQLiteWithConfig(DefaultConfig(path))
}

// OpenSQLiteWithConfig opens the database described by cfg in WAL mode and
// creates the onboarding_info table when missing.
func OpenSQLiteWithConfig(cfg Config) (*SQLiteStore, error) {
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=%d",
		cfg.Path,
		int(cfg.BusyTimeout.Milliseconds()),
	)

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate onboarding schema: %w", err)
	}

	return &SQLiteStore{db: db, now: time.Now}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Health pings the database.
func (s *SQLiteStore) Health(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping failed: %w", err)
	}
	return nil
}

// Save inserts or replaces p, assigning an id and creation time when missing.
func (s *SQLiteStore) Save(ctx context.Context, p core.Profile) (core.Profile, error) {
	p = prepare(p, s.now)

	channels, err := json.Marshal(nonNil(p.Channels))
	if err != nil {
		return core.Profile{}, err
	}
	brandDocs, err := json.Marshal(nonNil(p.BrandDocVectorIDs))
	if err != nil {
		return core.Profile{}, err
	}
	audienceDocs, err := json.Marshal(nonNil(p.AudienceDocVectorIDs))
	if err != nil {
		return core.Profile{}, err
	}

	query := `INSERT OR REPLACE INTO onboarding_info (` + columns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = s.db.ExecContext(ctx, query,
		p.ID, p.CreatedAt.UTC(), p.BrandName, p.Industry, p.Product, p.Voice, p.Aesthetic,
		p.CampaignObjective, p.CampaignType, p.Urgency, string(channels), p.AgeRange, p.Location, p.Gender,
		p.Values, p.Interests, p.Behavior, string(brandDocs), string(audienceDocs), p.FormVectorID,
	)
	if err != nil {
		return core.Profile{}, fmt.Errorf("failed to save onboarding profile: %w", err)
	}
	return p, nil
}

// Get returns the profile with the given id.
func (s *SQLiteStore) Get(ctx context.Context, id string) (core.Profile, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+columns+` FROM onboarding_info WHERE id = ?`, id)
	return scanProfile(row)
}

// Latest returns the most recently created profile.
func (s *SQLiteStore) Latest(ctx context.Context) (core.Profile, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+columns+` FROM onboarding_info ORDER BY created_at DESC, rowid DESC LIMIT 1`)
	return scanProfile(row)
}

// List returns all profiles ordered by creation time.
func (s *SQLiteStore) List(ctx context.Context) ([]core.Profile, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+columns+` FROM onboarding_info ORDER BY created_at ASC, rowid ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list onboarding profiles: %w", err)
	}
	defer rows.Close()

	out := []core.Profile{}
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProfile(sc scanner) (core.Profile, error) {
	var p core.Profile
	var channels, brandDocs, audienceDocs string

	err := sc.Scan(
		&p.ID, &p.CreatedAt, &p.BrandName, &p.Industry, &p.Product, &p.Voice, &p.Aesthetic,
		&p.CampaignObjective, &p.CampaignType, &p.Urgency, &channels, &p.AgeRange, &p.Location, &p.Gender,
		&p.Values, &p.Interests, &p.Behavior, &brandDocs, &audienceDocs, &p.FormVectorID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Profile{}, ErrNotFound
	}
	if err != nil {
		return core.Profile{}, fmt.Errorf("failed to scan onboarding profile: %w", err)
	}

	for _, f := range []struct {
		raw string
		dst *[]string
	}{
		{channels, &p.Channels},
		{brandDocs, &p.BrandDocVectorIDs},
		{audienceDocs, &p.AudienceDocVectorIDs},
	} {
		if err := json.Unmarshal([]byte(f.raw), f.dst); err != nil {
			return core.Profile{}, fmt.Errorf("failed to decode onboarding profile %s: %w", p.ID, err)
		}
	}
	return p, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

var _ core.ProfileStore = (*SQLiteStore)(nil)
