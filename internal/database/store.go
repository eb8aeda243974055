package database

import (
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

// Store is the persistence collaborator for topics, flashcards and the score
// log. It is an explicit handle with init and teardown; nothing in the
// application reaches for a package-global connection.
type Store struct {
	db *sqlx.DB
}

// Config selects the backing database. DatabaseURL switches to Postgres;
// otherwise a SQLite file under DataDir is used.
type Config struct {
	DatabaseURL string
	DataDir     string
}

// ConfigFromEnv reads DATABASE_URL and DATA_DIR.
func ConfigFromEnv() Config {
	return Config{
		DatabaseURL: os.Getenv("DATABASE_URL"),
		DataDir:     os.Getenv("DATA_DIR"),
	}
}

// Open connects to the configured database and initializes the schema.
func Open(cfg Config) (*Store, error) {
	if cfg.DatabaseURL != "" {
		db, err := sqlx.Connect("postgres", cfg.DatabaseURL)
		if err != nil {
			return nil, errors.Wrap(err, "connect to postgres")
		}
		s := &Store{db: db}
		return s, s.initializeSchema()
	}

	dataDir := cfg.DataDir
	if dataDir == "" {
		dataDir = "data"
	}
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, errors.Wrap(err, "create data directory")
	}

	db, err := sqlx.Connect("sqlite3", filepath.Join(dataDir, "ankular.db"))
	if err != nil {
		return nil, errors.Wrap(err, "connect to sqlite")
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, errors.Wrap(err, "enable foreign keys")
	}
	// SQLite doesn't support multiple writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &Store{db: db}
	return s, s.initializeSchema()
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// rebind converts ?-style placeholders for the active driver.
func (s *Store) rebind(query string) string {
	return s.db.Rebind(query)
}

func (s *Store) initializeSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS topics (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			parent TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS flashcards (
			id TEXT PRIMARY KEY,
			topic_id TEXT NOT NULL REFERENCES topics(id),
			front TEXT NOT NULL,
			back TEXT NOT NULL,
			next_review_date TEXT NOT NULL DEFAULT '',
			options TEXT NOT NULL DEFAULT '[]',
			image_url TEXT NOT NULL DEFAULT '',
			audio_url TEXT NOT NULL DEFAULT '',
			notes TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_flashcards_topic_id ON flashcards(topic_id)`,
		`CREATE TABLE IF NOT EXISTS topic_scores (
			id TEXT PRIMARY KEY,
			topic_id TEXT NOT NULL,
			date BIGINT NOT NULL,
			total_cards INTEGER NOT NULL,
			average_rating REAL NOT NULL,
			score_percent REAL NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_topic_scores_topic_id ON topic_scores(topic_id)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return errors.Wrap(err, "initialize schema")
		}
	}
	return nil
}
