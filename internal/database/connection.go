package database

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// DB is the global database connection.
var DB *sqlx.DB

// DriverType returns the selected driver name, mirroring the teacher's
// DB_TYPE convention. sqlite is the default so tests and local dev work
// without a running postgres.
func DriverType() string {
	if t := os.Getenv("DB_TYPE"); t != "" {
		return t
	}
	return "sqlite"
}

// Connect establishes a connection to the database, selecting sqlite or
// postgres by DB_TYPE, and initializes the schema.
func Connect() error {
	driverType := DriverType()

	var (
		db  *sqlx.DB
		err error
	)

	switch driverType {
	case "postgres":
		dsn := os.Getenv("DATABASE_URL")
		if dsn == "" {
			return fmt.Errorf("DATABASE_URL environment variable is not set")
		}
		db, err = sqlx.Connect("postgres", dsn)
	default:
		dataDir := "data"
		if err := os.MkdirAll(dataDir, 0755); err != nil {
			return fmt.Errorf("failed to create data directory: %v", err)
		}
		dbPath := filepath.Join(dataDir, "wordpool.db")
		db, err = sqlx.Connect("sqlite3", dbPath)
	}
	if err != nil {
		return fmt.Errorf("failed to connect to database: %v", err)
	}

	if driverType != "postgres" {
		if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
			return fmt.Errorf("failed to enable foreign keys: %v", err)
		}
		// sqlite has no row-level locking; a single connection turns
		// every write into a whole-database serialization point, which
		// is how this repo gets the same-user row-lock guarantee
		// (spec.md §5) against sqlite.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	DB = db

	return initializeSchema(driverType)
}

// Close closes the database connection.
func Close() error {
	if DB != nil {
		return DB.Close()
	}
	return nil
}

// initializeSchema creates the tables the progress store needs if they
// don't already exist.
func initializeSchema(driverType string) error {
	autoIncrement := "INTEGER PRIMARY KEY AUTOINCREMENT"
	if driverType == "postgres" {
		autoIncrement = "SERIAL PRIMARY KEY"
	}

	statements := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS levels (
			id %s,
			label TEXT NOT NULL UNIQUE,
			order_index INTEGER NOT NULL UNIQUE
		)`, autoIncrement),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS categories (
			id %s,
			label TEXT NOT NULL UNIQUE,
			order_index INTEGER NOT NULL UNIQUE
		)`, autoIncrement),

		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			telegram_id BIGINT UNIQUE NOT NULL,
			username TEXT,
			first_name TEXT,
			last_name TEXT,
			is_admin BOOLEAN DEFAULT false,
			current_level_id INTEGER REFERENCES levels(id),
			current_category_id INTEGER REFERENCES categories(id),
			notification_enabled BOOLEAN DEFAULT true,
			notification_hour INTEGER DEFAULT 9,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS words (
			id TEXT PRIMARY KEY,
			word TEXT NOT NULL UNIQUE,
			translation TEXT NOT NULL,
			sentence TEXT,
			sentence_zh TEXT,
			image_url TEXT,
			audio_url TEXT,
			level_id INTEGER REFERENCES levels(id),
			category_id INTEGER REFERENCES categories(id),
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS word_progress (
			id ` + autoIncrement + `,
			user_id TEXT NOT NULL REFERENCES users(id),
			word_id TEXT NOT NULL REFERENCES words(id),
			pool TEXT NOT NULL,
			learned_at TIMESTAMP,
			next_available_time TIMESTAMP,
			review_stage TEXT NOT NULL DEFAULT '',
			last_outcome_at TIMESTAMP,
			correct_count INTEGER NOT NULL DEFAULT 0,
			incorrect_count INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(user_id, word_id)
		)`,

		`CREATE TABLE IF NOT EXISTS answer_history (
			id ` + autoIncrement + `,
			user_id TEXT NOT NULL REFERENCES users(id),
			word_id TEXT NOT NULL REFERENCES words(id),
			word TEXT NOT NULL,
			is_correct BOOLEAN NOT NULL,
			exercise_type TEXT NOT NULL,
			source TEXT NOT NULL,
			pool TEXT NOT NULL,
			user_answer TEXT,
			response_time_ms INTEGER,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE INDEX IF NOT EXISTS idx_word_progress_user_pool ON word_progress(user_id, pool)`,
		`CREATE INDEX IF NOT EXISTS idx_word_progress_next_available ON word_progress(user_id, next_available_time)`,
	}

	for _, stmt := range statements {
		if _, err := DB.Exec(stmt); err != nil {
			return fmt.Errorf("failed to apply schema statement: %v", err)
		}
	}

	return nil
}
