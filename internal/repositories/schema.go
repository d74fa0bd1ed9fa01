package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
)

const (
	DialectMySQL    = "mysql"
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite"
)

var schemaStatements = map[string][]string{
	DialectMySQL: {
		`CREATE TABLE IF NOT EXISTS help_requests (
    id BIGINT AUTO_INCREMENT PRIMARY KEY,
    author_id BIGINT NOT NULL,
    author_name VARCHAR(255) NOT NULL DEFAULT '',
    problem TEXT NOT NULL,
    phone VARCHAR(32) NOT NULL,
    category VARCHAR(32) NOT NULL,
    region VARCHAR(16) NOT NULL,
    address VARCHAR(512) NOT NULL DEFAULT '',
    created_at BIGINT NOT NULL,
    rating INT NOT NULL DEFAULT 0,
    active TINYINT NOT NULL DEFAULT 1,
    reserved_by BIGINT NULL,
    INDEX idx_help_requests_author (author_id)
)`,
		`CREATE TABLE IF NOT EXISTS help_responses (
    id BIGINT AUTO_INCREMENT PRIMARY KEY,
    responder_id BIGINT NOT NULL,
    request_id BIGINT NOT NULL,
    created_at BIGINT NOT NULL,
    active TINYINT NOT NULL DEFAULT 1,
    INDEX idx_help_responses_responder (responder_id),
    INDEX idx_help_responses_request (request_id)
)`,
		`CREATE TABLE IF NOT EXISTS accepted_agreements (
    user_id BIGINT PRIMARY KEY,
    accepted_at BIGINT NOT NULL
)`,
		`CREATE TABLE IF NOT EXISTS notify_tokens (
    user_id BIGINT NOT NULL,
    token VARCHAR(512) NOT NULL,
    PRIMARY KEY (token)
)`,
	},
	DialectPostgres: {
		`CREATE TABLE IF NOT EXISTS help_requests (
    id BIGSERIAL PRIMARY KEY,
    author_id BIGINT NOT NULL,
    author_name TEXT NOT NULL DEFAULT '',
    problem TEXT NOT NULL,
    phone TEXT NOT NULL,
    category TEXT NOT NULL,
    region TEXT NOT NULL,
    address TEXT NOT NULL DEFAULT '',
    created_at BIGINT NOT NULL,
    rating INTEGER NOT NULL DEFAULT 0,
    active SMALLINT NOT NULL DEFAULT 1,
    reserved_by BIGINT NULL
)`,
		`CREATE INDEX IF NOT EXISTS idx_help_requests_author ON help_requests (author_id)`,
		`CREATE TABLE IF NOT EXISTS help_responses (
    id BIGSERIAL PRIMARY KEY,
    responder_id BIGINT NOT NULL,
    request_id BIGINT NOT NULL,
    created_at BIGINT NOT NULL,
    active SMALLINT NOT NULL DEFAULT 1
)`,
		`CREATE INDEX IF NOT EXISTS idx_help_responses_responder ON help_responses (responder_id)`,
		`CREATE INDEX IF NOT EXISTS idx_help_responses_request ON help_responses (request_id)`,
		`CREATE TABLE IF NOT EXISTS accepted_agreements (
    user_id BIGINT PRIMARY KEY,
    accepted_at BIGINT NOT NULL
)`,
		`CREATE TABLE IF NOT EXISTS notify_tokens (
    token TEXT PRIMARY KEY,
    user_id BIGINT NOT NULL
)`,
	},
	DialectSQLite: {
		`CREATE TABLE IF NOT EXISTS help_requests (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    author_id INTEGER NOT NULL,
    author_name TEXT NOT NULL DEFAULT '',
    problem TEXT NOT NULL,
    phone TEXT NOT NULL,
    category TEXT NOT NULL,
    region TEXT NOT NULL,
    address TEXT NOT NULL DEFAULT '',
    created_at INTEGER NOT NULL,
    rating INTEGER NOT NULL DEFAULT 0,
    active INTEGER NOT NULL DEFAULT 1,
    reserved_by INTEGER NULL
)`,
		`CREATE INDEX IF NOT EXISTS idx_help_requests_author ON help_requests (author_id)`,
		`CREATE TABLE IF NOT EXISTS help_responses (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    responder_id INTEGER NOT NULL,
    request_id INTEGER NOT NULL,
    created_at INTEGER NOT NULL,
    active INTEGER NOT NULL DEFAULT 1
)`,
		`CREATE INDEX IF NOT EXISTS idx_help_responses_responder ON help_responses (responder_id)`,
		`CREATE INDEX IF NOT EXISTS idx_help_responses_request ON help_responses (request_id)`,
		`CREATE TABLE IF NOT EXISTS accepted_agreements (
    user_id INTEGER PRIMARY KEY,
    accepted_at INTEGER NOT NULL
)`,
		`CREATE TABLE IF NOT EXISTS notify_tokens (
    token TEXT PRIMARY KEY,
    user_id INTEGER NOT NULL
)`,
	},
}

// CreateSchema creates the tables used by the SQL repositories. Statements are
// idempotent, so it is safe to call on every start.
func CreateSchema(ctx context.Context, db *sql.DB, dialect string) error {
	stmts, ok := schemaStatements[dialect]
	if !ok {
		return fmt.Errorf("unsupported sql dialect %q", dialect)
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	return nil
}

// rebind rewrites ? placeholders into $1..$n for postgres.
func rebind(dialect, query string) string {
	if dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, ch := range query {
		if ch == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(ch)
	}
	return b.String()
}
