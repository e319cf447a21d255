// Package testutil provides test fixtures shared across packages.
package testutil

import (
	"database/sql"
	"testing"
	"time"

	_ "modernc.org/sqlite"
)

// Warehouse table names used by the in-memory stand-in database.
// Production uses fully qualified Snowflake names; the queries are
// identical because table names come from configuration.
const (
	SessionsTable = "reading_sessions"
	BooksTable    = "books_list"
	CatalogTable  = "published_catalog"
)

// OpenTestWarehouse returns an in-memory SQLite database with the
// warehouse schema created. The handle is closed with the test.
func OpenTestWarehouse(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	// A single connection keeps every statement on the same
	// in-memory database.
	db.SetMaxOpenConns(1)

	schema := []string{
		`CREATE TABLE ` + SessionsTable + ` (
			USER_ID TEXT NOT NULL,
			EVENT_TIME TIMESTAMP NOT NULL,
			BOOK_PERMANENT_ID TEXT NOT NULL
		)`,
		`CREATE TABLE ` + BooksTable + ` (
			PERMANENT_ID TEXT NOT NULL,
			TITLE TEXT NOT NULL,
			AUTHOR TEXT,
			ISBN TEXT,
			LANGUAGE_CODE TEXT,
			GENRE TEXT,
			PUBLISHER TEXT,
			WORD_COUNT INTEGER,
			DEFAULT_CATEGORIES TEXT
		)`,
		`CREATE TABLE ` + CatalogTable + ` (
			PERMANENT_ID TEXT NOT NULL,
			TITLE TEXT NOT NULL,
			DESCRIPTION TEXT
		)`,
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("failed to create schema: %v", err)
		}
	}
	return db
}

// InsertSession adds one reading session row.
func InsertSession(t *testing.T, db *sql.DB, userID string, eventTime time.Time, bookID string) {
	t.Helper()
	if _, err := db.Exec(
		`INSERT INTO `+SessionsTable+` (USER_ID, EVENT_TIME, BOOK_PERMANENT_ID) VALUES (?, ?, ?)`,
		userID, eventTime, bookID,
	); err != nil {
		t.Fatalf("failed to insert session: %v", err)
	}
}

// InsertBook adds one book metadata row.
func InsertBook(t *testing.T, db *sql.DB, bookID, title, author, categories string) {
	t.Helper()
	if _, err := db.Exec(
		`INSERT INTO `+BooksTable+` (PERMANENT_ID, TITLE, AUTHOR, ISBN, LANGUAGE_CODE, GENRE, PUBLISHER, WORD_COUNT, DEFAULT_CATEGORIES)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		bookID, title, author, "978-0-0000", "en", "fiction", "Pickatale", 1200, categories,
	); err != nil {
		t.Fatalf("failed to insert book: %v", err)
	}
}

// InsertCatalogBook adds one published catalog row.
func InsertCatalogBook(t *testing.T, db *sql.DB, bookID, title, description string) {
	t.Helper()
	if _, err := db.Exec(
		`INSERT INTO `+CatalogTable+` (PERMANENT_ID, TITLE, DESCRIPTION) VALUES (?, ?, ?)`,
		bookID, title, description,
	); err != nil {
		t.Fatalf("failed to insert catalog book: %v", err)
	}
}
