// Package warehouse reads reading activity and the published book catalog
// from the data warehouse. One Store owns one database handle; every
// method is a single round trip, with all user-supplied values bound as
// query parameters.
package warehouse

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/snowflakedb/gosnowflake"
)

// Config holds the Snowflake connection settings.
type Config struct {
	Account   string
	User      string
	Password  string
	Database  string
	Schema    string
	Warehouse string
	Role      string
}

// Store executes the job's warehouse queries.
type Store struct {
	db     *sql.DB
	tables Tables
	now    func() time.Time
}

// Open connects to Snowflake and returns a Store over the connection.
// The caller owns the Store and must Close it at job end.
func Open(cfg Config, tables Tables) (*Store, error) {
	dsn, err := gosnowflake.DSN(&gosnowflake.Config{
		Account:   cfg.Account,
		User:      cfg.User,
		Password:  cfg.Password,
		Database:  cfg.Database,
		Schema:    cfg.Schema,
		Warehouse: cfg.Warehouse,
		Role:      cfg.Role,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build snowflake DSN: %w", err)
	}

	db, err := sql.Open("snowflake", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open snowflake connection: %w", err)
	}

	return NewStore(db, tables), nil
}

// NewStore wraps an existing database handle. Tests use this with an
// in-memory SQLite database standing in for the warehouse.
func NewStore(db *sql.DB, tables Tables) *Store {
	return &Store{db: db, tables: tables, now: time.Now}
}

// Close releases the underlying connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ActiveUsers returns users with at least minEvents session rows in the
// trailing windowDays, ordered by descending event count. The cutoff is
// computed client-side so the query carries only bound parameters.
func (s *Store) ActiveUsers(ctx context.Context, windowDays, minEvents int) ([]string, error) {
	cutoff := s.now().AddDate(0, 0, -windowDays)

	query := fmt.Sprintf(`
		SELECT USER_ID, COUNT(*) AS ACTIVITY_COUNT
		FROM %s
		WHERE EVENT_TIME >= ?
		GROUP BY USER_ID
		HAVING COUNT(*) >= ?
		ORDER BY ACTIVITY_COUNT DESC`, s.tables.Sessions)

	rows, err := s.db.QueryContext(ctx, query, cutoff, minEvents)
	if err != nil {
		return nil, fmt.Errorf("failed to query active users: %w", err)
	}
	defer rows.Close()

	var users []string
	for rows.Next() {
		var userID string
		var count int64
		if err := rows.Scan(&userID, &count); err != nil {
			return nil, fmt.Errorf("failed to scan active user row: %w", err)
		}
		users = append(users, userID)
	}
	return users, rows.Err()
}

// RecentBooks returns the most recently read distinct books for one user,
// most recent first, capped at limit. A book read several times appears
// once, at its latest session time.
func (s *Store) RecentBooks(ctx context.Context, userID string, limit int) ([]BookRead, error) {
	query := fmt.Sprintf(`
		WITH ranked_books AS (
			SELECT
				s.EVENT_TIME,
				b.TITLE,
				b.AUTHOR,
				b.ISBN,
				b.LANGUAGE_CODE,
				b.GENRE,
				b.PUBLISHER,
				b.WORD_COUNT,
				b.DEFAULT_CATEGORIES,
				b.PERMANENT_ID,
				ROW_NUMBER() OVER (PARTITION BY b.PERMANENT_ID ORDER BY s.EVENT_TIME DESC) AS rn
			FROM %s s
			JOIN %s b ON s.BOOK_PERMANENT_ID = b.PERMANENT_ID
			WHERE s.USER_ID = ?
		)
		SELECT EVENT_TIME, TITLE, AUTHOR, ISBN, LANGUAGE_CODE, GENRE,
		       PUBLISHER, WORD_COUNT, DEFAULT_CATEGORIES, PERMANENT_ID
		FROM ranked_books
		WHERE rn = 1
		ORDER BY EVENT_TIME DESC
		LIMIT ?`, s.tables.Sessions, s.tables.Books)

	rows, err := s.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent books for user %s: %w", userID, err)
	}
	defer rows.Close()

	var books []BookRead
	for rows.Next() {
		var (
			b          BookRead
			author     sql.NullString
			isbn       sql.NullString
			lang       sql.NullString
			genre      sql.NullString
			publisher  sql.NullString
			wordCount  sql.NullInt64
			categories sql.NullString
		)
		if err := rows.Scan(&b.EventTime, &b.Title, &author, &isbn, &lang,
			&genre, &publisher, &wordCount, &categories, &b.BookID); err != nil {
			return nil, fmt.Errorf("failed to scan book row: %w", err)
		}
		b.Author = author.String
		b.ISBN = isbn.String
		b.LanguageCode = lang.String
		b.Genre = genre.String
		b.Publisher = publisher.String
		b.WordCount = wordCount.Int64
		if categories.Valid && categories.String != "" {
			// Categories column holds a JSON array; malformed values
			// are treated as empty rather than failing the batch.
			_ = json.Unmarshal([]byte(categories.String), &b.Categories)
		}
		books = append(books, b)
	}
	return books, rows.Err()
}

// BookDescription returns the long-form description for one catalog
// entry, or "" when the book is not in the published catalog.
func (s *Store) BookDescription(ctx context.Context, bookID string) (string, error) {
	query := fmt.Sprintf(`
		SELECT DESCRIPTION
		FROM %s
		WHERE PERMANENT_ID = ?`, s.tables.Catalog)

	var desc sql.NullString
	err := s.db.QueryRowContext(ctx, query, bookID).Scan(&desc)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to query description for book %s: %w", bookID, err)
	}
	return desc.String, nil
}
