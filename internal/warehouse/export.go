package warehouse

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
)

// ExportCatalog writes every distinct published book to a temporary
// newline-delimited JSON file, one {book_id, title, description} object
// per line, and returns the file path. The caller removes the file once
// the retrieval index has been provisioned from it.
func (s *Store) ExportCatalog(ctx context.Context) (string, error) {
	query := fmt.Sprintf(`
		SELECT DISTINCT PERMANENT_ID, TITLE, DESCRIPTION
		FROM %s`, s.tables.Catalog)

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return "", fmt.Errorf("failed to query published catalog: %w", err)
	}
	defer rows.Close()

	f, err := os.CreateTemp("", "bookrec-catalog-*.json")
	if err != nil {
		return "", fmt.Errorf("failed to create catalog temp file: %w", err)
	}

	enc := json.NewEncoder(f)
	for rows.Next() {
		var book CatalogBook
		var desc sql.NullString
		if err := rows.Scan(&book.BookID, &book.Title, &desc); err != nil {
			f.Close()
			os.Remove(f.Name())
			return "", fmt.Errorf("failed to scan catalog row: %w", err)
		}
		book.Description = desc.String
		if err := enc.Encode(book); err != nil {
			f.Close()
			os.Remove(f.Name())
			return "", fmt.Errorf("failed to write catalog record: %w", err)
		}
	}
	if err := rows.Err(); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to read published catalog: %w", err)
	}

	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to close catalog file: %w", err)
	}
	return f.Name(), nil
}
