package warehouse

import "time"

// BookRead is one distinct book from a reader's session history.
type BookRead struct {
	EventTime    time.Time `json:"event_time"`
	Title        string    `json:"title"`
	Author       string    `json:"author"`
	ISBN         string    `json:"isbn"`
	LanguageCode string    `json:"language_code"`
	Genre        string    `json:"genre"`
	Publisher    string    `json:"publisher"`
	WordCount    int64     `json:"word_count"`
	Categories   []string  `json:"categories"`
	BookID       string    `json:"book_id"`
}

// CatalogBook is one published book in the exported catalog document.
type CatalogBook struct {
	BookID      string `json:"book_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Tables names the warehouse tables/views queried by the Store.
type Tables struct {
	Sessions string // reading session events (USER_ID, EVENT_TIME, BOOK_PERMANENT_ID)
	Books    string // book metadata keyed by PERMANENT_ID
	Catalog  string // published-book view (PERMANENT_ID, TITLE, DESCRIPTION)
}
