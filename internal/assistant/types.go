package assistant

// Recommendation is one book suggested by the recommend_books tool call.
type Recommendation struct {
	BookID string `json:"book_id"`
	Title  string `json:"title"`
	Reason string `json:"reason"`
}

// toolArgs mirrors the arguments the model supplies to recommend_books.
type toolArgs struct {
	RecommendationSummary string           `json:"recommendation_summary"`
	RecommendedBooks      []Recommendation `json:"recommended_books"`
}
