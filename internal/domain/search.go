package domain

// Candidate is a search-result descriptor returned by the search backend,
// before its page content has been fetched and normalized.
type Candidate struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"` // raw snippet from the backend
}

// SearchResult is a fully processed search hit: fetched, normalized and
// word-truncated page content plus the backend snippet.
type SearchResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
	Snippet string `json:"snippet"`
}

// PageResult is the outcome of fetching a single explicit page. A failed
// fetch is not an error at this level: Content carries a descriptive
// failure string and the other fields stay empty.
type PageResult struct {
	Title   string `json:"title,omitempty"`
	URL     string `json:"url"`
	Content string `json:"content"`
	Excerpt string `json:"excerpt,omitempty"`
}
