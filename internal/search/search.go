package search

// Result is a single search hit returned to the caller.
type Result struct {
	Slug    string `json:"slug"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

// Query describes a search request over the published entries.
type Query struct {
	Text   string
	Limit  int
	Offset int
}

// Response is the envelope returned by the search endpoint.
type Response struct {
	Results []Result `json:"results"`
	Total   int      `json:"total"`
	Query   string   `json:"query"`
}

// Searcher can execute a full-text search.
type Searcher interface {
	Search(q Query) ([]Result, int, error)
	Healthy() bool
}

// EntryRecord is the data we index for a blog entry. Slug is the primary key.
type EntryRecord struct {
	Slug      string `json:"slug"`
	Title     string `json:"title"`
	Text      string `json:"text"`
	CreatedAt int64  `json:"createdAt"`
}
