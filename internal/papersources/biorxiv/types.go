package biorxiv

// DetailsResponse represents the top-level bioRxiv/medRxiv details API
// response. The API returns a status block plus a page of preprints.
type DetailsResponse struct {
	Messages   []Message  `json:"messages"`
	Collection []Preprint `json:"collection"`
}

// Message carries the paging metadata for one details API page.
type Message struct {
	Status string `json:"status"` // "ok" or "no posts found"
	Count  int    `json:"count"`  // records in this page
	Total  int    `json:"total"`  // total records in the date window
	Cursor any    `json:"cursor"` // string or number depending on API version
}

// Preprint represents a single preprint record in the details response.
type Preprint struct {
	DOI       string `json:"doi"`
	Title     string `json:"title"`
	Authors   string `json:"authors"` // "Doe, J.; Smith, A."
	Date      string `json:"date"`    // "2026-08-15"
	Version   string `json:"version"`
	Category  string `json:"category"`
	Abstract  string `json:"abstract"`
	Server    string `json:"server"`
	Published string `json:"published"` // journal DOI once published, "NA" otherwise
}
