package catalog

import "time"

// Entry describes one paper in the external index.
type Entry struct {
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	Summary    string     `json:"summary"`
	Authors    []string   `json:"authors"`
	Published  *time.Time `json:"published,omitempty"`
	Updated    *time.Time `json:"updated,omitempty"`
	PDFURL     string     `json:"pdfUrl"`
	AbsURL     string     `json:"absUrl"`
	Categories []string   `json:"categories,omitempty"`
}

// SearchRequest is a full text query against the index.
type SearchRequest struct {
	Query string `form:"q"`
	Start int    `form:"start"`
	Max   int    `form:"max"`
}

// SearchResponse is a page of search results.
type SearchResponse struct {
	Results []Entry `json:"results"`
	Total   int     `json:"total"`
	Start   int     `json:"start"`
}

// Page is what an index returns for one query window.
type Page struct {
	Entries []Entry
	Total   int
}

// Config bounds search requests.
type Config struct {
	DefaultResults int
	MaxResults     int
}
