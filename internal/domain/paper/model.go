package paper

import "github.com/yanqian/paper-summarizer/pkg/metrics"

// Config controls extraction limits for paper requests.
type Config struct {
	MaxPages      int
	MinTextChars  int
	MaxInputChars int
	TempDir       string
}

// Summary is returned by the summarize-paper endpoint.
type Summary struct {
	PaperID    string              `json:"paperId"`
	Summary    string              `json:"summary"`
	Pages      int                 `json:"pages"`
	Characters int                 `json:"characters"`
	DurationMs int64               `json:"durationMs,omitempty"`
	TokenUsage *metrics.TokenUsage `json:"tokenUsage,omitempty"`
}

// Document is a fetched PDF ready to be streamed back to the caller.
type Document struct {
	PaperID  string
	Filename string
	Content  []byte
}

// Extraction is the text read from the first pages of a PDF.
type Extraction struct {
	Text       string
	Pages      int
	TotalPages int
}
