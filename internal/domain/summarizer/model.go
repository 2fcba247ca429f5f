package summarizer

import "github.com/yanqian/paper-summarizer/pkg/metrics"

// Config configures the summarizer for one model variant.
type Config struct {
	Variant         string
	MaxLength       int
	MinLength       int
	MinInputChars   int
	MinSummaryChars int
}

// Request represents the incoming summarization payload.
type Request struct {
	Text      string `json:"text"`
	MaxLength int    `json:"max_length,omitempty"`
	MinLength int    `json:"min_length,omitempty"`
}

// Response is returned by the text endpoint.
type Response struct {
	Summary    string              `json:"summary"`
	DurationMs int64               `json:"durationMs,omitempty"`
	TokenUsage *metrics.TokenUsage `json:"tokenUsage,omitempty"`
}

// DocumentSummary is the result of summarizing already extracted text.
type DocumentSummary struct {
	Summary    string
	DurationMs int64
	TokenUsage metrics.TokenUsage
}
