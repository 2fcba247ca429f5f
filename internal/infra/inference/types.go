package inference

import (
	"context"
	"errors"

	"github.com/yanqian/paper-summarizer/pkg/metrics"
)

// ErrBusy is returned when the inference gate could not be acquired in time.
var ErrBusy = errors.New("inference queue wait exceeded")

// GenerationConfig is the decoding policy handed to a backend.
type GenerationConfig struct {
	MaxLength         int
	MinLength         int
	NumBeams          int
	LengthPenalty     float64
	EarlyStopping     bool
	NoRepeatNgramSize int
	DoSample          bool
	Temperature       float64
	TopK              int
	TopP              float64
	RepetitionPenalty float64
}

// Template renders model input into the final prompt. A nil Template sends
// the input unchanged.
type Template func(input string) string

// Request is a single generation call.
type Request struct {
	Model  string
	Prompt string
	Config GenerationConfig
}

// Generation is the decoded backend output.
type Generation struct {
	Text  string
	Usage metrics.TokenUsage
}

// DeviceInfo describes where the backend runs the model. Empty fields mean
// the backend did not report them. A reported DType wins over the one derived
// from the device.
type DeviceInfo struct {
	Device string
	DType  string
}

// Backend runs the model.
type Backend interface {
	Describe(ctx context.Context, model string) (DeviceInfo, error)
	Generate(ctx context.Context, req Request) (Generation, error)
}

// Tokenizer measures prompts against the input token budget.
type Tokenizer interface {
	Encode(text string) []int
	Decode(ids []int) string
}
