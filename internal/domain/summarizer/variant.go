package summarizer

import (
	"fmt"
	"strings"

	"github.com/yanqian/paper-summarizer/internal/infra/inference"
)

const (
	instOpen  = "[INST]"
	instClose = "[/INST]"
	eos       = "</s>"
)

const mistralInstruction = `Please summarize the following text in a structured format with a human-like summary, main points, and a conclusion:

### **Human-Like Summary**
Provide a high-level overview in one paragraph.

### **Main Points**
- Extract key findings and concepts.
- Highlight the most important arguments and results.
- Keep the bullet points concise and informative.

### **Conclusion**
- Summarize the key takeaways and implications.
- Mention any recommendations or final thoughts.

Text:
%s

Ensure the summary is **clear, concise, and professional**.`

// Variant bundles everything that differs between the supported models.
type Variant struct {
	Name             string
	DefaultMaxLength int
	DefaultMinLength int

	prompt      func(text string) string
	extract     func(output string) string
	textPolicy  func(maxLen, minLen int) inference.GenerationConfig
	paperPolicy inference.GenerationConfig
}

// LookupVariant returns the decoding setup for a model variant.
func LookupVariant(name string) (Variant, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "bart":
		return bartVariant(), nil
	case "mistral":
		return mistralVariant(), nil
	default:
		return Variant{}, fmt.Errorf("unknown model variant %q", name)
	}
}

// Prompt renders the model input for text.
func (v Variant) Prompt(text string) string {
	return v.prompt(text)
}

// Extract strips anything the model echoed back from the prompt.
func (v Variant) Extract(output string) string {
	return v.extract(output)
}

// TextPolicy is the decoding policy of the free-text endpoint.
func (v Variant) TextPolicy(maxLen, minLen int) inference.GenerationConfig {
	return v.textPolicy(maxLen, minLen)
}

// PaperPolicy is the deterministic decoding policy used for papers.
func (v Variant) PaperPolicy() inference.GenerationConfig {
	return v.paperPolicy
}

func bartVariant() Variant {
	return Variant{
		Name:             "bart",
		DefaultMaxLength: 150,
		DefaultMinLength: 60,
		prompt:           func(text string) string { return text },
		extract:          func(output string) string { return output },
		textPolicy: func(maxLen, minLen int) inference.GenerationConfig {
			return inference.GenerationConfig{
				MaxLength:         maxLen,
				MinLength:         minLen,
				NumBeams:          6,
				LengthPenalty:     1.2,
				EarlyStopping:     true,
				NoRepeatNgramSize: 3,
				DoSample:          true,
				Temperature:       0.9,
				TopK:              50,
				TopP:              0.8,
			}
		},
		paperPolicy: inference.GenerationConfig{
			MaxLength:         150,
			MinLength:         60,
			NumBeams:          8,
			LengthPenalty:     2.0,
			EarlyStopping:     true,
			NoRepeatNgramSize: 3,
		},
	}
}

func mistralVariant() Variant {
	return Variant{
		Name:             "mistral",
		DefaultMaxLength: 350,
		DefaultMinLength: 64,
		prompt: func(text string) string {
			return "<s>" + instOpen + " " + fmt.Sprintf(mistralInstruction, text) + " " + instClose + eos
		},
		extract: func(output string) string {
			if idx := strings.LastIndex(output, instClose); idx >= 0 {
				output = output[idx+len(instClose):]
			}
			return strings.ReplaceAll(output, eos, "")
		},
		textPolicy: func(maxLen, minLen int) inference.GenerationConfig {
			return inference.GenerationConfig{
				MaxLength:         maxLen,
				MinLength:         minLen,
				DoSample:          true,
				Temperature:       0.7,
				TopK:              50,
				TopP:              0.85,
				RepetitionPenalty: 1.1,
			}
		},
		paperPolicy: inference.GenerationConfig{
			MaxLength:         350,
			MinLength:         64,
			RepetitionPenalty: 1.1,
		},
	}
}
