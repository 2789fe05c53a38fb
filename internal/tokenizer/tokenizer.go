// Package tokenizer estimates how many model tokens a generated document occupies.
package tokenizer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pkoukk/tiktoken-go"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gpt-4o"

const defaultEncodingName = "cl100k_base"

var errNilEncoding = errors.New("nil tiktoken encoder")

// Counter estimates token counts for text content.
type Counter interface {
	Name() string
	CountString(input string) (int, error)
}

type encodingCounter struct {
	encoding *tiktoken.Tiktoken
	name     string
}

func (counter encodingCounter) Name() string {
	return counter.name
}

func (counter encodingCounter) CountString(input string) (int, error) {
	if counter.encoding == nil {
		return 0, errNilEncoding
	}
	return len(counter.encoding.Encode(input, nil, nil)), nil
}

// NewCounter returns a Counter for model and the name of the encoding actually used.
// Models tiktoken does not know fall back to the cl100k_base encoding.
func NewCounter(model string) (Counter, string, error) {
	trimmedModel := strings.TrimSpace(model)
	if trimmedModel == "" {
		trimmedModel = DefaultModel
	}
	lowerModel := strings.ToLower(trimmedModel)

	encoding, encodingErr := tiktoken.EncodingForModel(lowerModel)
	if encodingErr == nil && encoding != nil {
		return encodingCounter{encoding: encoding, name: lowerModel}, trimmedModel, nil
	}
	fallback, fallbackErr := tiktoken.GetEncoding(defaultEncodingName)
	if fallbackErr != nil {
		return nil, "", fmt.Errorf("initialize fallback tokenizer: %w", fallbackErr)
	}
	return encodingCounter{encoding: fallback, name: defaultEncodingName}, defaultEncodingName, nil
}
