// Package clipboard copies generated documents to the system clipboard.
package clipboard

import (
	"errors"
	"fmt"

	"github.com/atotto/clipboard"
)

// ErrUnavailable indicates the platform exposes no clipboard utility.
var ErrUnavailable = errors.New("system clipboard is unavailable")

// Copier copies textual data to the system clipboard.
type Copier interface {
	Copy(text string) error
}

// Service implements Copier using github.com/atotto/clipboard.
type Service struct {
	write       func(string) error
	unsupported func() bool
}

// NewService constructs a clipboard service backed by the platform utility.
func NewService() *Service {
	return &Service{
		write:       clipboard.WriteAll,
		unsupported: func() bool { return clipboard.Unsupported },
	}
}

// Copy writes text to the system clipboard.
func (service *Service) Copy(text string) error {
	if service.unsupported != nil && service.unsupported() {
		return ErrUnavailable
	}
	if writeErr := service.write(text); writeErr != nil {
		return fmt.Errorf("copy %d bytes to clipboard: %w", len(text), writeErr)
	}
	return nil
}

var _ Copier = (*Service)(nil)
