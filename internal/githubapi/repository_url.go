package githubapi

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/temirov/repodoc/internal/types"
)

const gitSuffix = ".git"

// ErrInvalidRepositoryURL indicates the input does not name a GitHub repository.
var ErrInvalidRepositoryURL = errors.New("invalid GitHub repository URL")

var repositoryURLPattern = regexp.MustCompile(`github\.com[:/]([^/]+)/([^/?#]+)`)

// ParseRepositoryURL extracts the owner and repository from HTTPS, SSH, or bare github.com URLs.
func ParseRepositoryURL(rawURL string) (types.RepositoryReference, error) {
	trimmed := strings.TrimSpace(rawURL)
	if trimmed == "" {
		return types.RepositoryReference{}, ErrInvalidRepositoryURL
	}
	match := repositoryURLPattern.FindStringSubmatch(trimmed)
	if match == nil {
		return types.RepositoryReference{}, fmt.Errorf("%w: %s", ErrInvalidRepositoryURL, trimmed)
	}
	repository := strings.TrimSuffix(match[2], gitSuffix)
	if repository == "" {
		return types.RepositoryReference{}, fmt.Errorf("%w: %s", ErrInvalidRepositoryURL, trimmed)
	}
	return types.RepositoryReference{Owner: match[1], Repository: repository}, nil
}
