// Package treefetch reconstructs a flat repository listing by walking directories one level at a time.
// It is used when the bulk recursive listing comes back truncated.
package treefetch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/temirov/repodoc/internal/types"
)

const (
	// DefaultPause is waited before every directory listing after the root.
	DefaultPause = 500 * time.Millisecond
	// DefaultDepthCeiling stops expansion below directories holding this many separators.
	DefaultDepthCeiling = 5

	rootDirectoryPath = ""
	pathSeparator     = "/"

	listingFailureFormat = "listing %s failed: %v"
	rootDisplayName      = "repository root"
)

// DirectoryLister lists the immediate children of one repository directory.
type DirectoryLister interface {
	ListDirectory(ctx context.Context, repository types.RepositoryReference, directoryPath string, reference string) ([]types.Entry, error)
}

// Result is the reconstructed listing and the directories that could not be listed.
type Result struct {
	Entries []types.Entry
	Notices []types.Notice
}

// Fetcher walks a repository sequentially, pacing every listing call.
type Fetcher struct {
	lister       DirectoryLister
	logger       *zap.Logger
	pause        time.Duration
	depthCeiling int
}

type pendingDirectory struct {
	path  string
	depth int
}

// NewFetcher constructs a Fetcher with the default pause and depth ceiling.
func NewFetcher(lister DirectoryLister, logger *zap.Logger) Fetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return Fetcher{
		lister:       lister,
		logger:       logger,
		pause:        DefaultPause,
		depthCeiling: DefaultDepthCeiling,
	}
}

func (fetcher Fetcher) WithPause(pause time.Duration) Fetcher {
	if pause < 0 {
		return fetcher
	}
	fetcher.pause = pause
	return fetcher
}

func (fetcher Fetcher) WithDepthCeiling(ceiling int) Fetcher {
	if ceiling < 0 {
		return fetcher
	}
	fetcher.depthCeiling = ceiling
	return fetcher
}

// BuildManualTree lists the repository root and descends into directories depth first.
// Directories are listed one at a time and every listing waits for the pacing limiter.
// A failed listing is recorded as a notice and the walk moves on; cancellation of ctx
// stops the walk and returns the entries gathered so far.
func (fetcher Fetcher) BuildManualTree(ctx context.Context, repository types.RepositoryReference, reference string) Result {
	var result Result
	if fetcher.lister == nil {
		return result
	}
	worklist := []pendingDirectory{{path: rootDirectoryPath, depth: 0}}

	for listed := 0; len(worklist) > 0; listed++ {
		current := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]

		pause := fetcher.pause
		if listed == 0 {
			pause = 0
		}
		if waitErr := waitFor(ctx, pause); waitErr != nil {
			fetcher.logger.Warn("directory walk stopped", zap.String("repository", repository.String()), zap.Error(waitErr))
			return result
		}
		items, listErr := fetcher.lister.ListDirectory(ctx, repository, current.path, reference)
		if listErr != nil {
			if errors.Is(listErr, context.Canceled) || errors.Is(listErr, context.DeadlineExceeded) {
				fetcher.logger.Warn("directory walk stopped", zap.String("repository", repository.String()), zap.Error(listErr))
				return result
			}
			displayPath := current.path
			if displayPath == rootDirectoryPath {
				displayPath = rootDisplayName
			}
			fetcher.logger.Debug("directory listing failed", zap.String("path", displayPath), zap.Error(listErr))
			result.Notices = append(result.Notices, types.Notice{
				Kind:    types.NoticeRemoteListingFailure,
				Path:    current.path,
				Message: fmt.Sprintf(listingFailureFormat, displayPath, listErr),
			})
			continue
		}

		var discovered []pendingDirectory
		for _, item := range items {
			entryType := types.EntryTypeBlob
			if types.IsDirectoryType(item.Type) {
				entryType = types.EntryTypeTree
			}
			entry := types.Entry{Path: item.Path, Type: entryType}
			if entryType == types.EntryTypeBlob {
				entry.Size = item.Size
			}
			result.Entries = append(result.Entries, entry)

			if entryType == types.EntryTypeTree && fetcher.shouldExpand(current) {
				discovered = append(discovered, pendingDirectory{
					path:  item.Path,
					depth: strings.Count(item.Path, pathSeparator),
				})
			}
		}
		for index := len(discovered) - 1; index >= 0; index-- {
			worklist = append(worklist, discovered[index])
		}
	}

	fetcher.logger.Debug("directory walk finished",
		zap.String("repository", repository.String()),
		zap.Int("entries", len(result.Entries)),
		zap.Int("failures", len(result.Notices)),
	)
	return result
}

// shouldExpand reports whether directories found inside parent are listed in turn.
// Root children are always expanded.
func (fetcher Fetcher) shouldExpand(parent pendingDirectory) bool {
	if parent.path == rootDirectoryPath {
		return true
	}
	return parent.depth < fetcher.depthCeiling
}

// waitFor blocks for pause, returning early with the context error when ctx ends.
func waitFor(ctx context.Context, pause time.Duration) error {
	if pause <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(pause)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
