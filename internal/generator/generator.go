// Package generator runs one repository-to-document generation.
package generator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/temirov/repodoc/internal/filetree"
	"github.com/temirov/repodoc/internal/githubapi"
	"github.com/temirov/repodoc/internal/output"
	"github.com/temirov/repodoc/internal/pathfilter"
	"github.com/temirov/repodoc/internal/tokenizer"
	"github.com/temirov/repodoc/internal/treefetch"
	"github.com/temirov/repodoc/internal/types"
)

const (
	// DefaultBranch is assumed when the repository's default branch cannot be determined.
	DefaultBranch = "main"
	// DefaultContributorLimit caps the contributor section when no limit is requested.
	DefaultContributorLimit = 10

	documentFileNameFormat = "%s_docs%s"
	markdownExtension      = ".md"
	htmlExtension          = ".html"
	htmlTitleFormat        = "%s documentation"

	detailsPlaceholderDescription = "Repository information could not be retrieved"

	branchFallbackFormat      = "default branch could not be determined, using %s: %v"
	detailsFallbackFormat     = "repository details could not be retrieved: %v"
	contributorFallbackFormat = "contributors could not be retrieved, listing the owner: %v"
	rateLimitedFormat         = "repository listing was rate limited, the file structure is empty: %v"
	listingFailureFormat      = "repository listing failed, the file structure is empty: %v"
	truncatedListingMessage   = "repository listing was truncated, reconstructing it directory by directory"
	contentFailureFormat      = "file contents could not be retrieved: %v"
)

// ErrUnsupportedFormat indicates an output format other than markdown or html.
var ErrUnsupportedFormat = errors.New("unsupported output format")

// RepositoryService is the remote repository API used by a generation run.
type RepositoryService interface {
	treefetch.DirectoryLister
	DefaultBranch(ctx context.Context, repository types.RepositoryReference) (string, error)
	RepositoryDetails(ctx context.Context, repository types.RepositoryReference) (types.RepositoryDetails, error)
	Contributors(ctx context.Context, repository types.RepositoryReference, limit int) ([]types.Contributor, error)
	ListTree(ctx context.Context, repository types.RepositoryReference, reference string) (types.TreeListing, error)
	FileContent(ctx context.Context, repository types.RepositoryReference, filePath string, reference string) (string, error)
}

// Request describes one generation run.
// A zero ContributorLimit or FileLimit takes the default; a negative one disables the section.
type Request struct {
	RepositoryURL        string
	Format               string
	IgnorePatterns       []string
	SourceIgnorePatterns []string
	MaxDepth             int
	ContributorLimit     int
	FileLimit            int
	Authenticated        bool
}

// Result is the outcome of a run. Notices lists every degradation that did not stop it.
type Result struct {
	Repository types.RepositoryReference
	Branch     string
	Document   string
	Tree       *types.Node
	Counts     types.Counts
	Notices    []types.Notice
	FileName   string
	Tokens     int
	TokenModel string
}

// Generator produces repository documents through a RepositoryService.
type Generator struct {
	service    RepositoryService
	logger     *zap.Logger
	fetcher    treefetch.Fetcher
	counter    tokenizer.Counter
	tokenModel string
}

// NewGenerator constructs a Generator whose fallback walk uses the default pacing.
func NewGenerator(service RepositoryService, logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{
		service: service,
		logger:  logger,
		fetcher: treefetch.NewFetcher(service, logger),
	}
}

// WithPause sets the delay between directory listings of the fallback walk.
func (generator *Generator) WithPause(pause time.Duration) *Generator {
	generator.fetcher = generator.fetcher.WithPause(pause)
	return generator
}

// WithCounter enables token estimation of the final document.
func (generator *Generator) WithCounter(counter tokenizer.Counter, model string) *Generator {
	generator.counter = counter
	generator.tokenModel = model
	return generator
}

// NormalizeFormat maps accepted format names to markdown or html.
func NormalizeFormat(format string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", types.FormatMarkdown, types.FormatMarkdownShort:
		return types.FormatMarkdown, nil
	case types.FormatHTML:
		return types.FormatHTML, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}

// BuildTree resolves the repository, lists it, and builds its tree without rendering a document.
func (generator *Generator) BuildTree(ctx context.Context, request Request) (Result, error) {
	repository, parseErr := githubapi.ParseRepositoryURL(request.RepositoryURL)
	if parseErr != nil {
		return Result{}, parseErr
	}
	result := Result{Repository: repository}
	result.Branch = generator.resolveBranch(ctx, repository, &result.Notices)
	generator.buildTree(ctx, request, &result)
	return result, nil
}

// Generate runs the full pipeline. Only an invalid repository URL or format fails the run.
func (generator *Generator) Generate(ctx context.Context, request Request) (Result, error) {
	format, formatErr := NormalizeFormat(request.Format)
	if formatErr != nil {
		return Result{}, formatErr
	}
	repository, parseErr := githubapi.ParseRepositoryURL(request.RepositoryURL)
	if parseErr != nil {
		return Result{}, parseErr
	}
	result := Result{Repository: repository}
	generator.logger.Info("generating documentation", zap.String("repository", repository.String()), zap.String("format", format))

	result.Branch = generator.resolveBranch(ctx, repository, &result.Notices)
	details, contributors := generator.collectMetadata(ctx, repository, request.ContributorLimit, &result.Notices)
	generator.buildTree(ctx, request, &result)
	files := generator.collectFiles(ctx, repository, result.Branch, result.Tree, request, &result.Notices)

	document := output.RenderMarkdown(output.DocumentInput{
		Repository:    repository,
		Details:       details,
		Contributors:  contributors,
		Tree:          result.Tree,
		Counts:        result.Counts,
		Branch:        result.Branch,
		Files:         files,
		Authenticated: request.Authenticated,
	})
	extension := markdownExtension
	if format == types.FormatHTML {
		page, convertErr := output.ConvertToHTML(document, fmt.Sprintf(htmlTitleFormat, repository.Repository))
		if convertErr != nil {
			return Result{}, convertErr
		}
		document = page
		extension = htmlExtension
	}
	result.Document = document
	result.FileName = fmt.Sprintf(documentFileNameFormat, repository.Repository, extension)

	if generator.counter != nil {
		tokens, countErr := generator.counter.CountString(document)
		if countErr != nil {
			generator.logger.Warn("token counting failed", zap.Error(countErr))
		} else {
			result.Tokens = tokens
			result.TokenModel = generator.tokenModel
		}
	}
	generator.logger.Info("documentation generated",
		zap.String("repository", repository.String()),
		zap.Int("files", result.Counts.Files),
		zap.Int("directories", result.Counts.Directories),
		zap.Int("notices", len(result.Notices)),
	)
	return result, nil
}

func (generator *Generator) resolveBranch(ctx context.Context, repository types.RepositoryReference, notices *[]types.Notice) string {
	branch, branchErr := generator.service.DefaultBranch(ctx, repository)
	if branchErr == nil && branch != "" {
		return branch
	}
	generator.logger.Debug("default branch lookup failed", zap.String("repository", repository.String()), zap.Error(branchErr))
	*notices = append(*notices, types.Notice{
		Kind:    types.NoticeMetadataFallback,
		Message: fmt.Sprintf(branchFallbackFormat, DefaultBranch, branchErr),
	})
	return DefaultBranch
}

// collectMetadata fetches details and contributors concurrently, substituting placeholders on failure.
func (generator *Generator) collectMetadata(ctx context.Context, repository types.RepositoryReference, contributorLimit int, notices *[]types.Notice) (types.RepositoryDetails, []types.Contributor) {
	if contributorLimit == 0 {
		contributorLimit = DefaultContributorLimit
	}
	var (
		details         types.RepositoryDetails
		detailsErr      error
		contributors    []types.Contributor
		contributorsErr error
	)
	group, groupContext := errgroup.WithContext(ctx)
	group.Go(func() error {
		details, detailsErr = generator.service.RepositoryDetails(groupContext, repository)
		return nil
	})
	if contributorLimit > 0 {
		group.Go(func() error {
			contributors, contributorsErr = generator.service.Contributors(groupContext, repository, contributorLimit)
			return nil
		})
	}
	_ = group.Wait()

	if detailsErr != nil {
		generator.logger.Debug("repository details lookup failed", zap.Error(detailsErr))
		*notices = append(*notices, types.Notice{
			Kind:    types.NoticeMetadataFallback,
			Message: fmt.Sprintf(detailsFallbackFormat, detailsErr),
		})
		details = types.RepositoryDetails{
			Name:        repository.Repository,
			Owner:       repository.Owner,
			Description: detailsPlaceholderDescription,
		}
	}
	if contributorsErr != nil {
		generator.logger.Debug("contributor lookup failed", zap.Error(contributorsErr))
		*notices = append(*notices, types.Notice{
			Kind:    types.NoticeMetadataFallback,
			Message: fmt.Sprintf(contributorFallbackFormat, contributorsErr),
		})
		contributors = []types.Contributor{{Login: repository.Owner, Contributions: 1}}
	}
	return details, contributors
}

func (generator *Generator) buildTree(ctx context.Context, request Request, result *Result) {
	entries := generator.listEntries(ctx, result.Repository, result.Branch, &result.Notices)
	started := time.Now()
	built := filetree.BuildFileTree(entries, request.IgnorePatterns, request.MaxDepth)
	generator.logger.Debug("file tree built", zap.Int("entries", len(entries)), zap.Duration("elapsed", time.Since(started)))
	for _, notice := range built.Notices {
		generator.logger.Debug("file tree notice", zap.String("kind", string(notice.Kind)), zap.String("path", notice.Path), zap.String("message", notice.Message))
	}
	result.Tree = built.Root
	result.Counts = filetree.CountFiles(built.Root)
	result.Notices = append(result.Notices, built.Notices...)
}

func (generator *Generator) listEntries(ctx context.Context, repository types.RepositoryReference, branch string, notices *[]types.Notice) []types.Entry {
	listing, listErr := generator.service.ListTree(ctx, repository, branch)
	if listErr != nil {
		format := listingFailureFormat
		if errors.Is(listErr, githubapi.ErrRateLimited) {
			format = rateLimitedFormat
		}
		generator.logger.Debug("repository listing failed", zap.String("repository", repository.String()), zap.Error(listErr))
		*notices = append(*notices, types.Notice{
			Kind:    types.NoticeRemoteListingFailure,
			Message: fmt.Sprintf(format, listErr),
		})
		return nil
	}
	if !listing.Truncated {
		return listing.Entries
	}
	generator.logger.Info(truncatedListingMessage, zap.String("repository", repository.String()))
	manual := generator.fetcher.BuildManualTree(ctx, repository, branch)
	*notices = append(*notices, manual.Notices...)
	return manual.Entries
}

func (generator *Generator) collectFiles(ctx context.Context, repository types.RepositoryReference, branch string, tree *types.Node, request Request, notices *[]types.Notice) []output.FileSection {
	fileLimit := request.FileLimit
	if fileLimit == 0 {
		fileLimit = output.DefaultImportantFileLimit
	}
	paths := output.SelectImportantFiles(tree, fileLimit)
	if len(paths) == 0 {
		return nil
	}
	lineFilter := pathfilter.Compile(request.SourceIgnorePatterns)
	sections := make([]output.FileSection, 0, len(paths))
	for _, filePath := range paths {
		content, contentErr := generator.service.FileContent(ctx, repository, filePath, branch)
		if contentErr != nil {
			generator.logger.Debug("file content lookup failed", zap.String("path", filePath), zap.Error(contentErr))
			*notices = append(*notices, types.Notice{
				Kind:    types.NoticeContentFailure,
				Path:    filePath,
				Message: fmt.Sprintf(contentFailureFormat, contentErr),
			})
			sections = append(sections, output.FileSection{Path: filePath, Err: contentErr})
			continue
		}
		if !lineFilter.Empty() {
			content = lineFilter.FilterLines(content)
		}
		sections = append(sections, output.FileSection{Path: filePath, Content: content})
	}
	return sections
}
