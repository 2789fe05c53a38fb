package generator_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/temirov/repodoc/internal/generator"
	"github.com/temirov/repodoc/internal/githubapi"
	"github.com/temirov/repodoc/internal/types"
)

const demoURL = "https://github.com/octo/demo"

type fakeService struct {
	mutex           sync.Mutex
	branch          string
	branchErr       error
	details         types.RepositoryDetails
	detailsErr      error
	contributors    []types.Contributor
	contributorsErr error
	listing         types.TreeListing
	listingErr      error
	directories     map[string][]types.Entry
	contents        map[string]string
	contentErrs     map[string]error
	contentRequests []string
	contributorCall int
}

func (service *fakeService) DefaultBranch(ctx context.Context, repository types.RepositoryReference) (string, error) {
	return service.branch, service.branchErr
}

func (service *fakeService) RepositoryDetails(ctx context.Context, repository types.RepositoryReference) (types.RepositoryDetails, error) {
	return service.details, service.detailsErr
}

func (service *fakeService) Contributors(ctx context.Context, repository types.RepositoryReference, limit int) ([]types.Contributor, error) {
	service.mutex.Lock()
	service.contributorCall = limit
	service.mutex.Unlock()
	return service.contributors, service.contributorsErr
}

func (service *fakeService) ListTree(ctx context.Context, repository types.RepositoryReference, reference string) (types.TreeListing, error) {
	return service.listing, service.listingErr
}

func (service *fakeService) ListDirectory(ctx context.Context, repository types.RepositoryReference, directoryPath string, reference string) ([]types.Entry, error) {
	return service.directories[directoryPath], nil
}

func (service *fakeService) FileContent(ctx context.Context, repository types.RepositoryReference, filePath string, reference string) (string, error) {
	service.contentRequests = append(service.contentRequests, filePath)
	if err, ok := service.contentErrs[filePath]; ok {
		return "", err
	}
	return service.contents[filePath], nil
}

func healthyService() *fakeService {
	return &fakeService{
		branch: "trunk",
		details: types.RepositoryDetails{
			Name:        "demo",
			Owner:       "octo",
			Description: "A demo repository",
			Language:    "Go",
		},
		contributors: []types.Contributor{{Login: "alice", Contributions: 3}},
		listing: types.TreeListing{Entries: []types.Entry{
			{Path: "README.md", Type: types.EntryTypeBlob, Size: 10},
			{Path: "cmd", Type: types.EntryTypeTree},
			{Path: "cmd/main.go", Type: types.EntryTypeBlob, Size: 20},
			{Path: "debug.log", Type: types.EntryTypeBlob, Size: 1},
		}},
		contents: map[string]string{
			"README.md":   "# Demo\n",
			"cmd/main.go": "package main\n// TODO: drop\nfunc main() {}\n",
		},
	}
}

func newTestGenerator(service generator.RepositoryService) *generator.Generator {
	return generator.NewGenerator(service, zap.NewNop()).WithPause(0)
}

type fixedCounter struct{}

func (fixedCounter) Name() string { return "fixed" }

func (fixedCounter) CountString(input string) (int, error) { return len(input), nil }

func TestGenerateMarkdown(t *testing.T) {
	service := healthyService()
	result, err := newTestGenerator(service).WithCounter(fixedCounter{}, "gpt-4o").Generate(context.Background(), generator.Request{
		RepositoryURL:        demoURL,
		Format:               "md",
		IgnorePatterns:       []string{"*.log"},
		SourceIgnorePatterns: []string{"// TODO:"},
		MaxDepth:             -1,
	})
	require.NoError(t, err)
	require.Equal(t, types.RepositoryReference{Owner: "octo", Repository: "demo"}, result.Repository)
	require.Equal(t, "trunk", result.Branch)
	require.Equal(t, "demo_docs.md", result.FileName)
	require.Empty(t, result.Notices)
	require.Equal(t, types.Counts{Files: 2, Directories: 2}, result.Counts)
	require.Equal(t, generator.DefaultContributorLimit, service.contributorCall)
	require.Equal(t, []string{"README.md", "cmd/main.go"}, service.contentRequests)
	require.Contains(t, result.Document, "# demo\n")
	require.Contains(t, result.Document, "package main\nfunc main() {}")
	require.NotContains(t, result.Document, "TODO: drop")
	require.NotContains(t, result.Document, "debug.log")
	require.Equal(t, len(result.Document), result.Tokens)
	require.Equal(t, "gpt-4o", result.TokenModel)
}

func TestGenerateHTML(t *testing.T) {
	result, err := newTestGenerator(healthyService()).Generate(context.Background(), generator.Request{
		RepositoryURL: demoURL,
		Format:        "HTML",
		MaxDepth:      -1,
	})
	require.NoError(t, err)
	require.Equal(t, "demo_docs.html", result.FileName)
	require.True(t, strings.HasPrefix(result.Document, "<!DOCTYPE html>"))
	require.Contains(t, result.Document, "<title>demo documentation</title>")
}

func TestGenerateRejectsInvalidInput(t *testing.T) {
	_, err := newTestGenerator(healthyService()).Generate(context.Background(), generator.Request{RepositoryURL: "not a url"})
	require.ErrorIs(t, err, githubapi.ErrInvalidRepositoryURL)

	_, err = newTestGenerator(healthyService()).Generate(context.Background(), generator.Request{RepositoryURL: demoURL, Format: "pdf"})
	require.ErrorIs(t, err, generator.ErrUnsupportedFormat)
}

func TestGenerateDegradesMetadataFailures(t *testing.T) {
	service := healthyService()
	service.branchErr = errors.New("branch lookup failed")
	service.detailsErr = errors.New("details lookup failed")
	service.contributorsErr = errors.New("contributors lookup failed")
	service.contentErrs = map[string]error{"README.md": githubapi.ErrBinaryContent}

	result, err := newTestGenerator(service).Generate(context.Background(), generator.Request{RepositoryURL: demoURL, MaxDepth: -1})
	require.NoError(t, err)
	require.Equal(t, generator.DefaultBranch, result.Branch)
	require.Contains(t, result.Document, "- **Owner**: octo")
	require.Contains(t, result.Document, "### octo\n")
	require.Contains(t, result.Document, "Failed to retrieve file contents")

	kinds := map[types.NoticeKind]int{}
	for _, notice := range result.Notices {
		kinds[notice.Kind]++
	}
	require.Equal(t, 3, kinds[types.NoticeMetadataFallback])
	require.Equal(t, 1, kinds[types.NoticeContentFailure])
}

func TestGenerateRateLimitedListing(t *testing.T) {
	service := healthyService()
	service.listingErr = githubapi.ErrRateLimited
	result, err := newTestGenerator(service).Generate(context.Background(), generator.Request{RepositoryURL: demoURL, MaxDepth: -1})
	require.NoError(t, err)
	require.Empty(t, result.Tree.Children)
	require.Len(t, result.Notices, 1)
	require.Equal(t, types.NoticeRemoteListingFailure, result.Notices[0].Kind)
	require.Contains(t, result.Notices[0].Message, "rate limited")
	require.Contains(t, result.Document, "The file structure could not be retrieved")
	require.Empty(t, service.contentRequests)
}

func TestGenerateFallsBackToDirectoryWalk(t *testing.T) {
	service := healthyService()
	service.listing = types.TreeListing{Truncated: true, Entries: []types.Entry{{Path: "partial.txt", Type: types.EntryTypeBlob}}}
	service.directories = map[string][]types.Entry{
		"":    {{Path: "lib", Type: types.EntryTypeDir}, {Path: "setup.py", Type: types.EntryTypeFile, Size: 4}},
		"lib": {{Path: "lib/core.py", Type: types.EntryTypeFile, Size: 8}},
	}
	result, err := newTestGenerator(service).BuildTree(context.Background(), generator.Request{RepositoryURL: demoURL, MaxDepth: -1})
	require.NoError(t, err)
	require.Equal(t, types.Counts{Files: 2, Directories: 2}, result.Counts)
	require.Empty(t, result.Document)
	require.Len(t, result.Tree.Children, 2)
}

func TestGenerateHonorsLimits(t *testing.T) {
	service := healthyService()
	result, err := newTestGenerator(service).Generate(context.Background(), generator.Request{
		RepositoryURL:    demoURL,
		MaxDepth:         -1,
		ContributorLimit: -1,
		FileLimit:        -1,
	})
	require.NoError(t, err)
	require.Zero(t, service.contributorCall)
	require.Empty(t, service.contentRequests)
	require.NotContains(t, result.Document, "## Contributors")
	require.Contains(t, result.Document, "No important files were found")
}
