// Package githubapi reads repository metadata, listings, and file contents from the GitHub REST API.
package githubapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/go-github/v57/github"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/temirov/repodoc/internal/types"
)

const (
	defaultAPITimeout         = 30 * time.Second
	defaultAPIBaseURL         = "https://api.github.com/"
	defaultUserAgent          = "repodoc"
	authorizationBearerPrefix = "Bearer "
	authorizationTokenPrefix  = "token "
	tokenTypeToken            = "token"
	tokenTypeBearer           = "Bearer"
	contentTypeDirectory      = "dir"
	maxContributorsPerPage    = 100
)

var (
	// ErrRateLimited indicates the API refused the call because a rate limit was exhausted.
	ErrRateLimited = errors.New("GitHub API rate limit exceeded")
	// ErrBinaryContent indicates a file whose contents are not valid UTF-8 text.
	ErrBinaryContent = errors.New("file content is binary")
	// ErrNotDirectory indicates a directory listing was requested for a file path.
	ErrNotDirectory = errors.New("path is not a directory")
)

// Client talks to the GitHub REST API. Its zero value is not usable; construct it with NewClient.
type Client struct {
	httpClient *http.Client
	apiBase    string
	userAgent  string
	timeout    time.Duration
	tokenType  string
	tokenValue string
	retry      RetryConfig
	limiter    *rate.Limiter
	logger     *zap.Logger
	api        *github.Client
}

// NewClient constructs an unauthenticated client against the public API.
func NewClient(logger *zap.Logger) Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	client := Client{
		apiBase:   defaultAPIBaseURL,
		userAgent: defaultUserAgent,
		timeout:   defaultAPITimeout,
		retry:     DefaultRetryConfig(),
		logger:    logger,
	}
	return client.rebuild()
}

// WithHTTPClient replaces the underlying transport client.
func (client Client) WithHTTPClient(httpClient *http.Client) Client {
	if httpClient == nil {
		return client
	}
	client.httpClient = httpClient
	return client.rebuild()
}

func (client Client) WithAPIBase(base string) Client {
	trimmed := strings.TrimSpace(base)
	if trimmed == "" {
		return client
	}
	client.apiBase = strings.TrimRight(trimmed, "/") + "/"
	return client.rebuild()
}

func (client Client) WithUserAgent(agent string) Client {
	if agent == "" {
		return client
	}
	client.userAgent = agent
	return client.rebuild()
}

func (client Client) WithTimeout(duration time.Duration) Client {
	if duration <= 0 {
		return client
	}
	client.timeout = duration
	return client.rebuild()
}

// WithAuthorizationToken authenticates every call. Raw tokens, "token "-prefixed, and
// "Bearer "-prefixed values are accepted.
func (client Client) WithAuthorizationToken(token string) Client {
	client.tokenType, client.tokenValue = parseAuthorizationToken(token)
	return client.rebuild()
}

func (client Client) WithRetry(config RetryConfig) Client {
	client.retry = config
	return client
}

// WithRequestRate caps outgoing calls at requestsPerSecond. Zero or less removes the cap.
func (client Client) WithRequestRate(requestsPerSecond float64) Client {
	if requestsPerSecond <= 0 {
		client.limiter = nil
		return client
	}
	client.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), 1)
	return client
}

// Authenticated reports whether a token was configured.
func (client Client) Authenticated() bool {
	return client.tokenValue != ""
}

func (client Client) rebuild() Client {
	baseClient := &http.Client{Timeout: client.timeout}
	if client.httpClient != nil {
		copied := *client.httpClient
		copied.Timeout = client.timeout
		baseClient = &copied
	}
	transportClient := baseClient
	if client.tokenValue != "" {
		tokenSource := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: client.tokenValue, TokenType: client.tokenType})
		transportContext := context.WithValue(context.Background(), oauth2.HTTPClient, baseClient)
		transportClient = oauth2.NewClient(transportContext, tokenSource)
		transportClient.Timeout = client.timeout
	}
	api := github.NewClient(transportClient)
	if parsedBase, parseErr := url.Parse(client.apiBase); parseErr == nil {
		api.BaseURL = parsedBase
	} else {
		client.logger.Warn("ignoring invalid API base", zap.String("api_base", client.apiBase), zap.Error(parseErr))
		client.apiBase = defaultAPIBaseURL
	}
	api.UserAgent = client.userAgent
	client.api = api
	return client
}

// DefaultBranch returns the repository's default branch name.
func (client Client) DefaultBranch(ctx context.Context, repository types.RepositoryReference) (string, error) {
	details, err := client.RepositoryDetails(ctx, repository)
	if err != nil {
		return "", err
	}
	if details.DefaultBranch == "" {
		return "", fmt.Errorf("repository %s reports no default branch", repository)
	}
	return details.DefaultBranch, nil
}

// RepositoryDetails returns the metadata rendered in the document header.
func (client Client) RepositoryDetails(ctx context.Context, repository types.RepositoryReference) (types.RepositoryDetails, error) {
	var remote *github.Repository
	_, err := client.call(ctx, "get repository", func() (*github.Response, error) {
		var response *github.Response
		var callErr error
		remote, response, callErr = client.api.Repositories.Get(ctx, repository.Owner, repository.Repository)
		return response, callErr
	})
	if err != nil {
		return types.RepositoryDetails{}, err
	}
	return types.RepositoryDetails{
		Name:          remote.GetName(),
		Owner:         remote.GetOwner().GetLogin(),
		Description:   remote.GetDescription(),
		Language:      remote.GetLanguage(),
		License:       remote.GetLicense().GetName(),
		HTMLURL:       remote.GetHTMLURL(),
		DefaultBranch: remote.GetDefaultBranch(),
		Stars:         remote.GetStargazersCount(),
		Forks:         remote.GetForksCount(),
		Watchers:      remote.GetSubscribersCount(),
		OpenIssues:    remote.GetOpenIssuesCount(),
		CreatedAt:     remote.GetCreatedAt().Time,
		UpdatedAt:     remote.GetUpdatedAt().Time,
	}, nil
}

// Contributors returns at most limit contributors ordered by contribution count.
func (client Client) Contributors(ctx context.Context, repository types.RepositoryReference, limit int) ([]types.Contributor, error) {
	if limit <= 0 {
		return nil, nil
	}
	perPage := limit
	if perPage > maxContributorsPerPage {
		perPage = maxContributorsPerPage
	}
	options := &github.ListContributorsOptions{ListOptions: github.ListOptions{PerPage: perPage}}

	var contributors []types.Contributor
	for len(contributors) < limit {
		var page []*github.Contributor
		response, err := client.call(ctx, "list contributors", func() (*github.Response, error) {
			var response *github.Response
			var callErr error
			page, response, callErr = client.api.Repositories.ListContributors(ctx, repository.Owner, repository.Repository, options)
			return response, callErr
		})
		if err != nil {
			return nil, err
		}
		for _, remote := range page {
			if len(contributors) == limit {
				break
			}
			contributors = append(contributors, types.Contributor{
				Login:         remote.GetLogin(),
				Contributions: remote.GetContributions(),
				AvatarURL:     remote.GetAvatarURL(),
			})
		}
		if response == nil || response.NextPage == 0 || len(page) == 0 {
			break
		}
		options.Page = response.NextPage
	}
	return contributors, nil
}

// ListTree returns the recursive listing of reference in one call.
// Truncated is set when the API could not return every entry.
func (client Client) ListTree(ctx context.Context, repository types.RepositoryReference, reference string) (types.TreeListing, error) {
	var tree *github.Tree
	_, err := client.call(ctx, "get tree", func() (*github.Response, error) {
		var response *github.Response
		var callErr error
		tree, response, callErr = client.api.Git.GetTree(ctx, repository.Owner, repository.Repository, reference, true)
		return response, callErr
	})
	if err != nil {
		return types.TreeListing{}, err
	}
	listing := types.TreeListing{
		Entries:   make([]types.Entry, 0, len(tree.Entries)),
		Truncated: tree.GetTruncated(),
	}
	for _, remote := range tree.Entries {
		listing.Entries = append(listing.Entries, types.Entry{
			Path: remote.GetPath(),
			Type: remote.GetType(),
			Size: int64(remote.GetSize()),
		})
	}
	return listing, nil
}

// ListDirectory returns the immediate children of directoryPath. The empty path lists the root.
func (client Client) ListDirectory(ctx context.Context, repository types.RepositoryReference, directoryPath string, reference string) ([]types.Entry, error) {
	fileContent, directoryContent, err := client.getContents(ctx, repository, directoryPath, reference)
	if err != nil {
		return nil, err
	}
	if fileContent != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotDirectory, directoryPath)
	}
	entries := make([]types.Entry, 0, len(directoryContent))
	for _, item := range directoryContent {
		entry := types.Entry{Path: item.GetPath(), Type: types.EntryTypeBlob, Size: int64(item.GetSize())}
		if item.GetType() == contentTypeDirectory {
			entry.Type = types.EntryTypeTree
			entry.Size = 0
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// FileContent returns the decoded text of filePath. Directories yield an empty string.
func (client Client) FileContent(ctx context.Context, repository types.RepositoryReference, filePath string, reference string) (string, error) {
	fileContent, directoryContent, err := client.getContents(ctx, repository, filePath, reference)
	if err != nil {
		return "", err
	}
	if fileContent == nil || directoryContent != nil {
		return "", nil
	}
	decoded, decodeErr := fileContent.GetContent()
	if decodeErr != nil {
		return "", fmt.Errorf("decode %s: %w", filePath, decodeErr)
	}
	if !utf8.ValidString(decoded) {
		return "", fmt.Errorf("%w: %s", ErrBinaryContent, filePath)
	}
	return decoded, nil
}

func (client Client) getContents(ctx context.Context, repository types.RepositoryReference, itemPath string, reference string) (*github.RepositoryContent, []*github.RepositoryContent, error) {
	var fileContent *github.RepositoryContent
	var directoryContent []*github.RepositoryContent
	options := &github.RepositoryContentGetOptions{Ref: reference}
	cleanedPath := strings.Trim(strings.TrimSpace(itemPath), "/")
	_, err := client.call(ctx, "get contents", func() (*github.Response, error) {
		var response *github.Response
		var callErr error
		fileContent, directoryContent, response, callErr = client.api.Repositories.GetContents(ctx, repository.Owner, repository.Repository, cleanedPath, options)
		return response, callErr
	})
	if err != nil {
		return nil, nil, err
	}
	return fileContent, directoryContent, nil
}

// parseAuthorizationToken splits a configured token into its scheme and value.
func parseAuthorizationToken(token string) (string, string) {
	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return "", ""
	}
	lowered := strings.ToLower(trimmed)
	if strings.HasPrefix(lowered, strings.ToLower(authorizationBearerPrefix)) {
		return tokenTypeBearer, strings.TrimSpace(trimmed[len(authorizationBearerPrefix):])
	}
	if strings.HasPrefix(lowered, authorizationTokenPrefix) {
		return tokenTypeToken, strings.TrimSpace(trimmed[len(authorizationTokenPrefix):])
	}
	return tokenTypeToken, trimmed
}

// call runs operation under the retry policy, waiting for the request limiter before every attempt.
func (client Client) call(ctx context.Context, operationName string, operation func() (*github.Response, error)) (*github.Response, error) {
	return retryOperation(ctx, client.retry, client.logger, operationName, func() (*github.Response, error) {
		if client.limiter != nil {
			if waitErr := client.limiter.Wait(ctx); waitErr != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return nil, ctxErr
				}
				return nil, fmt.Errorf("wait for request slot: %w: %v", context.DeadlineExceeded, waitErr)
			}
		}
		return operation()
	})
}
