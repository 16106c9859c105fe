package githubapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/go-github/v75/github"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

const (
	repositoryPageSizeConstant                = 100
	publicRepositoryTypeFilterConstant        = "public"
	resolveAccountOperationNameConstant       = "resolve account metadata"
	listRepositoriesOperationNameConstant     = "list repository page"
	invalidBaseURLTemplateConstant            = "invalid GitHub API base URL %q: %w"
	trailingSlashConstant                     = "/"
	unauthenticatedRateWarningMessageConstant = "no GitHub credentials supplied; unauthenticated requests are limited to 60 per hour"
	logFieldAccountNameConstant               = "account_name"
	logFieldAccountKindConstant               = "account_kind"
	logFieldRepositoryCountConstant           = "repository_count"
	logFieldPageCountConstant                 = "page_count"
	repositoriesResolvedMessageConstant       = "resolved repository directory"
)

// ClientOptions configures the GitHub directory client.
type ClientOptions struct {
	// Token enables bearer-token authentication when the target carries no
	// basic-authentication credentials.
	Token string
	// BaseURL overrides the GitHub API endpoint, primarily for tests.
	BaseURL string
	// HTTPClient supplies a custom transport; authentication settings wrap it.
	HTTPClient *http.Client
}

// Client lists the public repositories of a GitHub organization or user.
type Client struct {
	options ClientOptions
	baseURL *url.URL
	logger  *zap.Logger
}

// NewClient constructs a directory client with the provided options.
func NewClient(options ClientOptions, logger *zap.Logger) (*Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	client := &Client{options: options, logger: logger}

	if len(strings.TrimSpace(options.BaseURL)) > 0 {
		parsedBaseURL, parseError := url.Parse(options.BaseURL)
		if parseError != nil {
			return nil, fmt.Errorf(invalidBaseURLTemplateConstant, options.BaseURL, parseError)
		}
		if !strings.HasSuffix(parsedBaseURL.Path, trailingSlashConstant) {
			parsedBaseURL.Path += trailingSlashConstant
		}
		client.baseURL = parsedBaseURL
	}

	return client, nil
}

// ListRepositories enumerates every public repository of the target account.
//
// One metadata request resolves the repository count; the page count is the
// ceiling of count over the fixed page size, and pages 1..pages are fetched
// sequentially. Page responses contribute descriptors in page order, so the
// result is deterministic. A missing account yields AccountNotFoundError and
// any other HTTP failure yields TransportError; neither is retried.
func (client *Client) ListRepositories(executionContext context.Context, target AccountTarget) ([]RepositoryDescriptor, error) {
	if validationError := target.Validate(); validationError != nil {
		return nil, validationError
	}

	githubClient := client.resolveGitHubClient(executionContext, target)

	repositoryCount, countError := client.resolveRepositoryCount(executionContext, githubClient, target)
	if countError != nil {
		return nil, countError
	}

	pageCount := (repositoryCount + repositoryPageSizeConstant - 1) / repositoryPageSizeConstant

	client.logger.Debug(
		repositoriesResolvedMessageConstant,
		zap.String(logFieldAccountNameConstant, target.Name),
		zap.String(logFieldAccountKindConstant, string(target.Kind)),
		zap.Int(logFieldRepositoryCountConstant, repositoryCount),
		zap.Int(logFieldPageCountConstant, pageCount),
	)

	descriptors := make([]RepositoryDescriptor, 0, repositoryCount)
	for pageNumber := 1; pageNumber <= pageCount; pageNumber++ {
		pageDescriptors, pageError := client.fetchRepositoryPage(executionContext, githubClient, target, pageNumber)
		if pageError != nil {
			return nil, pageError
		}
		descriptors = append(descriptors, pageDescriptors...)
	}

	return descriptors, nil
}

func (client *Client) resolveGitHubClient(executionContext context.Context, target AccountTarget) *github.Client {
	httpClient := client.options.HTTPClient

	switch {
	case target.Credentials != nil:
		basicAuthTransport := &github.BasicAuthTransport{
			Username: target.Credentials.Username,
			Password: target.Credentials.Secret,
		}
		if httpClient != nil {
			basicAuthTransport.Transport = httpClient.Transport
		}
		httpClient = basicAuthTransport.Client()
	case len(client.options.Token) > 0:
		tokenSource := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: client.options.Token})
		httpClient = oauth2.NewClient(executionContext, tokenSource)
	default:
		client.logger.Warn(
			unauthenticatedRateWarningMessageConstant,
			zap.String(logFieldAccountNameConstant, target.Name),
		)
	}

	githubClient := github.NewClient(httpClient)
	if client.baseURL != nil {
		githubClient.BaseURL = client.baseURL
	}
	return githubClient
}

func (client *Client) resolveRepositoryCount(executionContext context.Context, githubClient *github.Client, target AccountTarget) (int, error) {
	switch target.Kind {
	case AccountKindOrganization:
		organization, _, organizationError := githubClient.Organizations.Get(executionContext, target.Name)
		if organizationError != nil {
			return 0, client.classifyAccountError(target, resolveAccountOperationNameConstant, organizationError)
		}
		return organization.GetPublicRepos(), nil
	default:
		user, _, userError := githubClient.Users.Get(executionContext, target.Name)
		if userError != nil {
			return 0, client.classifyAccountError(target, resolveAccountOperationNameConstant, userError)
		}
		return user.GetPublicRepos(), nil
	}
}

func (client *Client) fetchRepositoryPage(executionContext context.Context, githubClient *github.Client, target AccountTarget, pageNumber int) ([]RepositoryDescriptor, error) {
	listOptions := github.ListOptions{PerPage: repositoryPageSizeConstant, Page: pageNumber}

	var repositories []*github.Repository
	var listError error

	switch target.Kind {
	case AccountKindOrganization:
		organizationOptions := &github.RepositoryListByOrgOptions{
			Type:        publicRepositoryTypeFilterConstant,
			ListOptions: listOptions,
		}
		repositories, _, listError = githubClient.Repositories.ListByOrg(executionContext, target.Name, organizationOptions)
	default:
		userOptions := &github.RepositoryListByUserOptions{
			Type:        publicRepositoryTypeFilterConstant,
			ListOptions: listOptions,
		}
		repositories, _, listError = githubClient.Repositories.ListByUser(executionContext, target.Name, userOptions)
	}

	if listError != nil {
		return nil, client.classifyAccountError(target, listRepositoriesOperationNameConstant, listError)
	}

	descriptors := make([]RepositoryDescriptor, 0, len(repositories))
	for _, repository := range repositories {
		descriptors = append(descriptors, RepositoryDescriptor{
			Name:     repository.GetName(),
			CloneURL: repository.GetCloneURL(),
		})
	}

	return descriptors, nil
}

func (client *Client) classifyAccountError(target AccountTarget, operationName string, cause error) error {
	var errorResponse *github.ErrorResponse
	if errors.As(cause, &errorResponse) && errorResponse.Response != nil && errorResponse.Response.StatusCode == http.StatusNotFound {
		return AccountNotFoundError{AccountName: target.Name, Kind: target.Kind}
	}
	return TransportError{Operation: operationName, Cause: cause}
}
