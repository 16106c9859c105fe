package account

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/temirov/surch/internal/githubapi"
	"github.com/temirov/surch/internal/repofilter"
	"github.com/temirov/surch/internal/reposearch"
)

const (
	removeCloneDirErrorTemplateConstant = "unable to remove clone directory %s: %w"
	renderLedgerErrorTemplateConstant   = "unable to render results ledger: %w"
	printLedgerErrorTemplateConstant    = "unable to print results ledger: %w"

	enumerationStartedMessageConstant  = "repository enumeration started"
	dispatchStartedMessageConstant     = "repository dispatch started"
	dispatchFailedMessageConstant      = "repository search failed"
	runCompletedMessageConstant        = "account search completed"
	logFieldAccountConstant            = "account"
	logFieldAccountKindConstant        = "account_kind"
	logFieldRepositoryCountConstant    = "repository_count"
	logFieldSelectedCountConstant      = "selected_count"
	logFieldRepositoryURLConstant      = "repository_url"
	logFieldFailureCountConstant       = "failure_count"
	logFieldJobsConstant               = "jobs"
)

// DirectoryClient lists an account's public repositories.
type DirectoryClient interface {
	ListRepositories(executionContext context.Context, target githubapi.AccountTarget) ([]githubapi.RepositoryDescriptor, error)
}

// RepositorySearcher performs one per-repository history search.
type RepositorySearcher interface {
	Search(executionContext context.Context, parameters reposearch.SearchParameters) error
}

// LedgerStore owns the account's results ledger lifecycle.
type LedgerStore interface {
	PrepareLedger(consolidate bool) error
	Render() (string, error)
}

// RunConfiguration aggregates every option of one account search run. It is
// constructed once per invocation and read-only afterwards.
type RunConfiguration struct {
	AccountName          string
	AccountKind          githubapi.AccountKind
	Credentials          *githubapi.Credentials
	SearchTerms          []string
	IncludeRepositories  []string
	ExcludeRepositories  []string
	CloneDirectory       string
	ResultsDirectory     string
	ConsolidateLedger    bool
	RemoveCloneDirectory bool
	PrintResults         bool
	Jobs                 int
}

// Validate fails fast on configurations that must never reach the network.
func (configuration RunConfiguration) Validate() error {
	target := githubapi.AccountTarget{Name: configuration.AccountName, Kind: configuration.AccountKind}
	if targetError := target.Validate(); targetError != nil {
		return ConfigurationError{Cause: targetError}
	}
	if len(configuration.SearchTerms) == 0 {
		return ConfigurationError{Cause: ErrSearchTermsRequired}
	}
	if configuration.Jobs < 1 {
		return ConfigurationError{Cause: ErrJobsNotPositive}
	}

	filterSpecification := repofilter.Specification{
		IncludeNames: configuration.IncludeRepositories,
		ExcludeNames: configuration.ExcludeRepositories,
	}
	if specificationError := filterSpecification.Validate(); specificationError != nil {
		return ConfigurationError{Cause: specificationError}
	}

	return nil
}

// RepositoryFailure records one repository whose dispatch failed.
type RepositoryFailure struct {
	RepositoryURL string
	Cause         error
}

// RunSummary reports the outcome of one account search run. Per-repository
// failures are part of the summary, not run errors.
type RunSummary struct {
	DispatchedCount int
	Failures        []RepositoryFailure
}

// Dependencies collects the collaborators of the account service.
type Dependencies struct {
	DirectoryClient    DirectoryClient
	RepositorySearcher RepositorySearcher
	LedgerStore        LedgerStore
	Logger             *zap.Logger
	Output             io.Writer
}

// Service runs the enumeration, filtering, dispatch, and cleanup stages for
// one account.
type Service struct {
	directoryClient    DirectoryClient
	repositorySearcher RepositorySearcher
	ledgerStore        LedgerStore
	repositoryFilter   *repofilter.Filter
	logger             *zap.Logger
	output             io.Writer
}

// NewService constructs an account service.
func NewService(dependencies Dependencies) (*Service, error) {
	if dependencies.DirectoryClient == nil {
		return nil, ErrDirectoryClientNotConfigured
	}
	if dependencies.RepositorySearcher == nil {
		return nil, ErrRepositorySearcherNotConfigured
	}
	if dependencies.LedgerStore == nil {
		return nil, ErrLedgerStoreNotConfigured
	}

	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	output := dependencies.Output
	if output == nil {
		output = io.Discard
	}

	return &Service{
		directoryClient:    dependencies.DirectoryClient,
		repositorySearcher: dependencies.RepositorySearcher,
		ledgerStore:        dependencies.LedgerStore,
		repositoryFilter:   repofilter.NewFilter(logger),
		logger:             logger,
		output:             output,
	}, nil
}

// Run executes one account search. Configuration problems, enumeration
// failures, and storage failures are fatal; individual repository failures are
// recorded in the summary and never abort the remaining dispatches.
func (service *Service) Run(executionContext context.Context, configuration RunConfiguration) (RunSummary, error) {
	if validationError := configuration.Validate(); validationError != nil {
		return RunSummary{}, validationError
	}

	target := githubapi.AccountTarget{
		Name:        configuration.AccountName,
		Kind:        configuration.AccountKind,
		Credentials: configuration.Credentials,
	}

	service.logger.Info(
		enumerationStartedMessageConstant,
		zap.String(logFieldAccountConstant, target.Name),
		zap.String(logFieldAccountKindConstant, string(target.Kind)),
	)

	repositories, enumerationError := service.directoryClient.ListRepositories(executionContext, target)
	if enumerationError != nil {
		return RunSummary{}, enumerationError
	}

	cloneURLs, filterError := service.repositoryFilter.CloneURLs(repositories, repofilter.Specification{
		IncludeNames: configuration.IncludeRepositories,
		ExcludeNames: configuration.ExcludeRepositories,
	})
	if filterError != nil {
		return RunSummary{}, ConfigurationError{Cause: filterError}
	}

	if prepareError := service.ledgerStore.PrepareLedger(configuration.ConsolidateLedger); prepareError != nil {
		return RunSummary{}, prepareError
	}

	service.logger.Info(
		dispatchStartedMessageConstant,
		zap.String(logFieldAccountConstant, target.Name),
		zap.Int(logFieldRepositoryCountConstant, len(repositories)),
		zap.Int(logFieldSelectedCountConstant, len(cloneURLs)),
		zap.Int(logFieldJobsConstant, configuration.Jobs),
	)

	failures := service.dispatch(executionContext, configuration, cloneURLs)

	if configuration.RemoveCloneDirectory {
		if removeError := os.RemoveAll(configuration.CloneDirectory); removeError != nil {
			return RunSummary{}, fmt.Errorf(removeCloneDirErrorTemplateConstant, configuration.CloneDirectory, removeError)
		}
	}

	if configuration.PrintResults {
		if printError := service.printLedger(); printError != nil {
			return RunSummary{}, printError
		}
	}

	service.logger.Info(
		runCompletedMessageConstant,
		zap.String(logFieldAccountConstant, target.Name),
		zap.Int(logFieldSelectedCountConstant, len(cloneURLs)),
		zap.Int(logFieldFailureCountConstant, len(failures)),
	)

	return RunSummary{DispatchedCount: len(cloneURLs), Failures: failures}, nil
}

// dispatch fans the clone URLs out to the repository searcher with bounded
// parallelism. One repository's failure never cancels sibling work, and a
// cancelled context stops new dispatches while in-flight searches drain.
func (service *Service) dispatch(executionContext context.Context, configuration RunConfiguration, cloneURLs []string) []RepositoryFailure {
	jobWeights := semaphore.NewWeighted(int64(configuration.Jobs))

	var waitGroup sync.WaitGroup
	var failuresMutex sync.Mutex
	failures := make([]RepositoryFailure, 0)

	for _, cloneURL := range cloneURLs {
		if acquireError := jobWeights.Acquire(executionContext, 1); acquireError != nil {
			break
		}

		waitGroup.Add(1)
		go func(repositoryURL string) {
			defer waitGroup.Done()
			defer jobWeights.Release(1)

			repositoryName := reposearch.RepositoryNameFromCloneURL(repositoryURL)
			searchError := service.repositorySearcher.Search(executionContext, reposearch.SearchParameters{
				SearchTerms:          configuration.SearchTerms,
				RepositoryURL:        repositoryURL,
				CloneDirectory:       filepath.Join(configuration.CloneDirectory, repositoryName),
				PrintResults:         false,
				RemoveCloneDirectory: false,
				ConsolidateLedger:    true,
			})
			if searchError != nil {
				service.logger.Warn(
					dispatchFailedMessageConstant,
					zap.String(logFieldRepositoryURLConstant, repositoryURL),
					zap.Error(searchError),
				)
				failuresMutex.Lock()
				failures = append(failures, RepositoryFailure{RepositoryURL: repositoryURL, Cause: searchError})
				failuresMutex.Unlock()
			}
		}(cloneURL)
	}

	waitGroup.Wait()
	return failures
}

func (service *Service) printLedger() error {
	renderedLedger, renderError := service.ledgerStore.Render()
	if renderError != nil {
		return fmt.Errorf(renderLedgerErrorTemplateConstant, renderError)
	}
	if _, writeError := fmt.Fprintln(service.output, renderedLedger); writeError != nil {
		return fmt.Errorf(printLedgerErrorTemplateConstant, writeError)
	}
	return nil
}
