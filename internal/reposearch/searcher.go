package reposearch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/temirov/surch/internal/execshell"
	"github.com/temirov/surch/internal/results"
)

const (
	searchTermsRequiredMessageConstant   = "at least one search term is required"
	repositoryURLRequiredMessageConstant = "repository URL is required"
	executorRequiredMessageConstant      = "repository searcher requires a git executor"
	ledgerStoreRequiredMessageConstant   = "repository searcher requires a ledger store"
	cloneErrorTemplateConstant           = "unable to clone %s: %w"
	refreshErrorTemplateConstant         = "unable to refresh existing clone of %s: %w"
	commitEnumerationTemplateConstant    = "unable to enumerate commits of %s: %w"
	historySearchErrorTemplateConstant   = "history search failed for %s: %w"
	removeCloneErrorTemplateConstant     = "unable to remove clone directory %s: %w"
	renderLedgerErrorTemplateConstant    = "unable to render results ledger: %w"
	printLedgerErrorTemplateConstant     = "unable to print results ledger: %w"

	gitCloneSubcommandConstant    = "clone"
	gitFetchSubcommandConstant    = "fetch"
	gitRevListSubcommandConstant  = "rev-list"
	gitGrepSubcommandConstant     = "grep"
	gitQuietFlagConstant          = "--quiet"
	gitAllFlagConstant            = "--all"
	gitLineNumberFlagConstant     = "-n"
	gitSkipBinaryFlagConstant     = "-I"
	gitPatternFlagConstant        = "-e"
	gitDirectoryNameConstant      = ".git"
	gitCloneURLSuffixConstant     = ".git"
	grepOutputSeparatorConstant   = ":"
	grepOutputFieldCountConstant  = 4
	lineSeparatorConstant         = "\n"
	commitBatchSizeConstant       = 200
	grepNoMatchesExitCodeConstant = 1

	searchStartedMessageConstant   = "repository search started"
	searchCompletedMessageConstant = "repository search completed"
	logFieldRepositoryConstant     = "repository"
	logFieldCloneDirectoryConstant = "clone_directory"
	logFieldCommitCountConstant    = "commit_count"
	logFieldFindingCountConstant   = "finding_count"
)

var (
	// ErrSearchTermsRequired indicates a search invocation without terms.
	ErrSearchTermsRequired = errors.New(searchTermsRequiredMessageConstant)
	// ErrRepositoryURLRequired indicates a search invocation without a repository URL.
	ErrRepositoryURLRequired = errors.New(repositoryURLRequiredMessageConstant)
	// ErrExecutorNotConfigured indicates the searcher was constructed without a git executor.
	ErrExecutorNotConfigured = errors.New(executorRequiredMessageConstant)
	// ErrLedgerStoreNotConfigured indicates the searcher was constructed without a ledger store.
	ErrLedgerStoreNotConfigured = errors.New(ledgerStoreRequiredMessageConstant)
)

// GitExecutor is the minimal interface required from execshell.ShellExecutor.
type GitExecutor interface {
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// LedgerStore receives findings and owns ledger lifecycle operations.
type LedgerStore interface {
	PrepareLedger(consolidate bool) error
	AppendFindings(findings []results.Finding) error
	Render() (string, error)
}

// SearchParameters describes one per-repository search invocation.
type SearchParameters struct {
	SearchTerms          []string
	RepositoryURL        string
	CloneDirectory       string
	PrintResults         bool
	RemoveCloneDirectory bool
	ConsolidateLedger    bool
}

// Searcher clones one repository and scans every commit for the search terms.
type Searcher struct {
	gitExecutor GitExecutor
	ledgerStore LedgerStore
	logger      *zap.Logger
	output      io.Writer
	clock       func() time.Time
}

// NewSearcher constructs a repository searcher.
func NewSearcher(gitExecutor GitExecutor, ledgerStore LedgerStore, logger *zap.Logger, output io.Writer) (*Searcher, error) {
	if gitExecutor == nil {
		return nil, ErrExecutorNotConfigured
	}
	if ledgerStore == nil {
		return nil, ErrLedgerStoreNotConfigured
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if output == nil {
		output = io.Discard
	}
	return &Searcher{
		gitExecutor: gitExecutor,
		ledgerStore: ledgerStore,
		logger:      logger,
		output:      output,
		clock:       time.Now,
	}, nil
}

// Search clones (or refreshes) the repository, scans its full history for the
// configured terms, and appends every match to the results ledger. Local
// failures such as an unreachable remote surface as errors for the caller to
// record; the ledger is only touched after a successful scan.
func (searcher *Searcher) Search(executionContext context.Context, parameters SearchParameters) error {
	if validationError := validateParameters(parameters); validationError != nil {
		return validationError
	}

	repositoryName := RepositoryNameFromCloneURL(parameters.RepositoryURL)

	searcher.logger.Debug(
		searchStartedMessageConstant,
		zap.String(logFieldRepositoryConstant, repositoryName),
		zap.String(logFieldCloneDirectoryConstant, parameters.CloneDirectory),
	)

	if prepareError := searcher.ledgerStore.PrepareLedger(parameters.ConsolidateLedger); prepareError != nil {
		return prepareError
	}

	if cloneError := searcher.ensureClone(executionContext, parameters); cloneError != nil {
		return cloneError
	}

	commitIdentifiers, enumerationError := searcher.enumerateCommits(executionContext, parameters)
	if enumerationError != nil {
		return enumerationError
	}

	findings, searchError := searcher.collectFindings(executionContext, parameters, repositoryName, commitIdentifiers)
	if searchError != nil {
		return searchError
	}

	if appendError := searcher.ledgerStore.AppendFindings(findings); appendError != nil {
		return appendError
	}

	searcher.logger.Info(
		searchCompletedMessageConstant,
		zap.String(logFieldRepositoryConstant, repositoryName),
		zap.Int(logFieldCommitCountConstant, len(commitIdentifiers)),
		zap.Int(logFieldFindingCountConstant, len(findings)),
	)

	if parameters.RemoveCloneDirectory {
		if removeError := os.RemoveAll(parameters.CloneDirectory); removeError != nil {
			return fmt.Errorf(removeCloneErrorTemplateConstant, parameters.CloneDirectory, removeError)
		}
	}

	if parameters.PrintResults {
		if printError := searcher.printLedger(); printError != nil {
			return printError
		}
	}

	return nil
}

func validateParameters(parameters SearchParameters) error {
	if len(parameters.SearchTerms) == 0 {
		return ErrSearchTermsRequired
	}
	if len(strings.TrimSpace(parameters.RepositoryURL)) == 0 {
		return ErrRepositoryURLRequired
	}
	return nil
}

func (searcher *Searcher) ensureClone(executionContext context.Context, parameters SearchParameters) error {
	gitDirectoryPath := filepath.Join(parameters.CloneDirectory, gitDirectoryNameConstant)
	if _, statError := os.Stat(gitDirectoryPath); statError == nil {
		fetchDetails := execshell.CommandDetails{
			Arguments:        []string{gitFetchSubcommandConstant, gitAllFlagConstant, gitQuietFlagConstant},
			WorkingDirectory: parameters.CloneDirectory,
		}
		if _, fetchError := searcher.gitExecutor.ExecuteGit(executionContext, fetchDetails); fetchError != nil {
			return fmt.Errorf(refreshErrorTemplateConstant, parameters.RepositoryURL, fetchError)
		}
		return nil
	}

	cloneDetails := execshell.CommandDetails{
		Arguments: []string{gitCloneSubcommandConstant, gitQuietFlagConstant, parameters.RepositoryURL, parameters.CloneDirectory},
	}
	if _, cloneError := searcher.gitExecutor.ExecuteGit(executionContext, cloneDetails); cloneError != nil {
		return fmt.Errorf(cloneErrorTemplateConstant, parameters.RepositoryURL, cloneError)
	}
	return nil
}

func (searcher *Searcher) enumerateCommits(executionContext context.Context, parameters SearchParameters) ([]string, error) {
	revListDetails := execshell.CommandDetails{
		Arguments:        []string{gitRevListSubcommandConstant, gitAllFlagConstant},
		WorkingDirectory: parameters.CloneDirectory,
	}

	executionResult, revListError := searcher.gitExecutor.ExecuteGit(executionContext, revListDetails)
	if revListError != nil {
		return nil, fmt.Errorf(commitEnumerationTemplateConstant, parameters.RepositoryURL, revListError)
	}

	commitIdentifiers := make([]string, 0)
	for _, outputLine := range strings.Split(executionResult.StandardOutput, lineSeparatorConstant) {
		trimmedLine := strings.TrimSpace(outputLine)
		if len(trimmedLine) == 0 {
			continue
		}
		commitIdentifiers = append(commitIdentifiers, trimmedLine)
	}
	return commitIdentifiers, nil
}

func (searcher *Searcher) collectFindings(executionContext context.Context, parameters SearchParameters, repositoryName string, commitIdentifiers []string) ([]results.Finding, error) {
	findings := make([]results.Finding, 0)

	for _, searchTerm := range parameters.SearchTerms {
		for batchStart := 0; batchStart < len(commitIdentifiers); batchStart += commitBatchSizeConstant {
			batchEnd := batchStart + commitBatchSizeConstant
			if batchEnd > len(commitIdentifiers) {
				batchEnd = len(commitIdentifiers)
			}

			batchFindings, batchError := searcher.searchCommitBatch(executionContext, parameters, repositoryName, searchTerm, commitIdentifiers[batchStart:batchEnd])
			if batchError != nil {
				return nil, batchError
			}
			findings = append(findings, batchFindings...)
		}
	}

	return findings, nil
}

func (searcher *Searcher) searchCommitBatch(executionContext context.Context, parameters SearchParameters, repositoryName string, searchTerm string, commitIdentifiers []string) ([]results.Finding, error) {
	grepArguments := []string{gitGrepSubcommandConstant, gitSkipBinaryFlagConstant, gitLineNumberFlagConstant, gitPatternFlagConstant, searchTerm}
	grepArguments = append(grepArguments, commitIdentifiers...)

	grepDetails := execshell.CommandDetails{
		Arguments:        grepArguments,
		WorkingDirectory: parameters.CloneDirectory,
	}

	executionResult, grepError := searcher.gitExecutor.ExecuteGit(executionContext, grepDetails)
	if grepError != nil {
		// git grep exits with 1 when nothing matched.
		var commandFailure execshell.CommandFailedError
		if errors.As(grepError, &commandFailure) && commandFailure.Result.ExitCode == grepNoMatchesExitCodeConstant {
			return nil, nil
		}
		return nil, fmt.Errorf(historySearchErrorTemplateConstant, parameters.RepositoryURL, grepError)
	}

	return searcher.parseGrepOutput(repositoryName, searchTerm, executionResult.StandardOutput), nil
}

func (searcher *Searcher) parseGrepOutput(repositoryName string, searchTerm string, grepOutput string) []results.Finding {
	findings := make([]results.Finding, 0)
	recordedAt := searcher.clock()

	for _, outputLine := range strings.Split(grepOutput, lineSeparatorConstant) {
		trimmedLine := strings.TrimSpace(outputLine)
		if len(trimmedLine) == 0 {
			continue
		}

		lineFields := strings.SplitN(trimmedLine, grepOutputSeparatorConstant, grepOutputFieldCountConstant)
		if len(lineFields) < grepOutputFieldCountConstant {
			continue
		}

		lineNumber, lineNumberError := strconv.Atoi(lineFields[2])
		if lineNumberError != nil {
			continue
		}

		findings = append(findings, results.Finding{
			Repository:  repositoryName,
			CommitSHA:   lineFields[0],
			Path:        lineFields[1],
			LineNumber:  lineNumber,
			MatchedTerm: searchTerm,
			RecordedAt:  recordedAt,
		})
	}

	return findings
}

func (searcher *Searcher) printLedger() error {
	renderedLedger, renderError := searcher.ledgerStore.Render()
	if renderError != nil {
		return fmt.Errorf(renderLedgerErrorTemplateConstant, renderError)
	}
	if _, writeError := fmt.Fprintln(searcher.output, renderedLedger); writeError != nil {
		return fmt.Errorf(printLedgerErrorTemplateConstant, writeError)
	}
	return nil
}

// RepositoryNameFromCloneURL derives the short repository name from a clone URL.
func RepositoryNameFromCloneURL(cloneURL string) string {
	trimmedURL := strings.TrimSuffix(strings.TrimSpace(cloneURL), gitCloneURLSuffixConstant)

	parsedURL, parseError := url.Parse(trimmedURL)
	if parseError == nil && len(parsedURL.Path) > 0 {
		return filepath.Base(parsedURL.Path)
	}

	lastSeparatorIndex := strings.LastIndex(trimmedURL, "/")
	if lastSeparatorIndex >= 0 && lastSeparatorIndex < len(trimmedURL)-1 {
		return trimmedURL[lastSeparatorIndex+1:]
	}
	return trimmedURL
}
