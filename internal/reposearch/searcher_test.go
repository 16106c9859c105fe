package reposearch_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/temirov/surch/internal/execshell"
	"github.com/temirov/surch/internal/reposearch"
	"github.com/temirov/surch/internal/results"
)

const (
	testAccountNameConstant        = "acme"
	testRepositoryURLConstant      = "https://github.com/acme/alpha.git"
	testRepositoryNameConstant     = "alpha"
	testSearchTermConstant         = "TODO"
	testFirstCommitSHAConstant     = "1111111111111111111111111111111111111111"
	testSecondCommitSHAConstant    = "2222222222222222222222222222222222222222"
	testGrepMatchOutputConstant    = testFirstCommitSHAConstant + ":cmd/main.go:12:// TODO remove\n" + testSecondCommitSHAConstant + ":README.md:3:TODO list\n"
	testRevListOutputConstant      = testFirstCommitSHAConstant + "\n" + testSecondCommitSHAConstant + "\n"
	testCloneFailureMessageConstant = "remote unreachable"
)

type scriptedGitExecutor struct {
	revListOutput    string
	grepOutput       string
	grepExitCode     int
	cloneShouldFail  bool
	recordedCommands []execshell.CommandDetails
}

func (executor *scriptedGitExecutor) ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error) {
	executor.recordedCommands = append(executor.recordedCommands, details)

	command := execshell.ShellCommand{Name: execshell.CommandGit, Details: details}
	switch details.Arguments[0] {
	case "clone":
		if executor.cloneShouldFail {
			return execshell.ExecutionResult{}, execshell.CommandFailedError{
				Command: command,
				Result:  execshell.ExecutionResult{ExitCode: 128, StandardError: testCloneFailureMessageConstant},
			}
		}
		return execshell.ExecutionResult{}, nil
	case "fetch":
		return execshell.ExecutionResult{}, nil
	case "rev-list":
		return execshell.ExecutionResult{StandardOutput: executor.revListOutput}, nil
	case "grep":
		if executor.grepExitCode != 0 {
			return execshell.ExecutionResult{}, execshell.CommandFailedError{
				Command: command,
				Result:  execshell.ExecutionResult{ExitCode: executor.grepExitCode},
			}
		}
		return execshell.ExecutionResult{StandardOutput: executor.grepOutput}, nil
	default:
		return execshell.ExecutionResult{}, nil
	}
}

func (executor *scriptedGitExecutor) subcommands() []string {
	invokedSubcommands := make([]string, 0, len(executor.recordedCommands))
	for _, details := range executor.recordedCommands {
		invokedSubcommands = append(invokedSubcommands, details.Arguments[0])
	}
	return invokedSubcommands
}

func newTestSearcher(testInstance *testing.T, executor *scriptedGitExecutor) (*reposearch.Searcher, *results.Store, *bytes.Buffer) {
	testInstance.Helper()

	store := results.NewStore(testInstance.TempDir(), testAccountNameConstant)
	outputBuffer := &bytes.Buffer{}
	searcher, creationError := reposearch.NewSearcher(executor, store, zap.NewNop(), outputBuffer)
	require.NoError(testInstance, creationError)
	return searcher, store, outputBuffer
}

func TestSearcherConstructionValidation(testInstance *testing.T) {
	store := results.NewStore(testInstance.TempDir(), testAccountNameConstant)

	testInstance.Run("missing_executor", func(testInstance *testing.T) {
		searcher, creationError := reposearch.NewSearcher(nil, store, zap.NewNop(), nil)
		require.ErrorIs(testInstance, creationError, reposearch.ErrExecutorNotConfigured)
		require.Nil(testInstance, searcher)
	})

	testInstance.Run("missing_ledger_store", func(testInstance *testing.T) {
		searcher, creationError := reposearch.NewSearcher(&scriptedGitExecutor{}, nil, zap.NewNop(), nil)
		require.ErrorIs(testInstance, creationError, reposearch.ErrLedgerStoreNotConfigured)
		require.Nil(testInstance, searcher)
	})
}

func TestSearchParameterValidation(testInstance *testing.T) {
	searcher, _, _ := newTestSearcher(testInstance, &scriptedGitExecutor{})

	testInstance.Run("missing_terms", func(testInstance *testing.T) {
		searchError := searcher.Search(context.Background(), reposearch.SearchParameters{RepositoryURL: testRepositoryURLConstant})
		require.ErrorIs(testInstance, searchError, reposearch.ErrSearchTermsRequired)
	})

	testInstance.Run("missing_repository_url", func(testInstance *testing.T) {
		searchError := searcher.Search(context.Background(), reposearch.SearchParameters{SearchTerms: []string{testSearchTermConstant}})
		require.ErrorIs(testInstance, searchError, reposearch.ErrRepositoryURLRequired)
	})
}

func TestSearchRecordsFindings(testInstance *testing.T) {
	executor := &scriptedGitExecutor{
		revListOutput: testRevListOutputConstant,
		grepOutput:    testGrepMatchOutputConstant,
	}
	searcher, store, _ := newTestSearcher(testInstance, executor)

	cloneDirectory := filepath.Join(testInstance.TempDir(), testRepositoryNameConstant)
	searchError := searcher.Search(context.Background(), reposearch.SearchParameters{
		SearchTerms:       []string{testSearchTermConstant},
		RepositoryURL:     testRepositoryURLConstant,
		CloneDirectory:    cloneDirectory,
		ConsolidateLedger: true,
	})
	require.NoError(testInstance, searchError)
	require.Equal(testInstance, []string{"clone", "rev-list", "grep"}, executor.subcommands())

	ledger, loadError := store.Load()
	require.NoError(testInstance, loadError)
	require.Len(testInstance, ledger.Findings, 2)
	require.Equal(testInstance, testRepositoryNameConstant, ledger.Findings[0].Repository)
	require.Equal(testInstance, testFirstCommitSHAConstant, ledger.Findings[0].CommitSHA)
	require.Equal(testInstance, "cmd/main.go", ledger.Findings[0].Path)
	require.Equal(testInstance, 12, ledger.Findings[0].LineNumber)
	require.Equal(testInstance, testSearchTermConstant, ledger.Findings[0].MatchedTerm)
	require.False(testInstance, ledger.Findings[0].RecordedAt.IsZero())
}

func TestSearchRefreshesExistingClone(testInstance *testing.T) {
	executor := &scriptedGitExecutor{revListOutput: testRevListOutputConstant, grepExitCode: 1}
	searcher, _, _ := newTestSearcher(testInstance, executor)

	cloneDirectory := filepath.Join(testInstance.TempDir(), testRepositoryNameConstant)
	require.NoError(testInstance, os.MkdirAll(filepath.Join(cloneDirectory, ".git"), 0o755))

	searchError := searcher.Search(context.Background(), reposearch.SearchParameters{
		SearchTerms:       []string{testSearchTermConstant},
		RepositoryURL:     testRepositoryURLConstant,
		CloneDirectory:    cloneDirectory,
		ConsolidateLedger: true,
	})
	require.NoError(testInstance, searchError)
	require.Equal(testInstance, []string{"fetch", "rev-list", "grep"}, executor.subcommands())
}

func TestSearchTreatsGrepExitOneAsNoMatches(testInstance *testing.T) {
	executor := &scriptedGitExecutor{revListOutput: testRevListOutputConstant, grepExitCode: 1}
	searcher, store, _ := newTestSearcher(testInstance, executor)

	searchError := searcher.Search(context.Background(), reposearch.SearchParameters{
		SearchTerms:       []string{testSearchTermConstant},
		RepositoryURL:     testRepositoryURLConstant,
		CloneDirectory:    filepath.Join(testInstance.TempDir(), testRepositoryNameConstant),
		ConsolidateLedger: true,
	})
	require.NoError(testInstance, searchError)

	ledger, loadError := store.Load()
	require.NoError(testInstance, loadError)
	require.Empty(testInstance, ledger.Findings)
}

func TestSearchSurfacesCloneFailures(testInstance *testing.T) {
	executor := &scriptedGitExecutor{cloneShouldFail: true}
	searcher, store, _ := newTestSearcher(testInstance, executor)

	searchError := searcher.Search(context.Background(), reposearch.SearchParameters{
		SearchTerms:       []string{testSearchTermConstant},
		RepositoryURL:     testRepositoryURLConstant,
		CloneDirectory:    filepath.Join(testInstance.TempDir(), testRepositoryNameConstant),
		ConsolidateLedger: true,
	})
	require.Error(testInstance, searchError)
	require.Contains(testInstance, searchError.Error(), testRepositoryURLConstant)

	ledger, loadError := store.Load()
	require.NoError(testInstance, loadError)
	require.Empty(testInstance, ledger.Findings)
}

func TestSearchHonorsRemoveAndPrintDirectives(testInstance *testing.T) {
	executor := &scriptedGitExecutor{
		revListOutput: testRevListOutputConstant,
		grepOutput:    testGrepMatchOutputConstant,
	}
	searcher, _, outputBuffer := newTestSearcher(testInstance, executor)

	cloneDirectory := filepath.Join(testInstance.TempDir(), testRepositoryNameConstant)
	require.NoError(testInstance, os.MkdirAll(filepath.Join(cloneDirectory, ".git"), 0o755))

	searchError := searcher.Search(context.Background(), reposearch.SearchParameters{
		SearchTerms:          []string{testSearchTermConstant},
		RepositoryURL:        testRepositoryURLConstant,
		CloneDirectory:       cloneDirectory,
		PrintResults:         true,
		RemoveCloneDirectory: true,
	})
	require.NoError(testInstance, searchError)

	_, statError := os.Stat(cloneDirectory)
	require.True(testInstance, os.IsNotExist(statError))
	require.Contains(testInstance, outputBuffer.String(), testRepositoryNameConstant)
}

func TestRepositoryNameFromCloneURL(testInstance *testing.T) {
	testCases := []struct {
		name         string
		cloneURL     string
		expectedName string
	}{
		{name: "https_with_suffix", cloneURL: "https://github.com/acme/alpha.git", expectedName: "alpha"},
		{name: "https_without_suffix", cloneURL: "https://github.com/acme/alpha", expectedName: "alpha"},
		{name: "bare_name", cloneURL: "alpha", expectedName: "alpha"},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			require.Equal(testInstance, testCase.expectedName, reposearch.RepositoryNameFromCloneURL(testCase.cloneURL))
		})
	}
}
