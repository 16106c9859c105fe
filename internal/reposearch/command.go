package reposearch

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/surch/internal/execshell"
	"github.com/temirov/surch/internal/results"
	"github.com/temirov/surch/internal/utils"
)

const (
	commandUseConstant              = "repo <repository-url>"
	commandShortDescriptionConstant = "Search one repository's full commit history for sensitive strings"
	commandLongDescriptionConstant  = "repo clones (or refreshes) a single Git repository and scans every commit reachable from any ref for the configured search terms, appending matches to a JSON results ledger."

	commandExecutionErrorTemplateConstant = "repository search failed: %w"
	missingSearchTermsMessageConstant     = "at least one search term is required; supply --search"

	searchFlagNameConstant             = "search"
	searchFlagShorthandConstant        = "s"
	searchFlagDescriptionConstant      = "String to search for; repeat the flag for multiple terms"
	cloneDirFlagNameConstant           = "clone-dir"
	cloneDirFlagShorthandConstant      = "p"
	cloneDirFlagDescriptionConstant    = "Directory repositories are cloned into"
	resultsDirFlagNameConstant         = "results-dir"
	resultsDirFlagShorthandConstant    = "l"
	resultsDirFlagDescriptionConstant  = "Directory the results ledger is written into"
	removeFlagNameConstant             = "remove"
	removeFlagShorthandConstant        = "R"
	removeFlagDescriptionConstant      = "Remove the cloned repository after searching"
	printFlagNameConstant              = "print-result"
	printFlagDescriptionConstant       = "Print the results ledger after searching"
	consolidateFlagNameConstant        = "consolidate"
	consolidateFlagDescriptionConstant = "Append to an existing results ledger instead of replacing it"
)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// ConfigurationProvider returns the current repo command configuration.
type ConfigurationProvider func() CommandConfiguration

// CommandBuilder assembles the Cobra command for single-repository search.
type CommandBuilder struct {
	LoggerProvider        LoggerProvider
	ConfigurationProvider ConfigurationProvider
	GitExecutor           GitExecutor
}

// Build constructs the repo command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   commandUseConstant,
		Short: commandShortDescriptionConstant,
		Long:  commandLongDescriptionConstant,
		Args:  cobra.ExactArgs(1),
		RunE:  builder.run,
	}

	command.Flags().StringArrayP(searchFlagNameConstant, searchFlagShorthandConstant, nil, searchFlagDescriptionConstant)
	command.Flags().StringP(cloneDirFlagNameConstant, cloneDirFlagShorthandConstant, DefaultCloneDirectory(), cloneDirFlagDescriptionConstant)
	command.Flags().StringP(resultsDirFlagNameConstant, resultsDirFlagShorthandConstant, DefaultResultsDirectory(), resultsDirFlagDescriptionConstant)
	command.Flags().BoolP(removeFlagNameConstant, removeFlagShorthandConstant, false, removeFlagDescriptionConstant)
	command.Flags().Bool(printFlagNameConstant, false, printFlagDescriptionConstant)
	command.Flags().Bool(consolidateFlagNameConstant, false, consolidateFlagDescriptionConstant)

	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, arguments []string) error {
	repositoryURL := arguments[0]

	configuration, configurationError := builder.resolveConfiguration(command)
	if configurationError != nil {
		return configurationError
	}
	if len(configuration.SearchTerms) == 0 {
		return errors.New(missingSearchTermsMessageConstant)
	}

	logger := builder.resolveLogger()
	gitExecutor, executorError := builder.resolveExecutor(logger)
	if executorError != nil {
		return executorError
	}

	repositoryName := RepositoryNameFromCloneURL(repositoryURL)
	ledgerStore := results.NewStore(configuration.ResultsDirectory, repositoryName)

	searcher, searcherError := NewSearcher(gitExecutor, ledgerStore, logger, utils.NewFlushingWriter(command.OutOrStdout()))
	if searcherError != nil {
		return searcherError
	}

	searchError := searcher.Search(command.Context(), SearchParameters{
		SearchTerms:          configuration.SearchTerms,
		RepositoryURL:        repositoryURL,
		CloneDirectory:       filepath.Join(configuration.CloneDirectory, repositoryName),
		PrintResults:         configuration.PrintResults,
		RemoveCloneDirectory: configuration.RemoveCloneDirectory,
		ConsolidateLedger:    configuration.ConsolidateLedger,
	})
	if searchError != nil {
		return fmt.Errorf(commandExecutionErrorTemplateConstant, searchError)
	}

	return nil
}

func (builder *CommandBuilder) resolveConfiguration(command *cobra.Command) (CommandConfiguration, error) {
	configuration := DefaultCommandConfiguration()
	if builder.ConfigurationProvider != nil {
		configuration = builder.ConfigurationProvider()
	}

	flags := command.Flags()
	if flags.Changed(searchFlagNameConstant) {
		searchTerms, flagError := flags.GetStringArray(searchFlagNameConstant)
		if flagError != nil {
			return CommandConfiguration{}, flagError
		}
		configuration.SearchTerms = searchTerms
	}
	if flags.Changed(cloneDirFlagNameConstant) {
		cloneDirectory, flagError := flags.GetString(cloneDirFlagNameConstant)
		if flagError != nil {
			return CommandConfiguration{}, flagError
		}
		configuration.CloneDirectory = cloneDirectory
	}
	if flags.Changed(resultsDirFlagNameConstant) {
		resultsDirectory, flagError := flags.GetString(resultsDirFlagNameConstant)
		if flagError != nil {
			return CommandConfiguration{}, flagError
		}
		configuration.ResultsDirectory = resultsDirectory
	}
	if flags.Changed(removeFlagNameConstant) {
		removeClone, flagError := flags.GetBool(removeFlagNameConstant)
		if flagError != nil {
			return CommandConfiguration{}, flagError
		}
		configuration.RemoveCloneDirectory = removeClone
	}
	if flags.Changed(printFlagNameConstant) {
		printResults, flagError := flags.GetBool(printFlagNameConstant)
		if flagError != nil {
			return CommandConfiguration{}, flagError
		}
		configuration.PrintResults = printResults
	}
	if flags.Changed(consolidateFlagNameConstant) {
		consolidateLedger, flagError := flags.GetBool(consolidateFlagNameConstant)
		if flagError != nil {
			return CommandConfiguration{}, flagError
		}
		configuration.ConsolidateLedger = consolidateLedger
	}

	return configuration.Sanitize(), nil
}

func (builder *CommandBuilder) resolveLogger() *zap.Logger {
	if builder.LoggerProvider == nil {
		return zap.NewNop()
	}
	logger := builder.LoggerProvider()
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

func (builder *CommandBuilder) resolveExecutor(logger *zap.Logger) (GitExecutor, error) {
	if builder.GitExecutor != nil {
		return builder.GitExecutor, nil
	}

	commandRunner := execshell.NewOSCommandRunner()
	shellExecutor, creationError := execshell.NewShellExecutor(logger, commandRunner)
	if creationError != nil {
		return nil, creationError
	}

	return shellExecutor, nil
}
