package account

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/surch/internal/execshell"
	"github.com/temirov/surch/internal/githubapi"
	"github.com/temirov/surch/internal/reposearch"
	"github.com/temirov/surch/internal/results"
	"github.com/temirov/surch/internal/ui"
	"github.com/temirov/surch/internal/utils"
)

const (
	organizationCommandUseConstant              = "org <organization-name>"
	organizationCommandShortDescriptionConstant = "Search every public repository of a GitHub organization"
	organizationCommandLongDescriptionConstant  = "org enumerates the public repositories of a GitHub organization, filters them, and searches each one's full commit history for the configured terms."
	userCommandUseConstant                      = "user <user-name>"
	userCommandShortDescriptionConstant         = "Search every public repository of a GitHub user"
	userCommandLongDescriptionConstant          = "user enumerates the public repositories of a GitHub user, filters them, and searches each one's full commit history for the configured terms."

	commandExecutionErrorTemplateConstant = "account search failed: %w"
	missingSearchTermsMessageConstant     = "at least one search term is required; supply --search"
	summaryTemplateConstant               = "Searched %d repositories for %s (%d failures)\n"
	failureLineTemplateConstant           = "FAILED: %s (%v)\n"

	searchFlagNameConstant                = "search"
	searchFlagShorthandConstant           = "s"
	searchFlagDescriptionConstant         = "String to search for; repeat the flag for multiple terms"
	includeFlagNameConstant               = "include-repo"
	includeFlagDescriptionConstant        = "Repository name to search; repeat to select several (conflicts with --exclude-repo)"
	excludeFlagNameConstant               = "exclude-repo"
	excludeFlagDescriptionConstant        = "Repository name to skip; repeat to skip several (conflicts with --include-repo)"
	cloneDirFlagNameConstant              = "clone-dir"
	cloneDirFlagShorthandConstant         = "p"
	cloneDirFlagDescriptionConstant       = "Directory repositories are cloned into"
	resultsDirFlagNameConstant            = "results-dir"
	resultsDirFlagShorthandConstant       = "l"
	resultsDirFlagDescriptionConstant     = "Directory the results ledger is written into"
	removeFlagNameConstant                = "remove"
	removeFlagShorthandConstant           = "R"
	removeFlagDescriptionConstant         = "Remove the clone directory after all repositories are searched"
	printFlagNameConstant                 = "print-result"
	printFlagDescriptionConstant          = "Print the results ledger after searching"
	consolidateFlagNameConstant           = "consolidate"
	consolidateFlagDescriptionConstant    = "Append to an existing results ledger instead of replacing it"
	jobsFlagNameConstant                  = "jobs"
	jobsFlagShorthandConstant             = "j"
	jobsFlagDescriptionConstant           = "Number of repositories searched concurrently"
	usernameFlagNameConstant              = "username"
	usernameFlagShorthandConstant         = "U"
	usernameFlagDescriptionConstant       = "GitHub username for basic authentication"
	passwordFlagNameConstant              = "password"
	passwordFlagShorthandConstant         = "P"
	passwordFlagDescriptionConstant       = "GitHub password or personal access token for basic authentication"
	tokenFlagNameConstant                 = "token"
	tokenFlagDescriptionConstant          = "GitHub token for bearer authentication"
)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// ConfigurationProvider returns the current account command configuration.
type ConfigurationProvider func() CommandConfiguration

// CommandBuilder assembles the Cobra command searching one account kind. The
// org and user commands share this builder and differ only in AccountKind.
type CommandBuilder struct {
	AccountKind           githubapi.AccountKind
	LoggerProvider        LoggerProvider
	ConfigurationProvider ConfigurationProvider
	DirectoryClient       DirectoryClient
	GitExecutor           reposearch.GitExecutor
}

// NewOrganizationCommandBuilder constructs the builder for the org command.
func NewOrganizationCommandBuilder(loggerProvider LoggerProvider, configurationProvider ConfigurationProvider) *CommandBuilder {
	return &CommandBuilder{
		AccountKind:           githubapi.AccountKindOrganization,
		LoggerProvider:        loggerProvider,
		ConfigurationProvider: configurationProvider,
	}
}

// NewUserCommandBuilder constructs the builder for the user command.
func NewUserCommandBuilder(loggerProvider LoggerProvider, configurationProvider ConfigurationProvider) *CommandBuilder {
	return &CommandBuilder{
		AccountKind:           githubapi.AccountKindUser,
		LoggerProvider:        loggerProvider,
		ConfigurationProvider: configurationProvider,
	}
}

// Build constructs the account search command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	commandUse := organizationCommandUseConstant
	commandShort := organizationCommandShortDescriptionConstant
	commandLong := organizationCommandLongDescriptionConstant
	if builder.AccountKind == githubapi.AccountKindUser {
		commandUse = userCommandUseConstant
		commandShort = userCommandShortDescriptionConstant
		commandLong = userCommandLongDescriptionConstant
	}

	command := &cobra.Command{
		Use:   commandUse,
		Short: commandShort,
		Long:  commandLong,
		Args:  cobra.ExactArgs(1),
		RunE:  builder.run,
	}

	command.Flags().StringArrayP(searchFlagNameConstant, searchFlagShorthandConstant, nil, searchFlagDescriptionConstant)
	command.Flags().StringArray(includeFlagNameConstant, nil, includeFlagDescriptionConstant)
	command.Flags().StringArray(excludeFlagNameConstant, nil, excludeFlagDescriptionConstant)
	command.Flags().StringP(cloneDirFlagNameConstant, cloneDirFlagShorthandConstant, reposearch.DefaultCloneDirectory(), cloneDirFlagDescriptionConstant)
	command.Flags().StringP(resultsDirFlagNameConstant, resultsDirFlagShorthandConstant, reposearch.DefaultResultsDirectory(), resultsDirFlagDescriptionConstant)
	command.Flags().BoolP(removeFlagNameConstant, removeFlagShorthandConstant, false, removeFlagDescriptionConstant)
	command.Flags().Bool(printFlagNameConstant, false, printFlagDescriptionConstant)
	command.Flags().Bool(consolidateFlagNameConstant, false, consolidateFlagDescriptionConstant)
	command.Flags().IntP(jobsFlagNameConstant, jobsFlagShorthandConstant, defaultJobsConstant, jobsFlagDescriptionConstant)
	command.Flags().StringP(usernameFlagNameConstant, usernameFlagShorthandConstant, "", usernameFlagDescriptionConstant)
	command.Flags().StringP(passwordFlagNameConstant, passwordFlagShorthandConstant, "", passwordFlagDescriptionConstant)
	command.Flags().String(tokenFlagNameConstant, "", tokenFlagDescriptionConstant)

	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, arguments []string) error {
	accountName := arguments[0]

	configuration, configurationError := builder.resolveConfiguration(command)
	if configurationError != nil {
		return configurationError
	}
	if len(configuration.SearchTerms) == 0 {
		return errors.New(missingSearchTermsMessageConstant)
	}

	runConfiguration := RunConfiguration{
		AccountName:          accountName,
		AccountKind:          builder.AccountKind,
		Credentials:          resolveCredentials(configuration),
		SearchTerms:          configuration.SearchTerms,
		IncludeRepositories:  configuration.IncludeRepositories,
		ExcludeRepositories:  configuration.ExcludeRepositories,
		CloneDirectory:       configuration.CloneDirectory,
		ResultsDirectory:     configuration.ResultsDirectory,
		ConsolidateLedger:    configuration.ConsolidateLedger,
		RemoveCloneDirectory: configuration.RemoveCloneDirectory,
		PrintResults:         configuration.PrintResults,
		Jobs:                 configuration.Jobs,
	}

	logger := builder.resolveLogger()

	directoryClient, clientError := builder.resolveDirectoryClient(configuration, logger)
	if clientError != nil {
		return clientError
	}

	ledgerStore := results.NewStore(configuration.ResultsDirectory, accountName)
	commandOutput := utils.NewFlushingWriter(command.OutOrStdout())

	repositorySearcher, searcherError := builder.resolveRepositorySearcher(logger, ledgerStore, commandOutput)
	if searcherError != nil {
		return searcherError
	}

	service, serviceError := NewService(Dependencies{
		DirectoryClient:    directoryClient,
		RepositorySearcher: repositorySearcher,
		LedgerStore:        ledgerStore,
		Logger:             logger,
		Output:             commandOutput,
	})
	if serviceError != nil {
		return serviceError
	}

	summary, runError := service.Run(command.Context(), runConfiguration)
	if runError != nil {
		return fmt.Errorf(commandExecutionErrorTemplateConstant, runError)
	}

	for _, failure := range summary.Failures {
		fmt.Fprintf(commandOutput, failureLineTemplateConstant, failure.RepositoryURL, failure.Cause)
	}
	fmt.Fprintf(commandOutput, summaryTemplateConstant, summary.DispatchedCount, accountName, len(summary.Failures))

	return nil
}

func resolveCredentials(configuration CommandConfiguration) *githubapi.Credentials {
	if len(configuration.Username) == 0 || len(configuration.Password) == 0 {
		return nil
	}
	return &githubapi.Credentials{Username: configuration.Username, Secret: configuration.Password}
}

func (builder *CommandBuilder) resolveDirectoryClient(configuration CommandConfiguration, logger *zap.Logger) (DirectoryClient, error) {
	if builder.DirectoryClient != nil {
		return builder.DirectoryClient, nil
	}
	return githubapi.NewClient(githubapi.ClientOptions{Token: configuration.Token}, logger)
}

func (builder *CommandBuilder) resolveRepositorySearcher(logger *zap.Logger, ledgerStore *results.Store, output io.Writer) (RepositorySearcher, error) {
	gitExecutor := builder.GitExecutor
	if gitExecutor == nil {
		commandRunner := execshell.NewOSCommandRunner()
		observedExecutor, executorError := execshell.NewObservedShellExecutor(logger, commandRunner, ui.NewConsoleCommandEventLogger(logger))
		if executorError != nil {
			return nil, executorError
		}
		gitExecutor = observedExecutor
	}

	return reposearch.NewSearcher(gitExecutor, ledgerStore, logger, output)
}

func (builder *CommandBuilder) resolveConfiguration(command *cobra.Command) (CommandConfiguration, error) {
	configuration := DefaultCommandConfiguration()
	if builder.ConfigurationProvider != nil {
		configuration = builder.ConfigurationProvider()
	}

	flags := command.Flags()
	stringArrayFlagTargets := map[string]*[]string{
		searchFlagNameConstant:  &configuration.SearchTerms,
		includeFlagNameConstant: &configuration.IncludeRepositories,
		excludeFlagNameConstant: &configuration.ExcludeRepositories,
	}
	for flagName, target := range stringArrayFlagTargets {
		if !flags.Changed(flagName) {
			continue
		}
		flagValues, flagError := flags.GetStringArray(flagName)
		if flagError != nil {
			return CommandConfiguration{}, flagError
		}
		*target = flagValues
	}

	stringFlagTargets := map[string]*string{
		cloneDirFlagNameConstant:   &configuration.CloneDirectory,
		resultsDirFlagNameConstant: &configuration.ResultsDirectory,
		usernameFlagNameConstant:   &configuration.Username,
		passwordFlagNameConstant:   &configuration.Password,
		tokenFlagNameConstant:      &configuration.Token,
	}
	for flagName, target := range stringFlagTargets {
		if !flags.Changed(flagName) {
			continue
		}
		flagValue, flagError := flags.GetString(flagName)
		if flagError != nil {
			return CommandConfiguration{}, flagError
		}
		*target = flagValue
	}

	booleanFlagTargets := map[string]*bool{
		removeFlagNameConstant:      &configuration.RemoveCloneDirectory,
		printFlagNameConstant:       &configuration.PrintResults,
		consolidateFlagNameConstant: &configuration.ConsolidateLedger,
	}
	for flagName, target := range booleanFlagTargets {
		if !flags.Changed(flagName) {
			continue
		}
		flagValue, flagError := flags.GetBool(flagName)
		if flagError != nil {
			return CommandConfiguration{}, flagError
		}
		*target = flagValue
	}

	if flags.Changed(jobsFlagNameConstant) {
		jobsValue, flagError := flags.GetInt(jobsFlagNameConstant)
		if flagError != nil {
			return CommandConfiguration{}, flagError
		}
		configuration.Jobs = jobsValue
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
