package account

import (
	"strings"

	"github.com/temirov/surch/internal/reposearch"
)

const (
	configurationKeySearchConstant      = "search"
	configurationKeyIncludeConstant     = "include"
	configurationKeyExcludeConstant     = "exclude"
	configurationKeyCloneConstant       = "clone_dir"
	configurationKeyResultsConstant     = "results_dir"
	configurationKeyRemoveConstant      = "remove"
	configurationKeyPrintConstant       = "print"
	configurationKeyConsolidateConstant = "consolidate"
	configurationKeyJobsConstant        = "jobs"
	configurationKeyUsernameConstant    = "username"
	configurationKeyPasswordConstant    = "password"
	configurationKeyTokenConstant       = "token"

	defaultJobsConstant = 1
)

// CommandConfiguration captures configuration values shared by the org and user commands.
type CommandConfiguration struct {
	SearchTerms          []string `mapstructure:"search"`
	IncludeRepositories  []string `mapstructure:"include"`
	ExcludeRepositories  []string `mapstructure:"exclude"`
	CloneDirectory       string   `mapstructure:"clone_dir"`
	ResultsDirectory     string   `mapstructure:"results_dir"`
	RemoveCloneDirectory bool     `mapstructure:"remove"`
	PrintResults         bool     `mapstructure:"print"`
	ConsolidateLedger    bool     `mapstructure:"consolidate"`
	Jobs                 int      `mapstructure:"jobs"`
	Username             string   `mapstructure:"username"`
	Password             string   `mapstructure:"password"`
	Token                string   `mapstructure:"token"`
}

// DefaultCommandConfiguration provides baseline configuration values for account search.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{
		SearchTerms:          nil,
		IncludeRepositories:  nil,
		ExcludeRepositories:  nil,
		CloneDirectory:       reposearch.DefaultCloneDirectory(),
		ResultsDirectory:     reposearch.DefaultResultsDirectory(),
		RemoveCloneDirectory: false,
		PrintResults:         false,
		ConsolidateLedger:    false,
		Jobs:                 defaultJobsConstant,
	}
}

// DefaultConfigurationValues returns configuration defaults keyed for the configuration loader.
func DefaultConfigurationValues(prefix string) map[string]any {
	defaults := DefaultCommandConfiguration()
	return map[string]any{
		prefix + configurationKeySearchConstant:      defaults.SearchTerms,
		prefix + configurationKeyIncludeConstant:     defaults.IncludeRepositories,
		prefix + configurationKeyExcludeConstant:     defaults.ExcludeRepositories,
		prefix + configurationKeyCloneConstant:       defaults.CloneDirectory,
		prefix + configurationKeyResultsConstant:     defaults.ResultsDirectory,
		prefix + configurationKeyRemoveConstant:      defaults.RemoveCloneDirectory,
		prefix + configurationKeyPrintConstant:       defaults.PrintResults,
		prefix + configurationKeyConsolidateConstant: defaults.ConsolidateLedger,
		prefix + configurationKeyJobsConstant:        defaults.Jobs,
	}
}

// Sanitize trims configuration values and restores defaults for blank entries.
func (configuration CommandConfiguration) Sanitize() CommandConfiguration {
	sanitized := configuration

	sanitized.SearchTerms = sanitizeValues(configuration.SearchTerms)
	sanitized.IncludeRepositories = sanitizeValues(configuration.IncludeRepositories)
	sanitized.ExcludeRepositories = sanitizeValues(configuration.ExcludeRepositories)
	sanitized.CloneDirectory = strings.TrimSpace(configuration.CloneDirectory)
	if len(sanitized.CloneDirectory) == 0 {
		sanitized.CloneDirectory = reposearch.DefaultCloneDirectory()
	}
	sanitized.ResultsDirectory = strings.TrimSpace(configuration.ResultsDirectory)
	if len(sanitized.ResultsDirectory) == 0 {
		sanitized.ResultsDirectory = reposearch.DefaultResultsDirectory()
	}
	if sanitized.Jobs < 1 {
		sanitized.Jobs = defaultJobsConstant
	}
	sanitized.Username = strings.TrimSpace(configuration.Username)
	sanitized.Password = strings.TrimSpace(configuration.Password)
	sanitized.Token = strings.TrimSpace(configuration.Token)

	return sanitized
}

func sanitizeValues(raw []string) []string {
	sanitized := make([]string, 0, len(raw))
	for _, candidate := range raw {
		trimmed := strings.TrimSpace(candidate)
		if len(trimmed) == 0 {
			continue
		}
		sanitized = append(sanitized, trimmed)
	}
	return sanitized
}
