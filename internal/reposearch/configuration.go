package reposearch

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	defaultDirectoryRootConstant        = "surch"
	defaultCloneDirectoryConstant       = "clones"
	defaultResultsDirectoryConstant     = "results"
	configurationKeySearchConstant      = "search"
	configurationKeyCloneConstant       = "clone_dir"
	configurationKeyResultsConstant     = "results_dir"
	configurationKeyRemoveConstant      = "remove"
	configurationKeyPrintConstant       = "print"
	configurationKeyConsolidateConstant = "consolidate"
)

// CommandConfiguration captures configuration values for the repo command.
type CommandConfiguration struct {
	SearchTerms          []string `mapstructure:"search"`
	CloneDirectory       string   `mapstructure:"clone_dir"`
	ResultsDirectory     string   `mapstructure:"results_dir"`
	RemoveCloneDirectory bool     `mapstructure:"remove"`
	PrintResults         bool     `mapstructure:"print"`
	ConsolidateLedger    bool     `mapstructure:"consolidate"`
}

// DefaultCommandConfiguration provides baseline configuration values for repository search.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{
		SearchTerms:          nil,
		CloneDirectory:       DefaultCloneDirectory(),
		ResultsDirectory:     DefaultResultsDirectory(),
		RemoveCloneDirectory: false,
		PrintResults:         false,
		ConsolidateLedger:    false,
	}
}

// DefaultConfigurationValues returns configuration defaults keyed for the configuration loader.
func DefaultConfigurationValues(prefix string) map[string]any {
	defaults := DefaultCommandConfiguration()
	return map[string]any{
		prefix + configurationKeySearchConstant:      defaults.SearchTerms,
		prefix + configurationKeyCloneConstant:       defaults.CloneDirectory,
		prefix + configurationKeyResultsConstant:     defaults.ResultsDirectory,
		prefix + configurationKeyRemoveConstant:      defaults.RemoveCloneDirectory,
		prefix + configurationKeyPrintConstant:       defaults.PrintResults,
		prefix + configurationKeyConsolidateConstant: defaults.ConsolidateLedger,
	}
}

// DefaultCloneDirectory is where repositories are cloned when no directory is configured.
func DefaultCloneDirectory() string {
	return filepath.Join(os.TempDir(), defaultDirectoryRootConstant, defaultCloneDirectoryConstant)
}

// DefaultResultsDirectory is where ledgers are written when no directory is configured.
func DefaultResultsDirectory() string {
	return filepath.Join(os.TempDir(), defaultDirectoryRootConstant, defaultResultsDirectoryConstant)
}

// Sanitize trims configuration values and restores directory defaults for blank entries.
func (configuration CommandConfiguration) Sanitize() CommandConfiguration {
	sanitized := configuration

	sanitized.SearchTerms = sanitizeSearchTerms(configuration.SearchTerms)
	sanitized.CloneDirectory = strings.TrimSpace(configuration.CloneDirectory)
	if len(sanitized.CloneDirectory) == 0 {
		sanitized.CloneDirectory = DefaultCloneDirectory()
	}
	sanitized.ResultsDirectory = strings.TrimSpace(configuration.ResultsDirectory)
	if len(sanitized.ResultsDirectory) == 0 {
		sanitized.ResultsDirectory = DefaultResultsDirectory()
	}

	return sanitized
}

func sanitizeSearchTerms(raw []string) []string {
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
