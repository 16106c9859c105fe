package account

import (
	"errors"
	"fmt"
)

const (
	searchTermsRequiredMessageConstant       = "at least one search term is required"
	jobsNotPositiveMessageConstant           = "jobs must be at least one"
	configurationErrorTemplateConstant       = "invalid run configuration: %s"
	dependencyMissingClientMessageConstant   = "account service requires a directory client"
	dependencySearcherMissingMessageConstant = "account service requires a repository searcher"
	dependencyLedgerMissingMessageConstant   = "account service requires a ledger store"
)

var (
	// ErrSearchTermsRequired indicates a run configured without search terms.
	ErrSearchTermsRequired = errors.New(searchTermsRequiredMessageConstant)
	// ErrJobsNotPositive indicates a run configured with a parallelism below one.
	ErrJobsNotPositive = errors.New(jobsNotPositiveMessageConstant)
	// ErrDirectoryClientNotConfigured indicates service construction without a directory client.
	ErrDirectoryClientNotConfigured = errors.New(dependencyMissingClientMessageConstant)
	// ErrRepositorySearcherNotConfigured indicates service construction without a repository searcher.
	ErrRepositorySearcherNotConfigured = errors.New(dependencySearcherMissingMessageConstant)
	// ErrLedgerStoreNotConfigured indicates service construction without a ledger store.
	ErrLedgerStoreNotConfigured = errors.New(dependencyLedgerMissingMessageConstant)
)

// ConfigurationError marks a fatal configuration problem detected before any
// network or disk access.
type ConfigurationError struct {
	Cause error
}

// Error describes the configuration failure.
func (configurationError ConfigurationError) Error() string {
	return fmt.Sprintf(configurationErrorTemplateConstant, configurationError.Cause)
}

// Unwrap exposes the underlying cause.
func (configurationError ConfigurationError) Unwrap() error {
	return configurationError.Cause
}
