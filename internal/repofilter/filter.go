package repofilter

import (
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/surch/internal/githubapi"
)

const (
	conflictingFiltersMessageConstant    = "include and exclude repository filters cannot both be provided"
	unmatchedIncludeNameMessageConstant  = "included repository name did not match any enumerated repository"
	logFieldRepositoryNameConstant       = "repository_name"
)

// ErrConflictingFilters indicates both an include set and an exclude set were
// configured. The condition is validated before any network call is made.
var ErrConflictingFilters = errors.New(conflictingFiltersMessageConstant)

// Specification captures the optional include or exclude repository name sets.
// At most one of the two may be non-empty.
type Specification struct {
	IncludeNames []string
	ExcludeNames []string
}

// Validate rejects specifications carrying both include and exclude names.
func (specification Specification) Validate() error {
	if len(specification.sanitizedIncludeNames()) > 0 && len(specification.sanitizedExcludeNames()) > 0 {
		return ErrConflictingFilters
	}
	return nil
}

func (specification Specification) sanitizedIncludeNames() []string {
	return sanitizeNames(specification.IncludeNames)
}

func (specification Specification) sanitizedExcludeNames() []string {
	return sanitizeNames(specification.ExcludeNames)
}

func sanitizeNames(rawNames []string) []string {
	sanitized := make([]string, 0, len(rawNames))
	for _, rawName := range rawNames {
		trimmedName := strings.TrimSpace(rawName)
		if len(trimmedName) == 0 {
			continue
		}
		sanitized = append(sanitized, trimmedName)
	}
	return sanitized
}

// Filter reduces an enumerated repository listing to an ordered clone URL list.
type Filter struct {
	logger *zap.Logger
}

// NewFilter constructs a Filter; a nil logger falls back to a no-op logger.
func NewFilter(logger *zap.Logger) *Filter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Filter{logger: logger}
}

// CloneURLs returns the clone URLs of the repositories surviving the
// specification, preserving the order of the enumerated listing in every
// branch. Include names that match no enumerated repository are skipped
// rather than treated as errors; each is reported at warn level.
func (filter *Filter) CloneURLs(allRepositories []githubapi.RepositoryDescriptor, specification Specification) ([]string, error) {
	if validationError := specification.Validate(); validationError != nil {
		return nil, validationError
	}

	includeNames := specification.sanitizedIncludeNames()
	excludeNames := specification.sanitizedExcludeNames()

	switch {
	case len(includeNames) > 0:
		return filter.includedCloneURLs(allRepositories, includeNames), nil
	case len(excludeNames) > 0:
		return excludedCloneURLs(allRepositories, excludeNames), nil
	default:
		cloneURLs := make([]string, 0, len(allRepositories))
		for _, repository := range allRepositories {
			cloneURLs = append(cloneURLs, repository.CloneURL)
		}
		return cloneURLs, nil
	}
}

func (filter *Filter) includedCloneURLs(allRepositories []githubapi.RepositoryDescriptor, includeNames []string) []string {
	includedNameSet := make(map[string]bool, len(includeNames))
	for _, includeName := range includeNames {
		includedNameSet[includeName] = false
	}

	cloneURLs := make([]string, 0, len(includeNames))
	for _, repository := range allRepositories {
		if _, included := includedNameSet[repository.Name]; included {
			includedNameSet[repository.Name] = true
			cloneURLs = append(cloneURLs, repository.CloneURL)
		}
	}

	for _, includeName := range includeNames {
		if !includedNameSet[includeName] {
			filter.logger.Warn(
				unmatchedIncludeNameMessageConstant,
				zap.String(logFieldRepositoryNameConstant, includeName),
			)
		}
	}

	return cloneURLs
}

func excludedCloneURLs(allRepositories []githubapi.RepositoryDescriptor, excludeNames []string) []string {
	excludedNameSet := make(map[string]bool, len(excludeNames))
	for _, excludeName := range excludeNames {
		excludedNameSet[excludeName] = true
	}

	cloneURLs := make([]string, 0, len(allRepositories))
	for _, repository := range allRepositories {
		if excludedNameSet[repository.Name] {
			continue
		}
		cloneURLs = append(cloneURLs, repository.CloneURL)
	}
	return cloneURLs
}
