package githubapi

import "strings"

// AccountKind distinguishes GitHub organizations from user accounts.
type AccountKind string

// Supported account kinds.
const (
	AccountKindOrganization AccountKind = "organization"
	AccountKindUser         AccountKind = "user"
)

// Credentials holds an optional basic-authentication pair carried on requests.
type Credentials struct {
	Username string
	Secret   string
}

// AccountTarget identifies the GitHub account whose repositories are enumerated.
// A nil Credentials pointer leaves requests unauthenticated, which GitHub caps
// at sixty requests per hour.
type AccountTarget struct {
	Name        string
	Kind        AccountKind
	Credentials *Credentials
}

// RepositoryDescriptor captures the repository fields surch consumes from a
// directory listing page. Every other response field is discarded.
type RepositoryDescriptor struct {
	Name     string
	CloneURL string
}

// Validate reports whether the target names an account and carries a known kind.
func (target AccountTarget) Validate() error {
	if len(strings.TrimSpace(target.Name)) == 0 {
		return ErrAccountNameRequired
	}
	if target.Kind != AccountKindOrganization && target.Kind != AccountKindUser {
		return UnknownAccountKindError{Kind: target.Kind}
	}
	return nil
}
