// Package githubapi resolves GitHub organization and user accounts and
// enumerates their public repositories through the GitHub REST API.
//
// It exposes Client for paginated repository listings, AccountTarget to
// describe the account being enumerated, and typed errors distinguishing
// missing accounts from transport failures.
package githubapi
