// Package reposearch clones a single Git repository and scans its full commit
// history for a set of search terms, recording every match in the results
// ledger.
//
// Searcher implements the per-repository contract the organization dispatcher
// relies on; the repo CLI command exposes the same routine for standalone
// single-repository runs.
package reposearch
