// Package account orchestrates a full account search run: it enumerates an
// organization's or user's public repositories, filters them, prepares the
// results ledger, and dispatches every surviving repository to the
// per-repository searcher while tolerating individual repository failures.
package account
