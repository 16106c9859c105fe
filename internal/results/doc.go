// Package results owns the consolidated findings ledger written during a
// search run.
//
// Store manages the ledger lifecycle (prepare, append, render) at
// <results_dir>/<account_name>/results.json. Appends are serialized and
// written through a temporary file so a half-written ledger is never left
// behind, which keeps concurrent dispatch safe.
package results
