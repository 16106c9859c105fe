package results

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const (
	ledgerFileNameConstant                 = "results.json"
	temporaryLedgerSuffixConstant          = ".tmp"
	ledgerDirectoryPermissionsConstant     = 0o755
	ledgerFilePermissionsConstant          = 0o644
	createLedgerDirectoryErrorTemplate     = "unable to create results directory %s: %w"
	removeStaleLedgerErrorTemplateConstant = "unable to remove previous results ledger %s: %w"
	readLedgerErrorTemplateConstant        = "unable to read results ledger %s: %w"
	decodeLedgerErrorTemplateConstant      = "unable to decode results ledger %s: %w"
	encodeLedgerErrorTemplateConstant      = "unable to encode results ledger %s: %w"
	writeLedgerErrorTemplateConstant       = "unable to write results ledger %s: %w"
	replaceLedgerErrorTemplateConstant     = "unable to replace results ledger %s: %w"
	ledgerIndentationConstant              = "  "
)

// Finding records one matched search term occurrence inside one repository.
type Finding struct {
	Repository  string    `json:"repository"`
	CommitSHA   string    `json:"commit_sha"`
	Path        string    `json:"path"`
	LineNumber  int       `json:"line_number"`
	MatchedTerm string    `json:"matched_term"`
	RecordedAt  time.Time `json:"recorded_at"`
}

// Ledger is the persisted document aggregating findings across repositories.
type Ledger struct {
	Account  string    `json:"account"`
	Findings []Finding `json:"findings"`
}

// Store manages the findings ledger for one account.
//
// The ledger lives at <results_dir>/<account_name>/results.json. The store
// owns its lifecycle; appends during a run arrive from the per-repository
// searcher and are serialized internally.
type Store struct {
	accountName string
	ledgerPath  string
	mutex       sync.Mutex
}

// NewStore constructs a store rooted at the supplied results directory.
func NewStore(resultsDirectory string, accountName string) *Store {
	return &Store{
		accountName: accountName,
		ledgerPath:  filepath.Join(resultsDirectory, accountName, ledgerFileNameConstant),
	}
}

// LedgerPath reports the on-disk location of the ledger file.
func (store *Store) LedgerPath() string {
	return store.ledgerPath
}

// PrepareLedger ensures the ledger directory exists and, when consolidation is
// disabled, deletes any ledger left over from a prior run. It must complete
// before the first repository dispatch so results never land in a stale file.
func (store *Store) PrepareLedger(consolidate bool) error {
	store.mutex.Lock()
	defer store.mutex.Unlock()

	ledgerDirectory := filepath.Dir(store.ledgerPath)
	if directoryError := os.MkdirAll(ledgerDirectory, ledgerDirectoryPermissionsConstant); directoryError != nil {
		return fmt.Errorf(createLedgerDirectoryErrorTemplate, ledgerDirectory, directoryError)
	}

	if consolidate {
		return nil
	}

	if removeError := os.Remove(store.ledgerPath); removeError != nil && !os.IsNotExist(removeError) {
		return fmt.Errorf(removeStaleLedgerErrorTemplateConstant, store.ledgerPath, removeError)
	}

	return nil
}

// AppendFindings merges findings into the ledger. The existing document is
// loaded, extended, and atomically replaced, so interleaved appends from
// concurrent dispatches never corrupt the file.
func (store *Store) AppendFindings(findings []Finding) error {
	if len(findings) == 0 {
		return nil
	}

	store.mutex.Lock()
	defer store.mutex.Unlock()

	ledger, loadError := store.loadLedgerLocked()
	if loadError != nil {
		return loadError
	}

	ledger.Findings = append(ledger.Findings, findings...)
	return store.writeLedgerLocked(ledger)
}

// Load returns the current ledger document; a missing file yields an empty
// ledger rather than an error.
func (store *Store) Load() (Ledger, error) {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	return store.loadLedgerLocked()
}

// Render returns the ledger serialized for display.
func (store *Store) Render() (string, error) {
	ledger, loadError := store.Load()
	if loadError != nil {
		return "", loadError
	}

	renderedLedger, encodeError := json.MarshalIndent(ledger, "", ledgerIndentationConstant)
	if encodeError != nil {
		return "", fmt.Errorf(encodeLedgerErrorTemplateConstant, store.ledgerPath, encodeError)
	}
	return string(renderedLedger), nil
}

func (store *Store) loadLedgerLocked() (Ledger, error) {
	ledger := Ledger{Account: store.accountName}

	ledgerContents, readError := os.ReadFile(store.ledgerPath)
	if readError != nil {
		if os.IsNotExist(readError) {
			return ledger, nil
		}
		return Ledger{}, fmt.Errorf(readLedgerErrorTemplateConstant, store.ledgerPath, readError)
	}

	if decodeError := json.Unmarshal(ledgerContents, &ledger); decodeError != nil {
		return Ledger{}, fmt.Errorf(decodeLedgerErrorTemplateConstant, store.ledgerPath, decodeError)
	}
	if len(ledger.Account) == 0 {
		ledger.Account = store.accountName
	}

	return ledger, nil
}

func (store *Store) writeLedgerLocked(ledger Ledger) error {
	encodedLedger, encodeError := json.MarshalIndent(ledger, "", ledgerIndentationConstant)
	if encodeError != nil {
		return fmt.Errorf(encodeLedgerErrorTemplateConstant, store.ledgerPath, encodeError)
	}

	temporaryLedgerPath := store.ledgerPath + temporaryLedgerSuffixConstant
	if writeError := os.WriteFile(temporaryLedgerPath, encodedLedger, ledgerFilePermissionsConstant); writeError != nil {
		return fmt.Errorf(writeLedgerErrorTemplateConstant, temporaryLedgerPath, writeError)
	}

	if renameError := os.Rename(temporaryLedgerPath, store.ledgerPath); renameError != nil {
		return fmt.Errorf(replaceLedgerErrorTemplateConstant, store.ledgerPath, renameError)
	}

	return nil
}
