package registry

import (
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/Leventi/bl-parser/internal/database"
	"github.com/Leventi/bl-parser/internal/parser"
)

// ErrSyncRunning is returned when a synchronization pass is requested while
// another one is still in flight. Overlapping passes would interleave
// reads and writes against the same INN, so only one runs at a time.
var ErrSyncRunning = errors.New("synchronization pass already running")

// Source produces the raw registry table markup
type Source interface {
	Fetch() (string, error)
}

// SyncJob drives one synchronization pass end to end: fetch, extract,
// reconcile, record the outcome. Both the scraped-table path and the
// spreadsheet-upload path go through the same reconciler and share the
// same single-flight guard.
type SyncJob struct {
	store      *database.Store
	source     Source
	reconciler *Reconciler
	mu         sync.Mutex
}

// NewSyncJob creates a sync job bound to a store and a table source
func NewSyncJob(store *database.Store, source Source) *SyncJob {
	return &SyncJob{
		store:      store,
		source:     source,
		reconciler: NewReconciler(store),
	}
}

// RunTablePass fetches the live source table and reconciles it as a full
// pass (with removal marking).
func (j *SyncJob) RunTablePass() (*Summary, error) {
	if !j.mu.TryLock() {
		return nil, ErrSyncRunning
	}
	defer j.mu.Unlock()

	log.Println("Sync: Starting table pass")

	markup, err := j.source.Fetch()
	if err != nil {
		j.recordOutcome(fmt.Sprintf("fetch failed: %v", err), false)
		return nil, err
	}

	rows, err := parser.ExtractTable(markup)
	if err != nil {
		j.recordOutcome(fmt.Sprintf("extraction failed: %v", err), false)
		return nil, err
	}

	summary, err := j.reconciler.Reconcile(rows, true)
	if err != nil {
		j.recordOutcome(fmt.Sprintf("reconciliation failed: %v", err), false)
		return nil, err
	}

	summary.Message = "Update monopoly list successfully"
	j.recordOutcome(summary.Message, true)
	return summary, nil
}

// RunUpload reconciles an uploaded workbook as a partial pass
// (no removal marking).
func (j *SyncJob) RunUpload(fileBytes []byte) (*Summary, error) {
	if !j.mu.TryLock() {
		return nil, ErrSyncRunning
	}
	defer j.mu.Unlock()

	log.Printf("Sync: Starting upload pass (%d bytes)", len(fileBytes))

	rows, err := parser.ExtractUpload(fileBytes)
	if err != nil {
		j.recordOutcome(fmt.Sprintf("upload extraction failed: %v", err), false)
		return nil, err
	}

	summary, err := j.reconciler.Reconcile(rows, false)
	if err != nil {
		j.recordOutcome(fmt.Sprintf("upload reconciliation failed: %v", err), false)
		return nil, err
	}

	summary.Message = "Upload success"
	j.recordOutcome(summary.Message, true)
	return summary, nil
}

// recordOutcome updates the persistent sync state. Failures here are logged
// and swallowed: state tracking must not turn a finished pass into an error.
func (j *SyncJob) recordOutcome(message string, success bool) {
	state, err := j.store.GetSyncState()
	if err != nil {
		log.Printf("Sync: Failed to load sync state: %v", err)
		return
	}

	if success {
		state.RecordSuccess(message)
	} else {
		state.RecordFailure(message)
	}

	if err := j.store.SaveSyncState(state); err != nil {
		log.Printf("Sync: Failed to save sync state: %v", err)
	}
}
