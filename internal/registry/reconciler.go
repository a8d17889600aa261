package registry

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/Leventi/bl-parser/internal/database"
	"github.com/Leventi/bl-parser/internal/models"

	"gorm.io/gorm"
)

// Summary reports what a reconciliation pass did
type Summary struct {
	Inserted  int    `json:"inserted"`
	Refreshed int    `json:"refreshed"`
	Replaced  int    `json:"replaced"`
	Removed   int    `json:"removed"`
	Message   string `json:"message"`
}

// Reconciler applies extracted rows against the registry store.
// Input rows are trusted: all shape validation happens in the extractors.
//
// Each row is committed independently rather than batched into one
// transaction, so an interrupted pass leaves earlier rows durably applied.
// The next full pass converges on the same state either way.
type Reconciler struct {
	store *database.Store
}

// NewReconciler creates a reconciler bound to a store
func NewReconciler(store *database.Store) *Reconciler {
	return &Reconciler{store: store}
}

// Reconcile upserts the given rows. When fullPass is true the rows are an
// exhaustive scrape of the source table, and every listed record not
// re-confirmed during the pass (and not protected by a manual upload) is
// marked removed afterwards. Upload passes are partial by nature and never
// trigger removal marking.
func (r *Reconciler) Reconcile(rows []models.MonopolyRow, fullPass bool) (*Summary, error) {
	startedAt := time.Now()
	summary := &Summary{}

	for _, row := range rows {
		if err := r.applyRow(row, summary); err != nil {
			return nil, err
		}
	}

	if fullPass {
		removed, err := r.store.MarkStaleRemoved(startedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to mark stale records: %w", err)
		}
		summary.Removed = int(removed)
	}

	log.Printf("Reconciler: Pass completed. Inserted: %d, Refreshed: %d, Replaced: %d, Removed: %d",
		summary.Inserted, summary.Refreshed, summary.Replaced, summary.Removed)

	return summary, nil
}

// applyRow upserts a single row by INN.
func (r *Reconciler) applyRow(row models.MonopolyRow, summary *Summary) error {
	existing, err := r.store.FindByINN(row.INN)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		record := recordFromRow(row)
		if err := r.store.Create(record); err != nil {
			return fmt.Errorf("failed to insert INN %s: %w", row.INN, err)
		}
		summary.Inserted++
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to look up INN %s: %w", row.INN, err)
	}

	if row.ManualUpload {
		// An operator upload is authoritative: replace every detail field.
		// The removal state is left alone.
		manual := true
		existing.CompanyName = row.CompanyName
		existing.Registry = row.Registry
		existing.Section = row.Section
		existing.DocNumber = row.DocNumber
		existing.Region = row.Region
		existing.Address = row.Address
		existing.DateFirstReg = row.DateFirstReg
		existing.ManualUpload = &manual
		existing.LastCheck = time.Now()
		if err := r.store.Save(existing); err != nil {
			return fmt.Errorf("failed to replace INN %s: %w", row.INN, err)
		}
		summary.Replaced++
		return nil
	}

	// A scraped row only re-confirms presence. Detail fields keep their
	// first-captured values even when the site text changed.
	if err := r.store.UpdateLastCheck(row.INN, time.Now()); err != nil {
		return fmt.Errorf("failed to refresh INN %s: %w", row.INN, err)
	}
	summary.Refreshed++
	return nil
}

// recordFromRow builds a fresh registry record from an extracted row
func recordFromRow(row models.MonopolyRow) *models.Monopoly {
	record := &models.Monopoly{
		INN:          row.INN,
		CompanyName:  row.CompanyName,
		Registry:     row.Registry,
		Section:      row.Section,
		DocNumber:    row.DocNumber,
		Region:       row.Region,
		Address:      row.Address,
		DateFirstReg: row.DateFirstReg,
		LastCheck:    time.Now(),
	}
	if row.ManualUpload {
		manual := true
		record.ManualUpload = &manual
	}
	return record
}
