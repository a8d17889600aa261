package registry

import (
	"errors"

	"github.com/Leventi/bl-parser/internal/database"
	"github.com/Leventi/bl-parser/internal/models"

	"gorm.io/gorm"
)

// ErrNotFound is the expected negative-lookup outcome: the company is not
// (or never was) in the registry. It is not a system fault.
var ErrNotFound = errors.New("company is not in the registry")

// Lookup answers point queries against the registry store
type Lookup struct {
	store *database.Store
}

// NewLookup creates a lookup service bound to a store
func NewLookup(store *database.Store) *Lookup {
	return &Lookup{store: store}
}

// Find returns the registry record for an INN. With history=false only a
// currently listed record matches; with history=true a record that was
// listed at any point matches too.
func (l *Lookup) Find(inn string, history bool) (*models.Monopoly, error) {
	var record *models.Monopoly
	var err error

	if history {
		record, err = l.store.FindByINN(inn)
	} else {
		record, err = l.store.FindActiveByINN(inn)
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return record, nil
}
