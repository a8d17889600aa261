package parser

import (
	"bytes"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/Leventi/bl-parser/internal/models"

	"github.com/xuri/excelize/v2"
)

// uploadField enumerates the recognized spreadsheet columns
type uploadField int

const (
	fieldINN uploadField = iota
	fieldCompanyName
	fieldRegistry
	fieldSection
	fieldDocNumber
	fieldRegion
	fieldAddress
	fieldDateFirstReg
	fieldManualUpload
)

// uploadSchema maps recognized header names to fields. Any header outside
// this set aborts the upload before a single data row is read.
var uploadSchema = map[string]uploadField{
	"inn":          fieldINN,
	"companyName":  fieldCompanyName,
	"registry":     fieldRegistry,
	"section":      fieldSection,
	"docNumber":    fieldDocNumber,
	"region":       fieldRegion,
	"address":      fieldAddress,
	"dateFirstReg": fieldDateFirstReg,
	"manualUpload": fieldManualUpload,
}

// ExtractUpload parses an uploaded workbook into row records. The first
// worksheet is read; its first row must contain only recognized headers,
// in any order and any subset. Every produced row is forced to
// ManualUpload=true regardless of the column being present.
//
// Unlike the scraped table, a blank INN here is fatal: a human-curated
// upload with a missing identity key indicates operator error.
func ExtractUpload(fileBytes []byte) ([]models.MonopolyRow, error) {
	f, err := excelize.OpenReader(bytes.NewReader(fileBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook (%v): %w", err, ErrValidation)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, fmt.Errorf("workbook contains no sheets: %w", ErrValidation)
	}

	allRows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q (%v): %w", sheetName, err, ErrValidation)
	}
	if len(allRows) == 0 {
		return nil, fmt.Errorf("sheet %q is empty: %w", sheetName, ErrValidation)
	}

	// Build the header-to-field mapping once, validating eagerly.
	mapping := make(map[int]uploadField, len(allRows[0]))
	for i, header := range allRows[0] {
		field, ok := uploadSchema[strings.TrimSpace(header)]
		if !ok {
			log.Printf("[Parser] Upload rejected: unrecognized header %q", header)
			return nil, fmt.Errorf("unrecognized header %q: %w", header, ErrValidation)
		}
		mapping[i] = field
	}

	rows := make([]models.MonopolyRow, 0, len(allRows)-1)

	for number, cells := range allRows[1:] {
		row := models.MonopolyRow{ManualUpload: true}

		for i, cell := range cells {
			field, ok := mapping[i]
			if !ok {
				continue
			}
			value := strings.TrimSpace(cell)

			switch field {
			case fieldINN:
				row.INN = value
			case fieldCompanyName:
				row.CompanyName = value
			case fieldRegistry:
				row.Registry = value
			case fieldSection:
				row.Section = value
			case fieldDocNumber:
				row.DocNumber = value
			case fieldRegion:
				row.Region = value
			case fieldAddress:
				row.Address = value
			case fieldDateFirstReg:
				if value == "" {
					continue
				}
				date, err := time.Parse(dateLayout, value)
				if err != nil {
					log.Printf("[Parser] Upload row %d has malformed dateFirstReg %q", number+1, value)
					return nil, fmt.Errorf("row %d has malformed dateFirstReg: %w", number+1, ErrValidation)
				}
				row.DateFirstReg = &date
			case fieldManualUpload:
				// Forced to true above no matter what the cell says.
			}
		}

		if row.INN == "" {
			log.Printf("[Parser] Upload rejected: blank INN in row %d", number+1)
			return nil, fmt.Errorf("blank INN in row %d: %w", number+1, ErrValidation)
		}

		if len(row.INN) != 10 && len(row.INN) != 12 {
			log.Printf("[Parser] Upload row %d skipped: INN %q is not 10 or 12 characters", number+1, row.INN)
			continue
		}

		rows = append(rows, row)
	}

	return rows, nil
}
