package parser

import (
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/Leventi/bl-parser/internal/models"

	"github.com/PuerkitoBio/goquery"
)

// ErrValidation indicates that source data does not have the expected shape:
// the scraped table is truncated or malformed, or an uploaded spreadsheet
// carries unknown headers or a blank INN.
var ErrValidation = errors.New("failed to parse source data")

// MinTableRows is the sanity threshold for a scraped table. The registry
// holds well over a thousand companies; fewer parsed rows means the page
// shape changed or an error page came back.
const MinTableRows = 1000

// Fixed column positions in the scraped table (zero-based td index).
// The coupling to the upstream layout is deliberate and accepted; all
// positional access is kept inside parseTableRow so a layout change
// fails fast in one place.
const (
	colRegistry    = 0
	colSection     = 1
	colDocNumber   = 2
	colRegion      = 3
	colCompanyName = 4
	colINN         = 5
	colAddress     = 6
	colOrderDate   = 8

	tableRowCells = 9
)

// innLabel marks the sub-element of the composite cell that holds the INN
const innLabel = "ИНН"

// labelPrefix strips a leading "<label>: " from a composite cell value
var labelPrefix = regexp.MustCompile(`^[^:]*:\s*`)

const dateLayout = "02.01.2006"

// ExtractTable parses the scraped registry markup into row records.
// Rows without an INN label are skipped (listed entities without an INN
// exist and are not an error); rows with an implausible INN length are
// skipped with a log line. A missing mandatory cell or a malformed order
// date aborts the whole extraction.
func ExtractTable(markup string) ([]models.MonopolyRow, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("markup is not parseable (%v): %w", err, ErrValidation)
	}

	trs := doc.Find("tbody tr")
	if trs.Length() < MinTableRows {
		log.Printf("[Parser] Received table contains %d rows, expected at least %d", trs.Length(), MinTableRows)
		return nil, fmt.Errorf("table contains only %d rows: %w", trs.Length(), ErrValidation)
	}

	rows := make([]models.MonopolyRow, 0, trs.Length())
	var rowErr error

	trs.EachWithBreak(func(i int, tr *goquery.Selection) bool {
		row, err := parseTableRow(i, tr)
		if err != nil {
			rowErr = err
			return false
		}
		if row != nil {
			rows = append(rows, *row)
		}
		return true
	})

	if rowErr != nil {
		return nil, rowErr
	}

	return rows, nil
}

// parseTableRow reads one table row by fixed column positions.
// Returns (nil, nil) when the row must be skipped.
func parseTableRow(number int, tr *goquery.Selection) (*models.MonopolyRow, error) {
	cells := tr.Find("td")
	if cells.Length() < tableRowCells {
		log.Printf("[Parser] Row %d has %d cells, expected %d", number, cells.Length(), tableRowCells)
		return nil, fmt.Errorf("row %d is missing mandatory cells: %w", number, ErrValidation)
	}

	// The INN lives in a labeled sub-element of a composite cell.
	// Some listed entities have no INN at all; their rows are skipped.
	innText := ""
	cells.Eq(colINN).Find("nobr div").EachWithBreak(func(_ int, div *goquery.Selection) bool {
		if strings.Contains(div.Text(), innLabel) {
			innText = div.Text()
			return false
		}
		return true
	})
	if innText == "" {
		return nil, nil
	}

	inn := strings.TrimSpace(labelPrefix.ReplaceAllString(innText, ""))
	if len(inn) != 10 && len(inn) != 12 {
		log.Printf("[Parser] Row %d skipped: INN %q is not 10 or 12 characters", number, inn)
		return nil, nil
	}

	orderDate, err := time.Parse(dateLayout, strings.TrimSpace(cells.Eq(colOrderDate).Text()))
	if err != nil {
		log.Printf("[Parser] Row %d has malformed order date %q", number, cells.Eq(colOrderDate).Text())
		return nil, fmt.Errorf("row %d has malformed order date: %w", number, ErrValidation)
	}

	return &models.MonopolyRow{
		INN:          inn,
		CompanyName:  strings.TrimSpace(cells.Eq(colCompanyName).Text()),
		Registry:     strings.TrimSpace(cells.Eq(colRegistry).Text()),
		Section:      strings.TrimSpace(cells.Eq(colSection).Text()),
		DocNumber:    strings.TrimSpace(cells.Eq(colDocNumber).Text()),
		Region:       strings.TrimSpace(cells.Eq(colRegion).Text()),
		Address:      strings.TrimSpace(cells.Eq(colAddress).Text()),
		DateFirstReg: &orderDate,
	}, nil
}
