// Package export writes canonical records to a spreadsheet.
package export

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/farhapartex/adlibrary-proxy/internal/models"
	"github.com/xuri/excelize/v2"
)

// SheetName is the worksheet the records are written to.
const SheetName = "Ads"

// Headers are the spreadsheet column titles, in order.
var Headers = []string{
	"Page Name",
	"Link URL",
	"Title",
	"Original Image/Video URL",
	"No of Days Running",
	"Collation Count",
	"Creation Time",
	"End Date",
}

// Row is one spreadsheet row. DaysRunning is nil when either date is missing.
type Row struct {
	PageName       string
	LinkURL        string
	Title          string
	MediaURL       string
	DaysRunning    *int
	CollationCount int
	CreationTime   string
	EndDate        string
}

// Rows converts records to rows sorted by collation count, highest first.
// Records with equal counts keep their input order.
func Rows(records []models.CanonicalRecord) []Row {
	rows := make([]Row, 0, len(records))
	for _, r := range records {
		media := r.OriginalImageURL
		if media == "" {
			media = r.OriginalVideoURL
		}
		rows = append(rows, Row{
			PageName:       r.PageName,
			LinkURL:        r.LinkURL,
			Title:          r.Title,
			MediaURL:       media,
			DaysRunning:    DaysRunning(r.CreationTime, r.EndDate),
			CollationCount: r.CollationCount,
			CreationTime:   r.CreationTime,
			EndDate:        r.EndDate,
		})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].CollationCount > rows[j].CollationCount
	})
	return rows
}

// DaysRunning returns end minus creation in whole days, or nil when either
// date is absent or unparsable.
func DaysRunning(creation, end string) *int {
	if creation == "" || end == "" {
		return nil
	}
	start, err := time.Parse(models.DateLayout, creation)
	if err != nil {
		return nil
	}
	stop, err := time.Parse(models.DateLayout, end)
	if err != nil {
		return nil
	}
	days := int(stop.Sub(start).Hours() / 24)
	return &days
}

// Build renders the records into a new workbook.
func Build(records []models.CanonicalRecord) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	if err := setRow(f, 1, toCells(Headers)); err != nil {
		_ = f.Close()
		return nil, err
	}

	for i, row := range Rows(records) {
		var days any
		if row.DaysRunning != nil {
			days = *row.DaysRunning
		}
		cells := []any{
			row.PageName,
			row.LinkURL,
			row.Title,
			row.MediaURL,
			days,
			row.CollationCount,
			row.CreationTime,
			row.EndDate,
		}
		if err := setRow(f, i+2, cells); err != nil {
			_ = f.Close()
			return nil, err
		}
	}

	return f, nil
}

// WriteXLSX writes the workbook to w.
func WriteXLSX(w io.Writer, records []models.CanonicalRecord) error {
	f, err := Build(records)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// SaveXLSX writes the workbook to path.
func SaveXLSX(path string, records []models.CanonicalRecord) error {
	f, err := Build(records)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook %s: %w", path, err)
	}
	return nil
}

func setRow(f *excelize.File, rowNum int, cells []any) error {
	cell, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return fmt.Errorf("cell name for row %d: %w", rowNum, err)
	}
	if err := f.SetSheetRow(SheetName, cell, &cells); err != nil {
		return fmt.Errorf("write row %d: %w", rowNum, err)
	}
	return nil
}

func toCells(values []string) []any {
	cells := make([]any, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return cells
}
