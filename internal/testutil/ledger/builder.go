package ledger

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/Veraticus/card-ledger/internal/model"
)

// Row is one ledger row as the bank exports it. Empty fields are written as empty cells.
type Row struct {
	Date        string
	Card        string
	Status      string
	Amount      string
	Currency    string
	Category    string
	MCC         string
	Description string
}

// Cells returns the row's values in model.LedgerColumns order.
func (r Row) Cells() []string {
	return []string{r.Date, r.Card, r.Status, r.Amount, r.Currency, r.Category, r.MCC, r.Description}
}

// Record returns the row keyed by column name. Empty fields are left out.
func (r Row) Record() model.RawRecord {
	record := make(model.RawRecord, len(model.LedgerColumns))
	for i, value := range r.Cells() {
		if value != "" {
			record[model.LedgerColumns[i]] = value
		}
	}
	return record
}

// Builder assembles a ledger for a single test.
type Builder struct {
	t    *testing.T
	rows []Row
}

// NewBuilder creates a new ledger builder for the given test.
func NewBuilder(t *testing.T) *Builder {
	t.Helper()
	return &Builder{t: t}
}

// WithRow adds a single row to the ledger.
func (b *Builder) WithRow(row Row) *Builder {
	b.rows = append(b.rows, row)
	return b
}

// WithRows adds several rows to the ledger.
func (b *Builder) WithRows(rows ...Row) *Builder {
	b.rows = append(b.rows, rows...)
	return b
}

// WithFixture adds the rows of a predefined fixture.
func (b *Builder) WithFixture(fixture Fixture) *Builder {
	return b.WithRows(fixture.Rows()...)
}

// Rows returns a copy of the rows added so far.
func (b *Builder) Rows() []Row {
	return append([]Row(nil), b.rows...)
}

// Records returns the ledger as raw records, ready for normalization.
func (b *Builder) Records() []model.RawRecord {
	records := make([]model.RawRecord, 0, len(b.rows))
	for _, row := range b.rows {
		records = append(records, row.Record())
	}
	return records
}

// WriteCSV writes the ledger as a ';'-separated CSV file with a header row into dir
// and returns its path.
func (b *Builder) WriteCSV(dir string) string {
	b.t.Helper()

	path := filepath.Join(dir, "operations.csv")
	f, err := os.Create(path) // #nosec G304
	if err != nil {
		b.t.Fatalf("failed to create ledger file: %v", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			b.t.Logf("Failed to close ledger file: %v", closeErr)
		}
	}()

	w := csv.NewWriter(f)
	w.Comma = ';'
	if err := w.Write(model.LedgerColumns); err != nil {
		b.t.Fatalf("failed to write ledger header: %v", err)
	}
	for _, row := range b.rows {
		if err := w.Write(row.Cells()); err != nil {
			b.t.Fatalf("failed to write ledger row: %v", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		b.t.Fatalf("failed to flush ledger file: %v", err)
	}

	return path
}

// WriteXLSX writes the ledger as a workbook with a header row on sheet "Sheet1" into
// dir and returns its path.
func (b *Builder) WriteXLSX(dir string) string {
	b.t.Helper()

	f := excelize.NewFile()
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			b.t.Logf("Failed to close workbook: %v", closeErr)
		}
	}()

	rows := [][]string{model.LedgerColumns}
	for _, row := range b.rows {
		rows = append(rows, row.Cells())
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			b.t.Fatalf("failed to address row %d: %v", i+1, err)
		}
		values := make([]any, len(row))
		for j, value := range row {
			values[j] = value
		}
		if err := f.SetSheetRow("Sheet1", cell, &values); err != nil {
			b.t.Fatalf("failed to write row %d: %v", i+1, err)
		}
	}

	path := filepath.Join(dir, "operations.xlsx")
	if err := f.SaveAs(path); err != nil {
		b.t.Fatalf("failed to save workbook: %v", err)
	}
	return path
}
