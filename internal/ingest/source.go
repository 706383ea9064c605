// Package ingest reads raw ledger rows from spreadsheets, CSV exports, Google Sheets
// and OFX statements.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Veraticus/card-ledger/internal/common"
	"github.com/Veraticus/card-ledger/internal/config"
	"github.com/Veraticus/card-ledger/internal/model"
)

// byteOrderMark prefixes the first header cell of some UTF-8 exports.
const byteOrderMark = "\ufeff"

// Source yields the raw rows of a ledger.
//
// File-backed sources treat a missing or undecodable file as an empty ledger and
// log the problem instead of failing.
type Source interface {
	Records(ctx context.Context) ([]model.RawRecord, error)
}

// Open returns the source selected by the ledger configuration.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (Source, error) {
	if logger == nil {
		logger = common.DiscardLogger()
	}

	switch cfg.Ledger.Source {
	case config.SourceXLSX:
		return NewXLSXSource(cfg.Ledger.Path, cfg.Ledger.Sheet, logger), nil
	case config.SourceCSV:
		return NewCSVSource(cfg.Ledger.Path, logger), nil
	case config.SourceOFX:
		return NewOFXSource(cfg.Ledger.Path, logger), nil
	case config.SourceSheets:
		sheetsConfig := cfg.Sheets
		if cfg.Ledger.Sheet != "" {
			sheetsConfig.SheetName = cfg.Ledger.Sheet
		}
		return NewSheetsSource(ctx, sheetsConfig, logger)
	default:
		return nil, fmt.Errorf("%w: unknown ledger source %q", common.ErrInvalidConfig, cfg.Ledger.Source)
	}
}

// rowsToRecords keys every data row by the header cell in the same column.
// Short rows leave their trailing columns absent. Rows without any cell are dropped.
func rowsToRecords(header []string, rows [][]any) []model.RawRecord {
	columns := make([]string, len(header))
	for i, name := range header {
		columns[i] = strings.TrimSpace(strings.TrimPrefix(name, byteOrderMark))
	}

	records := make([]model.RawRecord, 0, len(rows))
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		record := make(model.RawRecord, len(columns))
		for i, value := range row {
			if i >= len(columns) || columns[i] == "" {
				continue
			}
			record[columns[i]] = value
		}
		records = append(records, record)
	}
	return records
}

func stringRows(rows [][]string) [][]any {
	out := make([][]any, len(rows))
	for i, row := range rows {
		cells := make([]any, len(row))
		for j, cell := range row {
			cells[j] = cell
		}
		out[i] = cells
	}
	return out
}

func headerOf(row []any) []string {
	header := make([]string, len(row))
	for i, cell := range row {
		header[i] = fmt.Sprint(cell)
	}
	return header
}

// missingColumns lists the ledger columns absent from header.
func missingColumns(header []string) []string {
	present := make(map[string]bool, len(header))
	for _, name := range header {
		present[strings.TrimSpace(strings.TrimPrefix(name, byteOrderMark))] = true
	}
	var missing []string
	for _, name := range model.LedgerColumns {
		if !present[name] {
			missing = append(missing, name)
		}
	}
	return missing
}
