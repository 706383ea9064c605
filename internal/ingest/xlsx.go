package ingest

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"os"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/Veraticus/card-ledger/internal/common"
	"github.com/Veraticus/card-ledger/internal/model"
)

// XLSXSource reads a ledger exported as an Excel workbook.
type XLSXSource struct {
	logger *slog.Logger
	path   string
	sheet  string
}

// NewXLSXSource creates a workbook source. An empty sheet name selects the first sheet.
func NewXLSXSource(path, sheet string, logger *slog.Logger) *XLSXSource {
	if logger == nil {
		logger = common.DiscardLogger()
	}
	return &XLSXSource{path: path, sheet: sheet, logger: logger}
}

// Records implements Source.
func (s *XLSXSource) Records(ctx context.Context) ([]model.RawRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := excelize.OpenFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("Ledger workbook not found", "path", s.path)
		} else {
			s.logger.Error("Failed to open ledger workbook", "path", s.path, "error", err)
		}
		return []model.RawRecord{}, nil
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			s.logger.Warn("Failed to close ledger workbook", "path", s.path, "error", closeErr)
		}
	}()

	sheet := s.sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			s.logger.Warn("Ledger workbook has no sheets", "path", s.path)
			return []model.RawRecord{}, nil
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		s.logger.Error("Failed to read ledger sheet", "path", s.path, "sheet", sheet, "error", err)
		return []model.RawRecord{}, nil
	}
	if len(rows) == 0 {
		return []model.RawRecord{}, nil
	}

	if missing := missingColumns(rows[0]); len(missing) > 0 {
		s.logger.Warn("Ledger sheet lacks expected columns", "sheet", sheet, "missing", missing)
	}

	records := rowsToRecords(rows[0], stringRows(rows[1:]))
	for _, record := range records {
		convertSerialDate(record)
	}

	s.logger.Info("Read ledger workbook", "path", s.path, "sheet", sheet, "rows", len(records))

	return records, nil
}

// convertSerialDate turns a payment date stored as an Excel serial number into a time.
// Text such as "nan" or "Inf" that parses as a float is left for normalization to reject.
func convertSerialDate(record model.RawRecord) {
	raw, ok := record[model.ColumnPaymentDate].(string)
	if !ok {
		return
	}
	serial, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(serial) || math.IsInf(serial, 0) || serial < 0 {
		return
	}
	if t, err := excelize.ExcelDateToTime(serial, false); err == nil {
		record[model.ColumnPaymentDate] = t
	}
}
