package ingest

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/Veraticus/card-ledger/internal/common"
	"github.com/Veraticus/card-ledger/internal/model"
)

// CSVSource reads a ledger exported as CSV with a header row.
type CSVSource struct {
	logger *slog.Logger
	path   string
}

// NewCSVSource creates a CSV source.
func NewCSVSource(path string, logger *slog.Logger) *CSVSource {
	if logger == nil {
		logger = common.DiscardLogger()
	}
	return &CSVSource{path: path, logger: logger}
}

// Records implements Source.
func (s *CSVSource) Records(ctx context.Context) ([]model.RawRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(s.path) // #nosec G304
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("Ledger file not found", "path", s.path)
		} else {
			s.logger.Error("Failed to open ledger file", "path", s.path, "error", err)
		}
		return []model.RawRecord{}, nil
	}
	defer func() { _ = f.Close() }()

	records, err := ReadCSV(f)
	if err != nil {
		s.logger.Error("Failed to decode ledger file", "path", s.path, "error", err)
		return []model.RawRecord{}, nil
	}

	s.logger.Info("Read ledger file", "path", s.path, "rows", len(records))
	return records, nil
}

// ReadCSV decodes a ledger CSV. The delimiter is ';' when the header contains more
// semicolons than commas, ',' otherwise.
func ReadCSV(r io.Reader) ([]model.RawRecord, error) {
	br := bufio.NewReader(r)
	firstLine, err := br.Peek(br.Size())
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return nil, err
	}

	reader := csv.NewReader(br)
	reader.Comma = detectDelimiter(string(firstLine))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return []model.RawRecord{}, nil
	}

	return rowsToRecords(rows[0], stringRows(rows[1:])), nil
}

func detectDelimiter(sample string) rune {
	if i := strings.IndexByte(sample, '\n'); i >= 0 {
		sample = sample[:i]
	}
	if strings.Count(sample, ";") > strings.Count(sample, ",") {
		return ';'
	}
	return ','
}
