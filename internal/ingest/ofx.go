package ingest

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/Veraticus/card-ledger/internal/common"
	"github.com/Veraticus/card-ledger/internal/model"
	"github.com/Veraticus/card-ledger/internal/ofx"
)

// OFXSource reads a bank or credit card statement in OFX/QFX format.
type OFXSource struct {
	parser *ofx.Parser
	logger *slog.Logger
	path   string
}

// NewOFXSource creates an OFX statement source.
func NewOFXSource(path string, logger *slog.Logger) *OFXSource {
	if logger == nil {
		logger = common.DiscardLogger()
	}
	return &OFXSource{path: path, logger: logger, parser: ofx.NewParser(logger)}
}

// Records implements Source.
func (s *OFXSource) Records(ctx context.Context) ([]model.RawRecord, error) {
	f, err := os.Open(s.path) // #nosec G304
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("Statement file not found", "path", s.path)
		} else {
			s.logger.Error("Failed to open statement file", "path", s.path, "error", err)
		}
		return []model.RawRecord{}, nil
	}
	defer func() { _ = f.Close() }()

	records, err := s.parser.ParseFile(ctx, f)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		s.logger.Error("Failed to decode statement file", "path", s.path, "error", err)
		return []model.RawRecord{}, nil
	}
	if records == nil {
		records = []model.RawRecord{}
	}
	return records, nil
}
