package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/Veraticus/card-ledger/internal/common"
	"github.com/Veraticus/card-ledger/internal/config"
	"github.com/Veraticus/card-ledger/internal/model"
)

// sheetColumns is the column span read from the ledger sheet.
const sheetColumns = "A:Z"

// SheetsSource reads a ledger kept in a Google spreadsheet.
type SheetsSource struct {
	service *sheets.Service
	logger  *slog.Logger
	config  config.SheetsConfig
}

// NewSheetsSource authenticates against the Sheets API and returns a source.
func NewSheetsSource(ctx context.Context, cfg config.SheetsConfig, logger *slog.Logger) (*SheetsSource, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	service, err := createSheetsService(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return NewSheetsSourceWithService(service, cfg, logger), nil
}

// NewSheetsSourceWithService returns a source backed by an existing Sheets service.
func NewSheetsSourceWithService(service *sheets.Service, cfg config.SheetsConfig, logger *slog.Logger) *SheetsSource {
	if logger == nil {
		logger = common.DiscardLogger()
	}
	return &SheetsSource{service: service, config: cfg, logger: logger}
}

// Records implements Source. API failures are returned, not swallowed.
func (s *SheetsSource) Records(ctx context.Context) ([]model.RawRecord, error) {
	readRange := fmt.Sprintf("%s!%s", s.config.SheetName, sheetColumns)

	retryOpts := common.RetryOptions{
		MaxAttempts:  max(s.config.RetryAttempts, 1),
		InitialDelay: s.config.RetryDelay,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}

	var resp *sheets.ValueRange
	err := common.WithRetry(common.WithLogger(ctx, s.logger), func() error {
		var callErr error
		resp, callErr = s.service.Spreadsheets.Values.Get(s.config.SpreadsheetID, readRange).
			ValueRenderOption("UNFORMATTED_VALUE").
			DateTimeRenderOption("FORMATTED_STRING").
			Context(ctx).
			Do()
		return classifyAPIError(callErr)
	}, retryOpts)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read %s: %w", common.ErrSourceUnavailable, readRange, err)
	}

	if len(resp.Values) == 0 {
		return []model.RawRecord{}, nil
	}

	header := headerOf(resp.Values[0])
	if missing := missingColumns(header); len(missing) > 0 {
		s.logger.Warn("Ledger sheet lacks expected columns", "range", readRange, "missing", missing)
	}

	records := rowsToRecords(header, resp.Values[1:])
	s.logger.Info("Read ledger spreadsheet",
		"spreadsheet_id", s.config.SpreadsheetID,
		"range", readRange,
		"rows", len(records))

	return records, nil
}

// classifyAPIError marks client-side API errors as permanent.
func classifyAPIError(err error) error {
	if err == nil {
		return nil
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Code < 500 && apiErr.Code != http.StatusTooManyRequests {
		return &common.RetryableError{Err: err, Retryable: false}
	}
	return err
}

// createSheetsService creates a read-only Google Sheets API service.
func createSheetsService(ctx context.Context, cfg config.SheetsConfig) (*sheets.Service, error) {
	var tokenSource oauth2.TokenSource

	if cfg.HasServiceAccount() {
		jsonKey, err := os.ReadFile(cfg.ServiceAccountPath)
		if err != nil {
			return nil, fmt.Errorf("unable to read service account key file: %w", err)
		}

		jwtConfig, err := google.JWTConfigFromJSON(jsonKey, sheets.SpreadsheetsReadonlyScope)
		if err != nil {
			return nil, fmt.Errorf("unable to parse service account key: %w", err)
		}

		tokenSource = jwtConfig.TokenSource(ctx)
	} else {
		client := &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     google.Endpoint,
			Scopes:       []string{sheets.SpreadsheetsReadonlyScope},
		}

		token := &oauth2.Token{
			RefreshToken: cfg.RefreshToken,
			TokenType:    "Bearer",
		}

		tokenSource = client.TokenSource(ctx, token)
	}

	httpClient := oauth2.NewClient(ctx, tokenSource)
	srv, err := sheets.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("unable to create sheets service: %w", err)
	}

	return srv, nil
}
