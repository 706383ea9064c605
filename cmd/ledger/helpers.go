package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/card-ledger/internal/cli"
	"github.com/Veraticus/card-ledger/internal/config"
	"github.com/Veraticus/card-ledger/internal/engine"
	"github.com/Veraticus/card-ledger/internal/ingest"
	"github.com/Veraticus/card-ledger/internal/model"
	"github.com/Veraticus/card-ledger/internal/report"
)

// Output formats.
const (
	formatJSON  = "json"
	formatTable = "table"
)

// ledgerRun is a loaded ledger ready for aggregation.
type ledgerRun struct {
	cfg          *config.Config
	engine       *engine.Engine
	logger       *slog.Logger
	transactions []model.Transaction
}

// loadLedger reads the configured ledger and normalizes its rows.
func loadLedger(ctx context.Context, v *viper.Viper) (*ledgerRun, error) {
	logger := slog.Default()

	cfg, err := config.Load(v)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	engineConfig := engine.DefaultConfig()
	if cfg.Trailing {
		engineConfig.SpendingWindow = engine.TrailingSpendingWindow
	}
	eng := engine.NewWithConfig(logger, engineConfig)

	source, err := ingest.Open(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}

	start := time.Now()
	records, err := source.Records(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read ledger: %w", err)
	}

	transactions := eng.NormalizeAll(records)
	logger.Debug("Loaded ledger",
		"source", cfg.Ledger.Source,
		"path", cfg.Ledger.Path,
		"records", len(records),
		"transactions", len(transactions),
		"duration", time.Since(start))

	return &ledgerRun{
		cfg:          cfg,
		engine:       eng,
		logger:       logger,
		transactions: transactions,
	}, nil
}

// referenceArg returns the optional YYYY-MM-DD argument, defaulting to today.
func referenceArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return time.Now().Format(engine.ReferenceDateLayout)
}

// addFormatFlag registers --format on cmd and binds it to key.
func addFormatFlag(cmd *cobra.Command, v *viper.Viper, key, def string) {
	cmd.Flags().String("format", def, "Output format (json, table)")
	_ = v.BindPFlag(key, cmd.Flags().Lookup("format"))
}

func validateFormat(format string) error {
	switch format {
	case formatJSON, formatTable:
		return nil
	default:
		return fmt.Errorf("invalid format %q (want json or table)", format)
	}
}

// emit renders v as JSON or hands it to table, and writes it to the command's output
// or, when output is set, to that file.
func emit(cmd *cobra.Command, format, output string, v any, indent bool, table func() string) error {
	if output != "" {
		return writeReport(cmd.ErrOrStderr(), output, v, indent)
	}

	if format == formatTable {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), table())
		return err
	}
	return report.RenderJSON(cmd.OutOrStdout(), v, indent)
}

// writeReport saves v to path and tells the user where it went.
func writeReport(w io.Writer, path string, v any, indent bool) error {
	if err := report.WriteFile(path, v, indent); err != nil {
		return err
	}
	slog.Debug("Report written", "path", path)
	_, err := fmt.Fprintln(w, cli.FormatSuccess("Report written to "+path))
	return err
}
