package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/card-ledger/internal/cli"
	"github.com/Veraticus/card-ledger/internal/common"
	"github.com/Veraticus/card-ledger/internal/config"
	"github.com/Veraticus/card-ledger/internal/engine"
	"github.com/Veraticus/card-ledger/internal/model"
	"github.com/Veraticus/card-ledger/internal/pricefeed"
	"github.com/Veraticus/card-ledger/internal/report"
)

func homeCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "home [YYYY-MM-DD]",
		Short: "Show the home page report",
		Long: `Build the home page report for the month up to the given date (default: today):
a greeting, spend and cashback per card, the largest transactions, and the
currency rates and stock prices listed in the user settings file.`,
		Example: `  ledger home
  ledger home 2021-11-03 --no-enrich
  ledger home --format table`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHome(cmd, v, args)
		},
	}

	cmd.Flags().Bool("no-enrich", false, "Skip currency rate and stock price lookups")
	cmd.Flags().StringP("output", "o", "", "Write the report to this file instead of stdout")
	addFormatFlag(cmd, v, "home.format", formatJSON)

	_ = v.BindPFlag("home.no_enrich", cmd.Flags().Lookup("no-enrich"))
	_ = v.BindPFlag("home.output", cmd.Flags().Lookup("output"))

	return cmd
}

func runHome(cmd *cobra.Command, v *viper.Viper, args []string) error {
	format := v.GetString("home.format")
	output := v.GetString("home.output")
	if err := validateFormat(format); err != nil {
		return err
	}

	interrupts := cli.NewInterruptHandler(cmd.ErrOrStderr())
	ctx := interrupts.HandleInterrupts(cmd.Context(), output != "")
	defer interrupts.Stop()

	run, err := loadLedger(ctx, v)
	if err != nil {
		return err
	}

	settings := config.LoadUserSettings(run.cfg.SettingsPath, run.logger)

	var rates report.RateSource
	var quotes report.QuoteSource
	reportConfig := report.Config{Now: time.Now, TopN: engine.TopN}

	if !v.GetBool("home.no_enrich") {
		rateClient, quoteClient, err := feedClients(run, settings)
		if err != nil {
			return err
		}
		if rateClient != nil {
			defer rateClient.Close()
			rates = rateClient
		}
		if quoteClient != nil {
			defer quoteClient.Close()
			quotes = quoteClient
		}

		if total := lookupCount(settings); total > 0 {
			progress := cli.NewLookupProgress(cmd.ErrOrStderr(), total)
			defer progress.Finish()
			reportConfig.Observer = progress.Observe
		}
	}

	assembler := report.NewWithConfig(run.engine, rates, quotes, run.logger, reportConfig)
	home, err := assembler.Home(ctx, referenceArg(args), run.transactions, settings)
	if err != nil {
		if interrupts.WasInterrupted() {
			return ctx.Err()
		}
		return homeError(err)
	}

	if output != "" {
		return writeReport(cmd.ErrOrStderr(), output, []model.HomeReport{home}, true)
	}
	if format == formatTable {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), cli.HomeView(home))
		return err
	}
	return report.RenderHome(cmd.OutOrStdout(), home)
}

// feedClients builds the clients for the feeds the settings need.
// A feed whose symbols are all absent is left nil.
func feedClients(run *ledgerRun, settings config.UserSettings) (*pricefeed.ExchangeRateClient, *pricefeed.AlphaVantageClient, error) {
	var rates *pricefeed.ExchangeRateClient
	var quotes *pricefeed.AlphaVantageClient

	if len(settings.Currencies) > 0 {
		if err := run.cfg.ExchangeRate.RequireKey(pricefeed.ExchangeRateFeed, config.EnvExchangeRateKey); err != nil {
			return nil, nil, common.NewUserError("Cannot look up currency rates (use --no-enrich to skip)", err)
		}
		rates = pricefeed.NewExchangeRateClient(run.cfg.ExchangeRate, nil, run.logger)
	}

	if len(settings.Stocks) > 0 {
		if err := run.cfg.AlphaVantage.RequireKey(pricefeed.AlphaVantageFeed, config.EnvAlphaVantageKey); err != nil {
			if rates != nil {
				rates.Close()
			}
			return nil, nil, common.NewUserError("Cannot look up stock prices (use --no-enrich to skip)", err)
		}
		quotes = pricefeed.NewAlphaVantageClient(run.cfg.AlphaVantage, nil, run.logger)
	}

	return rates, quotes, nil
}

// lookupCount is the number of distinct symbols the assembler will query.
func lookupCount(settings config.UserSettings) int {
	distinct := func(symbols []string) int {
		seen := make(map[string]struct{}, len(symbols))
		for _, symbol := range symbols {
			seen[symbol] = struct{}{}
		}
		return len(seen)
	}
	return distinct(settings.Currencies) + distinct(settings.Stocks)
}

func homeError(err error) error {
	var enrichErr *common.EnrichmentUnavailableError
	if errors.As(err, &enrichErr) {
		return common.NewUserError(
			fmt.Sprintf("Market data for %s is unavailable (use --no-enrich to skip)", enrichErr.Symbol), err)
	}
	return err
}
