// Package report assembles the home page report and renders reports as JSON.
package report

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Veraticus/card-ledger/internal/common"
	"github.com/Veraticus/card-ledger/internal/config"
	"github.com/Veraticus/card-ledger/internal/engine"
	"github.com/Veraticus/card-ledger/internal/model"
)

// RateSource quotes a currency in the configured base currency.
type RateSource interface {
	Rate(ctx context.Context, code string) (model.Rate, error)
}

// QuoteSource quotes the latest price of a stock.
type QuoteSource interface {
	Price(ctx context.Context, symbol string) (model.StockPrice, error)
}

// Lookup describes one finished enrichment lookup.
type Lookup struct {
	Err    error
	Feed   string
	Symbol string
}

// Observer is notified after every lookup. It may be called from several goroutines.
type Observer func(Lookup)

// Feed names passed to observers.
const (
	FeedRates  = "rates"
	FeedStocks = "stocks"
)

// Config holds configuration options for the assembler.
type Config struct {
	Now      func() time.Time
	Observer Observer
	TopN     int
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Now:  time.Now,
		TopN: engine.TopN,
	}
}

// Assembler builds the home report from ledger transactions and market data.
type Assembler struct {
	engine   *engine.Engine
	rates    RateSource
	quotes   QuoteSource
	logger   *slog.Logger
	now      func() time.Time
	observer Observer
	topN     int
}

// New creates an assembler with the default configuration.
// Nil sources skip the corresponding enrichment.
func New(eng *engine.Engine, rates RateSource, quotes QuoteSource, logger *slog.Logger) *Assembler {
	return NewWithConfig(eng, rates, quotes, logger, DefaultConfig())
}

// NewWithConfig creates an assembler with custom configuration.
func NewWithConfig(eng *engine.Engine, rates RateSource, quotes QuoteSource, logger *slog.Logger, config Config) *Assembler {
	if logger == nil {
		logger = common.DiscardLogger()
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	if config.TopN <= 0 {
		config.TopN = engine.TopN
	}
	return &Assembler{
		engine:   eng,
		rates:    rates,
		quotes:   quotes,
		logger:   logger,
		now:      config.Now,
		observer: config.Observer,
		topN:     config.TopN,
	}
}

// Home assembles the home report for the month up to reference (YYYY-MM-DD).
// Any failed lookup aborts the report with an enrichment error.
func (a *Assembler) Home(ctx context.Context, reference string, transactions []model.Transaction, settings config.UserSettings) (model.HomeReport, error) {
	runID := uuid.NewString()
	logger := a.logger.With("run_id", runID)
	start := time.Now()

	logger.Info("Assembling home report", "reference", reference, "transactions", len(transactions))

	window, err := a.engine.FilterWindow(reference, transactions)
	if err != nil {
		return model.HomeReport{}, fmt.Errorf("failed to filter transactions: %w", err)
	}

	report := model.HomeReport{
		Greeting:        Greeting(a.now()),
		Cards:           a.engine.CardExpenses(window),
		TopTransactions: a.engine.TopTransactions(window, a.topN),
		CurrencyRates:   []model.Rate{},
		StockPrices:     []model.StockPrice{},
	}

	g, gctx := errgroup.WithContext(common.WithLogger(ctx, logger))

	if a.rates != nil && len(settings.Currencies) > 0 {
		g.Go(func() error {
			rates, err := lookupAll(gctx, settings.Currencies, FeedRates, a.notify, a.rates.Rate)
			if err != nil {
				return err
			}
			report.CurrencyRates = rates
			return nil
		})
	}
	if a.quotes != nil && len(settings.Stocks) > 0 {
		g.Go(func() error {
			prices, err := lookupAll(gctx, settings.Stocks, FeedStocks, a.notify, a.quotes.Price)
			if err != nil {
				return err
			}
			report.StockPrices = prices
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		logger.Error("Home report enrichment failed", "error", err)
		return model.HomeReport{}, err
	}

	logger.Info("Assembled home report",
		"cards", len(report.Cards),
		"top_transactions", len(report.TopTransactions),
		"currency_rates", len(report.CurrencyRates),
		"stock_prices", len(report.StockPrices),
		"duration", time.Since(start))

	return report, nil
}

func (a *Assembler) notify(lookup Lookup) {
	if a.observer != nil {
		a.observer(lookup)
	}
}

// lookupAll queries every distinct symbol once and returns the results in the order
// of symbols, repeating a result for a repeated symbol.
func lookupAll[T any](ctx context.Context, symbols []string, feed string, notify Observer, fetch func(context.Context, string) (T, error)) ([]T, error) {
	seen := make(map[string]T, len(symbols))
	results := make([]T, 0, len(symbols))

	for _, symbol := range symbols {
		if cached, ok := seen[symbol]; ok {
			results = append(results, cached)
			continue
		}

		value, err := fetch(ctx, symbol)
		notify(Lookup{Feed: feed, Symbol: symbol, Err: err})
		if err != nil {
			return nil, err
		}

		seen[symbol] = value
		results = append(results, value)
	}

	return results, nil
}
