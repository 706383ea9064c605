// Package engine implements the transaction aggregation engine: pure transformations
// from normalized ledger transactions into report values.
//
// Every method is a function of its arguments and the engine configuration. No method
// mutates its input or any shared state, so an Engine can be used from many goroutines.
package engine

import (
	"errors"
	"log/slog"
	"time"

	"github.com/Veraticus/card-ledger/internal/common"
)

// TopN is the number of entries in the home report ranking.
const TopN = 5

// Engine errors.
var (
	ErrEmptyRecord          = errors.New("empty record")
	ErrInvalidReferenceDate = errors.New("invalid reference date")
	ErrInvalidAnchorDate    = errors.New("invalid anchor date")
)

// SpendingWindow is the span, in days, around the anchor date of the spending history.
type SpendingWindow struct {
	BeforeDays int
	AfterDays  int
}

// DefaultSpendingWindow spans 90 days on both sides of the anchor.
var DefaultSpendingWindow = SpendingWindow{BeforeDays: 90, AfterDays: 90}

// TrailingSpendingWindow covers the 90 days up to and including the anchor.
var TrailingSpendingWindow = SpendingWindow{BeforeDays: 90, AfterDays: 0}

// Config holds configuration options for the aggregation engine.
type Config struct {
	Now            func() time.Time
	SpendingWindow SpendingWindow
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Now:            time.Now,
		SpendingWindow: DefaultSpendingWindow,
	}
}

// Engine turns normalized transactions into reports.
type Engine struct {
	logger *slog.Logger
	now    func() time.Time
	window SpendingWindow
}

// New creates an engine with the default configuration.
func New(logger *slog.Logger) *Engine {
	return NewWithConfig(logger, DefaultConfig())
}

// NewWithConfig creates an engine with custom configuration.
func NewWithConfig(logger *slog.Logger, config Config) *Engine {
	if logger == nil {
		logger = common.DiscardLogger()
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	return &Engine{
		logger: logger,
		now:    config.Now,
		window: config.SpendingWindow,
	}
}

// day truncates t to midnight UTC of its calendar day.
func day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// within reports whether d lies in [start, end], both inclusive.
func within(d, start, end time.Time) bool {
	return !d.Before(start) && !d.After(end)
}
