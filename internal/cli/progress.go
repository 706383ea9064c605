package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/schollz/progressbar/v3"

	"github.com/Veraticus/card-ledger/internal/report"
)

// LookupProgress shows a progress bar while market data is fetched.
type LookupProgress struct {
	bar *progressbar.ProgressBar
}

// NewLookupProgress creates a progress bar for total lookups.
func NewLookupProgress(writer io.Writer, total int) *LookupProgress {
	bar := progressbar.NewOptions(total,
		progressbar.OptionSetWriter(writer),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionSetDescription("[cyan][bold]Fetching market data...[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			if _, err := fmt.Fprintln(writer); err != nil {
				slog.Warn("Failed to write newline after progress bar", "error", err)
			}
		}),
	)
	return &LookupProgress{bar: bar}
}

// Observe advances the bar. It is safe to use as a report.Observer.
func (p *LookupProgress) Observe(lookup report.Lookup) {
	if lookup.Err != nil {
		p.bar.Describe(fmt.Sprintf("[red]%s %s failed[reset]", lookup.Feed, lookup.Symbol))
	}
	if err := p.bar.Add(1); err != nil {
		slog.Warn("Failed to update progress bar", "error", err)
	}
}

// Finish completes the bar.
func (p *LookupProgress) Finish() {
	if err := p.bar.Finish(); err != nil {
		slog.Warn("Failed to finish progress bar", "error", err)
	}
}
