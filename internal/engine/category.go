package engine

import (
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/card-ledger/internal/model"
)

// ParseAnchorDate parses an explicit spending anchor written as DD.MM.YYYY.
func ParseAnchorDate(s string) (time.Time, error) {
	t, err := time.Parse(model.LedgerDateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q (want DD.MM.YYYY)", ErrInvalidAnchorDate, s)
	}
	return t, nil
}

// SpendingByCategory returns the date and amount of every transaction in category
// whose payment date falls inside the spending window around anchor.
//
// A nil anchor means today according to the engine clock. Entries keep the order in
// which the category pass met them.
func (e *Engine) SpendingByCategory(transactions []model.Transaction, category string, anchor *time.Time) []model.CategorySpend {
	mode := "explicit"
	var base time.Time
	if anchor == nil {
		mode = "implicit"
		base = day(e.now())
	} else {
		base = day(*anchor)
	}
	start := base.AddDate(0, 0, -e.window.BeforeDays)
	end := base.AddDate(0, 0, e.window.AfterDays)

	var inCategory []model.Transaction
	for _, tx := range transactions {
		if tx.Category == category {
			inCategory = append(inCategory, tx)
		}
	}

	spending := []model.CategorySpend{}
	for _, tx := range inCategory {
		if !tx.PaymentDate.Valid {
			continue
		}
		if within(tx.PaymentDate.Day(), start, end) {
			spending = append(spending, model.CategorySpend{
				Date:   tx.PaymentDate,
				Amount: model.Amount(tx.Amount),
			})
		}
	}

	e.logger.Debug("Collected spending by category",
		"category", category,
		"mode", mode,
		"window_start", start.Format(ReferenceDateLayout),
		"window_end", end.Format(ReferenceDateLayout),
		"in_category", len(inCategory),
		"matched", len(spending))

	return spending
}
