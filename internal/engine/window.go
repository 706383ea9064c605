package engine

import (
	"fmt"
	"time"

	"github.com/Veraticus/card-ledger/internal/model"
)

// ReferenceDateLayout is the layout of the reference date accepted by FilterWindow.
const ReferenceDateLayout = "2006-01-02"

// FilterWindow returns the transactions paid from the start of the reference month
// through the reference date, both inclusive, in their original order.
//
// The window opens dayOfMonth(reference)-1 days before the reference date. An empty
// reference yields an empty result. Transactions without a valid payment date are skipped.
func (e *Engine) FilterWindow(reference string, transactions []model.Transaction) ([]model.Transaction, error) {
	filtered := []model.Transaction{}
	if reference == "" {
		return filtered, nil
	}

	ref, err := time.Parse(ReferenceDateLayout, reference)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidReferenceDate, reference)
	}
	start := ref.AddDate(0, 0, -(ref.Day() - 1))

	var skipped int
	for _, tx := range transactions {
		if !tx.PaymentDate.Valid {
			skipped++
			continue
		}
		if within(tx.PaymentDate.Day(), start, ref) {
			filtered = append(filtered, tx)
		}
	}

	e.logger.Debug("Filtered transactions by date window",
		"reference", reference,
		"window_start", start.Format(ReferenceDateLayout),
		"matched", len(filtered),
		"skipped_undated", skipped)

	return filtered, nil
}
