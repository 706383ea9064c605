package engine

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/card-ledger/internal/model"
)

// pointsDivisor is the outflow, in currency units, that earns one cashback point.
var pointsDivisor = decimal.NewFromInt(100)

// CashbackCategories totals the cashback points each category accrued in the given
// month. Every outflow earns floor(|amount| / 100) points; transfers earn nothing.
// The report is sorted by points, descending, ties kept in first-seen order.
func (e *Engine) CashbackCategories(transactions []model.Transaction, year, month int) model.CashbackReport {
	report := model.CashbackReport{}
	index := make(map[string]int)

	for _, tx := range transactions {
		if !tx.PaymentDate.Valid {
			e.logger.Debug("Skipping transaction without a payment date",
				"value", tx.PaymentDate.Raw)
			continue
		}
		paid := tx.PaymentDate.Time
		if paid.Year() != year || int(paid.Month()) != month {
			continue
		}
		if tx.Category == model.CategoryTransfers || !tx.IsOutflow() {
			continue
		}

		points := tx.Amount.Decimal.Abs().Div(pointsDivisor).Floor().IntPart()
		i, seen := index[tx.Category]
		if !seen {
			i = len(report)
			index[tx.Category] = i
			report = append(report, model.CategoryCashback{Category: tx.Category})
		}
		report[i].Points += points
	}

	sort.SliceStable(report, func(i, j int) bool {
		return report[i].Points > report[j].Points
	})

	e.logger.Debug("Computed cashback by category",
		"year", year,
		"month", month,
		"categories", len(report))

	return report
}
