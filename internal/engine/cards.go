package engine

import (
	"github.com/shopspring/decimal"

	"github.com/Veraticus/card-ledger/internal/model"
)

// cardCashbackRate is the flat cashback estimate applied per card.
var cardCashbackRate = decimal.NewFromInt(100)

// CardExpenses sums the spend of each card, keyed by the card's last digits, in the
// order the cards first appear. Amounts are accumulated as magnitudes.
// Transactions with an unknown card or amount are skipped.
func (e *Engine) CardExpenses(transactions []model.Transaction) []model.CardSummary {
	var order []string
	totals := make(map[string]decimal.Decimal)

	for _, tx := range transactions {
		if !tx.Card.Valid || !tx.Amount.Valid {
			continue
		}
		digits := tx.Card.LastDigits()
		total, seen := totals[digits]
		if !seen {
			order = append(order, digits)
		}
		totals[digits] = total.Add(tx.Amount.Decimal.Abs())
	}

	summaries := make([]model.CardSummary, 0, len(order))
	for _, digits := range order {
		spent := totals[digits].Round(2)
		summaries = append(summaries, model.CardSummary{
			LastDigits: digits,
			TotalSpent: model.Money(spent),
			Cashback:   model.Money(spent.Div(cardCashbackRate).Round(2)),
		})
	}

	e.logger.Debug("Summarized card expenses", "cards", len(summaries))

	return summaries
}
