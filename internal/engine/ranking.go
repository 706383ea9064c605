package engine

import (
	"sort"

	"github.com/Veraticus/card-ledger/internal/model"
)

// TopTransactions returns up to n transactions with the largest signed amount.
// Top-ups never rank, and neither do transactions with an unknown amount.
// Large inflows outrank outflows because the sort is on the signed value.
func (e *Engine) TopTransactions(transactions []model.Transaction, n int) []model.RankedTransaction {
	ranked := []model.RankedTransaction{}
	if n <= 0 {
		return ranked
	}

	candidates := make([]model.Transaction, 0, len(transactions))
	for _, tx := range transactions {
		if tx.Category == model.CategoryTopUps || !tx.Amount.Valid {
			continue
		}
		candidates = append(candidates, tx)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Amount.Decimal.GreaterThan(candidates[j].Amount.Decimal)
	})

	if len(candidates) > n {
		candidates = candidates[:n]
	}
	for _, tx := range candidates {
		ranked = append(ranked, model.RankedTransaction{
			Date:        tx.PaymentDate,
			Amount:      model.Amount(tx.Amount),
			Category:    tx.Category,
			Description: tx.Description,
		})
	}

	e.logger.Debug("Ranked transactions by amount", "candidates", len(candidates), "returned", len(ranked))

	return ranked
}
