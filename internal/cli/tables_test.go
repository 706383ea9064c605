package cli

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/Veraticus/card-ledger/internal/model"
	"github.com/Veraticus/card-ledger/internal/report"
)

func amount(s string) model.Amount {
	return model.Amount(decimal.NewNullDecimal(decimal.RequireFromString(s)))
}

func TestCardsTable(t *testing.T) {
	out := CardsTable([]model.CardSummary{
		{LastDigits: "4556", TotalSpent: model.Money(decimal.RequireFromString("338")), Cashback: model.Money(decimal.RequireFromString("3.38"))},
	})

	assert.Contains(t, out, "Card")
	assert.Contains(t, out, "*4556")
	assert.Contains(t, out, "338.00")
	assert.Contains(t, out, "3.38")
}

func TestTransactionsTable(t *testing.T) {
	out := TransactionsTable([]model.RankedTransaction{
		{Date: model.NewDate(2021, time.November, 2), Amount: amount("-110"), Category: "Фастфуд", Description: "Mouse Tail"},
		{Date: model.NewDate(2021, time.November, 3), Category: "Одежда и обувь", Description: "WILDBERRIES"},
	})

	assert.Contains(t, out, "02.11.2021")
	assert.Contains(t, out, "-110.00")
	assert.Contains(t, out, "Mouse Tail")
	assert.Contains(t, out, "n/a")
}

func TestCashbackTable(t *testing.T) {
	out := CashbackTable(model.CashbackReport{{Category: "Супермаркеты", Points: 24}, {Category: "Фастфуд", Points: 3}})

	assert.Contains(t, out, "Points")
	assert.Contains(t, out, "Супермаркеты")
	assert.Contains(t, out, "24")
}

func TestHomeView(t *testing.T) {
	tests := []struct {
		name       string
		home       model.HomeReport
		wantMarket bool
	}{
		{
			name: "without market data",
			home: model.HomeReport{Greeting: "Добрый день!"},
		},
		{
			name: "with market data",
			home: model.HomeReport{
				Greeting:      "Добрый вечер!",
				CurrencyRates: []model.Rate{{Currency: "USD", Rate: 73.21}},
				StockPrices:   []model.StockPrice{{Stock: "AAPL", Price: 150.12}},
			},
			wantMarket: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := HomeView(tt.home)

			assert.Contains(t, out, tt.home.Greeting)
			assert.Contains(t, out, "Top transactions")
			if tt.wantMarket {
				assert.Contains(t, out, "Market")
				assert.Contains(t, out, "73.21")
				assert.Contains(t, out, "150.12")
			} else {
				assert.NotContains(t, out, "Market")
			}
		})
	}
}

func TestRenderBox(t *testing.T) {
	out := RenderBox("Cashback 11.2021", "body")
	assert.Contains(t, out, "Cashback 11.2021")
	assert.Contains(t, out, "body")
}

func TestLookupProgress(t *testing.T) {
	var buf bytes.Buffer
	progress := NewLookupProgress(&buf, 2)

	progress.Observe(report.Lookup{Feed: report.FeedRates, Symbol: "USD"})
	progress.Observe(report.Lookup{Feed: report.FeedStocks, Symbol: "AAPL", Err: errors.New("boom")})
	progress.Finish()

	assert.Contains(t, buf.String(), "2/2")
}
