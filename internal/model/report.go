package model

import (
	"bytes"
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Money renders a decimal as a JSON number with two decimal places.
type Money decimal.Decimal

// MarshalJSON implements json.Marshaler.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(decimal.Decimal(m).StringFixed(2)), nil
}

// Decimal returns the underlying value.
func (m Money) Decimal() decimal.Decimal {
	return decimal.Decimal(m)
}

// Amount renders a signed ledger amount as a JSON number, or null when unknown.
type Amount decimal.NullDecimal

// MarshalJSON implements json.Marshaler.
func (a Amount) MarshalJSON() ([]byte, error) {
	if !a.Valid {
		return []byte("null"), nil
	}
	return []byte(a.Decimal.String()), nil
}

// CardSummary is the spend and flat-rate cashback estimate for one card.
type CardSummary struct {
	LastDigits string `json:"last_digits"`
	TotalSpent Money  `json:"total_spent"`
	Cashback   Money  `json:"cashback"`
}

// RankedTransaction is one entry of the top transactions list.
type RankedTransaction struct {
	Date        Date   `json:"date"`
	Amount      Amount `json:"amount"`
	Category    string `json:"category"`
	Description string `json:"description"`
}

// CategorySpend is one entry of the spending-by-category history.
type CategorySpend struct {
	Date   Date   `json:"date"`
	Amount Amount `json:"amount"`
}

// CategoryCashback is the cashback points accrued by one category.
type CategoryCashback struct {
	Category string
	Points   int64
}

// CashbackReport is ordered by points, descending.
type CashbackReport []CategoryCashback

// MarshalJSON renders the report as an object whose key order is the report order.
func (r CashbackReport) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, entry := range r {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := marshalNoEscape(entry.Category)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(json.RawMessage(decimal.NewFromInt(entry.Points).String()))
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Points returns the accrued points for a category and whether it is present.
func (r CashbackReport) Points(category string) (int64, bool) {
	for _, entry := range r {
		if entry.Category == category {
			return entry.Points, true
		}
	}
	return 0, false
}

// Rate is a currency exchange rate quoted in the configured base currency.
type Rate struct {
	Currency string  `json:"currency"`
	Rate     float64 `json:"rate"`
}

// StockPrice is the latest price of a tracked stock.
type StockPrice struct {
	Stock string  `json:"stock"`
	Price float64 `json:"price"`
}

// HomeReport is the assembled main page payload.
type HomeReport struct {
	Greeting        string              `json:"greeting"`
	Cards           []CardSummary       `json:"cards"`
	TopTransactions []RankedTransaction `json:"top_transactions"`
	CurrencyRates   []Rate              `json:"currency_rates"`
	StockPrices     []StockPrice        `json:"stock_prices"`
}

func marshalNoEscape(s string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
