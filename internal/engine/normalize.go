package engine

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/card-ledger/internal/model"
)

// missingMarker is how the spreadsheet export spells an empty cell.
const missingMarker = "nan"

var dateLayouts = []string{
	model.LedgerDateLayout,
	"02.01.2006 15:04:05",
	"2006-01-02",
	"2006-01-02 15:04:05",
}

// Normalize converts one raw ledger row into a Transaction.
//
// A field that cannot be parsed is marked invalid on the returned value; it never
// fails the row. The only rejection is a row without any value (ErrEmptyRecord).
func Normalize(raw model.RawRecord) (model.Transaction, error) {
	if isBlank(raw) {
		return model.Transaction{}, ErrEmptyRecord
	}

	return model.Transaction{
		PaymentDate: parseDate(raw[model.ColumnPaymentDate]),
		Card:        parseCard(raw[model.ColumnCardNumber]),
		Amount:      parseAmount(raw[model.ColumnAmount]),
		MCC:         parseMCC(raw[model.ColumnMCC]),
		Status:      text(raw[model.ColumnStatus]),
		Currency:    text(raw[model.ColumnCurrency]),
		Category:    text(raw[model.ColumnCategory]),
		Description: text(raw[model.ColumnDescription]),
	}, nil
}

// NormalizeAll normalizes a batch, dropping blank rows and logging unparsable fields.
func (e *Engine) NormalizeAll(raws []model.RawRecord) []model.Transaction {
	transactions := make([]model.Transaction, 0, len(raws))
	var blank, badDates, badAmounts, badCards int

	for i, raw := range raws {
		tx, err := Normalize(raw)
		if err != nil {
			blank++
			continue
		}
		if !tx.PaymentDate.Valid {
			badDates++
			e.logger.Debug("Unparsable payment date", "row", i, "value", raw[model.ColumnPaymentDate])
		}
		if !tx.Amount.Valid {
			badAmounts++
			e.logger.Debug("Unparsable amount", "row", i, "value", raw[model.ColumnAmount])
		}
		if !tx.Card.Valid {
			badCards++
		}
		transactions = append(transactions, tx)
	}

	e.logger.Info("Normalized ledger rows",
		"rows", len(raws),
		"transactions", len(transactions),
		"blank", blank,
		"unparsable_dates", badDates,
		"unparsable_amounts", badAmounts,
		"missing_cards", badCards)

	return transactions
}

func isMissing(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case float64:
		return math.IsNaN(val)
	case float32:
		return math.IsNaN(float64(val))
	case string:
		s := strings.TrimSpace(val)
		return s == "" || strings.EqualFold(s, missingMarker)
	}
	return false
}

func isBlank(raw model.RawRecord) bool {
	for _, v := range raw {
		if !isMissing(v) {
			return false
		}
	}
	return true
}

func text(v any) string {
	if isMissing(v) {
		return ""
	}
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	}
	return ""
}

func parseDate(v any) model.Date {
	switch val := v.(type) {
	case time.Time:
		if val.IsZero() || val.Year() < 1 {
			return model.Date{}
		}
		return model.Date{Time: val, Raw: val.Format(model.LedgerDateLayout), Valid: true}
	case string:
		if isMissing(val) {
			return model.Date{}
		}
		s := strings.TrimSpace(val)
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return model.Date{Time: t, Raw: s, Valid: true}
			}
		}
		return model.Date{Raw: s}
	}
	// Numbers and other types are not dates in this ledger.
	return model.Date{}
}

func parseCard(v any) model.CardNumber {
	s, ok := v.(string)
	if !ok || isMissing(s) {
		return model.CardNumber{}
	}
	return model.CardNumber{Raw: strings.TrimSpace(s), Valid: true}
}

var amountCleaner = strings.NewReplacer(
	"\u2212", "-",
	"\u00a0", "",
	"\u202f", "",
	" ", "",
	",", ".",
)

func parseAmount(v any) decimal.NullDecimal {
	if isMissing(v) {
		return decimal.NullDecimal{}
	}
	switch val := v.(type) {
	case float64:
		if math.IsInf(val, 0) {
			return decimal.NullDecimal{}
		}
		return decimal.NewNullDecimal(decimal.NewFromFloat(val))
	case float32:
		return parseAmount(float64(val))
	case int:
		return decimal.NewNullDecimal(decimal.NewFromInt(int64(val)))
	case int64:
		return decimal.NewNullDecimal(decimal.NewFromInt(val))
	case string:
		cleaned := strings.TrimPrefix(amountCleaner.Replace(strings.TrimSpace(val)), "+")
		d, err := decimal.NewFromString(cleaned)
		if err != nil {
			return decimal.NullDecimal{}
		}
		return decimal.NewNullDecimal(d)
	}
	return decimal.NullDecimal{}
}

func parseMCC(v any) *int {
	if isMissing(v) {
		return nil
	}
	var f float64
	switch val := v.(type) {
	case int:
		return &val
	case int64:
		n := int(val)
		return &n
	case float64:
		f = val
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return nil
		}
		f = parsed
	default:
		return nil
	}
	if math.IsInf(f, 0) || f != math.Trunc(f) {
		return nil
	}
	n := int(f)
	return &n
}
