// Package model defines the ledger records and report values shared across the application.
package model

import (
	"encoding/json"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
)

// Ledger column names as exported by the bank.
const (
	ColumnPaymentDate = "Дата платежа"
	ColumnCardNumber  = "Номер карты"
	ColumnStatus      = "Статус"
	ColumnAmount      = "Сумма платежа"
	ColumnCurrency    = "Валюта платежа"
	ColumnCategory    = "Категория"
	ColumnMCC         = "MCC"
	ColumnDescription = "Описание"
)

// Categories with special meaning in reports.
const (
	CategoryTransfers = "Переводы"
	CategoryTopUps    = "Пополнения"
)

// LedgerColumns lists the expected columns in export order.
var LedgerColumns = []string{
	ColumnPaymentDate,
	ColumnCardNumber,
	ColumnStatus,
	ColumnAmount,
	ColumnCurrency,
	ColumnCategory,
	ColumnMCC,
	ColumnDescription,
}

// LedgerDateLayout is the day-first layout used by the ledger for payment dates.
const LedgerDateLayout = "02.01.2006"

// RawRecord is one ledger row keyed by column name, before normalization.
// Values may be strings, numbers, nil, NaN or the literal "nan".
type RawRecord map[string]any

// Date is a payment date that may be unknown.
// Raw keeps the source text so reports echo the ledger verbatim.
type Date struct {
	Time  time.Time
	Raw   string
	Valid bool
}

// NewDate returns a valid date formatted the way the ledger writes it.
func NewDate(year int, month time.Month, day int) Date {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return Date{Time: t, Raw: t.Format(LedgerDateLayout), Valid: true}
}

// Day truncates the date to midnight UTC.
func (d Date) Day() time.Time {
	y, m, dd := d.Time.Date()
	return time.Date(y, m, dd, 0, 0, 0, 0, time.UTC)
}

func (d Date) String() string {
	if d.Raw != "" {
		return d.Raw
	}
	if d.Valid {
		return d.Time.Format(LedgerDateLayout)
	}
	return ""
}

// MarshalJSON renders the source text, or null when the ledger had none.
func (d Date) MarshalJSON() ([]byte, error) {
	s := d.String()
	if s == "" {
		return []byte("null"), nil
	}
	return json.Marshal(s)
}

// CardNumber is a masked card number such as "*4556".
type CardNumber struct {
	Raw   string
	Valid bool
}

// LastDigits strips the leading mask marker used by the ledger.
func (c CardNumber) LastDigits() string {
	return strings.TrimLeftFunc(c.Raw, func(r rune) bool {
		return !unicode.IsDigit(r)
	})
}

func (c CardNumber) String() string {
	return c.Raw
}

// Transaction is a normalized ledger row. It is never modified after normalization.
type Transaction struct {
	PaymentDate Date
	Card        CardNumber
	Amount      decimal.NullDecimal // negative is an outflow
	MCC         *int
	Status      string
	Currency    string
	Category    string
	Description string
}

// IsOutflow reports whether the transaction has a known negative amount.
func (t Transaction) IsOutflow() bool {
	return t.Amount.Valid && t.Amount.Decimal.IsNegative()
}
