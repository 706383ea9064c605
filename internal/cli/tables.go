package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/Veraticus/card-ledger/internal/model"
)

// newTable builds a bordered table whose numeric columns are right-aligned.
// Cells starting with '-' in a numeric column are rendered as outflows.
func newTable(headers []string, rows [][]string, numeric ...int) *table.Table {
	isNumeric := make(map[int]bool, len(numeric))
	for _, col := range numeric {
		isNumeric[col] = true
	}

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(TableBorderStyle).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return TableHeaderStyle
			case isNumeric[col] && row >= 0 && row < len(rows) && strings.HasPrefix(rows[row][col], "-"):
				return OutflowStyle
			case isNumeric[col]:
				return NumberCellStyle
			default:
				return TableCellStyle
			}
		}).
		Headers(headers...).
		Rows(rows...)
}

// CardsTable renders per-card spend.
func CardsTable(cards []model.CardSummary) string {
	rows := make([][]string, 0, len(cards))
	for _, card := range cards {
		rows = append(rows, []string{
			"*" + card.LastDigits,
			card.TotalSpent.Decimal().StringFixed(2),
			card.Cashback.Decimal().StringFixed(2),
		})
	}
	return newTable([]string{"Card", "Spent", "Cashback"}, rows, 1, 2).String()
}

// TransactionsTable renders ranked transactions.
func TransactionsTable(entries []model.RankedTransaction) string {
	rows := make([][]string, 0, len(entries))
	for _, entry := range entries {
		rows = append(rows, []string{
			entry.Date.String(),
			formatAmount(entry.Amount),
			entry.Category,
			entry.Description,
		})
	}
	return newTable([]string{"Date", "Amount", "Category", "Description"}, rows, 1).String()
}

// LedgerTable renders normalized transactions.
func LedgerTable(transactions []model.Transaction) string {
	rows := make([][]string, 0, len(transactions))
	for _, tx := range transactions {
		rows = append(rows, []string{
			tx.PaymentDate.String(),
			tx.Card.String(),
			formatAmount(model.Amount(tx.Amount)),
			tx.Category,
			tx.Description,
		})
	}
	return newTable([]string{"Date", "Card", "Amount", "Category", "Description"}, rows, 2).String()
}

// SpendingTable renders a category spending history.
func SpendingTable(category string, entries []model.CategorySpend) string {
	rows := make([][]string, 0, len(entries))
	for _, entry := range entries {
		rows = append(rows, []string{entry.Date.String(), formatAmount(entry.Amount)})
	}
	return newTable([]string{"Date", category}, rows, 1).String()
}

// CashbackTable renders cashback points per category.
func CashbackTable(report model.CashbackReport) string {
	rows := make([][]string, 0, len(report))
	for _, entry := range report {
		rows = append(rows, []string{entry.Category, strconv.FormatInt(entry.Points, 10)})
	}
	return newTable([]string{"Category", "Points"}, rows, 1).String()
}

// MarketTable renders currency rates and stock prices side by side in one list.
func MarketTable(rates []model.Rate, prices []model.StockPrice) string {
	rows := make([][]string, 0, len(rates)+len(prices))
	for _, rate := range rates {
		rows = append(rows, []string{rate.Currency, fmt.Sprintf("%.2f", rate.Rate)})
	}
	for _, price := range prices {
		rows = append(rows, []string{price.Stock, fmt.Sprintf("%.2f", price.Price)})
	}
	return newTable([]string{"Symbol", "Value"}, rows, 1).String()
}

// HomeView renders the home report as titled sections.
func HomeView(home model.HomeReport) string {
	sections := []string{
		FormatTitle(home.Greeting),
		SubtitleStyle.Render(MoneyIcon + " Cards"),
		CardsTable(home.Cards),
		SubtitleStyle.Render(ChartIcon + " Top transactions"),
		TransactionsTable(home.TopTransactions),
	}
	if len(home.CurrencyRates) > 0 || len(home.StockPrices) > 0 {
		sections = append(sections,
			SubtitleStyle.Render(InfoIcon+" Market"),
			MarketTable(home.CurrencyRates, home.StockPrices))
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func formatAmount(a model.Amount) string {
	if !a.Valid {
		return "n/a"
	}
	return a.Decimal.StringFixed(2)
}
