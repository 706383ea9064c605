package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/card-ledger/internal/cli"
	"github.com/Veraticus/card-ledger/internal/model"
)

// windowRow is the JSON form of a transaction in the window listing.
type windowRow struct {
	Date        model.Date   `json:"date"`
	Card        string       `json:"card"`
	Amount      model.Amount `json:"amount"`
	Currency    string       `json:"currency"`
	Category    string       `json:"category"`
	Description string       `json:"description"`
}

func windowCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "window YYYY-MM-DD",
		Short: "List the transactions from the first of the month up to a date",
		Example: `  ledger window 2021-11-03
  ledger window 2021-11-03 --format table`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWindow(cmd, v, args)
		},
	}

	addFormatFlag(cmd, v, "window.format", formatJSON)

	return cmd
}

func runWindow(cmd *cobra.Command, v *viper.Viper, args []string) error {
	format := v.GetString("window.format")
	if err := validateFormat(format); err != nil {
		return err
	}

	_, window, err := loadWindow(cmd, v, args)
	if err != nil {
		return err
	}

	rows := make([]windowRow, 0, len(window))
	for _, tx := range window {
		rows = append(rows, windowRow{
			Date:        tx.PaymentDate,
			Card:        tx.Card.String(),
			Amount:      model.Amount(tx.Amount),
			Currency:    tx.Currency,
			Category:    tx.Category,
			Description: tx.Description,
		})
	}

	return emit(cmd, format, "", rows, true, func() string {
		return cli.LedgerTable(window)
	})
}
