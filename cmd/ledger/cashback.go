package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/card-ledger/internal/cli"
	"github.com/Veraticus/card-ledger/internal/common"
)

func cashbackCmd(v *viper.Viper) *cobra.Command {
	now := time.Now()
	cmd := &cobra.Command{
		Use:   "cashback",
		Short: "Show cashback points per category for a month",
		Long: `Sum the cashback points earned in every category during one calendar month.
A transaction earns one point per full 100 spent; transfers earn nothing.`,
		Example: `  ledger cashback --year 2021 --month 11
  ledger cashback --format table`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCashback(cmd, v)
		},
	}

	cmd.Flags().IntP("year", "y", now.Year(), "Year of the month")
	cmd.Flags().IntP("month", "m", int(now.Month()), "Month (1-12)")
	cmd.Flags().StringP("output", "o", "", "Write the report to this file instead of stdout")
	addFormatFlag(cmd, v, "cashback.format", formatJSON)

	_ = v.BindPFlag("cashback.year", cmd.Flags().Lookup("year"))
	_ = v.BindPFlag("cashback.month", cmd.Flags().Lookup("month"))
	_ = v.BindPFlag("cashback.output", cmd.Flags().Lookup("output"))

	return cmd
}

func runCashback(cmd *cobra.Command, v *viper.Viper) error {
	year := v.GetInt("cashback.year")
	month := v.GetInt("cashback.month")
	format := v.GetString("cashback.format")
	output := v.GetString("cashback.output")

	if err := validateFormat(format); err != nil {
		return err
	}
	if month < 1 || month > 12 {
		return common.NewUserError(fmt.Sprintf("Invalid --month %d (want 1-12)", month), nil)
	}

	interrupts := cli.NewInterruptHandler(cmd.ErrOrStderr())
	ctx := interrupts.HandleInterrupts(cmd.Context(), output != "")
	defer interrupts.Stop()

	run, err := loadLedger(ctx, v)
	if err != nil {
		return err
	}

	cashback := run.engine.CashbackCategories(run.transactions, year, month)
	return emit(cmd, format, output, cashback, false, func() string {
		title := fmt.Sprintf("%s Cashback %02d.%d", cli.MoneyIcon, month, year)
		return cli.RenderBox(title, cli.CashbackTable(cashback))
	})
}
