package main

import (
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/card-ledger/internal/cli"
	"github.com/Veraticus/card-ledger/internal/common"
	"github.com/Veraticus/card-ledger/internal/engine"
)

func spendingCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "spending <category>",
		Short: "Show spending in a category around a date",
		Long: `List the date and amount of every transaction in a category within 90 days
of the anchor date (default: today). With --trailing only the 90 days up to the
anchor are included.`,
		Example: `  ledger spending Супермаркеты
  ledger spending Фастфуд --date 03.11.2021 --trailing
  ledger spending Супермаркеты --output reports/spending.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSpending(cmd, v, args[0])
		},
	}

	cmd.Flags().String("date", "", "Anchor date (format: DD.MM.YYYY)")
	cmd.Flags().Bool("trailing", false, "Only include the 90 days up to the anchor date")
	cmd.Flags().StringP("output", "o", "", "Write the report to this file instead of stdout")
	addFormatFlag(cmd, v, "spending.format", formatJSON)

	_ = v.BindPFlag("spending.date", cmd.Flags().Lookup("date"))
	_ = v.BindPFlag("spending.trailing", cmd.Flags().Lookup("trailing"))
	_ = v.BindPFlag("spending.output", cmd.Flags().Lookup("output"))

	return cmd
}

func runSpending(cmd *cobra.Command, v *viper.Viper, category string) error {
	format := v.GetString("spending.format")
	output := v.GetString("spending.output")
	if err := validateFormat(format); err != nil {
		return err
	}

	var anchor *time.Time
	if date := v.GetString("spending.date"); date != "" {
		parsed, err := engine.ParseAnchorDate(date)
		if err != nil {
			return common.NewUserError("Invalid --date", err)
		}
		anchor = &parsed
	}

	interrupts := cli.NewInterruptHandler(cmd.ErrOrStderr())
	ctx := interrupts.HandleInterrupts(cmd.Context(), output != "")
	defer interrupts.Stop()

	run, err := loadLedger(ctx, v)
	if err != nil {
		return err
	}

	spending := run.engine.SpendingByCategory(run.transactions, category, anchor)
	return emit(cmd, format, output, spending, false, func() string {
		return cli.SpendingTable(category, spending)
	})
}
