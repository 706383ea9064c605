package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/card-ledger/internal/cli"
	"github.com/Veraticus/card-ledger/internal/common"
	"github.com/Veraticus/card-ledger/internal/engine"
	"github.com/Veraticus/card-ledger/internal/model"
)

func cardsCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cards [YYYY-MM-DD]",
		Short: "Show spend and cashback per card for a month",
		Long: `Sum the spend of every card from the first of the month up to the given date
(default: today). Cashback is one percent of the spend.`,
		Example: `  ledger cards 2021-11-03
  ledger cards --format table`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCards(cmd, v, args)
		},
	}

	addFormatFlag(cmd, v, "cards.format", formatJSON)

	return cmd
}

func runCards(cmd *cobra.Command, v *viper.Viper, args []string) error {
	format := v.GetString("cards.format")
	if err := validateFormat(format); err != nil {
		return err
	}

	run, window, err := loadWindow(cmd, v, args)
	if err != nil {
		return err
	}

	cards := run.engine.CardExpenses(window)
	return emit(cmd, format, "", cards, true, func() string {
		return cli.CardsTable(cards)
	})
}

func topCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "top [YYYY-MM-DD]",
		Short: "Show the largest transactions of a month",
		Long: `Rank the transactions from the first of the month up to the given date
(default: today) by amount and show the first --limit of them. Top-ups are
not ranked.`,
		Example: `  ledger top 2021-11-03
  ledger top --limit 10 --format table`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTop(cmd, v, args)
		},
	}

	cmd.Flags().IntP("limit", "n", engine.TopN, "Number of transactions to show")
	addFormatFlag(cmd, v, "top.format", formatJSON)

	_ = v.BindPFlag("top.limit", cmd.Flags().Lookup("limit"))

	return cmd
}

func runTop(cmd *cobra.Command, v *viper.Viper, args []string) error {
	format := v.GetString("top.format")
	limit := v.GetInt("top.limit")
	if err := validateFormat(format); err != nil {
		return err
	}
	if limit < 0 {
		return common.NewUserError(fmt.Sprintf("Invalid --limit %d", limit), nil)
	}

	run, window, err := loadWindow(cmd, v, args)
	if err != nil {
		return err
	}

	top := run.engine.TopTransactions(window, limit)
	return emit(cmd, format, "", top, true, func() string {
		return cli.TransactionsTable(top)
	})
}

// loadWindow loads the ledger and keeps the transactions of the month up to the
// reference date argument.
func loadWindow(cmd *cobra.Command, v *viper.Viper, args []string) (*ledgerRun, []model.Transaction, error) {
	reference := referenceArg(args)

	run, err := loadLedger(cmd.Context(), v)
	if err != nil {
		return nil, nil, err
	}

	window, err := run.engine.FilterWindow(reference, run.transactions)
	if err != nil {
		return nil, nil, common.NewUserError("Invalid date argument", err)
	}
	return run, window, nil
}
