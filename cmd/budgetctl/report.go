package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"budgetx/internal/core"
)

func (a *app) historyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "Show monthly snapshots",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			history, err := a.api.History(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "MONTH\tLABEL\tINCOME\tEXPENSES\tNET")
			for _, s := range history {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", s.Month, s.Label,
					core.FormatAmount(s.Income), core.FormatAmount(s.Expenses), core.FormatAmount(s.Income-s.Expenses))
			}
			return tw.Flush()
		},
	}
}

func (a *app) statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show totals, savings and the expense breakdown",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.api.Stats(cmd.Context())
			if err != nil {
				return err
			}
			a.printf("Income:       %s\n", core.FormatAmount(s.Totals.Income))
			a.printf("Expenses:     %s\n", core.FormatAmount(s.Totals.Expenses))
			a.printf("Remaining:    %s\n", signed(s.Remaining, core.FormatAmount(s.Remaining)))
			a.printf("Savings rate: %s\n", signed(s.SavingsRate, fmt.Sprintf("%.1f%%", s.SavingsRate)))
			if s.BestSavingsMonth != nil {
				a.printf("Best month:   %s (%s)\n", s.BestSavingsMonth.Label, core.FormatAmount(s.BestSavingsMonth.Savings))
			}
			if len(s.ExpenseBreakdown) == 0 {
				return nil
			}
			a.printf("\n")
			tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "CATEGORY\tAMOUNT\tSHARE")
			for _, c := range s.ExpenseBreakdown {
				fmt.Fprintf(tw, "%s\t%s\t%.1f%%\n", c.Category, core.FormatAmount(c.Amount), c.Percentage)
			}
			return tw.Flush()
		},
	}
}

func (a *app) summaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Print the budget digest the advisor sees",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			text, err := a.api.Summary(cmd.Context())
			if err != nil {
				return err
			}
			a.printf("%s\n", text)
			return nil
		},
	}
}

func (a *app) resetCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Discard all changes and restore the seed data",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				return fmt.Errorf("reset deletes every entry and snapshot; pass --yes to confirm")
			}
			if err := a.api.Clear(cmd.Context()); err != nil {
				return err
			}
			a.printf("%s\n", bold("Budget reset to seed data"))
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Confirm the reset")
	return cmd
}
