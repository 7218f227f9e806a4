package main

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"budgetx/internal/core"
)

func (a *app) entriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "entries",
		Short: "List, add and remove budget entries",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List all entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			entries, err := a.api.Entries(cmd.Context())
			if err != nil {
				return err
			}
			a.printEntries(entries)
			return nil
		},
	}

	var e core.BudgetEntry
	var entryType, recurrence, frequency string
	add := &cobra.Command{
		Use:   "add",
		Short: "Add an income or expense entry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e.Type = core.EntryType(entryType)
			e.Recurrence = core.Recurrence(recurrence)
			e.Frequency = core.Frequency(frequency)
			if !e.Type.Valid() {
				return fmt.Errorf("--type must be %q or %q", core.Income, core.Expense)
			}
			saved, err := a.api.AddEntry(cmd.Context(), e)
			if err != nil {
				return err
			}
			a.printf("Added %s %s: %s %s\n", saved.Type, saved.ID, saved.Label, core.FormatAmount(saved.Amount))
			return nil
		},
	}
	add.Flags().StringVarP(&entryType, "type", "t", string(core.Expense), "Entry type: income or expense")
	add.Flags().StringVarP(&e.Label, "label", "l", "", "What the entry is for")
	add.Flags().Float64VarP(&e.Amount, "amount", "a", 0, "Amount, greater than zero")
	add.Flags().StringVarP(&e.Category, "category", "c", "", "Category (default Other)")
	add.Flags().StringVarP(&recurrence, "recurrence", "r", string(core.OneTime), "one-time or recurring")
	add.Flags().StringVarP(&frequency, "frequency", "f", "", "weekly, monthly or yearly for recurring entries")
	add.Flags().StringVar(&e.Notes, "notes", "", "Free-form notes")
	_ = add.MarkFlagRequired("label")
	_ = add.MarkFlagRequired("amount")

	rm := &cobra.Command{
		Use:     "rm <id>...",
		Aliases: []string{"delete"},
		Short:   "Remove entries by id",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, ids []string) error {
			var errs []error
			for _, id := range ids {
				if err := a.api.DeleteEntry(cmd.Context(), id); err != nil {
					errs = append(errs, fmt.Errorf("%s: %w", id, err))
					continue
				}
				a.printf("Removed %s\n", id)
			}
			return errors.Join(errs...)
		},
	}

	cmd.AddCommand(list, add, rm)
	return cmd
}

func (a *app) printEntries(entries []core.BudgetEntry) {
	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTYPE\tLABEL\tAMOUNT\tCATEGORY\tRECURRENCE")
	for _, e := range entries {
		recurrence := string(e.Recurrence)
		if e.Frequency != "" {
			recurrence += " (" + string(e.Frequency) + ")"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			e.ID, e.Type, e.Label, core.FormatAmount(e.Amount), e.CategoryOrDefault(), recurrence)
	}
	_ = tw.Flush()
}
