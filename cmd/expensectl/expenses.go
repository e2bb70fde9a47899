package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"expenses/internal/core"
)

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func listCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List expenses, newest first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			l, err := a.use(cmd)
			if err != nil {
				return err
			}
			list, err := l.List()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(list) == 0 {
				fmt.Fprintln(out, "No expenses recorded.")
				return nil
			}

			w := newTable(out)
			fmt.Fprintln(w, "ID\tDATE\tCATEGORY\tPAYMENT\tPAYEE\tAMOUNT")
			for _, e := range list {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
					e.ID, core.FormatDateIn(e.Date, a.now().Location()), e.Category.DisplayName(),
					e.PaymentMode.DisplayName(), e.PayeeName, core.FormatCurrency(e.Amount))
			}
			fmt.Fprintf(w, "\t\t\t\tTOTAL\t%s\n", core.FormatCurrency(core.Summarize(list).Total))
			return w.Flush()
		},
	}
}

// expenseFlags are shared by add and edit.
type expenseFlags struct {
	amount, category, date, payment, payee, notes string
}

func (f *expenseFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.amount, "amount", "a", "", "amount, e.g. 12.50 or 12,50")
	cmd.Flags().StringVarP(&f.category, "category", "c", "", "one of: "+joinValues(core.AllCategories()))
	cmd.Flags().StringVarP(&f.date, "date", "d", "", "YYYY-MM-DD or ISO-8601 timestamp (add defaults to today)")
	cmd.Flags().StringVarP(&f.payment, "payment", "p", "", "one of: "+joinValues(core.AllPaymentModes()))
	cmd.Flags().StringVar(&f.payee, "payee", "", "who was paid")
	cmd.Flags().StringVar(&f.notes, "notes", "", "free-form notes")
}

// apply overwrites the fields of d whose flags were given.
func (f *expenseFlags) apply(cmd *cobra.Command, d core.Draft) (core.Draft, error) {
	changed := cmd.Flags().Changed
	if changed("amount") {
		m, err := core.ParseAmount(f.amount)
		if err != nil {
			return d, fmt.Errorf("--amount: %w", err)
		}
		d.Amount = m
	}
	if changed("category") {
		c, err := core.ParseCategory(strings.ToLower(f.category))
		if err != nil {
			return d, fmt.Errorf("--category: %w", err)
		}
		d.Category = c
	}
	if changed("date") {
		date, err := core.ParseDate(f.date)
		if err != nil {
			return d, fmt.Errorf("--date: %w", err)
		}
		d.Date = date
	}
	if changed("payment") {
		m, err := core.ParsePaymentMode(strings.ToLower(f.payment))
		if err != nil {
			return d, fmt.Errorf("--payment: %w", err)
		}
		d.PaymentMode = m
	}
	if changed("payee") {
		d.PayeeName = f.payee
	}
	if changed("notes") {
		if f.notes == "" {
			d.Notes = nil
		} else {
			notes := f.notes
			d.Notes = &notes
		}
	}
	return d, nil
}

func addCmd(a *app) *cobra.Command {
	var f expenseFlags
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a new expense",
		Example: `  expensectl add --amount 12.50 --category food --payment cash --payee "Corner Deli"
  expensectl add -a 80 -c bills -p "bank transfer" --payee "Power Co" -d 2025-03-01`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			now := a.now()
			d, err := f.apply(cmd, core.Draft{
				Date: core.NewDate(now.Year(), int(now.Month()), now.Day()),
			})
			if err != nil {
				return err
			}
			l, err := a.use(cmd)
			if err != nil {
				return err
			}
			e, err := l.Add(cmd.Context(), d)
			if err := checkSaved(err); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s: %s to %s\n", e.ID, core.FormatCurrency(e.Amount), e.PayeeName)
			return nil
		},
	}
	f.register(cmd)
	for _, name := range []string{"amount", "category", "payment", "payee"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func editCmd(a *app) *cobra.Command {
	var f expenseFlags
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change fields of an existing expense",
		Long:  "Only the given flags change; every other field keeps its current value.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().NFlag() == 0 {
				return fmt.Errorf("nothing to change; pass at least one field flag")
			}
			l, err := a.use(cmd)
			if err != nil {
				return err
			}
			current, err := l.Get(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("expense %s: %w", args[0], err)
			}
			d, err := f.apply(cmd, current.Draft())
			if err != nil {
				return err
			}
			e, err := l.Update(cmd.Context(), args[0], d)
			if err := checkSaved(err); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated %s: %s to %s\n", e.ID, core.FormatCurrency(e.Amount), e.PayeeName)
			return nil
		},
	}
	f.register(cmd)
	return cmd
}

func rmCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>...",
		Aliases: []string{"delete"},
		Short:   "Delete expenses by id",
		Long:    "Deleting an id that does not exist is not an error.",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := a.use(cmd)
			if err != nil {
				return err
			}
			for _, id := range args {
				if err := checkSaved(l.Remove(cmd.Context(), id)); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", id)
			}
			return nil
		},
	}
}

func joinValues[T ~string](values []T) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = string(v)
	}
	return strings.Join(parts, ", ")
}
