package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"expenses/internal/core"
)

func summaryCmd(a *app) *cobra.Command {
	var top int
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Show totals, breakdowns and the largest expenses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if top < 0 {
				return errors.New("--top must not be negative")
			}
			l, err := a.use(cmd)
			if err != nil {
				return err
			}
			list, err := l.List()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			sum := core.Summarize(list)
			fmt.Fprintf(out, "Total: %s across %d expenses\n", core.FormatCurrency(sum.Total), len(list))
			if len(list) == 0 {
				return nil
			}

			w := newTable(out)
			fmt.Fprintln(w, "\nCATEGORY\tAMOUNT\tSHARE")
			for _, c := range core.CategoryBreakdown(list) {
				fmt.Fprintf(w, "%s\t%s\t%d%%\n", c.Category.DisplayName(), core.FormatCurrency(c.Amount), c.Percent)
			}
			fmt.Fprintln(w, "\nPAYMENT\tAMOUNT\tSHARE")
			for _, m := range core.PaymentModeBreakdown(list) {
				fmt.Fprintf(w, "%s\t%s\t%d%%\n", m.PaymentMode.DisplayName(), core.FormatCurrency(m.Amount), m.Percent)
			}
			if topList := core.TopExpenses(list, top); len(topList) > 0 {
				fmt.Fprintln(w, "\nTOP\tAMOUNT\tDATE")
				for _, e := range topList {
					fmt.Fprintf(w, "%s\t%s\t%s\n", e.PayeeName, core.FormatCurrency(e.Amount), core.FormatDateIn(e.Date, a.now().Location()))
				}
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntVarP(&top, "top", "n", 3, "number of largest expenses to show")
	return cmd
}

func categoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List categories and payment modes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := newTable(cmd.OutOrStdout())
			fmt.Fprintln(w, "CATEGORY\tNAME\tCOLOR")
			for _, c := range core.AllCategories() {
				fmt.Fprintf(w, "%s\t%s\t%s\n", c, c.DisplayName(), c.Color())
			}
			fmt.Fprintln(w, "\nPAYMENT MODE\tNAME\t")
			for _, m := range core.AllPaymentModes() {
				fmt.Fprintf(w, "%s\t%s\t\n", m, m.DisplayName())
			}
			return w.Flush()
		},
	}
}

func tokenCmd(a *app) *cobra.Command {
	var (
		subject string
		ttl     time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token for the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if subject == "" {
				return errors.New("--subject is required")
			}
			token, err := a.signToken(subject, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVarP(&subject, "subject", "s", "", "sub claim, e.g. an operator name")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	return cmd
}
