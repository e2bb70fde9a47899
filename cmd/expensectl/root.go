package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "expensectl",
		Short: "Inspect and edit the expense ledger",
		Long: `expensectl works directly on the configured ledger slot (DATA_BACKEND,
DATA_DIR, SQLITE_DB_PATH, REDIS_*). Configuration is read from the environment
and an optional .env file.`,
		SilenceUsage: true,
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return a.close()
		},
	}

	root.AddCommand(listCmd(a))
	root.AddCommand(addCmd(a))
	root.AddCommand(editCmd(a))
	root.AddCommand(rmCmd(a))
	root.AddCommand(summaryCmd(a))
	root.AddCommand(categoriesCmd())
	root.AddCommand(tokenCmd(a))
	return root
}
