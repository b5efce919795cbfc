package main

import (
	"github.com/spf13/cobra"
)

func newRelatedCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "related <class> <id|handle> <relationship>",
		Short: "Resolve a relationship of a record and print it as JSON",
		Long: `Related prints the record a one-one or context-parent relationship points
to (null when unset), or the array of records of a collection relationship.

Example:
  recordkit related Article hello-world Author
  recordkit related Group admins Members`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := a.finder(args[0])
			if err != nil {
				return err
			}
			rec, err := lookup(cmd.Context(), f, args[1])
			if err != nil {
				return err
			}
			v, err := rec.Related(cmd.Context(), args[2])
			if err != nil {
				return err
			}
			return a.ui.json(v)
		},
	}
}
