package main

import (
	"github.com/spf13/cobra"

	"github.com/coderi421/recordkit/orm"
	"github.com/coderi421/recordkit/orm/model"
)

func newCreateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "create <class> [Field=value...]",
		Short: "Create and save a record",
		Long: `Create builds a record of the class from Field=value pairs, saves it and
prints it as JSON. Use Field=null to store NULL.

Example:
  recordkit create Tag Tag="Hello World"
  recordkit create Article Title=Hi Status=published AuthorID=1`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := a.finder(args[0])
			if err != nil {
				return err
			}
			values, err := parseAssignments(args[1:])
			if err != nil {
				return err
			}
			rec, err := f.Create(cmd.Context(), values, true)
			if err != nil {
				return err
			}
			a.ui.successf("created %s %v", rec.Model().Name, rec.ID())
			return a.ui.json(rec)
		},
	}
}

func newGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <class> <id|handle>",
		Short: "Print a record as JSON",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := a.finder(args[0])
			if err != nil {
				return err
			}
			rec, err := lookup(cmd.Context(), f, args[1])
			if err != nil {
				return err
			}
			return a.ui.json(rec)
		},
	}
}

func newFindCmd(a *app) *cobra.Command {
	var (
		orders []string
		limit  int
		offset int
	)
	cmd := &cobra.Command{
		Use:   "find <class> [Field=value...]",
		Short: "List the records matching every Field=value pair",
		Long: `Find prints the matching records as a JSON array. With --limit the total
number of matches is reported as well.

Example:
  recordkit find Person --order LastName --order -FirstName
  recordkit find Article Status=published --limit 10 --offset 20`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := a.finder(args[0])
			if err != nil {
				return err
			}
			values, err := parseAssignments(args[1:])
			if err != nil {
				return err
			}
			var (
				opts  []orm.FindOption
				total int64
			)
			if len(orders) > 0 {
				opts = append(opts, orm.Order(parseOrders(orders)...))
			}
			if limit > 0 {
				opts = append(opts, orm.Limit(limit), orm.Offset(offset), orm.FoundRows(&total))
			}
			recs, err := f.GetAllByWhere(cmd.Context(), model.Match(values), opts...)
			if err != nil {
				return err
			}
			if limit > 0 {
				a.ui.successf("%d of %d %s records", len(recs), total, f.Model().Name)
			}
			if recs == nil {
				recs = []*orm.Record{}
			}
			return a.ui.json(recs)
		},
	}
	cmd.Flags().StringArrayVar(&orders, "order", nil, "order by field, prefix with - for descending")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of records")
	cmd.Flags().IntVar(&offset, "offset", 0, "records to skip, used with --limit")
	return cmd
}

func newSetCmd(a *app) *cobra.Command {
	var shallow bool
	cmd := &cobra.Command{
		Use:   "set <class> <id|handle> Field=value...",
		Short: "Update fields of a record and save it",
		Args:  cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := a.finder(args[0])
			if err != nil {
				return err
			}
			values, err := parseAssignments(args[2:])
			if err != nil {
				return err
			}
			rec, err := lookup(cmd.Context(), f, args[1])
			if err != nil {
				return err
			}
			if err = rec.SetFields(values); err != nil {
				return err
			}
			if !rec.IsDirty() {
				a.ui.warnf("%s %v unchanged", rec.Model().Name, rec.ID())
				return a.ui.json(rec)
			}
			save := rec.Save
			if shallow {
				save = rec.SaveShallow
			}
			if err = save(cmd.Context()); err != nil {
				return err
			}
			a.ui.successf("updated %s %v", rec.Model().Name, rec.ID())
			return a.ui.json(rec)
		},
	}
	cmd.Flags().BoolVar(&shallow, "shallow", false, "skip saving related records")
	return cmd
}

func newDestroyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "destroy <class> <id|handle>",
		Short: "Delete a record, keeping a history snapshot for versioned classes",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := a.finder(args[0])
			if err != nil {
				return err
			}
			rec, err := lookup(cmd.Context(), f, args[1])
			if err != nil {
				return err
			}
			ok, err := rec.Destroy(cmd.Context())
			if err != nil {
				return err
			}
			if !ok {
				a.ui.warnf("%s %v was already gone", rec.Model().Name, rec.ID())
				return nil
			}
			a.ui.successf("destroyed %s %v", rec.Model().Name, rec.ID())
			return nil
		},
	}
}
