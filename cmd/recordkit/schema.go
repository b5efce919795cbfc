package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/coderi421/recordkit/orm"
	"github.com/coderi421/recordkit/orm/model"
)

func newSchemaCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema [class...]",
		Short: "Print the CREATE TABLE statements of the given classes",
		Long: `Schema prints the statements that create the tables of the given classes,
history tables included. Without arguments every table of the catalog is printed.
Subclasses share the table of their root class.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			models, err := a.tableModels(args)
			if err != nil {
				return err
			}
			for _, m := range models {
				stmts, err := a.createStatements(m)
				if err != nil {
					return err
				}
				for _, stmt := range stmts {
					fmt.Fprintln(a.ui.out, stmt)
				}
				fmt.Fprintln(a.ui.out)
			}
			return nil
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "create [class...]",
		Short: "Create the tables of the given classes",
		RunE: func(cmd *cobra.Command, args []string) error {
			models, err := a.tableModels(args)
			if err != nil {
				return err
			}
			for _, m := range models {
				if err = a.db.CreateTables(cmd.Context(), m); err != nil {
					return err
				}
				a.ui.successf("created tables of %s", m.Name)
			}
			return nil
		},
	})
	return cmd
}

// tableModels 每张表只保留一个模型：按名字找的时候换成它的根类
func (a *app) tableModels(classes []string) ([]*model.Model, error) {
	if len(classes) == 0 {
		classes = a.db.Registry().Classes()
	}
	seen := make(map[string]bool, len(classes))
	res := make([]*model.Model, 0, len(classes))
	for _, class := range classes {
		f, err := a.finder(class)
		if err != nil {
			return nil, err
		}
		m := f.Model()
		if m.RootClass != m.Name {
			if m, err = a.db.Registry().Get(m.RootClass); err != nil {
				return nil, err
			}
		}
		if seen[m.TableName] {
			continue
		}
		seen[m.TableName] = true
		res = append(res, m)
	}
	return res, nil
}

func (a *app) createStatements(m *model.Model) ([]string, error) {
	stmts, err := orm.CreateTableStatements(a.db.Dialect(), a.db.Registry(), m, false)
	if err != nil || !m.Versioned {
		return stmts, err
	}
	history, err := orm.CreateTableStatements(a.db.Dialect(), a.db.Registry(), m, true)
	if err != nil {
		return nil, err
	}
	return append(stmts, history...), nil
}
