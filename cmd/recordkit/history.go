package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"

	"github.com/coderi421/recordkit/orm"
	"github.com/coderi421/recordkit/orm/model"
)

func newHistoryCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "history <class> <id|handle>",
		Short: "List the revisions of a versioned record, newest first",
		Long: `History lists the snapshots kept for a record. Destroyed records can still
be looked up by their numeric ID.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := a.finder(args[0])
			if err != nil {
				return err
			}
			id, err := revisionKey(cmd.Context(), f, args[1])
			if err != nil {
				return err
			}
			revs, err := f.GetRevisions(cmd.Context(), id)
			if err != nil {
				return err
			}
			if asJSON {
				if revs == nil {
					revs = []*orm.Record{}
				}
				return a.ui.json(revs)
			}
			now := time.Now()
			for _, rev := range revs {
				fmt.Fprintln(a.ui.out, revisionLine(rev, now))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the revisions as JSON")
	return cmd
}

// revisionKey 已经删掉的记录只能用数字 ID 查历史
func revisionKey(ctx context.Context, f *orm.Finder, key string) (any, error) {
	if id, err := strconv.ParseUint(key, 10, 64); err == nil {
		return id, nil
	}
	rec, err := lookup(ctx, f, key)
	if err != nil {
		return nil, err
	}
	return rec.ID(), nil
}

// revisionLine 形如 rev 3  2024-03-05 13:04:05 (2 hours ago)  by 42
func revisionLine(rev *orm.Record, now time.Time) string {
	line := fmt.Sprintf("rev %v", rev.MustGet(model.FieldRevisionID))
	if created, err := rev.Get(model.FieldCreated); err == nil && created != nil {
		t := time.Unix(cast.ToInt64(created), 0)
		line += fmt.Sprintf("  %s (%s)", t.Format(time.DateTime), humanize.RelTime(t, now, "ago", "from now"))
	}
	if creator, err := rev.Get(model.FieldCreatorID); err == nil && creator != nil {
		line += fmt.Sprintf("  by %v", creator)
	}
	return line
}
