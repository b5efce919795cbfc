package main

import (
	"github.com/spf13/cobra"
)

// newRootCmd 子命令共用 a，数据库在 PersistentPreRunE 里打开，由调用方关闭
func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "recordkit",
		Short: "recordkit reads and writes catalog records",
		Long: `recordkit opens the configured database, registers the catalog models
and runs one record operation against it.

Configuration is read from --config, ./.recordkit.yaml or ~/.recordkit.yaml,
then RECORDKIT_* environment variables (a .env file is loaded first), then flags.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd.Flags())
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.ui = &printer{out: cmd.OutOrStdout(), status: cmd.ErrOrStderr(), verbose: cfg.Verbose}
			return a.open(cmd.Context())
		},
	}
	registerFlags(root.PersistentFlags())

	root.AddCommand(
		newSchemaCmd(a),
		newCreateCmd(a),
		newGetCmd(a),
		newFindCmd(a),
		newSetCmd(a),
		newDestroyCmd(a),
		newHistoryCmd(a),
		newRelatedCmd(a),
	)
	return root
}
