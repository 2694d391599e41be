package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cellgrid/packdb/internal/seed"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Install the default catalog and bootstrap admin",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return err
		}
		if err := seed.Run(ctx, st, cfg.Seed); err != nil {
			return err
		}
		zap.L().Info("seed complete")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}
