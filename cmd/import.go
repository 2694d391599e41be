package main

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/cellgrid/packdb/internal/importer"
	"github.com/cellgrid/packdb/internal/source"
)

var (
	importSheet  string
	importSource string
	importDetail string
	importEmail  string
)

var importCmd = &cobra.Command{
	Use:   "import <file|url>",
	Short: "Import packs and values from an XLSX workbook",
	Long:  "Reads a workbook from a local path, an http(s) URL, or an ftp URL. The first row names columns: pack identity columns plus catalog field names.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		user, err := st.GetUserByEmail(ctx, importEmail)
		if err != nil {
			return err
		}

		sheet := importSheet
		if sheet == "" {
			sheet = cfg.Import.Sheet
		}
		report, err := importer.NewImporter(st).Run(ctx, args[0], user.ID, importer.Options{
			Sheet:        sheet,
			SourceType:   source.Kind(importSource),
			SourceDetail: importDetail,
			Timeout:      time.Duration(cfg.Import.TimeoutSecs) * time.Second,
		})
		if err != nil {
			return err
		}

		fmt.Printf("run %s: %d rows, %d packs created, %d packs existing, %d values created\n",
			report.RunID, report.Rows, report.PacksCreated, report.PacksExisting, report.ValuesCreated)
		for _, skip := range report.Skipped {
			fmt.Printf("  skipped: %s\n", skip)
		}
		return nil
	},
}

func init() {
	importCmd.Flags().StringVar(&importSheet, "sheet", "", "sheet name (default from config)")
	importCmd.Flags().StringVar(&importSource, "source", string(source.Teardown), "source kind recorded for imported values")
	importCmd.Flags().StringVar(&importDetail, "detail", "", "source detail recorded for imported values")
	importCmd.Flags().StringVar(&importEmail, "user", "admin@packdb.local", "email of the contributing user")
	rootCmd.AddCommand(importCmd)
}
