package cmd

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/jpfielding/dicomsr.go/pkg/config"
	"github.com/jpfielding/dicomsr.go/pkg/sr"
	"github.com/jpfielding/dicomsr.go/pkg/store"
)

// NewExtractCmd creates the extract cobra command
func NewExtractCmd(ctx context.Context, cfg *config.Config) *cobra.Command {
	var save bool
	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Extract the measurements of a report as a display set",
		Long:  "Reads a Part-10 or naturalized JSON measurement report and prints its display set: referenced images, records and skipped groups.",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := reportArg(cmd, args)
			if err != nil {
				return err
			}
			r, err := readReport(path)
			if err != nil {
				return err
			}
			ds, err := sr.Load(r)
			if err != nil {
				return err
			}
			for _, skip := range ds.Skips {
				slog.WarnContext(ctx, "skipped measurement group", "index", skip.Index, "trackingUID", skip.TrackingUniqueIdentifier, "reason", skip.Reason)
			}
			if save {
				db, err := store.Open(cfg.DBPath)
				if err != nil {
					return err
				}
				defer db.Close()
				if err := db.SaveDisplaySet(ds); err != nil {
					return err
				}
				slog.InfoContext(ctx, "saved display set", "displaySet", ds.DisplaySetInstanceUID, "db", cfg.DBPath)
			}
			return writeJSON(cmd.OutOrStdout(), ds)
		},
	}

	f := cmd.Flags()
	f.StringP("report", "r", "", "report file, .json for naturalized JSON")
	f.BoolVar(&save, "save", false, "also save the display set to the database")
	f.StringVar(&cfg.DBPath, "db", cfg.DBPath, "database path")
	return cmd
}
