package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/jpfielding/dicomsr.go/pkg/config"
	"github.com/jpfielding/dicomsr.go/pkg/displayset"
	"github.com/jpfielding/dicomsr.go/pkg/sr"
	"github.com/jpfielding/dicomsr.go/pkg/store"
)

// NewResolveCmd creates the resolve cobra command
func NewResolveCmd(ctx context.Context, cfg *config.Config) *cobra.Command {
	var images string
	var persist bool
	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Attach the measurements of a report to a directory of images",
		Long:  "Loads the image series under --images, then attaches each measurement of the report to the image it was drawn on and prints the resulting records.",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := reportArg(cmd, args)
			if err != nil {
				return err
			}
			if images == "" {
				return fmt.Errorf("--images is required")
			}
			r, err := readReport(path)
			if err != nil {
				return err
			}
			ds, err := sr.Load(r)
			if err != nil {
				return err
			}

			var sink sr.Sink = store.NewMemory()
			if persist {
				db, err := store.Open(cfg.DBPath)
				if err != nil {
					return err
				}
				defer db.Close()
				if err := db.SaveDisplaySet(ds); err != nil {
					return err
				}
				sink = db
			}

			sets, err := displayset.LoadDir(ctx, images)
			if err != nil {
				return err
			}
			manager := displayset.NewManager()
			manager.Add(sets...)

			tr := sr.NewTracker(ds.Records, sr.NewResolver(cfg.PlaneTolerance), sink)
			defer tr.Close()
			tr.OnTouched = func(recs []*sr.Record) {
				for _, rec := range recs {
					slog.InfoContext(ctx, "measurement loaded", "trackingUID", rec.TrackingUniqueIdentifier, "imageId", rec.ImageID, "displaySet", rec.DisplaySetInstanceUID)
				}
			}
			if err := tr.Watch(manager); err != nil {
				return err
			}
			records, err := tr.Snapshot(ctx)
			if err != nil {
				return err
			}

			loaded := 0
			for _, rec := range records {
				if rec.Loaded {
					loaded++
				}
			}
			slog.InfoContext(ctx, "resolved", "records", len(records), "loaded", loaded, "imageSets", len(sets))
			return writeJSON(cmd.OutOrStdout(), records)
		},
	}

	f := cmd.Flags()
	f.StringP("report", "r", "", "report file, .json for naturalized JSON")
	f.StringVarP(&images, "images", "i", "", "directory of DICOM images to attach measurements to")
	f.Float64Var(&cfg.PlaneTolerance, "tolerance", cfg.PlaneTolerance, "distance in mm a plane may lie from a 3D point")
	f.BoolVar(&persist, "save", false, "record attached measurements in the database")
	f.StringVar(&cfg.DBPath, "db", cfg.DBPath, "database path")
	return cmd
}
