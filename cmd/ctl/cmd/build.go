package cmd

import (
	"context"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/jpfielding/dicomsr.go/pkg/config"
	"github.com/jpfielding/dicomsr.go/pkg/displayset"
	"github.com/jpfielding/dicomsr.go/pkg/sr"
)

// NewBuildCmd creates the build cobra command
func NewBuildCmd(ctx context.Context, cfg *config.Config) *cobra.Command {
	var (
		images      string
		out         string
		description string
		tools       []string
	)
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Write the measurements of a report into a new report",
		Long:  "Extracts the measurements of a report and writes them into a new TID-1500 measurement report for the same study, as Part-10 under --out or naturalized JSON on stdout.",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := reportArg(cmd, args)
			if err != nil {
				return err
			}
			src, err := readReport(path)
			if err != nil {
				return err
			}
			ex, err := sr.Extract(src.Children())
			if err != nil {
				return err
			}
			measurements := make([]*sr.Measurement, 0, len(ex.Records))
			for _, rec := range ex.Records {
				measurements = append(measurements, sr.MeasurementFromRecord(rec))
			}

			header := *src
			header.SOPInstanceUID = ""
			header.SeriesInstanceUID = ""
			header.SeriesDescription = description
			opts := sr.ReportOptions{
				Header:  header,
				UIDRoot: cfg.UIDRoot,
			}
			if len(tools) > 0 {
				opts.Filter = func(m *sr.Measurement) bool {
					return slices.Contains(tools, m.ToolType)
				}
			}
			if images != "" {
				sets, err := displayset.LoadDir(ctx, images)
				if err != nil {
					return err
				}
				manager := displayset.NewManager()
				manager.Add(sets...)
				opts.SeriesOf = manager.SeriesOf
			}

			var storer sr.Storer = sr.StorerFunc(func(context.Context, *sr.Report) error { return nil })
			if out != "" {
				storer = sr.FileStorer{Dir: out}
			}
			r, err := sr.StoreReport(ctx, storer, measurements, opts)
			if err != nil {
				return err
			}
			if out != "" {
				slog.InfoContext(ctx, "report written", "sopInstanceUID", r.SOPInstanceUID, "dir", out, "measurements", len(measurements))
				return nil
			}
			return r.WriteJSON(cmd.OutOrStdout())
		},
	}

	f := cmd.Flags()
	f.StringP("report", "r", "", "source report file, .json for naturalized JSON")
	f.StringVarP(&images, "images", "i", "", "directory of the referenced images, for the evidence sequence")
	f.StringVarP(&out, "out", "o", "", "write the report as <SOPInstanceUID>.dcm into this directory")
	f.StringVar(&description, "description", "Measurements", "series description of the new report")
	f.StringSliceVar(&tools, "tool", nil, "only keep measurements made with these tools")
	f.StringVar(&cfg.UIDRoot, "uid-root", cfg.UIDRoot, "root for generated UIDs")
	return cmd
}
