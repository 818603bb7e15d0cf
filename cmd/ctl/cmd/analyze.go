package cmd

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/jpfielding/dicomsr.go/pkg/dcm"
	"github.com/jpfielding/dicomsr.go/pkg/sr"
)

// NewAnalyzeCmd creates the analyze cobra command
func NewAnalyzeCmd(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze a structured report",
		Long:  "Validates a Part-10 structured report, summarizes its content tree and reports statistics over its measurements.",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := reportArg(cmd, args)
			if err != nil {
				return err
			}
			return runAnalyze(cmd.OutOrStdout(), path)
		},
	}

	cmd.Flags().StringP("report", "r", "", "structured report file to analyze")
	return cmd
}

// runAnalyze prints the header, validation findings, content tree shape and measurement statistics
func runAnalyze(w io.Writer, path string) error {
	ds, err := dcm.ReadFile(path, dcm.SkipPixelData())
	if err != nil {
		return fmt.Errorf("parse error: %w", err)
	}

	fmt.Fprintf(w, "Total elements: %d\n\n", len(ds.Elements))
	fmt.Fprintln(w, "=== Key Metadata ===")
	fmt.Fprintf(w, "Modality: %s\n", dcm.GetModality(ds))
	syntax := dcm.GetTransferSyntax(ds)
	fmt.Fprintf(w, "TransferSyntax: %s (%s)\n", syntax, syntax.Name())
	fmt.Fprintf(w, "SeriesDescription: %s\n", dcm.GetSeriesDescription(ds))
	fmt.Fprintf(w, "InstanceNumber: %d\n", dcm.GetInstanceNumber(ds))
	if !dcm.IsSR(ds) {
		fmt.Fprintln(w, "\nNot a structured report")
		return nil
	}

	result := dcm.ValidateSR(ds)
	fmt.Fprintf(w, "\n=== Validation ===\nErrors: %d, Warnings: %d\n", len(result.Errors), len(result.Warnings))
	for _, e := range result.Errors {
		fmt.Fprintf(w, "  error: %v\n", e)
	}
	for _, e := range result.Warnings {
		fmt.Fprintf(w, "  warning: %v\n", e)
	}

	r, err := sr.ReportFromDataset(ds)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, "\n=== Content Tree ===")
	fmt.Fprintf(w, "Template: %s\n", r.TemplateIdentifier())
	counts := map[sr.ValueType]int{}
	depth := walk(r.Root(), 0, counts)
	fmt.Fprintf(w, "Depth: %d\n", depth)
	types := make([]string, 0, len(counts))
	for vt := range counts {
		types = append(types, string(vt))
	}
	sort.Strings(types)
	for _, vt := range types {
		fmt.Fprintf(w, "  %-10s %d\n", vt, counts[sr.ValueType(vt)])
	}

	if !r.IsMeasurementReport() {
		return nil
	}
	ex, err := sr.Extract(r.Children())
	if err != nil {
		fmt.Fprintf(w, "\nNo measurements: %v\n", err)
		return nil
	}
	fmt.Fprintln(w, "\n=== Measurements ===")
	fmt.Fprintf(w, "Records: %d, Skipped groups: %d\n", len(ex.Records), len(ex.Skips))
	for _, s := range ex.Skips {
		fmt.Fprintf(w, "  %v\n", s)
	}
	printStatistics(w, ex.Records)
	return nil
}

// walk counts items by value type and returns the depth of the tree below item
func walk(item *sr.ContentItem, depth int, counts map[sr.ValueType]int) int {
	counts[item.ValueType]++
	deepest := depth
	for _, child := range item.Children() {
		if d := walk(child, depth+1, counts); d > deepest {
			deepest = d
		}
	}
	return deepest
}

type series struct {
	unit   string
	values []float64
}

// printStatistics summarizes the numeric values of the records by concept and unit
func printStatistics(w io.Writer, records []*sr.Record) {
	byConcept := map[string]*series{}
	var names []string
	for _, rec := range records {
		for _, q := range rec.Values {
			f, ok := q.NumericValue.Float()
			if !ok {
				continue
			}
			name := q.Concept.CodeMeaning + " [" + q.Unit.CodeValue + "]"
			s, ok := byConcept[name]
			if !ok {
				s = &series{unit: q.Unit.CodeValue}
				byConcept[name] = s
				names = append(names, name)
			}
			s.values = append(s.values, f)
		}
	}
	sort.Strings(names)
	for _, name := range names {
		s := byConcept[name]
		mean, std := stat.MeanStdDev(s.values, nil)
		if len(s.values) < 2 {
			std = 0
		}
		fmt.Fprintf(w, "  %-30s n=%d mean=%.2f sd=%.2f min=%.2f max=%.2f %s\n",
			name, len(s.values), mean, std, floats.Min(s.values), floats.Max(s.values), s.unit)
	}
}

