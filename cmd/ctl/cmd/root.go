package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jpfielding/dicomsr.go/pkg/config"
	"github.com/jpfielding/dicomsr.go/pkg/logging"
	"github.com/jpfielding/dicomsr.go/pkg/sr"
)

// NewRoot builds the srctl command tree. Settings come from SRCTL_* variables
// and are overridden by flags.
func NewRoot(ctx context.Context, gitsha string) *cobra.Command {
	cfg, err := config.New()
	if err != nil {
		slog.WarnContext(ctx, "invalid environment, using defaults", "error", err)
		cfg = &config.Config{LogLevel: "info", PlaneTolerance: sr.DefaultPlaneTolerance, UIDRoot: "2.25", DBPath: "srctl.db", LogMaxSizeMB: 50, LogMaxBackups: 3}
	}

	cmd := &cobra.Command{
		Use:   "srctl",
		Short: "a CLI to read, resolve and write DICOM measurement reports",
		Long:  "srctl reads TID-1500 structured reports into measurement records, attaches them to image series and writes measurements back into reports",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			var w io.Writer = os.Stderr
			if cfg.LogFile != "" {
				w = io.MultiWriter(os.Stderr, logging.RotatingWriter(cfg.LogFile, cfg.LogMaxSizeMB, cfg.LogMaxBackups))
			}
			slog.SetDefault(logging.Logger(w, cfg.LogJSON, cfg.Level()))
			slog.DebugContext(ctx, "configured", "level", cfg.Level(), "tolerance", cfg.PlaneTolerance, "db", cfg.DBPath)
		},
		Run: func(cmd *cobra.Command, args []string) {
			printCommandTree(cmd, 0)
		},
	}
	cmd.AddCommand(
		NewVersionCmd(ctx, gitsha),
		NewDumpCmd(ctx),
		NewAnalyzeCmd(ctx),
		NewExtractCmd(ctx, cfg),
		NewResolveCmd(ctx, cfg),
		NewBuildCmd(ctx, cfg),
	)
	pf := cmd.PersistentFlags()
	pf.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (DEBUG, INFO, WARN, ERROR)")
	pf.StringVar(&cfg.LogFile, "log-file", cfg.LogFile, "Also log to this file, rotated by size")
	pf.BoolVar(&cfg.LogJSON, "log-json", cfg.LogJSON, "Log as JSON")
	return cmd
}

func printCommandTree(cmd *cobra.Command, indent int) {
	fmt.Println(strings.Repeat("\t", indent), cmd.Use+":", cmd.Short)
	for _, subCmd := range cmd.Commands() {
		printCommandTree(subCmd, indent+1)
	}
}

func NewVersionCmd(ctx context.Context, gitsha string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "git sha for this build",
		Long:  "git sha for this build",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(gitsha)
		},
	}
	return cmd
}

// readReport reads a naturalized JSON report or a Part-10 file, by extension
func readReport(path string) (*sr.Report, error) {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open file: %w", err)
		}
		defer f.Close()
		return sr.ReadReportJSON(f)
	}
	return sr.ReadReportFile(path)
}

// reportArg takes the report path from --report or the first argument
func reportArg(cmd *cobra.Command, args []string) (string, error) {
	path, _ := cmd.Flags().GetString("report")
	if path == "" && len(args) > 0 {
		path = args[0]
	}
	if path == "" {
		return "", fmt.Errorf("report path is required. Use --report flag or provide as argument")
	}
	return path, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
