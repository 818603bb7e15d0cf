package cmd

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httputil"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jpfielding/dicomsr.go/pkg/dcm"
)

// NewDumpCmd prints the elements of a DICOM file, descending into sequences
func NewDumpCmd(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dump",
		Short: "DICOM dump",
		Long:  "Prints every element of a DICOM file read from a path, stdin (-) or an http(s) URL",
		RunE: func(cmd *cobra.Command, args []string) error {
			var in io.Reader
			uri, _ := cmd.Flags().GetString("uri")
			if uri == "" && len(args) > 0 {
				uri = args[0]
			}
			uri = strings.TrimPrefix(uri, "file://")
			switch {
			case uri == "":
				return fmt.Errorf("uri is required. Use --uri flag or provide as argument")
			case uri == "-":
				in = os.Stdin
			case strings.HasPrefix(uri, "http"):
				insecure, _ := cmd.Flags().GetBool("insecure")
				cl := &http.Client{
					Transport: &http.Transport{TLSClientConfig: &tls.Config{InsecureSkipVerify: insecure}},
				}
				req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
				if err != nil {
					return fmt.Errorf("failed to create request: %v", err)
				}
				resp, err := cl.Do(req)
				if err != nil {
					return fmt.Errorf("failed to download: %v", err)
				}
				defer resp.Body.Close()
				verbose, _ := cmd.Flags().GetBool("verbose")
				if verbose {
					reqDump, _ := httputil.DumpRequest(req, true)
					os.Stderr.Write(reqDump)
					resDump, _ := httputil.DumpResponse(resp, false)
					os.Stderr.Write(resDump)
				}
				if resp.StatusCode != http.StatusOK {
					return fmt.Errorf("failed to download: %s", resp.Status)
				}
				in = resp.Body
			default:
				f, err := os.Open(uri)
				if err != nil {
					return fmt.Errorf("failed to open file: %v", err)
				}
				in = f
				defer f.Close()
			}
			dataset, err := dcm.Parse(in, dcm.SkipPixelData())
			if err != nil {
				return fmt.Errorf("parse error: %w", err)
			}
			switch format, _ := cmd.Flags().GetString("format"); format {
			case "text":
				fmt.Println(dataset)
			default:
				j, err := json.Marshal(dataset)
				if err != nil {
					return err
				}
				os.Stdout.Write(j)
			}
			return nil
		},
	}
	pf := cmd.PersistentFlags()
	pf.StringP("uri", "u", "", "DICOM file path, - for stdin, or http(s) URL")
	pf.StringP("format", "f", "json", "output format (text|json)")
	pf.Bool("insecure", false, "skip TLS verification for https URLs")
	pf.BoolP("verbose", "v", false, "dump the http exchange to stderr")
	return cmd
}
