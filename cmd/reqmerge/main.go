// Command reqmerge merges two Python requirements manifests into a single
// pinned manifest, resolving versions against a package index.
//
// The diagnostic table goes to stderr and the merged manifest to stdout, so
// the output can be redirected straight into a requirements file:
//
//	reqmerge base.txt overrides.txt > merged.txt
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	reqmerge "github.com/reqmerge/go-reqmerge"
)

var (
	flagIndexURL    string
	flagTimeout     time.Duration
	flagConcurrency int
	flagOutput      string
	flagJSON        bool
	flagVerbose     bool
)

var rootCmd = &cobra.Command{
	Use:   "reqmerge <fileA> <fileB>",
	Short: "Merge two Python requirements manifests into one pinned manifest",
	Long: `reqmerge parses two requirements manifests (requirements.txt or
pyproject.toml), intersects the version constraints declared for each
package, and selects a concrete version for every package from the
package index.

When every package resolves, the merged "name==version" manifest is
printed to stdout. The per-package diagnostic table always goes to
stderr. A conflict or unresolved package results in exit status 1.`,
	Args:          cobra.ExactArgs(2),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runMerge,
}

func init() {
	rootCmd.Flags().StringVar(&flagIndexURL, "index-url", "", "base URL of the package index (default https://pypi.org)")
	rootCmd.Flags().DurationVar(&flagTimeout, "timeout", 0, "per-request timeout for index lookups (default 5s)")
	rootCmd.Flags().IntVar(&flagConcurrency, "concurrency", 0, "maximum concurrent package resolutions (default 5)")
	rootCmd.Flags().StringVarP(&flagOutput, "output", "o", "", "write the merged manifest to a file instead of stdout")
	rootCmd.Flags().BoolVar(&flagJSON, "json", false, "print the full merge report as JSON to stdout")
	rootCmd.Flags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging to stderr")
}

func runMerge(cmd *cobra.Command, args []string) error {
	opts := []reqmerge.Option{}
	if flagIndexURL != "" {
		opts = append(opts, reqmerge.WithIndexURL(flagIndexURL))
	}
	if flagTimeout > 0 {
		opts = append(opts, reqmerge.WithTimeout(flagTimeout))
	}
	if flagConcurrency > 0 {
		opts = append(opts, reqmerge.WithMaxConcurrency(flagConcurrency))
	}
	if flagVerbose {
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
		opts = append(opts, reqmerge.WithLogger(logger))
	}

	report, err := reqmerge.MergeFiles(context.Background(), args[0], args[1], opts...)
	if err != nil {
		return err
	}

	if flagJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return fmt.Errorf("encoding report: %w", err)
		}
	} else {
		fmt.Fprintln(cmd.ErrOrStderr(), report.FormatTable())
	}

	if report.AllResolved {
		merged := report.MergedManifest()
		if flagOutput != "" {
			if err := os.WriteFile(flagOutput, []byte(merged), 0o644); err != nil {
				return fmt.Errorf("writing merged manifest: %w", err)
			}
		} else if !flagJSON {
			fmt.Fprint(cmd.OutOrStdout(), merged)
		}
		return nil
	}

	return fmt.Errorf("%d of %d packages did not resolve (%d conflicts, %d unresolved)",
		report.Summary.Conflicts+report.Summary.Unresolved,
		report.Summary.Total,
		report.Summary.Conflicts,
		report.Summary.Unresolved)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "reqmerge: %v\n", err)
		os.Exit(1)
	}
}
