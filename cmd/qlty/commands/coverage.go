package commands

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/qlty-go/qlty/internal/cloudclient"
	"github.com/qlty-go/qlty/internal/coverage"
	"github.com/qlty-go/qlty/internal/qltyconfig"
	"github.com/qlty-go/qlty/internal/qltyerr"
	"github.com/qlty-go/qlty/pkg/version"
)

func newCoverageCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "coverage",
		Short: "Ingest, validate, and publish code coverage reports",
	}

	cmd.AddCommand(
		newCoveragePublishCommand(),
		newCoverageValidateCommand(),
		newCoverageTransformCommand(),
		newCoverageCompleteCommand(),
	)

	return cmd
}

func newCoveragePublishCommand() *cobra.Command {
	var (
		format     string
		configPath string
		token      string
		baseURL    string
	)

	cmd := &cobra.Command{
		Use:   "publish <report-path>...",
		Short: "Parse one or more coverage reports and upload them to qlty's cloud API",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCoveragePublish(cmd.Context(), args, format, configPath, token, baseURL)
		},
	}

	cmd.Flags().StringVar(&format, "format", "", "coverage report format: lcov, coverprofile, cobertura, jacoco, clover, dotcover, xccov, simplecov, qlty")
	cmd.Flags().StringVar(&configPath, "config", "", "path to qlty.toml (default: qlty.toml or .qlty/qlty.toml in the working directory)")
	cmd.Flags().StringVar(&token, "token", os.Getenv("QLTY_COVERAGE_TOKEN"), "coverage API token (default: $QLTY_COVERAGE_TOKEN)")
	cmd.Flags().StringVar(&baseURL, "api-url", "https://qlty.sh", "qlty cloud API base URL")

	return cmd
}

// parseCoverageReports parses every report path with the named format and
// merges their FileCoverage entries (coverage.Merge) so that, e.g., a unit
// and an integration test report for the same commit combine into one set
// of per-file hit counts rather than overwriting one another.
func parseCoverageReports(reportPaths []string, format string) ([]coverage.FileCoverage, map[string][]byte, error) {
	if format == "" {
		format = string(coverage.FormatNative)
	}

	parser, ok := coverage.ParserFor(coverage.Format(format))
	if !ok {
		return nil, nil, qltyerr.Wrap(qltyerr.KindInvalidOptions, fmt.Errorf("unknown coverage format %q", format))
	}

	var all []coverage.FileCoverage

	raw := make(map[string][]byte, len(reportPaths))

	for _, path := range reportPaths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, nil, qltyerr.Wrap(qltyerr.KindIO, err)
		}

		parsed, parseErr := parser.Parse(data)
		if parseErr != nil {
			return nil, nil, qltyerr.Wrap(qltyerr.KindParse, parseErr)
		}

		all = append(all, parsed...)
		raw[path] = data
	}

	return coverage.Merge(all), raw, nil
}

func runCoveragePublish(ctx context.Context, reportPaths []string, format, configPath, token, baseURL string) error {
	_, err := qltyconfig.LoadConfig(configPath)
	if err != nil {
		return err
	}

	files, raw, err := parseCoverageReports(reportPaths, format)
	if err != nil {
		return err
	}

	covered, total := coverage.Summarize(files)

	metadata := coverage.CoverageMetadata{Covered: covered, Total: total}

	if ci, ok := coverage.DetectCI(); ok {
		metadata.CommitSHA = ci.CommitSHA
		metadata.Branch = ci.Branch
		metadata.BuildID = ci.BuildID
		metadata.BuildURL = ci.BuildURL
		metadata.PullRequest = ci.PullRequest
	}

	var archive bytes.Buffer

	if zipErr := coverage.BuildZip(&archive, files, metadata, raw); zipErr != nil {
		return qltyerr.Wrap(qltyerr.KindIO, zipErr)
	}

	if token == "" {
		fmt.Fprintf(os.Stdout, "no token provided, skipping upload: %d/%d lines covered across %d file(s)\n", covered, total, len(files))
		return nil
	}

	client := cloudclient.New(baseURL, token, version.Version)

	result, uploadErr := client.UploadCoverage(ctx, metadata, archive.Bytes())
	if uploadErr != nil {
		return uploadErr
	}

	fmt.Fprintf(os.Stdout, "uploaded coverage report %s (%d/%d lines covered)\n", result.ReportID, covered, total)

	return nil
}

func newCoverageValidateCommand() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "validate <report-path>...",
		Short: "Parse one or more coverage reports and print a combined summary without uploading it",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files, _, err := parseCoverageReports(args, format)
			if err != nil {
				return err
			}

			covered, total := coverage.Summarize(files)

			fmt.Fprintf(os.Stdout, "%d file(s), %d/%d lines covered\n", len(files), covered, total)

			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", string(coverage.FormatNative), "coverage report format")

	return cmd
}

func newCoverageTransformCommand() *cobra.Command {
	var (
		format string
		output string
	)

	cmd := &cobra.Command{
		Use:   "transform <report-path>...",
		Short: "Convert one or more third-party coverage reports into a single qlty coverage.zip bundle",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files, raw, err := parseCoverageReports(args, format)
			if err != nil {
				return err
			}

			covered, total := coverage.Summarize(files)
			metadata := coverage.CoverageMetadata{Covered: covered, Total: total}

			out, createErr := os.Create(output)
			if createErr != nil {
				return qltyerr.Wrap(qltyerr.KindIO, createErr)
			}
			defer out.Close()

			if zipErr := coverage.BuildZip(out, files, metadata, raw); zipErr != nil {
				return qltyerr.Wrap(qltyerr.KindIO, zipErr)
			}

			fmt.Fprintf(os.Stdout, "wrote %s\n", output)

			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", string(coverage.FormatNative), "coverage report format")
	cmd.Flags().StringVar(&output, "output", "coverage.zip", "output bundle path")

	return cmd
}

func newCoverageCompleteCommand() *cobra.Command {
	var (
		token   string
		baseURL string
	)

	cmd := &cobra.Command{
		Use:   "complete",
		Short: "Signal to qlty's cloud API that all coverage uploads for this build have finished",
		RunE: func(cmd *cobra.Command, args []string) error {
			if token == "" {
				return qltyerr.Wrap(qltyerr.KindInvalidOptions, fmt.Errorf("--token (or $QLTY_COVERAGE_TOKEN) is required"))
			}

			ci, ok := coverage.DetectCI()
			if !ok {
				return qltyerr.Fatalf(qltyerr.KindInvalidOptions, "coverage complete must run inside a supported CI environment")
			}

			client := cloudclient.New(baseURL, token, version.Version)

			_, err := client.UploadCoverage(cmd.Context(), coverage.CoverageMetadata{
				CommitSHA: ci.CommitSHA,
				Branch:    ci.Branch,
				BuildID:   ci.BuildID,
				BuildURL:  ci.BuildURL,
			}, nil)
			if err != nil {
				return err
			}

			fmt.Fprintln(os.Stdout, "build marked complete")

			return nil
		},
	}

	cmd.Flags().StringVar(&token, "token", os.Getenv("QLTY_COVERAGE_TOKEN"), "coverage API token (default: $QLTY_COVERAGE_TOKEN)")
	cmd.Flags().StringVar(&baseURL, "api-url", "https://qlty.sh", "qlty cloud API base URL")

	return cmd
}
