package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/qlty-go/qlty/pkg/version"
)

func newVersionCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print qlty's version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")

				return enc.Encode(map[string]any{
					"version":    version.Version,
					"commit":     version.Commit,
					"date":       version.Date,
					"binary_git": version.BinaryGitHash,
					"binary":     version.Binary,
				})
			}

			fmt.Fprintf(os.Stdout, "qlty %s (commit %s, built %s)\n", version.Version, version.Commit, version.Date)

			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print version information as JSON")

	return cmd
}
