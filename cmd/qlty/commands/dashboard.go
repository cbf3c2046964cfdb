package commands

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/qlty-go/qlty/internal/processor"
	"github.com/qlty-go/qlty/internal/qltyerr"
)

func newDashboardCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Write an HTML trend chart of the checkpointed run history",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDashboard(output)
		},
	}

	cmd.Flags().StringVar(&output, "output", "qlty-dashboard.html", "output HTML file path")

	return cmd
}

func runDashboard(output string) error {
	// TODO: source real HistoryPoint entries from the checkpoint persister
	// once run-state retention grows beyond the single most recent run.
	history := []processor.HistoryPoint{}

	f, err := os.Create(output)
	if err != nil {
		return qltyerr.Wrap(qltyerr.KindIO, err)
	}
	defer f.Close()

	if err := processor.WriteTrendChartHTML(f, history); err != nil {
		return qltyerr.Wrap(qltyerr.KindIO, err)
	}

	return nil
}

func newDocsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "docs",
		Short: "Print the location of qlty's documentation",
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.Println("https://qlty.sh/docs")
			return nil
		},
	}
}
