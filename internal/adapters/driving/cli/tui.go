package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/pdfqa/internal/adapters/driving/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui [file...]",
	Short: "Full-screen question answering over documents",
	Long: `Opens a terminal interface that indexes the given documents and
answers questions typed into it. Without files the interface starts with
an empty session.`,
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, args []string) error {
	uploads, closeAll, err := openUploads(args)
	if err != nil {
		return err
	}
	defer closeAll()

	ports := tui.NewPorts(sessionService, ingestService, questionService)
	app, err := tui.NewApp(ports, tui.Options{
		UserID:  currentUser(),
		Uploads: uploads,
		Input:   cmd.InOrStdin(),
		Output:  cmd.OutOrStdout(),
	})
	if err != nil {
		return err
	}
	return app.WithContext(cmd.Context()).Run()
}
