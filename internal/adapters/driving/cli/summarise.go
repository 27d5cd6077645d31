package cli

import (
	"errors"

	"github.com/spf13/cobra"
)

var summariseCmd = &cobra.Command{
	Use:     "summarise [file...]",
	Aliases: []string{"summarize"},
	Short:   "Summarise documents",
	Long:    `Generates a short summary from the opening passages of the given documents.`,
	Args:    cobra.MinimumNArgs(1),
	RunE:    runSummarise,
}

func init() {
	rootCmd.AddCommand(summariseCmd)
}

func runSummarise(cmd *cobra.Command, args []string) error {
	if questionService == nil {
		return errors.New("question service not configured")
	}

	sess, _, err := ingestFiles(cmd, args, false)
	if err != nil {
		return err
	}
	defer sess.Close()

	summary, err := questionService.Summarise(cmd.Context(), sess)
	if err != nil {
		return err
	}

	cmd.Println(styles.Title.Render("Summary"))
	cmd.Println(styles.Answer.Render(summary))
	return nil
}
