package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List models offered by the generation endpoint",
	Args:  cobra.NoArgs,
	RunE:  runModels,
}

func init() {
	rootCmd.AddCommand(modelsCmd)
}

func runModels(cmd *cobra.Command, _ []string) error {
	if questionService == nil {
		return errors.New("question service not configured")
	}

	models, err := questionService.Models(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list models: %w", err)
	}
	if len(models) == 0 {
		cmd.Println("No models available.")
		return nil
	}
	for _, m := range models {
		cmd.Printf("  %s\n", m)
	}
	return nil
}
