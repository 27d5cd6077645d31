package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

const timeLayout = "2006-01-02 15:04:05"

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show your conversation history",
	RunE:  runHistory,
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete your conversation history",
	Args:  cobra.NoArgs,
	RunE:  runHistoryClear,
}

var documentsCmd = &cobra.Command{
	Use:   "documents",
	Short: "List documents you have uploaded",
	Args:  cobra.NoArgs,
	RunE:  runDocuments,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 50, "maximum number of messages")
	historyCmd.AddCommand(historyClearCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(documentsCmd)
}

func runHistory(cmd *cobra.Command, _ []string) error {
	if historyService == nil {
		return errors.New("history service not configured")
	}

	messages, err := historyService.History(cmd.Context(), currentUser(), historyLimit)
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}
	if len(messages) == 0 {
		cmd.Println("No conversation history.")
		return nil
	}

	for _, msg := range messages {
		cmd.Printf("%s %s\n",
			styles.Muted.Render(msg.CreatedAt.Local().Format(timeLayout)),
			styles.Label.Render(string(msg.Role)+":"))
		cmd.Printf("  %s\n", msg.Content)
		for _, src := range msg.Sources {
			cmd.Println(styles.Muted.Render(fmt.Sprintf("    - %s, page %d", src.Source, src.Page)))
		}
	}
	return nil
}

func runHistoryClear(cmd *cobra.Command, _ []string) error {
	if historyService == nil {
		return errors.New("history service not configured")
	}

	if err := historyService.Clear(cmd.Context(), currentUser()); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	cmd.Println("Conversation history cleared.")
	return nil
}

func runDocuments(cmd *cobra.Command, _ []string) error {
	if historyService == nil {
		return errors.New("history service not configured")
	}

	records, err := historyService.Documents(cmd.Context(), currentUser())
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}
	if len(records) == 0 {
		cmd.Println("No documents uploaded.")
		return nil
	}

	for _, r := range records {
		cmd.Printf("  %s  %s  %s\n",
			styles.Muted.Render(r.UploadedAt.Local().Format(timeLayout)),
			r.Filename,
			styles.Muted.Render(shortKey(r.Key.String())))
	}
	cmd.Printf("\nTotal: %d documents\n", len(records))
	return nil
}

func shortKey(key string) string {
	if len(key) > 12 {
		return key[:12]
	}
	return key
}
