package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/pdfqa/internal/core/domain"
)

// snippetLength caps the passage preview printed under each source.
const snippetLength = 160

var (
	askFiles     []string
	askNoSources bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a question about documents",
	Long: `Indexes the given files (or loads their cached index), retrieves the
most relevant passages and asks the language model to answer from them.`,
	Example: `  pdfqa ask -f contract.pdf "What are the payment terms?"`,
	Args:    cobra.ExactArgs(1),
	RunE:    runAsk,
}

func init() {
	askCmd.Flags().StringArrayVarP(&askFiles, "file", "f", nil, "document to ask about (repeatable)")
	askCmd.Flags().BoolVar(&askNoSources, "no-sources", false, "hide the retrieved passages")
	_ = askCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if questionService == nil {
		return errors.New("question service not configured")
	}

	sess, _, err := ingestFiles(cmd, askFiles, false)
	if err != nil {
		return err
	}
	defer sess.Close()

	answer, err := questionService.Ask(cmd.Context(), sess, args[0])
	if err != nil {
		return err
	}

	printAnswer(cmd, answer, !askNoSources)
	return nil
}

func printAnswer(cmd *cobra.Command, answer *domain.Answer, withSources bool) {
	cmd.Println(styles.Answer.Render(answer.Text))
	if withSources {
		printSources(cmd, answer.Sources)
	}
}

func printSources(cmd *cobra.Command, sources domain.RetrievalResult) {
	if len(sources) == 0 {
		return
	}
	cmd.Println(styles.Title.Render("Sources"))
	for i, s := range sources {
		label := fmt.Sprintf("[%d] %s, page %d", i+1, s.Chunk.Metadata.Source, s.Chunk.Metadata.Page)
		cmd.Printf("  %s %s\n",
			styles.Source.Render(label),
			styles.Muted.Render(fmt.Sprintf("(%.2f)", s.Score)))
		cmd.Printf("      %s\n", snippet(s.Chunk.Content))
	}
}

// snippet collapses whitespace and truncates text to snippetLength runes.
func snippet(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= snippetLength {
		return text
	}
	return string(runes[:snippetLength]) + "..."
}
