package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/pdfqa/internal/core/domain"
)

var (
	searchFiles []string
	searchLimit int
	searchJSON  bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search documents for relevant passages",
	Long: `Retrieves the passages most similar to the query by cosine similarity
over chunk embeddings. No answer is generated.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringArrayVarP(&searchFiles, "file", "f", nil, "document to search (repeatable)")
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 0, "maximum number of results (default retrieval.k)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	_ = searchCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(searchCmd)
}

// searchHit is the JSON form of a retrieved passage.
type searchHit struct {
	Source  string  `json:"source"`
	Page    int     `json:"page"`
	Score   float64 `json:"score"`
	Content string  `json:"content"`
}

func runSearch(cmd *cobra.Command, args []string) error {
	if questionService == nil {
		return errors.New("search service not configured")
	}

	sess, _, err := ingestFiles(cmd, searchFiles, false)
	if err != nil {
		return err
	}
	defer sess.Close()

	results, err := questionService.Search(cmd.Context(), sess, args[0], searchLimit)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return outputSearchJSON(cmd, results)
	}

	if len(results) == 0 {
		cmd.Println("No results found.")
		return nil
	}
	printSources(cmd, results)
	return nil
}

func outputSearchJSON(cmd *cobra.Command, results domain.RetrievalResult) error {
	hits := make([]searchHit, len(results))
	for i, r := range results {
		hits[i] = searchHit{
			Source:  r.Chunk.Metadata.Source,
			Page:    r.Chunk.Metadata.Page,
			Score:   r.Score,
			Content: r.Chunk.Content,
		}
	}
	data, err := json.MarshalIndent(hits, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}
