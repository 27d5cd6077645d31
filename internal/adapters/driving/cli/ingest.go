package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/pdfqa/internal/core/domain"
)

var ingestQuiet bool

var ingestCmd = &cobra.Command{
	Use:   "ingest [file...]",
	Short: "Index documents",
	Long: `Extracts, chunks and embeds the given documents as one batch.

The resulting index is cached by content, so later commands over the same
files load it instead of re-embedding.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().BoolVarP(&ingestQuiet, "quiet", "q", false, "suppress progress output")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	sess, result, err := ingestFiles(cmd, args, !ingestQuiet)
	if err != nil {
		return err
	}
	defer sess.Close()

	printIngestResult(cmd, result)
	return nil
}

// ingestFiles opens paths, runs them through the ingest service as one
// batch and returns the ready session.
func ingestFiles(cmd *cobra.Command, paths []string, showProgress bool) (*domain.Session, *domain.IngestResult, error) {
	if sessionService == nil || ingestService == nil {
		return nil, nil, errors.New("ingest service not configured")
	}

	uploads, closeAll, err := openUploads(paths)
	if err != nil {
		return nil, nil, err
	}
	defer closeAll()

	sess := sessionService.NewSession(currentUser())

	var events chan domain.ProgressEvent
	var wg sync.WaitGroup
	if showProgress {
		events = make(chan domain.ProgressEvent)
		wg.Add(1)
		go func() {
			defer wg.Done()
			renderProgress(cmd.ErrOrStderr(), events)
		}()
	}

	result, err := ingestService.Ingest(cmd.Context(), sess, uploads, events)
	if events != nil {
		close(events)
		wg.Wait()
	}
	if err != nil {
		return nil, nil, err
	}
	return sess, result, nil
}

// openUploads opens every path for reading. The returned function closes them.
func openUploads(paths []string) ([]domain.Upload, func(), error) {
	files := make([]*os.File, 0, len(paths))
	closeAll := func() {
		for _, f := range files {
			_ = f.Close()
		}
	}

	uploads := make([]domain.Upload, 0, len(paths))
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("%w: %w", domain.ErrIO, err)
		}
		files = append(files, f)
		uploads = append(uploads, domain.Upload{Filename: filepath.Base(path), Content: f})
	}
	return uploads, closeAll, nil
}

// renderProgress prints one line per stage change until events is closed.
func renderProgress(w io.Writer, events <-chan domain.ProgressEvent) {
	var last domain.Stage
	for ev := range events {
		if ev.Stage == last && ev.Stage != domain.StageEmbed {
			continue
		}
		last = ev.Stage
		fmt.Fprintf(w, "%s %s\n",
			styles.Muted.Render(fmt.Sprintf("[%3.0f%%] %-7s", ev.Fraction*100, ev.Stage)),
			ev.Message)
	}
}

func printIngestResult(cmd *cobra.Command, result *domain.IngestResult) {
	cmd.Println(styles.Title.Render("Indexed documents"))
	for _, name := range result.Documents {
		cmd.Printf("  - %s\n", name)
	}
	cmd.Printf("  Pages:  %d\n", result.Pages)
	cmd.Printf("  Chunks: %d\n", result.Chunks)
	cmd.Printf("  Key:    %s\n", result.Key)
	switch {
	case result.CacheHit:
		cmd.Println(styles.Success.Render("  Loaded from cache"))
	case result.StoreErr != nil:
		cmd.Println(styles.Warning.Render("  Built, but not cached: " + result.StoreErr.Error()))
	default:
		cmd.Println(styles.Success.Render("  Built and cached"))
	}
}
