package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/pdfqa/internal/adapters/driven/embedding/hashing"
	"github.com/custodia-labs/pdfqa/internal/adapters/driven/extractor"
	"github.com/custodia-labs/pdfqa/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/pdfqa/internal/core/domain"
	"github.com/custodia-labs/pdfqa/internal/core/ports/driven"
	"github.com/custodia-labs/pdfqa/internal/core/services"
	"github.com/custodia-labs/pdfqa/internal/indexcache"
	"github.com/custodia-labs/pdfqa/internal/postprocessors/chunker"
)

// stubGenerator records prompts and replies with a fixed answer.
type stubGenerator struct {
	mu      sync.Mutex
	reply   string
	err     error
	models  []string
	prompts []string
}

func (g *stubGenerator) Generate(_ context.Context, prompt string, _ driven.GenerateOptions) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.prompts = append(g.prompts, prompt)
	if g.err != nil {
		return "", g.err
	}
	return g.reply, nil
}

func (g *stubGenerator) Models(_ context.Context) ([]string, error) {
	if g.err != nil {
		return nil, g.err
	}
	return g.models, nil
}

func (g *stubGenerator) Ping(_ context.Context) error {
	return g.err
}

func (g *stubGenerator) Close() error {
	return nil
}

func (g *stubGenerator) lastPrompt() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.prompts) == 0 {
		return ""
	}
	return g.prompts[len(g.prompts)-1]
}

// testEnv holds the services installed for a command test.
type testEnv struct {
	generator *stubGenerator
	blobs     *memory.BlobStore
	metadata  *memory.MetadataStore
	settings  *services.SettingsService
}

// setupTestServices wires real services over in-memory stores and installs
// them as the command globals. Globals and flags are restored on cleanup.
func setupTestServices(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		generator: &stubGenerator{reply: "The answer is 42.", models: []string{"local-model"}},
		blobs:     memory.NewBlobStore(),
		metadata:  memory.NewMetadataStore(),
		settings:  services.NewSettingsService(memory.NewConfigStore(), nil),
	}

	embedder := hashing.NewEmbeddingService(256)
	ch, err := chunker.New(chunker.WithChunkSize(120), chunker.WithOverlap(20))
	require.NoError(t, err)

	retrieval := services.NewRetrievalEngine(embedder)
	cache := indexcache.New(env.blobs, embedder.ModelName(), indexcache.WithChunking(ch.Settings()))
	SetServices(Services{
		Settings: env.settings,
		Sessions: services.NewSessionService(domain.RetrievalSettings{K: 3}),
		Ingest: services.NewIngestService(
			extractor.Default(), ch, services.NewIndexBuilder(embedder, 2), cache, env.metadata),
		Question: services.NewQuestionService(
			retrieval, env.generator, env.metadata, domain.DefaultAppSettings().Generation),
		History: services.NewHistoryService(env.metadata, env.metadata),
	})
	userFlag = "tester"

	t.Cleanup(func() {
		SetServices(Services{})
		userFlag = defaultUser()
		resetFlags()
	})
	return env
}

// resetFlags clears flag values left by a previous Execute.
func resetFlags() {
	askFiles = nil
	askNoSources = false
	searchFiles = nil
	searchLimit = 0
	searchJSON = false
	ingestQuiet = false
	historyLimit = 50

	var walk func(c *cobra.Command)
	walk = func(c *cobra.Command) {
		c.Flags().VisitAll(func(f *pflag.Flag) {
			f.Changed = false
		})
		for _, sub := range c.Commands() {
			walk(sub)
		}
	}
	walk(rootCmd)
}

// execute runs the root command with args and returns combined output.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
		resetFlags()
	}()

	err := rootCmd.ExecuteContext(context.Background())
	return buf.String(), err
}

// writeDoc writes a text document into a temp directory and returns its path.
func writeDoc(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

const manualText = `Installing the pump

The pump must be mounted on a level concrete base. Bolt the frame down
before connecting the inlet pipe.

Maintenance schedule

Replace the filter cartridge every six months. Lubricate the bearings
once a year with lithium grease.`

var errBoom = errors.New("boom")
