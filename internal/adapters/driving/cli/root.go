// Package cli provides the command-line interface for pdfqa.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/pdfqa/internal/core/domain"
	"github.com/custodia-labs/pdfqa/internal/core/ports/driving"
	"github.com/custodia-labs/pdfqa/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// annotationNoServices marks commands that run without bootstrapping.
const annotationNoServices = "pdfqa/no-services"

// Services holds the driving ports used by commands.
type Services struct {
	Settings driving.SettingsService
	Sessions driving.SessionService
	Ingest   driving.IngestService
	Question driving.QuestionService
	History  driving.HistoryService
}

// Options carries the global flags to the bootstrap function.
type Options struct {
	ConfigDir string
	UserID    string
	Verbose   bool
}

// BootstrapFunc wires services for a command run. The returned cleanup
// function is called once the command finishes.
type BootstrapFunc func(ctx context.Context, opts Options) (Services, func(), error)

var (
	settingsService driving.SettingsService
	sessionService  driving.SessionService
	ingestService   driving.IngestService
	questionService driving.QuestionService
	historyService  driving.HistoryService

	bootstrap BootstrapFunc
	cleanup   func()
)

var (
	verboseFlag   bool
	configDirFlag string
	userFlag      string
)

var rootCmd = &cobra.Command{
	Use:   "pdfqa",
	Short: "Ask questions about your PDF documents",
	Long: `pdfqa indexes PDF and text documents and answers questions about them
using retrieval-augmented generation.

Documents are split into overlapping chunks, embedded, and cached by content,
so re-uploading the same files reuses the existing index.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: runBootstrap,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configDirFlag, "config-dir", "", "configuration directory (default ~/.pdfqa)")
	rootCmd.PersistentFlags().StringVarP(&userFlag, "user", "u", defaultUser(), "user id for history and uploads")
}

// SetServices installs the services used by commands.
func SetServices(s Services) {
	settingsService = s.Settings
	sessionService = s.Sessions
	ingestService = s.Ingest
	questionService = s.Question
	historyService = s.History
}

// SetBootstrap installs the function that wires services before each command.
func SetBootstrap(fn BootstrapFunc) {
	bootstrap = fn
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command and renders any error.
func Execute(ctx context.Context) error {
	defer runCleanup()

	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintln(rootCmd.ErrOrStderr(), renderError(err))
	}
	return err
}

func runBootstrap(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verboseFlag)
	if bootstrap == nil || cmd.Annotations[annotationNoServices] == "true" {
		return nil
	}

	services, done, err := bootstrap(cmd.Context(), Options{
		ConfigDir: configDirFlag,
		UserID:    userFlag,
		Verbose:   verboseFlag,
	})
	if err != nil {
		return err
	}
	SetServices(services)
	cleanup = done
	return nil
}

func runCleanup() {
	if cleanup != nil {
		cleanup()
		cleanup = nil
	}
}

// renderError formats err with its category when it is a pipeline error.
// The underlying error text follows on a second line.
func renderError(err error) string {
	category, message := domain.Describe(err)
	if message == err.Error() {
		return styles.Error.Render(category+": ") + message
	}
	return styles.Error.Render(category+": ") + message + "\n  " + styles.Muted.Render(err.Error())
}

func defaultUser() string {
	if u := os.Getenv("PDFQA_USER"); u != "" {
		return u
	}
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return "local"
}

func currentUser() string {
	if userFlag == "" {
		return defaultUser()
	}
	return userFlag
}
