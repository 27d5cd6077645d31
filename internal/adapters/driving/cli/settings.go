package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/pdfqa/internal/core/domain"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure chunking, retrieval, embedding, generation and storage.

Settings are stored in config.toml inside the configuration directory.
API keys may instead be supplied through PDFQA_EMBEDDING_API_KEY and
PDFQA_GENERATION_API_KEY, or a .env file.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every setting key and its value",
	RunE:  runSettingsList,
}

var settingsGetCmd = &cobra.Command{
	Use:   "get [key]",
	Short: "Print one setting",
	Args:  cobra.ExactArgs(1),
	RunE:  runSettingsGet,
}

var settingsSetCmd = &cobra.Command{
	Use:     "set [key] [value]",
	Short:   "Change one setting",
	Example: "  pdfqa settings set chunking.size 1500\n  pdfqa settings set storage.backend redis",
	Args:    cobra.ExactArgs(2),
	RunE:    runSettingsSet,
}

var settingsValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check settings and ping the configured services",
	RunE:  runSettingsValidate,
}

var settingsEmbeddingCmd = &cobra.Command{
	Use:   "embedding",
	Short: "Configure embedding provider",
	Long:  `Interactively choose the embedding provider used to index documents.`,
	RunE:  runSettingsEmbedding,
}

var settingsGenerationCmd = &cobra.Command{
	Use:   "generation",
	Short: "Configure generation endpoint",
	Long:  `Interactively configure the OpenAI-compatible endpoint used to answer questions.`,
	RunE:  runSettingsGeneration,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsListCmd)
	settingsCmd.AddCommand(settingsGetCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsValidateCmd)
	settingsCmd.AddCommand(settingsEmbeddingCmd)
	settingsCmd.AddCommand(settingsGenerationCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println(styles.Title.Render("Current Settings"))
	cmd.Println()

	cmd.Println("[Chunking]")
	cmd.Printf("  Size: %d characters\n", settings.Chunking.Size)
	cmd.Printf("  Overlap: %d characters\n", settings.Chunking.Overlap)
	cmd.Println()

	cmd.Println("[Retrieval]")
	cmd.Printf("  Passages per question: %d\n", settings.Retrieval.K)
	cmd.Println()

	cmd.Println("[Embedding]")
	cmd.Printf("  Provider: %s\n", settings.Embedding.Provider.Description())
	cmd.Printf("  Model: %s\n", settings.Embedding.Model)
	if settings.Embedding.BaseURL != "" {
		cmd.Printf("  Base URL: %s\n", settings.Embedding.BaseURL)
	}
	if settings.Embedding.Provider == domain.AIProviderOpenAI {
		cmd.Printf("  API Key: %s\n", displayKey(settings.Embedding.APIKey))
	}
	if settings.Embedding.RateLimit > 0 {
		cmd.Printf("  Rate limit: %.1f requests/s\n", settings.Embedding.RateLimit)
	}
	cmd.Println()

	cmd.Println("[Generation]")
	cmd.Printf("  Base URL: %s\n", valueOr(settings.Generation.BaseURL, "(not set)"))
	cmd.Printf("  Model: %s\n", valueOr(settings.Generation.Model, "(server default)"))
	cmd.Printf("  API Key: %s\n", displayKey(settings.Generation.APIKey))
	cmd.Printf("  Temperature: %.2f\n", settings.Generation.Temperature)
	cmd.Printf("  Max tokens: %d\n", settings.Generation.MaxTokens)
	cmd.Println()

	cmd.Println("[Storage]")
	cmd.Printf("  Backend: %s\n", settings.Storage.Backend)
	if settings.Storage.Dir != "" {
		cmd.Printf("  Directory: %s\n", settings.Storage.Dir)
	}
	if settings.Storage.Backend == domain.StorageRedis {
		cmd.Printf("  Redis: %s (db %d)\n", settings.Storage.RedisAddr, settings.Storage.RedisDB)
	}
	cmd.Println()

	if err := settingsService.Validate(); err != nil {
		cmd.Println(styles.Warning.Render("Warning: " + err.Error()))
	} else {
		cmd.Println(styles.Success.Render("Configuration is valid."))
	}

	return nil
}

func runSettingsList(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	for _, key := range settingsService.Keys() {
		value, err := settingsService.Value(key)
		if err != nil {
			return err
		}
		if settingsService.IsSecret(key) && value != "" {
			value = maskAPIKey(value)
		}
		cmd.Printf("%s = %s\n", styles.Label.Render(key), value)
	}
	return nil
}

func runSettingsGet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	value, err := settingsService.Value(args[0])
	if err != nil {
		return err
	}
	if settingsService.IsSecret(args[0]) && value != "" {
		value = maskAPIKey(value)
	}
	cmd.Println(value)
	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	if err := settingsService.Set(args[0], args[1]); err != nil {
		return err
	}
	display := args[1]
	if settingsService.IsSecret(args[0]) {
		display = maskAPIKey(display)
	}
	cmd.Printf("%s set to %s\n", args[0], display)
	return nil
}

func runSettingsValidate(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	if err := settingsService.Validate(); err != nil {
		return err
	}

	ctx := cmd.Context()
	cmd.Print("Embedding service... ")
	if err := settingsService.ValidateEmbeddingConfig(ctx); err != nil {
		cmd.Println(styles.Error.Render("FAILED"))
		return fmt.Errorf("%w: %w", domain.ErrEmbedding, err)
	}
	cmd.Println(styles.Success.Render("OK"))

	cmd.Print("Generation endpoint... ")
	if err := settingsService.ValidateGenerationConfig(ctx); err != nil {
		cmd.Println(styles.Error.Render("FAILED"))
		return fmt.Errorf("%w: %w", domain.ErrGeneration, err)
	}
	cmd.Println(styles.Success.Render("OK"))
	return nil
}

func runSettingsEmbedding(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	reader := bufio.NewReader(cmd.InOrStdin())
	return configureEmbeddingProvider(cmd, reader)
}

func runSettingsGeneration(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	reader := bufio.NewReader(cmd.InOrStdin())
	return configureGeneration(cmd, reader)
}

// embeddingProviders lists the providers offered by the interactive setup.
var embeddingProviders = []domain.AIProvider{
	domain.AIProviderHashing,
	domain.AIProviderOllama,
	domain.AIProviderOpenAI,
}

func configureEmbeddingProvider(cmd *cobra.Command, reader *bufio.Reader) error {
	cmd.Println("Select Embedding Provider")
	for i, p := range embeddingProviders {
		cmd.Printf("  %d. %s\n", i+1, p.Description())
	}
	cmd.Print("\nEnter choice [1]: ")
	input := readLine(reader)
	idx := parseChoice(input, len(embeddingProviders), 1)
	selectedProvider := embeddingProviders[idx-1]

	defaultModel := domain.DefaultEmbeddingModels()[selectedProvider]
	cmd.Printf("Enter model name [%s]: ", defaultModel)
	model := readLine(reader)
	if model == "" {
		model = defaultModel
	}

	var apiKey, baseURL string
	if selectedProvider == domain.AIProviderOpenAI {
		cmd.Print("Enter base URL (blank for api.openai.com): ")
		baseURL = readLine(reader)
		cmd.Print("Enter API key (blank for a local server): ")
		apiKey = readPassword(cmd.InOrStdin(), reader)
		cmd.Println()
	}

	if err := settingsService.SetEmbeddingProvider(selectedProvider, model, apiKey); err != nil {
		return fmt.Errorf("failed to configure embedding provider: %w", err)
	}
	if baseURL != "" {
		if err := settingsService.Set("embedding.base_url", baseURL); err != nil {
			return fmt.Errorf("failed to configure embedding provider: %w", err)
		}
	}

	cmd.Print("Validating configuration... ")
	if err := settingsService.ValidateEmbeddingConfig(cmd.Context()); err != nil {
		cmd.Printf("FAILED: %v\n", err)
		return fmt.Errorf("embedding configuration validation failed: %w", err)
	}
	cmd.Println("OK")

	cmd.Printf("Embedding provider configured: %s (%s)\n", selectedProvider.Description(), model)
	cmd.Println(styles.Muted.Render("Indexes built with a different model are rebuilt on next use."))
	return nil
}

func configureGeneration(cmd *cobra.Command, reader *bufio.Reader) error {
	current, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Printf("Enter base URL [%s]: ", current.Generation.BaseURL)
	baseURL := readLine(reader)

	cmd.Printf("Enter model name [%s]: ", valueOr(current.Generation.Model, "server default"))
	model := readLine(reader)

	cmd.Print("Enter API key (blank to keep current): ")
	apiKey := readPassword(cmd.InOrStdin(), reader)
	cmd.Println()

	if err := settingsService.SetGeneration(baseURL, model, apiKey); err != nil {
		return fmt.Errorf("failed to configure generation: %w", err)
	}

	cmd.Print("Validating configuration... ")
	if err := settingsService.ValidateGenerationConfig(cmd.Context()); err != nil {
		cmd.Printf("FAILED: %v\n", err)
		return fmt.Errorf("generation configuration validation failed: %w", err)
	}
	cmd.Println("OK")
	return nil
}

// Helper functions.

//nolint:errcheck // CLI helper, error ignored for UX
func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func parseChoice(input string, maxVal, defaultVal int) int {
	if input == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(input)
	if err != nil || val < 1 || val > maxVal {
		return defaultVal
	}
	return val
}

// readPassword reads without echo when in is a terminal, and falls back
// to a plain line read otherwise.
func readPassword(in io.Reader, reader *bufio.Reader) string {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		password, err := term.ReadPassword(int(f.Fd()))
		if err == nil {
			return strings.TrimSpace(string(password))
		}
	}
	return readLine(reader)
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

func displayKey(key string) string {
	if key == "" {
		return "(not set)"
	}
	return maskAPIKey(key)
}

func valueOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
