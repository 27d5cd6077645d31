// Package app wires adapters and core services for the pdfqa binary.
package app

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/custodia-labs/pdfqa/internal/adapters/driven/ai"
	"github.com/custodia-labs/pdfqa/internal/adapters/driven/config/file"
	"github.com/custodia-labs/pdfqa/internal/adapters/driven/extractor"
	"github.com/custodia-labs/pdfqa/internal/adapters/driven/storage"
	"github.com/custodia-labs/pdfqa/internal/adapters/driving/cli"
	"github.com/custodia-labs/pdfqa/internal/core/services"
	"github.com/custodia-labs/pdfqa/internal/indexcache"
	"github.com/custodia-labs/pdfqa/internal/logger"
	"github.com/custodia-labs/pdfqa/internal/postprocessors/chunker"
)

// DataDirName is the directory under the config directory holding stores.
const DataDirName = "data"

// Bootstrap loads settings and builds every service a command needs.
// The returned cleanup closes the AI clients and stores.
func Bootstrap(ctx context.Context, opts cli.Options) (cli.Services, func(), error) {
	configDir := opts.ConfigDir
	if configDir == "" {
		dir, err := file.DefaultDir()
		if err != nil {
			return cli.Services{}, nil, fmt.Errorf("resolve config directory: %w", err)
		}
		configDir = dir
	}

	configStore, err := file.NewConfigStore(configDir)
	if err != nil {
		return cli.Services{}, nil, err
	}
	settingsService := services.NewSettingsService(configStore, ai.NewConfigValidator())
	settings, err := settingsService.Get()
	if err != nil {
		return cli.Services{}, nil, err
	}

	// Chunking parameters are checked before any adapter is opened.
	ch, err := chunker.FromSettings(settings.Chunking)
	if err != nil {
		return cli.Services{}, nil, err
	}

	aiServices, err := ai.Init(settings)
	if err != nil {
		return cli.Services{}, nil, err
	}
	for _, w := range aiServices.Warnings {
		logger.Warn("%s", w)
	}

	stores, err := storage.Open(ctx, settings.Storage, filepath.Join(configDir, DataDirName))
	if err != nil {
		aiServices.Close()
		return cli.Services{}, nil, err
	}

	embedder := aiServices.EmbeddingService
	cache := indexcache.New(stores.Blobs, embedder.ModelName(), indexcache.WithChunking(ch.Settings()))
	builder := services.NewIndexBuilder(embedder, settings.Embedding.Concurrency)
	retrieval := services.NewRetrievalEngine(embedder)

	logger.Debug("Config: %s", configStore.Path())
	logger.Debug("Embedding: %s (%d dims), storage: %s",
		embedder.ModelName(), embedder.Dimensions(), settings.Storage.Backend)

	svc := cli.Services{
		Settings: settingsService,
		Sessions: services.NewSessionService(settings.Retrieval),
		Ingest:   services.NewIngestService(extractor.Default(), ch, builder, cache, stores.Documents),
		Question: services.NewQuestionService(retrieval, aiServices.GenerationService, stores.Chat, settings.Generation),
		History:  services.NewHistoryService(stores.Chat, stores.Documents),
	}

	cleanup := func() {
		if err := stores.Close(); err != nil {
			logger.Warn("close stores: %v", err)
		}
		aiServices.Close()
	}
	return svc, cleanup, nil
}
