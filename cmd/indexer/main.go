// Command indexer builds the knowledge-base index offline: it reads a JSON
// file of text chunks, embeds each one, and writes the paired index and
// metadata files the API server loads read-only at runtime.
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/joho/godotenv"

	appconfig "github.com/homequest-ai/lead-assistant/internal/config"
	"github.com/homequest-ai/lead-assistant/internal/knowledge"
	"github.com/homequest-ai/lead-assistant/internal/retrieval"
	"github.com/homequest-ai/lead-assistant/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	var (
		chunksPath = flag.String("chunks", "embeddings/chunks.json", "input JSON file of knowledge chunks")
		indexPath  = flag.String("index", "", "output index file (default from KNOWLEDGE_INDEX_PATH)")
		metaPath   = flag.String("metadata", "", "output metadata file (default from KNOWLEDGE_METADATA_PATH)")
	)
	flag.Parse()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)

	if *indexPath == "" {
		*indexPath = cfg.IndexPath
	}
	if *metaPath == "" {
		*metaPath = cfg.MetadataPath
	}

	chunks, err := knowledge.LoadChunks(*chunksPath)
	if err != nil {
		logger.Error("failed to load chunks", "path", *chunksPath, "error", err)
		os.Exit(1)
	}
	if len(chunks) == 0 {
		logger.Error("no chunks to index", "path", *chunksPath)
		os.Exit(1)
	}

	encoder, err := retrieval.NewOpenAIEncoder(retrieval.OpenAIEncoderConfig{
		BaseURL: cfg.EmbeddingBaseURL,
		APIKey:  cfg.EmbeddingAPIKey,
		Model:   cfg.EmbeddingModel,
	})
	if err != nil {
		logger.Error("failed to build encoder", "error", err)
		os.Exit(1)
	}

	logger.Info("indexing knowledge base",
		"chunks", len(chunks),
		"model", cfg.EmbeddingModel,
		"dimensions", cfg.EmbeddingDimensions,
	)

	index := knowledge.NewFlatIndex(cfg.EmbeddingDimensions)
	start := time.Now()
	for i, chunk := range chunks {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		vec, err := encoder.Encode(ctx, chunk.Text)
		cancel()
		if err != nil {
			logger.Error("failed to embed chunk", "position", i, "id", chunk.ID, "error", err)
			os.Exit(1)
		}
		if err := index.Add(vec); err != nil {
			logger.Error("failed to add vector", "position", i, "id", chunk.ID, "error", err)
			os.Exit(1)
		}
	}

	if err := index.Save(*indexPath); err != nil {
		logger.Error("failed to write index", "path", *indexPath, "error", err)
		os.Exit(1)
	}
	if err := knowledge.SaveChunks(*metaPath, chunks); err != nil {
		logger.Error("failed to write metadata", "path", *metaPath, "error", err)
		os.Exit(1)
	}

	logger.Info("knowledge base indexed",
		"vectors", index.Len(),
		"index", *indexPath,
		"metadata", *metaPath,
		"duration", time.Since(start).String(),
	)
}
