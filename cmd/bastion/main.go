// Copyright 2025 The Bastion Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/adamsih300u/bastion"
	"github.com/adamsih300u/bastion/ai"
	"github.com/adamsih300u/bastion/core"
	"github.com/adamsih300u/bastion/notify"
	"github.com/adamsih300u/bastion/pipeline"
	"github.com/adamsih300u/bastion/storage"
	"github.com/adamsih300u/bastion/vectorstore/pgvector"
)

func main() {
	app := &cli.App{
		Name:  "bastion",
		Usage: "Document processing and embedding pipeline",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to YAML config file",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "ingest",
				Usage:     "Submit one or more documents and wait for completion",
				ArgsUsage: "FILE [FILE...]",
				Action:    ingestCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "user",
						Usage: "User ID to record on each document",
					},
					&cli.IntFlag{
						Name:  "priority",
						Usage: "Submission priority",
					},
					&cli.DurationFlag{
						Name:  "timeout",
						Usage: "How long to wait for each document to finish",
						Value: 10 * time.Minute,
					},
				},
			},
			{
				Name:   "recover",
				Usage:  "Resubmit documents left mid-flight by a previous run",
				Action: recoverCommand,
				Flags: []cli.Flag{
					&cli.DurationFlag{
						Name:  "timeout",
						Usage: "How long to wait for recovered documents to finish",
						Value: 30 * time.Minute,
					},
				},
			},
			{
				Name:      "status",
				Usage:     "Print the processing status of a document",
				ArgsUsage: "DOCUMENT_ID",
				Action:    statusCommand,
			},
			{
				Name:   "stats",
				Usage:  "Print queue and worker statistics",
				Action: statsCommand,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func openFromFlags(ctx context.Context, c *cli.Context) (*bastion.KnowledgeBase, *FileConfig, error) {
	config, err := LoadFileConfig(c.String("config"))
	if err != nil {
		return nil, nil, err
	}

	if config.VectorStore.URL == "" {
		return nil, nil, fmt.Errorf("vector store URL is required (config vector_store.url or DATABASE_URL)")
	}

	aiConfig := ai.NewConfig(
		ai.WithEmbeddingHost(config.Embedding.Host),
		ai.WithEmbeddingModel(config.Embedding.Model),
		ai.WithAPIToken(config.Embedding.Token),
	)
	if err := aiConfig.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid embedding configuration: %w", err)
	}

	pipeConfig := pipeline.DefaultConfig()
	pipeConfig.UploadDir = config.Database.UploadDir
	pipeConfig.Collection = config.VectorStore.Collection
	if config.Pipeline.Strategy != "" {
		pipeConfig.Strategy = config.Pipeline.Strategy
	}
	if config.Pipeline.DocumentWorkers > 0 {
		pipeConfig.DocumentWorkers = config.Pipeline.DocumentWorkers
	}
	if config.Pipeline.EmbeddingWorkers > 0 {
		pipeConfig.EmbeddingWorkers = config.Pipeline.EmbeddingWorkers
	}
	if config.Pipeline.StorageWorkers > 0 {
		pipeConfig.StorageWorkers = config.Pipeline.StorageWorkers
	}
	if config.Pipeline.MaxBatchTokens > 0 {
		pipeConfig.MaxBatchTokens = config.Pipeline.MaxBatchTokens
	}
	if config.Pipeline.MaxBatchItems > 0 {
		pipeConfig.MaxBatchItems = config.Pipeline.MaxBatchItems
	}
	if config.Pipeline.MaxRetries > 0 {
		pipeConfig.MaxRetries = config.Pipeline.MaxRetries
	}

	storeConfig := &pgvector.Config{
		ConnString: config.VectorStore.URL,
		VectorDim:  config.VectorStore.VectorDim,
		IndexLists: config.VectorStore.IndexLists,
	}

	opts := []bastion.Option{
		bastion.WithAIConfig(aiConfig),
		bastion.WithPipelineConfig(pipeConfig),
		bastion.WithVectorStoreConfig(storeConfig),
	}

	if config.Notify.AMQPURL != "" {
		notifier, err := notify.NewAMQPNotifier(config.Notify.AMQPURL, config.Notify.Queue)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect notifier: %w", err)
		}
		opts = append(opts, bastion.WithNotifier(notifier))
	}

	kb, err := bastion.Open(ctx, config.Database.Path, opts...)
	if err != nil {
		return nil, nil, err
	}
	return kb, config, nil
}

func ingestCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("at least one file argument is required")
	}

	ctx := context.Background()
	kb, _, err := openFromFlags(ctx, c)
	if err != nil {
		return err
	}
	defer kb.Close()

	userID := c.String("user")
	priority := c.Int("priority")
	timeout := c.Duration("timeout")

	var submitted []string
	for _, path := range c.Args().Slice() {
		docType, err := docTypeFromPath(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "skipping %s: %v\n", path, err)
			continue
		}

		documentID := documentIDFromPath(path)
		if !kb.Ingest(documentID, path, docType, userID, priority) {
			fmt.Fprintf(os.Stderr, "rejected %s: submission queue is full\n", path)
			continue
		}
		submitted = append(submitted, documentID)
		fmt.Fprintf(os.Stderr, "submitted %s as %s\n", path, documentID)
	}

	failures := 0
	for _, documentID := range submitted {
		if !kb.WaitForDocument(documentID, timeout) {
			failures++
		}
		status := kb.Status(documentID)
		fmt.Fprintf(os.Stderr, "%s: %s", documentID, status.Status)
		if status.Error != "" {
			fmt.Fprintf(os.Stderr, " (%s)", status.Error)
		}
		if status.Summary != nil {
			fmt.Fprintf(os.Stderr, " chunks=%d embeddings=%d",
				status.Summary.ChunksProcessed, status.Summary.EmbeddingsStored)
		}
		fmt.Fprintln(os.Stderr)
	}

	if failures > 0 {
		return fmt.Errorf("%d of %d documents did not complete", failures, len(submitted))
	}
	return nil
}

func recoverCommand(c *cli.Context) error {
	ctx := context.Background()
	kb, _, err := openFromFlags(ctx, c)
	if err != nil {
		return err
	}
	defer kb.Close()

	report, err := kb.Pipeline().RecoverPending(ctx)
	if err != nil {
		return fmt.Errorf("recovery failed: %w", err)
	}

	fmt.Fprintf(os.Stderr, "scanned %d, resubmitted %d, reimported %d, failed %d\n",
		report.Scanned, report.Resubmitted, report.Reimported, report.Failed)

	if report.Resubmitted+report.Reimported > 0 {
		if !kb.WaitForAll(c.Duration("timeout")) {
			return fmt.Errorf("recovered documents did not finish in time")
		}
	}
	return nil
}

func statusCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("exactly one DOCUMENT_ID argument is required")
	}
	documentID := c.Args().First()

	ctx := context.Background()
	kb, _, err := openFromFlags(ctx, c)
	if err != nil {
		return err
	}
	defer kb.Close()

	// The tracker is empty in a fresh process; read the persisted record.
	record, err := kb.Repository().GetDocument(ctx, documentID)
	if errors.Is(err, storage.ErrNotFound) {
		fmt.Printf("%s: not_found\n", documentID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read document: %w", err)
	}

	fmt.Printf("%s: %s\n", record.ID, record.Status)
	fmt.Printf("  type:      %s\n", record.DocType)
	fmt.Printf("  submitted: %s\n", record.SubmittedAt.Format(time.RFC3339))
	fmt.Printf("  updated:   %s\n", record.UpdatedAt.Format(time.RFC3339))
	if record.Error != "" {
		fmt.Printf("  error:     %s\n", record.Error)
	}
	if record.Quality.ChunkCount > 0 {
		fmt.Printf("  chunks:    %d\n", record.Quality.ChunkCount)
		fmt.Printf("  entities:  %d\n", record.Quality.EntityCount)
		fmt.Printf("  quality:   %.2f\n", record.Quality.MeanScore)
	}
	return nil
}

func statsCommand(c *cli.Context) error {
	ctx := context.Background()
	kb, _, err := openFromFlags(ctx, c)
	if err != nil {
		return err
	}
	defer kb.Close()

	stats := kb.QueueStats()
	fmt.Printf("queue size:      %d\n", stats.QueueSize)
	fmt.Printf("active jobs:     %d\n", stats.ActiveJobs)
	fmt.Printf("completed jobs:  %d\n", stats.CompletedJobs)
	fmt.Printf("failed jobs:     %d\n", stats.FailedJobs)
	fmt.Printf("workers running: %d\n", stats.WorkersRunning)

	processing, err := kb.Repository().GetDocumentsByStatus(ctx, core.StatusProcessing)
	if err != nil {
		return fmt.Errorf("failed to scan repository: %w", err)
	}
	fmt.Printf("persisted in-flight documents: %d\n", len(processing))
	return nil
}

func docTypeFromPath(path string) (core.DocType, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	switch ext {
	case "pdf":
		return core.DocTypePDF, nil
	case "docx":
		return core.DocTypeDOCX, nil
	case "epub":
		return core.DocTypeEPUB, nil
	case "html", "htm":
		return core.DocTypeHTML, nil
	case "md", "markdown":
		return core.DocTypeMarkdown, nil
	case "txt", "text":
		return core.DocTypeText, nil
	default:
		return "", fmt.Errorf("unsupported file extension %q", ext)
	}
}

func documentIDFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
