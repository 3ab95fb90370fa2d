// Package app provides the document Q&A server application.
package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/kart-io/sentinel-docqa/cmd/rag/app/options"
	ragsvc "github.com/kart-io/sentinel-docqa/internal/rag"
	"github.com/kart-io/sentinel-docqa/pkg/infra/app"
)

// commandDesc is the description of the command.
const commandDesc = `Sentinel DocQA Service

A retrieval-augmented question answering service over uploaded PDF documents.

This server provides:
  - PDF upload with text extraction, chunking and embedding
  - One vector collection per document (Milvus, Qdrant, pgvector or in-memory)
  - Question answering grounded in the most similar chunks of one document`

// NewApp creates and returns a new App object with default parameters.
func NewApp() *app.App {
	opts := options.NewServerOptions()
	return app.NewApp(
		app.WithName(ragsvc.Name),
		app.WithShortDescription("Document Q&A service"),
		app.WithDescription(commandDesc),
		app.WithOptions(opts),
		app.WithRunFunc(run(opts)),
	)
}

// run contains the main logic for initializing and running the server.
func run(opts *options.ServerOptions) app.RunFunc {
	return func() error {
		cfg, err := opts.Config()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		ctx := setupSignalContext()

		server, err := cfg.NewServer(ctx)
		if err != nil {
			return fmt.Errorf("failed to create server: %w", err)
		}

		return server.Run(ctx)
	}
}

// setupSignalContext returns a context that is cancelled on SIGINT or SIGTERM.
// A second signal exits immediately.
func setupSignalContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	c := make(chan os.Signal, 2)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		cancel()
		<-c
		os.Exit(1)
	}()
	return ctx
}
