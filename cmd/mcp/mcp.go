package mcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/leefowlercu/imagedrop/internal/cmdutil"
	"github.com/leefowlercu/imagedrop/internal/config"
	"github.com/leefowlercu/imagedrop/internal/editor"
	mcpserver "github.com/leefowlercu/imagedrop/internal/mcp"
	"github.com/leefowlercu/imagedrop/internal/minify"
)

// Flag variables
var (
	mcpSeed   string
	mcpMinify bool
)

// MCPCmd serves the document to one MCP client over stdin and stdout.
var MCPCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve a document to an MCP client over stdio",
	Long: `Serve one in-memory document to a Model Context Protocol client over
stdin and stdout.

Tools:
  probe_image_url   classify a URL as an image or not
  paste_text        paste text at the cursor (image URLs become embeds)
  paste_image       paste base64 or data: URL image bytes at the cursor
  minify_image      scale an image into a bounding box

Resources:
  imagedrop://document   the current document snapshot

Logs go to stderr and the log file; stdout carries only protocol messages.`,
	Example: `  # Register with an MCP client
  imagedrop mcp --seed "notes: "`,
	Args:    cobra.NoArgs,
	PreRunE: validateMCP,
	RunE:    runMCP,
}

func init() {
	MCPCmd.Flags().StringVar(&mcpSeed, "seed", "", "Initial document text")
	MCPCmd.Flags().BoolVar(&mcpMinify, "minify", false, "Minify pasted images before insertion")
}

func validateMCP(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true
	return nil
}

func runMCP(cmd *cobra.Command, args []string) error {
	logger := slog.Default().With("command", "mcp")
	cfg := config.Get()

	doc := editor.NewDocument(editor.WithText(mcpSeed), editor.WithLogger(logger))
	pipeline := cmdutil.NewPipeline(cfg, doc, cmdutil.MinifyOverride(cfg, mcpMinify), logger)

	srv := mcpserver.NewServer(
		pipeline.Document,
		pipeline.Controller,
		mcpserver.DefaultConfig(),
		mcpserver.WithProber(cmdutil.NewProber(cfg.Probe, logger)),
		mcpserver.WithMinifier(minify.New(minify.WithLogger(logger)), cfg.Minify.Options()),
		mcpserver.WithBus(pipeline.Bus),
		mcpserver.WithLogger(logger),
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("failed to start mcp server; %w", err)
	}

	logger.Info("serving mcp over stdio")
	serveErr := srv.ServeStdio(ctx, cmd.InOrStdin(), cmd.OutOrStdout())

	if err := srv.Stop(context.Background()); err != nil {
		logger.Warn("mcp server stop error", "error", err)
	}
	if err := pipeline.Finish(); err != nil {
		logger.Warn("failed to finish pending items", "error", err)
	}

	if serveErr != nil && !errors.Is(serveErr, io.EOF) && !errors.Is(serveErr, context.Canceled) {
		return fmt.Errorf("mcp stdio session failed; %w", serveErr)
	}
	return nil
}
