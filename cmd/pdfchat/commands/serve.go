package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/0xcro3dile/pdfchat-go/internal/adapters/filewatcher"
	"github.com/0xcro3dile/pdfchat-go/internal/domain/usecases"
	httpserver "github.com/0xcro3dile/pdfchat-go/internal/infrastructure/http"
)

var (
	serveAddr  string
	serveWatch bool
)

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Long: `Run the HTTP server.

Endpoints:
  POST /upload      multipart field "file", a PDF; rebuilds the knowledge base
  POST /ask         {"question": "...", "session_id": "..."}
  POST /reset       clear the session's conversation history
  GET  /api/health  liveness and knowledge base status
  GET  /metrics     prometheus metrics

With --watch, PDFs dropped into the upload directory are ingested too.`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}

	cmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides server.addr)")
	cmd.Flags().BoolVar(&serveWatch, "watch", false, "Ingest PDFs dropped into the upload directory")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}
	if serveWatch {
		cfg.Watcher.Enabled = true
	}

	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a.openExisting(ctx)

	if cfg.Watcher.Enabled {
		if err := startWatcher(ctx, a); err != nil {
			return err
		}
	}

	server := httpserver.NewServer(httpserver.Config{
		Addr:           cfg.Server.Addr,
		UploadDir:      cfg.Server.UploadDir,
		DeferIngest:    cfg.Watcher.Enabled,
		MaxUploadBytes: cfg.Server.MaxUploadMB << 20,
	}, a.kb, a.chat, a.metrics, a.logger.Named("http"))

	return server.Start(ctx)
}

func startWatcher(ctx context.Context, a *app) error {
	if err := os.MkdirAll(a.cfg.Server.UploadDir, 0o755); err != nil {
		return fmt.Errorf("creating upload directory: %w", err)
	}
	watcher, err := filewatcher.NewFSNotifyWatcher([]string{".pdf"}, a.logger.Named("watcher"))
	if err != nil {
		return fmt.Errorf("creating file watcher: %w", err)
	}

	auto := usecases.NewAutoIngest(watcher, a.kb, a.cfg.Watcher.Settle, a.logger.Named("auto-ingest"))
	go func() {
		if err := auto.Run(ctx, a.cfg.Server.UploadDir); err != nil {
			a.logger.Error("file watcher stopped", zap.Error(err))
		}
	}()
	return nil
}
