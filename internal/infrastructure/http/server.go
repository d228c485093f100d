// Package http provides the HTTP server infrastructure.
// Clean Architecture: Framework/driver layer - outermost circle.
package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/0xcro3dile/pdfchat-go/internal/domain/usecases"
	"github.com/0xcro3dile/pdfchat-go/internal/metrics"
)

// DefaultMaxUploadBytes caps a PDF upload.
const DefaultMaxUploadBytes = 64 << 20

// Config configures the HTTP server.
type Config struct {
	Addr      string
	UploadDir string

	// DeferIngest only saves uploads; a directory watcher ingests them.
	DeferIngest bool

	MaxUploadBytes int64
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
}

// Server is the HTTP server for upload, chat and operational endpoints.
type Server struct {
	cfg     Config
	kb      *usecases.KnowledgeBase
	chat    *usecases.ChatService
	metrics *metrics.Metrics
	logger  *zap.Logger
	engine  *gin.Engine
}

// NewServer creates a new HTTP server and registers its routes.
func NewServer(
	cfg Config,
	kb *usecases.KnowledgeBase,
	chat *usecases.ChatService,
	m *metrics.Metrics,
	logger *zap.Logger,
) *Server {
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = 30 * time.Second
	}
	if cfg.WriteTimeout <= 0 {
		// Covers ingestion of large documents.
		cfg.WriteTimeout = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{
		cfg:     cfg,
		kb:      kb,
		chat:    chat,
		metrics: m,
		logger:  logger,
	}
	s.engine = s.routes()
	return s
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.MaxMultipartMemory = 8 << 20
	r.Use(gin.Recovery(), accessLog(s.logger, s.metrics), cors())

	r.GET("/", s.handleIndex)
	r.POST("/upload", s.handleUpload)
	r.POST("/ask", s.handleAsk)
	r.POST("/reset", s.handleReset)

	api := r.Group("/api")
	api.GET("/health", s.handleHealth)

	if s.metrics != nil {
		r.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}
	return r
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.engine,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	s.logger.Info("server starting", zap.String("addr", s.cfg.Addr))

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn("server shutdown", zap.Error(err))
		}
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
