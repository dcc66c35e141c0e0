package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"aide/internal/agent"
	"aide/internal/archive"
	"aide/internal/gateway"
	"aide/internal/registry"
	"aide/internal/session"
	"aide/internal/speech"
	"aide/internal/toolkit"
	"aide/pkg/config"
	"aide/pkg/logger"
)

func main() {
	// Load configuration first so the logger matches the environment
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load configuration: %v", err))
	}

	if err := logger.Init(cfg.Env); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	log := logger.Get()
	log.Info("Starting assistant server...")

	// Core components
	sessions := session.NewManager(cfg.MaxSessionTurns)
	gw := gateway.New(cfg.OpenAIAPIURL, cfg.OpenAIAPIKey, cfg.ModelID, cfg.GatewayTimeout)
	speechClient := speech.NewClient(cfg.STTServiceURL, cfg.TTSServiceURL)
	assembler := agent.NewAssembler(speechClient)

	reg := registry.New(cfg.ToolTimeout)
	err = toolkit.Register(reg, toolkit.Deps{
		Completer: gw,
		Notion:    toolkit.NewNotionClient(cfg.NotionAPIKey, cfg.NotionParentPageID),
		Email: toolkit.NewEmailTool(toolkit.EmailConfig{
			SMTPHost:    cfg.SMTPHost,
			SMTPPort:    cfg.SMTPPort,
			IMAPHost:    cfg.IMAPHost,
			IMAPPort:    cfg.IMAPPort,
			Address:     cfg.MailAddress,
			AppPassword: cfg.MailAppPassword,
		}),
	})
	if err != nil {
		log.Fatal("Failed to register tools", zap.Error(err))
	}

	orch := agent.NewOrchestrator(sessions, gw, reg, assembler, agent.Options{
		MaxToolRounds:   cfg.MaxToolRounds,
		ToolParallelism: cfg.ToolParallelism,
	})

	// Optional transcript archive
	if cfg.ArchiveEnabled() {
		arc, err := archive.New(context.Background(), cfg.Neo4jURI, cfg.Neo4jUser, cfg.Neo4jPassword)
		if err != nil {
			log.Fatal("Failed to connect transcript archive", zap.Error(err))
		}
		defer arc.Close(context.Background())
		orch.SetArchive(arc)
		log.Info("Transcript archive enabled", zap.String("uri", cfg.Neo4jURI))
	}

	// Setup Gin router
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(ginLogger(log))
	router.Use(gin.Recovery())

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// API routes
	api := router.Group("/api")
	{
		// Create a session
		api.POST("/session", func(c *gin.Context) {
			sess := sessions.Create()
			c.JSON(http.StatusOK, gin.H{
				"session_id": sess.ID,
				"greeting":   session.Greeting,
			})
		})

		// Read a history snapshot
		api.GET("/session/:id/history", func(c *gin.Context) {
			sess, err := sessions.Get(c.Param("id"))
			if err != nil {
				c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
				return
			}
			c.JSON(http.StatusOK, gin.H{"turns": sess.History(0)})
		})

		// Chat with the assistant
		api.POST("/session/:id/chat", func(c *gin.Context) {
			var req struct {
				Message string `json:"message" binding:"required"`
			}
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}

			resp := orch.Handle(c.Request.Context(), c.Param("id"), req.Message)
			c.JSON(httpStatus(resp), resp)
		})

		// Voice round-trip: audio in, (possibly) audio out
		api.POST("/session/:id/voice", func(c *gin.Context) {
			audio, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, 16<<20))
			if err != nil || len(audio) == 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "audio body required"})
				return
			}

			text, err := speechClient.Transcribe(c.Request.Context(), audio)
			if err != nil {
				log.Error("Transcription failed", zap.Error(err))
				c.JSON(http.StatusBadGateway, agent.ErrorResponse("could not transcribe audio"))
				return
			}

			resp := orch.Handle(c.Request.Context(), c.Param("id"), text)
			c.JSON(httpStatus(resp), resp)
		})

		// Tool inventory
		api.GET("/tools", func(c *gin.Context) {
			descriptors := reg.Descriptors()
			names := make([]string, 0, len(descriptors))
			for _, d := range descriptors {
				names = append(names, d.Name)
			}
			c.JSON(http.StatusOK, gin.H{
				"count": len(names),
				"tools": names,
			})
		})
	}

	// Start server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Graceful shutdown
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	log.Info("Server started", zap.String("port", cfg.Port))

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited")
}

// httpStatus maps an agent response onto an HTTP status; the body is the
// typed response either way
func httpStatus(resp *agent.AgentResponse) int {
	if resp.Status == agent.StatusSuccess {
		return http.StatusOK
	}
	return http.StatusUnprocessableEntity
}

// ginLogger is a custom logger middleware for Gin
func ginLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		if raw != "" {
			path = path + "?" + raw
		}

		log.Info("HTTP Request",
			zap.Int("status", status),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Duration("latency", latency),
			zap.String("ip", c.ClientIP()),
		)
	}
}
