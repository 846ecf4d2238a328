package main

import (
	"context"
	"log"
	"os"

	chromago "github.com/amikos-tech/chroma-go/pkg/api/v2"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/cloudymate/cloudymate/config"
	"github.com/cloudymate/cloudymate/controller"
	"github.com/cloudymate/cloudymate/services"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables.")
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("FATAL: Invalid configuration: %v", err)
	}

	if err := os.MkdirAll(cfg.UploadDir, 0755); err != nil {
		log.Fatalf("FATAL: Failed to create upload directory %s: %v", cfg.UploadDir, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Chroma client for the vector index
	chromaClient, err := chromago.NewHTTPClient(chromago.WithBaseURL(cfg.ChromaURL))
	if err != nil {
		log.Fatalf("FATAL: Failed to create chroma client: %v", err)
	}
	defer func() {
		if closeErr := chromaClient.Close(); closeErr != nil {
			log.Printf("Warning: Failed to close chroma client: %v", closeErr)
		}
	}()

	// Bedrock client for generation and embeddings
	bedrockClient, err := services.NewBedrockClient(ctx, cfg)
	if err != nil {
		log.Fatalf("FATAL: Failed to create bedrock client: %v. Make sure AWS credentials are set.", err)
	}
	log.Printf("Successfully connected to AWS Bedrock (region %s, model %s).", cfg.AWSRegion, cfg.BedrockModelID)

	// Assemble the pipeline
	index := services.NewChromaIndex(chromaClient, cfg.ChromaCollection, bedrockClient)
	store := services.NewDocumentStore(index)
	validator := services.NewContentValidator(bedrockClient, cfg.FailClosed())
	pipeline := services.NewRAGPipeline(store, bedrockClient)
	ingestor := services.NewIngestionService(validator, store,
		services.IngestChunkSize, services.IngestChunkOverlap)
	ragController := controller.NewRAGController(ingestor, pipeline, store, cfg.UploadDir)

	// Optional drop-folder ingestion
	if cfg.WatchDir != "" {
		watchIngestor := services.NewIngestionService(validator, store,
			services.DefaultChunkSize, services.DefaultChunkOverlap)
		go services.NewDirectoryWatcher(watchIngestor).Watch(ctx, cfg.WatchDir)
	}

	// Setup Gin router
	router := gin.Default()

	router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	router.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"service": "CloudyMate API",
			"status":  "running",
			"version": "1.0.0",
		})
	})
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"service": "CloudyMate API",
		})
	})

	router.POST("/upload_pdf", ragController.UploadPDF)
	router.POST("/ask", ragController.Ask)
	router.POST("/chat", ragController.Chat)
	router.GET("/documents", ragController.GetDocuments)

	log.Printf("CloudyMate backend starting on http://localhost:%s", cfg.Port)
	log.Printf("Health check available at: http://localhost:%s/health", cfg.Port)
	log.Printf("API endpoints:")
	log.Printf("  POST http://localhost:%s/upload_pdf", cfg.Port)
	log.Printf("  POST http://localhost:%s/ask", cfg.Port)

	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("FATAL: Failed to start server: %v", err)
	}
}
