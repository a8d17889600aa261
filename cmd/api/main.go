package main

import (
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"regexp"
	"strconv"
	"time"

	"github.com/Leventi/bl-parser/internal/config"
	"github.com/Leventi/bl-parser/internal/database"
	"github.com/Leventi/bl-parser/internal/fetcher"
	"github.com/Leventi/bl-parser/internal/parser"
	"github.com/Leventi/bl-parser/internal/registry"
	"github.com/Leventi/bl-parser/internal/scheduler"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

var (
	store        *database.Store
	appConfig    *config.Config
	syncJob      *registry.SyncJob
	lookup       *registry.Lookup
	appScheduler *scheduler.Scheduler
)

var innPattern = regexp.MustCompile(`^[0-9]{10,12}$`)

func main() {
	// Optional .env for local development
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded environment from .env")
	}

	// Load configuration
	configPath := getEnv("CONFIG_PATH", "config.yaml")
	var err error
	appConfig, err = config.LoadConfig(configPath)
	if err != nil {
		log.Printf("Warning: Failed to load config from %s: %v. Using defaults.", configPath, err)
		appConfig = config.DefaultConfig()
	} else {
		log.Printf("Loaded configuration from %s", configPath)
	}

	// Initialize database
	dbCfg := appConfig.Database
	port := dbCfg.Port
	if envPort := os.Getenv("DB_PORT"); envPort != "" {
		if p, err := strconv.Atoi(envPort); err == nil {
			port = p
		}
	}

	store, err = database.NewStore(
		getEnvOrConfig(dbCfg.Host, "DB_HOST", "db"),
		port,
		getEnvOrConfig(dbCfg.User, "DB_USER", "monopoly_user"),
		getEnvOrConfig(dbCfg.Password, "DB_PASSWORD", "monopoly_pass"),
		getEnvOrConfig(dbCfg.Database, "DB_NAME", "monopoly_db"),
		getEnvOrConfig(dbCfg.SSLMode, "DB_SSLMODE", "disable"),
	)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer store.Close()

	if err := store.InitSchema(); err != nil {
		log.Fatalf("Failed to initialize schema: %v", err)
	}

	// Wire the synchronization pipeline
	source := fetcher.New(appConfig.Fetcher)
	syncJob = registry.NewSyncJob(store, source)
	lookup = registry.NewLookup(store)

	// Start the scheduler
	appScheduler = scheduler.NewScheduler(syncJob, appConfig)
	if err := appScheduler.Start(); err != nil {
		log.Printf("Warning: Failed to start scheduler: %v", err)
	}
	defer appScheduler.Stop()

	// Setup Gin router
	r := gin.Default()

	// CORS configuration
	r.Use(cors.New(cors.Config{
		AllowOrigins:     appConfig.Server.CORSOrigins,
		AllowMethods:     []string{"GET", "POST"},
		AllowHeaders:     []string{"Origin", "Content-Type"},
		AllowCredentials: true,
	}))

	// Routes
	r.GET("/health", healthCheck)

	api := r.Group("/api/v1")
	{
		api.GET("/monopoly_check", monopolyCheck)
		api.GET("/monopoly_update", monopolyUpdate)
		api.POST("/manual_file_upload", manualFileUpload)
		api.GET("/sync/status", syncStatus)
	}

	httpPort := getEnv("PORT", appConfig.Server.Port)
	log.Printf("Server starting on port %s", httpPort)
	if err := r.Run(":" + httpPort); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now(),
	})
}

// monopolyCheck answers whether a company is in the natural-monopoly list.
// With history=true a company that was ever listed also matches.
func monopolyCheck(c *gin.Context) {
	inn := c.Query("inn")
	if !innPattern.MatchString(inn) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "inn must be a 10-12 digit number"})
		return
	}

	history, _ := strconv.ParseBool(c.DefaultQuery("history", "false"))

	record, err := lookup.Find(inn, history)
	if errors.Is(err, registry.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Not Found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, record)
}

// monopolyUpdate triggers one synchronization pass from the live source
func monopolyUpdate(c *gin.Context) {
	summary, err := syncJob.RunTablePass()
	if err != nil {
		status := statusForSyncError(err)
		c.JSON(status, gin.H{"detail": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"detail":  summary.Message,
		"summary": summary,
	})
}

// manualFileUpload ingests an operator-curated workbook through the same
// reconciliation rules as the scraped table.
func manualFileUpload(c *gin.Context) {
	fileBytes, err := readUpload(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "failed to read uploaded file"})
		return
	}

	summary, err := syncJob.RunUpload(fileBytes)
	if err != nil {
		status := statusForSyncError(err)
		c.JSON(status, gin.H{"detail": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"detail":  summary.Message,
		"summary": summary,
	})
}

// syncStatus reports the outcome of recent synchronization passes
func syncStatus(c *gin.Context) {
	state, err := store.GetSyncState()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	listed, _ := store.CountListed()
	removed, _ := store.CountRemoved()

	c.JSON(http.StatusOK, gin.H{
		"state": state,
		"records": gin.H{
			"listed":  listed,
			"removed": removed,
			"total":   listed + removed,
		},
	})
}

// readUpload accepts the workbook either as a multipart "file" field or as
// a raw request body.
func readUpload(c *gin.Context) ([]byte, error) {
	if fileHeader, err := c.FormFile("file"); err == nil {
		file, err := fileHeader.Open()
		if err != nil {
			return nil, err
		}
		defer file.Close()
		return io.ReadAll(file)
	}

	return c.GetRawData()
}

// statusForSyncError maps pipeline failures onto response codes. Upstream
// and validation problems are the caller-visible 400s; an overlapping pass
// is a conflict; anything else is internal.
func statusForSyncError(err error) int {
	switch {
	case errors.Is(err, registry.ErrSyncRunning):
		return http.StatusConflict
	case errors.Is(err, fetcher.ErrUpstream), errors.Is(err, parser.ErrValidation):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// getEnvOrConfig prefers the config value, then the environment, then a default
func getEnvOrConfig(configValue, envKey, fallback string) string {
	if configValue != "" {
		return configValue
	}
	return getEnv(envKey, fallback)
}
