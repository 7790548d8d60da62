package main

import (
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gopkg.in/yaml.v2"

	"studytime/db"
	qhttp "studytime/http"
	"studytime/logging"
	"studytime/monitoring"
	"studytime/study"
)

type Config struct {
	Model struct {
		Path string `yaml:"path"`
	} `yaml:"model"`
	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`
	Http struct {
		Port           int      `yaml:"port"`
		TimeoutSeconds int      `yaml:"timeout_seconds"`
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"http"`
	Feed struct {
		RecentSize int `yaml:"recent_size"`
	} `yaml:"feed"`
	Log logging.Config `yaml:"log"`
}

const defaultModelPath = "study_time_model.json"

func main() {
	// optional .env for local overrides, loaded before anything reads the
	// environment
	_ = godotenv.Load()

	configPath := "config.yaml"
	if v := os.Getenv("STUDYTIME_CONFIG"); v != "" {
		configPath = v
	}

	config, err := loadConfig(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(config.Log)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	if err := db.InitDB(config.Database.Path); err != nil {
		logger.Fatal("failed to initialize audit database", zap.Error(err))
	}
	defer db.Close()
	if db.Enabled() {
		logger.Info("audit database ready", zap.String("path", config.Database.Path))
	}

	modelPath := config.Model.Path
	if modelPath == "" {
		modelPath = defaultModelPath
	}
	service := study.Load(modelPath, logger)

	watcher, err := study.WatchArtifact(modelPath, logger)
	if err != nil {
		logger.Warn("artifact watcher unavailable", zap.Error(err))
	} else {
		defer watcher.Close()
	}

	feed, err := monitoring.NewFeed(config.Feed.RecentSize, logger)
	if err != nil {
		logger.Fatal("failed to create prediction feed", zap.Error(err))
	}
	go feed.Run()
	defer feed.Stop()

	serverConfig := qhttp.DefaultServerConfig()
	if config.Http.Port != 0 {
		serverConfig.Port = config.Http.Port
	}
	if config.Http.TimeoutSeconds != 0 {
		serverConfig.Timeout = time.Duration(config.Http.TimeoutSeconds) * time.Second
	}
	if len(config.Http.AllowedOrigins) != 0 {
		serverConfig.AllowedOrigins = config.Http.AllowedOrigins
	}

	handlers := qhttp.NewHandlers(service, feed, logger)
	server := qhttp.NewServer(serverConfig, handlers, logger)

	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	if err := server.Stop(); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}

	logger.Info("exiting")
}

func loadConfig(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var config Config
	if err := yaml.NewDecoder(file).Decode(&config); err != nil {
		return nil, err
	}
	return &config, nil
}
