package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	aiopenai "github.com/digitora/marketplace-backend/internal/ai/openai"
	"github.com/digitora/marketplace-backend/internal/auth"
	"github.com/digitora/marketplace-backend/internal/conf"
	convbiz "github.com/digitora/marketplace-backend/internal/conversion/biz"
	convdata "github.com/digitora/marketplace-backend/internal/conversion/data"
	convservice "github.com/digitora/marketplace-backend/internal/conversion/service"
	"github.com/digitora/marketplace-backend/internal/data"
	"github.com/digitora/marketplace-backend/internal/pkg/logger"
	prodbiz "github.com/digitora/marketplace-backend/internal/product/biz"
	proddata "github.com/digitora/marketplace-backend/internal/product/data"
	"github.com/digitora/marketplace-backend/internal/product/loader"
	prodservice "github.com/digitora/marketplace-backend/internal/product/service"
	"github.com/digitora/marketplace-backend/internal/server"
	userbiz "github.com/digitora/marketplace-backend/internal/user/biz"
	userdata "github.com/digitora/marketplace-backend/internal/user/data"
	userservice "github.com/digitora/marketplace-backend/internal/user/service"
)

var (
	configFile = flag.String("config", "config.yaml", "config file path")
)

func main() {
	flag.Parse()

	// Load configuration
	config, err := conf.LoadConfig(*configFile)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize logger with config
	logConfig := &logger.Config{
		Level:            config.Log.Level,
		Format:           config.Log.Format,
		Output:           config.Log.Output,
		EnableCaller:     config.Log.EnableCaller,
		EnableStacktrace: config.Log.EnableStacktrace,
		File: logger.FileConfig{
			Filename:   config.Log.File.Filename,
			MaxSize:    config.Log.File.MaxSize,
			MaxAge:     config.Log.File.MaxAge,
			MaxBackups: config.Log.File.MaxBackups,
			Compress:   config.Log.File.Compress,
		},
	}

	log, err := logger.New(logConfig)
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer log.Sync()

	if err := logger.InitGlobal(logConfig); err != nil {
		log.Fatal("failed to initialize global logger", zap.Error(err))
	}

	log.Info("config loaded successfully")

	// Initialize data layer
	d, cleanup, err := data.NewData(config, log)
	if err != nil {
		log.Fatal("failed to initialize data layer", zap.Error(err))
	}
	defer cleanup()

	jwtManager := auth.NewJWTManager(config.Auth.JWTSecret, config.Auth.JWTIssuer)

	// Initialize repositories
	userRepo := userdata.NewUserRepo(d.DB)
	productRepo := proddata.NewProductRepo(d.DB)
	versionRepo := proddata.NewVersionRepo(d.DB)
	historyRepo := proddata.NewDownloadHistoryRepo(d.DB)
	usageRepo := convdata.NewUsageRepo(d.DB)
	blobStore := proddata.NewBlobStore(d.MinIO, config.Storage.Bucket, config.Storage.PresignExpiry)

	// Initialize AI provider
	aiProvider, err := aiopenai.NewProvider(&aiopenai.Config{
		APIKey:             config.OpenAI.APIKey,
		BaseURL:            config.OpenAI.BaseURL,
		TranscriptionModel: config.OpenAI.TranscriptionModel,
		ChatModel:          config.OpenAI.ChatModel,
		SpeechModel:        config.OpenAI.SpeechModel,
		SpeechVoice:        config.OpenAI.SpeechVoice,
		Timeout:            config.OpenAI.Timeout,
	}, log)
	if err != nil {
		log.Fatal("failed to initialize ai provider", zap.Error(err))
	}

	// Initialize use cases
	userUseCase := userbiz.NewUserUseCase(userRepo, jwtManager)
	productUseCase := prodbiz.NewProductUseCase(
		productRepo,
		versionRepo,
		historyRepo,
		blobStore,
		loader.NewExtractor(),
		config.Storage.MaxUploadSize,
		log,
	)
	converter := convbiz.NewConverter(
		productRepo,
		versionRepo,
		usageRepo,
		blobStore,
		aiProvider,
		aiProvider,
		aiProvider,
		log,
	)
	usageUseCase := convbiz.NewUsageUseCase(usageRepo)

	// Initialize services
	services := &server.Services{
		User:       userservice.NewUserService(userUseCase, log.Logger),
		Product:    prodservice.NewProductService(productUseCase, log.Logger),
		Conversion: convservice.NewConversionService(converter, usageUseCase, log.Logger),
	}

	httpServer := server.NewHTTPServer(config, log, jwtManager, d.Redis, services)

	go func() {
		if err := httpServer.Start(); err != nil {
			log.Fatal("failed to start HTTP server", zap.Error(err))
		}
	}()

	log.Info("server started successfully")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := httpServer.Stop(ctx); err != nil {
		log.Error("HTTP server forced to shutdown", zap.Error(err))
	}

	log.Info("server exited")
}
