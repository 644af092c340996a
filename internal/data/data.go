package data

import (
	"context"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/digitora/marketplace-backend/internal/conf"
	convmodels "github.com/digitora/marketplace-backend/internal/conversion/models"
	"github.com/digitora/marketplace-backend/internal/pkg/logger"
	pkgminio "github.com/digitora/marketplace-backend/internal/pkg/minio"
	pkgredis "github.com/digitora/marketplace-backend/internal/pkg/redis"
	prodmodels "github.com/digitora/marketplace-backend/internal/product/models"
	usermodels "github.com/digitora/marketplace-backend/internal/user/models"
)

type Data struct {
	DB     *gorm.DB
	Redis  *pkgredis.Client
	MinIO  *pkgminio.Client
	Logger *logger.Logger
}

func NewData(config *conf.Config, log *logger.Logger) (*Data, func(), error) {
	// Initialize PostgreSQL
	db, err := initDB(config, log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to init database: %w", err)
	}

	// Initialize Redis
	redisClient, err := pkgredis.New(&pkgredis.Config{
		Addr:     fmt.Sprintf("%s:%d", config.Redis.Host, config.Redis.Port),
		Password: config.Redis.Password,
		DB:       config.Redis.DB,
	}, log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	// Initialize MinIO
	minioClient, err := initMinIO(config, log)
	if err != nil {
		redisClient.Close()
		return nil, nil, fmt.Errorf("failed to init minio: %w", err)
	}

	d := &Data{
		DB:     db,
		Redis:  redisClient,
		MinIO:  minioClient,
		Logger: log,
	}

	cleanup := func() {
		log.Info("cleaning up data resources")

		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}

		redisClient.Close()
	}

	return d, cleanup, nil
}

func initDB(config *conf.Config, log *logger.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(config.Database.DSN()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
		// Surfaces unique violations as gorm.ErrDuplicatedKey, which the
		// version repo relies on for the conversion cache.
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	ctx := context.Background()
	if err := usermodels.AutoMigrate(ctx, db); err != nil {
		return nil, err
	}
	if err := prodmodels.AutoMigrate(ctx, db); err != nil {
		return nil, err
	}
	if err := convmodels.AutoMigrate(ctx, db); err != nil {
		return nil, err
	}

	log.Info("database initialized successfully")
	return db, nil
}

func initMinIO(config *conf.Config, log *logger.Logger) (*pkgminio.Client, error) {
	client, err := pkgminio.NewClient(&pkgminio.Config{
		Endpoint:        config.MinIO.Endpoint,
		AccessKeyID:     config.MinIO.AccessKey,
		SecretAccessKey: config.MinIO.SecretKey,
		UseSSL:          config.MinIO.UseSSL,
	}, log.Logger)
	if err != nil {
		return nil, err
	}

	if err := client.EnsureBucket(context.Background(), config.Storage.Bucket); err != nil {
		return nil, err
	}

	return client, nil
}
