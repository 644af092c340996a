package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/digitora/marketplace-backend/internal/conf"
	convmodels "github.com/digitora/marketplace-backend/internal/conversion/models"
	prodmodels "github.com/digitora/marketplace-backend/internal/product/models"
	usermodels "github.com/digitora/marketplace-backend/internal/user/models"
)

var (
	configFile = flag.String("config", "config.yaml", "config file path")
)

// Applies the full schema without starting the server. Useful for deploy
// pipelines that migrate before rolling new instances.
func main() {
	flag.Parse()

	config, err := conf.LoadConfig(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	db, err := gorm.Open(postgres.Open(config.Database.DSN()), &gorm.Config{TranslateError: true})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect to database: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	for _, migrate := range []func(context.Context, *gorm.DB) error{
		usermodels.AutoMigrate,
		prodmodels.AutoMigrate,
		convmodels.AutoMigrate,
	} {
		if err := migrate(ctx, db); err != nil {
			fmt.Fprintf(os.Stderr, "migration failed: %v\n", err)
			os.Exit(1)
		}
	}

	fmt.Println("migrations applied")
}
