package main

import (
	"context"
	"log"
	"os"
	"strconv"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	redisstorage "github.com/gofiber/storage/redis"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/utnautiub/nuoi-buituantu/app/controllers"
	"github.com/utnautiub/nuoi-buituantu/app/repository"
	"github.com/utnautiub/nuoi-buituantu/internal/pkg/archive"
	"github.com/utnautiub/nuoi-buituantu/internal/pkg/cache"
	"github.com/utnautiub/nuoi-buituantu/internal/pkg/config"
	"github.com/utnautiub/nuoi-buituantu/internal/pkg/database"
	"github.com/utnautiub/nuoi-buituantu/internal/pkg/env"
	"github.com/utnautiub/nuoi-buituantu/internal/pkg/ingest"
	"github.com/utnautiub/nuoi-buituantu/internal/pkg/ledger"
	"github.com/utnautiub/nuoi-buituantu/internal/pkg/memo"
	"github.com/utnautiub/nuoi-buituantu/internal/pkg/metrics/counter"
	"github.com/utnautiub/nuoi-buituantu/internal/pkg/router"
	"github.com/utnautiub/nuoi-buituantu/internal/pkg/sepay"
	"github.com/utnautiub/nuoi-buituantu/internal/pkg/subscription"
	"github.com/utnautiub/nuoi-buituantu/internal/pkg/tiers"
	"github.com/utnautiub/nuoi-buituantu/internal/pkg/usercode"
)

func main() {
	env.SetupEnvFile()
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	db, err := database.SetupDatabase(cfg.Database)
	if err != nil {
		log.Fatal(err)
	}
	cacheClient := cache.SetupCache(cfg.Cache)

	app, err := NewApplication(cfg, db, cacheClient)
	if err != nil {
		log.Fatal(err)
	}
	log.Fatal(app.Listen(cfg.Addr()))
}

func NewApplication(cfg *config.Config, db *gorm.DB, cacheClient *redis.Client) (*fiber.App, error) {
	if cfg.SePay.WebhookSecret == "" {
		log.Print("Warning: SEPAY_WEBHOOK_SECRET is empty, every webhook will be rejected")
	}

	repos := repository.NewFactory(db).GetRepositories()
	parser := memo.NewParser(cfg.SePay.CodePrefix, memo.DefaultKeywords)
	resolver := usercode.NewResolver(repos.UserCode, parser.CodePrefix())
	donations := ledger.New(repos.Donation)
	machine := subscription.NewMachine(repos.Subscription)

	archiver, err := archive.New(context.Background(), cfg.Archive)
	if err != nil {
		return nil, err
	}

	deps := ingest.Dependencies{
		Ledger:        donations,
		Users:         resolver,
		Subscriptions: machine,
		Tiers:         tiers.DefaultTable(),
		Parser:        parser,
		Deliveries:    sepay.NewDeliveryLog(repos.WebhookDelivery),
		Archiver:      archiver,
	}
	var (
		stats          controllers.StatsReader
		limiterStorage fiber.Storage
	)
	if cacheClient != nil {
		recorder := counter.NewRecorder(cacheClient)
		deps.Locker = cache.NewLocker(cacheClient)
		deps.Counter = recorder
		stats = recorder

		port, _ := strconv.Atoi(cfg.Cache.Port)
		limiterStorage = redisstorage.New(redisstorage.Config{
			Host:     cfg.Cache.Host,
			Port:     port,
			Password: cfg.Cache.Password,
			Database: 2, // 0 holds locks and counters
			Reset:    false,
		})
	}
	orchestrator := ingest.NewOrchestrator(cfg.SePay.WebhookSecret, deps)

	app := fiber.New(fiber.Config{
		BodyLimit: 1 << 20,
	})

	// recovery and logging
	app.Use(recover.New(), logger.New())

	// SWAGGER / OPENAPI
	if specPath := findOpenAPISpec(); specPath != "" {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/docs/api/",
			FilePath: specPath,
			Path:     "v1",
			Title:    "Nuoi Bui Tuan Tu API",
		}))
	}

	router.InstallRouter(app, router.Services{
		Webhook:        controllers.NewWebhookController(orchestrator),
		Admin:          controllers.NewAdminAPIController(resolver, parser, donations, machine, stats),
		AdminAPIKey:    cfg.AdminAPIKey,
		LimiterStorage: limiterStorage,
	})

	return app, nil
}

func findOpenAPISpec() string {
	for _, base := range []string{"./", "../../", "../../../"} {
		path := base + "docs/v1/openapi.yml"
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	log.Print("OpenAPI document not found, /docs/api/v1 disabled")
	return ""
}
