package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/wealthnest/engine/internal/clients/fundfeed"
	"github.com/wealthnest/engine/internal/config"
	"github.com/wealthnest/engine/internal/database"
	alignmenthandlers "github.com/wealthnest/engine/internal/modules/alignment/handlers"
	"github.com/wealthnest/engine/internal/modules/classifier"
	classifierhandlers "github.com/wealthnest/engine/internal/modules/classifier/handlers"
	"github.com/wealthnest/engine/internal/modules/optimization"
	optimizationhandlers "github.com/wealthnest/engine/internal/modules/optimization/handlers"
	"github.com/wealthnest/engine/internal/modules/personas"
	personashandlers "github.com/wealthnest/engine/internal/modules/personas/handlers"
	"github.com/wealthnest/engine/internal/modules/recommendation"
	recommendationhandlers "github.com/wealthnest/engine/internal/modules/recommendation/handlers"
	"github.com/wealthnest/engine/internal/modules/risk"
	riskhandlers "github.com/wealthnest/engine/internal/modules/risk/handlers"
	"github.com/wealthnest/engine/internal/modules/universe"
	universehandlers "github.com/wealthnest/engine/internal/modules/universe/handlers"
	"github.com/wealthnest/engine/internal/scheduler"
	"github.com/wealthnest/engine/internal/server"
	"github.com/wealthnest/engine/pkg/logger"
)

func main() {
	// Load configuration first so the logger honors LOG_LEVEL
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	logger.SetGlobalLogger(log)

	log.Info().Msg("Starting Wealthnest recommendation engine")

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	// Persona catalog database
	catalogDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "catalog.db"),
		Profile: database.ProfileCatalog,
		Name:    "catalog",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open catalog database")
	}
	defer catalogDB.Close()

	// Fund universe cache database
	universeDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "universe.db"),
		Profile: database.ProfileCache,
		Name:    "universe",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open universe database")
	}
	defer universeDB.Close()

	for _, db := range []*database.DB{catalogDB, universeDB} {
		if err := db.Migrate(); err != nil {
			log.Fatal().Err(err).Str("db", db.Name()).Msg("Failed to run migrations")
		}
	}

	// Repositories
	personaRepo := personas.NewRepository(catalogDB.Conn(), log)
	ruleRepo := classifier.NewRuleRepository(catalogDB.Conn(), log)
	universeRepo := universe.NewRepository(universeDB.Conn(), log)

	// Seed the catalog with defaults on first boot
	if err := personas.SeedDefaults(personaRepo, log); err != nil {
		log.Fatal().Err(err).Msg("Failed to seed personas")
	}
	if err := ruleRepo.SeedDefaults(); err != nil {
		log.Fatal().Err(err).Msg("Failed to seed classifier rules")
	}

	// Services
	feedClient := fundfeed.NewClient(cfg.FundFeedURL, time.Duration(cfg.FundFeedTimeout)*time.Second, log)
	syncService := universe.NewSyncService(feedClient, universeRepo, log)
	classifierService := classifier.NewService(personaRepo, ruleRepo, cfg.BlendSmoothing, log)
	recommendationService := recommendation.NewService(universeRepo, log)
	optimizationService := optimization.NewService(universeRepo, cfg.DriftTolerance, cfg.MinTradeAmount, log)
	riskService := risk.NewService(log)

	// Background jobs
	sched := scheduler.New(log)
	syncJob := universe.NewSyncJob(syncService, 2*time.Minute)
	schedule := fmt.Sprintf("@every %dm", cfg.FundSyncMinutes)
	if err := sched.AddJob(schedule, syncJob); err != nil {
		log.Fatal().Err(err).Msg("Failed to register universe sync job")
	}
	sched.Start()
	defer sched.Stop()

	// Warm the universe immediately, the next refresh follows the schedule
	go func() {
		if err := sched.RunNow(syncJob); err != nil {
			log.Warn().Err(err).Msg("Initial universe sync failed, serving stale or empty universe")
		}
	}()

	staleAfter := time.Duration(cfg.StaleAfterHours) * time.Hour

	srv := server.New(server.Config{
		Port:       cfg.Port,
		Log:        log,
		CatalogDB:  catalogDB,
		UniverseDB: universeDB,
		Config:     cfg,
		Scheduler:  sched,
		DevMode:    cfg.DevMode,
		Modules: []server.RouteRegistrar{
			personashandlers.NewHandler(personaRepo, log),
			classifierhandlers.NewHandler(classifierService, log),
			universehandlers.NewHandler(universeRepo, syncService, staleAfter, log),
			recommendationhandlers.NewHandler(recommendationService, classifierService, personaRepo, cfg.DefaultTopN, log),
			optimizationhandlers.NewHandler(optimizationService, log),
			alignmenthandlers.NewHandler(universeRepo, log),
			riskhandlers.NewHandler(riskService, classifierService, universeRepo, log),
		},
	})
	srv.System().SetUniverseSyncJob(syncJob)

	go func() {
		if err := srv.Start(); err != nil {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
