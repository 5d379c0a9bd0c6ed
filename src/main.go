package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/apimgr/tripplanner/src/config"
	"github.com/apimgr/tripplanner/src/database"
	"github.com/apimgr/tripplanner/src/scheduler"
	"github.com/apimgr/tripplanner/src/server"
	"github.com/apimgr/tripplanner/src/server/metrics"
	"github.com/apimgr/tripplanner/src/server/model"
	"github.com/apimgr/tripplanner/src/server/service"
	"github.com/apimgr/tripplanner/src/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger, err := utils.NewLogger(cfg.LogDir)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	metrics.Init(Version, CommitID, BuildDate)

	// A missing database is not fatal: the server keeps answering
	// health checks and every data route returns 503
	var db *database.DB
	if cfg.Database.Configured() {
		db, err = database.Connect(cfg.Database)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := db.SeedCatalog(ctx); err != nil {
			appLogger.Error("Failed to seed catalog: %v", err)
		}
		if err := db.BootstrapAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword, "Administrator"); err != nil {
			appLogger.Error("Failed to bootstrap admin account: %v", err)
		}
		cancel()
	} else {
		appLogger.Server("No database configured, starting in degraded mode")
	}

	deps := buildDependencies(cfg, db, appLogger)

	sched := scheduler.New(appLogger)
	if err := scheduler.RegisterMaintenanceTasks(sched, db, appLogger); err != nil {
		log.Fatalf("Failed to register maintenance tasks: %v", err)
	}
	sched.Start()

	router := server.NewRouter(deps)
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		appLogger.Server("%s %s listening on port %d (%s mode)", cfg.Branding.Title, GetVersionString(), cfg.Port, cfg.Mode)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()

	waitForShutdown(srv, deps, sched, appLogger)
}

// buildDependencies wires models, services and infrastructure into the
// router dependency bundle. Model handles stay nil without a database;
// the RequireDatabase middleware stops requests before they are touched.
func buildDependencies(cfg *config.Config, db *database.DB, appLogger *utils.Logger) server.Deps {
	deps := server.Deps{
		Config:  cfg,
		DB:      db,
		Logger:  appLogger,
		Version: Version,
		Tokens:  services.NewTokenService(cfg.JWT),
		Catalog: services.NewCatalogCache(),
		Hub:     services.NewWebSocketHub(appLogger),
	}

	deps.Bus = services.NewEventBus(deps.Hub, appLogger)
	go deps.Hub.Run()
	go deps.Bus.Run()

	shared := services.NewCacheManager(cfg.Cache)

	var (
		users      *models.UserModel
		resets     *models.PasswordResetModel
		trips      *models.TripModel
		tripCities *models.TripCityModel
		itinerary  *models.ItineraryModel
		cities     *models.CityModel
		activities *models.ActivityModel
	)
	if db != nil {
		users = &models.UserModel{DB: db.DB}
		resets = &models.PasswordResetModel{DB: db.DB}
		trips = &models.TripModel{DB: db.DB}
		tripCities = &models.TripCityModel{DB: db.DB}
		itinerary = &models.ItineraryModel{DB: db.DB}
		cities = &models.CityModel{DB: db.DB}
		activities = &models.ActivityModel{DB: db.DB}
	}

	deps.Users = users
	deps.Cities = cities
	deps.Activities = activities
	deps.Auth = services.NewAuthService(users, resets, deps.Tokens, appLogger)
	deps.Trips = services.NewTripService(trips, tripCities, itinerary, deps.Bus, shared, appLogger)
	deps.Itinerary = services.NewItineraryService(trips, itinerary, activities, deps.Bus, shared, appLogger)
	deps.Admin = services.NewAdminService(users, trips, cities, activities, db, deps.Hub, deps.Catalog, appLogger)

	return deps
}

// waitForShutdown blocks on termination signals, then drains the
// server, scheduler, bus and hub in order
func waitForShutdown(srv *http.Server, deps server.Deps, sched *scheduler.Scheduler, appLogger *utils.Logger) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	signal.Ignore(syscall.SIGHUP)

	for _, sig := range platformSignals {
		signal.Notify(sigChan, sig)
	}

	for sig := range sigChan {
		switch sig {
		case syscall.SIGINT, syscall.SIGTERM:
			appLogger.Server("Received %s, shutting down", sig)

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			if err := srv.Shutdown(ctx); err != nil {
				appLogger.Error("HTTP shutdown failed: %v", err)
			}
			cancel()

			sched.Stop()
			deps.Bus.Stop()
			deps.Hub.Stop()
			appLogger.Server("Shutdown complete")
			return

		default:
			handlePlatformSignal(sig, appLogger)
		}
	}
}
