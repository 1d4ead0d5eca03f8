// Package app wires the location bridge: storage, simulated device,
// event hub, geocoder, coordinator and task manager behind one router.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/location-bridge-go/internal/api"
	"github.com/jengzang/location-bridge-go/internal/config"
	"github.com/jengzang/location-bridge-go/internal/database"
	"github.com/jengzang/location-bridge-go/internal/geocoding"
	"github.com/jengzang/location-bridge-go/internal/heading"
	"github.com/jengzang/location-bridge-go/internal/location"
	"github.com/jengzang/location-bridge-go/internal/repository"
	"github.com/jengzang/location-bridge-go/internal/service"
	"github.com/jengzang/location-bridge-go/internal/simulator"
	"github.com/jengzang/location-bridge-go/internal/stream"
	"github.com/jengzang/location-bridge-go/internal/taskmanager"
)

// App owns every long-lived component of the bridge
type App struct {
	DB          *sql.DB
	Device      *simulator.Device
	Hub         *stream.Hub
	Coordinator *location.Coordinator
	Tasks       *taskmanager.Manager
	Router      *gin.Engine
}

// New builds the bridge from configuration and restores persisted background tasks
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := database.Open(database.Config{Path: cfg.DBPath}, logger)
	if err != nil {
		return nil, err
	}

	trackRepo := repository.NewTrackRepository(db)
	taskRepo := repository.NewTaskRepository(db)

	device := simulator.NewDevice(cfg.Device(), trackRepo, logger.With("component", "simulator"))
	hub := stream.NewHub(logger.With("component", "stream"))

	var geocoder location.GeocodingProvider
	if cfg.GeocoderEnabled {
		geocoder = geocoding.NewNominatimGeocoder(cfg.Geocoder())
	}

	coordinator := location.NewCoordinator(location.Config{
		Provider:    device,
		Settings:    device,
		UI:          device,
		Permissions: device,
		Geocoder:    geocoder,
		Sensors:     device,
		Events:      hub,
		Declination: heading.NewDipoleModel(),
		Logger:      logger.With("component", "coordinator"),
	})

	tasks := taskmanager.NewManager(taskRepo, device, device, hub, logger.With("component", "tasks"))
	if err := tasks.Restore(ctx); err != nil {
		coordinator.Close()
		db.Close()
		return nil, fmt.Errorf("failed to restore background tasks: %w", err)
	}

	router := api.SetupRouter(cfg, api.Services{
		Location:  service.NewLocationService(coordinator, device, device, logger),
		Tasks:     service.NewTaskService(tasks),
		Simulator: service.NewSimulatorService(device, trackRepo),
		Hub:       hub,
	}, logger)

	return &App{
		DB:          db,
		Device:      device,
		Hub:         hub,
		Coordinator: coordinator,
		Tasks:       tasks,
		Router:      router,
	}, nil
}

// Close stops the engine and background tasks and closes the database
func (a *App) Close() error {
	a.Tasks.Close()
	a.Coordinator.Close()
	return a.DB.Close()
}
