package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/viper"

	"github.com/jengzang/dwell-backend-go/internal/config"
	"github.com/jengzang/dwell-backend-go/internal/database"
	"github.com/jengzang/dwell-backend-go/internal/logutil"
	"github.com/jengzang/dwell-backend-go/internal/publisher"
	"github.com/jengzang/dwell-backend-go/internal/repository"
	"github.com/jengzang/dwell-backend-go/internal/repository/memory"
	"github.com/jengzang/dwell-backend-go/internal/repository/sqlstore"
	"github.com/jengzang/dwell-backend-go/internal/service"
	"github.com/jengzang/dwell-backend-go/internal/tracker"
	"github.com/jengzang/dwell-backend-go/internal/zonefile"
)

// app holds what every subcommand needs
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	store   repository.Store
	closeFn func() error
}

func newApp(v *viper.Viper) (*app, error) {
	cfg, err := config.Load(v)
	if err != nil {
		return nil, err
	}

	logger, err := logutil.LoggerFromViper(v)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)

	store, closeFn, err := openStore(cfg.Storage)
	if err != nil {
		return nil, err
	}

	return &app{cfg: cfg, logger: logger, store: store, closeFn: closeFn}, nil
}

func (a *app) Close() {
	if err := a.closeFn(); err != nil {
		a.logger.Warn("close storage failed", "error", err)
	}
}

// locationService builds the tracker service on top of the app's store
func (a *app) locationService(ctx context.Context, pub publisher.TransitionPublisher) *service.LocationService {
	return service.NewLocationService(ctx, a.store, pub, a.logger,
		tracker.WithRetentionDays(a.cfg.Tracker.RetentionDays))
}

// seedZones adds zones from the configured YAML file; existing names are kept
func (a *app) seedZones(ctx context.Context, svc *service.LocationService) error {
	if a.cfg.Zones.File == "" {
		return nil
	}
	zones, err := zonefile.ReadFile(a.cfg.Zones.File)
	if err != nil {
		return err
	}
	added := 0
	for _, z := range zones {
		err := svc.AddZone(ctx, z)
		switch {
		case err == nil:
			added++
		case errors.Is(err, tracker.ErrZoneExists):
		default:
			return fmt.Errorf("seed zone %q: %w", z.Name, err)
		}
	}
	a.logger.Info("zones seeded", "file", a.cfg.Zones.File, "added", added, "total", len(zones))
	return nil
}

func openStore(cfg config.StorageConfig) (repository.Store, func() error, error) {
	if cfg.Driver == config.StorageMemory {
		return memory.NewStore(), func() error { return nil }, nil
	}

	db, err := database.Open(database.Config{
		Driver:       cfg.Driver,
		DSN:          cfg.DSN,
		MaxOpenConns: cfg.MaxOpenConns,
	})
	if err != nil {
		return nil, nil, err
	}

	if err := database.NewMigrationManager(db, cfg.Driver).RunMigrations(); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return sqlstore.NewStore(db, cfg.Driver), db.Close, nil
}
