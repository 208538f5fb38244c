package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/telubhanuprasad/firestore-item-showcase/internal/config"
	"github.com/telubhanuprasad/firestore-item-showcase/internal/repository"
	fsrepo "github.com/telubhanuprasad/firestore-item-showcase/internal/repository/firestore"
	"github.com/telubhanuprasad/firestore-item-showcase/internal/repository/memory"
	pgrepo "github.com/telubhanuprasad/firestore-item-showcase/internal/repository/postgres"
	"github.com/telubhanuprasad/firestore-item-showcase/pkg/database"
)

// OpenStore connects the backend selected by cfg.StoreBackend. The store
// handle lives for the whole process; the returned close function releases
// it. Pool metrics are registered on reg when it is not nil.
func OpenStore(ctx context.Context, cfg *config.Config, reg prometheus.Registerer, logger *slog.Logger) (repository.Store, func(), error) {
	switch cfg.StoreBackend {
	case config.BackendFirestore:
		client, err := fsrepo.NewClient(ctx, cfg.FirebaseProjectID, cfg.FirebaseCredentialsFile)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("connected to Firestore",
			slog.String("project_id", cfg.FirebaseProjectID),
			slog.String("items_collection", cfg.FirestoreItemsCollection),
			slog.String("reviews_collection", cfg.FirestoreReviewsCollection),
		)
		store := fsrepo.NewStore(client, fsrepo.Collections{
			Items:   cfg.FirestoreItemsCollection,
			Reviews: cfg.FirestoreReviewsCollection,
		})
		return store, func() {
			if err := client.Close(); err != nil {
				logger.Error("firestore close error", slog.String("error", err.Error()))
			}
		}, nil

	case config.BackendPostgres:
		pool, err := database.NewPostgresPool(ctx, cfg.Postgres(), logger)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("connected to PostgreSQL",
			slog.String("host", cfg.PostgresHost),
			slog.String("database", cfg.PostgresDB),
		)
		if err := database.RunMigrations(ctx, pool, pgrepo.Migrations(), logger); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("run migrations: %w", err)
		}
		if reg != nil {
			if err := database.RegisterPoolMetrics(reg, pool, config.BackendPostgres); err != nil {
				pool.Close()
				return nil, nil, err
			}
		}
		return pgrepo.NewStore(pool), pool.Close, nil

	case config.BackendMemory:
		logger.Warn("using in-memory store; data is lost on exit")
		return memory.NewStore(), func() {}, nil
	}
	return nil, nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
}
