package main

import (
	"context"
	"time"

	mongoMigration "carbroker/internal/migrations/mongo"
	"carbroker/pkg/config"
)

const JobName = "mongo-migration"

// The job reads the same environment as the broker; MONGO_URI and
// MONGO_DATABASE_NAME pick the target.
func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	cfg := config.Load(JobName)
	cfg.SetMongo()
	defer cfg.GracefulShutdown(context.Background())

	cfg.Log.Info("Starting Mongo migration job")
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	if err := mongoMigration.RunMigration(ctx, db, cfg.Log); err != nil {
		cfg.GracefulShutdown(context.Background())
		cfg.Log.Fatal("Migration failed", "error", err)
	}
	cfg.Log.Info("Migration completed successfully")
}
