package bootstrap

import (
	"context"
	"fmt"

	"lark/internal/app/server"
	"lark/internal/config"
	"lark/internal/database"
	"lark/internal/jobs/maintenance"
	"lark/internal/session"
	"lark/internal/support"
)

// Setup prepares every shared dependency: settings, database, redis-backed
// sessions and the background pruning job. Must complete before the server
// starts accepting requests, since the admission pipeline needs the store.
func Setup() error {
	config.ReadSettings()

	if _, err := database.SetupDB(); err != nil {
		return fmt.Errorf("bootstrap: setup database: %w", err)
	}

	redisClient, err := support.GetRedisClient()
	if err != nil {
		return fmt.Errorf("bootstrap: redis client: %w", err)
	}

	config.EnableRedisSynchronization(context.Background(), redisClient)
	server.ConfigureSessions(session.NewRedisStore(redisClient))

	go maintenance.StartSecurityPruneRoutine(context.Background())

	return nil
}
