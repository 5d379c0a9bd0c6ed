package scheduler

import (
	"context"
	"time"

	"github.com/apimgr/tripplanner/src/database"
	"github.com/apimgr/tripplanner/src/server/metrics"
	"github.com/apimgr/tripplanner/src/server/model"
	"github.com/apimgr/tripplanner/src/utils"
)

// RegisterMaintenanceTasks wires the standing jobs: expired
// reset-token purge, daily log rotation and connection-pool metric
// refresh. A nil db skips the database-backed jobs.
func RegisterMaintenanceTasks(s *Scheduler, db *database.DB, logger *utils.Logger) error {
	if db != nil {
		resets := &models.PasswordResetModel{DB: db.DB}

		if err := s.AddTask("reset-token-purge", "@hourly", func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			purged, err := resets.DeleteExpired(ctx)
			if err != nil {
				return err
			}
			if purged > 0 {
				logger.Server("Purged %d expired password reset tokens", purged)
			}
			return nil
		}); err != nil {
			return err
		}

		if err := s.AddTaskInterval("db-pool-metrics", time.Minute, func() error {
			stats := db.Stats()
			metrics.UpdateDBStats(stats.OpenConnections, stats.InUse)
			return nil
		}); err != nil {
			return err
		}
	}

	// Midnight rotation, 30-day retention handled inside the logger
	return s.AddTask("log-rotation", "0 0 * * *", func() error {
		return logger.RotateLogs()
	})
}
