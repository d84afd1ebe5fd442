package history

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

const maintenanceInterval = 1 * time.Hour

func (s *SQLiteStore) startMaintenance(ctx context.Context, retentionDays int) {
	go s.maintenanceLoop(ctx, retentionDays)
}

func (s *SQLiteStore) maintenanceLoop(ctx context.Context, retentionDays int) {
	defer close(s.maintenanceDone)

	ticker := time.NewTicker(maintenanceInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.purgeOlderThan(retentionDays); err != nil {
				slog.Error("history maintenance failed", "err", err)
			}
		}
	}
}

func (s *SQLiteStore) purgeOlderThan(retentionDays int) error {
	modifier := fmt.Sprintf("-%d days", retentionDays)
	_, err := s.db.Exec("DELETE FROM attempts WHERE datetime(submitted_at) < datetime('now', ?)", modifier)
	if err != nil {
		return fmt.Errorf("pruning old attempts: %w", err)
	}
	return nil
}
