package repository

import (
	"context"
	"fmt"
	"log/slog"

	"newswatch/domain"
	"newswatch/driver"
)

type alertRepository struct {
	db     driver.DB
	logger *slog.Logger
}

// NewAlertRepository creates a new alert repository.
func NewAlertRepository(db driver.DB, logger *slog.Logger) AlertRepository {
	return &alertRepository{
		db:     db,
		logger: logger,
	}
}

// ListActiveAlerts loads the active rules fresh on every call; rule edits
// must take effect on the next evaluation without a cache invalidation step.
func (r *alertRepository) ListActiveAlerts(ctx context.Context) ([]*domain.AlertRule, error) {
	rules, err := driver.GetActiveAlertRules(ctx, r.db)
	if err != nil {
		r.logger.ErrorContext(ctx, "failed to list active alerts", "error", err)
		return nil, fmt.Errorf("failed to list active alerts: %w", err)
	}

	return rules, nil
}
