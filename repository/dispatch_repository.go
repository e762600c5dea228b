package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"newswatch/domain"
	"newswatch/driver"
)

type dispatchRepository struct {
	db     driver.DB
	logger *slog.Logger
}

// NewDispatchRepository creates a new dispatch-record repository.
func NewDispatchRepository(db driver.DB, logger *slog.Logger) DispatchRepository {
	return &dispatchRepository{
		db:     db,
		logger: logger,
	}
}

func (r *dispatchRepository) Exists(ctx context.Context, alertID, articleID string) (bool, error) {
	exists, err := driver.DispatchExists(ctx, r.db, alertID, articleID)
	if err != nil {
		r.logger.ErrorContext(ctx, "failed to check dispatch record",
			"error", err,
			"alert_id", alertID,
			"article_id", articleID)
		return false, fmt.Errorf("failed to check dispatch record: %w", err)
	}

	return exists, nil
}

func (r *dispatchRepository) Create(ctx context.Context, record *domain.DispatchRecord) error {
	if err := driver.InsertDispatchRecord(ctx, r.db, record); err != nil {
		if errors.Is(err, domain.ErrDuplicateDispatch) {
			return err
		}
		r.logger.ErrorContext(ctx, "failed to create dispatch record",
			"error", err,
			"alert_id", record.AlertID,
			"article_id", record.ArticleID)
		return fmt.Errorf("failed to create dispatch record: %w", err)
	}

	return nil
}
