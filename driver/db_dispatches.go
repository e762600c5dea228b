package driver

import (
	"context"
	"fmt"

	"newswatch/domain"
)

// DispatchExists reports whether a notification was already enqueued for the
// (alert, article) pair.
func DispatchExists(ctx context.Context, db DB, alertID, articleID string) (bool, error) {
	if db == nil {
		return false, fmt.Errorf("database connection is nil")
	}

	query := `
		SELECT EXISTS (
			SELECT 1 FROM notification_dispatches
			WHERE alert_id = $1 AND article_id = $2
		)
	`

	var exists bool
	if err := db.QueryRow(ctx, query, alertID, articleID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check dispatch record: %w", err)
	}

	return exists, nil
}

// InsertDispatchRecord writes the at-most-once marker for an (alert, article)
// pair. The pair is the primary key; losing the insert race surfaces as
// domain.ErrDuplicateDispatch so the caller can drop the redundant job.
func InsertDispatchRecord(ctx context.Context, db DB, record *domain.DispatchRecord) error {
	if db == nil {
		return fmt.Errorf("database connection is nil")
	}

	query := `
		INSERT INTO notification_dispatches (alert_id, article_id, channels, created_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (alert_id, article_id) DO NOTHING
	`

	tag, err := db.Exec(ctx, query, record.AlertID, record.ArticleID, record.Channels)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateDispatch
		}
		return fmt.Errorf("failed to insert dispatch record: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrDuplicateDispatch
	}

	return nil
}
