package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"newswatch/domain"
	"newswatch/driver"
)

type storylineRepository struct {
	db     driver.DB
	logger *slog.Logger
}

// NewStorylineRepository creates a new storyline repository.
func NewStorylineRepository(db driver.DB, logger *slog.Logger) StorylineRepository {
	return &storylineRepository{
		db:     db,
		logger: logger,
	}
}

func (r *storylineRepository) Create(ctx context.Context, storyline *domain.Storyline) error {
	if err := driver.InsertStoryline(ctx, r.db, storyline); err != nil {
		r.logger.ErrorContext(ctx, "failed to create storyline", "error", err, "title", storyline.Title)
		return fmt.Errorf("failed to create storyline: %w", err)
	}

	r.logger.InfoContext(ctx, "storyline created",
		"storyline_id", storyline.ID,
		"title", storyline.Title,
		"event_count", storyline.EventCount)

	return nil
}

func (r *storylineRepository) ListOngoing(ctx context.Context) ([]*domain.Storyline, error) {
	storylines, err := driver.GetOngoingStorylines(ctx, r.db)
	if err != nil {
		r.logger.ErrorContext(ctx, "failed to list ongoing storylines", "error", err)
		return nil, fmt.Errorf("failed to list ongoing storylines: %w", err)
	}

	return storylines, nil
}

// LinkArticle adds an article to a storyline. Returns false when the edge
// already existed, so repeated clustering runs never double-link.
func (r *storylineRepository) LinkArticle(ctx context.Context, storylineID, articleID string, isKeyEvent bool) (bool, error) {
	linked, err := driver.LinkArticleToStoryline(ctx, r.db, storylineID, articleID, isKeyEvent)
	if err != nil {
		r.logger.ErrorContext(ctx, "failed to link article to storyline",
			"error", err,
			"storyline_id", storylineID,
			"article_id", articleID)
		return false, fmt.Errorf("failed to link article to storyline: %w", err)
	}

	return linked, nil
}

func (r *storylineRepository) RecordProgress(ctx context.Context, storylineID string, lastEventAt time.Time, addedCount int) error {
	if err := driver.UpdateStorylineProgress(ctx, r.db, storylineID, lastEventAt, addedCount); err != nil {
		if errors.Is(err, domain.ErrStorylineNotFound) {
			return err
		}
		r.logger.ErrorContext(ctx, "failed to record storyline progress", "error", err, "storyline_id", storylineID)
		return fmt.Errorf("failed to record storyline progress: %w", err)
	}

	return nil
}
