package driver

import (
	"context"
	"fmt"
	"time"

	"newswatch/domain"
)

// InsertStoryline persists a new storyline.
func InsertStoryline(ctx context.Context, db DB, storyline *domain.Storyline) error {
	if db == nil {
		return fmt.Errorf("database connection is nil")
	}

	query := `
		INSERT INTO storylines (id, title, description, category, status, first_event_at, last_event_at, event_count)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := db.Exec(ctx, query,
		storyline.ID,
		storyline.Title,
		storyline.Description,
		storyline.Category,
		string(storyline.Status),
		storyline.FirstEventAt,
		storyline.LastEventAt,
		storyline.EventCount,
	)
	if err != nil {
		return fmt.Errorf("failed to insert storyline: %w", err)
	}

	return nil
}

// GetOngoingStorylines returns all storylines still marked ongoing, newest
// activity first.
func GetOngoingStorylines(ctx context.Context, db DB) ([]*domain.Storyline, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}

	query := `
		SELECT id, title, description, category, status, first_event_at, last_event_at, event_count
		FROM storylines
		WHERE status = 'ongoing'
		ORDER BY last_event_at DESC
	`

	rows, err := db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query ongoing storylines: %w", err)
	}
	defer rows.Close()

	var storylines []*domain.Storyline

	for rows.Next() {
		var storyline domain.Storyline
		var status string

		err := rows.Scan(
			&storyline.ID,
			&storyline.Title,
			&storyline.Description,
			&storyline.Category,
			&status,
			&storyline.FirstEventAt,
			&storyline.LastEventAt,
			&storyline.EventCount,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan storyline row: %w", err)
		}

		storyline.Status = domain.StorylineStatus(status)
		storylines = append(storylines, &storyline)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read storyline rows: %w", err)
	}

	return storylines, nil
}

// LinkArticleToStoryline inserts a join-table edge. The composite primary key
// makes re-linking a no-op; the return value reports whether a new edge was
// actually created so callers only count genuinely new members.
func LinkArticleToStoryline(ctx context.Context, db DB, storylineID, articleID string, isKeyEvent bool) (bool, error) {
	if db == nil {
		return false, fmt.Errorf("database connection is nil")
	}

	query := `
		INSERT INTO storyline_articles (storyline_id, article_id, is_key_event, added_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (storyline_id, article_id) DO NOTHING
	`

	tag, err := db.Exec(ctx, query, storylineID, articleID, isKeyEvent)
	if err != nil {
		if isUniqueViolation(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to link article to storyline: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// UpdateStorylineProgress advances a storyline after a merge: last_event_at
// only moves forward and event_count grows by the number of newly linked
// articles.
func UpdateStorylineProgress(ctx context.Context, db DB, storylineID string, lastEventAt time.Time, addedCount int) error {
	if db == nil {
		return fmt.Errorf("database connection is nil")
	}

	query := `
		UPDATE storylines
		SET last_event_at = GREATEST(last_event_at, $2), event_count = event_count + $3
		WHERE id = $1
	`

	tag, err := db.Exec(ctx, query, storylineID, lastEventAt, addedCount)
	if err != nil {
		return fmt.Errorf("failed to update storyline progress: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrStorylineNotFound
	}

	return nil
}
