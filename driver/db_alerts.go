package driver

import (
	"context"
	"fmt"

	"newswatch/domain"
)

// GetActiveAlertRules loads every active alert rule with the owning user's
// contact fields denormalized in. Rules are re-read on every evaluation so
// edits made through the management API take effect immediately.
func GetActiveAlertRules(ctx context.Context, db DB) ([]*domain.AlertRule, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}

	query := `
		SELECT id, user_id, keyword, min_impact,
		       notify_push, notify_email, notify_discord,
		       COALESCE(user_email, ''), COALESCE(user_push_subscription, ''), COALESCE(user_discord_webhook, '')
		FROM alerts
		WHERE is_active = TRUE
	`

	rows, err := db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query active alerts: %w", err)
	}
	defer rows.Close()

	var rules []*domain.AlertRule

	for rows.Next() {
		var rule domain.AlertRule
		var minImpact string

		err := rows.Scan(
			&rule.ID,
			&rule.UserID,
			&rule.Keyword,
			&minImpact,
			&rule.NotifyPush,
			&rule.NotifyEmail,
			&rule.NotifyDiscord,
			&rule.UserContact.Email,
			&rule.UserContact.PushSubscription,
			&rule.UserContact.DiscordWebhook,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan alert row: %w", err)
		}

		rule.MinImpact = domain.ImpactLevel(minImpact)
		rule.IsActive = true
		rules = append(rules, &rule)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read alert rows: %w", err)
	}

	return rules, nil
}
