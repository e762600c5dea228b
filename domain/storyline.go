package domain

import (
	"time"
)

// StorylineStatus is the lifecycle state of a storyline. The pipeline only
// creates and grows storylines; resolution is handled elsewhere.
type StorylineStatus string

const (
	StorylineOngoing    StorylineStatus = "ongoing"
	StorylineDeveloping StorylineStatus = "developing"
	StorylineResolved   StorylineStatus = "resolved"
)

// Storyline is a cluster of articles describing one ongoing narrative.
type Storyline struct {
	ID           string          `db:"id"`
	Title        string          `db:"title"`
	Description  string          `db:"description"`
	Category     string          `db:"category"`
	Status       StorylineStatus `db:"status"`
	FirstEventAt time.Time       `db:"first_event_at"`
	LastEventAt  time.Time       `db:"last_event_at"`
	EventCount   int             `db:"event_count"`
}

// StorylineGroup is one cluster proposed by the clustering model: a narrative
// plus the ids of the batch articles it covers.
type StorylineGroup struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	ArticleIDs  []string `json:"articleIds"`
}
