package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"newswatch/config"
	"newswatch/domain"
	"newswatch/repository"
)

const clusterSystemPrompt = `You are a news editor grouping related articles into ongoing storylines.
Given a numbered list of articles (id and title), group the ones covering the same real-world narrative.
Only include groups of 2 or more articles; leave unrelated articles out entirely.
Respond with a JSON array and nothing else, in this shape:
[{"title":"...","description":"...","category":"...","articleIds":["id1","id2"]}]`

// titlePrefixMatchLen is the shared-prefix length at which two storyline
// titles are considered the same narrative for merging.
const titlePrefixMatchLen = 12

type storylineClustererService struct {
	cfg           config.ClustererConfig
	articleRepo   repository.ArticleRepository
	storylineRepo repository.StorylineRepository
	chat          ChatClient
	logger        *slog.Logger
}

// NewStorylineClustererService wires the hourly clustering cycle.
func NewStorylineClustererService(
	cfg config.ClustererConfig,
	articleRepo repository.ArticleRepository,
	storylineRepo repository.StorylineRepository,
	chat ChatClient,
	logger *slog.Logger,
) StorylineClustererService {
	if logger == nil {
		logger = slog.Default()
	}
	return &storylineClustererService{
		cfg:           cfg,
		articleRepo:   articleRepo,
		storylineRepo: storylineRepo,
		chat:          chat,
		logger:        logger,
	}
}

// ClusterOnce runs one clustering cycle: load the unclustered batch, ask the
// model to group it, then merge each group into an existing ongoing storyline
// or create a new one. Malformed model output abandons the whole cycle with
// no partial writes. Linking is idempotent per article id, so a rerun before
// the unclustered filter catches up cannot duplicate joins or double count
// events.
func (s *storylineClustererService) ClusterOnce(ctx context.Context) (*ClusterResult, error) {
	articles, err := s.articleRepo.FindUnclusteredRecent(ctx, s.cfg.Window, s.cfg.BatchLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load unclustered articles: %w", err)
	}

	result := &ClusterResult{BatchSize: len(articles)}

	if len(articles) < s.cfg.MinBatch {
		s.logger.InfoContext(ctx, "not enough unclustered articles, skipping cycle",
			"count", len(articles),
			"min_batch", s.cfg.MinBatch)
		return result, nil
	}

	groups, err := s.proposeGroups(ctx, articles)
	if err != nil {
		s.logger.ErrorContext(ctx, "clustering model output unusable, cycle abandoned", "error", err)
		return result, err
	}
	result.GroupCount = len(groups)

	byID := make(map[string]*domain.Article, len(articles))
	for _, article := range articles {
		byID[article.ID] = article
	}

	ongoing, err := s.storylineRepo.ListOngoing(ctx)
	if err != nil {
		return result, fmt.Errorf("failed to load ongoing storylines: %w", err)
	}

	for _, group := range groups {
		members := resolveMembers(group.ArticleIDs, byID)
		if len(members) < 2 {
			result.SkippedGroups++
			s.logger.WarnContext(ctx, "skipping group with too few known articles",
				"title", group.Title,
				"proposed", len(group.ArticleIDs),
				"known", len(members))
			continue
		}

		if target := findMergeTarget(ongoing, group); target != nil {
			linked, err := s.mergeIntoStoryline(ctx, target, members)
			if err != nil {
				s.logger.ErrorContext(ctx, "storyline merge failed",
					"error", err,
					"storyline_id", target.ID,
					"title", group.Title)
				continue
			}
			result.MergedCount++
			result.LinkedCount += linked
			continue
		}

		storyline, linked, err := s.createStoryline(ctx, group, members)
		if err != nil {
			s.logger.ErrorContext(ctx, "storyline creation failed",
				"error", err,
				"title", group.Title)
			continue
		}
		ongoing = append(ongoing, storyline)
		result.CreatedCount++
		result.LinkedCount += linked
	}

	s.logger.InfoContext(ctx, "clustering cycle finished",
		"batch", result.BatchSize,
		"groups", result.GroupCount,
		"created", result.CreatedCount,
		"merged", result.MergedCount,
		"linked", result.LinkedCount,
		"skipped_groups", result.SkippedGroups)

	return result, nil
}

func (s *storylineClustererService) proposeGroups(ctx context.Context, articles []*domain.Article) ([]domain.StorylineGroup, error) {
	var lines strings.Builder
	for _, article := range articles {
		fmt.Fprintf(&lines, "%s\t%s\n", article.ID, article.Title)
	}

	raw, err := s.chat.Complete(ctx, clusterSystemPrompt, lines.String())
	if err != nil {
		return nil, err
	}

	var groups []domain.StorylineGroup
	if err := json.Unmarshal([]byte(stripCodeFences(raw)), &groups); err != nil {
		return nil, fmt.Errorf("%w: clustering: %v", domain.ErrMalformedLLMResponse, err)
	}

	return groups, nil
}

// mergeIntoStoryline links the group's members into an existing storyline.
// Already-linked ids are skipped by the join-table insert; only newly linked
// articles advance lastEventAt and eventCount.
func (s *storylineClustererService) mergeIntoStoryline(ctx context.Context, storyline *domain.Storyline, members []*domain.Article) (int, error) {
	added := 0
	lastEventAt := storyline.LastEventAt

	for _, article := range members {
		inserted, err := s.storylineRepo.LinkArticle(ctx, storyline.ID, article.ID, false)
		if err != nil {
			return added, err
		}
		if !inserted {
			continue
		}
		added++
		if article.PublishedAt.After(lastEventAt) {
			lastEventAt = article.PublishedAt
		}
	}

	if added == 0 {
		return 0, nil
	}

	if err := s.storylineRepo.RecordProgress(ctx, storyline.ID, lastEventAt, added); err != nil {
		if errors.Is(err, domain.ErrStorylineNotFound) {
			s.logger.WarnContext(ctx, "storyline vanished during merge", "storyline_id", storyline.ID)
			return added, nil
		}
		return added, err
	}

	storyline.LastEventAt = lastEventAt
	storyline.EventCount += added

	return added, nil
}

func (s *storylineClustererService) createStoryline(ctx context.Context, group domain.StorylineGroup, members []*domain.Article) (*domain.Storyline, int, error) {
	first, last := eventBounds(members)

	storyline := &domain.Storyline{
		ID:           uuid.New().String(),
		Title:        group.Title,
		Description:  group.Description,
		Category:     group.Category,
		Status:       domain.StorylineOngoing,
		FirstEventAt: first.PublishedAt,
		LastEventAt:  last.PublishedAt,
		EventCount:   len(members),
	}

	if err := s.storylineRepo.Create(ctx, storyline); err != nil {
		return nil, 0, err
	}

	linked := 0
	for _, article := range members {
		isKeyEvent := article.ID == first.ID || article.ID == last.ID
		inserted, err := s.storylineRepo.LinkArticle(ctx, storyline.ID, article.ID, isKeyEvent)
		if err != nil {
			return storyline, linked, err
		}
		if inserted {
			linked++
		}
	}

	return storyline, linked, nil
}

// resolveMembers keeps only ids from the current batch, dropping hallucinated
// or stale ids, and deduplicates repeats within one group.
func resolveMembers(ids []string, byID map[string]*domain.Article) []*domain.Article {
	seen := make(map[string]bool, len(ids))
	members := make([]*domain.Article, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if article, ok := byID[id]; ok {
			members = append(members, article)
		}
	}
	return members
}

// findMergeTarget picks the ongoing storyline a group belongs to: same
// category, or a long shared title prefix.
func findMergeTarget(ongoing []*domain.Storyline, group domain.StorylineGroup) *domain.Storyline {
	for _, storyline := range ongoing {
		if group.Category != "" && strings.EqualFold(storyline.Category, group.Category) {
			return storyline
		}
		if sharedPrefixLen(storyline.Title, group.Title) >= titlePrefixMatchLen {
			return storyline
		}
	}
	return nil
}

func sharedPrefixLen(a, b string) int {
	a = strings.ToLower(a)
	b = strings.ToLower(b)
	n := 0
	for n < len(a) && n < len(b) && a[n] == b[n] {
		n++
	}
	return n
}

// eventBounds returns the earliest and latest members by publication time.
func eventBounds(members []*domain.Article) (first, last *domain.Article) {
	first, last = members[0], members[0]
	for _, article := range members[1:] {
		if article.PublishedAt.Before(first.PublishedAt) {
			first = article
		}
		if article.PublishedAt.After(last.PublishedAt) {
			last = article
		}
	}
	return first, last
}
