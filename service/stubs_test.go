package service

import (
	"context"
	"sync"
	"time"

	"github.com/mmcdole/gofeed"

	"newswatch/domain"
)

// Hand-rolled stubs with function fields keep each test's behavior local to
// the test case.

type stubArticleRepo struct {
	createFn                func(ctx context.Context, article *domain.Article) error
	findByFingerprintFn     func(ctx context.Context, fingerprint string) (*domain.Article, error)
	findByIDFn              func(ctx context.Context, articleID string) (*domain.Article, error)
	updateClassificationFn  func(ctx context.Context, articleID string, classification domain.Classification) error
	findUnclusteredRecentFn func(ctx context.Context, window time.Duration, limit int) ([]*domain.Article, error)
	findUnclassifiedFn      func(ctx context.Context, olderThan time.Duration, limit int) ([]*domain.Article, error)
}

func (s *stubArticleRepo) Create(ctx context.Context, article *domain.Article) error {
	return s.createFn(ctx, article)
}

func (s *stubArticleRepo) FindByFingerprint(ctx context.Context, fingerprint string) (*domain.Article, error) {
	return s.findByFingerprintFn(ctx, fingerprint)
}

func (s *stubArticleRepo) FindByID(ctx context.Context, articleID string) (*domain.Article, error) {
	return s.findByIDFn(ctx, articleID)
}

func (s *stubArticleRepo) UpdateClassification(ctx context.Context, articleID string, classification domain.Classification) error {
	return s.updateClassificationFn(ctx, articleID, classification)
}

func (s *stubArticleRepo) FindUnclusteredRecent(ctx context.Context, window time.Duration, limit int) ([]*domain.Article, error) {
	return s.findUnclusteredRecentFn(ctx, window, limit)
}

func (s *stubArticleRepo) FindUnclassified(ctx context.Context, olderThan time.Duration, limit int) ([]*domain.Article, error) {
	if s.findUnclassifiedFn == nil {
		return nil, nil
	}
	return s.findUnclassifiedFn(ctx, olderThan, limit)
}

type stubAlertRepo struct {
	listActiveAlertsFn func(ctx context.Context) ([]*domain.AlertRule, error)
}

func (s *stubAlertRepo) ListActiveAlerts(ctx context.Context) ([]*domain.AlertRule, error) {
	return s.listActiveAlertsFn(ctx)
}

type stubStorylineRepo struct {
	createFn         func(ctx context.Context, storyline *domain.Storyline) error
	listOngoingFn    func(ctx context.Context) ([]*domain.Storyline, error)
	linkArticleFn    func(ctx context.Context, storylineID, articleID string, isKeyEvent bool) (bool, error)
	recordProgressFn func(ctx context.Context, storylineID string, lastEventAt time.Time, addedCount int) error
}

func (s *stubStorylineRepo) Create(ctx context.Context, storyline *domain.Storyline) error {
	return s.createFn(ctx, storyline)
}

func (s *stubStorylineRepo) ListOngoing(ctx context.Context) ([]*domain.Storyline, error) {
	return s.listOngoingFn(ctx)
}

func (s *stubStorylineRepo) LinkArticle(ctx context.Context, storylineID, articleID string, isKeyEvent bool) (bool, error) {
	return s.linkArticleFn(ctx, storylineID, articleID, isKeyEvent)
}

func (s *stubStorylineRepo) RecordProgress(ctx context.Context, storylineID string, lastEventAt time.Time, addedCount int) error {
	return s.recordProgressFn(ctx, storylineID, lastEventAt, addedCount)
}

type stubDispatchRepo struct {
	mu      sync.Mutex
	records map[string]bool

	existsErr error
	createErr error
}

func newStubDispatchRepo() *stubDispatchRepo {
	return &stubDispatchRepo{records: make(map[string]bool)}
}

func (s *stubDispatchRepo) Exists(ctx context.Context, alertID, articleID string) (bool, error) {
	if s.existsErr != nil {
		return false, s.existsErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.records[alertID+"/"+articleID], nil
}

func (s *stubDispatchRepo) Create(ctx context.Context, record *domain.DispatchRecord) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	key := record.AlertID + "/" + record.ArticleID
	if s.records[key] {
		return domain.ErrDuplicateDispatch
	}
	s.records[key] = true
	return nil
}

type stubChat struct {
	completeFn func(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

func (s *stubChat) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return s.completeFn(ctx, systemPrompt, userPrompt)
}

type stubEnqueuer struct {
	mu   sync.Mutex
	jobs []*domain.NotificationJob
	err  error
}

func (s *stubEnqueuer) Enqueue(ctx context.Context, job *domain.NotificationJob) error {
	if s.err != nil {
		return s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs = append(s.jobs, job)
	return nil
}

func (s *stubEnqueuer) Jobs() []*domain.NotificationJob {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*domain.NotificationJob(nil), s.jobs...)
}

type stubEvents struct {
	mu     sync.Mutex
	events []domain.ArticleEvent
}

func (s *stubEvents) Publish(event domain.ArticleEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
}

func (s *stubEvents) Events() []domain.ArticleEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.ArticleEvent(nil), s.events...)
}

type stubClassifyQueue struct {
	mu   sync.Mutex
	ids  []string
	full bool
}

func (s *stubClassifyQueue) Enqueue(articleID string) bool {
	if s.full {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids = append(s.ids, articleID)
	return true
}

func (s *stubClassifyQueue) IDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.ids...)
}

type stubFetcher struct {
	fetchFn func(ctx context.Context, feedURL string) (*gofeed.Feed, error)
}

func (s *stubFetcher) Fetch(ctx context.Context, feedURL string) (*gofeed.Feed, error) {
	return s.fetchFn(ctx, feedURL)
}

type stubAlertMatcher struct {
	mu       sync.Mutex
	articles []*domain.Article
	err      error
}

func (s *stubAlertMatcher) MatchAndDispatch(ctx context.Context, article *domain.Article) (*MatchResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.articles = append(s.articles, article)
	return &MatchResult{}, nil
}

func (s *stubAlertMatcher) Articles() []*domain.Article {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*domain.Article(nil), s.articles...)
}
