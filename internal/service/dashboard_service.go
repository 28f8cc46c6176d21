package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/fitdesk/coach-api/internal/models"
	"github.com/fitdesk/coach-api/pkg/config"
	appErrors "github.com/fitdesk/coach-api/pkg/errors"
)

type statsRepository interface {
	Counts(ctx context.Context, coachID string, upcomingUntil time.Time) (activeStudents, programs, dietPlans, activeAssignments, unreadMessages, upcomingEvents int, err error)
}

// DashboardService aggregates headline stats for the coach dashboard.
// Results are cached with a short TTL; assignment mutations invalidate
// the coach's entry so the numbers never survive a write stale.
type DashboardService struct {
	repo    statsRepository
	metrics *MetricsService
	cache   *CacheService
	cfg     config.DashboardConfig
	logger  *zap.Logger
	now     func() time.Time
}

// NewDashboardService constructs a DashboardService.
func NewDashboardService(repo statsRepository, metrics *MetricsService, cache *CacheService, cfg config.DashboardConfig, logger *zap.Logger) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		repo:    repo,
		metrics: metrics,
		cache:   cache,
		cfg:     cfg,
		logger:  logger,
		now:     time.Now,
	}
}

// Stats returns the coach's dashboard counters, served from cache when
// warm.
func (s *DashboardService) Stats(ctx context.Context, coachID string) (*models.DashboardStats, error) {
	if coachID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "missing coach identity")
	}
	cacheKey := fmt.Sprintf("dash:coach:%s", coachID)
	if s.cache != nil && s.cache.Enabled() {
		var cached models.DashboardStats
		hit, err := s.cache.Get(ctx, cacheKey, &cached)
		if err != nil {
			s.logger.Warn("dashboard cache read failed", zap.String("key", cacheKey), zap.Error(err))
		} else if hit {
			cached.ServedFromCache = true
			return &cached, nil
		}
	}

	now := s.now().UTC()
	activeStudents, programs, dietPlans, activeAssignments, unreadMessages, upcomingEvents, err := s.repo.Counts(ctx, coachID, now.Add(7*24*time.Hour))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute dashboard stats")
	}

	stats := &models.DashboardStats{
		ActiveStudents:    activeStudents,
		Programs:          programs,
		DietPlans:         dietPlans,
		ActiveAssignments: activeAssignments,
		UnreadMessages:    unreadMessages,
		UpcomingEvents:    upcomingEvents,
		GeneratedAt:       now,
	}

	if s.cache != nil && s.cache.Enabled() {
		if err := s.cache.Set(ctx, cacheKey, stats, s.cfg.CacheTTL); err != nil {
			s.logger.Warn("dashboard cache write failed", zap.String("key", cacheKey), zap.Error(err))
		}
	}
	return stats, nil
}

// Metrics exposes the runtime snapshot next to the stats endpoint.
func (s *DashboardService) Metrics() models.SystemMetrics {
	if s.metrics == nil {
		return models.SystemMetrics{GeneratedAt: s.now().UTC()}
	}
	return s.metrics.Snapshot()
}
