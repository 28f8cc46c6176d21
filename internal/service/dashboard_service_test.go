package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fitdesk/coach-api/pkg/config"
)

type statsRepoStub struct {
	calls int
}

func (s *statsRepoStub) Counts(ctx context.Context, coachID string, upcomingUntil time.Time) (int, int, int, int, int, int, error) {
	s.calls++
	return 12, 5, 3, 9, 2, 4, nil
}

func TestDashboardServiceStats(t *testing.T) {
	repo := &statsRepoStub{}
	svc := NewDashboardService(repo, NewMetricsService(), nil, config.DashboardConfig{Enabled: true, CacheTTL: time.Minute}, zap.NewNop())

	stats, err := svc.Stats(context.Background(), "coach-1")
	require.NoError(t, err)
	assert.Equal(t, 12, stats.ActiveStudents)
	assert.Equal(t, 9, stats.ActiveAssignments)
	assert.Equal(t, 4, stats.UpcomingEvents)
	assert.False(t, stats.ServedFromCache)
	assert.Equal(t, 1, repo.calls)
}

func TestDashboardServiceStatsRequiresCoach(t *testing.T) {
	repo := &statsRepoStub{}
	svc := NewDashboardService(repo, nil, nil, config.DashboardConfig{}, zap.NewNop())

	_, err := svc.Stats(context.Background(), "")
	require.Error(t, err)
	assert.Zero(t, repo.calls)
}

func TestDashboardServiceMetricsSnapshot(t *testing.T) {
	svc := NewDashboardService(&statsRepoStub{}, NewMetricsService(), nil, config.DashboardConfig{}, zap.NewNop())

	snapshot := svc.Metrics()
	assert.False(t, snapshot.GeneratedAt.IsZero())
}
