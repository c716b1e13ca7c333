package services

import (
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/yukikurage/kanban-api/internal/constants"
	"github.com/yukikurage/kanban-api/internal/policy"
	"github.com/yukikurage/kanban-api/internal/repository"
	"golang.org/x/sync/errgroup"
)

// DashboardStats are the headline counters of the dashboard
type DashboardStats struct {
	TotalProjects int64 `json:"total_projects"`
	ActiveTasks   int64 `json:"active_tasks"`
	TeamMembers   int64 `json:"team_members"`
	OverdueTasks  int64 `json:"overdue_tasks"`
}

// DashboardService computes per-user dashboard counters. Results are cached
// per user for a few minutes.
type DashboardService struct {
	projectRepo repository.ProjectRepository
	statsRepo   repository.StatsRepository
	cache       *expirable.LRU[uint64, DashboardStats]
	now         func() time.Time
}

// NewDashboardService creates a new DashboardService
func NewDashboardService(projectRepo repository.ProjectRepository, statsRepo repository.StatsRepository) *DashboardService {
	return &DashboardService{
		projectRepo: projectRepo,
		statsRepo:   statsRepo,
		cache:       expirable.NewLRU[uint64, DashboardStats](constants.DashboardCacheSize, nil, constants.DashboardCacheTTL),
		now:         time.Now,
	}
}

// Stats returns the counters over the projects the actor owns or belongs to
func (s *DashboardService) Stats(actor policy.Actor) (DashboardStats, error) {
	if stats, ok := s.cache.Get(actor.UserID); ok {
		return stats, nil
	}

	projectIDs, err := s.projectRepo.VisibleIDs(actor.UserID)
	if err != nil {
		return DashboardStats{}, fmt.Errorf("failed to list projects: %w", err)
	}

	stats := DashboardStats{TotalProjects: int64(len(projectIDs))}
	if len(projectIDs) > 0 {
		today := startOfDay(s.now())

		var g errgroup.Group
		g.Go(func() error {
			n, err := s.statsRepo.CountActiveTasks(projectIDs)
			stats.ActiveTasks = n
			return err
		})
		g.Go(func() error {
			n, err := s.statsRepo.CountOverdueTasks(projectIDs, today)
			stats.OverdueTasks = n
			return err
		})
		g.Go(func() error {
			n, err := s.statsRepo.CountTeamMembers(projectIDs)
			stats.TeamMembers = n
			return err
		})

		if err := g.Wait(); err != nil {
			return DashboardStats{}, fmt.Errorf("failed to compute dashboard stats: %w", err)
		}
	}

	s.cache.Add(actor.UserID, stats)
	return stats, nil
}

// Invalidate drops the cached counters of a user
func (s *DashboardService) Invalidate(userID uint64) {
	s.cache.Remove(userID)
}
