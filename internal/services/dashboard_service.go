package services

import (
	"context"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/classroom-service/internal/cache"
	"github.com/SAP-F-2025/classroom-service/internal/models"
	"github.com/SAP-F-2025/classroom-service/internal/repositories"
	"github.com/SAP-F-2025/classroom-service/internal/utils"
)

const (
	recentSubmissionLimit = 5
	adminStatsKey         = "admin:overview"
)

type dashboardService struct {
	repo   repositories.Repository
	db     *gorm.DB
	logger *slog.Logger
	stats  *cache.CacheHelper
}

// NewDashboardService caches counters in stats. A nil helper reads straight
// from the database.
func NewDashboardService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, stats *cache.CacheHelper) DashboardService {
	return &dashboardService{
		repo:   repo,
		db:     db,
		logger: logger,
		stats:  stats,
	}
}

func (s *dashboardService) Teacher(ctx context.Context, actor Actor) (*TeacherDashboard, error) {
	var out TeacherDashboard
	err := s.cached(ctx, cache.TeacherStatsKey(actor.UserID), &out, func() (interface{}, error) {
		return s.teacherDashboard(ctx, actor.UserID)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *dashboardService) teacherDashboard(ctx context.Context, teacherID string) (*TeacherDashboard, error) {
	counts, err := s.repo.Dashboard().TeacherCounts(ctx, s.db, teacherID)
	if err != nil {
		return nil, fmt.Errorf("failed to get dashboard counts: %w", err)
	}
	recent, err := s.repo.Dashboard().RecentSubmissions(ctx, s.db, teacherID, recentSubmissionLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent submissions: %w", err)
	}
	avg, err := s.repo.Dashboard().AverageScore(ctx, s.db, teacherID)
	if err != nil {
		return nil, fmt.Errorf("failed to get average score: %w", err)
	}
	if recent == nil {
		recent = []repositories.RecentSubmission{}
	}

	return &TeacherDashboard{
		TeacherCounts:     *counts,
		AverageScore:      utils.Round2(avg),
		RecentSubmissions: recent,
	}, nil
}

func (s *dashboardService) Admin(ctx context.Context) (*repositories.AdminCounts, error) {
	var out repositories.AdminCounts
	err := s.cached(ctx, adminStatsKey, &out, func() (interface{}, error) {
		counts, err := s.repo.Dashboard().AdminCounts(ctx, s.db)
		if err != nil {
			return nil, fmt.Errorf("failed to get admin counts: %w", err)
		}
		return counts, nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *dashboardService) ListUsers(ctx context.Context, query PageQuery) (*models.PaginatedResponse, error) {
	limit, offset := utils.Paginate(query.Page, query.Size)
	users, total, err := s.repo.User().List(ctx, repositories.UserFilters{
		Query:  query.Query,
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		s.logger.Error("Failed to list users", "error", err)
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	page := models.NewPaginatedResponse(users, total, query.Page, limit)
	return &page, nil
}

func (s *dashboardService) cached(ctx context.Context, key string, dest interface{}, fetch func() (interface{}, error)) error {
	return s.stats.CacheOrExecute(ctx, key, dest, cache.StatsCacheConfig.TTL, fetch)
}
