package services

import (
	"context"
	"fmt"
	"math"

	"github.com/rs/zerolog"
	"github.com/yigit/coursepath/internal/app/models"
	"github.com/yigit/coursepath/internal/app/models/dto"
	"github.com/yigit/coursepath/internal/app/repositories"
	"golang.org/x/sync/errgroup"
)

// AnalyticsService defines the admin dashboard operations
type AnalyticsService interface {
	GetDashboard(ctx context.Context) (*dto.AnalyticsResponse, error)
}

// analyticsServiceImpl implements the AnalyticsService interface
type analyticsServiceImpl struct {
	courseRepo     repositories.ICourseRepository
	enrollmentRepo repositories.IEnrollmentRepository
	logger         zerolog.Logger
}

// NewAnalyticsService creates a new analytics service instance
func NewAnalyticsService(
	courseRepo repositories.ICourseRepository,
	enrollmentRepo repositories.IEnrollmentRepository,
	logger zerolog.Logger,
) AnalyticsService {
	return &analyticsServiceImpl{
		courseRepo:     courseRepo,
		enrollmentRepo: enrollmentRepo,
		logger:         logger,
	}
}

// GetDashboard gathers catalog and ledger aggregates concurrently
func (s *analyticsServiceImpl) GetDashboard(ctx context.Context) (*dto.AnalyticsResponse, error) {
	var (
		totalCourses int64
		summary      *models.EnrollmentSummary
		perCourse    []models.CourseEnrollmentCount
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		totalCourses, err = s.courseRepo.Count(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		summary, err = s.enrollmentRepo.Summary(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		perCourse, err = s.enrollmentRepo.CountsByCourse(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.Error().Err(err).Msg("Failed to build analytics dashboard")
		return nil, fmt.Errorf("error building dashboard: %w", err)
	}

	distribution := make([]dto.ProgressBucketCount, 0, len(models.ProgressBuckets))
	for _, bucket := range models.ProgressBuckets {
		distribution = append(distribution, dto.ProgressBucketCount{
			Bucket: bucket,
			Count:  summary.Buckets[bucket],
		})
	}
	if perCourse == nil {
		perCourse = []models.CourseEnrollmentCount{}
	}

	return &dto.AnalyticsResponse{
		TotalCourses:         totalCourses,
		TotalEnrollments:     summary.TotalEnrollments,
		TotalStudents:        summary.DistinctStudents,
		CompletedModules:     summary.CompletedModules,
		ModuleCompletionRate: completionRate(summary.CompletedModules, summary.AvailableModules),
		CourseEnrollments:    perCourse,
		ProgressDistribution: distribution,
	}, nil
}

// completionRate is completed/available as a percentage rounded to two decimals
func completionRate(completed, available int64) float64 {
	if available <= 0 {
		return 0
	}
	rate := float64(completed) / float64(available) * 100
	return math.Round(math.Min(rate, 100)*100) / 100
}
