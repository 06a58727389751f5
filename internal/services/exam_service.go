package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/classroom-service/internal/models"
	"github.com/SAP-F-2025/classroom-service/internal/repositories"
	"github.com/SAP-F-2025/classroom-service/internal/utils"
	"github.com/SAP-F-2025/classroom-service/internal/validator"
)

type examService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
	notifier  NotificationEventService
	now       func() time.Time
}

func NewExamService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator, notifier NotificationEventService) ExamService {
	return &examService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
		notifier:  notifier,
		now:       time.Now,
	}
}

// ===== CORE CRUD OPERATIONS =====

func (s *examService) Create(ctx context.Context, req *CreateExamRequest, actor Actor) (*models.Exam, error) {
	s.logger.Info("Creating exam", "teacher_id", actor.UserID, "title", req.Title)

	if errs := s.validator.GetBusinessValidator().ValidateExamCreate(req, s.now()); len(errs) > 0 {
		return nil, errs
	}

	questions := validator.QuestionsToModel(req.Questions)
	exam := &models.Exam{
		Title:              strings.TrimSpace(req.Title),
		Subject:            req.Subject,
		Grade:              req.Grade,
		Description:        req.Description,
		Type:               req.Type,
		Questions:          questions,
		Deadline:           req.Deadline,
		Status:             models.ExamDraft,
		TeacherID:          actor.UserID,
		ClassNames:         []string(req.ClassName),
		AssignedStudentIDs: req.AssignedStudents,
	}
	if exam.Type == "" {
		exam.Type = models.InferType(questions)
	}

	settings, err := s.settingsFor(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	exam.TotalPoints = models.DefaultExamTotalPoints
	if settings != nil && settings.DefaultTotalPoints > 0 {
		exam.TotalPoints = settings.DefaultTotalPoints
	}
	if req.TotalPoints != nil {
		exam.TotalPoints = *req.TotalPoints
	}
	if req.Duration != nil {
		exam.Duration = *req.Duration
	} else if settings != nil {
		exam.Duration = settings.DefaultDuration
	}

	if err := s.repo.Exam().Create(ctx, s.db, exam); err != nil {
		return nil, fmt.Errorf("failed to create exam: %w", err)
	}

	s.logger.Info("Exam created successfully", "exam_id", exam.ID)
	return exam, nil
}

func (s *examService) GetByID(ctx context.Context, id uint, actor Actor) (*models.Exam, error) {
	return s.getOwned(ctx, id, actor, "read")
}

func (s *examService) List(ctx context.Context, query ExamListQuery, actor Actor) (*models.PaginatedResponse, error) {
	limit, offset := utils.Paginate(query.Page, query.Size)
	filters := repositories.ExamFilters{
		Status:    query.Status,
		Subject:   query.Subject,
		Query:     query.Query,
		Limit:     limit,
		Offset:    offset,
		SortBy:    query.SortBy,
		SortOrder: query.SortOrder,
	}
	if !actor.IsAdmin() {
		filters.TeacherID = &actor.UserID
	}

	exams, total, err := s.repo.Exam().List(ctx, s.db, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list exams: %w", err)
	}

	page := models.NewPaginatedResponse(exams, total, query.Page, limit)
	return &page, nil
}

func (s *examService) Update(ctx context.Context, id uint, req *UpdateExamRequest, actor Actor) (*models.Exam, error) {
	s.logger.Info("Updating exam", "exam_id", id, "teacher_id", actor.UserID)

	exam, err := s.getOwned(ctx, id, actor, "update")
	if err != nil {
		return nil, err
	}
	if exam.Status != models.ExamDraft {
		return nil, ErrExamNotEditable
	}

	if errs := s.validator.GetBusinessValidator().ValidateExamUpdate(req, s.now()); len(errs) > 0 {
		return nil, errs
	}

	applyExamUpdates(exam, req)

	if err := s.repo.Exam().Update(ctx, s.db, exam); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("failed to update exam: %w", err)
	}

	s.logger.Info("Exam updated successfully", "exam_id", id)
	return exam, nil
}

func (s *examService) Delete(ctx context.Context, id uint, actor Actor) error {
	s.logger.Info("Deleting exam", "exam_id", id, "teacher_id", actor.UserID)

	exam, err := s.getOwned(ctx, id, actor, "delete")
	if err != nil {
		return err
	}
	if exam.Status != models.ExamDraft {
		return ErrExamNotDeletable
	}

	err = s.withTx(ctx, func(tx *gorm.DB) error {
		hasSubmissions, err := s.repo.Submission().ExistsForExam(ctx, tx, id)
		if err != nil {
			return fmt.Errorf("failed to check submissions: %w", err)
		}
		if hasSubmissions {
			return ErrExamNotDeletable
		}
		return s.repo.Exam().Delete(ctx, tx, id)
	})
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrExamNotFound
		}
		if errors.Is(err, ErrExamNotDeletable) {
			return err
		}
		return fmt.Errorf("failed to delete exam: %w", err)
	}
	s.repo.Exam().InvalidateCache(ctx, id, exam.TeacherID)

	s.logger.Info("Exam deleted successfully", "exam_id", id)
	return nil
}

// ===== LIFECYCLE =====

func (s *examService) Publish(ctx context.Context, id uint, actor Actor) (*models.Exam, error) {
	s.logger.Info("Publishing exam", "exam_id", id, "teacher_id", actor.UserID)

	exam, err := s.getOwned(ctx, id, actor, "publish")
	if err != nil {
		return nil, err
	}
	if errs := s.validator.GetBusinessValidator().ValidateStatusTransition(exam.Status, models.ExamPublished, len(exam.Questions)); len(errs) > 0 {
		if !exam.Status.CanTransitionTo(models.ExamPublished) {
			return nil, ErrExamInvalidStatus
		}
		return nil, errs
	}

	assigned, err := s.repo.Student().CountAssigned(ctx, s.db, exam.TeacherID, exam.ClassNames, exam.AssignedStudentIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to count assigned students: %w", err)
	}

	now := s.now()
	fields := map[string]interface{}{
		"status":            models.ExamPublished,
		"students_assigned": int(assigned),
		"published_at":      now,
	}
	if err := s.repo.Exam().UpdateFields(ctx, s.db, id, fields); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("failed to publish exam: %w", err)
	}

	exam.Status = models.ExamPublished
	exam.StudentsAssigned = int(assigned)
	exam.PublishedAt = &now

	if err := s.notifier.ExamPublished(ctx, exam); err != nil {
		s.logger.Warn("Failed to publish exam event", "exam_id", id, "error", err)
	}

	s.logger.Info("Exam published successfully", "exam_id", id, "students_assigned", assigned)
	return exam, nil
}

func (s *examService) Complete(ctx context.Context, id uint, actor Actor) (*models.Exam, error) {
	exam, err := s.getOwned(ctx, id, actor, "complete")
	if err != nil {
		return nil, err
	}
	if !exam.Status.CanTransitionTo(models.ExamCompleted) {
		return nil, ErrExamInvalidStatus
	}

	now := s.now()
	fields := map[string]interface{}{
		"status":       models.ExamCompleted,
		"completed_at": now,
	}
	if err := s.repo.Exam().UpdateFields(ctx, s.db, id, fields); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("failed to complete exam: %w", err)
	}

	exam.Status = models.ExamCompleted
	exam.CompletedAt = &now
	s.logger.Info("Exam completed", "exam_id", id)
	return exam, nil
}

// ===== HELPERS =====

func (s *examService) withTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return s.db.WithContext(ctx).Transaction(fn)
}

// getOwned loads an exam the actor owns. Exams of other teachers are reported
// as forbidden so ids are not silently reused.
func (s *examService) getOwned(ctx context.Context, id uint, actor Actor, action string) (*models.Exam, error) {
	exam, err := s.repo.Exam().GetByID(ctx, s.db, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("failed to get exam: %w", err)
	}
	if !actor.owns(exam.TeacherID) {
		return nil, NewPermissionError(actor.UserID, id, "exam", action, "not the exam owner")
	}
	return exam, nil
}

func (s *examService) settingsFor(ctx context.Context, teacherID string) (*models.TeacherSettings, error) {
	settings, err := s.repo.Settings().Get(ctx, s.db, teacherID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load teacher settings: %w", err)
	}
	return settings, nil
}

func applyExamUpdates(exam *models.Exam, req *UpdateExamRequest) {
	if req.Title != nil {
		exam.Title = strings.TrimSpace(*req.Title)
	}
	if req.Subject != nil {
		exam.Subject = *req.Subject
	}
	if req.Grade != nil {
		exam.Grade = *req.Grade
	}
	if req.Description != nil {
		exam.Description = *req.Description
	}
	if req.Questions != nil {
		exam.Questions = validator.QuestionsToModel(*req.Questions)
		if req.Type == nil {
			exam.Type = models.InferType(exam.Questions)
		}
	}
	if req.Type != nil {
		exam.Type = *req.Type
	}
	if req.TotalPoints != nil {
		exam.TotalPoints = *req.TotalPoints
	}
	if req.Duration != nil {
		exam.Duration = *req.Duration
	}
	if req.Deadline != nil {
		exam.Deadline = req.Deadline
	}
	if req.ClassName != nil {
		exam.ClassNames = []string(*req.ClassName)
	}
	if req.AssignedStudents != nil {
		exam.AssignedStudentIDs = *req.AssignedStudents
	}
}
