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

type gradingService struct {
	db        *gorm.DB
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	notifier  NotificationEventService
	now       func() time.Time
}

func NewGradingService(db *gorm.DB, repo repositories.Repository, logger *slog.Logger, validator *validator.Validator, notifier NotificationEventService) GradingService {
	return &gradingService{
		db:        db,
		repo:      repo,
		logger:    logger,
		validator: validator,
		notifier:  notifier,
		now:       time.Now,
	}
}

func (s *gradingService) ListByExam(ctx context.Context, examID uint, query SubmissionListQuery, actor Actor) (*models.PaginatedResponse, error) {
	if _, err := s.examFor(ctx, s.db, examID, actor, "list submissions of"); err != nil {
		return nil, err
	}

	limit, offset := utils.Paginate(query.Page, query.Size)
	subs, total, err := s.repo.Submission().ListByExam(ctx, s.db, examID, repositories.SubmissionFilters{
		Status:    query.Status,
		Limit:     limit,
		Offset:    offset,
		SortBy:    query.SortBy,
		SortOrder: query.SortOrder,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}

	page := models.NewPaginatedResponse(subs, total, query.Page, limit)
	return &page, nil
}

func (s *gradingService) GetSubmission(ctx context.Context, id uint, actor Actor) (*SubmissionDetail, error) {
	sub, err := s.repo.Submission().GetByID(ctx, s.db, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrSubmissionNotFound
		}
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}

	exam, err := s.examFor(ctx, s.db, sub.ExamID, actor, "read submission of")
	if err != nil {
		return nil, err
	}

	return &SubmissionDetail{
		Submission: sub,
		Exam:       exam,
		Results:    BuildResults(exam.Questions, exam.TotalPoints, sub.Answers, true),
	}, nil
}

// GradeEssay scores one essay answer. Regrading replaces the previous score
// without counting the answer twice.
func (s *gradingService) GradeEssay(ctx context.Context, id uint, req *GradeEssayRequest, actor Actor) (*models.ExamSubmission, error) {
	s.logger.Info("Grading essay",
		"submission_id", id,
		"question_index", req.QuestionIndex,
		"score", req.Score,
		"grader_id", actor.UserID)

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	var (
		sub          *models.ExamSubmission
		exam         *models.Exam
		becameGraded bool
	)
	err := s.withTx(ctx, func(tx *gorm.DB) error {
		var err error
		sub, err = s.repo.Submission().GetByIDForUpdate(ctx, tx, id)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrSubmissionNotFound
			}
			return fmt.Errorf("failed to get submission: %w", err)
		}

		exam, err = s.examFor(ctx, tx, sub.ExamID, actor, "grade")
		if err != nil {
			return err
		}
		if !sub.Status.IsFinal() {
			return ErrNotAwaitingGrading
		}

		if req.QuestionIndex >= len(exam.Questions) || !exam.Questions[req.QuestionIndex].IsEssay() {
			return ValidationErrors{*NewValidationError("questionIndex", "must reference an essay question", req.QuestionIndex)}
		}
		maxScore := QuestionMaxScore(exam.Questions, req.QuestionIndex, exam.TotalPoints)
		if req.Score > maxScore {
			return ValidationErrors{*NewValidationError("score", fmt.Sprintf("must be between 0 and %.2f", maxScore), req.Score)}
		}

		i, answer := sub.AnswerAt(req.QuestionIndex)
		if answer == nil || strings.TrimSpace(answer.EssayAnswer) == "" {
			return ValidationErrors{*NewValidationError("questionIndex", "the student did not answer this question", req.QuestionIndex)}
		}

		if !answer.Graded {
			sub.GradedEssayQuestions++
		}
		score := utils.Round2(req.Score)
		sub.Answers[i].EssayScore = &score
		sub.Answers[i].Feedback = req.Feedback
		sub.Answers[i].Graded = true

		sub.EssayScore = utils.Round2(sub.EssayTotal())
		sub.Score = utils.Round2(sub.McScore + sub.EssayScore)

		if sub.GradedEssayQuestions >= sub.TotalEssayQuestions && sub.Status.CanTransitionTo(models.SubmissionGraded) {
			now := s.now()
			sub.Status = models.SubmissionGraded
			sub.GradedAt = &now
			becameGraded = true
		}

		if err := s.repo.Submission().SaveGrading(ctx, tx, sub); err != nil {
			return err
		}
		if becameGraded {
			return s.repo.Exam().IncrementCounters(ctx, tx, exam.ID, 0, 1)
		}
		return nil
	})
	if err != nil {
		return nil, s.wrap(err, "failed to grade essay")
	}
	s.repo.Exam().InvalidateCache(ctx, exam.ID, exam.TeacherID)

	s.logger.Info("Essay graded",
		"submission_id", id,
		"essay_score", sub.EssayScore,
		"score", sub.Score,
		"graded", sub.GradedEssayQuestions,
		"total", sub.TotalEssayQuestions)

	if becameGraded {
		if err := s.notifier.SubmissionGraded(ctx, sub, exam); err != nil {
			s.logger.Warn("Failed to publish graded event", "submission_id", id, "error", err)
		}
	}
	return sub, nil
}

// Finalize closes a submitted record whose recorded essays are all graded,
// including one whose essays were all left blank.
func (s *gradingService) Finalize(ctx context.Context, id uint, actor Actor) (*models.ExamSubmission, error) {
	var (
		sub  *models.ExamSubmission
		exam *models.Exam
	)
	err := s.withTx(ctx, func(tx *gorm.DB) error {
		var err error
		sub, err = s.repo.Submission().GetByIDForUpdate(ctx, tx, id)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrSubmissionNotFound
			}
			return fmt.Errorf("failed to get submission: %w", err)
		}
		exam, err = s.examFor(ctx, tx, sub.ExamID, actor, "finalize")
		if err != nil {
			return err
		}

		if sub.Status != models.SubmissionSubmitted {
			return ErrNotAwaitingGrading
		}
		if sub.GradedEssayQuestions < sub.TotalEssayQuestions {
			return ErrEssaysPendingGrading
		}

		now := s.now()
		sub.Status = models.SubmissionGraded
		sub.GradedAt = &now
		sub.EssayScore = utils.Round2(sub.EssayTotal())
		sub.Score = utils.Round2(sub.McScore + sub.EssayScore)

		if err := s.repo.Submission().SaveGrading(ctx, tx, sub); err != nil {
			return err
		}
		return s.repo.Exam().IncrementCounters(ctx, tx, exam.ID, 0, 1)
	})
	if err != nil {
		return nil, s.wrap(err, "failed to finalize submission")
	}
	s.repo.Exam().InvalidateCache(ctx, exam.ID, exam.TeacherID)

	s.logger.Info("Submission finalized", "submission_id", id, "score", sub.Score)
	if err := s.notifier.SubmissionGraded(ctx, sub, exam); err != nil {
		s.logger.Warn("Failed to publish graded event", "submission_id", id, "error", err)
	}
	return sub, nil
}

// ===== HELPERS =====

func (s *gradingService) withTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return s.db.WithContext(ctx).Transaction(fn)
}

func (s *gradingService) examFor(ctx context.Context, tx *gorm.DB, examID uint, actor Actor, action string) (*models.Exam, error) {
	exam, err := s.repo.Exam().GetByID(ctx, tx, examID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("failed to get exam: %w", err)
	}
	if !actor.owns(exam.TeacherID) {
		return nil, NewPermissionError(actor.UserID, examID, "exam", action, "not the exam owner")
	}
	return exam, nil
}

// wrap keeps domain errors intact for the handler mapping.
func (s *gradingService) wrap(err error, msg string) error {
	var (
		verrs ValidationErrors
		perr  *PermissionError
	)
	if errors.As(err, &verrs) || errors.As(err, &perr) ||
		errors.Is(err, ErrNotFound) || errors.Is(err, ErrPreconditionFailed) {
		return err
	}
	return fmt.Errorf("%s: %w", msg, err)
}
