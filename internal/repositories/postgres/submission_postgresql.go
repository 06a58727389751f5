package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/SAP-F-2025/classroom-service/internal/models"
	"github.com/SAP-F-2025/classroom-service/internal/repositories"
)

type SubmissionPostgreSQL struct {
	db *gorm.DB
}

func NewSubmissionPostgreSQL(db *gorm.DB) repositories.SubmissionRepository {
	return &SubmissionPostgreSQL{db: db}
}

func (s *SubmissionPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return s.db
}

// Create fails with a duplicate error when the student already has a
// submission for the exam.
func (s *SubmissionPostgreSQL) Create(ctx context.Context, tx *gorm.DB, submission *models.ExamSubmission) error {
	if err := s.getDB(tx).WithContext(ctx).Omit(clause.Associations).Create(submission).Error; err != nil {
		return fmt.Errorf("failed to create submission: %w", err)
	}
	return nil
}

func (s *SubmissionPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.ExamSubmission, error) {
	var submission models.ExamSubmission
	err := s.getDB(tx).WithContext(ctx).
		Preload("Student").
		First(&submission, id).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}
	return &submission, nil
}

// GetByIDForUpdate takes a row lock; only meaningful inside a transaction.
func (s *SubmissionPostgreSQL) GetByIDForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*models.ExamSubmission, error) {
	db := s.getDB(tx).WithContext(ctx)
	if db.Dialector.Name() == "postgres" {
		db = db.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var submission models.ExamSubmission
	if err := db.First(&submission, id).Error; err != nil {
		return nil, fmt.Errorf("failed to lock submission: %w", err)
	}
	return &submission, nil
}

func (s *SubmissionPostgreSQL) GetByExamAndStudent(ctx context.Context, tx *gorm.DB, examID, studentID uint) (*models.ExamSubmission, error) {
	var submission models.ExamSubmission
	err := s.getDB(tx).WithContext(ctx).
		Where("exam_id = ? AND student_id = ?", examID, studentID).
		First(&submission).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}
	return &submission, nil
}

func (s *SubmissionPostgreSQL) ListByExam(ctx context.Context, tx *gorm.DB, examID uint, filters repositories.SubmissionFilters) ([]*models.ExamSubmission, int64, error) {
	query := s.getDB(tx).WithContext(ctx).
		Model(&models.ExamSubmission{}).
		Where("exam_id = ?", examID)
	return s.list(query, filters, "Student")
}

func (s *SubmissionPostgreSQL) ListByStudents(ctx context.Context, tx *gorm.DB, studentIDs []uint, filters repositories.SubmissionFilters) ([]*models.ExamSubmission, int64, error) {
	if len(studentIDs) == 0 {
		return []*models.ExamSubmission{}, 0, nil
	}
	query := s.getDB(tx).WithContext(ctx).
		Model(&models.ExamSubmission{}).
		Where("student_id IN ?", studentIDs)
	return s.list(query, filters, "Exam")
}

func (s *SubmissionPostgreSQL) list(query *gorm.DB, filters repositories.SubmissionFilters, preload string) ([]*models.ExamSubmission, int64, error) {
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count submissions: %w", err)
	}

	var submissions []*models.ExamSubmission
	query = ApplyPaginationAndSort(query.Preload(preload), filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset)
	if err := query.Find(&submissions).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list submissions: %w", err)
	}
	return submissions, total, nil
}

func (s *SubmissionPostgreSQL) ExistsForExam(ctx context.Context, tx *gorm.DB, examID uint) (bool, error) {
	var count int64
	err := s.getDB(tx).WithContext(ctx).
		Model(&models.ExamSubmission{}).
		Where("exam_id = ?", examID).
		Limit(1).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check submissions: %w", err)
	}
	return count > 0, nil
}

func (s *SubmissionPostgreSQL) MarkSubmitted(ctx context.Context, tx *gorm.DB, submission *models.ExamSubmission) (bool, error) {
	result := s.getDB(tx).WithContext(ctx).
		Model(&models.ExamSubmission{}).
		Where("id = ? AND status = ?", submission.ID, models.SubmissionInProgress).
		Updates(map[string]interface{}{
			"answers":                submission.Answers,
			"mc_score":               submission.McScore,
			"essay_score":            submission.EssayScore,
			"score":                  submission.Score,
			"total_points":           submission.TotalPoints,
			"total_essay_questions":  submission.TotalEssayQuestions,
			"graded_essay_questions": submission.GradedEssayQuestions,
			"status":                 submission.Status,
			"submitted_at":           submission.SubmittedAt,
			"graded_at":              submission.GradedAt,
			"time_spent":             submission.TimeSpent,
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to mark submission submitted: %w", result.Error)
	}
	return result.RowsAffected == 1, nil
}

func (s *SubmissionPostgreSQL) SaveGrading(ctx context.Context, tx *gorm.DB, submission *models.ExamSubmission) error {
	err := s.getDB(tx).WithContext(ctx).
		Model(&models.ExamSubmission{}).
		Where("id = ?", submission.ID).
		Updates(map[string]interface{}{
			"answers":                submission.Answers,
			"essay_score":            submission.EssayScore,
			"score":                  submission.Score,
			"graded_essay_questions": submission.GradedEssayQuestions,
			"status":                 submission.Status,
			"graded_at":              submission.GradedAt,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to save grading: %w", err)
	}
	return nil
}
