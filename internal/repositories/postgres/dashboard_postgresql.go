package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/classroom-service/internal/models"
	"github.com/SAP-F-2025/classroom-service/internal/repositories"
)

type dashboardRepository struct {
	db *gorm.DB
}

func NewDashboardRepository(db *gorm.DB) repositories.DashboardRepository {
	return &dashboardRepository{db: db}
}

func (r *dashboardRepository) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *dashboardRepository) count(ctx context.Context, tx *gorm.DB, model interface{}, what string, scope func(*gorm.DB) *gorm.DB) (int64, error) {
	query := r.getDB(tx).WithContext(ctx).Model(model)
	if scope != nil {
		query = scope(query)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", what, err)
	}
	return count, nil
}

// ===== TEACHER =====

func (r *dashboardRepository) TeacherCounts(ctx context.Context, tx *gorm.DB, teacherID string) (*repositories.TeacherCounts, error) {
	db := r.getDB(tx)
	counts := &repositories.TeacherCounts{
		ExamsByStatus: map[models.ExamStatus]int64{
			models.ExamDraft:     0,
			models.ExamPublished: 0,
			models.ExamCompleted: 0,
		},
	}

	var byStatus []struct {
		Status models.ExamStatus
		Count  int64
	}
	if err := db.WithContext(ctx).
		Model(&models.Exam{}).
		Select("status, COUNT(*) AS count").
		Where("teacher_id = ?", teacherID).
		Group("status").
		Scan(&byStatus).Error; err != nil {
		return nil, fmt.Errorf("failed to count exams by status: %w", err)
	}
	for _, row := range byStatus {
		counts.ExamsByStatus[row.Status] = row.Count
		counts.TotalExams += row.Count
	}

	owned := func(q *gorm.DB) *gorm.DB { return q.Where("owner_id = ?", teacherID) }
	ownExams := func(q *gorm.DB) *gorm.DB {
		return q.Joins("JOIN exams ON exams.id = exam_submissions.exam_id").
			Where("exams.teacher_id = ? AND exams.deleted_at IS NULL", teacherID)
	}

	var err error
	if counts.TotalStudents, err = r.count(ctx, tx, &models.Student{}, "students", func(q *gorm.DB) *gorm.DB {
		return q.Where("teacher_id = ?", teacherID)
	}); err != nil {
		return nil, err
	}
	if counts.TotalClasses, err = r.count(ctx, tx, &models.Student{}, "classes", func(q *gorm.DB) *gorm.DB {
		return q.Where("teacher_id = ? AND class_name <> ''", teacherID).Distinct("class_name")
	}); err != nil {
		return nil, err
	}
	if counts.TotalSubmissions, err = r.count(ctx, tx, &models.ExamSubmission{}, "submissions", func(q *gorm.DB) *gorm.DB {
		return ownExams(q).Where("exam_submissions.status <> ?", models.SubmissionInProgress)
	}); err != nil {
		return nil, err
	}
	if counts.PendingGrading, err = r.count(ctx, tx, &models.ExamSubmission{}, "pending submissions", func(q *gorm.DB) *gorm.DB {
		return ownExams(q).Where("exam_submissions.status = ?", models.SubmissionSubmitted)
	}); err != nil {
		return nil, err
	}
	if counts.TotalDocuments, err = r.count(ctx, tx, &models.Document{}, "documents", owned); err != nil {
		return nil, err
	}
	if counts.TotalGames, err = r.count(ctx, tx, &models.Game{}, "games", owned); err != nil {
		return nil, err
	}
	return counts, nil
}

func (r *dashboardRepository) RecentSubmissions(ctx context.Context, tx *gorm.DB, teacherID string, limit int) ([]repositories.RecentSubmission, error) {
	if limit <= 0 {
		limit = 5
	}
	var rows []repositories.RecentSubmission
	err := r.getDB(tx).WithContext(ctx).
		Table("exam_submissions").
		Select(`exam_submissions.id AS submission_id, exams.id AS exam_id, exams.title AS exam_title,
			students.full_name AS student_name, students.class_name AS class_name,
			exam_submissions.status, exam_submissions.score, exam_submissions.total_points,
			exam_submissions.submitted_at`).
		Joins("JOIN exams ON exams.id = exam_submissions.exam_id").
		Joins("JOIN students ON students.id = exam_submissions.student_id").
		Where("exams.teacher_id = ? AND exams.deleted_at IS NULL", teacherID).
		Where("exam_submissions.submitted_at IS NOT NULL").
		Order("exam_submissions.submitted_at DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get recent submissions: %w", err)
	}
	return rows, nil
}

func (r *dashboardRepository) AverageScore(ctx context.Context, tx *gorm.DB, teacherID string) (float64, error) {
	var avg sql.NullFloat64
	err := r.getDB(tx).WithContext(ctx).
		Table("exam_submissions").
		Select("AVG(exam_submissions.score * 10.0 / exam_submissions.total_points)").
		Joins("JOIN exams ON exams.id = exam_submissions.exam_id").
		Where("exams.teacher_id = ? AND exams.deleted_at IS NULL", teacherID).
		Where("exam_submissions.status = ? AND exam_submissions.total_points > 0", models.SubmissionGraded).
		Row().Scan(&avg)
	if err != nil {
		return 0, fmt.Errorf("failed to average scores: %w", err)
	}
	return avg.Float64, nil
}

// ===== ADMIN =====

func (r *dashboardRepository) AdminCounts(ctx context.Context, tx *gorm.DB) (*repositories.AdminCounts, error) {
	counts := &repositories.AdminCounts{}

	targets := []struct {
		dest  *int64
		model interface{}
		what  string
		scope func(*gorm.DB) *gorm.DB
	}{
		{&counts.TotalExams, &models.Exam{}, "exams", nil},
		{&counts.PublishedExams, &models.Exam{}, "published exams", func(q *gorm.DB) *gorm.DB {
			return q.Where("status = ?", models.ExamPublished)
		}},
		{&counts.TotalStudents, &models.Student{}, "students", nil},
		{&counts.TotalSubmissions, &models.ExamSubmission{}, "submissions", func(q *gorm.DB) *gorm.DB {
			return q.Where("status <> ?", models.SubmissionInProgress)
		}},
		{&counts.TotalDocuments, &models.Document{}, "documents", nil},
		{&counts.TotalGames, &models.Game{}, "games", nil},
		{&counts.TotalNotebooks, &models.Notebook{}, "notebooks", nil},
		{&counts.TotalTeachers, &models.Exam{}, "teachers", func(q *gorm.DB) *gorm.DB {
			return q.Distinct("teacher_id")
		}},
	}

	for _, t := range targets {
		n, err := r.count(ctx, tx, t.model, t.what, t.scope)
		if err != nil {
			return nil, err
		}
		*t.dest = n
	}
	return counts, nil
}
