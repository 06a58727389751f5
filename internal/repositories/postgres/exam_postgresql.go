package postgres

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/SAP-F-2025/classroom-service/internal/cache"
	"github.com/SAP-F-2025/classroom-service/internal/models"
	"github.com/SAP-F-2025/classroom-service/internal/repositories"
)

type ExamPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewExamPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.ExamRepository {
	return &ExamPostgreSQL{
		db:           db,
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

// getDB returns the transaction DB if provided, otherwise returns the default DB
func (e *ExamPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return e.db
}

// inTransaction reports whether db is bound to an open transaction.
func inTransaction(db *gorm.DB) bool {
	_, ok := db.Statement.ConnPool.(gorm.TxCommitter)
	return ok
}

// invalidate drops cached copies unless db is inside a transaction, where the
// caller invalidates after commit.
func (e *ExamPostgreSQL) invalidate(ctx context.Context, db *gorm.DB, id uint, teacherID string) {
	if inTransaction(db) {
		return
	}
	cache.InvalidateExamCache(ctx, e.cacheManager, id, teacherID)
}

func (e *ExamPostgreSQL) InvalidateCache(ctx context.Context, id uint, teacherID string) {
	cache.InvalidateExamCache(ctx, e.cacheManager, id, teacherID)
}

func (e *ExamPostgreSQL) Create(ctx context.Context, tx *gorm.DB, exam *models.Exam) error {
	db := e.getDB(tx)
	if err := db.WithContext(ctx).Create(exam).Error; err != nil {
		return fmt.Errorf("failed to create exam: %w", err)
	}
	if !inTransaction(db) {
		cache.SafeDelete(ctx, e.cacheManager.Stats, cache.TeacherStatsKey(exam.TeacherID))
	}
	return nil
}

// GetByID serves from cache outside transactions. Reads inside a transaction
// always hit the database and are never cached.
func (e *ExamPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Exam, error) {
	db := e.getDB(tx)
	if inTransaction(db) {
		var exam models.Exam
		if err := db.WithContext(ctx).First(&exam, id).Error; err != nil {
			return nil, fmt.Errorf("failed to get exam: %w", err)
		}
		return &exam, nil
	}

	var exam models.Exam
	err := e.cacheManager.Exam.CacheOrExecute(ctx, cache.ExamKey(id), &exam, cache.ExamCacheConfig.TTL, func() (interface{}, error) {
		var dbExam models.Exam
		if err := db.WithContext(ctx).First(&dbExam, id).Error; err != nil {
			return nil, fmt.Errorf("failed to get exam: %w", err)
		}
		return &dbExam, nil
	})
	if err != nil {
		return nil, err
	}
	return &exam, nil
}

func (e *ExamPostgreSQL) Update(ctx context.Context, tx *gorm.DB, exam *models.Exam) error {
	db := e.getDB(tx)
	err := db.WithContext(ctx).
		Model(exam).
		Select("title", "subject", "grade", "description", "type", "questions",
			"total_points", "duration", "deadline", "class_names", "assigned_student_ids").
		Updates(exam).Error
	if err != nil {
		return fmt.Errorf("failed to update exam: %w", err)
	}
	e.invalidate(ctx, db, exam.ID, exam.TeacherID)
	return nil
}

func (e *ExamPostgreSQL) UpdateFields(ctx context.Context, tx *gorm.DB, id uint, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	db := e.getDB(tx)
	result := db.WithContext(ctx).
		Model(&models.Exam{}).
		Where("id = ?", id).
		Updates(fields)
	if result.Error != nil {
		return fmt.Errorf("failed to update exam fields: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	e.invalidate(ctx, db, id, "")
	return nil
}

func (e *ExamPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	db := e.getDB(tx)
	result := db.WithContext(ctx).Delete(&models.Exam{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete exam: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	e.invalidate(ctx, db, id, "")
	return nil
}

func (e *ExamPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.ExamFilters) ([]*models.Exam, int64, error) {
	query := e.getDB(tx).WithContext(ctx).Model(&models.Exam{})

	if filters.TeacherID != nil {
		query = query.Where("teacher_id = ?", *filters.TeacherID)
	}
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.Subject != nil && *filters.Subject != "" {
		query = query.Where("subject = ?", *filters.Subject)
	}
	query = ApplySearch(query, filters.Query, "title", "subject")

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count exams: %w", err)
	}

	var exams []*models.Exam
	query = ApplyPaginationAndSort(query, filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset)
	if err := query.Find(&exams).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list exams: %w", err)
	}
	return exams, total, nil
}

func (e *ExamPostgreSQL) ListPublishedByTeachers(ctx context.Context, tx *gorm.DB, teacherIDs []string) ([]*models.Exam, error) {
	if len(teacherIDs) == 0 {
		return []*models.Exam{}, nil
	}
	var exams []*models.Exam
	err := e.getDB(tx).WithContext(ctx).
		Where("teacher_id IN ? AND status IN ?", teacherIDs,
			[]models.ExamStatus{models.ExamPublished, models.ExamCompleted}).
		Order("created_at DESC").
		Find(&exams).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list published exams: %w", err)
	}
	return exams, nil
}

func (e *ExamPostgreSQL) IncrementCounters(ctx context.Context, tx *gorm.DB, id uint, submitted, graded int) error {
	if submitted == 0 && graded == 0 {
		return nil
	}
	db := e.getDB(tx)
	err := db.WithContext(ctx).
		Model(&models.Exam{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"submitted_count": gorm.Expr("submitted_count + ?", submitted),
			"graded_count":    gorm.Expr("graded_count + ?", graded),
		}).Error
	if err != nil {
		return fmt.Errorf("failed to increment exam counters: %w", err)
	}
	e.invalidate(ctx, db, id, "")
	return nil
}
