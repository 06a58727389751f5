package postgres

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/classroom-service/internal/models"
	"github.com/SAP-F-2025/classroom-service/internal/repositories"
)

type StudentPostgreSQL struct {
	db *gorm.DB
}

func NewStudentPostgreSQL(db *gorm.DB) repositories.StudentRepository {
	return &StudentPostgreSQL{db: db}
}

func (s *StudentPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return s.db
}

func (s *StudentPostgreSQL) Create(ctx context.Context, tx *gorm.DB, student *models.Student) error {
	if err := s.getDB(tx).WithContext(ctx).Create(student).Error; err != nil {
		return fmt.Errorf("failed to create student: %w", err)
	}
	return nil
}

func (s *StudentPostgreSQL) CreateBatch(ctx context.Context, tx *gorm.DB, students []*models.Student) error {
	if len(students) == 0 {
		return nil
	}
	if err := s.getDB(tx).WithContext(ctx).CreateInBatches(students, 100).Error; err != nil {
		return fmt.Errorf("failed to create students: %w", err)
	}
	return nil
}

func (s *StudentPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Student, error) {
	var student models.Student
	if err := s.getDB(tx).WithContext(ctx).First(&student, id).Error; err != nil {
		return nil, fmt.Errorf("failed to get student: %w", err)
	}
	return &student, nil
}

func (s *StudentPostgreSQL) GetByCode(ctx context.Context, tx *gorm.DB, teacherID, code string) (*models.Student, error) {
	var student models.Student
	err := s.getDB(tx).WithContext(ctx).
		Where("teacher_id = ? AND student_code = ?", teacherID, code).
		First(&student).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get student by code: %w", err)
	}
	return &student, nil
}

// ListByUserID returns every roster entry linked to a login account; a student
// may be on several teachers' rosters.
func (s *StudentPostgreSQL) ListByUserID(ctx context.Context, tx *gorm.DB, userID string) ([]*models.Student, error) {
	var students []*models.Student
	err := s.getDB(tx).WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id ASC").
		Find(&students).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list students by user: %w", err)
	}
	return students, nil
}

func (s *StudentPostgreSQL) Update(ctx context.Context, tx *gorm.DB, student *models.Student) error {
	err := s.getDB(tx).WithContext(ctx).
		Model(student).
		Select("user_id", "student_code", "full_name", "class_name", "email",
			"phone", "date_of_birth", "gender", "notes").
		Updates(student).Error
	if err != nil {
		return fmt.Errorf("failed to update student: %w", err)
	}
	return nil
}

func (s *StudentPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	result := s.getDB(tx).WithContext(ctx).Delete(&models.Student{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete student: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (s *StudentPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.StudentFilters) ([]*models.Student, int64, error) {
	query := s.getDB(tx).WithContext(ctx).
		Model(&models.Student{}).
		Where("teacher_id = ?", filters.TeacherID)

	if filters.ClassName != nil && *filters.ClassName != "" {
		query = query.Where("LOWER(class_name) = ?", strings.ToLower(*filters.ClassName))
	}
	query = ApplySearch(query, filters.Query, "full_name", "student_code", "email")

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count students: %w", err)
	}

	sortBy := filters.SortBy
	if sortBy == "" {
		sortBy = "full_name"
		if filters.SortOrder == "" {
			filters.SortOrder = "asc"
		}
	}

	var students []*models.Student
	query = ApplyPaginationAndSort(query, sortBy, filters.SortOrder, filters.Limit, filters.Offset)
	if err := query.Find(&students).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list students: %w", err)
	}
	return students, total, nil
}

func (s *StudentPostgreSQL) ListClasses(ctx context.Context, tx *gorm.DB, teacherID string) ([]string, error) {
	var classes []string
	err := s.getDB(tx).WithContext(ctx).
		Model(&models.Student{}).
		Where("teacher_id = ? AND class_name <> ''", teacherID).
		Distinct("class_name").
		Order("class_name ASC").
		Pluck("class_name", &classes).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list classes: %w", err)
	}
	return classes, nil
}

func (s *StudentPostgreSQL) CountAssigned(ctx context.Context, tx *gorm.DB, teacherID string, classNames []string, studentIDs []uint) (int64, error) {
	if len(classNames) == 0 && len(studentIDs) == 0 {
		return 0, nil
	}

	lowered := make([]string, 0, len(classNames))
	for _, c := range classNames {
		lowered = append(lowered, strings.ToLower(c))
	}

	query := s.getDB(tx).WithContext(ctx).
		Model(&models.Student{}).
		Where("teacher_id = ?", teacherID)

	switch {
	case len(lowered) > 0 && len(studentIDs) > 0:
		query = query.Where("(LOWER(class_name) IN ? OR id IN ?)", lowered, studentIDs)
	case len(lowered) > 0:
		query = query.Where("LOWER(class_name) IN ?", lowered)
	default:
		query = query.Where("id IN ?", studentIDs)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count assigned students: %w", err)
	}
	return count, nil
}
