package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/classroom-service/internal/models"
	"github.com/SAP-F-2025/classroom-service/internal/repositories"
	"github.com/SAP-F-2025/classroom-service/internal/utils"
	"github.com/SAP-F-2025/classroom-service/internal/validator"
)

// studentService manages a teacher's roster.
type studentService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
}

func NewStudentService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator) StudentService {
	return &studentService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
	}
}

func (s *studentService) Create(ctx context.Context, req *StudentRequest, actor Actor) (*models.Student, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	student := &models.Student{TeacherID: actor.UserID}
	applyStudentRequest(student, req)

	if err := s.repo.Student().Create(ctx, s.db, student); err != nil {
		if repositories.IsDuplicateError(err) {
			return nil, ErrDuplicateStudentCode
		}
		return nil, fmt.Errorf("failed to create student: %w", err)
	}

	s.logger.Info("Student created", "student_id", student.ID, "teacher_id", actor.UserID, "class", student.ClassName)
	return student, nil
}

func (s *studentService) GetByID(ctx context.Context, id uint, actor Actor) (*models.Student, error) {
	return s.getOwned(ctx, id, actor, "read")
}

func (s *studentService) Update(ctx context.Context, id uint, req *StudentRequest, actor Actor) (*models.Student, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	student, err := s.getOwned(ctx, id, actor, "update")
	if err != nil {
		return nil, err
	}
	applyStudentRequest(student, req)

	if err := s.repo.Student().Update(ctx, s.db, student); err != nil {
		if repositories.IsDuplicateError(err) {
			return nil, ErrDuplicateStudentCode
		}
		return nil, fmt.Errorf("failed to update student: %w", err)
	}
	return student, nil
}

func (s *studentService) Delete(ctx context.Context, id uint, actor Actor) error {
	if _, err := s.getOwned(ctx, id, actor, "delete"); err != nil {
		return err
	}
	if err := s.repo.Student().Delete(ctx, s.db, id); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrStudentNotFound
		}
		return fmt.Errorf("failed to delete student: %w", err)
	}
	s.logger.Info("Student deleted", "student_id", id)
	return nil
}

func (s *studentService) List(ctx context.Context, query StudentListQuery, actor Actor) (*models.PaginatedResponse, error) {
	limit, offset := utils.Paginate(query.Page, query.Size)
	students, total, err := s.repo.Student().List(ctx, s.db, repositories.StudentFilters{
		TeacherID: actor.UserID,
		ClassName: query.ClassName,
		Query:     query.Query,
		Limit:     limit,
		Offset:    offset,
		SortBy:    query.SortBy,
		SortOrder: query.SortOrder,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list students: %w", err)
	}

	page := models.NewPaginatedResponse(students, total, query.Page, limit)
	return &page, nil
}

func (s *studentService) ListClasses(ctx context.Context, actor Actor) ([]string, error) {
	classes, err := s.repo.Student().ListClasses(ctx, s.db, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list classes: %w", err)
	}
	if classes == nil {
		classes = []string{}
	}
	return classes, nil
}

// LinkUser attaches the identity-provider account so the student can log in
// and see assigned exams.
func (s *studentService) LinkUser(ctx context.Context, id uint, req *LinkUserRequest, actor Actor) (*models.Student, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	student, err := s.getOwned(ctx, id, actor, "link")
	if err != nil {
		return nil, err
	}

	var user *models.User
	if req.UserID != "" {
		user, err = s.repo.User().GetByID(ctx, req.UserID)
	} else {
		user, err = s.repo.User().GetByEmail(ctx, strings.TrimSpace(req.Email))
	}
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if user.Role != models.RoleStudent {
		return nil, NewBusinessRuleError("student_account", "only student accounts can be linked", map[string]interface{}{
			"userId": user.ID,
			"role":   user.Role,
		})
	}

	student.UserID = &user.ID
	if student.Email == "" {
		student.Email = user.Email
	}
	if err := s.repo.Student().Update(ctx, s.db, student); err != nil {
		return nil, fmt.Errorf("failed to link user: %w", err)
	}

	s.logger.Info("Student linked to account", "student_id", id, "user_id", user.ID)
	return student, nil
}

func (s *studentService) getOwned(ctx context.Context, id uint, actor Actor, action string) (*models.Student, error) {
	student, err := s.repo.Student().GetByID(ctx, s.db, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrStudentNotFound
		}
		return nil, fmt.Errorf("failed to get student: %w", err)
	}
	if !actor.owns(student.TeacherID) {
		return nil, NewPermissionError(actor.UserID, id, "student", action, "not on your roster")
	}
	return student, nil
}

func applyStudentRequest(student *models.Student, req *StudentRequest) {
	student.StudentCode = strings.TrimSpace(req.StudentCode)
	student.FullName = strings.TrimSpace(req.FullName)
	student.ClassName = strings.TrimSpace(req.ClassName)
	student.Email = strings.TrimSpace(req.Email)
	student.Phone = strings.TrimSpace(req.Phone)
	student.DateOfBirth = req.DateOfBirth
	student.Gender = req.Gender
	student.Notes = req.Notes
}
