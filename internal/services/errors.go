package services

import (
	"errors"
	"fmt"

	"github.com/SAP-F-2025/classroom-service/internal/validator"
)

// ===== GENERIC =====

var (
	ErrNotFound           = errors.New("resource not found")
	ErrValidationFailed   = errors.New("validation failed")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrConflict           = errors.New("resource conflict")
	ErrPreconditionFailed = errors.New("precondition failed")
	ErrBadRequest         = errors.New("bad request")
	ErrUnavailable        = errors.New("service unavailable")
)

// ===== DOMAIN =====

var (
	ErrExamNotFound      = fmt.Errorf("exam not found: %w", ErrNotFound)
	ErrExamNotEditable   = fmt.Errorf("only draft exams can be edited: %w", ErrPreconditionFailed)
	ErrExamNotDeletable  = fmt.Errorf("only draft exams without submissions can be deleted: %w", ErrPreconditionFailed)
	ErrExamInvalidStatus = fmt.Errorf("invalid exam status transition: %w", ErrPreconditionFailed)
	ErrExamNotPublished  = fmt.Errorf("exam is not published: %w", ErrPreconditionFailed)

	ErrSubmissionNotFound   = fmt.Errorf("submission not found: %w", ErrNotFound)
	ErrSubmissionNotStarted = fmt.Errorf("exam has not been opened yet: %w", ErrPreconditionFailed)
	ErrAlreadySubmitted     = fmt.Errorf("exam already submitted: %w", ErrPreconditionFailed)
	ErrDeadlineExpired      = fmt.Errorf("exam deadline has passed: %w", ErrPreconditionFailed)
	ErrNotAwaitingGrading   = fmt.Errorf("submission is not awaiting grading: %w", ErrPreconditionFailed)
	ErrEssaysPendingGrading = fmt.Errorf("essay answers still need grading: %w", ErrPreconditionFailed)

	ErrStudentNotFound      = fmt.Errorf("student not found: %w", ErrNotFound)
	ErrStudentProfileAbsent = fmt.Errorf("no student profile is linked to this account: %w", ErrNotFound)
	ErrDuplicateStudentCode = fmt.Errorf("student code already exists: %w", ErrConflict)

	ErrDocumentNotFound = fmt.Errorf("document not found: %w", ErrNotFound)
	ErrGameNotFound     = fmt.Errorf("game not found: %w", ErrNotFound)
	ErrNotebookNotFound = fmt.Errorf("notebook not found: %w", ErrNotFound)
	ErrUserNotFound     = fmt.Errorf("user not found: %w", ErrNotFound)

	ErrAINotConfigured = fmt.Errorf("no AI API key configured: %w", ErrUnavailable)
	ErrInvalidFile     = fmt.Errorf("invalid spreadsheet: %w", ErrBadRequest)
)

// ===== TYPED ERRORS =====

type ValidationError = validator.ValidationError
type ValidationErrors = validator.ValidationErrors

func NewValidationError(field, message string, value interface{}) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
		Value:   value,
		Rule:    "business_logic",
	}
}

// PermissionError reports an action the caller may not perform.
type PermissionError struct {
	UserID     string
	ResourceID uint
	Resource   string
	Action     string
	Reason     string
}

func NewPermissionError(userID string, resourceID uint, resource, action, reason string) *PermissionError {
	return &PermissionError{
		UserID:     userID,
		ResourceID: resourceID,
		Resource:   resource,
		Action:     action,
		Reason:     reason,
	}
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("user %s cannot %s %s %d: %s", e.UserID, e.Action, e.Resource, e.ResourceID, e.Reason)
}

func (e *PermissionError) Is(target error) bool {
	return target == ErrForbidden
}

// BusinessRuleError is a rule violation with structured context.
type BusinessRuleError struct {
	Rule    string
	Message string
	Context map[string]interface{}
}

func NewBusinessRuleError(rule, message string, context map[string]interface{}) *BusinessRuleError {
	return &BusinessRuleError{Rule: rule, Message: message, Context: context}
}

func (e *BusinessRuleError) Error() string {
	return fmt.Sprintf("%s: %s", e.Rule, e.Message)
}

func (e *BusinessRuleError) Is(target error) bool {
	return target == ErrPreconditionFailed
}
