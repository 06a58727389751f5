package validator

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/SAP-F-2025/classroom-service/internal/models"
)

// BusinessValidator handles rules that span fields.
type BusinessValidator struct {
	validate *validator.Validate
}

func (bv *BusinessValidator) checkStruct(s interface{}) ValidationErrors {
	if err := bv.validate.Struct(s); err != nil {
		return ToValidationErrors(err)
	}
	return nil
}

func (bv *BusinessValidator) ValidateExamCreate(req *ExamCreateRequest, now time.Time) ValidationErrors {
	var errs ValidationErrors
	errs = append(errs, bv.checkStruct(req)...)
	errs = append(errs, ValidateQuestions("questions", req.Questions)...)
	errs = append(errs, validateDeadline(req.Deadline, now)...)
	errs = append(errs, validateTypeMatches(req.Type, req.Questions)...)
	return errs
}

func (bv *BusinessValidator) ValidateExamUpdate(req *ExamUpdateRequest, now time.Time) ValidationErrors {
	var errs ValidationErrors
	errs = append(errs, bv.checkStruct(req)...)
	if req.Questions != nil {
		errs = append(errs, ValidateQuestions("questions", *req.Questions)...)
		if req.Type != nil {
			errs = append(errs, validateTypeMatches(*req.Type, *req.Questions)...)
		}
	}
	errs = append(errs, validateDeadline(req.Deadline, now)...)
	return errs
}

// ValidateStatusTransition checks an exam lifecycle move.
func (bv *BusinessValidator) ValidateStatusTransition(current, next models.ExamStatus, questionCount int) ValidationErrors {
	var errs ValidationErrors
	if !current.CanTransitionTo(next) {
		errs = append(errs, ValidationError{
			Field:   "status",
			Message: fmt.Sprintf("cannot transition from %s to %s", current, next),
			Value:   next,
			Rule:    "status_transition",
		})
	}
	if next == models.ExamPublished && questionCount == 0 {
		errs = append(errs, ValidationError{
			Field:   "questions",
			Message: "exam must have at least one question before publishing",
			Value:   questionCount,
			Rule:    "business_logic",
		})
	}
	return errs
}

// ValidateQuestions checks option lists and answer keys. prefix names the
// field in the returned errors.
func ValidateQuestions(prefix string, questions []QuestionRequest) ValidationErrors {
	var errs ValidationErrors
	for i, q := range questions {
		field := fmt.Sprintf("%s[%d]", prefix, i)
		if strings.TrimSpace(q.Question) == "" {
			errs = append(errs, ValidationError{Field: field + ".question", Message: "cannot be empty", Rule: "business_logic"})
		}
		if q.Type != models.QuestionMultipleChoice {
			continue
		}
		if len(q.Answers) < 2 {
			errs = append(errs, ValidationError{
				Field:   field + ".answers",
				Message: "must have at least 2 options",
				Value:   len(q.Answers),
				Rule:    "business_logic",
			})
		}
		if len(q.Answers) > models.MaxQuestionOptions {
			errs = append(errs, ValidationError{
				Field:   field + ".answers",
				Message: fmt.Sprintf("must have at most %d options", models.MaxQuestionOptions),
				Value:   len(q.Answers),
				Rule:    "business_logic",
			})
		}
		for j, a := range q.Answers {
			if strings.TrimSpace(a) == "" {
				errs = append(errs, ValidationError{
					Field:   fmt.Sprintf("%s.answers[%d]", field, j),
					Message: "option text cannot be empty",
					Rule:    "business_logic",
				})
			}
		}
		if q.Correct == nil || *q.Correct < 0 || *q.Correct >= len(q.Answers) {
			errs = append(errs, ValidationError{
				Field:   field + ".correct",
				Message: "must reference one of the options",
				Value:   q.Correct,
				Rule:    "business_logic",
			})
		}
	}
	return errs
}

func validateDeadline(deadline *time.Time, now time.Time) ValidationErrors {
	if deadline != nil && !deadline.After(now) {
		return ValidationErrors{{
			Field:   "deadline",
			Message: "must be in the future",
			Value:   deadline,
			Rule:    "future_date",
		}}
	}
	return nil
}

// validateTypeMatches rejects an explicit type that contradicts the questions.
func validateTypeMatches(examType models.ExamType, questions []QuestionRequest) ValidationErrors {
	if examType == "" || examType == models.ExamTypeMixed || len(questions) == 0 {
		return nil
	}
	for i, q := range questions {
		if string(q.Type) != string(examType) {
			return ValidationErrors{{
				Field:   fmt.Sprintf("questions[%d].type", i),
				Message: fmt.Sprintf("does not match exam type %s", examType),
				Value:   q.Type,
				Rule:    "business_logic",
			}}
		}
	}
	return nil
}
