package models

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ExamType string

const (
	ExamTypeMultipleChoice ExamType = "multiple_choice"
	ExamTypeEssay          ExamType = "essay"
	ExamTypeMixed          ExamType = "mixed"
)

type ExamStatus string

const (
	ExamDraft     ExamStatus = "draft"
	ExamPublished ExamStatus = "published"
	ExamCompleted ExamStatus = "completed"
)

var examTransitions = map[ExamStatus][]ExamStatus{
	ExamDraft:     {ExamPublished},
	ExamPublished: {ExamCompleted},
	ExamCompleted: {},
}

func (s ExamStatus) CanTransitionTo(next ExamStatus) bool {
	return slices.Contains(examTransitions[s], next)
}

type QuestionType string

const (
	QuestionMultipleChoice QuestionType = "multiple_choice"
	QuestionEssay          QuestionType = "essay"
)

// DefaultExamTotalPoints is used when neither the request nor teacher settings give one.
const DefaultExamTotalPoints = 10.0

// MaxQuestionOptions is the most options a multiple-choice question carries,
// one per A..F column of the question sheet.
const MaxQuestionOptions = 6

// Question is stored inline in the exam's questions column, addressed by its index.
type Question struct {
	Question    string       `json:"question"`
	Type        QuestionType `json:"type"`
	Answers     []string     `json:"answers,omitempty"`
	Correct     *int         `json:"correct,omitempty"`
	Points      float64      `json:"points,omitempty"`
	Rubric      string       `json:"rubric,omitempty"`
	Explanation string       `json:"explanation,omitempty"`
}

// Weight is the question's point weight; an unset or non-positive weight counts as 1.
func (q Question) Weight() float64 {
	if q.Points <= 0 {
		return 1
	}
	return q.Points
}

func (q Question) IsEssay() bool {
	return q.Type == QuestionEssay
}

// IsCorrect reports whether selected matches the answer key of a multiple-choice question.
func (q Question) IsCorrect(selected *int) bool {
	if q.IsEssay() || q.Correct == nil || selected == nil {
		return false
	}
	return *q.Correct == *selected
}

type Exam struct {
	ID          uint     `json:"id" gorm:"primaryKey"`
	Title       string   `json:"title" gorm:"not null;size:200;index"`
	Subject     string   `json:"subject" gorm:"size:100;index"`
	Grade       string   `json:"grade,omitempty" gorm:"size:20"`
	Description string   `json:"description,omitempty" gorm:"type:text"`
	Type        ExamType `json:"type" gorm:"size:20;not null"`

	Questions   datatypes.JSONSlice[Question] `json:"questions"`
	TotalPoints float64                       `json:"totalPoints" gorm:"not null"`
	Duration    int                           `json:"duration"` // minutes
	Deadline    *time.Time                    `json:"deadline,omitempty"`

	Status             ExamStatus                  `json:"status" gorm:"size:20;not null;index"`
	TeacherID          string                      `json:"teacherId" gorm:"not null;size:255;index"`
	ClassNames         datatypes.JSONSlice[string] `json:"className"`
	AssignedStudentIDs datatypes.JSONSlice[uint]   `json:"assignedStudents"`

	StudentsAssigned int `json:"studentsAssigned" gorm:"not null;default:0"`
	SubmittedCount   int `json:"submitted" gorm:"not null;default:0"`
	GradedCount      int `json:"graded" gorm:"not null;default:0"`

	PublishedAt *time.Time     `json:"publishedAt,omitempty"`
	CompletedAt *time.Time     `json:"completedAt,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`
}

func (Exam) TableName() string {
	return "exams"
}

func (e *Exam) HasEssay() bool {
	for _, q := range e.Questions {
		if q.IsEssay() {
			return true
		}
	}
	return false
}

// QuestionPoints returns the weight sum of multiple-choice questions and of all questions.
func (e *Exam) QuestionPoints() (mcPoints, totalPoints float64) {
	for _, q := range e.Questions {
		w := q.Weight()
		totalPoints += w
		if !q.IsEssay() {
			mcPoints += w
		}
	}
	return mcPoints, totalPoints
}

// IsAssignedTo reports whether the student is targeted by class or individually.
func (e *Exam) IsAssignedTo(s *Student) bool {
	if s == nil {
		return false
	}
	if slices.Contains([]uint(e.AssignedStudentIDs), s.ID) {
		return true
	}
	class := strings.TrimSpace(s.ClassName)
	if class == "" {
		return false
	}
	for _, c := range e.ClassNames {
		if strings.EqualFold(strings.TrimSpace(c), class) {
			return true
		}
	}
	return false
}

// DeadlinePassed reports whether now is after the exam deadline.
func (e *Exam) DeadlinePassed(now time.Time) bool {
	return e.Deadline != nil && now.After(*e.Deadline)
}

// InferType derives the exam type from its questions.
func InferType(questions []Question) ExamType {
	var mc, essay bool
	for _, q := range questions {
		if q.IsEssay() {
			essay = true
		} else {
			mc = true
		}
	}
	switch {
	case mc && essay:
		return ExamTypeMixed
	case essay:
		return ExamTypeEssay
	default:
		return ExamTypeMultipleChoice
	}
}

// ClassNames accepts either a single class name or a list of them on input
// and always holds an ordered, de-duplicated list.
type ClassNames []string

func (c *ClassNames) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		*c = nil
		return nil
	}

	var raw []string
	if strings.HasPrefix(trimmed, "[") {
		if err := json.Unmarshal(data, &raw); err != nil {
			return fmt.Errorf("className: %w", err)
		}
	} else {
		var single string
		if err := json.Unmarshal(data, &single); err != nil {
			return fmt.Errorf("className must be a string or an array of strings")
		}
		raw = strings.Split(single, ",")
	}

	*c = NormalizeClassNames(raw)
	return nil
}

func NormalizeClassNames(in []string) ClassNames {
	out := make(ClassNames, 0, len(in))
	for _, name := range in {
		name = strings.TrimSpace(name)
		if name == "" || slices.Contains(out, name) {
			continue
		}
		out = append(out, name)
	}
	return out
}
