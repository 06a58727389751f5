package models

import (
	"slices"
	"time"

	"gorm.io/datatypes"
)

type SubmissionStatus string

const (
	SubmissionInProgress SubmissionStatus = "in_progress"
	SubmissionSubmitted  SubmissionStatus = "submitted"
	SubmissionGraded     SubmissionStatus = "graded"
)

var submissionTransitions = map[SubmissionStatus][]SubmissionStatus{
	SubmissionInProgress: {SubmissionSubmitted, SubmissionGraded},
	SubmissionSubmitted:  {SubmissionGraded},
	SubmissionGraded:     {},
}

// CanTransitionTo is the single source of truth for submission status changes.
func (s SubmissionStatus) CanTransitionTo(next SubmissionStatus) bool {
	return slices.Contains(submissionTransitions[s], next)
}

func (s SubmissionStatus) IsFinal() bool {
	return s == SubmissionSubmitted || s == SubmissionGraded
}

func (s SubmissionStatus) IsValid() bool {
	_, ok := submissionTransitions[s]
	return ok
}

// SubmissionAnswer is one stored answer. Answer is the selected option for
// multiple-choice questions, EssayAnswer the free text for essays.
type SubmissionAnswer struct {
	QuestionIndex int      `json:"questionIndex"`
	Answer        *int     `json:"answer,omitempty"`
	EssayAnswer   string   `json:"essayAnswer,omitempty"`
	EssayScore    *float64 `json:"essayScore,omitempty"`
	Feedback      string   `json:"feedback,omitempty"`
	Graded        bool     `json:"graded,omitempty"`
}

type ExamSubmission struct {
	ID        uint `json:"id" gorm:"primaryKey"`
	ExamID    uint `json:"examId" gorm:"not null;uniqueIndex:idx_submission_exam_student"`
	StudentID uint `json:"studentId" gorm:"not null;uniqueIndex:idx_submission_exam_student;index"`

	Answers datatypes.JSONSlice[SubmissionAnswer] `json:"answers"`

	McScore     float64 `json:"mcScore" gorm:"not null;default:0"`
	EssayScore  float64 `json:"essayScore" gorm:"not null;default:0"`
	Score       float64 `json:"score" gorm:"not null;default:0"`
	TotalPoints float64 `json:"totalPoints" gorm:"not null;default:0"`

	TotalEssayQuestions  int `json:"totalEssayQuestions" gorm:"not null;default:0"`
	GradedEssayQuestions int `json:"gradedEssayQuestions" gorm:"not null;default:0"`

	Status      SubmissionStatus `json:"status" gorm:"size:20;not null;index"`
	StartedAt   *time.Time       `json:"startedAt,omitempty"`
	SubmittedAt *time.Time       `json:"submittedAt,omitempty"`
	GradedAt    *time.Time       `json:"gradedAt,omitempty"`
	TimeSpent   int              `json:"timeSpent"` // seconds

	Exam    *Exam    `json:"exam,omitempty" gorm:"foreignKey:ExamID"`
	Student *Student `json:"student,omitempty" gorm:"foreignKey:StudentID"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (ExamSubmission) TableName() string {
	return "exam_submissions"
}

// AnswerAt returns the stored answer for a question index.
func (s *ExamSubmission) AnswerAt(index int) (int, *SubmissionAnswer) {
	for i := range s.Answers {
		if s.Answers[i].QuestionIndex == index {
			return i, &s.Answers[i]
		}
	}
	return -1, nil
}

// EssayTotal sums the scores of graded essay answers.
func (s *ExamSubmission) EssayTotal() float64 {
	var total float64
	for _, a := range s.Answers {
		if a.Graded && a.EssayScore != nil {
			total += *a.EssayScore
		}
	}
	return total
}
