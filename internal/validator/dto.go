package validator

import (
	"time"

	"github.com/SAP-F-2025/classroom-service/internal/models"
)

// QuestionRequest is one question as authored by the teacher.
type QuestionRequest struct {
	Question    string              `json:"question" validate:"required,max=2000"`
	Type        models.QuestionType `json:"type" validate:"required,question_type"`
	Answers     []string            `json:"answers" validate:"omitempty,max=6,dive,max=500"`
	Correct     *int                `json:"correct"`
	Points      float64             `json:"points" validate:"gte=0,max=100"`
	Rubric      string              `json:"rubric" validate:"max=2000"`
	Explanation string              `json:"explanation" validate:"max=2000"`
}

func (q QuestionRequest) ToModel() models.Question {
	question := models.Question{
		Question:    q.Question,
		Type:        q.Type,
		Answers:     q.Answers,
		Points:      q.Points,
		Rubric:      q.Rubric,
		Explanation: q.Explanation,
	}
	if q.Type == models.QuestionMultipleChoice && q.Correct != nil {
		correct := *q.Correct
		question.Correct = &correct
	}
	if q.Type == models.QuestionEssay {
		question.Answers = nil
	}
	return question
}

func QuestionsToModel(in []QuestionRequest) []models.Question {
	out := make([]models.Question, len(in))
	for i, q := range in {
		out[i] = q.ToModel()
	}
	return out
}

// ExamCreateRequest is the body of POST /exams. className may be a string or a list.
type ExamCreateRequest struct {
	Title            string            `json:"title" validate:"required,max=200"`
	Subject          string            `json:"subject" validate:"max=100"`
	Grade            string            `json:"grade" validate:"max=20"`
	Description      string            `json:"description" validate:"max=2000"`
	Type             models.ExamType   `json:"type" validate:"omitempty,exam_type"`
	Questions        []QuestionRequest `json:"questions" validate:"max=200,dive"`
	TotalPoints      *float64          `json:"totalPoints" validate:"omitempty,gt=0,max=1000"`
	Duration         *int              `json:"duration" validate:"omitempty,min=0,max=600"`
	Deadline         *time.Time        `json:"deadline"`
	ClassName        models.ClassNames `json:"className" validate:"max=50,dive,max=50"`
	AssignedStudents []uint            `json:"assignedStudents" validate:"max=1000"`
}

// ExamUpdateRequest replaces only the fields that are present.
type ExamUpdateRequest struct {
	Title            *string            `json:"title" validate:"omitempty,min=1,max=200"`
	Subject          *string            `json:"subject" validate:"omitempty,max=100"`
	Grade            *string            `json:"grade" validate:"omitempty,max=20"`
	Description      *string            `json:"description" validate:"omitempty,max=2000"`
	Type             *models.ExamType   `json:"type" validate:"omitempty,exam_type"`
	Questions        *[]QuestionRequest `json:"questions" validate:"omitempty,max=200,dive"`
	TotalPoints      *float64           `json:"totalPoints" validate:"omitempty,gt=0,max=1000"`
	Duration         *int               `json:"duration" validate:"omitempty,min=0,max=600"`
	Deadline         *time.Time         `json:"deadline"`
	ClassName        *models.ClassNames `json:"className" validate:"omitempty,max=50,dive,max=50"`
	AssignedStudents *[]uint            `json:"assignedStudents" validate:"omitempty,max=1000"`
}

// AnswerRequest is one answer in a submit body.
type AnswerRequest struct {
	QuestionIndex int    `json:"questionIndex"`
	Answer        *int   `json:"answer"`
	EssayAnswer   string `json:"essayAnswer" validate:"max=20000"`
}

type SubmitExamRequest struct {
	Answers   []AnswerRequest `json:"answers" validate:"max=500,dive"`
	TimeSpent int             `json:"timeSpent" validate:"gte=0"`
}

type GradeEssayRequest struct {
	QuestionIndex int     `json:"questionIndex" validate:"gte=0"`
	Score         float64 `json:"score" validate:"gte=0"`
	Feedback      string  `json:"feedback" validate:"max=2000"`
}
