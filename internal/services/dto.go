package services

import (
	"time"

	"github.com/SAP-F-2025/classroom-service/internal/models"
	"github.com/SAP-F-2025/classroom-service/internal/repositories"
	"github.com/SAP-F-2025/classroom-service/internal/validator"
)

// Actor is the authenticated caller as resolved by the auth middleware.
type Actor struct {
	UserID string
	Role   models.UserRole
	Email  string
}

func (a Actor) IsAdmin() bool {
	return a.Role == models.RoleAdmin
}

// owns reports whether the actor may manage a resource owned by ownerID.
func (a Actor) owns(ownerID string) bool {
	return a.IsAdmin() || (a.UserID != "" && a.UserID == ownerID)
}

// ===== REQUESTS =====

type CreateExamRequest = validator.ExamCreateRequest
type UpdateExamRequest = validator.ExamUpdateRequest
type QuestionRequest = validator.QuestionRequest
type SubmitExamRequest = validator.SubmitExamRequest
type AnswerRequest = validator.AnswerRequest
type GradeEssayRequest = validator.GradeEssayRequest

// PageQuery carries the common 1-based paging and search parameters.
type PageQuery struct {
	Page      int    `form:"page"`
	Size      int    `form:"size"`
	Query     string `form:"q"`
	SortBy    string `form:"sortBy"`
	SortOrder string `form:"sortOrder"`
}

type ExamListQuery struct {
	PageQuery
	Status  *models.ExamStatus `form:"status"`
	Subject *string            `form:"subject"`
}

type SubmissionListQuery struct {
	PageQuery
	Status *models.SubmissionStatus `form:"status"`
}

type StudentListQuery struct {
	PageQuery
	ClassName *string `form:"className"`
}

type OwnerQuery struct {
	PageQuery
	Subject *string `form:"subject"`
}

type StudentRequest struct {
	StudentCode string        `json:"studentCode" validate:"required,max=50"`
	FullName    string        `json:"fullName" validate:"required,max=150"`
	ClassName   string        `json:"className" validate:"max=50"`
	Email       string        `json:"email" validate:"omitempty,email,max=255"`
	Phone       string        `json:"phone" validate:"max=30"`
	DateOfBirth *time.Time    `json:"dateOfBirth"`
	Gender      models.Gender `json:"gender" validate:"omitempty,oneof=male female other"`
	Notes       string        `json:"notes" validate:"max=2000"`
}

// LinkUserRequest attaches a login account to a roster entry, by id or email.
type LinkUserRequest struct {
	UserID string `json:"userId" validate:"required_without=Email,max=255"`
	Email  string `json:"email" validate:"required_without=UserID,omitempty,email"`
}

type DocumentRequest struct {
	Title    string `json:"title" validate:"required,max=200"`
	Subject  string `json:"subject" validate:"max=100"`
	Grade    string `json:"grade" validate:"max=20"`
	FileName string `json:"fileName" validate:"max=255"`
	MimeType string `json:"mimeType" validate:"max=100"`
	Size     int64  `json:"size" validate:"gte=0"`
	Content  string `json:"content" validate:"max=200000"`
}

type GameRequest struct {
	Title              string            `json:"title" validate:"required,max=200"`
	Subject            string            `json:"subject" validate:"max=100"`
	Grade              string            `json:"grade" validate:"max=20"`
	Questions          []QuestionRequest `json:"questions" validate:"max=100,dive"`
	SecondsPerQuestion int               `json:"secondsPerQuestion" validate:"gte=0,max=600"`
	Status             models.GameStatus `json:"status" validate:"omitempty,game_status"`
}

type PlayGameRequest struct {
	Answers []AnswerRequest `json:"answers" validate:"max=100,dive"`
}

type NotebookRequest struct {
	Title   string   `json:"title" validate:"required,max=200"`
	Content string   `json:"content" validate:"max=200000"`
	Tags    []string `json:"tags" validate:"max=20,dive,max=50"`
}

// SettingsRequest updates teacher settings. A nil AIAPIKey keeps the stored
// key and an empty one clears it.
type SettingsRequest struct {
	SchoolName         string  `json:"schoolName" validate:"max=200"`
	DefaultTotalPoints float64 `json:"defaultTotalPoints" validate:"gte=0,max=1000"`
	DefaultDuration    int     `json:"defaultDuration" validate:"gte=0,max=600"`
	AIAPIKey           *string `json:"aiApiKey" validate:"omitempty,max=255"`
	AIModel            string  `json:"aiModel" validate:"max=100"`
}

type GenerateQuestionsRequest struct {
	Subject  string `json:"subject" validate:"required,max=100"`
	Grade    string `json:"grade" validate:"max=20"`
	Topic    string `json:"topic" validate:"required,max=500"`
	Count    int    `json:"count" validate:"omitempty,min=1,max=50"`
	Type     string `json:"type" validate:"omitempty,oneof=multiple_choice essay mixed"`
	Language string `json:"language" validate:"max=50"`
}

// SummaryRequest summarizes either a stored document or inline text.
type SummaryRequest struct {
	DocumentID *uint  `json:"documentId" validate:"required_without=Text"`
	Title      string `json:"title" validate:"max=200"`
	Text       string `json:"text" validate:"required_without=DocumentID,max=200000"`
}

// ===== RESPONSES =====

type SettingsResponse struct {
	TeacherID          string    `json:"teacherId"`
	SchoolName         string    `json:"schoolName"`
	DefaultTotalPoints float64   `json:"defaultTotalPoints"`
	DefaultDuration    int       `json:"defaultDuration"`
	AIAPIKey           string    `json:"aiApiKey"` // masked
	HasAIKey           bool      `json:"hasAiKey"`
	AIModel            string    `json:"aiModel"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

type SummaryResponse struct {
	DocumentID *uint  `json:"documentId,omitempty"`
	Summary    string `json:"summary"`
}

// AvailableExam is a row of the student's exam list.
type AvailableExam struct {
	ID               uint                     `json:"id"`
	Title            string                   `json:"title"`
	Subject          string                   `json:"subject"`
	Grade            string                   `json:"grade,omitempty"`
	Type             models.ExamType          `json:"type"`
	Status           models.ExamStatus        `json:"status"`
	QuestionCount    int                      `json:"questionCount"`
	TotalPoints      float64                  `json:"totalPoints"`
	Duration         int                      `json:"duration"`
	Deadline         *time.Time               `json:"deadline,omitempty"`
	SubmissionID     *uint                    `json:"submissionId,omitempty"`
	SubmissionStatus *models.SubmissionStatus `json:"submissionStatus,omitempty"`
	Score            *float64                 `json:"score,omitempty"`
}

// StudentQuestion is a question as shown while taking an exam.
type StudentQuestion struct {
	Index    int                 `json:"index"`
	Question string              `json:"question"`
	Type     models.QuestionType `json:"type"`
	Answers  []string            `json:"answers,omitempty"`
	Points   float64             `json:"points"`
	MaxScore float64             `json:"maxScore"`
}

type StudentExamView struct {
	ID          uint              `json:"id"`
	Title       string            `json:"title"`
	Subject     string            `json:"subject"`
	Grade       string            `json:"grade,omitempty"`
	Description string            `json:"description,omitempty"`
	Type        models.ExamType   `json:"type"`
	TotalPoints float64           `json:"totalPoints"`
	Duration    int               `json:"duration"`
	Deadline    *time.Time        `json:"deadline,omitempty"`
	Questions   []StudentQuestion `json:"questions"`
}

type OpenExamResponse struct {
	Exam       StudentExamView    `json:"exam"`
	Submission OpenSubmissionView `json:"submission"`
}

type OpenSubmissionView struct {
	ID        uint                      `json:"id"`
	Status    models.SubmissionStatus   `json:"status"`
	StartedAt *time.Time                `json:"startedAt,omitempty"`
	Answers   []models.SubmissionAnswer `json:"answers"`
}

// QuestionResult is the per-question review shown after submitting.
type QuestionResult struct {
	Index         int                 `json:"index"`
	Question      string              `json:"question"`
	Type          models.QuestionType `json:"type"`
	Answers       []string            `json:"answers,omitempty"`
	Correct       *int                `json:"correct,omitempty"`
	Explanation   string              `json:"explanation,omitempty"`
	StudentAnswer *int                `json:"studentAnswer,omitempty"`
	StudentEssay  string              `json:"studentEssay,omitempty"`
	IsCorrect     *bool               `json:"isCorrect"`
	Points        float64             `json:"points"`
	MaxScore      float64             `json:"maxScore"`
	EssayScore    *float64            `json:"essayScore,omitempty"`
	Feedback      string              `json:"feedback,omitempty"`
	Graded        bool                `json:"graded,omitempty"`
}

type SubmitResult struct {
	SubmissionID uint                    `json:"submissionId"`
	Score        float64                 `json:"score"`
	TotalPoints  float64                 `json:"totalPoints"`
	Status       models.SubmissionStatus `json:"status"`
	Results      []QuestionResult        `json:"results"`
	TimeSpent    int                     `json:"timeSpent"`
}

type SubmissionDetail struct {
	Submission *models.ExamSubmission `json:"submission"`
	Exam       *models.Exam           `json:"exam"`
	Results    []QuestionResult       `json:"results"`
}

type PlayGameResult struct {
	Correct int              `json:"correct"`
	Total   int              `json:"total"`
	Results []QuestionResult `json:"results"`
}

type ExportFile struct {
	FileName    string
	ContentType string
	Data        []byte
}

// RowError points at a spreadsheet row (1-based, header included) that was rejected.
type RowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

type ImportQuestionsResult struct {
	Imported int          `json:"imported"`
	Errors   []RowError   `json:"errors"`
	Exam     *models.Exam `json:"exam"`
}

type ImportStudentsResult struct {
	Created int        `json:"created"`
	Skipped int        `json:"skipped"`
	Errors  []RowError `json:"errors"`
}

type TeacherDashboard struct {
	repositories.TeacherCounts
	AverageScore      float64                         `json:"averageScore"`
	RecentSubmissions []repositories.RecentSubmission `json:"recentSubmissions"`
}
