package services

import (
	"context"
	"io"

	"github.com/SAP-F-2025/classroom-service/internal/models"
	"github.com/SAP-F-2025/classroom-service/internal/repositories"
)

// ===== SERVICE INTERFACES =====

type ExamService interface {
	Create(ctx context.Context, req *CreateExamRequest, actor Actor) (*models.Exam, error)
	GetByID(ctx context.Context, id uint, actor Actor) (*models.Exam, error)
	List(ctx context.Context, query ExamListQuery, actor Actor) (*models.PaginatedResponse, error)
	Update(ctx context.Context, id uint, req *UpdateExamRequest, actor Actor) (*models.Exam, error)
	Delete(ctx context.Context, id uint, actor Actor) error

	Publish(ctx context.Context, id uint, actor Actor) (*models.Exam, error)
	Complete(ctx context.Context, id uint, actor Actor) (*models.Exam, error)
}

// SubmissionService is the student side of an exam.
type SubmissionService interface {
	ListAvailable(ctx context.Context, actor Actor) ([]AvailableExam, error)
	Open(ctx context.Context, examID uint, actor Actor) (*OpenExamResponse, error)
	Submit(ctx context.Context, examID uint, req *SubmitExamRequest, actor Actor) (*SubmitResult, error)
	ListMine(ctx context.Context, query PageQuery, actor Actor) (*models.PaginatedResponse, error)
	GetMine(ctx context.Context, submissionID uint, actor Actor) (*SubmissionDetail, error)
}

// GradingService is the teacher side of an exam's submissions.
type GradingService interface {
	ListByExam(ctx context.Context, examID uint, query SubmissionListQuery, actor Actor) (*models.PaginatedResponse, error)
	GetSubmission(ctx context.Context, id uint, actor Actor) (*SubmissionDetail, error)
	GradeEssay(ctx context.Context, id uint, req *GradeEssayRequest, actor Actor) (*models.ExamSubmission, error)
	Finalize(ctx context.Context, id uint, actor Actor) (*models.ExamSubmission, error)
}

type StudentService interface {
	Create(ctx context.Context, req *StudentRequest, actor Actor) (*models.Student, error)
	GetByID(ctx context.Context, id uint, actor Actor) (*models.Student, error)
	Update(ctx context.Context, id uint, req *StudentRequest, actor Actor) (*models.Student, error)
	Delete(ctx context.Context, id uint, actor Actor) error
	List(ctx context.Context, query StudentListQuery, actor Actor) (*models.PaginatedResponse, error)
	ListClasses(ctx context.Context, actor Actor) ([]string, error)
	LinkUser(ctx context.Context, id uint, req *LinkUserRequest, actor Actor) (*models.Student, error)
}

type ImportExportService interface {
	ExportExam(ctx context.Context, examID uint, actor Actor) (*ExportFile, error)
	ImportQuestions(ctx context.Context, examID uint, r io.Reader, actor Actor) (*ImportQuestionsResult, error)
	Template() (*ExportFile, error)

	ExportStudents(ctx context.Context, className *string, actor Actor) (*ExportFile, error)
	ImportStudents(ctx context.Context, r io.Reader, actor Actor) (*ImportStudentsResult, error)
}

type DocumentService interface {
	Create(ctx context.Context, req *DocumentRequest, actor Actor) (*models.Document, error)
	GetByID(ctx context.Context, id uint, actor Actor) (*models.Document, error)
	Update(ctx context.Context, id uint, req *DocumentRequest, actor Actor) (*models.Document, error)
	Delete(ctx context.Context, id uint, actor Actor) error
	List(ctx context.Context, query OwnerQuery, actor Actor) (*models.PaginatedResponse, error)
}

type GameService interface {
	Create(ctx context.Context, req *GameRequest, actor Actor) (*models.Game, error)
	GetByID(ctx context.Context, id uint, actor Actor) (*models.Game, error)
	Update(ctx context.Context, id uint, req *GameRequest, actor Actor) (*models.Game, error)
	Delete(ctx context.Context, id uint, actor Actor) error
	List(ctx context.Context, query OwnerQuery, actor Actor) (*models.PaginatedResponse, error)
	Play(ctx context.Context, id uint, req *PlayGameRequest, actor Actor) (*PlayGameResult, error)
}

type NotebookService interface {
	Create(ctx context.Context, req *NotebookRequest, actor Actor) (*models.Notebook, error)
	GetByID(ctx context.Context, id uint, actor Actor) (*models.Notebook, error)
	Update(ctx context.Context, id uint, req *NotebookRequest, actor Actor) (*models.Notebook, error)
	Delete(ctx context.Context, id uint, actor Actor) error
	List(ctx context.Context, query OwnerQuery, actor Actor) (*models.PaginatedResponse, error)
}

type SettingsService interface {
	Get(ctx context.Context, actor Actor) (*SettingsResponse, error)
	Update(ctx context.Context, req *SettingsRequest, actor Actor) (*SettingsResponse, error)
}

type AIService interface {
	GenerateQuestions(ctx context.Context, req *GenerateQuestionsRequest, actor Actor) ([]models.Question, error)
	Summarize(ctx context.Context, req *SummaryRequest, actor Actor) (*SummaryResponse, error)
}

type DashboardService interface {
	Teacher(ctx context.Context, actor Actor) (*TeacherDashboard, error)
	Admin(ctx context.Context) (*repositories.AdminCounts, error)
	ListUsers(ctx context.Context, query PageQuery) (*models.PaginatedResponse, error)
}

// NotificationEventService publishes domain events. Callers treat failures
// as non-fatal.
type NotificationEventService interface {
	ExamPublished(ctx context.Context, exam *models.Exam) error
	SubmissionSubmitted(ctx context.Context, submission *models.ExamSubmission, exam *models.Exam) error
	SubmissionGraded(ctx context.Context, submission *models.ExamSubmission, exam *models.Exam) error
}

type ServiceManager interface {
	Exam() ExamService
	Submission() SubmissionService
	Grading() GradingService
	Student() StudentService
	ImportExport() ImportExportService
	Document() DocumentService
	Game() GameService
	Notebook() NotebookService
	Settings() SettingsService
	AI() AIService
	Dashboard() DashboardService
	NotificationEvent() NotificationEventService

	Initialize(ctx context.Context) error
	Shutdown(ctx context.Context) error
	HealthCheck(ctx context.Context) error
}
