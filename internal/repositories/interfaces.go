package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/classroom-service/internal/models"
)

// ===== SHARED FILTER STRUCTS =====

type ExamFilters struct {
	TeacherID *string
	Status    *models.ExamStatus
	Subject   *string
	Query     string
	Limit     int
	Offset    int
	SortBy    string // "created_at", "title", "deadline"
	SortOrder string // "asc", "desc"
}

type SubmissionFilters struct {
	Status    *models.SubmissionStatus
	Limit     int
	Offset    int
	SortBy    string
	SortOrder string
}

type StudentFilters struct {
	TeacherID string
	ClassName *string
	Query     string
	Limit     int
	Offset    int
	SortBy    string
	SortOrder string
}

// OwnerFilters is shared by the owner-scoped content repositories.
type OwnerFilters struct {
	OwnerID string
	Subject *string
	Query   string
	Limit   int
	Offset  int
}

// ===== EXAMS =====

type ExamRepository interface {
	Create(ctx context.Context, tx *gorm.DB, exam *models.Exam) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Exam, error)
	Update(ctx context.Context, tx *gorm.DB, exam *models.Exam) error
	UpdateFields(ctx context.Context, tx *gorm.DB, id uint, fields map[string]interface{}) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error

	List(ctx context.Context, tx *gorm.DB, filters ExamFilters) ([]*models.Exam, int64, error)
	ListPublishedByTeachers(ctx context.Context, tx *gorm.DB, teacherIDs []string) ([]*models.Exam, error)

	// IncrementCounters adds to submitted/graded counters in a single UPDATE.
	IncrementCounters(ctx context.Context, tx *gorm.DB, id uint, submitted, graded int) error

	// InvalidateCache drops cached copies of the exam. Writes made inside a
	// transaction leave the cache alone, so callers run this after commit.
	InvalidateCache(ctx context.Context, id uint, teacherID string)
}

// ===== SUBMISSIONS =====

type SubmissionRepository interface {
	Create(ctx context.Context, tx *gorm.DB, submission *models.ExamSubmission) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.ExamSubmission, error)
	GetByIDForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*models.ExamSubmission, error)
	GetByExamAndStudent(ctx context.Context, tx *gorm.DB, examID, studentID uint) (*models.ExamSubmission, error)

	ListByExam(ctx context.Context, tx *gorm.DB, examID uint, filters SubmissionFilters) ([]*models.ExamSubmission, int64, error)
	ListByStudents(ctx context.Context, tx *gorm.DB, studentIDs []uint, filters SubmissionFilters) ([]*models.ExamSubmission, int64, error)
	ExistsForExam(ctx context.Context, tx *gorm.DB, examID uint) (bool, error)

	// MarkSubmitted stores the scoring result only if the row is still
	// in_progress. It reports whether the row was updated.
	MarkSubmitted(ctx context.Context, tx *gorm.DB, submission *models.ExamSubmission) (bool, error)
	SaveGrading(ctx context.Context, tx *gorm.DB, submission *models.ExamSubmission) error
}

// ===== ROSTER =====

type StudentRepository interface {
	Create(ctx context.Context, tx *gorm.DB, student *models.Student) error
	CreateBatch(ctx context.Context, tx *gorm.DB, students []*models.Student) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Student, error)
	GetByCode(ctx context.Context, tx *gorm.DB, teacherID, code string) (*models.Student, error)
	ListByUserID(ctx context.Context, tx *gorm.DB, userID string) ([]*models.Student, error)
	Update(ctx context.Context, tx *gorm.DB, student *models.Student) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error

	List(ctx context.Context, tx *gorm.DB, filters StudentFilters) ([]*models.Student, int64, error)
	ListClasses(ctx context.Context, tx *gorm.DB, teacherID string) ([]string, error)

	// CountAssigned counts the teacher's students that are in one of the
	// classes or listed individually.
	CountAssigned(ctx context.Context, tx *gorm.DB, teacherID string, classNames []string, studentIDs []uint) (int64, error)
}

// ===== CONTENT =====

type DocumentRepository interface {
	Create(ctx context.Context, tx *gorm.DB, doc *models.Document) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Document, error)
	Update(ctx context.Context, tx *gorm.DB, doc *models.Document) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error
	List(ctx context.Context, tx *gorm.DB, filters OwnerFilters) ([]*models.Document, int64, error)
}

type GameRepository interface {
	Create(ctx context.Context, tx *gorm.DB, game *models.Game) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Game, error)
	Update(ctx context.Context, tx *gorm.DB, game *models.Game) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error
	List(ctx context.Context, tx *gorm.DB, filters OwnerFilters) ([]*models.Game, int64, error)
	IncrementPlayCount(ctx context.Context, tx *gorm.DB, id uint) error
}

type NotebookRepository interface {
	Create(ctx context.Context, tx *gorm.DB, notebook *models.Notebook) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Notebook, error)
	Update(ctx context.Context, tx *gorm.DB, notebook *models.Notebook) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error
	List(ctx context.Context, tx *gorm.DB, filters OwnerFilters) ([]*models.Notebook, int64, error)
}

type SettingsRepository interface {
	Get(ctx context.Context, tx *gorm.DB, teacherID string) (*models.TeacherSettings, error)
	Upsert(ctx context.Context, tx *gorm.DB, settings *models.TeacherSettings) error
}

// ===== DASHBOARD =====

type DashboardRepository interface {
	TeacherCounts(ctx context.Context, tx *gorm.DB, teacherID string) (*TeacherCounts, error)
	RecentSubmissions(ctx context.Context, tx *gorm.DB, teacherID string, limit int) ([]RecentSubmission, error)
	// AverageScore is the mean graded score on a 10-point scale.
	AverageScore(ctx context.Context, tx *gorm.DB, teacherID string) (float64, error)
	AdminCounts(ctx context.Context, tx *gorm.DB) (*AdminCounts, error)
}

type TeacherCounts struct {
	ExamsByStatus    map[models.ExamStatus]int64 `json:"examsByStatus"`
	TotalExams       int64                       `json:"totalExams"`
	TotalStudents    int64                       `json:"totalStudents"`
	TotalClasses     int64                       `json:"totalClasses"`
	TotalSubmissions int64                       `json:"totalSubmissions"`
	PendingGrading   int64                       `json:"pendingGrading"`
	TotalDocuments   int64                       `json:"totalDocuments"`
	TotalGames       int64                       `json:"totalGames"`
}

type RecentSubmission struct {
	SubmissionID uint                    `json:"submissionId"`
	ExamID       uint                    `json:"examId"`
	ExamTitle    string                  `json:"examTitle"`
	StudentName  string                  `json:"studentName"`
	ClassName    string                  `json:"className"`
	Status       models.SubmissionStatus `json:"status"`
	Score        float64                 `json:"score"`
	TotalPoints  float64                 `json:"totalPoints"`
	SubmittedAt  *time.Time              `json:"submittedAt"`
}

type AdminCounts struct {
	TotalExams       int64 `json:"totalExams"`
	PublishedExams   int64 `json:"publishedExams"`
	TotalStudents    int64 `json:"totalStudents"`
	TotalSubmissions int64 `json:"totalSubmissions"`
	TotalDocuments   int64 `json:"totalDocuments"`
	TotalGames       int64 `json:"totalGames"`
	TotalNotebooks   int64 `json:"totalNotebooks"`
	TotalTeachers    int64 `json:"totalTeachers"`
}
