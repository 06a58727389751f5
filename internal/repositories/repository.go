package repositories

import "context"

// Repository aggregates every repository the services use.
type Repository interface {
	Exam() ExamRepository
	Submission() SubmissionRepository
	Student() StudentRepository

	Document() DocumentRepository
	Game() GameRepository
	Notebook() NotebookRepository
	Settings() SettingsRepository

	// Read-only, backed by the identity provider
	User() UserRepository

	Dashboard() DashboardRepository

	WithTransaction(ctx context.Context, fn func(Repository) error) error

	Ping(ctx context.Context) error
	Close() error
}

// RepositoryManager owns the repository lifecycle.
type RepositoryManager interface {
	Initialize() error
	GetRepository() Repository
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
