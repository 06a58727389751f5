package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/classroom-service/internal/cache"
	"github.com/SAP-F-2025/classroom-service/internal/events"
	"github.com/SAP-F-2025/classroom-service/internal/llm"
	"github.com/SAP-F-2025/classroom-service/internal/repositories"
	"github.com/SAP-F-2025/classroom-service/internal/validator"
)

// ServiceManagerConfig carries the optional collaborators. Zero values turn
// the matching feature off: no events, no cache, AI only with a teacher key.
type ServiceManagerConfig struct {
	EventPublisher    events.EventPublisher
	Cache             *cache.CacheManager
	AI                llm.Config
	LLMFactory        LLMFactory
	RepositoryManager repositories.RepositoryManager

	DefaultTimeout time.Duration
}

type serviceManager struct {
	db        *gorm.DB
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	config    ServiceManagerConfig

	examService              ExamService
	submissionService        SubmissionService
	gradingService           GradingService
	studentService           StudentService
	importExportService      ImportExportService
	documentService          DocumentService
	gameService              GameService
	notebookService          NotebookService
	settingsService          SettingsService
	aiService                AIService
	dashboardService         DashboardService
	notificationEventService NotificationEventService

	initialized bool
	shutdown    bool
	mu          sync.RWMutex
}

func NewServiceManager(db *gorm.DB, repo repositories.Repository, logger *slog.Logger, validator *validator.Validator, config ServiceManagerConfig) ServiceManager {
	if config.DefaultTimeout <= 0 {
		config.DefaultTimeout = 30 * time.Second
	}
	return &serviceManager{
		db:        db,
		repo:      repo,
		logger:    logger,
		validator: validator,
		config:    config,
	}
}

func (sm *serviceManager) Initialize(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.initialized {
		return nil
	}
	if sm.shutdown {
		return errors.New("service manager is shut down")
	}

	sm.logger.Info("Initializing service manager")
	sm.initializeServices()

	sm.initialized = true
	sm.logger.Info("Service manager initialized successfully",
		"events", sm.config.EventPublisher != nil,
		"cache", sm.config.Cache != nil,
		"server_ai_key", sm.config.AI.APIKey != "")
	return nil
}

func (sm *serviceManager) initializeServices() {
	sm.notificationEventService = NewNotificationEventService(sm.config.EventPublisher, sm.logger)

	sm.examService = NewExamService(sm.repo, sm.db, sm.logger, sm.validator, sm.notificationEventService)
	sm.submissionService = NewSubmissionService(sm.repo, sm.db, sm.logger, sm.validator, sm.notificationEventService)
	sm.gradingService = NewGradingService(sm.db, sm.repo, sm.logger, sm.validator, sm.notificationEventService)
	sm.studentService = NewStudentService(sm.repo, sm.db, sm.logger, sm.validator)
	sm.importExportService = NewImportExportService(sm.repo, sm.db, sm.logger, sm.validator)

	sm.documentService = NewDocumentService(sm.repo, sm.db, sm.logger, sm.validator)
	sm.gameService = NewGameService(sm.repo, sm.db, sm.logger, sm.validator)
	sm.notebookService = NewNotebookService(sm.repo, sm.db, sm.logger, sm.validator)
	sm.settingsService = NewSettingsService(sm.repo, sm.db, sm.logger, sm.validator)
	sm.aiService = NewAIService(sm.repo, sm.db, sm.logger, sm.validator, sm.config.AI, sm.config.LLMFactory)

	var stats *cache.CacheHelper
	if sm.config.Cache != nil {
		stats = sm.config.Cache.Stats
	}
	sm.dashboardService = NewDashboardService(sm.repo, sm.db, sm.logger, stats)
}

func (sm *serviceManager) ready(name string) {
	if !sm.initialized {
		panic("service manager not initialized")
	}
	if sm.shutdown {
		panic(name + " service requested after shutdown")
	}
}

// ===== GETTERS =====

func (sm *serviceManager) Exam() ExamService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.ready("exam")
	return sm.examService
}

func (sm *serviceManager) Submission() SubmissionService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.ready("submission")
	return sm.submissionService
}

func (sm *serviceManager) Grading() GradingService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.ready("grading")
	return sm.gradingService
}

func (sm *serviceManager) Student() StudentService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.ready("student")
	return sm.studentService
}

func (sm *serviceManager) ImportExport() ImportExportService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.ready("import/export")
	return sm.importExportService
}

func (sm *serviceManager) Document() DocumentService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.ready("document")
	return sm.documentService
}

func (sm *serviceManager) Game() GameService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.ready("game")
	return sm.gameService
}

func (sm *serviceManager) Notebook() NotebookService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.ready("notebook")
	return sm.notebookService
}

func (sm *serviceManager) Settings() SettingsService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.ready("settings")
	return sm.settingsService
}

func (sm *serviceManager) AI() AIService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.ready("ai")
	return sm.aiService
}

func (sm *serviceManager) Dashboard() DashboardService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.ready("dashboard")
	return sm.dashboardService
}

func (sm *serviceManager) NotificationEvent() NotificationEventService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.ready("notification event")
	return sm.notificationEventService
}

// ===== LIFECYCLE =====

// HealthCheck pings the database. A failing cache is logged only.
func (sm *serviceManager) HealthCheck(ctx context.Context) error {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		return errors.New("service manager not initialized")
	}
	if sm.shutdown {
		return errors.New("service manager is shut down")
	}

	ctx, cancel := context.WithTimeout(ctx, sm.config.DefaultTimeout)
	defer cancel()

	if manager := sm.config.RepositoryManager; manager != nil {
		if err := manager.HealthCheck(ctx); err != nil {
			return fmt.Errorf("repository health check failed: %w", err)
		}
	} else if err := sm.repo.Ping(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	if sm.config.Cache != nil {
		if err := sm.config.Cache.HealthCheck(ctx); err != nil && !errors.Is(err, cache.ErrCacheNotAvailable) {
			sm.logger.Warn("Cache health check failed", "error", err)
		}
	}
	return nil
}

func (sm *serviceManager) Shutdown(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.shutdown {
		return nil
	}
	sm.logger.Info("Shutting down service manager")

	var errs []error
	if sm.config.EventPublisher != nil {
		if err := sm.config.EventPublisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close event publisher: %w", err))
		}
	}
	if manager := sm.config.RepositoryManager; manager != nil {
		if err := manager.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown repositories: %w", err))
		}
	}

	sm.shutdown = true
	if len(errs) > 0 {
		sm.logger.Error("Service manager shut down with errors", "errors", len(errs))
		return errors.Join(errs...)
	}
	sm.logger.Info("Service manager shut down completed")
	return nil
}
