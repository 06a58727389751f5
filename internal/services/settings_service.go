package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/classroom-service/internal/models"
	"github.com/SAP-F-2025/classroom-service/internal/repositories"
	"github.com/SAP-F-2025/classroom-service/internal/utils"
	"github.com/SAP-F-2025/classroom-service/internal/validator"
)

type settingsService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
}

func NewSettingsService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator) SettingsService {
	return &settingsService{repo: repo, db: db, logger: logger, validator: validator}
}

func (s *settingsService) Get(ctx context.Context, actor Actor) (*SettingsResponse, error) {
	settings, err := s.load(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	return toSettingsResponse(settings), nil
}

// Update replaces the editable fields. A nil API key keeps the stored one,
// an empty string removes it.
func (s *settingsService) Update(ctx context.Context, req *SettingsRequest, actor Actor) (*SettingsResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	settings, err := s.load(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	settings.SchoolName = strings.TrimSpace(req.SchoolName)
	settings.DefaultTotalPoints = req.DefaultTotalPoints
	settings.DefaultDuration = req.DefaultDuration
	settings.AIModel = strings.TrimSpace(req.AIModel)
	if req.AIAPIKey != nil {
		settings.AIAPIKey = strings.TrimSpace(*req.AIAPIKey)
	}

	if err := s.repo.Settings().Upsert(ctx, s.db, settings); err != nil {
		return nil, fmt.Errorf("failed to save settings: %w", err)
	}
	s.logger.Info("Settings updated", "teacher_id", actor.UserID, "has_ai_key", settings.AIAPIKey != "")
	return toSettingsResponse(settings), nil
}

func (s *settingsService) load(ctx context.Context, teacherID string) (*models.TeacherSettings, error) {
	settings, err := s.repo.Settings().Get(ctx, s.db, teacherID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return &models.TeacherSettings{
				TeacherID:          teacherID,
				DefaultTotalPoints: models.DefaultExamTotalPoints,
			}, nil
		}
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}
	return settings, nil
}

func toSettingsResponse(s *models.TeacherSettings) *SettingsResponse {
	return &SettingsResponse{
		TeacherID:          s.TeacherID,
		SchoolName:         s.SchoolName,
		DefaultTotalPoints: s.DefaultTotalPoints,
		DefaultDuration:    s.DefaultDuration,
		AIAPIKey:           utils.MaskSecret(s.AIAPIKey),
		HasAIKey:           s.AIAPIKey != "",
		AIModel:            s.AIModel,
		UpdatedAt:          s.UpdatedAt,
	}
}
