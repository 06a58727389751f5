package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/SAP-F-2025/classroom-service/internal/models"
	"github.com/SAP-F-2025/classroom-service/internal/repositories"
	"github.com/SAP-F-2025/classroom-service/internal/utils"
	"github.com/SAP-F-2025/classroom-service/internal/validator"
)

func checkOwner(actor Actor, ownerID string, id uint, resource, action string) error {
	if actor.owns(ownerID) {
		return nil
	}
	return NewPermissionError(actor.UserID, id, resource, action, "not the owner")
}

func ownerFilters(query OwnerQuery, actor Actor) repositories.OwnerFilters {
	limit, offset := utils.Paginate(query.Page, query.Size)
	return repositories.OwnerFilters{
		OwnerID: actor.UserID,
		Subject: query.Subject,
		Query:   query.Query,
		Limit:   limit,
		Offset:  offset,
	}
}

// ===== DOCUMENTS =====

type documentService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
}

func NewDocumentService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator) DocumentService {
	return &documentService{repo: repo, db: db, logger: logger, validator: validator}
}

func (s *documentService) Create(ctx context.Context, req *DocumentRequest, actor Actor) (*models.Document, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	doc := &models.Document{
		OwnerID:    actor.UserID,
		StorageKey: uuid.NewString(),
	}
	applyDocumentRequest(doc, req)

	if err := s.repo.Document().Create(ctx, s.db, doc); err != nil {
		return nil, fmt.Errorf("failed to create document: %w", err)
	}
	s.logger.Info("Document created", "document_id", doc.ID, "owner_id", actor.UserID)
	return doc, nil
}

func (s *documentService) GetByID(ctx context.Context, id uint, actor Actor) (*models.Document, error) {
	doc, err := s.repo.Document().GetByID(ctx, s.db, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrDocumentNotFound
		}
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	if err := checkOwner(actor, doc.OwnerID, id, "document", "read"); err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *documentService) Update(ctx context.Context, id uint, req *DocumentRequest, actor Actor) (*models.Document, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	doc, err := s.GetByID(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	applyDocumentRequest(doc, req)

	if err := s.repo.Document().Update(ctx, s.db, doc); err != nil {
		return nil, fmt.Errorf("failed to update document: %w", err)
	}
	return doc, nil
}

func (s *documentService) Delete(ctx context.Context, id uint, actor Actor) error {
	if _, err := s.GetByID(ctx, id, actor); err != nil {
		return err
	}
	if err := s.repo.Document().Delete(ctx, s.db, id); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrDocumentNotFound
		}
		return fmt.Errorf("failed to delete document: %w", err)
	}
	return nil
}

func (s *documentService) List(ctx context.Context, query OwnerQuery, actor Actor) (*models.PaginatedResponse, error) {
	filters := ownerFilters(query, actor)
	docs, total, err := s.repo.Document().List(ctx, s.db, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	page := models.NewPaginatedResponse(docs, total, query.Page, filters.Limit)
	return &page, nil
}

func applyDocumentRequest(doc *models.Document, req *DocumentRequest) {
	doc.Title = strings.TrimSpace(req.Title)
	doc.Subject = req.Subject
	doc.Grade = req.Grade
	doc.FileName = req.FileName
	doc.MimeType = req.MimeType
	doc.Size = req.Size
	doc.Content = req.Content
}

// ===== GAMES =====

type gameService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
}

func NewGameService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator) GameService {
	return &gameService{repo: repo, db: db, logger: logger, validator: validator}
}

func (s *gameService) validate(req *GameRequest) error {
	if err := s.validator.Validate(req); err != nil {
		return err
	}
	errs := validator.ValidateQuestions("questions", req.Questions)
	for i, q := range req.Questions {
		if q.Type != models.QuestionMultipleChoice {
			errs = append(errs, *NewValidationError(fmt.Sprintf("questions[%d].type", i), "games only support multiple-choice questions", q.Type))
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

func (s *gameService) Create(ctx context.Context, req *GameRequest, actor Actor) (*models.Game, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}

	game := &models.Game{OwnerID: actor.UserID, Status: models.GameDraft}
	applyGameRequest(game, req)

	if err := s.repo.Game().Create(ctx, s.db, game); err != nil {
		return nil, fmt.Errorf("failed to create game: %w", err)
	}
	s.logger.Info("Game created", "game_id", game.ID, "owner_id", actor.UserID)
	return game, nil
}

func (s *gameService) get(ctx context.Context, id uint) (*models.Game, error) {
	game, err := s.repo.Game().GetByID(ctx, s.db, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrGameNotFound
		}
		return nil, fmt.Errorf("failed to get game: %w", err)
	}
	return game, nil
}

func (s *gameService) GetByID(ctx context.Context, id uint, actor Actor) (*models.Game, error) {
	game, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := checkOwner(actor, game.OwnerID, id, "game", "read"); err != nil {
		return nil, err
	}
	return game, nil
}

func (s *gameService) Update(ctx context.Context, id uint, req *GameRequest, actor Actor) (*models.Game, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}
	game, err := s.GetByID(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	applyGameRequest(game, req)

	if err := s.repo.Game().Update(ctx, s.db, game); err != nil {
		return nil, fmt.Errorf("failed to update game: %w", err)
	}
	return game, nil
}

func (s *gameService) Delete(ctx context.Context, id uint, actor Actor) error {
	if _, err := s.GetByID(ctx, id, actor); err != nil {
		return err
	}
	if err := s.repo.Game().Delete(ctx, s.db, id); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrGameNotFound
		}
		return fmt.Errorf("failed to delete game: %w", err)
	}
	return nil
}

func (s *gameService) List(ctx context.Context, query OwnerQuery, actor Actor) (*models.PaginatedResponse, error) {
	filters := ownerFilters(query, actor)
	games, total, err := s.repo.Game().List(ctx, s.db, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list games: %w", err)
	}
	page := models.NewPaginatedResponse(games, total, query.Page, filters.Limit)
	return &page, nil
}

// Play scores one round. Published games are open to everyone, drafts only
// to their owner.
func (s *gameService) Play(ctx context.Context, id uint, req *PlayGameRequest, actor Actor) (*PlayGameResult, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	game, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if game.Status != models.GamePublished && !actor.owns(game.OwnerID) {
		return nil, ErrGameNotFound
	}

	questions := []models.Question(game.Questions)
	scored := ScoreAnswers(questions, float64(len(questions)), req.Answers)
	correct := 0
	for _, a := range scored.Answers {
		if questions[a.QuestionIndex].IsCorrect(a.Answer) {
			correct++
		}
	}

	if err := s.repo.Game().IncrementPlayCount(ctx, s.db, id); err != nil {
		s.logger.Warn("Failed to count game play", "game_id", id, "error", err)
	}

	return &PlayGameResult{
		Correct: correct,
		Total:   len(questions),
		Results: BuildResults(questions, float64(len(questions)), scored.Answers, true),
	}, nil
}

func applyGameRequest(game *models.Game, req *GameRequest) {
	game.Title = strings.TrimSpace(req.Title)
	game.Subject = req.Subject
	game.Grade = req.Grade
	game.Questions = validator.QuestionsToModel(req.Questions)
	game.SecondsPerQuestion = req.SecondsPerQuestion
	if req.Status != "" {
		game.Status = req.Status
	}
}

// ===== NOTEBOOKS =====

type notebookService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
}

func NewNotebookService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator) NotebookService {
	return &notebookService{repo: repo, db: db, logger: logger, validator: validator}
}

func (s *notebookService) Create(ctx context.Context, req *NotebookRequest, actor Actor) (*models.Notebook, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	nb := &models.Notebook{OwnerID: actor.UserID}
	applyNotebookRequest(nb, req)

	if err := s.repo.Notebook().Create(ctx, s.db, nb); err != nil {
		return nil, fmt.Errorf("failed to create notebook: %w", err)
	}
	return nb, nil
}

func (s *notebookService) GetByID(ctx context.Context, id uint, actor Actor) (*models.Notebook, error) {
	nb, err := s.repo.Notebook().GetByID(ctx, s.db, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrNotebookNotFound
		}
		return nil, fmt.Errorf("failed to get notebook: %w", err)
	}
	if err := checkOwner(actor, nb.OwnerID, id, "notebook", "read"); err != nil {
		return nil, err
	}
	return nb, nil
}

func (s *notebookService) Update(ctx context.Context, id uint, req *NotebookRequest, actor Actor) (*models.Notebook, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	nb, err := s.GetByID(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	applyNotebookRequest(nb, req)

	if err := s.repo.Notebook().Update(ctx, s.db, nb); err != nil {
		return nil, fmt.Errorf("failed to update notebook: %w", err)
	}
	return nb, nil
}

func (s *notebookService) Delete(ctx context.Context, id uint, actor Actor) error {
	if _, err := s.GetByID(ctx, id, actor); err != nil {
		return err
	}
	if err := s.repo.Notebook().Delete(ctx, s.db, id); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrNotebookNotFound
		}
		return fmt.Errorf("failed to delete notebook: %w", err)
	}
	return nil
}

func (s *notebookService) List(ctx context.Context, query OwnerQuery, actor Actor) (*models.PaginatedResponse, error) {
	filters := ownerFilters(query, actor)
	filters.Subject = nil
	notebooks, total, err := s.repo.Notebook().List(ctx, s.db, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list notebooks: %w", err)
	}
	page := models.NewPaginatedResponse(notebooks, total, query.Page, filters.Limit)
	return &page, nil
}

func applyNotebookRequest(nb *models.Notebook, req *NotebookRequest) {
	nb.Title = strings.TrimSpace(req.Title)
	nb.Content = req.Content
	tags := make([]string, 0, len(req.Tags))
	for _, t := range req.Tags {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	nb.Tags = tags
}
