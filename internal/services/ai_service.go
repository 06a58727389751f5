package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/classroom-service/internal/llm"
	"github.com/SAP-F-2025/classroom-service/internal/models"
	"github.com/SAP-F-2025/classroom-service/internal/repositories"
	"github.com/SAP-F-2025/classroom-service/internal/validator"
)

const defaultGeneratedQuestions = 5

// LLMClient is the part of llm.Client the AI service uses.
type LLMClient interface {
	GenerateQuestions(ctx context.Context, p llm.GenerateParams) ([]llm.GeneratedQuestion, error)
	Summarize(ctx context.Context, title, text string) (string, error)
}

// LLMFactory builds a client for one request's credentials.
type LLMFactory func(cfg llm.Config) LLMClient

func DefaultLLMFactory(cfg llm.Config) LLMClient {
	return llm.New(cfg)
}

type aiService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
	server    llm.Config
	newClient LLMFactory
}

// NewAIService uses the teacher's own API key when one is stored in their
// settings and falls back to the server key otherwise.
func NewAIService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator, server llm.Config, factory LLMFactory) AIService {
	if factory == nil {
		factory = DefaultLLMFactory
	}
	return &aiService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
		server:    server,
		newClient: factory,
	}
}

func (s *aiService) GenerateQuestions(ctx context.Context, req *GenerateQuestionsRequest, actor Actor) ([]models.Question, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	client, err := s.client(ctx, actor)
	if err != nil {
		return nil, err
	}

	count := req.Count
	if count == 0 {
		count = defaultGeneratedQuestions
	}
	qType := req.Type
	if qType == "" {
		qType = string(models.QuestionMultipleChoice)
	}

	generated, err := client.GenerateQuestions(ctx, llm.GenerateParams{
		Subject:  req.Subject,
		Grade:    req.Grade,
		Topic:    req.Topic,
		Count:    count,
		Type:     qType,
		Language: req.Language,
	})
	if err != nil {
		s.logger.Error("Question generation failed", "teacher_id", actor.UserID, "error", err)
		return nil, fmt.Errorf("failed to generate questions: %w", err)
	}

	questions := normalizeGenerated(generated)
	s.logger.Info("Questions generated",
		"teacher_id", actor.UserID,
		"requested", count,
		"returned", len(generated),
		"kept", len(questions))
	return questions, nil
}

func (s *aiService) Summarize(ctx context.Context, req *SummaryRequest, actor Actor) (*SummaryResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	title, text := req.Title, req.Text
	var doc *models.Document
	if req.DocumentID != nil {
		var err error
		doc, err = s.repo.Document().GetByID(ctx, s.db, *req.DocumentID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return nil, ErrDocumentNotFound
			}
			return nil, fmt.Errorf("failed to get document: %w", err)
		}
		if err := checkOwner(actor, doc.OwnerID, doc.ID, "document", "summarize"); err != nil {
			return nil, err
		}
		if title == "" {
			title = doc.Title
		}
		if strings.TrimSpace(text) == "" {
			text = doc.Content
		}
	}
	if strings.TrimSpace(text) == "" {
		return nil, ValidationErrors{*NewValidationError("text", "document has no text to summarize", nil)}
	}

	client, err := s.client(ctx, actor)
	if err != nil {
		return nil, err
	}
	summary, err := client.Summarize(ctx, title, text)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize: %w", err)
	}

	if doc != nil {
		doc.Summary = summary
		if err := s.repo.Document().Update(ctx, s.db, doc); err != nil {
			s.logger.Warn("Failed to store document summary", "document_id", doc.ID, "error", err)
		}
	}
	return &SummaryResponse{DocumentID: req.DocumentID, Summary: summary}, nil
}

func (s *aiService) client(ctx context.Context, actor Actor) (LLMClient, error) {
	cfg := s.server
	settings, err := s.repo.Settings().Get(ctx, s.db, actor.UserID)
	switch {
	case err == nil:
		if settings.AIAPIKey != "" {
			cfg.APIKey = settings.AIAPIKey
		}
		if settings.AIModel != "" {
			cfg.Model = settings.AIModel
		}
	case !repositories.IsNotFoundError(err):
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	if cfg.APIKey == "" {
		return nil, ErrAINotConfigured
	}
	return s.newClient(cfg), nil
}

// normalizeGenerated drops questions the model got structurally wrong.
func normalizeGenerated(in []llm.GeneratedQuestion) []models.Question {
	out := make([]models.Question, 0, len(in))
	for _, g := range in {
		text := strings.TrimSpace(g.Question)
		if text == "" {
			continue
		}
		q := models.Question{
			Question:    text,
			Type:        models.QuestionType(g.Type),
			Points:      g.Points,
			Explanation: g.Explanation,
		}
		switch q.Type {
		case models.QuestionEssay:
		case models.QuestionMultipleChoice, "":
			q.Type = models.QuestionMultipleChoice
			if len(g.Answers) < 2 || len(g.Answers) > models.MaxQuestionOptions || g.Correct == nil || *g.Correct < 0 || *g.Correct >= len(g.Answers) {
				continue
			}
			correct := *g.Correct
			q.Answers = g.Answers
			q.Correct = &correct
		default:
			continue
		}
		out = append(out, q)
	}
	return out
}

// IsAIUnavailable reports whether err means no API key could be found.
func IsAIUnavailable(err error) bool {
	return errors.Is(err, ErrAINotConfigured)
}
