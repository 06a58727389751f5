package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/classroom-service/internal/services"
	"github.com/SAP-F-2025/classroom-service/internal/utils"
)

// AIHandler exposes per-teacher settings and the LLM helpers that depend on them.
type AIHandler struct {
	BaseHandler
	settings services.SettingsService
	ai       services.AIService
}

func NewAIHandler(settings services.SettingsService, ai services.AIService, logger utils.Logger) *AIHandler {
	return &AIHandler{
		BaseHandler: NewBaseHandler(logger),
		settings:    settings,
		ai:          ai,
	}
}

// GetSettings
// @Summary Get my settings
// @Tags settings
// @Produce json
// @Success 200 {object} services.SettingsResponse
// @Router /settings [get]
func (h *AIHandler) GetSettings(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	resp, err := h.settings.Get(c.Request.Context(), actor)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// UpdateSettings stores the settings. The API key is only returned masked.
// @Summary Update my settings
// @Tags settings
// @Accept json
// @Produce json
// @Param settings body services.SettingsRequest true "Settings"
// @Success 200 {object} services.SettingsResponse
// @Router /settings [put]
func (h *AIHandler) UpdateSettings(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req services.SettingsRequest
	if !h.bindJSON(c, &req) {
		return
	}

	resp, err := h.settings.Update(c.Request.Context(), &req, actor)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GenerateQuestions drafts questions with the configured model. Nothing is saved.
// @Summary Generate questions
// @Tags ai
// @Accept json
// @Produce json
// @Param request body services.GenerateQuestionsRequest true "Subject, grade and topic"
// @Success 200 {array} models.Question
// @Failure 503 {object} ErrorResponse "No API key configured"
// @Router /ai/questions [post]
func (h *AIHandler) GenerateQuestions(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req services.GenerateQuestionsRequest
	if !h.bindJSON(c, &req) {
		return
	}

	h.LogRequest(c, "Generating questions", "subject", req.Subject, "count", req.Count)
	questions, err := h.ai.GenerateQuestions(c.Request.Context(), &req, actor)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, questions)
}

func (h *AIHandler) Summarize(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req services.SummaryRequest
	if !h.bindJSON(c, &req) {
		return
	}

	resp, err := h.ai.Summarize(c.Request.Context(), &req, actor)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
