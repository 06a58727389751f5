package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/classroom-service/internal/services"
	"github.com/SAP-F-2025/classroom-service/internal/utils"
)

// ContentHandler serves a teacher's documents, games and notebooks.
type ContentHandler struct {
	BaseHandler
	documents services.DocumentService
	games     services.GameService
	notebooks services.NotebookService
}

func NewContentHandler(documents services.DocumentService, games services.GameService, notebooks services.NotebookService, logger utils.Logger) *ContentHandler {
	return &ContentHandler{
		BaseHandler: NewBaseHandler(logger),
		documents:   documents,
		games:       games,
		notebooks:   notebooks,
	}
}

// ===== DOCUMENTS =====

// CreateDocument
// @Summary Upload document metadata
// @Tags documents
// @Accept json
// @Produce json
// @Param document body services.DocumentRequest true "Document"
// @Success 201 {object} models.Document
// @Router /documents [post]
func (h *ContentHandler) CreateDocument(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req services.DocumentRequest
	if !h.bindJSON(c, &req) {
		return
	}

	doc, err := h.documents.Create(c.Request.Context(), &req, actor)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, doc)
}

func (h *ContentHandler) GetDocument(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	doc, err := h.documents.GetByID(c.Request.Context(), id, actor)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

func (h *ContentHandler) ListDocuments(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var query services.OwnerQuery
	if !h.bindQuery(c, &query) {
		return
	}

	page, err := h.documents.List(c.Request.Context(), query, actor)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *ContentHandler) UpdateDocument(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}
	var req services.DocumentRequest
	if !h.bindJSON(c, &req) {
		return
	}

	doc, err := h.documents.Update(c.Request.Context(), id, &req, actor)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

func (h *ContentHandler) DeleteDocument(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.documents.Delete(c.Request.Context(), id, actor); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "Document deleted successfully"})
}

// ===== GAMES =====

// CreateGame
// @Summary Create quiz game
// @Tags games
// @Accept json
// @Produce json
// @Param game body services.GameRequest true "Game with multiple choice questions"
// @Success 201 {object} models.Game
// @Router /games [post]
func (h *ContentHandler) CreateGame(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req services.GameRequest
	if !h.bindJSON(c, &req) {
		return
	}

	game, err := h.games.Create(c.Request.Context(), &req, actor)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, game)
}

func (h *ContentHandler) GetGame(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	game, err := h.games.GetByID(c.Request.Context(), id, actor)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, game)
}

func (h *ContentHandler) ListGames(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var query services.OwnerQuery
	if !h.bindQuery(c, &query) {
		return
	}

	page, err := h.games.List(c.Request.Context(), query, actor)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *ContentHandler) UpdateGame(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}
	var req services.GameRequest
	if !h.bindJSON(c, &req) {
		return
	}

	game, err := h.games.Update(c.Request.Context(), id, &req, actor)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, game)
}

func (h *ContentHandler) DeleteGame(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.games.Delete(c.Request.Context(), id, actor); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "Game deleted successfully"})
}

// PlayGame scores one play-through
// @Summary Play game
// @Tags games
// @Accept json
// @Produce json
// @Param id path int true "Game ID"
// @Param answers body services.PlayGameRequest true "Answers"
// @Success 200 {object} services.PlayGameResult
// @Router /play/games/{id} [post]
func (h *ContentHandler) PlayGame(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}
	var req services.PlayGameRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.games.Play(c.Request.Context(), id, &req, actor)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// ===== NOTEBOOKS =====

func (h *ContentHandler) CreateNotebook(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req services.NotebookRequest
	if !h.bindJSON(c, &req) {
		return
	}

	nb, err := h.notebooks.Create(c.Request.Context(), &req, actor)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, nb)
}

func (h *ContentHandler) GetNotebook(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	nb, err := h.notebooks.GetByID(c.Request.Context(), id, actor)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, nb)
}

func (h *ContentHandler) ListNotebooks(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var query services.OwnerQuery
	if !h.bindQuery(c, &query) {
		return
	}

	page, err := h.notebooks.List(c.Request.Context(), query, actor)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *ContentHandler) UpdateNotebook(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}
	var req services.NotebookRequest
	if !h.bindJSON(c, &req) {
		return
	}

	nb, err := h.notebooks.Update(c.Request.Context(), id, &req, actor)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, nb)
}

func (h *ContentHandler) DeleteNotebook(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.notebooks.Delete(c.Request.Context(), id, actor); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "Notebook deleted successfully"})
}
