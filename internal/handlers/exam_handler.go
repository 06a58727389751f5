package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/classroom-service/internal/services"
	"github.com/SAP-F-2025/classroom-service/internal/utils"
)

type ExamHandler struct {
	BaseHandler
	examService    services.ExamService
	gradingService services.GradingService
	importExport   services.ImportExportService
}

func NewExamHandler(examService services.ExamService, gradingService services.GradingService, importExport services.ImportExportService, logger utils.Logger) *ExamHandler {
	return &ExamHandler{
		BaseHandler:    NewBaseHandler(logger),
		examService:    examService,
		gradingService: gradingService,
		importExport:   importExport,
	}
}

// CreateExam creates a draft exam
// @Summary Create exam
// @Tags exams
// @Accept json
// @Produce json
// @Param exam body services.CreateExamRequest true "Exam data"
// @Success 201 {object} models.Exam
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /exams [post]
func (h *ExamHandler) CreateExam(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req services.CreateExamRequest
	if !h.bindJSON(c, &req) {
		return
	}

	exam, err := h.examService.Create(c.Request.Context(), &req, actor)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, exam)
}

// GetExam returns one exam with its answer key
// @Summary Get exam
// @Tags exams
// @Produce json
// @Param id path int true "Exam ID"
// @Success 200 {object} models.Exam
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /exams/{id} [get]
func (h *ExamHandler) GetExam(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	exam, err := h.examService.GetByID(c.Request.Context(), id, actor)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, exam)
}

// ListExams lists the caller's exams
// @Summary List exams
// @Tags exams
// @Produce json
// @Param page query int false "Page number (default: 1)"
// @Param size query int false "Page size (default: 10, max: 100)"
// @Param q query string false "Title search"
// @Param status query string false "draft, published or completed"
// @Param subject query string false "Subject"
// @Success 200 {object} models.PaginatedResponse
// @Router /exams [get]
func (h *ExamHandler) ListExams(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var query services.ExamListQuery
	if !h.bindQuery(c, &query) {
		return
	}

	page, err := h.examService.List(c.Request.Context(), query, actor)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// UpdateExam replaces the fields present in the body. Only drafts can be edited.
// @Summary Update exam
// @Tags exams
// @Accept json
// @Produce json
// @Param id path int true "Exam ID"
// @Param exam body services.UpdateExamRequest true "Fields to change"
// @Success 200 {object} models.Exam
// @Failure 409 {object} ErrorResponse "Exam is not a draft"
// @Router /exams/{id} [put]
func (h *ExamHandler) UpdateExam(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}
	var req services.UpdateExamRequest
	if !h.bindJSON(c, &req) {
		return
	}

	exam, err := h.examService.Update(c.Request.Context(), id, &req, actor)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, exam)
}

// DeleteExam
// @Summary Delete exam
// @Tags exams
// @Param id path int true "Exam ID"
// @Success 200 {object} SuccessResponse
// @Failure 409 {object} ErrorResponse "Exam is not a draft or has submissions"
// @Router /exams/{id} [delete]
func (h *ExamHandler) DeleteExam(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.examService.Delete(c.Request.Context(), id, actor); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "Exam deleted successfully"})
}

// PublishExam
// @Summary Publish exam
// @Tags exams
// @Param id path int true "Exam ID"
// @Success 200 {object} models.Exam
// @Router /exams/{id}/publish [post]
func (h *ExamHandler) PublishExam(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	exam, err := h.examService.Publish(c.Request.Context(), id, actor)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, exam)
}

func (h *ExamHandler) CompleteExam(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	exam, err := h.examService.Complete(c.Request.Context(), id, actor)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, exam)
}

// ===== SPREADSHEETS =====

// ExportExam downloads the exam's questions as .xlsx
// @Summary Export exam questions
// @Tags exams
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param id path int true "Exam ID"
// @Router /exams/{id}/export [get]
func (h *ExamHandler) ExportExam(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	file, err := h.importExport.ExportExam(c.Request.Context(), id, actor)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.sendFile(c, file)
}

// ImportQuestions appends questions from an uploaded .xlsx (form field "file")
// @Summary Import exam questions
// @Tags exams
// @Accept multipart/form-data
// @Produce json
// @Param id path int true "Exam ID"
// @Param file formData file true "Question sheet"
// @Success 200 {object} services.ImportQuestionsResult
// @Router /exams/{id}/import [post]
func (h *ExamHandler) ImportQuestions(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	file, ok := h.uploadedFile(c)
	if !ok {
		return
	}
	defer file.Close()

	result, err := h.importExport.ImportQuestions(c.Request.Context(), id, file, actor)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *ExamHandler) Template(c *gin.Context) {
	file, err := h.importExport.Template()
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.sendFile(c, file)
}

// ===== SUBMISSIONS =====

// ListSubmissions lists submissions of one exam for its teacher
// @Summary List exam submissions
// @Tags exams
// @Produce json
// @Param id path int true "Exam ID"
// @Param status query string false "in_progress, submitted or graded"
// @Success 200 {object} models.PaginatedResponse
// @Router /exams/{id}/submissions [get]
func (h *ExamHandler) ListSubmissions(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}
	var query services.SubmissionListQuery
	if !h.bindQuery(c, &query) {
		return
	}

	page, err := h.gradingService.ListByExam(c.Request.Context(), id, query, actor)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}
