package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/classroom-service/internal/services"
	"github.com/SAP-F-2025/classroom-service/internal/utils"
)

// GradingHandler serves the teacher side of submissions.
type GradingHandler struct {
	BaseHandler
	service services.GradingService
}

func NewGradingHandler(service services.GradingService, logger utils.Logger) *GradingHandler {
	return &GradingHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
	}
}

// GetSubmission returns a submission with per-question results and the answer key
// @Summary Get submission
// @Tags submissions
// @Produce json
// @Param id path int true "Submission ID"
// @Success 200 {object} services.SubmissionDetail
// @Router /submissions/{id} [get]
func (h *GradingHandler) GetSubmission(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	detail, err := h.service.GetSubmission(c.Request.Context(), id, actor)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// GradeEssay scores one essay answer
// @Summary Grade essay
// @Tags submissions
// @Accept json
// @Produce json
// @Param id path int true "Submission ID"
// @Param grade body services.GradeEssayRequest true "Question index, score and feedback"
// @Success 200 {object} models.ExamSubmission
// @Failure 400 {object} ErrorResponse "Not an essay or score out of range"
// @Failure 409 {object} ErrorResponse "Submission is still in progress"
// @Router /submissions/{id}/grade [post]
func (h *GradingHandler) GradeEssay(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}
	var req services.GradeEssayRequest
	if !h.bindJSON(c, &req) {
		return
	}

	h.LogRequest(c, "Grading essay", "submission_id", id, "question_index", req.QuestionIndex)
	sub, err := h.service.GradeEssay(c.Request.Context(), id, &req, actor)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, sub)
}

func (h *GradingHandler) Finalize(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	sub, err := h.service.Finalize(c.Request.Context(), id, actor)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, sub)
}

// ===== STUDENT PORTAL =====

// StudentPortalHandler serves the logged-in student's exams and results.
type StudentPortalHandler struct {
	BaseHandler
	service services.SubmissionService
}

func NewStudentPortalHandler(service services.SubmissionService, logger utils.Logger) *StudentPortalHandler {
	return &StudentPortalHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
	}
}

// ListExams lists published exams assigned to the student
// @Summary List my exams
// @Tags student
// @Produce json
// @Success 200 {array} services.AvailableExam
// @Router /student/exams [get]
func (h *StudentPortalHandler) ListExams(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	exams, err := h.service.ListAvailable(c.Request.Context(), actor)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, exams)
}

// OpenExam returns the exam without its answer key and starts the
// submission on first open.
// @Summary Open exam
// @Tags student
// @Produce json
// @Param id path int true "Exam ID"
// @Success 200 {object} services.OpenExamResponse
// @Failure 404 {object} ErrorResponse "Not found or not assigned"
// @Failure 409 {object} ErrorResponse "Deadline passed or already submitted"
// @Router /student/exams/{id} [get]
func (h *StudentPortalHandler) OpenExam(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	resp, err := h.service.Open(c.Request.Context(), id, actor)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// SubmitExam scores the answers and closes the submission
// @Summary Submit exam
// @Tags student
// @Accept json
// @Produce json
// @Param id path int true "Exam ID"
// @Param answers body services.SubmitExamRequest true "Answers by question index"
// @Success 200 {object} services.SubmitResult
// @Failure 409 {object} ErrorResponse "Not opened or already submitted"
// @Router /student/exams/{id}/submit [post]
func (h *StudentPortalHandler) SubmitExam(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}
	var req services.SubmitExamRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.service.Submit(c.Request.Context(), id, &req, actor)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *StudentPortalHandler) ListSubmissions(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var query services.PageQuery
	if !h.bindQuery(c, &query) {
		return
	}

	page, err := h.service.ListMine(c.Request.Context(), query, actor)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *StudentPortalHandler) GetSubmission(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	detail, err := h.service.GetMine(c.Request.Context(), id, actor)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}
