package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/classroom-service/internal/services"
	"github.com/SAP-F-2025/classroom-service/internal/utils"
)

// StudentHandler manages the teacher's roster.
type StudentHandler struct {
	BaseHandler
	service      services.StudentService
	importExport services.ImportExportService
}

func NewStudentHandler(service services.StudentService, importExport services.ImportExportService, logger utils.Logger) *StudentHandler {
	return &StudentHandler{
		BaseHandler:  NewBaseHandler(logger),
		service:      service,
		importExport: importExport,
	}
}

// ListStudents
// @Summary List roster
// @Tags students
// @Produce json
// @Param page query int false "Page number (default: 1)"
// @Param size query int false "Page size (default: 10, max: 100)"
// @Param q query string false "Name or code search"
// @Param className query string false "Class filter"
// @Success 200 {object} models.PaginatedResponse
// @Router /students [get]
func (h *StudentHandler) ListStudents(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var query services.StudentListQuery
	if !h.bindQuery(c, &query) {
		return
	}

	page, err := h.service.List(c.Request.Context(), query, actor)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *StudentHandler) ListClasses(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	classes, err := h.service.ListClasses(c.Request.Context(), actor)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, classes)
}

// CreateStudent
// @Summary Add student
// @Tags students
// @Accept json
// @Produce json
// @Param student body services.StudentRequest true "Student"
// @Success 201 {object} models.Student
// @Failure 409 {object} ErrorResponse "Student code already used"
// @Router /students [post]
func (h *StudentHandler) CreateStudent(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req services.StudentRequest
	if !h.bindJSON(c, &req) {
		return
	}

	student, err := h.service.Create(c.Request.Context(), &req, actor)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, student)
}

func (h *StudentHandler) GetStudent(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	student, err := h.service.GetByID(c.Request.Context(), id, actor)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, student)
}

func (h *StudentHandler) UpdateStudent(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}
	var req services.StudentRequest
	if !h.bindJSON(c, &req) {
		return
	}

	student, err := h.service.Update(c.Request.Context(), id, &req, actor)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, student)
}

func (h *StudentHandler) DeleteStudent(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), id, actor); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "Student deleted successfully"})
}

// LinkUser attaches a student login to a roster entry
// @Summary Link student account
// @Tags students
// @Accept json
// @Produce json
// @Param id path int true "Student ID"
// @Param link body services.LinkUserRequest true "User id or email"
// @Success 200 {object} models.Student
// @Failure 422 {object} ErrorResponse "Account is not a student"
// @Router /students/{id}/link [post]
func (h *StudentHandler) LinkUser(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}
	var req services.LinkUserRequest
	if !h.bindJSON(c, &req) {
		return
	}

	student, err := h.service.LinkUser(c.Request.Context(), id, &req, actor)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, student)
}

// ===== SPREADSHEETS =====

func (h *StudentHandler) ExportStudents(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var className *string
	if v := c.Query("className"); v != "" {
		className = &v
	}

	file, err := h.importExport.ExportStudents(c.Request.Context(), className, actor)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.sendFile(c, file)
}

// ImportStudents
// @Summary Import roster
// @Tags students
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Roster sheet"
// @Success 200 {object} services.ImportStudentsResult
// @Router /students/import [post]
func (h *StudentHandler) ImportStudents(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	file, ok := h.uploadedFile(c)
	if !ok {
		return
	}
	defer file.Close()

	result, err := h.importExport.ImportStudents(c.Request.Context(), file, actor)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
