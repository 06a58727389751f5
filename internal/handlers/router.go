package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/classroom-service/internal/models"
	"github.com/SAP-F-2025/classroom-service/internal/services"
	"github.com/SAP-F-2025/classroom-service/internal/utils"
)

type HandlerManager struct {
	examHandler      *ExamHandler
	gradingHandler   *GradingHandler
	portalHandler    *StudentPortalHandler
	studentHandler   *StudentHandler
	contentHandler   *ContentHandler
	aiHandler        *AIHandler
	dashboardHandler *DashboardHandler

	services services.ServiceManager
	auth     gin.HandlerFunc
	logger   utils.Logger
}

// NewHandlerManager builds every handler from an initialized service manager.
// auth must set the user keys read by GetUserIDFromContext and
// GetUserRoleFromContext; in production it is CasdoorAuthMiddleware.AuthMiddleware.
func NewHandlerManager(serviceManager services.ServiceManager, auth gin.HandlerFunc, logger utils.Logger) *HandlerManager {
	return &HandlerManager{
		examHandler:      NewExamHandler(serviceManager.Exam(), serviceManager.Grading(), serviceManager.ImportExport(), logger),
		gradingHandler:   NewGradingHandler(serviceManager.Grading(), logger),
		portalHandler:    NewStudentPortalHandler(serviceManager.Submission(), logger),
		studentHandler:   NewStudentHandler(serviceManager.Student(), serviceManager.ImportExport(), logger),
		contentHandler:   NewContentHandler(serviceManager.Document(), serviceManager.Game(), serviceManager.Notebook(), logger),
		aiHandler:        NewAIHandler(serviceManager.Settings(), serviceManager.AI(), logger),
		dashboardHandler: NewDashboardHandler(serviceManager.Dashboard(), logger),
		services:         serviceManager,
		auth:             auth,
		logger:           logger,
	}
}

func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.GET("/health", hm.health)

	v1 := router.Group("/api/v1")
	v1.Use(hm.auth)

	// Teachers manage their own classroom content.
	teacher := v1.Group("")
	teacher.Use(RequireRole(models.RoleTeacher))
	{
		exams := teacher.Group("/exams")
		{
			exams.POST("", hm.examHandler.CreateExam)
			exams.GET("", hm.examHandler.ListExams)
			exams.GET("/template", hm.examHandler.Template)
			exams.GET("/:id", hm.examHandler.GetExam)
			exams.PUT("/:id", hm.examHandler.UpdateExam)
			exams.DELETE("/:id", hm.examHandler.DeleteExam)
			exams.POST("/:id/publish", hm.examHandler.PublishExam)
			exams.POST("/:id/complete", hm.examHandler.CompleteExam)
			exams.GET("/:id/export", hm.examHandler.ExportExam)
			exams.POST("/:id/import", hm.examHandler.ImportQuestions)
			exams.GET("/:id/submissions", hm.examHandler.ListSubmissions)
		}

		submissions := teacher.Group("/submissions")
		{
			submissions.GET("/:id", hm.gradingHandler.GetSubmission)
			submissions.POST("/:id/grade", hm.gradingHandler.GradeEssay)
			submissions.POST("/:id/finalize", hm.gradingHandler.Finalize)
		}

		students := teacher.Group("/students")
		{
			students.POST("", hm.studentHandler.CreateStudent)
			students.GET("", hm.studentHandler.ListStudents)
			students.GET("/classes", hm.studentHandler.ListClasses)
			students.GET("/export", hm.studentHandler.ExportStudents)
			students.POST("/import", hm.studentHandler.ImportStudents)
			students.GET("/:id", hm.studentHandler.GetStudent)
			students.PUT("/:id", hm.studentHandler.UpdateStudent)
			students.DELETE("/:id", hm.studentHandler.DeleteStudent)
			students.POST("/:id/link", hm.studentHandler.LinkUser)
		}

		documents := teacher.Group("/documents")
		{
			documents.POST("", hm.contentHandler.CreateDocument)
			documents.GET("", hm.contentHandler.ListDocuments)
			documents.GET("/:id", hm.contentHandler.GetDocument)
			documents.PUT("/:id", hm.contentHandler.UpdateDocument)
			documents.DELETE("/:id", hm.contentHandler.DeleteDocument)
		}

		games := teacher.Group("/games")
		{
			games.POST("", hm.contentHandler.CreateGame)
			games.GET("", hm.contentHandler.ListGames)
			games.GET("/:id", hm.contentHandler.GetGame)
			games.PUT("/:id", hm.contentHandler.UpdateGame)
			games.DELETE("/:id", hm.contentHandler.DeleteGame)
		}

		notebooks := teacher.Group("/notebooks")
		{
			notebooks.POST("", hm.contentHandler.CreateNotebook)
			notebooks.GET("", hm.contentHandler.ListNotebooks)
			notebooks.GET("/:id", hm.contentHandler.GetNotebook)
			notebooks.PUT("/:id", hm.contentHandler.UpdateNotebook)
			notebooks.DELETE("/:id", hm.contentHandler.DeleteNotebook)
		}

		teacher.GET("/settings", hm.aiHandler.GetSettings)
		teacher.PUT("/settings", hm.aiHandler.UpdateSettings)

		ai := teacher.Group("/ai")
		{
			ai.POST("/questions", hm.aiHandler.GenerateQuestions)
			ai.POST("/summary", hm.aiHandler.Summarize)
		}

		teacher.GET("/dashboard", hm.dashboardHandler.GetTeacherDashboard)
	}

	// Any signed-in user can play a published game.
	v1.POST("/play/games/:id", hm.contentHandler.PlayGame)

	student := v1.Group("/student")
	student.Use(RequireRole(models.RoleStudent))
	{
		student.GET("/exams", hm.portalHandler.ListExams)
		student.GET("/exams/:id", hm.portalHandler.OpenExam)
		student.POST("/exams/:id/submit", hm.portalHandler.SubmitExam)
		student.GET("/submissions", hm.portalHandler.ListSubmissions)
		student.GET("/submissions/:id", hm.portalHandler.GetSubmission)
	}

	admin := v1.Group("/admin")
	admin.Use(RequireRole(models.RoleAdmin))
	{
		admin.GET("/stats", hm.dashboardHandler.GetAdminStats)
		admin.GET("/users", hm.dashboardHandler.ListUsers)
	}
}

func (hm *HandlerManager) health(c *gin.Context) {
	if err := hm.services.HealthCheck(c.Request.Context()); err != nil {
		utils.FromGin(c, hm.logger).Warn("Health check failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "unhealthy",
			"service": "classroom-service",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "classroom-service",
	})
}
