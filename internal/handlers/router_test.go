package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/classroom-service/internal/events"
	"github.com/SAP-F-2025/classroom-service/internal/models"
	"github.com/SAP-F-2025/classroom-service/internal/repositories/postgres"
	"github.com/SAP-F-2025/classroom-service/internal/services"
	"github.com/SAP-F-2025/classroom-service/internal/testutil"
	"github.com/SAP-F-2025/classroom-service/internal/utils"
	"github.com/SAP-F-2025/classroom-service/internal/validator"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var testUsers = testutil.Users{
	"t1": {ID: "t1", Email: "gv1@school.vn", Role: models.RoleTeacher},
	"s1": {ID: "s1", Email: "hs1@school.vn", Role: models.RoleStudent},
	"a1": {ID: "a1", Email: "admin@school.vn", Role: models.RoleAdmin},
}

// headerAuth trusts X-Test-User and looks the role up in testUsers.
func headerAuth(c *gin.Context) {
	user, ok := testUsers[c.GetHeader("X-Test-User")]
	if !ok {
		abortUnauthorized(c, "no test user")
		return
	}
	SetUser(c, user)
	c.Next()
}

type apiClient struct {
	t      *testing.T
	router *gin.Engine
}

func newAPI(t *testing.T) *apiClient {
	t.Helper()

	slogger := slog.New(slog.NewTextHandler(io.Discard, nil))
	logger := utils.NewSlogLogger(slogger)
	db := testutil.NewTestDB(t)
	repo := postgres.NewPostgreSQLRepository(postgres.RepositoryConfig{DB: db, UserRepository: testUsers})

	sm := services.NewServiceManager(db, repo, slogger, validator.New(), services.ServiceManagerConfig{
		EventPublisher: events.NewMockEventPublisher(slogger),
	})
	require.NoError(t, sm.Initialize(t.Context()))

	router := gin.New()
	SetupMiddleware(router, logger, 0)
	NewHandlerManager(sm, headerAuth, logger).SetupRoutes(router)
	return &apiClient{t: t, router: router}
}

func (a *apiClient) do(method, path, user string, body any) *httptest.ResponseRecorder {
	a.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(a.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.Header.Set("X-Test-User", user)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestHealth(t *testing.T) {
	api := newAPI(t)

	w := api.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestRoleGates(t *testing.T) {
	api := newAPI(t)

	tests := []struct {
		name   string
		method string
		path   string
		user   string
		want   int
	}{
		{"anonymous", http.MethodGet, "/api/v1/exams", "", http.StatusUnauthorized},
		{"student on teacher route", http.MethodGet, "/api/v1/exams", "s1", http.StatusForbidden},
		{"teacher on student route", http.MethodGet, "/api/v1/student/exams", "t1", http.StatusForbidden},
		{"teacher on admin route", http.MethodGet, "/api/v1/admin/stats", "t1", http.StatusForbidden},
		{"admin on teacher route", http.MethodGet, "/api/v1/exams", "a1", http.StatusOK},
		{"admin stats", http.MethodGet, "/api/v1/admin/stats", "a1", http.StatusOK},
		{"teacher list", http.MethodGet, "/api/v1/exams", "t1", http.StatusOK},
		{"bad id", http.MethodGet, "/api/v1/exams/abc", "t1", http.StatusBadRequest},
		{"missing exam", http.MethodGet, "/api/v1/exams/999", "t1", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := api.do(tt.method, tt.path, tt.user, nil)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
		})
	}
}

func TestExamFlowOverHTTP(t *testing.T) {
	api := newAPI(t)

	w := api.do(http.MethodPost, "/api/v1/students", "t1", map[string]any{
		"studentCode": "HS01",
		"fullName":    "Trần Thị Bình",
		"className":   "10A1",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	student := decode[models.Student](t, w)

	w = api.do(http.MethodPost, "/api/v1/students", "t1", map[string]any{
		"studentCode": "HS01",
		"fullName":    "Trùng mã",
	})
	assert.Equal(t, http.StatusConflict, w.Code, "duplicate student code")

	w = api.do(http.MethodPost, fmt.Sprintf("/api/v1/students/%d/link", student.ID), "t1", map[string]any{"userId": "s1"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = api.do(http.MethodPost, "/api/v1/exams", "t1", map[string]any{
		"title":       "Kiểm tra 15 phút",
		"subject":     "Vật lý",
		"totalPoints": 10,
		"className":   []string{"10A1"},
		"questions": []map[string]any{
			{"question": "g ≈ ?", "type": "multiple_choice", "answers": []string{"9.8", "12"}, "correct": 0},
			{"question": "Định luật Newton thứ nhất", "type": "essay"},
		},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	exam := decode[models.Exam](t, w)
	examPath := fmt.Sprintf("/api/v1/exams/%d", exam.ID)

	w = api.do(http.MethodGet, fmt.Sprintf("/api/v1/student/exams/%d", exam.ID), "s1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code, "draft is hidden from students")

	w = api.do(http.MethodPost, examPath+"/publish", "t1", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = api.do(http.MethodPut, examPath, "t1", map[string]any{"title": "Đổi tên"})
	assert.Equal(t, http.StatusConflict, w.Code, "published exams are read-only")

	w = api.do(http.MethodGet, fmt.Sprintf("/api/v1/student/exams/%d", exam.ID), "s1", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NotContains(t, w.Body.String(), `"correct"`, "answer key is hidden while taking the exam")

	w = api.do(http.MethodPost, fmt.Sprintf("/api/v1/student/exams/%d/submit", exam.ID), "s1", map[string]any{
		"answers": []map[string]any{
			{"questionIndex": 0, "answer": 0},
			{"questionIndex": 1, "essayAnswer": "Vật giữ nguyên trạng thái"},
		},
		"timeSpent": 120,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	result := decode[services.SubmitResult](t, w)
	assert.Equal(t, models.SubmissionSubmitted, result.Status)
	assert.InDelta(t, 5.0, result.Score, 0.001)

	w = api.do(http.MethodPost, fmt.Sprintf("/api/v1/student/exams/%d/submit", exam.ID), "s1", map[string]any{})
	assert.Equal(t, http.StatusConflict, w.Code, "second submit is rejected")

	gradePath := fmt.Sprintf("/api/v1/submissions/%d/grade", result.SubmissionID)
	w = api.do(http.MethodPost, gradePath, "t1", map[string]any{"questionIndex": 0, "score": 1})
	assert.Equal(t, http.StatusBadRequest, w.Code, "only essays are graded by hand")

	w = api.do(http.MethodPost, gradePath, "t1", map[string]any{"questionIndex": 1, "score": 4, "feedback": "Tốt"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	graded := decode[models.ExamSubmission](t, w)
	assert.Equal(t, models.SubmissionGraded, graded.Status)
	assert.InDelta(t, 9.0, graded.Score, 0.001)

	w = api.do(http.MethodGet, "/api/v1/student/submissions", "s1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	page := decode[models.PaginatedResponse](t, w)
	assert.EqualValues(t, 1, page.TotalElements)

	w = api.do(http.MethodDelete, examPath, "t1", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = api.do(http.MethodGet, "/api/v1/dashboard", "t1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"totalExams":1`)
}

func TestGamePlayIsOpenToStudents(t *testing.T) {
	api := newAPI(t)

	w := api.do(http.MethodPost, "/api/v1/games", "t1", map[string]any{
		"title":  "Đố vui",
		"status": "published",
		"questions": []map[string]any{
			{"question": "1+1", "type": "multiple_choice", "answers": []string{"2", "3"}, "correct": 0},
		},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	game := decode[models.Game](t, w)

	w = api.do(http.MethodGet, fmt.Sprintf("/api/v1/games/%d", game.ID), "s1", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = api.do(http.MethodPost, fmt.Sprintf("/api/v1/play/games/%d", game.ID), "s1", map[string]any{
		"answers": []map[string]any{{"questionIndex": 0, "answer": 0}},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	result := decode[services.PlayGameResult](t, w)
	assert.Equal(t, 1, result.Correct)
}

func TestAIWithoutKeyIsUnavailable(t *testing.T) {
	api := newAPI(t)

	w := api.do(http.MethodPost, "/api/v1/ai/questions", "t1", map[string]any{
		"subject": "Hóa học",
		"topic":   "Bảng tuần hoàn",
	})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code, w.Body.String())
}

func TestHandleServiceError(t *testing.T) {
	h := NewBaseHandler(utils.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", services.ErrExamNotFound, http.StatusNotFound},
		{"precondition", services.ErrAlreadySubmitted, http.StatusConflict},
		{"conflict", services.ErrDuplicateStudentCode, http.StatusConflict},
		{"permission", services.NewPermissionError("t2", 1, "exam", "update", "not the owner"), http.StatusForbidden},
		{"field", services.NewValidationError("score", "too high", 11), http.StatusBadRequest},
		{"fields", services.ValidationErrors{{Field: "title", Message: "required"}}, http.StatusBadRequest},
		{"business rule", services.NewBusinessRuleError("student_role", "not a student", nil), http.StatusUnprocessableEntity},
		{"bad file", services.ErrInvalidFile, http.StatusBadRequest},
		{"ai", services.ErrAINotConfigured, http.StatusServiceUnavailable},
		{"unknown", fmt.Errorf("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			h.handleServiceError(c, tt.err)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}
