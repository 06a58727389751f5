package services_test

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/SAP-F-2025/classroom-service/internal/events"
	"github.com/SAP-F-2025/classroom-service/internal/llm"
	"github.com/SAP-F-2025/classroom-service/internal/models"
	"github.com/SAP-F-2025/classroom-service/internal/repositories"
	"github.com/SAP-F-2025/classroom-service/internal/repositories/postgres"
	"github.com/SAP-F-2025/classroom-service/internal/services"
	"github.com/SAP-F-2025/classroom-service/internal/testutil"
	"github.com/SAP-F-2025/classroom-service/internal/validator"
)

var (
	teacher    = services.Actor{UserID: "t1", Role: models.RoleTeacher}
	teacher2   = services.Actor{UserID: "t2", Role: models.RoleTeacher}
	studentAct = services.Actor{UserID: "s1", Role: models.RoleStudent}
	outsider   = services.Actor{UserID: "s2", Role: models.RoleStudent}
)

type fixture struct {
	sm        services.ServiceManager
	repo      repositories.Repository
	publisher *events.MockEventPublisher
	llm       *fakeLLM
}

type fakeLLM struct {
	cfg       llm.Config
	questions []llm.GeneratedQuestion
	summary   string
}

func (f *fakeLLM) GenerateQuestions(context.Context, llm.GenerateParams) ([]llm.GeneratedQuestion, error) {
	return f.questions, nil
}

func (f *fakeLLM) Summarize(context.Context, string, string) (string, error) {
	return f.summary, nil
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	db := testutil.NewTestDB(t)
	users := testutil.Users{
		"t1": {ID: "t1", Email: "gv1@school.vn", Role: models.RoleTeacher},
		"s1": {ID: "s1", Email: "hs1@school.vn", Role: models.RoleStudent},
		"s2": {ID: "s2", Email: "hs2@school.vn", Role: models.RoleStudent},
	}
	repo := postgres.NewPostgreSQLRepository(postgres.RepositoryConfig{DB: db, UserRepository: users})
	publisher := events.NewMockEventPublisher(logger)
	fake := &fakeLLM{}

	sm := services.NewServiceManager(db, repo, logger, validator.New(), services.ServiceManagerConfig{
		EventPublisher: publisher,
		LLMFactory: func(cfg llm.Config) services.LLMClient {
			fake.cfg = cfg
			return fake
		},
	})
	require.NoError(t, sm.Initialize(t.Context()))
	return &fixture{sm: sm, repo: repo, publisher: publisher, llm: fake}
}

func (f *fixture) linkedStudent(t *testing.T, class string) *models.Student {
	t.Helper()
	st, err := f.sm.Student().Create(t.Context(), &services.StudentRequest{
		StudentCode: "HS01",
		FullName:    "Nguyễn Văn An",
		ClassName:   class,
	}, teacher)
	require.NoError(t, err)
	st, err = f.sm.Student().LinkUser(t.Context(), st.ID, &services.LinkUserRequest{UserID: "s1"}, teacher)
	require.NoError(t, err)
	return st
}

func mixedExam() *services.CreateExamRequest {
	total := 10.0
	return &services.CreateExamRequest{
		Title:       "Kiểm tra giữa kỳ",
		Subject:     "Toán",
		TotalPoints: &total,
		ClassName:   models.ClassNames{"10A1"},
		Questions: []services.QuestionRequest{
			{Question: "2+2", Type: models.QuestionMultipleChoice, Answers: []string{"3", "4"}, Correct: testutil.IntPtr(1)},
			{Question: "3+3", Type: models.QuestionMultipleChoice, Answers: []string{"6", "7"}, Correct: testutil.IntPtr(0)},
			{Question: "Trình bày định lý Pytago", Type: models.QuestionEssay},
		},
	}
}

func eventTypes(p *events.MockEventPublisher) []events.EventType {
	var out []events.EventType
	for _, e := range p.GetPublishedEvents() {
		out = append(out, e.Type)
	}
	return out
}

func TestExamSubmissionGradingFlow(t *testing.T) {
	f := newFixture(t)
	ctx := t.Context()
	f.linkedStudent(t, "10A1")

	exam, err := f.sm.Exam().Create(ctx, mixedExam(), teacher)
	require.NoError(t, err)
	assert.Equal(t, models.ExamDraft, exam.Status)
	assert.Equal(t, models.ExamTypeMixed, exam.Type)

	_, err = f.sm.Submission().Open(ctx, exam.ID, studentAct)
	assert.ErrorIs(t, err, services.ErrExamNotFound, "drafts are invisible to students")

	exam, err = f.sm.Exam().Publish(ctx, exam.ID, teacher)
	require.NoError(t, err)
	assert.Equal(t, 1, exam.StudentsAssigned)

	available, err := f.sm.Submission().ListAvailable(ctx, studentAct)
	require.NoError(t, err)
	require.Len(t, available, 1)

	opened, err := f.sm.Submission().Open(ctx, exam.ID, studentAct)
	require.NoError(t, err)
	assert.Equal(t, models.SubmissionInProgress, opened.Submission.Status)
	require.Len(t, opened.Exam.Questions, 3)

	again, err := f.sm.Submission().Open(ctx, exam.ID, studentAct)
	require.NoError(t, err)
	assert.Equal(t, opened.Submission.ID, again.Submission.ID, "opening twice reuses the submission")

	result, err := f.sm.Submission().Submit(ctx, exam.ID, &services.SubmitExamRequest{
		Answers: []services.AnswerRequest{
			{QuestionIndex: 0, Answer: testutil.IntPtr(1)},
			{QuestionIndex: 1, Answer: testutil.IntPtr(1)},
			{QuestionIndex: 2, EssayAnswer: "a² + b² = c²"},
		},
		TimeSpent: 300,
	}, studentAct)
	require.NoError(t, err)
	assert.Equal(t, models.SubmissionSubmitted, result.Status)
	assert.InDelta(t, 3.33, result.Score, 0.001)
	require.Len(t, result.Results, 3)
	assert.Nil(t, result.Results[2].IsCorrect)

	before, err := f.sm.Grading().GetSubmission(ctx, result.SubmissionID, teacher)
	require.NoError(t, err)
	require.NotNil(t, before.Submission.SubmittedAt)

	_, err = f.sm.Submission().Submit(ctx, exam.ID, &services.SubmitExamRequest{TimeSpent: 999}, studentAct)
	assert.ErrorIs(t, err, services.ErrAlreadySubmitted)

	after, err := f.sm.Grading().GetSubmission(ctx, result.SubmissionID, teacher)
	require.NoError(t, err)
	assert.Equal(t, before.Submission.Score, after.Submission.Score)
	assert.Equal(t, before.Submission.McScore, after.Submission.McScore)
	assert.Equal(t, 300, after.Submission.TimeSpent)
	require.NotNil(t, after.Submission.SubmittedAt)
	assert.True(t, before.Submission.SubmittedAt.Equal(*after.Submission.SubmittedAt))
	assert.Len(t, after.Submission.Answers, 3)

	_, err = f.sm.Submission().Open(ctx, exam.ID, studentAct)
	assert.ErrorIs(t, err, services.ErrAlreadySubmitted)

	_, err = f.sm.Grading().GradeEssay(ctx, result.SubmissionID, &services.GradeEssayRequest{QuestionIndex: 2, Score: 3}, teacher2)
	var perr *services.PermissionError
	assert.ErrorAs(t, err, &perr)

	_, err = f.sm.Grading().GradeEssay(ctx, result.SubmissionID, &services.GradeEssayRequest{QuestionIndex: 2, Score: 5}, teacher)
	var verrs services.ValidationErrors
	assert.ErrorAs(t, err, &verrs, "score above the question's share")

	_, err = f.sm.Grading().GradeEssay(ctx, result.SubmissionID, &services.GradeEssayRequest{QuestionIndex: 0, Score: 1}, teacher)
	assert.ErrorAs(t, err, &verrs, "multiple-choice questions are not graded by hand")

	graded, err := f.sm.Grading().GradeEssay(ctx, result.SubmissionID, &services.GradeEssayRequest{QuestionIndex: 2, Score: 3, Feedback: "Tốt"}, teacher)
	require.NoError(t, err)
	assert.Equal(t, models.SubmissionGraded, graded.Status)
	assert.InDelta(t, 6.33, graded.Score, 0.001)
	assert.Equal(t, 1, graded.GradedEssayQuestions)

	regraded, err := f.sm.Grading().GradeEssay(ctx, result.SubmissionID, &services.GradeEssayRequest{QuestionIndex: 2, Score: 2, Feedback: "Khá"}, teacher)
	require.NoError(t, err)
	assert.InDelta(t, 5.33, regraded.Score, 0.001)
	assert.Equal(t, 1, regraded.GradedEssayQuestions, "regrading does not double count")

	detail, err := f.sm.Submission().GetMine(ctx, result.SubmissionID, studentAct)
	require.NoError(t, err)
	assert.True(t, *detail.Results[0].IsCorrect)
	assert.Equal(t, "Khá", detail.Results[2].Feedback)

	_, err = f.sm.Submission().GetMine(ctx, result.SubmissionID, outsider)
	assert.Error(t, err)

	stored, err := f.sm.Exam().GetByID(ctx, exam.ID, teacher)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.SubmittedCount)
	assert.Equal(t, 1, stored.GradedCount)

	assert.Equal(t, []events.EventType{
		events.ExamPublished,
		events.SubmissionSubmitted,
		events.SubmissionGraded,
	}, eventTypes(f.publisher))
}

func TestSubmit_MultipleChoiceOnlyIsGradedImmediately(t *testing.T) {
	f := newFixture(t)
	ctx := t.Context()
	f.linkedStudent(t, "10A1")

	req := mixedExam()
	req.Questions = req.Questions[:2]
	exam, err := f.sm.Exam().Create(ctx, req, teacher)
	require.NoError(t, err)
	_, err = f.sm.Exam().Publish(ctx, exam.ID, teacher)
	require.NoError(t, err)

	_, err = f.sm.Submission().Submit(ctx, exam.ID, &services.SubmitExamRequest{}, studentAct)
	assert.ErrorIs(t, err, services.ErrSubmissionNotStarted)

	_, err = f.sm.Submission().Open(ctx, exam.ID, studentAct)
	require.NoError(t, err)
	result, err := f.sm.Submission().Submit(ctx, exam.ID, &services.SubmitExamRequest{
		Answers: []services.AnswerRequest{
			{QuestionIndex: 0, Answer: testutil.IntPtr(1)},
			{QuestionIndex: 1, Answer: testutil.IntPtr(0)},
		},
	}, studentAct)
	require.NoError(t, err)
	assert.Equal(t, models.SubmissionGraded, result.Status)
	assert.Equal(t, 10.0, result.Score)
}

func TestFinalize_BlankEssays(t *testing.T) {
	f := newFixture(t)
	ctx := t.Context()
	f.linkedStudent(t, "10A1")

	exam, err := f.sm.Exam().Create(ctx, mixedExam(), teacher)
	require.NoError(t, err)
	_, err = f.sm.Exam().Publish(ctx, exam.ID, teacher)
	require.NoError(t, err)
	_, err = f.sm.Submission().Open(ctx, exam.ID, studentAct)
	require.NoError(t, err)

	result, err := f.sm.Submission().Submit(ctx, exam.ID, &services.SubmitExamRequest{
		Answers: []services.AnswerRequest{{QuestionIndex: 0, Answer: testutil.IntPtr(1)}},
	}, studentAct)
	require.NoError(t, err)
	require.Equal(t, models.SubmissionSubmitted, result.Status)

	_, err = f.sm.Grading().GradeEssay(ctx, result.SubmissionID, &services.GradeEssayRequest{QuestionIndex: 2, Score: 1}, teacher)
	var verrs services.ValidationErrors
	assert.ErrorAs(t, err, &verrs, "unanswered essays cannot be graded")

	sub, err := f.sm.Grading().Finalize(ctx, result.SubmissionID, teacher)
	require.NoError(t, err)
	assert.Equal(t, models.SubmissionGraded, sub.Status)
	assert.InDelta(t, 3.33, sub.Score, 0.001)

	_, err = f.sm.Grading().Finalize(ctx, result.SubmissionID, teacher)
	assert.ErrorIs(t, err, services.ErrNotAwaitingGrading)
}

func TestOpen_NotAssigned(t *testing.T) {
	f := newFixture(t)
	ctx := t.Context()
	f.linkedStudent(t, "11B2")

	exam, err := f.sm.Exam().Create(ctx, mixedExam(), teacher)
	require.NoError(t, err)
	_, err = f.sm.Exam().Publish(ctx, exam.ID, teacher)
	require.NoError(t, err)

	_, err = f.sm.Submission().Open(ctx, exam.ID, studentAct)
	assert.ErrorIs(t, err, services.ErrExamNotFound)

	_, err = f.sm.Submission().Open(ctx, exam.ID, outsider)
	assert.ErrorIs(t, err, services.ErrStudentProfileAbsent)
}

func TestExamLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := t.Context()

	empty := mixedExam()
	empty.Questions = nil
	exam, err := f.sm.Exam().Create(ctx, empty, teacher)
	require.NoError(t, err)

	_, err = f.sm.Exam().Publish(ctx, exam.ID, teacher)
	var verrs services.ValidationErrors
	require.ErrorAs(t, err, &verrs, "an exam without questions cannot be published")

	title := "Đã sửa"
	exam, err = f.sm.Exam().Update(ctx, exam.ID, &services.UpdateExamRequest{Title: &title}, teacher)
	require.NoError(t, err)
	assert.Equal(t, title, exam.Title)

	_, err = f.sm.Exam().GetByID(ctx, exam.ID, teacher2)
	var perr *services.PermissionError
	assert.ErrorAs(t, err, &perr)

	exam2, err := f.sm.Exam().Create(ctx, mixedExam(), teacher)
	require.NoError(t, err)
	_, err = f.sm.Exam().Complete(ctx, exam2.ID, teacher)
	assert.ErrorIs(t, err, services.ErrExamInvalidStatus, "drafts cannot be completed")

	_, err = f.sm.Exam().Publish(ctx, exam2.ID, teacher)
	require.NoError(t, err)
	_, err = f.sm.Exam().Update(ctx, exam2.ID, &services.UpdateExamRequest{Title: &title}, teacher)
	assert.ErrorIs(t, err, services.ErrExamNotEditable)
	assert.ErrorIs(t, f.sm.Exam().Delete(ctx, exam2.ID, teacher), services.ErrExamNotDeletable)

	done, err := f.sm.Exam().Complete(ctx, exam2.ID, teacher)
	require.NoError(t, err)
	assert.Equal(t, models.ExamCompleted, done.Status)
	assert.NotNil(t, done.CompletedAt)

	require.NoError(t, f.sm.Exam().Delete(ctx, exam.ID, teacher))
	_, err = f.sm.Exam().GetByID(ctx, exam.ID, teacher)
	assert.ErrorIs(t, err, services.ErrExamNotFound)

	page, err := f.sm.Exam().List(ctx, services.ExamListQuery{}, teacher)
	require.NoError(t, err)
	assert.EqualValues(t, 1, page.TotalElements)
}

func TestImportExport_QuestionRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := t.Context()

	source, err := f.sm.Exam().Create(ctx, mixedExam(), teacher)
	require.NoError(t, err)
	file, err := f.sm.ImportExport().ExportExam(ctx, source.ID, teacher)
	require.NoError(t, err)
	assert.Contains(t, file.FileName, ".xlsx")

	req := mixedExam()
	req.Questions = nil
	target, err := f.sm.Exam().Create(ctx, req, teacher)
	require.NoError(t, err)

	result, err := f.sm.ImportExport().ImportQuestions(ctx, target.ID, bytes.NewReader(file.Data), teacher)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Imported)
	assert.Empty(t, result.Errors)
	require.Len(t, result.Exam.Questions, 3)
	assert.Equal(t, 1, *result.Exam.Questions[0].Correct)
	assert.True(t, result.Exam.Questions[2].IsEssay())
	assert.Equal(t, models.ExamTypeMixed, result.Exam.Type)

	_, err = f.sm.ImportExport().ImportQuestions(ctx, target.ID, bytes.NewReader([]byte("not a workbook")), teacher)
	assert.ErrorIs(t, err, services.ErrInvalidFile)
}

func TestParseQuestionRows(t *testing.T) {
	header := []string{"STT", "Câu hỏi", "Loại", "A", "B", "C", "D", "E", "F", "Đáp án đúng", "Điểm", "Giải thích"}

	tests := []struct {
		name        string
		row         []string
		wantAnswers []string
		wantCorrect int
		wantErr     string
	}{
		{
			name:        "letter keeps its column",
			row:         []string{"1", "Q?", "Trắc nghiệm", "right", "wrong", "", "", "", "", "A", "1"},
			wantAnswers: []string{"right", "wrong"},
			wantCorrect: 0,
		},
		{
			name:        "numeric key",
			row:         []string{"1", "Q?", "TN", "x", "y", "z", "", "", "", "3"},
			wantAnswers: []string{"x", "y", "z"},
			wantCorrect: 2,
		},
		{
			name:    "blank leading option",
			row:     []string{"1", "Q?", "Trắc nghiệm", "", "right", "wrong", "", "", "", "B", "1"},
			wantErr: "option A is blank",
		},
		{
			name:    "gap between options",
			row:     []string{"1", "Q?", "Trắc nghiệm", "a", "", "c", "", "", "", "C"},
			wantErr: "option B is blank",
		},
		{
			name:    "key on an empty column",
			row:     []string{"1", "Q?", "Trắc nghiệm", "a", "b", "", "", "", "", "D"},
			wantErr: "must reference one of the options",
		},
		{
			name:    "key past the last column",
			row:     []string{"1", "Q?", "Trắc nghiệm", "a", "b", "", "", "", "", "G"},
			wantErr: "must reference one of the options",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			questions, errs := services.ParseQuestionRows([][]string{header, tt.row})
			if tt.wantErr != "" {
				assert.Empty(t, questions)
				require.Len(t, errs, 1)
				assert.Equal(t, 2, errs[0].Row)
				assert.Contains(t, errs[0].Message, tt.wantErr)
				return
			}
			require.Empty(t, errs)
			require.Len(t, questions, 1)
			assert.Equal(t, tt.wantAnswers, questions[0].Answers)
			require.NotNil(t, questions[0].Correct)
			assert.Equal(t, tt.wantCorrect, *questions[0].Correct)
		})
	}
}

func TestImportExport_SixOptionRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := t.Context()

	req := mixedExam()
	req.Questions = []services.QuestionRequest{{
		Question: "Số nguyên tố lớn nhất?",
		Type:     models.QuestionMultipleChoice,
		Answers:  []string{"2", "3", "5", "7", "9", "11"},
		Correct:  testutil.IntPtr(5),
	}}
	exam, err := f.sm.Exam().Create(ctx, req, teacher)
	require.NoError(t, err)

	file, err := f.sm.ImportExport().ExportExam(ctx, exam.ID, teacher)
	require.NoError(t, err)
	wb, err := excelize.OpenReader(bytes.NewReader(file.Data))
	require.NoError(t, err)
	rows, err := wb.GetRows(wb.GetSheetList()[0])
	require.NoError(t, err)

	questions, errs := services.ParseQuestionRows(rows)
	require.Empty(t, errs)
	require.Len(t, questions, 1)
	assert.Equal(t, req.Questions[0].Answers, questions[0].Answers)
	assert.Equal(t, 5, *questions[0].Correct)

	seven := mixedExam()
	seven.Questions = []services.QuestionRequest{{
		Question: "Quá nhiều lựa chọn",
		Type:     models.QuestionMultipleChoice,
		Answers:  []string{"1", "2", "3", "4", "5", "6", "7"},
		Correct:  testutil.IntPtr(6),
	}}
	_, err = f.sm.Exam().Create(ctx, seven, teacher)
	var verrs services.ValidationErrors
	assert.ErrorAs(t, err, &verrs, "the sheet holds at most six options")
}

func TestImportExport_Students(t *testing.T) {
	f := newFixture(t)
	ctx := t.Context()

	wb := excelize.NewFile()
	rows := [][]interface{}{
		{"Mã HS", "Họ và tên", "Lớp", "Email", "Số điện thoại", "Ngày sinh", "Giới tính", "Ghi chú"},
		{"HS01", "Trần Thị Bình", "10A1", "", "", "01/09/2009", "Nữ", ""},
		{"HS02", "Lê Văn Cường", "10A1", "", "", "", "Nam", ""},
		{"HS01", "Trùng mã", "10A1", "", "", "", "", ""},
		{"", "Thiếu mã", "10A1", "", "", "", "", ""},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, wb.SetSheetRow("Sheet1", cell, &row))
	}
	buf, err := wb.WriteToBuffer()
	require.NoError(t, err)

	result, err := f.sm.ImportExport().ImportStudents(ctx, buf, teacher)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Created)
	assert.Equal(t, 1, result.Skipped)
	assert.Len(t, result.Errors, 1)

	classes, err := f.sm.Student().ListClasses(ctx, teacher)
	require.NoError(t, err)
	assert.Equal(t, []string{"10A1"}, classes)

	class := "10A1"
	file, err := f.sm.ImportExport().ExportStudents(ctx, &class, teacher)
	require.NoError(t, err)
	exported, err := excelize.OpenReader(bytes.NewReader(file.Data))
	require.NoError(t, err)
	sheetRows, err := exported.GetRows(exported.GetSheetName(0))
	require.NoError(t, err)
	assert.Len(t, sheetRows, 3)
}

func TestGamePlay(t *testing.T) {
	f := newFixture(t)
	ctx := t.Context()

	_, err := f.sm.Game().Create(ctx, &services.GameRequest{
		Title:     "Đố vui",
		Questions: []services.QuestionRequest{{Question: "Tự luận", Type: models.QuestionEssay}},
	}, teacher)
	var verrs services.ValidationErrors
	require.ErrorAs(t, err, &verrs)

	game, err := f.sm.Game().Create(ctx, &services.GameRequest{
		Title: "Đố vui",
		Questions: []services.QuestionRequest{
			{Question: "Thủ đô Việt Nam", Type: models.QuestionMultipleChoice, Answers: []string{"Hà Nội", "Huế"}, Correct: testutil.IntPtr(0)},
			{Question: "5x5", Type: models.QuestionMultipleChoice, Answers: []string{"20", "25"}, Correct: testutil.IntPtr(1)},
		},
	}, teacher)
	require.NoError(t, err)

	play := &services.PlayGameRequest{Answers: []services.AnswerRequest{{QuestionIndex: 0, Answer: testutil.IntPtr(0)}}}
	_, err = f.sm.Game().Play(ctx, game.ID, play, studentAct)
	assert.ErrorIs(t, err, services.ErrGameNotFound, "drafts are private")

	_, err = f.sm.Game().Update(ctx, game.ID, &services.GameRequest{
		Title:     game.Title,
		Questions: []services.QuestionRequest{{Question: "Thủ đô Việt Nam", Type: models.QuestionMultipleChoice, Answers: []string{"Hà Nội", "Huế"}, Correct: testutil.IntPtr(0)}, {Question: "5x5", Type: models.QuestionMultipleChoice, Answers: []string{"20", "25"}, Correct: testutil.IntPtr(1)}},
		Status:    models.GamePublished,
	}, teacher)
	require.NoError(t, err)

	result, err := f.sm.Game().Play(ctx, game.ID, play, studentAct)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Correct)
	assert.Equal(t, 2, result.Total)

	stored, err := f.sm.Game().GetByID(ctx, game.ID, teacher)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.PlayCount)
}

func TestContentOwnership(t *testing.T) {
	f := newFixture(t)
	ctx := t.Context()

	doc, err := f.sm.Document().Create(ctx, &services.DocumentRequest{Title: "Giáo án", Subject: "Văn"}, teacher)
	require.NoError(t, err)
	assert.NotEmpty(t, doc.StorageKey)

	_, err = f.sm.Document().GetByID(ctx, doc.ID, teacher2)
	var perr *services.PermissionError
	assert.ErrorAs(t, err, &perr)

	nb, err := f.sm.Notebook().Create(ctx, &services.NotebookRequest{Title: "Ghi chú", Tags: []string{" toán ", ""}}, teacher)
	require.NoError(t, err)
	assert.Equal(t, []string{"toán"}, []string(nb.Tags))

	page, err := f.sm.Notebook().List(ctx, services.OwnerQuery{}, teacher2)
	require.NoError(t, err)
	assert.EqualValues(t, 0, page.TotalElements)

	require.NoError(t, f.sm.Notebook().Delete(ctx, nb.ID, teacher))
	_, err = f.sm.Notebook().GetByID(ctx, nb.ID, teacher)
	assert.ErrorIs(t, err, services.ErrNotebookNotFound)
}

func TestSettingsAndAI(t *testing.T) {
	f := newFixture(t)
	ctx := t.Context()

	settings, err := f.sm.Settings().Get(ctx, teacher)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultExamTotalPoints, settings.DefaultTotalPoints)
	assert.False(t, settings.HasAIKey)

	_, err = f.sm.AI().GenerateQuestions(ctx, &services.GenerateQuestionsRequest{Subject: "Toán", Topic: "Phân số"}, teacher)
	assert.ErrorIs(t, err, services.ErrAINotConfigured)

	key := "sk-teacher-1234"
	settings, err = f.sm.Settings().Update(ctx, &services.SettingsRequest{DefaultTotalPoints: 100, AIAPIKey: &key}, teacher)
	require.NoError(t, err)
	assert.Equal(t, "****1234", settings.AIAPIKey)

	f.llm.questions = []llm.GeneratedQuestion{
		{Question: "1/2 + 1/2", Type: "multiple_choice", Answers: []string{"1", "2"}, Correct: testutil.IntPtr(0)},
		{Question: "Thiếu đáp án", Type: "multiple_choice", Answers: []string{"1"}, Correct: testutil.IntPtr(0)},
		{Question: "Quá nhiều đáp án", Type: "multiple_choice", Answers: []string{"1", "2", "3", "4", "5", "6", "7"}, Correct: testutil.IntPtr(6)},
		{Question: "Giải thích phân số", Type: "essay"},
	}
	questions, err := f.sm.AI().GenerateQuestions(ctx, &services.GenerateQuestionsRequest{Subject: "Toán", Topic: "Phân số"}, teacher)
	require.NoError(t, err)
	assert.Len(t, questions, 2)
	assert.Equal(t, key, f.llm.cfg.APIKey)

	doc, err := f.sm.Document().Create(ctx, &services.DocumentRequest{Title: "Bài giảng", Content: "Nội dung bài giảng"}, teacher)
	require.NoError(t, err)
	f.llm.summary = "Tóm tắt"
	summary, err := f.sm.AI().Summarize(ctx, &services.SummaryRequest{DocumentID: &doc.ID}, teacher)
	require.NoError(t, err)
	assert.Equal(t, "Tóm tắt", summary.Summary)

	stored, err := f.sm.Document().GetByID(ctx, doc.ID, teacher)
	require.NoError(t, err)
	assert.Equal(t, "Tóm tắt", stored.Summary)

	exam, err := f.sm.Exam().Create(ctx, &services.CreateExamRequest{Title: "Mặc định"}, teacher)
	require.NoError(t, err)
	assert.Equal(t, 100.0, exam.TotalPoints, "teacher default applies")
}

func TestDashboard(t *testing.T) {
	f := newFixture(t)
	ctx := t.Context()
	f.linkedStudent(t, "10A1")

	_, err := f.sm.Exam().Create(ctx, mixedExam(), teacher)
	require.NoError(t, err)

	dash, err := f.sm.Dashboard().Teacher(ctx, teacher)
	require.NoError(t, err)
	assert.EqualValues(t, 1, dash.TotalExams)
	assert.EqualValues(t, 1, dash.TotalStudents)
	assert.NotNil(t, dash.RecentSubmissions)

	admin, err := f.sm.Dashboard().Admin(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, admin.TotalExams)

	users, err := f.sm.Dashboard().ListUsers(ctx, services.PageQuery{Query: "hs"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, users.TotalElements)
}

func TestServiceManagerLifecycle(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.sm.HealthCheck(t.Context()))
	require.NoError(t, f.sm.Shutdown(t.Context()))
	assert.Error(t, f.sm.HealthCheck(t.Context()))
	assert.Panics(t, func() { f.sm.Exam() })
}

func TestNotificationEvents_NilPublisher(t *testing.T) {
	n := services.NewNotificationEventService(nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.NoError(t, n.ExamPublished(context.Background(), &models.Exam{ID: 1}))
}
