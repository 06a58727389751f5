package postgres_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/SAP-F-2025/classroom-service/internal/models"
	"github.com/SAP-F-2025/classroom-service/internal/repositories"
	"github.com/SAP-F-2025/classroom-service/internal/repositories/postgres"
	"github.com/SAP-F-2025/classroom-service/internal/testutil"
)

func newRepo(t *testing.T, rc *redis.Client) repositories.Repository {
	t.Helper()
	return postgres.NewPostgreSQLRepository(postgres.RepositoryConfig{
		DB:             testutil.NewTestDB(t),
		RedisClient:    rc,
		UserRepository: testutil.Users{},
	})
}

func seedExam(t *testing.T, repo repositories.Repository, teacherID string) *models.Exam {
	t.Helper()
	exam := &models.Exam{
		Title:       "Kiểm tra 15 phút",
		Subject:     "Toán",
		Type:        models.ExamTypeMultipleChoice,
		TotalPoints: 10,
		Status:      models.ExamPublished,
		TeacherID:   teacherID,
		Questions: []models.Question{
			{Question: "1+1", Type: models.QuestionMultipleChoice, Answers: []string{"1", "2"}, Correct: testutil.IntPtr(1)},
		},
		ClassNames: []string{"10A1"},
	}
	require.NoError(t, repo.Exam().Create(context.Background(), nil, exam))
	return exam
}

func seedStudent(t *testing.T, repo repositories.Repository, teacherID, code, class string) *models.Student {
	t.Helper()
	s := &models.Student{TeacherID: teacherID, StudentCode: code, FullName: "HS " + code, ClassName: class}
	require.NoError(t, repo.Student().Create(context.Background(), nil, s))
	return s
}

func TestSubmission_UniquePerExamAndStudent(t *testing.T) {
	repo := newRepo(t, nil)
	ctx := context.Background()
	exam := seedExam(t, repo, "t1")
	student := seedStudent(t, repo, "t1", "HS01", "10A1")

	first := &models.ExamSubmission{ExamID: exam.ID, StudentID: student.ID, Status: models.SubmissionInProgress}
	require.NoError(t, repo.Submission().Create(ctx, nil, first))

	dup := &models.ExamSubmission{ExamID: exam.ID, StudentID: student.ID, Status: models.SubmissionInProgress}
	err := repo.Submission().Create(ctx, nil, dup)
	require.Error(t, err)
	assert.True(t, repositories.IsDuplicateError(err))

	got, err := repo.Submission().GetByExamAndStudent(ctx, nil, exam.ID, student.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)
}

func TestSubmission_MarkSubmittedOnlyOnce(t *testing.T) {
	repo := newRepo(t, nil)
	ctx := context.Background()
	exam := seedExam(t, repo, "t1")
	student := seedStudent(t, repo, "t1", "HS01", "10A1")

	sub := &models.ExamSubmission{ExamID: exam.ID, StudentID: student.ID, Status: models.SubmissionInProgress}
	require.NoError(t, repo.Submission().Create(ctx, nil, sub))

	now := time.Now()
	sub.Status = models.SubmissionGraded
	sub.Score = 10
	sub.McScore = 10
	sub.SubmittedAt = &now
	sub.GradedAt = &now

	ok, err := repo.Submission().MarkSubmitted(ctx, nil, sub)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.Submission().MarkSubmitted(ctx, nil, sub)
	require.NoError(t, err)
	assert.False(t, ok)

	stored, err := repo.Submission().GetByID(ctx, nil, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SubmissionGraded, stored.Status)
	assert.InDelta(t, 10, stored.Score, 0.001)
	require.NotNil(t, stored.Student)
	assert.Equal(t, "HS01", stored.Student.StudentCode)
}

func TestExam_IncrementCountersInvalidatesCache(t *testing.T) {
	mr := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	repo := newRepo(t, rc)
	ctx := context.Background()
	exam := seedExam(t, repo, "t1")

	cached, err := repo.Exam().GetByID(ctx, nil, exam.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, cached.SubmittedCount)

	require.NoError(t, repo.Exam().IncrementCounters(ctx, nil, exam.ID, 1, 1))
	require.NoError(t, repo.Exam().IncrementCounters(ctx, nil, exam.ID, 1, 0))

	fresh, err := repo.Exam().GetByID(ctx, nil, exam.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, fresh.SubmittedCount)
	assert.Equal(t, 1, fresh.GradedCount)
	require.Len(t, fresh.Questions, 1)
	assert.Equal(t, 1, *fresh.Questions[0].Correct)
}

func TestExam_TransactionalWritesLeaveCacheUntilCommit(t *testing.T) {
	mr := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	repo := newRepo(t, rc)
	ctx := context.Background()
	exam := seedExam(t, repo, "t1")
	key := fmt.Sprintf("exam:id:%d", exam.ID)

	_, err := repo.Exam().GetByID(ctx, nil, exam.ID)
	require.NoError(t, err)
	require.True(t, mr.Exists(key))

	err = repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		if err := tx.Exam().IncrementCounters(ctx, nil, exam.ID, 1, 0); err != nil {
			return err
		}
		assert.True(t, mr.Exists(key), "no invalidation before commit")

		inTx, err := tx.Exam().GetByID(ctx, nil, exam.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, inTx.SubmittedCount, "reads inside the transaction skip the cache")
		return nil
	})
	require.NoError(t, err)

	repo.Exam().InvalidateCache(ctx, exam.ID, "t1")
	assert.False(t, mr.Exists(key))

	fresh, err := repo.Exam().GetByID(ctx, nil, exam.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, fresh.SubmittedCount)
}

func TestExam_ListFiltersAndSearch(t *testing.T) {
	repo := newRepo(t, nil)
	ctx := context.Background()
	seedExam(t, repo, "t1")
	seedExam(t, repo, "t2")

	teacher := "t1"
	exams, total, err := repo.Exam().List(ctx, nil, repositories.ExamFilters{TeacherID: &teacher, Query: "KIỂM", Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Len(t, exams, 1)

	published, err := repo.Exam().ListPublishedByTeachers(ctx, nil, []string{"t1", "t2"})
	require.NoError(t, err)
	assert.Len(t, published, 2)

	require.NoError(t, repo.Exam().Delete(ctx, nil, exams[0].ID))
	_, err = repo.Exam().GetByID(ctx, nil, exams[0].ID)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestStudent_CountAssignedAndClasses(t *testing.T) {
	repo := newRepo(t, nil)
	ctx := context.Background()
	a := seedStudent(t, repo, "t1", "HS01", "10A1")
	seedStudent(t, repo, "t1", "HS02", "10a1")
	c := seedStudent(t, repo, "t1", "HS03", "11B2")
	seedStudent(t, repo, "t2", "HS01", "10A1")

	n, err := repo.Student().CountAssigned(ctx, nil, "t1", []string{"10A1"}, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	n, err = repo.Student().CountAssigned(ctx, nil, "t1", []string{"10A1"}, []uint{a.ID, c.ID})
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)

	classes, err := repo.Student().ListClasses(ctx, nil, "t1")
	require.NoError(t, err)
	assert.Contains(t, classes, "11B2")

	dup := &models.Student{TeacherID: "t1", StudentCode: "HS01", FullName: "Trùng"}
	assert.True(t, repositories.IsDuplicateError(repo.Student().Create(ctx, nil, dup)))
}

func TestWithTransaction_RollsBack(t *testing.T) {
	repo := newRepo(t, nil)
	ctx := context.Background()

	err := repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		s := &models.Student{TeacherID: "t1", StudentCode: "HS09", FullName: "Lê Thị C"}
		if err := tx.Student().Create(ctx, nil, s); err != nil {
			return err
		}
		return errors.New("abort")
	})
	require.Error(t, err)

	_, err = repo.Student().GetByCode(ctx, nil, "t1", "HS09")
	assert.True(t, repositories.IsNotFoundError(err))
}

func TestDashboard_TeacherCounts(t *testing.T) {
	repo := newRepo(t, nil)
	ctx := context.Background()
	exam := seedExam(t, repo, "t1")
	student := seedStudent(t, repo, "t1", "HS01", "10A1")

	now := time.Now()
	sub := &models.ExamSubmission{ExamID: exam.ID, StudentID: student.ID, Status: models.SubmissionSubmitted, SubmittedAt: &now, TotalPoints: 10}
	require.NoError(t, repo.Submission().Create(ctx, nil, sub))

	counts, err := repo.Dashboard().TeacherCounts(ctx, nil, "t1")
	require.NoError(t, err)
	assert.EqualValues(t, 1, counts.TotalExams)
	assert.EqualValues(t, 1, counts.ExamsByStatus[models.ExamPublished])
	assert.EqualValues(t, 1, counts.PendingGrading)
	assert.EqualValues(t, 1, counts.TotalClasses)

	recent, err := repo.Dashboard().RecentSubmissions(ctx, nil, "t1", 5)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "HS HS01", recent[0].StudentName)

	avg, err := repo.Dashboard().AverageScore(ctx, nil, "t1")
	require.NoError(t, err)
	assert.Zero(t, avg)

	sub.Status = models.SubmissionGraded
	sub.Score = 7.5
	require.NoError(t, repo.Submission().SaveGrading(ctx, nil, sub))
	avg, err = repo.Dashboard().AverageScore(ctx, nil, "t1")
	require.NoError(t, err)
	assert.InDelta(t, 7.5, avg, 0.001)

	admin, err := repo.Dashboard().AdminCounts(ctx, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 1, admin.TotalTeachers)
}

func TestGame_IncrementPlayCount(t *testing.T) {
	repo := newRepo(t, nil)
	ctx := context.Background()

	game := &models.Game{OwnerID: "t1", Title: "Đố vui", Status: models.GameDraft}
	require.NoError(t, repo.Game().Create(ctx, nil, game))
	require.NoError(t, repo.Game().IncrementPlayCount(ctx, nil, game.ID))

	got, err := repo.Game().GetByID(ctx, nil, game.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.PlayCount)

	got.Title = "Đố vui 2"
	require.NoError(t, repo.Game().Update(ctx, nil, got))
	games, total, err := repo.Game().List(ctx, nil, repositories.OwnerFilters{OwnerID: "t1", Query: "2"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, "t1", games[0].OwnerID)
}
