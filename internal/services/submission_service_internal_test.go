package services

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/classroom-service/internal/events"
	"github.com/SAP-F-2025/classroom-service/internal/models"
	"github.com/SAP-F-2025/classroom-service/internal/repositories"
	"github.com/SAP-F-2025/classroom-service/internal/repositories/postgres"
	"github.com/SAP-F-2025/classroom-service/internal/testutil"
	"github.com/SAP-F-2025/classroom-service/internal/validator"
)

func TestOpen_Deadline(t *testing.T) {
	ctx := t.Context()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	db := testutil.NewTestDB(t)
	repo := postgres.NewPostgreSQLRepository(postgres.RepositoryConfig{
		DB: db,
		UserRepository: testutil.Users{
			"t1": {ID: "t1", Role: models.RoleTeacher},
			"s1": {ID: "s1", Role: models.RoleStudent},
		},
	})
	sm := NewServiceManager(db, repo, logger, validator.New(), ServiceManagerConfig{
		EventPublisher: events.NewMockEventPublisher(logger),
	})
	require.NoError(t, sm.Initialize(ctx))

	owner := Actor{UserID: "t1", Role: models.RoleTeacher}
	student := Actor{UserID: "s1", Role: models.RoleStudent}

	st, err := sm.Student().Create(ctx, &StudentRequest{StudentCode: "HS01", FullName: "Phạm Minh Đức", ClassName: "9A"}, owner)
	require.NoError(t, err)
	_, err = sm.Student().LinkUser(ctx, st.ID, &LinkUserRequest{UserID: "s1"}, owner)
	require.NoError(t, err)

	deadline := time.Now().Add(time.Hour)
	publish := func(title string) *models.Exam {
		exam, err := sm.Exam().Create(ctx, &CreateExamRequest{
			Title:     title,
			ClassName: models.ClassNames{"9A"},
			Deadline:  &deadline,
			Questions: []QuestionRequest{
				{Question: "5 x 5", Type: models.QuestionMultipleChoice, Answers: []string{"25", "10"}, Correct: intPtr(0)},
			},
		}, owner)
		require.NoError(t, err)
		exam, err = sm.Exam().Publish(ctx, exam.ID, owner)
		require.NoError(t, err)
		return exam
	}

	submitted := publish("Đã nộp")
	started := publish("Đang làm")
	untouched := publish("Chưa mở")

	_, err = sm.Submission().Open(ctx, submitted.ID, student)
	require.NoError(t, err)
	_, err = sm.Submission().Submit(ctx, submitted.ID, &SubmitExamRequest{
		Answers: []AnswerRequest{{QuestionIndex: 0, Answer: intPtr(0)}},
	}, student)
	require.NoError(t, err)
	_, err = sm.Submission().Open(ctx, started.ID, student)
	require.NoError(t, err)

	sm.Submission().(*submissionService).now = func() time.Time { return deadline.Add(time.Minute) }

	_, err = sm.Submission().Open(ctx, untouched.ID, student)
	assert.ErrorIs(t, err, ErrDeadlineExpired)
	_, err = sm.Submission().Open(ctx, started.ID, student)
	assert.ErrorIs(t, err, ErrDeadlineExpired, "an unfinished attempt cannot be resumed late")
	_, err = sm.Submission().Open(ctx, submitted.ID, student)
	assert.ErrorIs(t, err, ErrAlreadySubmitted, "finished submissions report as submitted, not late")

	subs, _, err := repo.Submission().ListByStudents(ctx, db, []uint{st.ID}, repositories.SubmissionFilters{})
	require.NoError(t, err)
	assert.Len(t, subs, 2, "no submission is created after the deadline")
}
