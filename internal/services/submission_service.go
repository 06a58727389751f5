package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/classroom-service/internal/models"
	"github.com/SAP-F-2025/classroom-service/internal/repositories"
	"github.com/SAP-F-2025/classroom-service/internal/utils"
	"github.com/SAP-F-2025/classroom-service/internal/validator"
)

type submissionService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
	notifier  NotificationEventService
	now       func() time.Time
}

func NewSubmissionService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator, notifier NotificationEventService) SubmissionService {
	return &submissionService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
		notifier:  notifier,
		now:       time.Now,
	}
}

func (s *submissionService) ListAvailable(ctx context.Context, actor Actor) ([]AvailableExam, error) {
	students, err := s.profiles(ctx, actor)
	if err != nil {
		return nil, err
	}

	byTeacher := make(map[string]*models.Student, len(students))
	teacherIDs := make([]string, 0, len(students))
	studentIDs := make([]uint, 0, len(students))
	for _, st := range students {
		if _, ok := byTeacher[st.TeacherID]; !ok {
			byTeacher[st.TeacherID] = st
			teacherIDs = append(teacherIDs, st.TeacherID)
		}
		studentIDs = append(studentIDs, st.ID)
	}

	exams, err := s.repo.Exam().ListPublishedByTeachers(ctx, s.db, teacherIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to list exams: %w", err)
	}
	submissions, _, err := s.repo.Submission().ListByStudents(ctx, s.db, studentIDs, repositories.SubmissionFilters{})
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	byExam := make(map[uint]*models.ExamSubmission, len(submissions))
	for _, sub := range submissions {
		byExam[sub.ExamID] = sub
	}

	out := make([]AvailableExam, 0, len(exams))
	for _, exam := range exams {
		if !exam.IsAssignedTo(byTeacher[exam.TeacherID]) {
			continue
		}
		item := AvailableExam{
			ID:            exam.ID,
			Title:         exam.Title,
			Subject:       exam.Subject,
			Grade:         exam.Grade,
			Type:          exam.Type,
			Status:        exam.Status,
			QuestionCount: len(exam.Questions),
			TotalPoints:   exam.TotalPoints,
			Duration:      exam.Duration,
			Deadline:      exam.Deadline,
		}
		if sub, ok := byExam[exam.ID]; ok {
			status := sub.Status
			item.SubmissionID = &sub.ID
			item.SubmissionStatus = &status
			if status.IsFinal() {
				score := sub.Score
				item.Score = &score
			}
		}
		out = append(out, item)
	}
	return out, nil
}

// Open returns the exam for taking and creates the submission on first open.
func (s *submissionService) Open(ctx context.Context, examID uint, actor Actor) (*OpenExamResponse, error) {
	exam, student, err := s.examForStudent(ctx, examID, actor)
	if err != nil {
		return nil, err
	}
	if exam.Status != models.ExamPublished {
		return nil, ErrExamNotPublished
	}
	sub, err := s.repo.Submission().GetByExamAndStudent(ctx, s.db, exam.ID, student.ID)
	if err != nil && !repositories.IsNotFoundError(err) {
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}
	if sub != nil && sub.Status.IsFinal() {
		return nil, ErrAlreadySubmitted
	}
	if exam.DeadlinePassed(s.now()) {
		return nil, ErrDeadlineExpired
	}
	if sub == nil {
		if sub, err = s.start(ctx, exam, student); err != nil {
			return nil, err
		}
	}

	answers := []models.SubmissionAnswer(sub.Answers)
	if answers == nil {
		answers = []models.SubmissionAnswer{}
	}
	return &OpenExamResponse{
		Exam: StudentExamView{
			ID:          exam.ID,
			Title:       exam.Title,
			Subject:     exam.Subject,
			Grade:       exam.Grade,
			Description: exam.Description,
			Type:        exam.Type,
			TotalPoints: exam.TotalPoints,
			Duration:    exam.Duration,
			Deadline:    exam.Deadline,
			Questions:   studentQuestions(exam.Questions, exam.TotalPoints),
		},
		Submission: OpenSubmissionView{
			ID:        sub.ID,
			Status:    sub.Status,
			StartedAt: sub.StartedAt,
			Answers:   answers,
		},
	}, nil
}

// start creates the in-progress submission. A concurrent open that wins the
// unique index is read back instead.
func (s *submissionService) start(ctx context.Context, exam *models.Exam, student *models.Student) (*models.ExamSubmission, error) {
	now := s.now()
	sub := &models.ExamSubmission{
		ExamID:      exam.ID,
		StudentID:   student.ID,
		Answers:     []models.SubmissionAnswer{},
		TotalPoints: exam.TotalPoints,
		Status:      models.SubmissionInProgress,
		StartedAt:   &now,
	}

	err := s.repo.Submission().Create(ctx, s.db, sub)
	if err == nil {
		s.logger.Info("Submission started", "exam_id", exam.ID, "student_id", student.ID, "submission_id", sub.ID)
		return sub, nil
	}
	if !repositories.IsDuplicateError(err) {
		return nil, fmt.Errorf("failed to create submission: %w", err)
	}

	existing, err := s.repo.Submission().GetByExamAndStudent(ctx, s.db, exam.ID, student.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload submission: %w", err)
	}
	return existing, nil
}

// Submit scores the answers once. Multiple-choice points are scaled to the
// exam total; essays wait for the teacher.
func (s *submissionService) Submit(ctx context.Context, examID uint, req *SubmitExamRequest, actor Actor) (*SubmitResult, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	exam, student, err := s.examForStudent(ctx, examID, actor)
	if err != nil {
		return nil, err
	}
	if exam.Status != models.ExamPublished {
		return nil, ErrExamNotPublished
	}

	sub, err := s.repo.Submission().GetByExamAndStudent(ctx, s.db, exam.ID, student.ID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrSubmissionNotStarted
		}
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}

	next := models.SubmissionSubmitted
	if !exam.HasEssay() {
		next = models.SubmissionGraded
	}
	if !sub.Status.CanTransitionTo(next) {
		return nil, ErrAlreadySubmitted
	}

	scored := ScoreAnswers(exam.Questions, exam.TotalPoints, req.Answers)
	now := s.now()

	sub.Answers = scored.Answers
	sub.McScore = scored.McScore
	sub.EssayScore = 0
	sub.Score = scored.McScore
	sub.TotalPoints = exam.TotalPoints
	sub.TotalEssayQuestions = scored.EssayCount
	sub.GradedEssayQuestions = 0
	sub.TimeSpent = req.TimeSpent
	sub.SubmittedAt = &now
	sub.Status = next
	if next == models.SubmissionGraded {
		sub.GradedAt = &now
	}

	err = s.withTx(ctx, func(tx *gorm.DB) error {
		updated, err := s.repo.Submission().MarkSubmitted(ctx, tx, sub)
		if err != nil {
			return err
		}
		if !updated {
			return ErrAlreadySubmitted
		}
		graded := 0
		if next == models.SubmissionGraded {
			graded = 1
		}
		return s.repo.Exam().IncrementCounters(ctx, tx, exam.ID, 1, graded)
	})
	if err != nil {
		if errors.Is(err, ErrAlreadySubmitted) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to submit exam: %w", err)
	}
	s.repo.Exam().InvalidateCache(ctx, exam.ID, exam.TeacherID)

	s.logger.Info("Exam submitted",
		"exam_id", exam.ID,
		"submission_id", sub.ID,
		"status", sub.Status,
		"mc_score", sub.McScore,
		"essay_questions", sub.TotalEssayQuestions)

	if err := s.notifier.SubmissionSubmitted(ctx, sub, exam); err != nil {
		s.logger.Warn("Failed to publish submission event", "submission_id", sub.ID, "error", err)
	}
	if sub.Status == models.SubmissionGraded {
		if err := s.notifier.SubmissionGraded(ctx, sub, exam); err != nil {
			s.logger.Warn("Failed to publish graded event", "submission_id", sub.ID, "error", err)
		}
	}

	return &SubmitResult{
		SubmissionID: sub.ID,
		Score:        sub.Score,
		TotalPoints:  sub.TotalPoints,
		Status:       sub.Status,
		Results:      BuildResults(exam.Questions, exam.TotalPoints, sub.Answers, true),
		TimeSpent:    sub.TimeSpent,
	}, nil
}

func (s *submissionService) ListMine(ctx context.Context, query PageQuery, actor Actor) (*models.PaginatedResponse, error) {
	students, err := s.profiles(ctx, actor)
	if err != nil {
		return nil, err
	}
	ids := make([]uint, len(students))
	for i, st := range students {
		ids[i] = st.ID
	}

	limit, offset := utils.Paginate(query.Page, query.Size)
	subs, total, err := s.repo.Submission().ListByStudents(ctx, s.db, ids, repositories.SubmissionFilters{
		Limit:     limit,
		Offset:    offset,
		SortBy:    query.SortBy,
		SortOrder: query.SortOrder,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	for _, sub := range subs {
		if sub.Exam != nil {
			sub.Exam = redactExam(sub.Exam)
			sub.Exam.Questions = nil
		}
	}

	page := models.NewPaginatedResponse(subs, total, query.Page, limit)
	return &page, nil
}

func (s *submissionService) GetMine(ctx context.Context, submissionID uint, actor Actor) (*SubmissionDetail, error) {
	students, err := s.profiles(ctx, actor)
	if err != nil {
		return nil, err
	}

	sub, err := s.repo.Submission().GetByID(ctx, s.db, submissionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrSubmissionNotFound
		}
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}
	if !slices.ContainsFunc(students, func(st *models.Student) bool { return st.ID == sub.StudentID }) {
		return nil, ErrSubmissionNotFound
	}

	exam, err := s.repo.Exam().GetByID(ctx, s.db, sub.ExamID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("failed to get exam: %w", err)
	}

	reveal := sub.Status.IsFinal()
	detail := &SubmissionDetail{
		Submission: sub,
		Exam:       exam,
		Results:    BuildResults(exam.Questions, exam.TotalPoints, sub.Answers, reveal),
	}
	if !reveal {
		detail.Exam = redactExam(exam)
	}
	return detail, nil
}

// ===== HELPERS =====

func (s *submissionService) withTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return s.db.WithContext(ctx).Transaction(fn)
}

func (s *submissionService) profiles(ctx context.Context, actor Actor) ([]*models.Student, error) {
	students, err := s.repo.Student().ListByUserID(ctx, s.db, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load student profile: %w", err)
	}
	if len(students) == 0 {
		return nil, ErrStudentProfileAbsent
	}
	return students, nil
}

// examForStudent loads an exam visible to the actor together with the
// roster entry of the exam's teacher. Anything else is reported as not found.
func (s *submissionService) examForStudent(ctx context.Context, examID uint, actor Actor) (*models.Exam, *models.Student, error) {
	students, err := s.profiles(ctx, actor)
	if err != nil {
		return nil, nil, err
	}

	exam, err := s.repo.Exam().GetByID(ctx, s.db, examID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, nil, ErrExamNotFound
		}
		return nil, nil, fmt.Errorf("failed to get exam: %w", err)
	}
	if exam.Status == models.ExamDraft {
		return nil, nil, ErrExamNotFound
	}

	for _, st := range students {
		if st.TeacherID == exam.TeacherID && exam.IsAssignedTo(st) {
			return exam, st, nil
		}
	}
	return nil, nil, ErrExamNotFound
}

// redactExam copies an exam without answer keys or rubrics.
func redactExam(exam *models.Exam) *models.Exam {
	out := *exam
	out.Questions = make([]models.Question, len(exam.Questions))
	for i, q := range exam.Questions {
		q.Correct = nil
		q.Rubric = ""
		q.Explanation = ""
		out.Questions[i] = q
	}
	return &out
}
