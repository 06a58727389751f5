package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/SAP-F-2025/classroom-service/internal/events"
	"github.com/SAP-F-2025/classroom-service/internal/models"
)

type notificationEventService struct {
	eventPublisher events.EventPublisher
	logger         *slog.Logger
}

// NewNotificationEventService publishes through publisher. A nil publisher
// turns every call into a no-op.
func NewNotificationEventService(publisher events.EventPublisher, logger *slog.Logger) NotificationEventService {
	return &notificationEventService{
		eventPublisher: publisher,
		logger:         logger,
	}
}

func (s *notificationEventService) ExamPublished(ctx context.Context, exam *models.Exam) error {
	return s.publish(ctx, events.NewEvent(events.ExamPublished, events.ExamPublishedData{
		ExamID:           exam.ID,
		TeacherID:        exam.TeacherID,
		Title:            exam.Title,
		ClassNames:       []string(exam.ClassNames),
		StudentsAssigned: exam.StudentsAssigned,
	}))
}

func (s *notificationEventService) SubmissionSubmitted(ctx context.Context, submission *models.ExamSubmission, exam *models.Exam) error {
	return s.publish(ctx, events.NewEvent(events.SubmissionSubmitted, submissionData(submission, exam)))
}

func (s *notificationEventService) SubmissionGraded(ctx context.Context, submission *models.ExamSubmission, exam *models.Exam) error {
	return s.publish(ctx, events.NewEvent(events.SubmissionGraded, submissionData(submission, exam)))
}

func (s *notificationEventService) publish(ctx context.Context, event *events.Event) error {
	if s.eventPublisher == nil {
		return nil
	}
	if err := s.eventPublisher.Publish(ctx, event); err != nil {
		return fmt.Errorf("failed to publish %s event: %w", event.Type, err)
	}
	s.logger.Debug("Event published", "event_id", event.ID, "event_type", event.Type)
	return nil
}

func submissionData(submission *models.ExamSubmission, exam *models.Exam) events.SubmissionData {
	return events.SubmissionData{
		SubmissionID: submission.ID,
		ExamID:       submission.ExamID,
		StudentID:    submission.StudentID,
		TeacherID:    exam.TeacherID,
		Status:       string(submission.Status),
		Score:        submission.Score,
		TotalPoints:  submission.TotalPoints,
	}
}
