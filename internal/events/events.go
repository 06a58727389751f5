// Package events publishes domain events to Kafka (or an in-process channel
// when no broker is configured).
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	Source  = "classroom-service"
	Version = "1.0"
)

type EventType string

const (
	ExamPublished       EventType = "exam.published"
	SubmissionSubmitted EventType = "submission.submitted"
	SubmissionGraded    EventType = "submission.graded"
)

type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Source    string      `json:"source"`
	Version   string      `json:"version"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

func NewEvent(eventType EventType, data interface{}) *Event {
	return &Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Source:    Source,
		Version:   Version,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

type ExamPublishedData struct {
	ExamID           uint     `json:"examId"`
	TeacherID        string   `json:"teacherId"`
	Title            string   `json:"title"`
	ClassNames       []string `json:"classNames"`
	StudentsAssigned int      `json:"studentsAssigned"`
}

type SubmissionData struct {
	SubmissionID uint    `json:"submissionId"`
	ExamID       uint    `json:"examId"`
	StudentID    uint    `json:"studentId"`
	TeacherID    string  `json:"teacherId"`
	Status       string  `json:"status"`
	Score        float64 `json:"score"`
	TotalPoints  float64 `json:"totalPoints"`
}

// EventPublisher delivers events; Publish must not be called after Close.
type EventPublisher interface {
	Publish(ctx context.Context, event *Event) error
	Close() error
}
