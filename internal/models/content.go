package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Document holds metadata for an uploaded teaching document. The bytes live
// in external storage under StorageKey.
type Document struct {
	ID         uint   `json:"id" gorm:"primaryKey"`
	OwnerID    string `json:"ownerId" gorm:"not null;size:255;index"`
	Title      string `json:"title" gorm:"not null;size:200"`
	Subject    string `json:"subject,omitempty" gorm:"size:100;index"`
	Grade      string `json:"grade,omitempty" gorm:"size:20"`
	FileName   string `json:"fileName,omitempty" gorm:"size:255"`
	MimeType   string `json:"mimeType,omitempty" gorm:"size:100"`
	Size       int64  `json:"size"`
	StorageKey string `json:"storageKey" gorm:"size:64;uniqueIndex"`
	Content    string `json:"content,omitempty" gorm:"type:text"`
	Summary    string `json:"summary,omitempty" gorm:"type:text"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (Document) TableName() string {
	return "documents"
}

type GameStatus string

const (
	GameDraft     GameStatus = "draft"
	GamePublished GameStatus = "published"
)

// Game is a timed multiple-choice quiz played for fun; plays are not recorded per student.
type Game struct {
	ID                 uint                          `json:"id" gorm:"primaryKey"`
	OwnerID            string                        `json:"ownerId" gorm:"not null;size:255;index"`
	Title              string                        `json:"title" gorm:"not null;size:200"`
	Subject            string                        `json:"subject,omitempty" gorm:"size:100"`
	Grade              string                        `json:"grade,omitempty" gorm:"size:20"`
	Questions          datatypes.JSONSlice[Question] `json:"questions"`
	SecondsPerQuestion int                           `json:"secondsPerQuestion"`
	PlayCount          int                           `json:"playCount" gorm:"not null;default:0"`
	Status             GameStatus                    `json:"status" gorm:"size:20;not null;index"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (Game) TableName() string {
	return "games"
}

type Notebook struct {
	ID      uint                        `json:"id" gorm:"primaryKey"`
	OwnerID string                      `json:"ownerId" gorm:"not null;size:255;index"`
	Title   string                      `json:"title" gorm:"not null;size:200"`
	Content string                      `json:"content" gorm:"type:text"`
	Tags    datatypes.JSONSlice[string] `json:"tags"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (Notebook) TableName() string {
	return "notebooks"
}

// TeacherSettings is keyed by the teacher's user id.
type TeacherSettings struct {
	TeacherID          string  `json:"teacherId" gorm:"primaryKey;size:255"`
	SchoolName         string  `json:"schoolName,omitempty" gorm:"size:200"`
	DefaultTotalPoints float64 `json:"defaultTotalPoints"`
	DefaultDuration    int     `json:"defaultDuration"`
	AIAPIKey           string  `json:"-" gorm:"size:255"`
	AIModel            string  `json:"aiModel,omitempty" gorm:"size:100"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (TeacherSettings) TableName() string {
	return "teacher_settings"
}

// AllModels lists every persisted model in migration order.
func AllModels() []any {
	return []any{
		&Student{},
		&Exam{},
		&ExamSubmission{},
		&Document{},
		&Game{},
		&Notebook{},
		&TeacherSettings{},
	}
}
