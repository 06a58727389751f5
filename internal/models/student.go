package models

import (
	"time"

	"gorm.io/gorm"
)

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

// Student is a roster entry owned by a teacher. UserID links it to a login
// account once the student has one.
type Student struct {
	ID          uint       `json:"id" gorm:"primaryKey"`
	TeacherID   string     `json:"teacherId" gorm:"not null;size:255;index;uniqueIndex:idx_teacher_student_code"`
	UserID      *string    `json:"userId,omitempty" gorm:"size:255;index"`
	StudentCode string     `json:"studentCode" gorm:"not null;size:50;uniqueIndex:idx_teacher_student_code"`
	FullName    string     `json:"fullName" gorm:"not null;size:150"`
	ClassName   string     `json:"className" gorm:"size:50;index"`
	Email       string     `json:"email,omitempty" gorm:"size:255"`
	Phone       string     `json:"phone,omitempty" gorm:"size:30"`
	DateOfBirth *time.Time `json:"dateOfBirth,omitempty"`
	Gender      Gender     `json:"gender,omitempty" gorm:"size:10"`
	Notes       string     `json:"notes,omitempty" gorm:"type:text"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (Student) TableName() string {
	return "students"
}
