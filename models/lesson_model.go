package models

import (
	"time"
)

type LessonStatus string

const (
	LessonScheduled  LessonStatus = "SCHEDULED"
	LessonInProgress LessonStatus = "IN_PROGRESS"
	LessonCompleted  LessonStatus = "COMPLETED"
	LessonCancelled  LessonStatus = "CANCELLED"
)

// ParseLessonStatus accepts only the closed set of lesson states.
func ParseLessonStatus(s string) (LessonStatus, bool) {
	switch LessonStatus(s) {
	case LessonScheduled, LessonInProgress, LessonCompleted, LessonCancelled:
		return LessonStatus(s), true
	}
	return "", false
}

type Lesson struct {
	ID              uint         `gorm:"primaryKey" json:"id"`
	StudentID       uint64       `gorm:"not null;index" json:"student_id"`
	TutorID         uint64       `gorm:"not null;index" json:"tutor_id"`
	SubjectID       uint64       `gorm:"not null" json:"subject_id"`
	ScheduledTime   time.Time    `gorm:"not null;index" json:"scheduled_time"`
	DurationMinutes int          `gorm:"not null" json:"duration_minutes"`
	Price           float64      `gorm:"type:numeric(10,2);not null" json:"price"`
	Status          LessonStatus `gorm:"size:20;not null;default:'SCHEDULED';index" json:"status"`
	MeetingURL      *string      `gorm:"size:255" json:"meeting_url,omitempty"`

	// Version is the optimistic-lock token; a save with a stale version fails.
	Version int `gorm:"not null;default:1" json:"-"`

	// Timestamps are owned by the orchestrator, not by gorm's auto-tracking.
	CreatedAt   time.Time  `gorm:"autoCreateTime:false" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime:false" json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}
