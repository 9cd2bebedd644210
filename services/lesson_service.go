package services

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/tutorplatform/lesson_service/events"
	"github.com/tutorplatform/lesson_service/models"
	"github.com/tutorplatform/lesson_service/repository"
)

const (
	minDurationMinutes = 15
	paymentCurrency    = "RUB"
	paymentMethod      = "PLATFORM"
)

// LessonStore is the persistence contract the orchestrator needs.
type LessonStore interface {
	ByID(ctx context.Context, id uint) (*models.Lesson, error)
	Save(ctx context.Context, l *models.Lesson) error
	ListAll(ctx context.Context) ([]models.Lesson, error)
}

// EventPublisher accepts a message for delivery and returns; it never waits
// for consumers.
type EventPublisher interface {
	PublishJSON(ctx context.Context, queue string, v any) error
}

// MeetingProvider provisions a join link. It never fails: a provider outage
// yields a placeholder link instead.
type MeetingProvider interface {
	CreateMeeting(ctx context.Context, lessonID uint, start time.Time, durationMinutes int) string
}

// Caller is the already-authenticated identity forwarded by the gateway.
type Caller struct {
	ID   uint64
	Role models.Role
}

type CreateLessonRequest struct {
	StudentID       uint64    `json:"student_id" validate:"required"`
	TutorID         uint64    `json:"tutor_id" validate:"required"`
	SubjectID       uint64    `json:"subject_id" validate:"required"`
	ScheduledTime   time.Time `json:"scheduled_time"`
	DurationMinutes int       `json:"duration_minutes" validate:"required"`
	Price           float64   `json:"price"`
}

// UpdateLessonRequest is a patch: nil fields keep their stored values.
type UpdateLessonRequest struct {
	ScheduledTime   *time.Time `json:"scheduled_time"`
	DurationMinutes *int       `json:"duration_minutes"`
	Price           *float64   `json:"price"`
	Status          *string    `json:"status"`
}

type ListLessonsFilter struct {
	StudentID *uint64
	TutorID   *uint64
	Status    *models.LessonStatus
	Date      *time.Time // matches the date portion of scheduled_time
}

// LessonService owns the lesson state machine and coordinates meeting
// provisioning and event fan-out.
type LessonService struct {
	store LessonStore
	pub   EventPublisher
	video MeetingProvider
}

func NewLessonService(store LessonStore, pub EventPublisher, video MeetingProvider) *LessonService {
	return &LessonService{store: store, pub: pub, video: video}
}

func (s *LessonService) Create(ctx context.Context, req CreateLessonRequest, caller Caller) (*models.Lesson, error) {
	if err := validateLessonTime(req.ScheduledTime); err != nil {
		return nil, err
	}
	if req.DurationMinutes < minDurationMinutes {
		return nil, invalidInput("duration must be at least %d minutes", minDurationMinutes)
	}
	if req.Price < 0 {
		return nil, invalidInput("price cannot be negative")
	}
	if req.StudentID == req.TutorID {
		return nil, invalidInput("student and tutor must be different users")
	}

	now := time.Now()
	lesson := &models.Lesson{
		StudentID:       req.StudentID,
		TutorID:         req.TutorID,
		SubjectID:       req.SubjectID,
		ScheduledTime:   req.ScheduledTime,
		DurationMinutes: req.DurationMinutes,
		Price:           req.Price,
		Status:          models.LessonScheduled,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.store.Save(ctx, lesson); err != nil {
		return nil, mapStoreErr(err)
	}

	// Provisioning never blocks creation: the provider falls back to a
	// placeholder link on any failure.
	meetingURL := s.video.CreateMeeting(ctx, lesson.ID, lesson.ScheduledTime, lesson.DurationMinutes)
	lesson.MeetingURL = &meetingURL
	if err := s.store.Save(ctx, lesson); err != nil {
		return nil, mapStoreErr(err)
	}

	s.sendNotification(ctx, events.TemplateLessonCreated, lesson)
	return lesson, nil
}

func (s *LessonService) Get(ctx context.Context, id uint, caller Caller) (*models.Lesson, error) {
	return s.findWithAuthorization(ctx, id, caller)
}

// List scans all lessons and applies the optional equality filters, then the
// visibility rule: non-admins only ever see their own lessons.
func (s *LessonService) List(ctx context.Context, filter ListLessonsFilter, caller Caller) ([]models.Lesson, error) {
	lessons, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]models.Lesson, 0, len(lessons))
	for _, l := range lessons {
		if filter.StudentID != nil && l.StudentID != *filter.StudentID {
			continue
		}
		if filter.TutorID != nil && l.TutorID != *filter.TutorID {
			continue
		}
		if filter.Status != nil && l.Status != *filter.Status {
			continue
		}
		if filter.Date != nil && !sameDate(l.ScheduledTime, *filter.Date) {
			continue
		}
		if !canAccess(&l, caller) {
			continue
		}
		out = append(out, l)
	}
	return out, nil
}

func (s *LessonService) Update(ctx context.Context, id uint, patch UpdateLessonRequest, caller Caller) (*models.Lesson, error) {
	lesson, err := s.findWithAuthorization(ctx, id, caller)
	if err != nil {
		return nil, err
	}

	if patch.ScheduledTime != nil {
		if err := validateLessonTime(*patch.ScheduledTime); err != nil {
			return nil, err
		}
		lesson.ScheduledTime = *patch.ScheduledTime
	}
	if patch.DurationMinutes != nil {
		if *patch.DurationMinutes < minDurationMinutes {
			return nil, invalidInput("duration must be at least %d minutes", minDurationMinutes)
		}
		lesson.DurationMinutes = *patch.DurationMinutes
	}
	if patch.Price != nil {
		if *patch.Price < 0 {
			return nil, invalidInput("price cannot be negative")
		}
		lesson.Price = *patch.Price
	}
	if patch.Status != nil {
		status, ok := models.ParseLessonStatus(*patch.Status)
		if !ok {
			return nil, invalidInput("unknown lesson status %q", *patch.Status)
		}
		lesson.Status = status
	}

	lesson.UpdatedAt = time.Now()
	if err := s.store.Save(ctx, lesson); err != nil {
		return nil, mapStoreErr(err)
	}

	s.sendNotification(ctx, events.TemplateLessonUpdated, lesson)
	return lesson, nil
}

// Complete moves an IN_PROGRESS lesson to COMPLETED and fans out the payment
// and notification events. Publishing is best-effort: the committed state
// change is never rolled back or failed because the broker was unreachable.
func (s *LessonService) Complete(ctx context.Context, id uint, caller Caller) (*models.Lesson, error) {
	lesson, err := s.findWithAuthorization(ctx, id, caller)
	if err != nil {
		return nil, err
	}

	if lesson.Status != models.LessonInProgress {
		return nil, ErrInvalidState
	}

	now := time.Now()
	lesson.Status = models.LessonCompleted
	lesson.CompletedAt = &now
	lesson.UpdatedAt = now
	if err := s.store.Save(ctx, lesson); err != nil {
		return nil, mapStoreErr(err)
	}

	s.sendPaymentEvent(ctx, lesson)
	s.sendNotification(ctx, events.TemplateLessonCompleted, lesson)
	return lesson, nil
}

// Cancel is unconditional and idempotent: it sets CANCELLED from any prior
// state, including COMPLETED.
func (s *LessonService) Cancel(ctx context.Context, id uint, reason string, caller Caller) (*models.Lesson, error) {
	lesson, err := s.findWithAuthorization(ctx, id, caller)
	if err != nil {
		return nil, err
	}

	lesson.Status = models.LessonCancelled
	lesson.UpdatedAt = time.Now()
	if err := s.store.Save(ctx, lesson); err != nil {
		return nil, mapStoreErr(err)
	}

	s.sendNotification(ctx, events.TemplateLessonCancelled, lesson)
	log.Printf("Lesson %d cancelled. Reason: %s", id, reason)
	return lesson, nil
}

// JoinURL returns the stored meeting link, provisioning one on demand when
// the lesson has none. A freshly provisioned link is persisted best-effort so
// repeated calls hand out the same URL.
func (s *LessonService) JoinURL(ctx context.Context, id uint, caller Caller) (string, error) {
	lesson, err := s.findWithAuthorization(ctx, id, caller)
	if err != nil {
		return "", err
	}

	if lesson.MeetingURL != nil && *lesson.MeetingURL != "" {
		return *lesson.MeetingURL, nil
	}

	meetingURL := s.video.CreateMeeting(ctx, lesson.ID, lesson.ScheduledTime, lesson.DurationMinutes)
	lesson.MeetingURL = &meetingURL
	lesson.UpdatedAt = time.Now()
	if err := s.store.Save(ctx, lesson); err != nil {
		log.Printf("Could not persist meeting link for lesson %d: %v", id, err)
	}
	return meetingURL, nil
}

func (s *LessonService) findWithAuthorization(ctx context.Context, id uint, caller Caller) (*models.Lesson, error) {
	lesson, err := s.store.ByID(ctx, id)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	if !canAccess(lesson, caller) {
		return nil, ErrForbidden
	}
	return lesson, nil
}

func (s *LessonService) sendPaymentEvent(ctx context.Context, lesson *models.Lesson) {
	event := events.PaymentEvent{
		EventID:       uuid.NewString(),
		LessonID:      lesson.ID,
		StudentID:     lesson.StudentID,
		TutorID:       lesson.TutorID,
		Amount:        lesson.Price,
		Currency:      paymentCurrency,
		Status:        events.PaymentPending,
		EventTime:     time.Now(),
		PaymentMethod: paymentMethod,
	}
	s.publish(ctx, events.PaymentQueue, event)
}

func (s *LessonService) sendNotification(ctx context.Context, templateID string, lesson *models.Lesson) {
	event := events.NotificationEvent{
		EventID:    uuid.NewString(),
		Type:       "EMAIL",
		TemplateID: templateID,
		Parameters: map[string]any{
			"lesson_id": lesson.ID,
			"date":      lesson.ScheduledTime,
			"duration":  lesson.DurationMinutes,
			"subject":   lesson.SubjectID,
		},
		EventTime: time.Now(),
	}
	s.publish(ctx, events.NotificationQueue, event)
}

func (s *LessonService) publish(ctx context.Context, queue string, v any) {
	if err := s.pub.PublishJSON(ctx, queue, v); err != nil {
		log.Printf("🔥 Failed to publish to %s: %v", queue, err)
	}
}

func validateLessonTime(t time.Time) error {
	if t.IsZero() {
		return invalidInput("lesson time is required")
	}
	if t.Before(time.Now()) {
		return invalidInput("lesson time cannot be in the past")
	}
	return nil
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func mapStoreErr(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, repository.ErrStaleVersion):
		return ErrConflict
	}
	return err
}
