package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tutorplatform/lesson_service/events"
	"github.com/tutorplatform/lesson_service/models"
)

type listStore struct {
	lessons []models.Lesson
}

func (s *listStore) ByID(context.Context, uint) (*models.Lesson, error) { return nil, nil }
func (s *listStore) Save(context.Context, *models.Lesson) error         { return nil }
func (s *listStore) ListAll(context.Context) ([]models.Lesson, error)   { return s.lessons, nil }

type capturePublisher struct {
	sent []events.NotificationEvent
}

func (p *capturePublisher) PublishJSON(_ context.Context, queue string, v any) error {
	if queue == events.NotificationQueue {
		p.sent = append(p.sent, v.(events.NotificationEvent))
	}
	return nil
}

func TestReminderJobPicksUpcomingScheduledLessons(t *testing.T) {
	now := time.Now()
	url := "https://meet.example.com/lesson-1"
	store := &listStore{lessons: []models.Lesson{
		{ID: 1, Status: models.LessonScheduled, ScheduledTime: now.Add(62 * time.Minute), DurationMinutes: 60, SubjectID: 3, MeetingURL: &url},
		{ID: 2, Status: models.LessonScheduled, ScheduledTime: now.Add(3 * time.Hour), DurationMinutes: 60},
		{ID: 3, Status: models.LessonCancelled, ScheduledTime: now.Add(62 * time.Minute), DurationMinutes: 60},
		{ID: 4, Status: models.LessonInProgress, ScheduledTime: now.Add(62 * time.Minute), DurationMinutes: 60},
	}}
	pub := &capturePublisher{}

	NewReminderJob(store, pub).Run()

	require.Len(t, pub.sent, 1)
	note := pub.sent[0]
	assert.Equal(t, events.TemplateLessonReminder, note.TemplateID)
	assert.Equal(t, uint(1), note.Parameters["lesson_id"])
	assert.Equal(t, url, note.Parameters["meeting_url"])
}
