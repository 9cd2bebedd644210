package jobs

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/tutorplatform/lesson_service/events"
	"github.com/tutorplatform/lesson_service/models"
	"github.com/tutorplatform/lesson_service/services"
)

// ReminderJob publishes a reminder notification for every scheduled lesson
// starting about an hour from now. It runs every five minutes and scans a
// five minute window so each lesson is picked up once.
type ReminderJob struct {
	store services.LessonStore
	pub   services.EventPublisher
}

func NewReminderJob(store services.LessonStore, pub services.EventPublisher) *ReminderJob {
	return &ReminderJob{store: store, pub: pub}
}

func (j *ReminderJob) Run() {
	log.Println("Running job: SendLessonReminders...")

	ctx := context.Background()
	now := time.Now()
	lowerBound := now.Add(60 * time.Minute)
	upperBound := now.Add(65 * time.Minute)

	lessons, err := j.store.ListAll(ctx)
	if err != nil {
		log.Printf("Error checking for upcoming lessons: %v", err)
		return
	}

	for _, lesson := range lessons {
		if lesson.Status != models.LessonScheduled {
			continue
		}
		if lesson.ScheduledTime.Before(lowerBound) || lesson.ScheduledTime.After(upperBound) {
			continue
		}

		log.Printf("Sending reminder for lesson ID: %d", lesson.ID)

		meetingURL := ""
		if lesson.MeetingURL != nil {
			meetingURL = *lesson.MeetingURL
		}
		event := events.NotificationEvent{
			EventID:    uuid.NewString(),
			Type:       "EMAIL",
			TemplateID: events.TemplateLessonReminder,
			Parameters: map[string]any{
				"lesson_id":   lesson.ID,
				"date":        lesson.ScheduledTime,
				"duration":    lesson.DurationMinutes,
				"subject":     lesson.SubjectID,
				"meeting_url": meetingURL,
			},
			EventTime: now,
		}
		if err := j.pub.PublishJSON(ctx, events.NotificationQueue, event); err != nil {
			log.Printf("Failed to publish reminder for lesson %d: %v", lesson.ID, err)
		}
	}
}
