package events

import (
	"encoding/json"
	"fmt"
	"time"
)

// Queue names shared with the downstream consumers. The broker owns
// durability; we only declare intent.
const (
	PaymentQueue      = "payment.queue"
	NotificationQueue = "notification.queue"
	IntegrationQueue  = "integration.queue"
	DeadLetterQueue   = "dead.letter.queue"
)

// Notification template ids, one per lesson transition.
const (
	TemplateLessonCreated   = "LESSON_CREATED"
	TemplateLessonUpdated   = "LESSON_UPDATED"
	TemplateLessonCompleted = "LESSON_COMPLETED"
	TemplateLessonCancelled = "LESSON_CANCELLED"
	TemplateLessonReminder  = "LESSON_REMINDER"
)

// Payment statuses as the payment consumer understands them.
const (
	PaymentPending    = "PENDING"
	PaymentProcessing = "PROCESSING"
	PaymentCompleted  = "COMPLETED"
	PaymentFailed     = "FAILED"
	PaymentRefunded   = "REFUNDED"
)

type PaymentEvent struct {
	EventID       string    `json:"event_id"`
	LessonID      uint      `json:"lesson_id"`
	StudentID     uint64    `json:"student_id"`
	TutorID       uint64    `json:"tutor_id"`
	Amount        float64   `json:"amount"`
	Currency      string    `json:"currency"`
	Status        string    `json:"status"`
	EventTime     time.Time `json:"event_time"`
	PaymentMethod string    `json:"payment_method"`
}

// NotificationEvent leaves Recipient empty; the notification consumer
// resolves it from the lesson_id parameter.
type NotificationEvent struct {
	EventID    string         `json:"event_id"`
	Type       string         `json:"type"` // EMAIL, SMS, PUSH
	Recipient  string         `json:"recipient,omitempty"`
	TemplateID string         `json:"template_id"`
	Parameters map[string]any `json:"parameters"`
	EventTime  time.Time      `json:"event_time"`
}

// IntegrationEvent is carried on integration.queue by external triggers
// (1C, CRM, ERP syncs). The lesson service never publishes it; the shape is
// kept here so every producer and consumer agrees on it.
type IntegrationEvent struct {
	OperationID   string    `json:"operation_id"`
	SystemName    string    `json:"system_name"`
	OperationType string    `json:"operation_type"`
	Payload       any       `json:"payload"`
	Timestamp     time.Time `json:"timestamp"`
}

func MustUnmarshal[T any](b []byte) (T, error) {
	var t T
	if err := json.Unmarshal(b, &t); err != nil {
		var zero T
		return zero, fmt.Errorf("decode payload failed: %w", err)
	}
	return t, nil
}
