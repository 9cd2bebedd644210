package services

import (
	"github.com/tutorplatform/lesson_service/models"
)

// canAccess is the single authorization rule for lessons: admins see
// everything, everyone else only lessons where they are the student or the
// tutor. Evaluated in-process on every read and write.
func canAccess(l *models.Lesson, caller Caller) bool {
	if caller.Role == models.RoleAdmin {
		return true
	}
	return l.StudentID == caller.ID || l.TutorID == caller.ID
}
