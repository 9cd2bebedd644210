package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/tutorplatform/lesson_service/models"
)

var (
	ErrNotFound     = errors.New("lesson not found")
	ErrStaleVersion = errors.New("lesson version is stale")
)

type LessonRepo struct{ db *gorm.DB }

func NewLessonRepo(db *gorm.DB) *LessonRepo {
	return &LessonRepo{db: db}
}

func (r *LessonRepo) ByID(ctx context.Context, id uint) (*models.Lesson, error) {
	var l models.Lesson
	if err := r.db.WithContext(ctx).First(&l, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &l, nil
}

// Save inserts a new lesson or updates an existing one. An update carries the
// version the caller read; a concurrent writer bumped it already, so a stale
// update touches zero rows and fails instead of silently overwriting.
func (r *LessonRepo) Save(ctx context.Context, l *models.Lesson) error {
	if l.ID == 0 {
		l.Version = 1
		return r.db.WithContext(ctx).Create(l).Error
	}

	readVersion := l.Version
	l.Version = readVersion + 1

	res := r.db.WithContext(ctx).Model(&models.Lesson{}).
		Where("id = ? AND version = ?", l.ID, readVersion).
		Select("*").Omit("id", "created_at").
		Updates(l)
	if res.Error != nil {
		l.Version = readVersion
		return res.Error
	}
	if res.RowsAffected == 0 {
		l.Version = readVersion
		return ErrStaleVersion
	}
	return nil
}

func (r *LessonRepo) ListAll(ctx context.Context) ([]models.Lesson, error) {
	var out []models.Lesson
	if err := r.db.WithContext(ctx).Order("scheduled_time asc").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
