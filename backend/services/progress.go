package services

import (
	"context"
	"errors"
	"sort"
	"time"

	"learnhub/backend/models"
	"learnhub/backend/utils"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Tracker computes and persists per-user course progress.
type Tracker struct {
	db  *gorm.DB
	log *utils.Logger
	now func() time.Time
}

func NewTracker(db *gorm.DB, log *utils.Logger) *Tracker {
	return &Tracker{db: db, log: log.With("service", "progress"), now: func() time.Time { return time.Now().UTC() }}
}

// ProgressUpdate is the client-reported learning position.
type ProgressUpdate struct {
	CurrentModule    int                      `json:"currentModule" validate:"gte=0"`
	CurrentLesson    int                      `json:"currentLesson" validate:"gte=0"`
	CompletedLessons []models.CompletedLesson `json:"completedLessons" validate:"dive"`
}

// CompletionRate is 100 * completed / total, clamped to [0, 100]. A course without
// lessons is always 0%.
func CompletionRate(completed, total int) float64 {
	if total <= 0 || completed <= 0 {
		return 0
	}
	rate := 100 * float64(completed) / float64(total)
	if rate > 100 {
		return 100
	}
	return rate
}

// GetOrCreate returns the stored progress of the pair, creating a zeroed one when absent.
// created reports whether a new row was written.
func (t *Tracker) GetOrCreate(ctx context.Context, userID, courseID uint) (progress *models.Progress, created bool, err error) {
	err = t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := findCourse(tx, courseID); err != nil {
			return err
		}
		var existing models.Progress
		err := tx.Where("user_id = ? AND course_id = ?", userID, courseID).First(&existing).Error
		if err == nil {
			progress = &existing
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return storageErr("Could not load progress", err)
		}

		fresh := models.Progress{
			UserID:           userID,
			CourseID:         courseID,
			CompletedLessons: datatypes.JSONSlice[models.CompletedLesson]{},
			LastUpdated:      t.now(),
		}
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&fresh)
		if res.Error != nil {
			return storageErr("Could not create progress", res.Error)
		}
		created = res.RowsAffected > 0
		if err := tx.Where("user_id = ? AND course_id = ?", userID, courseID).First(&fresh).Error; err != nil {
			return storageErr("Could not reload progress", err)
		}
		progress = &fresh
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return progress, created, nil
}

// Update recomputes the completion rate against the current course structure and upserts
// the record. Repeating a call with the same input leaves the stored state unchanged.
func (t *Tracker) Update(ctx context.Context, userID, courseID uint, upd ProgressUpdate) (*models.Progress, error) {
	var progress models.Progress
	err := t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		course, err := loadStructure(tx, courseID)
		if err != nil {
			return err
		}

		var previous []models.CompletedLesson
		var existing models.Progress
		err = tx.Where("user_id = ? AND course_id = ?", userID, courseID).First(&existing).Error
		switch {
		case err == nil:
			previous = existing.CompletedLessons
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return storageErr("Could not load progress", err)
		}

		now := t.now()
		completed := normalizeCompleted(course, upd.CompletedLessons, previous, now)
		progress = models.Progress{
			UserID:           userID,
			CourseID:         courseID,
			CurrentModule:    upd.CurrentModule,
			CurrentLesson:    upd.CurrentLesson,
			CompletedLessons: completed,
			CompletionRate:   CompletionRate(len(completed), course.TotalLessons()),
			LastUpdated:      now,
		}
		return upsertProgress(tx, &progress)
	})
	if err != nil {
		return nil, err
	}
	t.log.Debug("progress updated",
		"user_id", userID,
		"course_id", courseID,
		"completion_rate", progress.CompletionRate,
	)
	return &progress, nil
}

// List returns all progress records of the user with their course, most recent first.
func (t *Tracker) List(ctx context.Context, userID uint) ([]models.Progress, error) {
	var records []models.Progress
	err := t.db.WithContext(ctx).
		Preload("Course").
		Where("user_id = ?", userID).
		Order("last_updated DESC").
		Find(&records).Error
	if err != nil {
		return nil, storageErr("Could not load learning records", err)
	}
	return records, nil
}

// Recompute re-derives completed sets and cached rates for every record of a course.
// It must run in the transaction that changed the course structure.
func (t *Tracker) Recompute(tx *gorm.DB, courseID uint) error {
	course, err := loadStructure(tx, courseID)
	if err != nil {
		return err
	}
	var records []models.Progress
	if err := tx.Where("course_id = ?", courseID).Find(&records).Error; err != nil {
		return storageErr("Could not load progress", err)
	}
	total := course.TotalLessons()
	for i := range records {
		p := &records[i]
		completed := normalizeCompleted(course, p.CompletedLessons, p.CompletedLessons, t.now())
		err := tx.Model(&models.Progress{}).Where("id = ?", p.ID).Updates(map[string]interface{}{
			"completed_lessons": completed,
			"completion_rate":   CompletionRate(len(completed), total),
		}).Error
		if err != nil {
			return storageErr("Could not update progress", err)
		}
	}
	if len(records) > 0 {
		t.log.Info("progress recomputed", "course_id", courseID, "records", len(records))
	}
	return nil
}

type lessonKey struct{ module, lesson int }

// normalizeCompleted turns the reported entries into a sorted set of lessons that exist in
// course. Entries without a timestamp keep the previously stored one, else now.
func normalizeCompleted(course *models.Course, reported, previous []models.CompletedLesson, now time.Time) datatypes.JSONSlice[models.CompletedLesson] {
	stamps := make(map[lessonKey]time.Time, len(previous))
	for _, p := range previous {
		stamps[lessonKey{p.ModuleIndex, p.LessonIndex}] = p.CompletedAt
	}

	seen := make(map[lessonKey]struct{}, len(reported))
	out := make(datatypes.JSONSlice[models.CompletedLesson], 0, len(reported))
	for _, r := range reported {
		key := lessonKey{r.ModuleIndex, r.LessonIndex}
		if _, dup := seen[key]; dup || !course.HasLesson(r.ModuleIndex, r.LessonIndex) {
			continue
		}
		seen[key] = struct{}{}

		at := r.CompletedAt
		if at.IsZero() {
			at = stamps[key]
		}
		if at.IsZero() {
			at = now
		}
		out = append(out, models.CompletedLesson{ModuleIndex: r.ModuleIndex, LessonIndex: r.LessonIndex, CompletedAt: at.UTC()})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].ModuleIndex != out[j].ModuleIndex {
			return out[i].ModuleIndex < out[j].ModuleIndex
		}
		return out[i].LessonIndex < out[j].LessonIndex
	})
	return out
}
