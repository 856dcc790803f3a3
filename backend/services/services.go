// Package services holds the domain operations behind the HTTP controllers. Every
// operation that touches more than one row runs inside a single GORM transaction.
package services

import (
	"errors"

	"learnhub/backend/apperr"
	"learnhub/backend/models"
	"learnhub/backend/utils"

	"gorm.io/gorm"
)

// Services bundles the domain components wired against one database.
type Services struct {
	Credentials *CredentialStore
	Catalog     *Catalog
	Coordinator *Coordinator
	Tracker     *Tracker
	Board       *Board
	Files       *FileIndex
}

func New(db *gorm.DB, log *utils.Logger) *Services {
	tracker := NewTracker(db, log)
	return &Services{
		Credentials: NewCredentialStore(db, log),
		Catalog:     NewCatalog(db, log, tracker),
		Coordinator: NewCoordinator(db, log),
		Tracker:     tracker,
		Board:       NewBoard(db, log),
		Files:       NewFileIndex(db, log),
	}
}

func storageErr(message string, err error) error {
	return apperr.Wrap(apperr.Unexpected, message, err)
}

func findCourse(tx *gorm.DB, id uint) (*models.Course, error) {
	var course models.Course
	if err := tx.First(&course, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.NotFound, "Course not found")
		}
		return nil, storageErr("Could not load course", err)
	}
	return &course, nil
}

// loadStructure loads a course with its modules and lessons in positional order.
func loadStructure(tx *gorm.DB, id uint) (*models.Course, error) {
	var course models.Course
	err := orderedStructure(tx).First(&course, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.NotFound, "Course not found")
		}
		return nil, storageErr("Could not load course", err)
	}
	return &course, nil
}

func isEnrolled(tx *gorm.DB, userID, courseID uint) (bool, error) {
	var n int64
	err := tx.Model(&models.Enrollment{}).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Count(&n).Error
	if err != nil {
		return false, storageErr("Could not check enrollment", err)
	}
	return n > 0, nil
}

// canManage reports whether caller owns the course or is an admin.
func canManage(caller *models.User, course *models.Course) bool {
	return caller != nil && (caller.IsAdmin() || caller.ID == course.InstructorID)
}

func userSummaries(tx *gorm.DB, ids []uint) (map[uint]models.UserSummary, error) {
	out := make(map[uint]models.UserSummary, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var users []models.User
	if err := tx.Select("id", "name", "avatar").Where("id IN ?", uniqueIDs(ids)).Find(&users).Error; err != nil {
		return nil, storageErr("Could not load users", err)
	}
	for i := range users {
		out[users[i].ID] = users[i].Summary()
	}
	return out, nil
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func summaryPtr(m map[uint]models.UserSummary, id uint) *models.UserSummary {
	if s, ok := m[id]; ok {
		return &s
	}
	return nil
}

// refreshRatingStats recomputes the cached average rating and review count of a course.
func refreshRatingStats(tx *gorm.DB, courseID uint) error {
	var stats struct {
		Avg float64
		N   int64
	}
	err := tx.Model(&models.Rating{}).
		Select("COALESCE(AVG(rating), 0) AS avg, COUNT(*) AS n").
		Where("course_id = ?", courseID).
		Scan(&stats).Error
	if err != nil {
		return storageErr("Could not compute ratings", err)
	}
	err = tx.Model(&models.Course{}).Where("id = ?", courseID).Updates(map[string]interface{}{
		"average_rating": stats.Avg,
		"num_reviews":    stats.N,
	}).Error
	if err != nil {
		return storageErr("Could not update ratings", err)
	}
	return nil
}
