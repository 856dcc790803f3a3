package services

import (
	"context"
	"errors"
	"time"

	"learnhub/backend/apperr"
	"learnhub/backend/models"
	"learnhub/backend/utils"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Coordinator keeps enrollments, rosters and progress records consistent.
type Coordinator struct {
	db  *gorm.DB
	log *utils.Logger
}

func NewCoordinator(db *gorm.DB, log *utils.Logger) *Coordinator {
	return &Coordinator{db: db, log: log.With("service", "enrollment")}
}

// Enroll adds the user to the course roster and starts a zeroed progress record.
func (co *Coordinator) Enroll(ctx context.Context, userID, courseID uint) (*models.Progress, error) {
	var progress models.Progress
	err := co.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := findCourse(tx, courseID); err != nil {
			return err
		}
		enrolled, err := isEnrolled(tx, userID, courseID)
		if err != nil {
			return err
		}
		if enrolled {
			return apperr.New(apperr.AlreadyEnrolled, "Already enrolled in this course")
		}

		// roster entry first; the unique index rejects a concurrent duplicate
		if err := tx.Create(&models.Enrollment{UserID: userID, CourseID: courseID}).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperr.New(apperr.AlreadyEnrolled, "Already enrolled in this course")
			}
			return storageErr("Could not enroll", err)
		}

		progress = models.Progress{
			UserID:           userID,
			CourseID:         courseID,
			CompletedLessons: datatypes.JSONSlice[models.CompletedLesson]{},
			LastUpdated:      time.Now().UTC(),
		}
		return upsertProgress(tx, &progress)
	})
	if err != nil {
		return nil, err
	}
	co.log.Info("user enrolled", "user_id", userID, "course_id", courseID)
	return &progress, nil
}

// Unenroll removes the roster entry and the progress record of the pair.
func (co *Coordinator) Unenroll(ctx context.Context, userID, courseID uint) error {
	err := co.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := findCourse(tx, courseID); err != nil {
			return err
		}
		res := tx.Where("user_id = ? AND course_id = ?", userID, courseID).Delete(&models.Enrollment{})
		if res.Error != nil {
			return storageErr("Could not unenroll", res.Error)
		}
		if res.RowsAffected == 0 {
			return apperr.New(apperr.NotEnrolled, "Not enrolled in this course")
		}
		if err := tx.Where("user_id = ? AND course_id = ?", userID, courseID).Delete(&models.Progress{}).Error; err != nil {
			return storageErr("Could not remove progress", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	co.log.Info("user unenrolled", "user_id", userID, "course_id", courseID)
	return nil
}

// CourseDeletion summarizes what a course cascade removed.
type CourseDeletion struct {
	CourseID           uint  `json:"courseId"`
	ProgressRemoved    int64 `json:"progressRemoved"`
	EnrollmentsRemoved int64 `json:"enrollmentsRemoved"`
	// UsersDetached counts enrolled students plus the owning instructor.
	UsersDetached int64 `json:"usersDetached"`
}

// DeleteCourse removes a course and everything that depends on it. Only the owning
// instructor or an admin may do this.
func (co *Coordinator) DeleteCourse(ctx context.Context, caller *models.User, courseID uint) (*CourseDeletion, error) {
	out := &CourseDeletion{CourseID: courseID}
	err := co.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		course, err := findCourse(tx, courseID)
		if err != nil {
			return err
		}
		if !canManage(caller, course) {
			return apperr.New(apperr.PermissionDenied, "Only the course instructor or an admin can delete this course")
		}

		res := tx.Where("course_id = ?", courseID).Delete(&models.Progress{})
		if res.Error != nil {
			return storageErr("Could not remove progress", res.Error)
		}
		out.ProgressRemoved = res.RowsAffected

		res = tx.Where("course_id = ?", courseID).Delete(&models.Enrollment{})
		if res.Error != nil {
			return storageErr("Could not remove enrollments", res.Error)
		}
		out.EnrollmentsRemoved = res.RowsAffected
		out.UsersDetached = res.RowsAffected + 1

		if err := tx.Where("course_id = ?", courseID).Delete(&models.Rating{}).Error; err != nil {
			return storageErr("Could not remove ratings", err)
		}
		if err := deleteDiscussions(tx, tx.Model(&models.Discussion{}).Select("id").Where("course_id = ?", courseID)); err != nil {
			return err
		}
		modules := tx.Model(&models.Module{}).Select("id").Where("course_id = ?", courseID)
		if err := tx.Where("module_id IN (?)", modules).Delete(&models.Lesson{}).Error; err != nil {
			return storageErr("Could not remove lessons", err)
		}
		if err := tx.Where("course_id = ?", courseID).Delete(&models.Module{}).Error; err != nil {
			return storageErr("Could not remove modules", err)
		}
		if err := tx.Delete(&models.Course{}, courseID).Error; err != nil {
			return storageErr("Could not delete course", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	co.log.Info("course deleted",
		"course_id", courseID,
		"by", caller.ID,
		"progress_removed", out.ProgressRemoved,
		"users_detached", out.UsersDetached,
	)
	return out, nil
}

// DeleteUser removes the user from every roster, drops their progress, ratings and likes,
// then deletes the account. Users that still own courses are rejected.
func (co *Coordinator) DeleteUser(ctx context.Context, userID uint) error {
	err := co.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.New(apperr.NotFound, "User not found")
			}
			return storageErr("Could not load user", err)
		}

		var owned int64
		if err := tx.Model(&models.Course{}).Where("instructor_id = ?", userID).Count(&owned).Error; err != nil {
			return storageErr("Could not check owned courses", err)
		}
		if owned > 0 {
			return apperr.New(apperr.ValidationFailed, "User still owns courses; delete or reassign them first")
		}

		var rated []uint
		if err := tx.Model(&models.Rating{}).Where("user_id = ?", userID).Pluck("course_id", &rated).Error; err != nil {
			return storageErr("Could not load ratings", err)
		}

		for _, m := range []interface{}{
			&models.Enrollment{},
			&models.Progress{},
			&models.Rating{},
			&models.DiscussionLike{},
			&models.CommentLike{},
		} {
			if err := tx.Where("user_id = ?", userID).Delete(m).Error; err != nil {
				return storageErr("Could not remove user data", err)
			}
		}
		for _, courseID := range rated {
			if err := refreshRatingStats(tx, courseID); err != nil {
				return err
			}
		}
		if err := tx.Delete(&user).Error; err != nil {
			return storageErr("Could not delete user", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	co.log.Info("user deleted", "user_id", userID)
	return nil
}

// upsertProgress writes p keyed by (user, course) and reloads the stored row into p.
func upsertProgress(tx *gorm.DB, p *models.Progress) error {
	err := tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "course_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"current_module", "current_lesson", "completed_lessons", "completion_rate", "last_updated",
		}),
	}).Create(p).Error
	if err != nil {
		return storageErr("Could not save progress", err)
	}
	if err := tx.Where("user_id = ? AND course_id = ?", p.UserID, p.CourseID).First(p).Error; err != nil {
		return storageErr("Could not reload progress", err)
	}
	return nil
}

// deleteDiscussions removes the discussions selected by ids together with comments and likes.
func deleteDiscussions(tx *gorm.DB, ids *gorm.DB) error {
	comments := tx.Model(&models.Comment{}).Select("id").Where("discussion_id IN (?)", ids)
	if err := tx.Where("comment_id IN (?)", comments).Delete(&models.CommentLike{}).Error; err != nil {
		return storageErr("Could not remove comment likes", err)
	}
	if err := tx.Where("discussion_id IN (?)", ids).Delete(&models.Comment{}).Error; err != nil {
		return storageErr("Could not remove comments", err)
	}
	if err := tx.Where("discussion_id IN (?)", ids).Delete(&models.DiscussionLike{}).Error; err != nil {
		return storageErr("Could not remove likes", err)
	}
	if err := tx.Where("id IN (?)", ids).Delete(&models.Discussion{}).Error; err != nil {
		return storageErr("Could not remove discussions", err)
	}
	return nil
}
