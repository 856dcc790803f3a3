package services

import (
	"context"
	"time"

	"learnhub/backend/apperr"
	"learnhub/backend/models"
)

// Analytics summarizes the progress of every student of a course for its instructor.
func (cat *Catalog) Analytics(ctx context.Context, caller *models.User, courseID uint) (*models.CourseAnalytics, error) {
	db := cat.db.WithContext(ctx)
	course, err := findCourse(db, courseID)
	if err != nil {
		return nil, err
	}
	if !canManage(caller, course) {
		return nil, apperr.New(apperr.PermissionDenied, "Only the course instructor or an admin can view analytics")
	}

	out := &models.CourseAnalytics{CourseID: courseID, Students: []models.StudentProgress{}}
	if err := db.Model(&models.Enrollment{}).Where("course_id = ?", courseID).Count(&out.TotalEnrollments).Error; err != nil {
		return nil, storageErr("Could not count enrollments", err)
	}

	var records []models.Progress
	if err := db.Where("course_id = ?", courseID).Order("completion_rate DESC").Order("user_id ASC").Find(&records).Error; err != nil {
		return nil, storageErr("Could not load progress", err)
	}
	ids := make([]uint, 0, len(records))
	for i := range records {
		ids = append(ids, records[i].UserID)
	}
	names, err := userSummaries(db, ids)
	if err != nil {
		return nil, err
	}

	var sum float64
	for _, p := range records {
		sum += p.CompletionRate
		if p.CompletionRate >= 100 {
			out.Completed++
		}
		out.Students = append(out.Students, models.StudentProgress{
			UserID:         p.UserID,
			Name:           names[p.UserID].Name,
			LessonsDone:    len(p.CompletedLessons),
			CompletionRate: p.CompletionRate,
			LastUpdated:    p.LastUpdated,
		})
	}
	if len(records) > 0 {
		out.AvgCompletionRate = sum / float64(len(records))
	}
	return out, nil
}

// Platform reports catalog-wide counters for administrators.
func (cat *Catalog) Platform(ctx context.Context) (*models.PlatformAnalytics, error) {
	db := cat.db.WithContext(ctx)
	out := &models.PlatformAnalytics{PopularCourses: []models.CoursePopularity{}}

	counts := []struct {
		dst   *int64
		model interface{}
		query string
		args  []interface{}
	}{
		{&out.TotalUsers, &models.User{}, "", nil},
		{&out.NewUsers, &models.User{}, "created_at > ?", []interface{}{time.Now().AddDate(0, 0, -7)}},
		{&out.TotalCourses, &models.Course{}, "", nil},
		{&out.TotalEnrollments, &models.Enrollment{}, "", nil},
		{&out.TotalDiscussions, &models.Discussion{}, "", nil},
	}
	for _, c := range counts {
		q := db.Model(c.model)
		if c.query != "" {
			q = q.Where(c.query, c.args...)
		}
		if err := q.Count(c.dst).Error; err != nil {
			return nil, storageErr("Could not compute platform metrics", err)
		}
	}

	var avg struct{ Avg float64 }
	if err := db.Model(&models.Progress{}).Select("COALESCE(AVG(completion_rate), 0) AS avg").Scan(&avg).Error; err != nil {
		return nil, storageErr("Could not compute platform metrics", err)
	}
	out.AvgCompletionRate = avg.Avg

	err := db.Table("courses").
		Select("courses.id AS course_id, courses.title, COUNT(progress.id) AS enrollments, COALESCE(AVG(progress.completion_rate), 0) AS avg_completion").
		Joins("LEFT JOIN progress ON progress.course_id = courses.id").
		Group("courses.id, courses.title").
		Order("enrollments DESC").Order("courses.id ASC").
		Limit(5).
		Scan(&out.PopularCourses).Error
	if err != nil {
		return nil, storageErr("Could not compute popular courses", err)
	}
	return out, nil
}
