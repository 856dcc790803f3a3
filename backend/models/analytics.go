package models

import "time"

// CourseAnalytics is computed on request from enrollments and progress rows. Not persisted.
type CourseAnalytics struct {
	CourseID          uint              `json:"courseId"`
	TotalEnrollments  int64             `json:"totalEnrollments"`
	Completed         int64             `json:"completed"`
	AvgCompletionRate float64           `json:"avgCompletionRate"`
	Students          []StudentProgress `json:"students"`
}

type StudentProgress struct {
	UserID         uint      `json:"userId"`
	Name           string    `json:"name"`
	LessonsDone    int       `json:"lessonsCompleted"`
	CompletionRate float64   `json:"completionRate"`
	LastUpdated    time.Time `json:"lastUpdated"`
}

type PlatformAnalytics struct {
	TotalUsers        int64              `json:"totalUsers"`
	NewUsers          int64              `json:"newUsers"`
	TotalCourses      int64              `json:"totalCourses"`
	TotalEnrollments  int64              `json:"totalEnrollments"`
	TotalDiscussions  int64              `json:"totalDiscussions"`
	AvgCompletionRate float64            `json:"avgCompletionRate"`
	PopularCourses    []CoursePopularity `json:"popularCourses"`
}

type CoursePopularity struct {
	CourseID      uint    `json:"courseId"`
	Title         string  `json:"title"`
	Enrollments   int64   `json:"enrollments"`
	AvgCompletion float64 `json:"avgCompletion"`
}

// All lists every persisted model in migration order.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Course{},
		&Module{},
		&Lesson{},
		&Enrollment{},
		&Rating{},
		&Progress{},
		&Discussion{},
		&Comment{},
		&DiscussionLike{},
		&CommentLike{},
		&File{},
	}
}
