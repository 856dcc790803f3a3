package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	LevelBeginner     = "beginner"
	LevelIntermediate = "intermediate"
	LevelAdvanced     = "advanced"
)

type Course struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Title         string    `gorm:"not null" json:"title"`
	Description   string    `gorm:"not null" json:"description"`
	InstructorID  uint      `gorm:"index;not null" json:"instructorId"`
	Category      string    `gorm:"index;not null" json:"category"`
	Level         string    `gorm:"index;not null;default:beginner" json:"level"`
	Price         float64   `gorm:"default:0" json:"price"`
	Thumbnail     string    `gorm:"default:default-course.png" json:"thumbnail"`
	AverageRating float64   `gorm:"default:0" json:"averageRating"`
	NumReviews    int       `gorm:"default:0" json:"numReviews"`
	Modules       []Module  `gorm:"constraint:OnDelete:CASCADE" json:"modules"`
	Ratings       []Rating  `gorm:"constraint:OnDelete:CASCADE" json:"ratings,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// TotalLessons sums lesson counts across all modules. Modules must be loaded.
func (c *Course) TotalLessons() int {
	total := 0
	for _, m := range c.Modules {
		total += len(m.Lessons)
	}
	return total
}

// HasLesson reports whether the positional address exists in the loaded structure.
func (c *Course) HasLesson(moduleIndex, lessonIndex int) bool {
	if moduleIndex < 0 || moduleIndex >= len(c.Modules) {
		return false
	}
	return lessonIndex >= 0 && lessonIndex < len(c.Modules[moduleIndex].Lessons)
}

type Module struct {
	ID          uint     `gorm:"primaryKey" json:"id"`
	CourseID    uint     `gorm:"index;not null" json:"-"`
	Position    int      `gorm:"not null" json:"-"`
	Title       string   `gorm:"not null" json:"title"`
	Description string   `json:"description"`
	Order       int      `json:"order"`
	Lessons     []Lesson `gorm:"constraint:OnDelete:CASCADE" json:"lessons"`
}

type Lesson struct {
	ID          uint                        `gorm:"primaryKey" json:"id"`
	ModuleID    uint                        `gorm:"index;not null" json:"-"`
	Position    int                         `gorm:"not null" json:"-"`
	Title       string                      `gorm:"not null" json:"title"`
	Description string                      `json:"description"`
	Content     string                      `json:"content"`
	VideoURL    string                      `json:"videoUrl"`
	Resources   datatypes.JSONSlice[string] `json:"resources"`
	Duration    int                         `json:"duration"`
	Order       int                         `json:"order"`
}

// Enrollment is the single source of truth for course rosters and a user's enrolled courses.
type Enrollment struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uint      `gorm:"not null;uniqueIndex:idx_enrollment_user_course" json:"userId"`
	CourseID   uint      `gorm:"not null;uniqueIndex:idx_enrollment_user_course;index" json:"courseId"`
	EnrolledAt time.Time `gorm:"autoCreateTime" json:"enrolledAt"`
}

type Rating struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CourseID  uint      `gorm:"not null;uniqueIndex:idx_rating_course_user" json:"courseId"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_rating_course_user" json:"userId"`
	Rating    int       `gorm:"not null;check:rating >= 1 AND rating <= 5" json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"createdAt"`
}

func ValidLevel(level string) bool {
	switch level {
	case LevelBeginner, LevelIntermediate, LevelAdvanced:
		return true
	}
	return false
}
