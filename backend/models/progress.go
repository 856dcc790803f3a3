package models

import (
	"time"

	"gorm.io/datatypes"
)

// CompletedLesson addresses a lesson by its position in the course structure.
type CompletedLesson struct {
	ModuleIndex int       `json:"moduleIndex"`
	LessonIndex int       `json:"lessonIndex"`
	CompletedAt time.Time `json:"completedAt"`
}

type Progress struct {
	ID               uint                                 `gorm:"primaryKey" json:"id"`
	UserID           uint                                 `gorm:"not null;uniqueIndex:idx_progress_user_course" json:"userId"`
	CourseID         uint                                 `gorm:"not null;uniqueIndex:idx_progress_user_course;index" json:"courseId"`
	CurrentModule    int                                  `json:"currentModule"`
	CurrentLesson    int                                  `json:"currentLesson"`
	CompletedLessons datatypes.JSONSlice[CompletedLesson] `json:"completedLessons"`
	CompletionRate   float64                              `json:"completionRate"`
	LastUpdated      time.Time                            `json:"lastUpdated"`
	CreatedAt        time.Time                            `json:"createdAt"`
	Course           *Course                              `gorm:"foreignKey:CourseID" json:"course,omitempty"`
}

func (Progress) TableName() string { return "progress" }
