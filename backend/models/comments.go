package models

import "time"

type Discussion struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CourseID  uint      `gorm:"index;not null" json:"courseId"`
	UserID    uint      `gorm:"index;not null" json:"userId"`
	Title     string    `gorm:"not null" json:"title"`
	Content   string    `gorm:"not null" json:"content"`
	Views     int       `gorm:"not null;default:0" json:"views"`
	IsSticky  bool      `gorm:"not null;default:false" json:"isSticky"`
	IsLocked  bool      `gorm:"not null;default:false" json:"isLocked"`
	Comments  []Comment `gorm:"constraint:OnDelete:CASCADE" json:"comments,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Comment struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	DiscussionID uint      `gorm:"index;not null" json:"discussionId"`
	UserID       uint      `gorm:"index;not null" json:"userId"`
	Content      string    `gorm:"not null" json:"content"`
	CreatedAt    time.Time `json:"createdAt"`
}

type DiscussionLike struct {
	DiscussionID uint      `gorm:"primaryKey" json:"discussionId"`
	UserID       uint      `gorm:"primaryKey" json:"userId"`
	CreatedAt    time.Time `json:"createdAt"`
}

type CommentLike struct {
	CommentID uint      `gorm:"primaryKey" json:"commentId"`
	UserID    uint      `gorm:"primaryKey" json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
}
