// Package testutil provides an in-memory database and fixtures for package tests.
package testutil

import (
	"fmt"
	"testing"

	"learnhub/backend/models"
	"learnhub/backend/utils"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const Password = "password123"

// NewDB returns a migrated in-memory SQLite database private to the test.
func NewDB(tb testing.TB) *gorm.DB {
	tb.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		tb.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		tb.Fatalf("sqlite handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	tb.Cleanup(func() { _ = sqlDB.Close() })

	if err := utils.Migrate(db); err != nil {
		tb.Fatalf("migrate: %v", err)
	}
	return db
}

func SeedUser(tb testing.TB, db *gorm.DB, name, role string) *models.User {
	tb.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(Password), bcrypt.MinCost)
	if err != nil {
		tb.Fatalf("hash password: %v", err)
	}
	u := &models.User{
		Name:         name,
		Email:        name + "@example.com",
		PasswordHash: string(hash),
		Role:         role,
	}
	if err := db.Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

// SeedCourse creates a course owned by instructorID whose modules hold the given lesson counts.
func SeedCourse(tb testing.TB, db *gorm.DB, instructorID uint, title string, lessonCounts ...int) *models.Course {
	tb.Helper()
	course := &models.Course{
		Title:        title,
		Description:  title + " description",
		InstructorID: instructorID,
		Category:     "programming",
		Level:        models.LevelBeginner,
	}
	for mi, n := range lessonCounts {
		module := models.Module{Position: mi, Title: fmt.Sprintf("Module %d", mi+1), Order: mi + 1}
		for li := 0; li < n; li++ {
			module.Lessons = append(module.Lessons, models.Lesson{
				Position: li,
				Title:    fmt.Sprintf("Lesson %d.%d", mi+1, li+1),
				Duration: 10,
				Order:    li + 1,
			})
		}
		course.Modules = append(course.Modules, module)
	}
	if err := db.Create(course).Error; err != nil {
		tb.Fatalf("seed course: %v", err)
	}
	return course
}

func SeedEnrollment(tb testing.TB, db *gorm.DB, userID, courseID uint) {
	tb.Helper()
	if err := db.Create(&models.Enrollment{UserID: userID, CourseID: courseID}).Error; err != nil {
		tb.Fatalf("seed enrollment: %v", err)
	}
	if err := db.Create(&models.Progress{UserID: userID, CourseID: courseID}).Error; err != nil {
		tb.Fatalf("seed progress: %v", err)
	}
}

func Count(tb testing.TB, db *gorm.DB, model interface{}, query string, args ...interface{}) int64 {
	tb.Helper()
	var n int64
	q := db.Model(model)
	if query != "" {
		q = q.Where(query, args...)
	}
	if err := q.Count(&n).Error; err != nil {
		tb.Fatalf("count: %v", err)
	}
	return n
}
