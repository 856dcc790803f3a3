package services

import (
	"testing"

	"learnhub/backend/models"
	"learnhub/backend/testutil"
	"learnhub/backend/utils"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type fixture struct {
	db         *gorm.DB
	svc        *Services
	instructor *models.User
	admin      *models.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewDB(t)
	svc := New(db, utils.NopLogger())
	svc.Credentials = svc.Credentials.WithCost(bcrypt.MinCost)
	return &fixture{
		db:         db,
		svc:        svc,
		instructor: testutil.SeedUser(t, db, "tutor", models.RoleInstructor),
		admin:      testutil.SeedUser(t, db, "admin", models.RoleAdmin),
	}
}

func (f *fixture) student(t *testing.T, name string) *models.User {
	t.Helper()
	return testutil.SeedUser(t, f.db, name, models.RoleStudent)
}

func (f *fixture) course(t *testing.T, lessonCounts ...int) *models.Course {
	t.Helper()
	return testutil.SeedCourse(t, f.db, f.instructor.ID, "Go Basics", lessonCounts...)
}
