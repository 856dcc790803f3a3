package services

import (
	"context"
	"testing"

	"learnhub/backend/apperr"
	"learnhub/backend/models"
	"learnhub/backend/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndStore(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u := &models.User{Name: "Carol", Email: "  Carol@Example.com ", Role: models.RoleStudent}
	require.NoError(t, f.svc.Credentials.HashAndStore(ctx, u, "secret1"))
	assert.NotZero(t, u.ID)
	assert.Equal(t, "carol@example.com", u.Email)
	assert.NotEqual(t, "secret1", u.PasswordHash)

	dup := &models.User{Name: "Other", Email: "CAROL@example.com"}
	err := f.svc.Credentials.HashAndStore(ctx, dup, "secret2")
	assert.Equal(t, apperr.AlreadyExists, apperr.KindOf(err))

	err = f.svc.Credentials.HashAndStore(ctx, &models.User{Name: "n", Email: "n@example.com"}, "")
	assert.Equal(t, apperr.ValidationFailed, apperr.KindOf(err))
}

func TestVerify(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.student(t, "alice")

	got, err := f.svc.Credentials.Verify(ctx, "ALICE@example.com", testutil.Password)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, got.ID)

	_, err = f.svc.Credentials.Verify(ctx, alice.Email, "wrong")
	assert.Equal(t, apperr.Unauthenticated, apperr.KindOf(err))

	_, err = f.svc.Credentials.Verify(ctx, "nobody@example.com", testutil.Password)
	assert.Equal(t, apperr.Unauthenticated, apperr.KindOf(err))
}

func TestUpdateProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.student(t, "alice")

	u, err := f.svc.Credentials.Update(ctx, alice.ID, ProfileUpdate{Name: "Alice A.", Role: models.RoleAdmin}, false)
	require.NoError(t, err)
	assert.Equal(t, "Alice A.", u.Name)
	assert.Equal(t, models.RoleStudent, u.Role, "role ignored without permission")

	u, err = f.svc.Credentials.Update(ctx, alice.ID, ProfileUpdate{Role: models.RoleInstructor, Password: "newpass"}, true)
	require.NoError(t, err)
	assert.Equal(t, models.RoleInstructor, u.Role)

	_, err = f.svc.Credentials.Verify(ctx, alice.Email, "newpass")
	require.NoError(t, err)

	_, err = f.svc.Credentials.Update(ctx, alice.ID, ProfileUpdate{Email: f.admin.Email}, false)
	assert.Equal(t, apperr.AlreadyExists, apperr.KindOf(err))

	_, err = f.svc.Credentials.Update(ctx, 404, ProfileUpdate{Name: "x"}, false)
	assert.Equal(t, apperr.NotFound, apperr.KindOf(err))
}

func TestCourseIDs(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.student(t, "alice")
	taught := f.course(t, 1)
	other := testutil.SeedCourse(t, f.db, f.admin.ID, "Other", 1)
	testutil.SeedEnrollment(t, f.db, alice.ID, other.ID)
	testutil.SeedEnrollment(t, f.db, f.instructor.ID, other.ID)

	ids, err := f.svc.Credentials.CourseIDs(ctx, f.instructor.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{taught.ID, other.ID}, ids)

	ids, err = f.svc.Credentials.CourseIDs(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{other.ID}, ids)
}
