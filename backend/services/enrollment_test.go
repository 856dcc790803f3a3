package services

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"learnhub/backend/apperr"
	"learnhub/backend/models"
	"learnhub/backend/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnrollTwice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.student(t, "alice")
	course := f.course(t, 2, 3)

	p, err := f.svc.Coordinator.Enroll(ctx, alice.ID, course.ID)
	require.NoError(t, err)
	assert.Equal(t, 0.0, p.CompletionRate)
	assert.Empty(t, p.CompletedLessons)

	_, err = f.svc.Coordinator.Enroll(ctx, alice.ID, course.ID)
	require.Error(t, err)
	assert.Equal(t, apperr.AlreadyEnrolled, apperr.KindOf(err))

	assert.Equal(t, int64(1), testutil.Count(t, f.db, &models.Progress{}, "user_id = ? AND course_id = ?", alice.ID, course.ID))
	assert.Equal(t, int64(1), testutil.Count(t, f.db, &models.Enrollment{}, "user_id = ? AND course_id = ?", alice.ID, course.ID))
}

func TestEnrollConcurrent(t *testing.T) {
	f := newFixture(t)
	alice := f.student(t, "alice")
	course := f.course(t, 1)

	const attempts = 8
	var wg sync.WaitGroup
	errs := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Coordinator.Enroll(context.Background(), alice.ID, course.ID)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	succeeded := 0
	for err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.Equal(t, apperr.AlreadyEnrolled, apperr.KindOf(err))
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, int64(1), testutil.Count(t, f.db, &models.Progress{}, "user_id = ?", alice.ID))
}

func TestEnrollMissingCourse(t *testing.T) {
	f := newFixture(t)
	alice := f.student(t, "alice")

	_, err := f.svc.Coordinator.Enroll(context.Background(), alice.ID, 999)
	assert.Equal(t, apperr.NotFound, apperr.KindOf(err))
}

func TestUnenroll(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.student(t, "alice")
	course := f.course(t, 2)

	err := f.svc.Coordinator.Unenroll(ctx, alice.ID, course.ID)
	assert.Equal(t, apperr.NotEnrolled, apperr.KindOf(err))

	_, err = f.svc.Coordinator.Enroll(ctx, alice.ID, course.ID)
	require.NoError(t, err)
	require.NoError(t, f.svc.Coordinator.Unenroll(ctx, alice.ID, course.ID))

	assert.Zero(t, testutil.Count(t, f.db, &models.Enrollment{}, "user_id = ?", alice.ID))
	assert.Zero(t, testutil.Count(t, f.db, &models.Progress{}, "user_id = ?", alice.ID))

	err = f.svc.Coordinator.Unenroll(ctx, alice.ID, 999)
	assert.Equal(t, apperr.NotFound, apperr.KindOf(err))
}

func TestReenrollStartsFromZero(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.student(t, "alice")
	course := f.course(t, 2)

	_, err := f.svc.Coordinator.Enroll(ctx, alice.ID, course.ID)
	require.NoError(t, err)
	_, err = f.svc.Tracker.Update(ctx, alice.ID, course.ID, ProgressUpdate{
		CompletedLessons: []models.CompletedLesson{{ModuleIndex: 0, LessonIndex: 0}},
	})
	require.NoError(t, err)
	require.NoError(t, f.svc.Coordinator.Unenroll(ctx, alice.ID, course.ID))

	p, err := f.svc.Coordinator.Enroll(ctx, alice.ID, course.ID)
	require.NoError(t, err)
	assert.Zero(t, p.CompletionRate)
	assert.Empty(t, p.CompletedLessons)
}

func TestDeleteCourseCascade(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	course := f.course(t, 2, 3)
	other := f.course(t, 1)

	const n = 3
	students := make([]*models.User, 0, n)
	for i := 0; i < n; i++ {
		s := f.student(t, fmt.Sprintf("student%d", i))
		students = append(students, s)
		_, err := f.svc.Coordinator.Enroll(ctx, s.ID, course.ID)
		require.NoError(t, err)
	}
	_, err := f.svc.Coordinator.Enroll(ctx, students[0].ID, other.ID)
	require.NoError(t, err)

	thread, err := f.svc.Board.Create(ctx, students[0], course.ID, DiscussionInput{Title: "Q", Content: "?"})
	require.NoError(t, err)
	_, err = f.svc.Board.AddComment(ctx, students[1], thread.ID, CommentInput{Content: "!"})
	require.NoError(t, err)
	_, err = f.svc.Board.ToggleLike(ctx, students[2].ID, thread.ID)
	require.NoError(t, err)
	_, err = f.svc.Catalog.Rate(ctx, students[0].ID, course.ID, RatingInput{Rating: 5})
	require.NoError(t, err)

	summary, err := f.svc.Coordinator.DeleteCourse(ctx, f.instructor, course.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(n), summary.ProgressRemoved)
	assert.Equal(t, int64(n+1), summary.UsersDetached)

	for _, u := range append(students, f.instructor) {
		ids, err := f.svc.Credentials.CourseIDs(ctx, u.ID)
		require.NoError(t, err)
		assert.NotContains(t, ids, course.ID)
	}

	assert.Zero(t, testutil.Count(t, f.db, &models.Progress{}, "course_id = ?", course.ID))
	assert.Zero(t, testutil.Count(t, f.db, &models.Discussion{}, "course_id = ?", course.ID))
	assert.Zero(t, testutil.Count(t, f.db, &models.Comment{}, ""))
	assert.Zero(t, testutil.Count(t, f.db, &models.DiscussionLike{}, ""))
	assert.Zero(t, testutil.Count(t, f.db, &models.Rating{}, ""))
	assert.Zero(t, testutil.Count(t, f.db, &models.Module{}, "course_id = ?", course.ID))
	assert.Equal(t, int64(1), testutil.Count(t, f.db, &models.Lesson{}, ""), "lessons of the other course survive")
	assert.Equal(t, int64(1), testutil.Count(t, f.db, &models.Progress{}, "course_id = ?", other.ID))

	_, err = f.svc.Catalog.Get(ctx, course.ID)
	assert.Equal(t, apperr.NotFound, apperr.KindOf(err))
}

func TestDeleteCoursePermissions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	course := f.course(t, 1)
	rival := testutil.SeedUser(t, f.db, "rival", models.RoleInstructor)

	_, err := f.svc.Coordinator.DeleteCourse(ctx, rival, course.ID)
	assert.Equal(t, apperr.PermissionDenied, apperr.KindOf(err))

	_, err = f.svc.Coordinator.DeleteCourse(ctx, f.admin, course.ID)
	require.NoError(t, err)

	_, err = f.svc.Coordinator.DeleteCourse(ctx, f.admin, course.ID)
	assert.Equal(t, apperr.NotFound, apperr.KindOf(err))
}

func TestDeleteUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.student(t, "alice")
	bob := f.student(t, "bob")
	course := f.course(t, 2)

	for _, u := range []*models.User{alice, bob} {
		_, err := f.svc.Coordinator.Enroll(ctx, u.ID, course.ID)
		require.NoError(t, err)
	}
	_, err := f.svc.Catalog.Rate(ctx, alice.ID, course.ID, RatingInput{Rating: 1})
	require.NoError(t, err)
	_, err = f.svc.Catalog.Rate(ctx, bob.ID, course.ID, RatingInput{Rating: 5})
	require.NoError(t, err)
	thread, err := f.svc.Board.Create(ctx, alice, course.ID, DiscussionInput{Title: "Hi", Content: "there"})
	require.NoError(t, err)
	_, err = f.svc.Board.ToggleLike(ctx, alice.ID, thread.ID)
	require.NoError(t, err)

	require.NoError(t, f.svc.Coordinator.DeleteUser(ctx, alice.ID))

	assert.Zero(t, testutil.Count(t, f.db, &models.Enrollment{}, "user_id = ?", alice.ID))
	assert.Zero(t, testutil.Count(t, f.db, &models.Progress{}, "user_id = ?", alice.ID))
	assert.Zero(t, testutil.Count(t, f.db, &models.DiscussionLike{}, "user_id = ?", alice.ID))
	assert.Equal(t, int64(1), testutil.Count(t, f.db, &models.Discussion{}, "id = ?", thread.ID))

	view, err := f.svc.Catalog.Get(ctx, course.ID)
	require.NoError(t, err)
	assert.Equal(t, 5.0, view.AverageRating)
	assert.Equal(t, 1, view.NumReviews)
	require.Len(t, view.Students, 1)
	assert.Equal(t, bob.ID, view.Students[0].ID)

	_, err = f.svc.Credentials.FindByID(ctx, alice.ID)
	assert.Equal(t, apperr.NotFound, apperr.KindOf(err))

	err = f.svc.Coordinator.DeleteUser(ctx, f.instructor.ID)
	assert.Equal(t, apperr.ValidationFailed, apperr.KindOf(err))

	err = f.svc.Coordinator.DeleteUser(ctx, alice.ID)
	assert.Equal(t, apperr.NotFound, apperr.KindOf(err))
}
