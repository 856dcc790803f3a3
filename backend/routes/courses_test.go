package routes

import (
	"fmt"
	"testing"

	"learnhub/backend/models"
	"learnhub/backend/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type courseJSON struct {
	ID            uint    `json:"id"`
	Title         string  `json:"title"`
	Level         string  `json:"level"`
	InstructorID  uint    `json:"instructorId"`
	AverageRating float64 `json:"averageRating"`
	NumReviews    int     `json:"numReviews"`
	StudentCount  int64   `json:"studentCount"`
	Modules       []struct {
		Title   string `json:"title"`
		Lessons []struct {
			Title string `json:"title"`
		} `json:"lessons"`
	} `json:"modules"`
	Students []models.UserSummary `json:"students"`
}

type progressJSON struct {
	CourseID         uint                     `json:"courseId"`
	CompletionRate   float64                  `json:"completionRate"`
	CurrentModule    int                      `json:"currentModule"`
	CompletedLessons []models.CompletedLesson `json:"completedLessons"`
}

func TestCreateCourse(t *testing.T) {
	s := newServer(t, testConfig())
	tutor := testutil.SeedUser(t, s.db, "tutor", models.RoleInstructor)
	alice := testutil.SeedUser(t, s.db, "alice", models.RoleStudent)

	input := map[string]interface{}{
		"title":       "Test Course",
		"description": "Test Description",
		"category":    "programming",
		"modules": []map[string]interface{}{
			{"title": "Intro", "lessons": []map[string]interface{}{{"title": "Hello"}, {"title": "World"}}},
		},
	}

	resp, _ := s.do(t, "POST", "/api/courses", s.token(t, alice), input)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp, _ = s.do(t, "POST", "/api/courses", "", input)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp, env := s.do(t, "POST", "/api/courses", s.token(t, tutor), input)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var course courseJSON
	decode(t, env, &course)
	assert.Equal(t, "Test Course", course.Title)
	assert.Equal(t, models.LevelBeginner, course.Level)
	assert.Equal(t, tutor.ID, course.InstructorID)
	require.Len(t, course.Modules, 1)
	assert.Len(t, course.Modules[0].Lessons, 2)

	resp, env = s.do(t, "POST", "/api/courses", s.token(t, tutor), map[string]string{"title": "No description"})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, env.Details, "description")
}

func TestListCourses(t *testing.T) {
	s := newServer(t, testConfig())
	tutor := testutil.SeedUser(t, s.db, "tutor", models.RoleInstructor)
	for i := 0; i < 12; i++ {
		testutil.SeedCourse(t, s.db, tutor.ID, fmt.Sprintf("Course %02d", i), 1)
	}

	resp, env := s.do(t, "GET", "/api/courses?limit=5&page=3", "", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var items []courseJSON
	decode(t, env, &items)
	assert.Len(t, items, 2)
	assert.Equal(t, int64(12), env.Total)
	assert.Equal(t, 3, env.Pages)
	assert.Equal(t, 3, env.Page)
	assert.Equal(t, 5, env.PageSize)

	resp, env = s.do(t, "GET", "/api/courses?search=course%2011", "", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	decode(t, env, &items)
	require.Len(t, items, 1)
	assert.Equal(t, "Course 11", items[0].Title)

	resp, env = s.do(t, "GET", "/api/courses?level=advanced", "", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, int64(0), env.Total)
}

func TestGetCourseDetails(t *testing.T) {
	s := newServer(t, testConfig())
	tutor := testutil.SeedUser(t, s.db, "tutor", models.RoleInstructor)
	alice := testutil.SeedUser(t, s.db, "alice", models.RoleStudent)
	course := testutil.SeedCourse(t, s.db, tutor.ID, "Go", 2, 1)
	testutil.SeedEnrollment(t, s.db, alice.ID, course.ID)

	resp, env := s.do(t, "GET", fmt.Sprintf("/api/courses/%d", course.ID), "", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var got courseJSON
	decode(t, env, &got)
	assert.Equal(t, "Go", got.Title)
	require.Len(t, got.Modules, 2)
	assert.Equal(t, "Lesson 1.1", got.Modules[0].Lessons[0].Title)
	require.Len(t, got.Students, 1)
	assert.Equal(t, alice.ID, got.Students[0].ID)

	resp, _ = s.do(t, "GET", "/api/courses/9999", "", nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp, _ = s.do(t, "GET", "/api/courses/abc", "", nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestEnrollAndTrackProgress(t *testing.T) {
	s := newServer(t, testConfig())
	tutor := testutil.SeedUser(t, s.db, "tutor", models.RoleInstructor)
	alice := testutil.SeedUser(t, s.db, "alice", models.RoleStudent)
	course := testutil.SeedCourse(t, s.db, tutor.ID, "Go", 2, 3)
	tok := s.token(t, alice)
	base := fmt.Sprintf("/api/courses/%d", course.ID)

	resp, env := s.do(t, "POST", base+"/enroll", tok, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var progress progressJSON
	decode(t, env, &progress)
	assert.Equal(t, course.ID, progress.CourseID)
	assert.Zero(t, progress.CompletionRate)

	resp, _ = s.do(t, "POST", base+"/enroll", tok, nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	records := fmt.Sprintf("/api/records/courses/%d", course.ID)
	resp, env = s.do(t, "PUT", records, tok, map[string]interface{}{
		"currentModule": 1,
		"currentLesson": 0,
		"completedLessons": []map[string]int{
			{"moduleIndex": 0, "lessonIndex": 0},
			{"moduleIndex": 0, "lessonIndex": 1},
			{"moduleIndex": 1, "lessonIndex": 0},
			{"moduleIndex": 7, "lessonIndex": 0},
		},
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	decode(t, env, &progress)
	assert.InDelta(t, 60.0, progress.CompletionRate, 1e-9)
	assert.Len(t, progress.CompletedLessons, 3)
	assert.Equal(t, 1, progress.CurrentModule)

	resp, env = s.do(t, "GET", "/api/records", tok, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var all []progressJSON
	decode(t, env, &all)
	require.Len(t, all, 1)
	assert.InDelta(t, 60.0, all[0].CompletionRate, 1e-9)

	resp, env = s.do(t, "PUT", records, tok, map[string]interface{}{"currentModule": -1})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, env.Details, "currentModule")

	resp, _ = s.do(t, "POST", base+"/unenroll", tok, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	resp, _ = s.do(t, "POST", base+"/unenroll", tok, nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestGetCourseProgressCreatesRecord(t *testing.T) {
	s := newServer(t, testConfig())
	tutor := testutil.SeedUser(t, s.db, "tutor", models.RoleInstructor)
	alice := testutil.SeedUser(t, s.db, "alice", models.RoleStudent)
	course := testutil.SeedCourse(t, s.db, tutor.ID, "Go", 1)
	path := fmt.Sprintf("/api/records/courses/%d", course.ID)

	resp, _ := s.do(t, "GET", path, s.token(t, alice), nil)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)
	resp, _ = s.do(t, "GET", path, s.token(t, alice), nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, _ = s.do(t, "GET", "/api/records/courses/9999", s.token(t, alice), nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestUpdateAndDeleteCourse(t *testing.T) {
	s := newServer(t, testConfig())
	tutor := testutil.SeedUser(t, s.db, "tutor", models.RoleInstructor)
	other := testutil.SeedUser(t, s.db, "other", models.RoleInstructor)
	alice := testutil.SeedUser(t, s.db, "alice", models.RoleStudent)
	course := testutil.SeedCourse(t, s.db, tutor.ID, "Go", 2)
	testutil.SeedEnrollment(t, s.db, alice.ID, course.ID)
	path := fmt.Sprintf("/api/courses/%d", course.ID)

	resp, _ := s.do(t, "PUT", path, s.token(t, other), map[string]string{"title": "Hijacked"})
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp, env := s.do(t, "PUT", path, s.token(t, tutor), map[string]string{"title": "Go, revised"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var got courseJSON
	decode(t, env, &got)
	assert.Equal(t, "Go, revised", got.Title)
	assert.Len(t, got.Modules, 1)

	resp, _ = s.do(t, "DELETE", path, s.token(t, other), nil)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp, _ = s.do(t, "DELETE", path, s.token(t, tutor), nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, _ = s.do(t, "GET", path, "", nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Zero(t, testutil.Count(t, s.db, &models.Progress{}, "course_id = ?", course.ID))
	assert.Zero(t, testutil.Count(t, s.db, &models.Enrollment{}, "course_id = ?", course.ID))

	resp, env = s.do(t, "GET", "/api/auth/profile", s.token(t, alice), nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var profile struct {
		Courses []uint `json:"courses"`
	}
	decode(t, env, &profile)
	assert.Empty(t, profile.Courses)
}

func TestRateCourse(t *testing.T) {
	s := newServer(t, testConfig())
	tutor := testutil.SeedUser(t, s.db, "tutor", models.RoleInstructor)
	alice := testutil.SeedUser(t, s.db, "alice", models.RoleStudent)
	bob := testutil.SeedUser(t, s.db, "bob", models.RoleStudent)
	course := testutil.SeedCourse(t, s.db, tutor.ID, "Go", 1)
	testutil.SeedEnrollment(t, s.db, alice.ID, course.ID)
	path := fmt.Sprintf("/api/courses/%d/ratings", course.ID)

	resp, _ := s.do(t, "POST", path, s.token(t, bob), map[string]interface{}{"rating": 5})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, _ = s.do(t, "POST", path, s.token(t, alice), map[string]interface{}{"rating": 6})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, env := s.do(t, "POST", path, s.token(t, alice), map[string]interface{}{"rating": 4, "comment": "solid"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var got courseJSON
	decode(t, env, &got)
	assert.InDelta(t, 4.0, got.AverageRating, 1e-9)
	assert.Equal(t, 1, got.NumReviews)
}

func TestCourseAnalytics(t *testing.T) {
	s := newServer(t, testConfig())
	tutor := testutil.SeedUser(t, s.db, "tutor", models.RoleInstructor)
	alice := testutil.SeedUser(t, s.db, "alice", models.RoleStudent)
	course := testutil.SeedCourse(t, s.db, tutor.ID, "Go", 2)
	testutil.SeedEnrollment(t, s.db, alice.ID, course.ID)
	path := fmt.Sprintf("/api/courses/%d/analytics", course.ID)

	resp, _ := s.do(t, "GET", path, s.token(t, alice), nil)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp, env := s.do(t, "GET", path, s.token(t, tutor), nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var stats models.CourseAnalytics
	decode(t, env, &stats)
	assert.Equal(t, int64(1), stats.TotalEnrollments)
	require.Len(t, stats.Students, 1)
	assert.Equal(t, "alice", stats.Students[0].Name)
}
