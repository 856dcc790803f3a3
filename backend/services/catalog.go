package services

import (
	"context"
	"strings"

	"learnhub/backend/apperr"
	"learnhub/backend/models"
	"learnhub/backend/utils"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Catalog owns course authoring, listing and ratings.
type Catalog struct {
	db      *gorm.DB
	log     *utils.Logger
	tracker *Tracker
}

func NewCatalog(db *gorm.DB, log *utils.Logger, tracker *Tracker) *Catalog {
	return &Catalog{db: db, log: log.With("service", "catalog"), tracker: tracker}
}

type LessonInput struct {
	Title       string   `json:"title" validate:"required,max=200"`
	Description string   `json:"description"`
	Content     string   `json:"content"`
	VideoURL    string   `json:"videoUrl" validate:"omitempty,max=500"`
	Resources   []string `json:"resources"`
	Duration    int      `json:"duration" validate:"gte=0"`
	Order       int      `json:"order"`
}

type ModuleInput struct {
	Title       string        `json:"title" validate:"required,max=200"`
	Description string        `json:"description"`
	Order       int           `json:"order"`
	Lessons     []LessonInput `json:"lessons" validate:"dive"`
}

type CourseInput struct {
	Title       string        `json:"title" validate:"required,max=200"`
	Description string        `json:"description" validate:"required"`
	Category    string        `json:"category" validate:"required,max=100"`
	Level       string        `json:"level" validate:"omitempty,oneof=beginner intermediate advanced"`
	Price       float64       `json:"price" validate:"gte=0"`
	Thumbnail   string        `json:"thumbnail" validate:"omitempty,max=500"`
	Modules     []ModuleInput `json:"modules" validate:"dive"`
}

// CourseUpdate overwrites only the fields that are set. A non-nil Modules replaces the
// whole structure.
type CourseUpdate struct {
	Title       string        `json:"title" validate:"omitempty,max=200"`
	Description string        `json:"description"`
	Category    string        `json:"category" validate:"omitempty,max=100"`
	Level       string        `json:"level" validate:"omitempty,oneof=beginner intermediate advanced"`
	Price       *float64      `json:"price" validate:"omitempty,gte=0"`
	Thumbnail   string        `json:"thumbnail" validate:"omitempty,max=500"`
	Modules     []ModuleInput `json:"modules" validate:"omitempty,dive"`
}

type RatingInput struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"omitempty,max=1000"`
}

type CourseFilter struct {
	Category string
	Level    string
	Search   string
	utils.PageParams
}

// CourseView is a course with its derived roster and instructor projection.
type CourseView struct {
	models.Course
	Instructor   *models.UserSummary  `json:"instructor,omitempty"`
	Students     []models.UserSummary `json:"students,omitempty"`
	StudentCount int64                `json:"studentCount"`
}

type CoursePage struct {
	Items []CourseView
	Total int64
	utils.PageParams
}

func (p CoursePage) Pages() int { return utils.Pages(p.Total, p.Limit) }

func buildModules(courseID uint, in []ModuleInput) []models.Module {
	modules := make([]models.Module, 0, len(in))
	for mi, m := range in {
		module := models.Module{
			CourseID:    courseID,
			Position:    mi,
			Title:       m.Title,
			Description: m.Description,
			Order:       m.Order,
		}
		for li, l := range m.Lessons {
			module.Lessons = append(module.Lessons, models.Lesson{
				Position:    li,
				Title:       l.Title,
				Description: l.Description,
				Content:     l.Content,
				VideoURL:    l.VideoURL,
				Resources:   datatypes.JSONSlice[string](l.Resources),
				Duration:    l.Duration,
				Order:       l.Order,
			})
		}
		modules = append(modules, module)
	}
	return modules
}

func orderedStructure(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Modules", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("Modules.Lessons", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") })
}

// List returns one page of courses, newest first.
func (cat *Catalog) List(ctx context.Context, f CourseFilter) (*CoursePage, error) {
	f.PageParams = utils.NormalizePage(f.Page, f.Limit)
	db := cat.db.WithContext(ctx)

	query := db.Model(&models.Course{})
	if f.Category != "" {
		query = query.Where("category = ?", f.Category)
	}
	if f.Level != "" {
		query = query.Where("level = ?", f.Level)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		query = query.Where("LOWER(title) LIKE ?", "%"+strings.ToLower(s)+"%")
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, storageErr("Could not count courses", err)
	}

	var courses []models.Course
	err := orderedStructure(query.Session(&gorm.Session{})).
		Order("created_at DESC").Order("id DESC").
		Limit(f.Limit).Offset(f.Offset()).
		Find(&courses).Error
	if err != nil {
		return nil, storageErr("Could not list courses", err)
	}

	items, err := cat.views(db, courses)
	if err != nil {
		return nil, err
	}
	return &CoursePage{Items: items, Total: total, PageParams: f.PageParams}, nil
}

func (cat *Catalog) views(db *gorm.DB, courses []models.Course) ([]CourseView, error) {
	ids := make([]uint, 0, len(courses))
	instructors := make([]uint, 0, len(courses))
	for i := range courses {
		ids = append(ids, courses[i].ID)
		instructors = append(instructors, courses[i].InstructorID)
	}
	summaries, err := userSummaries(db, instructors)
	if err != nil {
		return nil, err
	}

	counts := make(map[uint]int64, len(ids))
	if len(ids) > 0 {
		var rows []struct {
			CourseID uint
			N        int64
		}
		err := db.Model(&models.Enrollment{}).
			Select("course_id, COUNT(*) AS n").
			Where("course_id IN ?", ids).
			Group("course_id").
			Scan(&rows).Error
		if err != nil {
			return nil, storageErr("Could not count students", err)
		}
		for _, r := range rows {
			counts[r.CourseID] = r.N
		}
	}

	out := make([]CourseView, 0, len(courses))
	for i := range courses {
		out = append(out, CourseView{
			Course:       courses[i],
			Instructor:   summaryPtr(summaries, courses[i].InstructorID),
			StudentCount: counts[courses[i].ID],
		})
	}
	return out, nil
}

// Get returns the course with its ordered structure, ratings, instructor and roster.
func (cat *Catalog) Get(ctx context.Context, id uint) (*CourseView, error) {
	db := cat.db.WithContext(ctx)
	course, err := loadStructure(db.Preload("Ratings"), id)
	if err != nil {
		return nil, err
	}

	var studentIDs []uint
	err = db.Model(&models.Enrollment{}).
		Where("course_id = ?", id).
		Order("enrolled_at ASC").Order("id ASC").
		Pluck("user_id", &studentIDs).Error
	if err != nil {
		return nil, storageErr("Could not load students", err)
	}

	summaries, err := userSummaries(db, append([]uint{course.InstructorID}, studentIDs...))
	if err != nil {
		return nil, err
	}
	view := &CourseView{
		Course:       *course,
		Instructor:   summaryPtr(summaries, course.InstructorID),
		Students:     make([]models.UserSummary, 0, len(studentIDs)),
		StudentCount: int64(len(studentIDs)),
	}
	for _, sid := range studentIDs {
		if s, ok := summaries[sid]; ok {
			view.Students = append(view.Students, s)
		}
	}
	return view, nil
}

// Create stores a new course owned by instructorID.
func (cat *Catalog) Create(ctx context.Context, instructorID uint, in CourseInput) (*CourseView, error) {
	course := models.Course{
		Title:        in.Title,
		Description:  in.Description,
		InstructorID: instructorID,
		Category:     in.Category,
		Level:        in.Level,
		Price:        in.Price,
		Thumbnail:    in.Thumbnail,
		Modules:      buildModules(0, in.Modules),
	}
	if course.Level == "" {
		course.Level = models.LevelBeginner
	}
	if course.Thumbnail == "" {
		course.Thumbnail = "default-course.png"
	}

	if err := cat.db.WithContext(ctx).Create(&course).Error; err != nil {
		return nil, storageErr("Could not create course", err)
	}
	cat.log.Info("course created", "course_id", course.ID, "instructor_id", instructorID)
	return cat.Get(ctx, course.ID)
}

// Update applies upd when caller owns the course or is an admin. Replacing modules
// re-derives every progress record of the course in the same transaction.
func (cat *Catalog) Update(ctx context.Context, caller *models.User, id uint, upd CourseUpdate) (*CourseView, error) {
	err := cat.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		course, err := findCourse(tx, id)
		if err != nil {
			return err
		}
		if !canManage(caller, course) {
			return apperr.New(apperr.PermissionDenied, "Only the course instructor or an admin can edit this course")
		}

		if upd.Title != "" {
			course.Title = upd.Title
		}
		if upd.Description != "" {
			course.Description = upd.Description
		}
		if upd.Category != "" {
			course.Category = upd.Category
		}
		if upd.Level != "" {
			course.Level = upd.Level
		}
		if upd.Price != nil {
			course.Price = *upd.Price
		}
		if upd.Thumbnail != "" {
			course.Thumbnail = upd.Thumbnail
		}
		if err := tx.Omit(clause.Associations).Save(course).Error; err != nil {
			return storageErr("Could not update course", err)
		}

		if upd.Modules == nil {
			return nil
		}
		modules := tx.Model(&models.Module{}).Select("id").Where("course_id = ?", id)
		if err := tx.Where("module_id IN (?)", modules).Delete(&models.Lesson{}).Error; err != nil {
			return storageErr("Could not replace lessons", err)
		}
		if err := tx.Where("course_id = ?", id).Delete(&models.Module{}).Error; err != nil {
			return storageErr("Could not replace modules", err)
		}
		if fresh := buildModules(id, upd.Modules); len(fresh) > 0 {
			if err := tx.Create(&fresh).Error; err != nil {
				return storageErr("Could not store modules", err)
			}
		}
		return cat.tracker.Recompute(tx, id)
	})
	if err != nil {
		return nil, err
	}
	cat.log.Info("course updated", "course_id", id, "by", caller.ID, "modules_replaced", upd.Modules != nil)
	return cat.Get(ctx, id)
}

// Rate records the user's score for a course. Only enrolled users may rate, and rating
// again replaces the previous score.
func (cat *Catalog) Rate(ctx context.Context, userID, courseID uint, in RatingInput) (*models.Course, error) {
	var course *models.Course
	err := cat.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := findCourse(tx, courseID); err != nil {
			return err
		}
		enrolled, err := isEnrolled(tx, userID, courseID)
		if err != nil {
			return err
		}
		if !enrolled {
			return apperr.New(apperr.NotEnrolled, "Only enrolled students can rate this course")
		}

		rating := models.Rating{CourseID: courseID, UserID: userID, Rating: in.Rating, Comment: in.Comment}
		err = tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "course_id"}, {Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"rating", "comment"}),
		}).Create(&rating).Error
		if err != nil {
			return storageErr("Could not save rating", err)
		}
		if err := refreshRatingStats(tx, courseID); err != nil {
			return err
		}
		course, err = findCourse(tx, courseID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return course, nil
}

// InstructorCourses lists the courses taught by a user, newest first.
func (cat *Catalog) InstructorCourses(ctx context.Context, instructorID uint) ([]models.Course, error) {
	var courses []models.Course
	err := cat.db.WithContext(ctx).
		Where("instructor_id = ?", instructorID).
		Order("created_at DESC").Order("id DESC").
		Find(&courses).Error
	if err != nil {
		return nil, storageErr("Could not load courses", err)
	}
	return courses, nil
}
