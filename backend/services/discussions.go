package services

import (
	"context"
	"errors"

	"learnhub/backend/apperr"
	"learnhub/backend/models"
	"learnhub/backend/utils"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	SortNewest  = "newest"
	SortPopular = "popular"
	SortHot     = "hot"
)

// Board manages course discussion threads, comments and likes.
type Board struct {
	db  *gorm.DB
	log *utils.Logger
}

func NewBoard(db *gorm.DB, log *utils.Logger) *Board {
	return &Board{db: db, log: log.With("service", "discussions")}
}

type DiscussionInput struct {
	Title   string `json:"title" validate:"required,max=200"`
	Content string `json:"content" validate:"required,max=20000"`
}

type CommentInput struct {
	Content string `json:"content" validate:"required,max=5000"`
}

type CommentView struct {
	models.Comment
	Author    *models.UserSummary `json:"author,omitempty"`
	LikeCount int                 `json:"likeCount"`
	Likes     []uint              `json:"likes"`
}

type DiscussionView struct {
	models.Discussion
	Author       *models.UserSummary `json:"author,omitempty"`
	LikeCount    int                 `json:"likeCount"`
	CommentCount int64               `json:"commentCount"`
	Likes        []uint              `json:"likes"`
	Comments     []CommentView       `json:"comments,omitempty"`
}

type DiscussionPage struct {
	Items []DiscussionView
	Total int64
	utils.PageParams
}

func (p DiscussionPage) Pages() int { return utils.Pages(p.Total, p.Limit) }

// LikeState is the outcome of a like toggle.
type LikeState struct {
	Liked bool  `json:"liked"`
	Likes int64 `json:"likes"`
}

func findDiscussion(tx *gorm.DB, id uint) (*models.Discussion, error) {
	var d models.Discussion
	if err := tx.First(&d, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.NotFound, "Discussion not found")
		}
		return nil, storageErr("Could not load discussion", err)
	}
	return &d, nil
}

// canParticipate reports whether user is enrolled in the course or teaches it.
func canParticipate(tx *gorm.DB, user *models.User, course *models.Course) (bool, error) {
	if user.ID == course.InstructorID {
		return true, nil
	}
	return isEnrolled(tx, user.ID, course.ID)
}

// Create opens a thread on a course. The author must be enrolled or the instructor.
func (b *Board) Create(ctx context.Context, caller *models.User, courseID uint, in DiscussionInput) (*DiscussionView, error) {
	var view *DiscussionView
	err := b.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		course, err := findCourse(tx, courseID)
		if err != nil {
			return err
		}
		ok, err := canParticipate(tx, caller, course)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.New(apperr.PermissionDenied, "You must be enrolled in this course to start a discussion")
		}

		d := models.Discussion{CourseID: courseID, UserID: caller.ID, Title: in.Title, Content: in.Content}
		if err := tx.Create(&d).Error; err != nil {
			return storageErr("Could not create discussion", err)
		}
		view, err = loadDiscussionView(tx, d.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	b.log.Info("discussion created", "discussion_id", view.ID, "course_id", courseID, "user_id", caller.ID)
	return view, nil
}

// List returns a page of a course's threads. Sticky threads always come first.
func (b *Board) List(ctx context.Context, courseID uint, sort string, page utils.PageParams) (*DiscussionPage, error) {
	page = utils.NormalizePage(page.Page, page.Limit)
	db := b.db.WithContext(ctx)
	if _, err := findCourse(db, courseID); err != nil {
		return nil, err
	}

	query := db.Model(&models.Discussion{}).Where("course_id = ?", courseID).Session(&gorm.Session{})
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, storageErr("Could not count discussions", err)
	}

	ordered := query.Order("is_sticky DESC")
	switch sort {
	case "", SortNewest:
	case SortPopular:
		ordered = ordered.Order("views DESC")
	case SortHot:
		ordered = ordered.Order("(SELECT COUNT(*) FROM discussion_likes WHERE discussion_likes.discussion_id = discussions.id) DESC")
	default:
		return nil, apperr.New(apperr.ValidationFailed, "sort must be one of newest, popular, hot")
	}

	var threads []models.Discussion
	err := ordered.Order("created_at DESC").Order("id DESC").
		Limit(page.Limit).Offset(page.Offset()).
		Find(&threads).Error
	if err != nil {
		return nil, storageErr("Could not list discussions", err)
	}

	items, err := discussionViews(db, threads)
	if err != nil {
		return nil, err
	}
	return &DiscussionPage{Items: items, Total: total, PageParams: page}, nil
}

// Get returns a thread with its comments. Every call counts as one view.
func (b *Board) Get(ctx context.Context, id uint) (*DiscussionView, error) {
	var view *DiscussionView
	err := b.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Discussion{}).Where("id = ?", id).UpdateColumn("views", gorm.Expr("views + 1"))
		if res.Error != nil {
			return storageErr("Could not count view", res.Error)
		}
		if res.RowsAffected == 0 {
			return apperr.New(apperr.NotFound, "Discussion not found")
		}
		var err error
		view, err = loadDiscussionView(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

// AddComment appends a comment to an unlocked thread.
func (b *Board) AddComment(ctx context.Context, caller *models.User, id uint, in CommentInput) (*DiscussionView, error) {
	var view *DiscussionView
	err := b.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		d, err := findDiscussion(tx, id)
		if err != nil {
			return err
		}
		course, err := findCourse(tx, d.CourseID)
		if err != nil {
			return err
		}
		ok, err := canParticipate(tx, caller, course)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.New(apperr.PermissionDenied, "You must be enrolled in this course to comment")
		}
		if d.IsLocked {
			return apperr.New(apperr.ValidationFailed, "Discussion is locked")
		}

		if err := tx.Create(&models.Comment{DiscussionID: id, UserID: caller.ID, Content: in.Content}).Error; err != nil {
			return storageErr("Could not add comment", err)
		}
		view, err = loadDiscussionView(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

// ToggleLike adds the user's like to a thread, or removes it when already present.
func (b *Board) ToggleLike(ctx context.Context, userID, id uint) (*LikeState, error) {
	var state LikeState
	err := b.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := findDiscussion(tx, id); err != nil {
			return err
		}
		liked, err := toggle(tx, &models.DiscussionLike{DiscussionID: id, UserID: userID},
			"discussion_id = ? AND user_id = ?", id, userID)
		if err != nil {
			return err
		}
		state.Liked = liked
		if err := tx.Model(&models.DiscussionLike{}).Where("discussion_id = ?", id).Count(&state.Likes).Error; err != nil {
			return storageErr("Could not count likes", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &state, nil
}

// ToggleCommentLike is ToggleLike for a single comment of the thread.
func (b *Board) ToggleCommentLike(ctx context.Context, userID, id, commentID uint) (*LikeState, error) {
	var state LikeState
	err := b.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var comment models.Comment
		if err := tx.Where("id = ? AND discussion_id = ?", commentID, id).First(&comment).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.New(apperr.NotFound, "Comment not found")
			}
			return storageErr("Could not load comment", err)
		}
		liked, err := toggle(tx, &models.CommentLike{CommentID: commentID, UserID: userID},
			"comment_id = ? AND user_id = ?", commentID, userID)
		if err != nil {
			return err
		}
		state.Liked = liked
		if err := tx.Model(&models.CommentLike{}).Where("comment_id = ?", commentID).Count(&state.Likes).Error; err != nil {
			return storageErr("Could not count likes", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &state, nil
}

// toggle deletes the rows matching query, or inserts like when none existed.
func toggle(tx *gorm.DB, like interface{}, query string, args ...interface{}) (bool, error) {
	res := tx.Where(query, args...).Delete(like)
	if res.Error != nil {
		return false, storageErr("Could not remove like", res.Error)
	}
	if res.RowsAffected > 0 {
		return false, nil
	}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(like).Error; err != nil {
		return false, storageErr("Could not add like", err)
	}
	return true, nil
}

func (b *Board) ToggleSticky(ctx context.Context, caller *models.User, id uint) (*models.Discussion, error) {
	return b.flip(ctx, caller, id, "is_sticky", func(d *models.Discussion) *bool { return &d.IsSticky })
}

func (b *Board) ToggleLock(ctx context.Context, caller *models.User, id uint) (*models.Discussion, error) {
	return b.flip(ctx, caller, id, "is_locked", func(d *models.Discussion) *bool { return &d.IsLocked })
}

// moderate loads the thread and checks that caller may moderate its course.
func moderate(tx *gorm.DB, caller *models.User, id uint) (*models.Discussion, error) {
	d, err := findDiscussion(tx, id)
	if err != nil {
		return nil, err
	}
	course, err := findCourse(tx, d.CourseID)
	if err != nil {
		return nil, err
	}
	if !canManage(caller, course) {
		return nil, apperr.New(apperr.PermissionDenied, "Only the course instructor or an admin can moderate discussions")
	}
	return d, nil
}

func (b *Board) flip(ctx context.Context, caller *models.User, id uint, column string, field func(*models.Discussion) *bool) (*models.Discussion, error) {
	var out *models.Discussion
	err := b.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		d, err := moderate(tx, caller, id)
		if err != nil {
			return err
		}
		flag := field(d)
		*flag = !*flag
		if err := tx.Model(d).UpdateColumn(column, *flag).Error; err != nil {
			return storageErr("Could not update discussion", err)
		}
		out = d
		return nil
	})
	if err != nil {
		return nil, err
	}
	b.log.Info("discussion moderated", "discussion_id", id, column, *field(out), "by", caller.ID)
	return out, nil
}

// Delete removes a thread with its comments and likes.
func (b *Board) Delete(ctx context.Context, caller *models.User, id uint) error {
	err := b.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := moderate(tx, caller, id); err != nil {
			return err
		}
		return deleteDiscussions(tx, tx.Model(&models.Discussion{}).Select("id").Where("id = ?", id))
	})
	if err != nil {
		return err
	}
	b.log.Info("discussion deleted", "discussion_id", id, "by", caller.ID)
	return nil
}

func loadDiscussionView(tx *gorm.DB, id uint) (*DiscussionView, error) {
	d, err := findDiscussion(tx, id)
	if err != nil {
		return nil, err
	}
	views, err := discussionViews(tx, []models.Discussion{*d})
	if err != nil {
		return nil, err
	}
	view := views[0]

	var comments []models.Comment
	if err := tx.Where("discussion_id = ?", id).Order("created_at ASC").Order("id ASC").Find(&comments).Error; err != nil {
		return nil, storageErr("Could not load comments", err)
	}
	commentIDs := make([]uint, 0, len(comments))
	authors := make([]uint, 0, len(comments))
	for i := range comments {
		commentIDs = append(commentIDs, comments[i].ID)
		authors = append(authors, comments[i].UserID)
	}
	likes := make(map[uint][]uint, len(comments))
	if len(commentIDs) > 0 {
		var rows []models.CommentLike
		if err := tx.Where("comment_id IN ?", commentIDs).Order("created_at ASC").Find(&rows).Error; err != nil {
			return nil, storageErr("Could not load likes", err)
		}
		for _, r := range rows {
			likes[r.CommentID] = append(likes[r.CommentID], r.UserID)
		}
	}
	summaries, err := userSummaries(tx, authors)
	if err != nil {
		return nil, err
	}

	view.Comments = make([]CommentView, 0, len(comments))
	for i := range comments {
		ids := likes[comments[i].ID]
		if ids == nil {
			ids = []uint{}
		}
		view.Comments = append(view.Comments, CommentView{
			Comment:   comments[i],
			Author:    summaryPtr(summaries, comments[i].UserID),
			LikeCount: len(ids),
			Likes:     ids,
		})
	}
	return &view, nil
}

// discussionViews decorates threads with author, likes and comment counts.
func discussionViews(tx *gorm.DB, threads []models.Discussion) ([]DiscussionView, error) {
	ids := make([]uint, 0, len(threads))
	authors := make([]uint, 0, len(threads))
	for i := range threads {
		ids = append(ids, threads[i].ID)
		authors = append(authors, threads[i].UserID)
	}

	likes := make(map[uint][]uint, len(ids))
	comments := make(map[uint]int64, len(ids))
	if len(ids) > 0 {
		var rows []models.DiscussionLike
		if err := tx.Where("discussion_id IN ?", ids).Order("created_at ASC").Find(&rows).Error; err != nil {
			return nil, storageErr("Could not load likes", err)
		}
		for _, r := range rows {
			likes[r.DiscussionID] = append(likes[r.DiscussionID], r.UserID)
		}

		var counts []struct {
			DiscussionID uint
			N            int64
		}
		err := tx.Model(&models.Comment{}).
			Select("discussion_id, COUNT(*) AS n").
			Where("discussion_id IN ?", ids).
			Group("discussion_id").
			Scan(&counts).Error
		if err != nil {
			return nil, storageErr("Could not count comments", err)
		}
		for _, c := range counts {
			comments[c.DiscussionID] = c.N
		}
	}

	summaries, err := userSummaries(tx, authors)
	if err != nil {
		return nil, err
	}

	out := make([]DiscussionView, 0, len(threads))
	for i := range threads {
		liked := likes[threads[i].ID]
		if liked == nil {
			liked = []uint{}
		}
		out = append(out, DiscussionView{
			Discussion:   threads[i],
			Author:       summaryPtr(summaries, threads[i].UserID),
			LikeCount:    len(liked),
			CommentCount: comments[threads[i].ID],
			Likes:        liked,
		})
	}
	return out, nil
}
