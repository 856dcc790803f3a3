package services

import (
	"context"
	"errors"
	"strings"

	"learnhub/backend/apperr"
	"learnhub/backend/models"
	"learnhub/backend/utils"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// CredentialStore persists user records and checks passwords.
type CredentialStore struct {
	db   *gorm.DB
	log  *utils.Logger
	cost int
}

func NewCredentialStore(db *gorm.DB, log *utils.Logger) *CredentialStore {
	return &CredentialStore{db: db, log: log.With("service", "credentials"), cost: bcrypt.DefaultCost}
}

// WithCost returns a copy hashing with the given bcrypt cost. Tests use bcrypt.MinCost.
func (cs *CredentialStore) WithCost(cost int) *CredentialStore {
	cp := *cs
	cp.cost = cost
	return &cp
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (cs *CredentialStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := cs.db.WithContext(ctx).Where("email = ?", NormalizeEmail(email)).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.NotFound, "User not found")
		}
		return nil, storageErr("Could not load user", err)
	}
	return &user, nil
}

func (cs *CredentialStore) FindByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := cs.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.NotFound, "User not found")
		}
		return nil, storageErr("Could not load user", err)
	}
	return &user, nil
}

func (cs *CredentialStore) List(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := cs.db.WithContext(ctx).Order("id ASC").Find(&users).Error; err != nil {
		return nil, storageErr("Could not list users", err)
	}
	return users, nil
}

// HashAndStore hashes password (when non-empty) and inserts or saves the user.
func (cs *CredentialStore) HashAndStore(ctx context.Context, user *models.User, password string) error {
	user.Email = NormalizeEmail(user.Email)
	if password != "" {
		hashed, err := bcrypt.GenerateFromPassword([]byte(password), cs.cost)
		if err != nil {
			return storageErr("Could not hash password", err)
		}
		user.PasswordHash = string(hashed)
	}
	if user.PasswordHash == "" {
		return apperr.New(apperr.ValidationFailed, "Password is required")
	}

	db := cs.db.WithContext(ctx)
	var err error
	if user.ID == 0 {
		err = db.Create(user).Error
	} else {
		err = db.Save(user).Error
	}
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperr.New(apperr.AlreadyExists, "Email already registered")
		}
		return storageErr("Could not save user", err)
	}
	return nil
}

// Verify returns the user when email and password match.
func (cs *CredentialStore) Verify(ctx context.Context, email, password string) (*models.User, error) {
	user, err := cs.FindByEmail(ctx, email)
	if err != nil {
		if apperr.Is(err, apperr.NotFound) {
			return nil, apperr.New(apperr.Unauthenticated, "Invalid email or password")
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, apperr.New(apperr.Unauthenticated, "Invalid email or password")
	}
	return user, nil
}

// ProfileUpdate carries optional changes; empty strings leave a field unchanged.
type ProfileUpdate struct {
	Name     string `json:"name" validate:"omitempty,min=1,max=100"`
	Email    string `json:"email" validate:"omitempty,email"`
	Password string `json:"password" validate:"omitempty,min=6"`
	Bio      string `json:"bio" validate:"omitempty,max=2000"`
	Avatar   string `json:"avatar" validate:"omitempty,max=500"`
	Role     string `json:"role" validate:"omitempty,oneof=student instructor admin"`
}

// Update applies changes to the user. Role is honored only when allowRole is set.
func (cs *CredentialStore) Update(ctx context.Context, id uint, upd ProfileUpdate, allowRole bool) (*models.User, error) {
	user, err := cs.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if upd.Name != "" {
		user.Name = upd.Name
	}
	if upd.Email != "" {
		user.Email = upd.Email
	}
	if upd.Bio != "" {
		user.Bio = upd.Bio
	}
	if upd.Avatar != "" {
		user.Avatar = upd.Avatar
	}
	if allowRole && upd.Role != "" {
		if !models.ValidRole(upd.Role) {
			return nil, apperr.New(apperr.ValidationFailed, "Invalid role")
		}
		user.Role = upd.Role
	}
	if err := cs.HashAndStore(ctx, user, upd.Password); err != nil {
		return nil, err
	}
	return user, nil
}

// CourseIDs returns the ids of courses the user teaches or is enrolled in.
func (cs *CredentialStore) CourseIDs(ctx context.Context, userID uint) ([]uint, error) {
	db := cs.db.WithContext(ctx)
	var taught, enrolled []uint
	if err := db.Model(&models.Course{}).Where("instructor_id = ?", userID).Order("id").Pluck("id", &taught).Error; err != nil {
		return nil, storageErr("Could not load courses", err)
	}
	if err := db.Model(&models.Enrollment{}).Where("user_id = ?", userID).Order("course_id").Pluck("course_id", &enrolled).Error; err != nil {
		return nil, storageErr("Could not load enrollments", err)
	}
	return uniqueIDs(append(taught, enrolled...)), nil
}
