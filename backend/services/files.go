package services

import (
	"context"
	"errors"

	"learnhub/backend/apperr"
	"learnhub/backend/models"
	"learnhub/backend/utils"

	"gorm.io/gorm"
)

// FileIndex stores upload metadata. Blobs live in a vault backend.
type FileIndex struct {
	db  *gorm.DB
	log *utils.Logger
}

func NewFileIndex(db *gorm.DB, log *utils.Logger) *FileIndex {
	return &FileIndex{db: db, log: log.With("service", "files")}
}

func (fi *FileIndex) Record(ctx context.Context, f *models.File) error {
	if err := fi.db.WithContext(ctx).Create(f).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperr.Wrap(apperr.AlreadyExists, "File already exists", err)
		}
		return storageErr("Could not record file", err)
	}
	fi.log.Info("file stored", "uuid", f.UUID, "size", f.Size, "mime", f.MimeType, "user_id", f.UserID)
	return nil
}

func (fi *FileIndex) FindByUUID(ctx context.Context, id string) (*models.File, error) {
	var f models.File
	if err := fi.db.WithContext(ctx).Where("uuid = ?", id).First(&f).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.NotFound, "File not found")
		}
		return nil, storageErr("Could not load file", err)
	}
	return &f, nil
}
