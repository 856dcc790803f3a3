package controllers

import (
	"context"
	"fmt"

	"learnhub/backend/middleware"
	"learnhub/backend/models"
	"learnhub/backend/services"
	"learnhub/backend/utils"
	"learnhub/backend/vault"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type FilesController struct {
	Files *services.FileIndex
	Vault *vault.Vault
	Log   *utils.Logger
}

func NewFilesController(svc *services.Services, v *vault.Vault, log *utils.Logger) *FilesController {
	return &FilesController{Files: svc.Files, Vault: v, Log: log}
}

// UploadResponse describes a stored upload.
type UploadResponse struct {
	FileID       uint   `json:"fileId"`
	UUID         string `json:"uuid"`
	Filename     string `json:"filename"`
	OriginalName string `json:"originalName"`
	MimeType     string `json:"mimeType"`
	Size         int64  `json:"size"`
	DownloadURL  string `json:"downloadUrl"`
}

// Upload godoc
// @Summary Upload a file
// @Description Images, videos, PDF and Word documents up to the configured size limit
// @Tags files
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "File"
// @Success 201 {object} UploadResponse
// @Failure 400 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /files [post]
func (fc *FilesController) Upload(c *fiber.Ctx) error {
	header, err := c.FormFile("file")
	if err != nil {
		return utils.BadRequest(c, "No file uploaded")
	}
	if header.Size > fc.Vault.MaxSize() {
		return utils.BadRequest(c, fmt.Sprintf("File exceeds the %d byte limit", fc.Vault.MaxSize()))
	}

	src, err := header.Open()
	if err != nil {
		return utils.BadRequest(c, "Cannot read uploaded file")
	}
	defer src.Close()

	stored, err := fc.Vault.Put(c.UserContext(), src)
	if err != nil {
		return utils.HandleError(c, fc.Log, err)
	}

	file := models.File{
		UUID:         uuid.NewString(),
		Filename:     stored.Key,
		OriginalName: header.Filename,
		MimeType:     stored.MimeType,
		Size:         stored.Size,
		Path:         stored.Key,
		UserID:       middleware.CurrentUser(c).ID,
	}
	if err := fc.Files.Record(c.UserContext(), &file); err != nil {
		fc.Vault.Remove(context.Background(), stored.Key)
		return utils.HandleError(c, fc.Log, err)
	}

	return utils.Created(c, UploadResponse{
		FileID:       file.ID,
		UUID:         file.UUID,
		Filename:     file.Filename,
		OriginalName: file.OriginalName,
		MimeType:     file.MimeType,
		Size:         file.Size,
		DownloadURL:  "/api/files/" + file.UUID,
	})
}

// Download godoc
// @Summary Download a file
// @Tags files
// @Produce octet-stream
// @Param uuid path string true "File UUID"
// @Success 200 {file} file
// @Failure 404 {object} utils.ErrorResponse
// @Router /files/{uuid} [get]
func (fc *FilesController) Download(c *fiber.Ctx) error {
	if _, err := uuid.Parse(c.Params("uuid")); err != nil {
		return utils.NotFound(c, "File not found")
	}
	file, err := fc.Files.FindByUUID(c.UserContext(), c.Params("uuid"))
	if err != nil {
		return utils.HandleError(c, fc.Log, err)
	}

	// The body is streamed after the handler returns, so the request timeout must not cancel it.
	rc, err := fc.Vault.Get(context.Background(), file.Path)
	if err != nil {
		return utils.HandleError(c, fc.Log, err)
	}

	c.Attachment(file.OriginalName)
	c.Set(fiber.HeaderContentType, file.MimeType)
	return c.SendStream(rc, int(file.Size))
}
