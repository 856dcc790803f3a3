// Package vault stores uploaded blobs on local disk or in a GCS bucket and enforces the
// upload policy (size limit and content-sniffed MIME allow-list).
package vault

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"learnhub/backend/apperr"
	"learnhub/backend/config"
	"learnhub/backend/utils"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// Store is a flat key/blob namespace.
type Store interface {
	Save(ctx context.Context, key string, r io.Reader, contentType string) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// AllowedTypes is the upload allow-list, matched against the sniffed content type.
var AllowedTypes = []string{
	"image/jpeg",
	"image/png",
	"image/gif",
	"video/mp4",
	"video/webm",
	"application/pdf",
	"application/msword",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

// sniffLen matches mimetype's default read limit.
const sniffLen = 3072

type Vault struct {
	store   Store
	maxSize int64
	log     *utils.Logger
}

func New(store Store, maxSize int64, log *utils.Logger) *Vault {
	return &Vault{store: store, maxSize: maxSize, log: log.With("component", "vault")}
}

// Open builds the backend selected by FILE_STORAGE.
func Open(ctx context.Context, cfg *config.Config, log *utils.Logger) (*Vault, error) {
	var store Store
	switch cfg.FileStorage {
	case "", "local":
		local, err := NewLocalStore(cfg.UploadDir)
		if err != nil {
			return nil, err
		}
		store = local
	case "gcs":
		gcs, err := NewGCSStore(ctx, cfg.GCSBucket)
		if err != nil {
			return nil, err
		}
		store = gcs
	default:
		return nil, fmt.Errorf("unsupported FILE_STORAGE %q", cfg.FileStorage)
	}
	log.Info("File storage ready", "backend", cfg.FileStorage, "max_size", cfg.MaxFileSize)
	return New(store, cfg.MaxFileSize, log), nil
}

func (v *Vault) MaxSize() int64 { return v.maxSize }

// Stored describes a blob accepted by Put.
type Stored struct {
	Key      string
	MimeType string
	Size     int64
}

// Allowed reports whether the sniffed type is on the allow-list.
func Allowed(mt *mimetype.MIME) bool {
	for _, t := range AllowedTypes {
		if mt.Is(t) {
			return true
		}
	}
	return false
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

// Put sniffs r, rejects disallowed or oversized content and stores it under a fresh key.
func (v *Vault) Put(ctx context.Context, r io.Reader) (*Stored, error) {
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, apperr.Wrap(apperr.Unexpected, "Could not read upload", err)
	}
	head = head[:n]
	if n == 0 {
		return nil, apperr.New(apperr.ValidationFailed, "File is empty")
	}

	mt := mimetype.Detect(head)
	if !Allowed(mt) {
		return nil, apperr.New(apperr.ValidationFailed, fmt.Sprintf("File type %s is not allowed", mt.String()))
	}

	key := uuid.NewString() + mt.Extension()
	body := &countingReader{r: io.LimitReader(io.MultiReader(bytes.NewReader(head), r), v.maxSize+1)}
	if err := v.store.Save(ctx, key, body, mt.String()); err != nil {
		return nil, apperr.Wrap(apperr.Unexpected, "Could not store file", err)
	}
	if body.n > v.maxSize {
		if err := v.store.Delete(ctx, key); err != nil {
			v.log.Warn("could not remove oversized upload", "key", key, "error", err)
		}
		return nil, apperr.New(apperr.ValidationFailed, fmt.Sprintf("File exceeds the %d byte limit", v.maxSize))
	}
	return &Stored{Key: key, MimeType: mt.String(), Size: body.n}, nil
}

// Get opens a stored blob. Missing keys are NotFound.
func (v *Vault) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	rc, err := v.store.Open(ctx, key)
	if err != nil {
		if errors.Is(err, ErrNotExist) {
			return nil, apperr.Wrap(apperr.NotFound, "File not found", err)
		}
		return nil, apperr.Wrap(apperr.Unexpected, "Could not open file", err)
	}
	return rc, nil
}

// Remove deletes a blob; used to roll back an upload whose metadata could not be recorded.
func (v *Vault) Remove(ctx context.Context, key string) {
	if err := v.store.Delete(ctx, key); err != nil && !errors.Is(err, ErrNotExist) {
		v.log.Warn("could not remove blob", "key", key, "error", err)
	}
}

// Close releases the backend's client, if it holds one.
func (v *Vault) Close() error {
	if c, ok := v.store.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

var ErrNotExist = errors.New("blob does not exist")
