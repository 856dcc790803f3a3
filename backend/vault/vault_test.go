package vault

import (
	"bytes"
	"context"
	"io"
	"os"
	"strings"
	"testing"

	"learnhub/backend/apperr"
	"learnhub/backend/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngBlob = []byte("\x89PNG\r\n\x1a\n" + strings.Repeat("x", 120))

func newLocalVault(t *testing.T, maxSize int64) (*Vault, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := NewLocalStore(dir)
	require.NoError(t, err)
	return New(store, maxSize, utils.NopLogger()), dir
}

func TestPutAndGet(t *testing.T) {
	v, _ := newLocalVault(t, 1024)
	ctx := context.Background()

	stored, err := v.Put(ctx, bytes.NewReader(pngBlob))
	require.NoError(t, err)
	assert.Equal(t, "image/png", stored.MimeType)
	assert.Equal(t, int64(len(pngBlob)), stored.Size)
	assert.True(t, strings.HasSuffix(stored.Key, ".png"))

	rc, err := v.Get(ctx, stored.Key)
	require.NoError(t, err)
	defer rc.Close()
	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, pngBlob, got)
}

func TestPutRejectsDisallowedType(t *testing.T) {
	v, dir := newLocalVault(t, 1024)

	_, err := v.Put(context.Background(), strings.NewReader("just some plain text"))
	require.Error(t, err)
	assert.Equal(t, apperr.ValidationFailed, apperr.KindOf(err))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestPutRejectsOversized(t *testing.T) {
	v, dir := newLocalVault(t, 64)

	_, err := v.Put(context.Background(), bytes.NewReader(pngBlob))
	require.Error(t, err)
	assert.Equal(t, apperr.ValidationFailed, apperr.KindOf(err))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "oversized blob must not be kept")
}

func TestPutRejectsEmpty(t *testing.T) {
	v, _ := newLocalVault(t, 64)
	_, err := v.Put(context.Background(), bytes.NewReader(nil))
	assert.Equal(t, apperr.ValidationFailed, apperr.KindOf(err))
}

func TestGetMissing(t *testing.T) {
	v, _ := newLocalVault(t, 64)
	_, err := v.Get(context.Background(), "nope.png")
	assert.Equal(t, apperr.NotFound, apperr.KindOf(err))
}

func TestRemoveIgnoresMissing(t *testing.T) {
	v, _ := newLocalVault(t, 1024)
	ctx := context.Background()
	stored, err := v.Put(ctx, bytes.NewReader(pngBlob))
	require.NoError(t, err)

	v.Remove(ctx, stored.Key)
	v.Remove(ctx, stored.Key)

	_, err = v.Get(ctx, stored.Key)
	assert.Equal(t, apperr.NotFound, apperr.KindOf(err))
}
