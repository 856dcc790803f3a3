package routes

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"learnhub/backend/models"
	"learnhub/backend/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngBlob = []byte("\x89PNG\r\n\x1a\n" + strings.Repeat("x", 200))

func uploadRequest(t *testing.T, token, filename string, content []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest("POST", "/api/files", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func TestUploadAndDownload(t *testing.T) {
	s := newServer(t, testConfig())
	alice := testutil.SeedUser(t, s.db, "alice", models.RoleStudent)

	resp, env := s.send(t, uploadRequest(t, s.token(t, alice), "diagram.png", pngBlob))
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var up struct {
		UUID         string `json:"uuid"`
		OriginalName string `json:"originalName"`
		MimeType     string `json:"mimeType"`
		Size         int64  `json:"size"`
		DownloadURL  string `json:"downloadUrl"`
	}
	decode(t, env, &up)
	assert.Equal(t, "diagram.png", up.OriginalName)
	assert.Equal(t, "image/png", up.MimeType)
	assert.Equal(t, int64(len(pngBlob)), up.Size)
	assert.Equal(t, "/api/files/"+up.UUID, up.DownloadURL)

	dl, err := s.app.Test(httptest.NewRequest("GET", up.DownloadURL, nil), -1)
	require.NoError(t, err)
	defer dl.Body.Close()
	require.Equal(t, fiber.StatusOK, dl.StatusCode)
	assert.Equal(t, "image/png", dl.Header.Get(fiber.HeaderContentType))
	assert.Contains(t, dl.Header.Get(fiber.HeaderContentDisposition), `attachment; filename="diagram.png"`)
	body, err := io.ReadAll(dl.Body)
	require.NoError(t, err)
	assert.Equal(t, pngBlob, body)
}

func TestUploadRejections(t *testing.T) {
	s := newServer(t, testConfig())
	alice := testutil.SeedUser(t, s.db, "alice", models.RoleStudent)
	tok := s.token(t, alice)

	resp, _ := s.send(t, uploadRequest(t, "", "diagram.png", pngBlob))
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp, _ = s.send(t, uploadRequest(t, tok, "notes.txt", []byte("just some plain text")))
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	big := append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte("x"), 65*1024)...)
	resp, _ = s.send(t, uploadRequest(t, tok, "huge.png", big))
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	assert.Zero(t, testutil.Count(t, s.db, &models.File{}, ""))
}

func TestDownloadUnknownFile(t *testing.T) {
	s := newServer(t, testConfig())

	resp, _ := s.do(t, "GET", "/api/files/4f8e2c1a-0000-4000-8000-000000000000", "", nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp, _ = s.do(t, "GET", "/api/files/not-a-uuid", "", nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}
