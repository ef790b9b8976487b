package services

import (
	"bytes"
	"image"
	"image/png"
	"mime/multipart"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/yigit/kebele/internal/app/rules"
	"github.com/yigit/kebele/internal/app/services/memstore"
)

type (
	memApplications   = memstore.Applications
	memUsers          = memstore.Users
	memTokens         = memstore.Tokens
	memStorage        = memstore.Storage
	recordingNotifier = memstore.Notifier
)

var (
	newMemApplications = memstore.NewApplications
	newMemUsers        = memstore.NewUsers
	newMemTokens       = memstore.NewTokens
	newMemStorage      = memstore.NewStorage
)

// fileHeader builds a real multipart.FileHeader by round-tripping a form.
func fileHeader(t *testing.T, field, filename string, content []byte) *multipart.FileHeader {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(&body, w.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })
	return form.File[field][0]
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}

func newTestUploads(storage *memStorage) *UploadHandler {
	return NewUploadHandler(storage, rules.DefaultPhotoLimits(), 1<<20, zerolog.Nop())
}
