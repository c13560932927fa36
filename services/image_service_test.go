package services

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"mime/multipart"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/atelier-jewels/atelier-api/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodeTestImage(t *testing.T, w, h int, format string) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x += 10 {
		img.Set(x, h/2, color.RGBA{R: 200, G: 160, B: 40, A: 255})
	}

	var buf bytes.Buffer
	switch format {
	case "jpeg":
		require.NoError(t, jpeg.Encode(&buf, img, nil))
	default:
		require.NoError(t, png.Encode(&buf, img))
	}
	return buf.Bytes()
}

func fileHeaderFor(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="image"; filename="`+filename+`"`)
	part, err := writer.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	form, err := multipart.NewReader(body, writer.Boundary()).ReadForm(int64(len(content)) + 1024)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })
	require.Len(t, form.File["image"], 1)
	return form.File["image"][0]
}

func newTestImageService() (*S3ImageService, *MockS3Service) {
	store := NewMockS3Service()
	svc := NewImageService(store)
	svc.now = func() time.Time { return time.Unix(1760000000, 0) }
	svc.newID = func() string { return "fixed-id" }
	return svc, store
}

func TestS3ImageService_UploadResizesLargeImages(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestImageService()

	key, err := svc.UploadImage(ctx, fileHeaderFor(t, "wax model.png", encodeTestImage(t, 3200, 1600, "png")))
	require.NoError(t, err)
	assert.Equal(t, "uploads/1760000000_fixed-id_wax_model.png", key)

	body, contentType, ok := store.Object(key)
	require.True(t, ok)
	assert.Equal(t, "image/png", contentType)

	cfg, format, err := image.DecodeConfig(bytes.NewReader(body))
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	assert.Equal(t, 1600, cfg.Width)
	assert.Equal(t, 800, cfg.Height)
}

func TestS3ImageService_UploadKeepsSmallImages(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestImageService()

	key, err := svc.UploadImage(ctx, fileHeaderFor(t, "sketch.jpg", encodeTestImage(t, 400, 300, "jpeg")))
	require.NoError(t, err)

	body, contentType, ok := store.Object(key)
	require.True(t, ok)
	assert.Equal(t, "image/jpeg", contentType)

	cfg, format, err := image.DecodeConfig(bytes.NewReader(body))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 400, cfg.Width)
	assert.Equal(t, 300, cfg.Height)
}

func TestS3ImageService_UploadRejectsInvalidFiles(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestImageService()

	t.Run("Wrong extension", func(t *testing.T) {
		_, err := svc.UploadImage(ctx, fileHeaderFor(t, "notes.txt", []byte("hello")))
		var uploadErr *utils.FileUploadError
		require.ErrorAs(t, err, &uploadErr)
		assert.Equal(t, "INVALID_FILE_FORMAT", uploadErr.Code)
	})

	t.Run("Not an image", func(t *testing.T) {
		_, err := svc.UploadImage(ctx, fileHeaderFor(t, "fake.png", []byte("definitely not a png")))
		var uploadErr *utils.FileUploadError
		require.ErrorAs(t, err, &uploadErr)
		assert.Equal(t, "INVALID_IMAGE", uploadErr.Code)
	})

	assert.Empty(t, store.Keys())
}

func TestS3ImageService_UploadStorageFailure(t *testing.T) {
	svc, store := newTestImageService()
	store.FailUploads = true

	_, err := svc.UploadImage(context.Background(), fileHeaderFor(t, "ring.png", encodeTestImage(t, 20, 20, "png")))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to upload image")
}

func TestS3ImageService_URLAndDelete(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestImageService()

	url, err := svc.GetImageURL(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, url)

	key, err := svc.UploadImage(ctx, fileHeaderFor(t, "ring.png", encodeTestImage(t, 20, 20, "png")))
	require.NoError(t, err)

	url, err = svc.GetImageURL(ctx, key)
	require.NoError(t, err)
	assert.Contains(t, url, key)

	require.NoError(t, svc.DeleteImage(ctx, key))
	_, _, ok := store.Object(key)
	assert.False(t, ok)

	_, err = svc.GetImageURL(ctx, key)
	assert.Error(t, err)
}

func TestMockImageService(t *testing.T) {
	ctx := context.Background()
	mock := NewMockImageService()

	key, err := mock.UploadImage(ctx, fileHeaderFor(t, "ring.png", []byte("png bytes")))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(key, "uploads/mock_"))
	assert.True(t, strings.HasSuffix(key, "_ring.png"))
	assert.True(t, mock.ImageExists(key))

	url, err := mock.GetImageURL(ctx, key)
	require.NoError(t, err)
	assert.Contains(t, url, "mock=true")

	require.NoError(t, mock.DeleteImage(ctx, key))
	assert.False(t, mock.ImageExists(key))
}

func TestS3ImageService_SameNameUploadsGetDistinctKeys(t *testing.T) {
	ctx := context.Background()
	store := NewMockS3Service()
	svc := NewImageService(store)
	svc.now = func() time.Time { return time.Unix(1700000000, 0) }

	content := encodeTestImage(t, 10, 10, "png")
	first, err := svc.UploadImage(ctx, fileHeaderFor(t, "IMG_0001.png", content))
	require.NoError(t, err)
	second, err := svc.UploadImage(ctx, fileHeaderFor(t, "IMG_0001.png", content))
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.Len(t, store.Keys(), 2, "the second upload must not overwrite the first")
}

func TestMockImageService_SameNameUploadsGetDistinctKeys(t *testing.T) {
	ctx := context.Background()
	mock := NewMockImageService()

	first, err := mock.UploadImage(ctx, fileHeaderFor(t, "photo.png", []byte("one")))
	require.NoError(t, err)
	second, err := mock.UploadImage(ctx, fileHeaderFor(t, "photo.png", []byte("two")))
	require.NoError(t, err)
	require.NotEqual(t, first, second)

	require.NoError(t, mock.DeleteImage(ctx, second))
	assert.True(t, mock.ImageExists(first), "deleting one upload leaves the other")
}
