package services

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"time"

	"github.com/atelier-jewels/atelier-api/logger"
	"github.com/atelier-jewels/atelier-api/utils"
	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MaxImageDimension bounds the longest side of a stored image
const MaxImageDimension = 1600

// ImageService handles all image-related operations including upload, retrieval, and deletion
type ImageService interface {
	// UploadImage validates, normalizes and stores an image, returns the storage key
	UploadImage(ctx context.Context, fileHeader *multipart.FileHeader) (string, error)

	// GetImageURL generates a URL for accessing an uploaded image
	GetImageURL(ctx context.Context, imageKey string) (string, error)

	// DeleteImage removes an image from storage
	DeleteImage(ctx context.Context, imageKey string) error
}

// S3ImageService implements ImageService using AWS S3 for storage
type S3ImageService struct {
	s3Service S3Interface
	now       func() time.Time
	newID     func() string
}

// NewImageService creates an image service storing into s3Service
func NewImageService(s3Service S3Interface) *S3ImageService {
	return &S3ImageService{s3Service: s3Service, now: time.Now, newID: uuid.NewString}
}

// UploadImage validates the upload, re-encodes it to fit MaxImageDimension
// and stores it under uploads/<unix timestamp>_<uuid>_<name>, so uploads
// sharing a name never overwrite each other
func (s *S3ImageService) UploadImage(ctx context.Context, fileHeader *multipart.FileHeader) (string, error) {
	if err := utils.ValidateImageFile(fileHeader); err != nil {
		return "", err
	}
	contentType, _ := utils.ContentTypeFor(fileHeader.Filename)

	content, err := utils.ReadUploadedFile(fileHeader)
	if err != nil {
		return "", err
	}

	normalized, err := normalizeImage(content, contentType)
	if err != nil {
		return "", err
	}

	key := fmt.Sprintf("uploads/%d_%s_%s", s.now().Unix(), s.newID(), utils.SafeFilename(fileHeader.Filename))
	if err := s.s3Service.UploadObject(ctx, key, contentType, normalized); err != nil {
		return "", fmt.Errorf("failed to upload image: %w", err)
	}

	logger.FromCtx(ctx).Info("image uploaded",
		zap.String("key", key),
		zap.Int("original_bytes", len(content)),
		zap.Int("stored_bytes", len(normalized)),
	)
	return key, nil
}

// normalizeImage decodes content, applies EXIF orientation and shrinks it
// to fit MaxImageDimension. Smaller images keep their size.
func normalizeImage(content []byte, contentType string) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(content), imaging.AutoOrientation(true))
	if err != nil {
		return nil, &utils.FileUploadError{
			Code:    "INVALID_IMAGE",
			Message: "File could not be decoded as an image",
		}
	}

	b := img.Bounds()
	if b.Dx() > MaxImageDimension || b.Dy() > MaxImageDimension {
		img = imaging.Fit(img, MaxImageDimension, MaxImageDimension, imaging.Lanczos)
	}

	format := imaging.PNG
	if contentType == "image/jpeg" {
		format = imaging.JPEG
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, format, imaging.JPEGQuality(90)); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}

// GetImageURL generates a presigned URL for accessing an image
func (s *S3ImageService) GetImageURL(ctx context.Context, imageKey string) (string, error) {
	if imageKey == "" {
		return "", nil
	}

	url, err := s.s3Service.GetPresignedURL(ctx, imageKey)
	if err != nil {
		return "", fmt.Errorf("failed to generate image URL: %w", err)
	}
	return url, nil
}

// DeleteImage deletes an image from S3
func (s *S3ImageService) DeleteImage(ctx context.Context, imageKey string) error {
	if imageKey == "" {
		return nil
	}

	if err := s.s3Service.DeleteFile(ctx, imageKey); err != nil {
		return fmt.Errorf("failed to delete image: %w", err)
	}
	return nil
}
