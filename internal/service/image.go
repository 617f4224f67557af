package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/plateful/backend/config"
)

// ImageService stores recipe images submitted as base64 data URIs. With a
// bucket configured images go to S3; otherwise they land in the local
// media directory served under /media/.
type ImageService struct {
	s3Config *config.S3Config
	mediaDir string
}

// NewImageService creates a new ImageService instance
func NewImageService(s3Config *config.S3Config, mediaDir string) *ImageService {
	return &ImageService{
		s3Config: s3Config,
		mediaDir: mediaDir,
	}
}

var imageExtensions = map[string]string{
	"image/png":  "png",
	"image/jpeg": "jpg",
	"image/gif":  "gif",
	"image/webp": "webp",
}

// StoreRecipeImage persists the submitted image and returns its URL. An
// already-stored URL (http, https or /media path) passes through
// unchanged so updates can keep the existing image.
func (s *ImageService) StoreRecipeImage(ctx context.Context, image string) (string, error) {
	if image == "" {
		return "", nil
	}
	if strings.HasPrefix(image, "http://") || strings.HasPrefix(image, "https://") || strings.HasPrefix(image, "/media/") {
		return image, nil
	}

	data, ext, err := decodeDataURI(image)
	if err != nil {
		return "", err
	}

	fileName := fmt.Sprintf("recipe-images/%s.%s", uuid.New().String(), ext)

	if s.s3Config != nil {
		return s.uploadToS3(ctx, data, fileName, ext)
	}
	return s.storeLocal(data, fileName)
}

func (s *ImageService) uploadToS3(ctx context.Context, data []byte, fileName, ext string) (string, error) {
	_, err := s.s3Config.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.s3Config.BucketName),
		Key:         aws.String(fileName),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("image/" + ext),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}
	return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", s.s3Config.BucketName, fileName), nil
}

func (s *ImageService) storeLocal(data []byte, fileName string) (string, error) {
	path := filepath.Join(s.mediaDir, filepath.FromSlash(fileName))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return "/media/" + fileName, nil
}

// decodeDataURI parses "data:image/<type>;base64,<payload>".
func decodeDataURI(uri string) ([]byte, string, error) {
	header, payload, found := strings.Cut(uri, ",")
	if !found || !strings.HasPrefix(header, "data:") || !strings.HasSuffix(header, ";base64") {
		return nil, "", newValidationError("image must be a base64 data URI")
	}

	mediaType := strings.TrimSuffix(strings.TrimPrefix(header, "data:"), ";base64")
	ext, ok := imageExtensions[mediaType]
	if !ok {
		return nil, "", newValidationError(fmt.Sprintf("unsupported image type %q", mediaType))
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", newValidationError("image payload is not valid base64")
	}
	return data, ext, nil
}
