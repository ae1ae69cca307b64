package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"github.com/google/uuid"

	"github.com/Dosada05/venue-system/storage"
)

const (
	MaxUploadSize = 8 << 20

	uploadMaxWidth  = 1920
	uploadMaxHeight = 1080
	uploadMaxPixels = 40_000_000
	uploadQuality   = 85
	uploadFolder    = "events"
)

var ErrUploadFailed = errors.New("failed to upload file")

type UploadService interface {
	UploadImage(ctx context.Context, filename string, reader io.Reader) (*storage.UploadResult, error)
	DeleteFiles(ctx context.Context, urls []string) (*DeleteFilesResult, error)
}

type DeleteSummary struct {
	Total      int `json:"total"`
	Successful int `json:"successful"`
	Failed     int `json:"failed"`
}

type DeleteFilesResult struct {
	Results []storage.DeleteResult `json:"results"`
	Summary DeleteSummary          `json:"summary"`
}

type uploadService struct {
	uploader storage.FileUploader
	logger   *slog.Logger
}

func NewUploadService(uploader storage.FileUploader, logger *slog.Logger) UploadService {
	return &uploadService{uploader: uploader, logger: logger}
}

func (s *uploadService) enabled() bool {
	_, disabled := s.uploader.(storage.Disabled)
	return s.uploader != nil && !disabled
}

func (s *uploadService) UploadImage(ctx context.Context, filename string, reader io.Reader) (*storage.UploadResult, error) {
	if !s.enabled() {
		return nil, ErrUploadsDisabled
	}

	data, err := io.ReadAll(io.LimitReader(reader, MaxUploadSize+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read: %w", ErrUploadFailed, err)
	}
	if len(data) == 0 {
		return nil, newValidationError("file", "file is empty")
	}
	if len(data) > MaxUploadSize {
		return nil, newValidationError("file", "file exceeds the 8 MB limit")
	}

	img, err := decodeImage(data, filename)
	if err != nil {
		return nil, err
	}

	img = downscale(img)
	buf := new(bytes.Buffer)
	if err := webp.Encode(buf, img, &webp.Options{Lossless: false, Quality: uploadQuality}); err != nil {
		return nil, fmt.Errorf("%w: encode webp: %w", ErrUploadFailed, err)
	}

	key := fmt.Sprintf("%s/%s.webp", uploadFolder, uuid.NewString())
	result, err := s.uploader.Upload(ctx, key, "image/webp", buf)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUploadFailed, err)
	}

	s.logger.InfoContext(ctx, "image uploaded",
		slog.String("key", result.Key),
		slog.Int("original_bytes", len(data)),
		slog.Int("stored_bytes", buf.Len()),
	)
	return result, nil
}

// decodeImage определяет формат по содержимому, затем по расширению.
// Размеры проверяются по заголовку до полного декодирования.
func decodeImage(data []byte, filename string) (image.Image, error) {
	var decodeConfig func(io.Reader) (image.Config, error)
	switch sniffImageFormat(data, filename) {
	case "jpeg":
		decodeConfig = jpeg.DecodeConfig
	case "png":
		decodeConfig = png.DecodeConfig
	case "webp":
		decodeConfig = webp.DecodeConfig
	default:
		return nil, newValidationError("file", "unsupported image format, use png, jpeg or webp")
	}

	cfg, err := decodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, newValidationError("file", "image could not be decoded")
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > uploadMaxPixels {
		return nil, newValidationError("file", "image dimensions are too large")
	}

	// EXIF-ориентация применяется к JPEG с телефонов.
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, newValidationError("file", "image could not be decoded")
	}
	return img, nil
}

func sniffImageFormat(data []byte, filename string) string {
	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	ct := http.DetectContentType(head)
	switch {
	case strings.Contains(ct, "jpeg"):
		return "jpeg"
	case strings.Contains(ct, "png"):
		return "png"
	case strings.Contains(ct, "webp"):
		return "webp"
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg":
		return "jpeg"
	case ".png":
		return "png"
	case ".webp":
		return "webp"
	}
	return ""
}

func downscale(img image.Image) image.Image {
	b := img.Bounds()
	if b.Dx() <= uploadMaxWidth && b.Dy() <= uploadMaxHeight {
		return img
	}
	return imaging.Fit(img, uploadMaxWidth, uploadMaxHeight, imaging.Lanczos)
}

func (s *uploadService) DeleteFiles(ctx context.Context, urls []string) (*DeleteFilesResult, error) {
	if !s.enabled() {
		return nil, ErrUploadsDisabled
	}
	if len(urls) == 0 {
		return nil, newValidationError("fileUrls", "at least one url is required")
	}

	results := storage.DeleteURLs(ctx, s.uploader, urls)
	summary := DeleteSummary{Total: len(results)}
	for _, r := range results {
		if r.Success {
			summary.Successful++
		} else {
			summary.Failed++
		}
	}
	if summary.Failed > 0 {
		s.logger.WarnContext(ctx, "some files were not deleted",
			slog.Int("failed", summary.Failed),
			slog.Int("total", summary.Total),
		)
	}
	return &DeleteFilesResult{Results: results, Summary: summary}, nil
}
