package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Baaaki/instagallery/internal/metrics"
	"github.com/Baaaki/instagallery/internal/models"
	"github.com/Baaaki/instagallery/internal/storage"
	"github.com/Baaaki/instagallery/pkg/logger"
	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"
)

type UploadResult struct {
	URL         string           `json:"url"`
	MediaType   models.MediaType `json:"media_type"`
	ContentType string           `json:"content_type"`
	Size        int64            `json:"size"`
}

type MediaService struct {
	store      storage.Storage
	filterRepo FilterStore
	maxSize    int64
}

func NewMediaService(store storage.Storage, filterRepo FilterStore, maxSize int64) *MediaService {
	return &MediaService{
		store:      store,
		filterRepo: filterRepo,
		maxSize:    maxSize,
	}
}

func (s *MediaService) MaxSize() int64 {
	return s.maxSize
}

// Upload stores an image or video and returns where it can be fetched.
// The content type is sniffed from the bytes, never taken from the client.
func (s *MediaService) Upload(ctx context.Context, filename string, r io.Reader) (*UploadResult, error) {
	start := time.Now()

	// 1. Read with a hard cap
	data, err := io.ReadAll(io.LimitReader(r, s.maxSize+1))
	if err != nil {
		metrics.Uploads.WithLabelValues("error").Inc()
		return nil, models.NewInternalError(err)
	}
	if len(data) == 0 {
		metrics.Uploads.WithLabelValues("rejected").Inc()
		return nil, models.NewValidationError("file is empty")
	}
	if int64(len(data)) > s.maxSize {
		metrics.Uploads.WithLabelValues("rejected").Inc()
		return nil, models.NewValidationError(fmt.Sprintf("file exceeds %d bytes", s.maxSize))
	}

	// 2. Sniff content type
	mtype := mimetype.Detect(data)
	var mediaType models.MediaType
	switch {
	case mtype.Is("image/svg+xml"):
		// scriptable, served from our origin
	case strings.HasPrefix(mtype.String(), "image/"):
		mediaType = models.MediaTypeImage
	case strings.HasPrefix(mtype.String(), "video/"):
		mediaType = models.MediaTypeVideo
	}
	if mediaType == "" {
		metrics.Uploads.WithLabelValues("rejected").Inc()
		logger.Log.Warn("Upload rejected: unsupported type",
			zap.String("filename", filename),
			zap.String("content_type", mtype.String()),
		)
		return nil, models.NewValidationError("only image and video files are allowed")
	}

	// 3. Store
	url, err := s.store.Save(ctx, filename, bytes.NewReader(data))
	if err != nil {
		metrics.Uploads.WithLabelValues("error").Inc()
		logger.Log.Error("Failed to store upload",
			zap.String("filename", filename),
			zap.Error(err),
		)
		return nil, models.NewInternalError(err)
	}

	metrics.Uploads.WithLabelValues("success").Inc()
	logger.Log.Info("Media uploaded",
		zap.String("url", url),
		zap.String("content_type", mtype.String()),
		zap.Int("size", len(data)),
		zap.Duration("total_duration", time.Since(start)),
	)

	return &UploadResult{
		URL:         url,
		MediaType:   mediaType,
		ContentType: mtype.String(),
		Size:        int64(len(data)),
	}, nil
}

func (s *MediaService) ListFilters(ctx context.Context) ([]models.Filter, error) {
	filters, err := s.filterRepo.ListFilters(ctx)
	if err != nil {
		logger.Log.Error("Failed to list filters", zap.Error(err))
		return nil, models.NewInternalError(err)
	}
	return filters, nil
}
