package service_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/Baaaki/instagallery/internal/models"
	"github.com/Baaaki/instagallery/internal/service"
	"github.com/Baaaki/instagallery/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryStorage struct {
	saved map[string][]byte
	err   error
}

func (m *memoryStorage) Save(ctx context.Context, filename string, r io.Reader) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	if m.saved == nil {
		m.saved = map[string][]byte{}
	}
	m.saved[filename] = data
	return "https://cdn.test/" + filename, nil
}

type stubFilters struct {
	filters []models.Filter
	err     error
}

func (s stubFilters) ListFilters(ctx context.Context) ([]models.Filter, error) {
	return s.filters, s.err
}

func (s stubFilters) ExistingIDs(ctx context.Context, ids []uint) ([]uint, error) {
	return nil, s.err
}

var (
	pngBytes = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), make([]byte, 64)...)
	mp4Bytes = append([]byte("\x00\x00\x00\x18ftypmp42\x00\x00\x00\x00mp42isom"), make([]byte, 64)...)
)

func TestMediaService_Upload(t *testing.T) {
	logger.Init(false)

	tests := []struct {
		name      string
		data      []byte
		wantKind  models.ErrorKind
		wantMedia models.MediaType
	}{
		{name: "png", data: pngBytes, wantMedia: models.MediaTypeImage},
		{name: "mp4", data: mp4Bytes, wantMedia: models.MediaTypeVideo},
		{name: "plain text", data: []byte("just some words"), wantKind: models.KindValidationFailed},
		{name: "svg", data: []byte(`<svg xmlns="http://www.w3.org/2000/svg"><script>alert(1)</script></svg>`), wantKind: models.KindValidationFailed},
		{name: "empty", data: nil, wantKind: models.KindValidationFailed},
		{name: "too large", data: append(pngBytes, make([]byte, 1024)...), wantKind: models.KindValidationFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &memoryStorage{}
			svc := service.NewMediaService(store, stubFilters{}, 512)

			result, err := svc.Upload(context.Background(), "upload.bin", bytes.NewReader(tt.data))

			if tt.wantKind != "" {
				assert.Equal(t, tt.wantKind, models.KindOf(err))
				assert.Empty(t, store.saved, "rejected uploads are never stored")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantMedia, result.MediaType)
			assert.Equal(t, "https://cdn.test/upload.bin", result.URL)
			assert.Equal(t, int64(len(tt.data)), result.Size)
			assert.Equal(t, tt.data, store.saved["upload.bin"])
		})
	}
}

func TestMediaService_StorageFailureIsInternal(t *testing.T) {
	logger.Init(false)
	svc := service.NewMediaService(&memoryStorage{err: errors.New("bucket gone")}, stubFilters{}, 1024)

	_, err := svc.Upload(context.Background(), "a.png", bytes.NewReader(pngBytes))

	assert.Equal(t, models.KindInternal, models.KindOf(err))
	assert.EqualError(t, err, "Internal server error: bucket gone")
}

func TestMediaService_ListFilters(t *testing.T) {
	logger.Init(false)
	svc := service.NewMediaService(&memoryStorage{}, stubFilters{filters: []models.Filter{{ID: 1, Name: "Juno"}}}, 1024)

	filters, err := svc.ListFilters(context.Background())
	require.NoError(t, err)
	assert.Len(t, filters, 1)

	failing := service.NewMediaService(&memoryStorage{}, stubFilters{err: errors.New("db down")}, 1024)
	_, err = failing.ListFilters(context.Background())
	assert.Equal(t, models.KindInternal, models.KindOf(err))
}
