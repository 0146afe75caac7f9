package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/google/uuid"
)

// Storage persists an uploaded file and returns its public URL
type Storage interface {
	Save(ctx context.Context, filename string, r io.Reader) (string, error)
}

// LocalStorage writes files under dir. The router serves dir at /media.
type LocalStorage struct {
	dir     string
	baseURL string
}

func NewLocalStorage(dir, baseURL string) (*LocalStorage, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create media dir: %w", err)
	}
	return &LocalStorage{
		dir:     dir,
		baseURL: strings.TrimRight(baseURL, "/"),
	}, nil
}

func (s *LocalStorage) Dir() string {
	return s.dir
}

func (s *LocalStorage) Save(ctx context.Context, filename string, r io.Reader) (string, error) {
	name := StoredName(filename)

	f, err := os.OpenFile(filepath.Join(s.dir, name), os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0644)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to close file: %w", err)
	}

	return s.baseURL + "/media/" + name, nil
}

// StoredName prefixes the client's base name with a uuid so uploads never
// collide and never escape the media directory
func StoredName(filename string) string {
	base := filepath.Base(strings.ReplaceAll(filename, "\\", "/"))
	if base == "." || base == "/" || base == ".." {
		base = ""
	}
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)

	if base == "" {
		return uuid.NewString()
	}
	return uuid.NewString() + "_" + base
}

// CloudinaryStorage uploads to Cloudinary and returns the secure URL
type CloudinaryStorage struct {
	cld    *cloudinary.Cloudinary
	folder string
}

// NewCloudinaryStorage expects cloudinary://<api_key>:<api_secret>@<cloud_name>
func NewCloudinaryStorage(cloudinaryURL, folder string) (*CloudinaryStorage, error) {
	u, err := url.Parse(cloudinaryURL)
	if err != nil {
		return nil, fmt.Errorf("invalid CLOUDINARY_URL: %w", err)
	}
	if u.Scheme != "cloudinary" || u.Host == "" || u.User == nil || u.User.Username() == "" {
		return nil, fmt.Errorf("invalid CLOUDINARY_URL: want cloudinary://<api_key>:<api_secret>@<cloud_name>")
	}
	if secret, ok := u.User.Password(); !ok || secret == "" {
		return nil, fmt.Errorf("invalid CLOUDINARY_URL: missing api secret")
	}

	cld, err := cloudinary.NewFromURL(cloudinaryURL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Cloudinary: %w", err)
	}
	return &CloudinaryStorage{cld: cld, folder: folder}, nil
}

func (s *CloudinaryStorage) Save(ctx context.Context, filename string, r io.Reader) (string, error) {
	name := strings.TrimSuffix(StoredName(filename), filepath.Ext(filename))

	result, err := s.cld.Upload.Upload(ctx, r, uploader.UploadParams{
		Folder:       s.folder,
		PublicID:     name,
		ResourceType: "auto",
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to Cloudinary: %w", err)
	}
	if result.Error.Message != "" {
		return "", fmt.Errorf("cloudinary rejected upload: %s", result.Error.Message)
	}

	return result.SecureURL, nil
}
