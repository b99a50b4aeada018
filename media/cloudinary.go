package media

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// Store saves generated media and returns a publicly reachable reference
type Store interface {
	Save(ctx context.Context, name string, r io.Reader) (string, error)
}

// CloudinaryStore uploads generated media to Cloudinary and hands back the
// secure delivery URL as the reference.
type CloudinaryStore struct {
	cld *cloudinary.Cloudinary
}

// NewCloudinaryStore builds a store from the CLOUDINARY_URL environment
// variable. Returns nil when the variable is unset so callers can run
// without media storage.
func NewCloudinaryStore() (*CloudinaryStore, error) {
	if os.Getenv("CLOUDINARY_URL") == "" {
		return nil, nil
	}
	cld, err := cloudinary.New()
	if err != nil {
		return nil, err
	}
	return &CloudinaryStore{cld: cld}, nil
}

// Save uploads the media under the given name. Audio lands in Cloudinary's
// video resource type; everything else is left to auto detection.
func (s *CloudinaryStore) Save(ctx context.Context, name string, r io.Reader) (string, error) {
	resourceType := "auto"
	if strings.HasSuffix(name, ".mp3") || strings.HasSuffix(name, ".mp4") {
		resourceType = "video"
	}
	publicID := strings.TrimSuffix(name, ".mp3")
	publicID = strings.TrimSuffix(publicID, ".mp4")

	res, err := s.cld.Upload.Upload(ctx, r, uploader.UploadParams{
		PublicID:     publicID,
		ResourceType: resourceType,
	})
	if err != nil {
		return "", err
	}
	return res.SecureURL, nil
}
