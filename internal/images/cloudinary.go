// Package images handles release of post images stored in Cloudinary.
// Uploads happen directly from the web client; the backend only destroys
// assets when their post is deleted.
package images

import (
	"context"
	"fmt"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"go.uber.org/zap"
)

// CloudinaryStore deletes assets by public id.
type CloudinaryStore struct {
	cld    *cloudinary.Cloudinary
	logger *zap.Logger
}

// NewCloudinaryStore builds a store from a CLOUDINARY_URL-style credential string.
func NewCloudinaryStore(url string, logger *zap.Logger) (*CloudinaryStore, error) {
	cld, err := cloudinary.NewFromURL(url)
	if err != nil {
		return nil, fmt.Errorf("initializing cloudinary: %w", err)
	}
	return &CloudinaryStore{cld: cld, logger: logger}, nil
}

// Destroy removes the asset with the given public id. An already-deleted
// asset is not an error.
func (s *CloudinaryStore) Destroy(ctx context.Context, publicID string) error {
	resp, err := s.cld.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: publicID})
	if err != nil {
		return fmt.Errorf("destroying asset %s: %w", publicID, err)
	}
	if resp.Result != "ok" && resp.Result != "not found" {
		return fmt.Errorf("destroying asset %s: %s", publicID, resp.Result)
	}
	s.logger.Info("released post image", zap.String("public_id", publicID))
	return nil
}
