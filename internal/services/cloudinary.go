package services

import (
	"context"
	"fmt"
	"io"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// AvatarStore uploads an image and returns its public URL.
type AvatarStore interface {
	Upload(ctx context.Context, file io.Reader, username string) (string, error)
}

type CloudinaryService struct {
	cld *cloudinary.Cloudinary
}

func NewCloudinaryService(cloudName, apiKey, apiSecret string) (*CloudinaryService, error) {
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Cloudinary: %w", err)
	}
	cld.Config.URL.Secure = true

	return &CloudinaryService{
		cld: cld,
	}, nil
}

// AvatarPublicID is where a user's avatar lives. Uploads overwrite it.
func AvatarPublicID(username string) string {
	return "RestApp/" + username
}

// Upload stores the image under the user's avatar id, cropped to 250x250.
func (s *CloudinaryService) Upload(ctx context.Context, file io.Reader, username string) (string, error) {
	// Read file content
	fileBytes, err := io.ReadAll(file)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	uploadResult, err := s.cld.Upload.Upload(ctx, fileBytes, uploader.UploadParams{
		PublicID:       AvatarPublicID(username),
		Overwrite:      api.Bool(true),
		Transformation: "c_fill,h_250,w_250",
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to Cloudinary: %w", err)
	}
	if uploadResult.Error.Message != "" {
		return "", fmt.Errorf("cloudinary: %s", uploadResult.Error.Message)
	}

	return uploadResult.SecureURL, nil
}
