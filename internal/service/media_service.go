package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"github.com/h2non/filetype"
	"github.com/h2non/filetype/types"
	"github.com/maheshrc27/threadflow/pkg/utils"
)

// MaxImageSize bounds a single uploaded image.
const MaxImageSize = 8 << 20

var (
	ErrImageTooLarge   = fmt.Errorf("image exceeds %d MB", MaxImageSize>>20)
	ErrUnsupportedType = errors.New("unsupported image type")
)

var allowedImageTypes = map[string]bool{
	"jpg":  true,
	"png":  true,
	"gif":  true,
	"webp": true,
}

type MediaService interface {
	UploadImage(ctx context.Context, userID uuid.UUID, r io.Reader) (string, error)
}

type mediaService struct {
	store ObjectStore
}

func NewMediaService(store ObjectStore) MediaService {
	return &mediaService{store: store}
}

// UploadImage stores an image and returns the public URL that posts carry.
func (s *mediaService) UploadImage(ctx context.Context, userID uuid.UUID, r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxImageSize+1))
	if err != nil {
		return "", err
	}
	if len(data) > MaxImageSize {
		return "", ErrImageTooLarge
	}

	kind, err := filetype.Match(data)
	if err != nil || kind == types.Unknown || !allowedImageTypes[kind.Extension] {
		return "", ErrUnsupportedType
	}

	key, err := utils.GenerateObjectKey("images/"+userID.String(), kind.Extension)
	if err != nil {
		return "", err
	}

	if err := s.store.Put(ctx, key, data, kind.MIME.Value); err != nil {
		return "", err
	}

	slog.Info("image uploaded", "user_id", userID, "key", key, "size", len(data))
	return s.store.URL(key), nil
}
