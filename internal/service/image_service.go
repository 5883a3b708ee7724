package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"path/filepath"
	"strings"
	"time"

	"github.com/dafibh/habitat/habitat-backend/internal/repository/storage"
	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	_ "golang.org/x/image/webp"
)

// Photo limits
const (
	MaxImageSize   = 5 << 20
	MinImageWidth  = 50
	MinImageHeight = 50

	ThumbnailSize    = 200
	DisplayMaxWidth  = 1280
	DisplayMaxHeight = 960

	PhotoURLExpiry = time.Hour
	jpegQuality    = 85
)

var (
	ErrImageTooLarge             = errors.New("file too large. Maximum size is 5MB")
	ErrInvalidFormat             = errors.New("invalid format. Supported: JPEG, PNG, WebP")
	ErrImageTooSmall             = errors.New("image too small. Minimum 50x50 pixels")
	ErrInvalidImageData          = errors.New("invalid image data")
	ErrImageStorageNotConfigured = errors.New("image storage not configured")
)

var photoExtensions = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".webp": true}

// photoVariant is one stored rendition of a space photo
type photoVariant struct {
	suffix string
	render func(image.Image) image.Image
}

var photoVariants = []photoVariant{
	{"thumb", func(img image.Image) image.Image {
		return imaging.Fill(img, ThumbnailSize, ThumbnailSize, imaging.Center, imaging.Lanczos)
	}},
	{"display", func(img image.Image) image.Image {
		return imaging.Fit(img, DisplayMaxWidth, DisplayMaxHeight, imaging.Lanczos)
	}},
	{"original", func(img image.Image) image.Image { return img }},
}

// SpacePhoto holds the object paths of a stored photo. The display path is
// what a common space records.
type SpacePhoto struct {
	Thumb    string
	Display  string
	Original string
}

func (p SpacePhoto) paths() []string {
	return []string{p.Thumb, p.Display, p.Original}
}

// photoFromDisplayPath rebuilds the variant paths from a recorded display path
func photoFromDisplayPath(display string) (SpacePhoto, bool) {
	base, ok := strings.CutSuffix(display, "_display.jpg")
	if !ok || base == "" {
		return SpacePhoto{}, false
	}
	return SpacePhoto{Thumb: base + "_thumb.jpg", Display: display, Original: base + "_original.jpg"}, true
}

// ImageService renders common-space photos and keeps them in object storage
type ImageService struct {
	store storage.ImageRepository
}

// NewImageService creates an ImageService. A nil store disables uploads.
func NewImageService(store storage.ImageRepository) *ImageService {
	return &ImageService{store: store}
}

func (s *ImageService) Enabled() bool {
	return s != nil && s.store != nil
}

// decodePhoto checks size, extension and dimensions. EXIF orientation is applied.
func decodePhoto(data []byte, filename string) (image.Image, error) {
	if len(data) > MaxImageSize {
		return nil, ErrImageTooLarge
	}
	if !photoExtensions[strings.ToLower(filepath.Ext(filename))] {
		return nil, ErrInvalidFormat
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, ErrInvalidImageData
	}
	if b := img.Bounds(); b.Dx() < MinImageWidth || b.Dy() < MinImageHeight {
		return nil, ErrImageTooSmall
	}
	return img, nil
}

// StorePhoto renders every variant as JPEG and uploads them. A failed
// upload removes the variants already stored.
func (s *ImageService) StorePhoto(ctx context.Context, buildingID, spaceID uuid.UUID, data []byte, filename string) (SpacePhoto, error) {
	if !s.Enabled() {
		return SpacePhoto{}, ErrImageStorageNotConfigured
	}
	img, err := decodePhoto(data, filename)
	if err != nil {
		return SpacePhoto{}, err
	}

	base := fmt.Sprintf("buildings/%s/common-spaces/%s/%s", buildingID, spaceID, uuid.NewString())
	var stored []string
	for _, v := range photoVariants {
		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, v.render(img), &jpeg.Options{Quality: jpegQuality}); err != nil {
			s.remove(ctx, stored)
			return SpacePhoto{}, fmt.Errorf("encode %s variant: %w", v.suffix, err)
		}

		path := base + "_" + v.suffix + ".jpg"
		if err := s.store.Put(ctx, path, buf.Bytes(), "image/jpeg"); err != nil {
			s.remove(ctx, stored)
			return SpacePhoto{}, fmt.Errorf("upload %s variant: %w", v.suffix, err)
		}
		stored = append(stored, path)
	}

	photo, _ := photoFromDisplayPath(base + "_display.jpg")
	return photo, nil
}

// DeletePhoto removes every variant of the photo recorded as displayPath.
// Paths not produced by StorePhoto are ignored.
func (s *ImageService) DeletePhoto(ctx context.Context, displayPath string) error {
	photo, ok := photoFromDisplayPath(displayPath)
	if !ok {
		return nil
	}
	if !s.Enabled() {
		return ErrImageStorageNotConfigured
	}
	return s.store.DeleteMany(ctx, photo.paths())
}

// SignedURL returns a short-lived GET URL for a stored object
func (s *ImageService) SignedURL(ctx context.Context, objectPath string) (string, error) {
	if !s.Enabled() {
		return "", ErrImageStorageNotConfigured
	}
	return s.store.PresignGet(ctx, objectPath, PhotoURLExpiry)
}

func (s *ImageService) remove(ctx context.Context, paths []string) {
	if len(paths) == 0 {
		return
	}
	if err := s.store.DeleteMany(ctx, paths); err != nil {
		log.Warn().Err(err).Strs("paths", paths).Msg("Failed to remove partial photo upload")
	}
}
