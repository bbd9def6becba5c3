package service

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"log/slog"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"mime"
	"net/http"
	"strings"

	"atelier/internal/config"
	"atelier/internal/models"
	"atelier/internal/observability"
	"atelier/internal/storage"

	"github.com/chai2010/webp"
	"github.com/google/uuid"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

const (
	DefaultImageMaxUploadSizeMB = 10
	DefaultImageMaxDimension    = 2048
	DefaultWebPQuality          = 82
	// DefaultImageMaxPixels bounds width*height before a full decode.
	DefaultImageMaxPixels = 40_000_000
)

// Upload targets, also used as key prefixes and metric labels.
const (
	UploadTargetPost    = "posts"
	UploadTargetAvatar  = "avatars"
	UploadTargetProject = "projects"
)

// UploadImageInput is a raw image as received from a multipart form.
type UploadImageInput struct {
	Target      string
	OwnerID     uint
	ContentType string
	Content     []byte
}

// MediaService normalizes uploaded images to bounded WebP and stores them.
type MediaService struct {
	store          storage.BlobStore
	maxUploadBytes int64
	maxDimension   int
	maxPixels      int64
	quality        int
}

func NewMediaService(store storage.BlobStore, cfg *config.Config) *MediaService {
	maxMB := DefaultImageMaxUploadSizeMB
	maxDim := DefaultImageMaxDimension
	quality := DefaultWebPQuality
	maxPixels := int64(DefaultImageMaxPixels)
	if cfg != nil {
		if cfg.ImageMaxUploadSizeMB > 0 {
			maxMB = cfg.ImageMaxUploadSizeMB
		}
		if cfg.ImageMaxDimension > 0 {
			maxDim = cfg.ImageMaxDimension
		}
		if cfg.ImageWebPQuality > 0 && cfg.ImageWebPQuality <= 100 {
			quality = cfg.ImageWebPQuality
		}
		if cfg.ImageMaxPixels > 0 {
			maxPixels = cfg.ImageMaxPixels
		}
	}
	return &MediaService{
		store:          store,
		maxUploadBytes: int64(maxMB) * 1024 * 1024,
		maxDimension:   maxDim,
		maxPixels:      maxPixels,
		quality:        quality,
	}
}

// MaxUploadBytes is the largest accepted upload.
func (s *MediaService) MaxUploadBytes() int64 {
	return s.maxUploadBytes
}

// UploadImage validates, resizes and re-encodes an image and returns its URL.
func (s *MediaService) UploadImage(ctx context.Context, in UploadImageInput) (string, error) {
	url, err := s.upload(ctx, in)
	outcome := "ok"
	if err != nil {
		outcome = "rejected"
		if models.IsCode(err, models.CodeInternal) {
			outcome = "error"
		}
	}
	observability.Uploads.WithLabelValues(in.Target, outcome).Inc()
	return url, err
}

func (s *MediaService) upload(ctx context.Context, in UploadImageInput) (string, error) {
	if s.store == nil {
		return "", models.NewInternalError(fmt.Errorf("no blob store configured"))
	}
	if len(in.Content) == 0 {
		return "", models.NewValidationError("No file uploaded")
	}
	if int64(len(in.Content)) > s.maxUploadBytes {
		return "", models.NewValidationError(fmt.Sprintf("File too large (max %dMB)", s.maxUploadBytes/(1024*1024)))
	}

	if !isAllowedImageMIME(http.DetectContentType(in.Content)) {
		return "", models.NewValidationError("Invalid image type")
	}
	// The header is checked first: a tiny file can declare a huge canvas.
	cfg, _, err := image.DecodeConfig(bytes.NewReader(in.Content))
	if err != nil {
		return "", models.NewValidationError("Invalid image file")
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > s.maxPixels {
		return "", models.NewValidationError(fmt.Sprintf("Image dimensions too large (max %d pixels)", s.maxPixels))
	}
	decoded, format, err := image.Decode(bytes.NewReader(in.Content))
	if err != nil {
		return "", models.NewValidationError("Invalid image file")
	}
	if provided := normalizeContentType(in.ContentType); strings.HasPrefix(provided, "image/") && !isMatchingContentType(provided, decodedFormatToMime(format)) {
		return "", models.NewValidationError("Image content type mismatch")
	}

	resized := resizeToFit(decoded, s.maxDimension, s.maxDimension)
	encoded, err := encodeWebP(resized, s.quality)
	if err != nil {
		return "", models.NewInternalError(err)
	}

	key := fmt.Sprintf("%s/%d/%s.webp", in.Target, in.OwnerID, uuid.NewString())
	url, err := s.store.Put(ctx, key, "image/webp", bytes.NewReader(encoded))
	if err != nil {
		return "", models.NewInternalError(err)
	}
	return url, nil
}

// Discard deletes a blob previously returned by UploadImage. URLs this
// service did not produce are ignored and failures are only logged, so
// callers can use it for cleanup after a failed write or a replacement.
func (s *MediaService) Discard(ctx context.Context, url string) {
	if s == nil || s.store == nil {
		return
	}
	key, ok := blobKeyFromURL(url)
	if !ok {
		return
	}
	ctx = context.WithoutCancel(ctx)
	if err := s.store.Delete(ctx, key); err != nil {
		slog.WarnContext(ctx, "failed to delete blob", slog.String("key", key), slog.String("error", err.Error()))
	}
}

// blobKeyFromURL recovers the storage key from a public URL. Keys are
// "<target>/<owner>/<uuid>.webp" and stores append them to a base URL.
func blobKeyFromURL(url string) (string, bool) {
	if i := strings.IndexAny(url, "?#"); i >= 0 {
		url = url[:i]
	}
	if !strings.HasSuffix(url, ".webp") {
		return "", false
	}
	for _, target := range []string{UploadTargetPost, UploadTargetAvatar, UploadTargetProject} {
		if strings.HasPrefix(url, target+"/") {
			return url, true
		}
		if i := strings.LastIndex(url, "/"+target+"/"); i >= 0 {
			return url[i+1:], true
		}
	}
	return "", false
}

func resizeToFit(src image.Image, maxWidth, maxHeight int) image.Image {
	bounds := src.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()
	if w <= 0 || h <= 0 {
		return src
	}
	if w <= maxWidth && h <= maxHeight {
		return src
	}

	scale := float64(maxWidth) / float64(w)
	if s := float64(maxHeight) / float64(h); s < scale {
		scale = s
	}
	newW := int(float64(w) * scale)
	newH := int(float64(h) * scale)
	if newW < 1 {
		newW = 1
	}
	if newH < 1 {
		newH = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Over, nil)
	return dst
}

func encodeWebP(img image.Image, quality int) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := webp.Encode(buf, img, &webp.Options{Quality: float32(quality)}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func isAllowedImageMIME(contentType string) bool {
	switch normalizeContentType(contentType) {
	case "image/jpeg", "image/jpg", "image/png", "image/gif", "image/webp":
		return true
	default:
		return false
	}
}

func normalizeContentType(contentType string) string {
	if contentType == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return strings.ToLower(mediaType)
}

func isMatchingContentType(provided, detected string) bool {
	if provided == "image/jpg" {
		provided = "image/jpeg"
	}
	return provided == detected
}

func decodedFormatToMime(format string) string {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "jpeg", "jpg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "gif":
		return "image/gif"
	case "webp":
		return "image/webp"
	default:
		return ""
	}
}
