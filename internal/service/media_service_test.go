package service

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"atelier/internal/config"
	"atelier/internal/models"
	"atelier/internal/testutil"

	"github.com/chai2010/webp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMediaService(store *testutil.BlobStoreStub) *MediaService {
	return NewMediaService(store, &config.Config{
		ImageMaxUploadSizeMB: 1,
		ImageMaxDimension:    100,
		ImageWebPQuality:     80,
	})
}

func blobKey(url string) string {
	return strings.TrimPrefix(url, "https://blobs.test/")
}

func TestMediaService_UploadImage_ResizesAndEncodesWebP(t *testing.T) {
	store := testutil.NewBlobStoreStub()
	svc := newTestMediaService(store)

	url, err := svc.UploadImage(context.Background(), UploadImageInput{
		Target:      UploadTargetPost,
		OwnerID:     7,
		ContentType: "image/png",
		Content:     testutil.TinyPNG(t, 300, 100),
	})
	require.NoError(t, err)

	key := blobKey(url)
	assert.True(t, strings.HasPrefix(key, "posts/7/"))
	assert.True(t, strings.HasSuffix(key, ".webp"))

	data, contentType, ok := store.Object(key)
	require.True(t, ok)
	assert.Equal(t, "image/webp", contentType)

	img, err := webp.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 100, img.Bounds().Dx())
	assert.Equal(t, 33, img.Bounds().Dy())
}

func TestMediaService_UploadImage_KeepsSmallImages(t *testing.T) {
	store := testutil.NewBlobStoreStub()
	svc := newTestMediaService(store)

	url, err := svc.UploadImage(context.Background(), UploadImageInput{
		Target:  UploadTargetAvatar,
		OwnerID: 1,
		Content: testutil.TinyPNG(t, 40, 20),
	})
	require.NoError(t, err)

	data, _, ok := store.Object(blobKey(url))
	require.True(t, ok)
	img, err := webp.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 40, img.Bounds().Dx())
	assert.Equal(t, 20, img.Bounds().Dy())
}

func TestMediaService_UploadImage_Rejections(t *testing.T) {
	png := testutil.TinyPNG(t, 10, 10)
	tests := []struct {
		name string
		in   UploadImageInput
		msg  string
	}{
		{"empty", UploadImageInput{Target: UploadTargetPost}, "No file uploaded"},
		{"not an image", UploadImageInput{Target: UploadTargetPost, Content: []byte("hello there, plain text")}, "Invalid image type"},
		{"type mismatch", UploadImageInput{Target: UploadTargetPost, ContentType: "image/jpeg", Content: png}, "Image content type mismatch"},
		{"too large", UploadImageInput{Target: UploadTargetPost, Content: append(append([]byte{}, png...), make([]byte, 2*1024*1024)...)}, "File too large"},
		{"huge canvas in tiny file", UploadImageInput{Target: UploadTargetPost, ContentType: "image/png", Content: testutil.PNGHeader(60000, 60000)}, "Image dimensions too large"},
		{"truncated header", UploadImageInput{Target: UploadTargetPost, Content: testutil.PNGHeader(10, 10)[:20]}, "Invalid image file"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := testutil.NewBlobStoreStub()
			_, err := newTestMediaService(store).UploadImage(context.Background(), tt.in)
			require.Error(t, err)
			assert.True(t, models.IsCode(err, models.CodeValidation))
			assert.Contains(t, err.Error(), tt.msg)
			assert.Zero(t, store.Len())
		})
	}
}

func TestMediaService_UploadImage_StoreFailure(t *testing.T) {
	store := testutil.NewBlobStoreStub()
	store.FailPut = true

	_, err := newTestMediaService(store).UploadImage(context.Background(), UploadImageInput{
		Target:  UploadTargetProject,
		OwnerID: 2,
		Content: testutil.TinyPNG(t, 10, 10),
	})
	require.Error(t, err)
	assert.True(t, models.IsCode(err, models.CodeInternal))
}

func TestMediaService_UploadImage_PixelLimitFromConfig(t *testing.T) {
	store := testutil.NewBlobStoreStub()
	svc := NewMediaService(store, &config.Config{ImageMaxUploadSizeMB: 1, ImageMaxPixels: 100})

	_, err := svc.UploadImage(context.Background(), UploadImageInput{
		Target:  UploadTargetPost,
		Content: testutil.TinyPNG(t, 20, 10),
	})
	require.Error(t, err)
	assert.True(t, models.IsCode(err, models.CodeValidation))

	_, err = svc.UploadImage(context.Background(), UploadImageInput{
		Target:  UploadTargetPost,
		Content: testutil.TinyPNG(t, 10, 10),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, store.Len())
}

func TestMediaService_Discard(t *testing.T) {
	store := testutil.NewBlobStoreStub()
	svc := newTestMediaService(store)
	ctx := context.Background()

	url, err := svc.UploadImage(ctx, UploadImageInput{
		Target:  UploadTargetAvatar,
		OwnerID: 3,
		Content: testutil.TinyPNG(t, 10, 10),
	})
	require.NoError(t, err)
	require.Equal(t, 1, store.Len())

	// foreign URLs are left alone
	svc.Discard(ctx, "https://i.pravatar.cc/150?u=ulla")
	svc.Discard(ctx, "")
	assert.Equal(t, 1, store.Len())

	svc.Discard(ctx, url)
	assert.Zero(t, store.Len())

	var nilSvc *MediaService
	nilSvc.Discard(ctx, url)
}

func TestBlobKeyFromURL(t *testing.T) {
	tests := []struct {
		url  string
		key  string
		want bool
	}{
		{"https://blobs.test/posts/7/abc.webp", "posts/7/abc.webp", true},
		{"/media/avatars/1/abc.webp", "avatars/1/abc.webp", true},
		{"https://bucket.s3.amazonaws.com/projects/2/abc.webp?v=1", "projects/2/abc.webp", true},
		{"projects/2/abc.webp", "projects/2/abc.webp", true},
		{"https://picsum.photos/seed/x/800/800", "", false},
		{"https://example.com/posts/1/photo.jpg", "", false},
	}
	for _, tt := range tests {
		key, ok := blobKeyFromURL(tt.url)
		assert.Equal(t, tt.want, ok, tt.url)
		assert.Equal(t, tt.key, key, tt.url)
	}
}
