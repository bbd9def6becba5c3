package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"atelier/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStore_PutAndDelete(t *testing.T) {
	root := t.TempDir()
	store, err := NewLocalStore(root, "/media/")
	require.NoError(t, err)

	url, err := store.Put(context.Background(), "posts/7/abc.webp", "image/webp", strings.NewReader("payload"))
	require.NoError(t, err)
	assert.Equal(t, "/media/posts/7/abc.webp", url)

	data, err := os.ReadFile(filepath.Join(root, "posts", "7", "abc.webp"))
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))

	require.NoError(t, store.Delete(context.Background(), "posts/7/abc.webp"))
	_, err = os.Stat(filepath.Join(root, "posts", "7", "abc.webp"))
	assert.True(t, os.IsNotExist(err))

	// deleting twice is fine
	assert.NoError(t, store.Delete(context.Background(), "posts/7/abc.webp"))
}

func TestLocalStore_RejectsEscapingKeys(t *testing.T) {
	store, err := NewLocalStore(t.TempDir(), "/media")
	require.NoError(t, err)

	for _, key := range []string{"../etc/passwd", "a/../../b", ""} {
		_, err := store.Put(context.Background(), key, "image/webp", strings.NewReader("x"))
		assert.ErrorIs(t, err, ErrInvalidKey, key)
	}
}

func TestLocalStore_CanceledContext(t *testing.T) {
	store, err := NewLocalStore(t.TempDir(), "/media")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = store.Put(ctx, "a.webp", "image/webp", strings.NewReader("x"))
	assert.ErrorIs(t, err, context.Canceled)
}

type recordedRequest struct {
	method      string
	path        string
	contentType string
	body        string
}

func newFakeS3(t *testing.T) (*httptest.Server, func() []recordedRequest) {
	t.Helper()
	var (
		mu   sync.Mutex
		reqs []recordedRequest
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		reqs = append(reqs, recordedRequest{
			method:      r.Method,
			path:        r.URL.Path,
			contentType: r.Header.Get("Content-Type"),
			body:        string(body),
		})
		mu.Unlock()
		if r.Method == http.MethodDelete {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)
	return srv, func() []recordedRequest {
		mu.Lock()
		defer mu.Unlock()
		return append([]recordedRequest(nil), reqs...)
	}
}

func TestS3Store_PathStyleEndpoint(t *testing.T) {
	srv, requests := newFakeS3(t)

	store, err := NewS3Store(S3Options{
		Region:          "eu-west-1",
		Bucket:          "media",
		Endpoint:        srv.URL,
		AccessKeyID:     "minio",
		SecretAccessKey: "minio123",
	})
	require.NoError(t, err)

	url, err := store.Put(context.Background(), "projects/3/cover.webp", "image/webp", strings.NewReader("webp-bytes"))
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/media/projects/3/cover.webp", url)

	require.NoError(t, store.Delete(context.Background(), "projects/3/cover.webp"))

	reqs := requests()
	require.Len(t, reqs, 2)
	assert.Equal(t, http.MethodPut, reqs[0].method)
	assert.Equal(t, "/media/projects/3/cover.webp", reqs[0].path)
	assert.Equal(t, "image/webp", reqs[0].contentType)
	assert.Equal(t, "webp-bytes", reqs[0].body)
	assert.Equal(t, http.MethodDelete, reqs[1].method)
}

func TestS3Store_AWSURL(t *testing.T) {
	store, err := NewS3Store(S3Options{Region: "us-west-2", Bucket: "atelier"})
	require.NoError(t, err)
	assert.Equal(t, "https://atelier.s3.us-west-2.amazonaws.com/a/b.webp", store.URL("a/b.webp"))
}

func TestNew_SelectsDriver(t *testing.T) {
	local, err := New(&config.Config{StorageDriver: "local", MediaDir: t.TempDir(), MediaURL: "/media"})
	require.NoError(t, err)
	assert.IsType(t, &LocalStore{}, local)

	remote, err := New(&config.Config{StorageDriver: "s3", S3Bucket: "b", S3Region: "us-east-1"})
	require.NoError(t, err)
	assert.IsType(t, &S3Store{}, remote)

	_, err = New(&config.Config{StorageDriver: "ftp"})
	assert.Error(t, err)
}
