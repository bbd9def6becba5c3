package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"atelier/internal/config"
	"atelier/internal/storage"
	"atelier/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type testServer struct {
	t     *testing.T
	srv   *Server
	app   *fiber.App
	db    *gorm.DB
	mr    *miniredis.Miniredis
	blobs *testutil.BlobStoreStub
}

type testAccount struct {
	ID       uint
	Username string
	Token    string
}

func testConfig() *config.Config {
	return &config.Config{
		Env:                  "test",
		JWTSecret:            "test-secret",
		JWTIssuer:            "atelier-api",
		JWTAudience:          "atelier-client",
		JWTTTLHours:          1,
		ImageMaxUploadSizeMB: 1,
		ImageMaxDimension:    64,
	}
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	blobs := testutil.NewBlobStoreStub()
	ts := newTestServerWithBlobs(t, blobs)
	ts.blobs = blobs
	return ts
}

func newTestServerWithBlobs(t *testing.T, blobs storage.BlobStore) *testServer {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	db := testutil.NewTestDB(t)
	srv, err := NewServerWithDeps(testConfig(), db, rdb, blobs)
	require.NoError(t, err)

	return &testServer{t: t, srv: srv, app: srv.App(), db: db, mr: mr}
}

// do sends a JSON request; body may be nil.
func (ts *testServer) do(method, path, token string, body any) *http.Response {
	ts.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(ts.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := ts.app.Test(req, -1)
	require.NoError(ts.t, err)
	return resp
}

// upload sends a multipart form with one image file.
func (ts *testServer) upload(method, path, token, field string, image []byte, fields map[string]string) *http.Response {
	ts.t.Helper()
	body, contentType := multipartBody(ts.t, field, image, fields)
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", contentType)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := ts.app.Test(req, -1)
	require.NoError(ts.t, err)
	return resp
}

func multipartBody(t *testing.T, field string, image []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if image != nil {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename="upload.png"`, field))
		h.Set("Content-Type", "image/png")
		part, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(image)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf, w.FormDataContentType()
}

// register creates an account through the API and returns its token.
func (ts *testServer) register(username string) testAccount {
	ts.t.Helper()
	resp := ts.do(http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": "Str0ng!pass",
	})
	require.Equal(ts.t, http.StatusCreated, resp.StatusCode)
	out := decode[AuthResponse](ts.t, resp)
	return testAccount{ID: out.Account.ID, Username: username, Token: out.Token}
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

// errorCode returns the "code" of an error response.
func errorCode(t *testing.T, resp *http.Response) string {
	t.Helper()
	body := decode[map[string]any](t, resp)
	code, _ := body["code"].(string)
	return code
}
