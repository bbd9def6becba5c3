package server

import (
	"net/http"
	"testing"

	"atelier/internal/models"
	"atelier/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFollowFlow(t *testing.T) {
	ts := newTestServer(t)
	u := ts.register("ulla")
	v := ts.register("vik")

	resp := ts.do(http.MethodPost, "/api/v1/profiles/ulla/follow", v.Token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	view := decode[models.ProfileView](t, resp)
	assert.True(t, view.IsFollowing)
	assert.False(t, view.FollowsYou)
	assert.Equal(t, int64(1), view.Stats.Followers)

	// a second follow is a no-op
	view = decode[models.ProfileView](t, ts.do(http.MethodPost, "/api/v1/profiles/ulla/follow", v.Token, nil))
	assert.Equal(t, int64(1), view.Stats.Followers)

	view = decode[models.ProfileView](t, ts.do(http.MethodGet, "/api/v1/profiles/vik", u.Token, nil))
	assert.True(t, view.FollowsYou)
	assert.False(t, view.IsFollowing)
	assert.Equal(t, int64(1), view.Stats.Following)

	followers := decode[[]models.AccountSummary](t, ts.do(http.MethodGet, "/api/v1/profiles/ulla/followers", "", nil))
	require.Len(t, followers, 1)
	assert.Equal(t, "vik", followers[0].Username)

	following := decode[[]models.AccountSummary](t, ts.do(http.MethodGet, "/api/v1/profiles/vik/following", "", nil))
	require.Len(t, following, 1)
	assert.Equal(t, u.ID, following[0].ID)

	resp = ts.do(http.MethodDelete, "/api/v1/profiles/ulla/follow", v.Token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	view = decode[models.ProfileView](t, resp)
	assert.False(t, view.IsFollowing)
	assert.Equal(t, int64(0), view.Stats.Followers)

	assert.Empty(t, decode[[]models.AccountSummary](t, ts.do(http.MethodGet, "/api/v1/profiles/ulla/followers", "", nil)))
}

func TestFollowErrors(t *testing.T) {
	ts := newTestServer(t)
	u := ts.register("ulla")

	resp := ts.do(http.MethodPost, "/api/v1/profiles/ulla/follow", u.Token, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = ts.do(http.MethodPost, "/api/v1/profiles/ghost/follow", u.Token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = ts.do(http.MethodPost, "/api/v1/profiles/ulla/follow", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestGetProfile(t *testing.T) {
	ts := newTestServer(t)
	ts.register("ulla")

	resp := ts.do(http.MethodGet, "/api/v1/profiles/ulla", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode[map[string]any](t, resp)
	assert.Equal(t, "ulla", body["username"])
	assert.Equal(t, false, body["is_self"])
	assert.NotContains(t, body, "email")

	resp = ts.do(http.MethodGet, "/api/v1/profiles/ghost", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestUpdateMyProfile(t *testing.T) {
	ts := newTestServer(t)
	u := ts.register("ulla")

	resp := ts.do(http.MethodPatch, "/api/v1/profiles/me", u.Token, map[string]string{
		"bio":  "Printmaker by the sea",
		"role": "gallery",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	view := decode[models.ProfileView](t, resp)
	assert.Equal(t, "Printmaker by the sea", view.Bio)
	assert.Equal(t, models.RoleGallery, view.Role)

	resp = ts.do(http.MethodPatch, "/api/v1/profiles/me", u.Token, map[string]string{"role": "wizard"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = ts.upload(http.MethodPatch, "/api/v1/profiles/me", u.Token, "image",
		testutil.TinyPNG(t, 16, 16), map[string]string{"bio": "New avatar"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	view = decode[models.ProfileView](t, resp)
	assert.Equal(t, "New avatar", view.Bio)
	assert.NotEmpty(t, view.ImageURL)
	assert.Equal(t, models.RoleGallery, view.Role)
	assert.Equal(t, 1, ts.blobs.Len())
}

func TestProfileWall(t *testing.T) {
	ts := newTestServer(t)
	u := ts.register("ulla")
	v := ts.register("vik")

	ts.do(http.MethodPost, "/api/v1/posts/text", u.Token, map[string]string{"content": "mine"})
	ts.do(http.MethodPost, "/api/v1/posts/text", v.Token, map[string]string{"content": "theirs"})

	resp := ts.do(http.MethodGet, "/api/v1/profiles/ulla/wall", v.Token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	items := decode[[]models.FeedItem](t, resp)
	require.Len(t, items, 1)
	assert.Equal(t, u.ID, items[0].Owner.ID)
}
