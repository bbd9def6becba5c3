package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"atelier/internal/cache"
	"atelier/internal/models"
	"atelier/internal/notifications"
	"atelier/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileService_FollowIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.account(t, "ulla")
	v := env.account(t, "vik")

	view, err := env.profileSvc.Follow(ctx, v.ID, "ulla")
	require.NoError(t, err)
	assert.True(t, view.IsFollowing)
	assert.Equal(t, int64(1), view.Stats.Followers)

	view, err = env.profileSvc.Follow(ctx, v.ID, "ulla")
	require.NoError(t, err)
	assert.Equal(t, int64(1), view.Stats.Followers)

	var rows int64
	require.NoError(t, env.db.Model(&models.Follow{}).Count(&rows).Error)
	assert.Equal(t, int64(1), rows)

	// only the first follow notifies
	assert.Equal(t, []string{notifications.EventNewFollower}, env.events.typesFor(u.ID))
}

func TestProfileService_SelfFollowRejected(t *testing.T) {
	env := newTestEnv(t)
	u := env.account(t, "ulla")

	_, err := env.profileSvc.Follow(context.Background(), u.ID, "ulla")
	requireCode(t, err, models.CodeValidation)

	_, err = env.profileSvc.Follow(context.Background(), u.ID, "ghost")
	requireCode(t, err, models.CodeNotFound)
}

func TestProfileService_GetProfile_Relationship(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.account(t, "ulla")
	v := env.account(t, "vik")
	_, err := env.profileSvc.Follow(ctx, u.ID, "vik")
	require.NoError(t, err)

	asV, err := env.profileSvc.GetProfile(ctx, "ulla", v.ID)
	require.NoError(t, err)
	assert.False(t, asV.IsFollowing)
	assert.True(t, asV.FollowsYou)
	assert.False(t, asV.IsSelf)
	assert.Equal(t, int64(1), asV.Stats.Following)

	asSelf, err := env.profileSvc.GetProfile(ctx, "ulla", u.ID)
	require.NoError(t, err)
	assert.True(t, asSelf.IsSelf)

	anon, err := env.profileSvc.GetProfile(ctx, "ulla", 0)
	require.NoError(t, err)
	assert.False(t, anon.IsFollowing)
	assert.False(t, anon.FollowsYou)
}

func TestProfileService_Unfollow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.account(t, "ulla")
	v := env.account(t, "vik")
	_, err := env.profileSvc.Follow(ctx, v.ID, "ulla")
	require.NoError(t, err)

	view, err := env.profileSvc.Unfollow(ctx, v.ID, "ulla")
	require.NoError(t, err)
	assert.False(t, view.IsFollowing)
	assert.Zero(t, view.Stats.Followers)

	followers, err := env.profileSvc.Followers(ctx, "ulla")
	require.NoError(t, err)
	assert.Empty(t, followers)
}

func TestProfileService_UpdateProfile(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.account(t, "ulla")

	role, bio := "gallery", "  Harbour-side space  "
	view, err := env.profileSvc.UpdateProfile(ctx, UpdateProfileInput{
		AccountID: u.ID,
		Role:      &role,
		Bio:       &bio,
		Image:     &UploadImageInput{Content: testutil.TinyPNG(t, 8, 8)},
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleGallery, view.Role)
	assert.Equal(t, "Harbour-side space", view.Bio)
	assert.Contains(t, view.ImageURL, "avatars/")
	assert.Equal(t, 1, env.blobs.Len())

	bad := "curator"
	_, err = env.profileSvc.UpdateProfile(ctx, UpdateProfileInput{AccountID: u.ID, Role: &bad})
	requireCode(t, err, models.CodeValidation)

	tooLong := strings.Repeat("b", models.MaxBioLength+1)
	_, err = env.profileSvc.UpdateProfile(ctx, UpdateProfileInput{AccountID: u.ID, Bio: &tooLong})
	requireCode(t, err, models.CodeValidation)
}

func TestProfileService_StatsCacheInvalidatedOnFollow(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	env := newTestEnvWithCache(t, cache.NewStore(client))
	ctx := context.Background()
	u := env.account(t, "ulla")
	v := env.account(t, "vik")

	stats, err := env.profileSvc.Stats(ctx, u.ID)
	require.NoError(t, err)
	assert.Zero(t, stats.Followers)
	assert.True(t, mr.Exists(cache.ProfileStatsKey(u.ID)))

	_, err = env.profileSvc.Follow(ctx, v.ID, "ulla")
	require.NoError(t, err)

	stats, err = env.profileSvc.Stats(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Followers)

	ttl := mr.TTL(cache.ProfileStatsKey(u.ID))
	assert.Equal(t, time.Minute, ttl)
}

func TestProfileService_PublishFailureDoesNotFailFollow(t *testing.T) {
	env := newTestEnv(t)
	env.events.fail = true
	env.account(t, "ulla")
	v := env.account(t, "vik")

	view, err := env.profileSvc.Follow(context.Background(), v.ID, "ulla")
	require.NoError(t, err)
	assert.True(t, view.IsFollowing)
}

func TestProfileService_UpdateProfile_ReplacesAvatarBlob(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.account(t, "ulla")

	first, err := env.profileSvc.UpdateProfile(ctx, UpdateProfileInput{
		AccountID: u.ID,
		Image:     &UploadImageInput{Content: testutil.TinyPNG(t, 8, 8)},
	})
	require.NoError(t, err)

	second, err := env.profileSvc.UpdateProfile(ctx, UpdateProfileInput{
		AccountID: u.ID,
		Image:     &UploadImageInput{Content: testutil.TinyPNG(t, 6, 6)},
	})
	require.NoError(t, err)
	assert.NotEqual(t, first.ImageURL, second.ImageURL)
	assert.Equal(t, 1, env.blobs.Len())

	_, _, ok := env.blobs.Object(strings.TrimPrefix(second.ImageURL, "https://blobs.test/"))
	assert.True(t, ok)

	// a bio-only edit keeps the avatar
	bio := "new bio"
	_, err = env.profileSvc.UpdateProfile(ctx, UpdateProfileInput{AccountID: u.ID, Bio: &bio})
	require.NoError(t, err)
	assert.Equal(t, 1, env.blobs.Len())
}
