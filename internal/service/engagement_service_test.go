package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"atelier/internal/models"
	"atelier/internal/notifications"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngagementService_ToggleLikeTwice(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.account(t, "ulla")
	v := env.account(t, "vik")

	for _, kind := range models.ContentKinds {
		t.Run(string(kind), func(t *testing.T) {
			var id uint
			if kind == models.KindPost {
				id = env.imagePostAt(t, u.ID, "dune", time.Now()).ID
			} else {
				id = env.textPostAt(t, u.ID, "hello", time.Now()).ID
			}

			before, err := env.engagementSvc.CountLikes(ctx, kind, id)
			require.NoError(t, err)

			state, err := env.engagementSvc.ToggleLike(ctx, v.ID, kind, id)
			require.NoError(t, err)
			assert.True(t, state.Liked)
			assert.Equal(t, before+1, state.LikeCount)

			liked, err := env.engagementSvc.IsLikedBy(ctx, v.ID, kind, id)
			require.NoError(t, err)
			assert.True(t, liked)

			state, err = env.engagementSvc.ToggleLike(ctx, v.ID, kind, id)
			require.NoError(t, err)
			assert.False(t, state.Liked)
			assert.Equal(t, before, state.LikeCount)
		})
	}

	// one notification per like-on, none for unlikes
	assert.Equal(t, []string{notifications.EventNewLike, notifications.EventNewLike}, env.events.typesFor(u.ID))
}

func TestEngagementService_ToggleLike_Concurrent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.account(t, "ulla")
	v := env.account(t, "vik")
	post := env.imagePostAt(t, u.ID, "dune", time.Now())

	const n = 10
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.engagementSvc.ToggleLike(ctx, v.ID, models.KindPost, post.ID)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	var rows int64
	require.NoError(t, env.db.Model(&models.Like{}).
		Where("account_id = ? AND kind = ? AND target_id = ?", v.ID, models.KindPost, post.ID).
		Count(&rows).Error)
	assert.LessOrEqual(t, rows, int64(1))

	count, err := env.engagementSvc.CountLikes(ctx, models.KindPost, post.ID)
	require.NoError(t, err)
	assert.Equal(t, rows, count)
	liked, err := env.engagementSvc.IsLikedBy(ctx, v.ID, models.KindPost, post.ID)
	require.NoError(t, err)
	assert.Equal(t, rows == 1, liked)

	// distinct likers each land exactly one row
	other := env.textPostAt(t, u.ID, "hello", time.Now())
	likers := make([]*models.Account, n)
	for i := range likers {
		likers[i] = env.account(t, fmt.Sprintf("fan%d", i))
	}
	errs = make(chan error, n)
	for _, liker := range likers {
		wg.Add(1)
		go func(id uint) {
			defer wg.Done()
			state, err := env.engagementSvc.ToggleLike(ctx, id, models.KindVerbal, other.ID)
			if err == nil && !state.Liked {
				err = fmt.Errorf("account %d: like was not recorded", id)
			}
			errs <- err
		}(liker.ID)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}
	count, err = env.engagementSvc.CountLikes(ctx, models.KindVerbal, other.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(n), count)
}

func TestEngagementService_ToggleLike_KindsAreIndependent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.account(t, "ulla")
	image := env.imagePostAt(t, u.ID, "dune", time.Now())
	text := env.textPostAt(t, u.ID, "hello", time.Now())
	require.Equal(t, image.ID, text.ID)

	_, err := env.engagementSvc.ToggleLike(ctx, u.ID, models.KindPost, image.ID)
	require.NoError(t, err)

	textLikes, err := env.engagementSvc.CountLikes(ctx, models.KindVerbal, text.ID)
	require.NoError(t, err)
	assert.Zero(t, textLikes)

	// liking your own post does not notify
	assert.Empty(t, env.events.recorded())
}

func TestEngagementService_ToggleLike_MissingTarget(t *testing.T) {
	env := newTestEnv(t)
	u := env.account(t, "ulla")

	_, err := env.engagementSvc.ToggleLike(context.Background(), u.ID, models.KindVerbal, 999)
	requireCode(t, err, models.CodeNotFound)

	_, err = env.engagementSvc.ToggleLike(context.Background(), u.ID, models.ContentKind("video"), 1)
	requireCode(t, err, models.CodeValidation)
}

func TestEngagementService_CountsForMissingTargetAreZero(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	likes, err := env.engagementSvc.CountLikes(ctx, models.KindPost, 404)
	require.NoError(t, err)
	assert.Zero(t, likes)

	comments, err := env.engagementSvc.CountComments(ctx, models.KindPost, 404)
	require.NoError(t, err)
	assert.Zero(t, comments)
}

func TestEngagementService_Comments(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.account(t, "ulla")
	v := env.account(t, "vik")
	post := env.textPostAt(t, u.ID, "hello", time.Now())

	first, err := env.engagementSvc.AddComment(ctx, v.ID, models.KindVerbal, post.ID, "  lovely  ")
	require.NoError(t, err)
	assert.Equal(t, "lovely", first.Content)
	assert.Equal(t, "vik", first.Account.Username)

	second, err := env.engagementSvc.AddComment(ctx, u.ID, models.KindVerbal, post.ID, "thanks")
	require.NoError(t, err)

	comments, err := env.engagementSvc.ListComments(ctx, models.KindVerbal, post.ID)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, second.ID, comments[0].ID)
	assert.Equal(t, first.ID, comments[1].ID)

	count, err := env.engagementSvc.CountComments(ctx, models.KindVerbal, post.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	assert.Equal(t, []string{notifications.EventNewComment}, env.events.typesFor(u.ID))
}

func TestEngagementService_AddComment_Validation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.account(t, "ulla")
	post := env.textPostAt(t, u.ID, "hello", time.Now())

	_, err := env.engagementSvc.AddComment(ctx, u.ID, models.KindVerbal, post.ID, "   ")
	requireCode(t, err, models.CodeValidation)

	_, err = env.engagementSvc.AddComment(ctx, u.ID, models.KindVerbal, post.ID, strings.Repeat("x", models.MaxCommentLength+1))
	requireCode(t, err, models.CodeValidation)

	_, err = env.engagementSvc.AddComment(ctx, u.ID, models.KindPost, post.ID+100, "hi")
	requireCode(t, err, models.CodeNotFound)
}

func TestEngagementService_DeleteComment_AuthorOnly(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.account(t, "ulla")
	v := env.account(t, "vik")
	post := env.textPostAt(t, u.ID, "hello", time.Now())

	comment, err := env.engagementSvc.AddComment(ctx, v.ID, models.KindVerbal, post.ID, "nice")
	require.NoError(t, err)

	// the post owner is not the comment author
	err = env.engagementSvc.DeleteComment(ctx, u.ID, comment.ID)
	requireCode(t, err, models.CodeForbidden)

	require.NoError(t, env.engagementSvc.DeleteComment(ctx, v.ID, comment.ID))

	err = env.engagementSvc.DeleteComment(ctx, v.ID, comment.ID)
	requireCode(t, err, models.CodeNotFound)
}
