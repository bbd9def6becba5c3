package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"atelier/internal/models"
	"atelier/internal/testutil"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngagementRepository_LikeIdempotence(t *testing.T) {
	db := setupTestDB(t)
	repo := NewEngagementRepository(db)
	ctx := context.Background()

	u := testutil.CreateAccount(t, db, "u")

	inserted, err := repo.InsertLike(ctx, u.ID, models.KindPost, 7)
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = repo.InsertLike(ctx, u.ID, models.KindPost, 7)
	require.NoError(t, err)
	assert.False(t, inserted)

	count, err := repo.CountLikes(ctx, models.KindPost, 7)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	liked, err := repo.IsLiked(ctx, u.ID, models.KindPost, 7)
	require.NoError(t, err)
	assert.True(t, liked)

	liked, err = repo.IsLiked(ctx, u.ID, models.KindVerbal, 7)
	require.NoError(t, err)
	assert.False(t, liked)

	deleted, err := repo.DeleteLike(ctx, u.ID, models.KindPost, 7)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = repo.DeleteLike(ctx, u.ID, models.KindPost, 7)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestEngagementRepository_InsertLikeSQL(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewEngagementRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "likes"`) + `.*` + regexp.QuoteMeta(`ON CONFLICT ("account_id","kind","target_id") DO NOTHING`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectCommit()

	inserted, err := repo.InsertLike(context.Background(), 1, models.KindVerbal, 2)
	require.NoError(t, err)
	assert.False(t, inserted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEngagementRepository_Comments(t *testing.T) {
	db := setupTestDB(t)
	repo := NewEngagementRepository(db)
	ctx := context.Background()

	u := testutil.CreateAccount(t, db, "u")
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	older := &models.Comment{AccountID: u.ID, Kind: models.KindVerbal, TargetID: 3, Content: "older", CreatedAt: at}
	newer := &models.Comment{AccountID: u.ID, Kind: models.KindVerbal, TargetID: 3, Content: "newer", CreatedAt: at.Add(time.Minute)}
	tie := &models.Comment{AccountID: u.ID, Kind: models.KindVerbal, TargetID: 3, Content: "tie", CreatedAt: at.Add(time.Minute)}
	other := &models.Comment{AccountID: u.ID, Kind: models.KindPost, TargetID: 3, Content: "other kind"}
	for _, c := range []*models.Comment{older, newer, tie, other} {
		require.NoError(t, repo.CreateComment(ctx, c))
	}

	list, err := repo.ListComments(ctx, models.KindVerbal, 3)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{"tie", "newer", "older"}, []string{list[0].Content, list[1].Content, list[2].Content})
	assert.Equal(t, "u", list[0].Account.Username)

	count, err := repo.CountComments(ctx, models.KindVerbal, 3)
	require.NoError(t, err)
	assert.EqualValues(t, 3, count)

	got, err := repo.GetComment(ctx, older.ID)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.AccountID)

	require.NoError(t, repo.DeleteComment(ctx, older.ID))
	assert.True(t, models.IsCode(repo.DeleteComment(ctx, older.ID), models.CodeNotFound))
}

func TestPurgeTarget(t *testing.T) {
	db := setupTestDB(t)
	u := testutil.CreateAccount(t, db, "u")

	require.NoError(t, db.Create(&models.Like{AccountID: u.ID, Kind: models.KindPost, TargetID: 1}).Error)
	require.NoError(t, db.Create(&models.Like{AccountID: u.ID, Kind: models.KindPost, TargetID: 2}).Error)
	require.NoError(t, db.Create(&models.Comment{AccountID: u.ID, Kind: models.KindPost, TargetID: 1, Content: "x"}).Error)

	require.NoError(t, PurgeTarget(db, models.KindPost, 1))

	var likes, comments int64
	db.Model(&models.Like{}).Count(&likes)
	db.Model(&models.Comment{}).Count(&comments)
	assert.EqualValues(t, 1, likes)
	assert.Zero(t, comments)
}
