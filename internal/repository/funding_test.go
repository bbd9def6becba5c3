package repository

import (
	"context"
	"regexp"
	"testing"

	"atelier/internal/models"
	"atelier/internal/testutil"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFundingRepository_EnsureIsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	repo := NewFundingRepository(db)
	ctx := context.Background()

	a := testutil.CreateAccount(t, db, "a")
	p := newProject(t, db, a, "Fund me")

	_, err := repo.GetByProjectID(ctx, p.ID)
	assert.True(t, models.IsCode(err, models.CodeNotFound))

	first, err := repo.Ensure(ctx, p.ID)
	require.NoError(t, err)
	assert.Zero(t, first.Goal)

	second, err := repo.Ensure(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	updated, err := repo.SetGoal(ctx, p.ID, 25000)
	require.NoError(t, err)
	assert.EqualValues(t, 25000, updated.Goal)
	assert.Equal(t, first.ID, updated.ID)
}

func TestFundingRepository_SupportersAccumulate(t *testing.T) {
	db := setupTestDB(t)
	repo := NewFundingRepository(db)
	ctx := context.Background()

	a := testutil.CreateAccount(t, db, "a")
	fan := testutil.CreateAccount(t, db, "fan")
	p := newProject(t, db, a, "Ledger", func(in *NewProject) {
		in.EnableFunding = true
		in.FundingGoal = 10000
	})
	funding, err := repo.GetByProjectID(ctx, p.ID)
	require.NoError(t, err)

	amounts := []int64{500, 1250, 75, 4000}
	var sum int64
	for i, amount := range amounts {
		s := &models.ProjectSupporter{FundingID: funding.ID, Name: "guest", Amount: amount}
		if i == 1 {
			s.AccountID = &fan.ID
		}
		if i == 2 {
			s.IsAnonymous = true
		}
		require.NoError(t, repo.AddSupporter(ctx, s))
		sum += amount
	}

	funding, err = repo.GetByProjectID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, sum, funding.Raised)
	assert.EqualValues(t, len(amounts), funding.SupporterCount)

	recent, err := repo.RecentSupporters(ctx, funding.ID, 3)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	assert.EqualValues(t, 4000, recent[0].Amount)
	assert.Equal(t, models.AnonymousSupporterName, recent[1].DisplayName())
	assert.Equal(t, "fan", recent[2].DisplayName())

	err = repo.AddSupporter(ctx, &models.ProjectSupporter{FundingID: 999, Name: "lost", Amount: 1})
	assert.True(t, models.IsCode(err, models.CodeNotFound))
	var supporters int64
	db.Model(&models.ProjectSupporter{}).Count(&supporters)
	assert.EqualValues(t, len(amounts), supporters)
}

func TestFundingRepository_AddSupporterSQL(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewFundingRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "project_supporters"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(11))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "project_fundings" SET "raised"=raised + $1,"supporter_count"=supporter_count + 1 WHERE id = $2`)).
		WithArgs(int64(700), 3).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	s := &models.ProjectSupporter{FundingID: 3, Name: "n", Amount: 700}
	require.NoError(t, repo.AddSupporter(context.Background(), s))
	assert.EqualValues(t, 11, s.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFundingRepository_BudgetItemsOrdered(t *testing.T) {
	db := setupTestDB(t)
	repo := NewFundingRepository(db)
	ctx := context.Background()

	a := testutil.CreateAccount(t, db, "a")
	p := newProject(t, db, a, "Budget")
	funding, err := repo.Ensure(ctx, p.ID)
	require.NoError(t, err)

	items := []*models.ProjectBudgetItem{
		{FundingID: funding.ID, Category: "venue", Amount: 300, Order: 2},
		{FundingID: funding.ID, Category: "paint", Amount: 100, Order: 1},
		{FundingID: funding.ID, Category: "frames", Amount: 200, Order: 1},
	}
	for _, item := range items {
		require.NoError(t, repo.AddBudgetItem(ctx, item))
	}

	listed, err := repo.BudgetItems(ctx, funding.ID)
	require.NoError(t, err)
	require.Len(t, listed, 3)
	assert.Equal(t, []string{"paint", "frames", "venue"},
		[]string{listed[0].Category, listed[1].Category, listed[2].Category})
}
