package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"atelier/internal/models"
	"atelier/internal/repository"
	"atelier/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjectService_Create(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	creator := env.account(t, "ulla")
	env.account(t, "vik")

	detail, err := env.projectSvc.Create(ctx, CreateProjectInput{
		CreatorID:      creator.ID,
		Title:          "Tidal Sculptures",
		Description:    "Driftwood and sound",
		ProjectType:    "collaborative",
		BudgetType:     "seeking",
		Collaborators:  []string{"vik", "vik", " "},
		Manifestations: []string{"installation", " sound ", "installation"},
		EnableFunding:  true,
		FundingGoal:    250_000,
		Cover:          &UploadImageInput{Content: testutil.TinyPNG(t, 20, 20)},
	})
	require.NoError(t, err)
	assert.Equal(t, models.ProjectCollaborative, detail.ProjectType)
	assert.Equal(t, models.StatusOngoing, detail.Status)
	assert.Equal(t, models.BudgetSeeking, detail.BudgetType)
	require.Len(t, detail.Collaborators, 1)
	assert.Equal(t, "vik", detail.Collaborators[0].Username)
	require.Len(t, detail.Manifestations, 2)
	assert.Equal(t, "installation", detail.Manifestations[0].Name)
	assert.Equal(t, "sound", detail.Manifestations[1].Name)
	assert.Contains(t, detail.CoverImageURL, "projects/")
	assert.True(t, detail.Funding.Enabled)
	assert.Equal(t, int64(250_000), detail.Funding.Goal)
	assert.True(t, detail.IsCreator)
	assert.Nil(t, detail.ProgressPercent)
	assert.Nil(t, detail.DaysRemaining)
	assert.Empty(t, detail.CalendarMarkers)
}

func TestProjectService_Create_Rejections(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	creator := env.account(t, "ulla")
	start, end := day(2026, 5, 10), day(2026, 5, 1)

	tests := []struct {
		name string
		in   CreateProjectInput
	}{
		{"end before start", CreateProjectInput{Title: "t", Description: "d", StartDate: &start, EndDate: &end}},
		{"missing title", CreateProjectInput{Description: "d"}},
		{"long title", CreateProjectInput{Title: strings.Repeat("t", models.MaxProjectTitleLength+1), Description: "d"}},
		{"bad type", CreateProjectInput{Title: "t", Description: "d", ProjectType: "group"}},
		{"bad status", CreateProjectInput{Title: "t", Description: "d", Status: "done"}},
		{"bad budget", CreateProjectInput{Title: "t", Description: "d", BudgetType: "loan"}},
		{"creator as collaborator", CreateProjectInput{Title: "t", Description: "d", Collaborators: []string{"ulla"}}},
		{"unknown collaborator", CreateProjectInput{Title: "t", Description: "d", Collaborators: []string{"ghost"}}},
		{"long manifestation", CreateProjectInput{Title: "t", Description: "d", Manifestations: []string{strings.Repeat("m", models.MaxManifestationLength+1)}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.in.CreatorID = creator.ID
			_, err := env.projectSvc.Create(ctx, tt.in)
			requireCode(t, err, models.CodeValidation)
		})
	}

	var count int64
	require.NoError(t, env.db.Model(&models.Project{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestProjectService_Update_RevalidatesDates(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	creator := env.account(t, "ulla")
	other := env.account(t, "vik")
	project := env.project(t, creator.ID, withDates(day(2026, 5, 1), day(2026, 5, 31)))

	title := "Other"
	_, err := env.projectSvc.Update(ctx, UpdateProjectInput{ActorID: other.ID, ProjectID: project.ID, Title: &title})
	requireCode(t, err, models.CodeForbidden)

	// moving only the start past the stored end is rejected
	lateStart := day(2026, 6, 15)
	_, err = env.projectSvc.Update(ctx, UpdateProjectInput{ActorID: creator.ID, ProjectID: project.ID, StartDate: &lateStart})
	requireCode(t, err, models.CodeValidation)

	lateEnd := day(2026, 7, 1)
	detail, err := env.projectSvc.Update(ctx, UpdateProjectInput{
		ActorID:   creator.ID,
		ProjectID: project.ID,
		Title:     &title,
		StartDate: &lateStart,
		EndDate:   &lateEnd,
	})
	require.NoError(t, err)
	assert.Equal(t, "Other", detail.Title)
	require.NotNil(t, detail.StartDate)
	assert.Equal(t, "2026-06-15", detail.StartDate.Format(time.DateOnly))

	detail, err = env.projectSvc.Update(ctx, UpdateProjectInput{ActorID: creator.ID, ProjectID: project.ID, ClearEndDate: true})
	require.NoError(t, err)
	assert.Nil(t, detail.EndDate)
}

func TestProjectService_StatusAndDelete(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	creator := env.account(t, "ulla")
	other := env.account(t, "vik")
	project := env.project(t, creator.ID, withFunding(100))

	_, err := env.projectSvc.UpdateStatus(ctx, other.ID, project.ID, "paused")
	requireCode(t, err, models.CodeForbidden)
	_, err = env.projectSvc.UpdateStatus(ctx, creator.ID, project.ID, "archived")
	requireCode(t, err, models.CodeValidation)

	detail, err := env.projectSvc.UpdateStatus(ctx, creator.ID, project.ID, "completed")
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, detail.Status)

	_, err = env.ledgerSvc.RecordSupport(ctx, SupportInput{ProjectID: project.ID, Name: "a", Amount: 5})
	require.NoError(t, err)

	requireCode(t, env.projectSvc.Delete(ctx, other.ID, project.ID), models.CodeForbidden)
	require.NoError(t, env.projectSvc.Delete(ctx, creator.ID, project.ID))

	_, err = env.projectSvc.Detail(ctx, project.ID, 0)
	requireCode(t, err, models.CodeNotFound)

	var supporters int64
	require.NoError(t, env.db.Model(&models.ProjectSupporter{}).Count(&supporters).Error)
	assert.Zero(t, supporters)
}

func TestProjectService_Collaborators(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	creator := env.account(t, "ulla")
	v := env.account(t, "vik")
	env.account(t, "wren")
	project := env.project(t, creator.ID)

	_, err := env.projectSvc.AddCollaborator(ctx, v.ID, project.ID, "wren")
	requireCode(t, err, models.CodeForbidden)

	_, err = env.projectSvc.AddCollaborator(ctx, creator.ID, project.ID, "ulla")
	requireCode(t, err, models.CodeValidation)

	list, err := env.projectSvc.AddCollaborator(ctx, creator.ID, project.ID, "vik")
	require.NoError(t, err)
	require.Len(t, list, 1)

	// adding twice keeps one row
	list, err = env.projectSvc.AddCollaborator(ctx, creator.ID, project.ID, "vik")
	require.NoError(t, err)
	require.Len(t, list, 1)

	mine, err := env.projectSvc.ListForAccount(ctx, "vik")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, project.ID, mine[0].ID)

	list, err = env.projectSvc.RemoveCollaborator(ctx, creator.ID, project.ID, "vik")
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = env.projectSvc.RemoveCollaborator(ctx, creator.ID, project.ID, "vik")
	requireCode(t, err, models.CodeNotFound)
}

func TestProjectService_ManifestationsAndPhotos(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	creator := env.account(t, "ulla")
	other := env.account(t, "vik")
	first := env.project(t, creator.ID)
	second := env.project(t, creator.ID)

	a, err := env.projectSvc.AddManifestation(ctx, creator.ID, first.ID, " film ")
	require.NoError(t, err)
	b, err := env.projectSvc.AddManifestation(ctx, creator.ID, second.ID, "film")
	require.NoError(t, err)
	assert.Equal(t, a.ID, b.ID)

	_, err = env.projectSvc.AddManifestation(ctx, other.ID, first.ID, "film")
	requireCode(t, err, models.CodeForbidden)

	_, err = env.projectSvc.AddPhoto(ctx, AddPhotoInput{
		ActorID: other.ID, ProjectID: first.ID,
		Image: UploadImageInput{Content: testutil.TinyPNG(t, 4, 4)},
	})
	requireCode(t, err, models.CodeForbidden)

	_, err = env.projectSvc.AddPhoto(ctx, AddPhotoInput{
		ActorID: creator.ID, ProjectID: first.ID, Caption: strings.Repeat("c", models.MaxPhotoCaptionLength+1),
		Image: UploadImageInput{Content: testutil.TinyPNG(t, 4, 4)},
	})
	requireCode(t, err, models.CodeValidation)

	photo, err := env.projectSvc.AddPhoto(ctx, AddPhotoInput{
		ActorID: creator.ID, ProjectID: first.ID, Caption: "studio",
		Image: UploadImageInput{Content: testutil.TinyPNG(t, 4, 4)},
	})
	require.NoError(t, err)
	assert.Equal(t, "studio", photo.Caption)

	detail, err := env.projectSvc.Detail(ctx, first.ID, other.ID)
	require.NoError(t, err)
	assert.False(t, detail.IsCreator)
	require.Len(t, detail.Photos, 1)
	require.Len(t, detail.Manifestations, 1)
}

func TestProjectService_CalendarUpsertAndDelete(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	creator := env.account(t, "ulla")
	other := env.account(t, "vik")
	project := env.project(t, creator.ID)
	date := time.Date(2026, 5, 4, 15, 30, 0, 0, time.UTC)

	_, err := env.projectSvc.SetCalendarEntry(ctx, other.ID, project.ID, date, "nope")
	requireCode(t, err, models.CodeForbidden)

	first, err := env.projectSvc.SetCalendarEntry(ctx, creator.ID, project.ID, date, "kiln firing")
	require.NoError(t, err)
	second, err := env.projectSvc.SetCalendarEntry(ctx, creator.ID, project.ID, date, "glazing")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "glazing", second.Content)

	var rows int64
	require.NoError(t, env.db.Model(&models.ProjectCalendarEntry{}).Count(&rows).Error)
	assert.Equal(t, int64(1), rows)

	deleted, err := env.projectSvc.SetCalendarEntry(ctx, creator.ID, project.ID, date, "   ")
	require.NoError(t, err)
	assert.Nil(t, deleted)
	require.NoError(t, env.db.Model(&models.ProjectCalendarEntry{}).Count(&rows).Error)
	assert.Zero(t, rows)

	err = env.projectSvc.DeleteCalendarEntry(ctx, creator.ID, project.ID, date)
	requireCode(t, err, models.CodeNotFound)
}

func TestProjectService_DetailProgressAndMarkers(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	creator := env.account(t, "ulla")
	project := env.project(t, creator.ID, withDates(day(2026, 1, 1), day(2026, 1, 11)))

	for date, content := range map[time.Time]string{
		day(2025, 12, 31): "before the start",
		day(2026, 1, 1):   "kickoff",
		day(2026, 1, 6):   strings.Repeat("x", 70),
		day(2026, 1, 11):  "opening",
		day(2026, 1, 12):  "after the end",
	} {
		_, err := env.projectSvc.SetCalendarEntry(ctx, creator.ID, project.ID, date, content)
		require.NoError(t, err)
	}

	env.projectSvc.WithClock(func() time.Time { return time.Date(2026, 1, 4, 18, 0, 0, 0, time.UTC) })
	detail, err := env.projectSvc.Detail(ctx, project.ID, 0)
	require.NoError(t, err)
	require.NotNil(t, detail.ProgressPercent)
	assert.Equal(t, 30, *detail.ProgressPercent)
	require.NotNil(t, detail.DaysRemaining)
	assert.Equal(t, 7, *detail.DaysRemaining)

	require.Len(t, detail.CalendarMarkers, 3)
	assert.Equal(t, models.CalendarMarker{Date: "2026-01-01", Position: 0, Label: "kickoff"}, detail.CalendarMarkers[0])
	assert.Equal(t, "2026-01-06", detail.CalendarMarkers[1].Date)
	assert.InDelta(t, 50.0, detail.CalendarMarkers[1].Position, 1e-9)
	assert.Equal(t, strings.Repeat("x", 60)+"…", detail.CalendarMarkers[1].Label)
	assert.InDelta(t, 100.0, detail.CalendarMarkers[2].Position, 1e-9)

	env.projectSvc.WithClock(func() time.Time { return day(2026, 3, 1) })
	detail, err = env.projectSvc.Detail(ctx, project.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, 100, *detail.ProgressPercent)
	assert.Equal(t, 0, *detail.DaysRemaining)
}

func TestProgressPercent(t *testing.T) {
	start, end := day(2026, 1, 1), day(2026, 1, 11)
	pct := func(p *int) int {
		require.NotNil(t, p)
		return *p
	}

	assert.Nil(t, ProgressPercent(nil, &end, start))
	assert.Nil(t, ProgressPercent(&start, nil, start))
	assert.Equal(t, 0, pct(ProgressPercent(&start, &end, day(2025, 12, 1))))
	assert.Equal(t, 0, pct(ProgressPercent(&start, &end, start)))
	assert.Equal(t, 50, pct(ProgressPercent(&start, &end, day(2026, 1, 6))))
	assert.Equal(t, 100, pct(ProgressPercent(&start, &end, day(2026, 2, 1))))
	// a zero-length timeline counts as complete
	assert.Equal(t, 100, pct(ProgressPercent(&start, &start, day(2025, 1, 1))))
}

func TestCalendarMarkers_NoTimeline(t *testing.T) {
	start := day(2026, 1, 1)
	entries := []models.ProjectCalendarEntry{{Date: start, Content: "x"}}

	assert.Empty(t, CalendarMarkers(nil, nil, entries))
	assert.Empty(t, CalendarMarkers(&start, &start, entries))
}

// failingPhotoRepo fails photo inserts after the upload succeeded.
type failingPhotoRepo struct {
	repository.ProjectRepository
}

func (failingPhotoRepo) AddPhoto(context.Context, *models.ProjectPhoto) error {
	return models.NewInternalError(errors.New("insert failed"))
}

func TestProjectService_AddPhoto_RemovesBlobWhenInsertFails(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	creator := env.account(t, "ulla")
	project := env.project(t, creator.ID)

	projects := repository.NewProjectRepository(env.db)
	svc := NewProjectService(failingPhotoRepo{projects}, env.accounts, env.ledgerSvc, NewMediaService(env.blobs, nil))

	_, err := svc.AddPhoto(ctx, AddPhotoInput{
		ActorID: creator.ID, ProjectID: project.ID,
		Image: UploadImageInput{Content: testutil.TinyPNG(t, 4, 4)},
	})
	requireCode(t, err, models.CodeInternal)
	assert.Zero(t, env.blobs.Len())
}

func TestProjectService_CoverReplacementAndDeleteRemoveBlobs(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	creator := env.account(t, "ulla")
	project := env.project(t, creator.ID, func(in *CreateProjectInput) {
		in.Cover = &UploadImageInput{Content: testutil.TinyPNG(t, 20, 20)}
	})
	require.Equal(t, 1, env.blobs.Len())

	updated, err := env.projectSvc.Update(ctx, UpdateProjectInput{
		ActorID: creator.ID, ProjectID: project.ID,
		Cover: &UploadImageInput{Content: testutil.TinyPNG(t, 10, 10)},
	})
	require.NoError(t, err)
	assert.NotEqual(t, project.CoverImageURL, updated.CoverImageURL)
	assert.Equal(t, 1, env.blobs.Len())

	_, err = env.projectSvc.AddPhoto(ctx, AddPhotoInput{
		ActorID: creator.ID, ProjectID: project.ID,
		Image: UploadImageInput{Content: testutil.TinyPNG(t, 4, 4)},
	})
	require.NoError(t, err)
	require.Equal(t, 2, env.blobs.Len())

	require.NoError(t, env.projectSvc.Delete(ctx, creator.ID, project.ID))
	assert.Zero(t, env.blobs.Len())
}
