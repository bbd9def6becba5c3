package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchService_Search(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	creator := env.account(t, "ulla")
	env.account(t, "tidewright")
	env.project(t, creator.ID, func(in *CreateProjectInput) { in.Title = "Tide Pools" })
	env.project(t, creator.ID, func(in *CreateProjectInput) {
		in.Title = "Field Notes"
		in.Description = "recordings of the TIDE"
	})
	env.project(t, creator.ID, func(in *CreateProjectInput) { in.Title = "Unrelated" })

	res, err := env.searchSvc.Search(ctx, "  tide ")
	require.NoError(t, err)
	assert.Equal(t, "tide", res.Query)
	require.Len(t, res.Accounts, 1)
	assert.Equal(t, "tidewright", res.Accounts[0].Username)
	assert.Len(t, res.Projects, 2)
}

func TestSearchService_ShortQuery(t *testing.T) {
	env := newTestEnv(t)
	env.account(t, "ulla")

	res, err := env.searchSvc.Search(context.Background(), " u ")
	require.NoError(t, err)
	assert.NotNil(t, res.Accounts)
	assert.Empty(t, res.Accounts)
	assert.Empty(t, res.Projects)
}

func TestSearchService_LimitsAndEscaping(t *testing.T) {
	env := newTestEnv(t)
	for i := 0; i < SearchResultLimit+3; i++ {
		env.account(t, fmt.Sprintf("painter%02d", i))
	}

	res, err := env.searchSvc.Search(context.Background(), "painter")
	require.NoError(t, err)
	assert.Len(t, res.Accounts, SearchResultLimit)

	// "_" is matched literally, not as a wildcard
	res, err = env.searchSvc.Search(context.Background(), "r_0")
	require.NoError(t, err)
	assert.Empty(t, res.Accounts)
}
