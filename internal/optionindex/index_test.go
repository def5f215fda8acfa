package optionindex

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"nix-mcp-core/internal/htmlscrape"
)

func sampleRecords() []htmlscrape.OptionRecord {
	return []htmlscrape.OptionRecord{
		{Name: "programs.git.enable", Description: "Whether to enable git.", Type: "boolean", Category: "Programs", Source: "options"},
		{Name: "programs.git.userName", Description: "Your git user name.", Type: "string", Category: "Programs", Source: "options"},
		{Name: "services.syncthing.enable", Description: "Whether to enable syncthing.", Type: "boolean", Category: "Services", Source: "nixos-options"},
	}
}

func TestEnsureLoadedAndSearchExactMatch(t *testing.T) {
	idx := New(func(ctx context.Context, forceRefresh bool) ([]htmlscrape.OptionRecord, error) {
		return sampleRecords(), nil
	}, nil)

	res := idx.Search(context.Background(), "programs.git.enable", 10)
	require.True(t, res.Found)
	require.Equal(t, "programs.git.enable", res.Options[0].Name)
	require.Equal(t, StateLoaded, idx.State())
}

func TestSearchPrefixWildcard(t *testing.T) {
	idx := New(func(ctx context.Context, forceRefresh bool) ([]htmlscrape.OptionRecord, error) {
		return sampleRecords(), nil
	}, nil)

	res := idx.Search(context.Background(), "programs.git.*", 10)
	require.True(t, res.Found)
	require.Len(t, res.Options, 2)
}

func TestSearchTopLevelPrefix(t *testing.T) {
	idx := New(func(ctx context.Context, forceRefresh bool) ([]htmlscrape.OptionRecord, error) {
		return sampleRecords(), nil
	}, nil)

	res := idx.Search(context.Background(), "services", 10)
	require.True(t, res.Found)
	require.Equal(t, "services.syncthing.enable", res.Options[0].Name)
}

func TestSearchLoadErrorPropagates(t *testing.T) {
	idx := New(func(ctx context.Context, forceRefresh bool) ([]htmlscrape.OptionRecord, error) {
		return nil, errors.New("boom")
	}, nil)

	res := idx.Search(context.Background(), "x", 10)
	require.NotEmpty(t, res.Error)
	require.Equal(t, StateError, idx.State())
}

func TestGetOptionSuggestsOnMiss(t *testing.T) {
	idx := New(func(ctx context.Context, forceRefresh bool) ([]htmlscrape.OptionRecord, error) {
		return sampleRecords(), nil
	}, nil)

	lookup := idx.GetOption(context.Background(), "programs.git")
	require.False(t, lookup.Found)
	require.NotEmpty(t, lookup.Suggestions)
}

func TestGetOptionRelatedOptions(t *testing.T) {
	idx := New(func(ctx context.Context, forceRefresh bool) ([]htmlscrape.OptionRecord, error) {
		return sampleRecords(), nil
	}, nil)

	lookup := idx.GetOption(context.Background(), "programs.git.enable")
	require.True(t, lookup.Found)
	require.Len(t, lookup.RelatedOptions, 1)
	require.Equal(t, "programs.git.userName", lookup.RelatedOptions[0].Name)
}

func TestStats(t *testing.T) {
	idx := New(func(ctx context.Context, forceRefresh bool) ([]htmlscrape.OptionRecord, error) {
		return sampleRecords(), nil
	}, nil)

	stats := idx.Stats(context.Background())
	require.True(t, stats.Found)
	require.Equal(t, 3, stats.TotalOptions)
	require.Equal(t, 2, stats.TotalCategories)
}

func TestForceRefreshReloads(t *testing.T) {
	calls := 0
	var sawForceRefresh bool
	idx := New(func(ctx context.Context, forceRefresh bool) ([]htmlscrape.OptionRecord, error) {
		calls++
		if calls == 2 {
			sawForceRefresh = forceRefresh
		}
		return sampleRecords(), nil
	}, nil)

	require.NoError(t, idx.EnsureLoaded(context.Background(), false))
	require.NoError(t, idx.EnsureLoaded(context.Background(), true))
	require.Equal(t, 2, calls)
	require.True(t, sawForceRefresh)
}

func TestGetOptionsByPrefixAggregates(t *testing.T) {
	idx := New(func(ctx context.Context, forceRefresh bool) ([]htmlscrape.OptionRecord, error) {
		return sampleRecords(), nil
	}, nil)

	res, err := idx.GetOptionsByPrefix(context.Background(), "programs.git")
	require.NoError(t, err)
	require.Len(t, res.Options, 2)
	require.ElementsMatch(t, []string{"boolean", "string"}, res.Types)
	require.Len(t, res.EnableOptions, 1)
	require.Equal(t, "programs.git.enable", res.EnableOptions[0].Name)
	require.Equal(t, "programs.git", res.EnableOptions[0].Parent)
}

func TestGetOptionsList(t *testing.T) {
	idx := New(func(ctx context.Context, forceRefresh bool) ([]htmlscrape.OptionRecord, error) {
		return sampleRecords(), nil
	}, nil)

	cats, err := idx.GetOptionsList(context.Background())
	require.NoError(t, err)
	require.Len(t, cats, 2)

	byName := make(map[string]CategorySummary, len(cats))
	for _, c := range cats {
		byName[c.Name] = c
	}

	programs := byName["programs"]
	require.Equal(t, 2, programs.Count)
	require.True(t, programs.HasChildren)
	require.Len(t, programs.EnableOptions, 1)

	services := byName["services"]
	require.Equal(t, 1, services.Count)
	require.True(t, services.HasChildren)
}
