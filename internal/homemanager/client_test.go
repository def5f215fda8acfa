package homemanager

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"nix-mcp-core/internal/fscache"
	"nix-mcp-core/internal/htmlscrape"
)

func TestLoaderUsesStructuredSnapshot(t *testing.T) {
	dir := t.TempDir()
	cache := fscache.New(dir, time.Hour, nil)
	require.NoError(t, cache.SetData("homemanager-options", []htmlscrape.OptionRecord{
		{Name: "programs.foo.enable", Type: "boolean", Description: "Enable foo.", Source: "options"},
	}))

	client := New(Config{HTMLCacheTTL: time.Hour}, dir, nil)

	res := client.Search(context.Background(), "programs.foo.enable", 10)
	require.True(t, res.Found, res.Error)
	require.Equal(t, "programs.foo.enable", res.Options[0].Name)
}

func TestForceRefreshInvalidatesSnapshot(t *testing.T) {
	dir := t.TempDir()
	cache := fscache.New(dir, time.Hour, nil)
	require.NoError(t, cache.SetData("homemanager-options", []htmlscrape.OptionRecord{
		{Name: "programs.foo.enable", Type: "boolean", Source: "options"},
	}))

	client := New(Config{
		HTMLCacheTTL: time.Hour,
		MaxRetries:   0,
		RetryDelay:   time.Millisecond,
		ConnTimeout:  100 * time.Millisecond,
		ReadTimeout:  100 * time.Millisecond,
	}, dir, nil)

	// A forced refresh discards the structured snapshot, so the loader
	// falls through to a real fetch against docURLs — which fails in this
	// offline test environment, proving the snapshot was actually purged
	// rather than quietly reused.
	err := client.EnsureLoaded(context.Background(), true)
	require.Error(t, err)

	var snapshot []htmlscrape.OptionRecord
	require.False(t, cache.GetData("homemanager-options", &snapshot))
}
