package darwin

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
	require.NoError(t, cache.SetData("darwin-options", []htmlscrape.OptionRecord{
		{Name: "services.foo.enable", Type: "boolean", Description: "Enable foo.", Source: "darwin"},
	}))

	client := New(Config{HTMLCacheTTL: time.Hour}, dir, nil)

	res := client.Search(context.Background(), "services.foo.enable", 10)
	require.True(t, res.Found, res.Error)
	require.Equal(t, "services.foo.enable", res.Options[0].Name)
}

func TestForceRefreshInvalidatesSnapshot(t *testing.T) {
	dir := t.TempDir()
	cache := fscache.New(dir, time.Hour, nil)
	require.NoError(t, cache.SetData("darwin-options", []htmlscrape.OptionRecord{
		{Name: "services.foo.enable", Type: "boolean", Source: "darwin"},
	}))

	client := New(Config{
		HTMLCacheTTL: time.Hour,
		MaxRetries:   0,
		RetryDelay:   time.Millisecond,
		ConnTimeout:  100 * time.Millisecond,
		ReadTimeout:  100 * time.Millisecond,
	}, dir, nil)

	// A forced refresh discards the structured snapshot, so the loader
	// falls through to a real fetch against OptionReferenceURL — which
	// fails in this offline test environment, proving the snapshot was
	// actually purged rather than quietly reused.
	err := client.EnsureLoaded(context.Background(), true)
	require.Error(t, err)

	var snapshot []htmlscrape.OptionRecord
	require.False(t, cache.GetData("darwin-options", &snapshot))
}
