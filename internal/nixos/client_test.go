package nixos

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *SearchClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := Config{
		BaseURL:     srv.URL,
		User:        "u",
		Password:    "p",
		MaxRetries:  2,
		RetryDelay:  time.Millisecond,
		ConnTimeout: time.Second,
		ReadTimeout: time.Second,
		CacheTTL:    time.Minute,
		CacheSize:   100,
	}
	return New(cfg, nil)
}

func TestSearchPackages(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]any{
			"hits": map[string]any{
				"total": map[string]any{"value": 1},
				"hits": []map[string]any{
					{
						"_score": 9.5,
						"_source": map[string]any{
							"package_attr_name": "ripgrep",
							"package_pname":     "ripgrep",
							"package_version":   "14.1.0",
							"package_channel":   "nixos-unstable",
						},
					},
				},
			},
		}
		_ = json.NewEncoder(w).Encode(resp)
	})

	res, err := c.SearchPackages(context.Background(), "ripgrep", 10, 0)
	require.NoError(t, err)
	require.Equal(t, 1, res.Count)
	require.Equal(t, "ripgrep", res.Packages[0].Name)
}

func TestSearchOptionsFiltersNonOptionHits(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]any{
			"hits": map[string]any{
				"total": map[string]any{"value": 2},
				"hits": []map[string]any{
					{"_score": 5, "_source": map[string]any{"type": "option", "option_name": "services.nginx.enable"}},
					{"_score": 3, "_source": map[string]any{"type": "package"}},
				},
			},
		}
		_ = json.NewEncoder(w).Encode(resp)
	})

	res, err := c.SearchOptions(context.Background(), "services.nginx", 10, 0)
	require.NoError(t, err)
	require.Len(t, res.Options, 1)
	require.Equal(t, "services.nginx.enable", res.Options[0].Name)
}

func TestGetOptionNotFoundFallsBackToServiceHint(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]any{
			"hits": map[string]any{
				"total": map[string]any{"value": 0},
				"hits":  []map[string]any{},
			},
		}
		_ = json.NewEncoder(w).Encode(resp)
	})

	opt, err := c.GetOption(context.Background(), "services.foobar.nonExistent")
	require.NoError(t, err)
	require.False(t, opt.Found)
	require.True(t, opt.IsServicePath)
	require.Equal(t, "foobar", opt.ServiceName)
}

func TestGetPackageNotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]any{"hits": map[string]any{"total": map[string]any{"value": 0}, "hits": []map[string]any{}}}
		_ = json.NewEncoder(w).Encode(resp)
	})

	pkg, err := c.GetPackage(context.Background(), "doesnotexist")
	require.NoError(t, err)
	require.False(t, pkg.Found)
	require.Equal(t, "doesnotexist", pkg.Name)
}

func TestSetChannelUnknownFallsBackToUnstable(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{})
	})
	c.SetChannel("nonexistent-channel")
	require.Equal(t, "unstable", c.channel)
}

func TestConcurrentSetChannelIsRaceFree(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{})
	})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() { defer wg.Done(); c.SetChannel("stable") }()
		go func() { defer wg.Done(); _ = c.searchURL() }()
	}
	wg.Wait()
}

func TestPackageFromSourceFallsBackToPversion(t *testing.T) {
	pkg := packageFromSource(map[string]any{
		"package_attr_name": "legacy-pkg",
		"package_pversion":  "1.2.3",
	}, 1.0)
	require.Equal(t, "1.2.3", pkg.Version)
}

func TestSearchOptionsSplitsAdditionalAndQuotedTerms(t *testing.T) {
	var captured map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&captured)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"hits": map[string]any{"total": map[string]any{"value": 0}, "hits": []map[string]any{}},
		})
	})

	_, err := c.SearchOptions(context.Background(), `programs.git extra "exact phrase"`, 10, 0)
	require.NoError(t, err)

	query := captured["query"].(map[string]any)
	boolQ := query["bool"].(map[string]any)
	must := boolQ["must"].([]any)
	disMax := must[0].(map[string]any)["dis_max"].(map[string]any)
	queries := disMax["queries"].([]any)

	var sawMatch, sawPhrase bool
	for _, q := range queries {
		qm := q.(map[string]any)
		if m, ok := qm["match"]; ok {
			desc := m.(map[string]any)["option_description"].(map[string]any)
			require.Equal(t, "extra", desc["query"])
			require.Equal(t, 4.0, desc["boost"])
			sawMatch = true
		}
		if m, ok := qm["match_phrase"]; ok {
			desc := m.(map[string]any)["option_description"].(map[string]any)
			require.Equal(t, "exact phrase", desc["query"])
			require.Equal(t, 6.0, desc["boost"])
			sawPhrase = true
		}
	}
	require.True(t, sawMatch, "expected an additional-term match clause")
	require.True(t, sawPhrase, "expected a quoted-phrase match_phrase clause")
}

func TestCountOptions(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"count": 4321})
	})
	n, err := c.CountOptions(context.Background())
	require.NoError(t, err)
	require.Equal(t, 4321, n)
}

func TestQueryResultsAreCached(t *testing.T) {
	var calls int
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		_ = json.NewEncoder(w).Encode(map[string]any{"hits": map[string]any{"total": map[string]any{"value": 0}, "hits": []map[string]any{}}})
	})

	_, err := c.SearchPackages(context.Background(), "x", 10, 0)
	require.NoError(t, err)
	_, err = c.SearchPackages(context.Background(), "x", 10, 0)
	require.NoError(t, err)

	require.Equal(t, 1, calls)
}
