// Package homemanager wires the generic option index (C6) to the three
// Home Manager HTML documentation sources, fetched via the HTTP fabric
// (C1), cached on disk (C3), and parsed by internal/htmlscrape (C5).
package homemanager

import (
	"context"
	"fmt"
	"time"

	"nix-mcp-core/internal/fscache"
	"nix-mcp-core/internal/htmlscrape"
	"nix-mcp-core/internal/httpfabric"
	"nix-mcp-core/internal/optionindex"
	"nix-mcp-core/pkg/logger"
)

// docURLs are the three Home Manager option-reference pages, grounded on
// home_manager_client.py.__init__'s hm_urls map.
var docURLs = map[string]string{
	"options":            "https://nix-community.github.io/home-manager/options.xhtml",
	"nixos-options":      "https://nix-community.github.io/home-manager/nixos-options.xhtml",
	"nix-darwin-options": "https://nix-community.github.io/home-manager/nix-darwin-options.xhtml",
}

// Config carries the client's retry/timeout/cache tunables.
type Config struct {
	MaxRetries   int
	RetryDelay   time.Duration
	ConnTimeout  time.Duration
	ReadTimeout  time.Duration
	HTMLCacheTTL time.Duration
}

// Client is the Home Manager option source: fetch + parse + index.
type Client struct {
	*optionindex.Index
}

// New builds a Home Manager client backed by an on-disk HTML cache at
// cacheDir and the shared option index engine.
func New(cfg Config, cacheDir string, log *logger.Logger) *Client {
	if log == nil {
		log = logger.NewLogger()
	}

	fab := httpfabric.New(log)
	htmlCache := fscache.New(cacheDir, cfg.HTMLCacheTTL, log)

	// snapshotID is the structured-data slot's cache key: the full parsed
	// record set for all three doc types, so a second process can skip the
	// HTML fetch-and-parse path entirely when the snapshot is still fresh.
	const snapshotID = "homemanager-options"

	loader := func(ctx context.Context, forceRefresh bool) ([]htmlscrape.OptionRecord, error) {
		if forceRefresh {
			for _, url := range docURLs {
				_ = htmlCache.Invalidate(url)
			}
			_ = htmlCache.InvalidateData(snapshotID)
		} else {
			var snapshot []htmlscrape.OptionRecord
			if htmlCache.GetData(snapshotID, &snapshot) {
				return snapshot, nil
			}
		}

		var all []htmlscrape.OptionRecord
		var errs []string

		for docType, url := range docURLs {
			body, ok := htmlCache.Get(url)
			if !ok {
				res, err := fab.Do(ctx, url, httpfabric.Options{
					MaxRetries:  cfg.MaxRetries,
					RetryDelay:  cfg.RetryDelay,
					ConnTimeout: cfg.ConnTimeout,
					ReadTimeout: cfg.ReadTimeout,
				})
				if err != nil {
					errs = append(errs, fmt.Sprintf("%s: %s", docType, err))
					continue
				}
				body = string(res.Body)
				_ = htmlCache.Set(url, body)
			}

			records := htmlscrape.ParseHomeManager(body, docType)
			all = append(all, records...)
		}

		if len(all) == 0 && len(errs) > 0 {
			return nil, fmt.Errorf("failed to load Home Manager options: %v", errs)
		}
		_ = htmlCache.SetData(snapshotID, all)
		return all, nil
	}

	return &Client{Index: optionindex.New(loader, log)}
}
