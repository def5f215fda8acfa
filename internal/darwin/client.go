// Package darwin wires the generic option index (C6) to the nix-darwin
// manual's option-reference page.
package darwin

import (
	"context"
	"time"

	"nix-mcp-core/internal/fscache"
	"nix-mcp-core/internal/htmlscrape"
	"nix-mcp-core/internal/httpfabric"
	"nix-mcp-core/internal/optionindex"
	"nix-mcp-core/pkg/logger"
)

// BaseURL and OptionReferenceURL are grounded on
// darwin_client.py::DarwinClient.BASE_URL/OPTION_REFERENCE_URL.
const (
	BaseURL            = "https://daiderd.com/nix-darwin/manual"
	OptionReferenceURL = BaseURL + "/index.html"
)

// Config carries the client's retry/timeout/cache tunables.
type Config struct {
	MaxRetries   int
	RetryDelay   time.Duration
	ConnTimeout  time.Duration
	ReadTimeout  time.Duration
	HTMLCacheTTL time.Duration
}

// Client is the nix-darwin option source: fetch + parse + index.
type Client struct {
	*optionindex.Index
}

// New builds a nix-darwin client backed by an on-disk HTML cache at
// cacheDir and the shared option index engine.
func New(cfg Config, cacheDir string, log *logger.Logger) *Client {
	if log == nil {
		log = logger.NewLogger()
	}

	fab := httpfabric.New(log)
	htmlCache := fscache.New(cacheDir, cfg.HTMLCacheTTL, log)

	// snapshotID is the structured-data slot's cache key for the parsed
	// record set, so a second process can skip the HTML fetch-and-parse
	// path entirely when the snapshot is still fresh.
	const snapshotID = "darwin-options"

	loader := func(ctx context.Context, forceRefresh bool) ([]htmlscrape.OptionRecord, error) {
		if forceRefresh {
			_ = htmlCache.Invalidate(OptionReferenceURL)
			_ = htmlCache.InvalidateData(snapshotID)
		} else {
			var snapshot []htmlscrape.OptionRecord
			if htmlCache.GetData(snapshotID, &snapshot) {
				return snapshot, nil
			}
		}

		body, ok := htmlCache.Get(OptionReferenceURL)
		if !ok {
			res, err := fab.Do(ctx, OptionReferenceURL, httpfabric.Options{
				MaxRetries:  cfg.MaxRetries,
				RetryDelay:  cfg.RetryDelay,
				ConnTimeout: cfg.ConnTimeout,
				ReadTimeout: cfg.ReadTimeout,
			})
			if err != nil {
				return nil, err
			}
			body = string(res.Body)
			_ = htmlCache.Set(OptionReferenceURL, body)
		}

		records := htmlscrape.ParseDarwin(body, "darwin")
		_ = htmlCache.SetData(snapshotID, records)
		return records, nil
	}

	return &Client{Index: optionindex.New(loader, log)}
}
