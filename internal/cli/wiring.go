// Package cli is the smoke-test entry point for the nix-mcp-core
// components (C1-C7): a small cobra tree plus an interactive REPL that
// exercises NixOS/Home Manager/nix-darwin search without wiring up a full
// MCP transport, grounded on internal/cli/root.go's NewRootCommand shape.
package cli

import (
	"nix-mcp-core/internal/config"
	nixoscontext "nix-mcp-core/internal/context"
	"nix-mcp-core/internal/darwin"
	"nix-mcp-core/internal/homemanager"
	"nix-mcp-core/internal/nixos"
	"nix-mcp-core/pkg/logger"
)

// contexts bundles the three C7 façades the commands below query.
type contexts struct {
	nixos *nixoscontext.NixOSContext
	hm    *nixoscontext.HomeManagerContext
	dwn   *nixoscontext.DarwinContext
	log   *logger.Logger
}

// buildContexts wires internal/config.ServerConfig into the C4/C5/C6
// clients and their C7 façades.
func buildContexts(cfg *config.ServerConfig) *contexts {
	log := logger.NewLoggerWithLevel(cfg.LogLevel)

	nixosClient := nixos.New(nixos.Config{
		BaseURL:     cfg.Elasticsearch.BaseURL,
		User:        cfg.Elasticsearch.User,
		Password:    cfg.Elasticsearch.Password,
		MaxRetries:  cfg.NixOSRetry.MaxRetries,
		RetryDelay:  cfg.NixOSRetry.RetryDelay,
		ConnTimeout: cfg.NixOSRetry.ConnectTimeout,
		ReadTimeout: cfg.NixOSRetry.ReadTimeout,
		CacheTTL:    cfg.Cache.MemoryTTL,
		CacheSize:   cfg.Cache.MemoryMaxSize,
	}, log)

	hmClient := homemanager.New(homemanager.Config{
		MaxRetries:   cfg.HMRetry.MaxRetries,
		RetryDelay:   cfg.HMRetry.RetryDelay,
		ConnTimeout:  cfg.HMRetry.ConnectTimeout,
		ReadTimeout:  cfg.HMRetry.ReadTimeout,
		HTMLCacheTTL: cfg.Cache.FilesystemTTL,
	}, cfg.Cache.Dir, log)

	darwinClient := darwin.New(darwin.Config{
		MaxRetries:   cfg.HMRetry.MaxRetries,
		RetryDelay:   cfg.HMRetry.RetryDelay,
		ConnTimeout:  cfg.HMRetry.ConnectTimeout,
		ReadTimeout:  cfg.HMRetry.ReadTimeout,
		HTMLCacheTTL: cfg.Cache.FilesystemTTL,
	}, cfg.Cache.Dir, log)

	return &contexts{
		nixos: nixoscontext.NewNixOSContext(nixosClient),
		hm:    nixoscontext.NewHomeManagerContext(hmClient),
		dwn:   nixoscontext.NewDarwinContext(darwinClient),
		log:   log,
	}
}
