package context

import (
	"context"

	"nix-mcp-core/internal/nixos"
)

// NixOSContext is a thin pass-through over the search client (C4). Unlike
// HomeManagerContext/DarwinContext it has no loading-state gate: C4 has no
// eager background load, every query hits the Elasticsearch backend (or its
// in-memory cache) directly, per SPEC_FULL.md §4.7.
type NixOSContext struct {
	client *nixos.SearchClient
}

// NewNixOSContext wraps client.
func NewNixOSContext(client *nixos.SearchClient) *NixOSContext {
	return &NixOSContext{client: client}
}

// SetChannel switches the channel used for subsequent queries.
func (c *NixOSContext) SetChannel(channel string) {
	c.client.SetChannel(channel)
}

// SearchPackages searches for NixOS packages by name/description/program.
func (c *NixOSContext) SearchPackages(ctx context.Context, query string, limit, offset int) (*nixos.PackageSearchResult, error) {
	return c.client.SearchPackages(ctx, query, limit, offset)
}

// SearchOptions searches for NixOS options.
func (c *NixOSContext) SearchOptions(ctx context.Context, query string, limit, offset int) (*nixos.OptionSearchResult, error) {
	return c.client.SearchOptions(ctx, query, limit, offset)
}

// SearchPrograms searches for packages providing a given program.
func (c *NixOSContext) SearchPrograms(ctx context.Context, program string, limit, offset int) (*nixos.PackageSearchResult, error) {
	return c.client.SearchPrograms(ctx, program, limit, offset)
}

// SearchPackagesWithVersion filters packages by a name/description match
// and a version wildcard pattern.
func (c *NixOSContext) SearchPackagesWithVersion(ctx context.Context, query, versionPattern string, limit, offset int) (*nixos.PackageSearchResult, error) {
	return c.client.SearchPackagesWithVersion(ctx, query, versionPattern, limit, offset)
}

// GetPackageStats returns package aggregations (channel/license/platform
// breakdowns) for query.
func (c *NixOSContext) GetPackageStats(ctx context.Context, query string) (*nixos.Stats, error) {
	return c.client.GetPackageStats(ctx, query)
}

// CountOptions returns the total number of option documents in the current
// channel's index.
func (c *NixOSContext) CountOptions(ctx context.Context) (int, error) {
	return c.client.CountOptions(ctx)
}

// GetPackage looks up a package by exact attribute name.
func (c *NixOSContext) GetPackage(ctx context.Context, name string) (*nixos.Package, error) {
	return c.client.GetPackage(ctx, name)
}

// GetOption looks up an option by exact name, with prefix/sibling fallback.
func (c *NixOSContext) GetOption(ctx context.Context, name string) (*nixos.Option, error) {
	return c.client.GetOption(ctx, name)
}
