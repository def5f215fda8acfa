// Package context holds the NixOS/Home Manager/nix-darwin façades (C7):
// the uniform query surface callers (MCP tool handlers, in this repo's
// case the cmd/ smoke binary) use instead of reaching into C4/C6 directly.
package context

import (
	"context"
	"fmt"

	"nix-mcp-core/internal/homemanager"
	"nix-mcp-core/internal/optionindex"
)

// HomeManagerContext gates every query on the underlying index's loading
// state before delegating, per
// mcp_nixos/contexts/home_manager_context.py::search_options/get_option.
type HomeManagerContext struct {
	client *homemanager.Client
}

// NewHomeManagerContext wraps client and kicks off a background load, a
// fallback in case eager loading at server startup fails or is skipped.
func NewHomeManagerContext(client *homemanager.Client) *HomeManagerContext {
	c := &HomeManagerContext{client: client}
	c.client.LoadInBackground(context.Background())
	return c
}

// EnsureLoaded eagerly loads data, optionally bypassing the disk cache.
func (c *HomeManagerContext) EnsureLoaded(ctx context.Context, forceRefresh bool) error {
	return c.client.EnsureLoaded(ctx, forceRefresh)
}

// Status is the façade-level health snapshot, per
// home_manager_context.py::get_status.
type Status struct {
	State string
	Error string
}

// GetStatus reports the underlying index's loading state without forcing
// a load.
func (c *HomeManagerContext) GetStatus() Status {
	switch c.client.State() {
	case optionindex.StateLoaded:
		return Status{State: "ok"}
	case optionindex.StateError:
		return Status{State: "error"}
	default:
		return Status{State: "loading"}
	}
}

// loadingGate returns a non-nil error if the index isn't ready for a
// query yet — loading returns a transient error, a recorded load error is
// surfaced as-is — mirroring the reference context's loading_in_progress /
// loading_error checks ahead of every query method.
func loadingGate(state optionindex.State) error {
	switch state {
	case optionindex.StateLoading, optionindex.StateNotStarted:
		return fmt.Errorf("home manager data is still loading in the background, try again shortly")
	case optionindex.StateError:
		return fmt.Errorf("home manager data failed to load")
	default:
		return nil
	}
}

// SearchOptions searches Home Manager options, gated on the index's
// loading state.
func (c *HomeManagerContext) SearchOptions(ctx context.Context, query string, limit int) optionindex.SearchResult {
	if err := loadingGate(c.client.State()); err != nil {
		return optionindex.SearchResult{Error: err.Error()}
	}
	return c.client.Search(ctx, query, limit)
}

// GetOption looks up a single Home Manager option by name.
func (c *HomeManagerContext) GetOption(ctx context.Context, name string) optionindex.OptionLookup {
	if err := loadingGate(c.client.State()); err != nil {
		return optionindex.OptionLookup{Error: err.Error()}
	}
	return c.client.GetOption(ctx, name)
}

// GetOptionsByPrefix lists every option under a dotted prefix, along with
// the distinct types present and any *.enable toggles.
func (c *HomeManagerContext) GetOptionsByPrefix(ctx context.Context, prefix string) (optionindex.PrefixResult, error) {
	if err := loadingGate(c.client.State()); err != nil {
		return optionindex.PrefixResult{}, err
	}
	return c.client.GetOptionsByPrefix(ctx, prefix)
}

// GetOptionsList summarizes every top-level option category: how many
// options it holds, the distinct types present, any *.enable toggles, and
// whether it has anything beyond its bare top-level name.
func (c *HomeManagerContext) GetOptionsList(ctx context.Context) ([]optionindex.CategorySummary, error) {
	if err := loadingGate(c.client.State()); err != nil {
		return nil, err
	}
	return c.client.GetOptionsList(ctx)
}

// GetStats reports aggregate statistics over the loaded option set.
func (c *HomeManagerContext) GetStats(ctx context.Context) optionindex.Stats {
	if err := loadingGate(c.client.State()); err != nil {
		return optionindex.Stats{Error: err.Error()}
	}
	return c.client.Stats(ctx)
}
