package context

import (
	"context"
	"fmt"

	"nix-mcp-core/internal/darwin"
	"nix-mcp-core/internal/optionindex"
)

// DarwinContext gates every query on the underlying index's loading state
// before delegating, mirroring HomeManagerContext but backed by a single
// nix-darwin manual page instead of three Home Manager pages.
type DarwinContext struct {
	client *darwin.Client
}

// NewDarwinContext wraps client and kicks off a background load.
func NewDarwinContext(client *darwin.Client) *DarwinContext {
	c := &DarwinContext{client: client}
	c.client.LoadInBackground(context.Background())
	return c
}

// EnsureLoaded eagerly loads data, optionally bypassing the disk cache.
func (c *DarwinContext) EnsureLoaded(ctx context.Context, forceRefresh bool) error {
	return c.client.EnsureLoaded(ctx, forceRefresh)
}

// GetStatus reports the underlying index's loading state without forcing a load.
func (c *DarwinContext) GetStatus() Status {
	switch c.client.State() {
	case optionindex.StateLoaded:
		return Status{State: "ok"}
	case optionindex.StateError:
		return Status{State: "error"}
	default:
		return Status{State: "loading"}
	}
}

func darwinLoadingGate(state optionindex.State) error {
	switch state {
	case optionindex.StateLoading, optionindex.StateNotStarted:
		return fmt.Errorf("nix-darwin data is still loading in the background, try again shortly")
	case optionindex.StateError:
		return fmt.Errorf("nix-darwin data failed to load")
	default:
		return nil
	}
}

// SearchOptions searches nix-darwin options, gated on the index's loading state.
func (c *DarwinContext) SearchOptions(ctx context.Context, query string, limit int) optionindex.SearchResult {
	if err := darwinLoadingGate(c.client.State()); err != nil {
		return optionindex.SearchResult{Error: err.Error()}
	}
	return c.client.Search(ctx, query, limit)
}

// GetOption looks up a single nix-darwin option by name.
func (c *DarwinContext) GetOption(ctx context.Context, name string) optionindex.OptionLookup {
	if err := darwinLoadingGate(c.client.State()); err != nil {
		return optionindex.OptionLookup{Error: err.Error()}
	}
	return c.client.GetOption(ctx, name)
}

// GetOptionsByPrefix lists every option under a dotted prefix, along with
// the distinct types present and any *.enable toggles.
func (c *DarwinContext) GetOptionsByPrefix(ctx context.Context, prefix string) (optionindex.PrefixResult, error) {
	if err := darwinLoadingGate(c.client.State()); err != nil {
		return optionindex.PrefixResult{}, err
	}
	return c.client.GetOptionsByPrefix(ctx, prefix)
}

// GetOptionsList summarizes every top-level option category: how many
// options it holds, the distinct types present, any *.enable toggles, and
// whether it has anything beyond its bare top-level name.
func (c *DarwinContext) GetOptionsList(ctx context.Context) ([]optionindex.CategorySummary, error) {
	if err := darwinLoadingGate(c.client.State()); err != nil {
		return nil, err
	}
	return c.client.GetOptionsList(ctx)
}

// GetStats reports aggregate statistics over the loaded option set.
func (c *DarwinContext) GetStats(ctx context.Context) optionindex.Stats {
	if err := darwinLoadingGate(c.client.State()); err != nil {
		return optionindex.Stats{Error: err.Error()}
	}
	return c.client.Stats(ctx)
}
