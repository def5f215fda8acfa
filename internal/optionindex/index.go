// Package optionindex is the generic in-memory option index and eager-load
// state machine (C6) shared by the Home Manager and nix-darwin wirings. It
// is fed option records parsed by internal/htmlscrape and indexes them for
// scored search, prefix lookup, and sibling discovery.
package optionindex

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"nix-mcp-core/internal/htmlscrape"
	"nix-mcp-core/pkg/logger"
)

// State is the eager-load state machine's current phase, per spec.md §3
// "Lifecycle" (not_started → loading → loaded/error).
type State string

const (
	StateNotStarted State = "not_started"
	StateLoading    State = "loading"
	StateLoaded     State = "loaded"
	StateError      State = "error"
)

// Loader fetches and parses every option record this index should hold.
// forceRefresh asks the loader to bypass/invalidate any cache layer of its
// own (filesystem snapshots, HTML bodies) rather than just reloading from
// whatever is already on disk. Supplied by the Home Manager / nix-darwin
// wiring packages.
type Loader func(ctx context.Context, forceRefresh bool) ([]htmlscrape.OptionRecord, error)

// Index is the generic in-memory multi-index search engine: an exact
// name map, a category grouping, an inverted word index, a dotted-prefix
// index, and a (parent,leaf) hierarchical index, per spec.md §4.6.
type Index struct {
	mu sync.Mutex

	state   State
	loadErr error
	doneCh  chan struct{}

	options           map[string]htmlscrape.OptionRecord
	optionsByCategory map[string][]string
	invertedIndex     map[string]map[string]struct{}
	prefixIndex       map[string]map[string]struct{}
	hierarchicalIndex map[[2]string]map[string]struct{}

	lastUpdated time.Time
	loader      Loader
	log         *logger.Logger
}

// New builds an Index that calls loader to populate itself on first use.
func New(loader Loader, log *logger.Logger) *Index {
	if log == nil {
		log = logger.NewLogger()
	}
	return &Index{
		state:  StateNotStarted,
		loader: loader,
		log:    log,
	}
}

// State reports the current lifecycle phase.
func (idx *Index) State() State {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	return idx.state
}

// EnsureLoaded blocks until the index is populated (or a load error is
// recorded), triggering a load if one is not already under way.
// forceRefresh discards any existing data/state and reloads from scratch,
// per spec.md §3 "Lifecycle" invalidation rule.
func (idx *Index) EnsureLoaded(ctx context.Context, forceRefresh bool) error {
	idx.mu.Lock()
	if forceRefresh {
		idx.state = StateNotStarted
		idx.loadErr = nil
		idx.doneCh = nil
	}

	switch idx.state {
	case StateLoaded:
		idx.mu.Unlock()
		return nil
	case StateError:
		err := idx.loadErr
		idx.mu.Unlock()
		return fmt.Errorf("optionindex: previous load failed: %w", err)
	case StateLoading:
		ch := idx.doneCh
		idx.mu.Unlock()
		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}
		return idx.EnsureLoaded(ctx, false)
	}

	// StateNotStarted: we do the load ourselves.
	idx.state = StateLoading
	idx.doneCh = make(chan struct{})
	idx.mu.Unlock()

	idx.runLoad(ctx, forceRefresh)
	return idx.EnsureLoaded(ctx, false)
}

// LoadInBackground starts a load in a goroutine if one is not already in
// progress or complete, returning immediately. Errors surface on the next
// EnsureLoaded/Search/GetOption call.
func (idx *Index) LoadInBackground(ctx context.Context) {
	idx.mu.Lock()
	if idx.state != StateNotStarted {
		idx.mu.Unlock()
		return
	}
	idx.state = StateLoading
	idx.doneCh = make(chan struct{})
	idx.mu.Unlock()

	go idx.runLoad(ctx, false)
}

func (idx *Index) runLoad(ctx context.Context, forceRefresh bool) {
	records, err := idx.loader(ctx, forceRefresh)

	idx.mu.Lock()
	defer func() {
		close(idx.doneCh)
		idx.mu.Unlock()
	}()

	if err != nil {
		idx.state = StateError
		idx.loadErr = err
		idx.log.Error(fmt.Sprintf("optionindex: load failed: %s", err))
		return
	}

	idx.buildIndicesLocked(records)
	idx.state = StateLoaded
	idx.lastUpdated = time.Now()
	idx.log.Info(fmt.Sprintf("optionindex: loaded %d options", len(idx.options)))
}

var wordRe = regexp.MustCompile(`\w+`)

// buildIndicesLocked rebuilds every index structure from records. Caller
// must hold idx.mu. Grounded on
// home_manager_client.py::build_search_indices.
func (idx *Index) buildIndicesLocked(records []htmlscrape.OptionRecord) {
	idx.options = make(map[string]htmlscrape.OptionRecord, len(records))
	idx.optionsByCategory = make(map[string][]string)
	idx.invertedIndex = make(map[string]map[string]struct{})
	idx.prefixIndex = make(map[string]map[string]struct{})
	idx.hierarchicalIndex = make(map[[2]string]map[string]struct{})

	addSet := func(m map[string]map[string]struct{}, key, value string) {
		s, ok := m[key]
		if !ok {
			s = make(map[string]struct{})
			m[key] = s
		}
		s[value] = struct{}{}
	}

	for _, rec := range records {
		name := rec.Name
		idx.options[name] = rec

		category := rec.Category
		if category == "" {
			category = "Uncategorized"
		}
		idx.optionsByCategory[category] = append(idx.optionsByCategory[category], name)

		for _, w := range wordRe.FindAllString(strings.ToLower(name), -1) {
			if len(w) > 2 {
				addSet(idx.invertedIndex, w, name)
			}
		}
		for _, w := range wordRe.FindAllString(strings.ToLower(rec.Description), -1) {
			if len(w) > 2 {
				addSet(idx.invertedIndex, w, name)
			}
		}

		parts := strings.Split(name, ".")
		for i := 1; i <= len(parts); i++ {
			prefix := strings.Join(parts[:i], ".")
			addSet(idx.prefixIndex, prefix, name)
		}
		for i, part := range parts {
			parent := ""
			if i > 0 {
				parent = strings.Join(parts[:i], ".")
			}
			key := [2]string{parent, part}
			s, ok := idx.hierarchicalIndex[key]
			if !ok {
				s = make(map[string]struct{})
				idx.hierarchicalIndex[key] = s
			}
			s[name] = struct{}{}
		}
	}
}

// SearchResult mirrors home_manager_client.py::search_options' envelope.
type SearchResult struct {
	Count   int                       `json:"count"`
	Options []htmlscrape.OptionRecord `json:"options"`
	Scores  map[string]int            `json:"-"`
	Found   bool                      `json:"found"`
	Error   string                    `json:"error,omitempty"`
}

// Search runs the scored search cascade over the index: exact match (100),
// prefix/hierarchical match (90/80/75), word-intersection scoring
// (+10 name / +3 description per word), and a word-prefix fallback (+2),
// grounded on home_manager_client.py::search_options.
func (idx *Index) Search(ctx context.Context, query string, limit int) SearchResult {
	if err := idx.EnsureLoaded(ctx, false); err != nil {
		return SearchResult{Error: fmt.Sprintf("Failed to load data: %s", err)}
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	query = strings.TrimSpace(query)
	if query == "" {
		return SearchResult{Error: "Empty query"}
	}

	matches := make(map[string]int)

	if _, ok := idx.options[query]; ok {
		matches[query] = 100
	}

	if strings.Contains(query, ".") {
		if strings.HasSuffix(query, "*") {
			prefix := strings.TrimSuffix(query, "*")
			for name := range idx.prefixIndex[prefix] {
				matches[name] = 90
			}
		} else {
			for name := range idx.prefixIndex[query] {
				if strings.HasPrefix(name, query+".") {
					matches[name] = 80
				}
			}
		}
	} else {
		for name := range idx.options {
			if strings.HasPrefix(name, query+".") {
				if matches[name] < 75 {
					matches[name] = 75
				}
			}
		}
	}

	words := wordRe.FindAllString(strings.ToLower(query), -1)
	if len(words) > 0 {
		candidates := idx.intersectWordMatches(words)
		for name := range candidates {
			rec := idx.options[name]
			score := 0
			lowerName := strings.ToLower(name)
			lowerDesc := strings.ToLower(rec.Description)
			for _, w := range words {
				if strings.Contains(lowerName, w) {
					score += 10
				} else if strings.Contains(lowerDesc, w) {
					score += 3
				}
			}
			if score > matches[name] {
				matches[name] = score
			}
		}
	}

	if len(matches) == 0 && len(words) > 0 {
		var prefixes []string
		for _, w := range words {
			if len(w) >= 3 {
				prefixes = append(prefixes, w[:3])
			}
		}
		for _, p := range prefixes {
			for word, names := range idx.invertedIndex {
				if strings.HasPrefix(word, p) {
					for name := range names {
						matches[name] += 2
					}
				}
			}
		}
	}

	type scored struct {
		name  string
		score int
	}
	ordered := make([]scored, 0, len(matches))
	for name, score := range matches {
		ordered = append(ordered, scored{name, score})
	}
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].score != ordered[j].score {
			return ordered[i].score > ordered[j].score
		}
		return ordered[i].name < ordered[j].name
	})

	if limit > 0 && len(ordered) > limit {
		ordered = ordered[:limit]
	}

	result := SearchResult{Count: len(matches), Found: len(ordered) > 0}
	for _, s := range ordered {
		result.Options = append(result.Options, idx.options[s.name])
	}
	return result
}

func (idx *Index) intersectWordMatches(words []string) map[string]struct{} {
	var candidates map[string]struct{}
	for i, w := range words {
		set := idx.invertedIndex[w]
		if i == 0 {
			candidates = make(map[string]struct{}, len(set))
			for name := range set {
				candidates[name] = struct{}{}
			}
			continue
		}
		for name := range candidates {
			if _, ok := set[name]; !ok {
				delete(candidates, name)
			}
		}
	}
	return candidates
}

// OptionLookup is the detailed single-option result, per
// home_manager_client.py::get_option.
type OptionLookup struct {
	htmlscrape.OptionRecord
	Found          bool                      `json:"found"`
	Error          string                    `json:"error,omitempty"`
	RelatedOptions []htmlscrape.OptionRecord `json:"related_options,omitempty"`
	Suggestions    []string                  `json:"suggestions,omitempty"`
}

// GetOption looks up name exactly, falling back to a "did you mean"
// suggestion drawn from the prefix index, and attaches up to 5 sibling
// options sharing the same parent path.
func (idx *Index) GetOption(ctx context.Context, name string) OptionLookup {
	if err := idx.EnsureLoaded(ctx, false); err != nil {
		return OptionLookup{Error: fmt.Sprintf("Failed to load data: %s", err)}
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	rec, ok := idx.options[name]
	if !ok {
		if names, ok := idx.prefixIndex[name]; ok && len(names) > 0 {
			sorted := sortedKeys(names)
			suggestion := sorted[0]
			if len(sorted) > 5 {
				sorted = sorted[:5]
			}
			return OptionLookup{
				OptionRecord: htmlscrape.OptionRecord{Name: name},
				Error:        fmt.Sprintf("Option not found. Did you mean '%s'?", suggestion),
				Suggestions:  sorted,
			}
		}
		return OptionLookup{OptionRecord: htmlscrape.OptionRecord{Name: name}, Error: "Option not found"}
	}

	result := OptionLookup{OptionRecord: rec, Found: true}

	if strings.Contains(name, ".") {
		parts := strings.Split(name, ".")
		parentPath := strings.Join(parts[:len(parts)-1], ".")
		siblingSet := make(map[string]struct{})
		for otherName := range idx.options {
			if otherName != name && strings.HasPrefix(otherName, parentPath+".") {
				siblingSet[otherName] = struct{}{}
			}
		}
		siblingNames := sortedKeys(siblingSet)
		if len(siblingNames) > 5 {
			siblingNames = siblingNames[:5]
		}
		var related []htmlscrape.OptionRecord
		for _, otherName := range siblingNames {
			related = append(related, idx.options[otherName])
		}
		result.RelatedOptions = related
	}

	return result
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Stats mirrors home_manager_client.py::get_stats' envelope.
type Stats struct {
	TotalOptions      int
	TotalCategories   int
	TotalTypes        int
	BySource          map[string]int
	ByCategory        map[string]int
	ByType            map[string]int
	IndexWords        int
	IndexPrefixes     int
	IndexHierarchical int
	Found             bool
	Error             string
}

// Stats returns aggregate counts over the loaded index.
func (idx *Index) Stats(ctx context.Context) Stats {
	if err := idx.EnsureLoaded(ctx, false); err != nil {
		return Stats{Error: fmt.Sprintf("Failed to load data: %s", err)}
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	bySource := make(map[string]int)
	byType := make(map[string]int)
	for _, rec := range idx.options {
		source := rec.Source
		if source == "" {
			source = "unknown"
		}
		bySource[source]++

		t := rec.Type
		if t == "" {
			t = "unknown"
		}
		byType[t]++
	}

	byCategory := make(map[string]int, len(idx.optionsByCategory))
	for cat, names := range idx.optionsByCategory {
		byCategory[cat] = len(names)
	}

	return Stats{
		TotalOptions:      len(idx.options),
		TotalCategories:   len(idx.optionsByCategory),
		TotalTypes:        len(byType),
		BySource:          bySource,
		ByCategory:        byCategory,
		ByType:            byType,
		IndexWords:        len(idx.invertedIndex),
		IndexPrefixes:     len(idx.prefixIndex),
		IndexHierarchical: len(idx.hierarchicalIndex),
		Found:             true,
	}
}

// EnableOption is a boolean `*.enable` toggle surfaced alongside a prefix or
// category listing, per home_manager_context.py::get_options_by_prefix's
// enable_options aggregate.
type EnableOption struct {
	Name   string `json:"name"`
	Parent string `json:"parent"`
}

// aggregateLocked computes the distinct option types present in names and
// the *.enable boolean toggles among them, annotated with their parent
// path. Caller must hold idx.mu.
func (idx *Index) aggregateLocked(names map[string]struct{}) ([]string, []EnableOption) {
	typesSet := make(map[string]struct{})
	var enableOpts []EnableOption
	for _, name := range sortedKeys(names) {
		rec := idx.options[name]
		if rec.Type != "" {
			typesSet[rec.Type] = struct{}{}
		}
		if rec.Type == "boolean" && strings.HasSuffix(name, ".enable") {
			enableOpts = append(enableOpts, EnableOption{
				Name:   name,
				Parent: strings.TrimSuffix(name, ".enable"),
			})
		}
	}
	return sortedKeys(typesSet), enableOpts
}

// PrefixResult is the options-under-a-prefix envelope, enriched with the
// distinct types present and any *.enable toggles, per
// home_manager_context.py::get_options_by_prefix.
type PrefixResult struct {
	Options       []htmlscrape.OptionRecord `json:"options"`
	Types         []string                  `json:"types"`
	EnableOptions []EnableOption            `json:"enable_options,omitempty"`
}

// GetOptionsByPrefix returns every option under the given dotted prefix,
// plus the distinct types and *.enable toggles found among them.
func (idx *Index) GetOptionsByPrefix(ctx context.Context, prefix string) (PrefixResult, error) {
	if err := idx.EnsureLoaded(ctx, false); err != nil {
		return PrefixResult{}, err
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	names, ok := idx.prefixIndex[prefix]
	if !ok {
		return PrefixResult{}, nil
	}
	out := make([]htmlscrape.OptionRecord, 0, len(names))
	for _, name := range sortedKeys(names) {
		out = append(out, idx.options[name])
	}
	types, enableOpts := idx.aggregateLocked(names)
	return PrefixResult{Options: out, Types: types, EnableOptions: enableOpts}, nil
}

// CategorySummary is one top-level category's aggregate view, per
// home_manager_context.py::get_options_list's 25-entry top-level walk.
type CategorySummary struct {
	Name          string         `json:"name"`
	Count         int            `json:"count"`
	Types         []string       `json:"types"`
	EnableOptions []EnableOption `json:"enable_options,omitempty"`
	HasChildren   bool           `json:"has_children"`
}

// GetOptionsList walks the top-level dotted-path segment of every option
// (e.g. "programs", "services") and summarizes each one: how many options
// it holds, the distinct types present, any *.enable toggles, and whether
// it has anything beyond the bare top-level name itself.
func (idx *Index) GetOptionsList(ctx context.Context) ([]CategorySummary, error) {
	if err := idx.EnsureLoaded(ctx, false); err != nil {
		return nil, err
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	segments := make(map[string]struct{})
	for name := range idx.options {
		segments[strings.SplitN(name, ".", 2)[0]] = struct{}{}
	}

	out := make([]CategorySummary, 0, len(segments))
	for _, seg := range sortedKeys(segments) {
		names := idx.prefixIndex[seg]
		types, enableOpts := idx.aggregateLocked(names)
		hasChildren := false
		for name := range names {
			if name != seg {
				hasChildren = true
				break
			}
		}
		out = append(out, CategorySummary{
			Name:          seg,
			Count:         len(names),
			Types:         types,
			EnableOptions: enableOpts,
			HasChildren:   hasChildren,
		})
	}
	return out, nil
}
