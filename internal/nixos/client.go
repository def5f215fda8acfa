// Package nixos is the NixOS Elasticsearch search client (C4): channel
// routing, query-DSL construction, and hit parsing against
// search.nixos.org's backend.
package nixos

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"nix-mcp-core/internal/httpfabric"
	"nix-mcp-core/internal/memcache"
	"nix-mcp-core/pkg/logger"
)

// Config carries the SearchClient's tunables, populated from
// internal/config.ServerConfig at wiring time.
type Config struct {
	BaseURL     string
	User        string
	Password    string
	MaxRetries  int
	RetryDelay  time.Duration
	ConnTimeout time.Duration
	ReadTimeout time.Duration
	CacheTTL    time.Duration
	CacheSize   int
}

// SearchClient is the NixOS package/option/program search façade over the
// Elasticsearch-backed search.nixos.org API, grounded on
// elasticsearch_client.py::ElasticsearchClient.
type SearchClient struct {
	http  *httpfabric.Client
	cache *memcache.Cache
	log   *logger.Logger
	cfg   Config

	// mu guards channel/index against concurrent SetChannel calls racing
	// with searchURL/countURL reads, per spec.md §5's serialised
	// set_channel guarantee.
	mu      sync.RWMutex
	channel string
	index   string
}

// New builds a SearchClient defaulted to the "unstable" channel.
func New(cfg Config, log *logger.Logger) *SearchClient {
	if log == nil {
		log = logger.NewLogger()
	}
	c := &SearchClient{
		http:  httpfabric.New(log),
		cache: memcache.New(cfg.CacheSize, cfg.CacheTTL),
		log:   log,
		cfg:   cfg,
	}
	c.SetChannel(defaultChannel)
	return c
}

// SetChannel switches the channel used for subsequent queries, per
// elasticsearch_client.py::set_channel.
func (c *SearchClient) SetChannel(channel string) {
	name, index := resolveChannel(channel)
	c.mu.Lock()
	c.channel = name
	c.index = index
	c.mu.Unlock()
	c.log.Info(fmt.Sprintf("nixos: channel set to %s (%s)", name, index))
}

func (c *SearchClient) searchURL() string {
	c.mu.RLock()
	index := c.index
	c.mu.RUnlock()
	return fmt.Sprintf("%s/%s/_search", strings.TrimRight(c.cfg.BaseURL, "/"), index)
}

func (c *SearchClient) countURL() string {
	c.mu.RLock()
	index := c.index
	c.mu.RUnlock()
	return fmt.Sprintf("%s/%s/_count", strings.TrimRight(c.cfg.BaseURL, "/"), index)
}

// query executes body against endpoint via the cache-then-httpfabric path,
// grounded on safe_elasticsearch_query's cache-key/retry/classify shape.
func (c *SearchClient) query(ctx context.Context, endpoint string, body M) (*esResponse, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("nixos: encode query: %w", err)
	}

	cacheKey := endpoint + ":" + string(payload)
	if cached, ok := c.cache.Get(cacheKey); ok {
		c.log.Debug("nixos: cache hit for query")
		resp := cached.(*esResponse)
		return resp, nil
	}

	res, err := c.http.Do(ctx, endpoint, httpfabric.Options{
		Method:      "POST",
		Body:        payload,
		Auth:        &httpfabric.Auth{User: c.cfg.User, Password: c.cfg.Password},
		MaxRetries:  c.cfg.MaxRetries,
		RetryDelay:  c.cfg.RetryDelay,
		ConnTimeout: c.cfg.ConnTimeout,
		ReadTimeout: c.cfg.ReadTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("nixos: query %s: %w", endpoint, err)
	}

	var parsed esResponse
	if err := json.Unmarshal(res.Body, &parsed); err != nil {
		return nil, fmt.Errorf("nixos: decode response: %w", err)
	}

	c.cache.Set(cacheKey, &parsed)
	return &parsed, nil
}

func packageFromSource(source map[string]any, score float64) Package {
	version := str(source, "package_version")
	if version == "" {
		// package_pversion is the pre-migration field name; older index
		// generations never backfilled package_version for it.
		version = str(source, "package_pversion")
	}
	return Package{
		Name:        str(source, "package_attr_name"),
		Pname:       str(source, "package_pname"),
		Version:     version,
		Description: str(source, "package_description"),
		Channel:     str(source, "package_channel"),
		Score:       score,
		Programs:    strSlice(source, "package_programs"),
	}
}

// SearchPackages searches for NixOS packages by name/description/program,
// per elasticsearch_client.py::search_packages.
func (c *SearchClient) SearchPackages(ctx context.Context, query string, limit, offset int) (*PackageSearchResult, error) {
	resp, err := c.query(ctx, c.searchURL(), buildPackageQuery(query, limit, offset))
	if err != nil {
		return nil, err
	}

	out := &PackageSearchResult{Count: resp.Hits.Total.Value}
	for _, hit := range resp.Hits.Hits {
		out.Packages = append(out.Packages, packageFromSource(hit.Source, hit.Score))
	}
	return out, nil
}

// SearchOptions searches for NixOS options, per
// elasticsearch_client.py::search_options.
func (c *SearchClient) SearchOptions(ctx context.Context, query string, limit, offset int) (*OptionSearchResult, error) {
	mainPath, terms, quoted := splitOptionQuery(query)
	if mainPath == "" {
		mainPath = query
	}
	resp, err := c.query(ctx, c.searchURL(), buildOptionQuery(mainPath, terms, quoted, limit, offset))
	if err != nil {
		return nil, err
	}

	out := &OptionSearchResult{Count: resp.Hits.Total.Value}
	for _, hit := range resp.Hits.Hits {
		if str(hit.Source, "type") != "option" {
			continue
		}
		out.Options = append(out.Options, Option{
			Name:        str(hit.Source, "option_name"),
			Description: str(hit.Source, "option_description"),
			Type:        str(hit.Source, "option_type"),
			Default:     hit.Source["option_default"],
			Score:       hit.Score,
			Found:       true,
		})
	}
	return out, nil
}

// SearchPrograms searches for packages providing a given program, per
// elasticsearch_client.py::search_programs. The post-search substring
// filter on the programs list is preserved verbatim (spec.md §9 Open
// Question (i)) rather than pushed fully into the query.
func (c *SearchClient) SearchPrograms(ctx context.Context, program string, limit, offset int) (*PackageSearchResult, error) {
	resp, err := c.query(ctx, c.searchURL(), buildProgramQuery(program, limit, offset))
	if err != nil {
		return nil, err
	}

	out := &PackageSearchResult{Count: resp.Hits.Total.Value}
	for _, hit := range resp.Hits.Hits {
		programs := strSlice(hit.Source, "package_programs")
		var matching []string
		if strings.Contains(program, "*") {
			pattern := strings.ReplaceAll(program, "*", "")
			for _, p := range programs {
				if strings.Contains(p, pattern) {
					matching = append(matching, p)
				}
			}
		} else {
			for _, p := range programs {
				if p == program || strings.Contains(p, program) {
					matching = append(matching, p)
				}
			}
		}

		pkg := Package{
			Name:        str(hit.Source, "package_attr_name"),
			Version:     str(hit.Source, "package_version"),
			Description: str(hit.Source, "package_description"),
			Score:       hit.Score,
			Programs:    matching,
			AllPrograms: programs,
		}
		out.Packages = append(out.Packages, pkg)
	}
	return out, nil
}

// SearchPackagesWithVersion filters packages by an attr-name/description
// match AND a version wildcard pattern, per
// elasticsearch_client.py::search_packages_with_version. The underlying
// query is issued for 2*limit results (spec.md §9 Open Question (ii),
// preserved verbatim) before this wrapper trims back to limit.
func (c *SearchClient) SearchPackagesWithVersion(ctx context.Context, query, versionPattern string, limit, offset int) (*PackageSearchResult, error) {
	resp, err := c.query(ctx, c.searchURL(), buildVersionQuery(query, versionPattern, limit*2, offset))
	if err != nil {
		return nil, err
	}

	out := &PackageSearchResult{Count: resp.Hits.Total.Value}
	for i, hit := range resp.Hits.Hits {
		if i >= limit {
			break
		}
		out.Packages = append(out.Packages, packageFromSource(hit.Source, hit.Score))
	}
	return out, nil
}

// GetPackageStats returns package aggregations (channel/license/platform
// breakdowns) for query, defaulting to "*" (all packages), per
// elasticsearch_client.py::get_package_stats.
func (c *SearchClient) GetPackageStats(ctx context.Context, query string) (*Stats, error) {
	resp, err := c.query(ctx, c.searchURL(), buildStatsQuery(query))
	if err != nil {
		return nil, err
	}

	out := &Stats{}
	if agg, ok := resp.Aggregations["channels"]; ok {
		out.Channels = bucketsFrom(agg.Buckets)
	}
	if agg, ok := resp.Aggregations["licenses"]; ok {
		out.Licenses = bucketsFrom(agg.Buckets)
	}
	if agg, ok := resp.Aggregations["platforms"]; ok {
		out.Platforms = bucketsFrom(agg.Buckets)
	}
	return out, nil
}

func bucketsFrom(raw []struct {
	Key      string `json:"key"`
	DocCount int    `json:"doc_count"`
}) []Bucket {
	out := make([]Bucket, 0, len(raw))
	for _, b := range raw {
		out = append(out, Bucket{Key: b.Key, Count: b.DocCount})
	}
	return out
}

// CountOptions returns the total number of option documents in the
// current channel's index, per spec.md §4.4.6 (no direct analogue in the
// reference client; modeled on get_package_stats's query shape against
// the _count endpoint, per SPEC_FULL.md §4.4).
func (c *SearchClient) CountOptions(ctx context.Context) (int, error) {
	resp, err := c.query(ctx, c.countURL(), buildCountQuery())
	if err != nil {
		return 0, err
	}
	return resp.Count, nil
}

// GetPackage looks up a package by exact attribute name, per
// elasticsearch_client.py::get_package.
func (c *SearchClient) GetPackage(ctx context.Context, name string) (*Package, error) {
	resp, err := c.query(ctx, c.searchURL(), buildGetPackageQuery(name))
	if err != nil {
		return nil, err
	}

	if len(resp.Hits.Hits) == 0 {
		c.log.Warn(fmt.Sprintf("nixos: package %s not found", name))
		return &Package{Name: name, Error: "Package not found", Found: false}, nil
	}

	source := resp.Hits.Hits[0].Source
	version := str(source, "package_version")
	if version == "" {
		version = str(source, "package_pversion")
	}
	pkg := Package{
		Name:            str(source, "package_attr_name"),
		Pname:           str(source, "package_pname"),
		Version:         version,
		Description:     str(source, "package_description"),
		LongDescription: str(source, "package_longDescription"),
		License:         source["package_license"],
		Homepage:        str(source, "package_homepage"),
		Maintainers:     anySlice(source, "package_maintainers"),
		Platforms:       strSlice(source, "package_platforms"),
		Channel:         str(source, "package_channel"),
		Position:        str(source, "package_position"),
		Outputs:         strSlice(source, "package_outputs"),
		Programs:        strSlice(source, "package_programs"),
		Found:           true,
	}
	if pkg.Name == "" {
		pkg.Name = name
	}
	if pkg.Channel == "" {
		pkg.Channel = "nixos-unstable"
	}
	return &pkg, nil
}

// GetOption looks up an option by exact name, falling back to a prefix
// search, and — for services.* paths — enriches the result with sibling
// options under the same service, per elasticsearch_client.py::get_option.
func (c *SearchClient) GetOption(ctx context.Context, name string) (*Option, error) {
	isServicePath := strings.HasPrefix(name, "services.") && !strings.HasPrefix(name, "*")
	serviceName := ""
	if isServicePath {
		parts := strings.SplitN(name, ".", 3)
		if len(parts) > 1 {
			serviceName = parts[1]
		}
	}

	resp, err := c.query(ctx, c.searchURL(), buildGetOptionExactQuery(name))
	if err != nil {
		return nil, err
	}

	if len(resp.Hits.Hits) == 0 {
		c.log.Warn(fmt.Sprintf("nixos: option %s not found exactly, trying prefix", name))
		resp, err = c.query(ctx, c.searchURL(), buildGetOptionPrefixQuery(name))
		if err != nil {
			return nil, err
		}
	}

	if len(resp.Hits.Hits) == 0 {
		if isServicePath {
			return &Option{
				Name: name,
				Error: fmt.Sprintf(
					"Option not found. Try common patterns like services.%s.enable or services.%s.package",
					serviceName, serviceName,
				),
				Found:         false,
				IsServicePath: true,
				ServiceName:   serviceName,
			}, nil
		}
		return &Option{Name: name, Error: "Option not found", Found: false}, nil
	}

	source := resp.Hits.Hits[0].Source
	result := &Option{
		Name:         str(source, "option_name"),
		Description:  str(source, "option_description"),
		Type:         str(source, "option_type"),
		Default:      source["option_default"],
		Example:      source["option_example"],
		Declarations: strSlice(source, "option_declarations"),
		ReadOnly:     boolField(source, "option_readOnly"),
		Found:        true,
	}
	if result.Name == "" {
		result.Name = name
	}

	if isServicePath {
		parts := strings.Split(name, ".")
		if len(parts) >= 2 {
			servicePrefix := strings.Join(parts[:2], ".")
			relResp, err := c.query(ctx, c.searchURL(), buildSiblingOptionsQuery(servicePrefix, name))
			if err == nil {
				for _, hit := range relResp.Hits.Hits {
					result.RelatedOptions = append(result.RelatedOptions, RelatedOption{
						Name:        str(hit.Source, "option_name"),
						Description: str(hit.Source, "option_description"),
						Type:        str(hit.Source, "option_type"),
					})
				}
			}
			if len(result.RelatedOptions) > 0 {
				result.IsServicePath = true
				result.ServiceName = serviceName
			}
		}
	}

	return result, nil
}
