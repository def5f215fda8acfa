package nixos

import (
	"regexp"
	"strings"
)

// M is a shorthand for a JSON-object-shaped query-DSL fragment.
type M map[string]any

// buildPackageQuery builds the query body for search_packages, grounded
// line-for-line on elasticsearch_client.py::search_packages.
func buildPackageQuery(query string, limit, offset int) M {
	var q M

	if strings.Contains(query, "*") {
		if strings.HasPrefix(query, "*") && strings.HasSuffix(query, "*") && strings.Count(query, "*") == 2 {
			term := strings.Trim(query, "*")
			q = M{
				"bool": M{
					"should": []M{
						{"wildcard": M{"package_attr_name": M{"value": "*" + term + "*", "boost": 9}}},
						{"wildcard": M{"package_pname": M{"value": "*" + term + "*", "boost": 7}}},
						{"match": M{"package_description": M{"query": term, "boost": 3}}},
						{"match": M{"package_programs": M{"query": term, "boost": 6}}},
					},
					"minimum_should_match": 1,
				},
			}
		} else {
			q = M{
				"query_string": M{
					"query": query,
					"fields": []string{
						"package_attr_name^9",
						"package_pname^7",
						"package_description^3",
						"package_programs^6",
					},
					"analyze_wildcard": true,
				},
			}
		}
	} else {
		q = M{
			"bool": M{
				"should": []M{
					{"term": M{"package_attr_name": M{"value": query, "boost": 10}}},
					{"term": M{"package_pname": M{"value": query, "boost": 8}}},
					{"prefix": M{"package_attr_name": M{"value": query, "boost": 7}}},
					{"prefix": M{"package_pname": M{"value": query, "boost": 6}}},
					{"wildcard": M{"package_attr_name": M{"value": "*" + query + "*", "boost": 5}}},
					{"wildcard": M{"package_pname": M{"value": "*" + query + "*", "boost": 4}}},
					{"match": M{"package_description": M{"query": query, "boost": 3}}},
					{"match": M{"package_longDescription": M{"query": query, "boost": 1}}},
					{"match": M{"package_programs": M{"query": query, "boost": 6}}},
				},
				"minimum_should_match": 1,
			},
		}
	}

	return M{"from": offset, "size": limit, "query": q}
}

// quotedPhraseRe matches a double-quoted phrase in a free-form option
// search string.
var quotedPhraseRe = regexp.MustCompile(`"([^"]+)"`)

// splitOptionQuery separates a free-form option search string into the
// dotted option path to search against (mainPath), bare extra words to
// match against the option description, and double-quoted phrases to
// match as exact description phrases, per
// tools/nixos_tools.py::parse_multi_word_query's {main_path, terms,
// quoted_terms} split that feeds search_options.
func splitOptionQuery(query string) (mainPath string, terms, quotedTerms []string) {
	remaining := query
	for _, m := range quotedPhraseRe.FindAllStringSubmatch(query, -1) {
		quotedTerms = append(quotedTerms, m[1])
		remaining = strings.Replace(remaining, m[0], "", 1)
	}

	fields := strings.Fields(remaining)
	if len(fields) == 0 {
		return "", nil, quotedTerms
	}
	return fields[0], fields[1:], quotedTerms
}

// buildOptionQuery builds the query body for search_options, grounded
// line-for-line on elasticsearch_client.py::search_options and
// ::_build_option_query_dsl/_build_term_phrase_queries for the
// additional-terms/quoted-terms description clauses.
func buildOptionQuery(query string, additionalTerms, quotedTerms []string, limit, offset int) M {
	var searchQuery M

	switch {
	case strings.Contains(query, "*"):
		searchQuery = M{
			"bool": M{
				"must": []M{
					{"wildcard": M{"option_name": M{"value": query, "case_insensitive": true}}},
				},
				"filter": []M{{"term": M{"type": M{"value": "option"}}}},
			},
		}

	case strings.Contains(query, "."):
		hierarchical := query
		if !strings.HasSuffix(query, "*") {
			hierarchical = query + "*"
		}

		if strings.HasPrefix(query, "services.") {
			parts := strings.SplitN(query, ".", 3)
			serviceName := ""
			if len(parts) > 1 {
				serviceName = parts[1]
			}
			searchQuery = M{
				"bool": M{
					"filter": []M{{"term": M{"type": M{"value": "option"}}}},
					"must": []M{
						{
							"bool": M{
								"should": []M{
									{"prefix": M{"option_name": M{"value": query, "boost": 10.0}}},
									{"wildcard": M{"option_name": M{"value": hierarchical, "case_insensitive": true, "boost": 8.0}}},
									{"match": M{"option_description": M{"query": serviceName, "boost": 2.0}}},
								},
								"minimum_should_match": 1,
							},
						},
					},
				},
			}
		} else {
			searchQuery = dismaxOptionQuery(query, hierarchical, additionalTerms, quotedTerms)
		}

	default:
		searchQuery = dismaxOptionQuery(query, "*"+query+"*", additionalTerms, quotedTerms)
	}

	return M{
		"from": offset,
		"size": limit,
		"sort": []M{{"_score": "desc", "option_name": "desc"}},
		"aggs": M{"all": M{"global": M{}, "aggregations": M{}}},
		"query": searchQuery,
	}
}

// dismaxOptionQuery is the shared dis_max clause used by both the
// "other hierarchical path" and "regular term" branches of search_options,
// which are identical except for the wildcard's value. additionalTerms
// and quotedTerms append a match (boost 4.0) or match_phrase (boost 6.0)
// clause per entry against option_description, per
// _build_term_phrase_queries.
func dismaxOptionQuery(query, wildcardValue string, additionalTerms, quotedTerms []string) M {
	queries := []M{
		{
			"multi_match": M{
				"type":                               "cross_fields",
				"query":                              query,
				"analyzer":                           "whitespace",
				"auto_generate_synonyms_phrase_query": false,
				"operator":                            "and",
				"_name":                               "multi_match_" + query,
				"fields": []string{
					"option_name^6",
					"option_name.*^3.6",
					"option_description^1",
					"option_description.*^0.6",
				},
			},
		},
		{"wildcard": M{"option_name": M{"value": wildcardValue, "case_insensitive": true}}},
	}
	for _, term := range additionalTerms {
		queries = append(queries, M{"match": M{"option_description": M{"query": term, "boost": 4.0}}})
	}
	for _, phrase := range quotedTerms {
		queries = append(queries, M{"match_phrase": M{"option_description": M{"query": phrase, "boost": 6.0}}})
	}

	return M{
		"bool": M{
			"filter": []M{{"term": M{"type": M{"value": "option", "_name": "filter_options"}}}},
			"must": []M{
				{
					"dis_max": M{
						"tie_breaker": 0.7,
						"queries":     queries,
					},
				},
			},
		},
	}
}

// buildProgramQuery builds the query body for search_programs, grounded on
// elasticsearch_client.py::search_programs.
func buildProgramQuery(program string, limit, offset int) M {
	var q M
	if strings.Contains(program, "*") {
		q = M{"wildcard": M{"package_programs": M{"value": program}}}
	} else {
		q = M{
			"bool": M{
				"should": []M{
					{"term": M{"package_programs": M{"value": program, "boost": 10}}},
					{"prefix": M{"package_programs": M{"value": program, "boost": 5}}},
					{"wildcard": M{"package_programs": M{"value": "*" + program + "*", "boost": 3}}},
				},
				"minimum_should_match": 1,
			},
		}
	}
	return M{"from": offset, "size": limit, "query": q}
}

// buildVersionQuery builds the query body for search_packages_with_version,
// grounded on elasticsearch_client.py::search_packages_with_version.
func buildVersionQuery(query, versionPattern string, limit, offset int) M {
	return M{
		"from": offset,
		"size": limit,
		"query": M{
			"bool": M{
				"must": []M{
					{
						"bool": M{
							"should": []M{
								{"term": M{"package_attr_name": M{"value": query, "boost": 10}}},
								{"wildcard": M{"package_attr_name": M{"value": "*" + query + "*", "boost": 5}}},
								{"match": M{"package_description": M{"query": query, "boost": 2}}},
							},
							"minimum_should_match": 1,
						},
					},
					{"wildcard": M{"package_version": versionPattern}},
				},
			},
		},
	}
}

// buildStatsQuery builds the aggregation-only query for get_package_stats.
func buildStatsQuery(query string) M {
	if query == "" {
		query = "*"
	}
	return M{
		"size":  0,
		"query": M{"query_string": M{"query": query}},
		"aggs": M{
			"channels":  M{"terms": M{"field": "package_channel", "size": 10}},
			"licenses":  M{"terms": M{"field": "package_license", "size": 10}},
			"platforms": M{"terms": M{"field": "package_platforms", "size": 10}},
		},
	}
}

// buildCountQuery builds the body for count_options (POST .../_count),
// modeled on buildStatsQuery's shape per SPEC_FULL.md §4.4 since the
// reference client has no direct analogue.
func buildCountQuery() M {
	return M{
		"query": M{
			"bool": M{
				"filter": []M{{"term": M{"type": M{"value": "option"}}}},
			},
		},
	}
}

// buildGetPackageQuery builds the exact-match lookup for get_package.
func buildGetPackageQuery(name string) M {
	return M{
		"size":  1,
		"query": M{"bool": M{"must": []M{{"term": M{"package_attr_name": name}}}}},
	}
}

// buildGetOptionExactQuery builds the exact-match lookup for get_option.
func buildGetOptionExactQuery(name string) M {
	return M{
		"size": 1,
		"query": M{
			"bool": M{
				"filter": []M{{"term": M{"type": M{"value": "option"}}}},
				"must":   []M{{"term": M{"option_name": name}}},
			},
		},
	}
}

// buildGetOptionPrefixQuery builds the fallback prefix lookup for get_option.
func buildGetOptionPrefixQuery(name string) M {
	return M{
		"size": 1,
		"query": M{
			"bool": M{
				"filter": []M{{"term": M{"type": M{"value": "option"}}}},
				"must":   []M{{"prefix": M{"option_name": name}}},
			},
		},
	}
}

// buildSiblingOptionsQuery finds sibling options under the same service
// prefix, excluding exact, for get_option's related_options enrichment.
func buildSiblingOptionsQuery(servicePrefix, exclude string) M {
	return M{
		"size": 5,
		"query": M{
			"bool": M{
				"filter":   []M{{"term": M{"type": M{"value": "option"}}}},
				"must":     []M{{"prefix": M{"option_name": servicePrefix + "."}}},
				"must_not": []M{{"term": M{"option_name": exclude}}},
			},
		},
	}
}
