// Package htmlscrape parses the restricted HTML dialect used by the Home
// Manager and nix-darwin option-reference pages into OptionRecord values
// (C5). The dialect is small and bounded (dl.variablelist/dt/dd, span
// labels, itemizedlist divs), so a direct golang.org/x/net/html tree walk
// is used rather than a general HTML-to-Markdown converter.
package htmlscrape

import (
	"strings"

	"golang.org/x/net/html"
)

// OptionRecord is one parsed Home Manager or nix-darwin option, per
// spec.md §3 "Option record (HM/Darwin)" and SPEC_FULL.md §3's Darwin
// DeclaredBy supplement.
type OptionRecord struct {
	Name        string
	Type        string
	Description string
	Default     string
	Example     string
	Category    string
	Source      string
	DeclaredBy  string
}

// ParseHomeManager parses a Home Manager option-reference page's HTML
// body into option records, grounded on
// home_manager_client.py::parse_html.
func ParseHomeManager(body, source string) []OptionRecord {
	doc, err := html.Parse(strings.NewReader(body))
	if err != nil {
		return nil
	}

	varList := findByClass(doc, "variablelist")
	if varList == nil {
		return nil
	}
	dl := findTag(varList, "dl")
	if dl == nil {
		return nil
	}

	var records []OptionRecord
	for _, dt := range findAllTag(dl, "dt") {
		termSpan := findByClass(dt, "term")
		if termSpan == nil {
			continue
		}
		code := findTag(termSpan, "code")
		if code == nil {
			continue
		}
		name := strings.TrimSpace(textContent(code))
		if name == "" {
			continue
		}

		dd := nextSiblingTag(dt, "dd")
		if dd == nil {
			continue
		}

		paragraphs := findAllTag(dd, "p")
		var description, optType, defVal, example string
		if len(paragraphs) > 0 {
			description = strings.TrimSpace(textContent(paragraphs[0]))
		}
		for _, p := range paragraphs[minInt(1, len(paragraphs)):] {
			text := strings.TrimSpace(textContent(p))
			switch {
			case strings.Contains(text, "Type:"):
				optType = strings.TrimSpace(afterFirst(text, "Type:"))
			case strings.Contains(text, "Default:"):
				defVal = strings.TrimSpace(afterFirst(text, "Default:"))
			case strings.Contains(text, "Example:"):
				example = strings.TrimSpace(afterFirst(text, "Example:"))
			}
		}

		category := "Uncategorized"
		if h3 := findPrecedingTag(dt, "h3"); h3 != nil {
			category = strings.TrimSpace(textContent(h3))
		}

		records = append(records, OptionRecord{
			Name:        name,
			Type:        optType,
			Description: description,
			Default:     defVal,
			Example:     example,
			Category:    category,
			Source:      source,
		})
	}
	return records
}

// ParseDarwin parses a nix-darwin option-reference page's HTML body into
// option records, grounded on darwin_client.py::_parse_options /
// _parse_option_details.
func ParseDarwin(body, source string) []OptionRecord {
	doc, err := html.Parse(strings.NewReader(body))
	if err != nil {
		return nil
	}

	var records []OptionRecord
	for _, dl := range findAllByClass(doc, "variablelist") {
		for _, dt := range findAllTag(dl, "dt") {
			var name string
			if code := findByClass(dt, "option"); code != nil {
				name = strings.TrimSpace(textContent(code))
			}
			if name == "" {
				if a := findTag(dt, "a"); a != nil {
					id := attr(a, "id")
					if id == "" {
						id = strings.TrimPrefix(attr(a, "href"), "#")
					}
					name = strings.TrimPrefix(id, "opt-")
				}
			}
			if name == "" {
				continue
			}

			dd := nextSiblingTag(dt, "dd")
			if dd == nil {
				continue
			}

			records = append(records, parseDarwinDetails(name, dd, source))
		}
	}
	return records
}

func parseDarwinDetails(name string, dd *html.Node, source string) OptionRecord {
	var descParts []string
	for _, p := range directChildTags(dd, "p") {
		descParts = append(descParts, strings.TrimSpace(textContent(p)))
	}

	rec := OptionRecord{Name: name, Description: strings.Join(descParts, " "), Source: source}

	for _, div := range findAllByClass(dd, "itemizedlist") {
		text := textContent(div)
		switch {
		case strings.Contains(text, "Type:") && rec.Type == "":
			rec.Type = strings.TrimSpace(afterFirst(text, "Type:"))
		case strings.Contains(text, "Default:") && rec.Default == "":
			rec.Default = strings.TrimSpace(afterFirst(text, "Default:"))
		case strings.Contains(text, "Example:") && rec.Example == "":
			rec.Example = strings.TrimSpace(afterFirst(text, "Example:"))
		case strings.Contains(text, "Declared by:") && rec.DeclaredBy == "":
			rec.DeclaredBy = strings.TrimSpace(afterFirst(text, "Declared by:"))
		}
	}

	for _, code := range findAllTag(dd, "code") {
		text := textContent(code)
		if strings.Contains(text, "nix") || strings.Contains(text, "darwin") {
			rec.DeclaredBy = strings.TrimSpace(text)
			break
		}
	}

	return rec
}

func afterFirst(s, sep string) string {
	idx := strings.Index(s, sep)
	if idx < 0 {
		return ""
	}
	return s[idx+len(sep):]
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
