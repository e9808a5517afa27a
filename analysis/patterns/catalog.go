// Copyright the Taintflow Authors. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package patterns holds the static catalog of source, sink and sanitizer signatures,
// grouped by vulnerability category. The catalog is pure data: it is built once at startup,
// immutable afterwards, and injected into the analysis components.
package patterns

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// MatchKind selects how an entry's text is compared against a symbol name.
type MatchKind int

const (
	// MatchExact requires string equality.
	MatchExact MatchKind = iota

	// MatchSuffix matches dotted method calls, e.g. ".parseAsync" matches "schema.parseAsync".
	MatchSuffix

	// MatchSubstring matches anywhere in the name. Used for legacy generic names only.
	MatchSubstring
)

// An Entry is one source, sink or sanitizer signature.
type Entry struct {
	Category Category
	Text     string
	Kind     MatchKind
}

// Matches reports whether the symbol name matches the entry according to its match kind.
func Matches(name string, e Entry) bool {
	switch e.Kind {
	case MatchExact:
		return name == e.Text
	case MatchSuffix:
		return strings.HasSuffix(name, e.Text)
	case MatchSubstring:
		return strings.Contains(name, e.Text)
	default:
		return false
	}
}

// A Catalog groups all pattern entries by role and category. Build one with Default and
// optionally merge a yaml overlay with LoadOverlay before handing it to the analysis;
// it must not be modified afterwards.
type Catalog struct {
	sources    [numCategories][]Entry
	sinks      [numCategories][]Entry
	sanitizers [numCategories][]Entry
}

// SourcesFor returns the source entries of the category. The returned slice is owned by the
// catalog and must not be modified.
func (c *Catalog) SourcesFor(cat Category) []Entry {
	return c.sources[cat]
}

// SinksFor returns the sink entries of the category.
func (c *Catalog) SinksFor(cat Category) []Entry {
	return c.sinks[cat]
}

// SanitizersFor returns the sanitizer entries of the category.
func (c *Catalog) SanitizersFor(cat Category) []Entry {
	return c.sanitizers[cat]
}

// IsSource reports whether the name matches a source entry of the category.
func (c *Catalog) IsSource(name string, cat Category) bool {
	return matchesAny(name, c.sources[cat])
}

// IsSink reports whether the name matches a sink entry of the category.
func (c *Catalog) IsSink(name string, cat Category) bool {
	return matchesAny(name, c.sinks[cat])
}

// IsSanitizer reports whether the name matches a sanitizer of the category. Generic
// validation sanitizers apply to every category.
func (c *Catalog) IsSanitizer(name string, cat Category) bool {
	if matchesAny(name, c.sanitizers[cat]) {
		return true
	}
	return cat != Validation && matchesAny(name, c.sanitizers[Validation])
}

// SinkCategory returns the category of the first sink entry matching the name, scanning
// categories and entries in their fixed order so repeated runs classify identically.
func (c *Catalog) SinkCategory(name string) (Category, bool) {
	for cat := Category(0); cat < numCategories; cat++ {
		if matchesAny(name, c.sinks[cat]) {
			return cat, true
		}
	}
	return 0, false
}

func matchesAny(name string, entries []Entry) bool {
	for _, e := range entries {
		if Matches(name, e) {
			return true
		}
	}
	return false
}

// overlayFile is the yaml shape of a pattern overlay: role -> category name -> entries.
type overlayFile struct {
	Sources    map[string][]overlayEntry `yaml:"sources"`
	Sinks      map[string][]overlayEntry `yaml:"sinks"`
	Sanitizers map[string][]overlayEntry `yaml:"sanitizers"`
}

type overlayEntry struct {
	Text string `yaml:"text"`
	Kind string `yaml:"kind"`
}

// LoadOverlay merges additional pattern entries from a yaml file into the catalog.
// Unknown categories or match kinds are configuration errors.
func (c *Catalog) LoadOverlay(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("could not read pattern file: %w", err)
	}
	var f overlayFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return fmt.Errorf("could not parse pattern file %s: %w", path, err)
	}
	if err := mergeOverlay(&c.sources, f.Sources); err != nil {
		return fmt.Errorf("pattern file %s, sources: %w", path, err)
	}
	if err := mergeOverlay(&c.sinks, f.Sinks); err != nil {
		return fmt.Errorf("pattern file %s, sinks: %w", path, err)
	}
	if err := mergeOverlay(&c.sanitizers, f.Sanitizers); err != nil {
		return fmt.Errorf("pattern file %s, sanitizers: %w", path, err)
	}
	return nil
}

func mergeOverlay(dst *[numCategories][]Entry, src map[string][]overlayEntry) error {
	for name, entries := range src {
		cat, err := ParseCategory(name)
		if err != nil {
			return err
		}
		for _, oe := range entries {
			kind, err := parseMatchKind(oe.Kind)
			if err != nil {
				return err
			}
			if oe.Text == "" {
				return fmt.Errorf("empty pattern text in category %q", name)
			}
			dst[cat] = append(dst[cat], Entry{Category: cat, Text: oe.Text, Kind: kind})
		}
	}
	return nil
}

func parseMatchKind(s string) (MatchKind, error) {
	switch s {
	case "", "exact":
		return MatchExact, nil
	case "suffix":
		return MatchSuffix, nil
	case "substring":
		return MatchSubstring, nil
	default:
		return 0, fmt.Errorf("unknown match kind %q", s)
	}
}
