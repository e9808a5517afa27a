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

package taint

import (
	"cmp"
	"encoding/json"
	"fmt"

	"golang.org/x/exp/slices"

	"github.com/auditkit/taintflow/analysis/progdb"
)

// Confidence grades a finding. High means CFG-verified unsanitized on every path. Medium
// means partially sanitized paths or a function analyzed without CFG data. Low means path
// enumeration was truncated before all paths were seen.
type Confidence int

const (
	ConfidenceHigh Confidence = iota
	ConfidenceMedium
	ConfidenceLow
)

func (c Confidence) String() string {
	switch c {
	case ConfidenceHigh:
		return "high"
	case ConfidenceMedium:
		return "medium"
	case ConfidenceLow:
		return "low"
	default:
		return fmt.Sprintf("Confidence(%d)", int(c))
	}
}

// MarshalJSON renders the confidence as its string form.
func (c Confidence) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

// An Occurrence locates a source use in the program.
type Occurrence struct {
	File string `json:"file"`
	Line int    `json:"line"`
	Name string `json:"name"`
	col  int
}

// A SinkOccurrence locates a sink use, tagged with its vulnerability category.
type SinkOccurrence struct {
	Occurrence
	Category string `json:"category"`
}

func occurrenceOf(sym progdb.Symbol) Occurrence {
	return Occurrence{File: sym.File, Line: sym.Line, Name: sym.Name, col: sym.Col}
}

// A TaintPath is one finding: an unsanitized (or partially sanitized) flow from a source
// occurrence to a sink occurrence. Immutable once emitted. Sanitized reports that a
// sanitizer covers some but not all CFG paths to the sink; a flow sanitized on every path
// is suppressed and never emitted.
type TaintPath struct {
	Source     Occurrence     `json:"source"`
	Sink       SinkOccurrence `json:"sink"`
	Hops       []Hop          `json:"hops"`
	Sanitized  bool           `json:"sanitized"`
	Confidence Confidence     `json:"confidence"`
}

// An AnalysisResult is the output of one Trace run.
type AnalysisResult struct {
	Paths        []TaintPath    `json:"paths"`
	SourcesFound int            `json:"sources_found"`
	SinksFound   int            `json:"sinks_found"`
	ByCategory   map[string]int `json:"by_category"`
	CacheLoaded  bool           `json:"cache_loaded"`
}

type pathKey struct {
	srcFile, srcName string
	srcLine          int
	sinkFile, sinkName string
	sinkLine           int
	category           string
}

// dedupPaths collapses findings sharing a source/sink pair within a category, keeping the
// shortest hop chain. First occurrence wins ties, which is deterministic given ordered
// input. The category is part of the key: one symbol can source several categories, and a
// finding in one never shadows a finding in another.
func dedupPaths(paths []TaintPath) []TaintPath {
	best := make(map[pathKey]int)
	var out []TaintPath
	for _, p := range paths {
		k := pathKey{
			srcFile: p.Source.File, srcName: p.Source.Name, srcLine: p.Source.Line,
			sinkFile: p.Sink.File, sinkName: p.Sink.Name, sinkLine: p.Sink.Line,
			category: p.Sink.Category,
		}
		if i, ok := best[k]; ok {
			if len(p.Hops) < len(out[i].Hops) {
				out[i] = p
			}
			continue
		}
		best[k] = len(out)
		out = append(out, p)
	}
	return out
}

// sortPaths orders findings by source location, then sink location, so output is
// reproducible regardless of traversal internals.
func sortPaths(paths []TaintPath) {
	slices.SortStableFunc(paths, func(a, b TaintPath) int {
		if c := cmp.Compare(a.Source.File, b.Source.File); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Source.Line, b.Source.Line); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Source.col, b.Source.col); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Sink.File, b.Sink.File); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Sink.Line, b.Sink.Line); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Sink.Name, b.Sink.Name); c != 0 {
			return c
		}
		return cmp.Compare(a.Sink.Category, b.Sink.Category)
	})
}
