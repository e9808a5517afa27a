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
	"strings"

	"github.com/auditkit/taintflow/analysis/patterns"
	"github.com/auditkit/taintflow/analysis/progdb"
	"github.com/auditkit/taintflow/internal/funcutil"
)

// sourceOcc is a source occurrence in the program: a symbol matching a source pattern,
// tagged with the category it seeds.
type sourceOcc struct {
	symbol   progdb.Symbol
	category patterns.Category
}

// sourceKinds are the symbol kinds a source pattern can match. Untrusted input enters
// through property reads (request.query) and calls (input()), never declarations.
var sourceKinds = []progdb.SymbolKind{progdb.KindCall, progdb.KindProperty, progdb.KindVariable}

// discoverSources scans the symbol table for occurrences of the enabled categories'
// source patterns. A symbol matching the source patterns of several categories seeds one
// occurrence per category: request.query feeds sql-injection and xss flows alike, and each
// flow matches sinks of its own category only. Symbols arrive in (file, line, col, name)
// order from the querier, and categories are scanned in their fixed order, so the result
// is deterministic.
func discoverSources(q progdb.Querier, catalog *patterns.Catalog, categories []patterns.Category) ([]sourceOcc, error) {
	var out []sourceOcc
	for _, kind := range sourceKinds {
		symbols, err := q.SymbolsByKind(kind)
		if err != nil {
			return nil, err
		}
		for _, sym := range symbols {
			for _, cat := range categories {
				if catalog.IsSource(sym.Name, cat) {
					out = append(out, sourceOcc{symbol: sym, category: cat})
				}
			}
		}
	}
	return out, nil
}

// countSinks counts call symbols classified as sinks of an enabled category, after
// framework-safe filtering. Reported in the result summary only.
func countSinks(q progdb.Querier, catalog *patterns.Catalog, categories []patterns.Category, safe *safeSinkFilter) (int, error) {
	calls, err := q.SymbolsByKind(progdb.KindCall)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, sym := range calls {
		cat, ok := catalog.SinkCategory(sym.Name)
		if ok && funcutil.Contains(categories, cat) && !safe.suppresses(sym.Name) {
			n++
		}
	}
	return n, nil
}

// safeSinkFilter suppresses sinks a detected framework guarantees safe, e.g. an ORM whose
// query builder always parameterizes. The filter only activates when exactly one primary
// framework was detected; zero or several primaries is ambiguous, and ambiguity must
// suppress nothing rather than guess.
type safeSinkFilter struct {
	framework string // empty when unknown
	patterns  []string
}

func newSafeSinkFilter(q progdb.Querier, logger interface{ Debugf(string, ...any) }) (*safeSinkFilter, error) {
	frameworks, err := q.Frameworks()
	if err != nil {
		return nil, err
	}
	primaries := funcutil.Filter(frameworks, func(f progdb.Framework) bool { return f.Primary })
	if len(primaries) != 1 {
		logger.Debugf("%d primary frameworks detected, safe-sink filtering disabled", len(primaries))
		return &safeSinkFilter{}, nil
	}
	f := &safeSinkFilter{framework: primaries[0].Name}
	safeSinks, err := q.SafeSinks()
	if err != nil {
		return nil, err
	}
	for _, ss := range safeSinks {
		if ss.Framework == f.framework {
			f.patterns = append(f.patterns, ss.Pattern)
		}
	}
	logger.Debugf("framework %s: %d safe sink patterns", f.framework, len(f.patterns))
	return f, nil
}

func (f *safeSinkFilter) suppresses(name string) bool {
	if f.framework == "" {
		return false
	}
	return funcutil.Exists(f.patterns, func(p string) bool { return strings.Contains(name, p) })
}
