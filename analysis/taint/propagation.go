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
	"encoding/json"
	"strings"

	"github.com/auditkit/taintflow/analysis/config"
	"github.com/auditkit/taintflow/analysis/patterns"
	"github.com/auditkit/taintflow/analysis/progdb"
)

// A candidate is an element that reached a sink call, pending CFG verification.
type candidate struct {
	elem     Element
	site     progdb.CallSite
	category patterns.Category
}

// tracer drains the worklist for one source at a time. It is rebuilt per run, never per
// source; the per-source state is only the visited set inside trace.
type tracer struct {
	q         progdb.Querier
	catalog   *patterns.Catalog
	conf      *config.Config
	logger    *config.LogGroup
	recursive map[string]bool

	cycleSeen map[string]bool
}

// trace drains the worklist seeded from one source occurrence and returns the candidate
// sinks it reached. FIFO order plus the querier's (line, col) result ordering give a fixed
// traversal order, so repeated runs produce identical candidate lists.
func (t *tracer) trace(src sourceOcc) ([]candidate, error) {
	var out []candidate
	seen := make(map[visitKey]bool)
	work := []Element{seed(src.symbol)}
	for len(work) > 0 {
		e := work[0]
		work = work[1:]
		if seen[e.key()] {
			continue
		}
		seen[e.key()] = true
		if t.conf.ExceedsMaxDepth(e.Depth) {
			e.State = Exhausted
			t.logger.Tracef("exhausted at depth %d: %s in %s:%s", e.Depth, e.Expr, e.File, e.Function)
			continue
		}
		children, sunk, err := t.step(e, src.category)
		if err != nil {
			return nil, err
		}
		out = append(out, sunk...)
		work = append(work, children...)
	}
	return out, nil
}

// step computes the transitions out of Propagating for one element: successor elements
// from assignments, calls and returns, plus any sink candidates reached.
func (t *tracer) step(e Element, category patterns.Category) ([]Element, []candidate, error) {
	var (
		children []Element
		sunk     []candidate
	)

	assignments, err := t.q.AssignmentsInFunction(e.File, e.Function)
	if err != nil {
		return nil, nil, err
	}
	for _, a := range assignments {
		if a.Target == "" {
			t.logger.Warnf("skipping malformed assignment at %s:%d (empty target)", a.File, a.Line)
			continue
		}
		if t.flowsInto(a, e.Expr) {
			children = append(children, e.child(a.Target, a.File, a.Function, a.Line))
		}
	}

	calls, err := t.q.CallsByCaller(e.File, e.Function)
	if err != nil {
		return nil, nil, err
	}
	for _, c := range calls {
		if !exprContains(c.ArgExpr, e.Expr) {
			continue
		}
		switch {
		case t.catalog.IsSanitizer(c.Callee, category):
			t.logger.Debugf("sanitized by %s at %s:%d", c.Callee, c.File, c.Line)
		case t.catalog.IsSink(c.Callee, category):
			s := e
			s.State = Sunk
			sunk = append(sunk, candidate{elem: s, site: c, category: category})
		default:
			children = append(children, t.analyzeCall(c, e)...)
		}
	}

	returned, err := t.propagateReturn(e)
	if err != nil {
		return nil, nil, err
	}
	children = append(children, returned...)
	return children, sunk, nil
}

// flowsInto reports whether the assignment's right-hand side carries the expression,
// either textually or through one of its recorded identifiers.
func (t *tracer) flowsInto(a progdb.Assignment, expr string) bool {
	if exprContains(a.SourceExpr, expr) {
		return true
	}
	if a.SourceVars == "" {
		return false
	}
	var vars []string
	if err := json.Unmarshal([]byte(a.SourceVars), &vars); err != nil {
		t.logger.Warnf("skipping unparsable source vars at %s:%d: %s", a.File, a.Line, err)
		return false
	}
	for _, v := range vars {
		if v == expr {
			return true
		}
	}
	return false
}

// exprContains is the textual containment test used to follow taint through expressions.
// The needle must appear at an identifier boundary so "id" does not match "width".
func exprContains(haystack, needle string) bool {
	if needle == "" || haystack == "" {
		return false
	}
	for from := 0; ; {
		i := strings.Index(haystack[from:], needle)
		if i < 0 {
			return false
		}
		i += from
		if boundary(haystack, i-1) && boundary(haystack, i+len(needle)) {
			return true
		}
		from = i + 1
	}
}

func boundary(s string, i int) bool {
	if i < 0 || i >= len(s) {
		return true
	}
	c := s[i]
	return !(c == '_' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z')
}
