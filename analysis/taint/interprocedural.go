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

	"github.com/auditkit/taintflow/analysis/progdb"
	"github.com/auditkit/taintflow/internal/funcutil"
)

// returnExpr is the pseudo-expression marking "the value this function returns". An
// element carrying it does not propagate further inside the callee; it only surfaces at
// the call site.
const returnExpr = "__return__"

// analyzeCall crosses a call boundary: the tainted actual argument becomes the callee's
// formal parameter, scoped to the callee, with the element's origin source preserved
// unchanged so the eventual finding still names the real entry point. Returns no elements
// when the callee cannot be resolved unambiguously.
func (t *tracer) analyzeCall(site progdb.CallSite, e Element) []Element {
	calleeFile := site.CalleeFile
	if calleeFile == "" {
		resolved, ok := t.resolveCallee(site.Callee)
		if !ok {
			return nil
		}
		calleeFile = resolved
	}
	if site.Param == "" {
		t.logger.Tracef("no formal parameter recorded for %s arg %d at %s:%d, not following",
			site.Callee, site.ArgIndex, site.File, site.Line)
		return nil
	}
	if t.recursive[site.Callee] && !t.cycleSeen[site.Callee] {
		t.cycleSeen[site.Callee] = true
		t.logger.Debugf("%s is on a call-graph cycle, relying on the depth bound", site.Callee)
	}

	child := e.child(site.Param, calleeFile, site.Callee, t.calleeEntryLine(calleeFile, site.Callee, site.Line))
	child.Frames = append(child.Frames, Frame{Site: site, Depth: e.Depth})
	return []Element{child}
}

// calleeEntryLine is the line at which a callee-scoped element starts: the callee's
// declaration line when its function symbol is recorded, else the call line. Verification
// resolves the element's in-function line to a CFG block, so it must lie inside the
// callee's block ranges; the caller's call-site line usually does not.
func (t *tracer) calleeEntryLine(calleeFile, callee string, fallback int) int {
	symbols, err := t.q.SymbolsByName(callee)
	if err != nil {
		t.logger.Errorf("callee lookup failed for %s: %s", callee, err)
		return fallback
	}
	decl := funcutil.FindMap(symbols,
		func(s progdb.Symbol) progdb.Symbol { return s },
		func(s progdb.Symbol) bool { return s.Kind == progdb.KindFunction && s.File == calleeFile })
	if decl.IsSome() {
		return decl.Value().Line
	}
	return fallback
}

// resolveCallee resolves a dynamically dispatched callee by name. Exactly one function
// symbol matching is a deterministic resolution; zero or several is ambiguous and the
// call is not followed.
func (t *tracer) resolveCallee(callee string) (string, bool) {
	symbols, err := t.q.SymbolsByName(callee)
	if err != nil {
		t.logger.Errorf("callee lookup failed for %s: %s", callee, err)
		return "", false
	}
	functions := funcutil.Filter(symbols, func(s progdb.Symbol) bool {
		return s.Kind == progdb.KindFunction
	})
	if len(functions) != 1 {
		t.logger.Tracef("callee %s resolves to %d functions, not following", callee, len(functions))
		return "", false
	}
	return functions[0].File, true
}

// propagateReturn handles the reverse direction of a call: when the current function
// returns the tainted expression and the element entered through a call frame, the call
// expression at that site becomes tainted in the caller.
func (t *tracer) propagateReturn(e Element) ([]Element, error) {
	if len(e.Frames) == 0 {
		return nil, nil
	}
	returns, err := t.q.ReturnsOfFunction(e.File, e.Function)
	if err != nil {
		return nil, err
	}
	for _, r := range returns {
		if !t.returnCarries(r, e.Expr) {
			continue
		}
		frame := e.Frames[len(e.Frames)-1]
		child := e.child(frame.Site.Callee, frame.Site.File, frame.Site.Caller, frame.Site.Line)
		// Record the return itself as the intermediate hop instead of the element's
		// position, then pop the frame being returned through.
		child.History[len(child.History)-1] = Hop{File: e.File, Function: e.Function, Line: r.Line, Expr: returnExpr}
		child.Frames = child.Frames[:len(child.Frames)-1]
		// One surfacing per frame; further matching returns add no information.
		return []Element{child}, nil
	}
	return nil, nil
}

func (t *tracer) returnCarries(r progdb.Return, expr string) bool {
	if exprContains(r.Expr, expr) {
		return true
	}
	if r.Vars == "" {
		return false
	}
	var vars []string
	if err := json.Unmarshal([]byte(r.Vars), &vars); err != nil {
		t.logger.Warnf("skipping unparsable return vars at %s:%d: %s", r.File, r.Line, err)
		return false
	}
	return funcutil.Contains(vars, expr)
}
