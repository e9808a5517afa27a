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
	"github.com/yourbasic/graph"
	"golang.org/x/exp/slices"

	"github.com/auditkit/taintflow/analysis/progdb"
)

// callGraph is the name-level call graph of the whole program, built once before tracing.
// It implements yourbasic's graph.Iterator so strong components can be computed to find
// the functions involved in recursion cycles; those are logged once and the depth bound
// takes care of termination inside them.
type callGraph struct {
	ids   map[string]int
	names []string
	succ  [][]int
}

func buildCallGraph(q progdb.Querier) (*callGraph, error) {
	functions, err := q.SymbolsByKind(progdb.KindFunction)
	if err != nil {
		return nil, err
	}
	g := &callGraph{ids: make(map[string]int)}
	for _, f := range functions {
		if _, ok := g.ids[f.Name]; !ok {
			g.ids[f.Name] = len(g.names)
			g.names = append(g.names, f.Name)
		}
	}
	g.succ = make([][]int, len(g.names))
	for _, f := range functions {
		caller := g.ids[f.Name]
		calls, err := q.CallsByCaller(f.File, f.Name)
		if err != nil {
			return nil, err
		}
		for _, c := range calls {
			callee, ok := g.ids[c.Callee]
			if !ok {
				continue // external or unresolved callee
			}
			if !slices.Contains(g.succ[caller], callee) {
				g.succ[caller] = append(g.succ[caller], callee)
			}
		}
	}
	return g, nil
}

// Visit implements graph.Iterator.
func (g *callGraph) Visit(v int, do func(w int, c int64) bool) bool {
	for _, w := range g.succ[v] {
		if do(w, 0) {
			return true
		}
	}
	return false
}

// Order implements graph.Iterator.
func (g *callGraph) Order() int {
	return len(g.names)
}

// recursiveFunctions returns the names of all functions on a call-graph cycle: members of
// a strong component of size greater than one, plus direct self-callers.
func (g *callGraph) recursiveFunctions() map[string]bool {
	out := make(map[string]bool)
	for _, comp := range graph.StrongComponents(g) {
		if len(comp) > 1 {
			for _, v := range comp {
				out[g.names[v]] = true
			}
		}
	}
	for v, succ := range g.succ {
		if slices.Contains(succ, v) {
			out[g.names[v]] = true
		}
	}
	return out
}
