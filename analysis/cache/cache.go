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

// Package cache mirrors the hot program database tables in process memory, trading memory
// for speed during the analysis loop. The cache is loaded once before tracing starts and is
// read-only afterwards, which makes it safely shareable across concurrent traversals.
//
// Whether the cache is used is a startup-time decision: if preload fails (memory budget
// exceeded, load error), the whole run falls back to direct store queries. The decision is
// never revisited per query, so a run's behavior stays observable and reproducible.
package cache

import "github.com/auditkit/taintflow/analysis/progdb"

type fileFunc struct {
	file string
	fn   string
}

type fileKind struct {
	file string
	kind progdb.SymbolKind
}

type fileLine struct {
	file string
	line int
}

// Memory is the preloaded, multiply-indexed mirror of the program database. It implements
// progdb.Querier; per the equivalence invariant every method returns exactly what the
// corresponding Store query would return, in the same order. Index slices share backing
// arrays with the primary slices loaded in store order, which is what preserves ordering
// without re-sorting.
type Memory struct {
	symbols     []progdb.Symbol
	assignments []progdb.Assignment
	calls       []progdb.CallSite
	returns     []progdb.Return
	blocks      []progdb.Block
	statements  []progdb.Statement
	frameworks  []progdb.Framework
	safeSinks   []progdb.SafeSink

	symbolsByKind   map[progdb.SymbolKind][]progdb.Symbol
	symbolsByName   map[string][]progdb.Symbol
	functionsByFile map[string][]progdb.Symbol
	symbolsByFK     map[fileKind][]progdb.Symbol

	assignsByFunc map[fileFunc][]progdb.Assignment
	assignsByFile map[string][]progdb.Assignment

	callsByCaller map[fileFunc][]progdb.CallSite
	callsByCallee map[string][]progdb.CallSite
	callsByLine   map[fileLine][]progdb.CallSite

	returnsByFunc map[fileFunc][]progdb.Return
	blocksByFunc  map[fileFunc][]progdb.Block
	edgesByFunc   map[fileFunc][]progdb.Edge
	stmtsByBlock  map[int64][]progdb.Statement

	bytes int64
}

// Bytes returns the estimated memory footprint of the cache in bytes.
func (m *Memory) Bytes() int64 {
	return m.bytes
}

// SymbolsByKind implements progdb.Querier.
func (m *Memory) SymbolsByKind(kind progdb.SymbolKind) ([]progdb.Symbol, error) {
	return m.symbolsByKind[kind], nil
}

// SymbolsByName implements progdb.Querier.
func (m *Memory) SymbolsByName(name string) ([]progdb.Symbol, error) {
	return m.symbolsByName[name], nil
}

// FunctionSymbols implements progdb.Querier.
func (m *Memory) FunctionSymbols(file string) ([]progdb.Symbol, error) {
	return m.functionsByFile[file], nil
}

// SymbolsInRange implements progdb.Querier.
func (m *Memory) SymbolsInRange(file string, kind progdb.SymbolKind, lo, hi int) ([]progdb.Symbol, error) {
	var out []progdb.Symbol
	for _, sym := range m.symbolsByFK[fileKind{file, kind}] {
		if sym.Line > lo && sym.Line < hi {
			out = append(out, sym)
		}
	}
	return out, nil
}

// AssignmentsInFunction implements progdb.Querier.
func (m *Memory) AssignmentsInFunction(file, function string) ([]progdb.Assignment, error) {
	return m.assignsByFunc[fileFunc{file, function}], nil
}

// AssignmentsNear implements progdb.Querier.
func (m *Memory) AssignmentsNear(file string, lo, hi int) ([]progdb.Assignment, error) {
	var out []progdb.Assignment
	for _, a := range m.assignsByFile[file] {
		if a.Line >= lo && a.Line <= hi {
			out = append(out, a)
		}
	}
	return out, nil
}

// CallsByCaller implements progdb.Querier.
func (m *Memory) CallsByCaller(file, caller string) ([]progdb.CallSite, error) {
	return m.callsByCaller[fileFunc{file, caller}], nil
}

// CallsByCallee implements progdb.Querier.
func (m *Memory) CallsByCallee(callee string) ([]progdb.CallSite, error) {
	return m.callsByCallee[callee], nil
}

// CallsAtLine implements progdb.Querier.
func (m *Memory) CallsAtLine(file string, line int) ([]progdb.CallSite, error) {
	return m.callsByLine[fileLine{file, line}], nil
}

// ReturnsOfFunction implements progdb.Querier.
func (m *Memory) ReturnsOfFunction(file, function string) ([]progdb.Return, error) {
	return m.returnsByFunc[fileFunc{file, function}], nil
}

// BlocksOfFunction implements progdb.Querier.
func (m *Memory) BlocksOfFunction(file, function string) ([]progdb.Block, error) {
	return m.blocksByFunc[fileFunc{file, function}], nil
}

// EdgesOfFunction implements progdb.Querier.
func (m *Memory) EdgesOfFunction(file, function string) ([]progdb.Edge, error) {
	return m.edgesByFunc[fileFunc{file, function}], nil
}

// StatementsOfBlock implements progdb.Querier.
func (m *Memory) StatementsOfBlock(blockID int64) ([]progdb.Statement, error) {
	return m.stmtsByBlock[blockID], nil
}

// Frameworks implements progdb.Querier.
func (m *Memory) Frameworks() ([]progdb.Framework, error) {
	return m.frameworks, nil
}

// SafeSinks implements progdb.Querier.
func (m *Memory) SafeSinks() ([]progdb.SafeSink, error) {
	return m.safeSinks, nil
}

var _ progdb.Querier = (*Memory)(nil)
