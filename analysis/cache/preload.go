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

package cache

import (
	"fmt"

	"github.com/auditkit/taintflow/analysis/config"
	"github.com/auditkit/taintflow/analysis/progdb"
)

// rowEstimate is the assumed per-row cost (record plus index overhead) used for the
// pre-load size check, before any row has been read.
const rowEstimate = 300

// hotTables are the tables the preload mirrors, in load order.
var hotTables = []string{
	"symbols", "assignments", "function_call_args", "function_returns",
	"cfg_blocks", "cfg_edges", "cfg_block_statements", "frameworks", "framework_safe_sinks",
}

// Preload loads the hot program database tables into a new Memory within the given byte
// budget. It returns an error when the estimate or the running tally exceeds the budget;
// the caller then runs the whole pass against the store instead.
func Preload(store *progdb.Store, budget int64, logger *config.LogGroup) (*Memory, error) {
	var estimate int64
	for _, table := range hotTables {
		n, err := store.TableCount(table)
		if err != nil {
			return nil, fmt.Errorf("could not estimate cache size: %w", err)
		}
		estimate += n * rowEstimate
	}
	if estimate > budget {
		return nil, fmt.Errorf("estimated cache size %d bytes exceeds budget %d bytes", estimate, budget)
	}
	logger.Debugf("cache estimated at %d bytes within budget %d bytes, loading", estimate, budget)

	m := &Memory{
		symbolsByKind:   map[progdb.SymbolKind][]progdb.Symbol{},
		symbolsByName:   map[string][]progdb.Symbol{},
		functionsByFile: map[string][]progdb.Symbol{},
		symbolsByFK:     map[fileKind][]progdb.Symbol{},
		assignsByFunc:   map[fileFunc][]progdb.Assignment{},
		assignsByFile:   map[string][]progdb.Assignment{},
		callsByCaller:   map[fileFunc][]progdb.CallSite{},
		callsByCallee:   map[string][]progdb.CallSite{},
		callsByLine:     map[fileLine][]progdb.CallSite{},
		returnsByFunc:   map[fileFunc][]progdb.Return{},
		blocksByFunc:    map[fileFunc][]progdb.Block{},
		edgesByFunc:     map[fileFunc][]progdb.Edge{},
		stmtsByBlock:    map[int64][]progdb.Statement{},
	}

	if err := m.loadSymbols(store); err != nil {
		return nil, err
	}
	if err := m.loadAssignments(store); err != nil {
		return nil, err
	}
	if err := m.loadCalls(store); err != nil {
		return nil, err
	}
	if err := m.loadReturns(store); err != nil {
		return nil, err
	}
	if err := m.loadCFG(store); err != nil {
		return nil, err
	}
	if err := m.loadFrameworkTables(store); err != nil {
		return nil, err
	}
	if m.bytes > budget {
		return nil, fmt.Errorf("cache size %d bytes exceeds budget %d bytes after load", m.bytes, budget)
	}

	logger.Infof("cache loaded: %d symbols, %d assignments, %d call args, %d returns, %d blocks (%d bytes)",
		len(m.symbols), len(m.assignments), len(m.calls), len(m.returns), len(m.blocks), m.bytes)
	return m, nil
}

func (m *Memory) loadSymbols(store *progdb.Store) error {
	symbols, err := store.AllSymbols()
	if err != nil {
		return err
	}
	m.symbols = symbols
	for _, sym := range symbols {
		m.symbolsByKind[sym.Kind] = append(m.symbolsByKind[sym.Kind], sym)
		m.symbolsByName[sym.Name] = append(m.symbolsByName[sym.Name], sym)
		m.symbolsByFK[fileKind{sym.File, sym.Kind}] = append(m.symbolsByFK[fileKind{sym.File, sym.Kind}], sym)
		if sym.Kind == progdb.KindFunction {
			m.functionsByFile[sym.File] = append(m.functionsByFile[sym.File], sym)
		}
		m.bytes += 96 + int64(len(sym.File)+len(sym.Name)+len(sym.Function))
	}
	return nil
}

func (m *Memory) loadAssignments(store *progdb.Store) error {
	assignments, err := store.AllAssignments()
	if err != nil {
		return err
	}
	m.assignments = assignments
	for _, a := range assignments {
		m.assignsByFunc[fileFunc{a.File, a.Function}] = append(m.assignsByFunc[fileFunc{a.File, a.Function}], a)
		m.assignsByFile[a.File] = append(m.assignsByFile[a.File], a)
		m.bytes += 96 + int64(len(a.File)+len(a.Function)+len(a.Target)+len(a.SourceExpr)+len(a.SourceVars))
	}
	return nil
}

func (m *Memory) loadCalls(store *progdb.Store) error {
	calls, err := store.AllCalls()
	if err != nil {
		return err
	}
	m.calls = calls
	for _, c := range calls {
		m.callsByCaller[fileFunc{c.File, c.Caller}] = append(m.callsByCaller[fileFunc{c.File, c.Caller}], c)
		m.callsByCallee[c.Callee] = append(m.callsByCallee[c.Callee], c)
		m.callsByLine[fileLine{c.File, c.Line}] = append(m.callsByLine[fileLine{c.File, c.Line}], c)
		m.bytes += 112 + int64(len(c.File)+len(c.Caller)+len(c.Callee)+len(c.CalleeFile)+len(c.Param)+len(c.ArgExpr))
	}
	return nil
}

func (m *Memory) loadReturns(store *progdb.Store) error {
	returns, err := store.AllReturns()
	if err != nil {
		return err
	}
	m.returns = returns
	for _, r := range returns {
		m.returnsByFunc[fileFunc{r.File, r.Function}] = append(m.returnsByFunc[fileFunc{r.File, r.Function}], r)
		m.bytes += 80 + int64(len(r.File)+len(r.Function)+len(r.Expr)+len(r.Vars))
	}
	return nil
}

func (m *Memory) loadCFG(store *progdb.Store) error {
	blocks, err := store.AllBlocks()
	if err != nil {
		return err
	}
	m.blocks = blocks
	for _, b := range blocks {
		m.blocksByFunc[fileFunc{b.File, b.Function}] = append(m.blocksByFunc[fileFunc{b.File, b.Function}], b)
		m.bytes += 80 + int64(len(b.File)+len(b.Function))
	}

	edges, err := store.AllEdges()
	if err != nil {
		return err
	}
	for _, e := range edges {
		m.edgesByFunc[fileFunc{e.File, e.Function}] = append(m.edgesByFunc[fileFunc{e.File, e.Function}], e.Edge)
		m.bytes += 48 + int64(len(e.File)+len(e.Function))
	}

	statements, err := store.AllStatements()
	if err != nil {
		return err
	}
	m.statements = statements
	for _, st := range statements {
		m.stmtsByBlock[st.BlockID] = append(m.stmtsByBlock[st.BlockID], st)
		m.bytes += 48 + int64(len(st.Kind)+len(st.Text))
	}
	return nil
}

func (m *Memory) loadFrameworkTables(store *progdb.Store) error {
	frameworks, err := store.Frameworks()
	if err != nil {
		return err
	}
	m.frameworks = frameworks
	safeSinks, err := store.SafeSinks()
	if err != nil {
		return err
	}
	m.safeSinks = safeSinks
	for _, f := range frameworks {
		m.bytes += 64 + int64(len(f.Name)+len(f.Version)+len(f.Language)+len(f.Path))
	}
	for _, ss := range safeSinks {
		m.bytes += 48 + int64(len(ss.Framework)+len(ss.Pattern)+len(ss.Reason))
	}
	return nil
}
