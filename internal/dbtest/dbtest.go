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

// Package dbtest builds in-memory program databases for tests.
package dbtest

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/auditkit/taintflow/analysis/progdb"
)

var schema = []string{
	`CREATE TABLE symbols (
		path TEXT NOT NULL,
		name TEXT NOT NULL,
		type TEXT NOT NULL,
		line INTEGER NOT NULL,
		col INTEGER NOT NULL,
		in_function TEXT NOT NULL DEFAULT '')`,
	`CREATE TABLE assignments (
		file TEXT NOT NULL,
		line INTEGER NOT NULL,
		target_var TEXT NOT NULL,
		source_expr TEXT NOT NULL,
		source_vars TEXT NOT NULL DEFAULT '',
		in_function TEXT NOT NULL)`,
	`CREATE TABLE function_call_args (
		file TEXT NOT NULL,
		line INTEGER NOT NULL,
		caller_function TEXT NOT NULL,
		callee_function TEXT NOT NULL,
		callee_file TEXT NOT NULL DEFAULT '',
		arg_index INTEGER NOT NULL,
		param_name TEXT NOT NULL DEFAULT '',
		argument_expr TEXT NOT NULL)`,
	`CREATE TABLE function_returns (
		file TEXT NOT NULL,
		function_name TEXT NOT NULL,
		line INTEGER NOT NULL,
		return_expr TEXT NOT NULL,
		return_vars TEXT NOT NULL DEFAULT '')`,
	`CREATE TABLE cfg_blocks (
		id INTEGER PRIMARY KEY,
		file TEXT NOT NULL,
		function_name TEXT NOT NULL,
		start_line INTEGER NOT NULL,
		end_line INTEGER NOT NULL,
		block_type TEXT NOT NULL)`,
	`CREATE TABLE cfg_edges (
		file TEXT NOT NULL,
		function_name TEXT NOT NULL,
		source_block INTEGER NOT NULL,
		target_block INTEGER NOT NULL,
		edge_type TEXT NOT NULL)`,
	`CREATE TABLE cfg_block_statements (
		block_id INTEGER NOT NULL,
		line INTEGER NOT NULL,
		statement_type TEXT NOT NULL,
		statement_text TEXT NOT NULL)`,
	`CREATE TABLE frameworks (
		name TEXT NOT NULL,
		version TEXT NOT NULL DEFAULT '',
		language TEXT NOT NULL DEFAULT '',
		path TEXT NOT NULL DEFAULT '',
		is_primary INTEGER NOT NULL DEFAULT 0)`,
	`CREATE TABLE framework_safe_sinks (
		framework TEXT NOT NULL,
		sink_pattern TEXT NOT NULL,
		reason TEXT NOT NULL DEFAULT '')`,
}

// Open returns an empty in-memory program database with the full schema created. The
// store is closed when the test finishes.
func Open(t *testing.T) *progdb.Store {
	t.Helper()
	store, err := progdb.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	for _, stmt := range schema {
		require.NoError(t, store.Exec(stmt))
	}
	require.NoError(t, store.Verify())
	return store
}

// Symbol inserts a symbol row.
func Symbol(t *testing.T, s *progdb.Store, sym progdb.Symbol) {
	t.Helper()
	require.NoError(t, s.Exec(
		"INSERT INTO symbols (path, name, type, line, col, in_function) VALUES (?, ?, ?, ?, ?, ?)",
		sym.File, sym.Name, string(sym.Kind), sym.Line, sym.Col, sym.Function))
}

// Assign inserts an assignment row.
func Assign(t *testing.T, s *progdb.Store, a progdb.Assignment) {
	t.Helper()
	require.NoError(t, s.Exec(
		"INSERT INTO assignments (file, line, target_var, source_expr, source_vars, in_function) VALUES (?, ?, ?, ?, ?, ?)",
		a.File, a.Line, a.Target, a.SourceExpr, a.SourceVars, a.Function))
}

// Call inserts one call-argument row.
func Call(t *testing.T, s *progdb.Store, c progdb.CallSite) {
	t.Helper()
	require.NoError(t, s.Exec(
		"INSERT INTO function_call_args (file, line, caller_function, callee_function, callee_file, arg_index, param_name, argument_expr) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		c.File, c.Line, c.Caller, c.Callee, c.CalleeFile, c.ArgIndex, c.Param, c.ArgExpr))
}

// Ret inserts a function return row.
func Ret(t *testing.T, s *progdb.Store, r progdb.Return) {
	t.Helper()
	require.NoError(t, s.Exec(
		"INSERT INTO function_returns (file, function_name, line, return_expr, return_vars) VALUES (?, ?, ?, ?, ?)",
		r.File, r.Function, r.Line, r.Expr, r.Vars))
}

// Block inserts a CFG block row.
func Block(t *testing.T, s *progdb.Store, b progdb.Block) {
	t.Helper()
	require.NoError(t, s.Exec(
		"INSERT INTO cfg_blocks (id, file, function_name, start_line, end_line, block_type) VALUES (?, ?, ?, ?, ?, ?)",
		b.ID, b.File, b.Function, b.StartLine, b.EndLine, string(b.Kind)))
}

// Edge inserts a CFG edge row for the given function.
func Edge(t *testing.T, s *progdb.Store, file, function string, e progdb.Edge) {
	t.Helper()
	require.NoError(t, s.Exec(
		"INSERT INTO cfg_edges (file, function_name, source_block, target_block, edge_type) VALUES (?, ?, ?, ?, ?)",
		file, function, e.From, e.To, string(e.Kind)))
}

// Stmt inserts a CFG block statement row.
func Stmt(t *testing.T, s *progdb.Store, st progdb.Statement) {
	t.Helper()
	require.NoError(t, s.Exec(
		"INSERT INTO cfg_block_statements (block_id, line, statement_type, statement_text) VALUES (?, ?, ?, ?)",
		st.BlockID, st.Line, st.Kind, st.Text))
}

// Framework inserts a framework row.
func Framework(t *testing.T, s *progdb.Store, f progdb.Framework) {
	t.Helper()
	primary := 0
	if f.Primary {
		primary = 1
	}
	require.NoError(t, s.Exec(
		"INSERT INTO frameworks (name, version, language, path, is_primary) VALUES (?, ?, ?, ?, ?)",
		f.Name, f.Version, f.Language, f.Path, primary))
}

// SafeSink inserts a framework safe-sink row.
func SafeSink(t *testing.T, s *progdb.Store, ss progdb.SafeSink) {
	t.Helper()
	require.NoError(t, s.Exec(
		"INSERT INTO framework_safe_sinks (framework, sink_pattern, reason) VALUES (?, ?, ?)",
		ss.Framework, ss.Pattern, ss.Reason))
}

// LinearCFG inserts the three-block entry/body/exit CFG every straight-line test function
// uses, returning the body block id so statements can be attached.
func LinearCFG(t *testing.T, s *progdb.Store, file, function string, firstID int64, startLine, endLine int) int64 {
	t.Helper()
	Block(t, s, progdb.Block{ID: firstID, File: file, Function: function, StartLine: startLine, EndLine: startLine, Kind: progdb.BlockEntry})
	Block(t, s, progdb.Block{ID: firstID + 1, File: file, Function: function, StartLine: startLine, EndLine: endLine, Kind: progdb.BlockNormal})
	Block(t, s, progdb.Block{ID: firstID + 2, File: file, Function: function, StartLine: endLine, EndLine: endLine, Kind: progdb.BlockExit})
	Edge(t, s, file, function, progdb.Edge{From: firstID, To: firstID + 1, Kind: progdb.EdgeUnconditional})
	Edge(t, s, file, function, progdb.Edge{From: firstID + 1, To: firstID + 2, Kind: progdb.EdgeUnconditional})
	return firstID + 1
}
