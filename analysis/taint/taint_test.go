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

package taint_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/auditkit/taintflow/analysis/config"
	"github.com/auditkit/taintflow/analysis/progdb"
	"github.com/auditkit/taintflow/analysis/taint"
	"github.com/auditkit/taintflow/internal/dbtest"
)

func testConfig() *config.Config {
	conf := config.NewDefault()
	conf.UseMemoryCache = false
	conf.LogLevel = int(config.ErrLevel)
	return conf
}

// sqlInjectionFixture builds the canonical vulnerable controller:
//
//	4  async function getUser(request, res) {
//	5    const id = request.query.id
//	8    const sql = `SELECT * FROM users WHERE id = ${id}`
//	9    await db.execute(sql)
//	10 }
func sqlInjectionFixture(t *testing.T) *progdb.Store {
	t.Helper()
	store := dbtest.Open(t)
	dbtest.Symbol(t, store, progdb.Symbol{File: "ctrl.ts", Line: 4, Col: 0, Name: "getUser", Kind: progdb.KindFunction})
	dbtest.Symbol(t, store, progdb.Symbol{File: "ctrl.ts", Line: 5, Col: 13, Name: "request.query", Kind: progdb.KindProperty, Function: "getUser"})
	dbtest.Symbol(t, store, progdb.Symbol{File: "ctrl.ts", Line: 9, Col: 8, Name: "db.execute", Kind: progdb.KindCall, Function: "getUser"})

	dbtest.Assign(t, store, progdb.Assignment{File: "ctrl.ts", Function: "getUser", Line: 5, Target: "id", SourceExpr: "request.query.id", SourceVars: `["request.query"]`})
	dbtest.Assign(t, store, progdb.Assignment{File: "ctrl.ts", Function: "getUser", Line: 8, Target: "sql", SourceExpr: "`SELECT * FROM users WHERE id = ${id}`", SourceVars: `["id"]`})
	dbtest.Call(t, store, progdb.CallSite{File: "ctrl.ts", Caller: "getUser", Line: 9, Callee: "db.execute", ArgIndex: 0, ArgExpr: "sql"})

	body := dbtest.LinearCFG(t, store, "ctrl.ts", "getUser", 1, 4, 10)
	dbtest.Stmt(t, store, progdb.Statement{BlockID: body, Line: 5, Kind: "assign", Text: "id"})
	dbtest.Stmt(t, store, progdb.Statement{BlockID: body, Line: 8, Kind: "assign", Text: "sql"})
	dbtest.Stmt(t, store, progdb.Statement{BlockID: body, Line: 9, Kind: "call", Text: "db.execute"})
	return store
}

func TestSQLInjectionScenario(t *testing.T) {
	store := sqlInjectionFixture(t)
	result, err := taint.Trace(store, testConfig())
	require.NoError(t, err)

	require.Len(t, result.Paths, 1)
	p := result.Paths[0]
	if p.Source.File != "ctrl.ts" || p.Source.Line != 5 || p.Source.Name != "request.query" {
		t.Errorf("source = %+v, want request.query at ctrl.ts:5", p.Source)
	}
	if p.Sink.File != "ctrl.ts" || p.Sink.Line != 9 || p.Sink.Name != "db.execute" {
		t.Errorf("sink = %+v, want db.execute at ctrl.ts:9", p.Sink)
	}
	if p.Sink.Category != "sql-injection" {
		t.Errorf("category = %s, want sql-injection", p.Sink.Category)
	}
	if p.Confidence != taint.ConfidenceHigh {
		t.Errorf("confidence = %s, want high", p.Confidence)
	}
	if p.Sanitized {
		t.Error("finding should not be marked sanitized")
	}
	if result.ByCategory["sql-injection"] != 1 {
		t.Errorf("ByCategory = %v", result.ByCategory)
	}
	if result.SinksFound != 1 {
		t.Errorf("SinksFound = %d, want 1", result.SinksFound)
	}
}

// TestMultiCategorySource: request.query is a source for xss as well as sql-injection, so
// a flow into res.send must surface as an xss finding even though the same symbol also
// seeds other categories.
func TestMultiCategorySource(t *testing.T) {
	store := dbtest.Open(t)
	dbtest.Symbol(t, store, progdb.Symbol{File: "v.ts", Line: 4, Col: 0, Name: "render", Kind: progdb.KindFunction})
	dbtest.Symbol(t, store, progdb.Symbol{File: "v.ts", Line: 5, Col: 14, Name: "request.query", Kind: progdb.KindProperty, Function: "render"})
	dbtest.Symbol(t, store, progdb.Symbol{File: "v.ts", Line: 9, Col: 2, Name: "res.send", Kind: progdb.KindCall, Function: "render"})

	dbtest.Assign(t, store, progdb.Assignment{File: "v.ts", Function: "render", Line: 5, Target: "msg", SourceExpr: "request.query.msg", SourceVars: `["request.query"]`})
	dbtest.Call(t, store, progdb.CallSite{File: "v.ts", Caller: "render", Line: 9, Callee: "res.send", ArgIndex: 0, ArgExpr: "msg"})

	body := dbtest.LinearCFG(t, store, "v.ts", "render", 1, 4, 10)
	dbtest.Stmt(t, store, progdb.Statement{BlockID: body, Line: 9, Kind: "call", Text: "res.send"})

	result, err := taint.Trace(store, testConfig())
	require.NoError(t, err)
	require.Len(t, result.Paths, 1)
	p := result.Paths[0]
	if p.Sink.Name != "res.send" || p.Sink.Category != "xss" {
		t.Errorf("sink = %+v, want res.send under xss", p.Sink)
	}
	if p.Confidence != taint.ConfidenceHigh {
		t.Errorf("confidence = %s, want high", p.Confidence)
	}
	if result.ByCategory["xss"] != 1 {
		t.Errorf("ByCategory = %v", result.ByCategory)
	}
}

// TestValidatedInputScenario is the same controller with a schema validation at line 7;
// the validated copy, not the raw input, builds the query.
func TestValidatedInputScenario(t *testing.T) {
	store := dbtest.Open(t)
	dbtest.Symbol(t, store, progdb.Symbol{File: "ctrl.ts", Line: 4, Col: 0, Name: "getUser", Kind: progdb.KindFunction})
	dbtest.Symbol(t, store, progdb.Symbol{File: "ctrl.ts", Line: 7, Col: 30, Name: "request.query", Kind: progdb.KindProperty, Function: "getUser"})
	dbtest.Symbol(t, store, progdb.Symbol{File: "ctrl.ts", Line: 7, Col: 14, Name: "schema.parseAsync", Kind: progdb.KindCall, Function: "getUser"})
	dbtest.Symbol(t, store, progdb.Symbol{File: "ctrl.ts", Line: 9, Col: 8, Name: "db.execute", Kind: progdb.KindCall, Function: "getUser"})

	dbtest.Assign(t, store, progdb.Assignment{File: "ctrl.ts", Function: "getUser", Line: 7, Target: "clean", SourceExpr: "schema.parseAsync(request.query)", SourceVars: `["request.query"]`})
	dbtest.Assign(t, store, progdb.Assignment{File: "ctrl.ts", Function: "getUser", Line: 8, Target: "sql", SourceExpr: "`SELECT * FROM users WHERE id = ${clean.id}`", SourceVars: `["clean"]`})
	dbtest.Call(t, store, progdb.CallSite{File: "ctrl.ts", Caller: "getUser", Line: 7, Callee: "schema.parseAsync", ArgIndex: 0, ArgExpr: "request.query"})
	dbtest.Call(t, store, progdb.CallSite{File: "ctrl.ts", Caller: "getUser", Line: 9, Callee: "db.execute", ArgIndex: 0, ArgExpr: "sql"})

	body := dbtest.LinearCFG(t, store, "ctrl.ts", "getUser", 1, 4, 10)
	dbtest.Stmt(t, store, progdb.Statement{BlockID: body, Line: 7, Kind: "call", Text: "schema.parseAsync"})
	dbtest.Stmt(t, store, progdb.Statement{BlockID: body, Line: 9, Kind: "call", Text: "db.execute"})

	result, err := taint.Trace(store, testConfig())
	require.NoError(t, err)
	if len(result.Paths) != 0 {
		t.Errorf("validated input produced %d findings, want 0: %+v", len(result.Paths), result.Paths)
	}
}

// TestPartiallySanitizedBranch routes the tainted value through a branch where only one
// arm parameterizes; the finding must survive, flagged sanitized with medium confidence.
func TestPartiallySanitizedBranch(t *testing.T) {
	store := dbtest.Open(t)
	dbtest.Symbol(t, store, progdb.Symbol{File: "ctrl.ts", Line: 4, Col: 0, Name: "getUser", Kind: progdb.KindFunction})
	dbtest.Symbol(t, store, progdb.Symbol{File: "ctrl.ts", Line: 5, Col: 13, Name: "request.query", Kind: progdb.KindProperty, Function: "getUser"})
	dbtest.Symbol(t, store, progdb.Symbol{File: "ctrl.ts", Line: 9, Col: 8, Name: "db.execute", Kind: progdb.KindCall, Function: "getUser"})

	dbtest.Assign(t, store, progdb.Assignment{File: "ctrl.ts", Function: "getUser", Line: 5, Target: "id", SourceExpr: "request.query.id", SourceVars: `["request.query"]`})
	dbtest.Call(t, store, progdb.CallSite{File: "ctrl.ts", Caller: "getUser", Line: 9, Callee: "db.execute", ArgIndex: 0, ArgExpr: "id"})

	// Diamond: the branch at line 6 either parameterizes (line 7) or falls through
	// (line 8) before both arms rejoin at the sink.
	dbtest.Block(t, store, progdb.Block{ID: 1, File: "ctrl.ts", Function: "getUser", StartLine: 4, EndLine: 4, Kind: progdb.BlockEntry})
	dbtest.Block(t, store, progdb.Block{ID: 2, File: "ctrl.ts", Function: "getUser", StartLine: 5, EndLine: 6, Kind: progdb.BlockBranch})
	dbtest.Block(t, store, progdb.Block{ID: 3, File: "ctrl.ts", Function: "getUser", StartLine: 7, EndLine: 7, Kind: progdb.BlockNormal})
	dbtest.Block(t, store, progdb.Block{ID: 4, File: "ctrl.ts", Function: "getUser", StartLine: 8, EndLine: 8, Kind: progdb.BlockNormal})
	dbtest.Block(t, store, progdb.Block{ID: 5, File: "ctrl.ts", Function: "getUser", StartLine: 9, EndLine: 10, Kind: progdb.BlockNormal})
	dbtest.Block(t, store, progdb.Block{ID: 6, File: "ctrl.ts", Function: "getUser", StartLine: 10, EndLine: 10, Kind: progdb.BlockExit})
	dbtest.Edge(t, store, "ctrl.ts", "getUser", progdb.Edge{From: 1, To: 2, Kind: progdb.EdgeUnconditional})
	dbtest.Edge(t, store, "ctrl.ts", "getUser", progdb.Edge{From: 2, To: 3, Kind: progdb.EdgeTrue})
	dbtest.Edge(t, store, "ctrl.ts", "getUser", progdb.Edge{From: 2, To: 4, Kind: progdb.EdgeFalse})
	dbtest.Edge(t, store, "ctrl.ts", "getUser", progdb.Edge{From: 3, To: 5, Kind: progdb.EdgeUnconditional})
	dbtest.Edge(t, store, "ctrl.ts", "getUser", progdb.Edge{From: 4, To: 5, Kind: progdb.EdgeUnconditional})
	dbtest.Edge(t, store, "ctrl.ts", "getUser", progdb.Edge{From: 5, To: 6, Kind: progdb.EdgeUnconditional})
	dbtest.Stmt(t, store, progdb.Statement{BlockID: 3, Line: 7, Kind: "call", Text: "parameterize"})
	dbtest.Stmt(t, store, progdb.Statement{BlockID: 5, Line: 9, Kind: "call", Text: "db.execute"})

	result, err := taint.Trace(store, testConfig())
	require.NoError(t, err)
	require.Len(t, result.Paths, 1)
	p := result.Paths[0]
	if !p.Sanitized {
		t.Error("finding should be flagged sanitized on some paths")
	}
	if p.Confidence != taint.ConfidenceMedium {
		t.Errorf("confidence = %s, want medium for a partially sanitized flow", p.Confidence)
	}
}

// TestCrossFileAttribution drives taint through three files and requires the finding to
// name the original entry point, not an intermediate hop.
func TestCrossFileAttribution(t *testing.T) {
	store := dbtest.Open(t)
	dbtest.Symbol(t, store, progdb.Symbol{File: "a.ts", Line: 2, Col: 0, Name: "handler", Kind: progdb.KindFunction})
	dbtest.Symbol(t, store, progdb.Symbol{File: "a.ts", Line: 3, Col: 15, Name: "request.body", Kind: progdb.KindProperty, Function: "handler"})
	dbtest.Symbol(t, store, progdb.Symbol{File: "b.ts", Line: 1, Col: 0, Name: "relay", Kind: progdb.KindFunction})
	dbtest.Symbol(t, store, progdb.Symbol{File: "c.ts", Line: 1, Col: 0, Name: "persist", Kind: progdb.KindFunction})
	dbtest.Symbol(t, store, progdb.Symbol{File: "c.ts", Line: 3, Col: 2, Name: "db.execute", Kind: progdb.KindCall, Function: "persist"})

	dbtest.Assign(t, store, progdb.Assignment{File: "a.ts", Function: "handler", Line: 3, Target: "data", SourceExpr: "request.body", SourceVars: `["request.body"]`})
	dbtest.Call(t, store, progdb.CallSite{File: "a.ts", Caller: "handler", Line: 4, Callee: "relay", CalleeFile: "b.ts", ArgIndex: 0, Param: "payload", ArgExpr: "data"})
	dbtest.Call(t, store, progdb.CallSite{File: "b.ts", Caller: "relay", Line: 2, Callee: "persist", CalleeFile: "c.ts", ArgIndex: 0, Param: "value", ArgExpr: "payload"})
	dbtest.Call(t, store, progdb.CallSite{File: "c.ts", Caller: "persist", Line: 3, Callee: "db.execute", ArgIndex: 0, ArgExpr: "value"})

	dbtest.LinearCFG(t, store, "c.ts", "persist", 1, 1, 5)

	result, err := taint.Trace(store, testConfig())
	require.NoError(t, err)
	require.Len(t, result.Paths, 1)
	p := result.Paths[0]
	if p.Source.File != "a.ts" {
		t.Errorf("source attributed to %s, want a.ts", p.Source.File)
	}
	if p.Sink.File != "c.ts" {
		t.Errorf("sink in %s, want c.ts", p.Sink.File)
	}
	if len(p.Hops) < 3 {
		t.Errorf("expected at least 3 hops across files, got %d: %+v", len(p.Hops), p.Hops)
	}
}

// TestDistantCallSiteStaysFlowSensitive places the call into persist far down the caller
// file; verification must still resolve the callee-scoped flow inside persist's CFG and
// report high confidence instead of degrading to the line-range check.
func TestDistantCallSiteStaysFlowSensitive(t *testing.T) {
	store := dbtest.Open(t)
	dbtest.Symbol(t, store, progdb.Symbol{File: "a.ts", Line: 38, Col: 0, Name: "handler", Kind: progdb.KindFunction})
	dbtest.Symbol(t, store, progdb.Symbol{File: "a.ts", Line: 39, Col: 15, Name: "request.body", Kind: progdb.KindProperty, Function: "handler"})
	dbtest.Symbol(t, store, progdb.Symbol{File: "c.ts", Line: 1, Col: 0, Name: "persist", Kind: progdb.KindFunction})
	dbtest.Symbol(t, store, progdb.Symbol{File: "c.ts", Line: 3, Col: 2, Name: "db.execute", Kind: progdb.KindCall, Function: "persist"})

	dbtest.Assign(t, store, progdb.Assignment{File: "a.ts", Function: "handler", Line: 39, Target: "data", SourceExpr: "request.body", SourceVars: `["request.body"]`})
	dbtest.Call(t, store, progdb.CallSite{File: "a.ts", Caller: "handler", Line: 40, Callee: "persist", CalleeFile: "c.ts", ArgIndex: 0, Param: "value", ArgExpr: "data"})
	dbtest.Call(t, store, progdb.CallSite{File: "c.ts", Caller: "persist", Line: 3, Callee: "db.execute", ArgIndex: 0, ArgExpr: "value"})

	dbtest.LinearCFG(t, store, "c.ts", "persist", 1, 1, 5)

	result, err := taint.Trace(store, testConfig())
	require.NoError(t, err)
	require.Len(t, result.Paths, 1)
	p := result.Paths[0]
	if p.Source.File != "a.ts" || p.Sink.File != "c.ts" {
		t.Errorf("flow = %+v -> %+v, want a.ts source and c.ts sink", p.Source, p.Sink)
	}
	if p.Confidence != taint.ConfidenceHigh {
		t.Errorf("confidence = %s, want high from persist's CFG", p.Confidence)
	}
}

// TestRecursionTerminates covers self-recursion and a mutual-recursion cycle; the visited
// set and the global depth bound must both hold.
func TestRecursionTerminates(t *testing.T) {
	store := dbtest.Open(t)
	dbtest.Symbol(t, store, progdb.Symbol{File: "r.ts", Line: 1, Col: 0, Name: "loop", Kind: progdb.KindFunction})
	dbtest.Symbol(t, store, progdb.Symbol{File: "r.ts", Line: 10, Col: 0, Name: "ping", Kind: progdb.KindFunction})
	dbtest.Symbol(t, store, progdb.Symbol{File: "r.ts", Line: 20, Col: 0, Name: "pong", Kind: progdb.KindFunction})
	dbtest.Symbol(t, store, progdb.Symbol{File: "r.ts", Line: 2, Col: 10, Name: "sys.argv", Kind: progdb.KindProperty, Function: "loop"})
	dbtest.Symbol(t, store, progdb.Symbol{File: "r.ts", Line: 11, Col: 10, Name: "sys.argv", Kind: progdb.KindProperty, Function: "ping"})

	dbtest.Assign(t, store, progdb.Assignment{File: "r.ts", Function: "loop", Line: 2, Target: "x", SourceExpr: "sys.argv", SourceVars: `["sys.argv"]`})
	dbtest.Call(t, store, progdb.CallSite{File: "r.ts", Caller: "loop", Line: 3, Callee: "loop", CalleeFile: "r.ts", ArgIndex: 0, Param: "x", ArgExpr: "x"})

	dbtest.Assign(t, store, progdb.Assignment{File: "r.ts", Function: "ping", Line: 11, Target: "v", SourceExpr: "sys.argv", SourceVars: `["sys.argv"]`})
	dbtest.Call(t, store, progdb.CallSite{File: "r.ts", Caller: "ping", Line: 12, Callee: "pong", CalleeFile: "r.ts", ArgIndex: 0, Param: "v", ArgExpr: "v"})
	dbtest.Call(t, store, progdb.CallSite{File: "r.ts", Caller: "pong", Line: 21, Callee: "ping", CalleeFile: "r.ts", ArgIndex: 0, Param: "v", ArgExpr: "v"})

	conf := testConfig()
	conf.MaxDepth = 4
	result, err := taint.Trace(store, conf)
	require.NoError(t, err)
	if len(result.Paths) != 0 {
		t.Errorf("recursive fixtures have no sinks, got %d findings", len(result.Paths))
	}
}

func TestDeterminism(t *testing.T) {
	store := sqlInjectionFixture(t)
	first, err := taint.Trace(store, testConfig())
	require.NoError(t, err)
	second, err := taint.Trace(store, testConfig())
	require.NoError(t, err)

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	if string(a) != string(b) {
		t.Errorf("two runs over an unchanged database differ:\n%s\n%s", a, b)
	}
}

// TestCachedRunMatchesUncached is the system-level face of the cache equivalence
// invariant: the findings must be identical either way.
func TestCachedRunMatchesUncached(t *testing.T) {
	store := sqlInjectionFixture(t)

	uncached, err := taint.Trace(store, testConfig())
	require.NoError(t, err)
	require.False(t, uncached.CacheLoaded)

	conf := testConfig()
	conf.UseMemoryCache = true
	conf.MemoryLimit = 1 << 30
	cached, err := taint.Trace(store, conf)
	require.NoError(t, err)
	require.True(t, cached.CacheLoaded)

	a, err := json.Marshal(uncached.Paths)
	require.NoError(t, err)
	b, err := json.Marshal(cached.Paths)
	require.NoError(t, err)
	if string(a) != string(b) {
		t.Errorf("cached and uncached findings differ:\n%s\n%s", a, b)
	}
}

// TestCacheFallback forces the preload over budget; the run must complete uncached
// instead of failing.
func TestCacheFallback(t *testing.T) {
	store := sqlInjectionFixture(t)
	conf := testConfig()
	conf.UseMemoryCache = true
	conf.MemoryLimit = 1
	conf.SilenceWarn = true

	result, err := taint.Trace(store, conf)
	require.NoError(t, err)
	require.False(t, result.CacheLoaded)
	require.Len(t, result.Paths, 1)
}

func TestFrameworkSafeSinkSuppression(t *testing.T) {
	store := sqlInjectionFixture(t)
	dbtest.Framework(t, store, progdb.Framework{Name: "safeorm", Primary: true})
	dbtest.SafeSink(t, store, progdb.SafeSink{Framework: "safeorm", Pattern: "db.execute", Reason: "always parameterized"})

	result, err := taint.Trace(store, testConfig())
	require.NoError(t, err)
	if len(result.Paths) != 0 {
		t.Errorf("framework-safe sink still reported: %+v", result.Paths)
	}
}

// TestAmbiguousFrameworksSuppressNothing: two primary frameworks is ambiguous, so the
// safe-sink list must not be applied.
func TestAmbiguousFrameworksSuppressNothing(t *testing.T) {
	store := sqlInjectionFixture(t)
	dbtest.Framework(t, store, progdb.Framework{Name: "safeorm", Primary: true})
	dbtest.Framework(t, store, progdb.Framework{Name: "otherorm", Primary: true})
	dbtest.SafeSink(t, store, progdb.SafeSink{Framework: "safeorm", Pattern: "db.execute"})

	result, err := taint.Trace(store, testConfig())
	require.NoError(t, err)
	require.Len(t, result.Paths, 1)
}

// TestDegradedModeWithoutCFG reports with medium confidence when the sink's function has
// no extracted CFG.
func TestDegradedModeWithoutCFG(t *testing.T) {
	store := dbtest.Open(t)
	dbtest.Symbol(t, store, progdb.Symbol{File: "ctrl.ts", Line: 4, Col: 0, Name: "getUser", Kind: progdb.KindFunction})
	dbtest.Symbol(t, store, progdb.Symbol{File: "ctrl.ts", Line: 5, Col: 13, Name: "request.query", Kind: progdb.KindProperty, Function: "getUser"})
	dbtest.Assign(t, store, progdb.Assignment{File: "ctrl.ts", Function: "getUser", Line: 5, Target: "id", SourceExpr: "request.query.id", SourceVars: `["request.query"]`})
	dbtest.Call(t, store, progdb.CallSite{File: "ctrl.ts", Caller: "getUser", Line: 9, Callee: "db.execute", ArgIndex: 0, ArgExpr: "id"})

	result, err := taint.Trace(store, testConfig())
	require.NoError(t, err)
	require.Len(t, result.Paths, 1)
	if got := result.Paths[0].Confidence; got != taint.ConfidenceMedium {
		t.Errorf("confidence = %s, want medium in degraded mode", got)
	}
}

func TestMaxAlarmsCap(t *testing.T) {
	store := sqlInjectionFixture(t)
	// A second, independent flow from the same source to another sink.
	dbtest.Symbol(t, store, progdb.Symbol{File: "ctrl.ts", Line: 9, Col: 30, Name: "db.query", Kind: progdb.KindCall, Function: "getUser"})
	dbtest.Call(t, store, progdb.CallSite{File: "ctrl.ts", Caller: "getUser", Line: 9, Callee: "db.query", ArgIndex: 0, ArgExpr: "sql"})

	conf := testConfig()
	conf.SilenceWarn = true
	result, err := taint.Trace(store, conf)
	require.NoError(t, err)
	require.Len(t, result.Paths, 2)

	conf.MaxAlarms = 1
	capped, err := taint.Trace(store, conf)
	require.NoError(t, err)
	require.Len(t, capped.Paths, 1)
}

func TestUnknownCategoryIsConfigError(t *testing.T) {
	store := sqlInjectionFixture(t)
	conf := testConfig()
	conf.EnabledCategories = []string{"sql-injection", "nosuch"}
	if _, err := taint.Trace(store, conf); err == nil {
		t.Error("expected configuration error for unknown category")
	}
}
