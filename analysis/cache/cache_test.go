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

package cache_test

import (
	"io"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/auditkit/taintflow/analysis/cache"
	"github.com/auditkit/taintflow/analysis/config"
	"github.com/auditkit/taintflow/analysis/progdb"
	"github.com/auditkit/taintflow/internal/dbtest"
)

func quietLogger() *config.LogGroup {
	l := config.NewLogGroup(config.NewDefault())
	l.SetAllOutput(io.Discard)
	return l
}

func populated(t *testing.T) *progdb.Store {
	t.Helper()
	store := dbtest.Open(t)

	dbtest.Symbol(t, store, progdb.Symbol{File: "a.ts", Line: 1, Col: 0, Name: "handler", Kind: progdb.KindFunction})
	dbtest.Symbol(t, store, progdb.Symbol{File: "a.ts", Line: 3, Col: 8, Name: "request.query", Kind: progdb.KindProperty, Function: "handler"})
	dbtest.Symbol(t, store, progdb.Symbol{File: "a.ts", Line: 5, Col: 2, Name: "db.execute", Kind: progdb.KindCall, Function: "handler"})
	dbtest.Symbol(t, store, progdb.Symbol{File: "b.ts", Line: 1, Col: 0, Name: "service", Kind: progdb.KindFunction})
	dbtest.Symbol(t, store, progdb.Symbol{File: "b.ts", Line: 4, Col: 2, Name: "sanitizeHtml", Kind: progdb.KindCall, Function: "service"})

	dbtest.Assign(t, store, progdb.Assignment{File: "a.ts", Function: "handler", Line: 3, Target: "id", SourceExpr: "request.query.id", SourceVars: `["request.query"]`})
	dbtest.Assign(t, store, progdb.Assignment{File: "a.ts", Function: "handler", Line: 4, Target: "sql", SourceExpr: "build(id)", SourceVars: `["id"]`})
	dbtest.Assign(t, store, progdb.Assignment{File: "b.ts", Function: "service", Line: 2, Target: "v", SourceExpr: "payload", SourceVars: `["payload"]`})

	dbtest.Call(t, store, progdb.CallSite{File: "a.ts", Caller: "handler", Line: 5, Callee: "db.execute", ArgIndex: 0, ArgExpr: "sql"})
	dbtest.Call(t, store, progdb.CallSite{File: "a.ts", Caller: "handler", Line: 4, Callee: "service", CalleeFile: "b.ts", ArgIndex: 0, Param: "payload", ArgExpr: "id"})
	dbtest.Call(t, store, progdb.CallSite{File: "b.ts", Caller: "service", Line: 4, Callee: "sanitizeHtml", ArgIndex: 0, ArgExpr: "v"})

	dbtest.Ret(t, store, progdb.Return{File: "b.ts", Function: "service", Line: 5, Expr: "v", Vars: `["v"]`})

	body := dbtest.LinearCFG(t, store, "a.ts", "handler", 1, 1, 6)
	dbtest.Stmt(t, store, progdb.Statement{BlockID: body, Line: 3, Kind: "assign", Text: "id"})
	dbtest.Stmt(t, store, progdb.Statement{BlockID: body, Line: 5, Kind: "call", Text: "db.execute"})

	dbtest.Framework(t, store, progdb.Framework{Name: "express", Version: "4.18", Language: "js", Primary: true})
	dbtest.SafeSink(t, store, progdb.SafeSink{Framework: "express", Pattern: "res.json", Reason: "serializes"})
	return store
}

// TestEquivalence drives every Querier method through both implementations and requires
// structurally identical, identically ordered results.
func TestEquivalence(t *testing.T) {
	store := populated(t)
	mem, err := cache.Preload(store, 1<<30, quietLogger())
	require.NoError(t, err)

	check := func(name string, fromStore, fromCache any, errS, errC error) {
		t.Helper()
		require.NoError(t, errS, name)
		require.NoError(t, errC, name)
		if diff := cmp.Diff(fromStore, fromCache); diff != "" {
			t.Errorf("%s differs between store and cache (-store +cache):\n%s", name, diff)
		}
	}

	for _, kind := range []progdb.SymbolKind{progdb.KindFunction, progdb.KindCall, progdb.KindProperty, progdb.KindVariable} {
		a, errS := store.SymbolsByKind(kind)
		b, errC := mem.SymbolsByKind(kind)
		check("SymbolsByKind/"+string(kind), a, b, errS, errC)
	}
	for _, name := range []string{"handler", "service", "db.execute", "missing"} {
		a, errS := store.SymbolsByName(name)
		b, errC := mem.SymbolsByName(name)
		check("SymbolsByName/"+name, a, b, errS, errC)
	}
	for _, file := range []string{"a.ts", "b.ts", "c.ts"} {
		a, errS := store.FunctionSymbols(file)
		b, errC := mem.FunctionSymbols(file)
		check("FunctionSymbols/"+file, a, b, errS, errC)

		as, errS := store.AssignmentsNear(file, 1, 10)
		bs, errC := mem.AssignmentsNear(file, 1, 10)
		check("AssignmentsNear/"+file, as, bs, errS, errC)
	}
	{
		a, errS := store.SymbolsInRange("a.ts", progdb.KindCall, 1, 10)
		b, errC := mem.SymbolsInRange("a.ts", progdb.KindCall, 1, 10)
		check("SymbolsInRange", a, b, errS, errC)
	}
	for _, fn := range []struct{ file, name string }{{"a.ts", "handler"}, {"b.ts", "service"}, {"a.ts", "nothing"}} {
		a, errS := store.AssignmentsInFunction(fn.file, fn.name)
		b, errC := mem.AssignmentsInFunction(fn.file, fn.name)
		check("AssignmentsInFunction/"+fn.name, a, b, errS, errC)

		ca, errS := store.CallsByCaller(fn.file, fn.name)
		cb, errC := mem.CallsByCaller(fn.file, fn.name)
		check("CallsByCaller/"+fn.name, ca, cb, errS, errC)

		ra, errS := store.ReturnsOfFunction(fn.file, fn.name)
		rb, errC := mem.ReturnsOfFunction(fn.file, fn.name)
		check("ReturnsOfFunction/"+fn.name, ra, rb, errS, errC)

		ba, errS := store.BlocksOfFunction(fn.file, fn.name)
		bb, errC := mem.BlocksOfFunction(fn.file, fn.name)
		check("BlocksOfFunction/"+fn.name, ba, bb, errS, errC)

		ea, errS := store.EdgesOfFunction(fn.file, fn.name)
		eb, errC := mem.EdgesOfFunction(fn.file, fn.name)
		check("EdgesOfFunction/"+fn.name, ea, eb, errS, errC)
	}
	for _, callee := range []string{"db.execute", "service", "sanitizeHtml", "missing"} {
		a, errS := store.CallsByCallee(callee)
		b, errC := mem.CallsByCallee(callee)
		check("CallsByCallee/"+callee, a, b, errS, errC)
	}
	for line := 1; line <= 6; line++ {
		a, errS := store.CallsAtLine("a.ts", line)
		b, errC := mem.CallsAtLine("a.ts", line)
		check("CallsAtLine", a, b, errS, errC)
	}
	for blockID := int64(1); blockID <= 3; blockID++ {
		a, errS := store.StatementsOfBlock(blockID)
		b, errC := mem.StatementsOfBlock(blockID)
		check("StatementsOfBlock", a, b, errS, errC)
	}
	{
		a, errS := store.Frameworks()
		b, errC := mem.Frameworks()
		check("Frameworks", a, b, errS, errC)

		sa, errS := store.SafeSinks()
		sb, errC := mem.SafeSinks()
		check("SafeSinks", sa, sb, errS, errC)
	}
}

func TestPreloadBudgetExceeded(t *testing.T) {
	store := populated(t)
	_, err := cache.Preload(store, 10, quietLogger())
	if err == nil {
		t.Fatal("preload within 10 bytes should fail")
	}
}

func TestPreloadReportsFootprint(t *testing.T) {
	store := populated(t)
	mem, err := cache.Preload(store, 1<<30, quietLogger())
	require.NoError(t, err)
	if mem.Bytes() <= 0 {
		t.Errorf("Bytes() = %d, want positive footprint", mem.Bytes())
	}
}
