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

// Package progdb is the read-only boundary to the pre-built relational representation of the
// analyzed codebase. The indexing pipeline that populates the database is an external
// collaborator; this package only consumes its tables, and treats any deviation from the
// expected schema as a fatal error rather than a missing feature.
package progdb

// SymbolKind is the kind of an indexed symbol.
type SymbolKind string

const (
	KindFunction SymbolKind = "function"
	KindClass    SymbolKind = "class"
	KindVariable SymbolKind = "variable"
	KindCall     SymbolKind = "call"
	KindProperty SymbolKind = "property"
)

// A Symbol is an indexed program element. Symbols are immutable once indexed.
type Symbol struct {
	File     string
	Line     int
	Col      int
	Name     string
	Kind     SymbolKind
	Function string // enclosing function, empty at module scope
}

// An Assignment records "source expression flows into target" inside a function scope.
type Assignment struct {
	File       string
	Function   string
	Line       int
	Target     string
	SourceExpr string
	SourceVars string // json array of identifiers referenced by the source expression
}

// A CallSite is one argument position of one call. The indexer emits one row per argument,
// ordered by ArgIndex, so a call with three arguments produces three rows sharing
// (File, Caller, Line, Callee).
type CallSite struct {
	File       string
	Caller     string
	Line       int
	Callee     string
	CalleeFile string // empty when the callee could not be resolved (dynamic dispatch)
	ArgIndex   int
	Param      string // formal parameter name when known
	ArgExpr    string
}

// A Return records a returned expression of a function.
type Return struct {
	File     string
	Function string
	Line     int
	Expr     string
	Vars     string
}

// BlockKind is the kind of a CFG basic block.
type BlockKind string

const (
	BlockEntry  BlockKind = "entry"
	BlockExit   BlockKind = "exit"
	BlockBranch BlockKind = "branch"
	BlockLoop   BlockKind = "loop"
	BlockNormal BlockKind = "normal"
)

// A Block is a CFG basic block. Every block belongs to exactly one function.
type Block struct {
	ID        int64
	File      string
	Function  string
	StartLine int
	EndLine   int
	Kind      BlockKind
}

// EdgeKind is the kind of a CFG edge.
type EdgeKind string

const (
	EdgeUnconditional EdgeKind = "unconditional"
	EdgeTrue          EdgeKind = "true_branch"
	EdgeFalse         EdgeKind = "false_branch"
	EdgeException     EdgeKind = "exception"
)

// An Edge is a directed CFG edge between two blocks of the same function.
type Edge struct {
	From int64
	To   int64
	Kind EdgeKind
}

// A Statement is one statement recorded inside a CFG block.
type Statement struct {
	BlockID int64
	Line    int
	Kind    string
	Text    string
}

// A Framework is a framework detected by the indexer.
type Framework struct {
	Name     string
	Version  string
	Language string
	Path     string
	Primary  bool
}

// A SafeSink names a sink pattern that a framework guarantees safe, with the reason.
type SafeSink struct {
	Framework string
	Pattern   string
	Reason    string
}
