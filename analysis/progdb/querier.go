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

package progdb

// Querier is the single query surface the analysis engines consume. It has two
// implementations: the Store, which queries the database directly, and the memory cache,
// which answers from preloaded indexes.
//
// Equivalence invariant: for identical inputs, every method must return structurally
// identical, identically-ordered results from both implementations. All results are ordered
// by (file, line, column/argument index) so that repeated runs are byte-identical. Callers
// that need further filtering (e.g. expression containment) do it on the returned slices,
// never in implementation-specific query text.
type Querier interface {
	// SymbolsByKind returns all symbols of the kind.
	SymbolsByKind(kind SymbolKind) ([]Symbol, error)

	// SymbolsByName returns all symbols with the exact name.
	SymbolsByName(name string) ([]Symbol, error)

	// FunctionSymbols returns the function symbols of the file in line order.
	FunctionSymbols(file string) ([]Symbol, error)

	// SymbolsInRange returns the symbols of the kind in the file with lo < line < hi.
	SymbolsInRange(file string, kind SymbolKind, lo, hi int) ([]Symbol, error)

	// AssignmentsInFunction returns the assignments inside the function scope.
	AssignmentsInFunction(file, function string) ([]Assignment, error)

	// AssignmentsNear returns the assignments of the file with lo <= line <= hi.
	AssignmentsNear(file string, lo, hi int) ([]Assignment, error)

	// CallsByCaller returns the call arguments of calls made from the caller function.
	CallsByCaller(file, caller string) ([]CallSite, error)

	// CallsByCallee returns the call arguments of calls to the named callee, across files.
	CallsByCallee(callee string) ([]CallSite, error)

	// CallsAtLine returns the call arguments recorded at the exact line.
	CallsAtLine(file string, line int) ([]CallSite, error)

	// ReturnsOfFunction returns the return records of the function.
	ReturnsOfFunction(file, function string) ([]Return, error)

	// BlocksOfFunction returns the CFG blocks of the function, ordered by start line then id.
	BlocksOfFunction(file, function string) ([]Block, error)

	// EdgesOfFunction returns the CFG edges of the function.
	EdgesOfFunction(file, function string) ([]Edge, error)

	// StatementsOfBlock returns the statements recorded inside the block, in line order.
	StatementsOfBlock(blockID int64) ([]Statement, error)

	// Frameworks returns the detected frameworks, primary first.
	Frameworks() ([]Framework, error)

	// SafeSinks returns the framework-guaranteed-safe sink patterns.
	SafeSinks() ([]SafeSink, error)
}
