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

import (
	"fmt"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

// A Store is a read-only handle to the program database. It implements Querier by issuing
// SQL against the database; the memory cache mirrors these queries from preloaded indexes.
// A Store is not safe for concurrent use: the engine runs one sequential pass per
// connection.
type Store struct {
	conn *sqlite.Conn
	path string
}

// Open opens the program database read-only and verifies the schema contract. A missing
// table or column is fatal here, before any analysis starts.
func Open(path string) (*Store, error) {
	conn, err := sqlite.OpenConn(path, sqlite.OpenReadOnly)
	if err != nil {
		return nil, fmt.Errorf("could not open program database %s: %w", path, err)
	}
	if err := verifySchema(conn); err != nil {
		conn.Close()
		return nil, err
	}
	return &Store{conn: conn, path: path}, nil
}

// OpenMemory opens an empty in-memory database without schema verification. Test fixtures
// create the schema and rows themselves, then call Verify.
func OpenMemory() (*Store, error) {
	conn, err := sqlite.OpenConn(":memory:", sqlite.OpenReadWrite, sqlite.OpenCreate, sqlite.OpenMemory)
	if err != nil {
		return nil, fmt.Errorf("could not open in-memory database: %w", err)
	}
	return &Store{conn: conn, path: ":memory:"}, nil
}

// Verify re-checks the schema contract, for stores created with OpenMemory.
func (s *Store) Verify() error {
	return verifySchema(s.conn)
}

// Close closes the underlying connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

// Path returns the database path.
func (s *Store) Path() string {
	return s.path
}

// Exec runs a statement against the store. Only test fixtures populating an in-memory
// database should use this; the analysis itself never writes.
func (s *Store) Exec(query string, args ...any) error {
	return sqlitex.Execute(s.conn, query, &sqlitex.ExecOptions{Args: args})
}

// TableCount returns the number of rows in the table. Used for the preload size estimate.
func (s *Store) TableCount(table string) (int64, error) {
	var n int64
	err := sqlitex.Execute(s.conn, fmt.Sprintf("SELECT COUNT(*) FROM %q", table), &sqlitex.ExecOptions{
		ResultFunc: func(stmt *sqlite.Stmt) error {
			n = stmt.ColumnInt64(0)
			return nil
		},
	})
	return n, err
}

func (s *Store) querySymbols(where string, args ...any) ([]Symbol, error) {
	var out []Symbol
	q := "SELECT path, line, col, name, type, in_function FROM symbols " + where +
		" ORDER BY path, line, col, name"
	err := sqlitex.Execute(s.conn, q, &sqlitex.ExecOptions{
		Args: args,
		ResultFunc: func(stmt *sqlite.Stmt) error {
			out = append(out, Symbol{
				File:     stmt.ColumnText(0),
				Line:     stmt.ColumnInt(1),
				Col:      stmt.ColumnInt(2),
				Name:     stmt.ColumnText(3),
				Kind:     SymbolKind(stmt.ColumnText(4)),
				Function: stmt.ColumnText(5),
			})
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("symbols query failed: %w", err)
	}
	return out, nil
}

// SymbolsByKind implements Querier.
func (s *Store) SymbolsByKind(kind SymbolKind) ([]Symbol, error) {
	return s.querySymbols("WHERE type = ?", string(kind))
}

// SymbolsByName implements Querier.
func (s *Store) SymbolsByName(name string) ([]Symbol, error) {
	return s.querySymbols("WHERE name = ?", name)
}

// FunctionSymbols implements Querier.
func (s *Store) FunctionSymbols(file string) ([]Symbol, error) {
	return s.querySymbols("WHERE path = ? AND type = ?", file, string(KindFunction))
}

// SymbolsInRange implements Querier.
func (s *Store) SymbolsInRange(file string, kind SymbolKind, lo, hi int) ([]Symbol, error) {
	return s.querySymbols("WHERE path = ? AND type = ? AND line > ? AND line < ?",
		file, string(kind), lo, hi)
}

func (s *Store) queryAssignments(where string, args ...any) ([]Assignment, error) {
	var out []Assignment
	q := "SELECT file, in_function, line, target_var, source_expr, source_vars FROM assignments " +
		where + " ORDER BY file, line, target_var"
	err := sqlitex.Execute(s.conn, q, &sqlitex.ExecOptions{
		Args: args,
		ResultFunc: func(stmt *sqlite.Stmt) error {
			out = append(out, Assignment{
				File:       stmt.ColumnText(0),
				Function:   stmt.ColumnText(1),
				Line:       stmt.ColumnInt(2),
				Target:     stmt.ColumnText(3),
				SourceExpr: stmt.ColumnText(4),
				SourceVars: stmt.ColumnText(5),
			})
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("assignments query failed: %w", err)
	}
	return out, nil
}

// AssignmentsInFunction implements Querier.
func (s *Store) AssignmentsInFunction(file, function string) ([]Assignment, error) {
	return s.queryAssignments("WHERE file = ? AND in_function = ?", file, function)
}

// AssignmentsNear implements Querier.
func (s *Store) AssignmentsNear(file string, lo, hi int) ([]Assignment, error) {
	return s.queryAssignments("WHERE file = ? AND line BETWEEN ? AND ?", file, lo, hi)
}

func (s *Store) queryCalls(where string, args ...any) ([]CallSite, error) {
	var out []CallSite
	q := "SELECT file, caller_function, line, callee_function, callee_file, arg_index, param_name, argument_expr " +
		"FROM function_call_args " + where + " ORDER BY file, line, callee_function, arg_index"
	err := sqlitex.Execute(s.conn, q, &sqlitex.ExecOptions{
		Args: args,
		ResultFunc: func(stmt *sqlite.Stmt) error {
			out = append(out, CallSite{
				File:       stmt.ColumnText(0),
				Caller:     stmt.ColumnText(1),
				Line:       stmt.ColumnInt(2),
				Callee:     stmt.ColumnText(3),
				CalleeFile: stmt.ColumnText(4),
				ArgIndex:   stmt.ColumnInt(5),
				Param:      stmt.ColumnText(6),
				ArgExpr:    stmt.ColumnText(7),
			})
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("function_call_args query failed: %w", err)
	}
	return out, nil
}

// CallsByCaller implements Querier.
func (s *Store) CallsByCaller(file, caller string) ([]CallSite, error) {
	return s.queryCalls("WHERE file = ? AND caller_function = ?", file, caller)
}

// CallsByCallee implements Querier.
func (s *Store) CallsByCallee(callee string) ([]CallSite, error) {
	return s.queryCalls("WHERE callee_function = ?", callee)
}

// CallsAtLine implements Querier.
func (s *Store) CallsAtLine(file string, line int) ([]CallSite, error) {
	return s.queryCalls("WHERE file = ? AND line = ?", file, line)
}

// ReturnsOfFunction implements Querier.
func (s *Store) ReturnsOfFunction(file, function string) ([]Return, error) {
	var out []Return
	q := "SELECT file, function_name, line, return_expr, return_vars FROM function_returns " +
		"WHERE file = ? AND function_name = ? ORDER BY file, line"
	err := sqlitex.Execute(s.conn, q, &sqlitex.ExecOptions{
		Args: []any{file, function},
		ResultFunc: func(stmt *sqlite.Stmt) error {
			out = append(out, Return{
				File:     stmt.ColumnText(0),
				Function: stmt.ColumnText(1),
				Line:     stmt.ColumnInt(2),
				Expr:     stmt.ColumnText(3),
				Vars:     stmt.ColumnText(4),
			})
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("function_returns query failed: %w", err)
	}
	return out, nil
}

// BlocksOfFunction implements Querier.
func (s *Store) BlocksOfFunction(file, function string) ([]Block, error) {
	var out []Block
	q := "SELECT id, file, function_name, start_line, end_line, block_type FROM cfg_blocks " +
		"WHERE file = ? AND function_name = ? ORDER BY start_line, id"
	err := sqlitex.Execute(s.conn, q, &sqlitex.ExecOptions{
		Args: []any{file, function},
		ResultFunc: func(stmt *sqlite.Stmt) error {
			out = append(out, Block{
				ID:        stmt.ColumnInt64(0),
				File:      stmt.ColumnText(1),
				Function:  stmt.ColumnText(2),
				StartLine: stmt.ColumnInt(3),
				EndLine:   stmt.ColumnInt(4),
				Kind:      BlockKind(stmt.ColumnText(5)),
			})
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("cfg_blocks query failed: %w", err)
	}
	return out, nil
}

// EdgesOfFunction implements Querier.
func (s *Store) EdgesOfFunction(file, function string) ([]Edge, error) {
	var out []Edge
	q := "SELECT source_block, target_block, edge_type FROM cfg_edges " +
		"WHERE file = ? AND function_name = ? ORDER BY source_block, target_block"
	err := sqlitex.Execute(s.conn, q, &sqlitex.ExecOptions{
		Args: []any{file, function},
		ResultFunc: func(stmt *sqlite.Stmt) error {
			out = append(out, Edge{
				From: stmt.ColumnInt64(0),
				To:   stmt.ColumnInt64(1),
				Kind: EdgeKind(stmt.ColumnText(2)),
			})
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("cfg_edges query failed: %w", err)
	}
	return out, nil
}

// StatementsOfBlock implements Querier.
func (s *Store) StatementsOfBlock(blockID int64) ([]Statement, error) {
	var out []Statement
	q := "SELECT block_id, line, statement_type, statement_text FROM cfg_block_statements " +
		"WHERE block_id = ? ORDER BY line, statement_text"
	err := sqlitex.Execute(s.conn, q, &sqlitex.ExecOptions{
		Args: []any{blockID},
		ResultFunc: func(stmt *sqlite.Stmt) error {
			out = append(out, Statement{
				BlockID: stmt.ColumnInt64(0),
				Line:    stmt.ColumnInt(1),
				Kind:    stmt.ColumnText(2),
				Text:    stmt.ColumnText(3),
			})
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("cfg_block_statements query failed: %w", err)
	}
	return out, nil
}

// Frameworks implements Querier.
func (s *Store) Frameworks() ([]Framework, error) {
	var out []Framework
	q := "SELECT name, version, language, path, is_primary FROM frameworks " +
		"ORDER BY is_primary DESC, name"
	err := sqlitex.Execute(s.conn, q, &sqlitex.ExecOptions{
		ResultFunc: func(stmt *sqlite.Stmt) error {
			out = append(out, Framework{
				Name:     stmt.ColumnText(0),
				Version:  stmt.ColumnText(1),
				Language: stmt.ColumnText(2),
				Path:     stmt.ColumnText(3),
				Primary:  stmt.ColumnInt(4) != 0,
			})
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("frameworks query failed: %w", err)
	}
	return out, nil
}

// SafeSinks implements Querier.
func (s *Store) SafeSinks() ([]SafeSink, error) {
	var out []SafeSink
	q := "SELECT framework, sink_pattern, reason FROM framework_safe_sinks " +
		"ORDER BY framework, sink_pattern"
	err := sqlitex.Execute(s.conn, q, &sqlitex.ExecOptions{
		ResultFunc: func(stmt *sqlite.Stmt) error {
			out = append(out, SafeSink{
				Framework: stmt.ColumnText(0),
				Pattern:   stmt.ColumnText(1),
				Reason:    stmt.ColumnText(2),
			})
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("framework_safe_sinks query failed: %w", err)
	}
	return out, nil
}

var _ Querier = (*Store)(nil)
