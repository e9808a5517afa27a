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

// Full-table reads used by the cache preload. Each uses the same ORDER BY prefix as the
// corresponding per-key query in store.go, so that slices grouped by key during preload
// preserve exactly the order the direct queries would return. That ordering agreement is
// what makes the cache equivalence invariant hold without re-sorting.

// An EdgeRow is a CFG edge together with its grouping keys.
type EdgeRow struct {
	File     string
	Function string
	Edge     Edge
}

// AllSymbols returns every symbol row in global deterministic order.
func (s *Store) AllSymbols() ([]Symbol, error) {
	return s.querySymbols("")
}

// AllAssignments returns every assignment row in global deterministic order.
func (s *Store) AllAssignments() ([]Assignment, error) {
	return s.queryAssignments("")
}

// AllCalls returns every call argument row in global deterministic order.
func (s *Store) AllCalls() ([]CallSite, error) {
	return s.queryCalls("")
}

// AllReturns returns every function return row in global deterministic order.
func (s *Store) AllReturns() ([]Return, error) {
	var out []Return
	q := "SELECT file, function_name, line, return_expr, return_vars FROM function_returns " +
		"ORDER BY file, line"
	err := sqlitex.Execute(s.conn, q, &sqlitex.ExecOptions{
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
		return nil, fmt.Errorf("function_returns preload failed: %w", err)
	}
	return out, nil
}

// AllBlocks returns every CFG block row in global deterministic order.
func (s *Store) AllBlocks() ([]Block, error) {
	var out []Block
	q := "SELECT id, file, function_name, start_line, end_line, block_type FROM cfg_blocks " +
		"ORDER BY file, function_name, start_line, id"
	err := sqlitex.Execute(s.conn, q, &sqlitex.ExecOptions{
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
		return nil, fmt.Errorf("cfg_blocks preload failed: %w", err)
	}
	return out, nil
}

// AllEdges returns every CFG edge row with its grouping keys in global deterministic order.
func (s *Store) AllEdges() ([]EdgeRow, error) {
	var out []EdgeRow
	q := "SELECT file, function_name, source_block, target_block, edge_type FROM cfg_edges " +
		"ORDER BY file, function_name, source_block, target_block"
	err := sqlitex.Execute(s.conn, q, &sqlitex.ExecOptions{
		ResultFunc: func(stmt *sqlite.Stmt) error {
			out = append(out, EdgeRow{
				File:     stmt.ColumnText(0),
				Function: stmt.ColumnText(1),
				Edge: Edge{
					From: stmt.ColumnInt64(2),
					To:   stmt.ColumnInt64(3),
					Kind: EdgeKind(stmt.ColumnText(4)),
				},
			})
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("cfg_edges preload failed: %w", err)
	}
	return out, nil
}

// AllStatements returns every CFG block statement row in global deterministic order.
func (s *Store) AllStatements() ([]Statement, error) {
	var out []Statement
	q := "SELECT block_id, line, statement_type, statement_text FROM cfg_block_statements " +
		"ORDER BY block_id, line, statement_text"
	err := sqlitex.Execute(s.conn, q, &sqlitex.ExecOptions{
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
		return nil, fmt.Errorf("cfg_block_statements preload failed: %w", err)
	}
	return out, nil
}
