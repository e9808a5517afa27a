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
	"errors"
	"fmt"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

// ErrSchema marks a schema contract violation. A database missing an expected table or
// column must never be analyzed: absence of data has to stay distinguishable from absence
// of risk, so the analysis refuses to start instead of proceeding without the table.
var ErrSchema = errors.New("program database schema contract violation")

// requiredSchema is the schema contract: every listed table and column must exist.
// After Open succeeds, queries assume this shape without further existence checks.
var requiredSchema = []struct {
	table   string
	columns []string
}{
	{"symbols", []string{"path", "name", "type", "line", "col", "in_function"}},
	{"assignments", []string{"file", "line", "target_var", "source_expr", "source_vars", "in_function"}},
	{"function_call_args", []string{"file", "line", "caller_function", "callee_function", "callee_file", "arg_index", "param_name", "argument_expr"}},
	{"function_returns", []string{"file", "function_name", "line", "return_expr", "return_vars"}},
	{"cfg_blocks", []string{"id", "file", "function_name", "start_line", "end_line", "block_type"}},
	{"cfg_edges", []string{"file", "function_name", "source_block", "target_block", "edge_type"}},
	{"cfg_block_statements", []string{"block_id", "line", "statement_type", "statement_text"}},
	{"frameworks", []string{"name", "version", "language", "path", "is_primary"}},
	{"framework_safe_sinks", []string{"framework", "sink_pattern", "reason"}},
}

// verifySchema checks the full schema contract against the open database.
func verifySchema(conn *sqlite.Conn) error {
	for _, t := range requiredSchema {
		cols := map[string]bool{}
		err := sqlitex.Execute(conn, fmt.Sprintf("PRAGMA table_info(%q)", t.table), &sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				cols[stmt.GetText("name")] = true
				return nil
			},
		})
		if err != nil {
			return fmt.Errorf("could not inspect table %s: %w", t.table, err)
		}
		if len(cols) == 0 {
			return fmt.Errorf("%w: missing table %q", ErrSchema, t.table)
		}
		for _, c := range t.columns {
			if !cols[c] {
				return fmt.Errorf("%w: table %q is missing column %q", ErrSchema, t.table, c)
			}
		}
	}
	return nil
}
