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

package cfg

import (
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/traverse"

	"github.com/auditkit/taintflow/analysis/patterns"
	"github.com/auditkit/taintflow/analysis/progdb"
	"github.com/auditkit/taintflow/internal/funcutil"
)

// Reachable reports whether dst can be reached from src following CFG edges. Cycles are
// handled by the traversal's visited set.
func (a *Arena) Reachable(src, dst int) bool {
	if src == dst {
		return true
	}
	bfs := traverse.BreadthFirst{}
	found := bfs.Walk(a, arenaNode(src), func(n graph.Node, _ int) bool {
		return n.ID() == int64(dst)
	})
	return found != nil
}

// Paths enumerates simple paths from src to dst as slices of dense block indices, stopping
// after maxPaths paths. The second result reports whether enumeration was cut short; a
// truncated enumeration can never support a claim about all paths.
func (a *Arena) Paths(src, dst, maxPaths int) ([][]int, bool) {
	var (
		paths     [][]int
		truncated bool
		onPath    = make([]bool, len(a.blocks))
		walk      func(at int)
	)
	path := []int{}
	walk = func(at int) {
		if truncated {
			return
		}
		path = append(path, at)
		onPath[at] = true
		if at == dst {
			paths = append(paths, append([]int(nil), path...))
			if len(paths) >= maxPaths {
				truncated = true
			}
		} else {
			for _, e := range a.succ[at] {
				if !onPath[e.to] {
					walk(e.to)
				}
			}
		}
		onPath[at] = false
		path = path[:len(path)-1]
	}
	walk(src)
	return paths, truncated
}

// A Verdict is the flow-sensitive judgement for one source/sink candidate pair.
type Verdict int

const (
	// VerdictUnreachable means no CFG path connects the source to the sink.
	VerdictUnreachable Verdict = iota
	// VerdictSanitizedAll means every enumerated path passes a sanitizer. Only valid when
	// enumeration was not truncated.
	VerdictSanitizedAll
	// VerdictSanitizedSome means a sanitizer covers some but not all paths.
	VerdictSanitizedSome
	// VerdictUnsanitized means no enumerated path passes a sanitizer.
	VerdictUnsanitized
)

// A Verification carries the verdict and the path counts behind it.
type Verification struct {
	Verdict        Verdict
	Paths          int
	SanitizedPaths int
	Truncated      bool
}

// VerifyPaths judges whether tainted data flowing from srcLine can still reach sinkLine
// unsanitized, enumerating up to maxPaths CFG paths between the containing blocks. When
// either line falls outside every block the CFG data is incomplete and ok is false; the
// caller then degrades to the line-range heuristic.
func (a *Arena) VerifyPaths(q progdb.Querier, catalog *patterns.Catalog, category patterns.Category, srcLine, sinkLine, maxPaths int) (Verification, bool, error) {
	srcBlock := a.BlockForLine(srcLine)
	sinkBlock := a.BlockForLine(sinkLine)
	if srcBlock < 0 || sinkBlock < 0 {
		return Verification{}, false, nil
	}
	if !a.Reachable(srcBlock, sinkBlock) {
		return Verification{Verdict: VerdictUnreachable}, true, nil
	}

	paths, truncated := a.Paths(srcBlock, sinkBlock, maxPaths)
	v := Verification{Paths: len(paths), Truncated: truncated}
	if len(paths) == 0 {
		v.Verdict = VerdictUnreachable
		return v, true, nil
	}
	for _, path := range paths {
		sanitized, err := a.pathSanitized(q, catalog, category, path, srcLine, sinkLine)
		if err != nil {
			return Verification{}, false, err
		}
		if sanitized {
			v.SanitizedPaths++
		}
	}
	switch {
	case v.SanitizedPaths == 0:
		v.Verdict = VerdictUnsanitized
	case v.SanitizedPaths == len(paths) && !truncated:
		v.Verdict = VerdictSanitizedAll
	default:
		v.Verdict = VerdictSanitizedSome
	}
	return v, true, nil
}

// pathSanitized reports whether any statement on the path between the source and sink
// lines is a sanitizing call for the category. Statements in the source block before the
// source line, and in the sink block after the sink line, do not count.
func (a *Arena) pathSanitized(q progdb.Querier, catalog *patterns.Catalog, category patterns.Category, path []int, srcLine, sinkLine int) (bool, error) {
	for i, idx := range a.blockPath(path) {
		statements, err := q.StatementsOfBlock(idx)
		if err != nil {
			return false, err
		}
		for _, st := range statements {
			if i == 0 && st.Line < srcLine {
				continue
			}
			if i == len(path)-1 && st.Line > sinkLine {
				continue
			}
			if st.Kind == "call" && catalog.IsSanitizer(st.Text, category) {
				return true, nil
			}
		}
	}
	return false, nil
}

func (a *Arena) blockPath(path []int) []int64 {
	return funcutil.Map(path, func(idx int) int64 { return a.blocks[idx].ID })
}

// SanitizerBetween is the degraded, flow-insensitive check used when a function has no
// extracted CFG. It reports whether any call symbol strictly between the two lines of the
// file is a sanitizer for the category.
func SanitizerBetween(q progdb.Querier, catalog *patterns.Catalog, category patterns.Category, file string, srcLine, sinkLine int) (bool, error) {
	symbols, err := q.SymbolsInRange(file, progdb.KindCall, srcLine, sinkLine)
	if err != nil {
		return false, err
	}
	for _, sym := range symbols {
		if catalog.IsSanitizer(sym.Name, category) {
			return true, nil
		}
	}
	return false, nil
}
