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

// Package cfg refines source/sink candidates with flow-sensitive reasoning over the
// control-flow graph of a single function. Blocks live in an arena addressed by dense
// integer indices, with edges stored as index pairs and lookup maps built once at load
// time, so there are no pointer cycles to manage.
package cfg

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/iterator"

	"github.com/auditkit/taintflow/analysis/progdb"
)

// ErrNoCFG is returned by Build when the indexer extracted no CFG for the function.
// Callers fall back to the degraded line-range heuristic, never to guessing.
var ErrNoCFG = errors.New("no CFG extracted for function")

type edgeTo struct {
	to   int
	kind progdb.EdgeKind
}

// An Arena is the CFG of one function. It implements gonum's graph.Graph over the dense
// block indices so reachability can be delegated to gonum's traversals.
type Arena struct {
	File     string
	Function string

	blocks []progdb.Block
	index  map[int64]int // block id -> dense index
	succ   [][]edgeTo
	entry  int
	exits  []int
}

// Build loads the function's CFG from the querier into an arena. An edge referencing an
// unknown block, a missing entry block or a missing exit block is an invariant violation
// of the program database and is fatal. A function with no CFG rows returns ErrNoCFG.
func Build(q progdb.Querier, file, function string) (*Arena, error) {
	blocks, err := q.BlocksOfFunction(file, function)
	if err != nil {
		return nil, err
	}
	if len(blocks) == 0 {
		return nil, fmt.Errorf("%w: %s in %s", ErrNoCFG, function, file)
	}

	a := &Arena{
		File:     file,
		Function: function,
		blocks:   blocks,
		index:    make(map[int64]int, len(blocks)),
		succ:     make([][]edgeTo, len(blocks)),
		entry:    -1,
	}
	for i, b := range blocks {
		if _, dup := a.index[b.ID]; dup {
			return nil, fmt.Errorf("invariant violation: duplicate CFG block id %d in %s:%s", b.ID, file, function)
		}
		a.index[b.ID] = i
		switch b.Kind {
		case progdb.BlockEntry:
			if a.entry >= 0 {
				return nil, fmt.Errorf("invariant violation: multiple entry blocks in %s:%s", file, function)
			}
			a.entry = i
		case progdb.BlockExit:
			a.exits = append(a.exits, i)
		}
	}
	if a.entry < 0 {
		return nil, fmt.Errorf("invariant violation: no entry block in %s:%s", file, function)
	}
	if len(a.exits) == 0 {
		return nil, fmt.Errorf("invariant violation: no exit block in %s:%s", file, function)
	}

	edges, err := q.EdgesOfFunction(file, function)
	if err != nil {
		return nil, err
	}
	for _, e := range edges {
		from, ok := a.index[e.From]
		if !ok {
			return nil, fmt.Errorf("invariant violation: edge references unknown block %d in %s:%s", e.From, file, function)
		}
		to, ok := a.index[e.To]
		if !ok {
			return nil, fmt.Errorf("invariant violation: edge references unknown block %d in %s:%s", e.To, file, function)
		}
		a.succ[from] = append(a.succ[from], edgeTo{to: to, kind: e.Kind})
	}
	return a, nil
}

// Len returns the number of blocks in the arena.
func (a *Arena) Len() int {
	return len(a.blocks)
}

// Block returns the block at the dense index.
func (a *Arena) Block(i int) progdb.Block {
	return a.blocks[i]
}

// Entry returns the dense index of the entry block.
func (a *Arena) Entry() int {
	return a.entry
}

// BlockForLine returns the dense index of the innermost block whose line range contains the
// line, or -1 when no block contains it.
func (a *Arena) BlockForLine(line int) int {
	best := -1
	bestSpan := 0
	for i, b := range a.blocks {
		if b.StartLine <= line && line <= b.EndLine {
			span := b.EndLine - b.StartLine
			if best == -1 || span < bestSpan {
				best = i
				bestSpan = span
			}
		}
	}
	return best
}

// *************** gonum graph.Graph implementation **********************

type arenaNode int64

// ID implements graph.Node.
func (n arenaNode) ID() int64 { return int64(n) }

// Node implements graph.Graph.
func (a *Arena) Node(id int64) graph.Node {
	if id < 0 || id >= int64(len(a.blocks)) {
		return nil
	}
	return arenaNode(id)
}

// Nodes implements graph.Graph.
func (a *Arena) Nodes() graph.Nodes {
	nodes := make([]graph.Node, len(a.blocks))
	for i := range a.blocks {
		nodes[i] = arenaNode(i)
	}
	return iterator.NewOrderedNodes(nodes)
}

// From implements graph.Graph, returning the successors of the node.
func (a *Arena) From(id int64) graph.Nodes {
	var nodes []graph.Node
	for _, e := range a.succ[id] {
		nodes = append(nodes, arenaNode(e.to))
	}
	return iterator.NewOrderedNodes(nodes)
}

// HasEdgeBetween implements graph.Graph.
func (a *Arena) HasEdgeBetween(xid, yid int64) bool {
	for _, e := range a.succ[xid] {
		if int64(e.to) == yid {
			return true
		}
	}
	for _, e := range a.succ[yid] {
		if int64(e.to) == xid {
			return true
		}
	}
	return false
}

// Edge implements graph.Graph.
func (a *Arena) Edge(uid, vid int64) graph.Edge {
	for _, e := range a.succ[uid] {
		if int64(e.to) == vid {
			return arenaEdge{from: arenaNode(uid), to: arenaNode(vid)}
		}
	}
	return nil
}

type arenaEdge struct {
	from, to arenaNode
}

// From implements graph.Edge.
func (e arenaEdge) From() graph.Node { return e.from }

// To implements graph.Edge.
func (e arenaEdge) To() graph.Node { return e.to }

// ReversedEdge implements graph.Edge.
func (e arenaEdge) ReversedEdge() graph.Edge { return arenaEdge{from: e.to, to: e.from} }

var _ graph.Graph = (*Arena)(nil)
