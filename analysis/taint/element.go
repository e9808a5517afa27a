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

// Package taint implements the worklist-based taint tracing engine: source discovery,
// intraprocedural propagation over assignments and call arguments, interprocedural
// propagation across call boundaries, and flow-sensitive verification of each candidate
// finding against the function's control-flow graph.
package taint

import (
	"fmt"

	"github.com/auditkit/taintflow/analysis/progdb"
)

// ElementState tracks an element through the worklist state machine.
type ElementState int

const (
	// Seeded marks a fresh element created at a source occurrence.
	Seeded ElementState = iota
	// Propagating marks an element being driven through assignments and calls.
	Propagating
	// Sunk marks an element that reached a sink call, pending CFG verification.
	Sunk
	// Sanitized marks an element neutralized by a sanitizer call.
	Sanitized
	// Exhausted marks an element dropped at the depth bound or on a revisited state.
	Exhausted
)

func (s ElementState) String() string {
	switch s {
	case Seeded:
		return "seeded"
	case Propagating:
		return "propagating"
	case Sunk:
		return "sunk"
	case Sanitized:
		return "sanitized"
	case Exhausted:
		return "exhausted"
	default:
		return fmt.Sprintf("ElementState(%d)", int(s))
	}
}

// A Hop is one intermediate step of a taint chain, recorded for reporting.
type Hop struct {
	File     string `json:"file"`
	Function string `json:"function,omitempty"`
	Line     int    `json:"line"`
	Expr     string `json:"expr"`
}

// A Frame is one call context on an element's interprocedural stack. The stack, rather
// than a bare depth counter, is what keeps the original source attached to the element
// through arbitrarily many call hops.
type Frame struct {
	Site  progdb.CallSite
	Depth int
}

// An Element is one worklist item: a tainted expression at a program point, carrying the
// origin source it descends from, the hop history behind it, and the call frames it
// entered through. Depth is global across the whole chain and never resets per function.
type Element struct {
	Origin   progdb.Symbol
	Expr     string
	File     string
	Function string
	Line     int
	Depth    int
	State    ElementState
	History  []Hop
	Frames   []Frame
}

func seed(origin progdb.Symbol) Element {
	return Element{
		Origin:   origin,
		Expr:     origin.Name,
		File:     origin.File,
		Function: origin.Function,
		Line:     origin.Line,
		State:    Seeded,
	}
}

// child derives a successor element one hop further along the chain. History and Frames
// are copied so siblings never alias each other's slices.
func (e Element) child(expr, file, function string, line int) Element {
	hop := Hop{File: e.File, Function: e.Function, Line: e.Line, Expr: e.Expr}
	return Element{
		Origin:   e.Origin,
		Expr:     expr,
		File:     file,
		Function: function,
		Line:     line,
		Depth:    e.Depth + 1,
		State:    Propagating,
		History:  append(append([]Hop(nil), e.History...), hop),
		Frames:   append([]Frame(nil), e.Frames...),
	}
}

// hops returns the element's history plus its current position as the final hop.
func (e Element) hops() []Hop {
	return append(append([]Hop(nil), e.History...),
		Hop{File: e.File, Function: e.Function, Line: e.Line, Expr: e.Expr})
}

// visitKey identifies an element state for cycle detection. One visited set exists per
// source traversal, not globally, so independent sources never mask each other.
type visitKey struct {
	file     string
	function string
	expr     string
}

func (e Element) key() visitKey {
	return visitKey{file: e.File, function: e.Function, expr: e.Expr}
}
