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

package taint

import (
	"errors"

	"github.com/auditkit/taintflow/analysis/cfg"
	"github.com/auditkit/taintflow/analysis/config"
	"github.com/auditkit/taintflow/analysis/patterns"
	"github.com/auditkit/taintflow/analysis/progdb"
)

type fileFunc struct {
	file string
	fn   string
}

// verifier turns sink candidates into findings by checking them against the containing
// function's CFG. Arenas are built lazily and memoized per function; a function with no
// extracted CFG is remembered too, so the degraded check is decided once.
type verifier struct {
	q       progdb.Querier
	catalog *patterns.Catalog
	conf    *config.Config
	logger  *config.LogGroup
	arenas  map[fileFunc]*cfg.Arena
	noCFG   map[fileFunc]bool
}

func newVerifier(q progdb.Querier, catalog *patterns.Catalog, conf *config.Config, logger *config.LogGroup) *verifier {
	return &verifier{
		q:       q,
		catalog: catalog,
		conf:    conf,
		logger:  logger,
		arenas:  make(map[fileFunc]*cfg.Arena),
		noCFG:   make(map[fileFunc]bool),
	}
}

// verify judges one candidate. The second result is false when the candidate is
// suppressed: sink unreachable from the source use, or every path to it sanitized.
func (v *verifier) verify(c candidate) (TaintPath, bool, error) {
	finding := TaintPath{
		Source: occurrenceOf(c.elem.Origin),
		Sink: SinkOccurrence{
			Occurrence: Occurrence{File: c.site.File, Line: c.site.Line, Name: c.site.Callee},
			Category:   c.category.String(),
		},
		Hops: c.elem.hops(),
	}

	arena, err := v.arena(c.elem.File, c.elem.Function)
	if err != nil {
		return TaintPath{}, false, err
	}
	srcLine := sourceUseLine(c.elem)
	if arena == nil {
		return v.verifyDegraded(c, srcLine, finding)
	}

	ver, ok, err := arena.VerifyPaths(v.q, v.catalog, c.category, srcLine, c.site.Line, v.conf.MaxPathsPerSink)
	if err != nil {
		return TaintPath{}, false, err
	}
	if !ok {
		// A use outside every block means the CFG rows do not cover these lines.
		v.logger.Debugf("lines %d-%d outside CFG blocks of %s:%s, degrading",
			srcLine, c.site.Line, c.elem.File, c.elem.Function)
		return v.verifyDegraded(c, srcLine, finding)
	}

	switch ver.Verdict {
	case cfg.VerdictUnreachable:
		v.logger.Debugf("sink at %s:%d unreachable from source use at line %d, discarding",
			c.site.File, c.site.Line, c.elem.Line)
		return TaintPath{}, false, nil
	case cfg.VerdictSanitizedAll:
		v.logger.Debugf("all %d paths to sink at %s:%d sanitized, suppressing",
			ver.Paths, c.site.File, c.site.Line)
		return TaintPath{}, false, nil
	case cfg.VerdictSanitizedSome:
		finding.Sanitized = true
		finding.Confidence = ConfidenceMedium
	default:
		finding.Confidence = ConfidenceHigh
	}
	if ver.Truncated {
		finding.Confidence = ConfidenceLow
	}
	return finding, true, nil
}

// verifyDegraded is the flow-insensitive fallback for functions without CFG data: a
// sanitizer call anywhere between the source use and the sink suppresses the finding,
// and anything reported carries at most medium confidence.
func (v *verifier) verifyDegraded(c candidate, srcLine int, finding TaintPath) (TaintPath, bool, error) {
	sanitized, err := cfg.SanitizerBetween(v.q, v.catalog, c.category, c.elem.File, srcLine, c.site.Line)
	if err != nil {
		return TaintPath{}, false, err
	}
	if sanitized {
		return TaintPath{}, false, nil
	}
	finding.Confidence = ConfidenceMedium
	return finding, true, nil
}

// sourceUseLine is where the tainted data entered the sink's function: the first hop of
// the chain inside that function. Sanitizer checks must span from there, not from the
// last assignment, or a sanitizer earlier in the same function would be missed.
func sourceUseLine(e Element) int {
	for _, h := range e.hops() {
		if h.File == e.File && h.Function == e.Function {
			return h.Line
		}
	}
	return e.Line
}

func (v *verifier) arena(file, function string) (*cfg.Arena, error) {
	k := fileFunc{file, function}
	if v.noCFG[k] {
		return nil, nil
	}
	if a, ok := v.arenas[k]; ok {
		return a, nil
	}
	a, err := cfg.Build(v.q, file, function)
	if errors.Is(err, cfg.ErrNoCFG) {
		v.noCFG[k] = true
		v.logger.Debugf("no CFG for %s:%s, flow-insensitive checks only", file, function)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	v.arenas[k] = a
	return a, nil
}
