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
	"fmt"
	"strings"

	"github.com/auditkit/taintflow/analysis/cache"
	"github.com/auditkit/taintflow/analysis/config"
	"github.com/auditkit/taintflow/analysis/patterns"
	"github.com/auditkit/taintflow/analysis/progdb"
	"github.com/auditkit/taintflow/internal/funcutil"
)

// Trace runs the full analysis over the program database: discover source occurrences,
// drain a worklist per source, verify each candidate sink against the CFG, and return the
// ordered findings. Two runs over an unchanged database return identical results.
func Trace(store *progdb.Store, conf *config.Config) (*AnalysisResult, error) {
	logger := config.NewLogGroup(conf)

	catalog := patterns.Default()
	if conf.PatternFile != "" {
		if err := catalog.LoadOverlay(conf.PatternFile); err != nil {
			return nil, err
		}
	}
	categories, err := enabledCategories(conf)
	if err != nil {
		return nil, err
	}

	var q progdb.Querier = store
	cacheLoaded := false
	if conf.UseMemoryCache {
		m, err := cache.Preload(store, conf.CacheBudget(), logger)
		if err != nil {
			logger.Warnf("memory cache disabled, querying the store directly: %s", err)
		} else {
			q = m
			cacheLoaded = true
		}
	}

	cg, err := buildCallGraph(q)
	if err != nil {
		return nil, err
	}
	recursive := cg.recursiveFunctions()
	if cyclic := funcutil.SetToOrderedSlice(recursive); len(cyclic) > 0 {
		logger.Debugf("call-graph cycles involve: %s", strings.Join(cyclic, ", "))
	}
	safe, err := newSafeSinkFilter(q, logger)
	if err != nil {
		return nil, err
	}
	sources, err := discoverSources(q, catalog, categories)
	if err != nil {
		return nil, err
	}
	sinksFound, err := countSinks(q, catalog, categories, safe)
	if err != nil {
		return nil, err
	}
	logger.Infof("tracing %d source occurrences against %d sink occurrences", len(sources), sinksFound)

	t := &tracer{
		q:         q,
		catalog:   catalog,
		conf:      conf,
		logger:    logger,
		recursive: recursive,
		cycleSeen: make(map[string]bool),
	}
	v := newVerifier(q, catalog, conf, logger)

	var paths []TaintPath
	for _, src := range sources {
		candidates, err := t.trace(src)
		if err != nil {
			return nil, err
		}
		for _, c := range candidates {
			if safe.suppresses(c.site.Callee) {
				logger.Debugf("sink %s at %s:%d is framework-safe, suppressing",
					c.site.Callee, c.site.File, c.site.Line)
				continue
			}
			finding, keep, err := v.verify(c)
			if err != nil {
				return nil, err
			}
			if keep {
				paths = append(paths, finding)
			}
		}
	}

	paths = dedupPaths(paths)
	sortPaths(paths)
	if conf.MaxAlarms > 0 && len(paths) > conf.MaxAlarms {
		logger.Warnf("%d findings exceed the alarm cap, reporting the first %d", len(paths), conf.MaxAlarms)
		paths = paths[:conf.MaxAlarms]
	}

	byCategory := make(map[string]int)
	for _, p := range paths {
		byCategory[p.Sink.Category]++
	}
	return &AnalysisResult{
		Paths:        paths,
		SourcesFound: len(sources),
		SinksFound:   sinksFound,
		ByCategory:   byCategory,
		CacheLoaded:  cacheLoaded,
	}, nil
}

// enabledCategories resolves the configured category names. An unknown name is a
// configuration error reported before any traversal starts. An empty list enables all.
func enabledCategories(conf *config.Config) ([]patterns.Category, error) {
	if len(conf.EnabledCategories) == 0 {
		return patterns.Categories(), nil
	}
	var out []patterns.Category
	for _, name := range conf.EnabledCategories {
		cat, err := patterns.ParseCategory(name)
		if err != nil {
			return nil, fmt.Errorf("enabled_categories: %w", err)
		}
		out = append(out, cat)
	}
	return out, nil
}
