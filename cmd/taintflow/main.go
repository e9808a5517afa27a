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

// taintflow traces untrusted data from sources to sinks through a pre-built program
// database and reports the unsanitized flows it finds.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/auditkit/taintflow/analysis/config"
	"github.com/auditkit/taintflow/analysis/progdb"
	"github.com/auditkit/taintflow/analysis/taint"
	"github.com/auditkit/taintflow/internal/formatutil"
)

var (
	configPath = flag.String("config", "", "Config file path for the analysis")
	dbPath     = flag.String("db", "", "Path to the program database (required)")
	jsonOut    = flag.Bool("json", false, "Print findings as JSON instead of text")
)

const usage = ` Trace taint from sources to sinks through a program database.
Usage:
    taintflow -db repo.db [options]
Examples:
% taintflow -db .audit/repo.db -config taintflow.yaml
% taintflow -db .audit/repo.db -json
`

func main() {
	flag.Parse()

	if *dbPath == "" {
		_, _ = fmt.Fprint(os.Stderr, usage)
		flag.PrintDefaults()
		os.Exit(2)
	}

	conf := config.NewDefault()
	if *configPath != "" {
		var err error
		conf, err = config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "could not load config %s: %v\n", *configPath, err)
			os.Exit(1)
		}
	}

	store, err := progdb.Open(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not open program database: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	start := time.Now()
	result, err := taint.Trace(store, conf)
	duration := time.Since(start)
	if err != nil {
		fmt.Fprintf(os.Stderr, "analysis failed: %v\n", err)
		os.Exit(1)
	}

	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			fmt.Fprintf(os.Stderr, "could not encode result: %v\n", err)
			os.Exit(1)
		}
		return
	}

	fmt.Printf("%s %d sources, %d sinks, %3.4f s\n",
		formatutil.Faint("Analyzed"), result.SourcesFound, result.SinksFound, duration.Seconds())
	for _, p := range result.Paths {
		fmt.Printf("%s (%s, confidence %s):\n\tSink: %s\n\t\t[%s:%d]\n\tSource: %s\n\t\t[%s:%d]\n",
			formatutil.Red("A source has reached a sink"),
			p.Sink.Category,
			p.Confidence,
			formatutil.Sanitize(p.Sink.Name), p.Sink.File, p.Sink.Line,
			formatutil.Sanitize(p.Source.Name), p.Source.File, p.Source.Line,
		)
		for _, h := range p.Hops {
			fmt.Printf("\t%s %s\n\t\t[%s:%d]\n", formatutil.Faint("via"), formatutil.Sanitize(h.Expr), h.File, h.Line)
		}
	}
	if len(result.Paths) == 0 {
		fmt.Printf("%s\n", formatutil.Green("No taint flows found"))
	}
}
