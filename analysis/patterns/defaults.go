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

package patterns

// Default returns the built-in catalog. The tables cover the indexed surface of the web
// frameworks and runtimes the upstream extractors understand (Express, Flask/Django, Node
// and Python standard libraries).
func Default() *Catalog {
	c := &Catalog{}

	addAll(&c.sources, SQLInjection, MatchExact,
		"request.query", "request.body", "request.params",
		"req.query", "req.body", "req.params",
		"request.args", "request.form", "request.values")
	addAll(&c.sources, XSS, MatchExact,
		"request.query", "request.body", "req.query", "req.body",
		"location.search", "location.hash", "document.cookie",
		"request.args", "request.form")
	addAll(&c.sources, PathTraversal, MatchExact,
		"request.query", "request.params", "req.query", "req.params",
		"request.args", "request.files")
	addAll(&c.sources, CommandInjection, MatchExact,
		"request.query", "request.body", "req.query", "req.body",
		"process.argv", "sys.argv", "os.environ")
	addAll(&c.sources, Validation, MatchExact,
		"request.headers", "request.cookies", "req.headers", "req.cookies", "input")

	addAll(&c.sinks, SQLInjection, MatchExact,
		"db.execute", "db.query", "cursor.execute", "cursor.executemany",
		"connection.query", "connection.execute", "pool.query",
		"sequelize.query", "knex.raw", "session.execute")
	addAll(&c.sinks, XSS, MatchExact,
		"res.send", "res.write", "document.write", "document.writeln",
		"render_template_string", "dangerouslySetInnerHTML")
	addAll(&c.sinks, XSS, MatchSuffix, ".innerHTML", ".outerHTML", ".insertAdjacentHTML")
	addAll(&c.sinks, PathTraversal, MatchExact,
		"open", "fs.readFile", "fs.readFileSync", "fs.writeFile", "fs.writeFileSync",
		"fs.createReadStream", "fs.createWriteStream", "res.sendFile", "send_file")
	addAll(&c.sinks, CommandInjection, MatchExact,
		"exec", "execSync", "spawn", "spawnSync", "system", "popen",
		"os.system", "os.popen", "subprocess.run", "subprocess.Popen", "subprocess.call",
		"child_process.exec", "child_process.execSync", "eval")

	addAll(&c.sanitizers, SQLInjection, MatchExact,
		"parameterize", "escape_string", "sqlescape", "mysql.escape", "format_ident")
	addAll(&c.sanitizers, XSS, MatchExact,
		"escapeHtml", "sanitizeHtml", "encodeURIComponent", "DOMPurify.sanitize",
		"html.escape", "markupsafe.escape", "bleach.clean")
	addAll(&c.sanitizers, PathTraversal, MatchExact,
		"path.basename", "basename", "secure_filename", "path.normalize", "realpath")
	addAll(&c.sanitizers, CommandInjection, MatchExact,
		"shlex.quote", "escapeshellarg", "escapeshellcmd")
	// Schema validators reassign a parsed copy of the input, which removes the taint.
	addAll(&c.sanitizers, Validation, MatchSuffix,
		".parseAsync", ".parse", ".safeParse", ".validateAsync")
	// Legacy generic names kept as substring matches for older indexed databases.
	addAll(&c.sanitizers, Validation, MatchSubstring, "sanitize", "validate", "escape")

	return c
}

func addAll(dst *[numCategories][]Entry, cat Category, kind MatchKind, texts ...string) {
	for _, t := range texts {
		dst[cat] = append(dst[cat], Entry{Category: cat, Text: t, Kind: kind})
	}
}
