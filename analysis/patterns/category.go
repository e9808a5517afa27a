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

import "fmt"

// Category is a vulnerability category. The set of categories is closed: every source, sink
// and sanitizer entry belongs to exactly one of them.
type Category int

const (
	SQLInjection Category = iota
	XSS
	PathTraversal
	CommandInjection
	Validation

	numCategories
)

var categoryNames = [numCategories]string{
	SQLInjection:     "sql-injection",
	XSS:              "xss",
	PathTraversal:    "path-traversal",
	CommandInjection: "command-injection",
	Validation:       "validation",
}

// String returns the serialized name of the category, as it appears in findings.
func (c Category) String() string {
	if c < 0 || c >= numCategories {
		return fmt.Sprintf("category(%d)", int(c))
	}
	return categoryNames[c]
}

// ParseCategory returns the category with the given serialized name. An unknown name is a
// configuration error, reported before any analysis starts.
func ParseCategory(name string) (Category, error) {
	for c, n := range categoryNames {
		if n == name {
			return Category(c), nil
		}
	}
	return 0, fmt.Errorf("unknown vulnerability category %q", name)
}

// Categories returns all categories in their fixed declaration order.
func Categories() []Category {
	cats := make([]Category, numCategories)
	for i := range cats {
		cats[i] = Category(i)
	}
	return cats
}
