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

package config

// CacheBudget returns the memory budget in bytes for the preloaded cache. An explicit
// MemoryLimit wins; otherwise MemoryPercent of the system memory is used, clamped to
// [MinMemoryLimit, MaxMemoryLimit]. When the system memory cannot be determined the
// budget is the clamp minimum, which keeps the decision deterministic rather than guessed.
func (c Config) CacheBudget() int64 {
	if c.MemoryLimit > 0 {
		return c.MemoryLimit
	}
	total := systemMemory()
	if total <= 0 {
		return MinMemoryLimit
	}
	budget := total / 100 * int64(c.MemoryPercent)
	if budget < MinMemoryLimit {
		budget = MinMemoryLimit
	}
	if budget > MaxMemoryLimit {
		budget = MaxMemoryLimit
	}
	return budget
}
