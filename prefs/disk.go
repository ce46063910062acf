// This file is part of Gopher2600.
//
// Gopher2600 is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Gopher2600 is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Gopher2600.  If not, see <https://www.gnu.org/licenses/>.

package prefs

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
)

// WarningBoilerPlate is written as the first line of every preferences file.
const WarningBoilerPlate = "// this file is written by motionfw and will be overwritten; edit with care"

// Disk is a flat text-file-backed collection of named preferences. Keys are
// written out sorted, one "key :: value" pair per line, so the file diffs
// cleanly across saves.
type Disk struct {
	mu       sync.Mutex
	filename string
	prefs    map[string]preference
}

// NewDisk creates a Disk bound to filename. The file is not read until Load
// is called, and need not exist yet.
func NewDisk(filename string) (*Disk, error) {
	if filename == "" {
		return nil, fmt.Errorf("prefs: empty filename")
	}
	return &Disk{
		filename: filename,
		prefs:    make(map[string]preference),
	}, nil
}

// Filename returns the backing file path Disk was created with.
func (d *Disk) Filename() string { return d.filename }

// Add registers a preference value under key. It is an error to register
// the same key twice.
func (d *Disk) Add(key string, v preference) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.prefs[key]; ok {
		return fmt.Errorf("prefs: duplicate key %q", key)
	}
	d.prefs[key] = v
	return nil
}

// Save writes every registered preference to the backing file, sorted by
// key, preceded by WarningBoilerPlate. Entries already in the file under keys
// not registered with this Disk are kept.
func (d *Disk) Save() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	entries := make(map[string]string)
	if data, err := os.ReadFile(d.filename); err == nil {
		for _, line := range strings.Split(string(data), "\n") {
			if parts := strings.SplitN(line, " :: ", 2); len(parts) == 2 {
				entries[parts[0]] = parts[1]
			}
		}
	}
	for k, p := range d.prefs {
		entries[k] = p.String()
	}

	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(WarningBoilerPlate)
	b.WriteString("\n")
	for _, k := range keys {
		fmt.Fprintf(&b, "%s :: %s\n", k, entries[k])
	}

	return os.WriteFile(d.filename, []byte(b.String()), 0o644)
}

// Load reads the backing file and applies each line to the matching
// registered preference. Keys present in the file but not registered are
// ignored; keys registered but absent from the file keep their current
// value. A missing file is not an error.
func (d *Disk) Load() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	data, err := os.ReadFile(d.filename)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("prefs: %w", err)
	}

	for _, line := range strings.Split(string(data), "\n") {
		if line == "" || line == WarningBoilerPlate {
			continue
		}

		parts := strings.SplitN(line, " :: ", 2)
		if len(parts) != 2 {
			continue
		}

		p, ok := d.prefs[parts[0]]
		if !ok {
			continue
		}
		if err := p.Set(parts[1]); err != nil {
			return fmt.Errorf("prefs: loading %q: %w", parts[0], err)
		}
	}

	return nil
}
