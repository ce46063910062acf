package prefs

import (
	"sort"
	"strings"
)

// The command line stack holds ad-hoc "key::value" pairs given on
// invocation (cmd/motiond pushes its -pref flag value, eg.
// "-pref 100::200;110::4000"). The pairs live in memory only and are never
// written to the settings file. Each call to PushCommandLineStack opens a
// new override scope; PopCommandLineStack closes the most recently opened
// one. GetCommandLinePref only ever looks at the innermost open scope. No
// setting in this module reads the stack, so a pushed pair does not change
// any $n value.

type commandLinePair struct {
	key, value string
}

type commandLineGroup []commandLinePair

func (g commandLineGroup) String() string {
	parts := make([]string, len(g))
	for i, p := range g {
		parts[i] = p.key + "::" + p.value
	}
	return strings.Join(parts, "; ")
}

var commandLineStack []commandLineGroup

func parseCommandLineGroup(raw string) commandLineGroup {
	var g commandLineGroup

	for _, part := range strings.Split(raw, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		kv := strings.SplitN(part, "::", 2)
		if len(kv) != 2 {
			continue
		}

		key := strings.TrimSpace(kv[0])
		if key == "" {
			continue
		}

		g = append(g, commandLinePair{key: key, value: strings.TrimSpace(kv[1])})
	}

	sort.Slice(g, func(i, j int) bool { return g[i].key < g[j].key })
	return g
}

// PushCommandLineStack opens a new override scope parsed from raw, a
// semicolon-separated list of "key::value" pairs. Malformed entries (no
// "::", or an empty key) are dropped; the scope is pushed regardless, even
// if every entry in it was dropped.
func PushCommandLineStack(raw string) {
	commandLineStack = append(commandLineStack, parseCommandLineGroup(raw))
}

// PopCommandLineStack closes the innermost override scope and returns its
// canonical "key::value; key::value" form, sorted by key. Returns the empty
// string if the stack is empty.
func PopCommandLineStack() string {
	if len(commandLineStack) == 0 {
		return ""
	}

	g := commandLineStack[len(commandLineStack)-1]
	commandLineStack = commandLineStack[:len(commandLineStack)-1]
	return g.String()
}

// GetCommandLinePref looks up key in the innermost open override scope.
func GetCommandLinePref(key string) (bool, string) {
	if len(commandLineStack) == 0 {
		return false, ""
	}

	for _, p := range commandLineStack[len(commandLineStack)-1] {
		if p.key == key {
			return true, p.value
		}
	}

	return false, ""
}
