package scenario

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strings"
)

// ErrUnknownBuiltin is returned for a built-in name that does not exist.
var ErrUnknownBuiltin = fmt.Errorf("%w: unknown built-in", ErrInvalidScenario)

//go:embed builtin/*.yaml
var builtinFS embed.FS

const builtinExt = ".yaml"

// Builtin returns the embedded scenario called name.
func Builtin(name string) (*Scenario, error) {
	data, err := builtinFS.ReadFile(path.Join("builtin", name+builtinExt))
	if err != nil {
		return nil, fmt.Errorf("%w %q", ErrUnknownBuiltin, name)
	}

	sc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("built-in %s: %w", name, err)
	}

	return sc, nil
}

// BuiltinNames lists the embedded scenarios in sorted order.
func BuiltinNames() []string {
	entries, err := fs.ReadDir(builtinFS, "builtin")
	if err != nil {
		panic(err)
	}

	names := make([]string, 0, len(entries))

	for _, entry := range entries {
		names = append(names, strings.TrimSuffix(entry.Name(), builtinExt))
	}

	slices.Sort(names)

	return names
}
