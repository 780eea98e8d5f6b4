package operators

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/felixgeelhaar/plan-go/domain/planning"
)

//go:embed definitions
var definitions embed.FS

// Definitions exposes the built-in operator documents.
func Definitions() fs.FS {
	sub, err := fs.Sub(definitions, "definitions")
	if err != nil {
		panic(err)
	}
	return sub
}

// BuiltinPath returns the resource name for a built-in domain.
func BuiltinPath(domain string) string {
	return domain + ".json"
}

// LoadBuiltin loads the operator set of a built-in domain.
func LoadBuiltin(domain string) (*planning.OperatorSet, error) {
	set, err := LoadFS(Definitions(), BuiltinPath(domain))
	if err != nil {
		return nil, fmt.Errorf("built-in domain %q: %w", domain, err)
	}
	return set, nil
}

// BuiltinDomains lists the built-in operator documents, sorted.
func BuiltinDomains() []string {
	entries, err := fs.ReadDir(Definitions(), ".")
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), path.Ext(e.Name())))
	}
	sort.Strings(names)
	return names
}
