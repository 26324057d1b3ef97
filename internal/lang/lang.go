// Package lang defines the per-language adapter used by generation and
// checking, and the registry of built-in adapters.
package lang

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/frherrer/treesync/internal/document"
	"github.com/frherrer/treesync/internal/lang/noir"
	"github.com/frherrer/treesync/internal/lang/rust"
	"github.com/frherrer/treesync/internal/lang/solidity"
)

// Language adapts one target language.
type Language interface {
	// Name is the identifier used by --lang and by the template engine.
	Name() string
	// Extension is the default output file extension, with the dot.
	Extension() string
	// Parse builds the structural document of a source file. An error means
	// the source cannot be parsed.
	Parse(src []byte) (*document.Document, error)
	// FailureMarker names the expected-failure marker in reports.
	FailureMarker() string
	// MarkFailure returns the edit that adds the expected-failure marker to
	// a test unit.
	MarkFailure(doc *document.Document, unit document.Unit) (document.Edit, error)
}

// Registry maps language names to adapters.
type Registry struct {
	mu    sync.RWMutex
	langs map[string]Language
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{langs: make(map[string]Language)}
}

// NewDefaultRegistry returns a registry holding the rust, noir and solidity
// adapters.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(rust.New())
	r.Register(noir.New())
	r.Register(solidity.New())
	return r
}

// Register adds or replaces an adapter.
func (r *Registry) Register(l Language) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.langs[strings.ToLower(l.Name())] = l
}

// Lookup returns the adapter for name.
func (r *Registry) Lookup(name string) (Language, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if l, ok := r.langs[strings.ToLower(name)]; ok {
		return l, nil
	}
	return nil, fmt.Errorf("unsupported language %q (available: %s)", name, strings.Join(r.namesLocked(), ", "))
}

// Names returns the registered language names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.namesLocked()
}

func (r *Registry) namesLocked() []string {
	names := make([]string, 0, len(r.langs))
	for name := range r.langs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
