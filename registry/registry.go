// Package registry holds the static catalog of selectable models and the
// provider each one belongs to.
package registry

import (
	"errors"
	"fmt"
)

// Provider identifies the backend that serves a model.
type Provider string

const (
	ProviderGemini Provider = "gemini"
	ProviderGroq   Provider = "groq"
	ProviderOllama Provider = "ollama"
)

// ErrNotFound is returned when a model id is not present in the registry.
var ErrNotFound = errors.New("model not found")

// ModelSpec is the immutable metadata for one selectable model.
type ModelSpec struct {
	// ID is the identifier used in provider API calls and in /model commands.
	ID string
	// Name is the human-readable display name.
	Name string
	// Provider selects which adapter serves this model.
	Provider Provider
}

// Registry is an ordered, read-only catalog of ModelSpecs.
type Registry struct {
	specs []ModelSpec
	index map[string]int
}

// New builds a registry from the given specs, preserving declaration order.
// Duplicate ids are rejected so that Lookup is unambiguous.
func New(specs ...ModelSpec) (*Registry, error) {
	r := &Registry{
		specs: make([]ModelSpec, 0, len(specs)),
		index: make(map[string]int, len(specs)),
	}
	for _, s := range specs {
		if _, dup := r.index[s.ID]; dup {
			return nil, fmt.Errorf("duplicate model id %q", s.ID)
		}
		r.index[s.ID] = len(r.specs)
		r.specs = append(r.specs, s)
	}
	return r, nil
}

// Default returns the built-in catalog. The set mirrors the models clio is
// known to work with out of the box; local Ollama models can be anything the
// user has pulled, so only a common default is listed.
func Default() *Registry {
	r, err := New(
		ModelSpec{ID: "gemini-3-flash-preview", Name: "Gemini 3 Flash", Provider: ProviderGemini},
		ModelSpec{ID: "gemini-2.5-flash-lite", Name: "Gemini 2.5 Flash Lite", Provider: ProviderGemini},
		ModelSpec{ID: "gemini-2.5-flash", Name: "Gemini 2.5 Flash", Provider: ProviderGemini},
		ModelSpec{ID: "gemini-2.5-pro", Name: "Gemini 2.5 Pro", Provider: ProviderGemini},
		ModelSpec{ID: "compound-beta", Name: "Groq Compound", Provider: ProviderGroq},
		ModelSpec{ID: "meta-llama/llama-4-scout-17b-16e-instruct", Name: "Llama 4 Scout", Provider: ProviderGroq},
		ModelSpec{ID: "llama3.2", Name: "Llama 3.2 (Ollama)", Provider: ProviderOllama},
	)
	if err != nil {
		// The built-in catalog is a compile-time constant; a duplicate here
		// is a programming error.
		panic(err)
	}
	return r
}

// Lookup returns the spec registered under id, or ErrNotFound.
func (r *Registry) Lookup(id string) (ModelSpec, error) {
	i, ok := r.index[id]
	if !ok {
		return ModelSpec{}, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	return r.specs[i], nil
}

// List returns the specs in declaration order. The slice is a copy; callers
// cannot mutate the catalog through it.
func (r *Registry) List() []ModelSpec {
	out := make([]ModelSpec, len(r.specs))
	copy(out, r.specs)
	return out
}

// Len returns the number of registered models.
func (r *Registry) Len() int {
	return len(r.specs)
}
