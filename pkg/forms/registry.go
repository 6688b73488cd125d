// Package forms builds the catalogue of submittable forms from an OpenAPI
// contract plus YAML overlays.
package forms

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"slices"
	"sort"
	"sync"

	"github.com/goliatone/go-formsubmit/internal/openapi/parser"
	"github.com/goliatone/go-formsubmit/pkg/model"
	pkgopenapi "github.com/goliatone/go-formsubmit/pkg/openapi"
)

// DefaultContract is the contract file name looked up inside a definitions
// filesystem.
const DefaultContract = "api.yaml"

//go:embed definitions/*.yaml
var definitionsFS embed.FS

// Definitions exposes the embedded contract and overlays.
func Definitions() fs.FS {
	sub, err := fs.Sub(definitionsFS, "definitions")
	if err != nil {
		panic(fmt.Sprintf("forms: embedded definitions: %v", err))
	}
	return sub
}

// Registry holds built form specs keyed by id.
type Registry struct {
	mu    sync.RWMutex
	forms map[string]model.FormSpec
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{forms: make(map[string]model.FormSpec)}
}

// Register adds spec; ids must be unique.
func (r *Registry) Register(spec model.FormSpec) error {
	if err := validateSpec(spec); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.forms[spec.ID]; exists {
		return fmt.Errorf("forms: form %q already registered", spec.ID)
	}
	r.forms[spec.ID] = spec
	return nil
}

// Get returns a copy of the spec registered under id; callers may modify it
// freely.
func (r *Registry) Get(id string) (model.FormSpec, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	spec, ok := r.forms[id]
	if !ok {
		return model.FormSpec{}, false
	}
	spec.Fields = slices.Clone(spec.Fields)
	for i := range spec.Fields {
		spec.Fields[i].Transforms = slices.Clone(spec.Fields[i].Transforms)
	}
	return spec, true
}

// List returns the registered ids in sorted order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.forms))
	for id := range r.forms {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// LoadOption configures Load.
type LoadOption func(*loadOptions)

type loadOptions struct {
	contract     string
	contractData []byte
	parser       pkgopenapi.Parser
}

// WithContract sets the contract file name inside the filesystem.
func WithContract(name string) LoadOption {
	return func(o *loadOptions) {
		if name != "" {
			o.contract = name
		}
	}
}

// WithContractData uses raw as the contract instead of reading it from the
// filesystem. Overlays are still read from the filesystem.
func WithContractData(raw []byte) LoadOption {
	return func(o *loadOptions) {
		o.contractData = raw
	}
}

// WithParser swaps the OpenAPI parser.
func WithParser(p pkgopenapi.Parser) LoadOption {
	return func(o *loadOptions) {
		if p != nil {
			o.parser = p
		}
	}
}

// Load reads the contract and every overlay in fsys and builds one form per
// overlay entry. Overlays referencing an unknown operation fail the load.
func Load(ctx context.Context, fsys fs.FS, options ...LoadOption) (*Registry, error) {
	cfg := loadOptions{contract: DefaultContract}
	for _, opt := range options {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.parser == nil {
		cfg.parser = parser.New()
	}

	raw := cfg.contractData
	if raw == nil {
		var err error
		if raw, err = fs.ReadFile(fsys, cfg.contract); err != nil {
			return nil, fmt.Errorf("forms: read contract: %w", err)
		}
	}
	operations, err := cfg.parser.Operations(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("forms: %w", err)
	}
	overlays, err := loadOverlays(fsys, cfg.contract)
	if err != nil {
		return nil, err
	}

	registry := NewRegistry()
	for id, overlay := range overlays {
		op, ok := operations[id]
		if !ok {
			return nil, fmt.Errorf("forms: overlay %q has no matching operation in %s", id, cfg.contract)
		}
		spec, err := Build(id, op, overlay)
		if err != nil {
			return nil, err
		}
		if err := registry.Register(spec); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
	defaultErr      error
)

// Default returns the registry built from the embedded definitions: login,
// signup and service.
func Default() (*Registry, error) {
	defaultOnce.Do(func() {
		defaultRegistry, defaultErr = Load(context.Background(), Definitions())
	})
	return defaultRegistry, defaultErr
}
