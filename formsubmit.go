// Package formsubmit wires the built-in forms to a backend and a session
// store. Callers that need finer control use the pkg/ packages directly.
package formsubmit

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/goliatone/go-formsubmit/pkg/client"
	"github.com/goliatone/go-formsubmit/pkg/collect"
	"github.com/goliatone/go-formsubmit/pkg/forms"
	"github.com/goliatone/go-formsubmit/pkg/store"
	"github.com/goliatone/go-formsubmit/pkg/submit"
)

// MemoryStorePath selects the in-memory store in OpenStore.
const MemoryStorePath = ":memory:"

// Forms returns the built-in form catalogue.
func Forms() (*forms.Registry, error) {
	return forms.Default()
}

// LoadForms builds a catalogue from a directory holding an api.yaml contract
// and overlay files. An empty dir returns the built-in catalogue.
func LoadForms(ctx context.Context, dir string) (*forms.Registry, error) {
	if strings.TrimSpace(dir) == "" {
		return forms.Default()
	}
	return forms.Load(ctx, os.DirFS(dir))
}

// OpenStore opens the durable session store at path. MemoryStorePath returns
// a store that lives as long as the process.
func OpenStore(path string) (store.Store, error) {
	if strings.TrimSpace(path) == MemoryStorePath {
		return store.NewMemory(nil), nil
	}
	return store.OpenSQLite(path)
}

// NewSubmitter builds a submitter for formID from registry.
func NewSubmitter(registry *forms.Registry, formID string, collector collect.FieldCollector, requester client.Requester, kv store.Store, options ...submit.Option) (*submit.Submitter, error) {
	if registry == nil {
		return nil, fmt.Errorf("formsubmit: registry is nil")
	}
	spec, ok := registry.Get(formID)
	if !ok {
		return nil, fmt.Errorf("formsubmit: unknown form %q (known: %s)", formID, strings.Join(registry.List(), ", "))
	}
	return submit.New(spec, collector, requester, kv, options...)
}
