package forms

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formsubmit/pkg/model"
)

// Overlay decorates one contract operation with everything the API contract
// does not know: surface element ids, labels, transforms, the success action
// and user-facing copy.
type Overlay struct {
	Endpoint      string         `yaml:"endpoint" json:"endpoint"`
	Action        model.Action   `yaml:"action" json:"action"`
	Target        string         `yaml:"target" json:"target"`
	RedirectDelay string         `yaml:"redirect_delay" json:"redirect_delay"`
	RequiresAuth  *bool          `yaml:"requires_auth" json:"requires_auth"`
	Fields        []FieldOverlay `yaml:"fields" json:"fields"`
	Messages      model.Messages `yaml:"messages" json:"messages"`
}

// FieldOverlay overrides contract-derived field settings. Nil pointers keep
// the contract value.
type FieldOverlay struct {
	Name       string            `yaml:"name" json:"name"`
	Element    string            `yaml:"element" json:"element"`
	Label      string            `yaml:"label" json:"label"`
	Help       string            `yaml:"help" json:"help"`
	Type       model.FieldType   `yaml:"type" json:"type"`
	Required   *bool             `yaml:"required" json:"required"`
	MinLength  *int              `yaml:"min_length" json:"min_length"`
	Secret     *bool             `yaml:"secret" json:"secret"`
	Transforms []model.Transform `yaml:"transforms" json:"transforms"`
}

type overlayDocument struct {
	Forms map[string]Overlay `yaml:"forms" json:"forms"`
}

// loadOverlays walks fsys and parses every YAML/JSON overlay file except the
// contract itself.
func loadOverlays(fsys fs.FS, contract string) (map[string]Overlay, error) {
	overlays := make(map[string]Overlay)
	err := fs.WalkDir(fsys, ".", func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() || path == contract || !isOverlayFile(path) {
			return nil
		}

		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("forms: read %s: %w", path, err)
		}
		doc, err := parseOverlayDocument(data, path)
		if err != nil {
			return err
		}
		for rawID, overlay := range doc.Forms {
			id := strings.TrimSpace(rawID)
			if id == "" {
				return fmt.Errorf("forms: file %s defines an empty form id", path)
			}
			if _, exists := overlays[id]; exists {
				return fmt.Errorf("forms: duplicate form %q (file %s)", id, path)
			}
			overlays[id] = overlay
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return overlays, nil
}

func parseOverlayDocument(data []byte, path string) (overlayDocument, error) {
	var doc overlayDocument
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err := json.Unmarshal(data, &doc); err != nil {
			return doc, fmt.Errorf("forms: parse %s: %w", path, err)
		}
	default:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return doc, fmt.Errorf("forms: parse %s: %w", path, err)
		}
	}
	return doc, nil
}

func isOverlayFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".json":
		return true
	default:
		return false
	}
}
