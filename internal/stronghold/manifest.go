package stronghold

import (
	_ "embed"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"go.yaml.in/yaml/v3"
)

// ManifestFile is the name of the manifest at the root of every model.
const ManifestFile = "manifest.yaml"

//go:embed manifest.schema.json
var manifestSchemaJSON string

var manifestSchema = jsonschema.MustCompileString("manifest.schema.json", manifestSchemaJSON)

// Manifest describes the contents of a model archive.
type Manifest struct {
	ID          string   `json:"id,omitempty"          yaml:"id,omitempty"`
	Name        string   `json:"name"                  yaml:"name"`
	Version     string   `json:"version"               yaml:"version"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Inputs      []string `json:"inputs,omitempty"      yaml:"inputs,omitempty"`
	Outputs     []string `json:"outputs,omitempty"     yaml:"outputs,omitempty"`
	Files       []string `json:"files"                 yaml:"files"`
}

// ParseManifest decodes and validates a manifest.
func ParseManifest(data []byte) (*Manifest, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: invalid YAML: %w", ErrInvalidManifest, err)
	}

	if err := manifestSchema.Validate(raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidManifest, err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidManifest, err)
	}

	return &m, nil
}
