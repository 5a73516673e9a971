package plugin

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed manifest_schema.json
var manifestSchemaJSON []byte

var manifestSchema = jsonschema.MustCompileString("manifest_schema.json", string(manifestSchemaJSON))

// Manifest is the on-disk description of a custom plugin. Manifests are JSON
// files validated against an embedded schema before a plugin is built from
// them, so a malformed file is rejected with a precise error instead of a
// half-registered entry.
type Manifest struct {
	Name         string   `json:"name"`
	ProviderType string   `json:"provider_type"`
	Metadata     Metadata `json:"metadata"`
}

// ParseManifest validates raw JSON against the manifest schema and decodes it.
func ParseManifest(raw []byte) (*Manifest, error) {
	var doc any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("invalid manifest JSON: %w", err)
	}
	if err := manifestSchema.Validate(doc); err != nil {
		return nil, fmt.Errorf("manifest schema violation: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("failed to decode manifest: %w", err)
	}
	if m.Metadata.Category == "" {
		m.Metadata.Category = CategoryCustom
	}
	if m.Metadata.APIVersion == "" {
		m.Metadata.APIVersion = APIVersion
	}
	return &m, nil
}

// LoadManifest reads and parses a manifest file.
func LoadManifest(path string) (*Manifest, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	return ParseManifest(raw)
}
