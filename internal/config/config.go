// Package config defines the server's configurable settings, following
// the JSON-with-defaults pattern the teacher's FaustProjectConfig used,
// extended with a YAML loader and a generated JSON schema for client-side
// validation.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/invopop/jsonschema"
	"gopkg.in/yaml.v3"
)

// Formatter groups the inert formatter-hint keys; the formatter itself is
// out of core scope but its configured values are still carried and
// served to clients that implement formatting themselves.
type Formatter struct {
	MaxBlankLines int  `json:"maxBlankLines" yaml:"maxBlankLines"`
	IndentSpaces  int  `json:"indentSpaces" yaml:"indentSpaces"`
	UseTabIndent  bool `json:"useTabIndent" yaml:"useTabIndent"`
}

// Settings is the full set of configuration keys named in spec.md §6.
type Settings struct {
	SuppressAnalyzerErrors  bool      `json:"suppressAnalyzerErrors" yaml:"suppressAnalyzerErrors"`
	BuiltinStringTypes      []string  `json:"builtinStringTypes" yaml:"builtinStringTypes"`
	BuiltinArrayType        string    `json:"builtinArrayType" yaml:"builtinArrayType"`
	ImplicitMutualInclusion bool      `json:"implicitMutualInclusion" yaml:"implicitMutualInclusion"`
	HoistEnumParentScope    bool      `json:"hoistEnumParentScope" yaml:"hoistEnumParentScope"`
	ExplicitPropertyAccessor bool     `json:"explicitPropertyAccessor" yaml:"explicitPropertyAccessor"`
	FormatterSettings       Formatter `json:"formatter" yaml:"formatter"`
}

// Default returns the settings spec.md §6 lists as defaults.
func Default() Settings {
	return Settings{
		SuppressAnalyzerErrors:  true,
		BuiltinStringTypes:      []string{"string", "string_t", "String"},
		BuiltinArrayType:        "array",
		ImplicitMutualInclusion: false,
		HoistEnumParentScope:    false,
		ExplicitPropertyAccessor: true,
		FormatterSettings: Formatter{
			MaxBlankLines: 1,
			IndentSpaces:  4,
			UseTabIndent:  false,
		},
	}
}

// UnmarshalJSON seeds Settings with Default() before decoding, so a
// partial config document only overrides the keys it mentions — mirroring
// the teacher's FaustProjectConfig.UnmarshalJSON.
func (s *Settings) UnmarshalJSON(content []byte) error {
	type plain Settings
	cfg := plain(Default())
	if err := json.Unmarshal(content, &cfg); err != nil {
		return err
	}
	*s = Settings(cfg)
	return nil
}

// LoadJSON reads and decodes a JSON settings document from path.
func LoadJSON(path string) (Settings, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("read config %s: %w", path, err)
	}
	var s Settings
	if err := json.Unmarshal(content, &s); err != nil {
		return Settings{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return s, nil
}

// LoadYAML reads and decodes a `.angelscript-lsp.yaml` settings document,
// seeding defaults first exactly like LoadJSON does, since yaml.v3 has no
// UnmarshalJSON-style hook invoked automatically for a top-level document.
func LoadYAML(path string) (Settings, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("read config %s: %w", path, err)
	}
	s := Default()
	if err := yaml.Unmarshal(content, &s); err != nil {
		return Settings{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return s, nil
}

// JSONSchema generates a schema document for Settings describing the
// documented key set. LoadJSON and LoadYAML do not validate against it.
func JSONSchema() *jsonschema.Schema {
	reflector := &jsonschema.Reflector{ExpandedStruct: true}
	return reflector.Reflect(&Settings{})
}
