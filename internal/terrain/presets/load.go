package presets

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed presets.schema.json
var schemaJSON string

var fileSchema = jsonschema.MustCompileString("presets.schema.json", schemaJSON)

type file struct {
	Presets map[string]Preset `yaml:"presets"`
}

// Load returns the built-in catalog extended by the presets in path. Entries
// in the file replace built-ins of the same name. An empty path returns the
// built-ins.
func Load(path string) (*Catalog, error) {
	c := Builtin()
	if strings.TrimSpace(path) == "" {
		return c, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return c, err
	}
	if err := c.merge(raw); err != nil {
		return c, fmt.Errorf("presets.yaml: %w", err)
	}
	return c, nil
}

func (c *Catalog) merge(raw []byte) error {
	if err := validate(raw); err != nil {
		return err
	}
	var f file
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return err
	}
	for name, p := range f.Presets {
		p.Name = name
		c.presets[name] = p
	}
	return nil
}

// validate checks a yaml document against the embedded schema. The schema
// validator wants JSON values, so the document takes a trip through
// encoding/json first.
func validate(raw []byte) error {
	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return err
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	if err := fileSchema.Validate(v); err != nil {
		return fmt.Errorf("schema: %w", err)
	}
	return nil
}
