package codec

import (
	"fmt"
	"io"

	"pathfinder/internal/domain"

	"gopkg.in/yaml.v3"
)

// YAMLCodec handles YAML import/export
type YAMLCodec struct{}

// NewYAMLCodec creates a new YAML codec
func NewYAMLCodec() *YAMLCodec {
	return &YAMLCodec{}
}

// Format returns the codec format identifier
func (c *YAMLCodec) Format() string {
	return "yaml"
}

// Parse reads a seed file from YAML
func (c *YAMLCodec) Parse(r io.Reader) (*domain.SeedFile, error) {
	var doc document
	decoder := yaml.NewDecoder(r)
	if err := decoder.Decode(&doc); err != nil {
		if err == io.EOF {
			return domain.NewSeedFile(), nil
		}
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	return doc.toSeed()
}

// Export writes a snapshot as YAML
func (c *YAMLCodec) Export(snap *domain.Snapshot, w io.Writer) error {
	doc := fromSnapshot(snap)

	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	defer encoder.Close()

	if err := encoder.Encode(&doc); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}

	return nil
}

// UnmarshalYAML accepts a bare name or a mapping with a name
func (n *docNode) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		n.Name = value.Value
		return nil
	}

	var obj struct {
		ID   int64  `yaml:"id"`
		Name string `yaml:"name"`
	}
	if err := value.Decode(&obj); err != nil {
		return fmt.Errorf("node must be a name or a mapping with a name: %w", err)
	}
	n.ID, n.Name = obj.ID, obj.Name
	return nil
}
