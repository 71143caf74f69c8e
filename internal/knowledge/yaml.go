package knowledge

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// File is the on-disk YAML layout of a knowledge base.
type File struct {
	Symptoms   []SymptomDefinition `yaml:"symptoms"`
	Conditions []ConditionRecord   `yaml:"conditions"`
}

// LoadYAML decodes and validates a knowledge base from r. Unknown fields are
// rejected so typos in hand-edited files fail at load time.
func LoadYAML(r io.Reader) (*Base, error) {
	var f File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if err == io.EOF {
			return nil, &ValidationError{Problems: []string{"knowledge file is empty"}}
		}
		return nil, fmt.Errorf("failed to decode knowledge file: %w", err)
	}
	return New(f.Symptoms, f.Conditions)
}

// LoadFile reads a YAML knowledge base from path.
func LoadFile(path string) (*Base, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open knowledge file: %w", err)
	}
	defer fh.Close()

	base, err := LoadYAML(fh)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return base, nil
}

// WriteYAML encodes the knowledge base to w in the layout LoadYAML reads.
func WriteYAML(w io.Writer, b *Base) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	f := File{Symptoms: b.lexicon.Definitions(), Conditions: b.Conditions()}
	if err := enc.Encode(f); err != nil {
		return fmt.Errorf("failed to encode knowledge base: %w", err)
	}
	return enc.Close()
}
