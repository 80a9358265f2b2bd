package llm

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed examples.yaml
var defaultExamplesYAML []byte

// Example is one worked input/output pair shown to the model.
type Example struct {
	Input  string                 `yaml:"input"`
	Output map[string]interface{} `yaml:"output"`
}

// LoadExamples decodes a YAML list of examples.
func LoadExamples(data []byte) ([]Example, error) {
	var examples []Example
	if err := yaml.Unmarshal(data, &examples); err != nil {
		return nil, fmt.Errorf("decode examples: %w", err)
	}
	for i, ex := range examples {
		if ex.Input == "" || ex.Output == nil {
			return nil, fmt.Errorf("example %d: input and output are required", i)
		}
	}
	return examples, nil
}

// DefaultExamples returns the embedded example set.
func DefaultExamples() []Example {
	examples, err := LoadExamples(defaultExamplesYAML)
	if err != nil {
		panic(err)
	}
	return examples
}
