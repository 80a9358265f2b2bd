// pkg/registry/registry.go
package registry

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"assistant-nlu/internal/common/validation"
)

//go:embed activities.json
var defaultRegistry []byte

// Default returns the registry shipped with the binary.
func Default() (*ActivityRegistry, error) {
	return parse(defaultRegistry)
}

func LoadRegistry(path string) (*ActivityRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return parse(data)
}

func parse(data []byte) (*ActivityRegistry, error) {
	var reg ActivityRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("decode activity registry: %w", err)
	}
	seen := map[string]bool{}
	for _, a := range reg.Activities {
		if a.TaskType == "" {
			return nil, fmt.Errorf("activity %q has no taskType", a.ID)
		}
		if seen[a.TaskType] {
			return nil, fmt.Errorf("duplicate taskType %q", a.TaskType)
		}
		seen[a.TaskType] = true
	}
	return &reg, nil
}

// Find returns the activity registered for taskType.
func (r *ActivityRegistry) Find(taskType string) (Activity, bool) {
	for _, a := range r.Activities {
		if a.TaskType == taskType {
			return a, true
		}
	}
	return Activity{}, false
}

// ValidateInput checks job variables against the activity's input schema.
func (a Activity) ValidateInput(vars map[string]interface{}) error {
	if len(a.InputSchema) == 0 {
		return nil
	}
	schema, err := json.Marshal(a.InputSchema)
	if err != nil {
		return fmt.Errorf("encode input schema for %s: %w", a.TaskType, err)
	}
	if result := validation.ValidateContract(vars, string(schema)); !result.Valid {
		return errors.New(strings.Join(validation.GetErrorMessages(result), "; "))
	}
	return nil
}
