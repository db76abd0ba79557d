// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/xeipuuv/gojsonschema"
)

var ErrActivityNotFound = errors.New("activity not found")

func LoadRegistry(path string) (*ActivityRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var reg ActivityRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("parse registry %s: %w", path, err)
	}
	return &reg, nil
}

// Save writes the registry back with a refreshed lastUpdated stamp.
func (r *ActivityRegistry) Save(path string) error {
	r.LastUpdated = time.Now().UTC().Format(time.RFC3339)
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

// Find returns the activity bound to a Zeebe task type.
func (r *ActivityRegistry) Find(taskType string) (*Activity, error) {
	for i := range r.Activities {
		if r.Activities[i].TaskType == taskType {
			return &r.Activities[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrActivityNotFound, taskType)
}

// Add appends a new activity. IDs and task types must be unique.
func (r *ActivityRegistry) Add(a Activity) error {
	for _, existing := range r.Activities {
		if existing.ID == a.ID {
			return fmt.Errorf("activity %s already exists", a.ID)
		}
		if existing.TaskType == a.TaskType {
			return fmt.Errorf("task type %s already registered by %s", a.TaskType, existing.ID)
		}
	}
	r.Activities = append(r.Activities, a)
	return nil
}

// Update sets a single scalar field on the activity with the given ID.
func (r *ActivityRegistry) Update(id, field, value string) error {
	for i := range r.Activities {
		a := &r.Activities[i]
		if a.ID != id {
			continue
		}
		switch field {
		case "status", "implementationStatus":
			a.ImplementationStatus = value
		case "version":
			a.Version = value
		case "description":
			a.Description = value
		case "displayName":
			a.DisplayName = value
		case "timeout":
			if _, err := time.ParseDuration(value); err != nil {
				return fmt.Errorf("invalid timeout %q: %w", value, err)
			}
			a.Timeout = value
		default:
			return fmt.Errorf("unsupported field %q", field)
		}
		return nil
	}
	return fmt.Errorf("%w: %s", ErrActivityNotFound, id)
}

// Validate reports every structural problem: duplicate IDs or task types,
// missing fields, bad timeouts and schemas that do not compile.
func (r *ActivityRegistry) Validate() []string {
	var problems []string
	ids := make(map[string]bool)
	taskTypes := make(map[string]bool)

	for _, a := range r.Activities {
		label := a.ID
		if label == "" {
			label = "<unnamed>"
			problems = append(problems, "activity with empty id")
		}
		if ids[a.ID] {
			problems = append(problems, fmt.Sprintf("%s: duplicate id", label))
		}
		ids[a.ID] = true

		if a.TaskType == "" {
			problems = append(problems, fmt.Sprintf("%s: taskType is required", label))
		} else if taskTypes[a.TaskType] {
			problems = append(problems, fmt.Sprintf("%s: duplicate taskType %s", label, a.TaskType))
		}
		taskTypes[a.TaskType] = true

		if a.Timeout != "" {
			if _, err := time.ParseDuration(a.Timeout); err != nil {
				problems = append(problems, fmt.Sprintf("%s: invalid timeout %q", label, a.Timeout))
			}
		}
		for name, schema := range map[string]map[string]interface{}{"inputSchema": a.InputSchema, "outputSchema": a.OutputSchema} {
			if len(schema) == 0 {
				continue
			}
			if _, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(schema)); err != nil {
				problems = append(problems, fmt.Sprintf("%s: %s does not compile: %v", label, name, err))
			}
		}
	}
	sort.Strings(problems)
	return problems
}
