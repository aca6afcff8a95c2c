package workflow

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// document mirrors the serialized workflow shape. YAML is a superset of
// JSON, so one parser covers both encodings; unknown fields are ignored.
type document struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Roles       []roleDocument `yaml:"roles"`
	Steps       []stepDocument `yaml:"steps"`
}

type roleDocument struct {
	ID           string   `yaml:"id"`
	Name         string   `yaml:"name"`
	SystemPrompt string   `yaml:"systemPrompt"`
	Provider     string   `yaml:"provider"`
	Model        string   `yaml:"model"`
	EventModules []string `yaml:"eventModules"`
	Connectors   []string `yaml:"connectors"`
}

type stepDocument struct {
	ID         string            `yaml:"id"`
	Type       string            `yaml:"type"`
	TargetRole string            `yaml:"targetRole"`
	Parameters map[string]any    `yaml:"parameters"`
	Next       string            `yaml:"next"`
	Children   []stepDocument    `yaml:"children"`
	Branches   map[string]string `yaml:"branches"`
}

// Parse deserializes a workflow document and maps it into a Definition.
// It fails with a ValidationError when the name or any step id is missing.
// Structural soundness of the step graph is checked separately by
// Definition.Validate.
func Parse(data []byte) (*Definition, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &ValidationError{Msg: fmt.Sprintf("unparseable document: %v", err)}
	}
	if doc.Name == "" {
		return nil, &ValidationError{Field: "name", Msg: "missing"}
	}

	def := &Definition{
		Name:        doc.Name,
		Description: doc.Description,
	}
	for _, r := range doc.Roles {
		if r.ID == "" {
			return nil, &ValidationError{Field: "roles", Msg: "role id missing"}
		}
		def.Roles = append(def.Roles, RoleDefinition{
			ID:           r.ID,
			Name:         r.Name,
			SystemPrompt: r.SystemPrompt,
			Provider:     r.Provider,
			Model:        r.Model,
			EventModules: r.EventModules,
			Connectors:   r.Connectors,
		})
	}
	for _, s := range doc.Steps {
		step, err := mapStep(s)
		if err != nil {
			return nil, err
		}
		def.Steps = append(def.Steps, step)
	}
	return def, nil
}

// mapStep recursively maps a step document, including nested children
// declared by fan-out style step types.
func mapStep(s stepDocument) (StepDefinition, error) {
	if s.ID == "" {
		return StepDefinition{}, &ValidationError{Field: "steps", Msg: "step id missing"}
	}
	step := StepDefinition{
		ID:         s.ID,
		Type:       s.Type,
		TargetRole: s.TargetRole,
		Parameters: s.Parameters,
		Next:       s.Next,
		Branches:   s.Branches,
	}
	for _, c := range s.Children {
		child, err := mapStep(c)
		if err != nil {
			return StepDefinition{}, err
		}
		step.Children = append(step.Children, child)
	}
	return step, nil
}
