package workflow

// Definition is a compiled workflow: named roles plus an ordered step list.
// The entry step is the first step in the list. Step ids are unique within
// one workflow.
type Definition struct {
	Name        string
	Description string
	Roles       []RoleDefinition
	Steps       []StepDefinition
}

// RoleDefinition declares one worker role of a workflow. Connectors is an
// allowlist injected into step requests targeting the role so downstream
// policy can be enforced.
type RoleDefinition struct {
	ID           string
	Name         string
	SystemPrompt string
	Provider     string
	Model        string
	EventModules []string
	Connectors   []string
}

// StepDefinition is one node of the compiled step graph.
type StepDefinition struct {
	ID         string
	Type       string
	TargetRole string
	Parameters map[string]any
	Next       string
	Children   []StepDefinition
	Branches   map[string]string
}

// GetStep returns the top-level step with the given id.
func (d *Definition) GetStep(id string) (*StepDefinition, bool) {
	for i := range d.Steps {
		if d.Steps[i].ID == id {
			return &d.Steps[i], true
		}
	}
	return nil, false
}

// HasStep reports whether id names a top-level step of this workflow.
func (d *Definition) HasStep(id string) bool {
	_, ok := d.GetStep(id)
	return ok
}

// EntryStep returns the first step, or nil for an empty workflow.
func (d *Definition) EntryStep() *StepDefinition {
	if len(d.Steps) == 0 {
		return nil
	}
	return &d.Steps[0]
}

// GetNextStep resolves the successor of the given step: the explicit next
// pointer when declared, otherwise the positional successor in the step
// list. Returns nil when the step is terminal or unknown.
func (d *Definition) GetNextStep(id string) *StepDefinition {
	for i := range d.Steps {
		if d.Steps[i].ID != id {
			continue
		}
		if next := d.Steps[i].Next; next != "" {
			s, _ := d.GetStep(next)
			return s
		}
		if i+1 < len(d.Steps) {
			return &d.Steps[i+1]
		}
		return nil
	}
	return nil
}

// Role returns the role declaration with the given id.
func (d *Definition) Role(id string) (*RoleDefinition, bool) {
	for i := range d.Roles {
		if d.Roles[i].ID == id {
			return &d.Roles[i], true
		}
	}
	return nil, false
}

// Validate checks structural soundness of a parsed definition beyond what
// the parser enforces: unique step ids and resolvable next pointers and
// branch targets. A workflow is executable only after Validate passes.
func (d *Definition) Validate() error {
	seen := make(map[string]struct{}, len(d.Steps))
	for _, s := range d.Steps {
		if _, dup := seen[s.ID]; dup {
			return &CompilationError{StepID: s.ID, Msg: "duplicate step id"}
		}
		seen[s.ID] = struct{}{}
	}
	for _, s := range d.Steps {
		if s.Next != "" && !d.HasStep(s.Next) {
			return &CompilationError{StepID: s.ID, Msg: "next references unknown step " + s.Next}
		}
		for key, target := range s.Branches {
			if !d.HasStep(target) {
				return &CompilationError{StepID: s.ID, Msg: "branch " + key + " references unknown step " + target}
			}
		}
		if s.TargetRole != "" {
			if _, ok := d.Role(s.TargetRole); !ok {
				return &CompilationError{StepID: s.ID, Msg: "target role " + s.TargetRole + " not declared"}
			}
		}
	}
	return nil
}
