package workflow

import "fmt"

// ValidationError reports a malformed workflow document that could not be
// parsed into a definition.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("workflow validation: %s: %s", e.Field, e.Msg)
	}
	return fmt.Sprintf("workflow validation: %s", e.Msg)
}

// CompilationError reports a document that parsed but whose compiled graph
// is not executable, e.g. a next pointer referencing a missing step.
type CompilationError struct {
	StepID string
	Msg    string
}

func (e *CompilationError) Error() string {
	if e.StepID != "" {
		return fmt.Sprintf("workflow compilation: step %s: %s", e.StepID, e.Msg)
	}
	return fmt.Sprintf("workflow compilation: %s", e.Msg)
}
