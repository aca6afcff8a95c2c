package workflow

import "github.com/hupe1980/actormesh/core"

// Payload kind discriminators for workflow events.
const (
	KindStartWorkflow     = "workflow.start"
	KindWorkflowCompleted = "workflow.completed"
	KindStepRequest       = "step.request"
	KindStepCompleted     = "step.completed"
)

// StartWorkflowPayload begins a run. An empty RunID lets the orchestrator
// allocate one.
type StartWorkflowPayload struct {
	RunID string `json:"run_id,omitempty"`
	Input string `json:"input,omitempty"`
}

// Kind implements core.Payload.
func (StartWorkflowPayload) Kind() string { return KindStartWorkflow }

// WorkflowCompletedPayload is the single terminal event of a run.
type WorkflowCompletedPayload struct {
	RunID   string `json:"run_id"`
	Success bool   `json:"success"`
	Output  string `json:"output,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Kind implements core.Payload.
func (WorkflowCompletedPayload) Kind() string { return KindWorkflowCompleted }

// StepRequestPayload dispatches one step to its executing module. Request
// and completion correlate by (RunID, StepID).
type StepRequestPayload struct {
	RunID      string         `json:"run_id"`
	StepID     string         `json:"step_id"`
	StepType   string         `json:"step_type"`
	TargetRole string         `json:"target_role,omitempty"`
	Input      string         `json:"input,omitempty"`
	Parameters map[string]any `json:"parameters,omitempty"`
}

// Kind implements core.Payload.
func (StepRequestPayload) Kind() string { return KindStepRequest }

// StepCompletedPayload concludes one step, successfully or not.
type StepCompletedPayload struct {
	RunID    string            `json:"run_id"`
	StepID   string            `json:"step_id"`
	Success  bool              `json:"success"`
	Output   string            `json:"output,omitempty"`
	Error    string            `json:"error,omitempty"`
	WorkerID string            `json:"worker_id,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Kind implements core.Payload.
func (StepCompletedPayload) Kind() string { return KindStepCompleted }

// MetaBranch is the StepCompleted metadata key carrying the branch selected
// by a conditional step.
const MetaBranch = "branch"

// RegisterWorkflowPayloads installs decoders for the workflow payload kinds.
func RegisterWorkflowPayloads(c *core.Codec) {
	core.RegisterPayload[StartWorkflowPayload](c)
	core.RegisterPayload[WorkflowCompletedPayload](c)
	core.RegisterPayload[StepRequestPayload](c)
	core.RegisterPayload[StepCompletedPayload](c)
}
