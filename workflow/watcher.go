package workflow

import "github.com/hupe1980/actormesh/core"

// CompletionWatcher is a module that forwards terminal workflow events of
// one run onto a channel so a caller can block until the run finishes. The
// channel is buffered; the watcher never blocks the dispatch pipeline.
type CompletionWatcher struct {
	runID string
	ch    chan WorkflowCompletedPayload
}

// NewCompletionWatcher watches for the terminal event of runID. An empty
// runID matches any run.
func NewCompletionWatcher(runID string) *CompletionWatcher {
	return &CompletionWatcher{runID: runID, ch: make(chan WorkflowCompletedPayload, 1)}
}

// Name implements core.EventModule.
func (w *CompletionWatcher) Name() string { return "completion_watcher:" + w.runID }

// Priority implements core.EventModule. Watchers observe after the loop and
// step modules have run.
func (w *CompletionWatcher) Priority() int { return 1000 }

// CanHandle implements core.EventModule.
func (w *CompletionWatcher) CanHandle(env core.Envelope) bool {
	return env.Payload != nil && env.Payload.Kind() == KindWorkflowCompleted
}

// Handle implements core.EventModule.
func (w *CompletionWatcher) Handle(_ *core.HandlerContext, env core.Envelope) error {
	p, ok := env.Payload.(WorkflowCompletedPayload)
	if !ok {
		return nil
	}
	if w.runID != "" && p.RunID != w.runID {
		return nil
	}
	select {
	case w.ch <- p:
	default:
	}
	return nil
}

// Done returns the channel receiving the terminal event.
func (w *CompletionWatcher) Done() <-chan WorkflowCompletedPayload {
	return w.ch
}
