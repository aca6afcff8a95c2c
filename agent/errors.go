package agent

import "fmt"

// HandlerFault wraps a panic recovered inside a handler or module
// invocation. It marks an infrastructure bug rather than a domain failure;
// dispatch isolates it per invocation and continues with the remaining
// matches.
type HandlerFault struct {
	Handler   string
	Recovered any
}

func (f *HandlerFault) Error() string {
	return fmt.Sprintf("handler %s panicked: %v", f.Handler, f.Recovered)
}
