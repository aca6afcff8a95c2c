package tool

import "context"

// FuncTool is a generic adapter that exposes a plain Go function as a tool.
//
// A FuncTool has no internal mutable state after construction and is safe
// for concurrent use by multiple goroutines.
type FuncTool struct {
	name        string
	description string
	fn          func(ctx context.Context, args map[string]any) (string, error)
}

// NewFuncTool constructs a FuncTool from an explicit name, description and
// implementation.
//
// Example:
//
//	echo := tool.NewFuncTool("echo", "Echo the input back", func(ctx context.Context, args map[string]any) (string, error) {
//		text, _ := args["text"].(string)
//		return text, nil
//	})
func NewFuncTool(name, description string, fn func(ctx context.Context, args map[string]any) (string, error)) *FuncTool {
	return &FuncTool{name: name, description: description, fn: fn}
}

// Name implements Tool.
func (t *FuncTool) Name() string { return t.name }

// Description implements Tool.
func (t *FuncTool) Description() string { return t.description }

// Execute implements Tool. Errors from the wrapped function are normalized
// into *ToolError unless they already are one.
func (t *FuncTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	out, err := t.fn(ctx, args)
	if err != nil {
		if _, ok := err.(*ToolError); ok {
			return "", err
		}
		return "", NewToolError(t.name, err.Error())
	}
	return out, nil
}
