package step

import (
	"strconv"
	"strings"

	"github.com/hupe1980/actormesh/core"
	"github.com/hupe1980/actormesh/workflow"
)

// Transform applies a pure text operation to the step input and completes
// synchronously. Unknown operations pass the input through untouched.
//
// Parameters:
//   - op (alias operation): uppercase, lowercase, trim, reverse, count_lines,
//     count_words, take, take_last, join, split, distinct
//   - n: line count for take/take_last (default 1)
//   - separator: delimiter for join/split (default ", " / "\n")
type Transform struct {
	baseModule

	deps workflow.ModuleDeps
}

// NewTransform constructs the transform step module.
func NewTransform(deps workflow.ModuleDeps) *Transform {
	return &Transform{
		baseModule: baseModule{name: TypeTransform, priority: stepPriority},
		deps:       deps,
	}
}

// CanHandle implements core.EventModule.
func (m *Transform) CanHandle(env core.Envelope) bool {
	_, ok := requestOfType(env, TypeTransform)
	return ok
}

// Handle implements core.EventModule.
func (m *Transform) Handle(hctx *core.HandlerContext, env core.Envelope) error {
	req, ok := requestOfType(env, TypeTransform)
	if !ok {
		return nil
	}

	op := paramString(req.Parameters, "op", "")
	if op == "" {
		op = paramString(req.Parameters, "operation", "")
	}
	out := apply(op, req.Input, req.Parameters)

	return completeStep(hctx, req.RunID, req.StepID, out, nil)
}

func apply(op, input string, params map[string]any) string {
	switch op {
	case "uppercase":
		return strings.ToUpper(input)
	case "lowercase":
		return strings.ToLower(input)
	case "trim":
		return strings.TrimSpace(input)
	case "reverse":
		runes := []rune(input)
		for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
			runes[i], runes[j] = runes[j], runes[i]
		}
		return string(runes)
	case "count_lines":
		if input == "" {
			return "0"
		}
		return strconv.Itoa(len(splitLines(input)))
	case "count_words":
		return strconv.Itoa(len(strings.Fields(input)))
	case "take":
		lines := splitLines(input)
		n := clampCount(paramInt(params, "n", 1), len(lines))
		return strings.Join(lines[:n], "\n")
	case "take_last":
		lines := splitLines(input)
		n := clampCount(paramInt(params, "n", 1), len(lines))
		return strings.Join(lines[len(lines)-n:], "\n")
	case "join":
		sep := paramString(params, "separator", ", ")
		return strings.Join(splitLines(input), sep)
	case "split":
		sep := paramString(params, "separator", ",")
		parts := strings.Split(input, sep)
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return strings.Join(parts, "\n")
	case "distinct":
		seen := map[string]struct{}{}
		var out []string
		for _, line := range splitLines(input) {
			if _, ok := seen[line]; ok {
				continue
			}
			seen[line] = struct{}{}
			out = append(out, line)
		}
		return strings.Join(out, "\n")
	default:
		return input
	}
}

func splitLines(s string) []string {
	return strings.Split(strings.TrimRight(s, "\n"), "\n")
}

// clampCount bounds a requested line count to [0, max] so malformed n values
// cannot slice out of range.
func clampCount(n, max int) int {
	if n < 0 {
		return 0
	}
	if n > max {
		return max
	}
	return n
}
