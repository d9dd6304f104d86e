// Package builtin provides the host-supplied tools every toolforge process
// registers at bootstrap.
//
// Tools:
//   - echo: return the given text
//   - sum_numbers: add a list of numbers
//   - word_count: count words, lines and characters of a text
//   - sleep_ms: wait for a number of milliseconds
//
// Built-ins bypass validation and always run in a worker process, so the
// host and the worker must agree on this list; both call Default.
package builtin

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/spf13/cast"

	"toolforge/internal/tools"
)

// Default returns the stock built-in tools.
func Default() []tools.Builtin {
	return []tools.Builtin{
		EchoTool(),
		SumNumbersTool(),
		WordCountTool(),
		SleepTool(),
	}
}

// EchoTool returns its text argument unchanged.
func EchoTool() tools.Builtin {
	return tools.Builtin{
		Name:        "echo",
		Description: "Return the given text unchanged",
		Params:      []tools.Param{{Name: "text", Type: "string"}},
		Returns:     "string",
		Fn:          executeEcho,
	}
}

func executeEcho(ctx context.Context, args map[string]any) (any, error) {
	return cast.ToStringE(args["text"])
}

// SumNumbersTool adds a list of numbers.
func SumNumbersTool() tools.Builtin {
	return tools.Builtin{
		Name:        "sum_numbers",
		Description: "Add a list of numbers and return the total",
		Params:      []tools.Param{{Name: "numbers", Type: "[]float64"}},
		Returns:     "float64",
		Fn:          executeSumNumbers,
	}
}

func executeSumNumbers(ctx context.Context, args map[string]any) (any, error) {
	items, err := cast.ToSliceE(args["numbers"])
	if err != nil {
		return nil, fmt.Errorf("numbers: %w", err)
	}
	var total float64
	for i, item := range items {
		f, err := cast.ToFloat64E(item)
		if err != nil {
			return nil, fmt.Errorf("numbers[%d]: %w", i, err)
		}
		total += f
	}
	return total, nil
}

// WordCountTool reports word, line and character counts.
func WordCountTool() tools.Builtin {
	return tools.Builtin{
		Name:        "word_count",
		Description: "Count the words, lines and characters of a text",
		Params:      []tools.Param{{Name: "text", Type: "string"}},
		Returns:     "map[string]int",
		Fn:          executeWordCount,
	}
}

func executeWordCount(ctx context.Context, args map[string]any) (any, error) {
	text, err := cast.ToStringE(args["text"])
	if err != nil {
		return nil, fmt.Errorf("text: %w", err)
	}
	lines := 0
	if text != "" {
		lines = strings.Count(text, "\n") + 1
		if strings.HasSuffix(text, "\n") {
			lines--
		}
	}
	return map[string]any{
		"words": len(strings.Fields(text)),
		"lines": lines,
		"chars": utf8.RuneCountInString(text),
	}, nil
}

// SleepTool waits ms milliseconds. It exists to exercise worker timeouts.
func SleepTool() tools.Builtin {
	return tools.Builtin{
		Name:        "sleep_ms",
		Description: "Wait for the given number of milliseconds",
		Params:      []tools.Param{{Name: "ms", Type: "int"}},
		Returns:     "string",
		Fn:          executeSleep,
	}
}

func executeSleep(ctx context.Context, args map[string]any) (any, error) {
	ms, err := cast.ToInt64E(args["ms"])
	if err != nil {
		return nil, fmt.Errorf("ms: %w", err)
	}
	if ms < 0 {
		return nil, fmt.Errorf("ms must not be negative, got %d", ms)
	}
	d := time.Duration(ms) * time.Millisecond
	select {
	case <-time.After(d):
		return fmt.Sprintf("slept %dms", ms), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
