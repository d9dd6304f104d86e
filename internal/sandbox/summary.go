package sandbox

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
)

// maxReasonLen bounds every failure reason.
const maxReasonLen = 512

// oneLine keeps the first line of s and truncates it to maxReasonLen.
func oneLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexAny(s, "\r\n"); i >= 0 {
		s = s[:i]
	}
	if len(s) > maxReasonLen {
		s = s[:maxReasonLen-3] + "..."
	}
	return s
}

// summarizeError renders "type: message".
func summarizeError(err error) string {
	return oneLine(fmt.Sprintf("%T: %v", err, err))
}

// summarizePanic renders a recovered panic value plus up to frames stack
// frames on one line. It must be called from the deferred recover handler
// so the panicking frames are still on the stack.
func summarizePanic(v any, frames int) string {
	var sb strings.Builder
	if err, ok := v.(error); ok {
		fmt.Fprintf(&sb, "panic %T: %v", err, err)
	} else {
		fmt.Fprintf(&sb, "panic %T: %v", v, v)
	}
	head := oneLine(sb.String())

	if frames <= 0 {
		return head
	}
	pcs := make([]uintptr, 32)
	n := runtime.Callers(3, pcs)
	iter := runtime.CallersFrames(pcs[:n])
	var trace []string
	for len(trace) < frames {
		f, more := iter.Next()
		if !strings.HasPrefix(f.Function, "runtime.") && f.Function != "" {
			trace = append(trace, fmt.Sprintf("%s(%s:%d)", shortFunc(f.Function), filepath.Base(f.File), f.Line))
		}
		if !more {
			break
		}
	}
	if len(trace) == 0 {
		return head
	}
	return oneLine(head + " at " + strings.Join(trace, " <- "))
}

func shortFunc(name string) string {
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		return name[i+1:]
	}
	return name
}
