package forge

import "strings"

// Result status values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Normalize turns a raw tool result into the map shape planners consume.
// Maps keep their keys and gain status=success when they have no status;
// anything else is wrapped as {"status":"success","data":v}.
func Normalize(v any) map[string]any {
	if m, ok := v.(map[string]any); ok {
		out := make(map[string]any, len(m)+1)
		for k, val := range m {
			out[k] = val
		}
		if _, has := out["status"]; !has {
			out["status"] = StatusSuccess
		}
		return out
	}
	return map[string]any{"status": StatusSuccess, "data": v}
}

// ErrorResult renders err as {"status":"error","reason":...}, keeping only
// the first line of the message.
func ErrorResult(err error) map[string]any {
	reason := "unknown error"
	if err != nil {
		reason = firstLine(err.Error())
	}
	return map[string]any{"status": StatusError, "reason": reason}
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = strings.TrimSpace(s[:i])
	}
	return s
}
