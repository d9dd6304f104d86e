package sandbox

import (
	"bytes"
	"encoding/json"
)

// request is written to the worker's stdin.
type request struct {
	Tool string         `json:"tool"`
	Args map[string]any `json:"args"`
}

const (
	statusOK  = "ok"
	statusErr = "err"

	errKindCrash       = "crash"
	errKindInvalidArgs = "invalid_arguments"
	errKindUnknownTool = "unknown_tool"
)

// envelope is the single line a worker writes to stdout.
type envelope struct {
	Status string          `json:"status"`
	Result json.RawMessage `json:"result,omitempty"`
	Kind   string          `json:"kind,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// lastEnvelope returns the last stdout line that decodes as an envelope.
func lastEnvelope(out []byte) (envelope, bool) {
	lines := bytes.Split(bytes.TrimSpace(out), []byte("\n"))
	for i := len(lines) - 1; i >= 0; i-- {
		line := bytes.TrimSpace(lines[i])
		if len(line) == 0 || line[0] != '{' {
			continue
		}
		var env envelope
		if err := json.Unmarshal(line, &env); err != nil {
			continue
		}
		if env.Status == statusOK || env.Status == statusErr {
			return env, true
		}
	}
	return envelope{}, false
}

// cappedBuffer keeps at most max bytes and silently drops the rest.
type cappedBuffer struct {
	buf bytes.Buffer
	max int
}

func (c *cappedBuffer) Write(p []byte) (int, error) {
	if room := c.max - c.buf.Len(); room > 0 {
		if len(p) > room {
			c.buf.Write(p[:room])
		} else {
			c.buf.Write(p)
		}
	}
	return len(p), nil
}

func (c *cappedBuffer) Bytes() []byte { return c.buf.Bytes() }
