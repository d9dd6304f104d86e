package sandbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"toolforge/internal/tools"
)

// Serve is the worker side of a built-in invocation: it reads one request
// from in, runs the named built-in and writes exactly one envelope line to
// out. Panics and errors are reported in the envelope, so Serve only
// returns an error when the envelope itself cannot be written.
func Serve(ctx context.Context, in io.Reader, out io.Writer, builtins []tools.Builtin, frames int) error {
	if frames <= 0 {
		frames = 6
	}
	return writeEnvelope(out, handle(ctx, in, builtins, frames))
}

func handle(ctx context.Context, in io.Reader, builtins []tools.Builtin, frames int) (env envelope) {
	defer func() {
		if r := recover(); r != nil {
			env = envelope{Status: statusErr, Kind: errKindCrash, Error: summarizePanic(r, frames)}
		}
	}()

	var req request
	if err := json.NewDecoder(in).Decode(&req); err != nil {
		return envelope{Status: statusErr, Kind: errKindCrash, Error: oneLine("bad request: " + err.Error())}
	}

	var builtin *tools.Builtin
	for i := range builtins {
		if builtins[i].Name == req.Tool {
			builtin = &builtins[i]
			break
		}
	}
	if builtin == nil {
		return envelope{Status: statusErr, Kind: errKindUnknownTool, Error: req.Tool}
	}

	result, err := builtin.Callable().Call(ctx, req.Args)
	if err != nil {
		if errors.Is(err, tools.ErrInvalidArguments) {
			return envelope{Status: statusErr, Kind: errKindInvalidArgs, Error: oneLine(err.Error())}
		}
		return envelope{Status: statusErr, Kind: errKindCrash, Error: summarizeError(err)}
	}

	raw, err := json.Marshal(result)
	if err != nil {
		return envelope{Status: statusErr, Kind: errKindCrash, Error: oneLine(fmt.Sprintf("unserializable result %T: %v", result, err))}
	}
	return envelope{Status: statusOK, Result: raw}
}

func writeEnvelope(out io.Writer, env envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}
	_, err = out.Write(append(data, '\n'))
	return err
}
