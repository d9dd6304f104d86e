//go:build !unix

package sandbox

import "os/exec"

// Without process groups the default Cancel (kill the worker) applies.
func configureProcess(cmd *exec.Cmd) {}

func killGroup(cmd *exec.Cmd) {}
