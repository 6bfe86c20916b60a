//go:build !windows

package main

import (
	"os/exec"
	"syscall"
)

// detachProcessGroup puts the spawned server in its own process group so
// signals aimed at the CLI (Ctrl-C in the terminal) do not take the
// background server down with it.
func detachProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid: true,
	}
}
