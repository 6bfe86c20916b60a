//go:build windows

package main

import (
	"os/exec"
	"syscall"
)

// detachProcessGroup gives the spawned server its own console process group
// so a Ctrl-C delivered to the CLI does not reach it.
func detachProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		CreationFlags: syscall.CREATE_NEW_PROCESS_GROUP,
	}
}
