//go:build windows

package transcribe

import (
	"os/exec"
	"syscall"
)

const createNoWindow = 0x08000000

// configureCommand keeps the console tool from opening its own window.
func configureCommand(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		HideWindow:    true,
		CreationFlags: createNoWindow,
	}
}
