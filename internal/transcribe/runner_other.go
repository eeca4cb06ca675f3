//go:build !windows

package transcribe

import "os/exec"

func configureCommand(*exec.Cmd) {}
