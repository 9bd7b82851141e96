//go:build !unix

package harness

import "os/exec"

func setProcessGroup(cmd *exec.Cmd) {
	cmd.WaitDelay = waitDelay
}
