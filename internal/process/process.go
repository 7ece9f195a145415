// Package process controls the lifetime of external renderer processes.
package process

import "os/exec"

// Cancel returns a function suitable for exec.Cmd.Cancel that kills the
// whole process group of cmd, then the leader itself.
func Cancel(cmd *exec.Cmd) func() error {
	return func() error {
		if cmd.Process == nil {
			return nil
		}
		KillProcessGroup(cmd.Process.Pid)
		return cmd.Process.Kill()
	}
}
