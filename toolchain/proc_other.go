//go:build !unix

package toolchain

import "os/exec"

// setProcessGroup keeps the default cancellation, which kills only the direct child.
func setProcessGroup(*exec.Cmd) {}
