//go:build !unix

package executor

import "os/exec"

// configureProcess keeps the default cancellation, which kills only the
// direct child.
func configureProcess(_ *exec.Cmd) {}
