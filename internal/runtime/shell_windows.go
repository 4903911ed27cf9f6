//go:build windows

// Package runtime runs external commands through the platform shell.
//
// cmd.exe is used rather than PowerShell: PowerShell 5.x writes UTF-16 LE
// through the > redirect, which breaks engines that expect their output
// files in the system code page.
package runtime

import (
	"context"
	"fmt"
	"os"
	"os/exec"
)

// RunShell executes cmdline with cmd.exe /C in dir (the process directory
// when empty). env entries ("KEY=value") are added to the inherited
// environment. The combined output is returned even when the command fails.
func RunShell(ctx context.Context, cmdline string, env []string, dir string) (string, error) {
	cmd := exec.CommandContext(ctx, "cmd", "/C", cmdline)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), env...)

	out, err := cmd.CombinedOutput()
	if err != nil {
		return string(out), fmt.Errorf("command failed: %w", err)
	}
	return string(out), nil
}
