//go:build !windows

// Package runtime runs external commands through the platform shell.
//
// This file is compiled on all non-Windows platforms; shell_windows.go
// provides the same function for Windows.
package runtime

import (
	"context"
	"fmt"
	"os"
	"os/exec"
)

// RunShell executes cmdline with /bin/sh in dir (the process directory when
// empty). env entries ("KEY=value") are added to the inherited environment.
// The combined stdout and stderr is returned even when the command fails.
func RunShell(ctx context.Context, cmdline string, env []string, dir string) (string, error) {
	cmd := exec.CommandContext(ctx, "sh", "-c", cmdline)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), env...)

	out, err := cmd.CombinedOutput()
	if err != nil {
		return string(out), fmt.Errorf("command failed: %w", err)
	}
	return string(out), nil
}
