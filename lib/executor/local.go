package executor

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"
	"time"
)

func exitErrorString(e *ExitError) string {
	output := strings.TrimSpace(string(e.Result.Stderr))
	if output == "" {
		output = strings.TrimSpace(string(e.Result.Stdout))
	}
	return fmt.Sprintf("error running: %s: exit status %d, output: %s",
		e.Command.Name, e.Result.ExitCode, output)
}

func (e *Local) execute(cmd Command) (*Result, error) {
	if e.dryRun {
		e.logger.Debugf(0, "dry run: skipping: %s\n", cmd)
		if cmd.Stdin != nil {
			io.Copy(io.Discard, cmd.Stdin)
		}
		return &Result{}, nil
	}
	path, err := lookPath(cmd.Chroot, cmd.Name)
	if err != nil {
		return nil, err
	}
	command := exec.Command(path, cmd.Args...)
	command.WaitDelay = time.Second
	command.Dir = cmd.Dir
	if cmd.Chroot != "" {
		if command.Dir == "" {
			command.Dir = "/"
		}
		command.SysProcAttr = &syscall.SysProcAttr{Chroot: cmd.Chroot}
		e.logger.Debugf(0, "running(chroot=%s): %s\n", cmd.Chroot, cmd)
	} else {
		e.logger.Debugf(0, "running: %s\n", cmd)
	}
	if len(cmd.Env) > 0 {
		command.Env = append(os.Environ(), cmd.Env...)
	}
	command.Stdin = cmd.Stdin
	var stdout, stderr bytes.Buffer
	if cmd.Interactive {
		command.Stdin = os.Stdin
		command.Stdout = os.Stdout
		command.Stderr = os.Stderr
	} else if cmd.Output != nil {
		command.Stdout = io.MultiWriter(&stdout, cmd.Output)
		command.Stderr = io.MultiWriter(&stderr, cmd.Output)
	} else {
		command.Stdout = &stdout
		command.Stderr = &stderr
	}
	startTime := time.Now()
	err = command.Run()
	e.logger.Debugf(1, "%s finished in %s\n", cmd.Name,
		time.Since(startTime).Round(time.Millisecond))
	result := &Result{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}
	if err == nil || errors.Is(err, exec.ErrWaitDelay) {
		return result, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		result.ExitCode = exitErr.ExitCode()
		return result, &ExitError{Command: cmd, Result: result}
	}
	return nil, fmt.Errorf("error running: %s: %w", cmd.Name, err)
}

func findExecutable(rootDir, file string) error {
	d, err := os.Stat(filepath.Join(rootDir, file))
	if err != nil {
		return err
	}
	if m := d.Mode(); !m.IsDir() && m&0111 != 0 {
		return nil
	}
	return os.ErrPermission
}

func lookPath(rootDir, file string) (string, error) {
	if strings.Contains(file, "/") {
		if err := findExecutable(rootDir, file); err != nil {
			return "", err
		}
		return file, nil
	}
	path := os.Getenv("PATH")
	if rootDir != "" {
		path = "/usr/local/sbin:/usr/local/bin:/usr/bin:/usr/sbin:/bin:/sbin"
	}
	for _, dir := range filepath.SplitList(path) {
		if dir == "" {
			dir = "."
		}
		path := filepath.Join(dir, file)
		if err := findExecutable(rootDir, path); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("(chroot=%s) %s not found in PATH", rootDir, file)
}
