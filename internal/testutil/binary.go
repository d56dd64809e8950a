// Copyright 2026 Red Hat
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sync"
	"time"
)

// BinaryEnv names a prebuilt esxi-inventory binary to use instead of building one.
const BinaryEnv = "ESXI_INVENTORY_BINARY"

const runTimeout = 2 * time.Minute

var binary struct {
	once sync.Once
	path string
	err  error
}

// Result is the outcome of one esxi-inventory invocation.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// BinaryPath returns the binary named by BinaryEnv, or compiles
// ./cmd/esxi-inventory into a temp directory on first use.
func BinaryPath() (string, error) {
	if p := os.Getenv(BinaryEnv); p != "" {
		return p, nil
	}
	binary.once.Do(func() {
		binary.path, binary.err = compile()
	})
	return binary.path, binary.err
}

func moduleRoot() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "..", "..")
}

func compile() (string, error) {
	dir, err := os.MkdirTemp("", "esxi-inventory-bin-*")
	if err != nil {
		return "", fmt.Errorf("creating build dir: %w", err)
	}
	name := "esxi-inventory"
	if runtime.GOOS == "windows" {
		name += ".exe"
	}
	out := filepath.Join(dir, name)

	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	build := exec.CommandContext(ctx, "go", "build", "-o", out, "./cmd/esxi-inventory")
	build.Dir = moduleRoot()
	// go-sqlite3 is a cgo package.
	build.Env = append(os.Environ(), "CGO_ENABLED=1")
	if msg, err := build.CombinedOutput(); err != nil {
		return "", fmt.Errorf("go build: %w\n%s", err, msg)
	}
	return out, nil
}

// RunInventory runs the binary with args and env appended to the current
// environment. A non-zero exit is reported in Result, not as an error.
func RunInventory(env []string, args ...string) (Result, error) {
	path, err := BinaryPath()
	if err != nil {
		return Result{ExitCode: -1}, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Env = append(os.Environ(), env...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err = cmd.Run()
	res := Result{Stdout: stdout.String(), Stderr: stderr.String()}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
	case errors.As(err, &exitErr):
		res.ExitCode = exitErr.ExitCode()
	default:
		res.ExitCode = -1
		return res, fmt.Errorf("running %s: %w", path, err)
	}
	return res, nil
}
