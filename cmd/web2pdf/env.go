package main

import (
	"io"
	"os"
	"time"
)

// Environment groups the process-level dependencies of the CLI so tests can
// substitute them.
type Environment struct {
	Stdout io.Writer
	Stderr io.Writer
	Now    func() time.Time
}

// defaultEnvironment returns the real process environment.
func defaultEnvironment() *Environment {
	return &Environment{
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		Now:    time.Now,
	}
}
