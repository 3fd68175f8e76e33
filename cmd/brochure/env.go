package main

import (
	"io"
	"os"
	"time"

	brochure "github.com/alnah/go-brochure"
	"github.com/alnah/go-brochure/internal/remote"
)

// DefaultEnvFile is read for Supabase credentials when present.
const DefaultEnvFile = ".env.local"

// Environment holds injectable dependencies for testability.
// Includes I/O, time, process environment, and the external collaborators
// (browser and object store) a capture run talks to.
type Environment struct {
	Now     func() time.Time
	Stdout  io.Writer
	Stderr  io.Writer
	Getenv  func(string) string
	Environ func() []string
	EnvFile string

	NewLauncher    func(brochure.RenderSettings) (brochure.Launcher, error)
	NewObjectStore func(remote.Credentials) (brochure.ObjectStore, error)
}

// DefaultEnv returns the production environment: real Chrome, real Supabase.
func DefaultEnv() *Environment {
	return &Environment{
		Now:     time.Now,
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
		Getenv:  os.Getenv,
		Environ: os.Environ,
		EnvFile: DefaultEnvFile,
		NewLauncher: func(s brochure.RenderSettings) (brochure.Launcher, error) {
			return brochure.NewRodLauncher(s)
		},
		NewObjectStore: func(c remote.Credentials) (brochure.ObjectStore, error) {
			return remote.NewSupabaseStore(c)
		},
	}
}
