// Package fileaccess abstracts the host's file-access capability model.
// A Handle is a revocable capability to a single file: permission is
// queried (and possibly requested) before the bytes can be opened.
package fileaccess

import (
	"context"
	"io"
)

// Permission is the state of a capability.
type Permission int

const (
	Denied Permission = iota
	Prompt
	Granted
)

// String returns the permission name.
func (p Permission) String() string {
	switch p {
	case Granted:
		return "granted"
	case Denied:
		return "denied"
	case Prompt:
		return "prompt"
	default:
		return "unknown"
	}
}

// Handle is a capability to read one file.
type Handle interface {
	// Name returns the file's base name.
	Name() string
	// Size returns the file's byte size.
	Size() int64
	// QueryPermission returns the current permission state without
	// prompting.
	QueryPermission(ctx context.Context) Permission
	// RequestPermission asks the host to grant access. The result is
	// Granted or Denied; Prompt is never returned.
	RequestPermission(ctx context.Context) Permission
	// Open yields the file's bytes. Callers must have a granted
	// permission; Open fails otherwise.
	Open(ctx context.Context) (io.ReadSeekCloser, error)
}

// Provider rebinds durable paths to live handles at session start.
type Provider interface {
	// Acquire returns a handle for the given path. The handle's
	// permission may still be Prompt until requested.
	Acquire(path string) (Handle, error)
}
