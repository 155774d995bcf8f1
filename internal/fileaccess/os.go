package fileaccess

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// OSProvider acquires handles backed by the local filesystem. The
// permission model maps onto file accessibility: a readable file is
// granted, a permission error is denied, and a handle that has not
// been probed yet reports prompt.
type OSProvider struct{}

// NewOSProvider returns a filesystem-backed provider.
func NewOSProvider() *OSProvider {
	return &OSProvider{}
}

// Acquire returns a handle for path. The file is not opened yet.
func (p *OSProvider) Acquire(path string) (Handle, error) {
	if path == "" {
		return nil, errors.New("fileaccess: empty path")
	}
	return &osHandle{path: path}, nil
}

type osHandle struct {
	path    string
	probed  bool
	granted bool
	size    int64
}

func (h *osHandle) Name() string {
	return filepath.Base(h.path)
}

func (h *osHandle) Size() int64 {
	if !h.probed {
		if info, err := os.Stat(h.path); err == nil {
			h.size = info.Size()
		}
	}
	return h.size
}

func (h *osHandle) QueryPermission(_ context.Context) Permission {
	if !h.probed {
		return Prompt
	}
	if h.granted {
		return Granted
	}
	return Denied
}

func (h *osHandle) RequestPermission(_ context.Context) Permission {
	h.probed = true
	info, err := os.Stat(h.path)
	if err != nil {
		h.granted = false
		return Denied
	}
	// Probe readability without keeping the fd.
	f, err := os.Open(h.path)
	if err != nil {
		h.granted = false
		return Denied
	}
	f.Close()
	h.size = info.Size()
	h.granted = true
	return Granted
}

func (h *osHandle) Open(_ context.Context) (io.ReadSeekCloser, error) {
	f, err := os.Open(h.path)
	if err != nil {
		if errors.Is(err, fs.ErrPermission) || errors.Is(err, fs.ErrNotExist) {
			h.probed = true
			h.granted = false
		}
		return nil, err
	}
	return f, nil
}
