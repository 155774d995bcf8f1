package fileaccess

import (
	"bytes"
	"context"
	"errors"
	"io"
)

// MockHandle is a test double for Handle with scriptable permissions.
type MockHandle struct {
	FileName   string
	Data       []byte
	Permission Permission
	// GrantOnRequest controls what RequestPermission returns when the
	// current permission is Prompt.
	GrantOnRequest bool
	OpenErr        error

	queryCalls   int
	requestCalls int
	openCalls    int
}

// NewMockHandle returns a granted handle over the given bytes.
func NewMockHandle(name string, data []byte) *MockHandle {
	return &MockHandle{FileName: name, Data: data, Permission: Granted}
}

func (m *MockHandle) Name() string { return m.FileName }

func (m *MockHandle) Size() int64 { return int64(len(m.Data)) }

func (m *MockHandle) QueryPermission(_ context.Context) Permission {
	m.queryCalls++
	return m.Permission
}

func (m *MockHandle) RequestPermission(_ context.Context) Permission {
	m.requestCalls++
	if m.Permission == Granted {
		return Granted
	}
	if m.Permission == Prompt && m.GrantOnRequest {
		m.Permission = Granted
		return Granted
	}
	m.Permission = Denied
	return Denied
}

func (m *MockHandle) Open(_ context.Context) (io.ReadSeekCloser, error) {
	m.openCalls++
	if m.OpenErr != nil {
		return nil, m.OpenErr
	}
	if m.Permission != Granted {
		return nil, errors.New("fileaccess: not permitted")
	}
	return nopReadSeekCloser{bytes.NewReader(m.Data)}, nil
}

// RequestCalls returns how many times permission was requested.
func (m *MockHandle) RequestCalls() int { return m.requestCalls }

// OpenCalls returns how many times the handle was opened.
func (m *MockHandle) OpenCalls() int { return m.openCalls }

// MockProvider is a test double for Provider.
type MockProvider struct {
	Handles map[string]*MockHandle
}

// NewMockProvider returns an empty provider.
func NewMockProvider() *MockProvider {
	return &MockProvider{Handles: make(map[string]*MockHandle)}
}

// Acquire returns the scripted handle for path.
func (p *MockProvider) Acquire(path string) (Handle, error) {
	h, ok := p.Handles[path]
	if !ok {
		return nil, errors.New("fileaccess: no handle for " + path)
	}
	return h, nil
}

type nopReadSeekCloser struct {
	*bytes.Reader
}

func (nopReadSeekCloser) Close() error { return nil }

// Verify implementations at compile time.
var (
	_ Handle   = (*MockHandle)(nil)
	_ Provider = (*MockProvider)(nil)
	_ Handle   = (*osHandle)(nil)
	_ Provider = (*OSProvider)(nil)
)
